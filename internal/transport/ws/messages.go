package ws

// Типы событий, которые ходят по сокету
const (
	// inbound
	EventJoinChat      = "join-chat"
	EventCreateChat    = "create-chat"
	EventSendMessage   = "send-message"
	EventGetMySessions = "get-my-sessions"
	EventChatHistory   = "chat-history" // inbound request and outbound reply share the name

	// outbound
	EventConnected           = "connected"
	EventAuthError           = "auth_error"
	EventError               = "error"
	EventSession             = "session"
	EventJoined              = "joined"
	EventReceiveMessage      = "receive-message"
	EventSessionNotification = "session-notification"
	EventDisconnected        = "disconnected"
)

type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type JoinChatPayload struct {
	SessionID string `json:"session_id"`
}

type CreateChatPayload struct {
	RestaurantID int64 `json:"restaurant_id"`
}

type SendMessagePayload struct {
	SessionID string `json:"session_id"`
	Body      string `json:"body"`
}

type ChatHistoryPayload struct {
	SessionID string `json:"session_id"`
}

type JoinedPayload struct {
	SessionID string `json:"session_id"`
}

// ReceiveMessagePayload is fanned out to every room member, sender
// included. Timestamp is RFC 3339 text; sender_id stays a plain JSON
// number so standard decoders round-trip it.
type ReceiveMessagePayload struct {
	SenderID  int64  `json:"sender_id"`
	SessionID string `json:"session_id"`
	Body      string `json:"body"`
	Timestamp string `json:"timestamp"`
}

type SessionPayload struct {
	SessionID string `json:"session_id"`
}

type SessionItem struct {
	SessionID    string `json:"session_id"`
	UserID       int64  `json:"user_id"`
	RestaurantID int64  `json:"restaurant_id"`
	CreatedAt    string `json:"created_at"`
}

type HistoryItem struct {
	ID        string `json:"id"`
	SenderID  int64  `json:"sender_id"`
	Body      string `json:"body"`
	CreatedAt string `json:"created_at"`
}

type SessionNotificationPayload struct {
	SessionID string `json:"session_id"`
}
