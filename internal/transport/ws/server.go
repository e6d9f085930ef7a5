package ws

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"runtime/debug"
	"strings"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
	"github.com/cwrk-planet/chat-service/internal/service"

	"github.com/gorilla/websocket"
)

// CredentialVerifier checks a bearer credential and decodes its subject.
type CredentialVerifier interface {
	VerifyAndDecode(token string) (int64, error)
}

// IdentitySvc resolves a decoded subject to an Identity.
type IdentitySvc interface {
	FindIdentity(ctx context.Context, id int64) (domain.Identity, error)
}

type SessionSvc interface {
	FindOrCreate(ctx context.Context, userID, restaurantID int64) (*domain.ChatSession, error)
	Find(ctx context.Context, sessionID string) (*domain.ChatSession, error)
	ListForIdentity(ctx context.Context, id domain.Identity) ([]domain.ChatSession, error)
}

type ChatSvc interface {
	Send(ctx context.Context, sessionID string, senderID int64, body string, deliver func(sentAt time.Time, body string)) (*domain.Message, error)
	History(ctx context.Context, sessionID string) ([]domain.Message, error)
}

type Server struct {
	upgrader   websocket.Upgrader
	hub        *Hub
	registry   *Registry
	verifier   CredentialVerifier
	identities IdentitySvc
	sessions   SessionSvc
	chat       ChatSvc

	pingEvery time.Duration
}

func NewServer(hub *Hub, registry *Registry, verifier CredentialVerifier, identities IdentitySvc, sessions SessionSvc, chat ChatSvc) *Server {
	return &Server{
		hub:        hub,
		registry:   registry,
		verifier:   verifier,
		identities: identities,
		sessions:   sessions,
		chat:       chat,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		pingEvery: 15 * time.Second,
	}
}

// client is the per-connection state the event handlers see: the live
// connection plus the immutable Identity attached at handshake.
type client struct {
	Conn
	identity domain.Identity
}

// WS endpoint: GET /ws/chat?access_token=...
func (s *Server) HandleWS(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimSpace(r.URL.Query().Get("access_token"))

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Warn("ws upgrade failed", "err", err)
		http.Error(w, "upgrade failed", http.StatusBadRequest)
		return
	}

	c := newWsConn(conn)

	identity, err := s.authenticate(r.Context(), token)
	if err != nil {
		// один auth_error и обрыв; никакой частичной регистрации
		_ = c.Emit(EventAuthError, authMessage(err))
		_ = c.Close()
		return
	}

	cl := &client{Conn: c, identity: identity}

	if identity.Role == domain.RoleRestaurantAdmin {
		s.registry.Register(identity.RestaurantID, c)
	}

	if err := c.Emit(EventConnected, nil); err != nil {
		slog.Debug("ws connected ack failed", "conn", c.ID(), "err", err)
	}

	go s.writeLoop(r.Context(), c)
	s.readLoop(r.Context(), cl)

	// teardown runs synchronously in the read-loop goroutine: rooms and
	// registry must be clean before the connection is released
	_ = c.Emit(EventDisconnected, "You have been disconnected!")
	s.hub.Detach(c)
	s.registry.Deregister(c)

	if err := c.Close(); err != nil {
		slog.Debug("ws close failed", "conn", c.ID(), "err", err)
	}
}

func (s *Server) authenticate(ctx context.Context, token string) (domain.Identity, error) {
	if token == "" {
		return domain.Identity{}, domain.ErrMissingCredential
	}

	subject, err := s.verifier.VerifyAndDecode(token)
	if err != nil {
		return domain.Identity{}, domain.ErrInvalidCredential
	}

	identity, err := s.identities.FindIdentity(ctx, subject)
	if err != nil {
		return domain.Identity{}, err
	}
	return identity, nil
}

func authMessage(err error) string {
	switch {
	case errors.Is(err, domain.ErrMissingCredential):
		return "Token not provided"
	case errors.Is(err, domain.ErrInvalidCredential):
		return "Invalid or expired token"
	case errors.Is(err, domain.ErrUnknownIdentity):
		return "User not found in database"
	case errors.Is(err, domain.ErrInconsistentRole):
		return "Restaurant role without restaurant affiliation"
	default:
		return "Authentication failed"
	}
}

func (s *Server) readLoop(ctx context.Context, cl *client) {
	c := cl.Conn.(*wsConn)
	defer func() { _ = c.Close() }()

	c.conn.SetReadLimit(1 << 20)
	c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(2 * s.pingEvery))
		return nil
	})

	for {
		_, data, err := c.conn.ReadMessage()
		if err != nil {
			break
		}
		var msg Message
		if err := json.Unmarshal(data, &msg); err != nil {
			continue
		}
		s.dispatch(ctx, cl, msg)
	}
}

// dispatch fault-isolates each event: a failing handler answers with an
// error event but never takes down the connection's goroutine.
func (s *Server) dispatch(ctx context.Context, cl *client, msg Message) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("ws handler panic",
				"event", msg.Type,
				"conn", cl.ID(),
				"panic", r,
				"stack", string(debug.Stack()))
			_ = cl.Emit(EventError, "internal server error")
		}
	}()

	switch msg.Type {
	case EventJoinChat:
		var p JoinChatPayload
		if decode(msg.Payload, &p) == nil {
			s.handleJoinChat(ctx, cl, p)
		}
	case EventCreateChat:
		var p CreateChatPayload
		if decode(msg.Payload, &p) == nil {
			s.handleCreateChat(ctx, cl, p)
		}
	case EventSendMessage:
		var p SendMessagePayload
		if decode(msg.Payload, &p) == nil {
			s.handleSendMessage(ctx, cl, p)
		}
	case EventGetMySessions:
		s.handleGetMySessions(ctx, cl)
	case EventChatHistory:
		var p ChatHistoryPayload
		if decode(msg.Payload, &p) == nil {
			s.handleChatHistory(ctx, cl, p)
		}
	default:
		// ignore
	}
}

// join-chat: admit iff the session exists and the caller is its customer
// or an admin of its restaurant. Denial keeps the connection open and the
// room untouched.
func (s *Server) handleJoinChat(ctx context.Context, cl *client, p JoinChatPayload) {
	sess, err := s.sessions.Find(ctx, p.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			_ = cl.Emit(EventError, "Error: Unauthorized access to chat session")
			return
		}
		s.storeError(cl, "join-chat", err)
		return
	}

	if !sess.Participant(cl.identity) {
		_ = cl.Emit(EventError, "Error: Unauthorized access to chat session")
		return
	}

	s.hub.Join(sess.ID, cl.Conn)
	_ = cl.Emit(EventJoined, JoinedPayload{SessionID: sess.ID})
}

// create-chat: find-or-create the one session for (caller, restaurant),
// then notify every live admin console of that restaurant.
func (s *Server) handleCreateChat(ctx context.Context, cl *client, p CreateChatPayload) {
	if cl.identity.Role != domain.RoleCustomer {
		_ = cl.Emit(EventError, "Error: Only customers can create chat sessions")
		return
	}
	if p.RestaurantID <= 0 {
		_ = cl.Emit(EventError, "Error: Invalid restaurant id")
		return
	}

	sess, err := s.sessions.FindOrCreate(ctx, cl.identity.ID, p.RestaurantID)
	if err != nil {
		s.storeError(cl, "create-chat", err)
		return
	}

	_ = cl.Emit(EventSession, SessionPayload{SessionID: sess.ID})
	s.registry.NotifyAll(sess.RestaurantID, EventSessionNotification,
		SessionNotificationPayload{SessionID: sess.ID})
}

// send-message: the precondition is local room membership, not a second
// authorization query. Broadcast and transcript append happen inside the
// session's critical section, in acceptance order.
func (s *Server) handleSendMessage(ctx context.Context, cl *client, p SendMessagePayload) {
	if !s.hub.IsMember(p.SessionID, cl.Conn) {
		_ = cl.Emit(EventError, "Error: You are not a member of this chat session")
		return
	}

	_, err := s.chat.Send(ctx, p.SessionID, cl.identity.ID, p.Body, func(sentAt time.Time, body string) {
		s.hub.Broadcast(p.SessionID, EventReceiveMessage, ReceiveMessagePayload{
			SenderID:  cl.identity.ID,
			SessionID: p.SessionID,
			Body:      body,
			Timestamp: sentAt.UTC().Format(time.RFC3339Nano),
		})
	})
	if err != nil {
		if errors.Is(err, service.ErrEmptyMessage) || errors.Is(err, service.ErrMessageTooLong) {
			_ = cl.Emit(EventError, "Error: "+err.Error())
			return
		}
		s.storeError(cl, "send-message", err)
	}
}

func (s *Server) handleGetMySessions(ctx context.Context, cl *client) {
	list, err := s.sessions.ListForIdentity(ctx, cl.identity)
	if err != nil {
		s.storeError(cl, "get-my-sessions", err)
		return
	}

	items := make([]SessionItem, 0, len(list))
	for _, sess := range list {
		items = append(items, SessionItem{
			SessionID:    sess.ID,
			UserID:       sess.UserID,
			RestaurantID: sess.RestaurantID,
			CreatedAt:    sess.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	_ = cl.Emit(EventSession, items)
}

func (s *Server) handleChatHistory(ctx context.Context, cl *client, p ChatHistoryPayload) {
	msgs, err := s.chat.History(ctx, p.SessionID)
	if err != nil {
		if errors.Is(err, domain.ErrSessionNotFound) {
			_ = cl.Emit(EventError, "Cannot get history chat history not found in DB")
			return
		}
		s.storeError(cl, "chat-history", err)
		return
	}

	items := make([]HistoryItem, 0, len(msgs))
	for _, m := range msgs {
		items = append(items, HistoryItem{
			ID:        m.ID,
			SenderID:  m.SenderID,
			Body:      m.Body,
			CreatedAt: m.CreatedAt.UTC().Format(time.RFC3339Nano),
		})
	}
	_ = cl.Emit(EventChatHistory, items)
}

// storeError converts a collaborator failure into one generic error event;
// the store error itself only goes to the log.
func (s *Server) storeError(cl *client, event string, err error) {
	slog.Error("ws "+event+" failed", "conn", cl.ID(), "err", err)
	_ = cl.Emit(EventError, "internal server error")
}

func (s *Server) writeLoop(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(s.pingEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			_ = c.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(5*time.Second))
		case <-ctx.Done():
			return
		case <-c.closed:
			return
		}
	}
}

// --- helpers ---

func decode(payload interface{}, dst interface{}) error {
	b, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	return json.Unmarshal(b, dst)
}
