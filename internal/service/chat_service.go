package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

const maxMessageLen = 4000 // todo: вынести в конфиг

var (
	ErrEmptyMessage   = errors.New("empty message")
	ErrMessageTooLong = errors.New("message too long")
)

// TranscriptRepo is the per-session transcript slice of the store.
type TranscriptRepo interface {
	Get(ctx context.Context, id string) (*domain.ChatSession, error)
	AppendMessage(ctx context.Context, sessionID, messageID string) error
}

// MessageRepo persists and resolves message rows. Get returns nil, nil for
// a missing row.
type MessageRepo interface {
	Create(ctx context.Context, senderID int64, body string) (*domain.Message, error)
	Get(ctx context.Context, id string) (*domain.Message, error)
}

type ChatService struct {
	sessions TranscriptRepo
	messages MessageRepo
	locks    *sessionLocks
}

func NewChatService(sessions TranscriptRepo, messages MessageRepo) *ChatService {
	return &ChatService{
		sessions: sessions,
		messages: messages,
		locks:    newSessionLocks(),
	}
}

// Send persists one message and appends its id to the session transcript.
// The whole operation, including the deliver callback (room broadcast),
// runs inside the session's critical section: concurrent senders to one
// session are accepted one at a time, so broadcast order equals transcript
// order and no append is lost. deliver may be nil.
func (s *ChatService) Send(ctx context.Context, sessionID string, senderID int64, body string, deliver func(sentAt time.Time, body string)) (*domain.Message, error) {
	body = strings.TrimSpace(body)
	if body == "" {
		return nil, ErrEmptyMessage
	}
	if len(body) > maxMessageLen {
		return nil, ErrMessageTooLong
	}

	mu := s.locks.get(sessionID)
	mu.Lock()
	defer mu.Unlock()

	if deliver != nil {
		deliver(time.Now(), body)
	}

	msg, err := s.messages.Create(ctx, senderID, body)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.AppendMessage(ctx, sessionID, msg.ID); err != nil {
		return nil, err
	}
	return msg, nil
}

// History resolves the session transcript in FIFO append order. A message
// id whose backing row has gone missing is skipped, not an error; an empty
// or absent transcript yields an empty slice.
func (s *ChatService) History(ctx context.Context, sessionID string) ([]domain.Message, error) {
	sess, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Message, 0, len(sess.MsgIDs))
	for _, id := range sess.MsgIDs {
		msg, err := s.messages.Get(ctx, id)
		if err != nil {
			return nil, err
		}
		if msg == nil {
			continue
		}
		out = append(out, *msg)
	}
	return out, nil
}
