package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// memStore is an in-memory stand-in for the postgres repositories with the
// same not-found and conflict semantics.
type memStore struct {
	mu       sync.Mutex
	seq      int
	sessions map[string]*domain.ChatSession
	messages map[string]*domain.Message
	gone     map[string]bool // message ids whose rows were deleted out from under the transcript

	createErr error
}

func newMemStore() *memStore {
	return &memStore{
		sessions: make(map[string]*domain.ChatSession),
		messages: make(map[string]*domain.Message),
		gone:     make(map[string]bool),
	}
}

func (m *memStore) Get(_ context.Context, id string) (*domain.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	cp := *s
	cp.MsgIDs = append([]string(nil), s.MsgIDs...)
	return &cp, nil
}

func (m *memStore) FindByPair(_ context.Context, userID, restaurantID int64) (*domain.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.sessions {
		if s.UserID == userID && s.RestaurantID == restaurantID {
			cp := *s
			return &cp, nil
		}
	}
	return nil, domain.ErrSessionNotFound
}

func (m *memStore) Create(_ context.Context, userID, restaurantID int64) (*domain.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.createErr != nil {
		return nil, m.createErr
	}
	for _, s := range m.sessions {
		if s.UserID == userID && s.RestaurantID == restaurantID {
			// ON CONFLICT DO NOTHING: no row returned
			return nil, domain.ErrSessionNotFound
		}
	}
	m.seq++
	s := &domain.ChatSession{
		ID:           fmt.Sprintf("sess-%d", m.seq),
		UserID:       userID,
		RestaurantID: restaurantID,
		MsgIDs:       []string{},
		CreatedAt:    time.Now(),
	}
	m.sessions[s.ID] = s
	return s, nil
}

func (m *memStore) ListByUser(_ context.Context, userID int64) ([]domain.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ChatSession
	for _, s := range m.sessions {
		if s.UserID == userID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memStore) ListByRestaurant(_ context.Context, restaurantID int64) ([]domain.ChatSession, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []domain.ChatSession
	for _, s := range m.sessions {
		if s.RestaurantID == restaurantID {
			out = append(out, *s)
		}
	}
	return out, nil
}

func (m *memStore) AppendMessage(_ context.Context, sessionID, messageID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[sessionID]
	if !ok {
		return domain.ErrSessionNotFound
	}
	s.MsgIDs = append(s.MsgIDs, messageID)
	return nil
}

func (m *memStore) CreateMessage(_ context.Context, senderID int64, body string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	msg := &domain.Message{
		ID:        fmt.Sprintf("msg-%d", m.seq),
		SenderID:  senderID,
		Body:      body,
		CreatedAt: time.Now(),
	}
	m.messages[msg.ID] = msg
	return msg, nil
}

func (m *memStore) GetMessage(_ context.Context, id string) (*domain.Message, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.gone[id] {
		return nil, nil
	}
	msg, ok := m.messages[id]
	if !ok {
		return nil, nil
	}
	cp := *msg
	return &cp, nil
}

// messageRepo adapts memStore to the MessageRepo method names.
type messageRepo struct{ *memStore }

func (r messageRepo) Create(ctx context.Context, senderID int64, body string) (*domain.Message, error) {
	return r.CreateMessage(ctx, senderID, body)
}

func (r messageRepo) Get(ctx context.Context, id string) (*domain.Message, error) {
	return r.GetMessage(ctx, id)
}

func TestFindOrCreate_Idempotent(t *testing.T) {
	store := newMemStore()
	svc := NewSessionService(store)
	ctx := context.Background()

	first, err := svc.FindOrCreate(ctx, 7, 3)
	if err != nil {
		t.Fatalf("first FindOrCreate: %v", err)
	}
	second, err := svc.FindOrCreate(ctx, 7, 3)
	if err != nil {
		t.Fatalf("second FindOrCreate: %v", err)
	}

	if first.ID != second.ID {
		t.Fatalf("expected same session id, got %s and %s", first.ID, second.ID)
	}
	if len(store.sessions) != 1 {
		t.Fatalf("expected one session row, got %d", len(store.sessions))
	}
	if first.UserID != 7 || first.RestaurantID != 3 {
		t.Fatalf("wrong pair: user=%d restaurant=%d", first.UserID, first.RestaurantID)
	}
}

func TestFindOrCreate_LosesInsertRace(t *testing.T) {
	store := newMemStore()
	svc := NewSessionService(store)
	ctx := context.Background()

	// Winner's row appears between our failed find and the insert.
	winner, err := store.Create(ctx, 7, 3)
	if err != nil {
		t.Fatalf("seed: %v", err)
	}

	got, err := svc.FindOrCreate(ctx, 7, 3)
	if err != nil {
		t.Fatalf("FindOrCreate after race: %v", err)
	}
	if got.ID != winner.ID {
		t.Fatalf("expected winner's session %s, got %s", winner.ID, got.ID)
	}
}

func TestFindOrCreate_StoreFailurePassedThrough(t *testing.T) {
	store := newMemStore()
	store.createErr = errors.New("connection reset")
	svc := NewSessionService(store)

	_, err := svc.FindOrCreate(context.Background(), 7, 3)
	if err == nil || errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected store failure, got %v", err)
	}
}

func TestFind_DistinguishesNotFound(t *testing.T) {
	svc := NewSessionService(newMemStore())

	_, err := svc.Find(context.Background(), "nope")
	if !errors.Is(err, domain.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
}

func TestListForIdentity_ByRole(t *testing.T) {
	store := newMemStore()
	svc := NewSessionService(store)
	ctx := context.Background()

	if _, err := store.Create(ctx, 7, 3); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.Create(ctx, 8, 3); err != nil {
		t.Fatalf("seed: %v", err)
	}
	if _, err := store.Create(ctx, 7, 9); err != nil {
		t.Fatalf("seed: %v", err)
	}

	customer, err := svc.ListForIdentity(ctx, domain.NewCustomer(7))
	if err != nil {
		t.Fatalf("customer list: %v", err)
	}
	if len(customer) != 2 {
		t.Fatalf("customer 7 expected 2 sessions, got %d", len(customer))
	}

	admin, _ := domain.NewRestaurantAdmin(100, 3)
	adminList, err := svc.ListForIdentity(ctx, admin)
	if err != nil {
		t.Fatalf("admin list: %v", err)
	}
	if len(adminList) != 2 {
		t.Fatalf("restaurant 3 expected 2 sessions, got %d", len(adminList))
	}
}
