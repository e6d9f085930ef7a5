package service

import (
	"context"
	"errors"

	"github.com/cwrk-planet/chat-service/internal/domain"
)

// SessionRepo is the slice of the store this service consumes. Implemented
// by postgres.SessionRepository.
type SessionRepo interface {
	Get(ctx context.Context, id string) (*domain.ChatSession, error)
	FindByPair(ctx context.Context, userID, restaurantID int64) (*domain.ChatSession, error)
	Create(ctx context.Context, userID, restaurantID int64) (*domain.ChatSession, error)
	ListByUser(ctx context.Context, userID int64) ([]domain.ChatSession, error)
	ListByRestaurant(ctx context.Context, restaurantID int64) ([]domain.ChatSession, error)
}

type SessionService struct {
	sessions SessionRepo
}

func NewSessionService(sessions SessionRepo) *SessionService {
	return &SessionService{sessions: sessions}
}

// FindOrCreate returns the one session for the (user, restaurant) pair,
// allocating it on first use. Idempotent: a repeat call returns the same
// session id and creates no second row. A concurrent creator losing the
// insert race falls back to re-selecting the winner's row.
func (s *SessionService) FindOrCreate(ctx context.Context, userID, restaurantID int64) (*domain.ChatSession, error) {
	sess, err := s.sessions.FindByPair(ctx, userID, restaurantID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}

	sess, err = s.sessions.Create(ctx, userID, restaurantID)
	if err == nil {
		return sess, nil
	}
	if !errors.Is(err, domain.ErrSessionNotFound) {
		return nil, err
	}

	// проигравший гонку INSERT .. ON CONFLICT DO NOTHING
	return s.sessions.FindByPair(ctx, userID, restaurantID)
}

// Find is a point lookup; domain.ErrSessionNotFound is distinguishable
// from a store failure by errors.Is.
func (s *SessionService) Find(ctx context.Context, sessionID string) (*domain.ChatSession, error) {
	return s.sessions.Get(ctx, sessionID)
}

// ListForIdentity returns the sessions visible to the identity: a customer
// sees their own, a restaurant admin sees the restaurant's.
func (s *SessionService) ListForIdentity(ctx context.Context, id domain.Identity) ([]domain.ChatSession, error) {
	switch id.Role {
	case domain.RoleRestaurantAdmin:
		return s.sessions.ListByRestaurant(ctx, id.RestaurantID)
	case domain.RoleCustomer:
		return s.sessions.ListByUser(ctx, id.ID)
	default:
		return nil, domain.ErrUnknownIdentity
	}
}
