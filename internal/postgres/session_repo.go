package postgres

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SessionRepository struct {
	db *pgxpool.Pool
}

func NewSessionRepository(db *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{db: db}
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.ChatSession, error) {
	var s domain.ChatSession
	query := `SELECT id, user_id, restaurant_id, msg_ids, created_at FROM chat_sessions WHERE id=$1`
	err := r.db.QueryRow(ctx, query, id).
		Scan(&s.ID, &s.UserID, &s.RestaurantID, &s.MsgIDs, &s.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) FindByPair(ctx context.Context, userID, restaurantID int64) (*domain.ChatSession, error) {
	var s domain.ChatSession
	query := `
		SELECT id, user_id, restaurant_id, msg_ids, created_at
		FROM chat_sessions
		WHERE user_id=$1 AND restaurant_id=$2`
	err := r.db.QueryRow(ctx, query, userID, restaurantID).
		Scan(&s.ID, &s.UserID, &s.RestaurantID, &s.MsgIDs, &s.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

// Create allocates a session with an empty transcript. The unique index on
// (user_id, restaurant_id) plus ON CONFLICT DO NOTHING keeps concurrent
// creators from producing a second row; the loser gets ErrSessionNotFound
// and re-selects.
func (r *SessionRepository) Create(ctx context.Context, userID, restaurantID int64) (*domain.ChatSession, error) {
	s := domain.ChatSession{UserID: userID, RestaurantID: restaurantID, MsgIDs: []string{}}
	query := `
		INSERT INTO chat_sessions (user_id, restaurant_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, restaurant_id) DO NOTHING
		RETURNING id, created_at`
	err := r.db.QueryRow(ctx, query, userID, restaurantID).Scan(&s.ID, &s.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, domain.ErrSessionNotFound
		}
		return nil, err
	}
	return &s, nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID int64) ([]domain.ChatSession, error) {
	return r.list(ctx,
		`SELECT id, user_id, restaurant_id, msg_ids, created_at
		 FROM chat_sessions WHERE user_id=$1 ORDER BY created_at ASC`, userID)
}

func (r *SessionRepository) ListByRestaurant(ctx context.Context, restaurantID int64) ([]domain.ChatSession, error) {
	return r.list(ctx,
		`SELECT id, user_id, restaurant_id, msg_ids, created_at
		 FROM chat_sessions WHERE restaurant_id=$1 ORDER BY created_at ASC`, restaurantID)
}

func (r *SessionRepository) list(ctx context.Context, query string, arg int64) ([]domain.ChatSession, error) {
	rows, err := r.db.Query(ctx, query, arg)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var list []domain.ChatSession
	for rows.Next() {
		var s domain.ChatSession
		if err := rows.Scan(&s.ID, &s.UserID, &s.RestaurantID, &s.MsgIDs, &s.CreatedAt); err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, rows.Err()
}

// AppendMessage is a single atomic UPDATE; the transcript list is never
// read-modified-written on the client side.
func (r *SessionRepository) AppendMessage(ctx context.Context, sessionID, messageID string) error {
	cmd, err := r.db.Exec(ctx,
		`UPDATE chat_sessions SET msg_ids = array_append(msg_ids, $2) WHERE id=$1`,
		sessionID, messageID)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrSessionNotFound
	}
	return nil
}
