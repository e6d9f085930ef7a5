package postgres

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type MessageRepository struct {
	db *pgxpool.Pool
}

func NewMessageRepository(db *pgxpool.Pool) *MessageRepository {
	return &MessageRepository{db: db}
}

func (r *MessageRepository) Create(ctx context.Context, senderID int64, body string) (*domain.Message, error) {
	row := r.db.QueryRow(ctx, `
		INSERT INTO chat_messages (sender_id, body)
		VALUES ($1, $2)
		RETURNING id, sender_id, body, created_at
	`, senderID, body)

	var m domain.Message
	if err := row.Scan(&m.ID, &m.SenderID, &m.Body, &m.CreatedAt); err != nil {
		return nil, err
	}
	return &m, nil
}

// Get returns nil, nil for a missing row: history resolution skips holes
// instead of failing the whole batch.
func (r *MessageRepository) Get(ctx context.Context, id string) (*domain.Message, error) {
	var m domain.Message
	err := r.db.QueryRow(ctx,
		`SELECT id, sender_id, body, created_at FROM chat_messages WHERE id=$1`,
		id).Scan(&m.ID, &m.SenderID, &m.Body, &m.CreatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}
