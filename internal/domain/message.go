package domain

import "time"

// Message is append-only; rows are immutable once created.
type Message struct {
	ID        string    `db:"id"`
	SenderID  int64     `db:"sender_id"`
	Body      string    `db:"body"`
	CreatedAt time.Time `db:"created_at"`
}
