package domain

import "time"

// ChatSession is the durable customer–restaurant chat record. At most one
// session exists per (user, restaurant) pair; it is mutated only by
// transcript append and never deleted.
type ChatSession struct {
	ID           string    `db:"id"`
	UserID       int64     `db:"user_id"`
	RestaurantID int64     `db:"restaurant_id"`
	MsgIDs       []string  `db:"msg_ids"`
	CreatedAt    time.Time `db:"created_at"`
}

// Participant reports whether the identity may join the session's room.
func (s *ChatSession) Participant(id Identity) bool {
	return id.ID == s.UserID || id.AffiliatedWith(s.RestaurantID)
}
