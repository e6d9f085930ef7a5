package postgres

import (
	"context"

	"github.com/cwrk-planet/chat-service/internal/domain"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UserRepository struct {
	db *pgxpool.Pool
}

func NewUserRepository(db *pgxpool.Pool) *UserRepository {
	return &UserRepository{db: db}
}

// FindIdentity resolves a user row into a domain Identity. A restaurant
// role with a NULL restaurant_id is rejected here, not papered over as a
// customer.
func (r *UserRepository) FindIdentity(ctx context.Context, id int64) (domain.Identity, error) {
	var (
		role         string
		restaurantID *int64
	)
	err := r.db.QueryRow(ctx,
		`SELECT role, restaurant_id FROM users WHERE id=$1`,
		id).Scan(&role, &restaurantID)
	if err != nil {
		if err == pgx.ErrNoRows {
			return domain.Identity{}, domain.ErrUnknownIdentity
		}
		return domain.Identity{}, err
	}

	switch domain.Role(role) {
	case domain.RoleRestaurantAdmin:
		if restaurantID == nil {
			return domain.Identity{}, domain.ErrInconsistentRole
		}
		return domain.NewRestaurantAdmin(id, *restaurantID)
	case domain.RoleCustomer:
		return domain.NewCustomer(id), nil
	default:
		return domain.Identity{}, domain.ErrUnknownIdentity
	}
}
