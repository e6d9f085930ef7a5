package domain

// Role is a closed set; anything else coming out of the store is rejected
// during identity resolution.
type Role string

const (
	RoleCustomer        Role = "customer"
	RoleRestaurantAdmin Role = "restaurant_admin"
)

// Identity is the authenticated actor behind a connection. Immutable for
// the lifetime of the connection it is attached to. RestaurantID is set
// iff Role == RoleRestaurantAdmin.
type Identity struct {
	ID           int64
	Role         Role
	RestaurantID int64
}

func NewCustomer(id int64) Identity {
	return Identity{ID: id, Role: RoleCustomer}
}

// NewRestaurantAdmin fails closed when the affiliation is missing: a row
// that claims the restaurant role without a restaurant id must never be
// treated as a customer.
func NewRestaurantAdmin(id, restaurantID int64) (Identity, error) {
	if restaurantID <= 0 {
		return Identity{}, ErrInconsistentRole
	}
	return Identity{ID: id, Role: RoleRestaurantAdmin, RestaurantID: restaurantID}, nil
}

// AffiliatedWith reports whether the identity administers the restaurant.
func (i Identity) AffiliatedWith(restaurantID int64) bool {
	return i.Role == RoleRestaurantAdmin && i.RestaurantID == restaurantID
}
