package domain

import (
	"strings"
	"time"
)

type Role string

const (
	RoleAdmin        Role = "Admin"
	RoleManager      Role = "Manager"
	RoleRegistered   Role = "Registered"
	RoleUnregistered Role = "Unregistered"
)

var Roles = []Role{RoleAdmin, RoleManager, RoleRegistered, RoleUnregistered}

// ParseRole accepts the role names case-insensitively. "Customer" is an alias of Registered.
func ParseRole(s string) (Role, error) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "customer") {
		return RoleRegistered, nil
	}
	for _, r := range Roles {
		if strings.EqualFold(s, string(r)) {
			return r, nil
		}
	}
	names := make([]string, len(Roles))
	for i, r := range Roles {
		names[i] = string(r)
	}
	return "", Validationf("invalid role %q, valid roles are: %s", s, strings.Join(names, ", "))
}

type Permission int

const (
	PermBrowseCatalog Permission = iota
	PermManageCatalog
	PermManageStock
	PermPlaceOrders
	PermViewAllOrders
	PermManageAllOrders
	PermManageUsers
)

var permNames = map[Permission]string{
	PermBrowseCatalog:   "browse catalog",
	PermManageCatalog:   "manage products",
	PermManageStock:     "adjust stock",
	PermPlaceOrders:     "place orders",
	PermViewAllOrders:   "view all orders",
	PermManageAllOrders: "manage all orders",
	PermManageUsers:     "manage users",
}

func (p Permission) String() string { return permNames[p] }

// Can reports whether the role holds the permission.
func (r Role) Can(p Permission) bool {
	switch r {
	case RoleAdmin:
		return true
	case RoleManager:
		return p != PermManageUsers
	case RoleRegistered:
		return p == PermBrowseCatalog || p == PermPlaceOrders
	default:
		return p == PermBrowseCatalog
	}
}

// IsStaff reports whether the role may act on orders of other users.
func (r Role) IsStaff() bool { return r.Can(PermManageAllOrders) }

type User struct {
	ID        int64     `db:"id" json:"id"`
	Username  string    `db:"username" json:"username"`
	Hash      string    `db:"password_hash" json:"-"`
	Role      Role      `db:"role" json:"role"`
	CreatedAt time.Time `db:"created_at" json:"createdAt"`
}

// Authorize returns an UnauthorizedError when u (nil means anonymous) lacks p.
func Authorize(u *User, p Permission) error {
	role := RoleUnregistered
	if u != nil {
		role = u.Role
	}
	if !role.Can(p) {
		return Unauthorized(p.String(), role)
	}
	return nil
}

// CanAccessOrder reports whether u may see and change o: staff always, other
// users only their own orders and only while their role may place orders.
func CanAccessOrder(u *User, o *Order) bool {
	if u == nil || o == nil {
		return false
	}
	if u.Role.IsStaff() {
		return true
	}
	return u.ID == o.UserID && u.Role.Can(PermPlaceOrders)
}
