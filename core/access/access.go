// Package access implements the role-based access control predicate.
//
// Roles form a total order: Public < User < Ulama < Admin. The package
// is stateless; callers supply the actor's identity and role on every
// invocation, and every mutating core operation checks its minimum
// required role before any side effect.
package access

import (
	"fmt"
	"strings"
)

// Role is a rung in the four-level role hierarchy.
type Role int

const (
	// Public is an unauthenticated viewer.
	Public Role = iota
	// User is a registered account holder.
	User
	// Ulama is the elevated reviewer role authorized to moderate
	// contributions and self-certify its own.
	Ulama
	// Admin is the administrative role; it additionally manages users
	// and runs imports.
	Admin
)

var roleNames = map[Role]string{
	Public: "Public",
	User:   "User",
	Ulama:  "Ulama",
	Admin:  "Admin",
}

// String returns the canonical role name.
func (r Role) String() string {
	if name, ok := roleNames[r]; ok {
		return name
	}
	return fmt.Sprintf("Role(%d)", int(r))
}

// Valid reports whether r is one of the four defined roles.
func (r Role) Valid() bool {
	_, ok := roleNames[r]
	return ok
}

// ParseRole parses a role name, case-insensitively. The legacy name
// "registered" maps to User, matching stores seeded by earlier
// versions of the application.
func ParseRole(s string) (Role, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "public", "guest":
		return Public, nil
	case "user", "registered":
		return User, nil
	case "ulama":
		return Ulama, nil
	case "admin":
		return Admin, nil
	}
	return Public, fmt.Errorf("unknown role: %q", s)
}

// HasPermission reports whether an actor holding actorRole may perform
// an operation that requires requiredRole. The check is a rank
// comparison on the total order.
func HasPermission(actorRole, requiredRole Role) bool {
	return actorRole >= requiredRole
}

// Actor identifies the caller of a core operation: a user id and the
// role resolved for it by the calling layer. The core never reads
// ambient identity.
type Actor struct {
	ID   int64
	Role Role
}

// Can reports whether the actor meets the required role.
func (a Actor) Can(required Role) bool {
	return HasPermission(a.Role, required)
}

// Anonymous is the actor value for unauthenticated viewers.
var Anonymous = Actor{ID: 0, Role: Public}
