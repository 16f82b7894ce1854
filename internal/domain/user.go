package domain

import (
	"slices"
	"strings"
	"time"
)

// Default role names understood by the service.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// User represents a stored credential record.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	Roles        []string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Identity returns the authenticated identity of the user, without credentials.
func (u *User) Identity() Identity {
	return NewIdentity(u.Username, u.Roles...)
}

// Identity is an authenticated principal: a username and the set of role names it holds.
type Identity struct {
	username string
	roles    []string
}

// NewIdentity builds an identity; role names are trimmed, deduplicated and sorted.
func NewIdentity(username string, roles ...string) Identity {
	return Identity{
		username: username,
		roles:    normalizeRoles(roles),
	}
}

func (i Identity) Username() string {
	return i.username
}

// Roles returns a copy of the role names, sorted.
func (i Identity) Roles() []string {
	return slices.Clone(i.roles)
}

func (i Identity) HasRole(role string) bool {
	_, found := slices.BinarySearch(i.roles, role)
	return found
}

// HasAnyRole reports whether the identity holds at least one of roles.
func (i Identity) HasAnyRole(roles ...string) bool {
	for _, role := range roles {
		if i.HasRole(role) {
			return true
		}
	}
	return false
}

// Equal compares username and role set.
func (i Identity) Equal(other Identity) bool {
	return i.username == other.username && slices.Equal(i.roles, other.roles)
}

func normalizeRoles(roles []string) []string {
	out := make([]string, 0, len(roles))
	for _, role := range roles {
		role = strings.TrimSpace(role)
		if role == "" {
			continue
		}
		out = append(out, role)
	}
	slices.Sort(out)
	return slices.Compact(out)
}
