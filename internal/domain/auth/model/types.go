package model

import "time"

// Role is the coarse permission tier of an account.
type Role string

const (
	RoleAdmin  Role = "admin"
	RoleUser   Role = "user"
	RoleViewer Role = "viewer"
)

// Valid reports whether the role is one of the known tiers.
func (r Role) Valid() bool {
	switch r {
	case RoleAdmin, RoleUser, RoleViewer:
		return true
	}
	return false
}

// Scope names required by protected operations.
const (
	ScopeItemsRead  = "items:read"
	ScopeItemsWrite = "items:write"
	ScopeAdmin      = "admin"
)

// DefaultScopes returns the scopes granted to a freshly assigned role.
func DefaultScopes(role Role) []string {
	switch role {
	case RoleAdmin:
		return []string{ScopeItemsRead, ScopeItemsWrite, ScopeAdmin}
	case RoleUser:
		return []string{ScopeItemsRead, ScopeItemsWrite}
	case RoleViewer:
		return []string{ScopeItemsRead}
	}
	return nil
}

// UserRecord captures the account state persisted by the store.
type UserRecord struct {
	Username       string    `json:"username"`
	HashedPassword string    `json:"-"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email"`
	Role           Role      `json:"role"`
	Active         bool      `json:"active"`
	Scopes         []string  `json:"scopes"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// HasScope reports whether the user has been granted the named scope.
func (u UserRecord) HasScope(scope string) bool {
	for _, s := range u.Scopes {
		if s == scope {
			return true
		}
	}
	return false
}

// GrantableScopes returns the intersection of requested and owned scopes.
// Tokens are only ever issued with scopes the user actually holds.
func (u UserRecord) GrantableScopes(requested []string) []string {
	granted := make([]string, 0, len(requested))
	for _, scope := range requested {
		if u.HasScope(scope) {
			granted = append(granted, scope)
		}
	}
	return granted
}

// Logger provides the minimal logging contract required by the auth domain.
type Logger interface {
	Debug(format string, args ...any)
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}
