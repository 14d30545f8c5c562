package auth

import (
	"errors"
	"regexp"
	"strings"
	"time"
)

// usernamePattern defines the valid format for usernames:
// alphanumeric, dots, hyphens, underscores, 1-64 characters.
var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9._-]{1,64}$`)

// maxUsernameLength is the maximum allowed username length.
const maxUsernameLength = 64

// IsValidUsername checks if a username meets format requirements.
// Usernames must be 1-64 characters, alphanumeric with dots, hyphens, underscores.
func IsValidUsername(username string) bool {
	return len(username) <= maxUsernameLength && usernamePattern.MatchString(username)
}

// Role represents an authorisation tier in the system.
//
// The set is closed: every capability predicate switches exhaustively over
// it, so introducing a role forces a review of every predicate rather than
// falling through to a silently permissive default.
type Role string

const (
	// RoleManager is a regular operator: runs calculations and views the
	// material catalog, but cannot change it or manage accounts.
	RoleManager Role = "manager"

	// RoleAdmin has full control: calculations, material catalog
	// management, and user account management.
	RoleAdmin Role = "admin"
)

// ValidRoles is the closed set of user roles.
var ValidRoles = []Role{RoleManager, RoleAdmin}

// ParseRole converts a stored or user-supplied role string to a Role.
// Matching is case-insensitive; unknown values are an error.
func ParseRole(s string) (Role, error) {
	switch Role(strings.ToLower(strings.TrimSpace(s))) {
	case RoleManager:
		return RoleManager, nil
	case RoleAdmin:
		return RoleAdmin, nil
	default:
		return "", errors.New("unknown role: " + s)
	}
}

// IsValidRole returns true if the role is a member of the closed role set.
func IsValidRole(r Role) bool {
	switch r {
	case RoleManager, RoleAdmin:
		return true
	default:
		return false
	}
}

// Credential represents one persisted user account.
type Credential struct {
	ID           int64     `json:"id"`
	Username     string    `json:"username"`
	PasswordHash string    `json:"-"` // never serialised
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Principal is the public projection of a credential: the identity attached
// to a session. It never carries the password record.
type Principal struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Role     Role   `json:"role"`
}

// Principal returns the public projection of the credential.
func (c *Credential) Principal() Principal {
	return Principal{ID: c.ID, Username: c.Username, Role: c.Role}
}

// Sentinel errors for auth operations.
var (
	// ErrInvalidCredentials is the single generic login failure. Unknown
	// username and wrong password both return exactly this error so a
	// caller cannot probe which usernames exist.
	ErrInvalidCredentials = errors.New("invalid username or password")

	ErrInvalidArgument = errors.New("invalid argument")
	ErrUsernameExists  = errors.New("username already exists")
	ErrUserNotFound    = errors.New("user not found")
)
