package auth

import (
	"strings"
	"sync"

	"github.com/google/uuid"
)

// SessionManager holds the single live principal for the process.
//
// The legacy application kept this as a global mutable singleton; here it is
// an explicit object injected into whichever component needs the current
// principal. At most one principal is signed in at a time, and signing in
// replaces any existing session without requiring a sign-out first.
//
// Sessions never expire: they end at sign-out or process exit.
type SessionManager struct {
	mu        sync.Mutex
	principal *Principal
	sessionID string
}

// NewSessionManager creates an empty (anonymous) session manager.
func NewSessionManager() *SessionManager {
	return &SessionManager{}
}

// SignIn replaces the current principal unconditionally and returns a fresh
// session id used to correlate audit entries for this sitting.
func (m *SessionManager) SignIn(p Principal) string {
	id := "ses-" + uuid.NewString()[:8]

	m.mu.Lock()
	defer m.mu.Unlock()
	m.principal = &p
	m.sessionID = id

	return id
}

// SignOut clears the current principal. Safe to call when anonymous.
func (m *SessionManager) SignOut() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.principal = nil
	m.sessionID = ""
}

// Current returns the signed-in principal, or false when anonymous.
func (m *SessionManager) Current() (Principal, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.principal == nil {
		return Principal{}, false
	}
	return *m.principal, true
}

// SessionID returns the id of the live session, or "" when anonymous.
func (m *SessionManager) SessionID() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// IsAuthenticated reports whether a principal is signed in.
func (m *SessionManager) IsAuthenticated() bool {
	_, ok := m.Current()
	return ok
}

// IsInRole reports whether the current principal holds the given role.
// Comparison is case-insensitive; anonymous sessions hold no role.
func (m *SessionManager) IsInRole(role Role) bool {
	p, ok := m.Current()
	if !ok {
		return false
	}
	return strings.EqualFold(string(p.Role), string(role))
}
