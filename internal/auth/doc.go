// Package auth provides the credential and access-control core for WinCalc.
//
// It implements a 2-tier role model (manager → admin) with:
//   - PBKDF2-HMAC-SHA256 password hashing with per-record parameters
//   - A SQLite-backed credential store with case-insensitive usernames
//   - Enumeration-resistant login (one generic failure for all causes)
//   - First-run admin bootstrap seeding
//   - An injected session object holding the current principal
//   - Static capability predicates (compile-time, no database lookup)
//
// Known gaps carried over from the legacy application, deliberately not
// papered over here: no account lockout, no login rate limiting, and no
// session expiry. The session lives until sign-out or process exit.
package auth
