// Package logging provides structured logging for WinCalc.
//
// It wraps the standard log/slog package with consistent defaults: JSON
// output for production, text for development, level filtering, and
// service/version fields on every entry.
//
// Never log secrets: no passwords, no encoded password records. The auth
// package logs usernames and outcomes only — the single exception is the
// one-time bootstrap password, which is deliberately surfaced at warn level
// so the installer can capture it.
package logging
