// Package audit provides append-only logging of security-relevant events.
//
// Entries are written one JSON object per line to a daily-rotated file in a
// configured directory (audit-YYYY-MM-DD.log). The stream is independent of
// the decisions it records: Write never returns an error and never panics,
// so a broken audit sink can never abort a login or registration. IO
// failures are reported to the process logger and swallowed.
package audit

import (
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// Fixed action vocabulary. Callers outside this package (the material
// catalog code) share these constants rather than inventing strings.
const (
	ActionLoginSuccess   = "login.success"
	ActionLoginFailure   = "login.failure"
	ActionRegister       = "user.register"
	ActionPasswordChange = "user.password_change"
	ActionRoleChange     = "user.role_change"
	ActionUserDelete     = "user.delete"
	ActionMaterialCreate = "material.create"
	ActionMaterialUpdate = "material.update"
	ActionMaterialDelete = "material.delete"
)

// Entity classifications for audit entries.
const (
	EntityUser     = "User"
	EntityMaterial = "Material"
)

// ActorAnonymous is recorded when no authenticated actor is known,
// e.g. a failed login attempt.
const ActorAnonymous = "anonymous"

// Entry is one immutable audit fact. Details and Entity serialise as null
// when absent; the remaining fields are always present.
type Entry struct {
	Timestamp time.Time `json:"timestamp"`
	Actor     string    `json:"actor"`
	Action    string    `json:"action"`
	Details   *string   `json:"details"`
	Entity    *string   `json:"entity"`
}

// File naming and permissions for the rotated sink.
const (
	filePrefix = "audit-"
	fileSuffix = ".log"
	dayFormat  = "2006-01-02"

	dirPermissions  = 0750
	filePermissions = 0600
)

// Logger appends entries to a daily-rotated append-only file.
// Safe for concurrent use.
type Logger struct {
	dir      string
	fallback *slog.Logger

	mu   sync.Mutex
	file *os.File
	day  string

	now func() time.Time // test seam
}

// New creates a Logger writing into dir. The directory is created lazily on
// first write. fallback receives sink failures; nil falls back to
// slog.Default().
func New(dir string, fallback *slog.Logger) *Logger {
	if fallback == nil {
		fallback = slog.Default()
	}
	return &Logger{
		dir:      dir,
		fallback: fallback,
		now:      time.Now,
	}
}

// Write appends one entry. An empty actor is recorded as "anonymous";
// empty details/entity serialise as null. Write never fails: any sink
// error goes to the fallback logger and is dropped.
func (l *Logger) Write(actor, action, details, entity string) {
	if actor == "" {
		actor = ActorAnonymous
	}

	entry := Entry{
		Timestamp: l.now().UTC(),
		Actor:     actor,
		Action:    action,
		Details:   nullable(details),
		Entity:    nullable(entity),
	}

	line, err := json.Marshal(entry)
	if err != nil {
		l.fallback.Error("audit entry not serialisable", "action", action, "error", err)
		return
	}
	line = append(line, '\n')

	l.mu.Lock()
	defer l.mu.Unlock()

	f, err := l.currentFile()
	if err != nil {
		l.fallback.Error("audit sink unavailable", "dir", l.dir, "error", err)
		return
	}

	if _, err := f.Write(line); err != nil {
		l.fallback.Error("audit append failed", "file", f.Name(), "error", err)
	}
}

// Close releases the current file handle. Further writes reopen it.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.file == nil {
		return nil
	}
	err := l.file.Close()
	l.file = nil
	l.day = ""
	return err
}

// currentFile returns the sink for today, rotating when the day changed.
// Caller holds l.mu.
func (l *Logger) currentFile() (*os.File, error) {
	day := l.now().UTC().Format(dayFormat)
	if l.file != nil && l.day == day {
		return l.file, nil
	}

	if l.file != nil {
		l.file.Close() //nolint:errcheck // best effort on rotation
		l.file = nil
	}

	if err := os.MkdirAll(l.dir, dirPermissions); err != nil {
		return nil, err
	}

	path := filepath.Join(l.dir, filePrefix+day+fileSuffix)
	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, filePermissions)
	if err != nil {
		return nil, err
	}

	l.file = f
	l.day = day
	return f, nil
}

// nullable returns nil for empty strings so the field serialises as null.
func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
