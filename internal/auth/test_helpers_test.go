package auth

import (
	"context"
	"database/sql"
	"log/slog"
	"os"
	"testing"

	_ "github.com/mattn/go-sqlite3"

	"github.com/arikc79/WinCalc-sub000/internal/audit"
)

// testIterations keeps PBKDF2 fast in tests. Production uses
// DefaultIterations; the encoding and verification paths are identical.
const testIterations = 1_000

// testDB creates a temporary SQLite database with the users schema applied.
// The database file is cleaned up when the test completes.
func testDB(t *testing.T) *sql.DB {
	t.Helper()

	// Use a temp file so WAL mode works (in-memory doesn't support it)
	f, err := os.CreateTemp("", "auth-test-*.db")
	if err != nil {
		t.Fatalf("creating temp db: %v", err)
	}
	dbPath := f.Name()
	f.Close()
	t.Cleanup(func() { os.Remove(dbPath) })

	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_foreign_keys=ON")
	if err != nil {
		t.Fatalf("opening test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	migrationSQL := `
		CREATE TABLE users (
			id INTEGER PRIMARY KEY AUTOINCREMENT,
			username TEXT NOT NULL UNIQUE COLLATE NOCASE,
			password_hash TEXT NOT NULL,
			role TEXT NOT NULL DEFAULT 'manager',
			created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now')),
			updated_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ', 'now'))
		);

		CREATE INDEX idx_users_role ON users(role);
	`
	if _, err := db.Exec(migrationSQL); err != nil {
		t.Fatalf("applying users migration: %v", err)
	}

	return db
}

// testStore creates a credential store over a fresh test database.
func testStore(t *testing.T) *SQLiteCredentialStore {
	t.Helper()
	return NewCredentialStore(testDB(t), NewHasher(testIterations))
}

// testService creates a fully wired auth service over a fresh database,
// with the audit log writing into a temp directory.
func testService(t *testing.T) (*Service, *SQLiteCredentialStore) {
	t.Helper()

	store := testStore(t)
	auditLog := audit.New(t.TempDir(), slog.Default())
	t.Cleanup(func() { auditLog.Close() })

	svc := NewService(store, NewHasher(testIterations), auditLog, slog.Default(), "")
	return svc, store
}

// seedTestCredential inserts a test account and returns it.
func seedTestCredential(t *testing.T, store *SQLiteCredentialStore, username string, role Role) *Credential {
	t.Helper()

	hash, err := NewHasher(testIterations).Hash("test-password")
	if err != nil {
		t.Fatalf("hashing password: %v", err)
	}

	cred := &Credential{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := store.Create(context.Background(), cred); err != nil {
		t.Fatalf("creating test credential %s: %v", username, err)
	}
	return cred
}
