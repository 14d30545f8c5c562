package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
)

// CredentialStore defines the interface for credential persistence.
//
// Storage IO failures are returned wrapped, never swallowed: a caller that
// cannot reach the store cannot authenticate, and must know.
type CredentialStore interface {
	Create(ctx context.Context, cred *Credential) error
	FindByID(ctx context.Context, id int64) (*Credential, error)
	FindByUsername(ctx context.Context, username string) (*Credential, error)
	List(ctx context.Context) ([]Credential, error)
	Update(ctx context.Context, cred *Credential) error
	UpdatePassword(ctx context.Context, id int64, newPassword string) error
	Delete(ctx context.Context, id int64) error
	ExistsAny(ctx context.Context) (bool, error)
}

// SQLiteCredentialStore implements CredentialStore using SQLite.
//
// Usernames are compared and kept unique case-insensitively via the
// COLLATE NOCASE collation on the username column (ASCII fold). All
// mutating operations are serialised behind a single write mutex, so two
// concurrent Create calls for the same username can never both succeed:
// one inserts, the other hits the unique constraint.
type SQLiteCredentialStore struct {
	db     *sql.DB
	hasher *Hasher

	mu sync.Mutex // serialises writers; readers go straight to the pool
}

// NewCredentialStore creates a new SQLite-backed credential store.
// The hasher is used by UpdatePassword, which hashes internally.
func NewCredentialStore(db *sql.DB, hasher *Hasher) *SQLiteCredentialStore {
	return &SQLiteCredentialStore{db: db, hasher: hasher}
}

const credentialColumns = "id, username, password_hash, role, created_at, updated_at"

// Create inserts a new credential and assigns its ID.
// Returns ErrUsernameExists on a case-insensitive username collision.
func (s *SQLiteCredentialStore) Create(ctx context.Context, cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Second)
	cred.CreatedAt = now
	cred.UpdatedAt = now

	result, err := s.db.ExecContext(ctx,
		`INSERT INTO users (username, password_hash, role, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		cred.Username, cred.PasswordHash, string(cred.Role),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("creating credential: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading new credential id: %w", err)
	}
	cred.ID = id

	return nil
}

// FindByID retrieves a credential by its ID.
func (s *SQLiteCredentialStore) FindByID(ctx context.Context, id int64) (*Credential, error) {
	return s.getCredential(ctx,
		"SELECT "+credentialColumns+" FROM users WHERE id = ?", id)
}

// FindByUsername retrieves a credential by username, case-insensitively:
// a record created as "admin" is found by "Admin".
func (s *SQLiteCredentialStore) FindByUsername(ctx context.Context, username string) (*Credential, error) {
	return s.getCredential(ctx,
		"SELECT "+credentialColumns+" FROM users WHERE username = ?", username)
}

// List returns all credentials in insertion order.
func (s *SQLiteCredentialStore) List(ctx context.Context) ([]Credential, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT "+credentialColumns+" FROM users ORDER BY id ASC")
	if err != nil {
		return nil, fmt.Errorf("listing credentials: %w", err)
	}
	defer rows.Close()

	var creds []Credential
	for rows.Next() {
		c, err := scanCredential(rows)
		if err != nil {
			return nil, err
		}
		creds = append(creds, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating credentials: %w", err)
	}

	if creds == nil {
		creds = []Credential{}
	}
	return creds, nil
}

// Update replaces a credential's username, password record, and role by ID.
// Returns ErrUsernameExists if the new username collides with another account.
func (s *SQLiteCredentialStore) Update(ctx context.Context, cred *Credential) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Second)
	cred.UpdatedAt = now

	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET username = ?, password_hash = ?, role = ?, updated_at = ? WHERE id = ?`,
		cred.Username, cred.PasswordHash, string(cred.Role), now.Format(time.RFC3339), cred.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("updating credential: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// UpdatePassword hashes and persists a new password for the given account.
// Empty or whitespace-only passwords are rejected with ErrInvalidArgument.
func (s *SQLiteCredentialStore) UpdatePassword(ctx context.Context, id int64, newPassword string) error {
	if strings.TrimSpace(newPassword) == "" {
		return fmt.Errorf("%w: password must not be empty", ErrInvalidArgument)
	}

	hash, err := s.hasher.Hash(newPassword)
	if err != nil {
		return fmt.Errorf("hashing new password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now().UTC().Truncate(time.Second)
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = ?, updated_at = ? WHERE id = ?`,
		hash, now.Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrUserNotFound
	}
	return nil
}

// Delete removes a credential by ID. Deleting an absent ID is not an error.
func (s *SQLiteCredentialStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM users WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting credential: %w", err)
	}
	return nil
}

// ExistsAny reports whether any credential exists. Used only by the
// first-run admin bootstrap.
func (s *SQLiteCredentialStore) ExistsAny(ctx context.Context) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count); err != nil {
		return false, fmt.Errorf("counting credentials: %w", err)
	}
	return count > 0, nil
}

// getCredential executes a query and scans a single credential result.
func (s *SQLiteCredentialStore) getCredential(ctx context.Context, query string, args ...any) (*Credential, error) {
	return scanCredential(s.db.QueryRowContext(ctx, query, args...))
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanCredential scans a credential from any scanner (Row or Rows).
func scanCredential(sc scanner) (*Credential, error) {
	var c Credential
	var role, createdAt, updatedAt string

	err := sc.Scan(&c.ID, &c.Username, &c.PasswordHash, &role, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning credential: %w", err)
	}

	c.Role = Role(role)
	c.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	c.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &c, nil
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && (strings.Contains(err.Error(), "UNIQUE constraint failed") ||
		strings.Contains(err.Error(), "unique constraint"))
}
