package auth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
)

// legacyUser mirrors one record of the legacy application's JSON users file.
// The password hash carries over unchanged: v1 records embed their own
// parameters and keep verifying under them.
type legacyUser struct {
	ID           int64  `json:"id"`
	Username     string `json:"username"`
	PasswordHash string `json:"passwordHash"`
	Role         string `json:"role"`
}

// ImportLegacyUsers migrates accounts from the legacy JSON users file into
// the canonical store. The SQLite store is authoritative: the JSON file is
// read-only input and is never written back.
//
// The import is idempotent. Usernames already present (case-insensitively)
// are skipped, as are records with an empty username or password hash or a
// username that fails the same format check registration applies.
// Legacy ids are not preserved; the store assigns fresh ones. Returns the
// number of accounts imported. A missing file imports nothing.
func ImportLegacyUsers(ctx context.Context, path string, store CredentialStore, logger *slog.Logger) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading legacy users file: %w", err)
	}

	var users []legacyUser
	if err := json.Unmarshal(data, &users); err != nil {
		return 0, fmt.Errorf("parsing legacy users file: %w", err)
	}

	imported := 0
	for _, u := range users {
		if u.Username == "" || u.PasswordHash == "" {
			logger.Warn("skipping malformed legacy user record", "id", u.ID)
			continue
		}
		if !IsValidUsername(u.Username) {
			// Same format rule registration enforces; such accounts could
			// never be recreated once the JSON file is gone.
			logger.Warn("skipping legacy user with invalid username",
				"id", u.ID, "username", u.Username)
			continue
		}

		role, err := ParseRole(u.Role)
		if err != nil {
			// Unknown legacy roles land on the least-privileged tier.
			logger.Warn("legacy user has unknown role, importing as manager",
				"username", u.Username, "role", u.Role)
			role = RoleManager
		}

		cred := &Credential{
			Username:     u.Username,
			PasswordHash: u.PasswordHash,
			Role:         role,
		}
		if err := store.Create(ctx, cred); err != nil {
			if errors.Is(err, ErrUsernameExists) {
				continue
			}
			return imported, fmt.Errorf("importing legacy user %q: %w", u.Username, err)
		}
		imported++
	}

	if imported > 0 {
		logger.Info("legacy users imported", "path", path, "count", imported)
	}
	return imported, nil
}
