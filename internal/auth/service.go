package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/arikc79/WinCalc-sub000/internal/audit"
)

// BootstrapUsername is the well-known first-run administrator account name.
const BootstrapUsername = "admin"

// seedPasswordBytes is the number of random bytes for the bootstrap password.
const seedPasswordBytes = 16

// Service orchestrates registration, login, and account administration over
// the credential store, hasher, and audit log.
//
// Audit writes never influence the outcome of an operation: the audit
// logger absorbs its own failures.
type Service struct {
	store             CredentialStore
	hasher            *Hasher
	audit             *audit.Logger
	logger            *slog.Logger
	bootstrapUsername string
}

// NewService creates an auth service. An empty bootstrapUsername falls back
// to BootstrapUsername.
func NewService(store CredentialStore, hasher *Hasher, auditLog *audit.Logger, logger *slog.Logger, bootstrapUsername string) *Service {
	if bootstrapUsername == "" {
		bootstrapUsername = BootstrapUsername
	}
	return &Service{
		store:             store,
		hasher:            hasher,
		audit:             auditLog,
		logger:            logger,
		bootstrapUsername: bootstrapUsername,
	}
}

// Register creates a new account. It does not sign the new user in.
//
// Empty or whitespace-only usernames and passwords are rejected with
// ErrInvalidArgument; a case-insensitive username collision returns
// ErrUsernameExists and leaves the existing account untouched.
func (s *Service) Register(ctx context.Context, username, password string, role Role) (*Credential, error) {
	username = strings.TrimSpace(username)
	if username == "" || strings.TrimSpace(password) == "" {
		return nil, fmt.Errorf("%w: username and password must not be empty", ErrInvalidArgument)
	}
	if !IsValidUsername(username) {
		return nil, fmt.Errorf("%w: invalid username format", ErrInvalidArgument)
	}
	if !IsValidRole(role) {
		return nil, fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, role)
	}

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("hashing password: %w", err)
	}

	cred := &Credential{
		Username:     username,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.store.Create(ctx, cred); err != nil {
		return nil, err
	}

	s.audit.Write(username, audit.ActionRegister,
		fmt.Sprintf("account created with role %s", role), audit.EntityUser)

	return cred, nil
}

// Login authenticates a username/password pair and returns the principal.
//
// Unknown username and wrong password both return ErrInvalidCredentials and
// nothing else: the caller cannot tell which usernames exist. Storage
// failures propagate as-is, since the outcome is then unknown.
func (s *Service) Login(ctx context.Context, username, password string) (*Principal, error) {
	cred, err := s.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			s.audit.Write(audit.ActorAnonymous, audit.ActionLoginFailure,
				fmt.Sprintf("failed login for %q", username), audit.EntityUser)
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !s.hasher.Verify(password, cred.PasswordHash) {
		s.audit.Write(audit.ActorAnonymous, audit.ActionLoginFailure,
			fmt.Sprintf("failed login for %q", username), audit.EntityUser)
		return nil, ErrInvalidCredentials
	}

	p := cred.Principal()
	s.audit.Write(cred.Username, audit.ActionLoginSuccess, "", audit.EntityUser)

	return &p, nil
}

// EnsureAdminSeed creates the bootstrap admin account if the store is empty.
// The generated password is logged once and must be changed immediately.
// Idempotent: a populated store is left untouched and "" is returned.
//
// Must run at process start, before any login attempt — it is the sole
// mechanism by which the first administrative account comes into existence.
func (s *Service) EnsureAdminSeed(ctx context.Context) (string, error) {
	exists, err := s.store.ExistsAny(ctx)
	if err != nil {
		return "", fmt.Errorf("checking for existing accounts: %w", err)
	}
	if exists {
		s.logger.Info("accounts exist, skipping admin seed")
		return "", nil
	}

	passwordBytes := make([]byte, seedPasswordBytes)
	if _, err := rand.Read(passwordBytes); err != nil {
		return "", fmt.Errorf("generating seed password: %w", err)
	}
	password := hex.EncodeToString(passwordBytes)

	hash, err := s.hasher.Hash(password)
	if err != nil {
		return "", fmt.Errorf("hashing seed password: %w", err)
	}

	cred := &Credential{
		Username:     s.bootstrapUsername,
		PasswordHash: hash,
		Role:         RoleAdmin,
	}
	if err := s.store.Create(ctx, cred); err != nil {
		return "", fmt.Errorf("creating seed admin: %w", err)
	}

	s.audit.Write(cred.Username, audit.ActionRegister, "bootstrap admin account seeded", audit.EntityUser)
	s.logger.Warn("seed admin account created",
		"username", cred.Username,
		"password", password,
		"action_required", "change this password immediately",
	)

	return password, nil
}

// ChangePassword sets a new password for the given account.
// actor is the administrator (or account owner) performing the change,
// recorded in the audit trail.
func (s *Service) ChangePassword(ctx context.Context, actor string, id int64, newPassword string) error {
	cred, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.UpdatePassword(ctx, id, newPassword); err != nil {
		return err
	}

	s.audit.Write(actor, audit.ActionPasswordChange,
		fmt.Sprintf("password changed for %q", cred.Username), audit.EntityUser)
	return nil
}

// ChangeRole moves an account to a different role.
func (s *Service) ChangeRole(ctx context.Context, actor string, id int64, role Role) error {
	if !IsValidRole(role) {
		return fmt.Errorf("%w: unknown role %q", ErrInvalidArgument, role)
	}

	cred, err := s.store.FindByID(ctx, id)
	if err != nil {
		return err
	}
	before := cred.Role
	if before == role {
		return nil
	}

	cred.Role = role
	if err := s.store.Update(ctx, cred); err != nil {
		return err
	}

	s.audit.Write(actor, audit.ActionRoleChange,
		fmt.Sprintf("role of %q changed from %s to %s", cred.Username, before, role), audit.EntityUser)
	return nil
}

// DeleteAccount removes an account permanently. No soft delete exists.
// Deleting an absent ID is a no-op and is not audited.
func (s *Service) DeleteAccount(ctx context.Context, actor string, id int64) error {
	cred, err := s.store.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil
		}
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	s.audit.Write(actor, audit.ActionUserDelete,
		fmt.Sprintf("account %q deleted", cred.Username), audit.EntityUser)
	return nil
}

// ListAccounts returns all accounts in insertion order.
func (s *Service) ListAccounts(ctx context.Context) ([]Credential, error) {
	return s.store.List(ctx)
}
