package auth

import (
	"context"
	"errors"
	"testing"
)

func TestRegister_Validation(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	tests := []struct {
		name     string
		username string
		password string
		role     Role
	}{
		{"empty username", "", "secret", RoleManager},
		{"whitespace username", "   ", "secret", RoleManager},
		{"empty password", "gina", "", RoleManager},
		{"whitespace password", "gina", " \t ", RoleManager},
		{"invalid username format", "no spaces allowed", "secret", RoleManager},
		{"unknown role", "gina", "secret", Role("owner")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.Register(ctx, tt.username, tt.password, tt.role); !errors.Is(err, ErrInvalidArgument) {
				t.Errorf("Register() error = %v, want ErrInvalidArgument", err)
			}
		})
	}
}

func TestRegister_DuplicateKeepsFirstPassword(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()
	hasher := NewHasher(testIterations)

	if _, err := svc.Register(ctx, "bob", "x-first", RoleManager); err != nil {
		t.Fatalf("first Register() error = %v", err)
	}
	if _, err := svc.Register(ctx, "bob", "y-second", RoleManager); !errors.Is(err, ErrUsernameExists) {
		t.Fatalf("second Register() error = %v, want ErrUsernameExists", err)
	}

	creds, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(creds) != 1 {
		t.Fatalf("store holds %d records, want 1", len(creds))
	}
	if !hasher.Verify("x-first", creds[0].PasswordHash) {
		t.Error("surviving record should hold the first password")
	}
}

func TestRegister_DoesNotSignIn(t *testing.T) {
	svc, _ := testService(t)
	session := NewSessionManager()

	if _, err := svc.Register(context.Background(), "helen", "secret", RoleManager); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	if session.IsAuthenticated() {
		t.Error("registration must not sign the new user in")
	}
}

func TestLogin_Success(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "Secret#1", RoleManager); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p, err := svc.Login(ctx, "alice", "Secret#1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if p.Username != "alice" || p.Role != RoleManager {
		t.Errorf("principal = %+v, want alice/manager", p)
	}
	if p.ID == 0 {
		t.Error("principal should carry the credential id")
	}
}

func TestLogin_CaseInsensitiveUsername(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "Secret#1", RoleManager); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p, err := svc.Login(ctx, "ALICE", "Secret#1")
	if err != nil {
		t.Fatalf("Login(ALICE) error = %v", err)
	}
	if p.Username != "alice" {
		t.Errorf("Username = %q, want %q", p.Username, "alice")
	}
}

func TestLogin_EnumerationResistance(t *testing.T) {
	svc, _ := testService(t)
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "Secret#1", RoleManager); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	_, wrongPassword := svc.Login(ctx, "alice", "wrong")
	_, unknownUser := svc.Login(ctx, "nobody", "x")

	if !errors.Is(wrongPassword, ErrInvalidCredentials) {
		t.Errorf("wrong-password error = %v, want ErrInvalidCredentials", wrongPassword)
	}
	if !errors.Is(unknownUser, ErrInvalidCredentials) {
		t.Errorf("unknown-user error = %v, want ErrInvalidCredentials", unknownUser)
	}
	if wrongPassword.Error() != unknownUser.Error() {
		t.Errorf("failure messages differ: %q vs %q - username enumeration leak",
			wrongPassword.Error(), unknownUser.Error())
	}
}

func TestLogin_MalformedStoredRecord(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	// A corrupt record must fail closed as a login failure, not a crash.
	cred := &Credential{Username: "corrupt", PasswordHash: "not-a-record", Role: RoleManager}
	if err := store.Create(ctx, cred); err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if _, err := svc.Login(ctx, "corrupt", "anything"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() error = %v, want ErrInvalidCredentials", err)
	}
}

func TestEnsureAdminSeed_CreatesOnEmptyStore(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	password, err := svc.EnsureAdminSeed(ctx)
	if err != nil {
		t.Fatalf("EnsureAdminSeed() error = %v", err)
	}
	if password == "" {
		t.Fatal("EnsureAdminSeed() should return the generated password")
	}

	admin, err := store.FindByUsername(ctx, BootstrapUsername)
	if err != nil {
		t.Fatalf("FindByUsername(admin) error = %v", err)
	}
	if admin.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q", admin.Role, RoleAdmin)
	}

	// The generated password logs in
	if _, err := svc.Login(ctx, BootstrapUsername, password); err != nil {
		t.Errorf("Login(admin, generated) error = %v", err)
	}
}

func TestEnsureAdminSeed_Idempotent(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	if _, err := svc.EnsureAdminSeed(ctx); err != nil {
		t.Fatalf("first EnsureAdminSeed() error = %v", err)
	}

	password, err := svc.EnsureAdminSeed(ctx)
	if err != nil {
		t.Fatalf("second EnsureAdminSeed() error = %v", err)
	}
	if password != "" {
		t.Error("second EnsureAdminSeed() should not generate a password")
	}

	creds, err := store.List(ctx)
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(creds) != 1 {
		t.Errorf("store holds %d accounts after double seed, want 1", len(creds))
	}
}

func TestEnsureAdminSeed_SkipsPopulatedStore(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	seedTestCredential(t, store, "existing", RoleManager)

	password, err := svc.EnsureAdminSeed(ctx)
	if err != nil {
		t.Fatalf("EnsureAdminSeed() error = %v", err)
	}
	if password != "" {
		t.Error("populated store should not be seeded")
	}

	if _, err := store.FindByUsername(ctx, BootstrapUsername); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("bootstrap account should not exist, FindByUsername error = %v", err)
	}
}

func TestChangePassword(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	cred := seedTestCredential(t, store, "ivan", RoleManager)

	if err := svc.ChangePassword(ctx, "admin", cred.ID, "rotated-secret"); err != nil {
		t.Fatalf("ChangePassword() error = %v", err)
	}
	if _, err := svc.Login(ctx, "ivan", "rotated-secret"); err != nil {
		t.Errorf("Login() with new password error = %v", err)
	}
	if _, err := svc.Login(ctx, "ivan", "test-password"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("Login() with old password error = %v, want ErrInvalidCredentials", err)
	}

	if err := svc.ChangePassword(ctx, "admin", 9999, "x"); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("ChangePassword(absent) error = %v, want ErrUserNotFound", err)
	}
}

func TestChangeRole(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	cred := seedTestCredential(t, store, "judy", RoleManager)

	if err := svc.ChangeRole(ctx, "admin", cred.ID, RoleAdmin); err != nil {
		t.Fatalf("ChangeRole() error = %v", err)
	}

	got, err := store.FindByID(ctx, cred.ID)
	if err != nil {
		t.Fatalf("FindByID() error = %v", err)
	}
	if got.Role != RoleAdmin {
		t.Errorf("Role = %q, want %q", got.Role, RoleAdmin)
	}

	if err := svc.ChangeRole(ctx, "admin", cred.ID, Role("superuser")); !errors.Is(err, ErrInvalidArgument) {
		t.Errorf("ChangeRole(unknown role) error = %v, want ErrInvalidArgument", err)
	}
}

func TestDeleteAccount(t *testing.T) {
	svc, store := testService(t)
	ctx := context.Background()

	cred := seedTestCredential(t, store, "kate", RoleManager)

	if err := svc.DeleteAccount(ctx, "admin", cred.ID); err != nil {
		t.Fatalf("DeleteAccount() error = %v", err)
	}
	if _, err := store.FindByID(ctx, cred.ID); !errors.Is(err, ErrUserNotFound) {
		t.Errorf("deleted account still found, error = %v", err)
	}

	// Absent id is a no-op
	if err := svc.DeleteAccount(ctx, "admin", cred.ID); err != nil {
		t.Errorf("DeleteAccount(absent) error = %v, want nil", err)
	}
}

func TestEndToEnd_RegisterLoginSignIn(t *testing.T) {
	svc, _ := testService(t)
	session := NewSessionManager()
	ctx := context.Background()

	if _, err := svc.Register(ctx, "alice", "Secret#1", RoleManager); err != nil {
		t.Fatalf("Register() error = %v", err)
	}

	p, err := svc.Login(ctx, "alice", "Secret#1")
	if err != nil {
		t.Fatalf("Login() error = %v", err)
	}
	if p.Role != RoleManager {
		t.Errorf("Role = %q, want %q", p.Role, RoleManager)
	}

	session.SignIn(*p)
	if !session.IsAuthenticated() {
		t.Error("session should be authenticated after SignIn")
	}
	if !CanCalculate(p) {
		t.Error("manager should be allowed to calculate")
	}
	if CanManageUsers(p) {
		t.Error("manager should not manage users")
	}

	session.SignOut()
	if session.IsAuthenticated() {
		t.Error("session should be anonymous after SignOut")
	}
}
