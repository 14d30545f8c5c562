// WinCalc - window pricing for the workshop floor.
//
// This is the entry point for the WinCalc credential and access-control
// core. It wires the credential store, password hasher, audit log, and
// session manager together, seeds the first-run admin account, and then
// holds the core ready for the presentation layer until shutdown.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	_ "github.com/arikc79/WinCalc-sub000/migrations"

	"github.com/arikc79/WinCalc-sub000/internal/audit"
	"github.com/arikc79/WinCalc-sub000/internal/auth"
	"github.com/arikc79/WinCalc-sub000/internal/infrastructure/config"
	"github.com/arikc79/WinCalc-sub000/internal/infrastructure/database"
	"github.com/arikc79/WinCalc-sub000/internal/infrastructure/logging"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // semantic version (e.g., "1.0.0")
	commit  = "unknown" // git commit hash
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Cancel on interrupt signals (Ctrl+C, SIGTERM) for graceful shutdown
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting WinCalc",
		"version", version,
		"commit", commit,
	)

	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)

	db, err := database.Open(ctx, database.Config{
		Path:        cfg.Database.Path,
		WALMode:     cfg.Database.WALMode,
		BusyTimeout: cfg.Database.BusyTimeout,
	})
	if err != nil {
		return fmt.Errorf("opening database: %w", err)
	}
	defer func() {
		log.Info("closing database")
		if closeErr := db.Close(); closeErr != nil {
			log.Error("error closing database", "error", closeErr)
		}
	}()
	log.Info("database connected", "path", cfg.Database.Path)

	if migrateErr := db.Migrate(ctx); migrateErr != nil {
		return fmt.Errorf("running migrations: %w", migrateErr)
	}
	log.Info("database migrations complete")

	// Assemble the credential core
	auditLog := audit.New(cfg.Audit.Dir, log.Logger)
	defer func() {
		if closeErr := auditLog.Close(); closeErr != nil {
			log.Error("error closing audit log", "error", closeErr)
		}
	}()

	hasher := auth.NewHasher(cfg.Auth.PBKDF2Iterations)
	store := auth.NewCredentialStore(db.DB, hasher)
	service := auth.NewService(store, hasher, auditLog, log.Logger, cfg.Auth.BootstrapUsername)

	// One-time migration of accounts from the legacy JSON users file
	if cfg.Auth.LegacyUsersPath != "" {
		imported, importErr := auth.ImportLegacyUsers(ctx, cfg.Auth.LegacyUsersPath, store, log.Logger)
		if importErr != nil {
			return fmt.Errorf("importing legacy users: %w", importErr)
		}
		if imported > 0 {
			log.Info("legacy account import complete", "count", imported)
		}
	}

	// Must run before any login attempt: the sole source of the first admin
	if _, seedErr := service.EnsureAdminSeed(ctx); seedErr != nil {
		return fmt.Errorf("seeding admin account: %w", seedErr)
	}

	// The presentation layer attaches here.
	app := newCore(service, cfg.Audit.Dir)

	log.Info("credential core ready, waiting for shutdown signal",
		"authenticated", app.session.IsAuthenticated(),
	)
	<-ctx.Done()

	log.Info("shutdown signal received, cleaning up")
	return nil
}

// core bundles the assembled components the presentation layer binds to.
// The session starts anonymous until a successful login is signed in.
type core struct {
	service *auth.Service
	session *auth.SessionManager
	records *audit.Reader
}

func newCore(service *auth.Service, auditDir string) *core {
	return &core{
		service: service,
		session: auth.NewSessionManager(),
		records: audit.NewReader(auditDir),
	}
}

// getConfigPath returns the configuration file path.
// Uses WINCALC_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("WINCALC_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
