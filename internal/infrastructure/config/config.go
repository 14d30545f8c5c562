package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config is the root configuration structure for WinCalc.
// All configuration is loaded from YAML and can be overridden by environment variables.
type Config struct {
	App      AppConfig      `yaml:"app"`
	Database DatabaseConfig `yaml:"database"`
	Auth     AuthConfig     `yaml:"auth"`
	Audit    AuditConfig    `yaml:"audit"`
	Logging  LoggingConfig  `yaml:"logging"`
}

// AppConfig contains application-wide settings.
type AppConfig struct {
	Name    string `yaml:"name"`
	DataDir string `yaml:"data_dir"`
}

// DatabaseConfig contains SQLite database settings.
type DatabaseConfig struct {
	Path        string `yaml:"path"`
	WALMode     bool   `yaml:"wal_mode"`
	BusyTimeout int    `yaml:"busy_timeout"`
}

// AuthConfig contains credential-core settings.
type AuthConfig struct {
	// PBKDF2Iterations is the iteration count for newly hashed passwords.
	// Existing records keep verifying under the count embedded in them.
	PBKDF2Iterations int `yaml:"pbkdf2_iterations"`

	// BootstrapUsername is the well-known first-run admin account name.
	BootstrapUsername string `yaml:"bootstrap_username"`

	// LegacyUsersPath optionally points at the legacy JSON users file to
	// import on startup. Empty disables the import.
	LegacyUsersPath string `yaml:"legacy_users_path"`
}

// AuditConfig contains audit log sink settings.
type AuditConfig struct {
	// Dir is the directory receiving the daily-rotated audit files.
	Dir string `yaml:"dir"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
	Output string `yaml:"output"`
}

// Load reads configuration from a YAML file and applies environment
// variable overrides.
//
// The loading order is:
//  1. Default values (hardcoded)
//  2. A .env file in the working directory, if present
//  3. YAML file values (override defaults)
//  4. Environment variables (override file values)
//
// Environment variables follow the pattern WINCALC_SECTION_KEY,
// e.g. WINCALC_DATABASE_PATH, WINCALC_AUDIT_DIR.
func Load(path string) (*Config, error) {
	// Best effort: a missing .env file is the normal case.
	_ = godotenv.Load() //nolint:errcheck // .env is optional

	cfg := defaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	applyEnvOverrides(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// defaultConfig returns a Config with sensible defaults.
func defaultConfig() *Config {
	return &Config{
		App: AppConfig{
			Name:    "WinCalc",
			DataDir: "./data",
		},
		Database: DatabaseConfig{
			Path:        "./data/wincalc.db",
			WALMode:     true,
			BusyTimeout: 5,
		},
		Auth: AuthConfig{
			PBKDF2Iterations:  150_000,
			BootstrapUsername: "admin",
		},
		Audit: AuditConfig{
			Dir: "./data/audit",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
			Output: "stdout",
		},
	}
}

// applyEnvOverrides applies environment variable overrides to the configuration.
// Environment variables follow the pattern: WINCALC_SECTION_KEY
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WINCALC_DATABASE_PATH"); v != "" {
		cfg.Database.Path = v
	}
	if v := os.Getenv("WINCALC_AUDIT_DIR"); v != "" {
		cfg.Audit.Dir = v
	}
	if v := os.Getenv("WINCALC_AUTH_PBKDF2_ITERATIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Auth.PBKDF2Iterations = n
		}
	}
	if v := os.Getenv("WINCALC_AUTH_LEGACY_USERS_PATH"); v != "" {
		cfg.Auth.LegacyUsersPath = v
	}
	if v := os.Getenv("WINCALC_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	var errs []string

	if c.Database.Path == "" {
		errs = append(errs, "database.path is required")
	}
	if c.Database.BusyTimeout < 0 {
		errs = append(errs, "database.busy_timeout must not be negative")
	}
	if c.Audit.Dir == "" {
		errs = append(errs, "audit.dir is required")
	}

	// A low iteration count weakens every newly hashed password. The
	// application default is 150,000; anything under 10,000 is a
	// misconfiguration.
	const minIterations = 10_000
	if c.Auth.PBKDF2Iterations < minIterations {
		errs = append(errs, fmt.Sprintf("auth.pbkdf2_iterations must be at least %d", minIterations))
	}
	if c.Auth.BootstrapUsername == "" {
		errs = append(errs, "auth.bootstrap_username is required")
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors: %s", strings.Join(errs, "; "))
	}
	return nil
}
