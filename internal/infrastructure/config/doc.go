// Package config loads and validates WinCalc configuration.
//
// Configuration comes from a YAML file with environment variable overrides
// (WINCALC_* pattern) applied on top, and an optional .env file loaded
// before either. Defaults cover every field, so a minimal config file only
// needs to name what it changes.
//
//	app:
//	  name: "WinCalc"
//	database:
//	  path: "./data/wincalc.db"
//	  wal_mode: true
//	auth:
//	  pbkdf2_iterations: 150000
//	  bootstrap_username: "admin"
//	audit:
//	  dir: "./data/audit"
//	logging:
//	  level: "info"
//	  format: "json"
package config
