// Package database manages the SQLite connection and schema migrations for
// the WinCalc credential store.
//
// SQLite fits the deployment exactly: a single-process desktop tool with one
// writer and a file-local datastore. The pool is pinned to one connection,
// WAL mode allows reads during writes, and the file is kept at 0600 since it
// holds password records.
//
// Migrations are embedded .up.sql files applied in filename-version order,
// each in its own transaction.
package database
