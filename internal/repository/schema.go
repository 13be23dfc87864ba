package repository

import (
	"context"
	"database/sql"
)

// Schema is the DDL for the documents and tasks tables. Kept portable between
// Postgres and SQLite so repository tests can run against an in-memory file.
const Schema = `
CREATE TABLE IF NOT EXISTS documents (
	id                INTEGER PRIMARY KEY GENERATED BY DEFAULT AS IDENTITY,
	file_hash         TEXT NOT NULL UNIQUE,
	file_name         TEXT NOT NULL,
	file_size         BIGINT NOT NULL DEFAULT 0,
	storage_key       TEXT NOT NULL,
	extracted_data    TEXT,
	validation_status TEXT,
	created_at        TIMESTAMPTZ NOT NULL DEFAULT now(),
	updated_at        TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tasks (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	document_id  BIGINT REFERENCES documents(id),
	error        TEXT,
	callback_url TEXT,
	client_id    TEXT,
	created_at   TIMESTAMPTZ NOT NULL,
	updated_at   TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status);
CREATE INDEX IF NOT EXISTS idx_tasks_document ON tasks (document_id);
`

// SQLiteSchema mirrors Schema with SQLite-compatible types. Used by tests.
const SQLiteSchema = `
CREATE TABLE IF NOT EXISTS documents (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	file_hash         TEXT NOT NULL UNIQUE,
	file_name         TEXT NOT NULL,
	file_size         INTEGER NOT NULL DEFAULT 0,
	storage_key       TEXT NOT NULL,
	extracted_data    TEXT,
	validation_status TEXT,
	created_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP,
	updated_at        TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS tasks (
	id           TEXT PRIMARY KEY,
	status       TEXT NOT NULL,
	document_id  INTEGER REFERENCES documents(id),
	error        TEXT,
	callback_url TEXT,
	client_id    TEXT,
	created_at   TIMESTAMP NOT NULL,
	updated_at   TIMESTAMP NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_tasks_status ON tasks (status);
CREATE INDEX IF NOT EXISTS idx_tasks_document ON tasks (document_id);
`

// Migrate applies the schema. Idempotent.
func Migrate(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, Schema)
	return err
}
