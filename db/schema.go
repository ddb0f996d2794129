package db

import (
	"context"
	"database/sql"
	"fmt"
)

// Имена constraint-ов участвуют в маппинге ошибок уникальности в repositories,
// менять синхронно.
const postgresSchema = `
CREATE TABLE IF NOT EXISTS participants (
	id                BIGSERIAL PRIMARY KEY,
	ticket_id         TEXT        NOT NULL,
	full_name         TEXT        NOT NULL,
	email             TEXT        NOT NULL,
	github_username   TEXT        NOT NULL,
	avatar_filename   TEXT,
	qr_code_filename  TEXT,
	registration_date TIMESTAMPTZ NOT NULL DEFAULT now(),
	CONSTRAINT participants_ticket_id_key UNIQUE (ticket_id),
	CONSTRAINT participants_email_key UNIQUE (email)
)`

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS participants (
	id                INTEGER PRIMARY KEY AUTOINCREMENT,
	ticket_id         TEXT NOT NULL UNIQUE,
	full_name         TEXT NOT NULL,
	email             TEXT NOT NULL UNIQUE,
	github_username   TEXT NOT NULL,
	avatar_filename   TEXT,
	qr_code_filename  TEXT,
	registration_date TIMESTAMP NOT NULL
)`

// EnsureSchema создаёт таблицу участников, если её ещё нет.
func EnsureSchema(ctx context.Context, db *sql.DB, driver string) error {
	schema := sqliteSchema
	if driver == "postgres" {
		schema = postgresSchema
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("failed to ensure participants schema: %w", err)
	}
	return nil
}
