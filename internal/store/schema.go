package store

import (
	"context"
	"database/sql"
)

// EnsureSchema creates the tables the service needs if they do not exist yet.
// Roster rows themselves are provisioned externally; only the structure is owned here.
func EnsureSchema(ctx context.Context, db *sql.DB) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS students (
			batch_id         TEXT NOT NULL,
			section_id       TEXT NOT NULL,
			student_id       TEXT NOT NULL,
			name             TEXT NOT NULL DEFAULT '',
			roll_number      TEXT NOT NULL DEFAULT '',
			status           TEXT NOT NULL DEFAULT '',
			total_classes    INT  NOT NULL DEFAULT 0 CHECK (total_classes >= 0),
			classes_attended INT  NOT NULL DEFAULT 0 CHECK (classes_attended >= 0),
			subject          TEXT,
			phone_number     TEXT,
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			PRIMARY KEY (batch_id, section_id, student_id),
			CHECK (classes_attended <= total_classes)
		)`,
		`CREATE TABLE IF NOT EXISTS refresh_tokens (
			token      TEXT PRIMARY KEY,
			faculty_id TEXT NOT NULL,
			expires_at TIMESTAMPTZ NOT NULL,
			revoked    BOOLEAN NOT NULL DEFAULT FALSE
		)`,
		`CREATE TABLE IF NOT EXISTS notification_log (
			id           UUID PRIMARY KEY,
			student_name TEXT NOT NULL,
			roll_number  TEXT NOT NULL,
			subject      TEXT NOT NULL DEFAULT '',
			destination  TEXT NOT NULL,
			outcome      TEXT NOT NULL,
			detail       TEXT NOT NULL DEFAULT '',
			sent_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, s := range stmts {
		if _, err := db.ExecContext(ctx, s); err != nil {
			return err
		}
	}
	return nil
}
