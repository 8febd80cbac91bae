package postgres

import (
	"context"
	"database/sql"
	"fmt"

	_ "github.com/lib/pq"
)

const schema = `
CREATE TABLE IF NOT EXISTS guilds (
	id                     TEXT PRIMARY KEY,
	category_id            TEXT,
	last_message_id        TEXT,
	create_channel         BOOLEAN NOT NULL DEFAULT TRUE,
	notify_permission_loss BOOLEAN NOT NULL DEFAULT TRUE,
	welcome_message        TEXT NOT NULL,
	welcome_channel_id     TEXT,
	notify_missing_welcome_channel BOOLEAN NOT NULL DEFAULT TRUE,
	scheduler_category_id  TEXT,
	scheduler_template     JSONB,
	created_at             TIMESTAMPTZ NOT NULL,
	updated_at             TIMESTAMPTZ NOT NULL
);
ALTER TABLE guilds ADD COLUMN IF NOT EXISTS welcome_channel_id TEXT;
ALTER TABLE guilds ADD COLUMN IF NOT EXISTS notify_missing_welcome_channel BOOLEAN NOT NULL DEFAULT TRUE;
`

// Open connects to Postgres and verifies the connection.
func Open(ctx context.Context, dsn string) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

// Migrate creates the tables the bot needs if they do not exist yet.
func Migrate(ctx context.Context, db *sql.DB) error {
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}
