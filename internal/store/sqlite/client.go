// Package sqlite mirrors a world into a local SQLite file.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"

	"worldkit/internal/store"
)

var _ store.Store = (*Client)(nil)

type Client struct {
	db *sql.DB
}

func New(ctx context.Context, dsn string) (store.Store, error) {
	driverDSN, err := parseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parsing sqlite DSN: %w", err)
	}

	db, err := sql.Open("sqlite", driverDSN)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite database: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("pinging sqlite: %w", err)
	}

	pragmas := []string{
		"PRAGMA busy_timeout = 30000;",
		"PRAGMA journal_mode = WAL;",
		"PRAGMA foreign_keys = ON;",
	}
	for _, pragma := range pragmas {
		if _, err := db.ExecContext(ctx, pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma %q: %w", pragma, err)
		}
	}

	return &Client{db: db}, nil
}

func (c *Client) Close(ctx context.Context) error {
	return c.db.Close()
}

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
	CREATE TABLE IF NOT EXISTS elements (
		element_type TEXT NOT NULL,
		id           TEXT NOT NULL,
		name         TEXT NOT NULL,
		description  TEXT DEFAULT '',
		supertype    TEXT DEFAULT '',
		subtype      TEXT DEFAULT '',
		image_url    TEXT DEFAULT '',
		world_id     TEXT NOT NULL,
		fields       TEXT DEFAULT '{}',
		synced_at    TEXT DEFAULT (datetime('now')),
		PRIMARY KEY (element_type, id)
	);

	CREATE INDEX IF NOT EXISTS idx_elements_type ON elements (element_type);
	CREATE INDEX IF NOT EXISTS idx_elements_world ON elements (world_id);
	CREATE INDEX IF NOT EXISTS idx_elements_name ON elements (name);
	`

	for _, stmt := range splitStatements(ddl) {
		if _, err := c.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("executing DDL: %w", err)
		}
	}
	return nil
}
