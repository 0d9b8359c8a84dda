// Package postgres mirrors a world into a PostgreSQL database.
package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"worldkit/internal/store"
)

var _ store.Store = (*Client)(nil)

type Client struct {
	pool *pgxpool.Pool
}

func New(ctx context.Context, dsn string) (store.Store, error) {
	pool, err := pgxpool.New(ctx, dsn)
	if err != nil {
		return nil, fmt.Errorf("creating postgres pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pinging postgres: %w", err)
	}
	return &Client{pool: pool}, nil
}

func (c *Client) Close(ctx context.Context) error {
	c.pool.Close()
	return nil
}

func (c *Client) EnsureSchema(ctx context.Context) error {
	ddl := `
CREATE TABLE IF NOT EXISTS elements (
	element_type TEXT NOT NULL,
	id           TEXT NOT NULL,
	name         TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	supertype    TEXT NOT NULL DEFAULT '',
	subtype      TEXT NOT NULL DEFAULT '',
	image_url    TEXT NOT NULL DEFAULT '',
	world_id     TEXT NOT NULL,
	fields       JSONB NOT NULL DEFAULT '{}',
	synced_at    TIMESTAMPTZ NOT NULL DEFAULT now(),
	PRIMARY KEY (element_type, id)
);

CREATE INDEX IF NOT EXISTS idx_elements_type ON elements (element_type);
CREATE INDEX IF NOT EXISTS idx_elements_world ON elements (world_id);
CREATE INDEX IF NOT EXISTS idx_elements_name ON elements (name);
`
	if _, err := c.pool.Exec(ctx, ddl); err != nil {
		return fmt.Errorf("ensuring schema: %w", err)
	}
	return nil
}
