package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"agency-dashboard/internal/common/config"

	_ "github.com/lib/pq"
)

// PostgresClient wraps the document store connection pool.
type PostgresClient struct {
	DB *sql.DB
}

// NewPostgres opens a pool against cfg. The connection is not verified until Ping.
func NewPostgres(cfg config.PostgresConfig) (*PostgresClient, error) {
	db, err := sql.Open("postgres", cfg.GetDSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open postgres: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdle)
	db.SetConnMaxLifetime(5 * time.Minute)
	db.SetConnMaxIdleTime(5 * time.Minute)

	return &PostgresClient{DB: db}, nil
}

func (c *PostgresClient) Ping(ctx context.Context) error {
	return c.DB.PingContext(ctx)
}

func (c *PostgresClient) Close() error {
	if c.DB != nil {
		return c.DB.Close()
	}
	return nil
}

// Migrate creates one JSONB document table per collection name. It is idempotent.
func (c *PostgresClient) Migrate(ctx context.Context, collections ...string) error {
	for _, name := range collections {
		stmt := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	id BIGSERIAL PRIMARY KEY,
	client_id BIGINT,
	doc JSONB NOT NULL,
	created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
)`, name)
		if _, err := c.DB.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate %s: %w", name, err)
		}
		idx := fmt.Sprintf(`CREATE INDEX IF NOT EXISTS %s_client_id_idx ON %s (client_id)`, name, name)
		if _, err := c.DB.ExecContext(ctx, idx); err != nil {
			return fmt.Errorf("migrate %s index: %w", name, err)
		}
	}
	return nil
}
