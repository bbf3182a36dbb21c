// Package postgres implements the repository.Store interface backed by
// PostgreSQL.
package postgres

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	migratepg "github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/GingerBreadIdeas/echker/internal/config"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Client wraps the PostgreSQL connection pool
type Client struct {
	db     *sqlx.DB
	config *config.Postgres
	log    *zap.Logger
}

// NewClient opens a connection pool to PostgreSQL, verifies it and runs any
// pending migrations.
func NewClient(ctx context.Context, config *config.Postgres, log *zap.Logger) (*Client, error) {
	log.Info("Connecting to PostgreSQL")

	db, err := sqlx.Open("postgres", config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(config.MaxOpenConns)
	db.SetMaxIdleConns(config.MaxIdleConns)
	db.SetConnMaxLifetime(time.Duration(config.ConnMaxLifetimeSec) * time.Second)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		log.Error("Failed to ping PostgreSQL", zap.Error(err))
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}

	log.Info("PostgreSQL connection established successfully")

	return &Client{db: db, config: config, log: log}, nil
}

func runMigrations(db *sqlx.DB) error {
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	dbDriver, err := migratepg.WithInstance(db.DB, &migratepg.Config{})
	if err != nil {
		return fmt.Errorf("failed to create migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, "postgres", dbDriver)
	if err != nil {
		return fmt.Errorf("failed to create migrator: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	return nil
}

// DB returns the underlying database handle
func (c *Client) DB() *sqlx.DB {
	return c.db
}

// Close closes the PostgreSQL connection pool
func (c *Client) Close() error {
	c.log.Info("Closing PostgreSQL connection")
	if err := c.db.Close(); err != nil {
		c.log.Error("Error closing PostgreSQL connection", zap.Error(err))
		return err
	}
	return nil
}
