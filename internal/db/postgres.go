package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/pressly/goose/v3"

	"github.com/rossfreedman/rally/internal/db/migrations"
)

// NewPostgres opens a PostgreSQL pool for the given DSN.
func NewPostgres(ctx context.Context, dsn string) (*sqlx.DB, error) {
	conn, err := sqlx.ConnectContext(ctx, "postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres: connect: %w", err)
	}

	// Each request borrows a connection for its duration only.
	conn.SetMaxOpenConns(50)
	conn.SetMaxIdleConns(10)
	conn.SetConnMaxLifetime(5 * time.Minute)

	return conn, nil
}

// gooseUp is replaced in tests.
var gooseUp = func(ctx context.Context, conn *sqlx.DB) error {
	return goose.UpContext(ctx, conn.DB, ".")
}

// RunMigrations applies the embedded SQL migrations with goose.
func RunMigrations(ctx context.Context, conn *sqlx.DB) error {
	goose.SetBaseFS(migrations.FS)
	if err := goose.SetDialect("postgres"); err != nil {
		return fmt.Errorf("postgres: goose dialect: %w", err)
	}

	if err := gooseUp(ctx, conn); err != nil {
		return fmt.Errorf("postgres: apply migrations: %w", err)
	}

	return nil
}
