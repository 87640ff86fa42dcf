// Package postgres opens the shared pgx connection pool and applies the
// schema used by the user store and the prediction audit log.
package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog/log"
)

const (
	defaultMaxPoolSize  = 4
	defaultConnAttempts = 5
	defaultConnTimeout  = time.Second
)

// Postgres owns the connection pool.
type Postgres struct {
	maxPoolSize  int
	connAttempts int
	connTimeout  time.Duration

	Pool *pgxpool.Pool
}

type Option func(*Postgres)

func MaxPoolSize(size int) Option {
	return func(p *Postgres) {
		if size > 0 {
			p.maxPoolSize = size
		}
	}
}

func ConnAttempts(attempts int) Option {
	return func(p *Postgres) {
		if attempts > 0 {
			p.connAttempts = attempts
		}
	}
}

func ConnTimeout(timeout time.Duration) Option {
	return func(p *Postgres) {
		p.connTimeout = timeout
	}
}

// New connects to dsn, retrying while the database comes up.
func New(ctx context.Context, dsn string, opts ...Option) (*Postgres, error) {
	pg := &Postgres{
		maxPoolSize:  defaultMaxPoolSize,
		connAttempts: defaultConnAttempts,
		connTimeout:  defaultConnTimeout,
	}
	for _, opt := range opts {
		opt(pg)
	}

	poolConfig, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New.ParseConfig: %w", err)
	}
	poolConfig.MaxConns = int32(pg.maxPoolSize)

	pg.Pool, err = pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("postgres.New.NewWithConfig: %w", err)
	}

	for attempt := 1; ; attempt++ {
		err = pg.Pool.Ping(ctx)
		if err == nil {
			break
		}
		if attempt >= pg.connAttempts {
			pg.Pool.Close()
			return nil, fmt.Errorf("postgres.New: connection attempts exhausted: %w", err)
		}
		log.Warn().Err(err).Int("attempts_left", pg.connAttempts-attempt).Msg("postgres is trying to connect")
		select {
		case <-time.After(pg.connTimeout):
		case <-ctx.Done():
			pg.Pool.Close()
			return nil, ctx.Err()
		}
	}
	return pg, nil
}

// Close releases every pooled connection.
func (p *Postgres) Close() {
	if p.Pool != nil {
		p.Pool.Close()
	}
}

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		email         TEXT PRIMARY KEY,
		name          TEXT NOT NULL,
		password_hash TEXT NOT NULL,
		created_at    TIMESTAMPTZ NOT NULL DEFAULT now()
	)`,
	`CREATE TABLE IF NOT EXISTS prediction_audit (
		id         UUID PRIMARY KEY,
		user_email TEXT NOT NULL,
		location   TEXT NOT NULL,
		features   DOUBLE PRECISION[] NOT NULL,
		estimate   DOUBLE PRECISION NOT NULL,
		scaled     DOUBLE PRECISION NOT NULL,
		formatted  TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		geohash    TEXT NOT NULL DEFAULT ''
	)`,
	`CREATE INDEX IF NOT EXISTS prediction_audit_geohash_idx ON prediction_audit (geohash text_pattern_ops)`,
	`CREATE INDEX IF NOT EXISTS prediction_audit_created_at_idx ON prediction_audit (created_at)`,
}

// Migrate creates the tables if they do not exist.
func (p *Postgres) Migrate(ctx context.Context) error {
	for i, stmt := range schema {
		if _, err := p.Pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres.Migrate: statement %d: %w", i, err)
		}
	}
	return nil
}
