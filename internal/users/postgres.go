package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"houseprice/internal/models"
)

// querier is satisfied by *pgxpool.Pool.
type querier interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

const uniqueViolation = "23505"

// PostgresStore keeps accounts in the users table.
type PostgresStore struct {
	db querier
}

func NewPostgresStore(db querier) *PostgresStore {
	return &PostgresStore{db: db}
}

func (s *PostgresStore) Get(ctx context.Context, email string) (models.User, error) {
	var u models.User
	err := s.db.QueryRow(ctx,
		`SELECT email, name, password_hash, created_at FROM users WHERE email = $1`, email,
	).Scan(&u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return models.User{}, ErrNotFound
	}
	if err != nil {
		return models.User{}, fmt.Errorf("users.Get: %w", err)
	}
	return u, nil
}

func (s *PostgresStore) Create(ctx context.Context, user models.User) error {
	_, err := s.db.Exec(ctx,
		`INSERT INTO users (email, name, password_hash) VALUES ($1, $2, $3)`,
		user.Email, user.Name, user.PasswordHash,
	)
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
		return fmt.Errorf("%w: %s", ErrDuplicate, user.Email)
	}
	if err != nil {
		return fmt.Errorf("users.Create: %w", err)
	}
	return nil
}

func (s *PostgresStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRow(ctx, `SELECT count(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("users.Count: %w", err)
	}
	return n, nil
}
