package audit

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"

	"houseprice/internal/models"
)

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresSink writes events to the prediction_audit table. Redelivered
// events are ignored.
type PostgresSink struct {
	db execer
}

func NewPostgresSink(db execer) *PostgresSink {
	return &PostgresSink{db: db}
}

func (s *PostgresSink) Insert(ctx context.Context, e *models.PredictionEvent) error {
	_, err := s.db.Exec(ctx, `
		INSERT INTO prediction_audit (id, user_email, location, features, estimate, scaled, formatted, created_at, geohash)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (id) DO NOTHING`,
		e.ID, e.User, e.Location, e.Features, e.Estimate, e.Scaled, e.Formatted, e.CreatedAt, e.Geohash,
	)
	if err != nil {
		return fmt.Errorf("audit.Insert: %w", err)
	}
	return nil
}

// Archiver stores events in object storage.
type Archiver interface {
	StoreEvent(ctx context.Context, bucketName string, event models.PredictionEvent) error
}
