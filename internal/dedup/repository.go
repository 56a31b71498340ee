package dedup

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"docket/pkg/models"
)

type Repository interface {
	// InsertKey atomically records the key. Returns false when the key was
	// already present (a duplicate delivery), true when this call claimed it.
	InsertKey(ctx context.Context, key string, event models.ChangeEvent) (bool, error)
}

type PostgresRepository struct {
	db *sql.DB
}

func NewRepository(db *sql.DB) Repository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) InsertKey(ctx context.Context, key string, event models.ChangeEvent) (bool, error) {
	query := `
		INSERT INTO processed_events (event_key, table_name, operation, record_id, processed_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		key, event.Table, string(event.Operation), event.RecordID(), time.Now(),
	)
	if err != nil {
		if pqErr, ok := err.(*pq.Error); ok {
			if pqErr.Code == "23505" {
				return false, nil
			}
		}
		if strings.Contains(err.Error(), "duplicate key") || strings.Contains(err.Error(), "unique constraint") {
			return false, nil
		}
		return false, fmt.Errorf("failed to insert dedup key: %w", err)
	}

	return true, nil
}
