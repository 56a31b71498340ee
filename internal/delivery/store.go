package delivery

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"docket/pkg/models"
)

// NotificationStore persists per-recipient notification rows. The table is
// insert-only from this service; reads and state changes belong to the app.
type NotificationStore interface {
	Insert(ctx context.Context, notification models.Notification) error
}

type PostgresNotificationStore struct {
	db *sql.DB
}

func NewPostgresNotificationStore(db *sql.DB) *PostgresNotificationStore {
	return &PostgresNotificationStore{db: db}
}

func (s *PostgresNotificationStore) Insert(ctx context.Context, n models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}

	metadata, err := json.Marshal(n.Metadata)
	if err != nil {
		return fmt.Errorf("failed to encode metadata: %w", err)
	}
	channels, err := json.Marshal(n.DeliveryChannels)
	if err != nil {
		return fmt.Errorf("failed to encode delivery channels: %w", err)
	}

	query := `
		INSERT INTO notifications (
			id, recipient_id, notification_type, title, message, reference_id,
			category, priority, action_url, metadata, delivery_channels,
			delivery_status, read, snoozed_until, digest_batch_id, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
	`

	_, err = s.db.ExecContext(ctx, query,
		n.ID, n.RecipientID, n.NotificationType, n.Title, n.Message, nullable(n.ReferenceID),
		string(n.Category), string(n.Priority), nullable(n.ActionURL), metadata, channels,
		string(n.DeliveryStatus), n.Read, n.SnoozedUntil, nullable(n.DigestBatchID), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert notification: %w", err)
	}

	return nil
}

func nullable(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
