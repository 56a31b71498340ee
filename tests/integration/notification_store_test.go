package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docket/internal/delivery"
	"docket/pkg/models"
)

func TestNotificationStore_Insert(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false)

	ctx := context.Background()
	store := delivery.NewPostgresNotificationStore(infra.PostgresDB)

	snooze := time.Now().Add(8 * time.Hour).UTC().Truncate(time.Second)
	err := store.Insert(ctx, models.Notification{
		RecipientID:      "u1",
		NotificationType: "case_status_changed",
		Title:            "Case Status Changed",
		Message:          "Case moved from open to closed",
		ReferenceID:      "c1",
		Category:         models.CategoryCase,
		Priority:         models.PriorityNormal,
		ActionURL:        "/cases/c1",
		Metadata:         map[string]interface{}{"old_status": "open", "new_status": "closed"},
		DeliveryChannels: models.DeliveryChannels{InApp: true, Email: true},
		DeliveryStatus:   models.StatusPending,
		SnoozedUntil:     &snooze,
	})
	require.NoError(t, err)

	var (
		count  int
		status string
	)
	row := infra.PostgresDB.QueryRowContext(ctx,
		`SELECT COUNT(*), MAX(delivery_status) FROM notifications WHERE recipient_id = $1`, "u1")
	require.NoError(t, row.Scan(&count, &status))
	assert.Equal(t, 1, count)
	assert.Equal(t, "pending", status)
}

func TestNotificationStore_GeneratesIDs(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false)

	ctx := context.Background()
	store := delivery.NewPostgresNotificationStore(infra.PostgresDB)

	for i := 0; i < 3; i++ {
		err := store.Insert(ctx, models.Notification{
			RecipientID:      "u2",
			NotificationType: "task_assigned",
			Title:            "New Task Assigned",
			Message:          "Task has been assigned",
			Category:         models.CategoryTask,
			Priority:         models.PriorityNormal,
			DeliveryStatus:   models.StatusDelivered,
		})
		require.NoError(t, err)
	}

	var distinct int
	row := infra.PostgresDB.QueryRowContext(ctx,
		`SELECT COUNT(DISTINCT id) FROM notifications WHERE recipient_id = $1`, "u2")
	require.NoError(t, row.Scan(&distinct))
	assert.Equal(t, 3, distinct)
}
