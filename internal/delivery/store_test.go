package delivery

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docket/pkg/models"
)

func TestPostgresNotificationStoreInsert(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(
			sqlmock.AnyArg(), "u1", "task_assigned", "New Task Assigned", "Task has been assigned",
			"t1", "task", "normal", "/tasks/t1", sqlmock.AnyArg(), sqlmock.AnyArg(),
			"delivered", false, nil, nil, sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPostgresNotificationStore(db)
	err = store.Insert(context.Background(), models.Notification{
		RecipientID:      "u1",
		NotificationType: "task_assigned",
		Title:            "New Task Assigned",
		Message:          "Task has been assigned",
		ReferenceID:      "t1",
		Category:         models.CategoryTask,
		Priority:         models.PriorityNormal,
		ActionURL:        "/tasks/t1",
		DeliveryStatus:   models.StatusDelivered,
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresNotificationStoreInsertPending(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	snooze := time.Date(2026, 9, 1, 8, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO notifications").
		WithArgs(
			sqlmock.AnyArg(), "u2", "case_status_changed", "Case Status Changed", "Case moved",
			"c1", "case", "normal", nil, sqlmock.AnyArg(), sqlmock.AnyArg(),
			"pending", false, snooze, "batch-1", sqlmock.AnyArg(),
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	store := NewPostgresNotificationStore(db)
	err = store.Insert(context.Background(), models.Notification{
		RecipientID:      "u2",
		NotificationType: "case_status_changed",
		Title:            "Case Status Changed",
		Message:          "Case moved",
		ReferenceID:      "c1",
		Category:         models.CategoryCase,
		Priority:         models.PriorityNormal,
		DeliveryStatus:   models.StatusPending,
		SnoozedUntil:     &snooze,
		DigestBatchID:    "batch-1",
	})

	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresNotificationStoreInsertError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO notifications").WillReturnError(errors.New("connection reset"))

	store := NewPostgresNotificationStore(db)
	err = store.Insert(context.Background(), models.Notification{RecipientID: "u1"})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to insert notification")
}
