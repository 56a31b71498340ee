package dedup

import (
	"context"
	"errors"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docket/pkg/models"
)

func testEvent() models.ChangeEvent {
	return models.ChangeEvent{
		Table:     "tasks",
		Operation: models.OperationInsert,
		Record:    map[string]interface{}{"id": "t1"},
	}
}

func TestInsertKeyClaimsNewKey(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO processed_events").
		WithArgs(sqlmock.AnyArg(), "tasks", "INSERT", "t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewRepository(db)
	inserted, err := repo.InsertKey(context.Background(), Key(testEvent()), testEvent())

	require.NoError(t, err)
	assert.True(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertKeyDuplicateIsNotAnError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO processed_events").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	repo := NewRepository(db)
	inserted, err := repo.InsertKey(context.Background(), Key(testEvent()), testEvent())

	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestInsertKeyStoreErrorPropagates(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO processed_events").
		WillReturnError(errors.New("connection refused"))

	repo := NewRepository(db)
	inserted, err := repo.InsertKey(context.Background(), Key(testEvent()), testEvent())

	require.Error(t, err)
	assert.False(t, inserted)
}
