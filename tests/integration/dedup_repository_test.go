package integration

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docket/internal/dedup"
	"docket/pkg/models"
)

func changeEvent(table string, op models.Operation, recordID string) models.ChangeEvent {
	return models.ChangeEvent{
		Table:     table,
		Operation: op,
		Record:    map[string]interface{}{"id": recordID},
	}
}

func TestDedupRepository_InsertKey(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false)

	ctx := context.Background()
	repo := dedup.NewRepository(infra.PostgresDB)

	event := changeEvent("tasks", models.OperationInsert, "t1")
	key := dedup.Key(event)

	inserted, err := repo.InsertKey(ctx, key, event)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = repo.InsertKey(ctx, key, event)
	require.NoError(t, err)
	assert.False(t, inserted)
}

func TestDedupRepository_DistinctEvents(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false)

	ctx := context.Background()
	repo := dedup.NewRepository(infra.PostgresDB)

	events := []models.ChangeEvent{
		changeEvent("tasks", models.OperationInsert, "t1"),
		changeEvent("tasks", models.OperationUpdate, "t1"),
		changeEvent("tasks", models.OperationInsert, "t2"),
		changeEvent("cases", models.OperationInsert, "t1"),
	}

	for _, event := range events {
		inserted, err := repo.InsertKey(ctx, dedup.Key(event), event)
		require.NoError(t, err)
		assert.True(t, inserted, "event %s/%s/%s should claim its own key",
			event.Table, event.Operation, event.RecordID())
	}
}

func TestDedupRepository_ConcurrentClaims(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false)

	ctx := context.Background()
	repo := dedup.NewRepository(infra.PostgresDB)

	event := changeEvent("documents", models.OperationInsert, "d1")
	key := dedup.Key(event)

	const attempts = 10
	results := make(chan bool, attempts)
	for i := 0; i < attempts; i++ {
		go func() {
			inserted, err := repo.InsertKey(ctx, key, event)
			if err != nil {
				results <- false
				return
			}
			results <- inserted
		}()
	}

	claimed := 0
	for i := 0; i < attempts; i++ {
		if <-results {
			claimed++
		}
	}

	assert.Equal(t, 1, claimed, "exactly one concurrent insert should claim the key")
}
