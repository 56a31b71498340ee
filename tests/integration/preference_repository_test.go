package integration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docket/internal/logger"
	"docket/internal/preference"
	"docket/pkg/models"
)

func seedPreferences(t *testing.T, infra *TestInfra, userID string) {
	t.Helper()

	_, err := infra.PostgresDB.Exec(`
		INSERT INTO notification_preferences (user_id, global_enabled, quiet_hours, categories, delivery_channels)
		VALUES ($1, TRUE,
			'{"enabled": true, "startTimeOfDay": "22:00", "endTimeOfDay": "08:00"}',
			'{"task": {"enabled": true, "frequency": "digest", "priorityFilter": "high"}}',
			'{"inApp": true, "email": false, "browser": true, "sound": false}')
	`, userID)
	require.NoError(t, err)
}

func TestPreferenceRepository_Get(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false)
	seedPreferences(t, infra, "u1")

	repo := preference.NewPostgresRepository(infra.PostgresDB)
	prefs, err := repo.Get(context.Background(), "u1")

	require.NoError(t, err)
	assert.True(t, prefs.GlobalEnabled)
	assert.True(t, prefs.QuietHours.Enabled)
	assert.Equal(t, "22:00", prefs.QuietHours.Start)
	assert.Equal(t, "08:00", prefs.QuietHours.End)
	assert.Equal(t, models.FrequencyDigest, prefs.Categories[models.CategoryTask].Frequency)
	assert.Equal(t, models.FilterHigh, prefs.Categories[models.CategoryTask].PriorityFilter)
	assert.False(t, prefs.DeliveryChannels.Email)
}

func TestPreferenceRepository_MissingRow(t *testing.T) {
	infra := SetupTestInfraWithOptions(t, true, false)

	repo := preference.NewPostgresRepository(infra.PostgresDB)
	_, err := repo.Get(context.Background(), "nobody")

	assert.ErrorIs(t, err, preference.ErrNotFound)
}

func TestPreferenceRepository_CachedReadThrough(t *testing.T) {
	infra := SetupTestInfra(t)
	seedPreferences(t, infra, "u1")

	repo := preference.NewCachedRepository(
		preference.NewPostgresRepository(infra.PostgresDB),
		infra.RedisClient,
		time.Minute,
		logger.NopLogger(),
	)

	first, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)

	// Mutate the row behind the cache; the cached copy should win until TTL.
	_, err = infra.PostgresDB.Exec(`UPDATE notification_preferences SET global_enabled = FALSE WHERE user_id = $1`, "u1")
	require.NoError(t, err)

	second, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.True(t, second.GlobalEnabled)
}

func TestPreferenceRepository_CachedDefaultsForMissingRow(t *testing.T) {
	infra := SetupTestInfra(t)

	repo := preference.NewCachedRepository(
		preference.NewPostgresRepository(infra.PostgresDB),
		infra.RedisClient,
		time.Minute,
		logger.NopLogger(),
	)

	prefs, err := repo.Get(context.Background(), "nobody")
	require.NoError(t, err)
	assert.True(t, prefs.GlobalEnabled)
	assert.Equal(t, "nobody", prefs.UserID)
}
