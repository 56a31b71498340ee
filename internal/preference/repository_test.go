package preference

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"docket/internal/logger"
	"docket/pkg/models"
)

func TestPostgresRepositoryGet(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	rows := sqlmock.NewRows([]string{"user_id", "global_enabled", "quiet_hours", "categories", "delivery_channels"}).
		AddRow("u1", true,
			[]byte(`{"enabled":true,"startTimeOfDay":"22:00","endTimeOfDay":"08:00"}`),
			[]byte(`{"task":{"enabled":true,"frequency":"digest","priorityFilter":"high"}}`),
			[]byte(`{"inApp":true,"email":false,"browser":true,"sound":false}`),
		)
	mock.ExpectQuery("SELECT user_id, global_enabled").WithArgs("u1").WillReturnRows(rows)

	repo := NewPostgresRepository(db)
	prefs, err := repo.Get(context.Background(), "u1")

	require.NoError(t, err)
	assert.Equal(t, "u1", prefs.UserID)
	assert.True(t, prefs.GlobalEnabled)
	assert.True(t, prefs.QuietHours.Enabled)
	assert.Equal(t, "22:00", prefs.QuietHours.Start)
	assert.Equal(t, models.FrequencyDigest, prefs.Categories[models.CategoryTask].Frequency)
	assert.False(t, prefs.DeliveryChannels.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryGetMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT user_id, global_enabled").WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "global_enabled", "quiet_hours", "categories", "delivery_channels"}))

	repo := NewPostgresRepository(db)
	_, err = repo.Get(context.Background(), "u1")

	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedRepositoryReadThrough(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	srv, err := miniredis.Run()
	require.NoError(t, err)
	defer srv.Close()

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	rows := sqlmock.NewRows([]string{"user_id", "global_enabled", "quiet_hours", "categories", "delivery_channels"}).
		AddRow("u1", true, []byte(`{"enabled":false}`), []byte(`{}`),
			[]byte(`{"inApp":true,"email":true,"browser":true,"sound":true}`))
	mock.ExpectQuery("SELECT user_id, global_enabled").WithArgs("u1").WillReturnRows(rows)

	repo := NewCachedRepository(NewPostgresRepository(db), client, time.Minute, logger.NopLogger())

	first, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, first.GlobalEnabled)

	// Second read is served from the cache: no further query expected.
	second, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, first, second)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedRepositoryCachesDefaultForMissingRow(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	srv, err := miniredis.Run()
	require.NoError(t, err)
	defer srv.Close()

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()

	mock.ExpectQuery("SELECT user_id, global_enabled").WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "global_enabled", "quiet_hours", "categories", "delivery_channels"}))

	repo := NewCachedRepository(NewPostgresRepository(db), client, time.Minute, logger.NopLogger())

	prefs, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, prefs.GlobalEnabled)
	assert.Equal(t, "u1", prefs.UserID)

	again, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, prefs, again)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCachedRepositoryRedisDownFallsThrough(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	srv, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: srv.Addr()})
	defer client.Close()
	srv.Close()

	rows := sqlmock.NewRows([]string{"user_id", "global_enabled", "quiet_hours", "categories", "delivery_channels"}).
		AddRow("u1", true, []byte(`{"enabled":false}`), []byte(`{}`),
			[]byte(`{"inApp":true,"email":true,"browser":true,"sound":true}`))
	mock.ExpectQuery("SELECT user_id, global_enabled").WithArgs("u1").WillReturnRows(rows)

	repo := NewCachedRepository(NewPostgresRepository(db), client, time.Minute, logger.NopLogger())

	prefs, err := repo.Get(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, prefs.GlobalEnabled)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresRepositoryQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT user_id, global_enabled").WithArgs("u1").
		WillReturnError(errors.New("connection reset"))

	repo := NewPostgresRepository(db)
	_, err = repo.Get(context.Background(), "u1")

	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
}
