package preference

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"docket/internal/constants"
	"docket/internal/logger"
	"docket/pkg/metrics"
	"docket/pkg/models"
)

// ErrNotFound reports that a user has no stored preferences row. Callers
// substitute defaults; it is never surfaced further.
var ErrNotFound = errors.New("preferences not found")

type Repository interface {
	Get(ctx context.Context, userID string) (models.UserPreferences, error)
}

// PostgresRepository reads the preferences table maintained by the
// settings UI. The nested structures live in jsonb columns.
type PostgresRepository struct {
	db *sql.DB
}

func NewPostgresRepository(db *sql.DB) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) Get(ctx context.Context, userID string) (models.UserPreferences, error) {
	query := `
		SELECT user_id, global_enabled, quiet_hours, categories, delivery_channels
		FROM notification_preferences
		WHERE user_id = $1
	`

	var (
		prefs      models.UserPreferences
		quietHours []byte
		categories []byte
		channels   []byte
	)
	err := r.db.QueryRowContext(ctx, query, userID).Scan(
		&prefs.UserID, &prefs.GlobalEnabled, &quietHours, &categories, &channels,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return models.UserPreferences{}, ErrNotFound
	}
	if err != nil {
		return models.UserPreferences{}, fmt.Errorf("failed to read preferences: %w", err)
	}

	if err := json.Unmarshal(quietHours, &prefs.QuietHours); err != nil {
		return models.UserPreferences{}, fmt.Errorf("failed to decode quiet hours: %w", err)
	}
	if err := json.Unmarshal(categories, &prefs.Categories); err != nil {
		return models.UserPreferences{}, fmt.Errorf("failed to decode categories: %w", err)
	}
	if err := json.Unmarshal(channels, &prefs.DeliveryChannels); err != nil {
		return models.UserPreferences{}, fmt.Errorf("failed to decode delivery channels: %w", err)
	}

	return prefs, nil
}

// CachedRepository is a read-through cache over a preferences repository.
// A negative result (no row) is cached too, as a serialized default, so a
// user without preferences does not hit the database on every event.
type CachedRepository struct {
	inner  Repository
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedRepository(inner Repository, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedRepository {
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}
	return &CachedRepository{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

func (r *CachedRepository) Get(ctx context.Context, userID string) (models.UserPreferences, error) {
	key := constants.CacheKeyPrefixPrefs + userID

	if val, err := r.client.Get(ctx, key).Result(); err == nil {
		var prefs models.UserPreferences
		if jsonErr := json.Unmarshal([]byte(val), &prefs); jsonErr == nil {
			metrics.CacheRequestsTotal.WithLabelValues("preferences", "hit").Inc()
			return prefs, nil
		}
	} else if err != redis.Nil {
		r.logger.DebugwCtx(ctx, "Preferences cache read failed", "key", key, "error", err)
	}
	metrics.CacheRequestsTotal.WithLabelValues("preferences", "miss").Inc()

	prefs, err := r.inner.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		prefs = models.DefaultPreferences(userID)
	} else if err != nil {
		return models.UserPreferences{}, err
	}

	if body, jsonErr := json.Marshal(prefs); jsonErr == nil {
		if setErr := r.client.Set(ctx, key, body, r.ttl).Err(); setErr != nil {
			r.logger.DebugwCtx(ctx, "Preferences cache write failed", "key", key, "error", setErr)
		}
	}

	return prefs, nil
}
