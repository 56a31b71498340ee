package directory

import (
	"context"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"docket/internal/constants"
	"docket/internal/logger"
	"docket/pkg/metrics"
)

// CachedDirectory is a read-through cache decorator. Cache failures never
// surface: a miss or a redis error falls through to the inner directory.
type CachedDirectory struct {
	inner  Directory
	client *redis.Client
	ttl    time.Duration
	logger logger.Logger
}

func NewCachedDirectory(inner Directory, client *redis.Client, ttl time.Duration, log logger.Logger) *CachedDirectory {
	if ttl <= 0 {
		ttl = constants.DefaultCacheTTL
	}
	return &CachedDirectory{
		inner:  inner,
		client: client,
		ttl:    ttl,
		logger: log,
	}
}

func (d *CachedDirectory) UserName(ctx context.Context, userID string) (string, error) {
	key := constants.CacheKeyPrefixUser + userID

	if val, ok := d.getString(ctx, key); ok {
		return val, nil
	}

	name, err := d.inner.UserName(ctx, userID)
	if err != nil {
		return "", err
	}

	d.setString(ctx, key, name)
	return name, nil
}

func (d *CachedDirectory) CaseTitle(ctx context.Context, caseID string) (string, error) {
	key := constants.CacheKeyPrefixCase + caseID

	if val, ok := d.getString(ctx, key); ok {
		return val, nil
	}

	title, err := d.inner.CaseTitle(ctx, caseID)
	if err != nil {
		return "", err
	}

	d.setString(ctx, key, title)
	return title, nil
}

func (d *CachedDirectory) CaseTeam(ctx context.Context, caseID string) (CaseTeam, error) {
	key := constants.CacheKeyPrefixCaseTeam + caseID

	val, err := d.client.Get(ctx, key).Result()
	if err == nil {
		var team CaseTeam
		if jsonErr := json.Unmarshal([]byte(val), &team); jsonErr == nil {
			metrics.CacheRequestsTotal.WithLabelValues("directory", "hit").Inc()
			return team, nil
		}
	} else if err != redis.Nil {
		d.logger.DebugwCtx(ctx, "Directory cache read failed", "key", key, "error", err)
	}
	metrics.CacheRequestsTotal.WithLabelValues("directory", "miss").Inc()

	team, err := d.inner.CaseTeam(ctx, caseID)
	if err != nil {
		return CaseTeam{}, err
	}

	if body, jsonErr := json.Marshal(team); jsonErr == nil {
		if setErr := d.client.Set(ctx, key, body, d.ttl).Err(); setErr != nil {
			d.logger.DebugwCtx(ctx, "Directory cache write failed", "key", key, "error", setErr)
		}
	}

	return team, nil
}

func (d *CachedDirectory) getString(ctx context.Context, key string) (string, bool) {
	val, err := d.client.Get(ctx, key).Result()
	if err == nil {
		metrics.CacheRequestsTotal.WithLabelValues("directory", "hit").Inc()
		return val, true
	}
	if err != redis.Nil {
		d.logger.DebugwCtx(ctx, "Directory cache read failed", "key", key, "error", err)
	}
	metrics.CacheRequestsTotal.WithLabelValues("directory", "miss").Inc()
	return "", false
}

func (d *CachedDirectory) setString(ctx context.Context, key, val string) {
	if err := d.client.Set(ctx, key, val, d.ttl).Err(); err != nil {
		d.logger.DebugwCtx(ctx, "Directory cache write failed", "key", key, "error", err)
	}
}
