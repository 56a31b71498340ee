package dedup

import (
	"context"
	"time"

	"docket/internal/config"
	"docket/internal/logger"
	"docket/pkg/metrics"
	"docket/pkg/models"
	"docket/pkg/tracing"
)

type storeErrorHandlingStatus int

const (
	storeErrorHandlingDeny storeErrorHandlingStatus = iota
	storeErrorHandlingAllow
)

// Service is the dedup guard: at-most-once admission per logical event,
// backed by the dedup store's unique-insert guarantee.
type Service struct {
	repo   Repository
	cfg    config.DedupConfig
	logger logger.Logger
}

func NewService(repo Repository, cfg config.DedupConfig, log logger.Logger) *Service {
	return &Service{
		repo:   repo,
		cfg:    cfg,
		logger: log,
	}
}

// Admit returns true when this call is the first processing pass for the
// event. A store failure that is not a duplicate key admits the event anyway
// unless configured to deny: duplicate notifications are preferable to
// dropped ones while the dedup store is unhealthy.
func (s *Service) Admit(ctx context.Context, event models.ChangeEvent) (bool, error) {
	ctx, span := tracing.GetTracer("dispatch-service").Start(ctx, "dedup.admit")
	defer span.End()

	if err := ctx.Err(); err != nil {
		return false, err
	}

	key := Key(event)

	start := time.Now()
	inserted, err := s.repo.InsertKey(ctx, key, event)
	duration := time.Since(start)

	if err != nil {
		return s.handleStoreError(ctx, err, duration)
	}

	s.recordMetrics(duration, inserted)
	return inserted, nil
}

func (s *Service) handleStoreError(ctx context.Context, err error, duration time.Duration) (bool, error) {
	s.recordMetricsWithStatus(duration, "error")

	if s.storeErrorHandling() == storeErrorHandlingAllow {
		metrics.FallbackUsageTotal.WithLabelValues("dedup", "allow_on_error", metrics.FormatLabel(err, 64)).Inc()
		s.logger.WarnwCtx(ctx, "Dedup store error, admitting event (fallback: allow)",
			"error", err,
		)
		return true, nil
	}

	metrics.FallbackUsageTotal.WithLabelValues("dedup", "deny_on_error", metrics.FormatLabel(err, 64)).Inc()
	return false, err
}

func (s *Service) storeErrorHandling() storeErrorHandlingStatus {
	if s.cfg.OnStoreError == "deny" {
		return storeErrorHandlingDeny
	}
	return storeErrorHandlingAllow
}

func (s *Service) recordMetrics(duration time.Duration, admitted bool) {
	status := "duplicate"
	if admitted {
		status = "admitted"
	}
	s.recordMetricsWithStatus(duration, status)
}

func (s *Service) recordMetricsWithStatus(duration time.Duration, status string) {
	metrics.DedupChecksTotal.WithLabelValues(status).Inc()
	metrics.ObserveDedupDuration(duration, status)
}
