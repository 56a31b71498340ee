// Package dispatch orchestrates the pipeline for one change event: dedup
// admission, message building, recipient resolution and delivery routing.
package dispatch

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"docket/internal/dedup"
	"docket/internal/delivery"
	"docket/internal/logger"
	"docket/internal/message"
	"docket/internal/recipient"
	"docket/pkg/errors"
	"docket/pkg/metrics"
	"docket/pkg/models"
	"docket/pkg/tracing"
)

const (
	StatusOK      = "ok"
	StatusSkipped = "skipped"
)

const (
	ReasonDuplicate    = "duplicate"
	ReasonSuppressed   = "suppressed"
	ReasonNoRecipients = "no_recipients"
)

// Result describes the outcome of one processing pass. Skipped outcomes
// carry a reason; delivered outcomes carry the recipient count and which
// delivery path handled them.
type Result struct {
	Status         string `json:"status"`
	Reason         string `json:"reason,omitempty"`
	RecipientCount int    `json:"recipientCount,omitempty"`
	Method         string `json:"method,omitempty"`
}

type Service struct {
	guard    *dedup.Service
	builder  *message.Builder
	resolver *recipient.Resolver
	router   *delivery.Router
	logger   logger.Logger
}

func NewService(
	guard *dedup.Service,
	builder *message.Builder,
	resolver *recipient.Resolver,
	router *delivery.Router,
	log logger.Logger,
) *Service {
	return &Service{
		guard:    guard,
		builder:  builder,
		resolver: resolver,
		router:   router,
		logger:   log,
	}
}

// Process runs one change event through the pipeline. Expected no-op
// outcomes (duplicate, suppressed payload, no recipients) return a skipped
// result, not an error; an error means the event was not processed and the
// upstream retry mechanism should redeliver it.
func (s *Service) Process(ctx context.Context, event models.ChangeEvent) (Result, error) {
	start := time.Now()

	ctx, span := tracing.GetTracer("dispatch-service").Start(ctx, "dispatch.process")
	defer span.End()
	span.SetAttributes(
		attribute.String("event.table", event.Table),
		attribute.String("event.operation", string(event.Operation)),
	)

	result, err := s.process(ctx, event)

	outcome := result.Status
	if err != nil {
		outcome = "error"
	} else if result.Status == StatusSkipped {
		outcome = result.Reason
	}
	metrics.DispatchEventsTotal.WithLabelValues(outcome).Inc()
	metrics.ObserveDispatchDuration(time.Since(start), outcome)

	return result, err
}

func (s *Service) process(ctx context.Context, event models.ChangeEvent) (Result, error) {
	if err := validate(event); err != nil {
		return Result{}, err
	}

	admitted, err := s.guard.Admit(ctx, event)
	if err != nil {
		return Result{}, fmt.Errorf("dedup admission failed: %w", err)
	}
	if !admitted {
		s.logger.InfowCtx(ctx, "Duplicate event skipped",
			"table", event.Table, "operation", event.Operation, "record_id", event.RecordID())
		return Result{Status: StatusSkipped, Reason: ReasonDuplicate}, nil
	}

	payload := s.builder.Build(ctx, event)
	if payload.Suppress {
		s.logger.InfowCtx(ctx, "Event suppressed by message rules",
			"table", event.Table, "operation", event.Operation, "type", payload.Type)
		return Result{Status: StatusSkipped, Reason: ReasonSuppressed}, nil
	}

	recipients := s.resolver.Resolve(ctx, event)
	if len(recipients) == 0 {
		s.logger.InfowCtx(ctx, "No recipients resolved",
			"table", event.Table, "operation", event.Operation, "record_id", event.RecordID())
		return Result{Status: StatusSkipped, Reason: ReasonNoRecipients}, nil
	}

	delivered := s.router.Deliver(ctx, recipients, payload)

	s.logger.InfowCtx(ctx, "Event dispatched",
		"table", event.Table,
		"operation", event.Operation,
		"record_id", event.RecordID(),
		"recipients", delivered.Count,
		"method", delivered.Method,
	)

	return Result{
		Status:         StatusOK,
		RecipientCount: delivered.Count,
		Method:         delivered.Method,
	}, nil
}

func validate(event models.ChangeEvent) error {
	switch {
	case event.Table == "":
		return errors.ErrValidation.WithDetail("message", "event is missing table")
	case !event.Operation.Valid():
		return errors.ErrValidation.WithDetail("message", fmt.Sprintf("invalid operation %q", event.Operation))
	case event.Record == nil:
		return errors.ErrValidation.WithDetail("message", "event is missing record")
	case event.RecordID() == "":
		return errors.ErrValidation.WithDetail("message", "record is missing id")
	}
	return nil
}
