package delivery

import (
	"context"

	"docket/internal/constants"
	"docket/internal/logger"
	"docket/internal/preference"
	"docket/pkg/metrics"
	"docket/pkg/models"
)

// Result summarizes one delivery pass: which path handled it and how many
// recipients ended up with something.
type Result struct {
	Method string
	Count  int
}

// Router tries the push provider first and falls back to direct rows in
// the notifications table. Provider failures never propagate upstream;
// they downgrade to the fallback with a warning.
type Router struct {
	provider Provider
	engine   *preference.Engine
	store    NotificationStore
	logger   logger.Logger
}

func NewRouter(provider Provider, engine *preference.Engine, store NotificationStore, log logger.Logger) *Router {
	return &Router{
		provider: provider,
		engine:   engine,
		store:    store,
		logger:   log,
	}
}

// Deliver routes a payload to the resolved recipients. On the provider
// path the provider owns preference handling and persistence, so nothing
// is written locally. On the fallback path each recipient gets an
// individual preference decision; a failed insert skips that recipient
// and the rest proceed.
func (r *Router) Deliver(ctx context.Context, recipients []string, payload models.NotificationPayload) Result {
	if r.provider != nil && r.provider.Enabled() {
		err := r.provider.Trigger(ctx, recipients, payload)
		if err == nil {
			return Result{Method: constants.DeliveryMethodProvider, Count: len(recipients)}
		}
		r.logger.WarnwCtx(ctx, "Provider trigger failed, falling back to direct write",
			"recipients", len(recipients), "error", err)
		metrics.FallbackUsageTotal.WithLabelValues("delivery", "direct_write", "provider_failed").Inc()
	}

	return r.deliverDirect(ctx, recipients, payload)
}

func (r *Router) deliverDirect(ctx context.Context, recipients []string, payload models.NotificationPayload) Result {
	written := 0
	for _, userID := range recipients {
		decision := r.engine.Decide(ctx, userID, payload)
		if !decision.Deliver {
			r.logger.DebugwCtx(ctx, "Notification dropped by preferences",
				"user_id", userID, "reason", decision.Reason)
			continue
		}

		notification := models.Notification{
			RecipientID:      userID,
			NotificationType: payload.Type,
			Title:            payload.Subject,
			Message:          payload.Body,
			ReferenceID:      payload.ReferenceID,
			Category:         payload.Category,
			Priority:         payload.Priority,
			ActionURL:        payload.ActionURL,
			Metadata:         payload.Metadata,
			DeliveryChannels: decision.Channels,
			DeliveryStatus:   decision.Status,
			SnoozedUntil:     decision.SnoozedUntil,
			DigestBatchID:    decision.DigestBatchID,
		}

		if err := r.store.Insert(ctx, notification); err != nil {
			r.logger.ErrorwCtx(ctx, "Failed to write notification, skipping recipient",
				"user_id", userID, "error", err)
			metrics.NotificationWriteFailuresTotal.Inc()
			continue
		}

		metrics.NotificationsWrittenTotal.WithLabelValues(string(decision.Status)).Inc()
		written++
	}

	return Result{Method: constants.DeliveryMethodDirect, Count: written}
}
