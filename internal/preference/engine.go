// Package preference decides, per recipient, whether and how a notification
// payload is delivered: dropped, delivered instantly, or parked as pending
// behind quiet hours or a digest batch.
package preference

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"docket/internal/logger"
	"docket/pkg/metrics"
	"docket/pkg/models"
)

// Decision is the engine's verdict for one recipient.
type Decision struct {
	Deliver       bool
	Reason        string
	Status        models.DeliveryStatus
	SnoozedUntil  *time.Time
	DigestBatchID string
	Channels      models.DeliveryChannels
}

const (
	ReasonGloballyDisabled = "globally_disabled"
	ReasonCategoryDisabled = "category_disabled"
	ReasonFrequencyOff     = "frequency_off"
	ReasonBelowPriority    = "below_priority_filter"
)

type Engine struct {
	repo   Repository
	logger logger.Logger

	// now is swapped in tests to pin the clock for quiet-hours checks.
	now func() time.Time
}

func NewEngine(repo Repository, log logger.Logger) *Engine {
	return &Engine{
		repo:   repo,
		logger: log,
		now:    time.Now,
	}
}

// Decide evaluates a payload against one user's preferences. It is total:
// a failed preference read falls back to defaults and the event proceeds.
// Checks run in a fixed order; the priority filter runs last and applies
// even to decisions that would otherwise park the notification as pending.
func (e *Engine) Decide(ctx context.Context, userID string, payload models.NotificationPayload) Decision {
	prefs := e.loadPreferences(ctx, userID)

	if !prefs.GlobalEnabled {
		return e.drop(ReasonGloballyDisabled)
	}

	catPref := prefs.CategoryPreference(payload.Category)
	if !catPref.Enabled {
		return e.drop(ReasonCategoryDisabled)
	}

	decision := Decision{
		Deliver:  true,
		Status:   models.StatusDelivered,
		Channels: prefs.DeliveryChannels,
	}
	now := e.now()

	if prefs.QuietHours.Enabled && inQuietHours(prefs.QuietHours, now) {
		until := quietHoursEnd(prefs.QuietHours, now)
		decision.Status = models.StatusPending
		decision.SnoozedUntil = &until
	}

	switch catPref.Frequency {
	case models.FrequencyOff:
		return e.drop(ReasonFrequencyOff)
	case models.FrequencyDigest:
		decision.Status = models.StatusPending
		decision.DigestBatchID = DigestBatchID(userID, now)
	}

	if catPref.PriorityFilter != models.FilterAll &&
		payload.Priority.Rank() < catPref.PriorityFilter.Threshold() {
		return e.drop(ReasonBelowPriority)
	}

	metrics.PreferenceDecisionsTotal.WithLabelValues(string(decision.Status)).Inc()
	return decision
}

func (e *Engine) drop(reason string) Decision {
	metrics.PreferenceDecisionsTotal.WithLabelValues(reason).Inc()
	return Decision{Deliver: false, Reason: reason}
}

func (e *Engine) loadPreferences(ctx context.Context, userID string) models.UserPreferences {
	prefs, err := e.repo.Get(ctx, userID)
	if errors.Is(err, ErrNotFound) {
		return models.DefaultPreferences(userID)
	}
	if err != nil {
		e.logger.WarnwCtx(ctx, "Preference read failed, using defaults",
			"user_id", userID, "error", err)
		return models.DefaultPreferences(userID)
	}
	return prefs
}

// DigestBatchID groups a user's digest notifications by calendar day.
func DigestBatchID(userID string, now time.Time) string {
	sum := md5.Sum([]byte(fmt.Sprintf("%s|%s", userID, now.Format("2006-01-02"))))
	return hex.EncodeToString(sum[:])
}

// inQuietHours reports whether now falls inside the window. A window whose
// start is at or after its end wraps past midnight, so 22:00-08:00 covers
// both 23:30 and 07:59 but not 09:00.
func inQuietHours(qh models.QuietHours, now time.Time) bool {
	start, okStart := minutesOfDay(qh.Start)
	end, okEnd := minutesOfDay(qh.End)
	if !okStart || !okEnd {
		return false
	}

	current := now.Hour()*60 + now.Minute()
	if start < end {
		return current >= start && current < end
	}
	return current >= start || current < end
}

// quietHoursEnd returns the next occurrence of the window's end time,
// rolling to tomorrow when today's end has already passed.
func quietHoursEnd(qh models.QuietHours, now time.Time) time.Time {
	end, ok := minutesOfDay(qh.End)
	if !ok {
		return now
	}

	candidate := time.Date(now.Year(), now.Month(), now.Day(), end/60, end%60, 0, 0, now.Location())
	if !candidate.After(now) {
		candidate = candidate.AddDate(0, 0, 1)
	}
	return candidate
}

func minutesOfDay(clock string) (int, bool) {
	var hours, mins int
	if _, err := fmt.Sscanf(clock, "%d:%d", &hours, &mins); err != nil {
		return 0, false
	}
	if hours < 0 || hours > 23 || mins < 0 || mins > 59 {
		return 0, false
	}
	return hours*60 + mins, true
}
