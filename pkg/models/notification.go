package models

import "time"

// Category classifies a notification by the business entity it concerns.
type Category string

const (
	CategoryCase        Category = "case"
	CategoryHearing     Category = "hearing"
	CategoryAppointment Category = "appointment"
	CategoryTask        Category = "task"
	CategoryDocument    Category = "document"
	CategoryClient      Category = "client"
	CategoryNote        Category = "note"
	CategorySystem      Category = "system"
)

// Priority orders notifications for the preference engine's filter.
type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityNormal Priority = "normal"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

// Rank maps a priority to its ordinal. Unknown values rank as normal so a
// sloppy upstream priority field never suppresses a notification by accident.
func (p Priority) Rank() int {
	switch p {
	case PriorityLow:
		return 0
	case PriorityNormal:
		return 1
	case PriorityHigh:
		return 2
	case PriorityUrgent:
		return 3
	}
	return 1
}

// ParsePriority normalizes a free-form priority string, defaulting to normal.
func ParsePriority(s string) Priority {
	switch Priority(s) {
	case PriorityLow, PriorityNormal, PriorityHigh, PriorityUrgent:
		return Priority(s)
	}
	return PriorityNormal
}

type DeliveryStatus string

const (
	StatusDelivered DeliveryStatus = "delivered"
	StatusPending   DeliveryStatus = "pending"
)

// NotificationPayload is the constructed, not-yet-persisted content for one
// change event. It is recipient-independent; the preference engine combines
// it with each recipient's preferences to produce Notification rows.
// Suppress marks a deliberate no-op that must not notify anyone.
type NotificationPayload struct {
	Type        string                 `json:"type"`
	Subject     string                 `json:"subject"`
	Body        string                 `json:"body"`
	Category    Category               `json:"category"`
	Priority    Priority               `json:"priority"`
	ReferenceID string                 `json:"referenceId,omitempty"`
	ActionURL   string                 `json:"actionUrl,omitempty"`
	Metadata    map[string]interface{} `json:"metadata,omitempty"`
	Suppress    bool                   `json:"-"`
}

// Notification is the persisted per-recipient row.
type Notification struct {
	ID               string                 `json:"id"`
	RecipientID      string                 `json:"recipientId"`
	NotificationType string                 `json:"notificationType"`
	Title            string                 `json:"title"`
	Message          string                 `json:"message"`
	ReferenceID      string                 `json:"referenceId,omitempty"`
	Category         Category               `json:"category"`
	Priority         Priority               `json:"priority"`
	ActionURL        string                 `json:"actionUrl,omitempty"`
	Metadata         map[string]interface{} `json:"metadata,omitempty"`
	DeliveryChannels DeliveryChannels       `json:"deliveryChannels"`
	DeliveryStatus   DeliveryStatus         `json:"deliveryStatus"`
	Read             bool                   `json:"read"`
	SnoozedUntil     *time.Time             `json:"snoozedUntil,omitempty"`
	DigestBatchID    string                 `json:"digestBatchId,omitempty"`
	CreatedAt        time.Time              `json:"createdAt"`
}
