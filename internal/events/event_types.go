package events

import (
	"time"

	"github.com/spec-kit/callcenter-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventRecordCreated     EventType = "record_created"
	EventRecordUpdated     EventType = "record_updated"
	EventRecordDeleted     EventType = "record_deleted"
	EventReminderScheduled EventType = "reminder_scheduled"
	EventReminderCancelled EventType = "reminder_cancelled"
	EventReminderFired     EventType = "reminder_fired"
)

// Actor identifies who triggered an event. System events (scheduler fires)
// carry no user id.
type Actor struct {
	UserID *string      `json:"user_id,omitempty"`
	Role   *domain.Role `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID        string      `json:"id"`
	Type      EventType   `json:"type"`
	RecordID  string      `json:"record_id"`
	Actor     Actor       `json:"actor"`
	Timestamp time.Time   `json:"timestamp"`
	Payload   interface{} `json:"payload"`
}

// RecordCreatedPayload payload.
type RecordCreatedPayload struct {
	OwnerID          string     `json:"owner_id"`
	SaleType         string     `json:"sale_type"`
	CallbackRequired bool       `json:"callback_required"`
	CallbackAt       *time.Time `json:"callback_at,omitempty"`
}

// RecordUpdatedPayload payload.
type RecordUpdatedPayload struct {
	OwnerID          string     `json:"owner_id"`
	CallbackRequired bool       `json:"callback_required"`
	CallbackAt       *time.Time `json:"callback_at,omitempty"`
}

// RecordDeletedPayload payload.
type RecordDeletedPayload struct {
	OwnerID string `json:"owner_id"`
}

// ReminderScheduledPayload payload.
type ReminderScheduledPayload struct {
	JobID string    `json:"job_id"`
	DueAt time.Time `json:"due_at"`
}

// ReminderFiredPayload payload.
type ReminderFiredPayload struct {
	JobID string    `json:"job_id"`
	DueAt time.Time `json:"due_at"`
	Late  bool      `json:"late"`
}
