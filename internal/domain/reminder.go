package domain

import "time"

// ReminderStatus enumerates the lifecycle of a callback reminder job.
// PENDING is the only non-terminal state.
type ReminderStatus string

const (
	ReminderStatusPending   ReminderStatus = "PENDING"
	ReminderStatusFired     ReminderStatus = "FIRED"
	ReminderStatusCancelled ReminderStatus = "CANCELLED"
)

// ReminderJob is the durable unit of work behind a scheduled callback
// notification. At most one PENDING job exists per record.
type ReminderJob struct {
	ID          string
	RecordID    string
	DueAt       time.Time
	Status      ReminderStatus
	CreatedAt   time.Time
	FiredAt     *time.Time
	CancelledAt *time.Time
}

// Overdue reports whether the job's due time has already passed.
func (j *ReminderJob) Overdue(now time.Time) bool {
	return !j.DueAt.After(now)
}
