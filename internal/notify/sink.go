// Package notify delivers callback reminders to an external sink. The sink
// is a collaborator the scheduler depends on but does not own.
package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/spec-kit/callcenter-service/internal/config"
	"github.com/spec-kit/callcenter-service/internal/domain"
)

// Reminder is what a sink receives when a job fires.
type Reminder struct {
	JobID     string    `json:"job_id"`
	RecordID  string    `json:"record_id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	DueAt     time.Time `json:"due_at"`
	Note      string    `json:"note,omitempty"`
}

// Sink receives fired callback reminders. Delivery is best-effort: the
// scheduler logs a failure and moves on rather than retrying a stale
// reminder.
type Sink interface {
	Deliver(ctx context.Context, reminder Reminder) error
}

// ReminderFor builds the sink payload from a job and its record.
func ReminderFor(job *domain.ReminderJob, record *domain.CallRecord) Reminder {
	r := Reminder{
		JobID:    job.ID,
		RecordID: job.RecordID,
		DueAt:    job.DueAt,
	}
	if record != nil {
		r.FirstName = record.FirstName
		r.LastName = record.LastName
		if record.Notes != nil {
			r.Note = *record.Notes
		}
	}
	return r
}

// LogSink writes reminders to the structured log. Used when no webhook is
// configured.
type LogSink struct {
	logger *zap.Logger
}

// NewLogSink constructs a LogSink.
func NewLogSink(logger *zap.Logger) *LogSink {
	return &LogSink{logger: logger}
}

// Deliver logs the reminder.
func (s *LogSink) Deliver(_ context.Context, reminder Reminder) error {
	s.logger.Info("callback reminder",
		zap.String("job_id", reminder.JobID),
		zap.String("record_id", reminder.RecordID),
		zap.String("customer", reminder.FirstName+" "+reminder.LastName),
		zap.Time("due_at", reminder.DueAt),
	)
	return nil
}

// WebhookSink POSTs reminders as JSON to a configured URL.
type WebhookSink struct {
	url    string
	client *http.Client
}

// NewWebhookSink constructs a WebhookSink.
func NewWebhookSink(url string) *WebhookSink {
	return &WebhookSink{
		url:    url,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

// Deliver posts the reminder payload.
func (s *WebhookSink) Deliver(ctx context.Context, reminder Reminder) error {
	body, err := json.Marshal(reminder)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("webhook returned status %d", resp.StatusCode)
	}
	return nil
}

// FromConfig picks the webhook sink when configured, the log sink otherwise.
func FromConfig(cfg config.NotificationConfig, logger *zap.Logger) Sink {
	if cfg.WebhookURL != "" {
		return NewWebhookSink(cfg.WebhookURL)
	}
	return NewLogSink(logger)
}
