package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/spec-kit/callcenter-service/internal/events"
)

// NotificationService observes domain events for the audit trail. Actual
// reminder delivery happens in the scheduler through the notification sink;
// this subscriber records what happened.
type NotificationService struct {
	dispatcher events.Dispatcher
	logger     *zap.Logger
}

// NewNotificationService creates the service.
func NewNotificationService(dispatcher events.Dispatcher, logger *zap.Logger) *NotificationService {
	return &NotificationService{dispatcher: dispatcher, logger: logger}
}

// RegisterHandlers subscribes to events.
func (n *NotificationService) RegisterHandlers() {
	if n.dispatcher == nil {
		return
	}
	n.dispatcher.Subscribe(events.EventRecordCreated, n.handleRecordEvent)
	n.dispatcher.Subscribe(events.EventRecordUpdated, n.handleRecordEvent)
	n.dispatcher.Subscribe(events.EventRecordDeleted, n.handleRecordEvent)
	n.dispatcher.Subscribe(events.EventReminderScheduled, n.handleReminderEvent)
	n.dispatcher.Subscribe(events.EventReminderCancelled, n.handleReminderEvent)
	n.dispatcher.Subscribe(events.EventReminderFired, n.handleReminderEvent)
}

func (n *NotificationService) handleRecordEvent(_ context.Context, event events.Event) error {
	fields := []zap.Field{
		zap.String("record_id", event.RecordID),
		zap.Any("payload", event.Payload),
	}
	if event.Actor.UserID != nil {
		fields = append(fields, zap.String("actor", *event.Actor.UserID))
	}
	n.logger.Info(string(event.Type), fields...)
	return nil
}

func (n *NotificationService) handleReminderEvent(_ context.Context, event events.Event) error {
	n.logger.Info(string(event.Type),
		zap.String("record_id", event.RecordID),
		zap.Any("payload", event.Payload),
	)
	return nil
}
