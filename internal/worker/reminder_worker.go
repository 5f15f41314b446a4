package worker

import (
	"context"

	"github.com/spec-kit/callcenter-service/internal/scheduler"
	"github.com/spec-kit/callcenter-service/internal/service"
)

// StartReminderEngine wires the event subscribers and runs the scheduler's
// startup recovery. Recovery must complete before the HTTP surface accepts
// writes, so this is called synchronously from main.
func StartReminderEngine(ctx context.Context, sched *scheduler.Scheduler, notifications *service.NotificationService) error {
	if notifications != nil {
		notifications.RegisterHandlers()
	}
	if sched == nil {
		return nil
	}
	return sched.Recover(ctx)
}
