// Package scheduler implements the durable callback-reminder engine. Jobs
// are persisted before they are armed, so a reminder registered before a
// process restart is still delivered after recovery, possibly late but never
// lost.
package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/spec-kit/callcenter-service/internal/domain"
	"github.com/spec-kit/callcenter-service/internal/events"
	"github.com/spec-kit/callcenter-service/internal/notify"
	"github.com/spec-kit/callcenter-service/internal/repository"
	apperrors "github.com/spec-kit/callcenter-service/pkg/util"
)

// Scheduler owns the in-process waiters for pending reminder jobs and drives
// the Pending→Fired/Cancelled transitions through the repository. Single-node:
// it assumes it is the only process firing jobs from this store.
type Scheduler struct {
	jobs       repository.ReminderJobRepository
	records    repository.CallRecordRepository
	sink       notify.Sink
	dispatcher events.Dispatcher
	logger     *zap.Logger

	mu      sync.Mutex
	waiters map[string]*waiter

	baseCtx context.Context
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// One suspended wait per pending job. Closing stop releases the goroutine
// without firing.
type waiter struct {
	jobID string
	stop  chan struct{}
}

// Dependencies bundles collaborators for the scheduler.
type Dependencies struct {
	JobRepo    repository.ReminderJobRepository
	RecordRepo repository.CallRecordRepository
	Sink       notify.Sink
	Dispatcher events.Dispatcher
	Logger     *zap.Logger
}

// New constructs a stopped scheduler. Recover must be called before any
// Schedule or Cancel.
func New(deps Dependencies) *Scheduler {
	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		jobs:       deps.JobRepo,
		records:    deps.RecordRepo,
		sink:       deps.Sink,
		dispatcher: deps.Dispatcher,
		logger:     deps.Logger,
		waiters:    make(map[string]*waiter),
		baseCtx:    ctx,
		cancel:     cancel,
	}
}

// Recover reconciles persisted PENDING jobs against wall-clock time: overdue
// jobs fire immediately (at-least-once, never dropped), future ones re-arm.
// A job that cannot be processed is logged and skipped so a single bad row
// never blocks startup.
func (s *Scheduler) Recover(ctx context.Context) error {
	pending, err := s.jobs.ListPending(ctx)
	if err != nil {
		return err
	}

	now := time.Now()
	rearmed, fired := 0, 0
	for i := range pending {
		job := pending[i]
		if job.Overdue(now) {
			s.fire(&job)
			fired++
			continue
		}
		s.arm(&job)
		rearmed++
	}

	s.logger.Info("scheduler recovered",
		zap.Int("rearmed", rearmed),
		zap.Int("fired_overdue", fired),
	)
	return nil
}

// Schedule registers a reminder for the record. The due time must be
// strictly in the future; a prior pending job for the same record is
// cancelled and replaced. The job is persisted before the wait is armed.
func (s *Scheduler) Schedule(ctx context.Context, recordID string, dueAt time.Time) (*domain.ReminderJob, error) {
	if !dueAt.After(time.Now()) {
		return nil, apperrors.NewInvalidSchedule("callback time must be in the future")
	}

	if _, err := s.jobs.CancelPending(ctx, recordID); err != nil {
		return nil, err
	}
	s.stopWaiter(recordID)

	job := &domain.ReminderJob{
		RecordID: recordID,
		DueAt:    dueAt,
		Status:   domain.ReminderStatusPending,
	}
	if err := s.jobs.Create(ctx, job); err != nil {
		return nil, err
	}

	s.arm(job)
	s.publish(events.Event{
		Type:     events.EventReminderScheduled,
		RecordID: recordID,
		Payload:  events.ReminderScheduledPayload{JobID: job.ID, DueAt: dueAt},
	})
	return job, nil
}

// Cancel transitions any pending job for the record to CANCELLED and
// releases its waiter. Idempotent: cancelling when nothing is pending is a
// no-op.
func (s *Scheduler) Cancel(ctx context.Context, recordID string) error {
	cancelled, err := s.jobs.CancelPending(ctx, recordID)
	if err != nil {
		return err
	}
	s.stopWaiter(recordID)

	if cancelled {
		s.publish(events.Event{
			Type:     events.EventReminderCancelled,
			RecordID: recordID,
		})
	}
	return nil
}

// Shutdown stops all waiters and blocks until their goroutines exit. Pending
// jobs stay PENDING in storage and are picked up by the next Recover.
func (s *Scheduler) Shutdown() {
	s.cancel()
	s.wg.Wait()
}

// arm starts the suspended wait for a pending job.
func (s *Scheduler) arm(job *domain.ReminderJob) {
	w := &waiter{jobID: job.ID, stop: make(chan struct{})}

	s.mu.Lock()
	if old, ok := s.waiters[job.RecordID]; ok {
		close(old.stop)
	}
	s.waiters[job.RecordID] = w
	s.mu.Unlock()

	armed := *job
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		timer := time.NewTimer(time.Until(armed.DueAt))
		defer timer.Stop()

		select {
		case <-timer.C:
			s.fire(&armed)
		case <-w.stop:
		case <-s.baseCtx.Done():
		}
	}()
}

// fire attempts the Pending→Fired transition and, on winning it, delivers
// exactly one notification. Losing the compare-and-swap means a concurrent
// cancel or fire got there first; nothing is delivered. Sink failures are
// logged and the job stays FIRED: retrying a stale reminder is not useful.
func (s *Scheduler) fire(job *domain.ReminderJob) {
	won, err := s.jobs.MarkFired(s.baseCtx, job.ID)
	if err != nil {
		s.logger.Error("reminder fire transition failed",
			zap.String("job_id", job.ID),
			zap.Error(err),
		)
		return
	}
	if !won {
		return
	}

	s.mu.Lock()
	if w, ok := s.waiters[job.RecordID]; ok && w.jobID == job.ID {
		delete(s.waiters, job.RecordID)
	}
	s.mu.Unlock()

	record, err := s.records.GetByID(s.baseCtx, job.RecordID)
	if err != nil && err != pgx.ErrNoRows {
		s.logger.Warn("reminder record lookup failed",
			zap.String("record_id", job.RecordID),
			zap.Error(err),
		)
	}

	if err := s.sink.Deliver(s.baseCtx, notify.ReminderFor(job, record)); err != nil {
		s.logger.Error("reminder delivery failed",
			zap.String("job_id", job.ID),
			zap.String("record_id", job.RecordID),
			zap.Error(err),
		)
	}

	s.publish(events.Event{
		Type:     events.EventReminderFired,
		RecordID: job.RecordID,
		Payload: events.ReminderFiredPayload{
			JobID: job.ID,
			DueAt: job.DueAt,
			Late:  time.Now().After(job.DueAt.Add(time.Second)),
		},
	})
}

func (s *Scheduler) stopWaiter(recordID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if w, ok := s.waiters[recordID]; ok {
		close(w.stop)
		delete(s.waiters, recordID)
	}
}

func (s *Scheduler) publish(event events.Event) {
	if s.dispatcher == nil {
		return
	}
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(s.baseCtx, event)
}
