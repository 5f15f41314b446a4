package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/callcenter-service/internal/auth"
	"github.com/spec-kit/callcenter-service/internal/domain"
	"github.com/spec-kit/callcenter-service/internal/events"
	"github.com/spec-kit/callcenter-service/internal/masking"
	"github.com/spec-kit/callcenter-service/internal/repository"
	apperrors "github.com/spec-kit/callcenter-service/pkg/util"
)

// ReminderScheduler is the slice of the scheduler the record service drives.
type ReminderScheduler interface {
	Schedule(ctx context.Context, recordID string, dueAt time.Time) (*domain.ReminderJob, error)
	Cancel(ctx context.Context, recordID string) error
}

// RecordService coordinates call-record workflows. Every operation is routed
// through the access policy with the caller's resolved identity and the
// target record's current owner; mutations and their scheduler side effects
// serialize per record id.
type RecordService struct {
	records    repository.CallRecordRepository
	scheduler  ReminderScheduler
	dispatcher events.Dispatcher

	mu    sync.Mutex
	locks map[string]*recordLock
}

type recordLock struct {
	sync.Mutex
	refs int
}

// RecordDependencies bundles collaborators for the record service.
type RecordDependencies struct {
	RecordRepo repository.CallRecordRepository
	Scheduler  ReminderScheduler
	Dispatcher events.Dispatcher
}

// NewRecordService constructs the service.
func NewRecordService(deps RecordDependencies) *RecordService {
	return &RecordService{
		records:    deps.RecordRepo,
		scheduler:  deps.Scheduler,
		dispatcher: deps.Dispatcher,
		locks:      make(map[string]*recordLock),
	}
}

// RecordInput carries every writable call-record field. Booleans arrive
// already normalized at the transport boundary.
type RecordInput struct {
	FirstName        string
	LastName         string
	PrincipalPhone   string
	AlternativePhone *string
	Email            *string
	Address          *string
	SaleType         string
	SaleID1          *string
	SaleID2          *string
	SaleCompleted    bool
	CallbackRequired bool
	CallbackAt       *time.Time
	SaleDate         time.Time
	Notes            *string
}

// List returns the records visible to the caller: admins see every record,
// agents only their own. The ownership predicate is applied at query time,
// never as a per-row error. Phone fields are masked for non-admin viewers.
func (s *RecordService) List(ctx context.Context, caller *auth.Principal, filter repository.RecordFilter) ([]domain.CallRecord, error) {
	if caller.Role() != domain.RoleAdmin {
		ownerID := caller.ID()
		filter.OwnerID = &ownerID
	}

	records, err := s.records.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	for i := range records {
		s.redact(caller, &records[i])
	}
	return records, nil
}

// Get returns a single record, concealing existence from non-owners.
func (s *RecordService) Get(ctx context.Context, caller *auth.Principal, id string) (*domain.CallRecord, error) {
	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFoundOrForbidden("record")
		}
		return nil, err
	}

	isOwner := record.OwnerID == caller.ID()
	if auth.Decide(caller.Role(), isOwner, auth.OpReadRecord) != auth.Allow {
		return nil, apperrors.NewNotFoundOrForbidden("record")
	}

	s.redact(caller, record)
	return record, nil
}

// Create logs a new call record owned by the caller. OwnerID is always the
// authenticated identity, never taken from the request. A future callback
// time registers a reminder job as a side effect.
func (s *RecordService) Create(ctx context.Context, caller *auth.Principal, input RecordInput) (*domain.CallRecord, error) {
	if auth.Decide(caller.Role(), true, auth.OpCreateRecord) != auth.Allow {
		return nil, apperrors.NewForbidden("permission denied")
	}
	if err := validateRecordInput(input); err != nil {
		return nil, err
	}
	if input.CallbackRequired && input.CallbackAt != nil && !input.CallbackAt.After(time.Now()) {
		return nil, apperrors.NewInvalidSchedule("callback time must be in the future")
	}

	record := &domain.CallRecord{
		OwnerID:          caller.ID(),
		FirstName:        strings.TrimSpace(input.FirstName),
		LastName:         strings.TrimSpace(input.LastName),
		PrincipalPhone:   strings.TrimSpace(input.PrincipalPhone),
		AlternativePhone: input.AlternativePhone,
		Email:            input.Email,
		Address:          input.Address,
		SaleType:         input.SaleType,
		SaleID1:          input.SaleID1,
		SaleID2:          input.SaleID2,
		SaleCompleted:    input.SaleCompleted,
		CallbackRequired: input.CallbackRequired,
		CallbackAt:       input.CallbackAt,
		SaleDate:         input.SaleDate,
		Notes:            input.Notes,
	}

	if err := s.records.Create(ctx, record); err != nil {
		return nil, err
	}

	if record.NeedsCallback() {
		if _, err := s.scheduler.Schedule(ctx, record.ID, *record.CallbackAt); err != nil {
			// undo the insert so an error never leaves behind a record with
			// an armed flag and no job
			_ = s.records.Delete(ctx, record.ID)
			return nil, err
		}
	}

	s.publish(ctx, caller, events.Event{
		Type:     events.EventRecordCreated,
		RecordID: record.ID,
		Payload: events.RecordCreatedPayload{
			OwnerID:          record.OwnerID,
			SaleType:         record.SaleType,
			CallbackRequired: record.CallbackRequired,
			CallbackAt:       record.CallbackAt,
		},
	})

	out := *record
	s.redact(caller, &out)
	return &out, nil
}

// Update rewrites a record. Ownership is resolved from current state before
// the policy decision; records outside the caller's scope return the same
// not-found outcome as missing ones. All supplied fields apply atomically,
// except that a redacted caller's phone inputs are ignored and the stored
// values preserved. Callback changes reconcile the reminder job: a cleared
// flag cancels it, a changed time replaces it.
func (s *RecordService) Update(ctx context.Context, caller *auth.Principal, id string, input RecordInput) (*domain.CallRecord, error) {
	unlock := s.lockRecord(id)
	defer unlock()

	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFoundOrForbidden("record")
		}
		return nil, err
	}

	isOwner := record.OwnerID == caller.ID()
	if auth.Decide(caller.Role(), isOwner, auth.OpUpdateRecord) != auth.Allow {
		return nil, apperrors.NewNotFoundOrForbidden("record")
	}
	if err := validateRecordInput(input); err != nil {
		return nil, err
	}

	// The future-time rule applies only to a new or moved callback. A record
	// whose reminder already fired still carries its past callback time and
	// must stay editable.
	if input.CallbackRequired && input.CallbackAt != nil {
		unchanged := record.CallbackRequired && record.CallbackAt != nil && record.CallbackAt.Equal(*input.CallbackAt)
		if !unchanged && !input.CallbackAt.After(time.Now()) {
			return nil, apperrors.NewInvalidSchedule("callback time must be in the future")
		}
	}

	prevRequired := record.CallbackRequired
	prevAt := record.CallbackAt

	record.FirstName = strings.TrimSpace(input.FirstName)
	record.LastName = strings.TrimSpace(input.LastName)
	record.Email = input.Email
	record.Address = input.Address
	record.SaleType = input.SaleType
	record.SaleID1 = input.SaleID1
	record.SaleID2 = input.SaleID2
	record.SaleCompleted = input.SaleCompleted
	record.CallbackRequired = input.CallbackRequired
	record.CallbackAt = input.CallbackAt
	record.SaleDate = input.SaleDate
	record.Notes = input.Notes

	// Phone fields are write-locked for redacted callers: the stored raw
	// values survive whatever the client submitted.
	if auth.Decide(caller.Role(), isOwner, auth.OpUpdateRecordPhone) == auth.Allow {
		record.PrincipalPhone = strings.TrimSpace(input.PrincipalPhone)
		record.AlternativePhone = input.AlternativePhone
	}

	if err := s.records.Update(ctx, record); err != nil {
		if err == pgx.ErrNoRows {
			return nil, apperrors.NewNotFoundOrForbidden("record")
		}
		return nil, err
	}

	if err := s.reconcileReminder(ctx, record, prevRequired, prevAt); err != nil {
		return nil, err
	}

	s.publish(ctx, caller, events.Event{
		Type:     events.EventRecordUpdated,
		RecordID: record.ID,
		Payload: events.RecordUpdatedPayload{
			OwnerID:          record.OwnerID,
			CallbackRequired: record.CallbackRequired,
			CallbackAt:       record.CallbackAt,
		},
	})

	out := *record
	s.redact(caller, &out)
	return &out, nil
}

// Delete removes a record and cancels any pending reminder for it, inside
// the same per-record critical section so a concurrent fire cannot race the
// deletion.
func (s *RecordService) Delete(ctx context.Context, caller *auth.Principal, id string) error {
	unlock := s.lockRecord(id)
	defer unlock()

	record, err := s.records.GetByID(ctx, id)
	if err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFoundOrForbidden("record")
		}
		return err
	}

	isOwner := record.OwnerID == caller.ID()
	if auth.Decide(caller.Role(), isOwner, auth.OpDeleteRecord) != auth.Allow {
		return apperrors.NewNotFoundOrForbidden("record")
	}

	if err := s.scheduler.Cancel(ctx, id); err != nil {
		return err
	}

	if err := s.records.Delete(ctx, id); err != nil {
		if err == pgx.ErrNoRows {
			return apperrors.NewNotFoundOrForbidden("record")
		}
		return err
	}

	s.publish(ctx, caller, events.Event{
		Type:     events.EventRecordDeleted,
		RecordID: id,
		Payload:  events.RecordDeletedPayload{OwnerID: record.OwnerID},
	})
	return nil
}

// reconcileReminder maps the callback transition onto scheduler calls.
func (s *RecordService) reconcileReminder(ctx context.Context, record *domain.CallRecord, prevRequired bool, prevAt *time.Time) error {
	if record.NeedsCallback() {
		unchanged := prevRequired && prevAt != nil && prevAt.Equal(*record.CallbackAt)
		if unchanged {
			return nil
		}
		_, err := s.scheduler.Schedule(ctx, record.ID, *record.CallbackAt)
		return err
	}
	if prevRequired {
		return s.scheduler.Cancel(ctx, record.ID)
	}
	return nil
}

// redact masks the phone fields when the policy says the caller sees the
// record redacted.
func (s *RecordService) redact(caller *auth.Principal, record *domain.CallRecord) {
	isOwner := record.OwnerID == caller.ID()
	if auth.Decide(caller.Role(), isOwner, auth.OpUpdateRecordPhone) != auth.AllowRedacted {
		return
	}
	record.PrincipalPhone = masking.Phone(record.PrincipalPhone)
	record.AlternativePhone = masking.PhonePtr(record.AlternativePhone)
}

// lockRecord acquires the narrow critical section for one record id. The
// entry is reference-counted so the map does not grow with record count.
func (s *RecordService) lockRecord(id string) func() {
	s.mu.Lock()
	l, ok := s.locks[id]
	if !ok {
		l = &recordLock{}
		s.locks[id] = l
	}
	l.refs++
	s.mu.Unlock()

	l.Lock()
	return func() {
		l.Unlock()
		s.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(s.locks, id)
		}
		s.mu.Unlock()
	}
}

func (s *RecordService) publish(ctx context.Context, caller *auth.Principal, event events.Event) {
	if s.dispatcher == nil {
		return
	}
	id := caller.ID()
	role := caller.Role()
	event.Actor = events.Actor{UserID: &id, Role: &role}
	event.Timestamp = time.Now()
	_ = s.dispatcher.Publish(ctx, event)
}

func validateRecordInput(input RecordInput) error {
	missing := map[string]any{}
	if strings.TrimSpace(input.FirstName) == "" {
		missing["first_name"] = "required"
	}
	if strings.TrimSpace(input.LastName) == "" {
		missing["last_name"] = "required"
	}
	if strings.TrimSpace(input.PrincipalPhone) == "" {
		missing["principal_phone"] = "required"
	}
	if strings.TrimSpace(input.SaleType) == "" {
		missing["sale_type"] = "required"
	}
	if input.SaleDate.IsZero() {
		missing["sale_date"] = "required"
	}
	if len(missing) > 0 {
		return apperrors.NewValidationError("missing required fields", missing)
	}
	return nil
}
