package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/callcenter-service/internal/domain"
	"github.com/spec-kit/callcenter-service/internal/repository"
	apperrors "github.com/spec-kit/callcenter-service/pkg/util"
)

func newRecordService() (*RecordService, *memRecordRepo, *fakeScheduler) {
	records := newMemRecordRepo()
	sched := newFakeScheduler()
	svc := NewRecordService(RecordDependencies{
		RecordRepo: records,
		Scheduler:  sched,
	})
	return svc, records, sched
}

func validInput() RecordInput {
	return RecordInput{
		FirstName:      "Ana",
		LastName:       "Gomez",
		PrincipalPhone: "301-555-1234",
		SaleType:       "internet",
		SaleDate:       time.Now().Truncate(24 * time.Hour),
	}
}

func requireDomainCode(t *testing.T, err error, code string) {
	t.Helper()
	require.Error(t, err)
	domainErr := apperrors.ToDomainError(err)
	assert.Equal(t, code, domainErr.Code)
}

func TestCreateForcesOwnership(t *testing.T) {
	svc, records, _ := newRecordService()

	record, err := svc.Create(context.Background(), agentPrincipal("a1"), validInput())
	require.NoError(t, err)
	assert.Equal(t, "a1", record.OwnerID)
	assert.Equal(t, "a1", records.stored(record.ID).OwnerID)
}

func TestCreateRequiresMandatoryFields(t *testing.T) {
	svc, _, _ := newRecordService()

	input := validInput()
	input.FirstName = ""
	input.PrincipalPhone = "  "
	_, err := svc.Create(context.Background(), agentPrincipal("a1"), input)
	requireDomainCode(t, err, "VALIDATION_FAILED")
}

func TestCreateWithFutureCallbackSchedulesJob(t *testing.T) {
	svc, _, sched := newRecordService()

	dueAt := time.Now().Add(time.Hour)
	input := validInput()
	input.CallbackRequired = true
	input.CallbackAt = &dueAt

	record, err := svc.Create(context.Background(), agentPrincipal("a1"), input)
	require.NoError(t, err)

	got, ok := sched.scheduledFor(record.ID)
	require.True(t, ok, "expected reminder to be scheduled")
	assert.True(t, got.Equal(dueAt))
}

func TestCreateWithPastCallbackFails(t *testing.T) {
	svc, _, sched := newRecordService()

	dueAt := time.Now().Add(-time.Minute)
	input := validInput()
	input.CallbackRequired = true
	input.CallbackAt = &dueAt

	_, err := svc.Create(context.Background(), agentPrincipal("a1"), input)
	requireDomainCode(t, err, "INVALID_SCHEDULE")
	assert.Empty(t, sched.scheduled)
}

func TestCreateRollsBackWhenSchedulingFails(t *testing.T) {
	svc, records, sched := newRecordService()
	sched.scheduleErr = assert.AnError

	dueAt := time.Now().Add(time.Hour)
	input := validInput()
	input.CallbackRequired = true
	input.CallbackAt = &dueAt

	_, err := svc.Create(context.Background(), agentPrincipal("a1"), input)
	require.Error(t, err)

	all, err := records.List(context.Background(), repository.RecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, all, "record must not survive a failed schedule")
}

func TestListScopesAgentsToOwnRecords(t *testing.T) {
	svc, _, _ := newRecordService()
	ctx := context.Background()

	_, err := svc.Create(ctx, agentPrincipal("a1"), validInput())
	require.NoError(t, err)
	_, err = svc.Create(ctx, agentPrincipal("a2"), validInput())
	require.NoError(t, err)

	mine, err := svc.List(ctx, agentPrincipal("a1"), repository.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "a1", mine[0].OwnerID)

	all, err := svc.List(ctx, adminPrincipal("boss"), repository.RecordFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 2)
}

func TestListMasksPhonesForAgentsOnly(t *testing.T) {
	svc, _, _ := newRecordService()
	ctx := context.Background()

	_, err := svc.Create(ctx, agentPrincipal("a1"), validInput())
	require.NoError(t, err)

	mine, err := svc.List(ctx, agentPrincipal("a1"), repository.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "xxx-xxx-1234", mine[0].PrincipalPhone)

	all, err := svc.List(ctx, adminPrincipal("boss"), repository.RecordFilter{})
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, "301-555-1234", all[0].PrincipalPhone)
}

func TestGetConcealsForeignRecords(t *testing.T) {
	svc, _, _ := newRecordService()
	ctx := context.Background()

	record, err := svc.Create(ctx, agentPrincipal("a1"), validInput())
	require.NoError(t, err)

	_, err = svc.Get(ctx, agentPrincipal("a2"), record.ID)
	requireDomainCode(t, err, "NOT_FOUND")

	// same outcome as a record that does not exist
	_, err = svc.Get(ctx, agentPrincipal("a2"), "rec-missing")
	requireDomainCode(t, err, "NOT_FOUND")

	got, err := svc.Get(ctx, adminPrincipal("boss"), record.ID)
	require.NoError(t, err)
	assert.Equal(t, "301-555-1234", got.PrincipalPhone)
}

func TestUpdatePreservesPhoneFieldsForOwningAgent(t *testing.T) {
	svc, records, _ := newRecordService()
	ctx := context.Background()

	record, err := svc.Create(ctx, agentPrincipal("a1"), validInput())
	require.NoError(t, err)

	input := validInput()
	input.PrincipalPhone = "999-999-9999"
	input.Notes = ptr("called back twice")

	updated, err := svc.Update(ctx, agentPrincipal("a1"), record.ID, input)
	require.NoError(t, err)

	// non-phone fields applied, phone untouched in storage
	stored := records.stored(record.ID)
	assert.Equal(t, "301-555-1234", stored.PrincipalPhone)
	assert.Equal(t, "called back twice", *stored.Notes)

	// response is masked for the redacted caller
	assert.Equal(t, "xxx-xxx-1234", updated.PrincipalPhone)
}

func TestUpdateAppliesPhoneFieldsForAdmin(t *testing.T) {
	svc, records, _ := newRecordService()
	ctx := context.Background()

	record, err := svc.Create(ctx, agentPrincipal("a1"), validInput())
	require.NoError(t, err)

	input := validInput()
	input.PrincipalPhone = "999-999-9999"
	_, err = svc.Update(ctx, adminPrincipal("boss"), record.ID, input)
	require.NoError(t, err)

	assert.Equal(t, "999-999-9999", records.stored(record.ID).PrincipalPhone)
}

func TestUpdateConcealsForeignRecords(t *testing.T) {
	svc, records, _ := newRecordService()
	ctx := context.Background()

	record, err := svc.Create(ctx, agentPrincipal("a1"), validInput())
	require.NoError(t, err)

	_, err = svc.Update(ctx, agentPrincipal("a2"), record.ID, validInput())
	requireDomainCode(t, err, "NOT_FOUND")
	assert.Equal(t, "a1", records.stored(record.ID).OwnerID)
}

func TestUpdateRegistersCallbackJob(t *testing.T) {
	svc, _, sched := newRecordService()
	ctx := context.Background()

	record, err := svc.Create(ctx, agentPrincipal("a1"), validInput())
	require.NoError(t, err)

	dueAt := time.Now().Add(time.Hour)
	input := validInput()
	input.CallbackRequired = true
	input.CallbackAt = &dueAt

	_, err = svc.Update(ctx, agentPrincipal("a1"), record.ID, input)
	require.NoError(t, err)

	got, ok := sched.scheduledFor(record.ID)
	require.True(t, ok)
	assert.True(t, got.Equal(dueAt))
}

func TestUpdateClearingCallbackCancelsJob(t *testing.T) {
	svc, _, sched := newRecordService()
	ctx := context.Background()

	dueAt := time.Now().Add(time.Hour)
	input := validInput()
	input.CallbackRequired = true
	input.CallbackAt = &dueAt
	record, err := svc.Create(ctx, agentPrincipal("a1"), input)
	require.NoError(t, err)

	_, err = svc.Update(ctx, agentPrincipal("a1"), record.ID, validInput())
	require.NoError(t, err)
	assert.True(t, sched.cancelledFor(record.ID))
}

func TestUpdateWithUnchangedCallbackKeepsJob(t *testing.T) {
	svc, _, sched := newRecordService()
	ctx := context.Background()

	dueAt := time.Now().Add(time.Hour)
	input := validInput()
	input.CallbackRequired = true
	input.CallbackAt = &dueAt
	record, err := svc.Create(ctx, agentPrincipal("a1"), input)
	require.NoError(t, err)

	input.Notes = ptr("still interested")
	_, err = svc.Update(ctx, agentPrincipal("a1"), record.ID, input)
	require.NoError(t, err)

	assert.False(t, sched.cancelledFor(record.ID))
}

func TestUpdateAfterCallbackElapsedKeepsRecordEditable(t *testing.T) {
	svc, records, sched := newRecordService()
	ctx := context.Background()

	// a record whose reminder already fired: the callback flag and past time
	// are still stored
	elapsed := time.Now().Add(-time.Hour)
	seed := &domain.CallRecord{
		OwnerID:          "a1",
		FirstName:        "Ana",
		LastName:         "Gomez",
		PrincipalPhone:   "301-555-1234",
		SaleType:         "internet",
		SaleDate:         time.Now().Truncate(24 * time.Hour),
		CallbackRequired: true,
		CallbackAt:       &elapsed,
	}
	require.NoError(t, records.Create(ctx, seed))

	input := validInput()
	input.CallbackRequired = true
	input.CallbackAt = &elapsed
	input.SaleCompleted = true
	input.Notes = ptr("sale closed on the callback")

	updated, err := svc.Update(ctx, agentPrincipal("a1"), seed.ID, input)
	require.NoError(t, err)
	assert.True(t, updated.SaleCompleted)
	assert.Equal(t, "sale closed on the callback", *records.stored(seed.ID).Notes)

	// the elapsed callback is neither rescheduled nor cancelled
	_, scheduled := sched.scheduledFor(seed.ID)
	assert.False(t, scheduled)
	assert.False(t, sched.cancelledFor(seed.ID))
}

func TestUpdateMovingCallbackToPastFails(t *testing.T) {
	svc, _, _ := newRecordService()
	ctx := context.Background()

	dueAt := time.Now().Add(time.Hour)
	input := validInput()
	input.CallbackRequired = true
	input.CallbackAt = &dueAt
	record, err := svc.Create(ctx, agentPrincipal("a1"), input)
	require.NoError(t, err)

	moved := time.Now().Add(-time.Minute)
	input.CallbackAt = &moved
	_, err = svc.Update(ctx, agentPrincipal("a1"), record.ID, input)
	requireDomainCode(t, err, "INVALID_SCHEDULE")
}

func TestDeleteCancelsPendingReminder(t *testing.T) {
	svc, records, sched := newRecordService()
	ctx := context.Background()

	dueAt := time.Now().Add(time.Hour)
	input := validInput()
	input.CallbackRequired = true
	input.CallbackAt = &dueAt
	record, err := svc.Create(ctx, agentPrincipal("a1"), input)
	require.NoError(t, err)

	require.NoError(t, svc.Delete(ctx, agentPrincipal("a1"), record.ID))
	assert.True(t, sched.cancelledFor(record.ID))
	assert.Nil(t, records.stored(record.ID))
}

func TestDeleteConcealsForeignRecords(t *testing.T) {
	svc, records, sched := newRecordService()
	ctx := context.Background()

	record, err := svc.Create(ctx, agentPrincipal("a1"), validInput())
	require.NoError(t, err)

	err = svc.Delete(ctx, agentPrincipal("a2"), record.ID)
	requireDomainCode(t, err, "NOT_FOUND")
	assert.NotNil(t, records.stored(record.ID))
	assert.False(t, sched.cancelledFor(record.ID))
}

func ptr(s string) *string {
	return &s
}
