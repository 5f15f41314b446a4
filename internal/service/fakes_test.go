package service

import (
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/spec-kit/callcenter-service/internal/auth"
	"github.com/spec-kit/callcenter-service/internal/domain"
	"github.com/spec-kit/callcenter-service/internal/repository"
)

func agentPrincipal(id string) *auth.Principal {
	return &auth.Principal{User: &domain.User{ID: id, Username: "agent-" + id, Role: domain.RoleAgent}}
}

func adminPrincipal(id string) *auth.Principal {
	return &auth.Principal{User: &domain.User{ID: id, Username: "admin-" + id, Role: domain.RoleAdmin}}
}

type memUserRepo struct {
	mu    sync.Mutex
	users map[string]*domain.User
	seq   int
}

func newMemUserRepo() *memUserRepo {
	return &memUserRepo{users: make(map[string]*domain.User)}
}

func (r *memUserRepo) Create(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	user.ID = "user-" + strconv.Itoa(r.seq)
	user.CreatedAt = time.Now()
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *memUserRepo) Update(_ context.Context, user *domain.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[user.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *user
	r.users[user.ID] = &stored
	return nil
}

func (r *memUserRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.users[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.users, id)
	return nil
}

func (r *memUserRepo) GetByID(_ context.Context, id string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	user, ok := r.users[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *user
	return &copied, nil
}

func (r *memUserRepo) GetByUsername(_ context.Context, username string) (*domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, user := range r.users {
		if user.Username == username {
			copied := *user
			return &copied, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (r *memUserRepo) List(_ context.Context) ([]domain.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.User
	for _, user := range r.users {
		result = append(result, *user)
	}
	return result, nil
}

type memRecordRepo struct {
	mu      sync.Mutex
	records map[string]*domain.CallRecord
	seq     int
}

func newMemRecordRepo() *memRecordRepo {
	return &memRecordRepo{records: make(map[string]*domain.CallRecord)}
}

func (r *memRecordRepo) Create(_ context.Context, record *domain.CallRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	record.ID = "rec-" + strconv.Itoa(r.seq)
	record.CreatedAt = time.Now()
	stored := *record
	r.records[record.ID] = &stored
	return nil
}

func (r *memRecordRepo) Update(_ context.Context, record *domain.CallRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[record.ID]; !ok {
		return pgx.ErrNoRows
	}
	stored := *record
	r.records[record.ID] = &stored
	return nil
}

func (r *memRecordRepo) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.records[id]; !ok {
		return pgx.ErrNoRows
	}
	delete(r.records, id)
	return nil
}

func (r *memRecordRepo) GetByID(_ context.Context, id string) (*domain.CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	copied := *record
	return &copied, nil
}

func (r *memRecordRepo) List(_ context.Context, filter repository.RecordFilter) ([]domain.CallRecord, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var result []domain.CallRecord
	for _, record := range r.records {
		if filter.OwnerID != nil && record.OwnerID != *filter.OwnerID {
			continue
		}
		result = append(result, *record)
	}
	return result, nil
}

func (r *memRecordRepo) CountByOwner(_ context.Context, ownerID string) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, record := range r.records {
		if record.OwnerID == ownerID {
			count++
		}
	}
	return count, nil
}

func (r *memRecordRepo) stored(id string) *domain.CallRecord {
	r.mu.Lock()
	defer r.mu.Unlock()
	record, ok := r.records[id]
	if !ok {
		return nil
	}
	copied := *record
	return &copied
}

// fakeScheduler records Schedule and Cancel calls.
type fakeScheduler struct {
	mu          sync.Mutex
	scheduled   map[string]time.Time
	cancelled   []string
	scheduleErr error
}

func newFakeScheduler() *fakeScheduler {
	return &fakeScheduler{scheduled: make(map[string]time.Time)}
}

func (s *fakeScheduler) Schedule(_ context.Context, recordID string, dueAt time.Time) (*domain.ReminderJob, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.scheduleErr != nil {
		return nil, s.scheduleErr
	}
	s.scheduled[recordID] = dueAt
	return &domain.ReminderJob{
		ID:       "job-" + recordID,
		RecordID: recordID,
		DueAt:    dueAt,
		Status:   domain.ReminderStatusPending,
	}, nil
}

func (s *fakeScheduler) Cancel(_ context.Context, recordID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = append(s.cancelled, recordID)
	return nil
}

func (s *fakeScheduler) scheduledFor(recordID string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dueAt, ok := s.scheduled[recordID]
	return dueAt, ok
}

func (s *fakeScheduler) cancelledFor(recordID string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range s.cancelled {
		if id == recordID {
			return true
		}
	}
	return false
}

// fakeAttempts counts login attempts in memory.
type fakeAttempts struct {
	mu     sync.Mutex
	counts map[string]int
}

func newFakeAttempts() *fakeAttempts {
	return &fakeAttempts{counts: make(map[string]int)}
}

func (r *fakeAttempts) Allow(_ context.Context, key string, maxAttempts int, _ time.Duration) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.counts[key]++
	return r.counts[key] <= maxAttempts, nil
}

func (r *fakeAttempts) Reset(_ context.Context, key string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.counts, key)
	return nil
}
