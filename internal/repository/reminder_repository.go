package repository

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/callcenter-service/internal/domain"
)

// ReminderJobRepository persists callback reminder jobs. The conditional
// UPDATEs on MarkFired and CancelPending are the compare-and-swap guarding
// the Pending→Fired and Pending→Cancelled transitions: only the caller that
// observes PENDING wins, so a concurrent fire and cancel collapse to one.
type ReminderJobRepository interface {
	Create(ctx context.Context, job *domain.ReminderJob) error
	GetByID(ctx context.Context, id string) (*domain.ReminderJob, error)
	ListPending(ctx context.Context) ([]domain.ReminderJob, error)
	// MarkFired transitions PENDING→FIRED; returns false when the job was
	// no longer pending (already fired or cancelled).
	MarkFired(ctx context.Context, id string) (bool, error)
	// CancelPending transitions any PENDING job for the record to CANCELLED;
	// a no-op (false) when none exists.
	CancelPending(ctx context.Context, recordID string) (bool, error)
}

type reminderJobRepository struct {
	pool *pgxpool.Pool
}

// NewReminderJobRepository instantiates the repository.
func NewReminderJobRepository(pool *pgxpool.Pool) ReminderJobRepository {
	return &reminderJobRepository{pool: pool}
}

func (r *reminderJobRepository) Create(ctx context.Context, job *domain.ReminderJob) error {
	const query = `
        INSERT INTO reminder_jobs (record_id, due_at, status)
        VALUES ($1, $2, $3)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		job.RecordID,
		job.DueAt,
		job.Status,
	).Scan(&job.ID, &job.CreatedAt)
}

func (r *reminderJobRepository) GetByID(ctx context.Context, id string) (*domain.ReminderJob, error) {
	const query = `
        SELECT id, record_id, due_at, status, created_at, fired_at, cancelled_at
        FROM reminder_jobs WHERE id=$1`
	var job domain.ReminderJob
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&job.ID,
		&job.RecordID,
		&job.DueAt,
		&job.Status,
		&job.CreatedAt,
		&job.FiredAt,
		&job.CancelledAt,
	); err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *reminderJobRepository) ListPending(ctx context.Context) ([]domain.ReminderJob, error) {
	const query = `
        SELECT id, record_id, due_at, status, created_at, fired_at, cancelled_at
        FROM reminder_jobs WHERE status=$1 ORDER BY due_at ASC`
	rows, err := r.pool.Query(ctx, query, domain.ReminderStatusPending)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanReminderJobs(rows)
}

func (r *reminderJobRepository) MarkFired(ctx context.Context, id string) (bool, error) {
	const query = `
        UPDATE reminder_jobs SET status=$1, fired_at=NOW()
        WHERE id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, domain.ReminderStatusFired, id, domain.ReminderStatusPending)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() == 1, nil
}

func (r *reminderJobRepository) CancelPending(ctx context.Context, recordID string) (bool, error) {
	const query = `
        UPDATE reminder_jobs SET status=$1, cancelled_at=NOW()
        WHERE record_id=$2 AND status=$3`
	cmd, err := r.pool.Exec(ctx, query, domain.ReminderStatusCancelled, recordID, domain.ReminderStatusPending)
	if err != nil {
		return false, err
	}
	return cmd.RowsAffected() > 0, nil
}

func scanReminderJobs(rows pgx.Rows) ([]domain.ReminderJob, error) {
	var result []domain.ReminderJob
	for rows.Next() {
		var job domain.ReminderJob
		if err := rows.Scan(
			&job.ID,
			&job.RecordID,
			&job.DueAt,
			&job.Status,
			&job.CreatedAt,
			&job.FiredAt,
			&job.CancelledAt,
		); err != nil {
			return nil, err
		}
		result = append(result, job)
	}
	return result, rows.Err()
}
