package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/spec-kit/callcenter-service/internal/domain"
)

// RecordFilter captures listing parameters. OwnerID implements the agent
// visibility predicate: when set, rows owned by anyone else are excluded at
// query time rather than rejected per row.
type RecordFilter struct {
	OwnerID     *string
	SaleType    *string
	Completed   *bool
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	Limit       int
	Offset      int
}

// CallRecordRepository encapsulates call-record persistence.
type CallRecordRepository interface {
	Create(ctx context.Context, record *domain.CallRecord) error
	Update(ctx context.Context, record *domain.CallRecord) error
	Delete(ctx context.Context, id string) error
	GetByID(ctx context.Context, id string) (*domain.CallRecord, error)
	List(ctx context.Context, filter RecordFilter) ([]domain.CallRecord, error)
	CountByOwner(ctx context.Context, ownerID string) (int64, error)
}

type callRecordRepository struct {
	pool *pgxpool.Pool
}

// NewCallRecordRepository instantiates the repository.
func NewCallRecordRepository(pool *pgxpool.Pool) CallRecordRepository {
	return &callRecordRepository{pool: pool}
}

const recordColumns = `id, owner_id, first_name, last_name, principal_phone, alternative_phone,
               email, address, sale_type, sale_id_1, sale_id_2, sale_completed,
               callback_required, callback_at, sale_date, notes, created_at`

func (r *callRecordRepository) Create(ctx context.Context, record *domain.CallRecord) error {
	const query = `
        INSERT INTO call_records (
            owner_id, first_name, last_name, principal_phone, alternative_phone,
            email, address, sale_type, sale_id_1, sale_id_2, sale_completed,
            callback_required, callback_at, sale_date, notes
        ) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		record.OwnerID,
		record.FirstName,
		record.LastName,
		record.PrincipalPhone,
		record.AlternativePhone,
		record.Email,
		record.Address,
		record.SaleType,
		record.SaleID1,
		record.SaleID2,
		record.SaleCompleted,
		record.CallbackRequired,
		record.CallbackAt,
		record.SaleDate,
		record.Notes,
	).Scan(&record.ID, &record.CreatedAt)
}

func (r *callRecordRepository) Update(ctx context.Context, record *domain.CallRecord) error {
	const query = `
        UPDATE call_records SET
            first_name=$1, last_name=$2, principal_phone=$3, alternative_phone=$4,
            email=$5, address=$6, sale_type=$7, sale_id_1=$8, sale_id_2=$9,
            sale_completed=$10, callback_required=$11, callback_at=$12,
            sale_date=$13, notes=$14
        WHERE id=$15`
	cmd, err := r.pool.Exec(ctx, query,
		record.FirstName,
		record.LastName,
		record.PrincipalPhone,
		record.AlternativePhone,
		record.Email,
		record.Address,
		record.SaleType,
		record.SaleID1,
		record.SaleID2,
		record.SaleCompleted,
		record.CallbackRequired,
		record.CallbackAt,
		record.SaleDate,
		record.Notes,
		record.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *callRecordRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM call_records WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *callRecordRepository) GetByID(ctx context.Context, id string) (*domain.CallRecord, error) {
	query := fmt.Sprintf(`SELECT %s FROM call_records WHERE id=$1`, recordColumns)
	var record domain.CallRecord
	if err := r.pool.QueryRow(ctx, query, id).Scan(scanTargets(&record)...); err != nil {
		return nil, err
	}
	return &record, nil
}

func (r *callRecordRepository) List(ctx context.Context, filter RecordFilter) ([]domain.CallRecord, error) {
	clauses := []string{"1=1"}
	args := []any{}

	if filter.OwnerID != nil {
		args = append(args, *filter.OwnerID)
		clauses = append(clauses, fmt.Sprintf("owner_id=$%d", len(args)))
	}
	if filter.SaleType != nil {
		args = append(args, *filter.SaleType)
		clauses = append(clauses, fmt.Sprintf("sale_type=$%d", len(args)))
	}
	if filter.Completed != nil {
		args = append(args, *filter.Completed)
		clauses = append(clauses, fmt.Sprintf("sale_completed=$%d", len(args)))
	}
	if filter.CreatedFrom != nil {
		args = append(args, *filter.CreatedFrom)
		clauses = append(clauses, fmt.Sprintf("created_at >= $%d", len(args)))
	}
	if filter.CreatedTo != nil {
		args = append(args, *filter.CreatedTo)
		clauses = append(clauses, fmt.Sprintf("created_at <= $%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`SELECT %s FROM call_records WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		recordColumns, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *callRecordRepository) CountByOwner(ctx context.Context, ownerID string) (int64, error) {
	var count int64
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM call_records WHERE owner_id=$1`, ownerID).Scan(&count)
	return count, err
}

func scanTargets(record *domain.CallRecord) []any {
	return []any{
		&record.ID,
		&record.OwnerID,
		&record.FirstName,
		&record.LastName,
		&record.PrincipalPhone,
		&record.AlternativePhone,
		&record.Email,
		&record.Address,
		&record.SaleType,
		&record.SaleID1,
		&record.SaleID2,
		&record.SaleCompleted,
		&record.CallbackRequired,
		&record.CallbackAt,
		&record.SaleDate,
		&record.Notes,
		&record.CreatedAt,
	}
}

func scanRecords(rows pgx.Rows) ([]domain.CallRecord, error) {
	var result []domain.CallRecord
	for rows.Next() {
		var record domain.CallRecord
		if err := rows.Scan(scanTargets(&record)...); err != nil {
			return nil, err
		}
		result = append(result, record)
	}
	return result, rows.Err()
}
