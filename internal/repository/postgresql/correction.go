package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/correction"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const correctionColumns = `
	id, employee_id, company_id, attendance_id, correction_type, date, end_date,
	requested_time, reason, evidence_url, status,
	reviewed_by, reviewed_at, review_reason, created_at, updated_at`

// correctionActiveKey is the partial unique index over PENDING and APPROVED requests.
const correctionActiveKey = "correction_requests_active_idx"

type correctionRepository struct {
	db *database.DB
}

func NewCorrectionRepository(db *database.DB) correction.Repository {
	return &correctionRepository{db: db}
}

func scanCorrection(row pgx.Row) (correction.Request, error) {
	var c correction.Request
	err := row.Scan(
		&c.ID, &c.EmployeeID, &c.CompanyID, &c.AttendanceID, &c.Type, &c.Date, &c.EndDate,
		&c.RequestedTime, &c.Reason, &c.EvidenceURL, &c.Status,
		&c.ReviewedBy, &c.ReviewedAt, &c.ReviewReason, &c.CreatedAt, &c.UpdatedAt,
	)
	return c, err
}

// Create implements correction.Repository.
func (r *correctionRepository) Create(ctx context.Context, req correction.Request) (correction.Request, error) {
	q := GetQuerier(ctx, r.db)
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	req.Date = utils.Normalize(req.Date)

	query := `
		INSERT INTO correction_requests (
			id, employee_id, company_id, attendance_id, correction_type, date, end_date,
			requested_time, reason, evidence_url, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		req.ID, req.EmployeeID, req.CompanyID, req.AttendanceID, req.Type, req.Date, req.EndDate,
		req.RequestedTime, req.Reason, req.EvidenceURL, req.Status,
	).Scan(&req.CreatedAt, &req.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, correctionActiveKey) {
			return correction.Request{}, correction.ErrDuplicateCorrectionRequest
		}
		return correction.Request{}, fmt.Errorf("failed to create correction request: %w", err)
	}
	return req, nil
}

func (r *correctionRepository) getOne(ctx context.Context, query string, args ...interface{}) (correction.Request, error) {
	c, err := scanCorrection(GetQuerier(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return correction.Request{}, correction.ErrCorrectionNotFound
		}
		return correction.Request{}, fmt.Errorf("failed to get correction request: %w", err)
	}
	return c, nil
}

func (r *correctionRepository) GetByID(ctx context.Context, id string, companyID string) (correction.Request, error) {
	return r.getOne(ctx, `SELECT `+correctionColumns+` FROM correction_requests WHERE id = $1 AND company_id = $2`, id, companyID)
}

func (r *correctionRepository) GetByIDForUpdate(ctx context.Context, id string, companyID string) (correction.Request, error) {
	return r.getOne(ctx, `SELECT `+correctionColumns+` FROM correction_requests WHERE id = $1 AND company_id = $2 FOR UPDATE`, id, companyID)
}

// Update implements correction.Repository.
func (r *correctionRepository) Update(ctx context.Context, req correction.Request) error {
	query := `
		UPDATE correction_requests SET
			attendance_id = $3, status = $4, reviewed_by = $5, reviewed_at = $6, review_reason = $7,
			updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`
	tag, err := GetQuerier(ctx, r.db).Exec(ctx, query,
		req.ID, req.CompanyID, req.AttendanceID, req.Status, req.ReviewedBy, req.ReviewedAt, req.ReviewReason,
	)
	if err != nil {
		if isUniqueViolation(err, correctionActiveKey) {
			return correction.ErrDuplicateCorrectionRequest
		}
		return fmt.Errorf("failed to update correction request: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return correction.ErrCorrectionNotFound
	}
	return nil
}

// ExistsActive implements correction.Repository.
func (r *correctionRepository) ExistsActive(ctx context.Context, employeeID string, companyID string, date time.Time, t correction.Type) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM correction_requests
			WHERE employee_id = $1 AND company_id = $2 AND date = $3 AND correction_type = $4
			  AND status IN ('PENDING', 'APPROVED')
		)
	`
	var exists bool
	if err := GetQuerier(ctx, r.db).QueryRow(ctx, query, employeeID, companyID, utils.Normalize(date), t).Scan(&exists); err != nil {
		return false, fmt.Errorf("failed to check correction requests: %w", err)
	}
	return exists, nil
}

// List implements correction.Repository.
func (r *correctionRepository) List(ctx context.Context, filter correction.ListFilter, companyID string) ([]correction.Request, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "company_id = $1"
	args := []interface{}{companyID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Status != nil {
		baseWhere += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}
	if filter.Type != nil {
		baseWhere += fmt.Sprintf(" AND correction_type = $%d", argIdx)
		args = append(args, *filter.Type)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM correction_requests WHERE "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count correction requests: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM correction_requests
		WHERE %s
		ORDER BY created_at DESC
		LIMIT $%d OFFSET $%d
	`, correctionColumns, baseWhere, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list correction requests: %w", err)
	}
	defer rows.Close()

	var items []correction.Request
	for rows.Next() {
		c, err := scanCorrection(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan correction request: %w", err)
		}
		items = append(items, c)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}
