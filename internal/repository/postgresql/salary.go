package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const salaryColumns = `
	id, employee_id, company_id, month, year, salary_type, base_rate,
	total_days, approved_days, approved_hours,
	gross_amount, deduction_amount, net_amount,
	status, locked_at, paid_at, approved_by, approved_at, created_at, updated_at`

const salaryPeriodKey = "salaries_employee_period_key"

type salaryRepository struct {
	db *database.DB
}

func NewSalaryRepository(db *database.DB) salary.Repository {
	return &salaryRepository{db: db}
}

func scanSalary(row pgx.Row) (salary.Salary, error) {
	var s salary.Salary
	err := row.Scan(
		&s.ID, &s.EmployeeID, &s.CompanyID, &s.Month, &s.Year, &s.SalaryType, &s.BaseRate,
		&s.TotalDays, &s.ApprovedDays, &s.ApprovedHours,
		&s.GrossAmount, &s.DeductionAmount, &s.NetAmount,
		&s.Status, &s.LockedAt, &s.PaidAt, &s.ApprovedBy, &s.ApprovedAt, &s.CreatedAt, &s.UpdatedAt,
	)
	return s, err
}

// Create implements salary.Repository.
func (r *salaryRepository) Create(ctx context.Context, s salary.Salary) (salary.Salary, error) {
	q := GetQuerier(ctx, r.db)
	if s.ID == "" {
		s.ID = uuid.NewString()
	}

	query := `
		INSERT INTO salaries (
			id, employee_id, company_id, month, year, salary_type, base_rate,
			total_days, approved_days, approved_hours,
			gross_amount, deduction_amount, net_amount, status
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		s.ID, s.EmployeeID, s.CompanyID, s.Month, s.Year, s.SalaryType, s.BaseRate,
		s.TotalDays, s.ApprovedDays, s.ApprovedHours,
		s.GrossAmount, s.DeductionAmount, s.NetAmount, s.Status,
	).Scan(&s.CreatedAt, &s.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err, salaryPeriodKey) {
			return salary.Salary{}, salary.ErrSalaryAlreadyExists
		}
		return salary.Salary{}, fmt.Errorf("failed to create salary: %w", err)
	}
	return s, nil
}

func (r *salaryRepository) getOne(ctx context.Context, query string, args ...interface{}) (salary.Salary, error) {
	s, err := scanSalary(GetQuerier(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return salary.Salary{}, salary.ErrSalaryNotFound
		}
		return salary.Salary{}, fmt.Errorf("failed to get salary: %w", err)
	}
	return s, nil
}

func (r *salaryRepository) GetByID(ctx context.Context, id string, companyID string) (salary.Salary, error) {
	return r.getOne(ctx, `SELECT `+salaryColumns+` FROM salaries WHERE id = $1 AND company_id = $2`, id, companyID)
}

func (r *salaryRepository) GetByIDForUpdate(ctx context.Context, id string, companyID string) (salary.Salary, error) {
	return r.getOne(ctx, `SELECT `+salaryColumns+` FROM salaries WHERE id = $1 AND company_id = $2 FOR UPDATE`, id, companyID)
}

func (r *salaryRepository) GetByPeriod(ctx context.Context, employeeID string, companyID string, month, year int) (salary.Salary, error) {
	query := `
		SELECT ` + salaryColumns + `
		FROM salaries
		WHERE employee_id = $1 AND company_id = $2 AND month = $3 AND year = $4
	`
	return r.getOne(ctx, query, employeeID, companyID, month, year)
}

func (r *salaryRepository) GetByPeriodForUpdate(ctx context.Context, employeeID string, companyID string, month, year int) (salary.Salary, error) {
	query := `
		SELECT ` + salaryColumns + `
		FROM salaries
		WHERE employee_id = $1 AND company_id = $2 AND month = $3 AND year = $4
		FOR UPDATE
	`
	return r.getOne(ctx, query, employeeID, companyID, month, year)
}

// lockedOrMissing explains why a guarded write touched no row.
func (r *salaryRepository) lockedOrMissing(ctx context.Context, id, companyID string, locked error) error {
	if _, err := r.GetByID(ctx, id, companyID); err != nil {
		return err
	}
	return locked
}

// Update implements salary.Repository. The WHERE clause refuses locked rows
// so a concurrent payment can never be overwritten.
func (r *salaryRepository) Update(ctx context.Context, s salary.Salary) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salaries SET
			salary_type = $3, base_rate = $4, total_days = $5, approved_days = $6, approved_hours = $7,
			gross_amount = $8, deduction_amount = $9, net_amount = $10,
			status = $11, approved_by = $12, approved_at = $13, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		  AND locked_at IS NULL AND status <> 'PAID'
	`
	tag, err := q.Exec(ctx, query,
		s.ID, s.CompanyID,
		s.SalaryType, s.BaseRate, s.TotalDays, s.ApprovedDays, s.ApprovedHours,
		s.GrossAmount, s.DeductionAmount, s.NetAmount,
		s.Status, s.ApprovedBy, s.ApprovedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update salary: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.lockedOrMissing(ctx, s.ID, s.CompanyID, salary.ErrSalaryLocked)
	}
	return nil
}

// MarkPaid implements salary.Repository.
func (r *salaryRepository) MarkPaid(ctx context.Context, id string, companyID string, paidAt time.Time) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE salaries SET status = 'PAID', paid_at = $3, locked_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND company_id = $2
		  AND status = 'APPROVED' AND locked_at IS NULL
	`
	tag, err := q.Exec(ctx, query, id, companyID, paidAt)
	if err != nil {
		return fmt.Errorf("failed to mark salary paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return r.lockedOrMissing(ctx, id, companyID, salary.ErrNotApprovedOrAlreadyPaid)
	}
	return nil
}

// List implements salary.Repository.
func (r *salaryRepository) List(ctx context.Context, filter salary.ListFilter, companyID string) ([]salary.Salary, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "company_id = $1"
	args := []interface{}{companyID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.Month != nil {
		baseWhere += fmt.Sprintf(" AND month = $%d", argIdx)
		args = append(args, *filter.Month)
		argIdx++
	}
	if filter.Year != nil {
		baseWhere += fmt.Sprintf(" AND year = $%d", argIdx)
		args = append(args, *filter.Year)
		argIdx++
	}
	if filter.Status != nil {
		baseWhere += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM salaries WHERE "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count salaries: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM salaries
		WHERE %s
		ORDER BY year DESC, month DESC, created_at
		LIMIT $%d OFFSET $%d
	`, salaryColumns, baseWhere, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list salaries: %w", err)
	}
	defer rows.Close()

	var items []salary.Salary
	for rows.Next() {
		s, err := scanSalary(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan salary: %w", err)
		}
		items = append(items, s)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ========== Ledger ==========

const ledgerColumns = `id, salary_id, entry_type, amount, reason, cashbook_entry_id, created_by, created_at`

type ledgerRepository struct {
	db *database.DB
}

func NewLedgerRepository(db *database.DB) salary.LedgerRepository {
	return &ledgerRepository{db: db}
}

func scanLedgerEntry(row pgx.Row) (salary.LedgerEntry, error) {
	var e salary.LedgerEntry
	err := row.Scan(&e.ID, &e.SalaryID, &e.Type, &e.Amount, &e.Reason, &e.CashbookEntryID, &e.CreatedBy, &e.CreatedAt)
	return e, err
}

// Create implements salary.LedgerRepository. A zero CreatedAt defaults to now.
func (r *ledgerRepository) Create(ctx context.Context, e salary.LedgerEntry) (salary.LedgerEntry, error) {
	q := GetQuerier(ctx, r.db)
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	if e.CreatedAt.IsZero() {
		e.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO salary_ledger (` + ledgerColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := q.Exec(ctx, query, e.ID, e.SalaryID, e.Type, e.Amount, e.Reason, e.CashbookEntryID, e.CreatedBy, e.CreatedAt)
	if err != nil {
		if isForeignKeyViolation(err) {
			return salary.LedgerEntry{}, salary.ErrSalaryNotFound
		}
		return salary.LedgerEntry{}, fmt.Errorf("failed to create ledger entry: %w", err)
	}
	return e, nil
}

func (r *ledgerRepository) GetByID(ctx context.Context, id string) (salary.LedgerEntry, error) {
	return r.getOne(ctx, `SELECT `+ledgerColumns+` FROM salary_ledger WHERE id = $1`, id)
}

func (r *ledgerRepository) GetByCashbookEntryID(ctx context.Context, cashbookEntryID string) (salary.LedgerEntry, error) {
	return r.getOne(ctx, `SELECT `+ledgerColumns+` FROM salary_ledger WHERE cashbook_entry_id = $1`, cashbookEntryID)
}

func (r *ledgerRepository) getOne(ctx context.Context, query string, args ...interface{}) (salary.LedgerEntry, error) {
	e, err := scanLedgerEntry(GetQuerier(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return salary.LedgerEntry{}, salary.ErrLedgerEntryNotFound
		}
		return salary.LedgerEntry{}, fmt.Errorf("failed to get ledger entry: %w", err)
	}
	return e, nil
}

func (r *ledgerRepository) list(ctx context.Context, query string, args ...interface{}) ([]salary.LedgerEntry, error) {
	rows, err := GetQuerier(ctx, r.db).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list ledger entries: %w", err)
	}
	defer rows.Close()

	var out []salary.LedgerEntry
	for rows.Next() {
		e, err := scanLedgerEntry(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *ledgerRepository) ListBySalary(ctx context.Context, salaryID string) ([]salary.LedgerEntry, error) {
	return r.list(ctx, `SELECT `+ledgerColumns+` FROM salary_ledger WHERE salary_id = $1 ORDER BY created_at`, salaryID)
}

func (r *ledgerRepository) ListUnlinkedBySalary(ctx context.Context, salaryID string) ([]salary.LedgerEntry, error) {
	query := `
		SELECT ` + ledgerColumns + `
		FROM salary_ledger
		WHERE salary_id = $1 AND cashbook_entry_id IS NULL
		ORDER BY created_at
	`
	return r.list(ctx, query, salaryID)
}

// Update implements salary.LedgerRepository.
func (r *ledgerRepository) Update(ctx context.Context, e salary.LedgerEntry) error {
	query := `
		UPDATE salary_ledger
		SET entry_type = $2, amount = $3, reason = $4, cashbook_entry_id = $5, created_at = $6
		WHERE id = $1
	`
	tag, err := GetQuerier(ctx, r.db).Exec(ctx, query, e.ID, e.Type, e.Amount, e.Reason, e.CashbookEntryID, e.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to update ledger entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return salary.ErrLedgerEntryNotFound
	}
	return nil
}

func (r *ledgerRepository) Delete(ctx context.Context, id string) error {
	tag, err := GetQuerier(ctx, r.db).Exec(ctx, `DELETE FROM salary_ledger WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete ledger entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return salary.ErrLedgerEntryNotFound
	}
	return nil
}
