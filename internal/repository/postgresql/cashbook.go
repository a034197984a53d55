package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashbook"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/shopspring/decimal"
)

const cashbookColumns = `
	id, company_id, employee_id, transaction_type, direction, amount, payment_mode,
	reference, payment_reference, description, transaction_date, created_by,
	is_reversed, reversed_at, created_at, updated_at`

type cashbookRepository struct {
	db *database.DB
}

func NewCashbookRepository(db *database.DB) cashbook.Repository {
	return &cashbookRepository{db: db}
}

func scanCashbookEntry(row pgx.Row) (cashbook.Entry, error) {
	var e cashbook.Entry
	err := row.Scan(
		&e.ID, &e.CompanyID, &e.EmployeeID, &e.TransactionType, &e.Direction, &e.Amount, &e.PaymentMode,
		&e.Reference, &e.PaymentReference, &e.Description, &e.TransactionDate, &e.CreatedBy,
		&e.IsReversed, &e.ReversedAt, &e.CreatedAt, &e.UpdatedAt,
	)
	return e, err
}

// Create implements cashbook.Repository.
func (r *cashbookRepository) Create(ctx context.Context, e cashbook.Entry) (cashbook.Entry, error) {
	q := GetQuerier(ctx, r.db)
	if e.ID == "" {
		e.ID = uuid.NewString()
	}
	e.TransactionDate = utils.Normalize(e.TransactionDate)

	query := `
		INSERT INTO cashbook_entries (
			id, company_id, employee_id, transaction_type, direction, amount, payment_mode,
			reference, payment_reference, description, transaction_date, created_by,
			is_reversed, reversed_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		e.ID, e.CompanyID, e.EmployeeID, e.TransactionType, e.Direction, e.Amount, e.PaymentMode,
		e.Reference, e.PaymentReference, e.Description, e.TransactionDate, e.CreatedBy,
		e.IsReversed, e.ReversedAt,
	).Scan(&e.CreatedAt, &e.UpdatedAt)
	if err != nil {
		return cashbook.Entry{}, fmt.Errorf("failed to create cashbook entry: %w", err)
	}
	return e, nil
}

func (r *cashbookRepository) getOne(ctx context.Context, query string, args ...interface{}) (cashbook.Entry, error) {
	e, err := scanCashbookEntry(GetQuerier(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return cashbook.Entry{}, cashbook.ErrEntryNotFound
		}
		return cashbook.Entry{}, fmt.Errorf("failed to get cashbook entry: %w", err)
	}
	return e, nil
}

func (r *cashbookRepository) GetByID(ctx context.Context, id string, companyID string) (cashbook.Entry, error) {
	return r.getOne(ctx, `SELECT `+cashbookColumns+` FROM cashbook_entries WHERE id = $1 AND company_id = $2`, id, companyID)
}

func (r *cashbookRepository) GetByIDForUpdate(ctx context.Context, id string, companyID string) (cashbook.Entry, error) {
	return r.getOne(ctx, `SELECT `+cashbookColumns+` FROM cashbook_entries WHERE id = $1 AND company_id = $2 FOR UPDATE`, id, companyID)
}

// Update implements cashbook.Repository.
func (r *cashbookRepository) Update(ctx context.Context, e cashbook.Entry) error {
	query := `
		UPDATE cashbook_entries SET
			employee_id = $3, transaction_type = $4, direction = $5, amount = $6, payment_mode = $7,
			reference = $8, payment_reference = $9, description = $10, transaction_date = $11,
			is_reversed = $12, reversed_at = $13, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`
	tag, err := GetQuerier(ctx, r.db).Exec(ctx, query,
		e.ID, e.CompanyID,
		e.EmployeeID, e.TransactionType, e.Direction, e.Amount, e.PaymentMode,
		e.Reference, e.PaymentReference, e.Description, utils.Normalize(e.TransactionDate),
		e.IsReversed, e.ReversedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to update cashbook entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cashbook.ErrEntryNotFound
	}
	return nil
}

// Delete implements cashbook.Repository. The ledger foreign key is ON DELETE
// SET NULL; the service removes the linked ledger entry first.
func (r *cashbookRepository) Delete(ctx context.Context, id string, companyID string) error {
	tag, err := GetQuerier(ctx, r.db).Exec(ctx, `DELETE FROM cashbook_entries WHERE id = $1 AND company_id = $2`, id, companyID)
	if err != nil {
		return fmt.Errorf("failed to delete cashbook entry: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return cashbook.ErrEntryNotFound
	}
	return nil
}

// List implements cashbook.Repository.
func (r *cashbookRepository) List(ctx context.Context, filter cashbook.ListFilter, companyID string) ([]cashbook.Entry, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "company_id = $1"
	args := []interface{}{companyID}
	argIdx := 2

	if !filter.IncludeReversed {
		baseWhere += " AND is_reversed = FALSE"
	}
	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.TransactionType != nil {
		baseWhere += fmt.Sprintf(" AND transaction_type = $%d", argIdx)
		args = append(args, *filter.TransactionType)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND transaction_date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND transaction_date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM cashbook_entries WHERE "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count cashbook entries: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM cashbook_entries
		WHERE %s
		ORDER BY transaction_date DESC, created_at DESC
		LIMIT $%d OFFSET $%d
	`, cashbookColumns, baseWhere, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list cashbook entries: %w", err)
	}
	defer rows.Close()

	var items []cashbook.Entry
	for rows.Next() {
		e, err := scanCashbookEntry(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("failed to scan cashbook entry: %w", err)
		}
		items = append(items, e)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// Totals implements cashbook.Repository.
func (r *cashbookRepository) Totals(ctx context.Context, companyID string, from, to time.Time) (cashbook.Balance, error) {
	query := `
		SELECT
			COALESCE(SUM(amount) FILTER (WHERE direction = 'CREDIT'), 0),
			COALESCE(SUM(amount) FILTER (WHERE direction = 'DEBIT'), 0)
		FROM cashbook_entries
		WHERE company_id = $1
		  AND is_reversed = FALSE
		  AND ($2::date IS NULL OR transaction_date >= $2)
		  AND ($3::date IS NULL OR transaction_date <= $3)
	`
	var fromArg, toArg *time.Time
	if !from.IsZero() {
		f := utils.Normalize(from)
		fromArg = &f
	}
	if !to.IsZero() {
		t := utils.Normalize(to)
		toArg = &t
	}

	var credit, debit decimal.Decimal
	if err := GetQuerier(ctx, r.db).QueryRow(ctx, query, companyID, fromArg, toArg).Scan(&credit, &debit); err != nil {
		return cashbook.Balance{}, fmt.Errorf("failed to sum cashbook entries: %w", err)
	}
	return cashbook.Balance{
		TotalCredit: credit,
		TotalDebit:  debit,
		Balance:     credit.Sub(debit),
	}, nil
}
