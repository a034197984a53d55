package salary

import (
	"context"
	"time"
)

// Repository stores salaries. Writes to a locked row are refused with
// ErrSalaryLocked at the storage layer.
type Repository interface {
	// Create returns ErrSalaryAlreadyExists on a (employee, month, year) collision
	Create(ctx context.Context, s Salary) (Salary, error)
	GetByID(ctx context.Context, id string, companyID string) (Salary, error)
	GetByIDForUpdate(ctx context.Context, id string, companyID string) (Salary, error)
	GetByPeriod(ctx context.Context, employeeID string, companyID string, month, year int) (Salary, error)
	GetByPeriodForUpdate(ctx context.Context, employeeID string, companyID string, month, year int) (Salary, error)

	// Update overwrites computed fields and status of an unlocked salary
	Update(ctx context.Context, s Salary) error

	// MarkPaid moves an APPROVED unlocked salary to PAID and locks it
	MarkPaid(ctx context.Context, id string, companyID string, paidAt time.Time) error

	List(ctx context.Context, filter ListFilter, companyID string) ([]Salary, int64, error)
}

// LedgerRepository stores ledger entries.
type LedgerRepository interface {
	Create(ctx context.Context, e LedgerEntry) (LedgerEntry, error)
	GetByID(ctx context.Context, id string) (LedgerEntry, error)
	ListBySalary(ctx context.Context, salaryID string) ([]LedgerEntry, error)

	// GetByCashbookEntryID resolves the forward link; ErrLedgerEntryNotFound when absent
	GetByCashbookEntryID(ctx context.Context, cashbookEntryID string) (LedgerEntry, error)

	// ListUnlinkedBySalary returns entries created before cashbook linkage existed
	ListUnlinkedBySalary(ctx context.Context, salaryID string) ([]LedgerEntry, error)

	Update(ctx context.Context, e LedgerEntry) error
	Delete(ctx context.Context, id string) error
}
