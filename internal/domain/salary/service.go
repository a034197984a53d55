package salary

import (
	"context"
	"time"
)

type SalaryService interface {
	GenerateSalary(ctx context.Context, req GenerateRequest) (Response, error)
	// GetOrCreateSalary returns the existing period salary or generates it
	GetOrCreateSalary(ctx context.Context, req GenerateRequest) (Response, error)
	RecalculateSalary(ctx context.Context, salaryID string) (RecalculationResult, error)
	GeneratePeriod(ctx context.Context, req GeneratePeriodRequest) (GeneratePeriodResult, error)
	ApproveSalary(ctx context.Context, salaryID string) (Response, error)
	RejectSalary(ctx context.Context, req RejectRequest) (Response, error)
	GetSalary(ctx context.Context, salaryID string) (DetailResponse, error)
	ListSalaries(ctx context.Context, filter ListFilter) (ListResponse, error)
}

// Engine is the actor-free surface used by background recalculation.
type Engine interface {
	Generate(ctx context.Context, companyID, employeeID string, month, year int) (Salary, error)
	Recalculate(ctx context.Context, companyID, salaryID string) (RecalculationResult, error)
	FindByPeriod(ctx context.Context, companyID, employeeID string, month, year int) (Salary, error)
	// EnsureForPeriod returns the period salary, creating a PENDING row
	// computed from the approved attendance so far when none exists. It must
	// run inside the caller's transaction.
	EnsureForPeriod(ctx context.Context, companyID, employeeID string, month, year int) (Salary, error)
}

// RecalculationTrigger schedules asynchronous salary refreshes for the
// periods containing the given attendance dates.
type RecalculationTrigger interface {
	Schedule(companyID, employeeID string, dates ...time.Time)
}

type LedgerService interface {
	RecordPayment(ctx context.Context, req MoneyMovementRequest) (LedgerEntryResponse, error)
	RecordRecovery(ctx context.Context, req MoneyMovementRequest) (LedgerEntryResponse, error)
	RecordDeduction(ctx context.Context, req MoneyMovementRequest) (LedgerEntryResponse, error)
	MarkSalaryPaid(ctx context.Context, req MarkPaidRequest) (DetailResponse, error)
}
