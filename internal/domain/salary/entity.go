package salary

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/shopspring/decimal"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusPaid     Status = "PAID"
	StatusRejected Status = "REJECTED"
)

// Salary is the computed obligation for one employee and one calendar month.
type Salary struct {
	ID              string
	EmployeeID      string
	CompanyID       string
	Month           int
	Year            int
	SalaryType      employee.SalaryType
	BaseRate        decimal.Decimal // per-type rate snapshot used for the computation
	TotalDays       int
	ApprovedDays    int
	ApprovedHours   float64
	GrossAmount     decimal.Decimal
	DeductionAmount decimal.Decimal
	NetAmount       decimal.Decimal
	Status          Status
	LockedAt        *time.Time
	PaidAt          *time.Time
	ApprovedBy      *string
	ApprovedAt      *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// IsLocked reports whether the salary is frozen against any write.
func (s Salary) IsLocked() bool {
	return s.LockedAt != nil || s.Status == StatusPaid
}

type EntryType string

const (
	EntryPayment   EntryType = "PAYMENT"
	EntryRecovery  EntryType = "RECOVERY"
	EntryDeduction EntryType = "DEDUCTION"
)

func (t EntryType) Valid() bool {
	return t == EntryPayment || t == EntryRecovery || t == EntryDeduction
}

// Signed applies the ledger sign convention: payments are positive, money
// taken back from the employee is negative.
func (t EntryType) Signed(amount decimal.Decimal) decimal.Decimal {
	if t == EntryPayment {
		return amount.Abs()
	}
	return amount.Abs().Neg()
}

// LedgerEntry is one money movement against a salary.
type LedgerEntry struct {
	ID              string
	SalaryID        string
	Type            EntryType
	Amount          decimal.Decimal
	Reason          string
	CashbookEntryID *string
	CreatedBy       string
	CreatedAt       time.Time
}
