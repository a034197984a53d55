package cashbook

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TypeSalaryPayment TransactionType = "SALARY_PAYMENT"
	TypeAdvance       TransactionType = "ADVANCE"
	TypeRecovery      TransactionType = "RECOVERY"
	TypeDeduction     TransactionType = "DEDUCTION"
	TypeExpense       TransactionType = "EXPENSE"
	TypeIncome        TransactionType = "INCOME"
	TypeOther         TransactionType = "OTHER"
)

func (t TransactionType) Valid() bool {
	switch t {
	case TypeSalaryPayment, TypeAdvance, TypeRecovery, TypeDeduction, TypeExpense, TypeIncome, TypeOther:
		return true
	}
	return false
}

// Direction is seen from the company till: CREDIT brings money in, DEBIT pays it out.
type Direction string

const (
	DirectionCredit Direction = "CREDIT"
	DirectionDebit  Direction = "DEBIT"
)

func (d Direction) Valid() bool {
	return d == DirectionCredit || d == DirectionDebit
}

type PaymentMode string

const (
	ModeCash         PaymentMode = "CASH"
	ModeBankTransfer PaymentMode = "BANK_TRANSFER"
	ModeUPI          PaymentMode = "UPI"
	ModeCheque       PaymentMode = "CHEQUE"
	ModeOther        PaymentMode = "OTHER"
)

func (m PaymentMode) Valid() bool {
	switch m {
	case ModeCash, ModeBankTransfer, ModeUPI, ModeCheque, ModeOther:
		return true
	}
	return false
}

// Entry is one company-wide cash movement. Amount is always non-negative;
// Direction carries the sign.
type Entry struct {
	ID               string
	CompanyID        string
	EmployeeID       *string
	TransactionType  TransactionType
	Direction        Direction
	Amount           decimal.Decimal
	PaymentMode      PaymentMode
	Reference        *string // salary id for salary-related movements
	PaymentReference *string
	Description      string
	TransactionDate  time.Time
	CreatedBy        string
	IsReversed       bool
	ReversedAt       *time.Time
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Signed returns the amount as it affects the company balance.
func (e Entry) Signed() decimal.Decimal {
	if e.Direction == DirectionDebit {
		return e.Amount.Neg()
	}
	return e.Amount
}

// Balance is the company till position over non-reversed entries.
type Balance struct {
	TotalCredit decimal.Decimal `json:"total_credit"`
	TotalDebit  decimal.Decimal `json:"total_debit"`
	Balance     decimal.Decimal `json:"balance"`
}

func CalculateBalance(entries []Entry) Balance {
	b := Balance{TotalCredit: decimal.Zero, TotalDebit: decimal.Zero}
	for _, e := range entries {
		if e.IsReversed {
			continue
		}
		if e.Direction == DirectionCredit {
			b.TotalCredit = b.TotalCredit.Add(e.Amount)
		} else {
			b.TotalDebit = b.TotalDebit.Add(e.Amount)
		}
	}
	b.Balance = b.TotalCredit.Sub(b.TotalDebit)
	return b
}
