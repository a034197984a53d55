package salary

import "github.com/cmlabs-hris/payroll-engine/internal/domain/cashbook"

// CashbookMovement maps a ledger entry type onto the cashbook row that
// mirrors it. Payments leave the company till; recoveries and deductions
// come back into it.
func CashbookMovement(t EntryType) (cashbook.TransactionType, cashbook.Direction) {
	switch t {
	case EntryRecovery:
		return cashbook.TypeRecovery, cashbook.DirectionCredit
	case EntryDeduction:
		return cashbook.TypeDeduction, cashbook.DirectionCredit
	default:
		return cashbook.TypeSalaryPayment, cashbook.DirectionDebit
	}
}

// EntryTypeForDirection returns the ledger type a linked entry takes when its
// cashbook direction becomes d. A type that already agrees with d is kept.
func EntryTypeForDirection(current EntryType, d cashbook.Direction) EntryType {
	if d == cashbook.DirectionDebit {
		return EntryPayment
	}
	if current == EntryPayment {
		return EntryRecovery
	}
	return current
}
