package salary

import "github.com/shopspring/decimal"

// Balance is derived on every read and never persisted.
type Balance struct {
	NetAmount      decimal.Decimal `json:"net_amount"`
	TotalPaid      decimal.Decimal `json:"total_paid"`
	TotalRecovered decimal.Decimal `json:"total_recovered"`
	TotalDeducted  decimal.Decimal `json:"total_deducted"`
	// Remaining is positive when the company still owes the employee and
	// negative when the employee has been overpaid.
	Remaining decimal.Decimal `json:"remaining"`
	IsSettled bool            `json:"is_settled"`
}

// CalculateSalaryBalance folds the ledger of a salary into its balance.
// Recoveries and deductions increase the amount owed since they pull money
// back from what was already handed out.
func CalculateSalaryBalance(s Salary, entries []LedgerEntry) Balance {
	b := Balance{
		NetAmount:      s.NetAmount,
		TotalPaid:      decimal.Zero,
		TotalRecovered: decimal.Zero,
		TotalDeducted:  decimal.Zero,
	}
	for _, e := range entries {
		switch e.Type {
		case EntryPayment:
			b.TotalPaid = b.TotalPaid.Add(e.Amount.Abs())
		case EntryRecovery:
			b.TotalRecovered = b.TotalRecovered.Add(e.Amount.Abs())
		case EntryDeduction:
			b.TotalDeducted = b.TotalDeducted.Add(e.Amount.Abs())
		}
	}
	b.Remaining = s.NetAmount.Add(b.TotalRecovered).Add(b.TotalDeducted).Sub(b.TotalPaid).Round(2)
	b.IsSettled = !b.Remaining.IsPositive()
	return b
}
