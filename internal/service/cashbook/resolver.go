package cashbook

import (
	"context"
	"errors"
	"fmt"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashbook"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salary"
)

// ledgerLink is the salary ledger counterpart of a cashbook entry.
type ledgerLink struct {
	entry  salary.LedgerEntry
	salary salary.Salary
	// legacy links were matched by reference and have no cashbook_entry_id yet
	legacy bool
}

// resolveLink finds the ledger entry behind a cashbook entry. The forward
// link wins; otherwise entries written before linkage existed are matched by
// salary reference, owning employee, amount and direction. Nil means the
// entry is a plain company movement.
func (s *CashbookServiceImpl) resolveLink(ctx context.Context, e cashbook.Entry) (*ledgerLink, error) {
	le, err := s.ledger.GetByCashbookEntryID(ctx, e.ID)
	switch {
	case err == nil:
		sal, err := s.salaries.GetByIDForUpdate(ctx, le.SalaryID, e.CompanyID)
		if err != nil {
			return nil, fmt.Errorf("failed to load linked salary: %w", err)
		}
		return &ledgerLink{entry: le, salary: sal}, nil
	case !errors.Is(err, salary.ErrLedgerEntryNotFound):
		return nil, fmt.Errorf("failed to resolve ledger link: %w", err)
	}

	if e.Reference == nil || e.EmployeeID == nil {
		return nil, nil
	}
	sal, err := s.salaries.GetByIDForUpdate(ctx, *e.Reference, e.CompanyID)
	if errors.Is(err, salary.ErrSalaryNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load referenced salary: %w", err)
	}
	if sal.EmployeeID != *e.EmployeeID {
		return nil, nil
	}

	candidates, err := s.ledger.ListUnlinkedBySalary(ctx, sal.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to list unlinked ledger entries: %w", err)
	}
	for _, c := range candidates {
		_, direction := salary.CashbookMovement(c.Type)
		if direction == e.Direction && c.Amount.Abs().Equal(e.Amount) {
			return &ledgerLink{entry: c, salary: sal, legacy: true}, nil
		}
	}
	return nil, nil
}
