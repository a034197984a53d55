package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/salary"
	"github.com/google/uuid"
)

type salaryRepository struct {
	store *Store
}

func NewSalaryRepository(store *Store) salary.Repository {
	return &salaryRepository{store: store}
}

func (r *salaryRepository) Create(ctx context.Context, s salary.Salary) (salary.Salary, error) {
	err := r.store.write(ctx, func() error {
		for _, other := range r.store.salaries {
			if other.EmployeeID == s.EmployeeID && other.Month == s.Month && other.Year == s.Year {
				return salary.ErrSalaryAlreadyExists
			}
		}
		if s.ID == "" {
			s.ID = uuid.NewString()
		}
		now := time.Now()
		s.CreatedAt, s.UpdatedAt = now, now
		r.store.salaries[s.ID] = s
		return nil
	})
	if err != nil {
		return salary.Salary{}, err
	}
	return s, nil
}

func (r *salaryRepository) GetByID(ctx context.Context, id string, companyID string) (salary.Salary, error) {
	var (
		s  salary.Salary
		ok bool
	)
	r.store.read(func() {
		s, ok = r.store.salaries[id]
	})
	if !ok || s.CompanyID != companyID {
		return salary.Salary{}, salary.ErrSalaryNotFound
	}
	return s, nil
}

func (r *salaryRepository) GetByIDForUpdate(ctx context.Context, id string, companyID string) (salary.Salary, error) {
	return r.GetByID(ctx, id, companyID)
}

func (r *salaryRepository) GetByPeriod(ctx context.Context, employeeID string, companyID string, month, year int) (salary.Salary, error) {
	var found *salary.Salary
	r.store.read(func() {
		for _, s := range r.store.salaries {
			if s.EmployeeID == employeeID && s.CompanyID == companyID && s.Month == month && s.Year == year {
				s := s
				found = &s
				return
			}
		}
	})
	if found == nil {
		return salary.Salary{}, salary.ErrSalaryNotFound
	}
	return *found, nil
}

func (r *salaryRepository) GetByPeriodForUpdate(ctx context.Context, employeeID string, companyID string, month, year int) (salary.Salary, error) {
	return r.GetByPeriod(ctx, employeeID, companyID, month, year)
}

// Update mirrors the SQL guard: a locked row is never overwritten.
func (r *salaryRepository) Update(ctx context.Context, s salary.Salary) error {
	return r.store.write(ctx, func() error {
		current, ok := r.store.salaries[s.ID]
		if !ok || current.CompanyID != s.CompanyID {
			return salary.ErrSalaryNotFound
		}
		if current.IsLocked() {
			return salary.ErrSalaryLocked
		}
		s.CreatedAt = current.CreatedAt
		s.LockedAt = current.LockedAt
		s.PaidAt = current.PaidAt
		s.UpdatedAt = time.Now()
		r.store.salaries[s.ID] = s
		return nil
	})
}

func (r *salaryRepository) MarkPaid(ctx context.Context, id string, companyID string, paidAt time.Time) error {
	return r.store.write(ctx, func() error {
		s, ok := r.store.salaries[id]
		if !ok || s.CompanyID != companyID {
			return salary.ErrSalaryNotFound
		}
		if s.Status != salary.StatusApproved || s.IsLocked() {
			return salary.ErrNotApprovedOrAlreadyPaid
		}
		now := time.Now()
		s.Status = salary.StatusPaid
		s.PaidAt = &paidAt
		s.LockedAt = &now
		s.UpdatedAt = now
		r.store.salaries[id] = s
		return nil
	})
}

func (r *salaryRepository) List(ctx context.Context, filter salary.ListFilter, companyID string) ([]salary.Salary, int64, error) {
	var items []salary.Salary
	r.store.read(func() {
		all := sortedValues(r.store.salaries, func(a, b salary.Salary) bool {
			if a.Year != b.Year {
				return a.Year > b.Year
			}
			if a.Month != b.Month {
				return a.Month > b.Month
			}
			return a.CreatedAt.Before(b.CreatedAt)
		})
		for _, s := range all {
			if s.CompanyID != companyID {
				continue
			}
			if filter.EmployeeID != nil && s.EmployeeID != *filter.EmployeeID {
				continue
			}
			if filter.Month != nil && s.Month != *filter.Month {
				continue
			}
			if filter.Year != nil && s.Year != *filter.Year {
				continue
			}
			if filter.Status != nil && s.Status != *filter.Status {
				continue
			}
			items = append(items, s)
		}
	})
	return paginate(items, filter.Page, filter.Limit), int64(len(items)), nil
}

type ledgerRepository struct {
	store *Store
}

func NewLedgerRepository(store *Store) salary.LedgerRepository {
	return &ledgerRepository{store: store}
}

func (r *ledgerRepository) Create(ctx context.Context, e salary.LedgerEntry) (salary.LedgerEntry, error) {
	err := r.store.write(ctx, func() error {
		if _, ok := r.store.salaries[e.SalaryID]; !ok {
			return salary.ErrSalaryNotFound
		}
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		if e.CreatedAt.IsZero() {
			e.CreatedAt = time.Now()
		}
		r.store.ledger[e.ID] = e
		return nil
	})
	if err != nil {
		return salary.LedgerEntry{}, err
	}
	return e, nil
}

func (r *ledgerRepository) GetByID(ctx context.Context, id string) (salary.LedgerEntry, error) {
	var (
		e  salary.LedgerEntry
		ok bool
	)
	r.store.read(func() {
		e, ok = r.store.ledger[id]
	})
	if !ok {
		return salary.LedgerEntry{}, salary.ErrLedgerEntryNotFound
	}
	return e, nil
}

func (r *ledgerRepository) entries(match func(salary.LedgerEntry) bool) []salary.LedgerEntry {
	var out []salary.LedgerEntry
	r.store.read(func() {
		all := sortedValues(r.store.ledger, func(a, b salary.LedgerEntry) bool {
			return a.CreatedAt.Before(b.CreatedAt)
		})
		for _, e := range all {
			if match(e) {
				out = append(out, e)
			}
		}
	})
	return out
}

func (r *ledgerRepository) ListBySalary(ctx context.Context, salaryID string) ([]salary.LedgerEntry, error) {
	return r.entries(func(e salary.LedgerEntry) bool { return e.SalaryID == salaryID }), nil
}

func (r *ledgerRepository) GetByCashbookEntryID(ctx context.Context, cashbookEntryID string) (salary.LedgerEntry, error) {
	found := r.entries(func(e salary.LedgerEntry) bool {
		return e.CashbookEntryID != nil && *e.CashbookEntryID == cashbookEntryID
	})
	if len(found) == 0 {
		return salary.LedgerEntry{}, salary.ErrLedgerEntryNotFound
	}
	return found[0], nil
}

func (r *ledgerRepository) ListUnlinkedBySalary(ctx context.Context, salaryID string) ([]salary.LedgerEntry, error) {
	return r.entries(func(e salary.LedgerEntry) bool {
		return e.SalaryID == salaryID && e.CashbookEntryID == nil
	}), nil
}

func (r *ledgerRepository) Update(ctx context.Context, e salary.LedgerEntry) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.ledger[e.ID]; !ok {
			return salary.ErrLedgerEntryNotFound
		}
		r.store.ledger[e.ID] = e
		return nil
	})
}

func (r *ledgerRepository) Delete(ctx context.Context, id string) error {
	return r.store.write(ctx, func() error {
		if _, ok := r.store.ledger[id]; !ok {
			return salary.ErrLedgerEntryNotFound
		}
		delete(r.store.ledger, id)
		return nil
	})
}
