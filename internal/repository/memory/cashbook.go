package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashbook"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/utils"
	"github.com/google/uuid"
)

type cashbookRepository struct {
	store *Store
}

func NewCashbookRepository(store *Store) cashbook.Repository {
	return &cashbookRepository{store: store}
}

func (r *cashbookRepository) Create(ctx context.Context, e cashbook.Entry) (cashbook.Entry, error) {
	err := r.store.write(ctx, func() error {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		e.TransactionDate = utils.Normalize(e.TransactionDate)
		now := time.Now()
		e.CreatedAt, e.UpdatedAt = now, now
		r.store.cashbook[e.ID] = e
		return nil
	})
	if err != nil {
		return cashbook.Entry{}, err
	}
	return e, nil
}

func (r *cashbookRepository) GetByID(ctx context.Context, id string, companyID string) (cashbook.Entry, error) {
	var (
		e  cashbook.Entry
		ok bool
	)
	r.store.read(func() {
		e, ok = r.store.cashbook[id]
	})
	if !ok || e.CompanyID != companyID {
		return cashbook.Entry{}, cashbook.ErrEntryNotFound
	}
	return e, nil
}

func (r *cashbookRepository) GetByIDForUpdate(ctx context.Context, id string, companyID string) (cashbook.Entry, error) {
	return r.GetByID(ctx, id, companyID)
}

func (r *cashbookRepository) Update(ctx context.Context, e cashbook.Entry) error {
	return r.store.write(ctx, func() error {
		current, ok := r.store.cashbook[e.ID]
		if !ok || current.CompanyID != e.CompanyID {
			return cashbook.ErrEntryNotFound
		}
		e.TransactionDate = utils.Normalize(e.TransactionDate)
		e.CreatedAt = current.CreatedAt
		e.UpdatedAt = time.Now()
		r.store.cashbook[e.ID] = e
		return nil
	})
}

func (r *cashbookRepository) Delete(ctx context.Context, id string, companyID string) error {
	return r.store.write(ctx, func() error {
		current, ok := r.store.cashbook[id]
		if !ok || current.CompanyID != companyID {
			return cashbook.ErrEntryNotFound
		}
		delete(r.store.cashbook, id)
		return nil
	})
}

func (r *cashbookRepository) List(ctx context.Context, filter cashbook.ListFilter, companyID string) ([]cashbook.Entry, int64, error) {
	var start, end time.Time
	if filter.StartDate != nil {
		start, _ = time.Parse(utils.DateLayout, *filter.StartDate)
	}
	if filter.EndDate != nil {
		end, _ = time.Parse(utils.DateLayout, *filter.EndDate)
	}

	var items []cashbook.Entry
	r.store.read(func() {
		all := sortedValues(r.store.cashbook, func(a, b cashbook.Entry) bool {
			if !a.TransactionDate.Equal(b.TransactionDate) {
				return a.TransactionDate.After(b.TransactionDate)
			}
			return a.CreatedAt.After(b.CreatedAt)
		})
		for _, e := range all {
			if e.CompanyID != companyID || (e.IsReversed && !filter.IncludeReversed) {
				continue
			}
			if filter.EmployeeID != nil && (e.EmployeeID == nil || *e.EmployeeID != *filter.EmployeeID) {
				continue
			}
			if filter.TransactionType != nil && e.TransactionType != *filter.TransactionType {
				continue
			}
			if !start.IsZero() && e.TransactionDate.Before(start) {
				continue
			}
			if !end.IsZero() && e.TransactionDate.After(end) {
				continue
			}
			items = append(items, e)
		}
	})
	return paginate(items, filter.Page, filter.Limit), int64(len(items)), nil
}

func (r *cashbookRepository) Totals(ctx context.Context, companyID string, from, to time.Time) (cashbook.Balance, error) {
	var entries []cashbook.Entry
	r.store.read(func() {
		for _, e := range r.store.cashbook {
			if e.CompanyID != companyID {
				continue
			}
			if !from.IsZero() && e.TransactionDate.Before(utils.Normalize(from)) {
				continue
			}
			if !to.IsZero() && e.TransactionDate.After(utils.Normalize(to)) {
				continue
			}
			entries = append(entries, e)
		}
	})
	return cashbook.CalculateBalance(entries), nil
}
