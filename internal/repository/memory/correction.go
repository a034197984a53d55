package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/correction"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/utils"
	"github.com/google/uuid"
)

type correctionRepository struct {
	store *Store
}

func NewCorrectionRepository(store *Store) correction.Repository {
	return &correctionRepository{store: store}
}

func isActive(s correction.Status) bool {
	return s == correction.StatusPending || s == correction.StatusApproved
}

func (r *correctionRepository) existsActive(employeeID, companyID string, date time.Time, t correction.Type, exceptID string) bool {
	for _, c := range r.store.corrections {
		if c.ID != exceptID && c.EmployeeID == employeeID && c.CompanyID == companyID &&
			c.Type == t && c.Date.Equal(date) && isActive(c.Status) {
			return true
		}
	}
	return false
}

func (r *correctionRepository) Create(ctx context.Context, req correction.Request) (correction.Request, error) {
	err := r.store.write(ctx, func() error {
		req.Date = utils.Normalize(req.Date)
		if isActive(req.Status) && r.existsActive(req.EmployeeID, req.CompanyID, req.Date, req.Type, "") {
			return correction.ErrDuplicateCorrectionRequest
		}
		if req.ID == "" {
			req.ID = uuid.NewString()
		}
		now := time.Now()
		req.CreatedAt, req.UpdatedAt = now, now
		r.store.corrections[req.ID] = req
		return nil
	})
	if err != nil {
		return correction.Request{}, err
	}
	return req, nil
}

func (r *correctionRepository) GetByID(ctx context.Context, id string, companyID string) (correction.Request, error) {
	var (
		c  correction.Request
		ok bool
	)
	r.store.read(func() {
		c, ok = r.store.corrections[id]
	})
	if !ok || c.CompanyID != companyID {
		return correction.Request{}, correction.ErrCorrectionNotFound
	}
	return c, nil
}

func (r *correctionRepository) GetByIDForUpdate(ctx context.Context, id string, companyID string) (correction.Request, error) {
	return r.GetByID(ctx, id, companyID)
}

func (r *correctionRepository) Update(ctx context.Context, req correction.Request) error {
	return r.store.write(ctx, func() error {
		current, ok := r.store.corrections[req.ID]
		if !ok || current.CompanyID != req.CompanyID {
			return correction.ErrCorrectionNotFound
		}
		req.CreatedAt = current.CreatedAt
		req.UpdatedAt = time.Now()
		r.store.corrections[req.ID] = req
		return nil
	})
}

func (r *correctionRepository) ExistsActive(ctx context.Context, employeeID string, companyID string, date time.Time, t correction.Type) (bool, error) {
	var exists bool
	r.store.read(func() {
		exists = r.existsActive(employeeID, companyID, utils.Normalize(date), t, "")
	})
	return exists, nil
}

func (r *correctionRepository) List(ctx context.Context, filter correction.ListFilter, companyID string) ([]correction.Request, int64, error) {
	var items []correction.Request
	r.store.read(func() {
		all := sortedValues(r.store.corrections, func(a, b correction.Request) bool {
			return a.CreatedAt.After(b.CreatedAt)
		})
		for _, c := range all {
			if c.CompanyID != companyID {
				continue
			}
			if filter.EmployeeID != nil && c.EmployeeID != *filter.EmployeeID {
				continue
			}
			if filter.Status != nil && c.Status != *filter.Status {
				continue
			}
			if filter.Type != nil && c.Type != *filter.Type {
				continue
			}
			items = append(items, c)
		}
	})
	return paginate(items, filter.Page, filter.Limit), int64(len(items)), nil
}
