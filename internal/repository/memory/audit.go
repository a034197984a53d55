package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/google/uuid"
)

type auditRepository struct {
	store *Store
}

func NewAuditRepository(store *Store) audit.Repository {
	return &auditRepository{store: store}
}

func (r *auditRepository) Create(ctx context.Context, log audit.Log) error {
	return r.store.write(ctx, func() error {
		if log.ID == "" {
			log.ID = uuid.NewString()
		}
		if log.CreatedAt.IsZero() {
			log.CreatedAt = time.Now()
		}
		r.store.audits = append(r.store.audits, log)
		return nil
	})
}

func (r *auditRepository) List(ctx context.Context, filter audit.ListFilter, companyID string) ([]audit.Log, int64, error) {
	var items []audit.Log
	r.store.read(func() {
		for i := len(r.store.audits) - 1; i >= 0; i-- {
			l := r.store.audits[i]
			if l.CompanyID != companyID {
				continue
			}
			if filter.EntityType != nil && l.EntityType != *filter.EntityType {
				continue
			}
			if filter.EntityID != nil && l.EntityID != *filter.EntityID {
				continue
			}
			if filter.Action != nil && l.Action != *filter.Action {
				continue
			}
			items = append(items, l)
		}
	})
	return paginate(items, filter.Page, filter.Limit), int64(len(items)), nil
}
