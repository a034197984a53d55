package cashbook

import (
	"context"
	"time"
)

// Repository stores cashbook entries.
// All methods include companyID parameter to prevent cross-company data access.
type Repository interface {
	Create(ctx context.Context, e Entry) (Entry, error)
	GetByID(ctx context.Context, id string, companyID string) (Entry, error)
	GetByIDForUpdate(ctx context.Context, id string, companyID string) (Entry, error)
	Update(ctx context.Context, e Entry) error
	Delete(ctx context.Context, id string, companyID string) error
	List(ctx context.Context, filter ListFilter, companyID string) ([]Entry, int64, error)

	// Totals sums non-reversed entries dated within [from, to]; zero times are unbounded
	Totals(ctx context.Context, companyID string, from, to time.Time) (Balance, error)
}
