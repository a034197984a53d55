package correction

import (
	"context"
	"time"
)

// Repository stores correction requests.
// All methods include companyID parameter to prevent cross-company data access.
type Repository interface {
	// Create returns ErrDuplicateCorrectionRequest when an active request collides
	Create(ctx context.Context, req Request) (Request, error)
	GetByID(ctx context.Context, id string, companyID string) (Request, error)
	GetByIDForUpdate(ctx context.Context, id string, companyID string) (Request, error)
	Update(ctx context.Context, req Request) error

	// ExistsActive reports a PENDING or APPROVED request for (employee, date, type)
	ExistsActive(ctx context.Context, employeeID string, companyID string, date time.Time, t Type) (bool, error)

	List(ctx context.Context, filter ListFilter, companyID string) ([]Request, int64, error)
}
