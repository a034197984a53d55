package employee

import "context"

// EmployeeRepository exposes the salary configuration of employees.
// All methods include companyID parameter to prevent cross-company data access.
type EmployeeRepository interface {
	Create(ctx context.Context, e Employee) (Employee, error)
	GetByID(ctx context.Context, id string, companyID string) (Employee, error)
	ListActive(ctx context.Context, companyID string) ([]Employee, error)
}
