package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/google/uuid"
)

type employeeRepository struct {
	store *Store
}

func NewEmployeeRepository(store *Store) employee.EmployeeRepository {
	return &employeeRepository{store: store}
}

func (r *employeeRepository) Create(ctx context.Context, e employee.Employee) (employee.Employee, error) {
	err := r.store.write(ctx, func() error {
		if e.ID == "" {
			e.ID = uuid.NewString()
		}
		now := time.Now()
		e.CreatedAt, e.UpdatedAt = now, now
		r.store.employees[e.ID] = e
		return nil
	})
	return e, err
}

func (r *employeeRepository) GetByID(ctx context.Context, id string, companyID string) (employee.Employee, error) {
	var (
		e  employee.Employee
		ok bool
	)
	r.store.read(func() {
		e, ok = r.store.employees[id]
	})
	if !ok || e.CompanyID != companyID {
		return employee.Employee{}, employee.ErrEmployeeNotFound
	}
	return e, nil
}

func (r *employeeRepository) ListActive(ctx context.Context, companyID string) ([]employee.Employee, error) {
	var out []employee.Employee
	r.store.read(func() {
		all := sortedValues(r.store.employees, func(a, b employee.Employee) bool {
			return a.FullName < b.FullName
		})
		for _, e := range all {
			if e.CompanyID == companyID && e.IsActive {
				out = append(out, e)
			}
		}
	})
	return out, nil
}
