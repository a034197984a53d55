package attendance

import (
	"context"
	"time"
)

// AttendanceRepository defines data access methods for attendance records.
// All methods include companyID parameter to prevent cross-company data access attacks.
type AttendanceRepository interface {
	// Create returns ErrDuplicateAttendance when (employee, company, date) already exists
	Create(ctx context.Context, attendance Attendance) (Attendance, error)

	GetByID(ctx context.Context, id string, companyID string) (Attendance, error)

	// GetByIDForUpdate locks the row for the surrounding transaction
	GetByIDForUpdate(ctx context.Context, id string, companyID string) (Attendance, error)

	// GetByEmployeeAndDate returns ErrAttendanceNotFound when no record exists
	GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (Attendance, error)

	// GetOpenSession returns the most recent punched-in record without punch-out, locked for update
	GetOpenSession(ctx context.Context, employeeID string, companyID string) (Attendance, error)

	Update(ctx context.Context, attendance Attendance) error

	List(ctx context.Context, filter AttendanceFilter, companyID string) ([]Attendance, int64, error)

	// ListByEmployeeBetween returns records with from <= date <= to ordered by date
	ListByEmployeeBetween(ctx context.Context, employeeID string, companyID string, from, to time.Time) ([]Attendance, error)
}
