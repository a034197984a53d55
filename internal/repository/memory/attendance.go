package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/utils"
	"github.com/google/uuid"
)

type attendanceRepository struct {
	store *Store
}

func NewAttendanceRepository(store *Store) attendance.AttendanceRepository {
	return &attendanceRepository{store: store}
}

// conflict emulates the per-day unique key and the single-open-session index.
func (r *attendanceRepository) conflict(a attendance.Attendance) error {
	for _, other := range r.store.attendances {
		if other.ID == a.ID || other.EmployeeID != a.EmployeeID || other.CompanyID != a.CompanyID {
			continue
		}
		if other.Date.Equal(a.Date) {
			return attendance.ErrDuplicateAttendance
		}
		if a.IsOpen() && other.IsOpen() {
			return attendance.ErrAlreadyOpenSession
		}
	}
	return nil
}

func (r *attendanceRepository) Create(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	err := r.store.write(ctx, func() error {
		if a.ID == "" {
			a.ID = uuid.NewString()
		}
		a.Date = utils.Normalize(a.Date)
		if err := r.conflict(a); err != nil {
			return err
		}
		now := time.Now()
		a.CreatedAt, a.UpdatedAt = now, now
		r.store.attendances[a.ID] = a
		return nil
	})
	if err != nil {
		return attendance.Attendance{}, err
	}
	return a, nil
}

func (r *attendanceRepository) GetByID(ctx context.Context, id string, companyID string) (attendance.Attendance, error) {
	var (
		a  attendance.Attendance
		ok bool
	)
	r.store.read(func() {
		a, ok = r.store.attendances[id]
	})
	if !ok || a.CompanyID != companyID {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return a, nil
}

func (r *attendanceRepository) GetByIDForUpdate(ctx context.Context, id string, companyID string) (attendance.Attendance, error) {
	return r.GetByID(ctx, id, companyID)
}

func (r *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (attendance.Attendance, error) {
	date = utils.Normalize(date)
	var found *attendance.Attendance
	r.store.read(func() {
		for _, a := range r.store.attendances {
			if a.EmployeeID == employeeID && a.CompanyID == companyID && a.Date.Equal(date) {
				a := a
				found = &a
				return
			}
		}
	})
	if found == nil {
		return attendance.Attendance{}, attendance.ErrAttendanceNotFound
	}
	return *found, nil
}

func (r *attendanceRepository) GetOpenSession(ctx context.Context, employeeID string, companyID string) (attendance.Attendance, error) {
	var found *attendance.Attendance
	r.store.read(func() {
		for _, a := range r.store.attendances {
			if a.EmployeeID != employeeID || a.CompanyID != companyID || !a.IsOpen() {
				continue
			}
			if found == nil || a.PunchIn.After(*found.PunchIn) {
				a := a
				found = &a
			}
		}
	})
	if found == nil {
		return attendance.Attendance{}, attendance.ErrNoOpenSession
	}
	return *found, nil
}

func (r *attendanceRepository) Update(ctx context.Context, a attendance.Attendance) error {
	return r.store.write(ctx, func() error {
		current, ok := r.store.attendances[a.ID]
		if !ok || current.CompanyID != a.CompanyID {
			return attendance.ErrAttendanceNotFound
		}
		a.Date = current.Date
		a.CreatedAt = current.CreatedAt
		if err := r.conflict(a); err != nil {
			return err
		}
		a.UpdatedAt = time.Now()
		r.store.attendances[a.ID] = a
		return nil
	})
}

func (r *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter, companyID string) ([]attendance.Attendance, int64, error) {
	var start, end time.Time
	if filter.StartDate != nil {
		start, _ = time.Parse(utils.DateLayout, *filter.StartDate)
	}
	if filter.EndDate != nil {
		end, _ = time.Parse(utils.DateLayout, *filter.EndDate)
	}

	var items []attendance.Attendance
	r.store.read(func() {
		all := sortedValues(r.store.attendances, func(a, b attendance.Attendance) bool {
			if !a.Date.Equal(b.Date) {
				return a.Date.After(b.Date)
			}
			return a.CreatedAt.After(b.CreatedAt)
		})
		for _, a := range all {
			if a.CompanyID != companyID {
				continue
			}
			if filter.EmployeeID != nil && a.EmployeeID != *filter.EmployeeID {
				continue
			}
			if filter.Status != nil && string(a.Status) != *filter.Status {
				continue
			}
			if !start.IsZero() && a.Date.Before(start) {
				continue
			}
			if !end.IsZero() && a.Date.After(end) {
				continue
			}
			items = append(items, a)
		}
	})
	return paginate(items, filter.Page, filter.Limit), int64(len(items)), nil
}

func (r *attendanceRepository) ListByEmployeeBetween(ctx context.Context, employeeID string, companyID string, from, to time.Time) ([]attendance.Attendance, error) {
	from, to = utils.Normalize(from), utils.Normalize(to)
	var items []attendance.Attendance
	r.store.read(func() {
		all := sortedValues(r.store.attendances, func(a, b attendance.Attendance) bool {
			return a.Date.Before(b.Date)
		})
		for _, a := range all {
			if a.EmployeeID == employeeID && a.CompanyID == companyID && !a.Date.Before(from) && !a.Date.After(to) {
				items = append(items, a)
			}
		}
	})
	return items, nil
}
