package postgresql

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/utils"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const attendanceColumns = `
	id, employee_id, company_id, date,
	punch_in, punch_out, punch_in_proof_url, punch_out_proof_url,
	punch_in_latitude, punch_in_longitude, punch_out_latitude, punch_out_longitude,
	status, working_hours, overtime_hours, is_late, late_minutes, note,
	approved_by, approved_at, created_at, updated_at`

const (
	attendanceDayKey      = "attendances_employee_company_date_key"
	attendanceOpenSession = "attendances_one_open_session_idx"
)

type attendanceRepository struct {
	db *database.DB
}

func NewAttendanceRepository(db *database.DB) attendance.AttendanceRepository {
	return &attendanceRepository{db: db}
}

func scanAttendance(row pgx.Row) (attendance.Attendance, error) {
	var a attendance.Attendance
	err := row.Scan(
		&a.ID, &a.EmployeeID, &a.CompanyID, &a.Date,
		&a.PunchIn, &a.PunchOut, &a.PunchInProofURL, &a.PunchOutProofURL,
		&a.PunchInLatitude, &a.PunchInLongitude, &a.PunchOutLatitude, &a.PunchOutLongitude,
		&a.Status, &a.WorkingHours, &a.OvertimeHours, &a.IsLate, &a.LateMinutes, &a.Note,
		&a.ApprovedBy, &a.ApprovedAt, &a.CreatedAt, &a.UpdatedAt,
	)
	return a, err
}

// attendanceWriteError maps constraint violations onto domain errors.
func attendanceWriteError(err error, op string) error {
	switch {
	case isUniqueViolation(err, attendanceDayKey):
		return attendance.ErrDuplicateAttendance
	case isUniqueViolation(err, attendanceOpenSession):
		return attendance.ErrAlreadyOpenSession
	}
	return fmt.Errorf("failed to %s attendance: %w", op, err)
}

// Create implements attendance.AttendanceRepository.
func (r *attendanceRepository) Create(ctx context.Context, a attendance.Attendance) (attendance.Attendance, error) {
	q := GetQuerier(ctx, r.db)
	if a.ID == "" {
		a.ID = uuid.NewString()
	}
	a.Date = utils.Normalize(a.Date)

	query := `
		INSERT INTO attendances (
			id, employee_id, company_id, date,
			punch_in, punch_out, punch_in_proof_url, punch_out_proof_url,
			punch_in_latitude, punch_in_longitude, punch_out_latitude, punch_out_longitude,
			status, working_hours, overtime_hours, is_late, late_minutes, note,
			approved_by, approved_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16, $17, $18, $19, $20
		) RETURNING created_at, updated_at
	`
	err := q.QueryRow(ctx, query,
		a.ID, a.EmployeeID, a.CompanyID, a.Date,
		a.PunchIn, a.PunchOut, a.PunchInProofURL, a.PunchOutProofURL,
		a.PunchInLatitude, a.PunchInLongitude, a.PunchOutLatitude, a.PunchOutLongitude,
		a.Status, a.WorkingHours, a.OvertimeHours, a.IsLate, a.LateMinutes, a.Note,
		a.ApprovedBy, a.ApprovedAt,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return attendance.Attendance{}, attendanceWriteError(err, "create")
	}
	return a, nil
}

func (r *attendanceRepository) getOne(ctx context.Context, query string, args ...interface{}) (attendance.Attendance, error) {
	a, err := scanAttendance(GetQuerier(ctx, r.db).QueryRow(ctx, query, args...))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return attendance.Attendance{}, attendance.ErrAttendanceNotFound
		}
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return a, nil
}

// GetByID implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByID(ctx context.Context, id string, companyID string) (attendance.Attendance, error) {
	return r.getOne(ctx, `SELECT `+attendanceColumns+` FROM attendances WHERE id = $1 AND company_id = $2`, id, companyID)
}

// GetByIDForUpdate implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByIDForUpdate(ctx context.Context, id string, companyID string) (attendance.Attendance, error) {
	return r.getOne(ctx, `SELECT `+attendanceColumns+` FROM attendances WHERE id = $1 AND company_id = $2 FOR UPDATE`, id, companyID)
}

// GetByEmployeeAndDate implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetByEmployeeAndDate(ctx context.Context, employeeID string, date time.Time, companyID string) (attendance.Attendance, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1 AND date = $2 AND company_id = $3
	`
	return r.getOne(ctx, query, employeeID, utils.Normalize(date), companyID)
}

// GetOpenSession implements attendance.AttendanceRepository.
func (r *attendanceRepository) GetOpenSession(ctx context.Context, employeeID string, companyID string) (attendance.Attendance, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1
		  AND company_id = $2
		  AND punch_in IS NOT NULL
		  AND punch_out IS NULL
		ORDER BY punch_in DESC
		LIMIT 1
		FOR UPDATE
	`
	a, err := r.getOne(ctx, query, employeeID, companyID)
	if errors.Is(err, attendance.ErrAttendanceNotFound) {
		return attendance.Attendance{}, attendance.ErrNoOpenSession
	}
	return a, err
}

// Update implements attendance.AttendanceRepository. Date and ownership never change.
func (r *attendanceRepository) Update(ctx context.Context, a attendance.Attendance) error {
	q := GetQuerier(ctx, r.db)

	query := `
		UPDATE attendances SET
			punch_in = $3, punch_out = $4, punch_in_proof_url = $5, punch_out_proof_url = $6,
			punch_in_latitude = $7, punch_in_longitude = $8, punch_out_latitude = $9, punch_out_longitude = $10,
			status = $11, working_hours = $12, overtime_hours = $13, is_late = $14, late_minutes = $15,
			note = $16, approved_by = $17, approved_at = $18, updated_at = NOW()
		WHERE id = $1 AND company_id = $2
	`
	tag, err := q.Exec(ctx, query,
		a.ID, a.CompanyID,
		a.PunchIn, a.PunchOut, a.PunchInProofURL, a.PunchOutProofURL,
		a.PunchInLatitude, a.PunchInLongitude, a.PunchOutLatitude, a.PunchOutLongitude,
		a.Status, a.WorkingHours, a.OvertimeHours, a.IsLate, a.LateMinutes,
		a.Note, a.ApprovedBy, a.ApprovedAt,
	)
	if err != nil {
		return attendanceWriteError(err, "update")
	}
	if tag.RowsAffected() == 0 {
		return attendance.ErrAttendanceNotFound
	}
	return nil
}

func collectAttendances(rows pgx.Rows) ([]attendance.Attendance, error) {
	defer rows.Close()
	var out []attendance.Attendance
	for rows.Next() {
		a, err := scanAttendance(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan attendance: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// List implements attendance.AttendanceRepository.
func (r *attendanceRepository) List(ctx context.Context, filter attendance.AttendanceFilter, companyID string) ([]attendance.Attendance, int64, error) {
	q := GetQuerier(ctx, r.db)

	baseWhere := "company_id = $1"
	args := []interface{}{companyID}
	argIdx := 2

	if filter.EmployeeID != nil && *filter.EmployeeID != "" {
		baseWhere += fmt.Sprintf(" AND employee_id = $%d", argIdx)
		args = append(args, *filter.EmployeeID)
		argIdx++
	}
	if filter.StartDate != nil && *filter.StartDate != "" {
		baseWhere += fmt.Sprintf(" AND date >= $%d", argIdx)
		args = append(args, *filter.StartDate)
		argIdx++
	}
	if filter.EndDate != nil && *filter.EndDate != "" {
		baseWhere += fmt.Sprintf(" AND date <= $%d", argIdx)
		args = append(args, *filter.EndDate)
		argIdx++
	}
	if filter.Status != nil && *filter.Status != "" {
		baseWhere += fmt.Sprintf(" AND status = $%d", argIdx)
		args = append(args, *filter.Status)
		argIdx++
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM attendances WHERE "+baseWhere, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count attendances: %w", err)
	}

	selectQuery := fmt.Sprintf(`
		SELECT %s
		FROM attendances
		WHERE %s
		ORDER BY date DESC, created_at DESC
		LIMIT $%d OFFSET $%d
	`, attendanceColumns, baseWhere, argIdx, argIdx+1)
	args = append(args, filter.Limit, (filter.Page-1)*filter.Limit)

	rows, err := q.Query(ctx, selectQuery, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list attendances: %w", err)
	}
	items, err := collectAttendances(rows)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

// ListByEmployeeBetween implements attendance.AttendanceRepository.
func (r *attendanceRepository) ListByEmployeeBetween(ctx context.Context, employeeID string, companyID string, from, to time.Time) ([]attendance.Attendance, error) {
	query := `
		SELECT ` + attendanceColumns + `
		FROM attendances
		WHERE employee_id = $1 AND company_id = $2 AND date BETWEEN $3 AND $4
		ORDER BY date
	`
	rows, err := GetQuerier(ctx, r.db).Query(ctx, query, employeeID, companyID, utils.Normalize(from), utils.Normalize(to))
	if err != nil {
		return nil, fmt.Errorf("failed to list attendances: %w", err)
	}
	return collectAttendances(rows)
}
