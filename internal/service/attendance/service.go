package attendance

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/lock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/utils"
)

const (
	// StaleSessionAfter is how long a session may stay open before the next
	// punch closes it as REJECTED.
	StaleSessionAfter = 20 * time.Hour

	punchLockTTL = 10 * time.Second
)

type AttendanceServiceImpl struct {
	tx database.TxManager
	attendance.AttendanceRepository
	companyService company.CompanyService
	locker         lock.Locker
	trigger        salary.RecalculationTrigger
	notifier       notification.Notifier
	audit          audit.Recorder
	clock          clock.Clock
}

func NewAttendanceService(
	tx database.TxManager,
	attendanceRepo attendance.AttendanceRepository,
	companyService company.CompanyService,
	locker lock.Locker,
	trigger salary.RecalculationTrigger,
	notifier notification.Notifier,
	recorder audit.Recorder,
	clk clock.Clock,
) *AttendanceServiceImpl {
	return &AttendanceServiceImpl{
		tx:                   tx,
		AttendanceRepository: attendanceRepo,
		companyService:       companyService,
		locker:               locker,
		trigger:              trigger,
		notifier:             notifier,
		audit:                recorder,
		clock:                clk,
	}
}

func requireEmployee(ctx context.Context) (user.Actor, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return user.Actor{}, err
	}
	if !user.HasPermission(actor.Role, user.PermissionAttendancePunch) {
		return user.Actor{}, user.ErrInsufficientPermissions
	}
	if actor.EmployeeID == "" {
		return user.Actor{}, user.ErrEmployeeIDRequired
	}
	return actor, nil
}

func requireReviewer(ctx context.Context) (user.Actor, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return user.Actor{}, err
	}
	if !user.HasPermission(actor.Role, user.PermissionAttendanceReview) {
		return user.Actor{}, user.ErrManagerAccessRequired
	}
	return actor, nil
}

// lockPunch serializes punches of one employee. An unavailable lock backend
// only loses the fast path; the database constraints still hold.
func (a *AttendanceServiceImpl) lockPunch(ctx context.Context, actor user.Actor, contended error) (func(), error) {
	key := "punch:" + actor.CompanyID + ":" + actor.EmployeeID
	release, err := a.locker.Acquire(ctx, key, punchLockTTL)
	if errors.Is(err, lock.ErrNotAcquired) {
		return nil, contended
	}
	if err != nil {
		slog.Warn("punch lock unavailable", "employee_id", actor.EmployeeID, "error", err)
		return func() {}, nil
	}
	return release, nil
}

// ========== STALE SESSIONS ==========

// closeStale closes an open session older than StaleSessionAfter in its own
// transaction, so the close survives whatever the calling punch does next.
func (a *AttendanceServiceImpl) closeStale(ctx context.Context, actor user.Actor, now time.Time) (*attendance.Attendance, error) {
	var closed *attendance.Attendance
	err := a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		open, err := a.AttendanceRepository.GetOpenSession(ctx, actor.EmployeeID, actor.CompanyID)
		if errors.Is(err, attendance.ErrNoOpenSession) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to get open session: %w", err)
		}
		if now.Sub(*open.PunchIn) <= StaleSessionAfter {
			return nil
		}

		punchOut := *open.PunchIn
		open.PunchOut = &punchOut
		open.OvertimeHours = 0
		note := fmt.Sprintf("auto-closed: no punch-out within %d hours", int(StaleSessionAfter.Hours()))
		open.Note = &note
		// an approved session keeps its decision and hours
		if open.Status != attendance.StatusApproved {
			open.Status = attendance.StatusRejected
			open.WorkingHours = 0
		}
		if err := a.AttendanceRepository.Update(ctx, open); err != nil {
			return fmt.Errorf("failed to close stale session: %w", err)
		}
		closed = &open
		return nil
	})
	return closed, err
}

func (a *AttendanceServiceImpl) afterAutoClose(ctx context.Context, closed attendance.Attendance) {
	slog.Info("stale attendance session closed",
		"attendance_id", closed.ID, "employee_id", closed.EmployeeID, "punch_in", closed.PunchIn)

	a.audit.Record(ctx, audit.Log{
		CompanyID:  closed.CompanyID,
		Action:     audit.ActionAutoClose,
		EntityType: "attendance",
		EntityID:   closed.ID,
		Metadata:   map[string]interface{}{"date": closed.Date.Format(utils.DateLayout)},
	})
	a.notifier.Notify(ctx, notification.Message{
		CompanyID:   closed.CompanyID,
		RecipientID: closed.EmployeeID,
		Type:        notification.TypeAttendanceAutoClosed,
		Title:       "Attendance session closed",
		Message:     fmt.Sprintf("Your session of %s was closed without a punch-out", closed.Date.Format(utils.DateLayout)),
		Data:        map[string]interface{}{"attendance_id": closed.ID},
	})
}

// ========== PUNCH ==========

func (a *AttendanceServiceImpl) checkGeofence(settings company.Settings, lat, lng *float64, refuse func(string) error) error {
	if !settings.GeofenceEnabled || settings.OfficeLatitude == nil || settings.OfficeLongitude == nil {
		return nil
	}
	if lat == nil || lng == nil {
		return refuse("location is required")
	}
	distance := utils.HaversineDistance(*lat, *lng, *settings.OfficeLatitude, *settings.OfficeLongitude)
	if distance > float64(settings.GeofenceRadiusMeters) {
		return refuse(fmt.Sprintf("%.0f m away from the office, allowed radius is %d m", distance, settings.GeofenceRadiusMeters))
	}
	return nil
}

// PunchIn implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) PunchIn(ctx context.Context, req attendance.PunchInRequest) (attendance.AttendanceResponse, error) {
	actor, err := requireEmployee(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	release, err := a.lockPunch(ctx, actor, attendance.ErrAlreadyOpenSession)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	defer release()

	settings, err := a.companyService.ResolveSettings(ctx, actor.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	now := a.clock.Now()

	stale, err := a.closeStale(ctx, actor, now)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if stale != nil {
		a.afterAutoClose(ctx, *stale)
	}

	if err := a.checkGeofence(settings, req.Latitude, req.Longitude, attendance.PunchInNotAllowed); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	loc := settings.Location()
	today := utils.CivilDate(now, loc)
	shiftStart, _ := settings.ShiftWindow(today)

	opensAt := shiftStart.Add(-time.Duration(settings.EarlyPunchInMinutes) * time.Minute)
	if now.Before(opensAt) {
		return attendance.AttendanceResponse{}, attendance.PunchInNotAllowed(
			fmt.Sprintf("punch-in opens at %s", opensAt.In(loc).Format("15:04")))
	}

	isLate := false
	lateMinutes := 0
	graceEnd := shiftStart.Add(time.Duration(settings.GracePeriodMinutes) * time.Minute)
	if now.After(graceEnd) {
		isLate = true
		// measured from the scheduled start, not from the end of grace
		lateMinutes = int(math.Floor(now.Sub(shiftStart).Minutes()))
	}

	proof := req.ImageProofURL
	var result attendance.Attendance
	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		if _, err := a.AttendanceRepository.GetOpenSession(ctx, actor.EmployeeID, actor.CompanyID); err == nil {
			return attendance.ErrAlreadyOpenSession
		} else if !errors.Is(err, attendance.ErrNoOpenSession) {
			return fmt.Errorf("failed to get open session: %w", err)
		}

		existing, err := a.AttendanceRepository.GetByEmployeeAndDate(ctx, actor.EmployeeID, today, actor.CompanyID)
		switch {
		case err == nil:
			if !existing.IsPlaceholder() {
				return attendance.PunchInNotAllowed("attendance for today is already recorded")
			}
			existing.PunchIn = &now
			existing.PunchInProofURL = &proof
			existing.PunchInLatitude = req.Latitude
			existing.PunchInLongitude = req.Longitude
			existing.IsLate = isLate
			existing.LateMinutes = lateMinutes
			if err := a.AttendanceRepository.Update(ctx, existing); err != nil {
				return err
			}
			result = existing
			return nil
		case errors.Is(err, attendance.ErrAttendanceNotFound):
			created, err := a.AttendanceRepository.Create(ctx, attendance.Attendance{
				EmployeeID:       actor.EmployeeID,
				CompanyID:        actor.CompanyID,
				Date:             today,
				PunchIn:          &now,
				PunchInProofURL:  &proof,
				PunchInLatitude:  req.Latitude,
				PunchInLongitude: req.Longitude,
				Status:           attendance.StatusPending,
				IsLate:           isLate,
				LateMinutes:      lateMinutes,
			})
			if errors.Is(err, attendance.ErrDuplicateAttendance) {
				// a concurrent punch-in won the unique key
				return attendance.ErrAlreadyOpenSession
			}
			if err != nil {
				return err
			}
			result = created
			return nil
		default:
			return fmt.Errorf("failed to get today's attendance: %w", err)
		}
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	a.audit.Record(ctx, audit.Log{
		Action:     audit.ActionPunchIn,
		EntityType: "attendance",
		EntityID:   result.ID,
		Metadata:   map[string]interface{}{"is_late": result.IsLate, "late_minutes": result.LateMinutes},
	})
	return attendance.NewAttendanceResponse(result), nil
}

// PunchOut implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) PunchOut(ctx context.Context, req attendance.PunchOutRequest) (attendance.AttendanceResponse, error) {
	actor, err := requireEmployee(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	release, err := a.lockPunch(ctx, actor, attendance.ErrPunchInProgress)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	defer release()

	settings, err := a.companyService.ResolveSettings(ctx, actor.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	now := a.clock.Now()

	stale, err := a.closeStale(ctx, actor, now)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if stale != nil {
		a.afterAutoClose(ctx, *stale)
		return attendance.AttendanceResponse{}, attendance.ErrNoOpenSession
	}

	if err := a.checkGeofence(settings, req.Latitude, req.Longitude, attendance.PunchOutNotAllowed); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	proof := req.ImageProofURL
	var result attendance.Attendance
	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		open, err := a.AttendanceRepository.GetOpenSession(ctx, actor.EmployeeID, actor.CompanyID)
		if err != nil {
			return err
		}

		hours := now.Sub(*open.PunchIn).Hours()
		if hours < settings.MinWorkingHours {
			return attendance.PunchOutNotAllowed(fmt.Sprintf("minimum working time is %.2f hours", settings.MinWorkingHours))
		}
		if settings.MaxWorkingHours > 0 && hours > settings.MaxWorkingHours {
			return attendance.PunchOutNotAllowed(fmt.Sprintf("maximum working time is %.2f hours", settings.MaxWorkingHours))
		}

		open.PunchOut = &now
		open.PunchOutProofURL = &proof
		open.PunchOutLatitude = req.Latitude
		open.PunchOutLongitude = req.Longitude
		if open.Status != attendance.StatusApproved {
			open.WorkingHours = utils.RoundHours(hours)
		}
		open.OvertimeHours = utils.RoundHours(math.Max(0, hours-settings.OvertimeThresholdHours))

		if err := a.AttendanceRepository.Update(ctx, open); err != nil {
			return err
		}
		result = open
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	a.audit.Record(ctx, audit.Log{
		Action:     audit.ActionPunchOut,
		EntityType: "attendance",
		EntityID:   result.ID,
		Metadata:   map[string]interface{}{"working_hours": result.WorkingHours, "overtime_hours": result.OvertimeHours},
	})
	return attendance.NewAttendanceResponse(result), nil
}

// ========== REVIEW ==========

// SetStatus implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) SetStatus(ctx context.Context, req attendance.SetStatusRequest) (attendance.AttendanceResponse, error) {
	actor, err := requireReviewer(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}

	settings, err := a.companyService.ResolveSettings(ctx, actor.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	now := a.clock.Now()

	var (
		result attendance.Attendance
		from   attendance.Status
	)
	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		rec, err := a.AttendanceRepository.GetByIDForUpdate(ctx, req.ID, actor.CompanyID)
		if err != nil {
			return err
		}
		if err := attendance.ValidateTransition(rec.Status, req.Status); err != nil {
			return err
		}
		from = rec.Status

		applyStatus(&rec, req.Status, settings)
		rec.ApprovedBy = &actor.UserID
		rec.ApprovedAt = &now
		if req.Reason != nil {
			rec.Note = req.Reason
		}

		if err := a.AttendanceRepository.Update(ctx, rec); err != nil {
			return err
		}
		result = rec
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	a.trigger.Schedule(result.CompanyID, result.EmployeeID, result.Date)
	a.notifier.Notify(ctx, notification.Message{
		CompanyID:   result.CompanyID,
		RecipientID: result.EmployeeID,
		SenderID:    &actor.UserID,
		Type:        notification.TypeAttendanceStatusChanged,
		Title:       "Attendance " + string(result.Status),
		Message:     fmt.Sprintf("Your attendance of %s is now %s", result.Date.Format(utils.DateLayout), result.Status),
		Data: map[string]interface{}{
			"attendance_id": result.ID,
			"from":          string(from),
			"to":            string(result.Status),
		},
	})
	a.audit.Record(ctx, audit.Log{
		Action:     audit.ActionSetStatus,
		EntityType: "attendance",
		EntityID:   result.ID,
		Metadata:   map[string]interface{}{"from": string(from), "to": string(result.Status)},
	})
	return attendance.NewAttendanceResponse(result), nil
}

// applyStatus sets the status and the hours that go with it. Approval pays
// the scheduled shift; every other decision pays nothing and closes an open
// session at its punch-in.
func applyStatus(rec *attendance.Attendance, status attendance.Status, settings company.Settings) {
	rec.Status = status
	if status == attendance.StatusApproved {
		start, end := settings.ShiftWindow(rec.Date)
		rec.WorkingHours = salary.GetShiftHoursForSalary(start, end, settings.MaxDailyHours)
		return
	}
	rec.WorkingHours = 0
	rec.OvertimeHours = 0
	if rec.IsOpen() {
		punchOut := *rec.PunchIn
		rec.PunchOut = &punchOut
	}
}

// UpdateHours implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) UpdateHours(ctx context.Context, req attendance.UpdateHoursRequest) (attendance.AttendanceResponse, error) {
	actor, err := requireReviewer(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if err := req.Validate(); err != nil {
		return attendance.AttendanceResponse{}, err
	}
	settings, err := a.companyService.ResolveSettings(ctx, actor.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	var result attendance.Attendance
	err = a.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		rec, err := a.AttendanceRepository.GetByIDForUpdate(ctx, req.ID, actor.CompanyID)
		if err != nil {
			return err
		}
		if rec.Status != attendance.StatusPending && rec.Status != attendance.StatusApproved {
			return attendance.ErrInvalidHours
		}

		rec.WorkingHours = utils.RoundHours(req.WorkingHours)
		if req.OvertimeHours != nil {
			rec.OvertimeHours = utils.RoundHours(*req.OvertimeHours)
		} else {
			rec.OvertimeHours = utils.RoundHours(math.Max(0, req.WorkingHours-settings.OvertimeThresholdHours))
		}
		reason := req.Reason
		rec.Note = &reason

		if err := a.AttendanceRepository.Update(ctx, rec); err != nil {
			return err
		}
		result = rec
		return nil
	})
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}

	a.trigger.Schedule(result.CompanyID, result.EmployeeID, result.Date)
	a.audit.Record(ctx, audit.Log{
		Action:     audit.ActionUpdateHours,
		EntityType: "attendance",
		EntityID:   result.ID,
		Metadata:   map[string]interface{}{"working_hours": result.WorkingHours, "reason": req.Reason},
	})
	return attendance.NewAttendanceResponse(result), nil
}

// ========== QUERIES ==========

// GetAttendance implements attendance.AttendanceService. Staff only see their own records.
func (a *AttendanceServiceImpl) GetAttendance(ctx context.Context, id string) (attendance.AttendanceResponse, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	rec, err := a.AttendanceRepository.GetByID(ctx, id, actor.CompanyID)
	if err != nil {
		return attendance.AttendanceResponse{}, err
	}
	if !user.HasPermission(actor.Role, user.PermissionAttendanceViewAll) && rec.EmployeeID != actor.EmployeeID {
		return attendance.AttendanceResponse{}, attendance.ErrAttendanceNotFound
	}
	return attendance.NewAttendanceResponse(rec), nil
}

// ListAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) ListAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	if !user.HasPermission(actor.Role, user.PermissionAttendanceViewAll) {
		return attendance.ListAttendanceResponse{}, user.ErrManagerAccessRequired
	}
	return a.list(ctx, filter, actor.CompanyID)
}

// GetMyAttendance implements attendance.AttendanceService.
func (a *AttendanceServiceImpl) GetMyAttendance(ctx context.Context, filter attendance.AttendanceFilter) (attendance.ListAttendanceResponse, error) {
	actor, err := requireEmployee(ctx)
	if err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	filter.EmployeeID = &actor.EmployeeID
	return a.list(ctx, filter, actor.CompanyID)
}

func (a *AttendanceServiceImpl) list(ctx context.Context, filter attendance.AttendanceFilter, companyID string) (attendance.ListAttendanceResponse, error) {
	if err := filter.Validate(); err != nil {
		return attendance.ListAttendanceResponse{}, err
	}
	items, total, err := a.AttendanceRepository.List(ctx, filter, companyID)
	if err != nil {
		return attendance.ListAttendanceResponse{}, fmt.Errorf("failed to list attendance: %w", err)
	}
	return attendance.NewListAttendanceResponse(items, total, filter.Page, filter.Limit), nil
}
