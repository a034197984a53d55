package correction

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/correction"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/clock"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/utils"
)

// SubmitWindowDays is how far back a correction may reach.
const SubmitWindowDays = 7

type CorrectionServiceImpl struct {
	tx database.TxManager
	correction.Repository
	attendanceRepo attendance.AttendanceRepository
	companyService company.CompanyService
	trigger        salary.RecalculationTrigger
	notifier       notification.Notifier
	audit          audit.Recorder
	clock          clock.Clock
}

func NewCorrectionService(
	tx database.TxManager,
	correctionRepo correction.Repository,
	attendanceRepo attendance.AttendanceRepository,
	companyService company.CompanyService,
	trigger salary.RecalculationTrigger,
	notifier notification.Notifier,
	recorder audit.Recorder,
	clk clock.Clock,
) correction.Service {
	return &CorrectionServiceImpl{
		tx:             tx,
		Repository:     correctionRepo,
		attendanceRepo: attendanceRepo,
		companyService: companyService,
		trigger:        trigger,
		notifier:       notifier,
		audit:          recorder,
		clock:          clk,
	}
}

// ========== SUBMIT ==========

func (s *CorrectionServiceImpl) Submit(ctx context.Context, req correction.SubmitRequest) (correction.Response, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return correction.Response{}, err
	}
	if !user.HasPermission(actor.Role, user.PermissionCorrectionSubmit) {
		return correction.Response{}, user.ErrInsufficientPermissions
	}
	if actor.EmployeeID == "" {
		return correction.Response{}, user.ErrEmployeeIDRequired
	}
	if err := req.Validate(); err != nil {
		return correction.Response{}, err
	}

	settings, err := s.companyService.ResolveSettings(ctx, actor.CompanyID)
	if err != nil {
		return correction.Response{}, err
	}
	today := utils.CivilDate(s.clock.Now(), settings.Location())

	date := req.ParsedDate()
	endDate := req.ParsedEndDate()
	if err := checkDates(req.Type, date, endDate, today); err != nil {
		return correction.Response{}, err
	}

	var created correction.Request
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		exists, err := s.Repository.ExistsActive(ctx, actor.EmployeeID, actor.CompanyID, date, req.Type)
		if err != nil {
			return fmt.Errorf("failed to check existing corrections: %w", err)
		}
		if exists {
			return correction.ErrDuplicateCorrectionRequest
		}

		record := correction.Request{
			EmployeeID:    actor.EmployeeID,
			CompanyID:     actor.CompanyID,
			Type:          req.Type,
			Date:          date,
			EndDate:       endDate,
			RequestedTime: req.RequestedTime,
			Reason:        req.Reason,
			EvidenceURL:   req.EvidenceURL,
			Status:        correction.StatusPending,
		}

		if req.Type.AffectsAttendance() {
			backing, err := s.ensureAttendance(ctx, actor.EmployeeID, actor.CompanyID, date)
			if err != nil {
				return err
			}
			record.AttendanceID = &backing.ID
		}

		created, err = s.Repository.Create(ctx, record)
		return err
	})
	if err != nil {
		return correction.Response{}, err
	}

	s.audit.Record(ctx, audit.Log{
		Action:     audit.ActionCorrectionSubmit,
		EntityType: "correction",
		EntityID:   created.ID,
		Metadata:   map[string]interface{}{"type": string(created.Type), "date": created.Date.Format(utils.DateLayout)},
	})
	return correction.NewResponse(created), nil
}

// checkDates enforces the submission window. Leave may run into the future
// but must start inside the window.
func checkDates(t correction.Type, date time.Time, endDate *time.Time, today time.Time) error {
	earliest := today.AddDate(0, 0, -SubmitWindowDays)
	if date.Before(earliest) {
		return correction.ErrDateOutsideWindow
	}

	if t != correction.TypeLeaveRequest {
		if date.After(today) {
			return correction.ErrFutureDate
		}
		return nil
	}

	if endDate != nil {
		if endDate.Before(date) {
			return fmt.Errorf("%w: end_date is before date", correction.ErrInvalidDateRange)
		}
		if utils.DaysBetween(date, *endDate)+1 > correction.MaxLeaveDays {
			return fmt.Errorf("%w: leave spans more than %d days", correction.ErrInvalidDateRange, correction.MaxLeaveDays)
		}
	}
	return nil
}

// ensureAttendance returns the row for the day, creating a PENDING
// placeholder without punches when none exists.
func (s *CorrectionServiceImpl) ensureAttendance(ctx context.Context, employeeID, companyID string, date time.Time) (attendance.Attendance, error) {
	rec, err := s.attendanceRepo.GetByEmployeeAndDate(ctx, employeeID, date, companyID)
	if err == nil {
		return rec, nil
	}
	if !errors.Is(err, attendance.ErrAttendanceNotFound) {
		return attendance.Attendance{}, fmt.Errorf("failed to get attendance: %w", err)
	}
	return s.attendanceRepo.Create(ctx, attendance.Attendance{
		EmployeeID: employeeID,
		CompanyID:  companyID,
		Date:       date,
		Status:     attendance.StatusPending,
	})
}

// ========== REVIEW ==========

func (s *CorrectionServiceImpl) Review(ctx context.Context, req correction.ReviewRequest) (correction.ReviewResponse, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return correction.ReviewResponse{}, err
	}
	if !user.HasPermission(actor.Role, user.PermissionCorrectionReview) {
		return correction.ReviewResponse{}, user.ErrManagerAccessRequired
	}
	if err := req.Validate(); err != nil {
		return correction.ReviewResponse{}, err
	}

	settings, err := s.companyService.ResolveSettings(ctx, actor.CompanyID)
	if err != nil {
		return correction.ReviewResponse{}, err
	}
	now := s.clock.Now()

	var (
		reviewed correction.Request
		touched  []time.Time
		skipped  []string
	)
	err = s.tx.WithinTransaction(ctx, func(ctx context.Context) error {
		c, err := s.Repository.GetByIDForUpdate(ctx, req.ID, actor.CompanyID)
		if err != nil {
			return err
		}
		if c.Status != correction.StatusPending {
			return correction.ErrCorrectionAlreadyReviewed
		}

		if req.Decision == correction.DecisionApprove {
			ap := approval{svc: s, settings: settings, reviewerID: actor.UserID, now: now}
			if err := ap.apply(ctx, c, req.ApprovedTime); err != nil {
				return err
			}
			touched, skipped = ap.touched, ap.skipped
			c.Status = correction.StatusApproved
		} else {
			c.Status = correction.StatusRejected
		}

		c.ReviewedBy = &actor.UserID
		c.ReviewedAt = &now
		c.ReviewReason = req.ReviewReason
		if err := s.Repository.Update(ctx, c); err != nil {
			return err
		}
		reviewed = c
		return nil
	})
	if err != nil {
		return correction.ReviewResponse{}, err
	}

	if len(touched) > 0 {
		s.trigger.Schedule(reviewed.CompanyID, reviewed.EmployeeID, touched...)
	}
	s.notifier.Notify(ctx, notification.Message{
		CompanyID:   reviewed.CompanyID,
		RecipientID: reviewed.EmployeeID,
		SenderID:    &actor.UserID,
		Type:        notification.TypeCorrectionReviewed,
		Title:       "Correction " + string(reviewed.Status),
		Message:     fmt.Sprintf("Your %s request for %s was %s", reviewed.Type, reviewed.Date.Format(utils.DateLayout), reviewed.Status),
		Data: map[string]interface{}{
			"correction_id": reviewed.ID,
			"status":        string(reviewed.Status),
		},
	})
	s.audit.Record(ctx, audit.Log{
		Action:     audit.ActionCorrectionReview,
		EntityType: "correction",
		EntityID:   reviewed.ID,
		Metadata: map[string]interface{}{
			"decision":      string(req.Decision),
			"affected_days": len(touched),
			"skipped_days":  len(skipped),
		},
	})

	return correction.ReviewResponse{
		Correction:   correction.NewResponse(reviewed),
		SkippedDates: skipped,
	}, nil
}

// approval applies an approved correction to attendance inside the review
// transaction and remembers which days it changed.
type approval struct {
	svc        *CorrectionServiceImpl
	settings   company.Settings
	reviewerID string
	now        time.Time

	touched []time.Time
	skipped []string
}

func (ap *approval) apply(ctx context.Context, c correction.Request, approvedTime *string) error {
	switch c.Type {
	case correction.TypeLeaveRequest:
		return ap.applyLeave(ctx, c)
	case correction.TypeMissedPunchIn, correction.TypeMissedPunchOut, correction.TypeAttendanceMiss:
		return ap.applyDay(ctx, c, approvedTime)
	default:
		// support and salary requests carry no attendance change
		return nil
	}
}

func (ap *approval) applyDay(ctx context.Context, c correction.Request, approvedTime *string) error {
	rec, err := ap.svc.ensureAttendance(ctx, c.EmployeeID, c.CompanyID, c.Date)
	if err != nil {
		return err
	}
	if rec.Status != attendance.StatusApproved {
		if err := attendance.ValidateTransition(rec.Status, attendance.StatusApproved); err != nil {
			return err
		}
	}

	loc := ap.settings.Location()
	shiftStart, shiftEnd := ap.settings.ShiftWindow(c.Date)

	clockValue := c.RequestedTime
	if approvedTime != nil {
		clockValue = approvedTime
	}

	switch c.Type {
	case correction.TypeMissedPunchIn:
		at, err := ap.resolveClock(c.Date, clockValue, loc)
		if err != nil {
			return err
		}
		rec.PunchIn = &at
		// a past day must not stay an open session
		if rec.PunchOut == nil && shiftEnd.Before(ap.now) && shiftEnd.After(at) {
			rec.PunchOut = &shiftEnd
		}
	case correction.TypeMissedPunchOut:
		at, err := ap.resolveClock(c.Date, clockValue, loc)
		if err != nil {
			return err
		}
		if rec.PunchIn != nil && !at.After(*rec.PunchIn) {
			// overnight shift punched out after midnight
			at = at.AddDate(0, 0, 1)
		}
		rec.PunchOut = &at
		if rec.PunchIn == nil {
			rec.PunchIn = &shiftStart
		}
	case correction.TypeAttendanceMiss:
		if rec.PunchIn == nil {
			rec.PunchIn = &shiftStart
		}
		if rec.PunchOut == nil {
			rec.PunchOut = &shiftEnd
		}
	}

	rec.Status = attendance.StatusApproved
	rec.WorkingHours = salary.GetShiftHoursForSalary(shiftStart, shiftEnd, ap.settings.MaxDailyHours)
	rec.OvertimeHours = 0
	if rec.PunchIn != nil && rec.PunchOut != nil {
		worked := rec.PunchOut.Sub(*rec.PunchIn).Hours()
		rec.OvertimeHours = utils.RoundHours(math.Max(0, worked-ap.settings.OvertimeThresholdHours))
	}
	rec.ApprovedBy = &ap.reviewerID
	rec.ApprovedAt = &ap.now
	note := fmt.Sprintf("corrected: %s", c.Type)
	rec.Note = &note

	if err := ap.svc.attendanceRepo.Update(ctx, rec); err != nil {
		return err
	}
	ap.touched = append(ap.touched, rec.Date)
	return nil
}

func (ap *approval) resolveClock(date time.Time, value *string, loc *time.Location) (time.Time, error) {
	if value == nil {
		return time.Time{}, fmt.Errorf("%w: requested_time is missing", correction.ErrInvalidDateRange)
	}
	clockTime, err := time.Parse("15:04", *value)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: invalid time %q", correction.ErrInvalidDateRange, *value)
	}
	return utils.At(date, clockTime, loc), nil
}

// applyLeave marks every calendar day of the range as LEAVE. Existing rows
// are updated in place; rows that cannot move to LEAVE are reported back.
func (ap *approval) applyLeave(ctx context.Context, c correction.Request) error {
	last := c.LastDate()
	for day := c.Date; !day.After(last); day = day.AddDate(0, 0, 1) {
		rec, err := ap.svc.attendanceRepo.GetByEmployeeAndDate(ctx, c.EmployeeID, day, c.CompanyID)
		if errors.Is(err, attendance.ErrAttendanceNotFound) {
			if _, err := ap.svc.attendanceRepo.Create(ctx, attendance.Attendance{
				EmployeeID: c.EmployeeID,
				CompanyID:  c.CompanyID,
				Date:       day,
				Status:     attendance.StatusLeave,
				ApprovedBy: &ap.reviewerID,
				ApprovedAt: &ap.now,
			}); err != nil {
				return fmt.Errorf("failed to create leave day %s: %w", day.Format(utils.DateLayout), err)
			}
			ap.touched = append(ap.touched, day)
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to get attendance: %w", err)
		}
		if rec.Status == attendance.StatusLeave {
			continue
		}
		if !attendance.CanTransition(rec.Status, attendance.StatusLeave) {
			ap.skipped = append(ap.skipped, day.Format(utils.DateLayout))
			continue
		}

		rec.Status = attendance.StatusLeave
		rec.WorkingHours = 0
		rec.OvertimeHours = 0
		if rec.IsOpen() {
			punchOut := *rec.PunchIn
			rec.PunchOut = &punchOut
		}
		rec.ApprovedBy = &ap.reviewerID
		rec.ApprovedAt = &ap.now
		if err := ap.svc.attendanceRepo.Update(ctx, rec); err != nil {
			return err
		}
		ap.touched = append(ap.touched, day)
	}
	return nil
}

// ========== QUERIES ==========

func (s *CorrectionServiceImpl) Get(ctx context.Context, id string) (correction.Response, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return correction.Response{}, err
	}
	c, err := s.Repository.GetByID(ctx, id, actor.CompanyID)
	if err != nil {
		return correction.Response{}, err
	}
	if !user.HasPermission(actor.Role, user.PermissionCorrectionReview) && c.EmployeeID != actor.EmployeeID {
		return correction.Response{}, correction.ErrCorrectionNotFound
	}
	return correction.NewResponse(c), nil
}

func (s *CorrectionServiceImpl) ListMine(ctx context.Context, filter correction.ListFilter) (correction.ListResponse, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return correction.ListResponse{}, err
	}
	if actor.EmployeeID == "" {
		return correction.ListResponse{}, user.ErrEmployeeIDRequired
	}
	filter.EmployeeID = &actor.EmployeeID
	return s.list(ctx, filter, actor.CompanyID)
}

// ListPending lists the review queue; a status filter widens it to any status.
func (s *CorrectionServiceImpl) ListPending(ctx context.Context, filter correction.ListFilter) (correction.ListResponse, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return correction.ListResponse{}, err
	}
	if !user.HasPermission(actor.Role, user.PermissionCorrectionReview) {
		return correction.ListResponse{}, user.ErrManagerAccessRequired
	}
	if filter.Status == nil {
		pending := correction.StatusPending
		filter.Status = &pending
	}
	filter.EmployeeID = nil
	return s.list(ctx, filter, actor.CompanyID)
}

func (s *CorrectionServiceImpl) list(ctx context.Context, filter correction.ListFilter, companyID string) (correction.ListResponse, error) {
	if err := filter.Validate(); err != nil {
		return correction.ListResponse{}, err
	}
	items, total, err := s.Repository.List(ctx, filter, companyID)
	if err != nil {
		return correction.ListResponse{}, fmt.Errorf("failed to list corrections: %w", err)
	}
	resp := correction.ListResponse{
		TotalCount:  total,
		Page:        filter.Page,
		Limit:       filter.Limit,
		Corrections: make([]correction.Response, 0, len(items)),
	}
	for _, c := range items {
		resp.Corrections = append(resp.Corrections, correction.NewResponse(c))
	}
	return resp, nil
}
