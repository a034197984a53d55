package correction_test

import (
	"context"
	"testing"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/attendance"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/correction"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine/internal/service/servicetest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Monday 2025-01-06, mid-morning.
var now = time.Date(2025, time.January, 6, 10, 0, 0, 0, time.UTC)

func strPtr(s string) *string { return &s }

func day(d int) time.Time {
	return time.Date(2025, time.January, d, 0, 0, 0, 0, time.UTC)
}

func TestCorrectionService_Submit_CreatesPlaceholder(t *testing.T) {
	// Arrange
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)

	// Act
	resp, err := h.Correction.Submit(h.AsStaff(emp), correction.SubmitRequest{
		Type: correction.TypeMissedPunchIn, Date: "2025-01-03", RequestedTime: strPtr("09:10"), Reason: "phone died",
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, correction.StatusPending, resp.Status)
	require.NotNil(t, resp.AttendanceID)

	rec, err := h.Attendances.GetByID(context.Background(), *resp.AttendanceID, h.CompanyID)
	require.NoError(t, err)
	assert.True(t, rec.IsPlaceholder())
	assert.True(t, rec.Date.Equal(day(3)))
}

func TestCorrectionService_Submit_DateWindow(t *testing.T) {
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	ctx := h.AsStaff(emp)

	tests := []struct {
		name    string
		req     correction.SubmitRequest
		wantErr error
	}{
		{"future", correction.SubmitRequest{Type: correction.TypeAttendanceMiss, Date: "2025-01-07", Reason: "x"}, correction.ErrFutureDate},
		{"too old", correction.SubmitRequest{Type: correction.TypeAttendanceMiss, Date: "2024-12-29", Reason: "x"}, correction.ErrDateOutsideWindow},
		{"leave ends first", correction.SubmitRequest{Type: correction.TypeLeaveRequest, Date: "2025-01-08", EndDate: strPtr("2025-01-07"), Reason: "x"}, correction.ErrInvalidDateRange},
		{"leave too long", correction.SubmitRequest{Type: correction.TypeLeaveRequest, Date: "2025-01-06", EndDate: strPtr("2025-02-10"), Reason: "x"}, correction.ErrInvalidDateRange},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.Correction.Submit(ctx, tt.req)
			assert.ErrorIs(t, err, tt.wantErr)
			assert.ErrorIs(t, err, correction.ErrInvalidDateRange)
		})
	}

	_, err := h.Correction.Submit(ctx, correction.SubmitRequest{
		Type: correction.TypeLeaveRequest, Date: "2025-01-06", EndDate: strPtr("2025-01-10"), Reason: "family",
	})
	assert.NoError(t, err, "leave may extend into the future")
}

func TestCorrectionService_Submit_Duplicate(t *testing.T) {
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	ctx := h.AsStaff(emp)
	req := correction.SubmitRequest{Type: correction.TypeMissedPunchOut, Date: "2025-01-03", RequestedTime: strPtr("18:00"), Reason: "forgot"}

	first, err := h.Correction.Submit(ctx, req)
	require.NoError(t, err)
	_, err = h.Correction.Submit(ctx, req)
	assert.ErrorIs(t, err, correction.ErrDuplicateCorrectionRequest)

	// a rejected request frees the slot
	_, err = h.Correction.Review(h.AsManager(), correction.ReviewRequest{
		ID: first.ID, Decision: correction.DecisionReject, ReviewReason: strPtr("no evidence"),
	})
	require.NoError(t, err)
	_, err = h.Correction.Submit(ctx, req)
	assert.NoError(t, err)
}

func TestCorrectionService_Review_ApproveMissedPunchIn(t *testing.T) {
	// Arrange
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	submitted, err := h.Correction.Submit(h.AsStaff(emp), correction.SubmitRequest{
		Type: correction.TypeMissedPunchIn, Date: "2025-01-03", RequestedTime: strPtr("09:10"), Reason: "phone died",
	})
	require.NoError(t, err)

	// Act
	resp, err := h.Correction.Review(h.AsManager(), correction.ReviewRequest{
		ID: submitted.ID, Decision: correction.DecisionApprove, ApprovedTime: strPtr("09:00"),
	})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, correction.StatusApproved, resp.Correction.Status)

	rec, err := h.Attendances.GetByID(context.Background(), *submitted.AttendanceID, h.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusApproved, rec.Status)
	require.NotNil(t, rec.PunchIn)
	assert.True(t, rec.PunchIn.Equal(day(3).Add(9*time.Hour)), "approved time overrides requested time")
	require.NotNil(t, rec.PunchOut, "a past day is closed at shift end")
	assert.Equal(t, 9.0, rec.WorkingHours)

	s, err := h.SalaryEngine.FindByPeriod(context.Background(), h.CompanyID, emp.ID, 1, 2025)
	require.NoError(t, err)
	assert.Equal(t, 1, s.ApprovedDays)

	msgs := h.Notifier.OfType(notification.TypeCorrectionReviewed)
	require.Len(t, msgs, 1)
	assert.Equal(t, emp.ID, msgs[0].RecipientID)
}

func TestCorrectionService_Review_Twice(t *testing.T) {
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	submitted, err := h.Correction.Submit(h.AsStaff(emp), correction.SubmitRequest{
		Type: correction.TypeAttendanceMiss, Date: "2025-01-03", Reason: "client visit",
	})
	require.NoError(t, err)

	review := correction.ReviewRequest{ID: submitted.ID, Decision: correction.DecisionApprove}
	_, err = h.Correction.Review(h.AsManager(), review)
	require.NoError(t, err)

	_, err = h.Correction.Review(h.AsManager(), review)
	assert.ErrorIs(t, err, correction.ErrCorrectionAlreadyReviewed)
	assert.Len(t, h.Notifier.OfType(notification.TypeCorrectionReviewed), 1)
}

func TestCorrectionService_Review_RejectedAttendanceStaysPending(t *testing.T) {
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	_, err := h.Attendances.Create(context.Background(), attendance.Attendance{
		EmployeeID: emp.ID, CompanyID: h.CompanyID, Date: day(3), Status: attendance.StatusRejected,
	})
	require.NoError(t, err)

	submitted, err := h.Correction.Submit(h.AsStaff(emp), correction.SubmitRequest{
		Type: correction.TypeAttendanceMiss, Date: "2025-01-03", Reason: "was on site",
	})
	require.NoError(t, err)

	_, err = h.Correction.Review(h.AsManager(), correction.ReviewRequest{ID: submitted.ID, Decision: correction.DecisionApprove})
	assert.ErrorIs(t, err, attendance.ErrCannotApproveRejected)

	got, err := h.Correction.Get(h.AsManager(), submitted.ID)
	require.NoError(t, err)
	assert.Equal(t, correction.StatusPending, got.Status)
}

func TestCorrectionService_Review_LeaveRange(t *testing.T) {
	// Arrange
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	ctx := context.Background()
	in := day(6).Add(9 * time.Hour)
	_, err := h.Attendances.Create(ctx, attendance.Attendance{
		EmployeeID: emp.ID, CompanyID: h.CompanyID, Date: day(6), PunchIn: &in, Status: attendance.StatusPending,
	})
	require.NoError(t, err)
	_, err = h.Attendances.Create(ctx, attendance.Attendance{
		EmployeeID: emp.ID, CompanyID: h.CompanyID, Date: day(7), Status: attendance.StatusRejected,
	})
	require.NoError(t, err)

	submitted, err := h.Correction.Submit(h.AsStaff(emp), correction.SubmitRequest{
		Type: correction.TypeLeaveRequest, Date: "2025-01-06", EndDate: strPtr("2025-01-08"), Reason: "wedding",
	})
	require.NoError(t, err)

	// Act
	resp, err := h.Correction.Review(h.AsManager(), correction.ReviewRequest{ID: submitted.ID, Decision: correction.DecisionApprove})

	// Assert
	require.NoError(t, err)
	assert.Equal(t, []string{"2025-01-07"}, resp.SkippedDates)

	for _, d := range []int{6, 8} {
		rec, err := h.Attendances.GetByEmployeeAndDate(ctx, emp.ID, day(d), h.CompanyID)
		require.NoError(t, err)
		assert.Equal(t, attendance.StatusLeave, rec.Status, "day %d", d)
		assert.False(t, rec.IsOpen())
	}
	rejected, err := h.Attendances.GetByEmployeeAndDate(ctx, emp.ID, day(7), h.CompanyID)
	require.NoError(t, err)
	assert.Equal(t, attendance.StatusRejected, rejected.Status)
}

func TestCorrectionService_Review_SupportRequestLeavesAttendance(t *testing.T) {
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	submitted, err := h.Correction.Submit(h.AsStaff(emp), correction.SubmitRequest{
		Type: correction.TypeSupport, Date: "2025-01-06", Reason: "payslip missing",
	})
	require.NoError(t, err)
	assert.Nil(t, submitted.AttendanceID)

	resp, err := h.Correction.Review(h.AsManager(), correction.ReviewRequest{ID: submitted.ID, Decision: correction.DecisionApprove})
	require.NoError(t, err)
	assert.Equal(t, correction.StatusApproved, resp.Correction.Status)

	_, err = h.Attendances.GetByEmployeeAndDate(context.Background(), emp.ID, day(6), h.CompanyID)
	assert.ErrorIs(t, err, attendance.ErrAttendanceNotFound)
}

func TestCorrectionService_Review_RequiresReviewer(t *testing.T) {
	h := servicetest.New(t, now)
	emp := h.AddDailyEmployee(t, "Asha", 1000)
	submitted, err := h.Correction.Submit(h.AsStaff(emp), correction.SubmitRequest{
		Type: correction.TypeAttendanceMiss, Date: "2025-01-03", Reason: "x",
	})
	require.NoError(t, err)

	_, err = h.Correction.Review(h.AsStaff(emp), correction.ReviewRequest{ID: submitted.ID, Decision: correction.DecisionApprove})
	assert.ErrorIs(t, err, user.ErrManagerAccessRequired)
}

func TestCorrectionService_Lists(t *testing.T) {
	h := servicetest.New(t, now)
	asha := h.AddDailyEmployee(t, "Asha", 1000)
	ravi := h.AddDailyEmployee(t, "Ravi", 1000)

	_, err := h.Correction.Submit(h.AsStaff(asha), correction.SubmitRequest{Type: correction.TypeAttendanceMiss, Date: "2025-01-03", Reason: "x"})
	require.NoError(t, err)
	other, err := h.Correction.Submit(h.AsStaff(ravi), correction.SubmitRequest{Type: correction.TypeAttendanceMiss, Date: "2025-01-03", Reason: "y"})
	require.NoError(t, err)

	mine, err := h.Correction.ListMine(h.AsStaff(asha), correction.ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 1, mine.TotalCount)

	pending, err := h.Correction.ListPending(h.AsManager(), correction.ListFilter{})
	require.NoError(t, err)
	assert.EqualValues(t, 2, pending.TotalCount)

	_, err = h.Correction.Get(h.AsStaff(asha), other.ID)
	assert.ErrorIs(t, err, correction.ErrCorrectionNotFound)
}
