package attendance

import (
	"context"
)

// AttendanceService defines business logic for attendance operations
type AttendanceService interface {
	// PunchIn opens today's session for the authenticated employee
	PunchIn(ctx context.Context, req PunchInRequest) (AttendanceResponse, error)

	// PunchOut closes the open session of the authenticated employee
	PunchOut(ctx context.Context, req PunchOutRequest) (AttendanceResponse, error)

	// SetStatus moves a record through the status table (manager)
	SetStatus(ctx context.Context, req SetStatusRequest) (AttendanceResponse, error)

	// UpdateHours overrides computed hours on a record (manager)
	UpdateHours(ctx context.Context, req UpdateHoursRequest) (AttendanceResponse, error)

	GetAttendance(ctx context.Context, id string) (AttendanceResponse, error)
	ListAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)
	GetMyAttendance(ctx context.Context, filter AttendanceFilter) (ListAttendanceResponse, error)
}
