package attendance

import "errors"

// Attendance domain errors
var (
	ErrAlreadyOpenSession = errors.New("an attendance session is already open")
	ErrNoOpenSession      = errors.New("no open attendance session")
	ErrPunchInNotAllowed  = errors.New("punch-in not allowed")
	ErrPunchOutNotAllowed = errors.New("punch-out not allowed")
	ErrPunchInProgress    = errors.New("another punch for this employee is in progress")

	ErrAlreadyInStatus         = errors.New("attendance is already in the requested status")
	ErrCannotRejectApproved    = errors.New("approved attendance cannot be rejected")
	ErrCannotApproveRejected   = errors.New("rejected attendance cannot be approved")
	ErrInvalidStatusTransition = errors.New("invalid attendance status transition")

	ErrAttendanceNotFound  = errors.New("attendance record not found")
	ErrDuplicateAttendance = errors.New("attendance already exists for this date")
	ErrInvalidHours        = errors.New("working hours out of range")
)

// PolicyError is a punch refusal carrying a human readable reason.
type PolicyError struct {
	Err    error
	Reason string
}

func (e *PolicyError) Error() string {
	return e.Err.Error() + ": " + e.Reason
}

func (e *PolicyError) Unwrap() error {
	return e.Err
}

func PunchInNotAllowed(reason string) error {
	return &PolicyError{Err: ErrPunchInNotAllowed, Reason: reason}
}

func PunchOutNotAllowed(reason string) error {
	return &PolicyError{Err: ErrPunchOutNotAllowed, Reason: reason}
}
