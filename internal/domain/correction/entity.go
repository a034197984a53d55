package correction

import "time"

type Type string

const (
	TypeMissedPunchIn  Type = "MISSED_PUNCH_IN"
	TypeMissedPunchOut Type = "MISSED_PUNCH_OUT"
	TypeAttendanceMiss Type = "ATTENDANCE_MISS"
	TypeLeaveRequest   Type = "LEAVE_REQUEST"
	TypeSupport        Type = "SUPPORT_REQUEST"
	TypeSalary         Type = "SALARY_REQUEST"
)

func (t Type) Valid() bool {
	switch t {
	case TypeMissedPunchIn, TypeMissedPunchOut, TypeAttendanceMiss, TypeLeaveRequest, TypeSupport, TypeSalary:
		return true
	}
	return false
}

// AffectsAttendance reports whether the type is backed by a single attendance row.
func (t Type) AffectsAttendance() bool {
	return t == TypeMissedPunchIn || t == TypeMissedPunchOut || t == TypeAttendanceMiss
}

// NeedsTime reports whether the request must carry a wall-clock time.
func (t Type) NeedsTime() bool {
	return t == TypeMissedPunchIn || t == TypeMissedPunchOut
}

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
)

type Decision string

const (
	DecisionApprove Decision = "APPROVE"
	DecisionReject  Decision = "REJECT"
)

// Request is an employee's ask to fix or add attendance for a past day, or
// to take leave over a date range.
type Request struct {
	ID            string
	EmployeeID    string
	CompanyID     string
	AttendanceID  *string
	Type          Type
	Date          time.Time
	EndDate       *time.Time
	RequestedTime *string // "HH:MM" in company timezone
	Reason        string
	EvidenceURL   *string
	Status        Status
	ReviewedBy    *string
	ReviewedAt    *time.Time
	ReviewReason  *string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// LastDate returns the final day covered by the request.
func (r Request) LastDate() time.Time {
	if r.EndDate != nil {
		return *r.EndDate
	}
	return r.Date
}
