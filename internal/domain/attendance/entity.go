package attendance

import (
	"time"
)

type Status string

const (
	StatusPending  Status = "PENDING"
	StatusApproved Status = "APPROVED"
	StatusRejected Status = "REJECTED"
	StatusAbsent   Status = "ABSENT"
	StatusLeave    Status = "LEAVE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusApproved, StatusRejected, StatusAbsent, StatusLeave:
		return true
	}
	return false
}

// Attendance is one employee's record for one civil date in the company
// timezone. Date is normalized to midnight UTC; PunchIn and PunchOut are
// absolute instants.
type Attendance struct {
	ID                string
	EmployeeID        string
	CompanyID         string
	Date              time.Time
	PunchIn           *time.Time
	PunchOut          *time.Time
	PunchInProofURL   *string
	PunchOutProofURL  *string
	PunchInLatitude   *float64
	PunchInLongitude  *float64
	PunchOutLatitude  *float64
	PunchOutLongitude *float64
	Status            Status
	WorkingHours      float64
	OvertimeHours     float64
	IsLate            bool
	LateMinutes       int
	Note              *string
	ApprovedBy        *string
	ApprovedAt        *time.Time
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// IsOpen reports whether the record is a punched-in session awaiting punch-out.
func (a Attendance) IsOpen() bool {
	return a.PunchIn != nil && a.PunchOut == nil
}

// IsPlaceholder reports whether the record was created ahead of any punch,
// typically by a correction request.
func (a Attendance) IsPlaceholder() bool {
	return a.PunchIn == nil && a.PunchOut == nil && a.Status == StatusPending
}
