package notification

import "time"

type Type string

const (
	TypeAttendanceStatusChanged Type = "attendance_status_changed"
	TypeAttendanceAutoClosed    Type = "attendance_auto_closed"
	TypeCorrectionReviewed      Type = "correction_reviewed"
	TypeSalaryPaid              Type = "salary_paid"
)

// Notification is addressed to an employee of a company. Delivery beyond the
// in-app feed and SSE stream is handled by other systems reading this table.
type Notification struct {
	ID          string
	CompanyID   string
	RecipientID string
	SenderID    *string
	Type        Type
	Title       string
	Message     string
	Data        map[string]interface{}
	IsRead      bool
	ReadAt      *time.Time
	CreatedAt   time.Time
}
