package audit

import "time"

type Action string

const (
	ActionPunchIn           Action = "attendance.punch_in"
	ActionPunchOut          Action = "attendance.punch_out"
	ActionAutoClose         Action = "attendance.auto_close"
	ActionSetStatus         Action = "attendance.set_status"
	ActionUpdateHours       Action = "attendance.update_hours"
	ActionCorrectionSubmit  Action = "correction.submit"
	ActionCorrectionReview  Action = "correction.review"
	ActionSalaryGenerate    Action = "salary.generate"
	ActionSalaryRecalculate Action = "salary.recalculate"
	ActionSalaryApprove     Action = "salary.approve"
	ActionSalaryReject      Action = "salary.reject"
	ActionSalaryMarkPaid    Action = "salary.mark_paid"
	ActionLedgerRecord      Action = "ledger.record"
	ActionCashbookCreate    Action = "cashbook.create"
	ActionCashbookEdit      Action = "cashbook.edit"
	ActionCashbookDelete    Action = "cashbook.delete"
	ActionCashbookReverse   Action = "cashbook.reverse"
	ActionSettingsUpdate    Action = "company.settings_update"
)

// Log is an immutable record of a mutating operation.
type Log struct {
	ID         string
	CompanyID  string
	ActorID    *string // nil for system tasks
	Action     Action
	EntityType string
	EntityID   string
	Metadata   map[string]interface{}
	CreatedAt  time.Time
}
