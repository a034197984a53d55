package correction

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/utils"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// MaxLeaveDays bounds a single leave request range.
const MaxLeaveDays = 31

type SubmitRequest struct {
	Type          Type    `json:"type"`
	Date          string  `json:"date"`               // YYYY-MM-DD
	EndDate       *string `json:"end_date,omitempty"` // YYYY-MM-DD, leave only
	RequestedTime *string `json:"requested_time,omitempty"`
	Reason        string  `json:"reason"`
	EvidenceURL   *string `json:"evidence_url,omitempty"`

	date    time.Time
	endDate *time.Time
}

func (r *SubmitRequest) Validate() error {
	var errs validator.ValidationErrors

	if !r.Type.Valid() {
		errs.Add("type", "type must be one of MISSED_PUNCH_IN, MISSED_PUNCH_OUT, ATTENDANCE_MISS, LEAVE_REQUEST, SUPPORT_REQUEST, SALARY_REQUEST")
	}
	if d, ok := validator.IsValidDate(r.Date); !ok {
		errs.Add("date", "date must be in YYYY-MM-DD format")
	} else {
		r.date = d
	}
	if r.EndDate != nil {
		if r.Type != TypeLeaveRequest {
			errs.Add("end_date", "end_date is only allowed for LEAVE_REQUEST")
		} else if d, ok := validator.IsValidDate(*r.EndDate); !ok {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		} else {
			r.endDate = &d
		}
	}
	if r.Type.NeedsTime() {
		if r.RequestedTime == nil {
			errs.Add("requested_time", "requested_time is required for this type")
		} else if _, ok := validator.IsValidTimeOfDay(*r.RequestedTime); !ok {
			errs.Add("requested_time", "requested_time must be in HH:MM format")
		}
	}
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	} else if len(r.Reason) > 500 {
		errs.Add("reason", "reason must not exceed 500 characters")
	}
	if r.EvidenceURL != nil && !validator.IsValidURL(*r.EvidenceURL) {
		errs.Add("evidence_url", "evidence_url must be an http(s) URL")
	}

	return errs.Err()
}

// ParsedDate returns the start date. Valid only after Validate succeeds.
func (r *SubmitRequest) ParsedDate() time.Time { return r.date }

// ParsedEndDate returns the end date or nil. Valid only after Validate succeeds.
func (r *SubmitRequest) ParsedEndDate() *time.Time { return r.endDate }

type ReviewRequest struct {
	ID           string   `json:"-"`
	Decision     Decision `json:"decision"`
	ApprovedTime *string  `json:"approved_time,omitempty"` // overrides requested_time
	ReviewReason *string  `json:"review_reason,omitempty"`
}

func (r *ReviewRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if r.Decision != DecisionApprove && r.Decision != DecisionReject {
		errs.Add("decision", "decision must be APPROVE or REJECT")
	}
	if r.ApprovedTime != nil {
		if _, ok := validator.IsValidTimeOfDay(*r.ApprovedTime); !ok {
			errs.Add("approved_time", "approved_time must be in HH:MM format")
		}
	}
	if r.Decision == DecisionReject && (r.ReviewReason == nil || validator.IsEmpty(*r.ReviewReason)) {
		errs.Add("review_reason", "review_reason is required when rejecting")
	}

	return errs.Err()
}

type ListFilter struct {
	Status *Status `json:"status,omitempty"`
	Type   *Type   `json:"type,omitempty"`

	// set by the service
	EmployeeID *string `json:"-"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *ListFilter) Validate() error {
	var errs validator.ValidationErrors
	if f.Page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 || f.Limit > 100 {
		errs.Add("limit", "limit must be between 1 and 100")
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Type != nil && !f.Type.Valid() {
		errs.Add("type", "invalid type")
	}
	return errs.Err()
}

type Response struct {
	ID            string  `json:"id"`
	EmployeeID    string  `json:"employee_id"`
	AttendanceID  *string `json:"attendance_id,omitempty"`
	Type          Type    `json:"type"`
	Date          string  `json:"date"`
	EndDate       *string `json:"end_date,omitempty"`
	RequestedTime *string `json:"requested_time,omitempty"`
	Reason        string  `json:"reason"`
	EvidenceURL   *string `json:"evidence_url,omitempty"`
	Status        Status  `json:"status"`
	ReviewedBy    *string `json:"reviewed_by,omitempty"`
	ReviewedAt    *string `json:"reviewed_at,omitempty"`
	ReviewReason  *string `json:"review_reason,omitempty"`
	CreatedAt     string  `json:"created_at"`
}

func NewResponse(r Request) Response {
	resp := Response{
		ID:            r.ID,
		EmployeeID:    r.EmployeeID,
		AttendanceID:  r.AttendanceID,
		Type:          r.Type,
		Date:          r.Date.Format(utils.DateLayout),
		RequestedTime: r.RequestedTime,
		Reason:        r.Reason,
		EvidenceURL:   r.EvidenceURL,
		Status:        r.Status,
		ReviewedBy:    r.ReviewedBy,
		ReviewReason:  r.ReviewReason,
		CreatedAt:     r.CreatedAt.UTC().Format(time.RFC3339),
	}
	if r.EndDate != nil {
		s := r.EndDate.Format(utils.DateLayout)
		resp.EndDate = &s
	}
	if r.ReviewedAt != nil {
		s := r.ReviewedAt.UTC().Format(time.RFC3339)
		resp.ReviewedAt = &s
	}
	return resp
}

type ReviewResponse struct {
	Correction Response `json:"correction"`
	// SkippedDates lists leave days whose attendance could not move to LEAVE.
	SkippedDates []string `json:"skipped_dates,omitempty"`
}

type ListResponse struct {
	TotalCount  int64      `json:"total_count"`
	Page        int        `json:"page"`
	Limit       int        `json:"limit"`
	Corrections []Response `json:"corrections"`
}
