package attendance

import (
	"fmt"
	"math"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/utils"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

type PunchInRequest struct {
	ImageProofURL string   `json:"image_proof_url"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
}

func (r *PunchInRequest) Validate() error {
	return validatePunch(r.ImageProofURL, r.Latitude, r.Longitude)
}

type PunchOutRequest struct {
	ImageProofURL string   `json:"image_proof_url"`
	Latitude      *float64 `json:"latitude,omitempty"`
	Longitude     *float64 `json:"longitude,omitempty"`
}

func (r *PunchOutRequest) Validate() error {
	return validatePunch(r.ImageProofURL, r.Latitude, r.Longitude)
}

func validatePunch(proofURL string, lat, lng *float64) error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(proofURL) {
		errs.Add("image_proof_url", "image_proof_url is required")
	} else if !validator.IsValidURL(proofURL) {
		errs.Add("image_proof_url", "image_proof_url must be an http(s) URL")
	}

	if (lat == nil) != (lng == nil) {
		errs.Add("latitude", "latitude and longitude must be provided together")
	}
	if lat != nil && !validator.IsValidLatitude(*lat) {
		errs.Add("latitude", "latitude must be between -90 and 90")
	}
	if lng != nil && !validator.IsValidLongitude(*lng) {
		errs.Add("longitude", "longitude must be between -180 and 180")
	}

	return errs.Err()
}

type SetStatusRequest struct {
	ID     string  `json:"-"`
	Status Status  `json:"status"`
	Reason *string `json:"reason,omitempty"`
}

func (r *SetStatusRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if !r.Status.Valid() {
		errs.Add("status", "status must be one of PENDING, APPROVED, REJECTED, ABSENT, LEAVE")
	}
	if r.Status == StatusRejected && (r.Reason == nil || validator.IsEmpty(*r.Reason)) {
		errs.Add("reason", "reason is required when rejecting")
	}

	return errs.Err()
}

type UpdateHoursRequest struct {
	ID            string   `json:"-"`
	WorkingHours  float64  `json:"working_hours"`
	OvertimeHours *float64 `json:"overtime_hours,omitempty"`
	Reason        string   `json:"reason"`
}

func (r *UpdateHoursRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if r.WorkingHours < 0 || r.WorkingHours > 24 {
		errs.Add("working_hours", "working_hours must be between 0 and 24")
	}
	if r.OvertimeHours != nil && (*r.OvertimeHours < 0 || *r.OvertimeHours > r.WorkingHours) {
		errs.Add("overtime_hours", "overtime_hours must be between 0 and working_hours")
	}
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	}

	return errs.Err()
}

type AttendanceFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	StartDate  *string `json:"start_date,omitempty"` // YYYY-MM-DD
	EndDate    *string `json:"end_date,omitempty"`   // YYYY-MM-DD
	Status     *string `json:"status,omitempty"`

	Page  int `json:"page"`
	Limit int `json:"limit"`
}

func (f *AttendanceFilter) Validate() error {
	var errs validator.ValidationErrors

	if f.Page < 0 {
		errs.Add("page", "page must be a positive number")
	}
	if f.Page == 0 {
		f.Page = 1
	}
	if f.Limit < 0 {
		errs.Add("limit", "limit must be a positive number")
	}
	if f.Limit == 0 {
		f.Limit = 20
	}
	if f.Limit > 100 {
		errs.Add("limit", "limit must not exceed 100")
	}

	var start, end time.Time
	var okStart, okEnd bool
	if f.StartDate != nil {
		if start, okStart = validator.IsValidDate(*f.StartDate); !okStart {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}
	if f.EndDate != nil {
		if end, okEnd = validator.IsValidDate(*f.EndDate); !okEnd {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}
	if okStart && okEnd && end.Before(start) {
		errs.Add("end_date", "end_date must not be before start_date")
	}
	if f.Status != nil && !Status(*f.Status).Valid() {
		errs.Add("status", "invalid status")
	}

	return errs.Err()
}

type AttendanceResponse struct {
	ID               string   `json:"id"`
	EmployeeID       string   `json:"employee_id"`
	Date             string   `json:"date"`
	PunchIn          *string  `json:"punch_in,omitempty"`
	PunchOut         *string  `json:"punch_out,omitempty"`
	PunchInProofURL  *string  `json:"punch_in_proof_url,omitempty"`
	PunchOutProofURL *string  `json:"punch_out_proof_url,omitempty"`
	Latitude         *float64 `json:"latitude,omitempty"`
	Longitude        *float64 `json:"longitude,omitempty"`
	Status           Status   `json:"status"`
	WorkingHours     float64  `json:"working_hours"`
	OvertimeHours    float64  `json:"overtime_hours"`
	IsLate           bool     `json:"is_late"`
	LateMinutes      int      `json:"late_minutes"`
	Note             *string  `json:"note,omitempty"`
	ApprovedBy       *string  `json:"approved_by,omitempty"`
	CreatedAt        string   `json:"created_at"`
	UpdatedAt        string   `json:"updated_at"`
}

func timePtrToString(t *time.Time) *string {
	if t == nil {
		return nil
	}
	s := t.UTC().Format(time.RFC3339)
	return &s
}

func NewAttendanceResponse(a Attendance) AttendanceResponse {
	return AttendanceResponse{
		ID:               a.ID,
		EmployeeID:       a.EmployeeID,
		Date:             a.Date.Format(utils.DateLayout),
		PunchIn:          timePtrToString(a.PunchIn),
		PunchOut:         timePtrToString(a.PunchOut),
		PunchInProofURL:  a.PunchInProofURL,
		PunchOutProofURL: a.PunchOutProofURL,
		Latitude:         a.PunchInLatitude,
		Longitude:        a.PunchInLongitude,
		Status:           a.Status,
		WorkingHours:     a.WorkingHours,
		OvertimeHours:    a.OvertimeHours,
		IsLate:           a.IsLate,
		LateMinutes:      a.LateMinutes,
		Note:             a.Note,
		ApprovedBy:       a.ApprovedBy,
		CreatedAt:        a.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt:        a.UpdatedAt.UTC().Format(time.RFC3339),
	}
}

type ListAttendanceResponse struct {
	TotalCount  int64                `json:"total_count"`
	Page        int                  `json:"page"`
	Limit       int                  `json:"limit"`
	TotalPages  int                  `json:"total_pages"`
	Showing     string               `json:"showing"`
	Attendances []AttendanceResponse `json:"attendances"`
}

func NewListAttendanceResponse(items []Attendance, total int64, page, limit int) ListAttendanceResponse {
	resp := ListAttendanceResponse{
		TotalCount:  total,
		Page:        page,
		Limit:       limit,
		TotalPages:  int(math.Ceil(float64(total) / float64(limit))),
		Attendances: make([]AttendanceResponse, 0, len(items)),
	}
	for _, a := range items {
		resp.Attendances = append(resp.Attendances, NewAttendanceResponse(a))
	}
	from := (page-1)*limit + 1
	to := from + len(items) - 1
	if len(items) == 0 {
		from, to = 0, 0
	}
	resp.Showing = fmt.Sprintf("%d-%d of %d", from, to, total)
	return resp
}
