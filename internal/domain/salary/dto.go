package salary

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashbook"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/employee"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

type GenerateRequest struct {
	EmployeeID string `json:"employee_id"`
	Month      int    `json:"month"`
	Year       int    `json:"year"`
}

func (r *GenerateRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidUUID(r.EmployeeID) {
		errs.Add("employee_id", "employee_id must be a valid UUID")
	}
	if !validator.IsValidPeriod(r.Month, r.Year) {
		errs.Add("month", "month must be 1-12 and year between 2000 and 2100")
	}
	return errs.Err()
}

type GeneratePeriodRequest struct {
	Month int `json:"month"`
	Year  int `json:"year"`
}

func (r *GeneratePeriodRequest) Validate() error {
	var errs validator.ValidationErrors
	if !validator.IsValidPeriod(r.Month, r.Year) {
		errs.Add("month", "month must be 1-12 and year between 2000 and 2100")
	}
	return errs.Err()
}

type GeneratePeriodFailure struct {
	EmployeeID string `json:"employee_id"`
	Error      string `json:"error"`
}

type GeneratePeriodResult struct {
	Month     int                     `json:"month"`
	Year      int                     `json:"year"`
	Generated int                     `json:"generated"`
	Skipped   int                     `json:"skipped"`
	Failed    []GeneratePeriodFailure `json:"failed,omitempty"`
}

type RejectRequest struct {
	ID     string `json:"-"`
	Reason string `json:"reason"`
}

func (r *RejectRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if validator.IsEmpty(r.Reason) {
		errs.Add("reason", "reason is required")
	}
	return errs.Err()
}

type ListFilter struct {
	EmployeeID *string `json:"employee_id,omitempty"`
	Month      *int    `json:"month,omitempty"`
	Year       *int    `json:"year,omitempty"`
	Status     *Status `json:"status,omitempty"`

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
	if f.Month != nil && (*f.Month < 1 || *f.Month > 12) {
		errs.Add("month", "month must be between 1 and 12")
	}
	return errs.Err()
}

// MoneyMovementRequest identifies the salary either by id or by period.
type MoneyMovementRequest struct {
	SalaryID         *string              `json:"salary_id,omitempty"`
	EmployeeID       *string              `json:"employee_id,omitempty"`
	Month            *int                 `json:"month,omitempty"`
	Year             *int                 `json:"year,omitempty"`
	Amount           decimal.Decimal      `json:"amount"`
	PaymentMode      cashbook.PaymentMode `json:"payment_mode"`
	PaymentReference *string              `json:"payment_reference,omitempty"`
	Date             string               `json:"date"` // YYYY-MM-DD, backdates the ledger entry
	Reason           string               `json:"reason"`

	date time.Time
}

func (r *MoneyMovementRequest) Validate() error {
	var errs validator.ValidationErrors

	byID := r.SalaryID != nil
	byPeriod := r.EmployeeID != nil && r.Month != nil && r.Year != nil
	switch {
	case byID && !validator.IsValidUUID(*r.SalaryID):
		errs.Add("salary_id", "salary_id must be a valid UUID")
	case !byID && !byPeriod:
		errs.Add("salary_id", "salary_id or employee_id with month and year is required")
	case !byID && !validator.IsValidPeriod(*r.Month, *r.Year):
		errs.Add("month", "month must be 1-12 and year between 2000 and 2100")
	}
	if !validator.IsPositiveAmount(r.Amount) {
		errs.Add("amount", "amount must be greater than zero")
	}
	if !r.PaymentMode.Valid() {
		errs.Add("payment_mode", "invalid payment_mode")
	}
	if d, ok := validator.IsValidDate(r.Date); !ok {
		errs.Add("date", "date must be in YYYY-MM-DD format")
	} else {
		r.date = d
	}
	if len(r.Reason) > 500 {
		errs.Add("reason", "reason must not exceed 500 characters")
	}

	return errs.Err()
}

// ParsedDate is valid only after Validate succeeds.
func (r *MoneyMovementRequest) ParsedDate() time.Time { return r.date }

type MarkPaidRequest struct {
	SalaryID    string               `json:"-"`
	PaymentDate string               `json:"payment_date"`
	Method      cashbook.PaymentMode `json:"method"`
	Reference   *string              `json:"reference,omitempty"`
	Notify      bool                 `json:"notify"`

	date time.Time
}

func (r *MarkPaidRequest) Validate() error {
	var errs validator.ValidationErrors
	if validator.IsEmpty(r.SalaryID) {
		errs.Add("salary_id", "salary_id is required")
	}
	if d, ok := validator.IsValidDate(r.PaymentDate); !ok {
		errs.Add("payment_date", "payment_date must be in YYYY-MM-DD format")
	} else {
		r.date = d
	}
	if !r.Method.Valid() {
		errs.Add("method", "invalid payment method")
	}
	return errs.Err()
}

// ParsedDate is valid only after Validate succeeds.
func (r *MarkPaidRequest) ParsedDate() time.Time { return r.date }

type Response struct {
	ID              string              `json:"id"`
	EmployeeID      string              `json:"employee_id"`
	Month           int                 `json:"month"`
	Year            int                 `json:"year"`
	SalaryType      employee.SalaryType `json:"salary_type"`
	BaseRate        decimal.Decimal     `json:"base_rate"`
	TotalDays       int                 `json:"total_days"`
	ApprovedDays    int                 `json:"approved_days"`
	ApprovedHours   float64             `json:"approved_hours"`
	GrossAmount     decimal.Decimal     `json:"gross_amount"`
	DeductionAmount decimal.Decimal     `json:"deduction_amount"`
	NetAmount       decimal.Decimal     `json:"net_amount"`
	Status          Status              `json:"status"`
	IsLocked        bool                `json:"is_locked"`
	PaidAt          *string             `json:"paid_at,omitempty"`
	ApprovedBy      *string             `json:"approved_by,omitempty"`
	UpdatedAt       string              `json:"updated_at"`
}

func NewResponse(s Salary) Response {
	resp := Response{
		ID:              s.ID,
		EmployeeID:      s.EmployeeID,
		Month:           s.Month,
		Year:            s.Year,
		SalaryType:      s.SalaryType,
		BaseRate:        s.BaseRate,
		TotalDays:       s.TotalDays,
		ApprovedDays:    s.ApprovedDays,
		ApprovedHours:   s.ApprovedHours,
		GrossAmount:     s.GrossAmount,
		DeductionAmount: s.DeductionAmount,
		NetAmount:       s.NetAmount,
		Status:          s.Status,
		IsLocked:        s.IsLocked(),
		ApprovedBy:      s.ApprovedBy,
		UpdatedAt:       s.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if s.PaidAt != nil {
		p := s.PaidAt.UTC().Format(time.RFC3339)
		resp.PaidAt = &p
	}
	return resp
}

type LedgerEntryResponse struct {
	ID              string          `json:"id"`
	SalaryID        string          `json:"salary_id"`
	Type            EntryType       `json:"type"`
	Amount          decimal.Decimal `json:"amount"`
	Reason          string          `json:"reason"`
	CashbookEntryID *string         `json:"cashbook_entry_id,omitempty"`
	CreatedBy       string          `json:"created_by"`
	CreatedAt       string          `json:"created_at"`
}

func NewLedgerEntryResponse(e LedgerEntry) LedgerEntryResponse {
	return LedgerEntryResponse{
		ID:              e.ID,
		SalaryID:        e.SalaryID,
		Type:            e.Type,
		Amount:          e.Amount,
		Reason:          e.Reason,
		CashbookEntryID: e.CashbookEntryID,
		CreatedBy:       e.CreatedBy,
		CreatedAt:       e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type DetailResponse struct {
	Salary  Response              `json:"salary"`
	Balance Balance               `json:"balance"`
	Entries []LedgerEntryResponse `json:"entries"`
}

func NewDetailResponse(s Salary, entries []LedgerEntry) DetailResponse {
	resp := DetailResponse{
		Salary:  NewResponse(s),
		Balance: CalculateSalaryBalance(s, entries),
		Entries: make([]LedgerEntryResponse, 0, len(entries)),
	}
	for _, e := range entries {
		resp.Entries = append(resp.Entries, NewLedgerEntryResponse(e))
	}
	return resp
}

type ListResponse struct {
	TotalCount int64      `json:"total_count"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Salaries   []Response `json:"salaries"`
}

type RecalculationResult struct {
	SalaryID      string          `json:"salary_id"`
	Success       bool            `json:"success"`
	PreviousGross decimal.Decimal `json:"previous_gross"`
	NewGross      decimal.Decimal `json:"new_gross"`
	PreviousNet   decimal.Decimal `json:"previous_net"`
	NewNet        decimal.Decimal `json:"new_net"`
	ApprovedDays  int             `json:"approved_days"`
	ApprovedHours float64         `json:"approved_hours"`
}
