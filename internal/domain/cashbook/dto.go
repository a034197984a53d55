package cashbook

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/utils"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
	"github.com/shopspring/decimal"
)

// CreateEntryRequest records a company movement that is not tied to a salary.
type CreateEntryRequest struct {
	EmployeeID       *string         `json:"employee_id,omitempty"`
	TransactionType  TransactionType `json:"transaction_type"`
	Direction        Direction       `json:"direction"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentMode      PaymentMode     `json:"payment_mode"`
	PaymentReference *string         `json:"payment_reference,omitempty"`
	Description      string          `json:"description"`
	TransactionDate  string          `json:"transaction_date"` // YYYY-MM-DD
}

func (r *CreateEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if !r.TransactionType.Valid() {
		errs.Add("transaction_type", "invalid transaction_type")
	} else if r.TransactionType == TypeSalaryPayment || r.TransactionType == TypeRecovery || r.TransactionType == TypeDeduction {
		errs.Add("transaction_type", "salary movements must be recorded through the salary ledger")
	}
	if !r.Direction.Valid() {
		errs.Add("direction", "direction must be CREDIT or DEBIT")
	}
	if !validator.IsPositiveAmount(r.Amount) {
		errs.Add("amount", "amount must be greater than zero")
	}
	if !r.PaymentMode.Valid() {
		errs.Add("payment_mode", "invalid payment_mode")
	}
	if validator.IsEmpty(r.Description) {
		errs.Add("description", "description is required")
	}
	if _, ok := validator.IsValidDate(r.TransactionDate); !ok {
		errs.Add("transaction_date", "transaction_date must be in YYYY-MM-DD format")
	}

	return errs.Err()
}

// EditEntryRequest patches a cashbook entry; nil fields are left unchanged.
type EditEntryRequest struct {
	ID              string           `json:"-"`
	Amount          *decimal.Decimal `json:"amount,omitempty"`
	Direction       *Direction       `json:"direction,omitempty"`
	PaymentMode     *PaymentMode     `json:"payment_mode,omitempty"`
	Description     *string          `json:"description,omitempty"`
	TransactionDate *string          `json:"transaction_date,omitempty"`
	EmployeeID      *string          `json:"employee_id,omitempty"`
}

func (r *EditEntryRequest) Validate() error {
	var errs validator.ValidationErrors

	if validator.IsEmpty(r.ID) {
		errs.Add("id", "id is required")
	}
	if r.Amount != nil && !validator.IsPositiveAmount(*r.Amount) {
		errs.Add("amount", "amount must be greater than zero")
	}
	if r.Direction != nil && !r.Direction.Valid() {
		errs.Add("direction", "direction must be CREDIT or DEBIT")
	}
	if r.PaymentMode != nil && !r.PaymentMode.Valid() {
		errs.Add("payment_mode", "invalid payment_mode")
	}
	if r.Description != nil && validator.IsEmpty(*r.Description) {
		errs.Add("description", "description must not be empty")
	}
	if r.TransactionDate != nil {
		if _, ok := validator.IsValidDate(*r.TransactionDate); !ok {
			errs.Add("transaction_date", "transaction_date must be in YYYY-MM-DD format")
		}
	}

	return errs.Err()
}

type ListFilter struct {
	EmployeeID      *string          `json:"employee_id,omitempty"`
	TransactionType *TransactionType `json:"transaction_type,omitempty"`
	StartDate       *string          `json:"start_date,omitempty"`
	EndDate         *string          `json:"end_date,omitempty"`
	IncludeReversed bool             `json:"include_reversed"`

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
	if f.TransactionType != nil && !f.TransactionType.Valid() {
		errs.Add("transaction_type", "invalid transaction_type")
	}
	if f.StartDate != nil {
		if _, ok := validator.IsValidDate(*f.StartDate); !ok {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
	}
	if f.EndDate != nil {
		if _, ok := validator.IsValidDate(*f.EndDate); !ok {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
	}
	return errs.Err()
}

type BalanceRequest struct {
	StartDate *string `json:"start_date,omitempty"`
	EndDate   *string `json:"end_date,omitempty"`
}

// Range parses the optional bounds; zero times mean unbounded.
func (r BalanceRequest) Range() (from, to time.Time, err error) {
	var errs validator.ValidationErrors
	if r.StartDate != nil {
		d, ok := validator.IsValidDate(*r.StartDate)
		if !ok {
			errs.Add("start_date", "start_date must be in YYYY-MM-DD format")
		}
		from = d
	}
	if r.EndDate != nil {
		d, ok := validator.IsValidDate(*r.EndDate)
		if !ok {
			errs.Add("end_date", "end_date must be in YYYY-MM-DD format")
		}
		to = d
	}
	return from, to, errs.Err()
}

type EntryResponse struct {
	ID               string          `json:"id"`
	EmployeeID       *string         `json:"employee_id,omitempty"`
	TransactionType  TransactionType `json:"transaction_type"`
	Direction        Direction       `json:"direction"`
	Amount           decimal.Decimal `json:"amount"`
	PaymentMode      PaymentMode     `json:"payment_mode"`
	Reference        *string         `json:"reference,omitempty"`
	PaymentReference *string         `json:"payment_reference,omitempty"`
	Description      string          `json:"description"`
	TransactionDate  string          `json:"transaction_date"`
	IsReversed       bool            `json:"is_reversed"`
	CreatedBy        string          `json:"created_by"`
	CreatedAt        string          `json:"created_at"`
}

func NewEntryResponse(e Entry) EntryResponse {
	return EntryResponse{
		ID:               e.ID,
		EmployeeID:       e.EmployeeID,
		TransactionType:  e.TransactionType,
		Direction:        e.Direction,
		Amount:           e.Amount,
		PaymentMode:      e.PaymentMode,
		Reference:        e.Reference,
		PaymentReference: e.PaymentReference,
		Description:      e.Description,
		TransactionDate:  e.TransactionDate.Format(utils.DateLayout),
		IsReversed:       e.IsReversed,
		CreatedBy:        e.CreatedBy,
		CreatedAt:        e.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type ListResponse struct {
	TotalCount int64           `json:"total_count"`
	Page       int             `json:"page"`
	Limit      int             `json:"limit"`
	Entries    []EntryResponse `json:"entries"`
}
