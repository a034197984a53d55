package http

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/salary"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type SalaryHandler interface {
	Generate(w http.ResponseWriter, r *http.Request)
	GetOrCreate(w http.ResponseWriter, r *http.Request)
	GeneratePeriod(w http.ResponseWriter, r *http.Request)
	Recalculate(w http.ResponseWriter, r *http.Request)
	Approve(w http.ResponseWriter, r *http.Request)
	Reject(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)

	// Ledger
	RecordPayment(w http.ResponseWriter, r *http.Request)
	RecordRecovery(w http.ResponseWriter, r *http.Request)
	RecordDeduction(w http.ResponseWriter, r *http.Request)
	MarkPaid(w http.ResponseWriter, r *http.Request)
}

type salaryHandlerImpl struct {
	salaryService salary.SalaryService
	ledgerService salary.LedgerService
}

func NewSalaryHandler(salaryService salary.SalaryService, ledgerService salary.LedgerService) SalaryHandler {
	return &salaryHandlerImpl{
		salaryService: salaryService,
		ledgerService: ledgerService,
	}
}

// Generate implements SalaryHandler.
func (h *salaryHandlerImpl) Generate(w http.ResponseWriter, r *http.Request) {
	var req salary.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.salaryService.GenerateSalary(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Salary generated", result)
}

// GetOrCreate implements SalaryHandler.
func (h *salaryHandlerImpl) GetOrCreate(w http.ResponseWriter, r *http.Request) {
	var req salary.GenerateRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.salaryService.GetOrCreateSalary(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// GeneratePeriod implements SalaryHandler.
func (h *salaryHandlerImpl) GeneratePeriod(w http.ResponseWriter, r *http.Request) {
	var req salary.GeneratePeriodRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.salaryService.GeneratePeriod(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Recalculate implements SalaryHandler.
func (h *salaryHandlerImpl) Recalculate(w http.ResponseWriter, r *http.Request) {
	result, err := h.salaryService.RecalculateSalary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary recalculated", result)
}

// Approve implements SalaryHandler.
func (h *salaryHandlerImpl) Approve(w http.ResponseWriter, r *http.Request) {
	result, err := h.salaryService.ApproveSalary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary approved", result)
}

// Reject implements SalaryHandler.
func (h *salaryHandlerImpl) Reject(w http.ResponseWriter, r *http.Request) {
	var req salary.RejectRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.salaryService.RejectSalary(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary rejected", result)
}

// Get implements SalaryHandler.
func (h *salaryHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.salaryService.GetSalary(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements SalaryHandler.
func (h *salaryHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := salary.ListFilter{
		EmployeeID: getStringQueryParam(r, "employee_id"),
		Month:      getOptionalIntQueryParam(r, "month"),
		Year:       getOptionalIntQueryParam(r, "year"),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 20),
	}
	if status := getStringQueryParam(r, "status"); status != nil {
		s := salary.Status(*status)
		filter.Status = &s
	}

	result, err := h.salaryService.ListSalaries(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ========== Ledger ==========

func (h *salaryHandlerImpl) recordMovement(w http.ResponseWriter, r *http.Request, record func(*http.Request, salary.MoneyMovementRequest) (salary.LedgerEntryResponse, error), message string) {
	var req salary.MoneyMovementRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := record(r, req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, message, result)
}

// RecordPayment implements SalaryHandler.
func (h *salaryHandlerImpl) RecordPayment(w http.ResponseWriter, r *http.Request) {
	h.recordMovement(w, r, func(r *http.Request, req salary.MoneyMovementRequest) (salary.LedgerEntryResponse, error) {
		return h.ledgerService.RecordPayment(r.Context(), req)
	}, "Payment recorded")
}

// RecordRecovery implements SalaryHandler.
func (h *salaryHandlerImpl) RecordRecovery(w http.ResponseWriter, r *http.Request) {
	h.recordMovement(w, r, func(r *http.Request, req salary.MoneyMovementRequest) (salary.LedgerEntryResponse, error) {
		return h.ledgerService.RecordRecovery(r.Context(), req)
	}, "Recovery recorded")
}

// RecordDeduction implements SalaryHandler.
func (h *salaryHandlerImpl) RecordDeduction(w http.ResponseWriter, r *http.Request) {
	h.recordMovement(w, r, func(r *http.Request, req salary.MoneyMovementRequest) (salary.LedgerEntryResponse, error) {
		return h.ledgerService.RecordDeduction(r.Context(), req)
	}, "Deduction recorded")
}

// MarkPaid implements SalaryHandler.
func (h *salaryHandlerImpl) MarkPaid(w http.ResponseWriter, r *http.Request) {
	var req salary.MarkPaidRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.SalaryID = chi.URLParam(r, "id")

	result, err := h.ledgerService.MarkSalaryPaid(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Salary marked as paid", result)
}
