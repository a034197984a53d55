package http

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/cashbook"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type CashbookHandler interface {
	Create(w http.ResponseWriter, r *http.Request)
	Edit(w http.ResponseWriter, r *http.Request)
	Delete(w http.ResponseWriter, r *http.Request)
	Reverse(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	List(w http.ResponseWriter, r *http.Request)
	Balance(w http.ResponseWriter, r *http.Request)
}

type cashbookHandlerImpl struct {
	cashbookService cashbook.Service
}

func NewCashbookHandler(cashbookService cashbook.Service) CashbookHandler {
	return &cashbookHandlerImpl{cashbookService: cashbookService}
}

// Create implements CashbookHandler.
func (h *cashbookHandlerImpl) Create(w http.ResponseWriter, r *http.Request) {
	var req cashbook.CreateEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.cashbookService.CreateEntry(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Cashbook entry created", result)
}

// Edit implements CashbookHandler.
func (h *cashbookHandlerImpl) Edit(w http.ResponseWriter, r *http.Request) {
	var req cashbook.EditEntryRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.cashbookService.EditEntry(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Cashbook entry updated", result)
}

// Delete implements CashbookHandler.
func (h *cashbookHandlerImpl) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.cashbookService.DeleteEntry(r.Context(), chi.URLParam(r, "id")); err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Cashbook entry deleted", nil)
}

// Reverse implements CashbookHandler.
func (h *cashbookHandlerImpl) Reverse(w http.ResponseWriter, r *http.Request) {
	result, err := h.cashbookService.ReverseEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Cashbook entry reversed", result)
}

// Get implements CashbookHandler.
func (h *cashbookHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.cashbookService.GetEntry(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// List implements CashbookHandler.
func (h *cashbookHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := cashbook.ListFilter{
		EmployeeID:      getStringQueryParam(r, "employee_id"),
		StartDate:       getStringQueryParam(r, "start_date"),
		EndDate:         getStringQueryParam(r, "end_date"),
		IncludeReversed: getBoolQueryParam(r, "include_reversed", false),
		Page:            getIntQueryParam(r, "page", 1),
		Limit:           getIntQueryParam(r, "limit", 20),
	}
	if t := getStringQueryParam(r, "transaction_type"); t != nil {
		tt := cashbook.TransactionType(*t)
		filter.TransactionType = &tt
	}

	result, err := h.cashbookService.ListEntries(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// Balance implements CashbookHandler.
func (h *cashbookHandlerImpl) Balance(w http.ResponseWriter, r *http.Request) {
	result, err := h.cashbookService.GetBalance(r.Context(), cashbook.BalanceRequest{
		StartDate: getStringQueryParam(r, "start_date"),
		EndDate:   getStringQueryParam(r, "end_date"),
	})
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
