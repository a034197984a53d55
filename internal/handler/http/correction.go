package http

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/correction"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
	"github.com/go-chi/chi/v5"
)

type CorrectionHandler interface {
	Submit(w http.ResponseWriter, r *http.Request)
	Review(w http.ResponseWriter, r *http.Request)
	Get(w http.ResponseWriter, r *http.Request)
	ListMine(w http.ResponseWriter, r *http.Request)
	ListPending(w http.ResponseWriter, r *http.Request)
}

type correctionHandlerImpl struct {
	correctionService correction.Service
}

func NewCorrectionHandler(correctionService correction.Service) CorrectionHandler {
	return &correctionHandlerImpl{correctionService: correctionService}
}

func correctionFilterFromQuery(r *http.Request) correction.ListFilter {
	filter := correction.ListFilter{
		Page:  getIntQueryParam(r, "page", 1),
		Limit: getIntQueryParam(r, "limit", 20),
	}
	if status := getStringQueryParam(r, "status"); status != nil {
		s := correction.Status(*status)
		filter.Status = &s
	}
	if t := getStringQueryParam(r, "type"); t != nil {
		ct := correction.Type(*t)
		filter.Type = &ct
	}
	return filter
}

// Submit implements CorrectionHandler.
func (h *correctionHandlerImpl) Submit(w http.ResponseWriter, r *http.Request) {
	var req correction.SubmitRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.correctionService.Submit(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Created(w, "Correction request submitted", result)
}

// Review implements CorrectionHandler.
func (h *correctionHandlerImpl) Review(w http.ResponseWriter, r *http.Request) {
	var req correction.ReviewRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	req.ID = chi.URLParam(r, "id")

	result, err := h.correctionService.Review(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Correction request reviewed", result)
}

// Get implements CorrectionHandler.
func (h *correctionHandlerImpl) Get(w http.ResponseWriter, r *http.Request) {
	result, err := h.correctionService.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListMine implements CorrectionHandler.
func (h *correctionHandlerImpl) ListMine(w http.ResponseWriter, r *http.Request) {
	result, err := h.correctionService.ListMine(r.Context(), correctionFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// ListPending implements CorrectionHandler.
func (h *correctionHandlerImpl) ListPending(w http.ResponseWriter, r *http.Request) {
	result, err := h.correctionService.ListPending(r.Context(), correctionFilterFromQuery(r))
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
