package http

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/company"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
)

type CompanyHandler interface {
	GetSettings(w http.ResponseWriter, r *http.Request)
	UpdateSettings(w http.ResponseWriter, r *http.Request)
}

type companyHandlerImpl struct {
	companyService company.CompanyService
}

func NewCompanyHandler(companyService company.CompanyService) CompanyHandler {
	return &companyHandlerImpl{companyService: companyService}
}

// GetSettings implements CompanyHandler.
func (h *companyHandlerImpl) GetSettings(w http.ResponseWriter, r *http.Request) {
	result, err := h.companyService.GetSettings(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}

// UpdateSettings implements CompanyHandler.
func (h *companyHandlerImpl) UpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req company.UpdateSettingsRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.companyService.UpdateSettings(r.Context(), req)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Company settings updated", result)
}
