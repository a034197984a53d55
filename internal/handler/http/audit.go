package http

import (
	"net/http"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/audit"
	"github.com/cmlabs-hris/payroll-engine/internal/handler/http/response"
)

type AuditHandler interface {
	List(w http.ResponseWriter, r *http.Request)
}

type auditHandlerImpl struct {
	auditService audit.Service
}

func NewAuditHandler(auditService audit.Service) AuditHandler {
	return &auditHandlerImpl{auditService: auditService}
}

// List implements AuditHandler.
func (h *auditHandlerImpl) List(w http.ResponseWriter, r *http.Request) {
	filter := audit.ListFilter{
		EntityType: getStringQueryParam(r, "entity_type"),
		EntityID:   getStringQueryParam(r, "entity_id"),
		Page:       getIntQueryParam(r, "page", 1),
		Limit:      getIntQueryParam(r, "limit", 20),
	}
	if action := getStringQueryParam(r, "action"); action != nil {
		a := audit.Action(*action)
		filter.Action = &a
	}

	result, err := h.auditService.List(r.Context(), filter)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.Success(w, result)
}
