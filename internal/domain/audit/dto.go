package audit

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

type ListFilter struct {
	EntityType *string `json:"entity_type,omitempty"`
	EntityID   *string `json:"entity_id,omitempty"`
	Action     *Action `json:"action,omitempty"`

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
	return errs.Err()
}

type Response struct {
	ID         string                 `json:"id"`
	ActorID    *string                `json:"actor_id,omitempty"`
	Action     Action                 `json:"action"`
	EntityType string                 `json:"entity_type"`
	EntityID   string                 `json:"entity_id"`
	Metadata   map[string]interface{} `json:"metadata,omitempty"`
	CreatedAt  string                 `json:"created_at"`
}

func NewResponse(l Log) Response {
	return Response{
		ID:         l.ID,
		ActorID:    l.ActorID,
		Action:     l.Action,
		EntityType: l.EntityType,
		EntityID:   l.EntityID,
		Metadata:   l.Metadata,
		CreatedAt:  l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type ListResponse struct {
	TotalCount int64      `json:"total_count"`
	Page       int        `json:"page"`
	Limit      int        `json:"limit"`
	Logs       []Response `json:"logs"`
}
