package notification

import (
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/pkg/validator"
)

// Message is what domain services hand to the Notifier.
type Message struct {
	CompanyID   string
	RecipientID string
	SenderID    *string
	Type        Type
	Title       string
	Message     string
	Data        map[string]interface{}
}

type ListRequest struct {
	Page       int
	PageSize   int
	UnreadOnly bool
}

type MarkAsReadRequest struct {
	NotificationIDs []string `json:"notification_ids"`
}

func (r *MarkAsReadRequest) Validate() error {
	var errs validator.ValidationErrors
	if len(r.NotificationIDs) == 0 {
		errs.Add("notification_ids", "at least one notification id is required")
	}
	for _, id := range r.NotificationIDs {
		if !validator.IsValidUUID(id) {
			errs.Add("notification_ids", "notification ids must be valid UUIDs")
			break
		}
	}
	return errs.Err()
}

type Response struct {
	ID        string                 `json:"id"`
	Type      Type                   `json:"type"`
	Title     string                 `json:"title"`
	Message   string                 `json:"message"`
	Data      map[string]interface{} `json:"data,omitempty"`
	IsRead    bool                   `json:"is_read"`
	ReadAt    *time.Time             `json:"read_at,omitempty"`
	CreatedAt time.Time              `json:"created_at"`
}

func NewResponse(n Notification) Response {
	return Response{
		ID:        n.ID,
		Type:      n.Type,
		Title:     n.Title,
		Message:   n.Message,
		Data:      n.Data,
		IsRead:    n.IsRead,
		ReadAt:    n.ReadAt,
		CreatedAt: n.CreatedAt,
	}
}

type ListResponse struct {
	Notifications []Response `json:"notifications"`
	Total         int64      `json:"total"`
	UnreadCount   int64      `json:"unread_count"`
	Page          int        `json:"page"`
	PageSize      int        `json:"page_size"`
}

type UnreadCountResponse struct {
	UnreadCount int64 `json:"unread_count"`
}

type SSETokenResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
}

type SSEEvent struct {
	Event string   `json:"event"`
	Data  Response `json:"data"`
}
