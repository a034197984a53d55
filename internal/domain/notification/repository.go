package notification

import "context"

type Repository interface {
	CreateBatch(ctx context.Context, notifications []Notification) error
	ListByRecipient(ctx context.Context, companyID, recipientID string, page, pageSize int, unreadOnly bool) ([]Notification, int64, error)
	UnreadCount(ctx context.Context, companyID, recipientID string) (int64, error)
	// MarkAsRead only touches rows owned by the recipient and returns how many changed
	MarkAsRead(ctx context.Context, companyID, recipientID string, ids []string) (int64, error)
	MarkAllAsRead(ctx context.Context, companyID, recipientID string) error
}
