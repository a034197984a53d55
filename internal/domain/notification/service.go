package notification

import "context"

// Notifier queues a message for a recipient. It never blocks on delivery and
// never fails the calling operation.
type Notifier interface {
	Notify(ctx context.Context, msg Message)
}

type Service interface {
	Notifier

	List(ctx context.Context, req ListRequest) (ListResponse, error)
	UnreadCount(ctx context.Context) (UnreadCountResponse, error)
	MarkAsRead(ctx context.Context, req MarkAsReadRequest) error
	MarkAllAsRead(ctx context.Context) error

	// Subscribe streams newly stored notifications for the given recipient
	Subscribe(ctx context.Context, companyID, recipientID string) (<-chan SSEEvent, func())

	Stop()
}
