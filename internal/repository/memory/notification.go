package memory

import (
	"context"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
)

type notificationRepository struct {
	store *Store
}

func NewNotificationRepository(store *Store) notification.Repository {
	return &notificationRepository{store: store}
}

func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []notification.Notification) error {
	return r.store.write(ctx, func() error {
		for _, n := range notifications {
			r.store.notifications[n.ID] = n
		}
		return nil
	})
}

func (r *notificationRepository) mine(companyID, recipientID string, unreadOnly bool) []notification.Notification {
	var out []notification.Notification
	r.store.read(func() {
		all := sortedValues(r.store.notifications, func(a, b notification.Notification) bool {
			return a.CreatedAt.After(b.CreatedAt)
		})
		for _, n := range all {
			if n.CompanyID == companyID && n.RecipientID == recipientID && (!unreadOnly || !n.IsRead) {
				out = append(out, n)
			}
		}
	})
	return out
}

func (r *notificationRepository) ListByRecipient(ctx context.Context, companyID, recipientID string, page, pageSize int, unreadOnly bool) ([]notification.Notification, int64, error) {
	items := r.mine(companyID, recipientID, unreadOnly)
	return paginate(items, page, pageSize), int64(len(items)), nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, companyID, recipientID string) (int64, error) {
	return int64(len(r.mine(companyID, recipientID, true))), nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, companyID, recipientID string, ids []string) (int64, error) {
	var changed int64
	err := r.store.write(ctx, func() error {
		now := time.Now()
		for _, id := range ids {
			n, ok := r.store.notifications[id]
			if !ok || n.CompanyID != companyID || n.RecipientID != recipientID || n.IsRead {
				continue
			}
			n.IsRead = true
			n.ReadAt = &now
			r.store.notifications[id] = n
			changed++
		}
		return nil
	})
	return changed, err
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, companyID, recipientID string) error {
	return r.store.write(ctx, func() error {
		now := time.Now()
		for id, n := range r.store.notifications {
			if n.CompanyID == companyID && n.RecipientID == recipientID && !n.IsRead {
				n.IsRead = true
				n.ReadAt = &now
				r.store.notifications[id] = n
			}
		}
		return nil
	})
}
