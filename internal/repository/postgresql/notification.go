package postgresql

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/database"
	"github.com/google/uuid"
)

type notificationRepository struct {
	db *database.DB
}

func NewNotificationRepository(db *database.DB) notification.Repository {
	return &notificationRepository{db: db}
}

// CreateBatch inserts all notifications in one statement
func (r *notificationRepository) CreateBatch(ctx context.Context, notifications []notification.Notification) error {
	if len(notifications) == 0 {
		return nil
	}

	q := GetQuerier(ctx, r.db)

	valueStrings := make([]string, 0, len(notifications))
	valueArgs := make([]interface{}, 0, len(notifications)*10)

	for i, n := range notifications {
		if n.ID == "" {
			n.ID = uuid.NewString()
		}
		if n.CreatedAt.IsZero() {
			n.CreatedAt = time.Now()
		}

		dataJSON, err := json.Marshal(n.Data)
		if err != nil {
			return fmt.Errorf("failed to marshal notification data: %w", err)
		}

		base := i * 10
		valueStrings = append(valueStrings, fmt.Sprintf(
			"($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d)",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9, base+10,
		))
		valueArgs = append(valueArgs,
			n.ID,
			n.CompanyID,
			n.RecipientID,
			n.SenderID,
			string(n.Type),
			n.Title,
			n.Message,
			dataJSON,
			n.IsRead,
			n.CreatedAt,
		)
	}

	query := fmt.Sprintf(`
		INSERT INTO notifications (id, company_id, recipient_id, sender_id, type, title, message, data, is_read, created_at)
		VALUES %s
	`, strings.Join(valueStrings, ", "))

	if _, err := q.Exec(ctx, query, valueArgs...); err != nil {
		return fmt.Errorf("failed to batch create notifications: %w", err)
	}
	return nil
}

// ListByRecipient returns a page of the recipient's feed, newest first
func (r *notificationRepository) ListByRecipient(ctx context.Context, companyID, recipientID string, page, pageSize int, unreadOnly bool) ([]notification.Notification, int64, error) {
	q := GetQuerier(ctx, r.db)

	where := "company_id = $1 AND recipient_id = $2"
	if unreadOnly {
		where += " AND is_read = false"
	}

	var total int64
	if err := q.QueryRow(ctx, "SELECT COUNT(*) FROM notifications WHERE "+where, companyID, recipientID).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `
		SELECT id, company_id, recipient_id, sender_id, type, title, message, data, is_read, read_at, created_at
		FROM notifications
		WHERE ` + where + `
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := q.Query(ctx, query, companyID, recipientID, pageSize, (page-1)*pageSize)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list notifications: %w", err)
	}
	defer rows.Close()

	var items []notification.Notification
	for rows.Next() {
		var (
			n        notification.Notification
			dataJSON []byte
		)
		if err := rows.Scan(
			&n.ID, &n.CompanyID, &n.RecipientID, &n.SenderID, &n.Type, &n.Title, &n.Message,
			&dataJSON, &n.IsRead, &n.ReadAt, &n.CreatedAt,
		); err != nil {
			return nil, 0, fmt.Errorf("failed to scan notification: %w", err)
		}
		if len(dataJSON) > 0 {
			if err := json.Unmarshal(dataJSON, &n.Data); err != nil {
				return nil, 0, fmt.Errorf("failed to unmarshal notification data: %w", err)
			}
		}
		items = append(items, n)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r *notificationRepository) UnreadCount(ctx context.Context, companyID, recipientID string) (int64, error) {
	query := `
		SELECT COUNT(*)
		FROM notifications
		WHERE company_id = $1 AND recipient_id = $2 AND is_read = false
	`
	var count int64
	if err := GetQuerier(ctx, r.db).QueryRow(ctx, query, companyID, recipientID).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}
	return count, nil
}

// MarkAsRead marks specific notifications as read
func (r *notificationRepository) MarkAsRead(ctx context.Context, companyID, recipientID string, ids []string) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE company_id = $2 AND recipient_id = $3 AND id = ANY($4) AND is_read = false
	`
	tag, err := GetQuerier(ctx, r.db).Exec(ctx, query, time.Now(), companyID, recipientID, ids)
	if err != nil {
		return 0, fmt.Errorf("failed to mark notifications as read: %w", err)
	}
	return tag.RowsAffected(), nil
}

// MarkAllAsRead marks all notifications as read for a recipient
func (r *notificationRepository) MarkAllAsRead(ctx context.Context, companyID, recipientID string) error {
	query := `
		UPDATE notifications
		SET is_read = true, read_at = $1
		WHERE company_id = $2 AND recipient_id = $3 AND is_read = false
	`
	if _, err := GetQuerier(ctx, r.db).Exec(ctx, query, time.Now(), companyID, recipientID); err != nil {
		return fmt.Errorf("failed to mark all notifications as read: %w", err)
	}
	return nil
}
