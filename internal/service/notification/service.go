package notification

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/cmlabs-hris/payroll-engine/internal/domain/notification"
	"github.com/cmlabs-hris/payroll-engine/internal/domain/user"
	"github.com/cmlabs-hris/payroll-engine/internal/pkg/sse"
	"github.com/google/uuid"
)

// Config holds notification service configuration
type Config struct {
	BatchSize     int           // default: 100
	FlushInterval time.Duration // default: 5 seconds
	WorkerCount   int           // default: 2
	QueueSize     int           // default: 1000
}

type NotificationServiceImpl struct {
	notification.Repository
	hub    *sse.Hub
	config Config

	queue    chan notification.Message
	wg       sync.WaitGroup
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewNotificationService starts the batching workers. Stop must be called on shutdown.
func NewNotificationService(repo notification.Repository, hub *sse.Hub, cfg Config) *NotificationServiceImpl {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 100
	}
	if cfg.FlushInterval <= 0 {
		cfg.FlushInterval = 5 * time.Second
	}
	if cfg.WorkerCount <= 0 {
		cfg.WorkerCount = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 1000
	}

	s := &NotificationServiceImpl{
		Repository: repo,
		hub:        hub,
		config:     cfg,
		queue:      make(chan notification.Message, cfg.QueueSize),
		stopCh:     make(chan struct{}),
	}

	for i := 0; i < cfg.WorkerCount; i++ {
		s.wg.Add(1)
		go s.worker(i)
	}

	slog.Info("notification service started",
		"workers", cfg.WorkerCount, "batch_size", cfg.BatchSize, "flush_interval", cfg.FlushInterval)
	return s
}

func hubKey(companyID, recipientID string) string {
	return companyID + ":" + recipientID
}

func newNotification(msg notification.Message) notification.Notification {
	return notification.Notification{
		ID:          uuid.NewString(),
		CompanyID:   msg.CompanyID,
		RecipientID: msg.RecipientID,
		SenderID:    msg.SenderID,
		Type:        msg.Type,
		Title:       msg.Title,
		Message:     msg.Message,
		Data:        msg.Data,
		CreatedAt:   time.Now(),
	}
}

// store persists a batch and pushes it to live subscribers.
func (s *NotificationServiceImpl) store(ctx context.Context, batch []notification.Notification) error {
	if err := s.Repository.CreateBatch(ctx, batch); err != nil {
		return err
	}
	for _, n := range batch {
		s.hub.Publish(hubKey(n.CompanyID, n.RecipientID), sse.Event{
			Event: "notification",
			Data:  notification.NewResponse(n),
		})
	}
	return nil
}

func (s *NotificationServiceImpl) worker(id int) {
	defer s.wg.Done()

	batch := make([]notification.Notification, 0, s.config.BatchSize)
	ticker := time.NewTicker(s.config.FlushInterval)
	defer ticker.Stop()

	flush := func() {
		if len(batch) == 0 {
			return
		}
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := s.store(ctx, batch); err != nil {
			slog.Error("notification batch insert failed", "worker", id, "count", len(batch), "error", err)
		}
		batch = batch[:0]
	}

	for {
		select {
		case msg := <-s.queue:
			batch = append(batch, newNotification(msg))
			if len(batch) >= s.config.BatchSize {
				flush()
			}
		case <-ticker.C:
			flush()
		case <-s.stopCh:
			// drain what is already queued
			for {
				select {
				case msg := <-s.queue:
					batch = append(batch, newNotification(msg))
				default:
					flush()
					return
				}
			}
		}
	}
}

// Notify implements notification.Notifier.
func (s *NotificationServiceImpl) Notify(ctx context.Context, msg notification.Message) {
	if msg.RecipientID == "" || msg.CompanyID == "" {
		return
	}

	select {
	case <-s.stopCh:
		slog.Warn("notification dropped after shutdown", "type", msg.Type)
		return
	default:
	}

	select {
	case s.queue <- msg:
	default:
		// Queue full, insert directly
		if err := s.store(ctx, []notification.Notification{newNotification(msg)}); err != nil {
			slog.Error("notification direct insert failed", "type", msg.Type, "error", err)
		}
	}
}

func (s *NotificationServiceImpl) List(ctx context.Context, req notification.ListRequest) (notification.ListResponse, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return notification.ListResponse{}, err
	}
	if actor.EmployeeID == "" {
		return notification.ListResponse{}, user.ErrEmployeeIDRequired
	}
	if req.Page < 1 {
		req.Page = 1
	}
	if req.PageSize < 1 || req.PageSize > 100 {
		req.PageSize = 20
	}

	items, total, err := s.Repository.ListByRecipient(ctx, actor.CompanyID, actor.EmployeeID, req.Page, req.PageSize, req.UnreadOnly)
	if err != nil {
		return notification.ListResponse{}, err
	}
	unread, err := s.Repository.UnreadCount(ctx, actor.CompanyID, actor.EmployeeID)
	if err != nil {
		return notification.ListResponse{}, err
	}

	resp := notification.ListResponse{
		Notifications: make([]notification.Response, 0, len(items)),
		Total:         total,
		UnreadCount:   unread,
		Page:          req.Page,
		PageSize:      req.PageSize,
	}
	for _, n := range items {
		resp.Notifications = append(resp.Notifications, notification.NewResponse(n))
	}
	return resp, nil
}

func (s *NotificationServiceImpl) UnreadCount(ctx context.Context) (notification.UnreadCountResponse, error) {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return notification.UnreadCountResponse{}, err
	}
	if actor.EmployeeID == "" {
		return notification.UnreadCountResponse{}, user.ErrEmployeeIDRequired
	}
	n, err := s.Repository.UnreadCount(ctx, actor.CompanyID, actor.EmployeeID)
	if err != nil {
		return notification.UnreadCountResponse{}, err
	}
	return notification.UnreadCountResponse{UnreadCount: n}, nil
}

func (s *NotificationServiceImpl) MarkAsRead(ctx context.Context, req notification.MarkAsReadRequest) error {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return err
	}
	if actor.EmployeeID == "" {
		return user.ErrEmployeeIDRequired
	}
	if err := req.Validate(); err != nil {
		return err
	}
	changed, err := s.Repository.MarkAsRead(ctx, actor.CompanyID, actor.EmployeeID, req.NotificationIDs)
	if err != nil {
		return err
	}
	if changed == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

func (s *NotificationServiceImpl) MarkAllAsRead(ctx context.Context) error {
	actor, err := user.ActorFromContext(ctx)
	if err != nil {
		return err
	}
	if actor.EmployeeID == "" {
		return user.ErrEmployeeIDRequired
	}
	return s.Repository.MarkAllAsRead(ctx, actor.CompanyID, actor.EmployeeID)
}

// Subscribe creates an SSE subscription for a recipient
func (s *NotificationServiceImpl) Subscribe(ctx context.Context, companyID, recipientID string) (<-chan notification.SSEEvent, func()) {
	ch, cleanup := s.hub.Subscribe(hubKey(companyID, recipientID))

	out := make(chan notification.SSEEvent, 10)
	go func() {
		defer close(out)
		for {
			select {
			case event, ok := <-ch:
				if !ok {
					return
				}
				resp, ok := event.Data.(notification.Response)
				if !ok {
					continue
				}
				select {
				case out <- notification.SSEEvent{Event: event.Event, Data: resp}:
				case <-ctx.Done():
					return
				}
			case <-ctx.Done():
				return
			}
		}
	}()

	return out, cleanup
}

// Stop flushes pending notifications and stops the workers.
func (s *NotificationServiceImpl) Stop() {
	s.stopOnce.Do(func() {
		close(s.stopCh)
		s.wg.Wait()
		slog.Info("notification service stopped")
	})
}

var _ notification.Service = (*NotificationServiceImpl)(nil)
