package service

import (
	"context"
	"fmt"

	"github.com/elevare/elevare-backend-go/internal/domain"
	"github.com/elevare/elevare-backend-go/internal/policy"
	"github.com/elevare/elevare-backend-go/internal/port"

	"go.uber.org/zap"
)

const notificationPageSize = 20

// Notifier persists a notification for a user and pushes it to any live
// connection.
type Notifier interface {
	Notify(ctx context.Context, userID string, n *domain.Notification) error
}

type notificationMetrics interface {
	IncrNotification(delivered bool)
}

// NotificationService stores notifications and fans them out through the
// publisher. Delivery is best effort.
type NotificationService struct {
	*Resource[domain.Notification, *domain.Notification]
	publisher port.Publisher
	metrics   notificationMetrics
}

func NewNotificationService(repo port.Repository[domain.Notification], publisher port.Publisher, metrics notificationMetrics, logger *zap.Logger) *NotificationService {
	return &NotificationService{
		Resource:  NewResource[domain.Notification](policy.Notification, repo, logger),
		publisher: publisher,
		metrics:   metrics,
	}
}

// Notify creates a notification on behalf of the system.
func (s *NotificationService) Notify(ctx context.Context, userID string, n *domain.Notification) error {
	ctx, span := tracer.Start(ctx, "NotificationService.Notify")
	defer span.End()

	n.User = userID
	n.IsRead = false
	n.ReadAt = nil
	n.ApplyDefaults()
	n.Stamp(s.now())
	if err := domain.Validate(n); err != nil {
		return err
	}
	if err := s.repo.Insert(ctx, n); err != nil {
		return fmt.Errorf("notify: %w", err)
	}

	delivered := s.publisher != nil && s.publisher.Publish(userID, n)
	if s.metrics != nil {
		s.metrics.IncrNotification(delivered)
	}
	s.logger.Debug("notification created",
		zap.String("user_id", userID),
		zap.String("type", n.Type),
		zap.Bool("delivered", delivered),
	)
	return nil
}

// Recent returns the caller's newest notifications.
func (s *NotificationService) Recent(ctx context.Context, p domain.Principal) ([]domain.Notification, error) {
	return s.List(ctx, p, domain.Query{Limit: notificationPageSize})
}

// MarkRead flags one of the caller's notifications as read.
func (s *NotificationService) MarkRead(ctx context.Context, p domain.Principal, id string) (*domain.Notification, error) {
	ctx, span := tracer.Start(ctx, "NotificationService.MarkRead")
	defer span.End()

	return s.mutate(ctx, p, id, policy.Update, nil, nil, func(prev, next *domain.Notification) error {
		if prev.IsRead {
			return nil
		}
		t := s.now()
		next.IsRead = true
		next.ReadAt = &t
		return nil
	})
}

// notify sends through n when configured, logging failures. Notifications
// never fail the operation that triggered them.
func notify(ctx context.Context, n Notifier, logger *zap.Logger, userID string, msg *domain.Notification) {
	if n == nil || userID == "" {
		return
	}
	if err := n.Notify(ctx, userID, msg); err != nil {
		logger.Warn("notification failed", zap.String("user_id", userID), zap.Error(err))
	}
}
