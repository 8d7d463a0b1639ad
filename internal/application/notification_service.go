package application

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/notification"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/logger"
)

// NotificationService はユーザーごとの通知受信箱を扱う
type NotificationService struct {
	repo notification.Repository
}

func NewNotificationService(repo notification.Repository) *NotificationService {
	return &NotificationService{repo: repo}
}

// NotificationList は通知一覧と未読件数
type NotificationList struct {
	Notifications []*notification.Notification
	UnreadCount   int
}

// List は最新の通知と未読件数を並行して取得する
func (s *NotificationService) List(ctx context.Context, userID string) (*NotificationList, error) {
	var out NotificationList
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		list, err := s.repo.ListByUser(gctx, userID, notification.ListLimit)
		out.Notifications = list
		return err
	})
	g.Go(func() error {
		count, err := s.repo.CountUnread(gctx, userID)
		out.UnreadCount = count
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &out, nil
}

func (s *NotificationService) MarkAsRead(ctx context.Context, id, userID string) (*notification.Notification, error) {
	return s.repo.MarkRead(ctx, id, userID)
}

func (s *NotificationService) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	return s.repo.MarkAllRead(ctx, userID)
}

func (s *NotificationService) Delete(ctx context.Context, id, userID string) error {
	return s.repo.Delete(ctx, id, userID)
}

// Record はメッセージハンドラーから受け取った通知を保存する
func (s *NotificationService) Record(ctx context.Context, n *notification.Notification) error {
	if err := s.repo.Create(ctx, n); err != nil {
		return fmt.Errorf("通知の保存に失敗: %w", err)
	}
	logger.FromContext(ctx).Debug("通知を保存しました",
		zap.String("notification_id", n.ID),
		zap.String("user_id", n.UserID),
		zap.String("type", string(n.Type)),
	)
	return nil
}
