package messaging

import (
	"context"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/lithammer/shortuuid/v3"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/booking"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/notification"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/logger"
)

// NotificationRecorder は受信したイベントから作った通知を保存する
type NotificationRecorder interface {
	Record(ctx context.Context, n *notification.Notification) error
}

// SubscriberFactory はハンドラーごとの購読者を作成する
type SubscriberFactory func(handlerName string) (message.Subscriber, error)

// RouterDeps はメッセージルーターの依存
type RouterDeps struct {
	Logger      watermill.LoggerAdapter
	Subscribers SubscriberFactory
	Recorder    NotificationRecorder
}

// NewRouter は予約イベントを通知に変換するハンドラーを登録したルーターを作成する
func NewRouter(deps RouterDeps) (*message.Router, error) {
	router, err := message.NewRouter(message.RouterConfig{}, deps.Logger)
	if err != nil {
		return nil, fmt.Errorf("ルーター作成に失敗: %w", err)
	}

	router.AddMiddleware(
		middleware.Recoverer,
		correlationIDMiddleware,
		handlerLogMiddleware,
		middleware.Retry{
			MaxRetries:      5,
			InitialInterval: 100 * time.Millisecond,
			MaxInterval:     time.Second,
			Multiplier:      2,
			Logger:          deps.Logger,
		}.Middleware,
	)

	ep, err := cqrs.NewEventProcessorWithConfig(router, cqrs.EventProcessorConfig{
		SubscriberConstructor: func(params cqrs.EventProcessorSubscriberConstructorParams) (message.Subscriber, error) {
			return deps.Subscribers(params.HandlerName)
		},
		GenerateSubscribeTopic: func(params cqrs.EventProcessorGenerateSubscribeTopicParams) (string, error) {
			return params.EventName, nil
		},
		Marshaler: marshaler,
		Logger:    deps.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("EventProcessor作成に失敗: %w", err)
	}

	err = ep.AddHandlers(
		cqrs.NewEventHandler("notify-booking-confirmed", handleBookingConfirmed(deps.Recorder)),
		cqrs.NewEventHandler("notify-booking-cancelled", handleBookingCancelled(deps.Recorder)),
	)
	if err != nil {
		return nil, fmt.Errorf("ハンドラー登録に失敗: %w", err)
	}

	return router, nil
}

func handleBookingConfirmed(rec NotificationRecorder) func(ctx context.Context, e *booking.ConfirmedEvent) error {
	return func(ctx context.Context, e *booking.ConfirmedEvent) error {
		n, err := notification.NewBookingConfirmed(e.UserID, e.BookingID, e.TicketCode, e.EventTitle, e.OccurredAt)
		if err != nil {
			// 再試行しても直らないため破棄する
			logger.FromContext(ctx).Warn("不正な予約確定イベントを破棄", zap.String("booking_id", e.BookingID), zap.Error(err))
			return nil
		}
		return rec.Record(ctx, n)
	}
}

func handleBookingCancelled(rec NotificationRecorder) func(ctx context.Context, e *booking.CancelledEvent) error {
	return func(ctx context.Context, e *booking.CancelledEvent) error {
		n, err := notification.NewBookingCancelled(e.UserID, e.BookingID, e.TicketCode, e.OccurredAt)
		if err != nil {
			logger.FromContext(ctx).Warn("不正なキャンセルイベントを破棄", zap.String("booking_id", e.BookingID), zap.Error(err))
			return nil
		}
		return rec.Record(ctx, n)
	}
}

func correlationIDMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		correlationID := middleware.MessageCorrelationID(msg)
		if correlationID == "" {
			correlationID = "gen_" + shortuuid.New()
		}
		msg.SetContext(logger.WithRequestID(msg.Context(), correlationID))
		return next(msg)
	}
}

func handlerLogMiddleware(next message.HandlerFunc) message.HandlerFunc {
	return func(msg *message.Message) ([]*message.Message, error) {
		log := logger.FromContext(msg.Context()).With(
			zap.String("message_uuid", msg.UUID),
			zap.String("handler", message.HandlerNameFromCtx(msg.Context())),
		)
		log.Debug("メッセージ処理開始")

		msgs, err := next(msg)
		if err != nil {
			log.Error("メッセージ処理エラー", zap.Error(err))
		}
		return msgs, err
	}
}
