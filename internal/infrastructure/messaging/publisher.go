package messaging

import (
	"context"
	"fmt"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/components/cqrs"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/lithammer/shortuuid/v3"

	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/logger"
)

// 予約イベントは型名（例: booking.ConfirmedEvent）をそのままトピック名にする
var marshaler = cqrs.JSONMarshaler{GenerateName: cqrs.FullyQualifiedStructName}

// Publisher は予約イベントを通知用のストリームへ発行する
type Publisher struct {
	bus *cqrs.EventBus
}

// NewPublisher は message.Publisher（本番は Redis Streams）上に EventBus を構築する
func NewPublisher(pub message.Publisher, logger watermill.LoggerAdapter) (*Publisher, error) {
	bus, err := cqrs.NewEventBusWithConfig(correlationPublisher{pub}, cqrs.EventBusConfig{
		GeneratePublishTopic: func(params cqrs.GenerateEventPublishTopicParams) (string, error) {
			return params.EventName, nil
		},
		Marshaler: marshaler,
		Logger:    logger,
	})
	if err != nil {
		return nil, fmt.Errorf("EventBus作成に失敗: %w", err)
	}
	return &Publisher{bus: bus}, nil
}

// Publish はイベントを発行する
func (p *Publisher) Publish(ctx context.Context, event any) error {
	if err := p.bus.Publish(ctx, event); err != nil {
		return fmt.Errorf("イベント発行に失敗: %w", err)
	}
	return nil
}

// correlationPublisher はリクエストIDを相関IDとしてメッセージに付与する
type correlationPublisher struct {
	message.Publisher
}

func (p correlationPublisher) Publish(topic string, msgs ...*message.Message) error {
	for _, msg := range msgs {
		id := logger.RequestID(msg.Context())
		if id == "" {
			id = "gen_" + shortuuid.New()
		}
		middleware.SetCorrelationID(id, msg)
	}
	return p.Publisher.Publish(topic, msgs...)
}
