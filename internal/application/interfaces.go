package application

import (
	"context"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/booking"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/event"
)

// EventPublisher は予約イベントを通知基盤へ送る
type EventPublisher interface {
	Publish(ctx context.Context, event any) error
}

// TicketRenderer は確定済み予約の電子チケットを生成する
type TicketRenderer interface {
	Render(b *booking.Booking, e *event.Event) ([]byte, error)
}
