package handler

import (
	"context"

	"github.com/sanosuguru/go-event-booking-ledger/internal/application"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/booking"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/event"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/notification"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/user"
)

// EventServiceInterface はイベントサービスのインターフェース
type EventServiceInterface interface {
	CreateEvent(ctx context.Context, input event.NewEventParams) (*event.Event, error)
	GetEvent(ctx context.Context, id string) (*event.Event, error)
	ListEvents(ctx context.Context, input application.ListEventsInput) (*application.EventPage, error)
	ListFeaturedEvents(ctx context.Context) ([]*event.Event, error)
	UpdateEvent(ctx context.Context, input application.UpdateEventInput) (*event.Event, error)
	DeleteEvent(ctx context.Context, id string) error
	GetAvailability(ctx context.Context, id string) (*application.Availability, error)
	Categories() []event.Category
}

// BookingServiceInterface は予約サービスのインターフェース
type BookingServiceInterface interface {
	CreateBooking(ctx context.Context, input application.CreateBookingInput) (*booking.Booking, error)
	CancelBooking(ctx context.Context, id string, actor user.Principal) (*booking.Booking, error)
	GetBooking(ctx context.Context, id string, actor user.Principal) (*booking.Booking, error)
	GetMyBookings(ctx context.Context, userID string) ([]*booking.Booking, error)
	ListAllBookings(ctx context.Context, limit, offset int) ([]*booking.Booking, error)
	GetTicket(ctx context.Context, id string, actor user.Principal) (*booking.Booking, []byte, error)
}

// StatsServiceInterface は予約統計サービスのインターフェース
type StatsServiceInterface interface {
	GetStats(ctx context.Context) (*booking.Stats, error)
}

// NotificationServiceInterface は通知サービスのインターフェース
type NotificationServiceInterface interface {
	List(ctx context.Context, userID string) (*application.NotificationList, error)
	MarkAsRead(ctx context.Context, id, userID string) (*notification.Notification, error)
	MarkAllAsRead(ctx context.Context, userID string) (int, error)
	Delete(ctx context.Context, id, userID string) error
}

// ReconcilerInterface は在庫照合サービスのインターフェース
type ReconcilerInterface interface {
	ReconcileInventory(ctx context.Context) (*application.ReconcileResult, error)
}
