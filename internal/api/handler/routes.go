package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-booking-ledger/internal/api/middleware"
)

// Handlers はルーティング対象のハンドラー一式
type Handlers struct {
	Event        *EventHandler
	Booking      *BookingHandler
	Notification *NotificationHandler
	Admin        *AdminHandler
	Health       *HealthHandler
}

// RegisterRoutes は /api/v1 配下にルートを登録する
// 静的なパスは :id より先に登録する
func RegisterRoutes(e *echo.Echo, h Handlers, tokens middleware.TokenParser) {
	e.GET("/health", h.Health.Check)

	v1 := e.Group("/api/v1")
	v1.GET("/health", h.Health.Check)

	authn := middleware.JWTAuth(tokens)
	admin := middleware.AdminOnly()

	events := v1.Group("/events")
	events.GET("", h.Event.List)
	events.GET("/categories", h.Event.Categories)
	events.GET("/featured", h.Event.Featured)
	events.GET("/admin/all", h.Event.ListAll, authn, admin)
	events.GET("/:id", h.Event.GetByID)
	events.GET("/:id/availability", h.Event.Availability)
	events.POST("", h.Event.Create, authn, admin)
	events.PUT("/:id", h.Event.Update, authn, admin)
	events.DELETE("/:id", h.Event.Delete, authn, admin)

	bookings := v1.Group("/bookings", authn)
	bookings.POST("", h.Booking.Create)
	bookings.GET("/my-bookings", h.Booking.MyBookings)
	bookings.GET("/admin/all", h.Booking.ListAll, admin)
	bookings.GET("/admin/stats", h.Booking.Stats, admin)
	bookings.GET("/:id", h.Booking.GetByID)
	bookings.GET("/:id/ticket", h.Booking.Ticket)
	bookings.PUT("/:id/cancel", h.Booking.Cancel)

	notifications := v1.Group("/notifications", authn)
	notifications.GET("", h.Notification.List)
	notifications.PUT("/read-all", h.Notification.MarkAllRead)
	notifications.PUT("/:id/read", h.Notification.MarkRead)
	notifications.DELETE("/:id", h.Notification.Delete)

	v1.POST("/admin/inventory/reconcile", h.Admin.Reconcile, authn, admin)
}
