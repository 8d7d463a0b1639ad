package notification

import (
	"fmt"
	"time"
)

// Type は通知の種別
type Type string

const (
	TypeBooking      Type = "booking"
	TypeReminder     Type = "reminder"
	TypeCancellation Type = "cancellation"
	TypeGeneral      Type = "general"
	TypePayment      Type = "payment"
)

// ListLimit は通知一覧の最大取得件数
const ListLimit = 50

// Notification はユーザー向け通知を表す
type Notification struct {
	ID        string
	UserID    string
	Title     string
	Message   string
	Type      Type
	IsRead    bool
	Link      string
	CreatedAt time.Time
}

// New は新しい通知を作成する
func New(userID, title, message string, typ Type, link string, now time.Time) (*Notification, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if title == "" || message == "" {
		return nil, ErrContentRequired
	}
	if typ == "" {
		typ = TypeGeneral
	}
	return &Notification{
		UserID:    userID,
		Title:     title,
		Message:   message,
		Type:      typ,
		Link:      link,
		CreatedAt: now,
	}, nil
}

// NewBookingConfirmed は予約確定通知を作成する
func NewBookingConfirmed(userID, bookingID, ticketCode, eventTitle string, now time.Time) (*Notification, error) {
	return New(userID,
		"Booking Confirmed!",
		fmt.Sprintf("Your booking for %s has been confirmed. Ticket Code: %s", eventTitle, ticketCode),
		TypeBooking,
		bookingLink(bookingID),
		now,
	)
}

// NewBookingCancelled は予約キャンセル通知を作成する
func NewBookingCancelled(userID, bookingID, ticketCode string, now time.Time) (*Notification, error) {
	return New(userID,
		"Booking Cancelled",
		fmt.Sprintf("Your booking (%s) has been cancelled and refunded.", ticketCode),
		TypeCancellation,
		bookingLink(bookingID),
		now,
	)
}

func bookingLink(bookingID string) string {
	return "/bookings/" + bookingID
}
