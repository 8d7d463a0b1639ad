package booking

import "time"

// ConfirmedEvent は予約確定時に発行されるイベント
type ConfirmedEvent struct {
	BookingID   string    `json:"booking_id"`
	TicketCode  string    `json:"ticket_code"`
	UserID      string    `json:"user_id"`
	EventID     string    `json:"event_id"`
	EventTitle  string    `json:"event_title"`
	Quantity    int       `json:"quantity"`
	TotalAmount int       `json:"total_amount"`
	OccurredAt  time.Time `json:"occurred_at"`
}

// CancelledEvent は予約キャンセル時に発行されるイベント
type CancelledEvent struct {
	BookingID  string    `json:"booking_id"`
	TicketCode string    `json:"ticket_code"`
	UserID     string    `json:"user_id"`
	EventID    string    `json:"event_id"`
	Quantity   int       `json:"quantity"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewConfirmedEvent は確定イベントを作成する
func NewConfirmedEvent(b *Booking, eventTitle string, now time.Time) *ConfirmedEvent {
	return &ConfirmedEvent{
		BookingID:   b.ID,
		TicketCode:  b.TicketCode,
		UserID:      b.UserID,
		EventID:     b.EventID,
		EventTitle:  eventTitle,
		Quantity:    b.Quantity,
		TotalAmount: b.TotalAmount,
		OccurredAt:  now,
	}
}

// NewCancelledEvent はキャンセルイベントを作成する
func NewCancelledEvent(b *Booking, now time.Time) *CancelledEvent {
	return &CancelledEvent{
		BookingID:  b.ID,
		TicketCode: b.TicketCode,
		UserID:     b.UserID,
		EventID:    b.EventID,
		Quantity:   b.Quantity,
		OccurredAt: now,
	}
}
