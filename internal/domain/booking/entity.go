package booking

import "time"

// Status は予約の状態を表す
type Status string

const (
	StatusPending   Status = "pending"
	StatusConfirmed Status = "confirmed"
	StatusCancelled Status = "cancelled"
)

// PaymentStatus は支払い状態を表す
type PaymentStatus string

const (
	PaymentPending   PaymentStatus = "pending"
	PaymentCompleted PaymentStatus = "completed"
	PaymentFailed    PaymentStatus = "failed"
	PaymentRefunded  PaymentStatus = "refunded"
)

const (
	MinQuantity = 1
	MaxQuantity = 10
)

// Booking は予約台帳のエントリを表す
type Booking struct {
	ID            string
	TicketCode    string
	UserID        string
	EventID       string
	Quantity      int
	TotalAmount   int // 作成時の単価×枚数で固定
	Status        Status
	PaymentStatus PaymentStatus
	BookingDate   time.Time
	CancelledAt   *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// ValidateQuantity は予約枚数が範囲内かを検証する
func ValidateQuantity(quantity int) error {
	if quantity < MinQuantity || quantity > MaxQuantity {
		return ErrInvalidQuantity
	}
	return nil
}

// NewBooking は新しい予約を作成する
func NewBooking(userID, eventID string, quantity, unitPrice int, now time.Time) (*Booking, error) {
	if userID == "" {
		return nil, ErrUserIDRequired
	}
	if eventID == "" {
		return nil, ErrEventIDRequired
	}
	if err := ValidateQuantity(quantity); err != nil {
		return nil, err
	}
	return &Booking{
		UserID:        userID,
		EventID:       eventID,
		Quantity:      quantity,
		TotalAmount:   unitPrice * quantity,
		Status:        StatusPending,
		PaymentStatus: PaymentPending,
		BookingDate:   now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// Confirm は支払い完了として予約を確定する
func (b *Booking) Confirm(now time.Time) error {
	if b.Status != StatusPending {
		return ErrBookingNotPending
	}
	b.Status = StatusConfirmed
	b.PaymentStatus = PaymentCompleted
	b.UpdatedAt = now
	return nil
}

// Cancel は予約をキャンセルし返金済みにする
func (b *Booking) Cancel(now time.Time) error {
	if b.Status == StatusCancelled {
		return ErrAlreadyCancelled
	}
	b.Status = StatusCancelled
	b.PaymentStatus = PaymentRefunded
	b.CancelledAt = &now
	b.UpdatedAt = now
	return nil
}

// HoldsSeats は座席を確保している状態かを返す
func (b *Booking) HoldsSeats() bool {
	return b.Status == StatusPending || b.Status == StatusConfirmed
}

// IsConfirmed は確定済みかを返す
func (b *Booking) IsConfirmed() bool {
	return b.Status == StatusConfirmed
}
