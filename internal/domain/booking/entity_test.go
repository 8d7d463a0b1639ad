package booking

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testNow = time.Date(2025, 12, 1, 10, 0, 0, 0, time.UTC)

func TestNewBooking(t *testing.T) {
	tests := []struct {
		name      string
		userID    string
		eventID   string
		quantity  int
		unitPrice int
		wantTotal int
		wantErr   error
	}{
		{name: "正常な予約作成", userID: "user-1", eventID: "event-1", quantity: 3, unitPrice: 500, wantTotal: 1500},
		{name: "上限の10枚", userID: "user-1", eventID: "event-1", quantity: 10, unitPrice: 100, wantTotal: 1000},
		{name: "無料イベント", userID: "user-1", eventID: "event-1", quantity: 2, unitPrice: 0, wantTotal: 0},
		{name: "0枚", userID: "user-1", eventID: "event-1", quantity: 0, wantErr: ErrInvalidQuantity},
		{name: "11枚", userID: "user-1", eventID: "event-1", quantity: 11, wantErr: ErrInvalidQuantity},
		{name: "負の枚数", userID: "user-1", eventID: "event-1", quantity: -1, wantErr: ErrInvalidQuantity},
		{name: "ユーザーID未指定", userID: "", eventID: "event-1", quantity: 1, wantErr: ErrUserIDRequired},
		{name: "イベントID未指定", userID: "user-1", eventID: "", quantity: 1, wantErr: ErrEventIDRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBooking(tt.userID, tt.eventID, tt.quantity, tt.unitPrice, testNow)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Nil(t, b)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantTotal, b.TotalAmount)
			assert.Equal(t, StatusPending, b.Status)
			assert.Equal(t, PaymentPending, b.PaymentStatus)
			assert.Equal(t, testNow, b.BookingDate)
			assert.True(t, b.HoldsSeats())
		})
	}
}

func TestBooking_Confirm(t *testing.T) {
	b := createTestBooking(t)

	require.NoError(t, b.Confirm(testNow))
	assert.Equal(t, StatusConfirmed, b.Status)
	assert.Equal(t, PaymentCompleted, b.PaymentStatus)
	assert.True(t, b.IsConfirmed())

	t.Run("確定済みの予約は再確定できない", func(t *testing.T) {
		assert.ErrorIs(t, b.Confirm(testNow), ErrBookingNotPending)
	})
}

func TestBooking_Cancel(t *testing.T) {
	tests := []struct {
		name    string
		status  Status
		wantErr error
	}{
		{"Pending状態からキャンセル", StatusPending, nil},
		{"Confirmed状態からキャンセル", StatusConfirmed, nil},
		{"Cancelled状態からキャンセル", StatusCancelled, ErrAlreadyCancelled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := createTestBooking(t)
			b.Status = tt.status
			cancelAt := testNow.Add(time.Hour)

			err := b.Cancel(cancelAt)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, StatusCancelled, b.Status)
			assert.Equal(t, PaymentRefunded, b.PaymentStatus)
			require.NotNil(t, b.CancelledAt)
			assert.Equal(t, cancelAt, *b.CancelledAt)
			assert.False(t, b.HoldsSeats())
		})
	}

	t.Run("キャンセル済みの予約は復活しない", func(t *testing.T) {
		b := createTestBooking(t)
		require.NoError(t, b.Cancel(testNow))
		assert.ErrorIs(t, b.Confirm(testNow), ErrBookingNotPending)
		assert.Equal(t, StatusCancelled, b.Status)
	})
}

func TestGenerateTicketCode(t *testing.T) {
	pattern := regexp.MustCompile(`^TKT-\d+-[0-9A-Z]{9}$`)

	code, err := GenerateTicketCode(testNow)
	require.NoError(t, err)
	assert.Regexp(t, pattern, code)
	assert.Contains(t, code, "TKT-1764583200000-")

	t.Run("連続生成しても重複しない", func(t *testing.T) {
		seen := make(map[string]struct{})
		for i := 0; i < 1000; i++ {
			c, err := GenerateTicketCode(testNow)
			require.NoError(t, err)
			_, dup := seen[c]
			require.False(t, dup, c)
			seen[c] = struct{}{}
		}
	})
}

func TestNewConfirmedEvent(t *testing.T) {
	b := createTestBooking(t)
	b.ID = "booking-1"
	b.TicketCode = "TKT-1-ABCDEFGHI"

	e := NewConfirmedEvent(b, "年末ライブ", testNow)
	assert.Equal(t, "booking-1", e.BookingID)
	assert.Equal(t, "年末ライブ", e.EventTitle)
	assert.Equal(t, b.TotalAmount, e.TotalAmount)

	c := NewCancelledEvent(b, testNow)
	assert.Equal(t, "TKT-1-ABCDEFGHI", c.TicketCode)
	assert.Equal(t, b.Quantity, c.Quantity)
}

func createTestBooking(t *testing.T) *Booking {
	b, err := NewBooking("user-1", "event-1", 2, 1000, testNow)
	require.NoError(t, err)
	return b
}
