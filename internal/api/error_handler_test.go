package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/booking"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/event"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/notification"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/auth"
)

func TestResolveError(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{"イベントなし", event.ErrEventNotFound, http.StatusNotFound, CodeEventNotFound},
		{"ラップされたイベントなし", fmt.Errorf("イベント取得に失敗: %w", event.ErrEventNotFound), http.StatusNotFound, CodeEventNotFound},
		{"予約なし", booking.ErrBookingNotFound, http.StatusNotFound, CodeBookingNotFound},
		{"通知なし", notification.ErrNotificationNotFound, http.StatusNotFound, CodeNotificationNotFound},
		{"非アクティブ", event.ErrEventInactive, http.StatusBadRequest, CodeEventInactive},
		{"受付終了", event.ErrBookingClosed, http.StatusBadRequest, CodeBookingClosed},
		{"枚数不正", booking.ErrInvalidQuantity, http.StatusBadRequest, CodeInvalidQuantity},
		{"キャンセル済み", booking.ErrAlreadyCancelled, http.StatusBadRequest, CodeAlreadyCancelled},
		{"未確定", booking.ErrBookingNotConfirmed, http.StatusBadRequest, CodeBookingNotConfirmed},
		{"イベント検証", fmt.Errorf("バリデーションエラー: %w", event.ErrVenueRequired), http.StatusBadRequest, CodeValidation},
		{"総座席数不足", event.ErrTotalSeatsBelowHeld, http.StatusBadRequest, CodeTotalSeatsBelowHeld},
		{"未認証", ErrUnauthenticated, http.StatusUnauthorized, CodeUnauthenticated},
		{"トークン不正", auth.ErrInvalidToken, http.StatusUnauthorized, CodeUnauthenticated},
		{"権限なし", booking.ErrNotAuthorized, http.StatusForbidden, CodeNotAuthorized},
		{"管理者専用", ErrForbidden, http.StatusForbidden, CodeNotAuthorized},
		{"バージョン競合", event.ErrOptimisticLockConflict, http.StatusConflict, CodeVersionConflict},
		{"予約ありイベントの削除", event.ErrEventHasBookings, http.StatusConflict, CodeEventHasBookings},
		{"チケットコード枯渇", booking.ErrTicketCodeExhausted, http.StatusInternalServerError, CodeInternal},
		{"座席の返却で総座席数を超える", fmt.Errorf("座席の返却に失敗: %w", event.ErrSeatsOverflow), http.StatusInternalServerError, CodeInternal},
		{"不明なエラー", errors.New("connection reset"), http.StatusInternalServerError, CodeInternal},
		{"echoの404", echo.ErrNotFound, http.StatusNotFound, CodeNotFound},
		{"echoの400", echo.NewHTTPError(http.StatusBadRequest, "無効なリクエスト"), http.StatusBadRequest, CodeBadRequest},
		{"echoの405", echo.ErrMethodNotAllowed, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := ResolveError(tt.err)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantCode, resp.Code)
			assert.NotEmpty(t, resp.Error)
		})
	}
}

func TestResolveError_InsufficientSeatsDetails(t *testing.T) {
	err := errors.Join(fmt.Errorf("wrap: %w", &event.InsufficientSeatsError{Available: 7, Requested: 8}), nil)

	status, resp := ResolveError(err)

	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, CodeInsufficientSeats, resp.Code)
	assert.Equal(t, 7, resp.Details["availableSeats"])
	assert.Equal(t, 8, resp.Details["requested"])
}

func TestResolveError_InternalMessageIsGeneric(t *testing.T) {
	_, resp := ResolveError(errors.New("pq: password authentication failed"))
	assert.Equal(t, "内部サーバーエラー", resp.Error)

	_, resp = ResolveError(echo.NewHTTPError(http.StatusServiceUnavailable, "db down"))
	assert.Equal(t, "内部サーバーエラー", resp.Error)
}

func TestCustomHTTPErrorHandler(t *testing.T) {
	e := echo.New()

	t.Run("JSONでエラーを返す", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/bookings", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		CustomHTTPErrorHandler(&event.InsufficientSeatsError{Available: 2, Requested: 5}, c)

		assert.Equal(t, http.StatusBadRequest, rec.Code)
		var body map[string]any
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, CodeInsufficientSeats, body["code"])
		details := body["details"].(map[string]any)
		assert.Equal(t, float64(2), details["availableSeats"])
	})

	t.Run("HEADはボディなし", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodHead, "/api/v1/events/x", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		CustomHTTPErrorHandler(event.ErrEventNotFound, c)

		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Empty(t, rec.Body.String())
	})

	t.Run("送信済みレスポンスには書き込まない", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)
		require.NoError(t, c.String(http.StatusOK, "done"))

		CustomHTTPErrorHandler(errors.New("late"), c)

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "done", rec.Body.String())
	})
}
