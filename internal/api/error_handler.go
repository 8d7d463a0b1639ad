package api

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/booking"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/event"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/notification"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/auth"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/logger"
)

// エラーコード
const (
	CodeEventNotFound        = "EVENT_NOT_FOUND"
	CodeBookingNotFound      = "BOOKING_NOT_FOUND"
	CodeNotificationNotFound = "NOTIFICATION_NOT_FOUND"
	CodeEventInactive        = "EVENT_INACTIVE"
	CodeBookingClosed        = "BOOKING_CLOSED"
	CodeInvalidQuantity      = "INVALID_QUANTITY"
	CodeInsufficientSeats    = "INSUFFICIENT_SEATS"
	CodeAlreadyCancelled     = "ALREADY_CANCELLED"
	CodeBookingNotConfirmed  = "BOOKING_NOT_CONFIRMED"
	CodeValidation           = "VALIDATION_ERROR"
	CodeTotalSeatsBelowHeld  = "TOTAL_SEATS_BELOW_HELD"
	CodeUnauthenticated      = "UNAUTHENTICATED"
	CodeNotAuthorized        = "NOT_AUTHORIZED"
	CodeVersionConflict      = "VERSION_CONFLICT"
	CodeEventHasBookings     = "EVENT_HAS_BOOKINGS"
	CodeNotFound             = "NOT_FOUND"
	CodeBadRequest           = "BAD_REQUEST"
	CodeInternal             = "INTERNAL"
)

var (
	ErrUnauthenticated = errors.New("認証が必要です")
	ErrForbidden       = errors.New("この操作を行う権限がありません")
)

// ErrorResponse はエラーレスポンスの統一フォーマット
type ErrorResponse struct {
	Error   string         `json:"error"`
	Code    string         `json:"code"`
	Details map[string]any `json:"details,omitempty"`
}

type errorMapping struct {
	target error
	status int
	code   string
}

// errorMappings は上から順に errors.Is で照合される
var errorMappings = []errorMapping{
	{event.ErrEventNotFound, http.StatusNotFound, CodeEventNotFound},
	{booking.ErrBookingNotFound, http.StatusNotFound, CodeBookingNotFound},
	{notification.ErrNotificationNotFound, http.StatusNotFound, CodeNotificationNotFound},
	{event.ErrEventInactive, http.StatusBadRequest, CodeEventInactive},
	{event.ErrBookingClosed, http.StatusBadRequest, CodeBookingClosed},
	{booking.ErrInvalidQuantity, http.StatusBadRequest, CodeInvalidQuantity},
	{booking.ErrAlreadyCancelled, http.StatusBadRequest, CodeAlreadyCancelled},
	{booking.ErrBookingNotConfirmed, http.StatusBadRequest, CodeBookingNotConfirmed},
	{event.ErrTotalSeatsBelowHeld, http.StatusBadRequest, CodeTotalSeatsBelowHeld},
	{ErrUnauthenticated, http.StatusUnauthorized, CodeUnauthenticated},
	{auth.ErrInvalidToken, http.StatusUnauthorized, CodeUnauthenticated},
	{booking.ErrNotAuthorized, http.StatusForbidden, CodeNotAuthorized},
	{ErrForbidden, http.StatusForbidden, CodeNotAuthorized},
	{event.ErrOptimisticLockConflict, http.StatusConflict, CodeVersionConflict},
	{event.ErrEventHasBookings, http.StatusConflict, CodeEventHasBookings},
}

// eventValidationErrors はイベント入力の検証エラー
var eventValidationErrors = []error{
	event.ErrEventTitleRequired,
	event.ErrEventTitleTooLong,
	event.ErrEventDescriptionTooLong,
	event.ErrInvalidCategory,
	event.ErrVenueRequired,
	event.ErrStartAtRequired,
	event.ErrInvalidTotalSeats,
	event.ErrInvalidPrice,
}

const internalErrorMessage = "内部サーバーエラー"

// CustomHTTPErrorHandler はエラーをステータスコードとエラーコードに変換して返す
func CustomHTTPErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}

	status, resp := ResolveError(err)

	// 5xx の詳細はログにのみ出す
	if status >= http.StatusInternalServerError {
		logger.FromContext(c.Request().Context()).Error("サーバーエラー",
			zap.Int("status", status),
			zap.String("method", c.Request().Method),
			zap.String("path", c.Path()),
			zap.Error(err),
		)
	}

	var sendErr error
	if c.Request().Method == http.MethodHead {
		sendErr = c.NoContent(status)
	} else {
		sendErr = c.JSON(status, resp)
	}
	if sendErr != nil {
		logger.Error("エラーレスポンス送信失敗", zap.Error(sendErr))
	}
}

// ResolveError はエラーに対応するHTTPステータスとレスポンスを返す
func ResolveError(err error) (int, ErrorResponse) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		resp := ErrorResponse{Error: ve.Error(), Code: ve.Code}
		if len(ve.Fields) > 0 {
			fields := make(map[string]any, len(ve.Fields))
			for k, v := range ve.Fields {
				fields[k] = v
			}
			resp.Details = map[string]any{"fields": fields}
		}
		return http.StatusBadRequest, resp
	}

	var insufficient *event.InsufficientSeatsError
	if errors.As(err, &insufficient) {
		return http.StatusBadRequest, ErrorResponse{
			Error: insufficient.Error(),
			Code:  CodeInsufficientSeats,
			Details: map[string]any{
				"availableSeats": insufficient.Available,
				"requested":      insufficient.Requested,
			},
		}
	}

	for _, m := range errorMappings {
		if errors.Is(err, m.target) {
			return m.status, ErrorResponse{Error: m.target.Error(), Code: m.code}
		}
	}

	for _, target := range eventValidationErrors {
		if errors.Is(err, target) {
			return http.StatusBadRequest, ErrorResponse{Error: target.Error(), Code: CodeValidation}
		}
	}

	var he *echo.HTTPError
	if errors.As(err, &he) {
		return resolveHTTPError(he)
	}

	return http.StatusInternalServerError, ErrorResponse{Error: internalErrorMessage, Code: CodeInternal}
}

func resolveHTTPError(he *echo.HTTPError) (int, ErrorResponse) {
	status := he.Code
	if status >= http.StatusInternalServerError {
		return status, ErrorResponse{Error: internalErrorMessage, Code: CodeInternal}
	}

	message := http.StatusText(status)
	if m, ok := he.Message.(string); ok && m != "" {
		message = m
	}

	code := CodeBadRequest
	switch status {
	case http.StatusNotFound:
		code = CodeNotFound
	case http.StatusUnauthorized:
		code = CodeUnauthenticated
	case http.StatusForbidden:
		code = CodeNotAuthorized
	case http.StatusMethodNotAllowed:
		code = "METHOD_NOT_ALLOWED"
	case http.StatusRequestEntityTooLarge:
		code = "PAYLOAD_TOO_LARGE"
	case http.StatusTooManyRequests:
		code = "RATE_LIMITED"
	}
	return status, ErrorResponse{Error: message, Code: code}
}
