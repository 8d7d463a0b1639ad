package handler

import (
	"fmt"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-booking-ledger/internal/api"
	"github.com/sanosuguru/go-event-booking-ledger/internal/api/middleware"
	"github.com/sanosuguru/go-event-booking-ledger/internal/application"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/booking"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/user"
)

type BookingHandler struct {
	bookingService BookingServiceInterface
	statsService   StatsServiceInterface
}

func NewBookingHandler(bookingService BookingServiceInterface, statsService StatsServiceInterface) *BookingHandler {
	return &BookingHandler{bookingService: bookingService, statsService: statsService}
}

// CreateBookingRequest は予約作成リクエスト
// UUID形式でないイベントIDは存在しないイベントとして扱うため、形式はここでは検証しない
type CreateBookingRequest struct {
	EventID  string `json:"eventId" validate:"required" example:"550e8400-e29b-41d4-a716-446655440000"`
	Quantity int    `json:"quantity" validate:"ticket_quantity" example:"2"`
}

// ListAllBookingsQuery は管理者向け予約一覧のクエリ
type ListAllBookingsQuery struct {
	Limit  int `query:"limit" validate:"gte=0"`
	Offset int `query:"offset" validate:"gte=0"`
}

type BookingResponse struct {
	ID            string     `json:"id"`
	TicketCode    string     `json:"ticketCode" example:"TKT-1767225600000-A1B2C3D4E"`
	UserID        string     `json:"userId"`
	EventID       string     `json:"eventId"`
	Quantity      int        `json:"quantity" example:"2"`
	TotalAmount   int        `json:"totalAmount" example:"10000"`
	BookingStatus string     `json:"bookingStatus" example:"confirmed"`
	PaymentStatus string     `json:"paymentStatus" example:"completed"`
	BookingDate   time.Time  `json:"bookingDate"`
	CancelledAt   *time.Time `json:"cancelledAt,omitempty"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     time.Time  `json:"updatedAt"`
}

func toBookingResponse(b *booking.Booking) *BookingResponse {
	return &BookingResponse{
		ID:            b.ID,
		TicketCode:    b.TicketCode,
		UserID:        b.UserID,
		EventID:       b.EventID,
		Quantity:      b.Quantity,
		TotalAmount:   b.TotalAmount,
		BookingStatus: string(b.Status),
		PaymentStatus: string(b.PaymentStatus),
		BookingDate:   b.BookingDate,
		CancelledAt:   b.CancelledAt,
		CreatedAt:     b.CreatedAt,
		UpdatedAt:     b.UpdatedAt,
	}
}

func toBookingResponses(bs []*booking.Booking) []*BookingResponse {
	out := make([]*BookingResponse, len(bs))
	for i, b := range bs {
		out[i] = toBookingResponse(b)
	}
	return out
}

type BookingEnvelope struct {
	Booking *BookingResponse `json:"booking"`
}

type BookingListResponse struct {
	Count    int                `json:"count"`
	Bookings []*BookingResponse `json:"bookings"`
}

type MonthlyRevenueResponse struct {
	Year    int `json:"year"`
	Month   int `json:"month"`
	Revenue int `json:"revenue"`
	Count   int `json:"count"`
}

type StatsResponse struct {
	TotalBookings  int                      `json:"totalBookings"`
	ConfirmedCount int                      `json:"confirmedBookings"`
	CancelledCount int                      `json:"cancelledBookings"`
	TotalRevenue   int                      `json:"totalRevenue"`
	MonthlyRevenue []MonthlyRevenueResponse `json:"monthlyRevenue"`
}

func toStatsResponse(s *booking.Stats) *StatsResponse {
	resp := &StatsResponse{
		TotalBookings:  s.TotalBookings,
		ConfirmedCount: s.ConfirmedCount,
		CancelledCount: s.CancelledCount,
		TotalRevenue:   s.TotalRevenue,
		MonthlyRevenue: make([]MonthlyRevenueResponse, len(s.MonthlyRevenue)),
	}
	for i, m := range s.MonthlyRevenue {
		resp.MonthlyRevenue[i] = MonthlyRevenueResponse{Year: m.Year, Month: m.Month, Revenue: m.Revenue, Count: m.Count}
	}
	return resp
}

type AdminBookingListResponse struct {
	Count    int                `json:"count"`
	Bookings []*BookingResponse `json:"bookings"`
	Stats    *StatsResponse     `json:"stats"`
}

type StatsEnvelope struct {
	Stats *StatsResponse `json:"stats"`
}

func currentPrincipal(c echo.Context) (user.Principal, error) {
	p, ok := middleware.PrincipalFrom(c)
	if !ok {
		return user.Principal{}, api.ErrUnauthenticated
	}
	return p, nil
}

// bindAndValidate はリクエストを構造体に読み込み検証する
func bindAndValidate(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "リクエストの形式が不正です")
	}
	return c.Validate(req)
}

// Create godoc
// @Summary 予約を作成
// @Description 空席を確保して確定済みの予約を作成します
// @Tags bookings
// @Accept json
// @Produce json
// @Param request body CreateBookingRequest true "予約情報"
// @Success 201 {object} BookingEnvelope
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /bookings [post]
func (h *BookingHandler) Create(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	var req CreateBookingRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	b, err := h.bookingService.CreateBooking(c.Request().Context(), application.CreateBookingInput{
		UserID:   p.UserID,
		EventID:  req.EventID,
		Quantity: req.Quantity,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, BookingEnvelope{Booking: toBookingResponse(b)})
}

// Cancel godoc
// @Summary 予約をキャンセル
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} BookingEnvelope
// @Failure 400 {object} api.ErrorResponse
// @Failure 403 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /bookings/{id}/cancel [put]
func (h *BookingHandler) Cancel(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	b, err := h.bookingService.CancelBooking(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, BookingEnvelope{Booking: toBookingResponse(b)})
}

// GetByID godoc
// @Summary 予約を取得
// @Tags bookings
// @Produce json
// @Param id path string true "予約ID"
// @Success 200 {object} BookingEnvelope
// @Failure 404 {object} api.ErrorResponse
// @Router /bookings/{id} [get]
func (h *BookingHandler) GetByID(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	b, err := h.bookingService.GetBooking(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, BookingEnvelope{Booking: toBookingResponse(b)})
}

// MyBookings godoc
// @Summary 自分の予約一覧
// @Tags bookings
// @Produce json
// @Success 200 {object} BookingListResponse
// @Router /bookings/my-bookings [get]
func (h *BookingHandler) MyBookings(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	bs, err := h.bookingService.GetMyBookings(c.Request().Context(), p.UserID)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, BookingListResponse{Count: len(bs), Bookings: toBookingResponses(bs)})
}

// ListAll godoc
// @Summary 全予約一覧（管理者）
// @Tags bookings
// @Produce json
// @Param limit query int false "取得件数" default(100)
// @Param offset query int false "オフセット" default(0)
// @Success 200 {object} AdminBookingListResponse
// @Router /bookings/admin/all [get]
func (h *BookingHandler) ListAll(c echo.Context) error {
	var q ListAllBookingsQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	ctx := c.Request().Context()
	bs, err := h.bookingService.ListAllBookings(ctx, q.Limit, q.Offset)
	if err != nil {
		return err
	}
	stats, err := h.statsService.GetStats(ctx)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AdminBookingListResponse{
		Count:    len(bs),
		Bookings: toBookingResponses(bs),
		Stats:    toStatsResponse(stats),
	})
}

// Stats godoc
// @Summary 予約統計（管理者）
// @Tags bookings
// @Produce json
// @Success 200 {object} StatsEnvelope
// @Router /bookings/admin/stats [get]
func (h *BookingHandler) Stats(c echo.Context) error {
	stats, err := h.statsService.GetStats(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, StatsEnvelope{Stats: toStatsResponse(stats)})
}

// Ticket godoc
// @Summary 電子チケットPDFを取得
// @Tags bookings
// @Produce application/pdf
// @Param id path string true "予約ID"
// @Success 200 {file} binary
// @Failure 400 {object} api.ErrorResponse
// @Router /bookings/{id}/ticket [get]
func (h *BookingHandler) Ticket(c echo.Context) error {
	p, err := currentPrincipal(c)
	if err != nil {
		return err
	}
	b, pdf, err := h.bookingService.GetTicket(c.Request().Context(), c.Param("id"), p)
	if err != nil {
		return err
	}
	c.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf(`inline; filename="%s.pdf"`, b.TicketCode))
	return c.Blob(http.StatusOK, "application/pdf", pdf)
}
