package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/sanosuguru/go-event-booking-ledger/internal/application"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/event"
)

type EventHandler struct {
	eventService EventServiceInterface
}

func NewEventHandler(eventService EventServiceInterface) *EventHandler {
	return &EventHandler{eventService: eventService}
}

type CreateEventRequest struct {
	Title           string     `json:"title" validate:"required,max=100" example:"東京ドームコンサート2026"`
	Description     string     `json:"description" validate:"max=2000" example:"年末スペシャルコンサート"`
	Category        string     `json:"category" validate:"omitempty,oneof=concert conference workshop sports exhibition theater festival other" example:"concert"`
	Venue           string     `json:"venue" validate:"required" example:"東京ドーム"`
	City            string     `json:"city" example:"東京"`
	StartAt         time.Time  `json:"startAt" validate:"required" example:"2026-12-31T18:00:00+09:00"`
	TotalSeats      int        `json:"totalSeats" validate:"required,gt=0" example:"50000"`
	Price           int        `json:"price" validate:"gte=0" example:"8800"`
	IsFeatured      bool       `json:"isFeatured"`
	BookingDeadline *time.Time `json:"bookingDeadline,omitempty"`
}

// UpdateEventRequest は部分更新。省略したフィールドは変更しない
type UpdateEventRequest struct {
	Title           *string    `json:"title" validate:"omitempty,min=1,max=100"`
	Description     *string    `json:"description" validate:"omitempty,max=2000"`
	Category        *string    `json:"category" validate:"omitempty,oneof=concert conference workshop sports exhibition theater festival other"`
	Venue           *string    `json:"venue" validate:"omitempty,min=1"`
	City            *string    `json:"city"`
	StartAt         *time.Time `json:"startAt"`
	TotalSeats      *int       `json:"totalSeats" validate:"omitempty,gt=0"`
	Price           *int       `json:"price" validate:"omitempty,gte=0"`
	IsActive        *bool      `json:"isActive"`
	IsFeatured      *bool      `json:"isFeatured"`
	BookingDeadline *time.Time `json:"bookingDeadline"`
	Version         *int       `json:"version" validate:"omitempty,gte=0"`
}

// ListEventsQuery はイベント一覧の検索条件
// 数値と日時は文字列で受けて検証後に変換する
// 価格は9桁まで（INTEGER列の範囲内）、ページ番号はオフセットが桁あふれしない範囲に制限する
type ListEventsQuery struct {
	Category string `query:"category" validate:"omitempty,oneof=concert conference workshop sports exhibition theater festival other"`
	City     string `query:"city"`
	Search   string `query:"search" validate:"max=100"`
	From     string `query:"from" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	To       string `query:"to" validate:"omitempty,datetime=2006-01-02T15:04:05Z07:00"`
	MinPrice string `query:"minPrice" validate:"omitempty,number,max=9"`
	MaxPrice string `query:"maxPrice" validate:"omitempty,number,max=9"`
	Upcoming bool   `query:"upcoming"`
	Sort     string `query:"sort" validate:"omitempty,oneof=date price_low price_high newest"`
	Page     int    `query:"page" validate:"gte=0,lte=100000"`
	Limit    int    `query:"limit" validate:"gte=0"`
}

func (q *ListEventsQuery) toInput(includeInactive bool) application.ListEventsInput {
	return application.ListEventsInput{
		Category:        event.Category(q.Category),
		City:            q.City,
		Search:          q.Search,
		From:            parseTime(q.From),
		To:              parseTime(q.To),
		MinPrice:        parseInt(q.MinPrice),
		MaxPrice:        parseInt(q.MaxPrice),
		Upcoming:        q.Upcoming,
		IncludeInactive: includeInactive,
		Sort:            event.SortOrder(q.Sort),
		Page:            q.Page,
		Limit:           q.Limit,
	}
}

// parseTime と parseInt は検証済みの値にのみ使う
func parseTime(s string) *time.Time {
	if s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}

func parseInt(s string) *int {
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

type EventResponse struct {
	ID              string    `json:"id" example:"550e8400-e29b-41d4-a716-446655440000"`
	Title           string    `json:"title"`
	Description     string    `json:"description"`
	Category        string    `json:"category"`
	Venue           string    `json:"venue"`
	City            string    `json:"city"`
	StartAt         time.Time `json:"startAt"`
	TotalSeats      int       `json:"totalSeats"`
	AvailableSeats  int       `json:"availableSeats"`
	Price           int       `json:"price"`
	IsActive        bool      `json:"isActive"`
	IsFeatured      bool      `json:"isFeatured"`
	BookingDeadline time.Time `json:"bookingDeadline"`
	Version         int       `json:"version"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

func toEventResponse(e *event.Event) *EventResponse {
	return &EventResponse{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		Category:        string(e.Category),
		Venue:           e.Venue,
		City:            e.City,
		StartAt:         e.StartAt,
		TotalSeats:      e.TotalSeats,
		AvailableSeats:  e.AvailableSeats,
		Price:           e.Price,
		IsActive:        e.IsActive,
		IsFeatured:      e.IsFeatured,
		BookingDeadline: e.BookingDeadline,
		Version:         e.Version,
		CreatedAt:       e.CreatedAt,
		UpdatedAt:       e.UpdatedAt,
	}
}

type EventEnvelope struct {
	Event *EventResponse `json:"event"`
}

type EventListResponse struct {
	Events     []*EventResponse `json:"events"`
	Total      int              `json:"total"`
	Page       int              `json:"page"`
	Limit      int              `json:"limit"`
	TotalPages int              `json:"totalPages"`
}

type FeaturedEventsResponse struct {
	Count  int              `json:"count"`
	Events []*EventResponse `json:"events"`
}

type AvailabilityResponse struct {
	EventID        string `json:"eventId"`
	AvailableSeats int    `json:"availableSeats"`
	TotalSeats     int    `json:"totalSeats"`
}

type CategoriesResponse struct {
	Categories []string `json:"categories"`
}

// Create godoc
// @Summary イベントを作成（管理者）
// @Tags events
// @Accept json
// @Produce json
// @Param request body CreateEventRequest true "イベント情報"
// @Success 201 {object} EventEnvelope
// @Failure 400 {object} api.ErrorResponse
// @Router /events [post]
func (h *EventHandler) Create(c echo.Context) error {
	var req CreateEventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	e, err := h.eventService.CreateEvent(c.Request().Context(), event.NewEventParams{
		Title:           req.Title,
		Description:     req.Description,
		Category:        event.Category(req.Category),
		Venue:           req.Venue,
		City:            req.City,
		StartAt:         req.StartAt,
		TotalSeats:      req.TotalSeats,
		Price:           req.Price,
		IsFeatured:      req.IsFeatured,
		BookingDeadline: req.BookingDeadline,
	})
	if err != nil {
		return err
	}
	return c.JSON(http.StatusCreated, EventEnvelope{Event: toEventResponse(e)})
}

// GetByID godoc
// @Summary イベントを取得
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} EventEnvelope
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id} [get]
func (h *EventHandler) GetByID(c echo.Context) error {
	e, err := h.eventService.GetEvent(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, EventEnvelope{Event: toEventResponse(e)})
}

// List godoc
// @Summary イベント一覧を取得
// @Description 公開中のイベントを検索条件とページ指定で取得します
// @Tags events
// @Produce json
// @Param category query string false "カテゴリ"
// @Param city query string false "開催都市"
// @Param search query string false "タイトル・説明の部分一致"
// @Param sort query string false "並び順" Enums(date, price_low, price_high, newest)
// @Param page query int false "ページ番号" default(1)
// @Param limit query int false "1ページの件数" default(12)
// @Success 200 {object} EventListResponse
// @Router /events [get]
func (h *EventHandler) List(c echo.Context) error {
	return h.list(c, false)
}

// ListAll godoc
// @Summary 非公開を含むイベント一覧（管理者）
// @Tags events
// @Produce json
// @Success 200 {object} EventListResponse
// @Router /events/admin/all [get]
func (h *EventHandler) ListAll(c echo.Context) error {
	return h.list(c, true)
}

func (h *EventHandler) list(c echo.Context, includeInactive bool) error {
	var q ListEventsQuery
	if err := bindAndValidate(c, &q); err != nil {
		return err
	}

	page, err := h.eventService.ListEvents(c.Request().Context(), q.toInput(includeInactive))
	if err != nil {
		return err
	}

	events := make([]*EventResponse, len(page.Events))
	for i, e := range page.Events {
		events[i] = toEventResponse(e)
	}
	return c.JSON(http.StatusOK, EventListResponse{
		Events:     events,
		Total:      page.Total,
		Page:       page.Page,
		Limit:      page.Limit,
		TotalPages: page.TotalPages,
	})
}

// Featured godoc
// @Summary 注目イベント一覧
// @Description 公開中でこれから開催される注目イベントを開催日順に最大6件返します
// @Tags events
// @Produce json
// @Success 200 {object} FeaturedEventsResponse
// @Router /events/featured [get]
func (h *EventHandler) Featured(c echo.Context) error {
	featured, err := h.eventService.ListFeaturedEvents(c.Request().Context())
	if err != nil {
		return err
	}
	events := make([]*EventResponse, len(featured))
	for i, e := range featured {
		events[i] = toEventResponse(e)
	}
	return c.JSON(http.StatusOK, FeaturedEventsResponse{Count: len(events), Events: events})
}

// Categories godoc
// @Summary カテゴリ一覧
// @Tags events
// @Produce json
// @Success 200 {object} CategoriesResponse
// @Router /events/categories [get]
func (h *EventHandler) Categories(c echo.Context) error {
	cats := h.eventService.Categories()
	out := make([]string, len(cats))
	for i, cat := range cats {
		out[i] = string(cat)
	}
	return c.JSON(http.StatusOK, CategoriesResponse{Categories: out})
}

// Availability godoc
// @Summary 空席状況
// @Tags events
// @Produce json
// @Param id path string true "イベントID"
// @Success 200 {object} AvailabilityResponse
// @Failure 404 {object} api.ErrorResponse
// @Router /events/{id}/availability [get]
func (h *EventHandler) Availability(c echo.Context) error {
	a, err := h.eventService.GetAvailability(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, AvailabilityResponse{
		EventID:        a.EventID,
		AvailableSeats: a.AvailableSeats,
		TotalSeats:     a.TotalSeats,
	})
}

// Update godoc
// @Summary イベントを更新（管理者）
// @Description version を指定した場合は楽観的ロックで更新します
// @Tags events
// @Accept json
// @Produce json
// @Param id path string true "イベントID"
// @Param request body UpdateEventRequest true "更新内容"
// @Success 200 {object} EventEnvelope
// @Failure 400 {object} api.ErrorResponse
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /events/{id} [put]
func (h *EventHandler) Update(c echo.Context) error {
	var req UpdateEventRequest
	if err := bindAndValidate(c, &req); err != nil {
		return err
	}

	input := application.UpdateEventInput{
		ID:              c.Param("id"),
		Title:           req.Title,
		Description:     req.Description,
		Venue:           req.Venue,
		City:            req.City,
		StartAt:         req.StartAt,
		TotalSeats:      req.TotalSeats,
		Price:           req.Price,
		IsActive:        req.IsActive,
		IsFeatured:      req.IsFeatured,
		BookingDeadline: req.BookingDeadline,
		Version:         req.Version,
	}
	if req.Category != nil {
		cat := event.Category(*req.Category)
		input.Category = &cat
	}

	e, err := h.eventService.UpdateEvent(c.Request().Context(), input)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, EventEnvelope{Event: toEventResponse(e)})
}

// Delete godoc
// @Summary イベントを削除（管理者）
// @Description 予約が1件でもあるイベントは削除できません
// @Tags events
// @Param id path string true "イベントID"
// @Success 204
// @Failure 404 {object} api.ErrorResponse
// @Failure 409 {object} api.ErrorResponse
// @Router /events/{id} [delete]
func (h *EventHandler) Delete(c echo.Context) error {
	if err := h.eventService.DeleteEvent(c.Request().Context(), c.Param("id")); err != nil {
		return err
	}
	return c.NoContent(http.StatusNoContent)
}
