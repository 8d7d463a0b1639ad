package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sanosuguru/go-event-booking-ledger/internal/application"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/booking"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/event"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/notification"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/user"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/auth"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/health"
)

// MockEventService はEventServiceInterfaceのモック
type MockEventService struct {
	mock.Mock
}

func (m *MockEventService) CreateEvent(ctx context.Context, input event.NewEventParams) (*event.Event, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) ListEvents(ctx context.Context, input application.ListEventsInput) (*application.EventPage, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.EventPage), args.Error(1)
}

func (m *MockEventService) ListFeaturedEvents(ctx context.Context) ([]*event.Event, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.Event), args.Error(1)
}

func (m *MockEventService) UpdateEvent(ctx context.Context, input application.UpdateEventInput) (*event.Event, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.Event), args.Error(1)
}

func (m *MockEventService) DeleteEvent(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockEventService) GetAvailability(ctx context.Context, id string) (*application.Availability, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.Availability), args.Error(1)
}

func (m *MockEventService) Categories() []event.Category {
	return m.Called().Get(0).([]event.Category)
}

// MockBookingService はBookingServiceInterfaceのモック
type MockBookingService struct {
	mock.Mock
}

func (m *MockBookingService) CreateBooking(ctx context.Context, input application.CreateBookingInput) (*booking.Booking, error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingService) CancelBooking(ctx context.Context, id string, actor user.Principal) (*booking.Booking, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingService) GetBooking(ctx context.Context, id string, actor user.Principal) (*booking.Booking, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookingService) GetMyBookings(ctx context.Context, userID string) ([]*booking.Booking, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingService) ListAllBookings(ctx context.Context, limit, offset int) ([]*booking.Booking, error) {
	args := m.Called(ctx, limit, offset)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*booking.Booking), args.Error(1)
}

func (m *MockBookingService) GetTicket(ctx context.Context, id string, actor user.Principal) (*booking.Booking, []byte, error) {
	args := m.Called(ctx, id, actor)
	if args.Get(0) == nil {
		return nil, nil, args.Error(2)
	}
	return args.Get(0).(*booking.Booking), args.Get(1).([]byte), args.Error(2)
}

// MockStatsService はStatsServiceInterfaceのモック
type MockStatsService struct {
	mock.Mock
}

func (m *MockStatsService) GetStats(ctx context.Context) (*booking.Stats, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Stats), args.Error(1)
}

// MockNotificationService はNotificationServiceInterfaceのモック
type MockNotificationService struct {
	mock.Mock
}

func (m *MockNotificationService) List(ctx context.Context, userID string) (*application.NotificationList, error) {
	args := m.Called(ctx, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.NotificationList), args.Error(1)
}

func (m *MockNotificationService) MarkAsRead(ctx context.Context, id, userID string) (*notification.Notification, error) {
	args := m.Called(ctx, id, userID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Notification), args.Error(1)
}

func (m *MockNotificationService) MarkAllAsRead(ctx context.Context, userID string) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MockNotificationService) Delete(ctx context.Context, id, userID string) error {
	return m.Called(ctx, id, userID).Error(0)
}

// MockReconciler はReconcilerInterfaceのモック
type MockReconciler struct {
	mock.Mock
}

func (m *MockReconciler) ReconcileInventory(ctx context.Context) (*application.ReconcileResult, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*application.ReconcileResult), args.Error(1)
}

type stubChecker struct {
	status health.Status
}

func (s stubChecker) Check(context.Context) health.Status { return s.status }

const (
	testUserID  = "user-1"
	testAdminID = "admin-1"
	testEventID = "550e8400-e29b-41d4-a716-446655440000"
)

var (
	testUser  = user.Principal{UserID: testUserID, Role: user.RoleUser}
	testAdmin = user.Principal{UserID: testAdminID, Role: user.RoleAdmin}
	anonymous = user.Principal{}
	testNow   = time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
)

// testServer はルーティングと認証を含めてハンドラーを検証する
type testServer struct {
	e             *echo.Echo
	tokens        *auth.TokenManager
	events        *MockEventService
	bookings      *MockBookingService
	stats         *MockStatsService
	notifications *MockNotificationService
	reconciler    *MockReconciler
}

func newTestServer(t *testing.T, checkers ...health.Checker) *testServer {
	t.Helper()
	tokens, err := auth.NewTokenManager("handler-test-secret", time.Hour)
	require.NoError(t, err)

	s := &testServer{
		e:             NewTestEcho(),
		tokens:        tokens,
		events:        new(MockEventService),
		bookings:      new(MockBookingService),
		stats:         new(MockStatsService),
		notifications: new(MockNotificationService),
		reconciler:    new(MockReconciler),
	}
	RegisterRoutes(s.e, Handlers{
		Event:        NewEventHandler(s.events),
		Booking:      NewBookingHandler(s.bookings, s.stats),
		Notification: NewNotificationHandler(s.notifications),
		Admin:        NewAdminHandler(s.reconciler),
		Health:       NewHealthHandler(checkers...),
	}, tokens)
	return s
}

func (s *testServer) assertExpectations(t *testing.T) {
	t.Helper()
	s.events.AssertExpectations(t)
	s.bookings.AssertExpectations(t)
	s.stats.AssertExpectations(t)
	s.notifications.AssertExpectations(t)
	s.reconciler.AssertExpectations(t)
}

// do はリクエストを送る。as がゼロ値なら認証ヘッダーを付けない
func (s *testServer) do(t *testing.T, method, path, body string, as user.Principal) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, path, nil)
	}
	if as.UserID != "" {
		token, err := s.tokens.Issue(as)
		require.NoError(t, err)
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func sampleEvent() *event.Event {
	return &event.Event{
		ID:              testEventID,
		Title:           "春のジャズナイト",
		Category:        event.CategoryConcert,
		Venue:           "ブルーノート東京",
		City:            "東京",
		StartAt:         testNow.Add(30 * 24 * time.Hour),
		TotalSeats:      100,
		AvailableSeats:  80,
		Price:           5000,
		IsActive:        true,
		BookingDeadline: testNow.Add(29 * 24 * time.Hour),
		CreatedAt:       testNow,
		UpdatedAt:       testNow,
		Version:         3,
	}
}

func sampleBooking() *booking.Booking {
	return &booking.Booking{
		ID:            "7c9e6679-7425-40de-944b-e07fc1f90ae7",
		TicketCode:    "TKT-1772359200000-ABCDE1234",
		UserID:        testUserID,
		EventID:       testEventID,
		Quantity:      2,
		TotalAmount:   10000,
		Status:        booking.StatusConfirmed,
		PaymentStatus: booking.PaymentCompleted,
		BookingDate:   testNow,
		CreatedAt:     testNow,
		UpdatedAt:     testNow,
	}
}
