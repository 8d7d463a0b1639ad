package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/booking"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/event"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/transaction"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/user"
	redisinfra "github.com/sanosuguru/go-event-booking-ledger/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/logger"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/metrics"
)

const (
	DefaultListLimit = 100
	MaxListLimit     = 500

	defaultTicketCodeAttempts = 5
)

// BookingService は在庫と予約台帳をまたぐ予約操作を調停する
type BookingService struct {
	txManager          transaction.Manager
	bookingRepo        booking.Repository
	eventRepo          event.Repository
	cache              redisinfra.AvailabilityCacheInterface
	publisher          EventPublisher
	renderer           TicketRenderer
	ticketCodes        booking.TicketCodeGenerator
	ticketCodeAttempts int
	now                func() time.Time
}

// NewBookingService はBookingServiceを作成する
// cache と publisher は nil でもよい
func NewBookingService(
	txm transaction.Manager,
	br booking.Repository,
	er event.Repository,
	cache redisinfra.AvailabilityCacheInterface,
	publisher EventPublisher,
	renderer TicketRenderer,
	ticketCodeAttempts int,
) *BookingService {
	if ticketCodeAttempts <= 0 {
		ticketCodeAttempts = defaultTicketCodeAttempts
	}
	return &BookingService{
		txManager:          txm,
		bookingRepo:        br,
		eventRepo:          er,
		cache:              cache,
		publisher:          publisher,
		renderer:           renderer,
		ticketCodes:        booking.GenerateTicketCode,
		ticketCodeAttempts: ticketCodeAttempts,
		now:                time.Now,
	}
}

type CreateBookingInput struct {
	UserID   string
	EventID  string
	Quantity int
}

// CreateBooking は空席を確保して予約を確定する
// 空席の減算と予約の挿入は同一トランザクションでコミットされる
func (s *BookingService) CreateBooking(ctx context.Context, input CreateBookingInput) (*booking.Booking, error) {
	b, ev, err := s.createBooking(ctx, input)
	metrics.Get().RecordBooking("create", resultLabel(err))
	if err != nil {
		return nil, err
	}
	metrics.Get().RecordSeatAdjustment(-b.Quantity)

	logger.FromContext(ctx).Info("予約を確定しました",
		zap.String("booking_id", b.ID),
		zap.String("event_id", b.EventID),
		zap.Int("quantity", b.Quantity),
	)
	s.afterCommit(ctx, b.EventID, booking.NewConfirmedEvent(b, ev.Title, s.now()), "booking_confirmed")
	return b, nil
}

func (s *BookingService) createBooking(ctx context.Context, input CreateBookingInput) (*booking.Booking, *event.Event, error) {
	ev, err := s.eventRepo.GetByID(ctx, input.EventID)
	if err != nil {
		return nil, nil, fmt.Errorf("イベント取得に失敗: %w", err)
	}
	now := s.now()
	if err := ev.CheckBookable(now); err != nil {
		return nil, nil, err
	}
	if err := booking.ValidateQuantity(input.Quantity); err != nil {
		return nil, nil, err
	}

	var created *booking.Booking
	err = transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		updated, err := s.eventRepo.AdjustSeats(ctx, tx, ev.ID, -input.Quantity, event.AnyVersion)
		if err != nil {
			return err
		}
		// 事前チェック後に非公開化や締切変更がコミットされている場合があるため、行ロック下の値で再判定する
		if err := updated.CheckBookable(now); err != nil {
			return err
		}
		// 金額は確保時点の価格で固定する
		b, err := booking.NewBooking(input.UserID, ev.ID, input.Quantity, updated.Price, now)
		if err != nil {
			return err
		}
		if err := b.Confirm(now); err != nil {
			return err
		}
		if err := s.insertWithTicketCode(ctx, tx, b, now); err != nil {
			return err
		}
		created = b
		ev = updated
		return nil
	})
	if err != nil {
		return nil, nil, err
	}
	return created, ev, nil
}

// insertWithTicketCode は重複しないチケットコードが得られるまで採番し直して挿入する
func (s *BookingService) insertWithTicketCode(ctx context.Context, tx transaction.Tx, b *booking.Booking, now time.Time) error {
	for attempt := 1; attempt <= s.ticketCodeAttempts; attempt++ {
		code, err := s.ticketCodes(now)
		if err != nil {
			return fmt.Errorf("チケットコード生成に失敗: %w", err)
		}
		b.TicketCode = code
		err = s.bookingRepo.Create(ctx, tx, b)
		if err == nil {
			return nil
		}
		if !errors.Is(err, booking.ErrDuplicateTicketCode) {
			return err
		}
		logger.FromContext(ctx).Warn("チケットコードが重複したため再採番します",
			zap.String("ticket_code", code),
			zap.Int("attempt", attempt),
		)
	}
	b.TicketCode = ""
	return booking.ErrTicketCodeExhausted
}

// CancelBooking は予約をキャンセルし、確保していた座席を戻す
func (s *BookingService) CancelBooking(ctx context.Context, id string, actor user.Principal) (*booking.Booking, error) {
	b, err := s.cancelBooking(ctx, id, actor)
	metrics.Get().RecordBooking("cancel", resultLabel(err))
	if err != nil {
		return nil, err
	}
	metrics.Get().RecordSeatAdjustment(b.Quantity)

	logger.FromContext(ctx).Info("予約をキャンセルしました",
		zap.String("booking_id", b.ID),
		zap.String("event_id", b.EventID),
		zap.String("actor", actor.UserID),
	)
	s.afterCommit(ctx, b.EventID, booking.NewCancelledEvent(b, s.now()), "booking_cancelled")
	return b, nil
}

func (s *BookingService) cancelBooking(ctx context.Context, id string, actor user.Principal) (*booking.Booking, error) {
	var cancelled *booking.Booking
	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		// 行ロックにより同じ予約の同時キャンセルは直列化される
		b, err := s.bookingRepo.GetByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if !actor.CanAccess(b.UserID) {
			return booking.ErrNotAuthorized
		}
		if err := b.Cancel(s.now()); err != nil {
			return err
		}
		if err := s.bookingRepo.UpdateStatus(ctx, tx, b); err != nil {
			return err
		}
		if _, err := s.eventRepo.AdjustSeats(ctx, tx, b.EventID, b.Quantity, event.AnyVersion); err != nil {
			return fmt.Errorf("座席の返却に失敗: %w", err)
		}
		cancelled = b
		return nil
	})
	if err != nil {
		return nil, err
	}
	return cancelled, nil
}

// afterCommit はコミット後の副作用を実行する。失敗しても予約結果は変えない
func (s *BookingService) afterCommit(ctx context.Context, eventID string, msg any, name string) {
	ctx = context.WithoutCancel(ctx)
	log := logger.FromContext(ctx)

	if s.cache != nil {
		if err := s.cache.Invalidate(ctx, eventID); err != nil {
			log.Warn("空席キャッシュの無効化に失敗", zap.String("event_id", eventID), zap.Error(err))
		}
	}
	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, msg); err != nil {
			log.Warn("予約イベントの発行に失敗", zap.String("event", name), zap.Error(err))
			metrics.Get().RecordPublishFailure(name)
		}
	}
}

// GetBooking は本人または管理者に予約を返す
func (s *BookingService) GetBooking(ctx context.Context, id string, actor user.Principal) (*booking.Booking, error) {
	b, err := s.bookingRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !actor.CanAccess(b.UserID) {
		return nil, booking.ErrNotAuthorized
	}
	return b, nil
}

func (s *BookingService) GetMyBookings(ctx context.Context, userID string) ([]*booking.Booking, error) {
	return s.bookingRepo.ListByUser(ctx, userID)
}

// ListAllBookings は全予約を新しい順に返す（管理者向け）
func (s *BookingService) ListAllBookings(ctx context.Context, limit, offset int) ([]*booking.Booking, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}
	if offset < 0 {
		offset = 0
	}
	return s.bookingRepo.ListAll(ctx, limit, offset)
}

// GetTicket は確定済み予約の電子チケット（PDF）を生成する
func (s *BookingService) GetTicket(ctx context.Context, id string, actor user.Principal) (*booking.Booking, []byte, error) {
	b, err := s.GetBooking(ctx, id, actor)
	if err != nil {
		return nil, nil, err
	}
	if !b.IsConfirmed() {
		return nil, nil, booking.ErrBookingNotConfirmed
	}
	ev, err := s.eventRepo.GetByID(ctx, b.EventID)
	if err != nil {
		return nil, nil, fmt.Errorf("イベント取得に失敗: %w", err)
	}
	if s.renderer == nil {
		return nil, nil, errors.New("チケット生成器が設定されていません")
	}
	pdf, err := s.renderer.Render(b, ev)
	if err != nil {
		return nil, nil, fmt.Errorf("チケット生成に失敗: %w", err)
	}
	return b, pdf, nil
}

func resultLabel(err error) string {
	switch {
	case err == nil:
		return "success"
	case errors.Is(err, event.ErrInsufficientSeats):
		return "insufficient_seats"
	case errors.Is(err, booking.ErrAlreadyCancelled):
		return "already_cancelled"
	case errors.Is(err, event.ErrEventNotFound), errors.Is(err, booking.ErrBookingNotFound):
		return "not_found"
	case errors.Is(err, event.ErrEventInactive), errors.Is(err, event.ErrBookingClosed),
		errors.Is(err, booking.ErrInvalidQuantity), errors.Is(err, booking.ErrNotAuthorized):
		return "rejected"
	default:
		return "error"
	}
}
