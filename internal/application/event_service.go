package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/booking"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/event"
	redisinfra "github.com/sanosuguru/go-event-booking-ledger/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/logger"
)

const (
	DefaultEventPageLimit = 12
	MaxEventPageLimit     = 100
	FeaturedEventsLimit   = 6

	defaultAvailabilityTTL = 30 * time.Second
)

// EventService はイベントカタログの操作を提供する
type EventService struct {
	eventRepo   event.Repository
	bookingRepo booking.Repository
	cache       redisinfra.AvailabilityCacheInterface
	cacheTTL    time.Duration
	now         func() time.Time
}

// NewEventService はEventServiceを作成する。cache は nil でもよい
func NewEventService(er event.Repository, br booking.Repository, cache redisinfra.AvailabilityCacheInterface, cacheTTL time.Duration) *EventService {
	if cacheTTL <= 0 {
		cacheTTL = defaultAvailabilityTTL
	}
	return &EventService{eventRepo: er, bookingRepo: br, cache: cache, cacheTTL: cacheTTL, now: time.Now}
}

func (s *EventService) CreateEvent(ctx context.Context, input event.NewEventParams) (*event.Event, error) {
	e := event.NewEvent(input, s.now())
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}
	if err := s.eventRepo.Create(ctx, e); err != nil {
		return nil, fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	logger.FromContext(ctx).Info("イベントを作成しました", zap.String("event_id", e.ID), zap.Int("total_seats", e.TotalSeats))
	return e, nil
}

func (s *EventService) GetEvent(ctx context.Context, id string) (*event.Event, error) {
	return s.eventRepo.GetByID(ctx, id)
}

type ListEventsInput struct {
	Category        event.Category
	City            string
	Search          string
	From            *time.Time
	To              *time.Time
	MinPrice        *int
	MaxPrice        *int
	Upcoming        bool
	IncludeInactive bool
	Sort            event.SortOrder
	Page            int
	Limit           int
}

// EventPage はページングされたイベント一覧
type EventPage struct {
	Events     []*event.Event
	Total      int
	Page       int
	Limit      int
	TotalPages int
}

func (s *EventService) ListEvents(ctx context.Context, input ListEventsInput) (*EventPage, error) {
	page := input.Page
	if page <= 0 {
		page = 1
	}
	limit := input.Limit
	if limit <= 0 {
		limit = DefaultEventPageLimit
	}
	if limit > MaxEventPageLimit {
		limit = MaxEventPageLimit
	}
	sort := input.Sort
	if sort == "" {
		sort = event.SortByStartAt
	}

	events, total, err := s.eventRepo.List(ctx, event.ListFilter{
		Category:        input.Category,
		City:            input.City,
		Search:          input.Search,
		From:            input.From,
		To:              input.To,
		MinPrice:        input.MinPrice,
		MaxPrice:        input.MaxPrice,
		Upcoming:        input.Upcoming,
		IncludeInactive: input.IncludeInactive,
		Sort:            sort,
		Limit:           limit,
		Offset:          (page - 1) * limit,
	})
	if err != nil {
		return nil, err
	}
	return &EventPage{
		Events:     events,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: (total + limit - 1) / limit,
	}, nil
}

// ListFeaturedEvents は公開中でこれから開催される注目イベントを開催日順に返す
func (s *EventService) ListFeaturedEvents(ctx context.Context) ([]*event.Event, error) {
	events, _, err := s.eventRepo.List(ctx, event.ListFilter{
		Featured: true,
		Upcoming: true,
		Sort:     event.SortByStartAt,
		Limit:    FeaturedEventsLimit,
	})
	if err != nil {
		return nil, err
	}
	return events, nil
}

// UpdateEventInput は部分更新の入力。nil のフィールドは変更しない
type UpdateEventInput struct {
	ID              string
	Title           *string
	Description     *string
	Category        *event.Category
	Venue           *string
	City            *string
	StartAt         *time.Time
	TotalSeats      *int
	Price           *int
	IsActive        *bool
	IsFeatured      *bool
	BookingDeadline *time.Time
	Version         *int
}

func (s *EventService) UpdateEvent(ctx context.Context, input UpdateEventInput) (*event.Event, error) {
	e, err := s.eventRepo.GetByID(ctx, input.ID)
	if err != nil {
		return nil, err
	}
	if input.Version != nil && *input.Version != e.Version {
		return nil, event.ErrOptimisticLockConflict
	}

	if input.Title != nil {
		e.Title = *input.Title
	}
	if input.Description != nil {
		e.Description = *input.Description
	}
	if input.Category != nil {
		e.Category = *input.Category
	}
	if input.Venue != nil {
		e.Venue = *input.Venue
	}
	if input.City != nil {
		e.City = *input.City
	}
	if input.StartAt != nil {
		e.StartAt = *input.StartAt
	}
	if input.Price != nil {
		e.Price = *input.Price
	}
	if input.IsActive != nil {
		e.IsActive = *input.IsActive
	}
	if input.IsFeatured != nil {
		e.IsFeatured = *input.IsFeatured
	}
	if input.BookingDeadline != nil {
		e.BookingDeadline = *input.BookingDeadline
	}
	if input.TotalSeats != nil {
		if err := e.ResizeSeats(*input.TotalSeats); err != nil {
			if errors.Is(err, event.ErrTotalSeatsBelowHeld) {
				return nil, err
			}
			return nil, fmt.Errorf("バリデーションエラー: %w", err)
		}
	}
	if err := e.Validate(); err != nil {
		return nil, fmt.Errorf("バリデーションエラー: %w", err)
	}

	if err := s.eventRepo.Update(ctx, e); err != nil {
		return nil, err
	}
	s.invalidate(ctx, e.ID)
	return e, nil
}

// DeleteEvent は予約が1件も紐づいていないイベントを削除する
func (s *EventService) DeleteEvent(ctx context.Context, id string) error {
	if _, err := s.eventRepo.GetByID(ctx, id); err != nil {
		return err
	}
	count, err := s.bookingRepo.CountByEvent(ctx, id)
	if err != nil {
		return err
	}
	if count > 0 {
		return event.ErrEventHasBookings
	}
	if err := s.eventRepo.Delete(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	logger.FromContext(ctx).Info("イベントを削除しました", zap.String("event_id", id))
	return nil
}

// Availability はイベントの空席状況
type Availability struct {
	EventID        string
	AvailableSeats int
	TotalSeats     int
}

// GetAvailability は空席状況を返す。キャッシュが使えない場合はDBから読む
func (s *EventService) GetAvailability(ctx context.Context, id string) (*Availability, error) {
	log := logger.FromContext(ctx)
	if s.cache != nil {
		cached, err := s.cache.Get(ctx, id)
		if err == nil {
			return &Availability{EventID: id, AvailableSeats: cached.AvailableSeats, TotalSeats: cached.TotalSeats}, nil
		}
		if !errors.Is(err, redisinfra.ErrCacheMiss) {
			log.Warn("空席キャッシュの取得に失敗", zap.String("event_id", id), zap.Error(err))
		}
	}

	e, err := s.eventRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.cache != nil {
		a := redisinfra.Availability{AvailableSeats: e.AvailableSeats, TotalSeats: e.TotalSeats}
		if err := s.cache.Set(ctx, id, a, s.cacheTTL); err != nil {
			log.Warn("空席キャッシュの保存に失敗", zap.String("event_id", id), zap.Error(err))
		}
	}
	return &Availability{EventID: e.ID, AvailableSeats: e.AvailableSeats, TotalSeats: e.TotalSeats}, nil
}

func (s *EventService) Categories() []event.Category {
	out := make([]event.Category, len(event.Categories))
	copy(out, event.Categories)
	return out
}

func (s *EventService) invalidate(ctx context.Context, id string) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(context.WithoutCancel(ctx), id); err != nil {
		logger.FromContext(ctx).Warn("空席キャッシュの無効化に失敗", zap.String("event_id", id), zap.Error(err))
	}
}
