package application

import (
	"context"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/booking"
)

// StatsService は予約台帳の集計を提供する
// 集計は常にDBから計算し、キャッシュしない
type StatsService struct {
	bookingRepo booking.Repository
}

func NewStatsService(br booking.Repository) *StatsService {
	return &StatsService{bookingRepo: br}
}

func (s *StatsService) GetStats(ctx context.Context) (*booking.Stats, error) {
	return s.bookingRepo.GetStats(ctx, booking.MonthlyStatsLimit)
}
