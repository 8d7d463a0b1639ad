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
	redisinfra "github.com/sanosuguru/go-event-booking-ledger/internal/infrastructure/redis"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/logger"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/metrics"
)

const (
	reconcileLockKey        = "inventory:reconcile"
	defaultReconcileLockTTL = time.Minute
)

// ReconcileResult は在庫再計算の結果
type ReconcileResult struct {
	Checked   int
	Corrected int
	// Skipped は他のレプリカが実行中だったため何もしなかったことを示す
	Skipped bool
}

// ReconciliationService は予約台帳から空席数を再計算する
type ReconciliationService struct {
	txManager   transaction.Manager
	eventRepo   event.Repository
	bookingRepo booking.Repository
	lockManager redisinfra.LockManagerInterface
	cache       redisinfra.AvailabilityCacheInterface
	lockTTL     time.Duration
	log         *zap.Logger
	now         func() time.Time
}

// NewReconciliationService はReconciliationServiceを作成する
// lockManager が nil の場合は単一プロセスとして排他なしで実行する
func NewReconciliationService(
	txm transaction.Manager,
	er event.Repository,
	br booking.Repository,
	lm redisinfra.LockManagerInterface,
	cache redisinfra.AvailabilityCacheInterface,
	lockTTL time.Duration,
) *ReconciliationService {
	if lockTTL <= 0 {
		lockTTL = defaultReconcileLockTTL
	}
	return &ReconciliationService{
		txManager:   txm,
		eventRepo:   er,
		bookingRepo: br,
		lockManager: lm,
		cache:       cache,
		lockTTL:     lockTTL,
		log:         logger.Named("reconciler"),
		now:         time.Now,
	}
}

// ReconcileInventory は全イベントの空席数を max(総座席数 - 確保済み枚数, 0) に揃える
// 何度実行しても結果は変わらない
// ロックはTTLの半分が過ぎるたびに延長し、延長できなければ途中で打ち切る
func (s *ReconciliationService) ReconcileInventory(ctx context.Context) (*ReconcileResult, error) {
	var (
		lock       redisinfra.Lock
		extendedAt time.Time
	)
	if s.lockManager != nil {
		var err error
		lock, err = s.lockManager.AcquireLock(ctx, reconcileLockKey, s.lockTTL)
		if err != nil {
			if errors.Is(err, redisinfra.ErrLockNotAcquired) {
				s.log.Info("他のプロセスが在庫再計算中のためスキップします")
				return &ReconcileResult{Skipped: true}, nil
			}
			return nil, fmt.Errorf("ロック取得に失敗: %w", err)
		}
		defer func() {
			if err := lock.Release(context.WithoutCancel(ctx)); err != nil {
				s.log.Warn("ロック解放に失敗", zap.Error(err))
			}
		}()
		extendedAt = s.now()
	}

	ids, err := s.eventRepo.ListIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("イベントID一覧の取得に失敗: %w", err)
	}

	result := &ReconcileResult{}
	var errs []error
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		if lock != nil {
			if t := s.now(); t.Sub(extendedAt) >= s.lockTTL/2 {
				if err := lock.Extend(ctx, s.lockTTL); err != nil {
					errs = append(errs, fmt.Errorf("ロック延長に失敗したため再計算を中断します: %w", err))
					break
				}
				extendedAt = t
			}
		}
		corrected, err := s.reconcileEvent(ctx, id)
		if err != nil {
			// 再計算中に削除されたイベントは対象外
			if errors.Is(err, event.ErrEventNotFound) {
				continue
			}
			errs = append(errs, fmt.Errorf("イベント %s: %w", id, err))
			continue
		}
		result.Checked++
		if corrected {
			result.Corrected++
		}
	}

	s.log.Info("在庫再計算が完了しました",
		zap.Int("checked", result.Checked),
		zap.Int("corrected", result.Corrected),
		zap.Int("failed", len(errs)),
	)
	return result, errors.Join(errs...)
}

func (s *ReconciliationService) reconcileEvent(ctx context.Context, id string) (bool, error) {
	var before, after, held int
	corrected := false

	err := transaction.Run(ctx, s.txManager, func(tx transaction.Tx) error {
		// 行ロック取得後に集計するため、この行に触れた予約トランザクションはすべてコミット済み
		ev, err := s.eventRepo.GetForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		held, err = s.bookingRepo.SumActiveQuantity(ctx, tx, id)
		if err != nil {
			return err
		}
		if held > ev.TotalSeats {
			s.log.Error("確保済み枚数が総座席数を超えています",
				zap.String("event_id", id),
				zap.Int("held", held),
				zap.Int("total_seats", ev.TotalSeats),
			)
		}

		want := max(ev.TotalSeats-held, 0)
		if want == ev.AvailableSeats {
			return nil
		}
		if err := s.eventRepo.SetAvailableSeats(ctx, tx, id, want); err != nil {
			return err
		}
		before, after = ev.AvailableSeats, want
		corrected = true
		return nil
	})
	if err != nil {
		return false, err
	}
	if !corrected {
		return false, nil
	}

	s.log.Warn("空席数を補正しました",
		zap.String("event_id", id),
		zap.Int("before", before),
		zap.Int("after", after),
		zap.Int("held", held),
	)
	metrics.Get().RecordInventoryCorrection()
	if s.cache != nil {
		if err := s.cache.Invalidate(context.WithoutCancel(ctx), id); err != nil {
			s.log.Warn("空席キャッシュの無効化に失敗", zap.String("event_id", id), zap.Error(err))
		}
	}
	return true, nil
}
