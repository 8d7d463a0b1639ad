package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/sanosuguru/go-event-booking-ledger/internal/application"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/logger"
)

// Reconciler は予約台帳から空席数を再計算する
type Reconciler interface {
	ReconcileInventory(ctx context.Context) (*application.ReconcileResult, error)
}

// InventoryReconciler は在庫の再計算を定期実行するワーカー
// 複数インスタンスで動かしても分散ロックにより同時実行は1つに絞られる
type InventoryReconciler struct {
	reconciler Reconciler
	interval   time.Duration
	stopCh     chan struct{}
	doneCh     chan struct{}
	stopOnce   sync.Once
}

// NewInventoryReconciler は新しいワーカーを作成する
func NewInventoryReconciler(r Reconciler, interval time.Duration) *InventoryReconciler {
	return &InventoryReconciler{
		reconciler: r,
		interval:   interval,
		stopCh:     make(chan struct{}),
		doneCh:     make(chan struct{}),
	}
}

// Start は ctx がキャンセルされるか Stop が呼ばれるまでブロックする
func (w *InventoryReconciler) Start(ctx context.Context) {
	log := logger.Named("inventory-reconciler")
	log.Info("在庫再計算ワーカー開始", zap.Duration("interval", w.interval))

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.doneCh)

	for {
		select {
		case <-ctx.Done():
			log.Info("在庫再計算ワーカー停止（コンテキストキャンセル）")
			return
		case <-w.stopCh:
			log.Info("在庫再計算ワーカー停止（シグナル受信）")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop はワーカーを止め、実行中の再計算が終わるまで待つ
func (w *InventoryReconciler) Stop() {
	w.stopOnce.Do(func() { close(w.stopCh) })
	<-w.doneCh
}

func (w *InventoryReconciler) runOnce(ctx context.Context) {
	log := logger.Named("inventory-reconciler")

	res, err := w.reconciler.ReconcileInventory(ctx)
	if err != nil {
		log.Error("在庫再計算に失敗", zap.Error(err))
		return
	}
	switch {
	case res.Skipped:
		log.Debug("他のインスタンスが再計算中のためスキップ")
	case res.Corrected > 0:
		log.Info("在庫を補正", zap.Int("checked", res.Checked), zap.Int("corrected", res.Corrected))
	default:
		log.Debug("在庫の不整合なし", zap.Int("checked", res.Checked))
	}
}
