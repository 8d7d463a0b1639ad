package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics はアプリケーションのメトリクスを管理する
// メソッドは nil レシーバでも呼べる（テストやメトリクス無効時は何もしない）
type Metrics struct {
	// HTTPリクエストの総数（method, path, status_code）
	HTTPRequestsTotal *prometheus.CounterVec

	// HTTPリクエストのレイテンシ（method, path）
	HTTPRequestDuration *prometheus.HistogramVec

	// 予約操作の総数（operation: create/cancel, result: success/insufficient_seats/...）
	BookingsTotal *prometheus.CounterVec

	// 座席カウンタの増減（direction: reserve/release）
	SeatAdjustmentsTotal *prometheus.CounterVec

	// 分散ロックの操作時間（operation: acquire/release, status: success/failed）
	DistributedLockDuration *prometheus.HistogramVec

	// 整合性チェックで補正した座席数の件数
	InventoryCorrectionsTotal prometheus.Counter

	// 通知イベントの発行失敗（event）
	NotificationPublishFailures *prometheus.CounterVec
}

// New は新しいMetricsインスタンスを作成し、デフォルトレジストリに登録する
func New() *Metrics {
	return NewWithRegistry(prometheus.DefaultRegisterer)
}

// NewWithRegistry は指定したレジストリにメトリクスを登録する
func NewWithRegistry(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		HTTPRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status_code"},
		),
		HTTPRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request latency in seconds",
				Buckets: []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		BookingsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "bookings_total",
				Help: "Total number of booking operations by outcome",
			},
			[]string{"operation", "result"},
		),
		SeatAdjustmentsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "seat_adjustments_total",
				Help: "Total number of seats reserved or released",
			},
			[]string{"direction"},
		),
		DistributedLockDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "distributed_lock_duration_seconds",
				Help:    "Time spent on distributed lock operations",
				Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
			},
			[]string{"operation", "status"},
		),
		InventoryCorrectionsTotal: prometheus.NewCounter(
			prometheus.CounterOpts{
				Name: "inventory_corrections_total",
				Help: "Total number of events whose available seat counter was corrected",
			},
		),
		NotificationPublishFailures: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "notification_publish_failures_total",
				Help: "Total number of booking events that could not be published",
			},
			[]string{"event"},
		),
	}

	reg.MustRegister(
		m.HTTPRequestsTotal,
		m.HTTPRequestDuration,
		m.BookingsTotal,
		m.SeatAdjustmentsTotal,
		m.DistributedLockDuration,
		m.InventoryCorrectionsTotal,
		m.NotificationPublishFailures,
	)

	return m
}

// RecordBooking は予約操作の結果を記録する
func (m *Metrics) RecordBooking(operation, result string) {
	if m == nil {
		return
	}
	m.BookingsTotal.WithLabelValues(operation, result).Inc()
}

// RecordSeatAdjustment は座席の増減を記録する。delta が負なら確保、正なら解放
func (m *Metrics) RecordSeatAdjustment(delta int) {
	if m == nil || delta == 0 {
		return
	}
	if delta < 0 {
		m.SeatAdjustmentsTotal.WithLabelValues("reserve").Add(float64(-delta))
		return
	}
	m.SeatAdjustmentsTotal.WithLabelValues("release").Add(float64(delta))
}

// ObserveLock は分散ロック操作の所要時間を記録する
func (m *Metrics) ObserveLock(operation string, ok bool, d time.Duration) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failed"
	}
	m.DistributedLockDuration.WithLabelValues(operation, status).Observe(d.Seconds())
}

// RecordInventoryCorrection は座席数の補正を記録する
func (m *Metrics) RecordInventoryCorrection() {
	if m == nil {
		return
	}
	m.InventoryCorrectionsTotal.Inc()
}

// RecordPublishFailure は通知イベントの発行失敗を記録する
func (m *Metrics) RecordPublishFailure(event string) {
	if m == nil {
		return
	}
	m.NotificationPublishFailures.WithLabelValues(event).Inc()
}

// ObserveHTTP はHTTPリクエストを記録する
func (m *Metrics) ObserveHTTP(method, path, status string, d time.Duration) {
	if m == nil {
		return
	}
	m.HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	m.HTTPRequestDuration.WithLabelValues(method, path).Observe(d.Seconds())
}

// デフォルトのメトリクスインスタンス
var defaultMetrics *Metrics

// Init はデフォルトのメトリクスインスタンスを初期化する
func Init() *Metrics {
	defaultMetrics = New()
	return defaultMetrics
}

// Get はデフォルトのメトリクスインスタンスを返す。Init 前は nil
func Get() *Metrics {
	return defaultMetrics
}
