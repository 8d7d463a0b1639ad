package health

import (
	"context"
	"time"
)

// Status は依存コンポーネント1つ分の接続状態
type Status struct {
	Component string        `json:"component"`
	Healthy   bool          `json:"healthy"`
	Latency   time.Duration `json:"-"`
	Error     string        `json:"error,omitempty"`
}

// Checker は接続状態を確認できるコンポーネント
type Checker interface {
	Check(ctx context.Context) Status
}

// Ping は ping を実行して Status を組み立てる
func Ping(ctx context.Context, component string, ping func(ctx context.Context) error) Status {
	start := time.Now()
	err := ping(ctx)
	s := Status{Component: component, Healthy: err == nil, Latency: time.Since(start)}
	if err != nil {
		s.Error = err.Error()
	}
	return s
}

// CheckAll はすべてのCheckerを実行し、全体が健全かどうかと個別の結果を返す
func CheckAll(ctx context.Context, checkers ...Checker) (bool, []Status) {
	healthy := true
	statuses := make([]Status, 0, len(checkers))
	for _, c := range checkers {
		s := c.Check(ctx)
		if !s.Healthy {
			healthy = false
		}
		statuses = append(statuses, s)
	}
	return healthy, statuses
}
