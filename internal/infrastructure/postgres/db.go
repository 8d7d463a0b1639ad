package postgres

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"

	"github.com/sanosuguru/go-event-booking-ledger/internal/config"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/health"
)

// NewConnection はPostgreSQLへの接続を作成する
func NewConnection(cfg *config.DatabaseConfig) (*sqlx.DB, error) {
	db, err := sqlx.Connect("postgres", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("データベース接続に失敗しました: %w", err)
	}

	// 接続プール設定
	maxOpen, maxIdle := cfg.MaxOpenConns, cfg.MaxIdleConns
	if maxOpen <= 0 {
		maxOpen = 25
	}
	if maxIdle <= 0 {
		maxIdle = 5
	}
	db.SetMaxOpenConns(maxOpen)
	db.SetMaxIdleConns(maxIdle)

	return db, nil
}

// HealthChecker はデータベースの接続状態を報告する
type HealthChecker struct {
	db *sqlx.DB
}

// NewHealthChecker は新しいHealthCheckerを作成する
func NewHealthChecker(db *sqlx.DB) *HealthChecker {
	return &HealthChecker{db: db}
}

// Check は ping を実行して接続状態を返す
func (h *HealthChecker) Check(ctx context.Context) health.Status {
	return health.Ping(ctx, "database", h.db.PingContext)
}

var _ health.Checker = (*HealthChecker)(nil)
