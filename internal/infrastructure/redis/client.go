package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/sanosuguru/go-event-booking-ledger/internal/config"
	"github.com/sanosuguru/go-event-booking-ledger/internal/pkg/health"
)

// Config はRedis接続設定
type Config struct {
	Host     string
	Port     string
	Password string
	DB       int
}

// ConfigFrom はアプリケーション設定からConfigを作成する
func ConfigFrom(cfg *config.RedisConfig) *Config {
	return &Config{Host: cfg.Host, Port: cfg.Port, Password: cfg.Password, DB: cfg.DB}
}

// NewClient はRedisクライアントを作成し、接続を確認する
func NewClient(cfg *Config) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Host + ":" + cfg.Port,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("Redis接続に失敗しました: %w", err)
	}
	return client, nil
}

// HealthChecker はRedisの接続状態を報告する
type HealthChecker struct {
	client *redis.Client
}

// NewHealthChecker は新しいHealthCheckerを作成する
func NewHealthChecker(client *redis.Client) *HealthChecker {
	return &HealthChecker{client: client}
}

// Check は ping を実行して接続状態を返す
func (h *HealthChecker) Check(ctx context.Context) health.Status {
	return health.Ping(ctx, "redis", func(ctx context.Context) error {
		return h.client.Ping(ctx).Err()
	})
}

var _ health.Checker = (*HealthChecker)(nil)
