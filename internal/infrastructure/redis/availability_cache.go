package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	ErrCacheMiss = errors.New("キャッシュが見つかりません")
)

// Availability はキャッシュするイベントの座席状況
type Availability struct {
	AvailableSeats int
	TotalSeats     int
}

// AvailabilityCacheInterface はイベント空席数キャッシュを抽象化する
type AvailabilityCacheInterface interface {
	Get(ctx context.Context, eventID string) (Availability, error)
	Set(ctx context.Context, eventID string, a Availability, ttl time.Duration) error
	Invalidate(ctx context.Context, eventID string) error
}

// AvailabilityCache はイベントの座席状況を短時間キャッシュする
// 予約処理はこの値を参照せず、表示用の読み取りにのみ使う
type AvailabilityCache struct {
	client *redis.Client
}

// NewAvailabilityCache は新しいAvailabilityCacheを作成する
func NewAvailabilityCache(client *redis.Client) *AvailabilityCache {
	return &AvailabilityCache{client: client}
}

// Get はイベントの座席状況をキャッシュから取得する
func (c *AvailabilityCache) Get(ctx context.Context, eventID string) (Availability, error) {
	vals, err := c.client.HGetAll(ctx, availabilityKey(eventID)).Result()
	if err != nil {
		return Availability{}, fmt.Errorf("キャッシュ取得に失敗: %w", err)
	}
	if len(vals) == 0 {
		return Availability{}, ErrCacheMiss
	}

	available, err1 := strconv.Atoi(vals["available"])
	total, err2 := strconv.Atoi(vals["total"])
	if err1 != nil || err2 != nil {
		// 壊れたエントリはミス扱いにして再計算させる
		return Availability{}, ErrCacheMiss
	}
	return Availability{AvailableSeats: available, TotalSeats: total}, nil
}

// Set はイベントの座席状況をキャッシュに保存する
func (c *AvailabilityCache) Set(ctx context.Context, eventID string, a Availability, ttl time.Duration) error {
	key := availabilityKey(eventID)
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, key, "available", a.AvailableSeats, "total", a.TotalSeats)
		pipe.Expire(ctx, key, ttl)
		return nil
	})
	if err != nil {
		return fmt.Errorf("キャッシュ保存に失敗: %w", err)
	}
	return nil
}

// Invalidate はイベントのキャッシュを無効化する
func (c *AvailabilityCache) Invalidate(ctx context.Context, eventID string) error {
	if err := c.client.Del(ctx, availabilityKey(eventID)).Err(); err != nil {
		return fmt.Errorf("キャッシュ無効化に失敗: %w", err)
	}
	return nil
}

func availabilityKey(eventID string) string {
	return fmt.Sprintf("events:available:%s", eventID)
}

var _ AvailabilityCacheInterface = (*AvailabilityCache)(nil)
