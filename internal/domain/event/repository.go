package event

import (
	"context"
	"time"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/transaction"
)

// SortOrder はイベント一覧の並び順
type SortOrder string

const (
	SortByStartAt   SortOrder = "date"
	SortByPriceLow  SortOrder = "price_low"
	SortByPriceHigh SortOrder = "price_high"
	SortByNewest    SortOrder = "newest"
)

// ListFilter はイベント一覧の検索条件
type ListFilter struct {
	Category        Category
	City            string
	Search          string
	From            *time.Time
	To              *time.Time
	MinPrice        *int
	MaxPrice        *int
	Upcoming        bool
	Featured        bool
	IncludeInactive bool
	Sort            SortOrder
	Limit           int
	Offset          int
}

// Repository はイベントリポジトリのインターフェース
type Repository interface {
	// Create は新しいイベントを作成する
	Create(ctx context.Context, event *Event) error

	// GetByID はIDからイベントを取得する
	GetByID(ctx context.Context, id string) (*Event, error)

	// List は条件に一致するイベント一覧と総件数を取得する
	List(ctx context.Context, filter ListFilter) ([]*Event, int, error)

	// ListIDs は全イベントのIDを取得する
	ListIDs(ctx context.Context) ([]string, error)

	// Update はイベントを更新する（楽観的ロック）
	Update(ctx context.Context, event *Event) error

	// Delete はイベントを削除する
	Delete(ctx context.Context, id string) error

	// AdjustSeats は空席数を delta だけアトミックに増減する（トランザクション必須）
	// 結果が [0, TotalSeats] を外れる場合は更新せずにエラーを返す
	AdjustSeats(ctx context.Context, tx transaction.Tx, id string, delta, expectedVersion int) (*Event, error)

	// GetForUpdate は行ロックを取得してイベントを取得する（トランザクション必須）
	GetForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Event, error)

	// SetAvailableSeats は空席数を上書きする（在庫再計算専用、トランザクション必須）
	SetAvailableSeats(ctx context.Context, tx transaction.Tx, id string, available int) error
}
