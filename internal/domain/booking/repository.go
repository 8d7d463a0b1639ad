package booking

import (
	"context"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/transaction"
)

// Repository は予約台帳リポジトリのインターフェース
type Repository interface {
	// Create は新しい予約を作成する（トランザクション必須）
	// チケットコードが重複した場合は ErrDuplicateTicketCode を返し、トランザクションは継続可能
	Create(ctx context.Context, tx transaction.Tx, booking *Booking) error

	// GetByID はIDから予約を取得する
	GetByID(ctx context.Context, id string) (*Booking, error)

	// GetByIDForUpdate は行ロックを取得して予約を取得する（トランザクション必須）
	GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*Booking, error)

	// ListByUser はユーザーの予約一覧を新しい順に取得する
	ListByUser(ctx context.Context, userID string) ([]*Booking, error)

	// ListAll は全予約を新しい順に取得する
	ListAll(ctx context.Context, limit, offset int) ([]*Booking, error)

	// UpdateStatus は予約状態を更新する（トランザクション必須）
	// キャンセル済みの予約は更新せず ErrAlreadyCancelled を返す
	UpdateStatus(ctx context.Context, tx transaction.Tx, booking *Booking) error

	// SumActiveQuantity はイベントで座席を確保している予約の枚数合計を返す（トランザクション必須）
	SumActiveQuantity(ctx context.Context, tx transaction.Tx, eventID string) (int, error)

	// CountByEvent はイベントに紐づく予約件数を返す
	CountByEvent(ctx context.Context, eventID string) (int, error)

	// GetStats は予約台帳全体の集計を返す
	GetStats(ctx context.Context, monthlyLimit int) (*Stats, error)
}
