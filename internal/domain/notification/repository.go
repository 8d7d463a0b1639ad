package notification

import "context"

// Repository は通知リポジトリのインターフェース
type Repository interface {
	Create(ctx context.Context, n *Notification) error

	// ListByUser はユーザーの通知を新しい順に最大 limit 件取得する
	ListByUser(ctx context.Context, userID string, limit int) ([]*Notification, error)

	CountUnread(ctx context.Context, userID string) (int, error)

	// MarkRead は本人の通知を既読にする
	MarkRead(ctx context.Context, id, userID string) (*Notification, error)

	// MarkAllRead は本人の未読通知をすべて既読にし、更新件数を返す
	MarkAllRead(ctx context.Context, userID string) (int, error)

	// Delete は本人の通知を削除する
	Delete(ctx context.Context, id, userID string) error
}
