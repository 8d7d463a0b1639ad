package notification

import "errors"

var (
	ErrNotificationNotFound = errors.New("通知が見つかりません")
	ErrUserIDRequired       = errors.New("ユーザーIDは必須です")
	ErrContentRequired      = errors.New("通知のタイトルと本文は必須です")
)
