package booking

import "errors"

// Booking ドメインのエラー定義
var (
	ErrBookingNotFound     = errors.New("予約が見つかりません")
	ErrInvalidQuantity     = errors.New("予約枚数は1枚以上10枚以下である必要があります")
	ErrAlreadyCancelled    = errors.New("予約は既にキャンセルされています")
	ErrBookingNotPending   = errors.New("予約は保留中ではありません")
	ErrBookingNotConfirmed = errors.New("確定済みの予約ではありません")
	ErrNotAuthorized       = errors.New("この予約を操作する権限がありません")
	ErrUserIDRequired      = errors.New("ユーザーIDは必須です")
	ErrEventIDRequired     = errors.New("イベントIDは必須です")
	ErrDuplicateTicketCode = errors.New("チケットコードが重複しています")
	ErrTicketCodeExhausted = errors.New("チケットコードの採番に失敗しました")
)
