package event

import (
	"errors"
	"fmt"
)

// Event ドメインのエラー定義
var (
	ErrEventNotFound           = errors.New("イベントが見つかりません")
	ErrEventTitleRequired      = errors.New("イベント名は必須です")
	ErrEventTitleTooLong       = errors.New("イベント名は100文字以内である必要があります")
	ErrEventDescriptionTooLong = errors.New("イベント説明は2000文字以内である必要があります")
	ErrInvalidCategory         = errors.New("不正なカテゴリです")
	ErrVenueRequired           = errors.New("会場は必須です")
	ErrStartAtRequired         = errors.New("開催日時は必須です")
	ErrInvalidTotalSeats       = errors.New("座席数は1以上である必要があります")
	ErrInvalidPrice            = errors.New("価格は0以上である必要があります")
	ErrEventInactive           = errors.New("イベントは現在予約を受け付けていません")
	ErrBookingClosed           = errors.New("イベントの予約受付期間は終了しました")
	ErrInsufficientSeats       = errors.New("空席が不足しています")
	ErrSeatsOverflow           = errors.New("空席数が総座席数を超えます")
	ErrTotalSeatsBelowHeld     = errors.New("総座席数が予約済みの座席数を下回ります")
	ErrEventHasBookings        = errors.New("予約が存在するイベントは削除できません")
	ErrOptimisticLockConflict  = errors.New("楽観的ロックの競合が発生しました")
)

// InsufficientSeatsError は空席不足を表し、現在の空席数を保持する
type InsufficientSeatsError struct {
	Available int
	Requested int
}

func (e *InsufficientSeatsError) Error() string {
	return fmt.Sprintf("%s（空席: %d, 要求: %d）", ErrInsufficientSeats.Error(), e.Available, e.Requested)
}

// Is は errors.Is(err, ErrInsufficientSeats) を成立させる
func (e *InsufficientSeatsError) Is(target error) bool {
	return target == ErrInsufficientSeats
}
