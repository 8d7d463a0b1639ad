package event

import (
	"time"
	"unicode/utf8"
)

// Category はイベントのカテゴリ
type Category string

const (
	CategoryConcert    Category = "concert"
	CategoryConference Category = "conference"
	CategoryWorkshop   Category = "workshop"
	CategorySports     Category = "sports"
	CategoryExhibition Category = "exhibition"
	CategoryTheater    Category = "theater"
	CategoryFestival   Category = "festival"
	CategoryOther      Category = "other"
)

// Categories は選択可能なカテゴリ一覧
var Categories = []Category{
	CategoryConcert, CategoryConference, CategoryWorkshop, CategorySports,
	CategoryExhibition, CategoryTheater, CategoryFestival, CategoryOther,
}

// IsValid は定義済みのカテゴリかを返す
func (c Category) IsValid() bool {
	for _, v := range Categories {
		if c == v {
			return true
		}
	}
	return false
}

const (
	MaxTitleLength       = 100
	MaxDescriptionLength = 2000

	// AnyVersion はAdjustSeatsでバージョン検証を行わないことを示す
	AnyVersion = -1
)

// Event はイベント（在庫単位）エンティティを表す
type Event struct {
	ID              string
	Title           string
	Description     string
	Category        Category
	Venue           string
	City            string
	StartAt         time.Time
	TotalSeats      int
	AvailableSeats  int
	Price           int
	IsActive        bool
	IsFeatured      bool
	BookingDeadline time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
	Version         int // カタログ編集の楽観的ロック用。空席数の増減では変わらない
}

// NewEventParams はイベント作成時の入力
type NewEventParams struct {
	Title           string
	Description     string
	Category        Category
	Venue           string
	City            string
	StartAt         time.Time
	TotalSeats      int
	Price           int
	IsFeatured      bool
	BookingDeadline *time.Time
}

// NewEvent は新しいイベントを作成する
// 空席数は総座席数で初期化され、予約締切の指定がなければ開催日時を締切とする
func NewEvent(p NewEventParams, now time.Time) *Event {
	deadline := p.StartAt
	if p.BookingDeadline != nil && !p.BookingDeadline.IsZero() {
		deadline = *p.BookingDeadline
	}
	category := p.Category
	if category == "" {
		category = CategoryOther
	}
	return &Event{
		Title:           p.Title,
		Description:     p.Description,
		Category:        category,
		Venue:           p.Venue,
		City:            p.City,
		StartAt:         p.StartAt,
		TotalSeats:      p.TotalSeats,
		AvailableSeats:  p.TotalSeats,
		Price:           p.Price,
		IsActive:        true,
		IsFeatured:      p.IsFeatured,
		BookingDeadline: deadline,
		CreatedAt:       now,
		UpdatedAt:       now,
		Version:         0,
	}
}

// Validate はイベントの検証を行う
func (e *Event) Validate() error {
	if e.Title == "" {
		return ErrEventTitleRequired
	}
	if utf8.RuneCountInString(e.Title) > MaxTitleLength {
		return ErrEventTitleTooLong
	}
	if utf8.RuneCountInString(e.Description) > MaxDescriptionLength {
		return ErrEventDescriptionTooLong
	}
	if !e.Category.IsValid() {
		return ErrInvalidCategory
	}
	if e.Venue == "" {
		return ErrVenueRequired
	}
	if e.StartAt.IsZero() {
		return ErrStartAtRequired
	}
	if e.TotalSeats <= 0 {
		return ErrInvalidTotalSeats
	}
	if e.Price < 0 {
		return ErrInvalidPrice
	}
	if e.AvailableSeats < 0 || e.AvailableSeats > e.TotalSeats {
		return ErrSeatsOverflow
	}
	return nil
}

// CheckBookable は予約受付可能かを検証する
func (e *Event) CheckBookable(now time.Time) error {
	if !e.IsActive {
		return ErrEventInactive
	}
	if now.After(e.BookingDeadline) {
		return ErrBookingClosed
	}
	return nil
}

// HeldSeats は予約済み（保留中・確定）の座席数を返す
func (e *Event) HeldSeats() int {
	return e.TotalSeats - e.AvailableSeats
}

// ResizeSeats は総座席数を変更し、差分を空席数に反映する
func (e *Event) ResizeSeats(totalSeats int) error {
	if totalSeats <= 0 {
		return ErrInvalidTotalSeats
	}
	available := e.AvailableSeats + (totalSeats - e.TotalSeats)
	if available < 0 {
		return ErrTotalSeatsBelowHeld
	}
	e.TotalSeats = totalSeats
	e.AvailableSeats = available
	return nil
}
