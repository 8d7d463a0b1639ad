package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/event"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/transaction"
)

const eventColumns = `id, title, description, category, venue, city, start_at, total_seats, available_seats,
	price, is_active, is_featured, booking_deadline, created_at, updated_at, version`

// eventRow はDBの行を表す構造体
type eventRow struct {
	ID              string         `db:"id"`
	Title           string         `db:"title"`
	Description     sql.NullString `db:"description"`
	Category        string         `db:"category"`
	Venue           string         `db:"venue"`
	City            sql.NullString `db:"city"`
	StartAt         time.Time      `db:"start_at"`
	TotalSeats      int            `db:"total_seats"`
	AvailableSeats  int            `db:"available_seats"`
	Price           int            `db:"price"`
	IsActive        bool           `db:"is_active"`
	IsFeatured      bool           `db:"is_featured"`
	BookingDeadline time.Time      `db:"booking_deadline"`
	CreatedAt       time.Time      `db:"created_at"`
	UpdatedAt       time.Time      `db:"updated_at"`
	Version         int            `db:"version"`
}

// toEntity はeventRowをEventエンティティに変換する
func (r *eventRow) toEntity() *event.Event {
	return &event.Event{
		ID:              r.ID,
		Title:           r.Title,
		Description:     r.Description.String,
		Category:        event.Category(r.Category),
		Venue:           r.Venue,
		City:            r.City.String,
		StartAt:         r.StartAt,
		TotalSeats:      r.TotalSeats,
		AvailableSeats:  r.AvailableSeats,
		Price:           r.Price,
		IsActive:        r.IsActive,
		IsFeatured:      r.IsFeatured,
		BookingDeadline: r.BookingDeadline,
		CreatedAt:       r.CreatedAt,
		UpdatedAt:       r.UpdatedAt,
		Version:         r.Version,
	}
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

// EventRepository はイベントリポジトリのPostgreSQL実装
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository はEventRepositoryを作成する
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create は新しいイベントを作成する
func (r *EventRepository) Create(ctx context.Context, e *event.Event) error {
	query := `
		INSERT INTO events (title, description, category, venue, city, start_at, total_seats, available_seats,
			price, is_active, is_featured, booking_deadline, created_at, updated_at, version)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		e.Title, nullString(e.Description), e.Category, e.Venue, nullString(e.City), e.StartAt,
		e.TotalSeats, e.AvailableSeats, e.Price, e.IsActive, e.IsFeatured, e.BookingDeadline, e.CreatedAt, e.UpdatedAt, e.Version,
	).Scan(&e.ID)
	if err != nil {
		return fmt.Errorf("イベント作成に失敗しました: %w", err)
	}
	return nil
}

// GetByID はIDからイベントを取得する
func (r *EventRepository) GetByID(ctx context.Context, id string) (*event.Event, error) {
	return r.get(ctx, r.db, id, false)
}

// GetForUpdate は行ロックを取得してイベントを取得する
func (r *EventRepository) GetForUpdate(ctx context.Context, tx transaction.Tx, id string) (*event.Event, error) {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, sqlxTx, id, true)
}

func (r *EventRepository) get(ctx context.Context, q sqlx.QueryerContext, id string, forUpdate bool) (*event.Event, error) {
	if uuid.Validate(id) != nil {
		return nil, event.ErrEventNotFound
	}
	query := `SELECT ` + eventColumns + ` FROM events WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var row eventRow
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, event.ErrEventNotFound
		}
		return nil, fmt.Errorf("イベント取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// List は条件に一致するイベント一覧と総件数を取得する
func (r *EventRepository) List(ctx context.Context, f event.ListFilter) ([]*event.Event, int, error) {
	var (
		conds []string
		args  []interface{}
	)
	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if !f.IncludeInactive {
		conds = append(conds, "is_active = TRUE")
	}
	if f.Category != "" {
		conds = append(conds, "category = "+arg(f.Category))
	}
	if f.City != "" {
		conds = append(conds, "city ILIKE "+arg(likePattern(f.City)))
	}
	if f.Search != "" {
		p := arg(likePattern(f.Search))
		conds = append(conds, fmt.Sprintf("(title ILIKE %[1]s OR description ILIKE %[1]s OR venue ILIKE %[1]s)", p))
	}
	if f.From != nil {
		conds = append(conds, "start_at >= "+arg(*f.From))
	}
	if f.To != nil {
		conds = append(conds, "start_at <= "+arg(*f.To))
	}
	if f.MinPrice != nil {
		conds = append(conds, "price >= "+arg(*f.MinPrice))
	}
	if f.MaxPrice != nil {
		conds = append(conds, "price <= "+arg(*f.MaxPrice))
	}
	if f.Upcoming {
		conds = append(conds, "start_at >= NOW()")
	}
	if f.Featured {
		conds = append(conds, "is_featured = TRUE")
	}

	where := ""
	if len(conds) > 0 {
		where = " WHERE " + strings.Join(conds, " AND ")
	}

	var total int
	if err := r.db.GetContext(ctx, &total, `SELECT COUNT(*) FROM events`+where, args...); err != nil {
		return nil, 0, fmt.Errorf("イベント件数取得に失敗しました: %w", err)
	}

	query := `SELECT ` + eventColumns + ` FROM events` + where + ` ORDER BY ` + orderBy(f.Sort)
	if f.Limit > 0 {
		query += " LIMIT " + arg(f.Limit)
	}
	if f.Offset > 0 {
		query += " OFFSET " + arg(f.Offset)
	}

	var rows []eventRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("イベント一覧取得に失敗しました: %w", err)
	}

	events := make([]*event.Event, len(rows))
	for i := range rows {
		events[i] = rows[i].toEntity()
	}
	return events, total, nil
}

func orderBy(s event.SortOrder) string {
	switch s {
	case event.SortByPriceLow:
		return "price ASC, start_at ASC, id"
	case event.SortByPriceHigh:
		return "price DESC, start_at ASC, id"
	case event.SortByNewest:
		return "created_at DESC, id"
	default:
		return "start_at ASC, id"
	}
}

func likePattern(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return "%" + r.Replace(s) + "%"
}

// ListIDs は全イベントのIDを取得する
func (r *EventRepository) ListIDs(ctx context.Context) ([]string, error) {
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, `SELECT id FROM events ORDER BY created_at, id`); err != nil {
		return nil, fmt.Errorf("イベントID一覧取得に失敗しました: %w", err)
	}
	return ids, nil
}

// Update はイベントを更新する（楽観的ロック）
// 総座席数の変更は同じ差分を空席数に反映し、確保済みの座席数を下回る変更は拒否する
func (r *EventRepository) Update(ctx context.Context, e *event.Event) error {
	if uuid.Validate(e.ID) != nil {
		return event.ErrEventNotFound
	}
	query := `
		UPDATE events
		SET title = $1, description = $2, category = $3, venue = $4, city = $5, start_at = $6,
		    available_seats = available_seats + ($7 - total_seats), total_seats = $7,
		    price = $8, is_active = $9, booking_deadline = $10, is_featured = $13,
		    updated_at = NOW(), version = version + 1
		WHERE id = $11 AND version = $12 AND available_seats + ($7 - total_seats) >= 0
		RETURNING available_seats, version, updated_at
	`
	var out struct {
		AvailableSeats int       `db:"available_seats"`
		Version        int       `db:"version"`
		UpdatedAt      time.Time `db:"updated_at"`
	}
	err := r.db.GetContext(ctx, &out, query,
		e.Title, nullString(e.Description), e.Category, e.Venue, nullString(e.City), e.StartAt,
		e.TotalSeats, e.Price, e.IsActive, e.BookingDeadline, e.ID, e.Version, e.IsFeatured,
	)
	if err == nil {
		e.AvailableSeats = out.AvailableSeats
		e.Version = out.Version
		e.UpdatedAt = out.UpdatedAt
		return nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("イベント更新に失敗しました: %w", err)
	}

	current, err := r.GetByID(ctx, e.ID)
	if err != nil {
		return err
	}
	if current.Version != e.Version {
		return event.ErrOptimisticLockConflict
	}
	return event.ErrTotalSeatsBelowHeld
}

// Delete はイベントを削除する。予約が紐づくイベントは削除できない
func (r *EventRepository) Delete(ctx context.Context, id string) error {
	if uuid.Validate(id) != nil {
		return event.ErrEventNotFound
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM events WHERE id = $1`, id)
	if err != nil {
		if isForeignKeyViolation(err) {
			return event.ErrEventHasBookings
		}
		return fmt.Errorf("イベント削除に失敗しました: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// AdjustSeats は空席数を delta だけアトミックに増減する
// 範囲チェックは行ロック下でPostgreSQLが評価するため、同時実行でも空席数が負になることはない
// version はカタログ編集用なので座席の増減では変えない
func (r *EventRepository) AdjustSeats(ctx context.Context, tx transaction.Tx, id string, delta, expectedVersion int) (*event.Event, error) {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	if uuid.Validate(id) != nil {
		return nil, event.ErrEventNotFound
	}

	query := `
		UPDATE events
		SET available_seats = available_seats + $2, updated_at = NOW()
		WHERE id = $1
		  AND available_seats + $2 BETWEEN 0 AND total_seats
		  AND ($3::int < 0 OR version = $3::int)
		RETURNING ` + eventColumns

	// 1回目で更新できなかった場合は行ロックを取って理由を判定する
	// ロック取得までに他のトランザクションが確定して条件を満たすようになっていれば、ロック下で再実行する
	for attempt := 0; attempt < 2; attempt++ {
		var row eventRow
		err := sqlxTx.GetContext(ctx, &row, query, id, delta, expectedVersion)
		if err == nil {
			return row.toEntity(), nil
		}
		if !errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("空席数の更新に失敗しました: %w", err)
		}

		current, err := r.get(ctx, sqlxTx, id, true)
		if err != nil {
			return nil, err
		}
		if expectedVersion >= 0 && current.Version != expectedVersion {
			return nil, event.ErrOptimisticLockConflict
		}
		if current.AvailableSeats+delta < 0 {
			return nil, &event.InsufficientSeatsError{Available: current.AvailableSeats, Requested: -delta}
		}
		if current.AvailableSeats+delta > current.TotalSeats {
			return nil, event.ErrSeatsOverflow
		}
	}
	return nil, event.ErrOptimisticLockConflict
}

// SetAvailableSeats は空席数を上書きする（在庫再計算専用）
func (r *EventRepository) SetAvailableSeats(ctx context.Context, tx transaction.Tx, id string, available int) error {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	result, err := sqlxTx.ExecContext(ctx, `
		UPDATE events SET available_seats = $2, updated_at = NOW()
		WHERE id = $1 AND $2 BETWEEN 0 AND total_seats
	`, id, available)
	if err != nil {
		return fmt.Errorf("空席数の補正に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return event.ErrEventNotFound
	}
	return nil
}

// インターフェースを満たしているか確認
var _ event.Repository = (*EventRepository)(nil)
