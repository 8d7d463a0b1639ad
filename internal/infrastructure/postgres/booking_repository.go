package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/booking"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/event"
	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/transaction"
)

const bookingColumns = `id, ticket_code, user_id, event_id, quantity, total_amount, booking_status, payment_status,
	booking_date, cancelled_at, created_at, updated_at`

type bookingRow struct {
	ID            string       `db:"id"`
	TicketCode    string       `db:"ticket_code"`
	UserID        string       `db:"user_id"`
	EventID       string       `db:"event_id"`
	Quantity      int          `db:"quantity"`
	TotalAmount   int          `db:"total_amount"`
	Status        string       `db:"booking_status"`
	PaymentStatus string       `db:"payment_status"`
	BookingDate   time.Time    `db:"booking_date"`
	CancelledAt   sql.NullTime `db:"cancelled_at"`
	CreatedAt     time.Time    `db:"created_at"`
	UpdatedAt     time.Time    `db:"updated_at"`
}

func (r *bookingRow) toEntity() *booking.Booking {
	b := &booking.Booking{
		ID:            r.ID,
		TicketCode:    r.TicketCode,
		UserID:        r.UserID,
		EventID:       r.EventID,
		Quantity:      r.Quantity,
		TotalAmount:   r.TotalAmount,
		Status:        booking.Status(r.Status),
		PaymentStatus: booking.PaymentStatus(r.PaymentStatus),
		BookingDate:   r.BookingDate,
		CreatedAt:     r.CreatedAt,
		UpdatedAt:     r.UpdatedAt,
	}
	if r.CancelledAt.Valid {
		t := r.CancelledAt.Time
		b.CancelledAt = &t
	}
	return b
}

func toBookings(rows []bookingRow) []*booking.Booking {
	out := make([]*booking.Booking, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntity()
	}
	return out
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

// BookingRepository は予約台帳のPostgreSQL実装
type BookingRepository struct {
	db *sqlx.DB
}

// NewBookingRepository はBookingRepositoryを作成する
func NewBookingRepository(db *sqlx.DB) *BookingRepository {
	return &BookingRepository{db: db}
}

// Create は予約を挿入する
// チケットコードの衝突はトランザクションを中断させずに ErrDuplicateTicketCode として返す
func (r *BookingRepository) Create(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO bookings (ticket_code, user_id, event_id, quantity, total_amount, booking_status, payment_status,
			booking_date, cancelled_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		ON CONFLICT (ticket_code) DO NOTHING
		RETURNING id
	`
	err = sqlxTx.QueryRowxContext(ctx, query,
		b.TicketCode, b.UserID, b.EventID, b.Quantity, b.TotalAmount, b.Status, b.PaymentStatus,
		b.BookingDate, nullTime(b.CancelledAt), b.CreatedAt, b.UpdatedAt,
	).Scan(&b.ID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, sql.ErrNoRows):
		return booking.ErrDuplicateTicketCode
	case isForeignKeyViolation(err):
		return event.ErrEventNotFound
	default:
		return fmt.Errorf("予約作成に失敗しました: %w", err)
	}
}

// GetByID はIDから予約を取得する
func (r *BookingRepository) GetByID(ctx context.Context, id string) (*booking.Booking, error) {
	return r.get(ctx, r.db, id, false)
}

// GetByIDForUpdate は行ロックを取得して予約を取得する
func (r *BookingRepository) GetByIDForUpdate(ctx context.Context, tx transaction.Tx, id string) (*booking.Booking, error) {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return nil, err
	}
	return r.get(ctx, sqlxTx, id, true)
}

func (r *BookingRepository) get(ctx context.Context, q sqlx.QueryerContext, id string, forUpdate bool) (*booking.Booking, error) {
	if uuid.Validate(id) != nil {
		return nil, booking.ErrBookingNotFound
	}
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE id = $1`
	if forUpdate {
		query += ` FOR UPDATE`
	}

	var row bookingRow
	if err := sqlx.GetContext(ctx, q, &row, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, booking.ErrBookingNotFound
		}
		return nil, fmt.Errorf("予約取得に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

// ListByUser はユーザーの予約一覧を新しい順に取得する
func (r *BookingRepository) ListByUser(ctx context.Context, userID string) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings WHERE user_id = $1 ORDER BY created_at DESC, id`
	if err := r.db.SelectContext(ctx, &rows, query, userID); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗しました: %w", err)
	}
	return toBookings(rows), nil
}

// ListAll は全予約を新しい順に取得する
func (r *BookingRepository) ListAll(ctx context.Context, limit, offset int) ([]*booking.Booking, error) {
	var rows []bookingRow
	query := `SELECT ` + bookingColumns + ` FROM bookings ORDER BY created_at DESC, id LIMIT $1 OFFSET $2`
	if err := r.db.SelectContext(ctx, &rows, query, limit, offset); err != nil {
		return nil, fmt.Errorf("予約一覧取得に失敗しました: %w", err)
	}
	return toBookings(rows), nil
}

// UpdateStatus は予約状態を更新する
// キャンセル済みの行は更新しないため、同じ予約の二重キャンセルは ErrAlreadyCancelled になる
func (r *BookingRepository) UpdateStatus(ctx context.Context, tx transaction.Tx, b *booking.Booking) error {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return err
	}
	result, err := sqlxTx.ExecContext(ctx, `
		UPDATE bookings
		SET booking_status = $2, payment_status = $3, cancelled_at = $4, updated_at = $5
		WHERE id = $1 AND booking_status <> 'cancelled'
	`, b.ID, b.Status, b.PaymentStatus, nullTime(b.CancelledAt), b.UpdatedAt)
	if err != nil {
		return fmt.Errorf("予約更新に失敗しました: %w", err)
	}
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	if rowsAffected == 0 {
		return booking.ErrAlreadyCancelled
	}
	return nil
}

// SumActiveQuantity はイベントで座席を確保している予約の枚数合計を返す
func (r *BookingRepository) SumActiveQuantity(ctx context.Context, tx transaction.Tx, eventID string) (int, error) {
	sqlxTx, err := UnwrapTx(tx)
	if err != nil {
		return 0, err
	}
	var held int
	err = sqlxTx.GetContext(ctx, &held, `
		SELECT COALESCE(SUM(quantity), 0) FROM bookings
		WHERE event_id = $1 AND booking_status IN ('pending', 'confirmed')
	`, eventID)
	if err != nil {
		return 0, fmt.Errorf("確保済み座席数の集計に失敗しました: %w", err)
	}
	return held, nil
}

// CountByEvent はイベントに紐づく予約件数を返す
func (r *BookingRepository) CountByEvent(ctx context.Context, eventID string) (int, error) {
	if uuid.Validate(eventID) != nil {
		return 0, nil
	}
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM bookings WHERE event_id = $1`, eventID); err != nil {
		return 0, fmt.Errorf("予約件数の取得に失敗しました: %w", err)
	}
	return count, nil
}

type statsRow struct {
	TotalBookings  int `db:"total_bookings"`
	ConfirmedCount int `db:"confirmed_count"`
	CancelledCount int `db:"cancelled_count"`
	TotalRevenue   int `db:"total_revenue"`
}

type monthlyRow struct {
	Year    int `db:"year"`
	Month   int `db:"month"`
	Revenue int `db:"revenue"`
	Count   int `db:"count"`
}

// GetStats は予約台帳全体の集計を返す
// 2つの集計クエリは同一スナップショット上で実行される
func (r *BookingRepository) GetStats(ctx context.Context, monthlyLimit int) (*booking.Stats, error) {
	var (
		totals  statsRow
		monthly []monthlyRow
	)
	err := readSnapshot(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &totals, `
			SELECT
				COUNT(*) AS total_bookings,
				COUNT(*) FILTER (WHERE booking_status = 'confirmed') AS confirmed_count,
				COUNT(*) FILTER (WHERE booking_status = 'cancelled') AS cancelled_count,
				COALESCE(SUM(total_amount) FILTER (WHERE payment_status = 'completed'), 0) AS total_revenue
			FROM bookings
		`); err != nil {
			return err
		}
		return tx.SelectContext(ctx, &monthly, `
			SELECT
				EXTRACT(YEAR FROM created_at AT TIME ZONE 'UTC')::int AS year,
				EXTRACT(MONTH FROM created_at AT TIME ZONE 'UTC')::int AS month,
				SUM(total_amount) AS revenue,
				COUNT(*) AS count
			FROM bookings
			WHERE payment_status = 'completed'
			GROUP BY 1, 2
			ORDER BY 1 DESC, 2 DESC
			LIMIT $1
		`, monthlyLimit)
	})
	if err != nil {
		return nil, fmt.Errorf("予約統計の集計に失敗しました: %w", err)
	}

	stats := &booking.Stats{
		TotalBookings:  totals.TotalBookings,
		ConfirmedCount: totals.ConfirmedCount,
		CancelledCount: totals.CancelledCount,
		TotalRevenue:   totals.TotalRevenue,
		MonthlyRevenue: make([]booking.MonthlyRevenue, len(monthly)),
	}
	for i, m := range monthly {
		stats.MonthlyRevenue[i] = booking.MonthlyRevenue{Year: m.Year, Month: m.Month, Revenue: m.Revenue, Count: m.Count}
	}
	return stats, nil
}

var _ booking.Repository = (*BookingRepository)(nil)
