package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sanosuguru/go-event-booking-ledger/internal/domain/notification"
)

const notificationColumns = `id, user_id, title, message, type, is_read, link, created_at`

type notificationRow struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	Title     string         `db:"title"`
	Message   string         `db:"message"`
	Type      string         `db:"type"`
	IsRead    bool           `db:"is_read"`
	Link      sql.NullString `db:"link"`
	CreatedAt time.Time      `db:"created_at"`
}

func (r *notificationRow) toEntity() *notification.Notification {
	return &notification.Notification{
		ID:        r.ID,
		UserID:    r.UserID,
		Title:     r.Title,
		Message:   r.Message,
		Type:      notification.Type(r.Type),
		IsRead:    r.IsRead,
		Link:      r.Link.String,
		CreatedAt: r.CreatedAt,
	}
}

// NotificationRepository は通知のPostgreSQL実装
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository はNotificationRepositoryを作成する
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

func (r *NotificationRepository) Create(ctx context.Context, n *notification.Notification) error {
	err := r.db.QueryRowContext(ctx, `
		INSERT INTO notifications (user_id, title, message, type, is_read, link, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`, n.UserID, n.Title, n.Message, n.Type, n.IsRead, nullString(n.Link), n.CreatedAt).Scan(&n.ID)
	if err != nil {
		return fmt.Errorf("通知作成に失敗しました: %w", err)
	}
	return nil
}

func (r *NotificationRepository) ListByUser(ctx context.Context, userID string, limit int) ([]*notification.Notification, error) {
	var rows []notificationRow
	query := `SELECT ` + notificationColumns + ` FROM notifications WHERE user_id = $1 ORDER BY created_at DESC, id LIMIT $2`
	if err := r.db.SelectContext(ctx, &rows, query, userID, limit); err != nil {
		return nil, fmt.Errorf("通知一覧取得に失敗しました: %w", err)
	}
	out := make([]*notification.Notification, len(rows))
	for i := range rows {
		out[i] = rows[i].toEntity()
	}
	return out, nil
}

func (r *NotificationRepository) CountUnread(ctx context.Context, userID string) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = FALSE`, userID); err != nil {
		return 0, fmt.Errorf("未読件数取得に失敗しました: %w", err)
	}
	return count, nil
}

func (r *NotificationRepository) MarkRead(ctx context.Context, id, userID string) (*notification.Notification, error) {
	if uuid.Validate(id) != nil {
		return nil, notification.ErrNotificationNotFound
	}
	var row notificationRow
	err := r.db.GetContext(ctx, &row, `
		UPDATE notifications SET is_read = TRUE
		WHERE id = $1 AND user_id = $2
		RETURNING `+notificationColumns, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, notification.ErrNotificationNotFound
		}
		return nil, fmt.Errorf("既読更新に失敗しました: %w", err)
	}
	return row.toEntity(), nil
}

func (r *NotificationRepository) MarkAllRead(ctx context.Context, userID string) (int, error) {
	result, err := r.db.ExecContext(ctx, `UPDATE notifications SET is_read = TRUE WHERE user_id = $1 AND is_read = FALSE`, userID)
	if err != nil {
		return 0, fmt.Errorf("一括既読更新に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("更新結果の確認に失敗しました: %w", err)
	}
	return int(n), nil
}

func (r *NotificationRepository) Delete(ctx context.Context, id, userID string) error {
	if uuid.Validate(id) != nil {
		return notification.ErrNotificationNotFound
	}
	result, err := r.db.ExecContext(ctx, `DELETE FROM notifications WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("通知削除に失敗しました: %w", err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("削除結果の確認に失敗しました: %w", err)
	}
	if n == 0 {
		return notification.ErrNotificationNotFound
	}
	return nil
}

var _ notification.Repository = (*NotificationRepository)(nil)
