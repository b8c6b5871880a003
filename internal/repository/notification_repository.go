package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/erp-api/internal/models"
	"github.com/noah-isme/erp-api/pkg/database"
)

const (
	notificationColumns = "id, user_id, document_type, document_id, title, body, read_at, created_at"

	upsertSettingQuery = `INSERT INTO notification_settings (user_id, document_type, channel, enabled, updated_at)
	VALUES ($1, $2, $3, $4, $5)
	ON CONFLICT (user_id, document_type, channel) DO UPDATE SET enabled = EXCLUDED.enabled, updated_at = EXCLUDED.updated_at`
)

// NotificationRepository stores per-user channel toggles and the in-app inbox.
type NotificationRepository struct {
	db *sqlx.DB
}

// NewNotificationRepository constructs the repository.
func NewNotificationRepository(db *sqlx.DB) *NotificationRepository {
	return &NotificationRepository{db: db}
}

// ListSettings returns the stored toggles of one user. Missing cells fall back
// to the channel default in the service layer.
func (r *NotificationRepository) ListSettings(ctx context.Context, userID string) ([]models.NotificationSetting, error) {
	const query = `SELECT user_id, document_type, channel, enabled FROM notification_settings WHERE user_id = $1 ORDER BY document_type, channel`
	settings := make([]models.NotificationSetting, 0)
	if err := r.db.SelectContext(ctx, &settings, query, userID); err != nil {
		return nil, fmt.Errorf("list notification settings: %w", err)
	}
	return settings, nil
}

// SaveSettings upserts every provided toggle in one transaction.
func (r *NotificationRepository) SaveSettings(ctx context.Context, userID string, settings []models.NotificationSetting) error {
	now := time.Now().UTC()
	return database.WithTx(ctx, r.db, func(tx *sqlx.Tx) error {
		for _, s := range settings {
			if _, err := tx.ExecContext(ctx, upsertSettingQuery, userID, s.DocumentType, s.Channel, s.Enabled, now); err != nil {
				return fmt.Errorf("upsert notification setting: %w", err)
			}
		}
		return nil
	})
}

// CreateNotification appends an inbox entry.
func (r *NotificationRepository) CreateNotification(ctx context.Context, n *models.Notification) error {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	if n.CreatedAt.IsZero() {
		n.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO notifications (id, user_id, document_type, document_id, title, body, created_at) VALUES (:id, :user_id, :document_type, :document_id, :title, :body, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, n); err != nil {
		return fmt.Errorf("create notification: %w", err)
	}
	return nil
}

// ListNotifications returns a page of a user's inbox, newest first.
func (r *NotificationRepository) ListNotifications(ctx context.Context, userID string, filter models.NotificationFilter) ([]models.Notification, int, error) {
	where := " WHERE user_id = $1"
	if filter.UnreadOnly {
		where += " AND read_at IS NULL"
	}
	limit, offset := pageBounds(filter.Page, filter.PageSize)

	items := make([]models.Notification, 0)
	query := fmt.Sprintf("SELECT %s FROM notifications%s ORDER BY created_at DESC LIMIT %d OFFSET %d", notificationColumns, where, limit, offset)
	if err := r.db.SelectContext(ctx, &items, query, userID); err != nil {
		return nil, 0, fmt.Errorf("list notifications: %w", err)
	}
	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM notifications"+where, userID); err != nil {
		return nil, 0, fmt.Errorf("count notifications: %w", err)
	}
	return items, total, nil
}

// MarkRead stamps read_at on an unread entry owned by the user.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID, id string) error {
	const query = `UPDATE notifications SET read_at = $3 WHERE id = $1 AND user_id = $2 AND read_at IS NULL`
	res, err := r.db.ExecContext(ctx, query, id, userID, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("mark notification read rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}
