package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"perizinan/internal/models"
)

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status string) error
	MarkRead(ctx context.Context, tenantID, userID, id uuid.UUID) error
	ListForUser(ctx context.Context, tenantID, userID uuid.UUID, limit, offset int) ([]*models.Notification, error)
	ListByStatus(ctx context.Context, status string, limit int) ([]*models.Notification, error)
}

type notificationRepo struct {
	db DB
}

func NewNotificationRepository(db DB) NotificationRepository {
	return &notificationRepo{db: db}
}

func (r *notificationRepo) Create(ctx context.Context, notification *models.Notification) error {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	notification.CreatedAt = time.Now()
	notification.UpdatedAt = notification.CreatedAt

	metadata, err := marshalJSONB(notification.Metadata)
	if err != nil {
		return fmt.Errorf("failed to marshal metadata: %w", err)
	}
	query := `
		INSERT INTO notifications (id, tenant_id, user_id, type, recipient, subject, content, status, read_at, metadata, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`
	_, err = r.db.Exec(ctx, query, notification.ID, notification.TenantID, notification.UserID,
		notification.Type, notification.Recipient, notification.Subject, notification.Content,
		notification.Status, notification.ReadAt, metadata, notification.CreatedAt, notification.UpdatedAt)
	return err
}

func (r *notificationRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status string) error {
	query := `UPDATE notifications SET status = $1, updated_at = NOW() WHERE id = $2`
	_, err := r.db.Exec(ctx, query, status, id)
	return err
}

func (r *notificationRepo) MarkRead(ctx context.Context, tenantID, userID, id uuid.UUID) error {
	query := `
		UPDATE notifications
		SET read_at = NOW(), updated_at = NOW()
		WHERE tenant_id = $1 AND user_id = $2 AND id = $3 AND read_at IS NULL
	`
	_, err := r.db.Exec(ctx, query, tenantID, userID, id)
	return err
}

func (r *notificationRepo) ListForUser(ctx context.Context, tenantID, userID uuid.UUID, limit, offset int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	query := `
		SELECT id, tenant_id, user_id, type, recipient, subject, content, status, read_at, metadata, created_at, updated_at
		FROM notifications
		WHERE tenant_id = $1 AND user_id = $2
		ORDER BY created_at DESC
		LIMIT $3 OFFSET $4
	`
	rows, err := r.db.Query(ctx, query, tenantID, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

func (r *notificationRepo) ListByStatus(ctx context.Context, status string, limit int) ([]*models.Notification, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	query := `
		SELECT id, tenant_id, user_id, type, recipient, subject, content, status, read_at, metadata, created_at, updated_at
		FROM notifications
		WHERE status = $1
		ORDER BY created_at ASC
		LIMIT $2
	`
	rows, err := r.db.Query(ctx, query, status, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var notifications []*models.Notification
	for rows.Next() {
		notification, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		notifications = append(notifications, notification)
	}
	return notifications, rows.Err()
}

func scanNotification(row rowScanner) (*models.Notification, error) {
	notification := &models.Notification{}
	var metadata []byte
	err := row.Scan(&notification.ID, &notification.TenantID, &notification.UserID,
		&notification.Type, &notification.Recipient, &notification.Subject, &notification.Content,
		&notification.Status, &notification.ReadAt, &metadata, &notification.CreatedAt, &notification.UpdatedAt)
	if err != nil {
		return nil, err
	}
	if len(metadata) > 0 {
		if err := json.Unmarshal(metadata, &notification.Metadata); err != nil {
			return nil, fmt.Errorf("failed to unmarshal metadata: %w", err)
		}
	}
	return notification, nil
}
