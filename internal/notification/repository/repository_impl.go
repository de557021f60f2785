package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lovably74/SmartCON-sub001/internal/notification/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, n *domain.Notification) error {
	if n == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO notifications (
			id, type, recipient, subscription_id, tenant_id, title, body,
			is_read, read_at, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID,
		n.Type,
		n.Recipient,
		n.SubscriptionID,
		n.TenantID,
		n.Title,
		n.Body,
		n.Read,
		n.ReadAt,
		n.CreatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Notification, error) {
	var n domain.Notification
	err := db.WithContext(ctx).Raw(
		`SELECT id, type, recipient, subscription_id, tenant_id, title, body,
		        is_read, read_at, created_at
		 FROM notifications WHERE id = ?`,
		id,
	).Scan(&n).Error
	if err != nil {
		return nil, err
	}
	if n.ID == 0 {
		return nil, nil
	}
	return &n, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Notification, error) {
	stmt := db.WithContext(ctx).Model(&domain.Notification{})
	if filter.Recipient != "" {
		stmt = stmt.Where("recipient = ?", filter.Recipient)
	}
	if filter.UnreadOnly {
		stmt = stmt.Where("is_read = ?", false)
	}
	if filter.CursorID != 0 {
		stmt = stmt.Where("id < ?", filter.CursorID)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var items []domain.Notification
	if err := stmt.Order("id desc").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) MarkRead(ctx context.Context, db *gorm.DB, id snowflake.ID, readAt time.Time) (bool, error) {
	result := db.WithContext(ctx).Exec(
		`UPDATE notifications SET is_read = ?, read_at = ? WHERE id = ? AND is_read = ?`,
		true, readAt, id, false,
	)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) ExistsForSubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, typ domain.Type) (bool, error) {
	var count int64
	err := db.WithContext(ctx).
		Model(&domain.Notification{}).
		Where("subscription_id = ? AND type = ?", subscriptionID, typ).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
