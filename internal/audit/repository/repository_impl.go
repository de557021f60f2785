package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/lovably74/SmartCON-sub001/internal/audit/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.ApprovalHistoryEntry) error {
	if entry == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO approval_history (
			id, subscription_id, from_status, to_status, action, actor_type,
			actor_id, reason, matched_rule_id, idempotency_key, metadata, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.SubscriptionID,
		entry.FromStatus,
		entry.ToStatus,
		entry.Action,
		entry.ActorType,
		entry.ActorID,
		entry.Reason,
		entry.MatchedRuleID,
		entry.IdempotencyKey,
		entry.Metadata,
		entry.CreatedAt,
	).Error
}

func (r *repo) FindByIdempotencyKey(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, key string) (*domain.ApprovalHistoryEntry, error) {
	var entry domain.ApprovalHistoryEntry
	err := db.WithContext(ctx).Raw(
		`SELECT id, subscription_id, from_status, to_status, action, actor_type,
		        actor_id, reason, matched_rule_id, idempotency_key, metadata, created_at
		 FROM approval_history
		 WHERE subscription_id = ? AND idempotency_key = ?`,
		subscriptionID, key,
	).Scan(&entry).Error
	if err != nil {
		return nil, err
	}
	if entry.ID == 0 {
		return nil, nil
	}
	return &entry, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.ApprovalHistoryEntry, error) {
	stmt := db.WithContext(ctx).Model(&domain.ApprovalHistoryEntry{})
	if filter.SubscriptionID != 0 {
		stmt = stmt.Where("subscription_id = ?", filter.SubscriptionID)
	}
	if filter.Action != "" {
		stmt = stmt.Where("action = ?", filter.Action)
	}
	if filter.ActorID != "" {
		stmt = stmt.Where("actor_id = ?", filter.ActorID)
	}
	if !filter.From.IsZero() {
		stmt = stmt.Where("created_at >= ?", filter.From)
	}
	if !filter.To.IsZero() {
		stmt = stmt.Where("created_at < ?", filter.To)
	}
	if filter.CursorID != 0 {
		stmt = stmt.Where("id < ?", filter.CursorID)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var entries []domain.ApprovalHistoryEntry
	if err := stmt.Order("id desc").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}
