package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lovably74/SmartCON-sub001/internal/subscription/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, sub *domain.Subscription) error {
	if sub == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO subscriptions (
			id, tenant_id, plan_id, payment_method, monthly_amount, verified_tenant,
			status, status_reason, matched_rule_id, requested_by, submitted_at,
			decided_at, activated_at, terminated_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		sub.ID,
		sub.TenantID,
		sub.PlanID,
		sub.PaymentMethod,
		sub.MonthlyAmount,
		sub.VerifiedTenant,
		sub.Status,
		sub.StatusReason,
		sub.MatchedRuleID,
		sub.RequestedBy,
		sub.SubmittedAt,
		sub.DecidedAt,
		sub.ActivatedAt,
		sub.TerminatedAt,
		sub.CreatedAt,
		sub.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	return find(ctx, db, id, false)
}

func (r *repo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*domain.Subscription, error) {
	return find(ctx, tx, id, true)
}

func find(ctx context.Context, db *gorm.DB, id snowflake.ID, forUpdate bool) (*domain.Subscription, error) {
	query := `SELECT id, tenant_id, plan_id, payment_method, monthly_amount, verified_tenant,
		status, status_reason, matched_rule_id, requested_by, submitted_at,
		decided_at, activated_at, terminated_at, created_at, updated_at
	 FROM subscriptions WHERE id = ?`
	if forUpdate && db.Dialector.Name() != "sqlite" {
		query += " FOR UPDATE"
	}

	var sub domain.Subscription
	if err := db.WithContext(ctx).Raw(query, id).Scan(&sub).Error; err != nil {
		return nil, err
	}
	if sub.ID == 0 {
		return nil, nil
	}
	return &sub, nil
}

func (r *repo) UpdateStatus(ctx context.Context, tx *gorm.DB, id snowflake.ID, from, to domain.Status, update domain.StatusUpdate) (bool, error) {
	values := map[string]any{
		"status":     to,
		"updated_at": update.UpdatedAt,
	}
	if update.Reason != "" {
		values["status_reason"] = update.Reason
	}
	if update.MatchedRuleID != nil {
		values["matched_rule_id"] = *update.MatchedRuleID
	}
	if update.DecidedAt != nil {
		values["decided_at"] = *update.DecidedAt
	}
	if update.ActivatedAt != nil {
		values["activated_at"] = *update.ActivatedAt
	}
	if update.TerminatedAt != nil {
		values["terminated_at"] = *update.TerminatedAt
	}

	result := tx.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("id = ? AND status = ?", id, from).
		Updates(values)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter) ([]domain.Subscription, error) {
	stmt := db.WithContext(ctx).Model(&domain.Subscription{})
	if filter.TenantID != 0 {
		stmt = stmt.Where("tenant_id = ?", filter.TenantID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}
	if filter.CursorID != 0 {
		stmt = stmt.Where("id < ?", filter.CursorID)
	}
	if filter.Limit > 0 {
		stmt = stmt.Limit(filter.Limit)
	}

	var subs []domain.Subscription
	if err := stmt.Order("id desc").Find(&subs).Error; err != nil {
		return nil, err
	}
	return subs, nil
}

func (r *repo) ListPendingBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]domain.Subscription, error) {
	var subs []domain.Subscription
	err := db.WithContext(ctx).
		Model(&domain.Subscription{}).
		Where("status = ? AND submitted_at <= ?", domain.StatusPendingApproval, cutoff).
		Order("submitted_at asc").
		Find(&subs).Error
	if err != nil {
		return nil, err
	}
	return subs, nil
}
