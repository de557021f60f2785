package repository

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/lovably74/SmartCON-sub001/internal/rule/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rule *domain.AutoApprovalRule) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO auto_approval_rules (
			id, name, active, priority, plan_filter, payment_method_filter,
			verified_tenants_only, max_amount, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rule.ID,
		rule.Name,
		rule.Active,
		rule.Priority,
		rule.PlanFilter,
		rule.PaymentMethodFilter,
		rule.VerifiedTenantsOnly,
		rule.MaxAmount,
		rule.CreatedAt,
		rule.UpdatedAt,
	).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, rule *domain.AutoApprovalRule) error {
	if rule == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).Exec(
		`UPDATE auto_approval_rules
		 SET name = ?, active = ?, priority = ?, plan_filter = ?, payment_method_filter = ?,
		     verified_tenants_only = ?, max_amount = ?, updated_at = ?
		 WHERE id = ?`,
		rule.Name,
		rule.Active,
		rule.Priority,
		rule.PlanFilter,
		rule.PaymentMethodFilter,
		rule.VerifiedTenantsOnly,
		rule.MaxAmount,
		rule.UpdatedAt,
		rule.ID,
	).Error
}

func (r *repo) Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error) {
	result := db.WithContext(ctx).Exec(`DELETE FROM auto_approval_rules WHERE id = ?`, id)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.AutoApprovalRule, error) {
	var rule domain.AutoApprovalRule
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, active, priority, plan_filter, payment_method_filter,
		        verified_tenants_only, max_amount, created_at, updated_at
		 FROM auto_approval_rules WHERE id = ?`,
		id,
	).Scan(&rule).Error
	if err != nil {
		return nil, err
	}
	if rule.ID == 0 {
		return nil, nil
	}
	return &rule, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]domain.AutoApprovalRule, error) {
	var rules []domain.AutoApprovalRule
	stmt := db.WithContext(ctx).Model(&domain.AutoApprovalRule{})
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}
	if err := stmt.Order("priority desc, id asc").Find(&rules).Error; err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repo) ListByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.AutoApprovalRule, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rules []domain.AutoApprovalRule
	err := db.WithContext(ctx).
		Model(&domain.AutoApprovalRule{}).
		Where("id IN ?", ids).
		Find(&rules).Error
	if err != nil {
		return nil, err
	}
	return rules, nil
}

func (r *repo) Count(ctx context.Context, db *gorm.DB, activeOnly bool) (int64, error) {
	var count int64
	stmt := db.WithContext(ctx).Model(&domain.AutoApprovalRule{})
	if activeOnly {
		stmt = stmt.Where("active = ?", true)
	}
	if err := stmt.Count(&count).Error; err != nil {
		return 0, err
	}
	return count, nil
}
