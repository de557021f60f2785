package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rule *AutoApprovalRule) error
	Update(ctx context.Context, db *gorm.DB, rule *AutoApprovalRule) error
	Delete(ctx context.Context, db *gorm.DB, id snowflake.ID) (bool, error)
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*AutoApprovalRule, error)
	List(ctx context.Context, db *gorm.DB, activeOnly bool) ([]AutoApprovalRule, error)
	ListByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]AutoApprovalRule, error)
	Count(ctx context.Context, db *gorm.DB, activeOnly bool) (int64, error)
}
