package domain

import (
	"context"

	"gorm.io/gorm"
)

type Repository interface {
	Get(ctx context.Context, db *gorm.DB, key string) (*PlatformSetting, error)
	Upsert(ctx context.Context, db *gorm.DB, setting *PlatformSetting) error
}
