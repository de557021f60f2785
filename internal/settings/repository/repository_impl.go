package repository

import (
	"context"

	"github.com/lovably74/SmartCON-sub001/internal/settings/domain"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Get(ctx context.Context, db *gorm.DB, key string) (*domain.PlatformSetting, error) {
	var setting domain.PlatformSetting
	err := db.WithContext(ctx).Raw(
		`SELECT key, value, updated_at FROM platform_settings WHERE key = ?`,
		key,
	).Scan(&setting).Error
	if err != nil {
		return nil, err
	}
	if setting.Key == "" {
		return nil, nil
	}
	return &setting, nil
}

func (r *repo) Upsert(ctx context.Context, db *gorm.DB, setting *domain.PlatformSetting) error {
	if setting == nil {
		return gorm.ErrInvalidData
	}
	return db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "key"}},
			DoUpdates: clause.AssignmentColumns([]string{"value", "updated_at"}),
		}).
		Create(setting).Error
}
