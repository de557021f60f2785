package service

import (
	"context"
	"strconv"

	"github.com/lovably74/SmartCON-sub001/internal/clock"
	"github.com/lovably74/SmartCON-sub001/internal/settings/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Clock clock.Clock
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	clock clock.Clock
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("settings.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) AutoApprovalEnabled(ctx context.Context) (bool, error) {
	setting, err := s.repo.Get(ctx, s.db, domain.KeyAutoApprovalEnabled)
	if err != nil {
		return false, err
	}
	if setting == nil {
		return true, nil
	}
	enabled, err := strconv.ParseBool(setting.Value)
	if err != nil {
		// A corrupt value fails closed: rules stop firing, applications
		// fall back to manual review.
		s.log.Warn("unparseable setting value, treating as disabled",
			zap.String("key", domain.KeyAutoApprovalEnabled),
			zap.String("value", setting.Value),
		)
		return false, nil
	}
	return enabled, nil
}

func (s *Service) SetAutoApprovalEnabled(ctx context.Context, enabled bool) error {
	err := s.repo.Upsert(ctx, s.db, &domain.PlatformSetting{
		Key:       domain.KeyAutoApprovalEnabled,
		Value:     strconv.FormatBool(enabled),
		UpdatedAt: s.clock.Now(),
	})
	if err != nil {
		return err
	}
	s.log.Info("auto-approval switch updated", zap.Bool("enabled", enabled))
	return nil
}
