package service

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lovably74/SmartCON-sub001/internal/clock"
	"github.com/lovably74/SmartCON-sub001/internal/config"
	"github.com/lovably74/SmartCON-sub001/internal/rule/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Clock clock.Clock
	Repo  domain.Repository
	Cfg   config.Config
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	clock clock.Clock
	repo  domain.Repository

	// Active-rule cache. Invalidation is synchronous with every write so the
	// evaluator never sees a rule set older than the last committed change
	// plus cacheTTL. A zero TTL disables caching entirely.
	cacheTTL time.Duration
	cacheMu  sync.RWMutex
	cached   []domain.AutoApprovalRule
	cachedAt time.Time
}

func New(p Params) domain.Service {
	return &Service{
		db:       p.DB,
		log:      p.Log.Named("rule.service"),
		genID:    p.GenID,
		clock:    p.Clock,
		repo:     p.Repo,
		cacheTTL: time.Duration(p.Cfg.RuleCacheTTLSeconds) * time.Second,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRequest) (*domain.Response, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}
	if req.MaxAmount != nil && *req.MaxAmount < 0 {
		return nil, domain.ErrInvalidMaxAmount
	}

	active := true
	if req.Active != nil {
		active = *req.Active
	}

	now := s.clock.Now()
	record := &domain.AutoApprovalRule{
		ID:                  s.genID.Generate(),
		Name:                name,
		Active:              active,
		Priority:            req.Priority,
		PlanFilter:          normalizeFilter(req.PlanFilter),
		PaymentMethodFilter: normalizeFilter(req.PaymentMethodFilter),
		VerifiedTenantsOnly: req.VerifiedTenantsOnly,
		MaxAmount:           req.MaxAmount,
		CreatedAt:           now,
		UpdatedAt:           now,
	}

	if err := s.repo.Insert(ctx, s.db, record); err != nil {
		return nil, err
	}
	s.invalidate()

	resp := s.toResponse(record)
	return &resp, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRequest) (*domain.Response, error) {
	ruleID, err := parseID(req.ID)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, ruleID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		item.Name = name
	}
	if req.Priority != nil {
		item.Priority = *req.Priority
	}
	if req.PlanFilter != nil {
		item.PlanFilter = normalizeFilter(*req.PlanFilter)
	}
	if req.PaymentMethodFilter != nil {
		item.PaymentMethodFilter = normalizeFilter(*req.PaymentMethodFilter)
	}
	if req.VerifiedTenantsOnly != nil {
		item.VerifiedTenantsOnly = *req.VerifiedTenantsOnly
	}
	if req.ClearMaxAmount {
		item.MaxAmount = nil
	} else if req.MaxAmount != nil {
		if *req.MaxAmount < 0 {
			return nil, domain.ErrInvalidMaxAmount
		}
		item.MaxAmount = req.MaxAmount
	}
	if req.Active != nil {
		item.Active = *req.Active
	}

	item.UpdatedAt = s.clock.Now()
	if err := s.repo.Update(ctx, s.db, item); err != nil {
		return nil, err
	}
	s.invalidate()

	resp := s.toResponse(item)
	return &resp, nil
}

// Delete removes the rule definition. Past approval history rows keep their
// matched rule ID; display lookups must tolerate the dangling reference.
func (s *Service) Delete(ctx context.Context, id string) error {
	ruleID, err := parseID(id)
	if err != nil {
		return domain.ErrInvalidID
	}

	deleted, err := s.repo.Delete(ctx, s.db, ruleID)
	if err != nil {
		return err
	}
	if !deleted {
		return domain.ErrNotFound
	}
	s.invalidate()

	s.log.Info("auto-approval rule deleted", zap.String("rule_id", ruleID.String()))
	return nil
}

// ToggleActive flips only the active flag so concurrent edits to other
// fields are not clobbered.
func (s *Service) ToggleActive(ctx context.Context, id string, active bool) (*domain.Response, error) {
	ruleID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, ruleID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Exec(
		`UPDATE auto_approval_rules SET active = ?, updated_at = ? WHERE id = ?`,
		active, now, ruleID,
	).Error
	if err != nil {
		return nil, err
	}
	s.invalidate()

	item.Active = active
	item.UpdatedAt = now
	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	ruleID, err := parseID(id)
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, ruleID)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, domain.ErrNotFound
	}

	resp := s.toResponse(item)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) ([]domain.Response, error) {
	items, err := s.repo.List(ctx, s.db, req.ActiveOnly)
	if err != nil {
		return nil, err
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, s.toResponse(&items[i]))
	}
	return resp, nil
}

func (s *Service) ActiveRules(ctx context.Context) ([]domain.AutoApprovalRule, error) {
	if s.cacheTTL > 0 {
		s.cacheMu.RLock()
		if s.cached != nil && s.clock.Now().Sub(s.cachedAt) < s.cacheTTL {
			rules := make([]domain.AutoApprovalRule, len(s.cached))
			copy(rules, s.cached)
			s.cacheMu.RUnlock()
			return rules, nil
		}
		s.cacheMu.RUnlock()
	}

	rules, err := s.repo.List(ctx, s.db, true)
	if err != nil {
		return nil, err
	}

	if s.cacheTTL > 0 {
		s.cacheMu.Lock()
		s.cached = make([]domain.AutoApprovalRule, len(rules))
		copy(s.cached, rules)
		s.cachedAt = s.clock.Now()
		s.cacheMu.Unlock()
	}

	return rules, nil
}

func (s *Service) invalidate() {
	s.cacheMu.Lock()
	s.cached = nil
	s.cacheMu.Unlock()
}

func (s *Service) toResponse(r *domain.AutoApprovalRule) domain.Response {
	return domain.Response{
		ID:                  r.ID.String(),
		Name:                r.Name,
		Active:              r.Active,
		Priority:            r.Priority,
		PlanFilter:          []string(r.PlanFilter),
		PaymentMethodFilter: []string(r.PaymentMethodFilter),
		VerifiedTenantsOnly: r.VerifiedTenantsOnly,
		MaxAmount:           r.MaxAmount,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
	}
}

func normalizeFilter(values []string) datatypes.JSONSlice[string] {
	out := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v == "" {
			continue
		}
		out = append(out, v)
	}
	return datatypes.NewJSONSlice(out)
}

func parseID(value string) (snowflake.ID, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || parsed == 0 {
		return 0, domain.ErrInvalidID
	}
	return parsed, nil
}
