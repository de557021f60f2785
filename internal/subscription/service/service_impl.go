package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/lovably74/SmartCON-sub001/internal/actorctx"
	auditdomain "github.com/lovably74/SmartCON-sub001/internal/audit/domain"
	"github.com/lovably74/SmartCON-sub001/internal/clock"
	"github.com/lovably74/SmartCON-sub001/internal/config"
	notifdomain "github.com/lovably74/SmartCON-sub001/internal/notification/domain"
	ruledomain "github.com/lovably74/SmartCON-sub001/internal/rule/domain"
	"github.com/lovably74/SmartCON-sub001/internal/rule/engine"
	settingsdomain "github.com/lovably74/SmartCON-sub001/internal/settings/domain"
	"github.com/lovably74/SmartCON-sub001/internal/subscription/domain"
	"github.com/lovably74/SmartCON-sub001/internal/tenantctx"
	"github.com/lovably74/SmartCON-sub001/pkg/db"
	"github.com/lovably74/SmartCON-sub001/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB        *gorm.DB
	Log       *zap.Logger
	GenID     *snowflake.Node
	Clock     clock.Clock
	Cfg       config.Config
	Repo      domain.Repository
	AuditRepo auditdomain.Repository
	NotifRepo notifdomain.Repository
	Rules     ruledomain.Service
	Settings  settingsdomain.Service
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	clock     clock.Clock
	cfg       config.Config
	repo      domain.Repository
	auditRepo auditdomain.Repository
	notifRepo notifdomain.Repository
	rules     ruledomain.Service
	settings  settingsdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("subscription.service"),
		genID:     p.GenID,
		clock:     p.Clock,
		cfg:       p.Cfg,
		repo:      p.Repo,
		auditRepo: p.AuditRepo,
		notifRepo: p.NotifRepo,
		rules:     p.Rules,
		settings:  p.Settings,
	}
}

func (s *Service) Submit(ctx context.Context, req domain.SubmitRequest) (*domain.Response, error) {
	tenantID, ok := tenantctx.TenantIDFromContext(ctx)
	if !ok || tenantID == 0 {
		return nil, domain.ErrMissingTenant
	}

	planID := strings.TrimSpace(req.PlanID)
	if planID == "" {
		return nil, domain.ErrInvalidPlan
	}
	paymentMethod := strings.TrimSpace(req.PaymentMethod)
	if paymentMethod == "" {
		return nil, domain.ErrInvalidPaymentMethod
	}
	if req.MonthlyAmount < 0 {
		return nil, domain.ErrInvalidAmount
	}

	enabled, err := s.settings.AutoApprovalEnabled(ctx)
	if err != nil {
		return nil, err
	}
	rules, err := s.rules.ActiveRules(ctx)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	sub := &domain.Subscription{
		ID:             s.genID.Generate(),
		TenantID:       tenantID,
		PlanID:         planID,
		PaymentMethod:  paymentMethod,
		MonthlyAmount:  req.MonthlyAmount,
		VerifiedTenant: req.VerifiedTenant,
		Status:         domain.StatusPendingApproval,
		RequestedBy:    strings.TrimSpace(req.RequestedBy),
		SubmittedAt:    now,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	decision := engine.Evaluate(engine.Application{
		PlanID:         planID,
		PaymentMethod:  paymentMethod,
		MonthlyAmount:  req.MonthlyAmount,
		VerifiedTenant: req.VerifiedTenant,
	}, rules, enabled)

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, sub); err != nil {
			return err
		}

		if decision.Outcome == engine.OutcomeAutoApprove {
			return s.applyAutoApproval(ctx, tx, sub, decision)
		}

		// Deferred to manual review: the platform admin queue gets a new
		// entry to act on.
		return s.notifRepo.Insert(ctx, tx, &notifdomain.Notification{
			ID:             s.genID.Generate(),
			Type:           notifdomain.TypeSubscriptionRequest,
			Recipient:      s.cfg.PlatformAdminRecipient,
			SubscriptionID: sub.ID,
			TenantID:       sub.TenantID,
			Title:          "New subscription request",
			Body:           fmt.Sprintf("Tenant %s requested plan %s (%d/month)", sub.TenantID, sub.PlanID, sub.MonthlyAmount),
			CreatedAt:      s.clock.Now(),
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("subscription submitted",
		zap.String("subscription_id", sub.ID.String()),
		zap.String("tenant_id", sub.TenantID.String()),
		zap.String("status", string(sub.Status)),
		zap.String("decision_reason", string(decision.Reason)),
	)

	resp := toResponse(sub)
	return &resp, nil
}

// applyAutoApproval advances a freshly inserted application to AUTO_APPROVED
// inside the submission transaction, attributed to the system actor.
func (s *Service) applyAutoApproval(ctx context.Context, tx *gorm.DB, sub *domain.Subscription, decision engine.Decision) error {
	now := s.clock.Now()
	update := domain.StatusUpdate{
		Reason:        string(decision.Reason),
		MatchedRuleID: decision.MatchedRuleID,
		DecidedAt:     &now,
		UpdatedAt:     now,
	}

	applied, err := s.repo.UpdateStatus(ctx, tx, sub.ID, domain.StatusPendingApproval, domain.StatusAutoApproved, update)
	if err != nil {
		return err
	}
	if !applied {
		return domain.ErrConcurrentModification
	}

	metadata := datatypes.JSONMap{"decision_reason": string(decision.Reason)}
	if requestID := actorctx.RequestIDFromContext(ctx); requestID != "" {
		metadata["request_id"] = requestID
	}

	err = s.auditRepo.Insert(ctx, tx, &auditdomain.ApprovalHistoryEntry{
		ID:             s.genID.Generate(),
		SubscriptionID: sub.ID,
		FromStatus:     string(domain.StatusPendingApproval),
		ToStatus:       string(domain.StatusAutoApproved),
		Action:         string(domain.ActionAutoApprove),
		ActorType:      actorctx.ActorTypeSystem,
		MatchedRuleID:  decision.MatchedRuleID,
		Metadata:       metadata,
		CreatedAt:      now,
	})
	if err != nil {
		return err
	}

	err = s.notifRepo.Insert(ctx, tx, &notifdomain.Notification{
		ID:             s.genID.Generate(),
		Type:           notifdomain.TypeAutoApproved,
		Recipient:      notifdomain.TenantRecipient(sub.TenantID),
		SubscriptionID: sub.ID,
		TenantID:       sub.TenantID,
		Title:          "Subscription auto-approved",
		Body:           fmt.Sprintf("Your %s subscription was approved automatically", sub.PlanID),
		CreatedAt:      now,
	})
	if err != nil {
		return err
	}

	sub.Status = domain.StatusAutoApproved
	sub.StatusReason = update.Reason
	sub.MatchedRuleID = decision.MatchedRuleID
	sub.DecidedAt = &now
	sub.UpdatedAt = now
	return nil
}

func (s *Service) Transition(ctx context.Context, req domain.TransitionRequest) (*domain.Response, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(req.ID))
	if err != nil {
		return nil, domain.ErrInvalidID
	}
	if !domain.KnownAction(req.Action) {
		return nil, domain.ErrUnknownAction
	}
	// Auto-approval is the engine's own transition; the API cannot request it.
	if req.Action == domain.ActionAutoApprove {
		return nil, domain.ErrUnknownAction
	}

	reason := strings.TrimSpace(req.Reason)
	if domain.ReasonRequired(req.Action) && reason == "" {
		return nil, domain.ErrMissingReason
	}
	idempotencyKey := strings.TrimSpace(req.IdempotencyKey)

	var result *domain.Subscription
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		sub, err := s.repo.FindByIDForUpdate(ctx, tx, id)
		if err != nil {
			return err
		}
		if sub == nil {
			return domain.ErrNotFound
		}

		// Replay detection happens under the row lock so a racing retry
		// cannot slip between the check and the apply.
		if idempotencyKey != "" {
			prior, err := s.auditRepo.FindByIdempotencyKey(ctx, tx, sub.ID, idempotencyKey)
			if err != nil {
				return err
			}
			if prior != nil {
				if prior.Action != string(req.Action) {
					return domain.ErrIdempotencyConflict
				}
				result = sub
				return nil
			}
		}

		next, ok := domain.NextStatus(sub.Status, req.Action)
		if !ok {
			return domain.ErrInvalidTransition
		}

		now := s.clock.Now()
		update := domain.StatusUpdate{Reason: reason, UpdatedAt: now}
		switch next {
		case domain.StatusApproved, domain.StatusRejected:
			update.DecidedAt = &now
		case domain.StatusActive:
			if req.Action == domain.ActionActivate {
				update.ActivatedAt = &now
			}
		case domain.StatusTerminated:
			update.TerminatedAt = &now
		}

		applied, err := s.repo.UpdateStatus(ctx, tx, sub.ID, sub.Status, next, update)
		if err != nil {
			return err
		}
		if !applied {
			return domain.ErrConcurrentModification
		}

		actorType, actorID := actorctx.ActorFromContext(ctx)
		if actorType == "" {
			actorType = actorctx.ActorTypeAdmin
		}

		metadata := datatypes.JSONMap{}
		if requestID := actorctx.RequestIDFromContext(ctx); requestID != "" {
			metadata["request_id"] = requestID
		}

		entry := &auditdomain.ApprovalHistoryEntry{
			ID:             s.genID.Generate(),
			SubscriptionID: sub.ID,
			FromStatus:     string(sub.Status),
			ToStatus:       string(next),
			Action:         string(req.Action),
			ActorType:      actorType,
			ActorID:        actorID,
			Reason:         reason,
			CreatedAt:      now,
		}
		if idempotencyKey != "" {
			entry.IdempotencyKey = &idempotencyKey
		}
		if len(metadata) > 0 {
			entry.Metadata = metadata
		}
		if err := s.auditRepo.Insert(ctx, tx, entry); err != nil {
			// The unique (subscription_id, idempotency_key) index backstops
			// the replay check for retries racing on separate connections.
			if db.IsDuplicateKeyErr(err) {
				return domain.ErrConcurrentModification
			}
			return err
		}

		notifType, title := notificationForAction(req.Action)
		err = s.notifRepo.Insert(ctx, tx, &notifdomain.Notification{
			ID:             s.genID.Generate(),
			Type:           notifType,
			Recipient:      notifdomain.TenantRecipient(sub.TenantID),
			SubscriptionID: sub.ID,
			TenantID:       sub.TenantID,
			Title:          title,
			Body:           notificationBody(req.Action, sub.PlanID, reason),
			CreatedAt:      now,
		})
		if err != nil {
			return err
		}

		sub.Status = next
		if reason != "" {
			sub.StatusReason = reason
		}
		sub.DecidedAt = coalesceTime(update.DecidedAt, sub.DecidedAt)
		sub.ActivatedAt = coalesceTime(update.ActivatedAt, sub.ActivatedAt)
		sub.TerminatedAt = coalesceTime(update.TerminatedAt, sub.TerminatedAt)
		sub.UpdatedAt = now
		result = sub
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("subscription transition applied",
		zap.String("subscription_id", result.ID.String()),
		zap.String("action", string(req.Action)),
		zap.String("status", string(result.Status)),
	)

	resp := toResponse(result)
	return &resp, nil
}

func (s *Service) Get(ctx context.Context, id string) (*domain.Response, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return nil, domain.ErrInvalidID
	}

	sub, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return nil, err
	}
	if sub == nil {
		return nil, domain.ErrNotFound
	}

	resp := toResponse(sub)
	return &resp, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	filter := domain.ListFilter{Status: req.Status}

	if tenant := strings.TrimSpace(req.TenantID); tenant != "" {
		parsed, err := snowflake.ParseString(tenant)
		if err != nil {
			return nil, domain.ErrInvalidID
		}
		filter.TenantID = parsed
	}

	limit := req.Pagination.PageSize
	if limit <= 0 {
		limit = 50
	}
	filter.Limit = int(limit) + 1

	if token := strings.TrimSpace(req.Pagination.PageToken); token != "" {
		cursor, err := pagination.DecodeCursor(token)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		cursorID, err := snowflake.ParseString(cursor.ID)
		if err != nil {
			return nil, domain.ErrInvalidPageToken
		}
		filter.CursorID = cursorID
	}

	subs, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	refs := make([]*domain.Subscription, len(subs))
	for i := range subs {
		refs[i] = &subs[i]
	}
	pageInfo := pagination.BuildCursorPageInfo(refs, limit, func(sub *domain.Subscription) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: sub.ID.String()})
		return token
	})
	if len(subs) > int(limit) {
		subs = subs[:limit]
	}

	resp := make([]domain.Response, 0, len(subs))
	for i := range subs {
		resp = append(resp, toResponse(&subs[i]))
	}
	return &domain.ListResponse{Subscriptions: resp, PageInfo: pageInfo}, nil
}

func notificationForAction(action domain.Action) (notifdomain.Type, string) {
	switch action {
	case domain.ActionApprove:
		return notifdomain.TypeApproved, "Subscription approved"
	case domain.ActionReject:
		return notifdomain.TypeRejected, "Subscription rejected"
	case domain.ActionActivate:
		return notifdomain.TypeActivated, "Subscription activated"
	case domain.ActionSuspend:
		return notifdomain.TypeSuspended, "Subscription suspended"
	case domain.ActionReactivate:
		return notifdomain.TypeReactivated, "Subscription reactivated"
	case domain.ActionTerminate:
		return notifdomain.TypeTerminated, "Subscription terminated"
	}
	return notifdomain.TypeSubscriptionRequest, "Subscription update"
}

func notificationBody(action domain.Action, planID, reason string) string {
	if reason != "" {
		return fmt.Sprintf("Your %s subscription was updated (%s): %s", planID, strings.ToLower(string(action)), reason)
	}
	return fmt.Sprintf("Your %s subscription was updated (%s)", planID, strings.ToLower(string(action)))
}

func coalesceTime(updated, existing *time.Time) *time.Time {
	if updated != nil {
		return updated
	}
	return existing
}

func toResponse(sub *domain.Subscription) domain.Response {
	var matchedRuleID *string
	if sub.MatchedRuleID != nil {
		id := sub.MatchedRuleID.String()
		matchedRuleID = &id
	}
	return domain.Response{
		ID:             sub.ID.String(),
		TenantID:       sub.TenantID.String(),
		PlanID:         sub.PlanID,
		PaymentMethod:  sub.PaymentMethod,
		MonthlyAmount:  sub.MonthlyAmount,
		VerifiedTenant: sub.VerifiedTenant,
		Status:         sub.Status,
		StatusReason:   sub.StatusReason,
		MatchedRuleID:  matchedRuleID,
		RequestedBy:    sub.RequestedBy,
		SubmittedAt:    sub.SubmittedAt,
		DecidedAt:      sub.DecidedAt,
		ActivatedAt:    sub.ActivatedAt,
		TerminatedAt:   sub.TerminatedAt,
		CreatedAt:      sub.CreatedAt,
		UpdatedAt:      sub.UpdatedAt,
	}
}
