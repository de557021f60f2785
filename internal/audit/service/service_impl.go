package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/lovably74/SmartCON-sub001/internal/audit/domain"
	"github.com/lovably74/SmartCON-sub001/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB   *gorm.DB
	Log  *zap.Logger
	Repo domain.Repository
}

type Service struct {
	db   *gorm.DB
	log  *zap.Logger
	repo domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:   p.DB,
		log:  p.Log.Named("audit.service"),
		repo: p.Repo,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	filter := domain.ListFilter{
		Action:  strings.TrimSpace(req.Action),
		ActorID: strings.TrimSpace(req.ActorID),
		From:    req.From,
		To:      req.To,
	}

	if sub := strings.TrimSpace(req.SubscriptionID); sub != "" {
		parsed, err := snowflake.ParseString(sub)
		if err != nil {
			return nil, domain.ErrInvalidSubscriptionID
		}
		filter.SubscriptionID = parsed
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

	entries, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	refs := make([]*domain.ApprovalHistoryEntry, len(entries))
	for i := range entries {
		refs[i] = &entries[i]
	}
	pageInfo := pagination.BuildCursorPageInfo(refs, limit, func(e *domain.ApprovalHistoryEntry) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: e.ID.String()})
		return token
	})
	if len(entries) > int(limit) {
		entries = entries[:limit]
	}

	resp := make([]domain.Response, 0, len(entries))
	for i := range entries {
		resp = append(resp, toResponse(&entries[i]))
	}
	return &domain.ListResponse{Entries: resp, PageInfo: pageInfo}, nil
}

func toResponse(e *domain.ApprovalHistoryEntry) domain.Response {
	var matchedRuleID *string
	if e.MatchedRuleID != nil {
		id := e.MatchedRuleID.String()
		matchedRuleID = &id
	}
	return domain.Response{
		ID:             e.ID.String(),
		SubscriptionID: e.SubscriptionID.String(),
		FromStatus:     e.FromStatus,
		ToStatus:       e.ToStatus,
		Action:         e.Action,
		ActorType:      e.ActorType,
		ActorID:        e.ActorID,
		Reason:         e.Reason,
		MatchedRuleID:  matchedRuleID,
		Metadata:       e.Metadata,
		CreatedAt:      e.CreatedAt,
	}
}
