package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/lovably74/SmartCON-sub001/internal/clock"
	"github.com/lovably74/SmartCON-sub001/internal/notification/domain"
	"github.com/lovably74/SmartCON-sub001/pkg/db/pagination"
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
		log:   p.Log.Named("notification.service"),
		clock: p.Clock,
		repo:  p.Repo,
	}
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	filter := domain.ListFilter{
		Recipient:  strings.TrimSpace(req.Recipient),
		UnreadOnly: req.UnreadOnly,
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

	items, err := s.repo.List(ctx, s.db, filter)
	if err != nil {
		return nil, err
	}

	refs := make([]*domain.Notification, len(items))
	for i := range items {
		refs[i] = &items[i]
	}
	pageInfo := pagination.BuildCursorPageInfo(refs, limit, func(n *domain.Notification) string {
		token, _ := pagination.EncodeCursor(pagination.Cursor{ID: n.ID.String()})
		return token
	})
	if len(items) > int(limit) {
		items = items[:limit]
	}

	resp := make([]domain.Response, 0, len(items))
	for i := range items {
		resp = append(resp, toResponse(&items[i]))
	}
	return &domain.ListResponse{Notifications: resp, PageInfo: pageInfo}, nil
}

func (s *Service) MarkRead(ctx context.Context, id string) error {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil {
		return domain.ErrInvalidID
	}

	updated, err := s.repo.MarkRead(ctx, s.db, parsed, s.clock.Now())
	if err != nil {
		return err
	}
	if !updated {
		// Marking an already-read row twice is fine; only a missing row
		// is an error.
		existing, err := s.repo.FindByID(ctx, s.db, parsed)
		if err != nil {
			return err
		}
		if existing == nil {
			return domain.ErrNotFound
		}
	}
	return nil
}

func toResponse(n *domain.Notification) domain.Response {
	return domain.Response{
		ID:             n.ID.String(),
		Type:           n.Type,
		Recipient:      n.Recipient,
		SubscriptionID: n.SubscriptionID.String(),
		TenantID:       n.TenantID.String(),
		Title:          n.Title,
		Body:           n.Body,
		Read:           n.Read,
		ReadAt:         n.ReadAt,
		CreatedAt:      n.CreatedAt,
	}
}
