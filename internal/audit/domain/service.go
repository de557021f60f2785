package domain

import (
	"context"
	"errors"
	"time"

	"github.com/lovably74/SmartCON-sub001/pkg/db/pagination"
)

type ListRequest struct {
	SubscriptionID string
	Action         string
	ActorID        string
	From           time.Time
	To             time.Time
	Pagination     pagination.Pagination
}

type Response struct {
	ID             string         `json:"id"`
	SubscriptionID string         `json:"subscription_id"`
	FromStatus     string         `json:"from_status"`
	ToStatus       string         `json:"to_status"`
	Action         string         `json:"action"`
	ActorType      string         `json:"actor_type"`
	ActorID        string         `json:"actor_id,omitempty"`
	Reason         string         `json:"reason,omitempty"`
	MatchedRuleID  *string        `json:"matched_rule_id,omitempty"`
	Metadata       map[string]any `json:"metadata,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
}

type ListResponse struct {
	Entries  []Response           `json:"entries"`
	PageInfo *pagination.PageInfo `json:"page_info"`
}

type Service interface {
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
}

var (
	ErrInvalidSubscriptionID = errors.New("invalid_subscription_id")
	ErrInvalidPageToken      = errors.New("invalid_page_token")
)
