package domain

import (
	"context"
	"errors"
	"time"

	"github.com/lovably74/SmartCON-sub001/pkg/db/pagination"
)

type ListRequest struct {
	Recipient  string
	UnreadOnly bool
	Pagination pagination.Pagination
}

type Response struct {
	ID             string     `json:"id"`
	Type           Type       `json:"type"`
	Recipient      string     `json:"recipient"`
	SubscriptionID string     `json:"subscription_id"`
	TenantID       string     `json:"tenant_id"`
	Title          string     `json:"title"`
	Body           string     `json:"body"`
	Read           bool       `json:"read"`
	ReadAt         *time.Time `json:"read_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
}

type ListResponse struct {
	Notifications []Response           `json:"notifications"`
	PageInfo      *pagination.PageInfo `json:"page_info"`
}

type Service interface {
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	MarkRead(ctx context.Context, id string) error
}

var (
	ErrInvalidID        = errors.New("invalid_notification_id")
	ErrNotFound         = errors.New("notification_not_found")
	ErrInvalidPageToken = errors.New("invalid_page_token")
)
