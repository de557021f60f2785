package domain

import (
	"context"
	"errors"
	"time"
)

type CreateRequest struct {
	Name                string
	Priority            int
	PlanFilter          []string
	PaymentMethodFilter []string
	VerifiedTenantsOnly bool
	MaxAmount           *int64
	Active              *bool
}

// UpdateRequest carries partial updates; nil fields are left untouched.
type UpdateRequest struct {
	ID                  string
	Name                *string
	Priority            *int
	PlanFilter          *[]string
	PaymentMethodFilter *[]string
	VerifiedTenantsOnly *bool
	MaxAmount           *int64
	ClearMaxAmount      bool
	Active              *bool
}

type ListRequest struct {
	ActiveOnly bool
}

type Response struct {
	ID                  string    `json:"id"`
	Name                string    `json:"name"`
	Active              bool      `json:"active"`
	Priority            int       `json:"priority"`
	PlanFilter          []string  `json:"plan_filter"`
	PaymentMethodFilter []string  `json:"payment_method_filter"`
	VerifiedTenantsOnly bool      `json:"verified_tenants_only"`
	MaxAmount           *int64    `json:"max_amount,omitempty"`
	CreatedAt           time.Time `json:"created_at"`
	UpdatedAt           time.Time `json:"updated_at"`
}

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	Update(ctx context.Context, req UpdateRequest) (*Response, error)
	Delete(ctx context.Context, id string) error
	ToggleActive(ctx context.Context, id string, active bool) (*Response, error)
	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) ([]Response, error)

	// ActiveRules returns the active rule set for the evaluator. The result
	// may be served from cache; invalidation is synchronous with every write.
	ActiveRules(ctx context.Context) ([]AutoApprovalRule, error)
}

var (
	ErrInvalidID        = errors.New("invalid_rule_id")
	ErrInvalidName      = errors.New("invalid_rule_name")
	ErrInvalidMaxAmount = errors.New("invalid_rule_max_amount")
	ErrNotFound         = errors.New("rule_not_found")
)
