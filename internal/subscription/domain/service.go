package domain

import (
	"context"
	"errors"
	"time"

	"github.com/lovably74/SmartCON-sub001/pkg/db/pagination"
)

type SubmitRequest struct {
	PlanID         string
	PaymentMethod  string
	MonthlyAmount  int64
	VerifiedTenant bool
	RequestedBy    string
}

type TransitionRequest struct {
	ID             string
	Action         Action
	Reason         string
	IdempotencyKey string
}

type ListRequest struct {
	TenantID   string
	Status     Status
	Pagination pagination.Pagination
}

type Response struct {
	ID             string     `json:"id"`
	TenantID       string     `json:"tenant_id"`
	PlanID         string     `json:"plan_id"`
	PaymentMethod  string     `json:"payment_method"`
	MonthlyAmount  int64      `json:"monthly_amount"`
	VerifiedTenant bool       `json:"verified_tenant"`
	Status         Status     `json:"status"`
	StatusReason   string     `json:"status_reason,omitempty"`
	MatchedRuleID  *string    `json:"matched_rule_id,omitempty"`
	RequestedBy    string     `json:"requested_by,omitempty"`
	SubmittedAt    time.Time  `json:"submitted_at"`
	DecidedAt      *time.Time `json:"decided_at,omitempty"`
	ActivatedAt    *time.Time `json:"activated_at,omitempty"`
	TerminatedAt   *time.Time `json:"terminated_at,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

type ListResponse struct {
	Subscriptions []Response           `json:"subscriptions"`
	PageInfo      *pagination.PageInfo `json:"page_info"`
}

type Service interface {
	// Submit records a new application and runs auto-approval evaluation
	// synchronously. The returned status is either PENDING_APPROVAL or
	// AUTO_APPROVED.
	Submit(ctx context.Context, req SubmitRequest) (*Response, error)

	// Transition applies a lifecycle action. Retries carrying the same
	// idempotency key return the stored outcome without reapplying.
	Transition(ctx context.Context, req TransitionRequest) (*Response, error)

	Get(ctx context.Context, id string) (*Response, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
}

var (
	ErrInvalidID              = errors.New("invalid_subscription_id")
	ErrNotFound               = errors.New("subscription_not_found")
	ErrMissingTenant          = errors.New("tenant_required")
	ErrInvalidPlan            = errors.New("invalid_plan_id")
	ErrInvalidPaymentMethod   = errors.New("invalid_payment_method")
	ErrInvalidAmount          = errors.New("invalid_monthly_amount")
	ErrUnknownAction          = errors.New("unknown_action")
	ErrInvalidTransition      = errors.New("invalid_transition")
	ErrMissingReason          = errors.New("reason_required")
	ErrConcurrentModification = errors.New("concurrent_modification")
	ErrIdempotencyConflict    = errors.New("idempotency_key_reused")
	ErrInvalidPageToken       = errors.New("invalid_page_token")
)
