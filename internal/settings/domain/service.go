package domain

import "context"

type Service interface {
	// AutoApprovalEnabled reports the global evaluation switch. An unset
	// value reads as enabled.
	AutoApprovalEnabled(ctx context.Context) (bool, error)
	SetAutoApprovalEnabled(ctx context.Context, enabled bool) error
}
