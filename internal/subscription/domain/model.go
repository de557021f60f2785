package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Status string

const (
	StatusPendingApproval Status = "PENDING_APPROVAL"
	StatusApproved        Status = "APPROVED"
	StatusAutoApproved    Status = "AUTO_APPROVED"
	StatusRejected        Status = "REJECTED"
	StatusActive          Status = "ACTIVE"
	StatusSuspended       Status = "SUSPENDED"
	StatusTerminated      Status = "TERMINATED"
)

type Action string

const (
	ActionApprove     Action = "APPROVE"
	ActionAutoApprove Action = "AUTO_APPROVE"
	ActionReject      Action = "REJECT"
	ActionActivate    Action = "ACTIVATE"
	ActionSuspend     Action = "SUSPEND"
	ActionReactivate  Action = "REACTIVATE"
	ActionTerminate   Action = "TERMINATE"
)

// Subscription is one tenant's application for a paid plan, from submission
// through approval and service lifecycle. Plan, payment method, amount and
// the tenant's verification state are snapshotted at submission time so later
// tenant changes do not retroactively alter what was evaluated.
type Subscription struct {
	ID             snowflake.ID  `gorm:"column:id;primaryKey"`
	TenantID       snowflake.ID  `gorm:"column:tenant_id;index"`
	PlanID         string        `gorm:"column:plan_id"`
	PaymentMethod  string        `gorm:"column:payment_method"`
	MonthlyAmount  int64         `gorm:"column:monthly_amount"`
	VerifiedTenant bool          `gorm:"column:verified_tenant"`
	Status         Status        `gorm:"column:status;index"`
	StatusReason   string        `gorm:"column:status_reason"`
	MatchedRuleID  *snowflake.ID `gorm:"column:matched_rule_id"`
	RequestedBy    string        `gorm:"column:requested_by"`
	SubmittedAt    time.Time     `gorm:"column:submitted_at"`
	DecidedAt      *time.Time    `gorm:"column:decided_at"`
	ActivatedAt    *time.Time    `gorm:"column:activated_at"`
	TerminatedAt   *time.Time    `gorm:"column:terminated_at"`
	CreatedAt      time.Time     `gorm:"column:created_at"`
	UpdatedAt      time.Time     `gorm:"column:updated_at"`
}

func (Subscription) TableName() string {
	return "subscriptions"
}

var transitions = map[Status]map[Action]Status{
	StatusPendingApproval: {
		ActionApprove:     StatusApproved,
		ActionAutoApprove: StatusAutoApproved,
		ActionReject:      StatusRejected,
	},
	StatusApproved: {
		ActionActivate: StatusActive,
	},
	StatusAutoApproved: {
		ActionActivate: StatusActive,
	},
	StatusActive: {
		ActionSuspend:   StatusSuspended,
		ActionTerminate: StatusTerminated,
	},
	StatusSuspended: {
		ActionReactivate: StatusActive,
		ActionTerminate:  StatusTerminated,
	},
}

// NextStatus resolves the target status for an action applied in the given
// status. REJECTED and TERMINATED are terminal: no action leaves them.
func NextStatus(from Status, action Action) (Status, bool) {
	next, ok := transitions[from][action]
	return next, ok
}

var reasonRequired = map[Action]bool{
	ActionReject:    true,
	ActionSuspend:   true,
	ActionTerminate: true,
}

// ReasonRequired reports whether the action must carry an operator reason.
func ReasonRequired(action Action) bool {
	return reasonRequired[action]
}

// KnownAction reports whether the action is part of the lifecycle vocabulary
// at all, regardless of the current status.
func KnownAction(action Action) bool {
	switch action {
	case ActionApprove, ActionAutoApprove, ActionReject, ActionActivate,
		ActionSuspend, ActionReactivate, ActionTerminate:
		return true
	}
	return false
}
