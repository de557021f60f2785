// Package domain contains the auto-approval rule model and contracts.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// AutoApprovalRule is a prioritized predicate set. When an incoming
// subscription application satisfies every predicate of an active rule,
// the application bypasses manual review.
//
// Priority ties are broken by ascending rule ID so evaluation order is a
// deterministic total order.
type AutoApprovalRule struct {
	ID     snowflake.ID `gorm:"primaryKey"`
	Name   string       `gorm:"type:text;not null"`
	Active bool         `gorm:"not null;default:true"`

	// Priority orders evaluation; higher values are evaluated first.
	Priority int `gorm:"not null;default:0"`

	// PlanFilter and PaymentMethodFilter are membership predicates.
	// An empty filter matches any value.
	PlanFilter          datatypes.JSONSlice[string] `gorm:"type:jsonb"`
	PaymentMethodFilter datatypes.JSONSlice[string] `gorm:"type:jsonb"`

	VerifiedTenantsOnly bool `gorm:"not null;default:false"`

	// MaxAmount is an inclusive ceiling on the monthly amount. Nil means unbounded.
	MaxAmount *int64 `gorm:""`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (AutoApprovalRule) TableName() string { return "auto_approval_rules" }
