package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// ApprovalHistoryEntry is one row of the append-only transition ledger. Rows
// are never updated or deleted; corrections happen as new transitions.
type ApprovalHistoryEntry struct {
	ID             snowflake.ID      `gorm:"column:id;primaryKey"`
	SubscriptionID snowflake.ID      `gorm:"column:subscription_id;index;uniqueIndex:uq_history_sub_idem"`
	FromStatus     string            `gorm:"column:from_status"`
	ToStatus       string            `gorm:"column:to_status"`
	Action         string            `gorm:"column:action"`
	ActorType      string            `gorm:"column:actor_type"`
	ActorID        string            `gorm:"column:actor_id"`
	Reason         string            `gorm:"column:reason"`
	MatchedRuleID  *snowflake.ID     `gorm:"column:matched_rule_id"`
	IdempotencyKey *string           `gorm:"column:idempotency_key;uniqueIndex:uq_history_sub_idem"`
	Metadata       datatypes.JSONMap `gorm:"column:metadata"`
	CreatedAt      time.Time         `gorm:"column:created_at"`
}

func (ApprovalHistoryEntry) TableName() string {
	return "approval_history"
}
