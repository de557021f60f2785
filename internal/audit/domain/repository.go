package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	SubscriptionID snowflake.ID
	Action         string
	ActorID        string
	From           time.Time
	To             time.Time
	CursorID       snowflake.ID
	Limit          int
}

type Repository interface {
	// Insert appends a ledger row. Callers run it inside the same transaction
	// as the status change it records.
	Insert(ctx context.Context, db *gorm.DB, entry *ApprovalHistoryEntry) error

	// FindByIdempotencyKey returns the prior entry for a retried action, or
	// nil when the key has not been seen for this subscription.
	FindByIdempotencyKey(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, key string) (*ApprovalHistoryEntry, error)

	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]ApprovalHistoryEntry, error)
}
