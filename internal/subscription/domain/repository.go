package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	TenantID snowflake.ID
	Status   Status
	CursorID snowflake.ID
	Limit    int
}

// StatusUpdate carries the fields a transition may change alongside the
// status column itself.
type StatusUpdate struct {
	Reason        string
	MatchedRuleID *snowflake.ID
	DecidedAt     *time.Time
	ActivatedAt   *time.Time
	TerminatedAt  *time.Time
	UpdatedAt     time.Time
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, sub *Subscription) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Subscription, error)

	// FindByIDForUpdate locks the row for the duration of the surrounding
	// transaction so concurrent transitions serialize.
	FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id snowflake.ID) (*Subscription, error)

	// UpdateStatus applies a status change guarded on the expected current
	// status. A false return means another transition got there first.
	UpdateStatus(ctx context.Context, tx *gorm.DB, id snowflake.ID, from, to Status, update StatusUpdate) (bool, error)

	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Subscription, error)

	// ListPendingBefore returns applications still awaiting a decision that
	// were submitted at or before the cutoff.
	ListPendingBefore(ctx context.Context, db *gorm.DB, cutoff time.Time) ([]Subscription, error)
}
