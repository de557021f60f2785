package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	Recipient  string
	UnreadOnly bool
	CursorID   snowflake.ID
	Limit      int
}

type Repository interface {
	// Insert writes a notification. Callers emitting notifications alongside
	// a status change pass the transaction handle so both commit together.
	Insert(ctx context.Context, db *gorm.DB, n *Notification) error

	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Notification, error)

	List(ctx context.Context, db *gorm.DB, filter ListFilter) ([]Notification, error)

	// MarkRead flips the read flag; returns false when the row is missing or
	// already read.
	MarkRead(ctx context.Context, db *gorm.DB, id snowflake.ID, readAt time.Time) (bool, error)

	// ExistsForSubscription reports whether a notification of the given type
	// was already emitted for the subscription. The reminder job uses it to
	// send at most one reminder per application.
	ExistsForSubscription(ctx context.Context, db *gorm.DB, subscriptionID snowflake.ID, typ Type) (bool, error)
}
