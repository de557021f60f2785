package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

type Type string

const (
	TypeSubscriptionRequest Type = "SUBSCRIPTION_REQUEST"
	TypeApproved            Type = "APPROVED"
	TypeAutoApproved        Type = "AUTO_APPROVED"
	TypeRejected            Type = "REJECTED"
	TypeActivated           Type = "ACTIVATED"
	TypeSuspended           Type = "SUSPENDED"
	TypeReactivated         Type = "REACTIVATED"
	TypeTerminated          Type = "TERMINATED"
	TypeApprovalReminder    Type = "APPROVAL_REMINDER"
)

// Notification is an in-app notification record. Delivery to external
// channels (mail, messengers) is out of scope; consumers poll the list API.
type Notification struct {
	ID             snowflake.ID `gorm:"column:id;primaryKey"`
	Type           Type         `gorm:"column:type"`
	Recipient      string       `gorm:"column:recipient;index"`
	SubscriptionID snowflake.ID `gorm:"column:subscription_id;index"`
	TenantID       snowflake.ID `gorm:"column:tenant_id"`
	Title          string       `gorm:"column:title"`
	Body           string       `gorm:"column:body"`
	Read           bool         `gorm:"column:is_read"`
	ReadAt         *time.Time   `gorm:"column:read_at"`
	CreatedAt      time.Time    `gorm:"column:created_at"`
}

func (Notification) TableName() string {
	return "notifications"
}

// TenantRecipient is the recipient key for a tenant's notification feed.
func TenantRecipient(tenantID snowflake.ID) string {
	return "tenant-" + tenantID.String()
}
