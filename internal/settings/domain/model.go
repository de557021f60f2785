package domain

import "time"

// PlatformSetting is a platform-scoped key/value pair. Settings apply across
// all tenants; per-tenant configuration does not live here.
type PlatformSetting struct {
	Key       string    `gorm:"column:key;primaryKey"`
	Value     string    `gorm:"column:value"`
	UpdatedAt time.Time `gorm:"column:updated_at"`
}

func (PlatformSetting) TableName() string {
	return "platform_settings"
}

const (
	// KeyAutoApprovalEnabled gates rule evaluation globally. Individual rule
	// active flags are orthogonal to this switch.
	KeyAutoApprovalEnabled = "auto_approval_enabled"
)
