package models

import "time"

// RewardSettings holds the tenant-wide reward workflow flags. When
// RequireManagerApproval is false every applied reward is auto-approved.
type RewardSettings struct {
	TenantID               string    `db:"tenant_id" json:"tenant_id"`
	RequireManagerApproval bool      `db:"require_manager_approval" json:"require_manager_approval"`
	UpdatedAt              time.Time `db:"updated_at" json:"updated_at"`
}
