package models

import "time"

// Kudos is a lightweight peer-recognition fact. It has no lifecycle beyond
// creation and only feeds reporting rollups.
type Kudos struct {
	ID         string    `db:"id" json:"id"`
	TenantID   string    `db:"tenant_id" json:"tenant_id"`
	SenderID   string    `db:"sender_id" json:"sender_id"`
	ReceiverID string    `db:"receiver_id" json:"receiver_id"`
	Reason     string    `db:"reason" json:"reason"`
	Points     int       `db:"points" json:"points"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// KudosFilter scopes kudos listing queries.
type KudosFilter struct {
	TenantID   string
	SenderID   string
	ReceiverID string
	Page       int
	PageSize   int
}
