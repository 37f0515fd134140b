package domain

import "time"

// Idempotency records the outcome of a create request, keyed by
// (owner_id, scope, key). A replay with the same key returns the resource
// originally created instead of inserting a second one.
type Idempotency struct {
	ID         string    `gorm:"type:text;not null;primaryKey"`
	OwnerID    string    `gorm:"type:text;not null;uniqueIndex:ux_owner_scope_key,priority:1"`
	Scope      string    `gorm:"type:text;not null;uniqueIndex:ux_owner_scope_key,priority:2"`
	Key        string    `gorm:"type:text;not null;uniqueIndex:ux_owner_scope_key,priority:3"`
	ResourceID string    `gorm:"type:text;not null"`
	Status     int       `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null;autoCreateTime"`
	ExpiresAt  time.Time `gorm:"not null;index"`
}

// TableName implements the GORM tabler interface.
func (Idempotency) TableName() string { return "idempotency" }
