package models

import (
	"time"

	"github.com/uptrace/bun"
)

// AuditLog records who did what. Writes are best effort and must
// never fail the operation being recorded.
type AuditLog struct {
	bun.BaseModel `bun:"table:audit_log,alias:al"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	Action     string    `bun:"action,notnull" json:"action"`
	EntityType string    `bun:"entity_type,notnull" json:"entityType"`
	EntityID   *int64    `bun:"entity_id" json:"entityID,omitempty"`
	UserID     *int64    `bun:"user_id" json:"userID,omitempty"`
	Metadata   *string   `bun:"metadata" json:"metadata,omitempty"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}
