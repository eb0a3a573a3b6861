package models

import (
	"time"

	"github.com/uptrace/bun"
)

// PayoffRule allocates a percentage of the net pot to a finishing
// position. At most one active rule may exist per (event, position);
// recreating a deactivated rule at the same position reactivates it.
type PayoffRule struct {
	bun.BaseModel `bun:"table:payoff_rules,alias:pr"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	EventID    int64     `bun:"event_id,notnull,unique:payoff_rules_no_dupes" json:"eventID"`
	Position   int64     `bun:"position,notnull,unique:payoff_rules_no_dupes" json:"position"`
	Percentage float64   `bun:"percentage,notnull" json:"percentage"`
	IsActive   bool      `bun:"is_active,notnull" json:"isActive"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
}
