package models

import (
	"time"

	"github.com/uptrace/bun"
)

// DrawEntry assigns a team to a run-order position within a round.
type DrawEntry struct {
	bun.BaseModel `bun:"table:draws,alias:d"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	EventID   int64     `bun:"event_id,notnull,unique:draws_no_dupes" json:"eventID"`
	Round     int64     `bun:"round,notnull,unique:draws_no_dupes" json:"round"`
	Position  int64     `bun:"position,notnull,unique:draws_no_dupes" json:"position"`
	TeamID    int64     `bun:"team_id,notnull" json:"teamID"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	Team *Team `bun:"rel:belongs-to,join:team_id=id" json:"-"`
}
