package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Run statuses. A run is seeded "pending" by the draw, becomes
// "completed" when a result is captured, and is "skipped" in rounds
// after the one where its team was flagged out.
const (
	RunStatusPending   = "pending"
	RunStatusCompleted = "completed"
	RunStatusSkipped   = "skipped"
)

// Run is the result of one team in one round of one event.
// TotalSec is populated only when the run has a valid time and
// neither the no-time nor the DQ flag is set.
type Run struct {
	bun.BaseModel `bun:"table:runs,alias:r"`

	ID         int64     `bun:"id,pk,autoincrement" json:"id"`
	EventID    int64     `bun:"event_id,notnull,unique:runs_no_dupes" json:"eventID"`
	TeamID     int64     `bun:"team_id,notnull,unique:runs_no_dupes" json:"teamID"`
	Round      int64     `bun:"round,notnull,unique:runs_no_dupes" json:"round"`
	Position   int64     `bun:"position,notnull" json:"position"`
	TimeSec    *float64  `bun:"time_sec" json:"timeSec,omitempty"`
	Penalty    float64   `bun:"penalty,notnull,default:0" json:"penalty"`
	TotalSec   *float64  `bun:"total_sec" json:"totalSec,omitempty"`
	NoTime     bool      `bun:"no_time,notnull,default:false" json:"noTime"`
	DQ         bool      `bun:"dq,notnull,default:false" json:"dq"`
	Status     string    `bun:"status,notnull,default:'pending'" json:"status"`
	CapturedBy *int64    `bun:"captured_by" json:"capturedBy,omitempty"`
	CreatedAt  time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt  time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	Team *Team `bun:"rel:belongs-to,join:team_id=id" json:"-"`
}
