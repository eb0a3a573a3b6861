package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event statuses stored in the database. NormalizeEventStatus maps the
// aliases the frontend historically sent onto this canonical set.
const (
	EventStatusUpcoming  = "upcoming"
	EventStatusActive    = "active"
	EventStatusCompleted = "completed"
	EventStatusLocked    = "locked"
)

// NormalizeEventStatus maps incoming status values onto the canonical set.
// Unknown values fall back to "upcoming".
func NormalizeEventStatus(s string) string {
	switch s {
	case "draft":
		return EventStatusUpcoming
	case "finalized":
		return EventStatusCompleted
	case EventStatusUpcoming, EventStatusActive, EventStatusCompleted, EventStatusLocked:
		return s
	default:
		return EventStatusUpcoming
	}
}

// Event is a single roping on a given date within a series.
type Event struct {
	bun.BaseModel `bun:"table:events,alias:e"`

	ID               int64     `bun:"id,pk,autoincrement" json:"id"`
	SeriesID         int64     `bun:"series_id,notnull" json:"seriesID"`
	Name             string    `bun:"name,notnull" json:"name"`
	Date             string    `bun:"date,notnull" json:"date"`
	Status           string    `bun:"status,notnull,default:'upcoming'" json:"status"`
	Rounds           int64     `bun:"rounds,notnull" json:"rounds"`
	Location         *string   `bun:"location" json:"location,omitempty"`
	EntryFee         *float64  `bun:"entry_fee" json:"entryFee,omitempty"`
	PrizePool        *float64  `bun:"prize_pool" json:"prizePool,omitempty"`
	MaxTeamRating    *float64  `bun:"max_team_rating" json:"maxTeamRating,omitempty"`
	PayoffAllocation *string   `bun:"payoff_allocation" json:"payoffAllocation,omitempty"`
	AdminPIN         *string   `bun:"admin_pin" json:"-"`
	IsDeleted        bool      `bun:"is_deleted,notnull,default:false" json:"-"`
	CreatedAt        time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt        time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	Series *Series `bun:"rel:belongs-to,join:series_id=id" json:"-"`
}
