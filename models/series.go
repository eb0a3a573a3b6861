package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Series statuses accepted by the API.
const (
	SeriesStatusActive   = "active"
	SeriesStatusUpcoming = "upcoming"
	SeriesStatusArchived = "archived"
)

// ValidSeriesStatus reports whether s is one of the accepted series statuses.
func ValidSeriesStatus(s string) bool {
	return s == SeriesStatusActive || s == SeriesStatusUpcoming || s == SeriesStatusArchived
}

// Series groups events into a season.
type Series struct {
	bun.BaseModel `bun:"table:series,alias:s"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	Name      string    `bun:"name,notnull" json:"name"`
	Season    string    `bun:"season,notnull" json:"season"`
	Status    string    `bun:"status,notnull" json:"status"`
	StartDate *string   `bun:"start_date" json:"startDate,omitempty"`
	EndDate   *string   `bun:"end_date" json:"endDate,omitempty"`
	IsDeleted bool      `bun:"is_deleted,notnull,default:false" json:"-"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}
