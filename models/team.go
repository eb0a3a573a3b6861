package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Team statuses.
const (
	TeamStatusActive   = "active"
	TeamStatusInactive = "inactive"
)

// Team pairs a header and a heeler for one event.
type Team struct {
	bun.BaseModel `bun:"table:teams,alias:t"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	EventID   int64     `bun:"event_id,notnull,unique:teams_no_dupes" json:"eventID"`
	HeaderID  int64     `bun:"header_id,notnull,unique:teams_no_dupes" json:"headerID"`
	HeelerID  int64     `bun:"heeler_id,notnull,unique:teams_no_dupes" json:"heelerID"`
	Rating    float64   `bun:"rating,notnull" json:"rating"`
	Status    string    `bun:"status,notnull,default:'active'" json:"status"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`

	Event  *Event `bun:"rel:belongs-to,join:event_id=id" json:"-"`
	Header *Roper `bun:"rel:belongs-to,join:header_id=id" json:"-"`
	Heeler *Roper `bun:"rel:belongs-to,join:heeler_id=id" json:"-"`
}
