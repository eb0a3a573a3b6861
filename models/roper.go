package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Roper specialties.
const (
	SpecialtyHeader = "header"
	SpecialtyHeeler = "heeler"
	SpecialtyBoth   = "both"
)

// Roper levels.
const (
	LevelPro      = "pro"
	LevelAmateur  = "amateur"
	LevelBeginner = "beginner"
)

// ValidSpecialty reports whether s is one of the accepted specialties.
func ValidSpecialty(s string) bool {
	return s == SpecialtyHeader || s == SpecialtyHeeler || s == SpecialtyBoth
}

// ValidLevel reports whether s is one of the accepted levels.
func ValidLevel(s string) bool {
	return s == LevelPro || s == LevelAmateur || s == LevelBeginner
}

// Roper is a competitor who ropes as a header, heeler or both.
type Roper struct {
	bun.BaseModel `bun:"table:ropers,alias:rp"`

	ID        int64     `bun:"id,pk,autoincrement" json:"id"`
	FirstName string    `bun:"first_name,notnull" json:"firstName"`
	LastName  string    `bun:"last_name,notnull" json:"lastName"`
	Specialty string    `bun:"specialty,notnull" json:"specialty"`
	Rating    int64     `bun:"rating,notnull" json:"rating"`
	Phone     *string   `bun:"phone" json:"phone,omitempty"`
	Email     *string   `bun:"email" json:"email,omitempty"`
	Level     string    `bun:"level,notnull,default:'amateur'" json:"level"`
	IsActive  bool      `bun:"is_active,notnull" json:"-"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp" json:"createdAt"`
	UpdatedAt time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp" json:"updatedAt"`
}
