package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Mogi is one race-tracking session owned by a single user. At most one
// non-finalized mogi exists per owner at any time; once it has 12 races it
// can be finalized and the next access opens a fresh one.
type Mogi struct {
	bun.BaseModel `bun:"table:mogis,alias:m"`

	ID        int       `bun:"id,pk,autoincrement" json:"id"`
	OwnerID   int       `bun:"owner_id,notnull" json:"ownerID"`
	CreatedAt time.Time `bun:"created_at,notnull,nullzero,default:current_timestamp" json:"createdAt"`
	PlayedAt  time.Time `bun:"played_at,notnull,nullzero,default:current_timestamp" json:"playedAt"`
	Finalized bool      `bun:"finalized,notnull,default:false" json:"finalized"`
	Note      string    `bun:"note,notnull,default:''" json:"note"`

	Owner *User   `bun:"rel:belongs-to,join:owner_id=id" json:"-"`
	Races []*Race `bun:"rel:has-many,join:id=mogi_id" json:"races,omitempty"`
}

// MogiSummary is the derived read view of a mogi. AvgFinish is rounded to two
// decimals and 0.0 for an empty mogi.
type MogiSummary struct {
	ID          int       `json:"id"`
	CreatedAt   time.Time `json:"createdAt"`
	PlayedAt    time.Time `json:"playedAt"`
	Finalized   bool      `json:"finalized"`
	Note        string    `json:"note"`
	RaceCount   int       `json:"raceCount"`
	TotalPoints int       `json:"totalPoints"`
	AvgFinish   float64   `json:"avgFinish"`
}

// IsComplete reports whether the summary covers a full 12-race mogi.
func (s *MogiSummary) IsComplete() bool {
	return s.RaceCount == 12
}
