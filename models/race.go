package models

import "github.com/uptrace/bun"

// Race is one result within a mogi. Index is the race's 1..12 slot in the
// session; (mogi_id, race_index) is unique so two concurrent adds can never
// claim the same slot.
type Race struct {
	bun.BaseModel `bun:"table:races,alias:r"`

	ID       int `bun:"id,pk,autoincrement" json:"id"`
	MogiID   int `bun:"mogi_id,notnull,unique:races_no_dupes" json:"mogiID"`
	TrackID  int `bun:"track_id,notnull" json:"trackID"`
	Index    int `bun:"race_index,notnull,unique:races_no_dupes" json:"index"`
	Position int `bun:"position,notnull" json:"position"`
	Points   int `bun:"points,notnull,default:0" json:"points"`

	Mogi  *Mogi  `bun:"rel:belongs-to,join:mogi_id=id" json:"-"`
	Track *Track `bun:"rel:belongs-to,join:track_id=id" json:"-"`
}
