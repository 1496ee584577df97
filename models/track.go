package models

import (
	"github.com/uptrace/bun"

	"mogitrack/canon"
)

// Track is a globally shared catalog entry. Name is always the canonical
// lower-case spelling, never raw user input.
type Track struct {
	bun.BaseModel `bun:"table:tracks,alias:t"`

	ID   int    `bun:"id,pk,autoincrement" json:"id"`
	Name string `bun:"name,notnull,unique" json:"name"`
	Slug string `bun:"slug,notnull,unique" json:"slug"`
}

// DisplayName returns the human-friendly title-cased rendering of the
// canonical name.
func (t *Track) DisplayName() string {
	return canon.DisplayName(t.Name)
}
