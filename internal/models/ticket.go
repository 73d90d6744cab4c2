package models

import (
	"github.com/uptrace/bun"
)

// Ticket is a priced tier of admission for one event ("VIP", "2", ...).
// The tier label is free text; early data had numbered tiers, later events
// use names. Availability is unsold inventory and only ever moves down
// through purchases or directly via an owner edit.
type Ticket struct {
	bun.BaseModel `bun:"table:tickets"`

	ID           string  `bun:"id,pk" json:"id"`
	EventID      string  `bun:"event_id" json:"event_id"`
	Tier         string  `bun:"tier" json:"tier"`
	Price        float64 `bun:"price" json:"price"`
	Availability int     `bun:"availability" json:"availability"`
	Perks        string  `bun:"perks" json:"perks,omitempty"`
}
