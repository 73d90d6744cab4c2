package models

import (
	"time"

	"github.com/uptrace/bun"
)

// Event statuses. CANCELLED is set by the owner only and is terminal;
// the other three are derived from date and remaining inventory.
const (
	StatusOpen      = "OPEN"
	StatusInactive  = "INACTIVE"
	StatusSoldOut   = "SOLD OUT"
	StatusCancelled = "CANCELLED"
)

type Event struct {
	bun.BaseModel `bun:"table:events"`

	ID          string `bun:"id,pk" json:"id"`
	Title       string `bun:"title" json:"title"`
	Description string `bun:"description" json:"description"`
	// Calendar date as YYYY-MM-DD, matching the event form input.
	Date        string    `bun:"date" json:"date"`
	StartTime   string    `bun:"start_time" json:"start_time"`
	EndTime     string    `bun:"end_time" json:"end_time"`
	Status      string    `bun:"status" json:"status"`
	Image       string    `bun:"image" json:"image,omitempty"`
	UserID      string    `bun:"user_id" json:"user_id"`
	VenueID     string    `bun:"venue_id,nullzero" json:"venue_id,omitempty"`
	EventTypeID string    `bun:"event_type_id,nullzero" json:"event_type_id,omitempty"`
	CreatedAt   time.Time `bun:"created_at" json:"created_at"`

	Venue     *Venue     `bun:"rel:belongs-to,join:venue_id=id" json:"venue,omitempty"`
	EventType *EventType `bun:"rel:belongs-to,join:event_type_id=id" json:"event_type,omitempty"`
	Tickets   []Ticket   `bun:"rel:has-many,join:id=event_id" json:"tickets,omitempty"`
	Comments  []Comment  `bun:"rel:has-many,join:id=event_id" json:"comments,omitempty"`
	Genres    []Genre    `bun:"m2m:event_genres,join:Event=Genre" json:"genres,omitempty"`
	Artists   []Artist   `bun:"m2m:event_artists,join:Event=Artist" json:"artists,omitempty"`
}

// RemainingAvailability sums unsold inventory across the event's tiers.
// Negative rows are clamped so a bad write can never mask real stock.
func (e *Event) RemainingAvailability() int {
	remaining := 0
	for _, t := range e.Tickets {
		if t.Availability > 0 {
			remaining += t.Availability
		}
	}
	return remaining
}

type Venue struct {
	bun.BaseModel `bun:"table:venues"`

	ID       string `bun:"id,pk" json:"id"`
	Name     string `bun:"name" json:"name"`
	Location string `bun:"location" json:"location"`
	MapEmbed string `bun:"map_embed" json:"map_embed,omitempty"`
}

type EventType struct {
	bun.BaseModel `bun:"table:event_types"`

	ID       string `bun:"id,pk" json:"id"`
	TypeName string `bun:"type_name,unique" json:"type_name"`
}

type Genre struct {
	bun.BaseModel `bun:"table:genres"`

	ID        string `bun:"id,pk" json:"id"`
	GenreType string `bun:"genre_type,unique" json:"genre_type"`
}

type Artist struct {
	bun.BaseModel `bun:"table:artists"`

	ID         string `bun:"id,pk" json:"id"`
	ArtistName string `bun:"artist_name" json:"artist_name"`
}

type EventGenre struct {
	bun.BaseModel `bun:"table:event_genres"`

	EventID string `bun:"event_id,pk"`
	GenreID string `bun:"genre_id,pk"`
	Event   *Event `bun:"rel:belongs-to,join:event_id=id"`
	Genre   *Genre `bun:"rel:belongs-to,join:genre_id=id"`
}

type EventArtist struct {
	bun.BaseModel `bun:"table:event_artists"`

	EventID  string `bun:"event_id,pk"`
	ArtistID string `bun:"artist_id,pk"`
	// Optional slot in the running order, e.g. "19:30".
	PerformanceTime string  `bun:"performance_time" json:"performance_time,omitempty"`
	Event           *Event  `bun:"rel:belongs-to,join:event_id=id"`
	Artist          *Artist `bun:"rel:belongs-to,join:artist_id=id"`
}
