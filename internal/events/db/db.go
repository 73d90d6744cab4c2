package db

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	"club95/internal/models"
)

// DB is the persistence layer for events, their lookup tables (venues,
// types, genres, artists) and comments.
type DB struct {
	conn bun.IDB
	root *bun.DB
}

func New(b *bun.DB) *DB {
	return &DB{conn: b, root: b}
}

func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx *DB) error) error {
	return d.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &DB{conn: tx, root: d.root})
	})
}

// ---------------- EVENTS ----------------

func (d *DB) InsertEvent(ctx context.Context, event *models.Event) error {
	_, err := d.conn.NewInsert().Model(event).Exec(ctx)
	return err
}

// EventByID loads an event with everything the detail page needs.
func (d *DB) EventByID(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	err := d.conn.NewSelect().
		Model(&event).
		Relation("Tickets").
		Relation("Venue").
		Relation("EventType").
		Relation("Genres").
		Relation("Artists").
		Where("event.id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

// ListFilter narrows the browse page. Empty fields match everything.
type ListFilter struct {
	Status    string
	TypeName  string
	GenreName string
}

func (d *DB) ListEvents(ctx context.Context, filter ListFilter) ([]models.Event, error) {
	var events []models.Event
	q := d.conn.NewSelect().
		Model(&events).
		Relation("Tickets").
		Relation("Venue").
		Relation("EventType").
		Order("date ASC")

	if filter.Status != "" {
		q = q.Where("event.status = ?", filter.Status)
	}
	if filter.TypeName != "" {
		q = q.Join("JOIN event_types AS et ON et.id = event.event_type_id").
			Where("et.type_name = ?", filter.TypeName)
	}
	if filter.GenreName != "" {
		q = q.Join("JOIN event_genres AS eg ON eg.event_id = event.id").
			Join("JOIN genres AS g ON g.id = eg.genre_id").
			Where("g.genre_type = ?", filter.GenreName)
	}

	if err := q.Scan(ctx); err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

func (d *DB) EventsByUser(ctx context.Context, userID string) ([]models.Event, error) {
	var events []models.Event
	err := d.conn.NewSelect().
		Model(&events).
		Relation("Tickets").
		Where("event.user_id = ?", userID).
		Order("date ASC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if events == nil {
		events = []models.Event{}
	}
	return events, nil
}

func (d *DB) UpdateEventStatus(ctx context.Context, eventID, eventStatus string) error {
	_, err := d.conn.NewUpdate().
		Model((*models.Event)(nil)).
		Set("status = ?", eventStatus).
		Where("id = ?", eventID).
		Exec(ctx)
	return err
}

// ---------------- TICKET TIERS ----------------

func (d *DB) InsertTickets(ctx context.Context, tickets []models.Ticket) error {
	if len(tickets) == 0 {
		return nil
	}
	_, err := d.conn.NewInsert().Model(&tickets).Exec(ctx)
	return err
}

// ---------------- LOOKUP TABLES ----------------

// GetOrCreateVenue resolves a venue by its location (case-insensitive),
// creating it on first sight. Mirrors how venues accumulate as owners
// type in new addresses.
func (d *DB) GetOrCreateVenue(ctx context.Context, name, location, mapEmbed string) (*models.Venue, error) {
	lookup := strings.TrimSpace(location)
	if lookup == "" {
		lookup = strings.TrimSpace(name)
	}
	if lookup == "" {
		return nil, nil
	}

	var venue models.Venue
	err := d.conn.NewSelect().
		Model(&venue).
		Where("LOWER(location) = LOWER(?)", lookup).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return &venue, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	venue = models.Venue{
		ID:       uuid.NewString(),
		Name:     strings.TrimSpace(name),
		Location: lookup,
		MapEmbed: mapEmbed,
	}
	if _, err := d.conn.NewInsert().Model(&venue).Exec(ctx); err != nil {
		return nil, err
	}
	return &venue, nil
}

func (d *DB) GetOrCreateEventType(ctx context.Context, typeName string) (*models.EventType, error) {
	cleaned := strings.TrimSpace(typeName)
	if cleaned == "" {
		return nil, nil
	}

	var eventType models.EventType
	err := d.conn.NewSelect().
		Model(&eventType).
		Where("type_name = ?", cleaned).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return &eventType, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	eventType = models.EventType{ID: uuid.NewString(), TypeName: cleaned}
	if _, err := d.conn.NewInsert().Model(&eventType).Exec(ctx); err != nil {
		return nil, err
	}
	return &eventType, nil
}

func (d *DB) GetOrCreateGenre(ctx context.Context, genreType string) (*models.Genre, error) {
	var genre models.Genre
	err := d.conn.NewSelect().
		Model(&genre).
		Where("genre_type = ?", genreType).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return &genre, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	genre = models.Genre{ID: uuid.NewString(), GenreType: genreType}
	if _, err := d.conn.NewInsert().Model(&genre).Exec(ctx); err != nil {
		return nil, err
	}
	return &genre, nil
}

func (d *DB) GetOrCreateArtist(ctx context.Context, artistName string) (*models.Artist, error) {
	var artist models.Artist
	err := d.conn.NewSelect().
		Model(&artist).
		Where("artist_name = ?", artistName).
		Limit(1).
		Scan(ctx)
	if err == nil {
		return &artist, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	artist = models.Artist{ID: uuid.NewString(), ArtistName: artistName}
	if _, err := d.conn.NewInsert().Model(&artist).Exec(ctx); err != nil {
		return nil, err
	}
	return &artist, nil
}

func (d *DB) LinkGenre(ctx context.Context, eventID, genreID string) error {
	link := models.EventGenre{EventID: eventID, GenreID: genreID}
	_, err := d.conn.NewInsert().Model(&link).Exec(ctx)
	return err
}

func (d *DB) LinkArtist(ctx context.Context, eventID, artistID, performanceTime string) error {
	link := models.EventArtist{EventID: eventID, ArtistID: artistID, PerformanceTime: performanceTime}
	_, err := d.conn.NewInsert().Model(&link).Exec(ctx)
	return err
}

// ---------------- COMMENTS ----------------

func (d *DB) InsertComment(ctx context.Context, comment *models.Comment) error {
	_, err := d.conn.NewInsert().Model(comment).Exec(ctx)
	return err
}

func (d *DB) CommentsByEvent(ctx context.Context, eventID string) ([]models.Comment, error) {
	var comments []models.Comment
	err := d.conn.NewSelect().
		Model(&comments).
		Where("event_id = ?", eventID).
		Order("commented_at DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if comments == nil {
		comments = []models.Comment{}
	}
	return comments, nil
}
