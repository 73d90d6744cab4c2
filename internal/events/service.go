// Package events covers the event side of the application: creating an
// event with its ticket tiers, browsing and filtering, owner actions and
// comments. Every read path settles the event's status first, so stale
// OPEN/SOLD OUT states fix themselves on view.
package events

import (
	"context"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"club95/internal/events/db"
	"club95/internal/models"
	"club95/internal/status"
	"club95/internal/utils"
)

type Service struct {
	DB *db.DB
}

func NewService(database *db.DB) *Service {
	return &Service{DB: database}
}

type TierInput struct {
	Tier         string  `json:"tier"`
	Price        float64 `json:"price"`
	Availability int     `json:"availability"`
	Perks        string  `json:"perks"`
}

type CreateEventInput struct {
	Title         string      `json:"title"`
	Description   string      `json:"description"`
	Date          string      `json:"date"`
	StartTime     string      `json:"start_time"`
	EndTime       string      `json:"end_time"`
	Image         string      `json:"image"`
	VenueName     string      `json:"venue_name"`
	VenueLocation string      `json:"venue_location"`
	EventType     string      `json:"event_type"`
	Genres        []string    `json:"genres"`
	Artists       []string    `json:"artists"`
	Tiers         []TierInput `json:"tiers"`
}

// CreateEvent persists a new event with its tiers, venue, type, genres
// and artists in one transaction. Tiers cannot outlive their event and
// are only ever created here alongside it.
func (s *Service) CreateEvent(ctx context.Context, input CreateEventInput, userID string) (*models.Event, error) {
	if strings.TrimSpace(input.Title) == "" {
		return nil, fmt.Errorf("event title is required")
	}
	date, err := utils.ParseEventDate(input.Date)
	if err != nil {
		return nil, err
	}
	for _, tier := range input.Tiers {
		if strings.TrimSpace(tier.Tier) == "" {
			return nil, fmt.Errorf("ticket tier label is required")
		}
		if tier.Price < 0 {
			return nil, fmt.Errorf("ticket tier %q has negative price", tier.Tier)
		}
		if tier.Availability < 0 {
			return nil, fmt.Errorf("ticket tier %q has negative availability", tier.Tier)
		}
	}

	event := &models.Event{
		ID:          uuid.NewString(),
		Title:       strings.TrimSpace(input.Title),
		Description: input.Description,
		Date:        utils.FormatEventDate(date),
		StartTime:   input.StartTime,
		EndTime:     input.EndTime,
		Status:      models.StatusOpen,
		Image:       input.Image,
		UserID:      userID,
		CreatedAt:   time.Now(),
	}

	err = s.DB.RunInTx(ctx, func(ctx context.Context, tx *db.DB) error {
		venue, err := tx.GetOrCreateVenue(ctx, input.VenueName, input.VenueLocation, buildMapEmbed(input.VenueLocation))
		if err != nil {
			return fmt.Errorf("resolve venue: %w", err)
		}
		if venue != nil {
			event.VenueID = venue.ID
			event.Venue = venue
		}

		eventType, err := tx.GetOrCreateEventType(ctx, input.EventType)
		if err != nil {
			return fmt.Errorf("resolve event type: %w", err)
		}
		if eventType != nil {
			event.EventTypeID = eventType.ID
			event.EventType = eventType
		}

		if err := tx.InsertEvent(ctx, event); err != nil {
			return fmt.Errorf("insert event: %w", err)
		}

		tickets := make([]models.Ticket, 0, len(input.Tiers))
		for _, tier := range input.Tiers {
			tickets = append(tickets, models.Ticket{
				ID:           uuid.NewString(),
				EventID:      event.ID,
				Tier:         strings.TrimSpace(tier.Tier),
				Price:        tier.Price,
				Availability: tier.Availability,
				Perks:        tier.Perks,
			})
		}
		if err := tx.InsertTickets(ctx, tickets); err != nil {
			return fmt.Errorf("insert tickets: %w", err)
		}
		event.Tickets = tickets

		for _, name := range normaliseUnique(input.Genres) {
			genre, err := tx.GetOrCreateGenre(ctx, name)
			if err != nil {
				return fmt.Errorf("resolve genre %q: %w", name, err)
			}
			if err := tx.LinkGenre(ctx, event.ID, genre.ID); err != nil {
				return fmt.Errorf("link genre %q: %w", name, err)
			}
			event.Genres = append(event.Genres, *genre)
		}
		for _, name := range normaliseUnique(input.Artists) {
			artist, err := tx.GetOrCreateArtist(ctx, name)
			if err != nil {
				return fmt.Errorf("resolve artist %q: %w", name, err)
			}
			if err := tx.LinkArtist(ctx, event.ID, artist.ID, ""); err != nil {
				return fmt.Errorf("link artist %q: %w", name, err)
			}
			event.Artists = append(event.Artists, *artist)
		}

		// An event created with no sellable inventory shows SOLD OUT
		// straight away.
		_, err = status.Sync(ctx, tx, event, time.Now())
		return err
	})
	if err != nil {
		return nil, err
	}

	return event, nil
}

// GetEvent is the detail view: full relations, status settled.
func (s *Service) GetEvent(ctx context.Context, eventID string) (*models.Event, error) {
	event, err := s.DB.EventByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("event %s not found: %w", eventID, err)
	}
	if _, err := status.Sync(ctx, s.DB, event, time.Now()); err != nil {
		return nil, fmt.Errorf("sync status for event %s: %w", eventID, err)
	}
	return event, nil
}

// ListEvents is the browse page with its dropdown filters.
func (s *Service) ListEvents(ctx context.Context, filter db.ListFilter) ([]models.Event, error) {
	events, err := s.DB.ListEvents(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("list events: %w", err)
	}
	for i := range events {
		if _, err := status.Sync(ctx, s.DB, &events[i], time.Now()); err != nil {
			return nil, fmt.Errorf("sync status for event %s: %w", events[i].ID, err)
		}
	}
	return events, nil
}

func (s *Service) MyEvents(ctx context.Context, userID string) ([]models.Event, error) {
	events, err := s.DB.EventsByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch events for user %s: %w", userID, err)
	}
	for i := range events {
		if _, err := status.Sync(ctx, s.DB, &events[i], time.Now()); err != nil {
			return nil, fmt.Errorf("sync status for event %s: %w", events[i].ID, err)
		}
	}
	return events, nil
}

// CancelEvent is the only way an event becomes CANCELLED, and only its
// owner can do it. The synchronizer never takes it back out.
func (s *Service) CancelEvent(ctx context.Context, eventID, userID string) error {
	event, err := s.DB.EventByID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("event %s not found: %w", eventID, err)
	}
	if event.UserID != userID {
		return fmt.Errorf("user %s does not own event %s", userID, eventID)
	}
	if event.Status == models.StatusCancelled {
		return nil
	}
	return s.DB.UpdateEventStatus(ctx, eventID, models.StatusCancelled)
}

func (s *Service) AddComment(ctx context.Context, eventID, userID, content string) (*models.Comment, error) {
	if strings.TrimSpace(content) == "" {
		return nil, fmt.Errorf("comment content is required")
	}
	if _, err := s.DB.EventByID(ctx, eventID); err != nil {
		return nil, fmt.Errorf("event %s not found: %w", eventID, err)
	}

	comment := &models.Comment{
		ID:          uuid.NewString(),
		EventID:     eventID,
		UserID:      userID,
		Content:     strings.TrimSpace(content),
		CommentedAt: time.Now(),
	}
	if err := s.DB.InsertComment(ctx, comment); err != nil {
		return nil, fmt.Errorf("insert comment: %w", err)
	}
	return comment, nil
}

func (s *Service) CommentsByEvent(ctx context.Context, eventID string) ([]models.Comment, error) {
	comments, err := s.DB.CommentsByEvent(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("fetch comments for event %s: %w", eventID, err)
	}
	return comments, nil
}

// buildMapEmbed turns a street address into an embeddable map URL for
// the venue card.
func buildMapEmbed(address string) string {
	cleaned := strings.TrimSpace(address)
	if cleaned == "" {
		return ""
	}
	return fmt.Sprintf("https://www.google.com/maps?q=%s&output=embed", url.QueryEscape(cleaned))
}

// normaliseUnique strips empties and de-duplicates names preserving
// order, so "Jazz, jazz, " collapses to one genre.
func normaliseUnique(values []string) []string {
	seen := make(map[string]bool)
	results := []string{}
	for _, value := range values {
		name := strings.TrimSpace(value)
		if name == "" {
			continue
		}
		key := strings.ToLower(name)
		if seen[key] {
			continue
		}
		seen[key] = true
		results = append(results, name)
	}
	return results
}
