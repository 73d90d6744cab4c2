// Package status keeps event.status consistent with the event's date and
// remaining ticket inventory. It runs lazily on read paths and after any
// inventory mutation; it never touches a CANCELLED event.
package status

import (
	"context"
	"time"

	"club95/internal/models"
	"club95/internal/utils"
)

// Derive returns the status the event should have right now and whether
// that differs from its current status. Rules are evaluated top to bottom,
// first match wins:
//
//  1. CANCELLED stays CANCELLED.
//  2. A parseable date strictly before today means INACTIVE, whatever the
//     inventory says.
//  3. No remaining inventory means SOLD OUT; a SOLD OUT event whose
//     inventory came back (owner edit) reverts to OPEN.
//
// Derive is pure and idempotent, so callers can run it on every read.
func Derive(event *models.Event, now time.Time) (string, bool) {
	if event.Status == models.StatusCancelled {
		return models.StatusCancelled, false
	}

	if date, err := utils.ParseEventDate(event.Date); err == nil {
		y, m, d := now.UTC().Date()
		startOfToday := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
		if date.Before(startOfToday) {
			return models.StatusInactive, event.Status != models.StatusInactive
		}
	}

	remaining := event.RemainingAvailability()
	if remaining <= 0 {
		return models.StatusSoldOut, event.Status != models.StatusSoldOut
	}
	if event.Status == models.StatusSoldOut {
		return models.StatusOpen, true
	}

	return event.Status, false
}

// StatusStore persists a derived status change.
type StatusStore interface {
	UpdateEventStatus(ctx context.Context, eventID, status string) error
}

// Sync applies Derive to the event and persists the result only when it
// actually changed, to keep redundant writes off the read paths. The
// event's Tickets relation must be loaded. Returns whether a write
// happened.
func Sync(ctx context.Context, store StatusStore, event *models.Event, now time.Time) (bool, error) {
	next, changed := Derive(event, now)
	if !changed {
		return false, nil
	}
	if err := store.UpdateEventStatus(ctx, event.ID, next); err != nil {
		return false, err
	}
	event.Status = next
	return true, nil
}
