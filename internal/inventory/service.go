// Package inventory is the ticket inventory and order ledger: it turns a
// buyer's (tier, quantity) selection into a committed order, keeps tier
// availability from ever being oversold, and handles the refund math when
// an owner removes a tier that already has sales.
package inventory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"club95/internal/inventory/db"
	"club95/internal/logger"
	"club95/internal/models"
	"club95/internal/monitoring"
	"club95/internal/status"
	"club95/internal/utils"
)

// TierLocker takes a short-lived lock on a set of tiers around the
// purchase transaction. Best effort: the conditional decrement inside the
// transaction is the authoritative oversell guard, the lock just sheds
// contention before it reaches the database row.
type TierLocker interface {
	LockTiers(ctx context.Context, ticketIDs []string, token string) (bool, error)
	UnlockTiers(ctx context.Context, ticketIDs []string, token string) error
}

// Publisher streams ledger events to downstream consumers.
type Publisher interface {
	PublishOrderCreated(order models.Order) error
	PublishOrderRefunded(summary models.RefundSummary) error
	PublishEventStatusChanged(eventID, status string) error
}

type Service struct {
	DB     *db.DB
	Locks  TierLocker
	Kafka  Publisher
	Logger *logger.Logger
}

func NewService(database *db.DB, locks TierLocker, kafka Publisher, log *logger.Logger) *Service {
	return &Service{DB: database, Locks: locks, Kafka: kafka, Logger: log}
}

func (s *Service) warn(category, message string) {
	if s.Logger != nil {
		s.Logger.Warn(category, message)
	}
}

// Purchase validates the selection against the event's live inventory and
// commits the order, its lines, the availability decrements and the
// resulting status change as one transaction. Validation failures are the
// typed errors in errors.go; nothing is written unless the whole purchase
// goes through.
func (s *Service) Purchase(ctx context.Context, eventID string, selection []models.TierSelection, userID string) (*models.Order, error) {
	event, err := s.DB.EventWithTickets(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("event %s not found: %w", eventID, err)
	}

	// Status may be stale (date passed, inventory freed elsewhere);
	// settle it before deciding whether sales are open.
	now := time.Now()
	if _, err := status.Sync(ctx, s.DB, event, now); err != nil {
		return nil, fmt.Errorf("sync status for event %s: %w", eventID, err)
	}

	if event.Status == models.StatusCancelled || event.Status == models.StatusSoldOut {
		monitoring.RecordPurchaseFailure("sales_closed")
		return nil, ErrSalesClosed
	}

	tiers := make(map[string]models.Ticket, len(event.Tickets))
	for _, t := range event.Tickets {
		tiers[t.ID] = t
	}

	// Zero-quantity rows are how a buyer skips a tier, so they are
	// dropped rather than rejected.
	picked := make([]models.TierSelection, 0, len(selection))
	for _, sel := range selection {
		if _, ok := tiers[sel.TicketID]; !ok {
			monitoring.RecordPurchaseFailure("invalid_tier")
			return nil, &InvalidTierError{TicketID: sel.TicketID, EventID: eventID}
		}
		if sel.Quantity < 0 {
			monitoring.RecordPurchaseFailure("invalid_quantity")
			return nil, &QuantityError{TicketID: sel.TicketID, Quantity: sel.Quantity}
		}
		if sel.Quantity == 0 {
			continue
		}
		picked = append(picked, sel)
	}
	if len(picked) == 0 {
		monitoring.RecordPurchaseFailure("empty_selection")
		return nil, ErrEmptySelection
	}

	for _, sel := range picked {
		tier := tiers[sel.TicketID]
		if sel.Quantity > tier.Availability {
			monitoring.RecordPurchaseFailure("insufficient_availability")
			return nil, &AvailabilityError{
				TicketID:  tier.ID,
				Tier:      tier.Tier,
				Requested: sel.Quantity,
				Remaining: tier.Availability,
			}
		}
	}

	orderID := uuid.NewString()

	if s.Locks != nil {
		ticketIDs := make([]string, len(picked))
		for i, sel := range picked {
			ticketIDs[i] = sel.TicketID
		}
		ok, err := s.Locks.LockTiers(ctx, ticketIDs, orderID)
		if err != nil {
			return nil, fmt.Errorf("tier lock: %w", err)
		}
		if !ok {
			monitoring.RecordPurchaseFailure("conflict")
			return nil, ErrTierConflict
		}
		defer func() {
			_ = s.Locks.UnlockTiers(ctx, ticketIDs, orderID)
		}()
	}

	total := 0.0
	ticketCount := 0
	lines := make([]models.OrderLine, 0, len(picked))
	for _, sel := range picked {
		tier := tiers[sel.TicketID]
		lines = append(lines, models.OrderLine{
			ID:              uuid.NewString(),
			OrderID:         orderID,
			TicketID:        tier.ID,
			Quantity:        sel.Quantity,
			PriceAtPurchase: tier.Price,
		})
		total += float64(sel.Quantity) * tier.Price
		ticketCount += sel.Quantity
	}

	order := &models.Order{
		ID:        orderID,
		Reference: utils.GenerateOrderReference(),
		UserID:    userID,
		OrderDate: now,
		Amount:    total,
	}

	statusChanged := false
	err = s.DB.RunInTx(ctx, func(ctx context.Context, tx *db.DB) error {
		for _, sel := range picked {
			ok, err := tx.DecrementAvailability(ctx, sel.TicketID, sel.Quantity)
			if err != nil {
				return fmt.Errorf("decrement ticket %s: %w", sel.TicketID, err)
			}
			if !ok {
				// Lost a race since the precheck; report what is
				// actually left now.
				remaining := 0
				if current, err := tx.TicketByID(ctx, sel.TicketID); err == nil {
					remaining = current.Availability
				}
				return &AvailabilityError{
					TicketID:  sel.TicketID,
					Tier:      tiers[sel.TicketID].Tier,
					Requested: sel.Quantity,
					Remaining: remaining,
				}
			}
		}

		if err := tx.InsertOrder(ctx, order); err != nil {
			return fmt.Errorf("insert order: %w", err)
		}
		if err := tx.InsertOrderLines(ctx, lines); err != nil {
			return fmt.Errorf("insert order lines: %w", err)
		}

		// Inventory changed, settle the status inside the same
		// transaction so SOLD OUT lands with the purchase.
		fresh, err := tx.TicketsByEvent(ctx, eventID)
		if err != nil {
			return fmt.Errorf("reload tickets: %w", err)
		}
		event.Tickets = fresh
		changed, err := status.Sync(ctx, tx, event, now)
		if err != nil {
			return fmt.Errorf("sync status: %w", err)
		}
		if changed {
			statusChanged = true
			monitoring.RecordStatusTransition(event.Status)
		}
		return nil
	})
	if err != nil {
		var availErr *AvailabilityError
		if errors.As(err, &availErr) {
			monitoring.RecordPurchaseFailure("insufficient_availability")
		}
		return nil, err
	}

	order.Lines = lines
	monitoring.RecordPurchase(ticketCount)

	if s.Kafka != nil {
		if err := s.Kafka.PublishOrderCreated(*order); err != nil {
			// Delivery is at-least-once via consumers' replay; a publish
			// failure must not undo a committed order.
			s.warn("KAFKA", fmt.Sprintf("publish order created %s: %v", order.ID, err))
		}
		if statusChanged {
			if err := s.Kafka.PublishEventStatusChanged(event.ID, event.Status); err != nil {
				s.warn("KAFKA", fmt.Sprintf("publish status change for event %s: %v", event.ID, err))
			}
		}
	}

	return order, nil
}

// DeleteTier removes a ticket tier and refunds every order line that
// references it: each affected order's amount drops by the line's
// quantity times its locked-in price (floored at zero), and orders left
// with no lines are deleted outright.
func (s *Service) DeleteTier(ctx context.Context, ticketID string) (*models.RefundSummary, error) {
	summary := &models.RefundSummary{TicketID: ticketID}

	var eventID, newStatus string
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx *db.DB) error {
		ticket, err := tx.TicketByID(ctx, ticketID)
		if err != nil {
			return fmt.Errorf("ticket %s not found: %w", ticketID, err)
		}
		summary.Tier = ticket.Tier

		lines, err := tx.LinesByTicket(ctx, ticketID)
		if err != nil {
			return fmt.Errorf("load order lines: %w", err)
		}

		for _, line := range lines {
			refund := float64(line.Quantity) * line.PriceAtPurchase

			order, err := tx.OrderByID(ctx, line.OrderID)
			if err != nil {
				return fmt.Errorf("order %s not found: %w", line.OrderID, err)
			}
			amount := order.Amount - refund
			if amount < 0 {
				amount = 0
			}
			if err := tx.UpdateOrderAmount(ctx, order.ID, amount); err != nil {
				return fmt.Errorf("update order %s amount: %w", order.ID, err)
			}
			if err := tx.DeleteOrderLine(ctx, line.ID); err != nil {
				return fmt.Errorf("delete order line %s: %w", line.ID, err)
			}

			remaining, err := tx.LineCountByOrder(ctx, order.ID)
			if err != nil {
				return fmt.Errorf("count lines for order %s: %w", order.ID, err)
			}
			if remaining == 0 {
				if err := tx.DeleteOrder(ctx, order.ID); err != nil {
					return fmt.Errorf("delete empty order %s: %w", order.ID, err)
				}
				summary.OrdersDeleted++
			}

			summary.LinesRefunded++
			summary.AmountRefunded += refund
		}

		if err := tx.DeleteTicket(ctx, ticketID); err != nil {
			return fmt.Errorf("delete ticket %s: %w", ticketID, err)
		}

		// The tier is gone, so the event's remaining inventory changed.
		event, err := tx.EventWithTickets(ctx, ticket.EventID)
		if err != nil {
			return fmt.Errorf("load event %s: %w", ticket.EventID, err)
		}
		changed, err := status.Sync(ctx, tx, event, time.Now())
		if err != nil {
			return fmt.Errorf("sync status: %w", err)
		}
		if changed {
			eventID, newStatus = event.ID, event.Status
			monitoring.RecordStatusTransition(event.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	monitoring.RecordRefunds(summary.LinesRefunded)

	if s.Kafka != nil {
		if summary.LinesRefunded > 0 {
			if err := s.Kafka.PublishOrderRefunded(*summary); err != nil {
				s.warn("KAFKA", fmt.Sprintf("publish refund for tier %s: %v", ticketID, err))
			}
		}
		if newStatus != "" {
			if err := s.Kafka.PublishEventStatusChanged(eventID, newStatus); err != nil {
				s.warn("KAFKA", fmt.Sprintf("publish status change for event %s: %v", eventID, err))
			}
		}
	}

	return summary, nil
}

// UpdateTier is the owner edit path: price, availability and perks are
// set directly. Freed inventory can flip a SOLD OUT event back to OPEN.
func (s *Service) UpdateTier(ctx context.Context, ticketID string, price float64, availability int, perks string) (*models.Ticket, error) {
	if availability < 0 {
		return nil, &QuantityError{TicketID: ticketID, Quantity: availability}
	}
	if price < 0 {
		return nil, fmt.Errorf("invalid price %.2f for ticket %s", price, ticketID)
	}

	var updated *models.Ticket
	var eventID, newStatus string
	err := s.DB.RunInTx(ctx, func(ctx context.Context, tx *db.DB) error {
		ticket, err := tx.TicketByID(ctx, ticketID)
		if err != nil {
			return fmt.Errorf("ticket %s not found: %w", ticketID, err)
		}
		ticket.Price = price
		ticket.Availability = availability
		ticket.Perks = perks
		if err := tx.UpdateTicket(ctx, *ticket); err != nil {
			return fmt.Errorf("update ticket %s: %w", ticketID, err)
		}
		updated = ticket

		event, err := tx.EventWithTickets(ctx, ticket.EventID)
		if err != nil {
			return fmt.Errorf("load event %s: %w", ticket.EventID, err)
		}
		changed, err := status.Sync(ctx, tx, event, time.Now())
		if err != nil {
			return fmt.Errorf("sync status: %w", err)
		}
		if changed {
			eventID, newStatus = event.ID, event.Status
			monitoring.RecordStatusTransition(event.Status)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if s.Kafka != nil && newStatus != "" {
		if err := s.Kafka.PublishEventStatusChanged(eventID, newStatus); err != nil {
			s.warn("KAFKA", fmt.Sprintf("publish status change for event %s: %v", eventID, err))
		}
	}

	return updated, nil
}

// OrdersByUser returns the "my tickets" view: the user's orders newest
// first with lines and tier details.
func (s *Service) OrdersByUser(ctx context.Context, userID string) ([]models.Order, error) {
	orders, err := s.DB.OrdersWithLinesByUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("fetch orders for user %s: %w", userID, err)
	}
	return orders, nil
}
