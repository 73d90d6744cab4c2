package inventory

import (
	"errors"
	"fmt"
)

// Purchase failures are expected, user-facing and recoverable. Handlers
// match them with errors.Is / errors.As and turn them into messages; none
// of them leaves partial writes behind.
var (
	// ErrSalesClosed means the event's status forbids purchase
	// (cancelled, or sold out at request time).
	ErrSalesClosed = errors.New("ticket sales are closed for this event")

	// ErrEmptySelection means nothing was left to buy once zero-quantity
	// rows were dropped.
	ErrEmptySelection = errors.New("no tickets selected")

	// ErrTierConflict means the purchase lock on one of the requested
	// tiers could not be acquired. Transient; the buyer can retry.
	ErrTierConflict = errors.New("another purchase for these tickets is in progress, try again")
)

// QuantityError reports a negative requested quantity.
type QuantityError struct {
	TicketID string
	Quantity int
}

func (e *QuantityError) Error() string {
	return fmt.Sprintf("invalid quantity %d for ticket %s", e.Quantity, e.TicketID)
}

// AvailabilityError reports a request that exceeds a tier's remaining
// stock, including races lost at commit time.
type AvailabilityError struct {
	TicketID  string
	Tier      string
	Requested int
	Remaining int
}

func (e *AvailabilityError) Error() string {
	return fmt.Sprintf("only %d ticket(s) left in tier %q, requested %d", e.Remaining, e.Tier, e.Requested)
}

// InvalidTierError reports a submitted ticket ID that does not belong to
// the event being purchased.
type InvalidTierError struct {
	TicketID string
	EventID  string
}

func (e *InvalidTierError) Error() string {
	return fmt.Sprintf("ticket %s does not belong to event %s", e.TicketID, e.EventID)
}
