package models

import (
	"time"

	"github.com/uptrace/bun"
)

type Order struct {
	bun.BaseModel `bun:"table:orders"`

	ID string `bun:"id,pk" json:"id"`
	// Reference is the short human-facing code on the confirmation page.
	Reference string    `bun:"reference" json:"reference"`
	UserID    string    `bun:"user_id" json:"user_id"`
	OrderDate time.Time `bun:"order_date" json:"order_date"`
	Amount    float64   `bun:"amount" json:"amount"`

	Lines []OrderLine `bun:"rel:has-many,join:id=order_id" json:"lines,omitempty"`
}

// OrderLine joins an order to a ticket tier with the quantity bought.
// PriceAtPurchase is snapshotted when the line is created so later price
// edits on the tier never change what the buyer paid.
type OrderLine struct {
	bun.BaseModel `bun:"table:order_lines"`

	ID              string  `bun:"id,pk" json:"id"`
	OrderID         string  `bun:"order_id" json:"order_id"`
	TicketID        string  `bun:"ticket_id" json:"ticket_id"`
	Quantity        int     `bun:"quantity" json:"quantity"`
	PriceAtPurchase float64 `bun:"price_at_purchase" json:"price_at_purchase"`

	Ticket *Ticket `bun:"rel:belongs-to,join:ticket_id=id" json:"ticket,omitempty"`
}

// TierSelection is one row of a purchase request: how many of a given
// tier the buyer wants. Collected by the caller's UI, validated here.
type TierSelection struct {
	TicketID string `json:"ticket_id"`
	Quantity int    `json:"quantity"`
}

// RefundSummary reports what a tier deletion did to existing orders,
// for user-facing messaging. A tier with sales is "refunded", never
// silently removed.
type RefundSummary struct {
	TicketID       string  `json:"ticket_id"`
	Tier           string  `json:"tier"`
	LinesRefunded  int     `json:"lines_refunded"`
	AmountRefunded float64 `json:"amount_refunded"`
	OrdersDeleted  int     `json:"orders_deleted"`
}

type OrderWithQR struct {
	Order
	QRCode []byte `json:"qr_code,omitempty"`
}
