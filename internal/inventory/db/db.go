package db

import (
	"context"

	"github.com/uptrace/bun"

	"club95/internal/models"
)

// DB is the persistence layer for the order ledger. Methods run against
// the live connection or, inside RunInTx, against the transaction, so the
// whole purchase / refund flow commits or rolls back as one unit.
type DB struct {
	conn bun.IDB
	root *bun.DB
}

func New(b *bun.DB) *DB {
	return &DB{conn: b, root: b}
}

// RunInTx runs fn with a DB bound to a single transaction.
func (d *DB) RunInTx(ctx context.Context, fn func(ctx context.Context, tx *DB) error) error {
	return d.root.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &DB{conn: tx, root: d.root})
	})
}

// ---------------- EVENTS ----------------

// EventWithTickets fetches an event and its tiers in one go; callers need
// the tiers loaded for status derivation.
func (d *DB) EventWithTickets(ctx context.Context, eventID string) (*models.Event, error) {
	var event models.Event
	err := d.conn.NewSelect().
		Model(&event).
		Relation("Tickets").
		Where("event.id = ?", eventID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &event, nil
}

func (d *DB) UpdateEventStatus(ctx context.Context, eventID, eventStatus string) error {
	_, err := d.conn.NewUpdate().
		Model((*models.Event)(nil)).
		Set("status = ?", eventStatus).
		Where("id = ?", eventID).
		Exec(ctx)
	return err
}

// ---------------- TICKETS ----------------

func (d *DB) TicketByID(ctx context.Context, ticketID string) (*models.Ticket, error) {
	var ticket models.Ticket
	err := d.conn.NewSelect().
		Model(&ticket).
		Where("id = ?", ticketID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &ticket, nil
}

func (d *DB) TicketsByEvent(ctx context.Context, eventID string) ([]models.Ticket, error) {
	var tickets []models.Ticket
	err := d.conn.NewSelect().
		Model(&tickets).
		Where("event_id = ?", eventID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return tickets, nil
}

// DecrementAvailability takes qty off a tier only if enough stock is
// left, as one conditional update. Returns false when the guard failed,
// which is how a lost race surfaces.
func (d *DB) DecrementAvailability(ctx context.Context, ticketID string, qty int) (bool, error) {
	res, err := d.conn.NewUpdate().
		Model((*models.Ticket)(nil)).
		Set("availability = availability - ?", qty).
		Where("id = ?", ticketID).
		Where("availability >= ?", qty).
		Exec(ctx)
	if err != nil {
		return false, err
	}
	rows, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return rows > 0, nil
}

func (d *DB) UpdateTicket(ctx context.Context, ticket models.Ticket) error {
	_, err := d.conn.NewUpdate().
		Model(&ticket).
		Column("price", "availability", "perks").
		Where("id = ?", ticket.ID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteTicket(ctx context.Context, ticketID string) error {
	_, err := d.conn.NewDelete().
		Model((*models.Ticket)(nil)).
		Where("id = ?", ticketID).
		Exec(ctx)
	return err
}

// ---------------- ORDERS ----------------

func (d *DB) InsertOrder(ctx context.Context, order *models.Order) error {
	_, err := d.conn.NewInsert().Model(order).Exec(ctx)
	return err
}

func (d *DB) InsertOrderLines(ctx context.Context, lines []models.OrderLine) error {
	_, err := d.conn.NewInsert().Model(&lines).Exec(ctx)
	return err
}

func (d *DB) OrderByID(ctx context.Context, orderID string) (*models.Order, error) {
	var order models.Order
	err := d.conn.NewSelect().
		Model(&order).
		Where("id = ?", orderID).
		Limit(1).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return &order, nil
}

func (d *DB) UpdateOrderAmount(ctx context.Context, orderID string, amount float64) error {
	_, err := d.conn.NewUpdate().
		Model((*models.Order)(nil)).
		Set("amount = ?", amount).
		Where("id = ?", orderID).
		Exec(ctx)
	return err
}

func (d *DB) DeleteOrder(ctx context.Context, orderID string) error {
	_, err := d.conn.NewDelete().
		Model((*models.Order)(nil)).
		Where("id = ?", orderID).
		Exec(ctx)
	return err
}

// OrdersWithLinesByUser returns a user's orders newest first, each with
// its lines and their tier rows.
func (d *DB) OrdersWithLinesByUser(ctx context.Context, userID string) ([]models.Order, error) {
	var orders []models.Order
	err := d.conn.NewSelect().
		Model(&orders).
		Relation("Lines").
		Relation("Lines.Ticket").
		Where("\"order\".user_id = ?", userID).
		Order("order_date DESC").
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	if orders == nil {
		orders = []models.Order{}
	}
	return orders, nil
}

// ---------------- ORDER LINES ----------------

func (d *DB) LinesByTicket(ctx context.Context, ticketID string) ([]models.OrderLine, error) {
	var lines []models.OrderLine
	err := d.conn.NewSelect().
		Model(&lines).
		Where("ticket_id = ?", ticketID).
		Scan(ctx)
	if err != nil {
		return nil, err
	}
	return lines, nil
}

func (d *DB) DeleteOrderLine(ctx context.Context, lineID string) error {
	_, err := d.conn.NewDelete().
		Model((*models.OrderLine)(nil)).
		Where("id = ?", lineID).
		Exec(ctx)
	return err
}

func (d *DB) LineCountByOrder(ctx context.Context, orderID string) (int, error) {
	return d.conn.NewSelect().
		Model((*models.OrderLine)(nil)).
		Where("order_id = ?", orderID).
		Count(ctx)
}
