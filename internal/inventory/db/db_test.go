package db_test

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"club95/internal/database"
	"club95/internal/inventory/db"
	"club95/internal/models"
)

func setupTestDB(t *testing.T) (*db.DB, *bun.DB) {
	sqldb, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Failed to connect to in-memory database: %v", err)
	}

	bunDB := database.NewBun(sqldb, sqlitedialect.New())

	ctx := context.Background()
	for _, model := range []interface{}{
		(*models.Event)(nil),
		(*models.Ticket)(nil),
		(*models.Order)(nil),
		(*models.OrderLine)(nil),
	} {
		if _, err := bunDB.NewCreateTable().Model(model).Exec(ctx); err != nil {
			t.Fatalf("Failed to create table for %T: %v", model, err)
		}
	}

	return db.New(bunDB), bunDB
}

func TestDecrementAvailability(t *testing.T) {
	ledgerDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	ticket := models.Ticket{ID: "t1", EventID: "e1", Tier: "GA", Price: 10.0, Availability: 5}
	_, err := bunDB.NewInsert().Model(&ticket).Exec(ctx)
	assert.NoError(t, err)

	// Enough stock: the guard passes.
	ok, err := ledgerDB.DecrementAvailability(ctx, "t1", 3)
	assert.NoError(t, err)
	assert.True(t, ok)

	// 2 left, asking for 3: the conditional update touches nothing.
	ok, err = ledgerDB.DecrementAvailability(ctx, "t1", 3)
	assert.NoError(t, err)
	assert.False(t, ok)

	current, err := ledgerDB.TicketByID(ctx, "t1")
	assert.NoError(t, err)
	assert.Equal(t, 2, current.Availability)

	// Draining to exactly zero is allowed.
	ok, err = ledgerDB.DecrementAvailability(ctx, "t1", 2)
	assert.NoError(t, err)
	assert.True(t, ok)

	current, err = ledgerDB.TicketByID(ctx, "t1")
	assert.NoError(t, err)
	assert.Equal(t, 0, current.Availability)
}

func TestRunInTxRollsBack(t *testing.T) {
	ledgerDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	ticket := models.Ticket{ID: "t1", EventID: "e1", Tier: "GA", Price: 10.0, Availability: 5}
	_, err := bunDB.NewInsert().Model(&ticket).Exec(ctx)
	assert.NoError(t, err)

	boom := errors.New("boom")
	err = ledgerDB.RunInTx(ctx, func(ctx context.Context, tx *db.DB) error {
		ok, err := tx.DecrementAvailability(ctx, "t1", 5)
		assert.NoError(t, err)
		assert.True(t, ok)

		if err := tx.InsertOrder(ctx, &models.Order{ID: "o1", UserID: "u1", OrderDate: time.Now()}); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)

	// Both writes were rolled back together.
	current, err := ledgerDB.TicketByID(ctx, "t1")
	assert.NoError(t, err)
	assert.Equal(t, 5, current.Availability)

	_, err = ledgerDB.OrderByID(ctx, "o1")
	assert.Error(t, err)
}

func TestEventWithTickets(t *testing.T) {
	ledgerDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	event := models.Event{ID: "e1", Title: "Night One", Date: "2026-12-12", Status: models.StatusOpen, UserID: "u1"}
	_, err := bunDB.NewInsert().Model(&event).Exec(ctx)
	assert.NoError(t, err)

	tickets := []models.Ticket{
		{ID: "t1", EventID: "e1", Tier: "VIP", Price: 50.0, Availability: 5},
		{ID: "t2", EventID: "e1", Tier: "GA", Price: 20.0, Availability: 50},
	}
	_, err = bunDB.NewInsert().Model(&tickets).Exec(ctx)
	assert.NoError(t, err)

	loaded, err := ledgerDB.EventWithTickets(ctx, "e1")
	assert.NoError(t, err)
	assert.Equal(t, "Night One", loaded.Title)
	assert.Equal(t, 2, len(loaded.Tickets))
	assert.Equal(t, 55, loaded.RemainingAvailability())

	_, err = ledgerDB.EventWithTickets(ctx, "missing")
	assert.Error(t, err)
}

func TestOrdersWithLinesByUser(t *testing.T) {
	ledgerDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	ticket := models.Ticket{ID: "t1", EventID: "e1", Tier: "GA", Price: 10.0, Availability: 50}
	_, err := bunDB.NewInsert().Model(&ticket).Exec(ctx)
	assert.NoError(t, err)

	older := models.Order{ID: uuid.NewString(), UserID: "u1", OrderDate: time.Now().Add(-time.Hour), Amount: 10.0}
	newer := models.Order{ID: uuid.NewString(), UserID: "u1", OrderDate: time.Now(), Amount: 20.0}
	other := models.Order{ID: uuid.NewString(), UserID: "u2", OrderDate: time.Now(), Amount: 30.0}
	for _, o := range []models.Order{older, newer, other} {
		order := o
		assert.NoError(t, ledgerDB.InsertOrder(ctx, &order))
	}

	lines := []models.OrderLine{
		{ID: uuid.NewString(), OrderID: older.ID, TicketID: "t1", Quantity: 1, PriceAtPurchase: 10.0},
		{ID: uuid.NewString(), OrderID: newer.ID, TicketID: "t1", Quantity: 2, PriceAtPurchase: 10.0},
	}
	assert.NoError(t, ledgerDB.InsertOrderLines(ctx, lines))

	orders, err := ledgerDB.OrdersWithLinesByUser(ctx, "u1")
	assert.NoError(t, err)
	assert.Equal(t, 2, len(orders))
	// Newest first.
	assert.Equal(t, newer.ID, orders[0].ID)
	assert.Equal(t, older.ID, orders[1].ID)
	assert.Equal(t, 1, len(orders[0].Lines))
	assert.NotNil(t, orders[0].Lines[0].Ticket)
	assert.Equal(t, "GA", orders[0].Lines[0].Ticket.Tier)
}

func TestOrderLineHousekeeping(t *testing.T) {
	ledgerDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	order := models.Order{ID: "o1", UserID: "u1", OrderDate: time.Now(), Amount: 30.0}
	assert.NoError(t, ledgerDB.InsertOrder(ctx, &order))

	lines := []models.OrderLine{
		{ID: "l1", OrderID: "o1", TicketID: "t1", Quantity: 1, PriceAtPurchase: 10.0},
		{ID: "l2", OrderID: "o1", TicketID: "t2", Quantity: 2, PriceAtPurchase: 10.0},
	}
	assert.NoError(t, ledgerDB.InsertOrderLines(ctx, lines))

	byTicket, err := ledgerDB.LinesByTicket(ctx, "t1")
	assert.NoError(t, err)
	assert.Equal(t, 1, len(byTicket))

	count, err := ledgerDB.LineCountByOrder(ctx, "o1")
	assert.NoError(t, err)
	assert.Equal(t, 2, count)

	assert.NoError(t, ledgerDB.DeleteOrderLine(ctx, "l1"))
	count, err = ledgerDB.LineCountByOrder(ctx, "o1")
	assert.NoError(t, err)
	assert.Equal(t, 1, count)

	assert.NoError(t, ledgerDB.UpdateOrderAmount(ctx, "o1", 20.0))
	refreshed, err := ledgerDB.OrderByID(ctx, "o1")
	assert.NoError(t, err)
	assert.InDelta(t, 20.0, refreshed.Amount, 0.001)

	assert.NoError(t, ledgerDB.DeleteOrder(ctx, "o1"))
	_, err = ledgerDB.OrderByID(ctx, "o1")
	assert.Error(t, err)
}

func TestUpdateEventStatus(t *testing.T) {
	ledgerDB, bunDB := setupTestDB(t)
	defer bunDB.Close()
	ctx := context.Background()

	event := models.Event{ID: "e1", Title: "Night One", Date: "2026-12-12", Status: models.StatusOpen, UserID: "u1"}
	_, err := bunDB.NewInsert().Model(&event).Exec(ctx)
	assert.NoError(t, err)

	assert.NoError(t, ledgerDB.UpdateEventStatus(ctx, "e1", models.StatusSoldOut))

	loaded, err := ledgerDB.EventWithTickets(ctx, "e1")
	assert.NoError(t, err)
	assert.Equal(t, models.StatusSoldOut, loaded.Status)
}
