package api_test

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	_ "github.com/uptrace/bun/driver/sqliteshim"

	"club95/internal/auth"
	"club95/internal/database"
	"club95/internal/inventory"
	"club95/internal/inventory/api"
	inventory_db "club95/internal/inventory/db"
	"club95/internal/logger"
	"club95/internal/models"
	"club95/internal/qr"
)

type testEnv struct {
	router  *chi.Mux
	bunDB   *bun.DB
	issuer  *auth.TokenIssuer
	eventID string
}

func setupEnv(t *testing.T) *testEnv {
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

	event := models.Event{
		ID:     "event1",
		Title:  "Basement Sessions",
		Date:   time.Now().UTC().AddDate(0, 0, 7).Format("2006-01-02"),
		Status: models.StatusOpen,
		UserID: "owner1",
	}
	if _, err := bunDB.NewInsert().Model(&event).Exec(ctx); err != nil {
		t.Fatalf("Failed to insert event: %v", err)
	}
	tickets := []models.Ticket{
		{ID: "vip", EventID: "event1", Tier: "VIP", Price: 60.0, Availability: 10},
		{ID: "ga", EventID: "event1", Tier: "GA", Price: 25.0, Availability: 100},
	}
	if _, err := bunDB.NewInsert().Model(&tickets).Exec(ctx); err != nil {
		t.Fatalf("Failed to insert tickets: %v", err)
	}

	log := logger.NewLogger()
	t.Cleanup(func() { log.Close() })

	svc := inventory.NewService(inventory_db.New(bunDB), nil, nil, log)
	handler := api.NewHandler(svc, qr.NewGenerator("test-secret"), log)

	issuer := auth.NewTokenIssuer("test-secret", time.Hour)

	router := chi.NewRouter()
	router.Group(func(r chi.Router) {
		r.Use(auth.Middleware(issuer))
		r.Post("/api/v1/events/{eventID}/purchase", handler.Purchase)
		r.Get("/api/v1/orders", handler.MyOrders)
		r.Put("/api/v1/tickets/{ticketID}", handler.UpdateTier)
		r.Delete("/api/v1/tickets/{ticketID}", handler.DeleteTier)
	})

	return &testEnv{router: router, bunDB: bunDB, issuer: issuer, eventID: "event1"}
}

func (e *testEnv) request(t *testing.T, method, path string, body interface{}, userID string) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		assert.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if userID != "" {
		token, err := e.issuer.Issue(userID)
		assert.NoError(t, err)
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func purchaseBody(selection ...models.TierSelection) map[string]interface{} {
	return map[string]interface{}{"selection": selection}
}

func TestPurchaseEndpoint(t *testing.T) {
	env := setupEnv(t)
	defer env.bunDB.Close()

	rec := env.request(t, http.MethodPost, "/api/v1/events/event1/purchase",
		purchaseBody(models.TierSelection{TicketID: "ga", Quantity: 2}), "buyer1")
	assert.Equal(t, http.StatusCreated, rec.Code)

	var resp struct {
		Success bool         `json:"success"`
		Data    models.Order `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, "buyer1", resp.Data.UserID)
	assert.InDelta(t, 50.0, resp.Data.Amount, 0.001)
}

func TestPurchaseEndpointRequiresAuth(t *testing.T) {
	env := setupEnv(t)
	defer env.bunDB.Close()

	rec := env.request(t, http.MethodPost, "/api/v1/events/event1/purchase",
		purchaseBody(models.TierSelection{TicketID: "ga", Quantity: 1}), "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPurchaseEndpointErrorCodes(t *testing.T) {
	env := setupEnv(t)
	defer env.bunDB.Close()

	// Unknown tier: unprocessable.
	rec := env.request(t, http.MethodPost, "/api/v1/events/event1/purchase",
		purchaseBody(models.TierSelection{TicketID: "nope", Quantity: 1}), "buyer1")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

	// Negative quantity: bad request.
	rec = env.request(t, http.MethodPost, "/api/v1/events/event1/purchase",
		purchaseBody(models.TierSelection{TicketID: "ga", Quantity: -1}), "buyer1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Nothing selected: bad request.
	rec = env.request(t, http.MethodPost, "/api/v1/events/event1/purchase",
		purchaseBody(), "buyer1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// More than is left: conflict.
	rec = env.request(t, http.MethodPost, "/api/v1/events/event1/purchase",
		purchaseBody(models.TierSelection{TicketID: "vip", Quantity: 11}), "buyer1")
	assert.Equal(t, http.StatusConflict, rec.Code)

	// Cancelled event: conflict.
	_, err := env.bunDB.NewUpdate().Model((*models.Event)(nil)).
		Set("status = ?", models.StatusCancelled).
		Where("id = ?", env.eventID).
		Exec(context.Background())
	assert.NoError(t, err)
	rec = env.request(t, http.MethodPost, "/api/v1/events/event1/purchase",
		purchaseBody(models.TierSelection{TicketID: "ga", Quantity: 1}), "buyer1")
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestMyOrdersEndpoint(t *testing.T) {
	env := setupEnv(t)
	defer env.bunDB.Close()

	rec := env.request(t, http.MethodPost, "/api/v1/events/event1/purchase",
		purchaseBody(models.TierSelection{TicketID: "ga", Quantity: 2}), "buyer1")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.request(t, http.MethodGet, "/api/v1/orders", nil, "buyer1")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data []models.OrderWithQR `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, len(resp.Data))
	assert.NotEmpty(t, resp.Data[0].QRCode)

	// Another user sees nothing.
	rec = env.request(t, http.MethodGet, "/api/v1/orders", nil, "buyer2")
	assert.Equal(t, http.StatusOK, rec.Code)
	resp.Data = nil
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 0, len(resp.Data))
}

func TestUpdateTierEndpoint(t *testing.T) {
	env := setupEnv(t)
	defer env.bunDB.Close()

	body := map[string]interface{}{"price": 30.0, "availability": 200, "perks": "free drink"}
	rec := env.request(t, http.MethodPut, "/api/v1/tickets/ga", body, "owner1")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Data models.Ticket `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 200, resp.Data.Availability)
	assert.InDelta(t, 30.0, resp.Data.Price, 0.001)

	body["availability"] = -1
	rec = env.request(t, http.MethodPut, "/api/v1/tickets/ga", body, "owner1")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTierEndpoint(t *testing.T) {
	env := setupEnv(t)
	defer env.bunDB.Close()

	rec := env.request(t, http.MethodPost, "/api/v1/events/event1/purchase",
		purchaseBody(models.TierSelection{TicketID: "vip", Quantity: 2}), "buyer1")
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = env.request(t, http.MethodDelete, "/api/v1/tickets/vip", nil, "owner1")
	assert.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Message string               `json:"message"`
		Data    models.RefundSummary `json:"data"`
	}
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Data.LinesRefunded)
	assert.InDelta(t, 120.0, resp.Data.AmountRefunded, 0.001)
	assert.Contains(t, resp.Message, "refunded")
	assert.Contains(t, resp.Message, fmt.Sprintf("%.2f", 120.0))
}
