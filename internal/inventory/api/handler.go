package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"club95/internal/auth"
	"club95/internal/inventory"
	"club95/internal/logger"
	"club95/internal/models"
	"club95/internal/qr"
	"club95/internal/utils"
)

type Handler struct {
	Inventory *inventory.Service
	QR        *qr.Generator
	Logger    *logger.Logger
}

func NewHandler(inv *inventory.Service, qrGen *qr.Generator, log *logger.Logger) *Handler {
	return &Handler{Inventory: inv, QR: qrGen, Logger: log}
}

type purchaseRequest struct {
	Selection []models.TierSelection `json:"selection"`
}

// Purchase handles POST /api/v1/events/{eventID}/purchase.
func (h *Handler) Purchase(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	userID := auth.UserID(r.Context())
	h.Logger.LogAPI(r.Method, r.URL.Path, fmt.Sprintf("purchase request for event %s by user %s", eventID, userID))

	var req purchaseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	order, err := h.Inventory.Purchase(r.Context(), eventID, req.Selection, userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("Purchase: %v", err))
		utils.WriteError(w, purchaseStatusCode(err), "Purchase failed", err)
		return
	}

	h.Logger.LogOrder("CREATED", order.ID, fmt.Sprintf("%d line(s), total %.2f", len(order.Lines), order.Amount))
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Order placed", order))
}

// purchaseStatusCode maps the ledger's typed failures onto HTTP codes;
// anything unrecognized is a persistence-level failure.
func purchaseStatusCode(err error) int {
	var quantityErr *inventory.QuantityError
	var tierErr *inventory.InvalidTierError
	var availErr *inventory.AvailabilityError
	switch {
	case errors.Is(err, inventory.ErrSalesClosed),
		errors.Is(err, inventory.ErrTierConflict),
		errors.As(err, &availErr):
		return http.StatusConflict
	case errors.Is(err, inventory.ErrEmptySelection),
		errors.As(err, &quantityErr):
		return http.StatusBadRequest
	case errors.As(err, &tierErr):
		return http.StatusUnprocessableEntity
	default:
		return http.StatusInternalServerError
	}
}

// MyOrders handles GET /api/v1/orders, the "my tickets" page.
func (h *Handler) MyOrders(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	orders, err := h.Inventory.OrdersByUser(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("MyOrders: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to retrieve orders", err)
		return
	}

	withQR := make([]models.OrderWithQR, 0, len(orders))
	for _, order := range orders {
		entry := models.OrderWithQR{Order: order}
		if h.QR != nil {
			if code, err := h.QR.GenerateOrderQR(order); err == nil {
				entry.QRCode = code
			} else {
				h.Logger.Warn("API", fmt.Sprintf("MyOrders: QR generation failed for order %s: %v", order.ID, err))
			}
		}
		withQR = append(withQR, entry)
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Orders retrieved", withQR))
}

type updateTierRequest struct {
	Price        float64 `json:"price"`
	Availability int     `json:"availability"`
	Perks        string  `json:"perks"`
}

// UpdateTier handles PUT /api/v1/tickets/{ticketID}.
func (h *Handler) UpdateTier(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")

	var req updateTierRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	ticket, err := h.Inventory.UpdateTier(r.Context(), ticketID, req.Price, req.Availability, req.Perks)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("UpdateTier: %v", err))
		var quantityErr *inventory.QuantityError
		if errors.As(err, &quantityErr) {
			utils.WriteError(w, http.StatusBadRequest, "Invalid tier update", err)
			return
		}
		utils.WriteError(w, http.StatusInternalServerError, "Failed to update tier", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Tier updated", ticket))
}

// DeleteTier handles DELETE /api/v1/tickets/{ticketID} and reports the
// refunds it caused.
func (h *Handler) DeleteTier(w http.ResponseWriter, r *http.Request) {
	ticketID := chi.URLParam(r, "ticketID")
	h.Logger.LogAPI(r.Method, r.URL.Path, "delete tier "+ticketID)

	summary, err := h.Inventory.DeleteTier(r.Context(), ticketID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("DeleteTier: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to delete tier", err)
		return
	}

	message := "Tier removed"
	if summary.LinesRefunded > 0 {
		message = fmt.Sprintf("Tier %q removed, %d order line(s) refunded for %.2f",
			summary.Tier, summary.LinesRefunded, summary.AmountRefunded)
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse(message, summary))
}
