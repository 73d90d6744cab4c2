package api

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"

	"club95/internal/auth"
	"club95/internal/events"
	"club95/internal/events/db"
	"club95/internal/logger"
	"club95/internal/utils"
)

type Handler struct {
	Events *events.Service
	Logger *logger.Logger
}

func NewHandler(svc *events.Service, log *logger.Logger) *Handler {
	return &Handler{Events: svc, Logger: log}
}

// ListEvents handles GET /api/v1/events with optional status, type and
// genre query filters.
func (h *Handler) ListEvents(w http.ResponseWriter, r *http.Request) {
	filter := db.ListFilter{
		Status:    r.URL.Query().Get("status"),
		TypeName:  r.URL.Query().Get("type"),
		GenreName: r.URL.Query().Get("genre"),
	}

	list, err := h.Events.ListEvents(r.Context(), filter)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListEvents: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list events", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Events retrieved", list))
}

// GetEvent handles GET /api/v1/events/{eventID}.
func (h *Handler) GetEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	event, err := h.Events.GetEvent(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("GetEvent: %v", err))
		utils.WriteError(w, http.StatusNotFound, "Event not found", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event retrieved", event))
}

// CreateEvent handles POST /api/v1/events.
func (h *Handler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	var input events.CreateEventInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	event, err := h.Events.CreateEvent(r.Context(), input, userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("CreateEvent: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Failed to create event", err)
		return
	}

	h.Logger.LogAPI(r.Method, r.URL.Path, fmt.Sprintf("event %s created by user %s", event.ID, userID))
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Event created", event))
}

// MyEvents handles GET /api/v1/events/mine.
func (h *Handler) MyEvents(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	list, err := h.Events.MyEvents(r.Context(), userID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("MyEvents: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list events", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Events retrieved", list))
}

// CancelEvent handles POST /api/v1/events/{eventID}/cancel.
func (h *Handler) CancelEvent(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	userID := auth.UserID(r.Context())

	if err := h.Events.CancelEvent(r.Context(), eventID, userID); err != nil {
		h.Logger.Error("API", fmt.Sprintf("CancelEvent: %v", err))
		utils.WriteError(w, http.StatusForbidden, "Failed to cancel event", err)
		return
	}

	h.Logger.LogStatus(eventID, "", "CANCELLED")
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Event cancelled", nil))
}

type commentRequest struct {
	Content string `json:"content"`
}

// AddComment handles POST /api/v1/events/{eventID}/comments.
func (h *Handler) AddComment(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")
	userID := auth.UserID(r.Context())

	var req commentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	comment, err := h.Events.AddComment(r.Context(), eventID, userID, req.Content)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("AddComment: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Failed to add comment", err)
		return
	}
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Comment added", comment))
}

// ListComments handles GET /api/v1/events/{eventID}/comments.
func (h *Handler) ListComments(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	comments, err := h.Events.CommentsByEvent(r.Context(), eventID)
	if err != nil {
		h.Logger.Error("API", fmt.Sprintf("ListComments: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Failed to list comments", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Comments retrieved", comments))
}
