package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"club95/internal/auth"
	"club95/internal/logger"
	"club95/internal/utils"
)

type Handler struct {
	Auth   *auth.Service
	Logger *logger.Logger
}

func NewHandler(svc *auth.Service, log *logger.Logger) *Handler {
	return &Handler{Auth: svc, Logger: log}
}

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var input auth.RegisterInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Auth.Register(r.Context(), input)
	if err != nil {
		if errors.Is(err, auth.ErrEmailTaken) {
			utils.WriteError(w, http.StatusConflict, "Registration failed", err)
			return
		}
		h.Logger.Error("AUTH", fmt.Sprintf("Register: %v", err))
		utils.WriteError(w, http.StatusBadRequest, "Registration failed", err)
		return
	}

	h.Logger.Info("AUTH", "registered user "+user.ID)
	utils.WriteJSON(w, http.StatusCreated, utils.SuccessResponse("Registration successful", user))
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string      `json:"token"`
	User  interface{} `json:"user"`
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		utils.WriteError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	token, user, err := h.Auth.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, auth.ErrInvalidCredentials) {
			utils.WriteError(w, http.StatusUnauthorized, "Login failed", err)
			return
		}
		h.Logger.Error("AUTH", fmt.Sprintf("Login: %v", err))
		utils.WriteError(w, http.StatusInternalServerError, "Login failed", err)
		return
	}

	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Logged in", loginResponse{Token: token, User: user}))
}

// Profile handles GET /api/v1/auth/profile.
func (h *Handler) Profile(w http.ResponseWriter, r *http.Request) {
	userID := auth.UserID(r.Context())

	user, err := h.Auth.Profile(r.Context(), userID)
	if err != nil {
		h.Logger.Error("AUTH", fmt.Sprintf("Profile: %v", err))
		utils.WriteError(w, http.StatusNotFound, "User not found", err)
		return
	}
	utils.WriteJSON(w, http.StatusOK, utils.SuccessResponse("Profile retrieved", user))
}
