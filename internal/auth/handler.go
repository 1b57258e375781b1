package auth

import (
	"encoding/json"
	"errors"
	"net/http"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/klinika-id/klinika/internal/observability"
	"github.com/klinika-id/klinika/internal/shared"
)

// Handler wires HTTP endpoints for authentication flows.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	metrics   *observability.Metrics
}

// NewHandler constructs a Handler instance. metrics may be nil.
func NewHandler(logger *slog.Logger, service *Service, metrics *observability.Metrics) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), metrics: metrics}
}

// MountRoutes registers auth routes on provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Post("/login", h.handleLogin)
}

type loginForm struct {
	NationalID string `json:"national_id" validate:"required"`
	Password   string `json:"password" validate:"required,min=8"`
}

func (h *Handler) handleLogin(w http.ResponseWriter, r *http.Request) {
	var form loginForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := h.validator.Struct(form); err != nil {
		h.metrics.RecordLogin(observability.LoginFailure)
		shared.RespondError(w, http.StatusUnauthorized, "authentication failed")
		return
	}
	result, err := h.service.Login(r.Context(), form.NationalID, form.Password)
	if err != nil {
		switch {
		case errors.Is(err, shared.ErrTooManyAttempts):
			h.metrics.RecordLogin(observability.LoginThrottled)
			shared.RespondError(w, http.StatusTooManyRequests, err.Error())
		case errors.Is(err, shared.ErrInvalidCredentials):
			h.metrics.RecordLogin(observability.LoginFailure)
			shared.RespondError(w, http.StatusUnauthorized, "authentication failed")
		default:
			if h.logger != nil {
				h.logger.Error("login", slog.Any("error", err))
			}
			shared.RespondError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		}
		return
	}
	h.metrics.RecordLogin(observability.LoginSuccess)
	shared.RespondJSON(w, http.StatusOK, result)
}
