package patients

import (
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"

	"github.com/klinika-id/klinika/internal/rbac"
	"github.com/klinika-id/klinika/internal/shared"
)

// Handler manages patient read endpoints.
type Handler struct {
	logger  *slog.Logger
	service *Service
	rbac    rbac.Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac rbac.Middleware) *Handler {
	return &Handler{logger: logger, service: service, rbac: rbac}
}

// MountRoutes registers patient routes.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermViewPatients))
		r.Get("/", h.listPatients)
		r.Get("/{patientID}", h.getPatient)
	})
}

func (h *Handler) listPatients(w http.ResponseWriter, r *http.Request) {
	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	perPage, _ := strconv.Atoi(r.URL.Query().Get("per_page"))
	listing, err := h.service.ListPatients(r.Context(), page, perPage)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("list patients", slog.Any("error", err))
		}
		shared.RespondError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	shared.RespondJSON(w, http.StatusOK, listing)
}

func (h *Handler) getPatient(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "patientID"), 10, 64)
	if err != nil || id <= 0 {
		shared.RespondError(w, http.StatusBadRequest, "invalid patientID")
		return
	}
	patient, err := h.service.GetPatient(r.Context(), id)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			shared.RespondError(w, http.StatusNotFound, "patient not found")
			return
		}
		if h.logger != nil {
			h.logger.Error("get patient", slog.Any("error", err))
		}
		shared.RespondError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
		return
	}
	shared.RespondJSON(w, http.StatusOK, patient)
}
