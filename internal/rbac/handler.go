package rbac

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"log/slog"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/klinika-id/klinika/internal/shared"
)

// Handler manages the RBAC admin endpoints: role/permission CRUD and the
// assignment mutations.
type Handler struct {
	logger    *slog.Logger
	service   *Service
	validator *validator.Validate
	rbac      Middleware
}

// NewHandler builds Handler instance.
func NewHandler(logger *slog.Logger, service *Service, rbac Middleware) *Handler {
	return &Handler{logger: logger, service: service, validator: validator.New(), rbac: rbac}
}

// MountRoutes registers RBAC routes on the provided router.
func (h *Handler) MountRoutes(r chi.Router) {
	r.Route("/roles", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAny(shared.PermViewRoles, shared.PermManageRoles))
			r.Get("/", h.listRoles)
			r.Get("/{roleID}", h.getRole)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAny(shared.PermManageRoles))
			r.Post("/", h.createRole)
			r.Delete("/{roleID}", h.deleteRole)
			r.Post("/{roleID}/permissions/{permissionID}", h.assignPermission)
			r.Delete("/{roleID}/permissions/{permissionID}", h.removePermission)
			r.Put("/{roleID}/permissions/{permissionID}", h.updatePermission)
		})
	})
	r.Route("/permissions", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAny(shared.PermViewRoles, shared.PermManageRoles))
			r.Get("/", h.listPermissions)
			r.Get("/{permissionID}", h.getPermission)
		})
		r.Group(func(r chi.Router) {
			r.Use(h.rbac.RequireAny(shared.PermManageRoles))
			r.Post("/", h.createPermission)
			r.Delete("/{permissionID}", h.deletePermission)
		})
	})
}

// MountUserRoutes registers the per-user assignment routes. Mounted inside
// the /users subtree next to the user management handler.
func (h *Handler) MountUserRoutes(r chi.Router) {
	r.Route("/{userID}/roles", func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermManageRoles))
		r.Post("/{roleID}", h.assignRole)
		r.Delete("/{roleID}", h.removeRole)
		r.Put("/{roleID}", h.updateRole)
	})
	r.Group(func(r chi.Router) {
		r.Use(h.rbac.RequireAny(shared.PermViewRoles, shared.PermManageRoles))
		r.Get("/{userID}/authorities", h.userAuthorities)
	})
}

type namedForm struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description" validate:"max=255"`
}

func (h *Handler) listRoles(w http.ResponseWriter, r *http.Request) {
	roles, err := h.service.ListRoles(r.Context())
	if err != nil {
		h.serverError(w, "list roles", err)
		return
	}
	if roles == nil {
		roles = []Role{}
	}
	shared.RespondJSON(w, http.StatusOK, roles)
}

func (h *Handler) getRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	role, err := h.service.GetRole(r.Context(), roleID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, role)
}

func (h *Handler) createRole(w http.ResponseWriter, r *http.Request) {
	form, ok := h.decodeNamedForm(w, r)
	if !ok {
		return
	}
	role, err := h.service.CreateRole(r.Context(), form.Name, form.Description)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, role)
}

func (h *Handler) deleteRole(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	if err := h.service.DeleteRole(r.Context(), roleID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) listPermissions(w http.ResponseWriter, r *http.Request) {
	perms, err := h.service.ListPermissions(r.Context())
	if err != nil {
		h.serverError(w, "list permissions", err)
		return
	}
	if perms == nil {
		perms = []Permission{}
	}
	shared.RespondJSON(w, http.StatusOK, perms)
}

func (h *Handler) getPermission(w http.ResponseWriter, r *http.Request) {
	permissionID, ok := h.pathID(w, r, "permissionID")
	if !ok {
		return
	}
	perm, err := h.service.GetPermission(r.Context(), permissionID)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusOK, perm)
}

func (h *Handler) createPermission(w http.ResponseWriter, r *http.Request) {
	form, ok := h.decodeNamedForm(w, r)
	if !ok {
		return
	}
	perm, err := h.service.CreatePermission(r.Context(), form.Name, form.Description)
	if err != nil {
		h.respondServiceError(w, err)
		return
	}
	shared.RespondJSON(w, http.StatusCreated, perm)
}

func (h *Handler) deletePermission(w http.ResponseWriter, r *http.Request) {
	permissionID, ok := h.pathID(w, r, "permissionID")
	if !ok {
		return
	}
	if err := h.service.DeletePermission(r.Context(), permissionID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) assignRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	if err := h.service.AssignRoleToUser(r.Context(), roleID, userID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removeRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	if err := h.service.RemoveRoleFromUser(r.Context(), roleID, userID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type retargetForm struct {
	NewID int64 `json:"new_id" validate:"required,gt=0"`
}

func (h *Handler) updateRole(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	form, ok := h.decodeRetargetForm(w, r)
	if !ok {
		return
	}
	if err := h.service.UpdateRoleForUser(r.Context(), userID, roleID, form.NewID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) assignPermission(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	permissionID, ok := h.pathID(w, r, "permissionID")
	if !ok {
		return
	}
	if err := h.service.AssignPermissionToRole(r.Context(), permissionID, roleID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) removePermission(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	permissionID, ok := h.pathID(w, r, "permissionID")
	if !ok {
		return
	}
	if err := h.service.RemovePermissionFromRole(r.Context(), permissionID, roleID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) updatePermission(w http.ResponseWriter, r *http.Request) {
	roleID, ok := h.pathID(w, r, "roleID")
	if !ok {
		return
	}
	permissionID, ok := h.pathID(w, r, "permissionID")
	if !ok {
		return
	}
	form, ok := h.decodeRetargetForm(w, r)
	if !ok {
		return
	}
	if err := h.service.UpdatePermissionForRole(r.Context(), roleID, permissionID, form.NewID); err != nil {
		h.respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) userAuthorities(w http.ResponseWriter, r *http.Request) {
	userID, ok := h.pathID(w, r, "userID")
	if !ok {
		return
	}
	authorities, err := h.service.ResolveAuthorities(r.Context(), userID)
	if err != nil {
		h.serverError(w, "resolve authorities", err)
		return
	}
	if authorities == nil {
		authorities = []string{}
	}
	shared.RespondJSON(w, http.StatusOK, map[string][]string{"authorities": authorities})
}

func (h *Handler) decodeNamedForm(w http.ResponseWriter, r *http.Request) (namedForm, bool) {
	var form namedForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid request body")
		return form, false
	}
	if err := h.validator.Struct(form); err != nil {
		shared.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return form, false
	}
	return form, true
}

func (h *Handler) decodeRetargetForm(w http.ResponseWriter, r *http.Request) (retargetForm, bool) {
	var form retargetForm
	if err := json.NewDecoder(r.Body).Decode(&form); err != nil {
		shared.RespondError(w, http.StatusBadRequest, "invalid request body")
		return form, false
	}
	if err := h.validator.Struct(form); err != nil {
		shared.RespondError(w, http.StatusUnprocessableEntity, err.Error())
		return form, false
	}
	return form, true
}

func (h *Handler) pathID(w http.ResponseWriter, r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		shared.RespondError(w, http.StatusBadRequest, "invalid "+name)
		return 0, false
	}
	return id, true
}

func (h *Handler) respondServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrRoleNotFound), errors.Is(err, ErrUserNotFound), errors.Is(err, ErrPermissionNotFound):
		shared.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrRoleNotAssigned), errors.Is(err, ErrPermissionNotGranted):
		shared.RespondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, ErrRoleAlreadyAssigned), errors.Is(err, ErrPermissionAlreadyGranted),
		errors.Is(err, ErrRoleNameTaken), errors.Is(err, ErrPermissionNameTaken):
		shared.RespondError(w, http.StatusConflict, err.Error())
	case errors.Is(err, errInvalidName):
		shared.RespondError(w, http.StatusUnprocessableEntity, err.Error())
	default:
		h.serverError(w, "rbac operation", err)
	}
}

func (h *Handler) serverError(w http.ResponseWriter, op string, err error) {
	if h.logger != nil {
		h.logger.Error(op, slog.Any("error", err))
	}
	shared.RespondError(w, http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError))
}
