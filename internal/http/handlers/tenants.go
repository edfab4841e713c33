package handlers

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/workplane/internal/domain/repository"
	httperrors "github.com/dropDatabas3/workplane/internal/http/errors"
	"github.com/dropDatabas3/workplane/internal/http/middlewares"
	"github.com/dropDatabas3/workplane/internal/infra/modelcache"
	"github.com/dropDatabas3/workplane/internal/observability/logger"
	"github.com/dropDatabas3/workplane/internal/registry"
)

// TenantsHandler maneja la superficie administrativa /v1/admin.
type TenantsHandler struct {
	registry *registry.Service
	cache    *modelcache.Manager
}

func NewTenantsHandler(reg *registry.Service, cache *modelcache.Manager) *TenantsHandler {
	return &TenantsHandler{registry: reg, cache: cache}
}

type createTenantRequest struct {
	Name         string `json:"name"`
	ContactEmail string `json:"contactEmail"`
	PlanType     string `json:"planType"`
}

// Create maneja POST /v1/admin/tenants.
func (h *TenantsHandler) Create(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Op("CreateTenant"))

	var req createTenantRequest
	if !httperrors.ReadJSON(w, r, &req) {
		return
	}

	var createdBy string
	if c := middlewares.GetClaims(ctx); c != nil {
		createdBy = c.UserID
	}

	tenant, err := h.registry.Create(ctx, registry.CreateInput{
		Name:         req.Name,
		ContactEmail: req.ContactEmail,
		PlanType:     req.PlanType,
		CreatedBy:    createdBy,
	})
	if err != nil {
		log.Error("create tenant failed", logger.Err(err))
		httperrors.WriteError(w, r, mapRegistryError(err))
		return
	}

	httperrors.WriteJSON(w, http.StatusCreated, tenant)
}

// List maneja GET /v1/admin/tenants.
func (h *TenantsHandler) List(w http.ResponseWriter, r *http.Request) {
	tenants, err := h.registry.List(r.Context())
	if err != nil {
		httperrors.WriteError(w, r, mapRegistryError(err))
		return
	}
	httperrors.WriteJSON(w, http.StatusOK, tenants)
}

// Deactivate maneja POST /v1/admin/tenants/{tenantId}/deactivate.
func (h *TenantsHandler) Deactivate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tenantId")
	if err := h.registry.Deactivate(r.Context(), id); err != nil {
		httperrors.WriteError(w, r, mapRegistryError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Activate maneja POST /v1/admin/tenants/{tenantId}/activate.
func (h *TenantsHandler) Activate(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tenantId")
	if err := h.registry.Activate(r.Context(), id); err != nil {
		httperrors.WriteError(w, r, mapRegistryError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Delete maneja DELETE /v1/admin/tenants/{tenantId}. Teardown completo:
// namespace, fila del registro y entradas de cache.
func (h *TenantsHandler) Delete(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "tenantId")
	if err := h.registry.Delete(ctx, id); err != nil {
		logger.From(ctx).Error("delete tenant failed", logger.TenantID(id), logger.Err(err))
		httperrors.WriteError(w, r, mapRegistryError(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// CacheStats maneja GET /v1/admin/cache/stats.
func (h *TenantsHandler) CacheStats(w http.ResponseWriter, r *http.Request) {
	httperrors.WriteJSON(w, http.StatusOK, h.cache.Stats())
}

// CacheReload maneja POST /v1/admin/tenants/{tenantId}/cache/reload:
// desaloja y reconstruye la entrada del tenant de forma atómica para los
// lectores concurrentes.
func (h *TenantsHandler) CacheReload(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	id := chi.URLParam(r, "tenantId")

	tenant, err := h.registry.FindByID(ctx, id)
	if err != nil {
		httperrors.WriteError(w, r, mapRegistryError(err))
		return
	}
	if _, err := h.cache.Reload(ctx, tenant.NamespaceID, tenant.ID); err != nil {
		httperrors.WriteError(w, r, httperrors.ErrTenantStorageUnavailable.WithCause(err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func mapRegistryError(err error) error {
	switch {
	case errors.Is(err, registry.ErrReservedNamespace):
		return httperrors.ErrConflict.WithDetail("el nombre deriva a un namespace reservado").WithCause(err)
	case errors.Is(err, registry.ErrInvalidIdentifier), errors.Is(err, registry.ErrEmptyNamespace):
		return httperrors.ErrBadRequest.WithCause(err)
	case errors.Is(err, registry.ErrOrphanedTenant):
		return httperrors.ErrTenantOrphaned.WithCause(err)
	case repository.IsConflict(err):
		return httperrors.ErrConflict.WithCause(err)
	case repository.IsNotFound(err):
		return httperrors.ErrNotFound.WithCause(err)
	default:
		return httperrors.ErrInternalServerError.WithCause(err)
	}
}
