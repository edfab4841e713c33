package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dropDatabas3/workplane/internal/domain/repository"
	"github.com/dropDatabas3/workplane/internal/metrics"
	"github.com/dropDatabas3/workplane/internal/store"
)

// TenantContext es el resultado de una resolución exitosa: todo lo que
// las capas de auth y negocio necesitan del tenant, ya ligado.
type TenantContext struct {
	TenantID    string
	TenantName  string
	NamespaceID string
	Models      *store.ModelSet
	IsActive    bool
}

// Resolver convierte el identificador crudo de un request en un
// TenantContext listo para usar.
type Resolver struct {
	registry *Service
	// probeTimeout acota el liveness probe del namespace; es más corto
	// que cualquier timeout de request.
	probeTimeout time.Duration
}

// NewResolver crea el Resolver. Con probeTimeout <= 0 se usan 800ms.
func NewResolver(registry *Service, probeTimeout time.Duration) *Resolver {
	if probeTimeout <= 0 {
		probeTimeout = 800 * time.Millisecond
	}
	return &Resolver{registry: registry, probeTimeout: probeTimeout}
}

// Resolve valida el identificador, busca el tenant, verifica que esté
// activo, obtiene su ModelSet del cache y comprueba que el storage
// responda. Sólo si todo eso pasa devuelve un TenantContext.
//
// El orden importa: un tenant inactivo se rechaza ANTES de tocar el
// cache de modelos, así la desactivación no sigue construyendo entradas.
func (r *Resolver) Resolve(ctx context.Context, raw string) (*TenantContext, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		metrics.TenantResolution("missing")
		return nil, fmt.Errorf("%w: empty identifier", ErrInvalidIdentifier)
	}
	if !ValidIdentifier(raw) {
		metrics.TenantResolution("invalid")
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, raw)
	}

	tenant, err := r.registry.FindByName(ctx, raw)
	if err != nil {
		if repository.IsNotFound(err) {
			metrics.TenantResolution("not_found")
			return nil, err
		}
		metrics.TenantResolution("error")
		return nil, err
	}

	if !tenant.IsActive {
		metrics.TenantResolution("inactive")
		return nil, fmt.Errorf("%w: %s", ErrInactive, tenant.Name)
	}

	models, err := r.registry.models.GetOrLoad(ctx, tenant.NamespaceID, tenant.ID)
	if err != nil {
		metrics.TenantResolution("storage_unavailable")
		return nil, fmt.Errorf("%w: load models for %s: %v", ErrStorageUnavailable, tenant.NamespaceID, err)
	}

	probeCtx, cancel := context.WithTimeout(ctx, r.probeTimeout)
	defer cancel()
	if err := models.Probe(probeCtx); err != nil {
		metrics.TenantResolution("storage_unavailable")
		return nil, fmt.Errorf("%w: %s: %v", ErrStorageUnavailable, tenant.NamespaceID, err)
	}

	metrics.TenantResolution("ok")
	return &TenantContext{
		TenantID:    tenant.ID,
		TenantName:  tenant.Name,
		NamespaceID: tenant.NamespaceID,
		Models:      models,
		IsActive:    true,
	}, nil
}

// IsInactive reporta si err corresponde a un tenant desactivado.
func IsInactive(err error) bool { return errors.Is(err, ErrInactive) }
