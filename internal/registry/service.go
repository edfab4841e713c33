// Package registry implementa el directorio de tenants: lookup de alta
// concurrencia, creación transaccional (saga con compensación), baja
// lógica y teardown explícito.
package registry

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	gocache "github.com/patrickmn/go-cache"

	"github.com/dropDatabas3/workplane/internal/domain/repository"
	"github.com/dropDatabas3/workplane/internal/observability/logger"
	"github.com/dropDatabas3/workplane/internal/store"
)

// ModelCache es lo que el registry necesita del cache de modelos.
type ModelCache interface {
	GetOrLoad(ctx context.Context, namespaceID, tenantID string) (*store.ModelSet, error)
	Invalidate(namespaceID string) bool
}

// Config del Service.
type Config struct {
	Store   repository.TenantStore
	Schemas repository.SchemaManager
	Models  ModelCache
	// LookupTTL del cache de lecturas; cero desactiva el cache.
	LookupTTL time.Duration
}

// Service es el TenantRegistry.
type Service struct {
	store   repository.TenantStore
	schemas repository.SchemaManager
	models  ModelCache

	// lookup cachea GetByName: las lecturas son frecuentes y el
	// directorio cambia poco. Se purga en cada escritura.
	lookup *gocache.Cache

	// createMu serializa creaciones por namespace derivado; la unique
	// constraint de la DB es la red de seguridad multi-proceso.
	createMu sync.Map // namespace -> *sync.Mutex
}

// New crea el Service.
func New(cfg Config) (*Service, error) {
	if cfg.Store == nil || cfg.Schemas == nil || cfg.Models == nil {
		return nil, errors.New("registry: store, schemas and models are required")
	}
	var lookup *gocache.Cache
	if cfg.LookupTTL > 0 {
		lookup = gocache.New(cfg.LookupTTL, 2*cfg.LookupTTL)
	}
	return &Service{
		store:   cfg.Store,
		schemas: cfg.Schemas,
		models:  cfg.Models,
		lookup:  lookup,
	}, nil
}

// FindByName busca un tenant por nombre exacto. Lectura pura, segura bajo
// alta concurrencia; pasa por el cache de lookup si está habilitado.
func (s *Service) FindByName(ctx context.Context, name string) (*repository.Tenant, error) {
	if s.lookup != nil {
		if v, ok := s.lookup.Get(name); ok {
			t := v.(repository.Tenant)
			return &t, nil
		}
	}
	t, err := s.store.GetByName(ctx, name)
	if err != nil {
		return nil, err
	}
	if s.lookup != nil {
		s.lookup.SetDefault(name, *t)
	}
	return t, nil
}

// CreateInput datos de alta de un tenant.
type CreateInput struct {
	Name         string
	ContactEmail string
	PlanType     string
	CreatedBy    string
}

// Create da de alta un tenant como secuencia compensada:
//
//	(a) insertar fila del registro
//	(b) crear el namespace de storage
//	(c) poblar la entrada del cache de modelos
//
// Si cualquier paso falla, los anteriores se deshacen en orden inverso
// antes de devolver el error: un lookup posterior nunca ve un tenant
// parcial.
func (s *Service) Create(ctx context.Context, in CreateInput) (*repository.Tenant, error) {
	name := strings.TrimSpace(in.Name)
	if !ValidName(name) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, name)
	}
	ns, err := DeriveNamespace(name)
	if err != nil {
		return nil, err
	}

	// Dos nombres distintos pueden derivar al mismo namespace; el lock
	// va por namespace para cubrir también ese caso.
	muAny, _ := s.createMu.LoadOrStore(ns, &sync.Mutex{})
	mu := muAny.(*sync.Mutex)
	mu.Lock()
	defer mu.Unlock()

	now := time.Now().UTC()
	tenant := &repository.Tenant{
		ID:           uuid.NewString(),
		Name:         name,
		NamespaceID:  ns,
		ContactEmail: strings.TrimSpace(in.ContactEmail),
		IsActive:     true,
		PlanType:     in.PlanType,
		CreatedBy:    in.CreatedBy,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	steps := []sagaStep{
		{
			Name: "insert_registry_row",
			Run:  func(ctx context.Context) error { return s.store.Insert(ctx, tenant) },
			Undo: func(ctx context.Context) error { return s.store.Delete(ctx, tenant.ID) },
		},
		{
			Name: "create_namespace",
			Run:  func(ctx context.Context) error { return s.schemas.CreateNamespace(ctx, ns) },
			Undo: func(ctx context.Context) error { return s.schemas.DropNamespace(ctx, ns) },
		},
		{
			Name: "warm_model_cache",
			Run: func(ctx context.Context) error {
				_, err := s.models.GetOrLoad(ctx, ns, tenant.ID)
				return err
			},
			Undo: func(ctx context.Context) error {
				s.models.Invalidate(ns)
				return nil
			},
		},
	}
	if err := runSaga(ctx, steps); err != nil {
		return nil, err
	}

	s.evict(name)
	logger.Named("registry").Info("tenant created",
		logger.TenantID(tenant.ID), logger.TenantName(name), logger.Namespace(ns))
	return tenant, nil
}

// Deactivate marca el tenant inactivo. No borra nada: bloquea la
// resolución futura (y el cache de lookup se purga para que el cambio
// sea visible de inmediato).
func (s *Service) Deactivate(ctx context.Context, tenantID string) error {
	t, err := s.store.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := s.store.SetActive(ctx, tenantID, false); err != nil {
		return err
	}
	s.evict(t.Name)
	logger.Named("registry").Info("tenant deactivated", logger.TenantID(tenantID))
	return nil
}

// Activate rehabilita un tenant desactivado.
func (s *Service) Activate(ctx context.Context, tenantID string) error {
	t, err := s.store.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}
	if err := s.store.SetActive(ctx, tenantID, true); err != nil {
		return err
	}
	s.evict(t.Name)
	return nil
}

// Delete hace el teardown explícito: tira el namespace (con todos sus
// datos), borra la fila del registro y desaloja el cache de modelos.
//
// El drop del namespace y el delete de la fila no son atómicos entre sí.
// Si el drop salió y el delete falla, el tenant queda huérfano: se
// devuelve ErrOrphanedTenant con la causa para seguimiento manual, nunca
// se silencia.
func (s *Service) Delete(ctx context.Context, tenantID string) error {
	t, err := s.store.GetByID(ctx, tenantID)
	if err != nil {
		return err
	}

	if err := s.schemas.DropNamespace(ctx, t.NamespaceID); err != nil {
		return fmt.Errorf("registry: drop namespace %s: %w", t.NamespaceID, err)
	}
	s.models.Invalidate(t.NamespaceID)
	s.evict(t.Name)

	if err := s.store.Delete(ctx, tenantID); err != nil {
		return fmt.Errorf("%w: tenant %s (namespace %s already dropped): %v",
			ErrOrphanedTenant, tenantID, t.NamespaceID, err)
	}

	logger.Named("registry").Info("tenant deleted",
		logger.TenantID(tenantID), logger.Namespace(t.NamespaceID))
	return nil
}

// FindByID busca un tenant por ID. No pasa por el cache de lookup (las
// lecturas por ID son administrativas, no están en el camino caliente).
func (s *Service) FindByID(ctx context.Context, tenantID string) (*repository.Tenant, error) {
	return s.store.GetByID(ctx, tenantID)
}

// List expone el directorio completo (uso administrativo).
func (s *Service) List(ctx context.Context) ([]repository.Tenant, error) {
	return s.store.List(ctx)
}

func (s *Service) evict(name string) {
	if s.lookup != nil {
		s.lookup.Delete(name)
	}
}
