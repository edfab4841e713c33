// Package modelcache administra el cache en memoria de ModelSets por
// namespace, evitando construcciones en paralelo mediante singleflight.
//
// Invariantes:
//   - nunca se publica un ModelSet parcial: la entrada se escribe sólo
//     después de una construcción completa y exitosa;
//   - a lo sumo una entrada viva por namespace, sin importar cuántos
//     callers lleguen concurrentes al primer acceso;
//   - una construcción fallida no deja residuo: el próximo GetOrLoad
//     vuelve a intentar.
//
// Las entradas no expiran solas; se destruyen con Invalidate (borrado de
// tenant, reload manual).
package modelcache

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/dropDatabas3/workplane/internal/metrics"
	"github.com/dropDatabas3/workplane/internal/observability/logger"
	"github.com/dropDatabas3/workplane/internal/store"
)

var (
	ErrLoaderNotConfigured = errors.New("modelcache: loader not configured")
	ErrEmptyNamespace      = errors.New("modelcache: empty namespace id")
)

// LoaderFunc construye el ModelSet de un namespace. La construcción es
// comparativamente cara (verificación de schema, armado de handles);
// el Manager garantiza que no se repite innecesariamente.
type LoaderFunc func(ctx context.Context, namespaceID, tenantID string) (*store.ModelSet, error)

// Config del Manager.
type Config struct {
	Load LoaderFunc
}

type entry struct {
	set      *store.ModelSet
	tenantID string
	loadedAt time.Time
}

// Manager es el cache de ModelSets por namespace.
type Manager struct {
	load LoaderFunc

	mu      sync.RWMutex
	entries map[string]*entry
	sf      singleflight.Group
}

// New crea un Manager con la configuración indicada.
func New(cfg Config) (*Manager, error) {
	if cfg.Load == nil {
		return nil, ErrLoaderNotConfigured
	}
	return &Manager{
		load:    cfg.Load,
		entries: make(map[string]*entry),
	}, nil
}

// GetOrLoad devuelve el ModelSet cacheado o lo construye. Bajo accesos
// concurrentes al mismo namespace sin entrada, un solo loader corre y el
// resto espera su resultado (single-flight por key).
func (m *Manager) GetOrLoad(ctx context.Context, namespaceID, tenantID string) (*store.ModelSet, error) {
	namespaceID = strings.TrimSpace(namespaceID)
	if namespaceID == "" {
		return nil, ErrEmptyNamespace
	}

	m.mu.RLock()
	if e, ok := m.entries[namespaceID]; ok {
		m.mu.RUnlock()
		metrics.ModelCacheHit()
		return e.set, nil
	}
	m.mu.RUnlock()

	metrics.ModelCacheMiss()
	result, err, _ := m.sf.Do(namespaceID, func() (any, error) {
		// Re-chequear bajo el lock: otro flight pudo publicar entre el
		// RUnlock de arriba y la entrada a este callback.
		m.mu.RLock()
		if e, ok := m.entries[namespaceID]; ok {
			m.mu.RUnlock()
			return e.set, nil
		}
		m.mu.RUnlock()

		set, err := m.load(ctx, namespaceID, tenantID)
		if err != nil {
			// No retener entradas fallidas: el error es retryable.
			metrics.ModelCacheLoadFailure()
			return nil, err
		}

		// Publicar dentro del flight: exactamente una escritura por key.
		m.mu.Lock()
		m.entries[namespaceID] = &entry{set: set, tenantID: tenantID, loadedAt: time.Now().UTC()}
		m.mu.Unlock()
		metrics.ModelCacheEntries(m.Len())

		logger.Named("modelcache").Info("modelset loaded",
			logger.Namespace(namespaceID), logger.TenantID(tenantID))
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*store.ModelSet), nil
}

// Invalidate elimina la entrada si existe y reporta si hubo borrado.
// También olvida cualquier flight en curso para la key, de modo que un
// GetOrLoad posterior no se cuelgue de una construcción vieja.
func (m *Manager) Invalidate(namespaceID string) bool {
	m.sf.Forget(namespaceID)

	m.mu.Lock()
	_, ok := m.entries[namespaceID]
	if ok {
		delete(m.entries, namespaceID)
	}
	m.mu.Unlock()

	if ok {
		metrics.ModelCacheEntries(m.Len())
		logger.Named("modelcache").Info("modelset invalidated", logger.Namespace(namespaceID))
	}
	return ok
}

// Reload invalida y reconstruye. Herramienta de desarrollo/ops, no parte
// del hot path de requests.
func (m *Manager) Reload(ctx context.Context, namespaceID, tenantID string) (*store.ModelSet, error) {
	m.Invalidate(namespaceID)
	return m.GetOrLoad(ctx, namespaceID, tenantID)
}

// Len retorna la cantidad de entradas vivas.
func (m *Manager) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// Stats es un snapshot observacional del cache, sin efectos.
type Stats struct {
	EntryCount     int       `json:"entryCount"`
	Namespaces     []string  `json:"namespaces"`
	OldestLoadedAt time.Time `json:"oldestLoadedAt,omitempty"`
	NewestLoadedAt time.Time `json:"newestLoadedAt,omitempty"`
}

// Stats devuelve el snapshot actual.
func (m *Manager) Stats() Stats {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Stats{EntryCount: len(m.entries)}
	for ns, e := range m.entries {
		st.Namespaces = append(st.Namespaces, ns)
		if st.OldestLoadedAt.IsZero() || e.loadedAt.Before(st.OldestLoadedAt) {
			st.OldestLoadedAt = e.loadedAt
		}
		if e.loadedAt.After(st.NewestLoadedAt) {
			st.NewestLoadedAt = e.loadedAt
		}
	}
	sort.Strings(st.Namespaces)
	return st
}

// Close vacía el cache. Los pools subyacentes pertenecen al Store, no a
// este Manager; acá sólo se sueltan las referencias.
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]*entry)
	return nil
}
