package registry_test

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/dropDatabas3/workplane/internal/domain/repository"
	"github.com/dropDatabas3/workplane/internal/registry"
	"github.com/dropDatabas3/workplane/internal/store"
)

// ─── Fakes ───

type fakeTenantStore struct {
	mu      sync.Mutex
	byID    map[string]*repository.Tenant
	failIns error
	failDel error
}

func newFakeTenantStore() *fakeTenantStore {
	return &fakeTenantStore{byID: map[string]*repository.Tenant{}}
}

func (f *fakeTenantStore) GetByName(_ context.Context, name string) (*repository.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.byID {
		if t.Name == name {
			cp := *t
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTenantStore) GetByID(_ context.Context, id string) (*repository.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if t, ok := f.byID[id]; ok {
		cp := *t
		return &cp, nil
	}
	return nil, repository.ErrNotFound
}

func (f *fakeTenantStore) Insert(_ context.Context, t *repository.Tenant) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failIns != nil {
		return f.failIns
	}
	for _, ex := range f.byID {
		if ex.Name == t.Name || ex.NamespaceID == t.NamespaceID {
			return repository.ErrConflict
		}
	}
	cp := *t
	f.byID[t.ID] = &cp
	return nil
}

func (f *fakeTenantStore) SetActive(_ context.Context, id string, active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.byID[id]
	if !ok {
		return repository.ErrNotFound
	}
	t.IsActive = active
	return nil
}

func (f *fakeTenantStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDel != nil {
		return f.failDel
	}
	if _, ok := f.byID[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.byID, id)
	return nil
}

func (f *fakeTenantStore) List(_ context.Context) ([]repository.Tenant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]repository.Tenant, 0, len(f.byID))
	for _, t := range f.byID {
		out = append(out, *t)
	}
	return out, nil
}

type fakeSchemaManager struct {
	mu         sync.Mutex
	namespaces map[string]bool
	failCreate error
	failDrop   error
}

func newFakeSchemaManager() *fakeSchemaManager {
	return &fakeSchemaManager{namespaces: map[string]bool{}}
}

func (f *fakeSchemaManager) CreateNamespace(_ context.Context, ns string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failCreate != nil {
		return f.failCreate
	}
	f.namespaces[ns] = true
	return nil
}

func (f *fakeSchemaManager) DropNamespace(_ context.Context, ns string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDrop != nil {
		return f.failDrop
	}
	delete(f.namespaces, ns)
	return nil
}

func (f *fakeSchemaManager) NamespaceExists(_ context.Context, ns string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.namespaces[ns], nil
}

type fakeModelCache struct {
	mu       sync.Mutex
	entries  map[string]*store.ModelSet
	loads    int
	failLoad error
	probeErr error
}

func newFakeModelCache() *fakeModelCache {
	return &fakeModelCache{entries: map[string]*store.ModelSet{}}
}

func (f *fakeModelCache) GetOrLoad(_ context.Context, ns, tid string) (*store.ModelSet, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failLoad != nil {
		return nil, f.failLoad
	}
	if ms, ok := f.entries[ns]; ok {
		return ms, nil
	}
	f.loads++
	ms := store.NewModelSet(ns, tid, nil, nil, func(context.Context) error { return f.probeErr })
	f.entries[ns] = ms
	return ms, nil
}

func (f *fakeModelCache) Invalidate(ns string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.entries[ns]
	delete(f.entries, ns)
	return ok
}

type deps struct {
	store   *fakeTenantStore
	schemas *fakeSchemaManager
	cache   *fakeModelCache
}

func newService(t *testing.T) (*registry.Service, deps) {
	t.Helper()
	d := deps{newFakeTenantStore(), newFakeSchemaManager(), newFakeModelCache()}
	svc, err := registry.New(registry.Config{
		Store:     d.store,
		Schemas:   d.schemas,
		Models:    d.cache,
		LookupTTL: time.Minute,
	})
	if err != nil {
		t.Fatal(err)
	}
	return svc, d
}

// ─── Create ───

func TestCreateHappyPath(t *testing.T) {
	svc, d := newService(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, registry.CreateInput{Name: "acme-co", ContactEmail: "ops@acme.co"})
	if err != nil {
		t.Fatal(err)
	}
	if tenant.NamespaceID != "acmeco" {
		t.Fatalf("namespace = %q, want acmeco", tenant.NamespaceID)
	}
	if !tenant.IsActive {
		t.Fatal("new tenant should be active")
	}
	if ok, _ := d.schemas.NamespaceExists(ctx, "acmeco"); !ok {
		t.Fatal("namespace was not created")
	}
	if _, ok := d.cache.entries["acmeco"]; !ok {
		t.Fatal("model cache entry was not warmed")
	}

	got, err := svc.FindByName(ctx, "acme-co")
	if err != nil {
		t.Fatal(err)
	}
	if got.ID != tenant.ID {
		t.Fatalf("FindByName returned wrong tenant: %s vs %s", got.ID, tenant.ID)
	}
}

func TestCreateReservedNameRollsBack(t *testing.T) {
	svc, d := newService(t)

	// "acme_co" está reservado: la creación falla ANTES de tocar nada.
	_, err := svc.Create(context.Background(), registry.CreateInput{Name: "acme_co"})
	if !errors.Is(err, registry.ErrReservedNamespace) {
		t.Fatalf("expected ErrReservedNamespace, got %v", err)
	}
	if len(d.store.byID) != 0 {
		t.Fatal("registry row should not exist")
	}
	if len(d.schemas.namespaces) != 0 {
		t.Fatal("no namespace should exist")
	}
}

func TestCreateInvalidName(t *testing.T) {
	svc, _ := newService(t)
	for _, bad := range []string{"", "a", "with space"} {
		if _, err := svc.Create(context.Background(), registry.CreateInput{Name: bad}); !errors.Is(err, registry.ErrInvalidIdentifier) {
			t.Fatalf("Create(%q): expected ErrInvalidIdentifier, got %v", bad, err)
		}
	}
}

func TestCreateSchemaFailureCompensates(t *testing.T) {
	svc, d := newService(t)
	d.schemas.failCreate = fmt.Errorf("disk on fire")

	_, err := svc.Create(context.Background(), registry.CreateInput{Name: "acme-co"})
	if err == nil {
		t.Fatal("expected error")
	}
	// La fila insertada en el paso previo tiene que haberse borrado.
	if len(d.store.byID) != 0 {
		t.Fatal("registry row should have been compensated away")
	}
	if _, err := svc.FindByName(context.Background(), "acme-co"); !repository.IsNotFound(err) {
		t.Fatalf("partial tenant is visible: %v", err)
	}
}

func TestCreateCacheWarmFailureCompensates(t *testing.T) {
	svc, d := newService(t)
	d.cache.failLoad = fmt.Errorf("load exploded")

	_, err := svc.Create(context.Background(), registry.CreateInput{Name: "acme-co"})
	if err == nil {
		t.Fatal("expected error")
	}
	if len(d.store.byID) != 0 {
		t.Fatal("registry row should have been compensated away")
	}
	if len(d.schemas.namespaces) != 0 {
		t.Fatal("namespace should have been dropped by compensation")
	}
}

func TestCreateDuplicateConflict(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	if _, err := svc.Create(ctx, registry.CreateInput{Name: "acme-co"}); err != nil {
		t.Fatal(err)
	}
	_, err := svc.Create(ctx, registry.CreateInput{Name: "acme-co"})
	if !repository.IsConflict(err) {
		t.Fatalf("expected conflict, got %v", err)
	}
}

func TestCreateConcurrentSameNamespace(t *testing.T) {
	svc, d := newService(t)
	ctx := context.Background()

	const n = 8
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			// "Acme.Co" y "acme-co" derivan ambos a "acmeco".
			name := "acme-co"
			if i%2 == 0 {
				name = "AcmeCo"
			}
			_, errs[i] = svc.Create(ctx, registry.CreateInput{Name: name})
		}(i)
	}
	wg.Wait()

	okCount := 0
	for _, err := range errs {
		if err == nil {
			okCount++
		} else if !repository.IsConflict(err) {
			t.Fatalf("unexpected error: %v", err)
		}
	}
	if okCount != 1 {
		t.Fatalf("exactly one create should win, got %d", okCount)
	}
	if len(d.schemas.namespaces) != 1 {
		t.Fatalf("expected 1 namespace, got %d", len(d.schemas.namespaces))
	}
}

// ─── Deactivate / Delete ───

func TestDeactivateIsVisibleImmediately(t *testing.T) {
	svc, _ := newService(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, registry.CreateInput{Name: "acme-co"})
	if err != nil {
		t.Fatal(err)
	}
	// Calentar el cache de lookup.
	if _, err := svc.FindByName(ctx, "acme-co"); err != nil {
		t.Fatal(err)
	}

	if err := svc.Deactivate(ctx, tenant.ID); err != nil {
		t.Fatal(err)
	}
	got, err := svc.FindByName(ctx, "acme-co")
	if err != nil {
		t.Fatal(err)
	}
	if got.IsActive {
		t.Fatal("deactivation must be visible without waiting for the lookup TTL")
	}
}

func TestDeleteTearsDownEverything(t *testing.T) {
	svc, d := newService(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, registry.CreateInput{Name: "acme-co"})
	if err != nil {
		t.Fatal(err)
	}
	if err := svc.Delete(ctx, tenant.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.FindByName(ctx, "acme-co"); !repository.IsNotFound(err) {
		t.Fatalf("tenant still resolvable after delete: %v", err)
	}
	if len(d.schemas.namespaces) != 0 {
		t.Fatal("namespace should be gone")
	}
	if len(d.cache.entries) != 0 {
		t.Fatal("model cache entry should be evicted")
	}
}

func TestDeleteOrphanSurfaces(t *testing.T) {
	svc, d := newService(t)
	ctx := context.Background()

	tenant, err := svc.Create(ctx, registry.CreateInput{Name: "acme-co"})
	if err != nil {
		t.Fatal(err)
	}
	d.store.failDel = fmt.Errorf("row locked")

	err = svc.Delete(ctx, tenant.ID)
	if !errors.Is(err, registry.ErrOrphanedTenant) {
		t.Fatalf("expected ErrOrphanedTenant, got %v", err)
	}
}
