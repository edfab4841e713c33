package modelcache_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/dropDatabas3/workplane/internal/infra/modelcache"
	"github.com/dropDatabas3/workplane/internal/store"
)

func okLoader(loads *int64, delay time.Duration) modelcache.LoaderFunc {
	return func(_ context.Context, ns, tid string) (*store.ModelSet, error) {
		atomic.AddInt64(loads, 1)
		if delay > 0 {
			time.Sleep(delay)
		}
		return store.NewModelSet(ns, tid, nil, nil, func(context.Context) error { return nil }), nil
	}
}

func TestGetOrLoadCachesEntry(t *testing.T) {
	var loads int64
	m, err := modelcache.New(modelcache.Config{Load: okLoader(&loads, 0)})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	a, err := m.GetOrLoad(ctx, "acmeco", "t1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.GetOrLoad(ctx, "acmeco", "t1")
	if err != nil {
		t.Fatal(err)
	}
	if a != b {
		t.Fatal("second access must return the cached instance")
	}
	if loads != 1 {
		t.Fatalf("expected 1 load, got %d", loads)
	}
}

func TestGetOrLoadConvergesUnderConcurrency(t *testing.T) {
	var loads int64
	m, err := modelcache.New(modelcache.Config{Load: okLoader(&loads, 20*time.Millisecond)})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	const n = 32
	sets := make([]*store.ModelSet, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			ms, err := m.GetOrLoad(ctx, "acmeco", "t1")
			if err != nil {
				t.Error(err)
				return
			}
			sets[i] = ms
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		if sets[i] != sets[0] {
			t.Fatal("all concurrent callers must converge on the same instance")
		}
	}
	if loads != 1 {
		t.Fatalf("expected exactly 1 load under concurrency, got %d", loads)
	}
	if m.Len() != 1 {
		t.Fatalf("expected 1 live entry, got %d", m.Len())
	}
}

func TestFailedLoadLeavesNoResidue(t *testing.T) {
	var calls int64
	fail := fmt.Errorf("db down")
	m, err := modelcache.New(modelcache.Config{Load: func(_ context.Context, ns, tid string) (*store.ModelSet, error) {
		if atomic.AddInt64(&calls, 1) == 1 {
			return nil, fail
		}
		return store.NewModelSet(ns, tid, nil, nil, nil), nil
	}})
	if err != nil {
		t.Fatal(err)
	}
	ctx := context.Background()

	if _, err := m.GetOrLoad(ctx, "acmeco", "t1"); err == nil {
		t.Fatal("first load should fail")
	}
	if m.Len() != 0 {
		t.Fatal("failed load must not be cached")
	}

	// El siguiente intento reconstruye.
	if _, err := m.GetOrLoad(ctx, "acmeco", "t1"); err != nil {
		t.Fatalf("retry should succeed: %v", err)
	}
	if m.Len() != 1 {
		t.Fatal("retry should have published an entry")
	}
}

func TestInvalidate(t *testing.T) {
	var loads int64
	m, _ := modelcache.New(modelcache.Config{Load: okLoader(&loads, 0)})
	ctx := context.Background()

	if _, err := m.GetOrLoad(ctx, "acmeco", "t1"); err != nil {
		t.Fatal(err)
	}
	if !m.Invalidate("acmeco") {
		t.Fatal("invalidate of an existing entry should report true")
	}
	if m.Invalidate("acmeco") {
		t.Fatal("invalidate of a missing entry should report false")
	}
	if m.Len() != 0 {
		t.Fatal("entry should be gone")
	}
}

func TestReloadReplacesInstance(t *testing.T) {
	var loads int64
	m, _ := modelcache.New(modelcache.Config{Load: okLoader(&loads, 0)})
	ctx := context.Background()

	a, err := m.GetOrLoad(ctx, "acmeco", "t1")
	if err != nil {
		t.Fatal(err)
	}
	b, err := m.Reload(ctx, "acmeco", "t1")
	if err != nil {
		t.Fatal(err)
	}
	if a == b {
		t.Fatal("reload must build a fresh instance")
	}
	if loads != 2 {
		t.Fatalf("expected 2 loads, got %d", loads)
	}
}

func TestStats(t *testing.T) {
	var loads int64
	m, _ := modelcache.New(modelcache.Config{Load: okLoader(&loads, 0)})
	ctx := context.Background()

	for _, ns := range []string{"zeta", "acmeco", "beta"} {
		if _, err := m.GetOrLoad(ctx, ns, "t-"+ns); err != nil {
			t.Fatal(err)
		}
	}

	st := m.Stats()
	if st.EntryCount != 3 {
		t.Fatalf("expected 3 entries, got %d", st.EntryCount)
	}
	want := []string{"acmeco", "beta", "zeta"}
	for i, ns := range want {
		if st.Namespaces[i] != ns {
			t.Fatalf("namespaces not sorted: %v", st.Namespaces)
		}
	}
	if st.OldestLoadedAt.IsZero() || st.NewestLoadedAt.Before(st.OldestLoadedAt) {
		t.Fatalf("inconsistent timestamps: %+v", st)
	}
}

func TestEmptyNamespaceRejected(t *testing.T) {
	var loads int64
	m, _ := modelcache.New(modelcache.Config{Load: okLoader(&loads, 0)})
	if _, err := m.GetOrLoad(context.Background(), "  ", "t1"); err == nil {
		t.Fatal("empty namespace must be rejected")
	}
}
