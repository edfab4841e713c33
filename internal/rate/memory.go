package rate

import (
	"context"
	"sync"
	"time"
)

// MemoryLimiter replica el fixed window en memoria de proceso. Sirve
// para entornos sin Redis; no coordina entre réplicas.
type MemoryLimiter struct {
	Max    int64
	Window time.Duration

	mu        sync.Mutex
	windows   map[string]*memWindow
	lastSweep time.Time
}

type memWindow struct {
	start time.Time
	hits  int64
}

func NewMemoryLimiter(max int, window time.Duration) *MemoryLimiter {
	return &MemoryLimiter{
		Max:     int64(max),
		Window:  window,
		windows: make(map[string]*memWindow),
	}
}

func (l *MemoryLimiter) Allow(_ context.Context, key string) (Result, error) {
	now := time.Now().UTC()
	winStart := now.Truncate(l.Window)

	l.mu.Lock()
	defer l.mu.Unlock()

	// Barrido perezoso: sin esto el map crece un entry por cada
	// tenant:ip distinto visto en la vida del proceso.
	if now.Sub(l.lastSweep) >= l.Window {
		for k, old := range l.windows {
			if now.Sub(old.start) >= l.Window {
				delete(l.windows, k)
			}
		}
		l.lastSweep = now
	}

	w := l.windows[key]
	if w == nil || !w.start.Equal(winStart) {
		w = &memWindow{start: winStart}
		l.windows[key] = w
	}
	w.hits++

	remaining := l.Max - w.hits
	if remaining < 0 {
		remaining = 0
	}
	res := Result{
		Allowed:     w.hits <= l.Max,
		Remaining:   remaining,
		CurrentHits: w.hits,
		WindowTTL:   winStart.Add(l.Window).Sub(now),
	}
	if !res.Allowed {
		res.RetryAfter = res.WindowTTL
	}
	return res, nil
}
