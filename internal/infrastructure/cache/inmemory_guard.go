package cache

import (
	"context"
	"sync"
	"time"

	"github.com/draheim/zoho-sync/internal/domain/shared"
)

type guardEntry struct {
	expiresAt time.Time
}

// InMemoryGuard is a process-local SyncGuard for single-instance
// deployments and tests. A background loop evicts expired entries.
type InMemoryGuard struct {
	mu        sync.Mutex
	entries   map[string]guardEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

func NewInMemoryGuard() *InMemoryGuard {
	g := &InMemoryGuard{
		entries:  make(map[string]guardEntry),
		stopChan: make(chan struct{}),
	}
	g.wg.Add(1)
	go g.cleanupLoop()
	return g
}

func (g *InMemoryGuard) Acquire(_ context.Context, key string, ttl time.Duration) (bool, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if e, exists := g.entries[key]; exists && time.Now().Before(e.expiresAt) {
		return false, nil
	}
	g.entries[key] = guardEntry{expiresAt: time.Now().Add(ttl)}
	return true, nil
}

func (g *InMemoryGuard) Release(_ context.Context, key string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.entries, key)
	return nil
}

func (g *InMemoryGuard) Close() error {
	g.closeOnce.Do(func() {
		close(g.stopChan)
	})
	g.wg.Wait()
	return nil
}

func (g *InMemoryGuard) cleanupLoop() {
	defer g.wg.Done()
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-g.stopChan:
			return
		case <-ticker.C:
			g.evictExpired()
		}
	}
}

func (g *InMemoryGuard) evictExpired() {
	now := time.Now()
	g.mu.Lock()
	defer g.mu.Unlock()
	for key, e := range g.entries {
		if now.After(e.expiresAt) {
			delete(g.entries, key)
		}
	}
}

var _ shared.SyncGuard = (*InMemoryGuard)(nil)
