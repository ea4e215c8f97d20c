package state

import (
	"context"
	"sync"
	"time"

	"github.com/cswitzer/OverboardTodosApp/internal/auth"
)

type memoryEntry struct {
	codeVerifier string
	expiresAt    time.Time
}

// MemoryGuard is a thread-safe in-process Guard. Suitable for a single
// instance; multi-instance deployments use RedisGuard instead.
type MemoryGuard struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
}

// NewMemoryGuard creates a guard whose entries live for ttl. Expired
// entries are dropped lazily on access and by a periodic sweep.
func NewMemoryGuard(ttl time.Duration) *MemoryGuard {
	g := &MemoryGuard{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
	}
	go g.sweepLoop()
	return g
}

func (g *MemoryGuard) Issue(ctx context.Context) (*Grant, error) {
	grant, err := newGrant()
	if err != nil {
		return nil, err
	}

	g.mu.Lock()
	g.entries[grant.State] = memoryEntry{
		codeVerifier: grant.CodeVerifier,
		expiresAt:    time.Now().Add(g.ttl),
	}
	g.mu.Unlock()

	return grant, nil
}

// Consume removes the entry under the same lock as the existence and
// TTL checks, so two racing consumers cannot both succeed.
func (g *MemoryGuard) Consume(ctx context.Context, stateValue string) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	entry, found := g.entries[stateValue]
	if !found {
		return "", auth.ErrInvalidState
	}
	delete(g.entries, stateValue)

	if time.Now().After(entry.expiresAt) {
		return "", auth.ErrInvalidState
	}
	return entry.codeVerifier, nil
}

func (g *MemoryGuard) sweep() {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := time.Now()
	for value, entry := range g.entries {
		if now.After(entry.expiresAt) {
			delete(g.entries, value)
		}
	}
}

func (g *MemoryGuard) sweepLoop() {
	ticker := time.NewTicker(1 * time.Minute)
	defer ticker.Stop()

	for range ticker.C {
		g.sweep()
	}
}
