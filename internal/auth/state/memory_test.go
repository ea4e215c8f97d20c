package state

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/cswitzer/OverboardTodosApp/internal/auth"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryGuard_IssueAndConsume(t *testing.T) {
	g := NewMemoryGuard(5 * time.Minute)
	ctx := context.Background()

	grant, err := g.Issue(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, grant.State)
	require.NotEmpty(t, grant.CodeVerifier)
	require.NotEmpty(t, grant.CodeChallenge)
	assert.NotEqual(t, grant.State, grant.CodeVerifier)

	verifier, err := g.Consume(ctx, grant.State)
	require.NoError(t, err)
	assert.Equal(t, grant.CodeVerifier, verifier)
}

func TestMemoryGuard_SingleUse(t *testing.T) {
	g := NewMemoryGuard(5 * time.Minute)
	ctx := context.Background()

	grant, err := g.Issue(ctx)
	require.NoError(t, err)

	_, err = g.Consume(ctx, grant.State)
	require.NoError(t, err)

	_, err = g.Consume(ctx, grant.State)
	assert.ErrorIs(t, err, auth.ErrInvalidState)
}

func TestMemoryGuard_UnknownValue(t *testing.T) {
	g := NewMemoryGuard(5 * time.Minute)

	_, err := g.Consume(context.Background(), "never-issued")
	assert.ErrorIs(t, err, auth.ErrInvalidState)
}

func TestMemoryGuard_Expiry(t *testing.T) {
	g := NewMemoryGuard(50 * time.Millisecond)
	ctx := context.Background()

	grant, err := g.Issue(ctx)
	require.NoError(t, err)

	time.Sleep(80 * time.Millisecond)

	_, err = g.Consume(ctx, grant.State)
	assert.ErrorIs(t, err, auth.ErrInvalidState)
}

func TestMemoryGuard_ConcurrentConsumersExactlyOneWins(t *testing.T) {
	g := NewMemoryGuard(5 * time.Minute)
	ctx := context.Background()

	grant, err := g.Issue(ctx)
	require.NoError(t, err)

	const n = 32
	var (
		wg        sync.WaitGroup
		successes int64
		mu        sync.Mutex
	)

	start := make(chan struct{})
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			if _, err := g.Consume(ctx, grant.State); err == nil {
				mu.Lock()
				successes++
				mu.Unlock()
			}
		}()
	}
	close(start)
	wg.Wait()

	assert.Equal(t, int64(1), successes)
}

func TestMemoryGuard_DistinctValues(t *testing.T) {
	g := NewMemoryGuard(5 * time.Minute)
	ctx := context.Background()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		grant, err := g.Issue(ctx)
		require.NoError(t, err)
		require.False(t, seen[grant.State], "state value issued twice")
		seen[grant.State] = true
	}
}

func TestMemoryGuard_Sweep(t *testing.T) {
	g := NewMemoryGuard(10 * time.Millisecond)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		_, err := g.Issue(ctx)
		require.NoError(t, err)
	}

	time.Sleep(30 * time.Millisecond)
	g.sweep()

	g.mu.Lock()
	defer g.mu.Unlock()
	assert.Empty(t, g.entries)
}
