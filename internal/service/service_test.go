package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"artgen-go/internal/apperr"
	"artgen-go/internal/provider"
	"artgen-go/internal/repository"

	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"
)

// stubAdapter records submissions and answers with a fixed url or error.
type stubAdapter struct {
	url   string
	err   error
	calls atomic.Int32

	mu  sync.Mutex
	ops []provider.Operation
}

func (a *stubAdapter) Name() string { return "stub" }

func (a *stubAdapter) Submit(ctx context.Context, op provider.Operation) (string, error) {
	a.calls.Inc()
	a.mu.Lock()
	a.ops = append(a.ops, op)
	a.mu.Unlock()
	if a.err != nil {
		return "", a.err
	}
	return a.url, nil
}

func (a *stubAdapter) lastOp(t *testing.T) provider.Operation {
	t.Helper()
	a.mu.Lock()
	defer a.mu.Unlock()
	require.NotEmpty(t, a.ops)
	return a.ops[len(a.ops)-1]
}

// newSeededStore returns a memory store holding the default catalog.
func newSeededStore(t *testing.T) repository.Store {
	t.Helper()
	store := repository.NewMemoryStore()
	require.NoError(t, NewCatalogService(store).SeedDefaults(context.Background()))
	return store
}

// newGenerationFixture wires a generation service to a stub adapter serving
// both catalog models.
func newGenerationFixture(t *testing.T, adapter *stubAdapter) (*GenerationService, repository.Store) {
	t.Helper()
	store := newSeededStore(t)
	gateway := provider.NewGateway(time.Second, nil)
	gateway.Register("dalle", adapter)
	gateway.Register("stable-diffusion", adapter)
	gateway.Register("gemini-vision", adapter)
	return NewGenerationService(store, gateway), store
}

func countArtifacts(t *testing.T, store repository.Store) int64 {
	t.Helper()
	total, err := store.CountArtifacts(context.Background())
	require.NoError(t, err)
	return total
}

func uintPtr(v uint) *uint { return &v }

func strPtr(v string) *string { return &v }

func requireKind(t *testing.T, err error, kind apperr.Kind) {
	t.Helper()
	require.Error(t, err)
	require.Equal(t, kind, apperr.KindOf(err), "unexpected error: %v", err)
}
