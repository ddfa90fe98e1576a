// Package encoder owns the process-wide embedding provider instance.
//
// Construction is expensive (remote client setup, optional warm-up), so the
// manager builds it lazily on first use and shares the one instance across
// all concurrent requests. A failed construction leaves the manager empty:
// the next Acquire retries.
package encoder

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/kailas-cloud/econsult/internal/domain"
)

// Factory constructs the underlying embedder. Called at most once per
// successful initialization.
type Factory func(ctx context.Context) (domain.Embedder, error)

// Manager is a lazy, concurrency-safe holder of a single Embedder.
type Manager struct {
	factory Factory
	logger  *zap.Logger

	// Fast path reads the atomic pointer without touching the mutex.
	current atomic.Pointer[holder]
	mu      sync.Mutex
}

type holder struct {
	embedder domain.Embedder
}

// NewManager creates a manager around the given factory.
func NewManager(factory Factory, logger *zap.Logger) *Manager {
	return &Manager{factory: factory, logger: logger}
}

// Acquire returns the shared embedder, constructing it on first call.
// Concurrent first-callers construct at most once; later callers return the
// cached instance without locking.
func (m *Manager) Acquire(ctx context.Context) (domain.Embedder, error) {
	if h := m.current.Load(); h != nil {
		return h.embedder, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	// Re-check under the lock: another caller may have just finished.
	if h := m.current.Load(); h != nil {
		return h.embedder, nil
	}

	m.logger.Info("initializing embedding provider")
	emb, err := m.factory(ctx)
	if err != nil {
		// Cache stays empty so the next call retries construction.
		return nil, fmt.Errorf("%w: initialize embedding provider: %w", domain.ErrEncoder, err)
	}

	m.current.Store(&holder{embedder: emb})
	m.logger.Info("embedding provider initialized")
	return emb, nil
}

// Initialized reports whether the embedder has been constructed.
func (m *Manager) Initialized() bool {
	return m.current.Load() != nil
}
