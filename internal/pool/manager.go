// Package pool owns the process-wide document-store connection.
//
// The underlying pooled client is built lazily and shared by all requests.
// A cached client is trusted inside the health-check interval; outside it,
// the manager re-probes with a cheap ping and rebuilds the client from
// scratch when the probe fails.
package pool

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/econsult/internal/db"
	"github.com/kailas-cloud/econsult/internal/domain"
)

// Factory constructs a new pooled store connection.
type Factory func(ctx context.Context) (db.Store, error)

// Manager is a lazy, concurrency-safe holder of a single db.Store with
// rate-limited health probing.
type Manager struct {
	factory  Factory
	interval time.Duration
	logger   *zap.Logger
	now      func() time.Time // injectable clock for tests

	current atomic.Pointer[conn]
	mu      sync.Mutex
	closed  bool
}

type conn struct {
	store db.Store
	// lastProbe is the unix-nano time of the latest successful health probe,
	// updated atomically so concurrent readers never race.
	lastProbe atomic.Int64
}

// NewManager creates a pool manager. interval is the health-check freshness
// window; a cached connection is reused without probing inside it.
func NewManager(factory Factory, interval time.Duration, logger *zap.Logger) *Manager {
	return &Manager{
		factory:  factory,
		interval: interval,
		logger:   logger,
		now:      time.Now,
	}
}

// Acquire returns a healthy shared store, constructing or rebuilding it as
// needed. Concurrent first-callers construct at most once.
func (m *Manager) Acquire(ctx context.Context) (db.Store, error) {
	if c := m.current.Load(); c != nil && m.fresh(c) {
		return c.store, nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.closed {
		return nil, fmt.Errorf("%w: pool manager is shut down", domain.ErrDatabase)
	}

	// Re-check under the lock.
	c := m.current.Load()
	if c != nil {
		if m.fresh(c) {
			return c.store, nil
		}
		if err := c.store.Ping(ctx); err == nil {
			c.lastProbe.Store(m.now().UnixNano())
			return c.store, nil
		}
		m.logger.Warn("store health probe failed, rebuilding connection pool")
		c.store.Close()
		m.current.Store(nil)
	}

	store, err := m.factory(ctx)
	if err != nil {
		// Leave the cache empty so the next call retries cleanly.
		return nil, fmt.Errorf("%w: create connection pool: %w", domain.ErrDatabase, err)
	}

	if err := store.Ping(ctx); err != nil {
		store.Close()
		return nil, fmt.Errorf("%w: verify new connection pool: %w", domain.ErrDatabase, err)
	}

	fresh := &conn{store: store}
	fresh.lastProbe.Store(m.now().UnixNano())
	m.current.Store(fresh)
	m.logger.Info("connection pool created")
	return store, nil
}

// fresh reports whether the connection's last successful probe is inside the
// health-check interval.
func (m *Manager) fresh(c *conn) bool {
	last := time.Unix(0, c.lastProbe.Load())
	return m.now().Sub(last) < m.interval
}

// ReleaseAll closes the underlying pool and clears the cached handle.
// Idempotent; safe to call when no connection was ever built.
func (m *Manager) ReleaseAll() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if c := m.current.Load(); c != nil {
		c.store.Close()
		m.current.Store(nil)
		m.logger.Info("connection pool closed")
	}
	m.closed = true
}
