package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"
)

// Memo maps fetch operations to their last result and fetch time. A result
// is reused until its staleness window elapses. The optional backend lets
// windows outlive the process.
type Memo struct {
	mu        sync.Mutex
	entries   map[string]Entry
	backend   Backend
	logger    *slog.Logger
	now       func() time.Time
	expiredAt time.Time
	hits      int
	misses    int
}

func NewMemo(backend Backend, logger *slog.Logger) *Memo {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Memo{
		entries: make(map[string]Entry),
		backend: backend,
		logger:  logger,
		now:     time.Now,
	}
}

// Expire forgets every memoized result, including those in the backend, so
// the next lookup of each operation goes to the network.
func (m *Memo) Expire() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.entries = make(map[string]Entry)
	m.expiredAt = m.now()
}

// Stats returns the hit and miss counts since creation.
func (m *Memo) Stats() (hits, misses int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.hits, m.misses
}

func (m *Memo) fresh(e Entry, ttl time.Duration) bool {
	if !m.expiredAt.IsZero() && e.FetchedAt.Before(m.expiredAt) {
		return false
	}
	return m.now().Sub(e.FetchedAt) < ttl
}

func (m *Memo) lookup(ctx context.Context, key string, ttl time.Duration) ([]byte, bool) {
	m.mu.Lock()
	e, ok := m.entries[key]
	if ok && m.fresh(e, ttl) {
		m.hits++
		m.mu.Unlock()
		return e.Body, true
	}
	m.mu.Unlock()

	if m.backend == nil {
		return nil, false
	}
	e, ok, err := m.backend.Load(ctx, key)
	if err != nil {
		m.logger.Warn("cache backend load failed", "key", key, "error", err)
		return nil, false
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if !ok || !m.fresh(e, ttl) {
		return nil, false
	}
	m.entries[key] = e
	m.hits++
	return e.Body, true
}

func (m *Memo) store(ctx context.Context, key string, body []byte, ttl time.Duration) {
	m.mu.Lock()
	e := Entry{Key: key, Body: body, FetchedAt: m.now()}
	m.entries[key] = e
	m.mu.Unlock()

	if m.backend == nil {
		return
	}
	if err := m.backend.Save(ctx, e, ttl); err != nil {
		m.logger.Warn("cache backend save failed", "key", key, "error", err)
	}
}

func (m *Memo) miss() {
	m.mu.Lock()
	m.misses++
	m.mu.Unlock()
}

// Remember returns the memoized result of the operation named key when it
// is younger than ttl, and otherwise calls fetch and memoizes its result.
// Errors are never memoized.
func Remember[T any](ctx context.Context, m *Memo, key string, ttl time.Duration, fetch func(context.Context) (T, error)) (T, error) {
	if body, ok := m.lookup(ctx, key, ttl); ok {
		var v T
		if err := json.Unmarshal(body, &v); err == nil {
			m.logger.Debug("cache hit", "key", key)
			return v, nil
		}
		m.logger.Warn("discarding undecodable cache entry", "key", key)
	}

	m.miss()
	m.logger.Debug("cache miss", "key", key)

	v, err := fetch(ctx)
	if err != nil {
		return v, err
	}

	body, err := json.Marshal(v)
	if err != nil {
		return v, fmt.Errorf("encoding %s for cache: %w", key, err)
	}
	m.store(ctx, key, body, ttl)
	return v, nil
}
