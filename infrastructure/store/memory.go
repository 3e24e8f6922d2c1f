package store

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ahrav/go-saaty/internal/domain"
	"github.com/ahrav/go-saaty/internal/ports"
)

// Verify interface compliance at compile time.
var (
	_ ports.ResultStore = (*MemoryResultStore)(nil)
	_ ports.CacheStore  = (*MemoryCacheStore)(nil)
)

// errEmptyReportID rejects Save calls with no usable key.
var errEmptyReportID = errors.New("report must have an ID")

// MemoryResultStore keeps reports in process memory. It backs single-node
// deployments that run without Redis, and tests. Reports never expire.
type MemoryResultStore struct {
	mu      sync.RWMutex
	reports map[string]*domain.Report
}

// NewMemoryResultStore creates an empty in-memory report store.
func NewMemoryResultStore() *MemoryResultStore {
	return &MemoryResultStore{reports: make(map[string]*domain.Report)}
}

// Save stores a report under its run ID. The report is treated as
// immutable; callers must not mutate it after saving.
func (s *MemoryResultStore) Save(ctx context.Context, report *domain.Report) error {
	if report == nil || report.ID == "" {
		return ports.NewStoreError("", "save", errEmptyReportID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports[report.ID] = report
	return nil
}

// Get retrieves a report by run ID.
func (s *MemoryResultStore) Get(ctx context.Context, id string) (*domain.Report, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	report, ok := s.reports[id]
	if !ok {
		return nil, ports.NewStoreError(id, "get", ports.ErrReportNotFound)
	}
	return report, nil
}

// Delete removes a report by run ID. Deleting a missing report is not an
// error.
func (s *MemoryResultStore) Delete(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reports, id)
	return nil
}

// cacheEntry pairs a cached value with its optional expiry.
type cacheEntry struct {
	value     any
	expiresAt time.Time
}

// expired reports whether the entry is past its expiry at the given time.
func (e cacheEntry) expired(now time.Time) bool {
	return !e.expiresAt.IsZero() && now.After(e.expiresAt)
}

// MemoryCacheStore is a process-local cache with lazy expiration: expired
// entries are dropped when read, not on a timer.
type MemoryCacheStore struct {
	mu      sync.Mutex
	entries map[string]cacheEntry
}

// NewMemoryCacheStore creates an empty in-memory cache.
func NewMemoryCacheStore() *MemoryCacheStore {
	return &MemoryCacheStore{entries: make(map[string]cacheEntry)}
}

// Get retrieves a cached value, evicting it first if it has expired.
func (c *MemoryCacheStore) Get(ctx context.Context, key string) (any, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[key]
	if !ok {
		return nil, false, nil
	}
	if entry.expired(time.Now()) {
		delete(c.entries, key)
		return nil, false, nil
	}
	return entry.value, true, nil
}

// Set stores a value. A zero expiration keeps the value until deleted.
func (c *MemoryCacheStore) Set(ctx context.Context, key string, value any, expiration time.Duration) error {
	entry := cacheEntry{value: value}
	if expiration > 0 {
		entry.expiresAt = time.Now().Add(expiration)
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = entry
	return nil
}

// Delete removes a key. Deleting a missing key is not an error.
func (c *MemoryCacheStore) Delete(ctx context.Context, key string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
	return nil
}

// Clear removes all cached values.
func (c *MemoryCacheStore) Clear(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
	return nil
}
