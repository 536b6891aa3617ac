package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryCache is a process-local cache with TTL expiry and an entry bound
type MemoryCache struct {
	mu     sync.Mutex
	items  map[string]memoryItem
	config Config
	now    func() time.Time
	cancel context.CancelFunc
}

type memoryItem struct {
	value      []byte
	expiration time.Time
}

func (i memoryItem) expired(now time.Time) bool {
	return !i.expiration.IsZero() && now.After(i.expiration)
}

// NewMemoryCache creates a memory cache and starts its expiry sweeper
func NewMemoryCache(config Config) *MemoryCache {
	ctx, cancel := context.WithCancel(context.Background())
	mc := &MemoryCache{
		items:  make(map[string]memoryItem),
		config: config,
		now:    time.Now,
		cancel: cancel,
	}
	go mc.sweep(ctx, time.Minute)
	return mc
}

// Get retrieves a value from the cache
func (m *MemoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[m.config.Prefix+key]
	if !ok {
		return nil, ErrMiss
	}
	if item.expired(m.now()) {
		delete(m.items, m.config.Prefix+key)
		return nil, ErrMiss
	}
	return item.value, nil
}

// Set stores a value in the cache. When the cache is full, expired entries
// are dropped first, then the entry closest to expiry.
func (m *MemoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if ttl == 0 {
		ttl = m.config.DefaultTTL
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	fullKey := m.config.Prefix + key
	if _, exists := m.items[fullKey]; !exists && m.config.MaxEntries > 0 && len(m.items) >= m.config.MaxEntries {
		m.evict(now)
	}

	item := memoryItem{value: value}
	if ttl > 0 {
		item.expiration = now.Add(ttl)
	}
	m.items[fullKey] = item
	return nil
}

// evict makes room for one entry; the caller holds the lock
func (m *MemoryCache) evict(now time.Time) {
	var victim string
	var soonest time.Time
	for k, item := range m.items {
		if item.expired(now) {
			delete(m.items, k)
			continue
		}
		if victim == "" || (!item.expiration.IsZero() && (soonest.IsZero() || item.expiration.Before(soonest))) {
			victim, soonest = k, item.expiration
		}
	}
	if len(m.items) >= m.config.MaxEntries && victim != "" {
		delete(m.items, victim)
	}
}

// Clear removes all values from the cache
func (m *MemoryCache) Clear(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	m.items = make(map[string]memoryItem)
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Close stops the background sweeper
func (m *MemoryCache) Close() error {
	if m.cancel != nil {
		m.cancel()
	}
	return nil
}

func (m *MemoryCache) sweep(ctx context.Context, every time.Duration) {
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			m.mu.Lock()
			now := m.now()
			for k, item := range m.items {
				if item.expired(now) {
					delete(m.items, k)
				}
			}
			m.mu.Unlock()
		}
	}
}
