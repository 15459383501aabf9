package cache

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	v   []byte
	exp time.Time
	at  time.Time
}

// TTLCache is an in-process BytesCache bounded to maxSize entries. When full, expired
// entries are dropped first, then the oldest write.
type TTLCache struct {
	mu      sync.RWMutex
	m       map[string]entry
	maxSize int
	closed  bool
	now     func() time.Time
}

var _ BytesCache = (*TTLCache)(nil)

func NewTTLCache(maxSize int) *TTLCache {
	if maxSize <= 0 {
		maxSize = 1000
	}
	return &TTLCache{m: make(map[string]entry), maxSize: maxSize, now: time.Now}
}

func (c *TTLCache) GetBytes(_ context.Context, key string) ([]byte, bool, error) {
	c.mu.RLock()
	e, ok := c.m[key]
	closed := c.closed
	c.mu.RUnlock()
	if closed {
		return nil, false, ErrClosed
	}
	if !ok {
		return nil, false, nil
	}
	if !e.exp.IsZero() && c.now().After(e.exp) {
		c.mu.Lock()
		delete(c.m, key)
		c.mu.Unlock()
		return nil, false, nil
	}
	return e.v, true, nil
}

func (c *TTLCache) SetBytes(_ context.Context, key string, value []byte, ttl time.Duration) error {
	now := c.now()
	var exp time.Time
	if ttl > 0 {
		exp = now.Add(ttl)
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return ErrClosed
	}
	if _, exists := c.m[key]; !exists && len(c.m) >= c.maxSize {
		c.evict(now)
	}
	c.m[key] = entry{v: value, exp: exp, at: now}
	return nil
}

// evict frees at least one slot. Caller holds mu.
func (c *TTLCache) evict(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for k, e := range c.m {
		if !e.exp.IsZero() && now.After(e.exp) {
			delete(c.m, k)
			continue
		}
		if oldestKey == "" || e.at.Before(oldest) {
			oldestKey, oldest = k, e.at
		}
	}
	if len(c.m) >= c.maxSize && oldestKey != "" {
		delete(c.m, oldestKey)
	}
}

// Len returns the number of stored entries, expired ones included.
func (c *TTLCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.m)
}

func (c *TTLCache) Close() error {
	c.mu.Lock()
	c.closed = true
	c.m = make(map[string]entry)
	c.mu.Unlock()
	return nil
}
