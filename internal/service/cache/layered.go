package cache

import (
	"context"
	"time"
)

// LayeredCache reads through a small in-process L1 in front of a shared L2.
type LayeredCache struct {
	l1    BytesCache
	l2    BytesCache
	l1TTL time.Duration
}

var _ BytesCache = (*LayeredCache)(nil)

// NewLayeredCache promotes L2 hits into l1 for at most l1TTL.
func NewLayeredCache(l1, l2 BytesCache, l1TTL time.Duration) *LayeredCache {
	return &LayeredCache{l1: l1, l2: l2, l1TTL: l1TTL}
}

func (c *LayeredCache) GetBytes(ctx context.Context, key string) ([]byte, bool, error) {
	if b, ok, err := c.l1.GetBytes(ctx, key); err == nil && ok {
		return b, true, nil
	}
	b, ok, err := c.l2.GetBytes(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	_ = c.l1.SetBytes(ctx, key, b, c.l1TTL)
	return b, true, nil
}

// SetBytes writes through: L2 first, then L1.
func (c *LayeredCache) SetBytes(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := c.l2.SetBytes(ctx, key, value, ttl); err != nil {
		return err
	}
	l1ttl := c.l1TTL
	if ttl > 0 && ttl < l1ttl {
		l1ttl = ttl
	}
	_ = c.l1.SetBytes(ctx, key, value, l1ttl)
	return nil
}

func (c *LayeredCache) Close() error {
	_ = c.l1.Close()
	return c.l2.Close()
}
