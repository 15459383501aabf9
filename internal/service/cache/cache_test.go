package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTTLCacheExpiry(t *testing.T) {
	ctx := context.Background()
	c := NewTTLCache(10)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	if err := c.SetBytes(ctx, "a", []byte("1"), time.Minute); err != nil {
		t.Fatal(err)
	}
	if err := c.SetBytes(ctx, "b", []byte("2"), 0); err != nil {
		t.Fatal(err)
	}

	now = now.Add(2 * time.Minute)
	if _, ok, _ := c.GetBytes(ctx, "a"); ok {
		t.Error("expired entry returned")
	}
	if b, ok, _ := c.GetBytes(ctx, "b"); !ok || string(b) != "2" {
		t.Errorf("entry without ttl = %q, %v", b, ok)
	}
}

func TestTTLCacheEvictsOldest(t *testing.T) {
	ctx := context.Background()
	c := NewTTLCache(2)
	now := time.Date(2024, 1, 1, 9, 0, 0, 0, time.UTC)
	c.now = func() time.Time { return now }

	for _, k := range []string{"a", "b", "c"} {
		now = now.Add(time.Second)
		_ = c.SetBytes(ctx, k, []byte(k), 0)
	}
	if c.Len() != 2 {
		t.Fatalf("len = %d, want 2", c.Len())
	}
	if _, ok, _ := c.GetBytes(ctx, "a"); ok {
		t.Error("oldest entry survived eviction")
	}
	if _, ok, _ := c.GetBytes(ctx, "c"); !ok {
		t.Error("newest entry evicted")
	}
}

func TestTTLCacheClosed(t *testing.T) {
	c := NewTTLCache(1)
	_ = c.Close()
	if err := c.SetBytes(context.Background(), "a", nil, 0); !errors.Is(err, ErrClosed) {
		t.Errorf("err = %v, want ErrClosed", err)
	}
}

func TestLayeredCachePromotes(t *testing.T) {
	ctx := context.Background()
	l1, l2 := NewTTLCache(10), NewTTLCache(10)
	c := NewLayeredCache(l1, l2, time.Minute)

	_ = l2.SetBytes(ctx, "k", []byte("v"), 0)
	b, ok, err := c.GetBytes(ctx, "k")
	if err != nil || !ok || string(b) != "v" {
		t.Fatalf("get = %q, %v, %v", b, ok, err)
	}
	if _, ok, _ := l1.GetBytes(ctx, "k"); !ok {
		t.Error("l2 hit not promoted to l1")
	}

	_ = c.SetBytes(ctx, "w", []byte("x"), time.Hour)
	if _, ok, _ := l2.GetBytes(ctx, "w"); !ok {
		t.Error("write did not reach l2")
	}
}

func TestKey(t *testing.T) {
	if got := Key("opt", "abc", "2"); got != "opt:abc:2" {
		t.Errorf("Key = %q", got)
	}
}
