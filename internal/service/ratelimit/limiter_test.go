package ratelimit

import (
	"testing"
	"time"
)

type fakeClock struct{ t time.Time }

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func TestLimiterAllow(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(2, 1, WithClock(clock.now))

	steps := []struct {
		name    string
		advance time.Duration
		key     string
		want    bool
	}{
		{"first token", 0, "a", true},
		{"second token", 0, "a", true},
		{"bucket empty", 0, "a", false},
		{"other key independent", 0, "b", true},
		{"half a token is not enough", 500 * time.Millisecond, "a", false},
		{"refilled one token", 500 * time.Millisecond, "a", true},
		{"refill capped at capacity", time.Hour, "a", true},
		{"second after long idle", 0, "a", true},
		{"empty again", 0, "a", false},
	}
	for _, s := range steps {
		t.Run(s.name, func(t *testing.T) {
			clock.advance(s.advance)
			if got := l.Allow(s.key); got != s.want {
				t.Fatalf("Allow(%q) = %v, want %v", s.key, got, s.want)
			}
		})
	}
}

func TestLimiterPrunesFullBuckets(t *testing.T) {
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	l := New(1, 1, WithClock(clock.now), WithMaxKeys(2))

	l.Allow("a")
	l.Allow("b")
	clock.advance(2 * time.Second)
	l.Allow("c")

	if got := l.Len(); got != 1 {
		t.Fatalf("Len() = %d, want 1 after pruning refilled buckets", got)
	}
}
