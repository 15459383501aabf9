package util

import (
	"fmt"
	"strconv"
	"time"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) {
	if s == "" {
		return time.Time{}, false
	}
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t, true
	}
	if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
		return t, true
	}
	if ts, err := strconv.ParseInt(s, 10, 64); err == nil && ts > 0 {
		return time.Unix(ts, 0), true
	}
	return time.Time{}, false
}

// ParseTimeDefault parses time or returns default if empty/invalid.
func ParseTimeDefault(s string, def time.Time) time.Time {
	if t, ok := ParseTime(s); ok {
		return t
	}
	return def
}

// ParseRange parses an optional from/to pair. Missing bounds fall back to
// [now-lookback, now]. Unparseable bounds and from >= to are errors.
func ParseRange(from, to string, now time.Time, lookback time.Duration) (time.Time, time.Time, error) {
	end := now
	if to != "" {
		t, ok := ParseTime(to)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid to %q", to)
		}
		end = t
	}
	start := end.Add(-lookback)
	if from != "" {
		t, ok := ParseTime(from)
		if !ok {
			return time.Time{}, time.Time{}, fmt.Errorf("invalid from %q", from)
		}
		start = t
	}
	if !start.Before(end) {
		return time.Time{}, time.Time{}, fmt.Errorf("from %s must be before to %s", start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return start, end, nil
}
