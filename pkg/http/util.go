package http

import (
	"time"

	xutil "BoundaryLab/pkg/util"
)

// ParseTime tries RFC3339, RFC3339Nano, and unix seconds. Returns (t, true) if any worked.
func ParseTime(s string) (time.Time, bool) { return xutil.ParseTime(s) }

// ParseRange parses optional from/to query values, defaulting to the lookback before now.
func ParseRange(from, to string, lookback time.Duration) (time.Time, time.Time, error) {
	return xutil.ParseRange(from, to, time.Now().UTC(), lookback)
}
