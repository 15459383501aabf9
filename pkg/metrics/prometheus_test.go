package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecorder(t *testing.T) {
	reg := prometheus.NewRegistry()
	r := New(reg)

	r.RecordStrategyRun("clustering", 0.02, 0, true)
	r.RecordStrategyRun("clustering", 0.03, 2, false)
	r.RecordFold("expanding_window", true)
	r.RecordFold("expanding_window", false)
	r.RecordFold("expanding_window", false)
	r.RecordError("")
	r.RecordError("insufficient_data")
	r.RecordPublished("kafka")

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"abstentions", testutil.ToFloat64(r.abstentions.WithLabelValues("clustering")), 1},
		{"latest boundaries", testutil.ToFloat64(r.boundaries.WithLabelValues("clustering")), 2},
		{"failed folds", testutil.ToFloat64(r.folds.WithLabelValues("expanding_window", "failed")), 2},
		{"ok folds", testutil.ToFloat64(r.folds.WithLabelValues("expanding_window", "ok")), 1},
		{"internal errors", testutil.ToFloat64(r.errorsTotal.WithLabelValues("internal")), 1},
		{"published", testutil.ToFloat64(r.eventsPublished.WithLabelValues("kafka")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
	if n := testutil.CollectAndCount(r.strategyRuns); n != 1 {
		t.Errorf("strategy histogram series = %d, want 1", n)
	}
}
