package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

const minimal = `
clickhouse:
  host: ch.local
`

func TestParseDefaults(t *testing.T) {
	c, err := Parse([]byte(minimal))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	tests := []struct {
		name string
		got  interface{}
		want interface{}
	}{
		{"environment", c.Environment, "development"},
		{"port", c.Server.Port, 8080},
		{"write timeout", c.Server.WriteTimeout, 2 * time.Minute},
		{"clickhouse port", c.ClickHouse.Port, 9000},
		{"table", c.ClickHouse.Table, "price_movements"},
		{"cache backend", c.Cache.Backend, "memory"},
		{"target", c.Optimization.TargetATRMove, 2.0},
		{"tree enabled", c.Optimization.EnableDecisionTree, true},
		{"k folds", c.Validation.KFolds, 5},
		{"holdout", c.Validation.Holdout(), 0.2},
		{"min corr", c.Statistical.CorrelationFloor(), 0.1},
		{"metrics", c.Metrics.Enabled, true},
		{"rate limit off", c.Server.RateLimit.Enabled, false},
		{"rate limit burst", c.Server.RateLimit.Burst, 10.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.got != tt.want {
				t.Fatalf("got %v, want %v", tt.got, tt.want)
			}
		})
	}
}

func TestParseKeepsZeroThresholds(t *testing.T) {
	c, err := Parse([]byte(minimal + "optimization:\n  minimum_hit_rate: 0\nvalidation:\n  holdout_fraction: 0\nstatistical:\n  minimum_correlation: 0\n"))
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if got := c.Optimization.HitRateFloor(); got != 0 {
		t.Errorf("hit rate floor = %v, want 0", got)
	}
	if got := c.Validation.Holdout(); got != 0 {
		t.Errorf("holdout = %v, want 0", got)
	}
	if got := c.Statistical.CorrelationFloor(); got != 0 {
		t.Errorf("correlation floor = %v, want 0", got)
	}
}

func TestParseRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{"missing host", "server:\n  port: 8080\n", "Host"},
		{"bad cache backend", minimal + "cache:\n  backend: disk\n", "Backend"},
		{"train plus test", minimal + "validation:\n  training_percentage: 0.7\n  testing_percentage: 0.5\n", "must not exceed 1"},
		{"no strategy", minimal + "optimization:\n  enable_decision_tree: false\n  enable_clustering: false\n  enable_gradient_search: false\n", "at least one strategy"},
		{"kafka without brokers", minimal + "kafka:\n  enabled: true\n", "kafka.brokers"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.yaml))
			if err == nil {
				t.Fatalf("expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("error %q does not mention %q", err, tt.want)
			}
		})
	}
}

func TestLoadWithEnv(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(minimal), 0o600); err != nil {
		t.Fatal(err)
	}
	envPath := filepath.Join(dir, ".env")
	if err := os.WriteFile(envPath, []byte("OUTLIER_SERVICE_URL=http://outliers:9100\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")
	t.Setenv("TARGET_ATR_MOVE", "1.5")
	t.Setenv("CLICKHOUSE_HOST", "ch.override")
	t.Cleanup(func() { os.Unsetenv("OUTLIER_SERVICE_URL") })

	c, err := LoadWithEnv(path, envPath)
	if err != nil {
		t.Fatalf("LoadWithEnv: %v", err)
	}
	if !c.Kafka.Enabled || len(c.Kafka.Brokers) != 2 {
		t.Fatalf("kafka = %+v", c.Kafka)
	}
	if c.Optimization.TargetATRMove != 1.5 {
		t.Fatalf("target = %v", c.Optimization.TargetATRMove)
	}
	if c.ClickHouse.Host != "ch.override" {
		t.Fatalf("host = %s", c.ClickHouse.Host)
	}
	if c.Outlier.URL != "http://outliers:9100" {
		t.Fatalf("outlier url = %q", c.Outlier.URL)
	}
}
