package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"BoundaryLab/internal/domain/models"
	"BoundaryLab/pkg/validate"
)

type Config struct {
	Environment string `yaml:"environment" default:"development" validate:"oneof=development staging production test"`
	Server      struct {
		Host            string        `yaml:"host" default:"0.0.0.0"`
		Port            int           `yaml:"port" default:"8080" validate:"gte=1,lte=65535"`
		ReadTimeout     time.Duration `yaml:"read_timeout" default:"10s"`
		WriteTimeout    time.Duration `yaml:"write_timeout" default:"2m"`
		ShutdownTimeout time.Duration `yaml:"shutdown_timeout" default:"10s"`
		SlowThreshold   time.Duration `yaml:"slow_threshold" default:"5s"`
		RateLimit       struct {
			Enabled   bool    `yaml:"enabled"`
			Burst     float64 `yaml:"burst" default:"10" validate:"gte=1"`
			PerSecond float64 `yaml:"per_second" default:"2" validate:"gt=0"`
		} `yaml:"rate_limit"`
	} `yaml:"server"`
	Log struct {
		Level  string `yaml:"level" default:"info" validate:"oneof=trace debug info warn error"`
		Format string `yaml:"format" default:"json" validate:"oneof=json console"`
		Output string `yaml:"output" default:"stdout"`
		Collector struct {
			Enabled   bool          `yaml:"enabled"`
			Interval  time.Duration `yaml:"interval" default:"30s"`
			Threshold int           `yaml:"threshold" default:"100" validate:"gte=1"`
			Topic     string        `yaml:"topic" default:"boundarylab.logs"`
		} `yaml:"collector"`
	} `yaml:"log"`
	Metrics struct {
		Enabled bool `yaml:"enabled"`
	} `yaml:"metrics"`
	ClickHouse struct {
		Host             string        `yaml:"host" validate:"required"`
		Port             int           `yaml:"port" default:"9000" validate:"gte=1,lte=65535"`
		Database         string        `yaml:"database" default:"market"`
		User             string        `yaml:"user" default:"default"`
		Password         string        `yaml:"password"`
		Table            string        `yaml:"table" default:"price_movements"`
		UseHTTP          bool          `yaml:"use_http"`
		AutoMigrate      bool          `yaml:"auto_migrate"`
		DialTimeout      time.Duration `yaml:"dial_timeout" default:"5s"`
		ReadTimeout      time.Duration `yaml:"read_timeout" default:"30s"`
		MaxExecutionTime time.Duration `yaml:"max_execution_time" default:"60s"`
	} `yaml:"clickhouse"`
	Kafka struct {
		Enabled      bool     `yaml:"enabled"`
		Brokers      []string `yaml:"brokers"`
		Topic        string   `yaml:"topic" default:"boundarylab.analysis"`
		RequiredAcks int      `yaml:"required_acks" default:"-1" validate:"oneof=-1 0 1"`
		Compression  string   `yaml:"compression" default:"snappy" validate:"oneof=none gzip snappy lz4 zstd"`
		Producer     struct {
			MaxAttempts  int           `yaml:"max_attempts" default:"5" validate:"gte=1"`
			Linger       time.Duration `yaml:"linger" default:"50ms"`
			BatchBytes   int           `yaml:"batch_bytes" default:"1048576"`
			BatchSize    int           `yaml:"batch_size" default:"100"`
			WriteTimeout time.Duration `yaml:"write_timeout" default:"10s"`
			ReadTimeout  time.Duration `yaml:"read_timeout" default:"10s"`
		} `yaml:"producer"`
		Consumer struct {
			Enabled      bool          `yaml:"enabled"`
			RequestTopic string        `yaml:"request_topic" default:"boundarylab.analysis.requests"`
			GroupID      string        `yaml:"group_id" default:"boundarylab"`
			Workers      int           `yaml:"workers" default:"2" validate:"gte=1,lte=64"`
			RetryMax     int           `yaml:"retry_max" default:"3" validate:"gte=0"`
			BackoffMin   time.Duration `yaml:"backoff_min" default:"100ms"`
			BackoffMax   time.Duration `yaml:"backoff_max" default:"5s"`
			DLQTopic     string        `yaml:"dlq_topic"`
		} `yaml:"consumer"`
	} `yaml:"kafka"`
	Cache struct {
		Backend    string        `yaml:"backend" default:"memory" validate:"oneof=none memory redis layered"`
		TTL        time.Duration `yaml:"ttl" default:"15m"`
		MemoryTTL  time.Duration `yaml:"memory_ttl" default:"1m"`
		MaxEntries int           `yaml:"max_entries" default:"256" validate:"gte=1"`
		Redis      struct {
			Addr     string `yaml:"addr" default:"localhost:6379"`
			Password string `yaml:"password"`
			DB       int    `yaml:"db"`
			PoolSize int    `yaml:"pool_size" default:"10"`
			Prefix   string `yaml:"prefix" default:"boundarylab:"`
		} `yaml:"redis"`
	} `yaml:"cache"`
	Outlier struct {
		URL       string        `yaml:"url"`
		Timeout   time.Duration `yaml:"timeout" default:"3s"`
		Attempts  int           `yaml:"attempts" default:"3" validate:"gte=1,lte=10"`
		Threshold float64       `yaml:"threshold" default:"4.0" validate:"gt=0"`
	} `yaml:"outlier"`
	Analysis struct {
		Timeout  time.Duration `yaml:"timeout" default:"2m"`
		Lookback time.Duration `yaml:"lookback" default:"720h"`
	} `yaml:"analysis"`
	Optimization models.MLOptimizationConfig `yaml:"optimization"`
	Validation   models.ValidationConfig     `yaml:"validation"`
	Statistical  models.StatisticalConfig    `yaml:"statistical"`
}

// Default returns a config with every strategy enabled and tag defaults applied.
func Default() *Config {
	c := &Config{Optimization: models.DefaultMLOptimizationConfig()}
	c.Metrics.Enabled = true
	return c
}

// Load reads and parses a YAML configuration file.
func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(b)
}

// Parse decodes YAML over Default and validates the result.
func Parse(b []byte) (*Config, error) {
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

// LoadWithEnv loads an optional .env file, the YAML config and then applies
// environment overrides.
func LoadWithEnv(path string, envFiles ...string) (*Config, error) {
	if err := godotenv.Load(envFiles...); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("load env: %w", err)
	}

	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c := Default()
	if err := yaml.Unmarshal(b, c); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := c.applyEnv(); err != nil {
		return nil, err
	}
	if err := c.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}
	return c, nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv("APP_ENV"); v != "" {
		c.Environment = v
	}
	if v := os.Getenv("LOG_LEVEL"); v != "" {
		c.Log.Level = v
	}
	if v := os.Getenv("CLICKHOUSE_HOST"); v != "" {
		c.ClickHouse.Host = v
	}
	if v := os.Getenv("CLICKHOUSE_PASSWORD"); v != "" {
		c.ClickHouse.Password = v
	}
	if v := os.Getenv("KAFKA_BROKERS"); v != "" {
		c.Kafka.Brokers = strings.Split(v, ",")
		c.Kafka.Enabled = true
	}
	if v := os.Getenv("KAFKA_TOPIC"); v != "" {
		c.Kafka.Topic = v
	}
	if v := os.Getenv("REDIS_ADDR"); v != "" {
		c.Cache.Redis.Addr = v
	}
	if v := os.Getenv("OUTLIER_SERVICE_URL"); v != "" {
		c.Outlier.URL = v
	}
	if v := os.Getenv("SERVER_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SERVER_PORT: %w", err)
		}
		c.Server.Port = port
	}
	if v := os.Getenv("TARGET_ATR_MOVE"); v != "" {
		target, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("TARGET_ATR_MOVE: %w", err)
		}
		c.Optimization.TargetATRMove = target
	}
	return nil
}

// Validate fills defaults and checks field rules plus cross-field constraints.
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return err
	}
	if c.Validation.TrainingPercentage+c.Validation.TestingPercentage > 1+1e-9 {
		return fmt.Errorf("validation.training_percentage + validation.testing_percentage must not exceed 1")
	}
	if !c.Optimization.EnableDecisionTree && !c.Optimization.EnableClustering && !c.Optimization.EnableGradientSearch {
		return fmt.Errorf("optimization: at least one strategy must be enabled")
	}
	if c.Kafka.Consumer.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("kafka.consumer requires kafka.enabled")
	}
	if c.Log.Collector.Enabled && !c.Kafka.Enabled {
		return fmt.Errorf("log.collector requires kafka.enabled")
	}
	if c.Kafka.Enabled && len(c.Kafka.Brokers) == 0 {
		return fmt.Errorf("kafka.brokers cannot be empty when kafka is enabled")
	}
	if (c.Cache.Backend == "redis" || c.Cache.Backend == "layered") && c.Cache.Redis.Addr == "" {
		return fmt.Errorf("cache.redis.addr is required for backend %q", c.Cache.Backend)
	}
	return nil
}
