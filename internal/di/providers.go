package di

import (
	"context"
	"fmt"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	domrepo "BoundaryLab/internal/domain/repository"
	"BoundaryLab/internal/handler/api"
	"BoundaryLab/internal/handler/consumer"
	internalrepo "BoundaryLab/internal/repository"
	"BoundaryLab/internal/service/cache"
	"BoundaryLab/internal/service/ratelimit"
	"BoundaryLab/internal/services/analytics"
	"BoundaryLab/internal/usecase"
	pkgch "BoundaryLab/pkg/clickhouse"
	"BoundaryLab/pkg/config"
	xhttp "BoundaryLab/pkg/http"
	pkgkafka "BoundaryLab/pkg/kafka"
	applogger "BoundaryLab/pkg/logger"
	"BoundaryLab/pkg/metrics"
	"BoundaryLab/pkg/server"
)

// ProvideLogger creates the root logger.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	return applogger.New(&applogger.Config{
		Level:  cfg.Log.Level,
		Format: cfg.Log.Format,
		Output: cfg.Log.Output,
	})
}

// ProvideRegistry creates the Prometheus registry served on /metrics.
func ProvideRegistry() *prometheus.Registry {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return reg
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics(reg *prometheus.Registry) *metrics.Recorder {
	return metrics.New(reg)
}

// ProvideClickHouseClient connects and, when configured, creates the movements table.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	client, err := pkgch.NewClient(ctx,
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	if cfg.ClickHouse.AutoMigrate {
		if err := client.InitSchema(ctx, internalrepo.Schema(cfg.ClickHouse.Table)); err != nil {
			_ = client.Close()
			return nil, fmt.Errorf("clickhouse schema: %w", err)
		}
	}
	return client, nil
}

// ProvideMovementStore creates the ClickHouse movement store.
func ProvideMovementStore(ch *pkgch.Client, cfg *config.Config, log *applogger.Logger) domrepo.MovementStore {
	return internalrepo.NewCHMovementStore(ch.DB(), cfg.ClickHouse.Table, log.With("movement_store"))
}

// ProvideKafkaProducer creates a Kafka producer, or nil when Kafka is disabled.
func ProvideKafkaProducer(cfg *config.Config, reg *prometheus.Registry) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(reg,
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatching(cfg.Kafka.Producer.BatchSize, cfg.Kafka.Producer.BatchBytes, cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvideResultPublisher publishes analysis events to Kafka when enabled.
func ProvideResultPublisher(producer *pkgkafka.Producer, cfg *config.Config) domrepo.ResultPublisher {
	if producer == nil {
		return internalrepo.NopResultPublisher{}
	}
	return internalrepo.NewKafkaResultPublisher(producer, cfg.Kafka.Topic)
}

// ProvideCache builds the optimizer cache backend; nil disables caching.
func ProvideCache(cfg *config.Config) (cache.BytesCache, error) {
	c := cfg.Cache
	redisCfg := cache.RedisConfig{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		PoolSize: c.Redis.PoolSize,
		Prefix:   c.Redis.Prefix,
	}
	switch c.Backend {
	case "none":
		return nil, nil
	case "memory":
		return cache.NewTTLCache(c.MaxEntries), nil
	case "redis", "layered":
		r := cache.NewRedisCache(redisCfg)
		ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancel()
		if err := r.Ping(ctx); err != nil {
			_ = r.Close()
			return nil, fmt.Errorf("redis cache: %w", err)
		}
		if c.Backend == "redis" {
			return r, nil
		}
		return cache.NewLayeredCache(cache.NewTTLCache(c.MaxEntries), r, c.MemoryTTL), nil
	default:
		return nil, fmt.Errorf("unknown cache backend %q", c.Backend)
	}
}

// ProvideOutlierFilter uses the external detector when a URL is configured.
func ProvideOutlierFilter(cfg *config.Config) domrepo.OutlierFilter {
	if cfg.Outlier.URL == "" {
		return analytics.PassThroughFilter{}
	}
	return analytics.NewHTTPOutlierFilter(cfg.Outlier.URL, cfg.Outlier.Timeout, cfg.Outlier.Attempts, cfg.Outlier.Threshold)
}

// ProvideBoundaryFinder builds the optimizer, memoized when a cache is configured.
func ProvideBoundaryFinder(cfg *config.Config, m *metrics.Recorder, c cache.BytesCache, log *applogger.Logger) (usecase.BoundaryFinder, error) {
	opt, err := usecase.NewBoundaryOptimizer(cfg.Optimization,
		usecase.WithOptimizerMetrics(m),
		usecase.WithOptimizerLogger(log.With("optimizer")),
	)
	if err != nil {
		return nil, fmt.Errorf("boundary optimizer: %w", err)
	}
	if c == nil {
		return opt, nil
	}
	return usecase.NewCachedOptimizer(opt, c, cfg.Cache.TTL, log.With("optimizer_cache")), nil
}

func ProvideCrossValidation(finder usecase.BoundaryFinder, cfg *config.Config, m *metrics.Recorder, log *applogger.Logger) *usecase.CrossValidationService {
	return usecase.NewCrossValidationService(finder, cfg.Validation, m, log.With("cross_validation"))
}

func ProvideBacktestService(cfg *config.Config, finder usecase.BoundaryFinder, m *metrics.Recorder, log *applogger.Logger) (*usecase.BacktestService, error) {
	return usecase.NewBacktestService(cfg.Validation, cfg.Statistical,
		usecase.WithBoundaryFinder(finder),
		usecase.WithBacktestMetrics(m),
		usecase.WithBacktestLogger(log.With("backtest")),
	)
}

func ProvideAnalysisUseCase(
	cfg *config.Config,
	store domrepo.MovementStore,
	finder usecase.BoundaryFinder,
	cv *usecase.CrossValidationService,
	bt *usecase.BacktestService,
	pub domrepo.ResultPublisher,
	filter domrepo.OutlierFilter,
	m *metrics.Recorder,
	log *applogger.Logger,
) *usecase.AnalysisUseCase {
	return usecase.NewAnalysisUseCase(store, finder, cv, bt, cfg.Validation.Holdout(),
		usecase.WithPublisher(pub),
		usecase.WithOutlierFilter(filter),
		usecase.WithAnalysisTimeout(cfg.Analysis.Timeout),
		usecase.WithAnalysisMetrics(m),
		usecase.WithAnalysisLogger(log.With("analysis")),
	)
}

func ProvideHTTPHandler(cfg *config.Config, uc *usecase.AnalysisUseCase, store domrepo.MovementStore, log *applogger.Logger) *api.AnalysisEchoHandler {
	return api.NewAnalysisEchoHandler(log.With("http"), uc, store, cfg.Analysis.Lookback)
}

func ProvideHTTPServer(cfg *config.Config, h *api.AnalysisEchoHandler, reg *prometheus.Registry, log *applogger.Logger) *xhttp.Server {
	opts := []xhttp.ServerOption{
		xhttp.WithHost(cfg.Server.Host),
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithLogger(log.With("http")),
	}
	if cfg.Metrics.Enabled {
		opts = append(opts, xhttp.WithRegistry(reg))
	}
	if rl := cfg.Server.RateLimit; rl.Enabled {
		opts = append(opts, xhttp.WithRateLimit(ratelimit.New(rl.Burst, rl.PerSecond)))
	}
	return xhttp.NewServer(h, opts...)
}

// ProvideKafkaConsumer creates the analysis request consumer, or nil when disabled.
func ProvideKafkaConsumer(cfg *config.Config, reg *prometheus.Registry, log *applogger.Logger) (*pkgkafka.Consumer, error) {
	kc := cfg.Kafka.Consumer
	if !kc.Enabled {
		return nil, nil
	}
	c, err := pkgkafka.NewConsumer(
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(kc.GroupID),
		pkgkafka.WithConsumerWorkers(kc.Workers),
		pkgkafka.WithConsumerRetry(kc.RetryMax, kc.BackoffMin, kc.BackoffMax),
		pkgkafka.WithConsumerDLQ(kc.DLQTopic),
		pkgkafka.WithConsumerMetrics(reg),
		pkgkafka.WithConsumerLogger(log),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	return c, nil
}

func ProvideRequestHandler(cfg *config.Config, uc *usecase.AnalysisUseCase, log *applogger.Logger) *consumer.AnalysisRequestHandler {
	return consumer.NewAnalysisRequestHandler(cfg.Kafka.Consumer.RequestTopic, uc, cfg.Analysis.Lookback, log.With("requests"))
}

// ProvideApp assembles the application and attaches the log digest publisher.
func ProvideApp(
	cfg *config.Config,
	log *applogger.Logger,
	srv *xhttp.Server,
	kc *pkgkafka.Consumer,
	requests *consumer.AnalysisRequestHandler,
	ch *pkgch.Client,
	producer *pkgkafka.Producer,
	pub domrepo.ResultPublisher,
	c cache.BytesCache,
) *server.App {
	if producer != nil && cfg.Log.Collector.Enabled {
		log.AddCollector(&applogger.CollectionConfig{
			TimeInterval:   cfg.Log.Collector.Interval,
			CountThreshold: cfg.Log.Collector.Threshold,
			Topic:          cfg.Log.Collector.Topic,
			Publisher:      producer,
		})
	}
	return server.New(cfg, log, server.Deps{
		Server:    srv,
		Consumer:  kc,
		Requests:  requests,
		CH:        ch,
		Publisher: pub,
		Cache:     c,
	})
}
