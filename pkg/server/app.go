package server

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	domrepo "BoundaryLab/internal/domain/repository"
	"BoundaryLab/internal/service/cache"
	pkgch "BoundaryLab/pkg/clickhouse"
	"BoundaryLab/pkg/config"
	xhttp "BoundaryLab/pkg/http"
	pkgkafka "BoundaryLab/pkg/kafka"
	applogger "BoundaryLab/pkg/logger"
)

// App owns the long-lived components and their shutdown order.
type App struct {
	cfg        *config.Config
	log        *applogger.Logger
	httpServer *xhttp.Server
	consumer   *pkgkafka.Consumer
	requests   pkgkafka.MessageHandler
	chClient   *pkgch.Client
	publisher  domrepo.ResultPublisher
	cache      cache.BytesCache
}

// Deps groups what New needs. Consumer and Requests may be nil.
type Deps struct {
	Server    *xhttp.Server
	Consumer  *pkgkafka.Consumer
	Requests  pkgkafka.MessageHandler
	CH        *pkgch.Client
	Publisher domrepo.ResultPublisher
	Cache     cache.BytesCache
}

func New(cfg *config.Config, log *applogger.Logger, d Deps) *App {
	return &App{
		cfg:        cfg,
		log:        log,
		httpServer: d.Server,
		consumer:   d.Consumer,
		requests:   d.Requests,
		chClient:   d.CH,
		publisher:  d.Publisher,
		cache:      d.Cache,
	}
}

// Run starts the application and blocks until interrupted.
func (a *App) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return a.RunContext(ctx)
}

// RunContext starts every component and shuts down when ctx is done.
func (a *App) RunContext(ctx context.Context) error {
	if a.consumer != nil && a.requests != nil {
		a.consumer.RegisterHandler(a.requests)
		if err := a.consumer.Start(); err != nil {
			return err
		}
		a.log.Info("analysis request consumer started", applogger.String("topic", a.requests.Topic()))
	}

	if err := a.httpServer.Start(); err != nil {
		a.log.Error("http server start error", applogger.Error(err))
		return err
	}

	<-ctx.Done()
	a.log.Info("shutdown signal received")
	return a.shutdown()
}

// shutdown stops intake first, then closes infrastructure.
func (a *App) shutdown() error {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.Server.ShutdownTimeout+5*time.Second)
	defer cancel()

	if err := a.httpServer.Stop(ctx); err != nil {
		a.log.Error("http shutdown error", applogger.Error(err))
	}
	if a.consumer != nil {
		if err := a.consumer.Stop(ctx); err != nil {
			a.log.Warn("kafka consumer stop error", applogger.Error(err))
		}
	}
	// flush the log digest while the producer is still open
	a.log.RemoveCollector()
	if a.publisher != nil {
		if err := a.publisher.Close(); err != nil {
			a.log.Warn("result publisher close error", applogger.Error(err))
		}
	}
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.log.Warn("cache close error", applogger.Error(err))
		}
	}
	if a.chClient != nil {
		if err := a.chClient.Close(); err != nil {
			a.log.Warn("clickhouse close error", applogger.Error(err))
		}
	}

	a.log.Info("shutdown complete")
	return nil
}
