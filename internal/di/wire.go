//go:build wireinject
// +build wireinject

package di

import (
	"github.com/google/wire"

	"BoundaryLab/pkg/config"
	"BoundaryLab/pkg/server"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Observability
		ProvideLogger,
		ProvideRegistry,
		ProvideMetrics,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideCache,

		// Repositories and adapters
		ProvideMovementStore,
		ProvideResultPublisher,
		ProvideOutlierFilter,

		// Use cases
		ProvideBoundaryFinder,
		ProvideCrossValidation,
		ProvideBacktestService,
		ProvideAnalysisUseCase,

		// Transport
		ProvideHTTPHandler,
		ProvideHTTPServer,
		ProvideKafkaConsumer,
		ProvideRequestHandler,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
