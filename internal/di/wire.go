//go:build wireinject
// +build wireinject

package di

import (
	"SmartSignal/pkg/config"
	"SmartSignal/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,

		// Market data
		ProvideEngine,
		ProvidePriceBook,
		ProvideMarketProvider,
		ProvidePriceCollector,

		// Infrastructure clients
		ProvideRedisCache,
		ProvideCache,
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvideRequestQueue,

		// Repositories
		ProvideSnapshotCache,
		ProvideSignalStore,
		ProvideSignalArchive,
		ProvideSignalPublisher,

		// Use cases
		ProvideSnapshotLoader,
		ProvideInsightGenerator,
		ProvideSignalsUseCase,
		ProvideKafkaRequestsHandler,
		ProvideGenerateJob,

		// Transport
		ProvideRateLimiter,
		ProvideHTTPServer,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
