//go:build wireinject
// +build wireinject

package di

import (
	"StructScan/pkg/config"
	"StructScan/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Metrics and logging
		ProvideMetrics,
		ProvideLogger,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideKafkaProducer,
		ProvideKafkaConsumer,
		ProvidePostgres,

		// Repositories (with business logic)
		ProvideBarStorage,
		ProvideBarPublisher,
		ProvideMarketStream,
		ProvideBarStore,
		ProvideAnnotationStore,
		ProvideRunRegistry,
		ProvideBytesCache,
		ProvideRunLockCache,

		// Use cases
		ProvideBarProcessor,
		ProvideBarCollector,
		ProvideKafkaBarsHandler,
		ProvideAnnotateUseCase,
		ProvideStructureReader,
		ProvideBarsUseCase,
		ProvideAnnotationQueue,

		// Application server
		ProvideApp,
	)
	return &server.App{}, nil
}
