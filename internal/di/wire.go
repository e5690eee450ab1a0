//go:build wireinject
// +build wireinject

package di

import (
	"AstroPull/pkg/config"
	"AstroPull/pkg/server"

	"github.com/google/wire"
)

// InitializeApp wires up all dependencies and returns the application.
// Wire will generate the implementation of this function.
func InitializeApp(cfg *config.Config) (*server.App, error) {
	wire.Build(
		// Ambient
		ProvideLogger,
		ProvideMetrics,
		ProvideClock,

		// Infrastructure clients
		ProvideClickHouseClient,
		ProvideRedisCache,
		ProvideKafkaProducer,
		ProvidePublisher,

		// Stores
		ProvidePositionProvider,
		ProvidePriceStore,
		ProvideAnchorStore,
		ProvideEventStore,
		ProvideScoreStore,

		// Engines
		ProvideEventGenerator,
		ProvideLevelCalculator,
		ProvideSectorClassifier,
		ProvideScorerFactory,

		// Use cases
		ProvideArtifactWriter,
		ProvidePipeline,
		ProvideScoreboard,
		ProvideRunJob,
		ProvideRunQueue,

		// HTTP + application server
		ProvideHTTPHandler,
		ProvideApp,
	)
	return &server.App{}, nil
}
