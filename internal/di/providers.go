package di

import (
	"context"
	"fmt"
	"net"
	"time"

	"AstroPull/internal/domain/models"
	"AstroPull/internal/domain/repository"
	domsvc "AstroPull/internal/domain/service"
	"AstroPull/internal/handler/api"
	internalrepo "AstroPull/internal/repository"
	"AstroPull/internal/services/events"
	"AstroPull/internal/services/levels"
	"AstroPull/internal/services/scoring"
	"AstroPull/internal/usecase"
	"AstroPull/pkg/cache"
	pkgch "AstroPull/pkg/clickhouse"
	"AstroPull/pkg/config"
	xhttp "AstroPull/pkg/http"
	pkgkafka "AstroPull/pkg/kafka"
	applogger "AstroPull/pkg/logger"
	"AstroPull/pkg/metrics"
	"AstroPull/pkg/queue"
	"AstroPull/pkg/server"
	"AstroPull/pkg/util"
)

// ProvideLogger creates the application logger from config.
func ProvideLogger(cfg *config.Config) (*applogger.Logger, error) {
	format := "json"
	if cfg.Environment == "development" {
		format = "console"
	}
	l, err := applogger.New(&applogger.Config{Level: "info", Format: format, Output: "stdout"})
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l, nil
}

// ProvideClickHouseClient creates a ClickHouse client and ensures the schema.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host),
		pkgch.WithPort(cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithCredentials(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithMaxConnections(10, 5),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout, cfg.ClickHouse.WriteTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := client.InitSchema(ctx, internalrepo.Schema()); err != nil {
		_ = client.Close() // cannot log here (DI layer no logger); propagate error
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}

	return client, nil
}

// ProvideRedisCache creates the Redis cache client, or nil when disabled.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	host, port := cfg.Redis.Addr, 6379
	if h, p, err := net.SplitHostPort(cfg.Redis.Addr); err == nil {
		host = h
		port = util.ParseIntDefault(p, 6379)
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisHost(host),
		cache.WithRedisPort(port),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideKafkaProducer creates a Kafka producer, or nil when disabled.
func ProvideKafkaProducer(cfg *config.Config) (*pkgkafka.Producer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	producer, err := pkgkafka.NewProducer(
		pkgkafka.WithBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithCompression(cfg.Kafka.Compression),
		pkgkafka.WithRequiredAcks(cfg.Kafka.RequiredAcks),
		pkgkafka.WithBatchSize(cfg.Kafka.Producer.BatchSize),
		pkgkafka.WithBatchBytes(cfg.Kafka.Producer.BatchBytes),
		pkgkafka.WithBatchTimeout(cfg.Kafka.Producer.Linger),
		pkgkafka.WithTimeouts(cfg.Kafka.Producer.WriteTimeout, cfg.Kafka.Producer.ReadTimeout),
		pkgkafka.WithMaxAttempts(cfg.Kafka.Producer.MaxAttempts),
		pkgkafka.WithAsync(cfg.Kafka.Producer.Async),
		pkgkafka.WithHashByKey(true),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka producer: %w", err)
	}
	return producer, nil
}

// ProvidePublisher creates the run publisher; a no-op when Kafka is disabled.
// With Kafka up, error logs are also aggregated and shipped to the logs topic.
func ProvidePublisher(producer *pkgkafka.Producer, cfg *config.Config, l *applogger.Logger) repository.Publisher {
	if producer == nil {
		return internalrepo.NopPublisher{}
	}
	pub := internalrepo.NewKafkaPublisher(producer, cfg.Kafka.ScoresTopic, cfg.Kafka.EventsTopic)
	pub.SetLogger(l)

	logsTopic := cfg.Kafka.LogsTopic
	if logsTopic == "" {
		logsTopic = "astropull.logs"
	}
	l.AddCollector(&applogger.CollectionConfig{
		TimeInterval:   30 * time.Second,
		CountThreshold: 100,
		Topic:          logsTopic,
		Publisher:      pub,
	})
	return pub
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideClock provides the production clock.
func ProvideClock() repository.Clock {
	return repository.SystemClock{}
}

// ProvidePositionProvider creates the ClickHouse position store.
func ProvidePositionProvider(chClient *pkgch.Client, cfg *config.Config, l *applogger.Logger) repository.PositionProvider {
	store := internalrepo.NewCHPositionStore(chClient, cfg.Astro.PositionTable)
	store.SetLogger(l)
	return store
}

// ProvidePriceStore creates the ClickHouse price store.
func ProvidePriceStore(chClient *pkgch.Client, l *applogger.Logger) repository.PriceStore {
	store := internalrepo.NewCHPriceStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideAnchorStore creates the ClickHouse seasonal anchor store.
func ProvideAnchorStore(chClient *pkgch.Client, l *applogger.Logger) repository.AnchorStore {
	store := internalrepo.NewCHAnchorStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideEventStore creates the ClickHouse event store.
func ProvideEventStore(chClient *pkgch.Client, l *applogger.Logger) repository.EventStore {
	store := internalrepo.NewCHEventStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideScoreStore creates the ClickHouse score store.
func ProvideScoreStore(chClient *pkgch.Client, l *applogger.Logger) repository.ScoreStore {
	store := internalrepo.NewCHScoreStore(chClient)
	store.SetLogger(l)
	return store
}

// ProvideEventGenerator creates the celestial event generator.
func ProvideEventGenerator(positions repository.PositionProvider, l *applogger.Logger) domsvc.EventGenerator {
	gen := events.NewGenerator(positions)
	gen.SetLogger(l)
	return gen
}

// ProvideLevelCalculator creates the anchor level calculator.
func ProvideLevelCalculator(clock repository.Clock, cfg *config.Config) domsvc.LevelCalculator {
	return levels.NewCalculator(clock, cfg.Fibonacci.AnalysisYears)
}

// ProvideSectorClassifier creates the sector classifier.
func ProvideSectorClassifier() domsvc.SectorClassifier {
	return scoring.NewClassifier()
}

// ProvideScorerFactory binds scorers to per-run event logs.
func ProvideScorerFactory(classifier domsvc.SectorClassifier) usecase.ScorerFactory {
	return func(log *models.EventLog) domsvc.ConfidenceScorer {
		return scoring.NewScorer(classifier, log)
	}
}

// ProvideArtifactWriter creates the run artifact writer.
func ProvideArtifactWriter(cfg *config.Config, l *applogger.Logger) *usecase.ArtifactWriter {
	w := usecase.NewArtifactWriter(cfg.Scoring.OutputDir)
	w.SetLogger(l)
	return w
}

// ProvidePipeline assembles the run pipeline.
func ProvidePipeline(
	generator domsvc.EventGenerator,
	calculator domsvc.LevelCalculator,
	scorerFor usecase.ScorerFactory,
	eventStore repository.EventStore,
	priceStore repository.PriceStore,
	anchorStore repository.AnchorStore,
	scoreStore repository.ScoreStore,
	publisher repository.Publisher,
	mrec repository.Metrics,
	clock repository.Clock,
	artifacts *usecase.ArtifactWriter,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Pipeline {
	pcfg := usecase.PipelineConfig{Workers: cfg.Scoring.Workers}
	if d, ok := util.ParseDay(cfg.Astro.StartDate); ok {
		pcfg.RangeFrom = d
	}
	if d, ok := util.ParseDay(cfg.Astro.EndDate); ok {
		pcfg.RangeTo = d
	}
	p := usecase.NewPipeline(generator, calculator, scorerFor,
		eventStore, priceStore, anchorStore, scoreStore,
		publisher, mrec, clock, artifacts, pcfg)
	p.SetLogger(l)
	return p
}

// ProvideScoreboard assembles the read-side scoreboard.
func ProvideScoreboard(
	pipeline *usecase.Pipeline,
	scoreStore repository.ScoreStore,
	eventStore repository.EventStore,
	redisCache *cache.RedisCache,
	cfg *config.Config,
	l *applogger.Logger,
) *usecase.Scoreboard {
	b := usecase.NewScoreboard(pipeline, scoreStore, eventStore)
	if redisCache != nil {
		// Memory in front of Redis: scoreboard reads are hot and the payload
		// changes once per run.
		b.SetCache(cache.NewLayeredCache(redisCache),
			cfg.Redis.CacheTTL.Scores, cfg.Redis.CacheTTL.Levels, cfg.Redis.CacheTTL.Events)
	}
	b.SetLogger(l)
	return b
}

// ProvideRunJob creates the queued run job.
func ProvideRunJob(pipeline *usecase.Pipeline, scoreboard *usecase.Scoreboard, clock repository.Clock, l *applogger.Logger) *usecase.RunJob {
	j := usecase.NewRunJob(pipeline, scoreboard, clock)
	j.SetLogger(l)
	return j
}

// ProvideRunQueue creates the Redis run queue, or nil when Redis is disabled.
func ProvideRunQueue(redisCache *cache.RedisCache, l *applogger.Logger) *queue.RedisQueue {
	if redisCache == nil {
		return nil
	}
	return queue.NewRedisQueue(l,
		&queue.QueueConfig{Workers: 1, RetryLimit: 1, RetryDelay: 30 * time.Second},
		redisCache.Client(),
		queue.ModeProducerConsumer,
		queue.WithKeyPrefix("astropull:queue"),
	)
}

// ProvideHTTPHandler creates the API handler. Run requests route through the
// Redis queue when available, otherwise an inline runner.
func ProvideHTTPHandler(l *applogger.Logger, scoreboard *usecase.Scoreboard, runQueue *queue.RedisQueue, runJob *usecase.RunJob) xhttp.Handler {
	var svc queue.QueueService
	if runQueue != nil {
		svc = runQueue
	} else {
		svc = usecase.InlineRunner{Job: runJob}
	}
	return api.NewScoresEchoHandler(l, scoreboard, svc)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	l *applogger.Logger,
	pipeline *usecase.Pipeline,
	scoreboard *usecase.Scoreboard,
	runJob *usecase.RunJob,
	runQueue *queue.RedisQueue,
	chClient *pkgch.Client,
	redisCache *cache.RedisCache,
	publisher repository.Publisher,
	handler xhttp.Handler,
) *server.App {
	app := server.New(cfg, l, pipeline, scoreboard, runJob, runQueue, chClient, redisCache, publisher)
	app.SetHTTPHandler(handler)
	return app
}
