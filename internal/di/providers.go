package di

import (
	"context"
	"fmt"
	"time"

	"SmartSignal/internal/domain/repository"
	domsvc "SmartSignal/internal/domain/service"
	"SmartSignal/internal/handler/api"
	mid "SmartSignal/internal/middleware"
	internalrepo "SmartSignal/internal/repository"
	"SmartSignal/internal/service/ratelimit"
	"SmartSignal/internal/services/binance"
	"SmartSignal/internal/services/engine"
	"SmartSignal/internal/services/insight"
	"SmartSignal/internal/usecase"
	"SmartSignal/pkg/cache"
	pkgch "SmartSignal/pkg/clickhouse"
	"SmartSignal/pkg/config"
	xhttp "SmartSignal/pkg/http"
	pkgkafka "SmartSignal/pkg/kafka"
	"SmartSignal/pkg/logger"
	"SmartSignal/pkg/metrics"
	"SmartSignal/pkg/postgres"
	"SmartSignal/pkg/queue"
	"SmartSignal/pkg/server"
)

const initTimeout = 10 * time.Second

// ProvideLogger creates the root logger from config.
func ProvideLogger(cfg *config.Config) (*logger.Logger, error) {
	l, err := logger.New(&cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("logger: %w", err)
	}
	return l.With(logger.String("env", cfg.Environment)), nil
}

// ProvideMetrics creates a Prometheus metrics recorder.
func ProvideMetrics() repository.Metrics {
	return metrics.New()
}

// ProvideEngine builds the signal engine from the configured parameters.
func ProvideEngine(cfg *config.Config) (*engine.Engine, error) {
	eng, err := engine.New(cfg.Engine)
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return eng, nil
}

// ProvidePriceBook creates the book the stream writes into.
func ProvidePriceBook() *binance.PriceBook {
	return binance.NewPriceBook()
}

// ProvideMarketProvider assembles REST, synthetic fallback and the streamed
// price book into one provider.
func ProvideMarketProvider(cfg *config.Config, log *logger.Logger, m repository.Metrics, book *binance.PriceBook) repository.MarketDataProvider {
	synthetic := binance.NewSyntheticProvider(time.Now().UnixNano())
	if cfg.Market.Provider == "synthetic" {
		return synthetic
	}

	rest := binance.NewClient(cfg.Market.BaseURL, cfg.Market.QuoteAsset, log,
		xhttp.WithTimeout(cfg.Market.Timeout),
		xhttp.WithRetries(cfg.Market.Retries, 200*time.Millisecond),
	)
	var p repository.MarketDataProvider = binance.NewFallbackProvider(rest, synthetic, cfg.Market.Fallback, m, log)
	if cfg.Stream.Enabled {
		p = binance.NewStreamPriceProvider(p, book, cfg.Stream.MaxStaleness)
	}
	return p
}

// ProvidePriceCollector wires the live stream into the price book, or returns
// nil when streaming is off.
func ProvidePriceCollector(cfg *config.Config, log *logger.Logger, m repository.Metrics, book *binance.PriceBook) *usecase.PriceCollector {
	if !cfg.Stream.Enabled {
		return nil
	}
	stream := binance.NewStream(
		cfg.Stream.URL,
		cfg.Market.QuoteAsset,
		cfg.Stream.Symbols,
		cfg.Stream.ReconnectDelay,
		cfg.Stream.PingInterval,
		log,
	)
	pipe := mid.NewTickPipeline(book, m, mid.WithMaxRPS(cfg.Stream.MaxTicksPerSec))
	return usecase.NewPriceCollector(stream, pipe, m, log)
}

// ProvideRedisCache connects to Redis when enabled; nil otherwise.
func ProvideRedisCache(cfg *config.Config) (*cache.RedisCache, error) {
	if !cfg.Redis.Enabled {
		return nil, nil
	}
	rc, err := cache.NewRedisCache(
		cache.WithRedisAddr(cfg.Redis.Addr),
		cache.WithRedisPassword(cfg.Redis.Password),
		cache.WithRedisDB(cfg.Redis.DB),
		cache.WithRedisPool(cfg.Redis.PoolSize, 2, 30*time.Second),
		cache.WithRedisPrefix(cfg.Redis.Prefix),
	)
	if err != nil {
		return nil, fmt.Errorf("redis cache: %w", err)
	}
	return rc, nil
}

// ProvideCache layers memory over Redis when Redis is available.
func ProvideCache(cfg *config.Config, rc *cache.RedisCache) cache.Service {
	if rc == nil {
		return cache.NewMemoryCache(cache.WithMemoryMaxSize(cfg.Redis.MemoryMaxSize))
	}
	return cache.NewLayeredCache(rc,
		cache.WithLayeredMemorySize(cfg.Redis.MemoryMaxSize),
		cache.WithLayeredL1TTL(cfg.Market.CacheTTL),
	)
}

func ProvideSnapshotCache(svc cache.Service, log *logger.Logger) repository.SnapshotCache {
	return internalrepo.NewSnapshotCache(svc, log)
}

func ProvideSnapshotLoader(cfg *config.Config, p repository.MarketDataProvider, sc repository.SnapshotCache, m repository.Metrics) *usecase.SnapshotLoader {
	return usecase.NewSnapshotLoader(p, sc, m, cfg.Market.Timeout, cfg.Market.CacheTTL, cfg.Market.DepthLimit)
}

// ProvideSignalStore opens Postgres or falls back to the in-memory store.
func ProvideSignalStore(cfg *config.Config, log *logger.Logger) (repository.SignalStore, error) {
	if cfg.Storage.Type != "postgres" {
		return internalrepo.NewMemorySignalStore(), nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()

	pool, err := postgres.NewPool(ctx, cfg.Postgres.URL, postgres.PoolConfig{
		MaxConns:          cfg.Postgres.MaxConns,
		MinConns:          cfg.Postgres.MinConns,
		MaxConnLifetime:   cfg.Postgres.MaxConnLifetime,
		MaxConnIdleTime:   cfg.Postgres.MaxConnIdleTime,
		HealthCheckPeriod: 30 * time.Second,
		RequireSSL:        cfg.Postgres.RequireSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("postgres: %w", err)
	}
	store := internalrepo.NewPostgresSignalStore(pool, log)
	if err := store.Init(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres schema: %w", err)
	}
	return store, nil
}

// ProvideClickHouseClient creates a ClickHouse client when enabled.
func ProvideClickHouseClient(cfg *config.Config) (*pkgch.Client, error) {
	if !cfg.ClickHouse.Enabled {
		return nil, nil
	}
	client, err := pkgch.NewClient(
		pkgch.WithHost(cfg.ClickHouse.Host, cfg.ClickHouse.Port),
		pkgch.WithDatabase(cfg.ClickHouse.Database),
		pkgch.WithAuth(cfg.ClickHouse.User, cfg.ClickHouse.Password),
		pkgch.WithPool(10, 5, time.Hour),
		pkgch.WithHTTP(cfg.ClickHouse.UseHTTP),
		pkgch.WithAsyncInsert(cfg.ClickHouse.AsyncInsert, cfg.ClickHouse.WaitForAsync),
		pkgch.WithTimeouts(cfg.ClickHouse.DialTimeout, cfg.ClickHouse.ReadTimeout),
		pkgch.WithMaxExecutionTime(cfg.ClickHouse.MaxExecutionTime),
	)
	if err != nil {
		return nil, fmt.Errorf("clickhouse client: %w", err)
	}
	return client, nil
}

// ProvideSignalArchive keeps history in ClickHouse, or in a bounded memory
// ring without it.
func ProvideSignalArchive(ch *pkgch.Client, log *logger.Logger) (repository.SignalArchive, error) {
	if ch == nil {
		return internalrepo.NewMemorySignalArchive(10000), nil
	}
	archive := internalrepo.NewCHSignalArchive(ch, log)

	ctx, cancel := context.WithTimeout(context.Background(), initTimeout)
	defer cancel()
	if err := archive.Init(ctx); err != nil {
		_ = ch.Close()
		return nil, fmt.Errorf("clickhouse schema: %w", err)
	}
	return archive, nil
}

// ProvideKafkaProducer creates a Kafka producer when Kafka is enabled.
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

// ProvideSignalPublisher emits generated signals to Kafka; nil without a producer.
func ProvideSignalPublisher(cfg *config.Config, producer *pkgkafka.Producer) repository.Publisher {
	if producer == nil {
		return nil
	}
	return internalrepo.NewKafkaPublisher(producer, cfg.Kafka.GeneratedTopic)
}

// ProvideRequestQueue builds the Redis request queue when enabled.
func ProvideRequestQueue(cfg *config.Config, rc *cache.RedisCache, log *logger.Logger) *queue.RedisQueue {
	if !cfg.Queue.Enabled || rc == nil {
		return nil
	}
	return queue.NewRedisQueue(log, queue.QueueConfig{
		Workers:    cfg.Queue.Workers,
		RetryLimit: cfg.Queue.RetryLimit,
		RetryDelay: cfg.Queue.RetryDelay,
	}, rc.Client(), queue.WithKeyPrefix(cfg.Queue.Prefix))
}

// ProvideInsightGenerator uses OpenRouter when a key is configured and the
// template fallback otherwise.
func ProvideInsightGenerator(cfg *config.Config, log *logger.Logger) domsvc.InsightGenerator {
	var llm *insight.OpenRouter
	if cfg.Insight.Enabled && cfg.Insight.APIKey != "" {
		llm = insight.NewOpenRouter(insight.OpenRouterConfig{
			URL:         cfg.Insight.URL,
			APIKey:      cfg.Insight.APIKey,
			Model:       cfg.Insight.Model,
			Title:       cfg.Insight.Title,
			Referer:     cfg.Insight.Referer,
			MaxTokens:   cfg.Insight.MaxTokens,
			Temperature: cfg.Insight.Temperature,
			Timeout:     cfg.Insight.Timeout,
			Retries:     cfg.Insight.Retries,
		})
	}
	return insight.NewGenerator(llm, log)
}

// ProvideSignalsUseCase creates the signals use case and attaches the async
// request transport: Kafka when available, the Redis queue otherwise.
func ProvideSignalsUseCase(
	cfg *config.Config,
	loader *usecase.SnapshotLoader,
	eng *engine.Engine,
	gen domsvc.InsightGenerator,
	store repository.SignalStore,
	archive repository.SignalArchive,
	pub repository.Publisher,
	producer *pkgkafka.Producer,
	q *queue.RedisQueue,
	m repository.Metrics,
	log *logger.Logger,
) *usecase.SignalsUseCase {
	uc := usecase.NewSignalsUseCase(loader, eng, gen, store, archive, pub, m, log, usecase.SignalsConfig{
		Interval:        repository.NormalizeInterval(cfg.Market.Interval),
		KlineLimit:      cfg.Market.KlineLimit,
		ScanMaxSymbols:  cfg.Scan.MaxSymbols,
		ScanConcurrency: cfg.Scan.Concurrency,
		ScanTimeout:     cfg.Scan.Timeout,
	})
	switch {
	case producer != nil:
		uc.SetRequestPublisher(internalrepo.NewKafkaRequestPublisher(producer, cfg.Kafka.RequestTopic))
	case q != nil:
		uc.SetRequestPublisher(internalrepo.NewQueueRequestPublisher(q, usecase.JobTypeGenerate))
	}
	return uc
}

// ProvideKafkaConsumer creates a Kafka consumer configured from YAML.
func ProvideKafkaConsumer(cfg *config.Config, log *logger.Logger) (*pkgkafka.Consumer, error) {
	if !cfg.Kafka.Enabled {
		return nil, nil
	}
	consumer, err := pkgkafka.NewConsumer(log,
		pkgkafka.WithConsumerBrokers(cfg.Kafka.Brokers),
		pkgkafka.WithConsumerGroupID(cfg.Kafka.Consumer.GroupID),
		pkgkafka.WithConsumerWorkers(cfg.Kafka.Consumer.Workers),
		pkgkafka.WithConsumerBufferSize(cfg.Kafka.Consumer.BufferSize),
		pkgkafka.WithConsumerRetry(cfg.Kafka.Consumer.RetryMax, cfg.Kafka.Consumer.BackoffMin, cfg.Kafka.Consumer.BackoffMax),
		pkgkafka.WithConsumerDLQ(cfg.Kafka.Consumer.DLQTopic),
		pkgkafka.WithConsumerFetch(cfg.Kafka.Consumer.MinBytes, cfg.Kafka.Consumer.MaxBytes),
	)
	if err != nil {
		return nil, fmt.Errorf("kafka consumer: %w", err)
	}
	consumer.WithConsumerHook(pkgkafka.LoggingHook(log))
	return consumer, nil
}

// ProvideKafkaRequestsHandler serves the request topic.
func ProvideKafkaRequestsHandler(cfg *config.Config, uc *usecase.SignalsUseCase, m repository.Metrics) *usecase.KafkaRequestsHandler {
	return usecase.NewKafkaRequestsHandler(cfg.Kafka.RequestTopic, uc, m)
}

// ProvideGenerateJob serves the Redis request queue.
func ProvideGenerateJob(uc *usecase.SignalsUseCase, m repository.Metrics) *usecase.GenerateJob {
	return usecase.NewGenerateJob(uc, m)
}

func ProvideRateLimiter(cfg *config.Config) *ratelimit.Limiter {
	return ratelimit.New(cfg.RateLimit.Capacity, cfg.RateLimit.RefillPerSec)
}

// ProvideHTTPServer registers the signal and health routes on one server.
func ProvideHTTPServer(
	cfg *config.Config,
	log *logger.Logger,
	uc *usecase.SignalsUseCase,
	rl *ratelimit.Limiter,
	store repository.SignalStore,
	archive repository.SignalArchive,
	collector *usecase.PriceCollector,
) *xhttp.Server {
	checks := map[string]api.HealthCheck{
		"store":   store.Health,
		"archive": archive.Health,
	}
	if collector != nil {
		checks["stream"] = func(context.Context) error {
			if !collector.IsConnected() {
				return fmt.Errorf("market stream disconnected")
			}
			return nil
		}
	}

	metricsPath := ""
	if cfg.Metrics.Enabled {
		metricsPath = cfg.Metrics.Path
	}
	return xhttp.NewServer(log, []xhttp.Handler{
		api.NewSignalsEchoHandler(log, uc, rl),
		api.NewHealthHandler(checks),
	},
		xhttp.WithPort(cfg.Server.Port),
		xhttp.WithTimeouts(cfg.Server.ReadTimeout, cfg.Server.WriteTimeout, cfg.Server.ShutdownTimeout),
		xhttp.WithSlowThreshold(cfg.Server.SlowThreshold),
		xhttp.WithCORS(cfg.Server.CORS),
		xhttp.WithCORSOrigins(cfg.Server.CORSOrigins, cfg.Server.CORSMaxAge),
		xhttp.WithMetricsPath(metricsPath),
	)
}

// ProvideApp creates the application server.
func ProvideApp(
	cfg *config.Config,
	log *logger.Logger,
	httpServer *xhttp.Server,
	collector *usecase.PriceCollector,
	consumer *pkgkafka.Consumer,
	kh *usecase.KafkaRequestsHandler,
	q *queue.RedisQueue,
	job *usecase.GenerateJob,
	store repository.SignalStore,
	archive repository.SignalArchive,
	pub repository.Publisher,
	producer *pkgkafka.Producer,
	svc cache.Service,
	ch *pkgch.Client,
) *server.App {
	app := server.New(cfg, log, httpServer)
	if collector != nil {
		app.AddWorker("price_collector", collector.Start, collector.Shutdown)
	}
	if consumer != nil {
		consumer.RegisterHandler(kh)
		app.AddWorker("kafka_consumer", func(context.Context) error { return consumer.Start() }, consumer.Stop)
	}
	if q != nil {
		q.RegisterJob(job)
		app.AddWorker("request_queue", func(context.Context) error { return q.Start() }, q.Stop)
	}

	// Closers run in reverse order: publisher first, connections last. The
	// layered cache closes the Redis client it wraps.
	if ch != nil {
		app.AddCloser("clickhouse", ch.Close)
	}
	app.AddCloser("cache", svc.Close)
	app.AddCloser("archive", archive.Close)
	app.AddCloser("store", store.Close)
	switch {
	case pub != nil:
		app.AddCloser("publisher", pub.Close)
	case producer != nil:
		app.AddCloser("kafka_producer", producer.Close)
	}
	return app
}
