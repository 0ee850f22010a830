// Package app wires together all dependencies and runs the bookrate
// service: HTTP API, Postgres, Redis book cache, the search backend
// and the Kafka index consumers.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/HadesXChaos/WebBookRate/internal/auth"
	"github.com/HadesXChaos/WebBookRate/internal/config"
	"github.com/HadesXChaos/WebBookRate/internal/event"
	handler "github.com/HadesXChaos/WebBookRate/internal/handler/http"
	"github.com/HadesXChaos/WebBookRate/internal/repository/postgres"
	redisrepo "github.com/HadesXChaos/WebBookRate/internal/repository/redis"
	"github.com/HadesXChaos/WebBookRate/internal/search"
	"github.com/HadesXChaos/WebBookRate/internal/search/elasticsearch"
	"github.com/HadesXChaos/WebBookRate/internal/search/memory"
	"github.com/HadesXChaos/WebBookRate/internal/service"
	"github.com/HadesXChaos/WebBookRate/migrations"
	"github.com/HadesXChaos/WebBookRate/pkg/database"
	"github.com/HadesXChaos/WebBookRate/pkg/health"
	pkgkafka "github.com/HadesXChaos/WebBookRate/pkg/kafka"
	"github.com/HadesXChaos/WebBookRate/pkg/markdown"
	"github.com/HadesXChaos/WebBookRate/pkg/middleware"
	"github.com/HadesXChaos/WebBookRate/pkg/tracing"
)

// App wires together all dependencies and runs the service.
type App struct {
	cfg            *config.Config
	logger         *slog.Logger
	pool           *pgxpool.Pool
	producer       *pkgkafka.Producer
	consumers      []*pkgkafka.Consumer
	httpServer     *http.Server
	tracerShutdown func(context.Context) error
}

// NewApp creates a new application instance, initializing all dependencies.
func NewApp(cfg *config.Config, logger *slog.Logger) (*App, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	// Initialize OpenTelemetry tracing.
	tracerShutdown, err := tracing.InitTracer(ctx, tracing.Config{
		ServiceName:    "bookrate",
		ServiceVersion: "0.1.0",
		Environment:    cfg.Environment,
		OTLPEndpoint:   cfg.OTELEndpoint,
		SampleRate:     cfg.OTELSampleRate,
		Enabled:        cfg.OTELEnabled,
	})
	if err != nil {
		return nil, fmt.Errorf("init tracer: %w", err)
	}

	// Initialize PostgreSQL connection pool.
	pgCfg := database.PostgresConfig{
		Host:            cfg.PostgresHost,
		Port:            cfg.PostgresPort,
		User:            cfg.PostgresUser,
		Password:        cfg.PostgresPass,
		DBName:          cfg.PostgresDB,
		SSLMode:         cfg.PostgresSSL,
		MaxConns:        cfg.DBMaxConns,
		MinConns:        cfg.DBMinConns,
		MaxConnLifetime: time.Duration(cfg.DBMaxConnLifetimeMins) * time.Minute,
		MaxConnIdleTime: time.Duration(cfg.DBMaxConnIdleTimeMins) * time.Minute,
	}

	pool, err := database.NewPostgresPoolWithLogger(ctx, &pgCfg, logger)
	if err != nil {
		return nil, fmt.Errorf("connect to postgres: %w", err)
	}
	logger.Info("connected to PostgreSQL",
		slog.String("host", cfg.PostgresHost),
		slog.Int("port", cfg.PostgresPort),
		slog.String("database", cfg.PostgresDB),
	)
	database.RegisterPoolMetrics(pool, "bookrate")

	if cfg.SlowQueryThresholdMs > 0 {
		database.SetSlowQueryLogging(time.Duration(cfg.SlowQueryThresholdMs)*time.Millisecond, logger)
	}

	// Run database migrations.
	if err := database.RunMigrations(ctx, pool, migrations.FS, logger); err != nil {
		pool.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}
	logger.Info("database migrations completed")

	// Initialize Redis book cache. The cache is optional: a failed
	// connection degrades read performance, not correctness.
	var bookCache *redisrepo.BookCache
	redisCfg := database.RedisConfig{
		Host:     cfg.RedisHost,
		Port:     cfg.RedisPort,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	}
	redisClient, err := database.NewRedisClient(ctx, redisCfg)
	if err != nil {
		logger.Warn("redis unavailable, book cache disabled", slog.String("error", err.Error()))
	} else {
		bookCache = redisrepo.NewBookCache(redisClient, time.Duration(cfg.BookCacheTTLMins)*time.Minute)
		logger.Info("redis book cache initialized", slog.String("addr", redisCfg.Addr()))
	}

	// Initialize the search backend.
	var searchClient search.Client
	var esClient *elasticsearch.Client
	switch cfg.SearchEngine {
	case config.SearchEngineElasticsearch:
		esClient, err = elasticsearch.New(cfg.ElasticsearchURL, logger)
		if err != nil {
			pool.Close()
			return nil, fmt.Errorf("init elasticsearch client: %w", err)
		}
		searchClient = esClient
		logger.Info("elasticsearch search backend initialized", slog.String("url", cfg.ElasticsearchURL))
	default:
		searchClient = memory.New()
		logger.Info("in-memory search backend initialized")
	}

	// Initialize Kafka producer.
	kafkaCfg := pkgkafka.DefaultProducerConfig(cfg.KafkaBrokers)
	producer := pkgkafka.NewProducer(kafkaCfg, logger)
	logger.Info("kafka producer initialized", slog.Any("brokers", cfg.KafkaBrokers))

	// Build the dependency graph.
	jwtManager := auth.NewJWTManager(cfg.JWTSecret, time.Duration(cfg.JWTAccessExpiryMins)*time.Minute)

	bookRepo := postgres.NewBookRepository(pool)
	authorRepo := postgres.NewAuthorRepository(pool)
	reviewRepo := postgres.NewReviewRepository(pool)
	commentRepo := postgres.NewCommentRepository(pool)
	reactionRepo := postgres.NewReactionRepository(pool)
	shelfRepo := postgres.NewBookshelfRepository(pool)
	readingRepo := postgres.NewReadingStatusRepository(pool)
	reportRepo := postgres.NewReportRepository(pool)
	auditRepo := postgres.NewAuditLogRepository(pool)
	resolver := postgres.NewTargetResolver(pool)

	eventProducer := event.NewProducer(producer, logger)

	// redisrepo.BookCache is passed through interfaces; a typed nil
	// pointer would dodge the services' nil checks.
	var cacheForBooks service.BookCache
	var cacheForReviews service.BookCacheInvalidator
	if bookCache != nil {
		cacheForBooks = bookCache
		cacheForReviews = bookCache
	}

	renderer := markdown.NewRenderer()

	bookService := service.NewBookService(bookRepo, authorRepo, cacheForBooks, eventProducer, logger)
	authorService := service.NewAuthorService(authorRepo, logger)
	reviewService := service.NewReviewService(reviewRepo, bookRepo, renderer, eventProducer, cacheForReviews, logger)
	commentService := service.NewCommentService(commentRepo, reviewRepo, renderer, logger)
	reactionService := service.NewReactionService(reactionRepo, reviewRepo, logger)
	shelfService := service.NewBookshelfService(shelfRepo, bookRepo, logger)
	readingService := service.NewReadingStatusService(readingRepo, bookRepo, logger)
	reportService := service.NewReportService(reportRepo, resolver, auditRepo, logger)
	indexerService := service.NewIndexerService(searchClient, bookRepo, authorRepo, reviewRepo, logger)
	searchService := service.NewSearchService(searchClient, logger)

	// Configure index attributes up front so search behaves the same
	// on a fresh backend as on an existing one.
	if err := indexerService.ConfigureIndexes(ctx); err != nil {
		logger.Warn("configure search indexes failed", slog.String("error", err.Error()))
	}

	// Kafka consumers keeping the search indexes in sync with the
	// primary store. Replayed events are dropped by the idempotency
	// guard.
	indexConsumer := event.NewIndexConsumer(indexerService, logger)
	idempotency := pkgkafka.NewMemoryIdempotencyStore(30 * time.Minute)

	topics := []string{
		event.TopicBookCreated,
		event.TopicBookUpdated,
		event.TopicBookDeleted,
		event.TopicReviewCreated,
		event.TopicReviewUpdated,
		event.TopicReviewDeleted,
	}
	var consumers []*pkgkafka.Consumer
	for _, topic := range topics {
		consumerCfg := pkgkafka.ConsumerConfig{
			Brokers:   cfg.KafkaBrokers,
			GroupID:   cfg.KafkaConsumerGroup,
			Topic:     topic,
			MinBytes:  1,
			MaxBytes:  10e6,
			EnableDLQ: true,
		}
		handler := pkgkafka.IdempotentHandler(idempotency, indexConsumer.Handle, topic, cfg.KafkaConsumerGroup, logger)
		consumers = append(consumers, pkgkafka.NewConsumer(consumerCfg, handler, logger))
	}
	logger.Info("kafka consumers initialized",
		slog.Any("brokers", cfg.KafkaBrokers),
		slog.Int("topic_count", len(topics)),
	)

	// Health checks.
	healthHandler := health.NewHandler()
	healthHandler.RegisterCritical("postgres", func(ctx context.Context) error {
		return pool.Ping(ctx)
	})
	healthHandler.RegisterNonCritical("kafka", func(ctx context.Context) error {
		return producer.Ping(ctx)
	})
	if esClient != nil {
		healthHandler.RegisterNonCritical("elasticsearch", esClient.Ping)
	}

	// HTTP router.
	router := handler.NewRouter(handler.RouterConfig{
		Books:         bookService,
		Authors:       authorService,
		Reviews:       reviewService,
		Comments:      commentService,
		Reactions:     reactionService,
		Shelves:       shelfService,
		ReadingStatus: readingService,
		Reports:       reportService,
		Search:        searchService,
		Indexer:       indexerService,

		JWTManager:    jwtManager,
		HealthHandler: healthHandler,
		Logger:        logger,
		CORS: middleware.CORSConfig{
			AllowedOrigins: cfg.CORSAllowedOrigins,
			Environment:    cfg.Environment,
		},
		RateLimitRPS:      cfg.RateLimitRPS,
		RateLimitBurst:    cfg.RateLimitBurst,
		PprofAllowedCIDRs: cfg.PprofAllowedCIDRs,
	})

	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           router,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return &App{
		cfg:            cfg,
		logger:         logger,
		pool:           pool,
		producer:       producer,
		consumers:      consumers,
		httpServer:     httpServer,
		tracerShutdown: tracerShutdown,
	}, nil
}

// Run starts the HTTP server and Kafka consumers, blocking until the
// context is canceled or a component fails.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1+len(a.consumers))

	for _, c := range a.consumers {
		c := c
		go func() {
			if err := c.Start(ctx); err != nil {
				errCh <- fmt.Errorf("kafka consumer: %w", err)
			}
		}()
	}

	go func() {
		a.logger.Info("starting HTTP server", slog.String("addr", a.httpServer.Addr))
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- fmt.Errorf("http server: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		a.logger.Info("shutdown signal received")
	case err := <-errCh:
		return err
	}

	return a.Shutdown()
}

// Shutdown gracefully stops all components.
func (a *App) Shutdown() error {
	a.logger.Info("shutting down application...")

	var errs []error

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		a.logger.Error("http server shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	for _, c := range a.consumers {
		if err := c.Close(); err != nil {
			a.logger.Error("kafka consumer close error", slog.String("error", err.Error()))
			errs = append(errs, err)
		}
	}

	if err := a.producer.Close(); err != nil {
		a.logger.Error("kafka producer close error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.pool.Close()

	if err := a.tracerShutdown(shutdownCtx); err != nil {
		a.logger.Error("tracer shutdown error", slog.String("error", err.Error()))
		errs = append(errs, err)
	}

	a.logger.Info("application shutdown complete")
	return errors.Join(errs...)
}
