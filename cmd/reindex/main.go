// Command reindex rebuilds all search indexes from the primary store.
// It is meant to run as a one-off job after schema changes, index
// corruption, or when switching search backends.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/HadesXChaos/WebBookRate/internal/config"
	"github.com/HadesXChaos/WebBookRate/internal/repository/postgres"
	"github.com/HadesXChaos/WebBookRate/internal/search"
	"github.com/HadesXChaos/WebBookRate/internal/search/elasticsearch"
	"github.com/HadesXChaos/WebBookRate/internal/search/memory"
	"github.com/HadesXChaos/WebBookRate/internal/service"
	"github.com/HadesXChaos/WebBookRate/pkg/database"
	"github.com/HadesXChaos/WebBookRate/pkg/logger"
)

func main() {
	if err := run(); err != nil {
		slog.Error("reindex failed", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log := logger.New("bookrate-reindex", cfg.LogLevel)

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	connectCtx, connectCancel := context.WithTimeout(ctx, 10*time.Second)
	defer connectCancel()

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
	pool, err := database.NewPostgresPoolWithLogger(connectCtx, &pgCfg, log)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	var client search.Client
	if cfg.SearchEngine == config.SearchEngineElasticsearch {
		client, err = elasticsearch.New(cfg.ElasticsearchURL, log)
		if err != nil {
			return fmt.Errorf("init elasticsearch client: %w", err)
		}
	} else {
		client = memory.New()
	}

	indexer := service.NewIndexerService(
		client,
		postgres.NewBookRepository(pool),
		postgres.NewAuthorRepository(pool),
		postgres.NewReviewRepository(pool),
		log,
	)

	if err := indexer.ConfigureIndexes(ctx); err != nil {
		return fmt.Errorf("configure indexes: %w", err)
	}

	failed := false
	for _, stage := range indexer.ReindexAll(ctx) {
		if stage.Err != nil {
			failed = true
			log.Error("index rebuild failed",
				slog.String("index", stage.Index),
				slog.String("error", stage.Err.Error()),
			)
			continue
		}
		log.Info("index rebuilt",
			slog.String("index", stage.Index),
			slog.Int("documents", stage.Documents),
		)
	}
	if failed {
		return fmt.Errorf("one or more index rebuilds failed")
	}

	log.Info("reindex complete")
	return nil
}
