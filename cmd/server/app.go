package main

import (
	"context"
	"fmt"

	"campaignexport/internal/domain"
	"campaignexport/internal/infrastructure"
	"campaignexport/internal/usecase"
	"campaignexport/pkg/config"
	"campaignexport/pkg/logger"
	"campaignexport/pkg/metrics"

	"github.com/shopspring/decimal"
)

// app holds the wired services and whatever needs closing on shutdown.
type app struct {
	generation *usecase.GenerationService
	locations  *usecase.LocationService
	closers    []func() error
}

func (a *app) Close() {
	if a.generation != nil {
		a.generation.Close()
	}
	for i := len(a.closers) - 1; i >= 0; i-- {
		_ = a.closers[i]()
	}
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger, m *metrics.Metrics) (*app, error) {
	a := &app{}

	store, err := openLocationStore(ctx, cfg.Directory, log)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, store.Close)

	if cfg.Directory.SeedFile != "" {
		records, err := infrastructure.LoadSeedFile(cfg.Directory.SeedFile)
		if err != nil {
			a.Close()
			return nil, err
		}
		n, err := infrastructure.Seed(ctx, store, records)
		if err != nil {
			a.Close()
			return nil, err
		}
		log.WithField("count", n).Info("Seeded location directory")
	}

	cached := infrastructure.NewCachedLocationRepository(store,
		infrastructure.CachePolicy{TTL: cfg.Directory.CacheTTL}, log, m)

	artifacts, err := openArtifactStore(ctx, cfg.Artifacts, log, a)
	if err != nil {
		a.Close()
		return nil, err
	}

	var notifier domain.JobNotifier
	if cfg.Webhook.URL != "" {
		notifier = infrastructure.NewWebhookClient(cfg.Webhook.URL, cfg.Webhook.Secret, cfg.Webhook.Timeout, log, m)
	}

	a.generation = usecase.NewGenerationService(cached, artifacts, notifier, log, m, usecase.GenerationOptions{
		BatchSize:        cfg.Generation.BatchSize,
		RecordsPerSecond: cfg.Generation.RecordsPerSecond,
		JobTimeout:       cfg.Generation.JobTimeout,
		DefaultRadius:    decimal.NewFromFloat(cfg.Generation.DefaultRadiusMiles),
		Retention:        cfg.Generation.JobRetention,
	})
	a.locations = usecase.NewLocationService(cached, store, cached, log)

	return a, nil
}

func openLocationStore(ctx context.Context, cfg config.DirectoryConfig, log *logger.Logger) (domain.LocationStore, error) {
	switch cfg.Driver {
	case config.DirectoryBolt:
		store, err := infrastructure.OpenBoltLocationStore(cfg.BoltPath, log)
		if err != nil {
			return nil, fmt.Errorf("failed to open bolt directory: %w", err)
		}
		log.WithField("path", cfg.BoltPath).Info("Using bolt location directory")
		return store, nil

	case config.DirectoryPostgres:
		if cfg.RunMigrations {
			if err := infrastructure.Migrate(cfg.PostgresURL); err != nil {
				return nil, fmt.Errorf("failed to migrate directory schema: %w", err)
			}
		}
		pool, err := infrastructure.NewPostgresPool(ctx, cfg.PostgresURL)
		if err != nil {
			return nil, err
		}
		log.Info("Using postgres location directory")
		return infrastructure.NewPostgresLocationStore(pool, log), nil

	default:
		log.Info("Using in-memory location directory")
		return infrastructure.NewMemoryLocationStore(log), nil
	}
}

func openArtifactStore(ctx context.Context, cfg config.ArtifactConfig, log *logger.Logger, a *app) (domain.ArtifactStore, error) {
	if cfg.Driver != config.ArtifactRedis {
		return infrastructure.NewMemoryArtifactStore(log), nil
	}

	rc, err := infrastructure.NewRedisClient(ctx, cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
	if err != nil {
		return nil, err
	}
	a.closers = append(a.closers, rc.Close)
	log.WithField("addr", cfg.RedisAddr).Info("Using redis artifact store")
	return infrastructure.NewRedisArtifactStore(rc, cfg.TTL, log), nil
}
