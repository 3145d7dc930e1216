package main

import (
	"context"
	"fmt"
	"time"

	"agency-dashboard/internal/activity"
	"agency-dashboard/internal/analytics"
	appaws "agency-dashboard/internal/common/aws"
	"agency-dashboard/internal/common/config"
	"agency-dashboard/internal/common/database"
	"agency-dashboard/internal/common/leadshark"
	"agency-dashboard/internal/common/logger"
	"agency-dashboard/internal/common/observability"
	"agency-dashboard/internal/importer"
	"agency-dashboard/internal/notify"
	"agency-dashboard/internal/search"
	"agency-dashboard/internal/store"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// app holds every backend the commands share.
type app struct {
	cfg *config.Config
	zap *zap.Logger
	log logger.Logger
	obs *observability.Observability

	pg    *database.PostgresClient
	redis *database.RedisClient
	es    *database.ElasticsearchClient
	index *search.Index

	store     *store.Store
	analytics *analytics.Service
	activity  *activity.Service
	importer  *importer.Importer
	notifier  *notify.Notifier
}

func newApp(ctx context.Context, cfg *config.Config) (*app, error) {
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	log := logger.NewZapAdapter(zapLog).WithFields(map[string]interface{}{
		"service": cfg.App.Name,
		"env":     cfg.App.Environment,
	})

	a := &app{
		cfg: cfg,
		zap: zapLog,
		log: log,
		obs: observability.New(cfg.App.Name, prometheus.DefaultRegisterer, log),
	}

	if err := a.connect(ctx); err != nil {
		a.Close()
		return nil, err
	}
	if err := a.assemble(ctx); err != nil {
		a.Close()
		return nil, err
	}
	return a, nil
}

// connect opens the databases the configuration enables.
func (a *app) connect(ctx context.Context) error {
	cfg := a.cfg

	if cfg.Store.Backend == config.BackendPostgres {
		err := retryWithBackoff(ctx, func() error {
			pg, err := database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			if err := pg.Ping(ctx); err != nil {
				_ = pg.Close()
				return err
			}
			a.pg = pg
			return nil
		}, 15, 2*time.Second, a.log, "PostgreSQL connection")
		if err != nil {
			return err
		}
		a.log.Info("PostgreSQL connected successfully", nil)
	}

	if cfg.Store.Cache.Enabled {
		rdb := database.NewRedis(cfg.Database.Redis)
		if err := retryWithBackoff(ctx, func() error { return rdb.Ping(ctx) }, 10, 2*time.Second, a.log, "Redis connection"); err != nil {
			_ = rdb.Close()
			return err
		}
		a.redis = rdb
		a.log.Info("Redis connected successfully", nil)
	}

	if cfg.Database.Elasticsearch.Enabled {
		err := retryWithBackoff(ctx, func() error {
			es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			if err := es.Ping(ctx); err != nil {
				return err
			}
			a.es = es
			return nil
		}, 15, 2*time.Second, a.log, "Elasticsearch connection")
		if err != nil {
			return err
		}
		a.index = search.NewIndex(a.es.Client, a.es.Index, a.log)
		if err := a.index.EnsureIndex(ctx); err != nil {
			return err
		}
		a.log.Info("Elasticsearch connected successfully", nil)
	}
	return nil
}

// assemble stacks the store decorators and builds the services on top.
func (a *app) assemble(ctx context.Context) error {
	cfg := a.cfg
	latency := store.LatencyFromConfig(cfg.Store.Latency)

	var collections store.Collections
	if a.pg != nil {
		collections = store.PostgresCollections(a.pg.DB, latency)
	} else {
		collections = store.MemoryCollections(latency, store.Seed{})
	}
	if a.redis != nil {
		collections = collections.WithCache(a.redis.Client, config.GetDuration(cfg.Store.Cache.TTL), a.log)
	}
	collections = collections.WithInstrumentation(a.obs)
	if a.index != nil {
		collections.Prospects = search.NewSynced(collections.Prospects, a.index, a.log)
	}

	a.store = store.New(collections, latency, a.log)
	a.activity = activity.NewService(a.store, a.log)

	a.analytics = analytics.NewService(a.store, a.redisClient(), config.GetDuration(cfg.Analytics.CacheTTL), a.log)
	a.activity.OnRecord(a.analytics.ActivityRecorded)

	leads := leadshark.NewClient(cfg.Integrations.LeadShark.BaseURL, config.GetDuration(cfg.Integrations.LeadShark.Timeout))
	a.importer = importer.New(a.store, leads, a.log)

	return a.buildNotifier(ctx)
}

func (a *app) buildNotifier(ctx context.Context) error {
	aws := a.cfg.Integrations.AWS
	if !aws.SES.Enabled && !aws.SNS.Enabled {
		return nil
	}

	var (
		email     notify.EmailSender
		publisher notify.Publisher
	)
	if aws.SES.Enabled {
		c, err := appaws.NewSESClient(ctx, aws.Region)
		if err != nil {
			return fmt.Errorf("ses client: %w", err)
		}
		email = c
	}
	if aws.SNS.Enabled {
		c, err := appaws.NewSNSClient(ctx, aws.Region)
		if err != nil {
			return fmt.Errorf("sns client: %w", err)
		}
		publisher = c
	}

	a.notifier = notify.New(a.store.Clients, a.analytics, email, publisher, notify.Config{
		FromEmail: aws.SES.FromEmail,
		TopicARN:  aws.SNS.TopicARN,
	}, a.log)
	return nil
}

func (a *app) redisClient() *redis.Client {
	if a.redis == nil {
		return nil
	}
	return a.redis.Client
}

func (a *app) Close() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn("Failed to close Redis", map[string]interface{}{"error": err})
		}
	}
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.log.Warn("Failed to close PostgreSQL", map[string]interface{}{"error": err})
		}
	}
	a.obs.Shutdown()
	_ = a.zap.Sync()
}
