// cmd/autoapply/main.go
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"autoapply/internal/ai"
	"autoapply/internal/artifacts"
	"autoapply/internal/common/config"
	"autoapply/internal/common/database"
	"autoapply/internal/common/httpx"
	"autoapply/internal/common/logger"
	"autoapply/internal/common/observability"
	"autoapply/internal/contacts"
	"autoapply/internal/crm"
	"autoapply/internal/notify"
	"autoapply/internal/pipeline"
	"autoapply/internal/scheduler"
	"autoapply/internal/server"
	"autoapply/internal/sources"
	"autoapply/internal/store"
)

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2 // Exponential backoff
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func main() {
	zapLog := logger.New("info", "console")
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	zapLog.Info("Starting autoapply...")

	cfg, err := config.Load()
	if err != nil {
		zapLog.Fatal("config load failed", zap.Error(err))
	}

	obs := observability.New("autoapply")
	defer obs.Shutdown()

	ctx := context.Background()

	// --- Init PostgreSQL with retry ---
	var pg *database.PostgresClient
	err = retryWithBackoff(func() error {
		var err error
		pg, err = database.NewPostgres(cfg.Database.Postgres)
		if err != nil {
			return err
		}
		return pg.Ping(ctx)
	}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
	if err != nil {
		zapLog.Fatal("postgres failed after retries", zap.Error(err))
	}
	defer pg.Close()
	zapLog.Info("PostgreSQL connected successfully")

	// --- Init Redis with retry ---
	var redis *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		redis, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return redis.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer redis.Close()
	zapLog.Info("Redis connected successfully")

	// --- Init Elasticsearch with retry (optional posting index) ---
	var esClient *database.ElasticsearchClient
	if len(cfg.Database.Elasticsearch.Addresses) > 0 {
		err = retryWithBackoff(func() error {
			var err error
			esClient, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return esClient.Ping()
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Warn("elasticsearch unavailable, posting index disabled", zap.Error(err))
			esClient = nil
		} else {
			zapLog.Info("Elasticsearch connected successfully")
		}
	}

	// --- Persistence ---
	var indexer store.Indexer
	if esClient != nil {
		indexer = store.NewESIndexer(esClient.Client, cfg.Database.Elasticsearch.PostingIndex)
	}
	st := store.NewPostgresStore(pg.DB, indexer, log)

	// --- Discovery sources, ordered by tier ---
	sourceTimeout := config.GetDuration(cfg.Sources.TimeoutMS)
	navDelay := config.GetDuration(cfg.Sources.NavDelayMS)
	httpClient := httpx.NewClient(sourceTimeout, cfg.Sources.Browser.UserAgent)

	var srcs []sources.Source
	if esClient != nil {
		srcs = append(srcs, sources.NewIndexSource(esClient.Client, cfg.Database.Elasticsearch.PostingIndex, log))
	}
	srcs = append(srcs,
		sources.NewAdzunaSource(cfg.Sources.Adzuna.AppID, cfg.Sources.Adzuna.AppKey, cfg.Sources.Adzuna.Country, sourceTimeout, log),
		sources.NewNaukriSource(cfg.Sources.Naukri.APIKey, cfg.Sources.Naukri.BaseURL, sourceTimeout, log),
		sources.NewRemotiveSource(cfg.Sources.Remotive.Enabled, sourceTimeout, log),
		sources.NewScrapeSource(httpClient, navDelay, log),
		sources.NewBrowserSource(
			cfg.Sources.Browser.Enabled,
			cfg.Sources.Browser.TargetURL,
			sources.DefaultSessionFactory(cfg.Sources.Browser.UserAgent),
			navDelay, sourceTimeout, log,
		),
		sources.NewSyntheticSource(),
	)
	aggregator := sources.NewAggregator(cfg.Sources.MinPoolSize, log, srcs...)

	// --- AI gateway ---
	model, err := ai.NewGeminiModel(ctx, cfg.AI.APIKey, cfg.AI.Model)
	if err != nil {
		zapLog.Fatal("gemini client failed", zap.Error(err))
	}
	defer model.Close()
	gateway := ai.NewGateway(
		model,
		redis.Client,
		config.GetDuration(cfg.AI.MinIntervalMS),
		int64(cfg.AI.DailyCeiling),
		config.GetDuration(cfg.AI.TimeoutMS),
		log,
	)

	// --- Pipeline collaborators ---
	pipeOpts := []pipeline.Option{
		pipeline.WithFetcher(pipeline.NewHTTPDescriptionFetcher(httpClient)),
		pipeline.WithObservability(obs),
	}

	var notifier *notify.Notifier
	if cfg.Notifications.Email.Enabled || cfg.Notifications.SMS.Enabled {
		notifier, err = notify.NewNotifierFromRegion(ctx, notify.Config{
			EmailEnabled: cfg.Notifications.Email.Enabled,
			SMSEnabled:   cfg.Notifications.SMS.Enabled,
			SenderEmail:  cfg.Notifications.Email.FromEmail,
			AWSRegion:    cfg.Notifications.AWS.Region,
		}, log)
		if err != nil {
			zapLog.Fatal("notifier init failed", zap.Error(err))
		}
		pipeOpts = append(pipeOpts, pipeline.WithNotifier(notifier))
	}

	if cfg.Artifacts.Enabled {
		artifactStore, err := artifacts.NewStoreFromRegion(ctx, cfg.Artifacts.Region, cfg.Artifacts.Bucket, cfg.Artifacts.Prefix, log)
		if err != nil {
			zapLog.Fatal("artifact store init failed", zap.Error(err))
		}
		pipeOpts = append(pipeOpts, pipeline.WithArtifacts(artifactStore))
	}

	if cfg.Integrations.Zoho.Enabled {
		syncer := crm.NewSyncer(crm.NewZohoClient(cfg.Integrations.Zoho.OAuthToken), log)
		pipeOpts = append(pipeOpts, pipeline.WithContactSync(syncer))
		zapLog.Info("Zoho CRM contact sync enabled")
	}

	pipe := pipeline.New(gateway, contacts.NewExtractor(log), st, log, pipeOpts...)

	// --- Runner, scheduler, server ---
	runner := scheduler.NewRunner(aggregator, pipe, st, cfg.Pipeline.OverFetchLimit, cfg.Pipeline.PerRunCap, log)

	var runNotifier scheduler.RunNotifier
	if notifier != nil {
		runNotifier = notifier
	}
	sched := scheduler.New(scheduler.Config{
		DailySpec:       cfg.Scheduler.DailySpec,
		AcceleratedSpec: cfg.Scheduler.AcceleratedSpec,
		InterUserDelay:  config.GetDuration(cfg.Scheduler.InterUserDelayMS),
		LockTTL:         time.Duration(cfg.Scheduler.LockTTLMinutes) * time.Minute,
	}, runner, st, redis.Client, runNotifier, log)

	if err := sched.Start(); err != nil {
		zapLog.Fatal("scheduler start failed", zap.Error(err))
	}

	srv := server.New(cfg.Server.Address, runner, st, log)
	go func() {
		if err := srv.Start(); err != nil {
			zapLog.Fatal("http server failed", zap.Error(err))
		}
	}()

	zapLog.Info("autoapply is running",
		zap.String("address", cfg.Server.Address),
		zap.String("dailySpec", cfg.Scheduler.DailySpec),
	)

	// --- Graceful shutdown ---
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	zapLog.Info("Shutting down...")

	sched.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		zapLog.Warn("http shutdown error", zap.Error(err))
	}

	zapLog.Info("Shutdown complete")
}
