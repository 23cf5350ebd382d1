package app

import (
	"context"
	"fmt"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"watchme-asr/internal/api/server"
	v1routes "watchme-asr/internal/api/v1/routes"
	"watchme-asr/internal/api/v1/services"
	"watchme-asr/internal/app/api/provider"
	"watchme-asr/internal/app/batch"
	"watchme-asr/internal/app/classifier"
	appconfig "watchme-asr/internal/app/config"
	"watchme-asr/internal/app/logging"
	"watchme-asr/internal/app/metrics"
	"watchme-asr/internal/app/policy"
	"watchme-asr/internal/app/quota"
	"watchme-asr/internal/app/repository"
	"watchme-asr/internal/app/repository/pg"
	"watchme-asr/internal/app/repository/sqlite"
	"watchme-asr/internal/app/storage"
	"watchme-asr/internal/config"

	// Adapter kinds register themselves with the provider registry.
	_ "watchme-asr/internal/app/api/azure"
	_ "watchme-asr/internal/app/api/elevenlabs"
	_ "watchme-asr/internal/app/api/gemini"
	_ "watchme-asr/internal/app/api/google"
	_ "watchme-asr/internal/app/api/openai/whisper"
)

var baseSet = wire.NewSet(
	provideSettings,
	provideAppConfig,
	provideLogger,
)

var batchSet = wire.NewSet(
	provideStore,
	provideFetcher,
	provideGate,
	provideRegistry,
	provideClassifier,
	providePolicy,
	provideStats,
	wire.Bind(new(provider.ProviderMetrics), new(*provider.DefaultProviderMetrics)),
	metrics.New,
	provideOrchestrator,
)

// Application is the assembled process graph shared by the CLI commands.
type Application struct {
	Settings     *config.Settings
	Config       *appconfig.Config
	Logger       *zap.Logger
	Registry     *provider.Registry
	Store        *repository.CommonDB
	Orchestrator *batch.Orchestrator
	Metrics      *metrics.Metrics
	Server       *server.Server
}

func provideSettings() (*config.Settings, error) {
	return config.InitializeConfig()
}

func provideAppConfig(settings *config.Settings) (*appconfig.Config, error) {
	cfg, err := appconfig.Load(settings.ConfigPath)
	if err != nil {
		return nil, fmt.Errorf("load %s: %w", settings.ConfigPath, err)
	}
	return cfg, nil
}

func provideLogger(settings *config.Settings) (*zap.Logger, func(), error) {
	logger, err := logging.NewLogger(!settings.IsProduction(), settings.LogLevel)
	if err != nil {
		return nil, nil, err
	}
	return logger, func() { _ = logger.Sync() }, nil
}

func provideStore(ctx context.Context, settings *config.Settings) (*repository.CommonDB, func(), error) {
	var (
		store *repository.CommonDB
		err   error
	)
	switch settings.Database.Driver {
	case "postgres":
		store, err = pg.Open(ctx, settings.Database.DSN)
	default:
		store, err = sqlite.Open(ctx, settings.Database.SQLitePath)
	}
	if err != nil {
		return nil, nil, err
	}
	return store, func() { _ = store.Close() }, nil
}

func provideFetcher(ctx context.Context, settings *config.Settings) (storage.Fetcher, error) {
	s := settings.Storage

	var next storage.Fetcher
	switch s.Backend {
	case "s3":
		f, err := storage.NewS3Fetcher(ctx, storage.S3Config{
			Region:          s.S3Region,
			Bucket:          s.Bucket,
			Endpoint:        s.S3Endpoint,
			AccessKeyID:     s.S3AccessKey,
			SecretAccessKey: s.S3SecretKey,
			UsePathStyle:    s.S3UsePathStyle,
			MaxBytes:        s.MaxBytes,
		})
		if err != nil {
			return nil, err
		}
		next = f
	case "memory":
		next = storage.NewMemoryFetcher()
	default:
		f, err := storage.NewMinioFetcher(storage.MinioConfig{
			Endpoint:  s.MinioEndpoint,
			AccessKey: s.MinioAccessKey,
			SecretKey: s.MinioSecretKey,
			Bucket:    s.Bucket,
			UseSSL:    s.MinioUseSSL,
			MaxBytes:  s.MaxBytes,
		})
		if err != nil {
			return nil, err
		}
		next = f
	}
	return storage.NewLimited(next, storage.Limits{MaxBytes: s.MaxBytes, Timeout: s.Timeout}), nil
}

// provideGate returns nil when quota back-off is not configured.
func provideGate(settings *config.Settings, cfg *appconfig.Config, logger *zap.Logger) (quota.Gate, func(), error) {
	qc := cfg.Orchestrator.Quota
	if !qc.Enabled() {
		return nil, func() {}, nil
	}
	if !settings.Redis.Enabled() {
		return quota.NewMemoryGate(qc), func() {}, nil
	}

	rdb := redis.NewClient(&redis.Options{
		Addr:     settings.Redis.Addr,
		Password: settings.Redis.Password,
		DB:       settings.Redis.DB,
	})
	logger.Info("quota gate backed by redis", zap.String("addr", settings.Redis.Addr))
	return quota.NewRedisGate(rdb, qc, settings.Redis.Prefix), func() { _ = rdb.Close() }, nil
}

func provideRegistry(cfg *appconfig.Config, logger *zap.Logger) *provider.Registry {
	return provider.NewRegistry(cfg.Providers, cfg.Selection(), logger)
}

func provideClassifier(cfg *appconfig.Config) (*classifier.Classifier, error) {
	return classifier.New(cfg.QuotaHeuristics())
}

func providePolicy(cfg *appconfig.Config) (*policy.Filter, error) {
	return policy.NewFilter(cfg.SkipPolicy)
}

func provideOrchestrator(
	cfg *appconfig.Config,
	registry *provider.Registry,
	store *repository.CommonDB,
	fetcher storage.Fetcher,
	filter *policy.Filter,
	c *classifier.Classifier,
	gate quota.Gate,
	m *metrics.Metrics,
	stats provider.ProviderMetrics,
	logger *zap.Logger,
) (*batch.Orchestrator, error) {
	return batch.New(batch.Deps{
		Resolver:   registry,
		Store:      store,
		Fetcher:    fetcher,
		Policy:     filter,
		Classifier: c,
		Gate:       gate,
		Metrics:    m,
		Stats:      stats,
		Logger:     logger,
	}, cfg.Orchestrator)
}

func provideServices(
	cfg *appconfig.Config,
	orchestrator *batch.Orchestrator,
	registry *provider.Registry,
	store *repository.CommonDB,
	c *classifier.Classifier,
	stats provider.ProviderMetrics,
	logger *zap.Logger,
) *v1routes.ServiceContainer {
	return &v1routes.ServiceContainer{
		BatchService:         services.NewBatchService(orchestrator, logger),
		TranscriptionService: services.NewTranscriptionService(registry, c, stats, cfg.Orchestrator.TranscribeTimeout),
		ProviderService:      services.NewProviderService(registry, stats),
		WorkItemService:      services.NewWorkItemService(store),
	}
}

func provideServer(settings *config.Settings, container *v1routes.ServiceContainer, m *metrics.Metrics, logger *zap.Logger) *server.Server {
	cfg := server.DefaultConfig(settings.Server.Host, settings.Server.Port, settings.Env)
	return server.NewServer(cfg, container, m.Handler(), logger)
}

func provideStats() *provider.DefaultProviderMetrics {
	return provider.NewProviderMetrics()
}

// ShutdownTimeout bounds graceful HTTP shutdown.
const ShutdownTimeout = 30 * time.Second
