// Package bootstrap assembles the sync service from configuration.
// The HTTP server and the syncctl CLI build the same App.
package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/catalogsync/internal/application/catalogsync"
	"github.com/erp/catalogsync/internal/domain/syncrun"
	"github.com/erp/catalogsync/internal/infrastructure/cache"
	"github.com/erp/catalogsync/internal/infrastructure/config"
	"github.com/erp/catalogsync/internal/infrastructure/logger"
	"github.com/erp/catalogsync/internal/infrastructure/persistence"
	"github.com/erp/catalogsync/internal/infrastructure/scheduler"
	"github.com/erp/catalogsync/internal/infrastructure/source"
	"github.com/erp/catalogsync/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

const meterName = "github.com/erp/catalogsync"

// App owns every long-lived component of the service
type App struct {
	Config    *config.Config
	Logger    *zap.Logger
	DB        *persistence.Database
	Store     *persistence.GormStore
	Service   *catalogsync.SyncService
	Scheduler *scheduler.Scheduler // nil when scheduling is disabled
	Trigger   *scheduler.Trigger
	Version   string

	tracer   *telemetry.TracerProvider
	meter    *telemetry.MeterProvider
	logs     *telemetry.LoggerProvider
	profiler *telemetry.Profiler
	redis    *cache.RedisLocker
}

// Option customizes New
type Option func(*options)

type options struct {
	logger      *zap.Logger
	source      syncrun.SourceAdapter
	autoMigrate bool
	version     string
}

// WithLogger uses the given logger instead of building one from config.
// Log export is not attached to it.
func WithLogger(l *zap.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithSource replaces the configured source adapter
func WithSource(s syncrun.SourceAdapter) Option {
	return func(o *options) {
		o.source = s
	}
}

// WithAutoMigrate forces gorm auto-migration. SQLite databases are always auto-migrated.
func WithAutoMigrate(enabled bool) Option {
	return func(o *options) {
		o.autoMigrate = enabled
	}
}

// WithVersion sets the version reported by the system endpoint
func WithVersion(v string) Option {
	return func(o *options) {
		o.version = v
	}
}

// New builds the App. On error everything already opened is closed.
func New(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := &options{version: "dev"}
	for _, opt := range opts {
		opt(o)
	}

	a := &App{Config: cfg, Version: o.version}
	if err := a.init(ctx, o); err != nil {
		_ = a.Shutdown(context.Background())
		return nil, err
	}
	return a, nil
}

func (a *App) init(ctx context.Context, o *options) error {
	cfg := a.Config

	if err := a.initLogger(ctx, o.logger); err != nil {
		return err
	}
	if err := a.initTelemetry(ctx); err != nil {
		return err
	}
	if err := a.initDatabase(o.autoMigrate); err != nil {
		return err
	}

	src := o.source
	if src == nil {
		var err error
		if src, err = newSource(ctx, cfg, a.Logger); err != nil {
			return err
		}
	}

	locker := cache.ChainLocker{cache.NewMemoryLocker()}
	if cfg.Redis.Enabled {
		rl, err := cache.NewRedisLocker(cfg.Redis, cfg.Sync.LockTTL)
		if err != nil {
			return err
		}
		a.redis = rl
		locker = append(locker, rl)
		a.Logger.Info("Redis sync lock enabled", zap.String("addr", cfg.Redis.Addr()))
	}

	orchestrator := catalogsync.NewOrchestrator(src, a.Store,
		catalogsync.WithSourceTimeout(cfg.Sync.SourceTimeout),
		catalogsync.WithMaxIssues(cfg.Sync.MaxIssues),
		catalogsync.WithOrchestratorLogger(a.Logger),
	)
	a.Service = catalogsync.NewSyncService(orchestrator, a.Store.Runs(), locker, a.Logger)

	metrics, err := telemetry.NewSyncMetrics(a.meter.Meter(meterName))
	if err != nil {
		return fmt.Errorf("failed to create sync metrics: %w", err)
	}
	a.Service.SetMetrics(metrics)

	return a.initScheduler()
}

func (a *App) initLogger(ctx context.Context, injected *zap.Logger) error {
	if injected != nil {
		a.Logger = injected
		return nil
	}

	cfg := a.Config
	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: "2006-01-02T15:04:05.000Z07:00",
	}
	log, err := logger.New(logCfg)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.Logger = log

	if !cfg.Telemetry.LogsEnabled {
		return nil
	}
	a.logs, err = telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           true,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       cfg.Telemetry.ServiceName,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		return err
	}
	core := telemetry.NewZapOTELCore(cfg.Telemetry.ServiceName, a.logs, logger.ParseLevel(cfg.Telemetry.LogsLevel))
	teed, err := logger.New(logCfg, logger.WithTee(core))
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	a.Logger = teed
	return nil
}

func (a *App) initTelemetry(ctx context.Context) error {
	t := a.Config.Telemetry
	var err error

	a.profiler, err = telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:         t.ProfilingEnabled,
		ServerAddress:   t.PyroscopeAddress,
		ApplicationName: t.ServiceName,
		Allocations:     true,
		Goroutines:      true,
	}, a.Logger)
	if err != nil {
		return err
	}

	a.tracer, err = telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           t.Enabled,
		CollectorEndpoint: t.CollectorEndpoint,
		SamplingRatio:     t.SamplingRatio,
		ServiceName:       t.ServiceName,
		Insecure:          t.Insecure,
	}, a.Logger)
	if err != nil {
		return err
	}
	if a.profiler.IsEnabled() {
		a.tracer.EnableSpanProfiles()
	}

	a.meter, err = telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           t.MetricsEnabled,
		CollectorEndpoint: t.CollectorEndpoint,
		ExportInterval:    t.MetricsExportInterval,
		ServiceName:       t.ServiceName,
		Insecure:          t.Insecure,
	}, a.Logger)
	return err
}

func (a *App) initDatabase(autoMigrate bool) error {
	cfg := a.Config
	gormLog := logger.NewGormLogger(a.Logger, logger.MapGormLogLevel(cfg.Log.Level),
		logger.WithSlowThreshold(cfg.Telemetry.DBSlowQueryThresh))
	tracing := telemetry.NewDBTracingPlugin(telemetry.DBTracingConfig{
		Enabled:         cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled,
		LogFullSQL:      cfg.Telemetry.DBLogFullSQL,
		SlowQueryThresh: cfg.Telemetry.DBSlowQueryThresh,
		DBName:          cfg.Database.DBName,
	}, a.Logger)

	db, err := persistence.NewDatabase(&cfg.Database,
		persistence.WithLogger(gormLog),
		persistence.WithPlugin(tracing),
	)
	if err != nil {
		return err
	}
	a.DB = db
	a.Logger.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	if autoMigrate || cfg.Database.Driver == "sqlite" {
		if err := db.AutoMigrate(); err != nil {
			return err
		}
	}
	a.Store = persistence.NewGormStore(db.DB)
	return nil
}

func (a *App) initScheduler() error {
	cfg := a.Config.Scheduler
	if !cfg.Enabled {
		return nil
	}

	schedules, err := scheduler.SchedulesFromConfig(cfg.Schedules)
	if err != nil {
		return err
	}
	executor := scheduler.NewSyncExecutor(a.Service, a.Logger)
	a.Scheduler = scheduler.NewScheduler(scheduler.SchedulerConfig{
		Enabled:           true,
		MaxConcurrentJobs: cfg.MaxConcurrentJobs,
		JobTimeout:        cfg.JobTimeout,
		RetryAttempts:     cfg.RetryAttempts,
		RetryDelay:        cfg.RetryDelay,
	}, executor, a.Logger)
	a.Trigger = scheduler.NewTrigger(scheduler.TriggerConfig{CheckInterval: cfg.CheckInterval},
		a.Scheduler, schedules, a.Logger)
	return nil
}

func newSource(ctx context.Context, cfg *config.Config, log *zap.Logger) (syncrun.SourceAdapter, error) {
	delimiter := source.WithDelimiter([]rune(cfg.Sync.Delimiter)[0])
	switch cfg.Sync.SourceKind {
	case config.SourceS3:
		s3, err := source.NewS3Adapter(ctx, &cfg.Storage,
			source.WithS3Logger(log),
			source.WithS3Parser(delimiter),
		)
		if err != nil {
			return nil, err
		}
		log.Info("Using S3 source", zap.String("bucket", cfg.Storage.Bucket), zap.String("prefix", cfg.Storage.Prefix))
		return s3, nil
	default:
		log.Info("Using directory source", zap.String("root", cfg.Sync.SourceDir))
		return source.NewDirectoryAdapter(cfg.Sync.SourceDir, log, delimiter), nil
	}
}

// Start starts the scheduler and its trigger when scheduling is enabled
func (a *App) Start(ctx context.Context) error {
	if a.Scheduler == nil {
		return nil
	}
	if err := a.Scheduler.Start(ctx); err != nil {
		return fmt.Errorf("failed to start scheduler: %w", err)
	}
	if err := a.Trigger.Start(ctx); err != nil {
		return fmt.Errorf("failed to start sync trigger: %w", err)
	}
	return nil
}

// Shutdown stops background work, then closes connections and flushes telemetry
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if a.Trigger != nil {
		errs = append(errs, a.Trigger.Stop(ctx))
	}
	if a.Scheduler != nil {
		errs = append(errs, a.Scheduler.Stop(ctx))
	}
	if a.redis != nil {
		errs = append(errs, a.redis.Close())
	}
	if a.DB != nil {
		errs = append(errs, a.DB.Close())
	}
	if a.meter != nil {
		errs = append(errs, a.meter.Shutdown(ctx))
	}
	if a.tracer != nil {
		errs = append(errs, a.tracer.Shutdown(ctx))
	}
	if a.profiler != nil {
		errs = append(errs, a.profiler.Stop())
	}
	if a.logs != nil {
		errs = append(errs, a.logs.Shutdown(ctx))
	}
	if a.Logger != nil {
		_ = logger.Sync(a.Logger)
	}
	return errors.Join(errs...)
}
