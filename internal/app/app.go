package app

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/godilite/lighthouse-monitor/internal/config"
	"github.com/godilite/lighthouse-monitor/internal/notify"
	"github.com/godilite/lighthouse-monitor/internal/pagespeed"
	"github.com/godilite/lighthouse-monitor/internal/repository"
	"github.com/godilite/lighthouse-monitor/internal/service"
	"github.com/godilite/lighthouse-monitor/pkg/cache"
	dbbuilder "github.com/godilite/lighthouse-monitor/pkg/database"
)

// App wires the resolved configuration into the monitoring pipeline and
// owns every handle that needs closing after the pass.
type App struct {
	logger  *zap.Logger
	dbPool  *sql.DB
	cache   *cache.Cache
	monitor *service.MonitorService
}

// NewApp builds the full pipeline: history backend, PageSpeed client with
// its optional Redis read-through, SMTP mailer, monitor service. Service
// options (dry run, a fixed clock) pass straight through.
func NewApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, svcOpts ...service.Option) (*App, error) {
	a := &App{logger: logger}

	var store service.HistoryRepository
	switch cfg.HistoryBackend {
	case "sqlite":
		dbPool, err := dbbuilder.New(
			dbbuilder.WithDriver("sqlite3"),
			dbbuilder.WithDataSource(cfg.HistoryDSN),
		)
		if err != nil {
			return nil, fmt.Errorf("database init failed: %w", err)
		}
		a.dbPool = dbPool

		repo := repository.NewSQLiteHistoryRepository(dbPool, logger)
		if err := repo.Init(ctx); err != nil {
			a.Close()
			return nil, fmt.Errorf("database schema init failed: %w", err)
		}
		store = repo
		logger.Info("history backend ready", zap.String("backend", "sqlite"), zap.String("dsn", cfg.HistoryDSN))
	default:
		store = repository.NewFileHistoryRepository(cfg.HistoryPath, logger)
		logger.Info("history backend ready", zap.String("backend", "file"), zap.String("path", cfg.HistoryPath))
	}

	clientOpts := []pagespeed.Option{
		pagespeed.WithAPIKey(cfg.APIKey),
		pagespeed.WithStrategy(cfg.Strategy),
		pagespeed.WithCategories(cfg.Categories),
		pagespeed.WithRateLimit(cfg.RequestsPerSecond),
	}
	if cfg.APIBaseURL != "" {
		clientOpts = append(clientOpts, pagespeed.WithBaseURL(cfg.APIBaseURL))
	}
	var auditor service.Auditor = pagespeed.NewClient(logger, clientOpts...)

	// The cache is a convenience for repeated same-day runs; an
	// unreachable Redis must not stop the pass.
	if cfg.CacheAddr != "" {
		cacheClient, err := cache.New(ctx, cache.WithAddress(cfg.CacheAddr))
		if err != nil {
			logger.Warn("cache unavailable, continuing without it",
				zap.String("addr", cfg.CacheAddr),
				zap.Error(err))
		} else {
			a.cache = cacheClient
			auditor = pagespeed.NewCachedAuditor(auditor, cacheClient, cfg.Strategy, cfg.CacheTTL(), logger)
			logger.Info("cache client initialized", zap.String("addr", cfg.CacheAddr))
		}
	}

	mailer := notify.NewSMTPMailer(notify.Options{
		Host:     cfg.SMTPHost,
		Port:     cfg.SMTPPort,
		Username: cfg.SMTPUser,
		Password: cfg.SMTPPassword,
		From:     cfg.EmailFrom,
		To:       cfg.EmailTo,
	}, logger)

	settings := service.Settings{
		URLs:       cfg.URLs,
		Categories: cfg.Categories,
		Threshold:  cfg.Threshold,
		Policy:     service.SendPolicy(cfg.SendPolicy),
	}
	a.monitor = service.NewMonitorService(auditor, store, mailer, settings, logger, svcOpts...)

	return a, nil
}

// Run executes one monitoring pass.
func (a *App) Run(ctx context.Context) (*service.RunSummary, error) {
	return a.monitor.RunOnce(ctx)
}

// Monitor exposes the service for read-only commands.
func (a *App) Monitor() *service.MonitorService {
	return a.monitor
}

// Close releases the cache and database handles. Safe to call regardless
// of which backend was configured.
func (a *App) Close() {
	if a.cache != nil {
		if err := a.cache.Close(); err != nil {
			a.logger.Error("cache shutdown error", zap.Error(err))
		}
	}
	if a.dbPool != nil {
		if err := a.dbPool.Close(); err != nil {
			a.logger.Error("database shutdown error", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}
