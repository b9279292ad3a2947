package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"urbfisc/internal/config"
	"urbfisc/internal/export"
	"urbfisc/internal/health"
	"urbfisc/internal/logging"
	"urbfisc/internal/metrics"
	"urbfisc/internal/report"
	"urbfisc/internal/storage"
	"urbfisc/internal/summary"
	"urbfisc/internal/telegram"
	"urbfisc/internal/web"
)

const (
	maxConnectRetries = 3
	connectRetryDelay = 5 * time.Second
	notifyWorkers     = 2
	notifyTimeout     = 30 * time.Second
)

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌ Invalid configuration:", err)
		os.Exit(1)
	}

	logger, err := logging.New(cfg.DebugMode)
	if err != nil {
		fmt.Fprintln(os.Stderr, "❌", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	if err := run(cfg, logger); err != nil {
		logger.Fatal("❌ Service stopped", zap.Error(err))
	}
}

func run(cfg *config.Config, logger *zap.Logger) error {
	logger.Info("🚀 Starting URBFISC service...")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, kind, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	loc := cfg.Location()
	renderer := report.NewRenderer(report.Options{
		LogoPath: cfg.LogoPath,
		Title:    cfg.ReportTitle,
		Subtitle: cfg.ReportSubtitle,
		Compress: cfg.ReportCompress,
		Location: loc,
	}, logger)

	notifier := telegram.NewClient(cfg.TelegramBotToken, cfg.TelegramChatID, cfg.DebugMode, logger)
	var dispatcher *telegram.Dispatcher
	if notifier.Enabled() {
		dispatcher = telegram.NewDispatcher(notifyWorkers, notifyTimeout, logger)
		defer dispatcher.Close()
	}

	srv := web.NewServer(web.Deps{
		Store:      store,
		Renderer:   renderer,
		Exporter:   export.Exporter{Location: loc},
		Summary:    summary.Table{Location: loc},
		Notifier:   notifier,
		Dispatcher: dispatcher,
		Metrics:    metrics.New(nil),
		Monitor:    health.NewMonitor(kind),
		Logger:     logger,
		Now:        func() time.Time { return time.Now().In(loc) },
	})

	httpServer := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           srv.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       cfg.HTTPReadTimeout,
		WriteTimeout:      cfg.HTTPWriteTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("✓ HTTP server started", zap.String("addr", httpServer.Addr), zap.String("store", kind))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		logger.Info("⏹️  Shutting down...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		return httpServer.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// openStore connects to Postgres when DATABASE_URL is set, retrying a few
// times while the database starts, and falls back to the in-memory store
// otherwise.
func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (storage.Store, string, error) {
	if !cfg.UsesDatabase() {
		logger.Warn("⚠️  DATABASE_URL not set, using in-memory store. Data is lost on restart.")
		return storage.NewMemory(), "memory", nil
	}

	logger.Info("📋 Connecting to Postgres...")
	var (
		store *storage.Postgres
		err   error
	)
	for attempt := 1; attempt <= maxConnectRetries; attempt++ {
		connectCtx, cancel := context.WithTimeout(ctx, cfg.DBConnectTimeout)
		store, err = storage.OpenPostgres(connectCtx, cfg.DatabaseURL, cfg.DBMaxConns,
			storage.WithPostgresLogger(logger))
		if err == nil {
			err = store.Init(connectCtx)
			if err != nil {
				store.Close()
			}
		}
		cancel()
		if err == nil {
			break
		}

		logger.Warn("❌ Database not ready",
			zap.Int("attempt", attempt),
			zap.Int("max_attempts", maxConnectRetries),
			zap.Error(err))
		if attempt < maxConnectRetries {
			select {
			case <-ctx.Done():
				return nil, "", ctx.Err()
			case <-time.After(connectRetryDelay):
			}
		}
	}
	if err != nil {
		return nil, "", fmt.Errorf("database unavailable after %d attempts: %w", maxConnectRetries, err)
	}

	logger.Info("✓ Postgres ready")
	return store, "postgres", nil
}
