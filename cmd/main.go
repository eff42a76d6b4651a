package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/brianfmorissette/chatgpt-champion/internal/adapters/http/api"
	"github.com/brianfmorissette/chatgpt-champion/internal/adapters/http/swagger"
	"github.com/brianfmorissette/chatgpt-champion/internal/adapters/source"
	"github.com/brianfmorissette/chatgpt-champion/internal/adapters/watcher"
	service "github.com/brianfmorissette/chatgpt-champion/internal/app"
	"github.com/brianfmorissette/chatgpt-champion/internal/config"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/features"
	"github.com/brianfmorissette/chatgpt-champion/internal/domain/ingest"
	"github.com/brianfmorissette/chatgpt-champion/pkg/logger"
	"github.com/brianfmorissette/chatgpt-champion/pkg/metrics"
)

// HTTP server timeout constants.
const (
	readTimeout               = 10 * time.Second
	writeTimeout              = 10 * time.Second
	idleTimeout               = 60 * time.Second
	readHeaderTimeout         = 5 * time.Second
	shutdownTimeout           = 30 * time.Second
	systemMetricsInterval     = 10 * time.Second
	nanosecondsPerMillisecond = 1e6
)

func main() {
	// Root context with cancel on SIGINT/SIGTERM.
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Load configuration (defaults -> optional file -> env)
	cfg, err := config.Load(ctx)
	if err != nil {
		// logger isn't available yet
		os.Stderr.WriteString("failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	if err := logger.InitWithOptions(logger.WithJSON(cfg.LogJSON)); err != nil {
		os.Stderr.WriteString("failed to initialize logging: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.Get()
	if err := logger.SetLevelString(cfg.LogLevel); err != nil {
		log.Warn(ctx, "invalid log_level; falling back to info", logger.String("log_level", cfg.LogLevel), logger.Error(err))
		_ = logger.SetLevelString("info")
	}

	if err := run(ctx, cfg, log); err != nil {
		log.Error(ctx, "server exited", logger.Error(err))
		os.Exit(1)
	}
}

// run starts the service, the HTTP server and, when enabled, the record file
// watcher, and blocks until ctx is cancelled or one of them fails.
func run(ctx context.Context, cfg *config.Config, log logger.Logger) error {
	if err := installMetrics(cfg.Metrics); err != nil {
		return err
	}
	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}
	if err := svc.Start(ctx); err != nil {
		return fmt.Errorf("start service: %w", err)
	}
	defer svc.Stop()

	srv := &http.Server{
		Addr:              cfg.Addr,
		Handler:           newMux(ctx, svc, cfg),
		ReadTimeout:       readTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info(gctx, "starting HTTP server", logger.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		log.Info(context.Background(), "shutting down server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		startSystemMetricsUpdater(gctx)
		return nil
	})

	if cfg.Watch {
		w, err := watcher.New(cfg.RecordsPath, svc.Reload, watcher.WithLogger(log.Named("watcher")))
		if err != nil {
			return err
		}
		g.Go(func() error { return w.Run(gctx) })
	}

	err = g.Wait()
	log.Info(context.Background(), "server stopped")
	return err
}

// installMetrics replaces the default metrics manager with one shaped by the
// metrics config block. /healthz serves its registry.
func installMetrics(mc config.Metrics) error {
	return metrics.Use(metrics.NewManager(mc.Options()...))
}

// newService builds the record source and the service from cfg.
func newService(cfg *config.Config, log logger.Logger) (*service.Service, error) {
	mode, _ := features.ParseMode(cfg.UsageParseMode)
	parser := ingest.New(ingest.WithUsageParser(features.NewParser(features.WithMode(mode))))

	src, err := source.New(cfg.RecordsFormat, cfg.RecordsPath,
		source.WithLogger(log.Named("source")),
		source.WithParser(parser),
		source.WithTable(cfg.SQLiteTable),
	)
	if err != nil {
		return nil, err
	}

	return service.New(
		service.WithLogger(log.Named("service")),
		service.WithSource(src),
		service.WithWeights(cfg.Weights),
		service.WithCacheSize(cfg.CacheSize),
		service.WithLimits(cfg.DefaultTopN, cfg.MaxLeaderboardLimit),
	), nil
}

// newMux registers the business API and the API docs.
func newMux(ctx context.Context, svc *service.Service, cfg *config.Config) *http.ServeMux {
	mux := http.NewServeMux()
	swagger.Register(ctx, mux)
	api.NewServer(svc, svc, cfg.DefaultTopN, cfg.MaxLeaderboardLimit).Register(ctx, mux)
	return mux
}

// startSystemMetricsUpdater refreshes runtime gauges until ctx is done.
func startSystemMetricsUpdater(ctx context.Context) {
	ticker := time.NewTicker(systemMetricsInterval)
	defer ticker.Stop()

	updateSystemMetrics()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			updateSystemMetrics()
		}
	}
}

func updateSystemMetrics() {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)
	metrics.UpdateSystemMemoryUsage(m.Alloc)
	metrics.UpdateSystemGoroutineCount(runtime.NumGoroutine())
	if m.NumGC > 0 {
		avgPauseMs := float64(m.PauseTotalNs) / float64(m.NumGC) / nanosecondsPerMillisecond
		metrics.RecordSystemGCPauseTime(avgPauseMs)
	}
}
