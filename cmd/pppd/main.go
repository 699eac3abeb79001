// gopppd daemon -- PPP session engine core (accel-ppp ppp.c distillation).
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"github.com/tokarak/gopppd/cmd/pppd/nulllayer"
	"github.com/tokarak/gopppd/internal/config"
	"github.com/tokarak/gopppd/internal/controlapi"
	"github.com/tokarak/gopppd/internal/kernel"
	gopppdmetrics "github.com/tokarak/gopppd/internal/metrics"
	"github.com/tokarak/gopppd/internal/notify"
	"github.com/tokarak/gopppd/internal/ppp"
	"github.com/tokarak/gopppd/internal/reactor"
	appversion "github.com/tokarak/gopppd/internal/version"
)

// shutdownTimeout bounds how long the control and metrics HTTP servers
// are given to drain in-flight requests during graceful shutdown.
const shutdownTimeout = 10 * time.Second

func main() {
	os.Exit(run())
}

func run() int {
	configPath := flag.String("config", "", "path to configuration file (YAML)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		slog.New(slog.NewTextHandler(os.Stderr, nil)).Error("failed to load configuration",
			slog.String("error", err.Error()),
		)
		return 1
	}

	logLevel := new(slog.LevelVar)
	logLevel.Set(config.ParseLogLevel(cfg.Log.Level))
	logger := newLoggerWithLevel(cfg.Log, logLevel)

	logger.Info("gopppd starting",
		slog.String("version", appversion.Version),
		slog.String("control_addr", cfg.Control.Addr),
		slog.String("metrics_addr", cfg.Metrics.Addr),
	)

	reg := prometheus.NewRegistry()
	collector := gopppdmetrics.NewCollector(reg)

	mux := kernel.NewMultiplexor()

	epollReactor, err := reactor.NewEpollReactor()
	if err != nil {
		logger.Error("failed to start reactor", slog.String("error", err.Error()))
		return 1
	}
	defer epollReactor.Close() //nolint:errcheck // best-effort on the exit path.

	dbusNotifier, err := notify.NewDBusNotifier(logger)
	if err != nil {
		logger.Warn("D-Bus notifications unavailable, continuing without them",
			slog.String("error", err.Error()),
		)
	}
	defer dbusNotifier.Close() //nolint:errcheck // best-effort on the exit path.

	registry := buildLayerRegistry(cfg.PPP.Layers)
	unitCache := ppp.NewUnitCache(cfg.PPP.UnitCacheSize)

	mgr := ppp.NewManager(mux, epollReactor, registry, unitCache,
		ppp.WithManagerNotifier(dbusNotifier),
		ppp.WithManagerMetrics(collector),
		ppp.WithManagerLogger(logger),
		ppp.WithManagerVerbose(cfg.PPP.Verbose > 0),
	)

	if err := runServers(cfg, mgr, reg, logger, *configPath, logLevel); err != nil {
		logger.Error("gopppd exited with error", slog.String("error", err.Error()))
		return 1
	}

	logger.Info("gopppd stopped")
	return 0
}

// buildLayerRegistry registers the placeholder nulllayer.Factory for
// every layer name the configuration names. Real per-protocol
// negotiation is an external collaborator the core never implements;
// this gives the daemon at least one registered layer per configured
// tier so Establish has something to drive.
func buildLayerRegistry(layers []string) *ppp.LayerRegistry {
	registry := ppp.NewLayerRegistry()
	for _, name := range layers {
		if err := registry.Register(name, nulllayer.New(name)); err != nil {
			slog.Default().Warn("skipping unregisterable layer name",
				slog.String("layer", name),
				slog.String("error", err.Error()),
			)
		}
	}
	return registry
}

func runServers(
	cfg *config.Config,
	mgr *ppp.Manager,
	reg *prometheus.Registry,
	logger *slog.Logger,
	configPath string,
	logLevel *slog.LevelVar,
) error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, gCtx := errgroup.WithContext(ctx)

	controlSrv := controlapi.New(mgr, logger)
	controlHTTP := &http.Server{
		Addr:              cfg.Control.Addr,
		Handler:           controlSrv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsHTTP := newMetricsServer(cfg.Metrics, reg)

	startUnits(gCtx, cfg, mgr, logger)

	g.Go(func() error {
		logger.Info("control API listening", slog.String("addr", cfg.Control.Addr))
		return listenAndServe(gCtx, controlHTTP)
	})

	g.Go(func() error {
		logger.Info("metrics server listening",
			slog.String("addr", cfg.Metrics.Addr),
			slog.String("path", cfg.Metrics.Path),
		)
		return listenAndServe(gCtx, metricsHTTP)
	})

	startReloadHandler(gCtx, g, mgr, configPath, logLevel, logger)

	g.Go(func() error {
		<-gCtx.Done()
		return gracefulShutdown(gCtx, mgr, logger, controlHTTP, metricsHTTP)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("run servers: %w", err)
	}
	return nil
}

// startUnits opens a transport fd for each statically configured unit
// and establishes a session over it. A unit that fails to open or
// establish is logged and skipped; it does not abort daemon startup.
func startUnits(ctx context.Context, cfg *config.Config, mgr *ppp.Manager, logger *slog.Logger) {
	for _, uc := range cfg.Units {
		f, err := os.OpenFile(uc.Transport, os.O_RDWR, 0)
		if err != nil {
			logger.Error("failed to open unit transport, skipping",
				slog.String("unit", uc.ID),
				slog.String("transport", uc.Transport),
				slog.String("error", err.Error()),
			)
			continue
		}

		mru := uc.MRU
		if mru == 0 {
			mru = cfg.PPP.MRU
		}

		if _, err := mgr.Establish(uc.ID, int(f.Fd()), mru); err != nil {
			logger.Error("failed to establish unit session, skipping",
				slog.String("unit", uc.ID),
				slog.String("error", err.Error()),
			)
			f.Close() //nolint:errcheck
			continue
		}

		logger.Info("unit session established", slog.String("unit", uc.ID))
	}

	_ = ctx
}

func startReloadHandler(ctx context.Context, g *errgroup.Group, mgr *ppp.Manager, configPath string, logLevel *slog.LevelVar, logger *slog.Logger) {
	sigHUP := make(chan os.Signal, 1)
	signal.Notify(sigHUP, syscall.SIGHUP)

	g.Go(func() error {
		defer signal.Stop(sigHUP)
		for {
			select {
			case <-ctx.Done():
				return nil
			case <-sigHUP:
				logger.Info("received SIGHUP, reloading configuration")
				reloadConfig(mgr, configPath, logLevel, logger)
			}
		}
	})
}

// reloadConfig re-reads configuration and applies the settings that are
// safe to change without restarting: the log level, the per-session
// verbose-logging flag, and the unit cache's bound. Layer registration
// is fixed at process start -- the registry has no add/remove
// machinery here, unlike the declarative unit list startUnits
// reconciles at startup.
func reloadConfig(mgr *ppp.Manager, configPath string, logLevel *slog.LevelVar, logger *slog.Logger) {
	newCfg, err := loadConfig(configPath)
	if err != nil {
		logger.Error("failed to reload configuration, keeping current settings",
			slog.String("error", err.Error()),
		)
		return
	}

	oldLevel := logLevel.Level()
	newLevel := config.ParseLogLevel(newCfg.Log.Level)
	logLevel.Set(newLevel)

	mgr.SetVerbose(newCfg.PPP.Verbose > 0)
	mgr.SetUnitCacheBound(newCfg.PPP.UnitCacheSize)

	logger.Info("configuration reloaded",
		slog.String("old_log_level", oldLevel.String()),
		slog.String("new_log_level", newLevel.String()),
		slog.Bool("verbose", newCfg.PPP.Verbose > 0),
		slog.Int("unit_cache_size", newCfg.PPP.UnitCacheSize),
	)
}

func gracefulShutdown(ctx context.Context, mgr *ppp.Manager, logger *slog.Logger, servers ...*http.Server) error {
	logger.Info("initiating graceful shutdown")

	for _, snap := range mgr.Sessions() {
		if err := mgr.Terminate(snap.ID, ppp.TermAdminReset, true); err != nil {
			logger.Warn("failed to terminate session during shutdown",
				slog.String("session_id", snap.ID),
				slog.String("error", err.Error()),
			)
		}
	}

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
	defer cancel()

	var shutdownErr error
	for _, srv := range servers {
		if err := srv.Shutdown(shutdownCtx); err != nil {
			shutdownErr = errors.Join(shutdownErr, fmt.Errorf("shutdown server: %w", err))
		}
	}
	return shutdownErr
}

func listenAndServe(ctx context.Context, srv *http.Server) error {
	lc := net.ListenConfig{}
	ln, err := lc.Listen(ctx, "tcp", srv.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", srv.Addr, err)
	}
	if err := srv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve on %s: %w", srv.Addr, err)
	}
	return nil
}

func newMetricsServer(cfg config.MetricsConfig, reg *prometheus.Registry) *http.Server {
	mux := http.NewServeMux()
	mux.Handle(cfg.Path, promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	return &http.Server{
		Addr:              cfg.Addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		cfg, err := config.Load(path)
		if err != nil {
			return nil, fmt.Errorf("load config from %s: %w", path, err)
		}
		return cfg, nil
	}
	return config.DefaultConfig(), nil
}

func newLoggerWithLevel(cfg config.LogConfig, level *slog.LevelVar) *slog.Logger {
	opts := &slog.HandlerOptions{Level: level}

	var handler slog.Handler
	switch cfg.Format {
	case "text":
		handler = slog.NewTextHandler(os.Stdout, opts)
	default:
		handler = slog.NewJSONHandler(os.Stdout, opts)
	}

	return slog.New(handler)
}
