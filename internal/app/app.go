package app

import (
	"context"
	"errors"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"flightwatch/internal/config"
	"flightwatch/internal/notify"
	"flightwatch/internal/oracle"
	"flightwatch/internal/storage"
	"flightwatch/internal/watcher"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

func (a *App) newOracle() oracle.PriceOracle {
	if a.Config.Oracle.APIKey == "" {
		a.Logger.Warn().Msg("oracle.api_key not configured; rechecks will use fallback estimates")
	}
	return oracle.NewGemini(oracle.GeminiOptions{
		APIKey:  a.Config.Oracle.APIKey,
		Model:   a.Config.Oracle.Model,
		BaseURL: a.Config.Oracle.BaseURL,
		Timeout: a.Config.Oracle.RequestTimeout,
	}, a.Logger)
}

func (a *App) newNotifier() notify.Notifier {
	cfg := a.Config.Telegram
	if cfg.BotToken == "" || cfg.ChatID == "" {
		a.Logger.Warn().Msg("telegram credentials not configured; notifications disabled")
		return nil
	}
	return notify.NewTelegram(cfg.BotToken, cfg.ChatID, cfg.APIBase, cfg.RequestTimeout, a.Logger)
}

// components wires the full recheck pipeline on top of an open store. The
// returned cleanup closes the scheduler and the store.
func (a *App) components(ctx context.Context) (*storage.Store, *watcher.Manager, *watcher.Executor, func(), error) {
	store, closeStore, err := a.openStore(ctx)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	clock := watcher.NewClock()
	sched := watcher.NewScheduler(clock, a.Logger)
	exec := watcher.NewExecutor(a.newOracle(), store, a.newNotifier(), clock, a.Logger)
	mgr := watcher.NewManager(store, sched, exec, a.Config.Watcher.DefaultCheckInterval, a.Logger)

	cleanup := func() {
		sched.Close()
		closeStore()
	}
	return store, mgr, exec, cleanup, nil
}

// Run executes the long-running watch service: it registers timers for every
// active watch and keeps the timer table reconciled with the store until
// shutdown.
func (a *App) Run(ctx context.Context) error {
	ctx, cancel := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	_, mgr, _, cleanup, err := a.components(ctx)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := mgr.Sync(ctx); err != nil {
		return err
	}

	a.Logger.Info().Dur("reconcile_interval", a.Config.Watcher.ReconcileInterval).
		Msg("watch service started")

	ticker := time.NewTicker(a.Config.Watcher.ReconcileInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			a.Logger.Info().Msg("watch service stopped")
			if err := ctx.Err(); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		case <-ticker.C:
			if err := mgr.Sync(ctx); err != nil {
				a.Logger.Error().Err(err).Msg("reconcile failed")
			}
		}
	}
}

// ChartOptions hold parameters for exporting one destination's price history.
type ChartOptions struct {
	Destination string
	PNGPath     string
	CSVPath     string
	MaxPoints   int
}

// ResultsOptions configure the results command.
type ResultsOptions struct {
	Limit int
}
