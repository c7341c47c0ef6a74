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

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"example.com/ewm/internal/config"
	"example.com/ewm/internal/logging"
	"example.com/ewm/internal/service"
	"example.com/ewm/internal/statsclient"
	"example.com/ewm/internal/storage"
	"example.com/ewm/internal/storage/memory"
	spg "example.com/ewm/internal/storage/postgres"
	transport "example.com/ewm/internal/transport/http"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Error("ewm-main-service stopped")
		os.Exit(1)
	}
}

// run returns instead of exiting so deferred cleanup always happens.
func run() error {
	cfg, err := config.ParseMain(".env")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logging.New("ewm-main-service", cfg.LogLevel, cfg.LogFormat)
	log.WithFields(logrus.Fields{
		"port": cfg.Port, "storage": cfg.StorageDriver, "stats_url": cfg.StatsURL, "tx_isolation": cfg.TxIsolation,
	}).Info("config loaded")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	store, ready, closeStore, err := openStore(ctx, cfg, log)
	if err != nil {
		return fmt.Errorf("storage: %w", err)
	}
	defer closeStore()

	services := service.New(service.Deps{
		Store: store,
		Stats: statsclient.New(statsclient.Config{
			BaseURL: cfg.StatsURL,
			APIKey:  cfg.StatsAPIKey,
			Timeout: cfg.StatsTimeout(),
		}),
		AppName: cfg.AppName,
		Log:     log,
	})

	deps := &transport.ServerDeps{
		Cfg:      cfg,
		Services: services,
		Log:      log,
		Ready:    ready,
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           deps.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	if err := serve(ctx, srv, log); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}

func openStore(ctx context.Context, cfg config.Main, log *logrus.Entry) (storage.Store, func(context.Context) error, func(), error) {
	if cfg.StorageDriver == "memory" {
		log.Warn("storage: in-memory, data is lost on exit")
		return memory.New(), nil, func() {}, nil
	}

	if cfg.Migrate {
		if err := spg.Migrate(cfg.PostgresDSN); err != nil {
			return nil, nil, nil, err
		}
		log.Info("db: migrations applied")
	}
	db, err := spg.Connect(ctx, cfg.PostgresDSN, cfg.TxIsolation)
	if err != nil {
		return nil, nil, nil, err
	}
	log.Info("db: connected")
	return spg.New(db), db.Ready, db.Close, nil
}

// serve runs srv until ctx is cancelled, then drains it.
func serve(ctx context.Context, srv *http.Server, log *logrus.Entry) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		log.Info("shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}
