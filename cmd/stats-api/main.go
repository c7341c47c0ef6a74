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
	"example.com/ewm/internal/ingest"
	"example.com/ewm/internal/logging"
	"example.com/ewm/internal/stats"
	"example.com/ewm/internal/stats/httpapi"
	statspg "example.com/ewm/internal/stats/postgres"
)

func main() {
	if err := run(); err != nil {
		logrus.WithError(err).Error("ewm-stats-service stopped")
		os.Exit(1)
	}
}

// run returns instead of exiting so the store is closed and buffered hits
// are flushed on every path.
func run() error {
	cfg, err := config.ParseStats(".env")
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	log := logging.New("ewm-stats-service", cfg.LogLevel, cfg.LogFormat)
	log.WithFields(logrus.Fields{"port": cfg.Port, "storage": cfg.StorageDriver}).Info("config loaded")

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var store ingest.BatchStore
	switch cfg.StorageDriver {
	case "memory":
		log.Warn("storage: in-memory, hits are lost on exit")
		store = stats.NewMemoryStore()
	default:
		if cfg.Migrate {
			if err := statspg.Migrate(cfg.PostgresDSN); err != nil {
				return fmt.Errorf("migrations: %w", err)
			}
			log.Info("db: migrations applied")
		}
		pg, err := statspg.Open(cfg.PostgresDSN)
		if err != nil {
			return fmt.Errorf("db open: %w", err)
		}
		defer pg.Close()
		store = pg
	}

	var hits stats.Store = store
	if cfg.BatchMaxSize > 1 {
		ingestCtx, stopIngest := context.WithCancel(context.Background())
		ig := ingest.NewIngestor(store, cfg.QueueMaxSize, cfg.BatchMaxSize, cfg.BatchMaxWait(), log)
		ig.Start(ingestCtx)
		// deferred after pg.Close, so it runs first: handlers are done by
		// then and what is still buffered gets written
		defer func() {
			stopIngest()
			ig.Wait()
		}()
		hits = ig
		log.WithFields(logrus.Fields{
			"queue": cfg.QueueMaxSize, "batch": cfg.BatchMaxSize, "wait": cfg.BatchMaxWait(),
		}).Info("ingest: started")
	}

	api := &httpapi.Server{
		Cfg:     cfg,
		Service: stats.NewService(hits, log),
		Log:     log,
	}
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           api.Router(),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.WithField("addr", srv.Addr).Info("listening")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	if err := g.Wait(); err != nil {
		return fmt.Errorf("http server: %w", err)
	}
	return nil
}
