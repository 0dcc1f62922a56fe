package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/maxviazov/afl-stats-service/internal/config"
	"github.com/maxviazov/afl-stats-service/internal/handler"
	"github.com/maxviazov/afl-stats-service/internal/logger"
	"github.com/maxviazov/afl-stats-service/internal/metrics"
	"github.com/maxviazov/afl-stats-service/internal/provider/apisports"
	"github.com/maxviazov/afl-stats-service/internal/scheduler"
	"github.com/maxviazov/afl-stats-service/internal/service"
	"github.com/maxviazov/afl-stats-service/internal/storage"
	"github.com/rs/zerolog"
)

func main() {
	configPath := "config.yaml"
	if p := os.Getenv("APP_CONFIG_PATH"); p != "" {
		configPath = p
	}

	// Load application config
	cfg, err := config.Load(configPath)
	if err != nil {
		log.Fatalf("❌ Config loading failed: %v", err)
	}

	// Initialize logger
	appLogger, err := logger.New(&cfg.Logger)
	if err != nil {
		log.Fatalf("❌ Logger initialization failed: %v", err)
	}
	if cfg.App.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, appLogger); err != nil {
		appLogger.Fatal().Err(err).Msg("service stopped with error")
	}
}

func run(ctx context.Context, cfg *config.Config, appLogger zerolog.Logger) error {
	m := metrics.New()

	reader, err := storage.OpenReader(ctx, cfg, appLogger)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer reader.Close()

	var sched *scheduler.Scheduler
	if cfg.Ingest.Schedule != "" {
		writer, err := storage.OpenWriter(ctx, cfg, appLogger)
		if err != nil {
			return fmt.Errorf("open writer: %w", err)
		}
		defer writer.Close()

		client := apisports.New(cfg.Provider, m, appLogger)
		defer client.Close()

		ingest := service.NewIngestionService(service.IngestionRepos{
			Tx:        writer.Tx,
			Teams:     writer.Teams,
			Venues:    writer.Venues,
			Players:   writer.Players,
			Games:     writer.Games,
			Stats:     writer.Stats,
			History:   writer.History,
			Integrity: writer.Integrity,
		}, m, appLogger)

		sched, err = scheduler.New(service.NewSyncService(client, ingest, m, appLogger), cfg.Ingest, appLogger)
		if err != nil {
			return err
		}
		sched.Start()
	}

	r := handler.NewEngine(cfg.HTTP, appLogger)
	handler.Register(r, handler.Deps{
		Store:     reader.Pinger,
		OverUnder: service.NewOverUnderService(reader.Query, m, appLogger),
		Metrics:   m.Handler(),
		Info:      handler.Info{Version: cfg.App.Version},
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.App.Port),
		Handler:           r,
		ReadTimeout:       time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		ReadHeaderTimeout: time.Duration(cfg.HTTP.ReadTimeout) * time.Second,
		WriteTimeout:      time.Duration(cfg.HTTP.WriteTimeout) * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		appLogger.Info().Str("addr", srv.Addr).Str("driver", cfg.Storage.Driver).Msg("🚀 Service started")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	appLogger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.HTTP.ShutdownGrace)*time.Second)
	defer cancel()

	if sched != nil {
		if err := sched.Stop(shutdownCtx); err != nil {
			appLogger.Warn().Err(err).Msg("scheduler did not stop cleanly")
		}
	}
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	appLogger.Info().Msg("✅ Service stopped")
	return nil
}
