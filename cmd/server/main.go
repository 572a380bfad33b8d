// Package main provides the API server entry point for the DAO and vault engine.
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/dao-vault/internal/api"
	"github.com/dao-vault/internal/chain"
	"github.com/dao-vault/internal/config"
	"github.com/dao-vault/internal/logging"
	"github.com/dao-vault/internal/service"
	"github.com/dao-vault/internal/storage"
	"github.com/dao-vault/internal/worker"
	"github.com/jonboulle/clockwork"
)

func main() {
	log.Println("DAO vault API server starting...")

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	logLevel := logging.ParseLogLevel(cfg.Logging.Level)
	logFormat := logging.ParseLogFormat(cfg.Logging.Format)
	logging.InitGlobalLogger(logLevel, logFormat)

	logger := logging.GetGlobalLogger()
	defer logger.Sync() // nolint:errcheck // flush on exit
	logger.WithFields(map[string]interface{}{
		"level":  cfg.Logging.Level,
		"format": cfg.Logging.Format,
	}).Info("Structured logging initialized")

	ctx := logging.WithLogger(context.Background(), logger)

	rt := chain.NewRuntime(chain.WithClock(clockwork.NewRealClock()), chain.WithLogger(logger))
	svc, err := service.New(ctx, rt, cfg.Chain.FactoryAdmin, service.WithFaucet(cfg.Chain.FaucetEnabled))
	if err != nil {
		logger.WithError(err).Fatal("Failed to deploy factories")
	}

	var serverOpts []api.ServerOption
	serverOpts = append(serverOpts, api.WithLogger(logger))

	var mirror *worker.MirrorWorker
	if cfg.Mirror.Enabled {
		logger.Info("Connecting to mirror stores...")

		postgres, err := storage.NewPostgresDB(&cfg.Database.Postgres)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Postgres")
		}
		defer postgres.Close()

		if err := storage.RunMigrations(cfg.Database.Postgres.PostgresDSN(), storage.DefaultMigrationsPath); err != nil {
			logger.WithError(err).Fatal("Failed to apply mirror migrations")
		}

		redis, err := storage.NewRedisCache(&cfg.Database.Redis)
		if err != nil {
			logger.WithError(err).Fatal("Failed to connect to Redis")
		}
		defer redis.Close()

		repo := storage.NewMirrorRepository(postgres)
		stream := storage.NewEventStream(redis, cfg.Mirror.HistoryLength)

		mirror, err = worker.NewMirrorWorker(&worker.MirrorWorkerConfig{
			Source:        rt,
			Sinks:         []worker.Sink{worker.NewPostgresSink(repo), worker.NewStreamSink(stream)},
			Buffer:        cfg.Mirror.Buffer,
			RetryAttempts: cfg.Mirror.RetryAttempts,
			RetryDelay:    cfg.Mirror.RetryDelay,
			Logger:        logger,
		})
		if err != nil {
			logger.WithError(err).Fatal("Failed to create mirror worker")
		}
		if err := mirror.Start(ctx); err != nil {
			logger.WithError(err).Fatal("Failed to start mirror worker")
		}

		serverOpts = append(serverOpts, api.WithHistory(stream), api.WithEventReader(repo))
		logger.Info("Mirror worker started")
	} else {
		logger.Info("Mirror disabled")
	}

	serverConfig := &api.ServerConfig{
		Host:              cfg.Server.Host,
		Port:              cfg.Server.Port,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
		ShutdownTimeout:   10 * time.Second,
		RequestsPerSecond: cfg.RateLimit.RequestsPerSecond,
		Burst:             cfg.RateLimit.Burst,
	}

	server := api.NewServer(serverConfig, svc, serverOpts...)

	go func() {
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("Server failed to start")
		}
	}()

	logger.WithFields(map[string]interface{}{
		"host":          cfg.Server.Host,
		"port":          cfg.Server.Port,
		"dao_factory":   svc.DAOFactoryAddress().Hex(),
		"vault_factory": svc.VaultFactoryAddress().Hex(),
		"faucet":        svc.FaucetEnabled(),
	}).Info("Server started successfully")

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), serverConfig.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Error("Server forced to shutdown")
	}

	if mirror != nil {
		if err := mirror.Stop(shutdownCtx); err != nil {
			logger.WithError(err).Warn("Mirror worker did not stop cleanly")
		}
		stats := mirror.Stats()
		logger.WithFields(map[string]interface{}{
			"processed": stats.Processed,
			"failed":    stats.Failed,
		}).Info("Mirror worker stopped")
	}

	logger.Info("Server exited")
}
