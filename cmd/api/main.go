// Command api serves the maintenance platform's authentication and access
// control endpoints.
//
//	@title						Maintenance API
//	@version					1.0
//	@description				Authentication and access control for the maintenance platform.
//	@BasePath					/
//	@securityDefinitions.apikey	BearerAuth
//	@in							header
//	@name						Authorization
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

	"github.com/rs/zerolog"

	"github.com/maintenance-app/maintenance-api/internal/api"
	"github.com/maintenance-app/maintenance-api/internal/core/service"
	"github.com/maintenance-app/maintenance-api/internal/infrastructure/config"
	mongostore "github.com/maintenance-app/maintenance-api/internal/infrastructure/db/mongo"
	redisstore "github.com/maintenance-app/maintenance-api/internal/infrastructure/db/redis"
	"github.com/maintenance-app/maintenance-api/internal/infrastructure/http/handlers"
	"github.com/maintenance-app/maintenance-api/internal/infrastructure/queue"
	"github.com/maintenance-app/maintenance-api/pkg/logger"
)

const (
	serviceName     = "maintenance-api"
	shutdownTimeout = 10 * time.Second
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", serviceName, err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		return err
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: serviceName,
	})

	// --- Storage ---
	mongoClient, db, err := mongostore.Connect(ctx, mongostore.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		return err
	}
	defer disconnect(log, "mongodb", func(ctx context.Context) error { return mongoClient.Disconnect(ctx) })

	if err := mongostore.EnsureSchema(ctx, db); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}

	rdb, err := redisstore.Connect(ctx, redisstore.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		return err
	}
	defer disconnect(log, "redis", func(context.Context) error { return rdb.Close() })

	// --- Audit trail ---
	dispatcherCtx, cancelDispatcher := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Audit.Workers, mongostore.NewEventRepository(db), log)
	dispatcher.Start(dispatcherCtx)
	defer func() {
		cancelDispatcher()
		dispatcher.Wait()
	}()

	// --- Auth core ---
	tokenCfg := service.TokenConfig{
		Secret:     cfg.Auth.JWTSecret,
		Algorithm:  cfg.Auth.JWTAlgorithm,
		AccessTTL:  cfg.Auth.AccessTTL(),
		RefreshTTL: cfg.Auth.RefreshTTL(),
	}
	codec, err := service.NewTokenCodec(tokenCfg)
	if err != nil {
		return err
	}

	opts := []service.Option{service.WithEventSink(dispatcher)}
	if cfg.Auth.TokenRevocation {
		opts = append(opts, service.WithRevoker(redisstore.NewRevocationStore(rdb)))
	}
	authService := service.NewAuthService(
		mongostore.NewUserRepository(db),
		service.NewPasswordHasher(cfg.Auth.BcryptCost),
		codec,
		tokenCfg,
		log,
		opts...,
	)

	// --- HTTP ---
	e := api.NewRouter(api.Deps{
		Auth:        authService,
		Health:      []handlers.Dependency{handlers.MongoDependency(db), handlers.RedisDependency(rdb)},
		CORSOrigins: cfg.CORSOrigins,
		Log:         log,
	})

	serverErr := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("http server listening")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
		close(serverErr)
	}()

	select {
	case err := <-serverErr:
		if err != nil {
			return fmt.Errorf("http server: %w", err)
		}
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("http shutdown: %w", err)
	}
	log.Info().Msg("http server stopped")
	return nil
}

func disconnect(log zerolog.Logger, name string, closeFn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := closeFn(ctx); err != nil {
		log.Warn().Err(err).Str("dependency", name).Msg("disconnect failed")
	}
}
