// Command server runs the AgroConnect marketplace auth API.
//
//	@title						AgroConnect Auth API
//	@version					1.0
//	@description				Account registration, login and profile management for the AgroConnect marketplace.
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
	"golang.org/x/sync/errgroup"

	"github.com/agroconnect/marketplace-auth/internal/api"
	"github.com/agroconnect/marketplace-auth/internal/api/handler"
	"github.com/agroconnect/marketplace-auth/internal/core/ports"
	"github.com/agroconnect/marketplace-auth/internal/core/service"
	"github.com/agroconnect/marketplace-auth/internal/infrastructure/db/memory"
	mongodb "github.com/agroconnect/marketplace-auth/internal/infrastructure/db/mongo"
	redisdb "github.com/agroconnect/marketplace-auth/internal/infrastructure/db/redis"
	"github.com/agroconnect/marketplace-auth/internal/infrastructure/queue"
	"github.com/agroconnect/marketplace-auth/internal/pkg/config"
	"github.com/agroconnect/marketplace-auth/internal/token"
	"github.com/agroconnect/marketplace-auth/pkg/logger"
)

const shutdownTimeout = 10 * time.Second

func main() {
	cfg := config.Load()
	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "marketplace-auth",
		Caller:  true,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error().Err(err).Msg("server exited with error")
		os.Exit(1)
	}
	log.Info().Msg("server exited properly")
}

func run(ctx context.Context, cfg *config.Config, log zerolog.Logger) error {
	var (
		accounts ports.AccountDirectory
		resets   ports.ResetTracker
		health   = map[string]handler.Pinger{}
	)

	if cfg.InMemory() {
		log.Warn().Msg("using in-memory account store; accounts are lost on restart")
		accounts = memory.NewAccountDirectory()
	} else {
		mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
			URI:         cfg.Mongo.URI,
			Database:    cfg.Mongo.Database,
			AppName:     "marketplace-auth",
			MaxPoolSize: cfg.Mongo.MaxPoolSize,
		})
		if err != nil {
			return err
		}
		defer func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			if err := mongoClient.Disconnect(disconnectCtx); err != nil {
				log.Warn().Err(err).Msg("mongo disconnect")
			}
		}()

		directory := mongodb.NewAccountDirectory(db)
		if err := directory.EnsureIndexes(ctx); err != nil {
			return fmt.Errorf("ensure indexes: %w", err)
		}
		accounts = directory
		health["mongodb"] = handler.MongoPinger(db)

		rdb, err := redisdb.Connect(ctx, redisdb.Config{
			Addr:       cfg.Redis.Addr,
			Password:   cfg.Redis.Password,
			DB:         cfg.Redis.DB,
			MasterName: cfg.Redis.MasterName,
		})
		if err != nil {
			return err
		}
		defer rdb.Close()
		resets = redisdb.NewResetThrottle(rdb, cfg.ResetThrottle)
		health["redis"] = handler.RedisPinger(rdb)
	}

	authService := service.NewAuthService(
		accounts,
		service.NewBcryptHasher(cfg.BcryptCost),
		token.NewIssuer(cfg.JWTSecret, cfg.TokenTTL),
		resets,
		log,
	)

	resetQueue := queue.NewDispatcher(cfg.ResetWorkers, authService, log)
	authService.UseResetQueue(resetQueue)

	e := api.NewRouter(api.Dependencies{
		AuthService: authService,
		Health:      health,
		Log:         log,
	})

	address := ":" + cfg.Port
	log.Info().Str("address", address).Str("env", cfg.Env).Msg("starting auth server")

	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		resetQueue.Start(gCtx)
		resetQueue.Wait()
		return nil
	})

	g.Go(func() error {
		if err := e.Start(address); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		log.Info().Msg("shutting down server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		return e.Shutdown(shutdownCtx)
	})

	return g.Wait()
}
