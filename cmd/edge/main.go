package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/urbaninsight/insight-edge/internal/api"
	"github.com/urbaninsight/insight-edge/internal/core/ports"
	"github.com/urbaninsight/insight-edge/internal/identity/local"
	"github.com/urbaninsight/insight-edge/internal/identity/remote"
	"github.com/urbaninsight/insight-edge/internal/infrastructure/config"
	mongodb "github.com/urbaninsight/insight-edge/internal/infrastructure/db/mongo"
	redisdb "github.com/urbaninsight/insight-edge/internal/infrastructure/db/redis"
	"github.com/urbaninsight/insight-edge/internal/infrastructure/queue"
	"github.com/urbaninsight/insight-edge/pkg/logger"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		fallback := logger.Init(logger.Options{})
		fallback.Fatal().Err(err).Msg("configuration failed")
	}

	log := logger.Init(logger.Options{
		Level:  cfg.LogLevel,
		Pretty: cfg.Env == "development",
	})

	rdb, err := redisdb.Connect(ctx, redisdb.Config{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("redis connection failed")
	}
	defer func() { _ = rdb.Close() }()

	mongoClient, db, err := mongodb.Connect(ctx, mongodb.Config{
		URI:      cfg.Mongo.URI,
		Database: cfg.Mongo.Database,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("mongo connection failed")
	}
	defer func() {
		disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = mongoClient.Disconnect(disconnectCtx)
	}()

	idp, err := buildIdentityProvider(cfg)
	if err != nil {
		log.Fatal().Err(err).Msg("identity provider setup failed")
	}

	audit := queue.NewAuditDispatcher(cfg.Session.AuditWorkers, mongodb.NewAuditRepository(db), log)
	audit.Start(ctx)

	e := api.NewRouter(api.Dependencies{
		Config: cfg,
		Log:    log,
		Redis:  rdb,
		Mongo:  db,
		IDP:    idp,
		Audit:  audit,
	})

	go func() {
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("server failed")
		}
	}()
	log.Info().Str("port", cfg.Port).Str("backend", cfg.Backend.URL).Msg("insight-edge listening")

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("shutdown incomplete")
	}
}

// buildIdentityProvider selects the provider implementation. The local mode
// exists for development and tests; production deployments point IDP_URL at
// the real provider.
func buildIdentityProvider(cfg *config.Config) (ports.IdentityProvider, error) {
	switch cfg.IDP.Mode {
	case "remote":
		return remote.NewProvider(cfg.IDP.URL, nil), nil
	default:
		p := local.NewProvider(cfg.IDP.Secret, cfg.IDP.TokenTTL)
		if email := os.Getenv("DEV_USER_EMAIL"); email != "" {
			if err := p.Seed(email, os.Getenv("DEV_USER_PASSWORD"), "Dev User"); err != nil {
				return nil, err
			}
		}
		return p, nil
	}
}
