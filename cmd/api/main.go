package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"

	"reconnect-catalog/core"
)

func main() {
	cfg, err := core.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		if errors.Is(err, core.ErrMisconfiguredSecret) {
			log.Fatalf("refusing to start: %v (JWT_SECRET and CSRF_SECRET need at least 32 random bytes)", err)
		}
		log.Fatalf("invalid config: %v", err)
	}
	ctx := context.Background()

	logger, logCloser, err := core.SetupLogging(cfg, "api.log")
	if err != nil {
		log.Fatalf("failed to setup logging: %v", err)
	}
	defer logCloser.Close()

	codec, err := core.NewSessionCodec(cfg.Session())
	if err != nil {
		fatal(logger, "failed to build session codec", err)
	}

	db, err := core.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		fatal(logger, "failed to connect database", err)
	}
	defer db.Close()

	if err := core.Migrate(ctx, db); err != nil {
		fatal(logger, "failed to migrate database", err)
	}

	health := map[string]core.Pinger{"database": db}
	var denylist core.TokenDenylist
	if cfg.RedisURL != "" {
		redisClient, err := core.NewRedisClient(cfg.RedisURL)
		if err != nil {
			fatal(logger, "failed to connect redis", err)
		}
		defer redisClient.Close()
		health["redis"] = core.PingFunc(func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
		if cfg.RevokeOnLogout {
			denylist = core.NewRedisTokenDenylist(redisClient)
		}
	}

	metrics := core.NewMetrics()
	hasher := core.NewPasswordHasher(cfg.BcryptCost, cfg.HashConcurrency)
	users := core.NewPgUserRepository(db)
	auth, err := core.NewAuthenticator(users, hasher, codec, metrics, logger)
	if err != nil {
		fatal(logger, "failed to build authenticator", err)
	}

	router := core.NewRouter(core.RouterDeps{
		Config:   cfg,
		Logger:   logger,
		Auth:     auth,
		Codec:    codec,
		Users:    users,
		Products: core.NewPgProductRepository(db),
		Contacts: core.NewPgContactRepository(db),
		Denylist: denylist,
		Metrics:  metrics,
		Health:   health,
	})

	addr := fmt.Sprintf(":%s", cfg.Port)
	logger.Info("starting api server", "addr", addr, "session_ttl", cfg.SessionTTL.String(), "revoke_on_logout", denylist != nil)
	if err := router.Run(addr); err != nil {
		fatal(logger, "server failed", err)
	}
}

func fatal(logger *slog.Logger, msg string, err error) {
	logger.Error(msg, "error", err)
	os.Exit(1)
}
