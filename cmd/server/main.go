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

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/iliyamo/finance-tracker/internal/config"
	"github.com/iliyamo/finance-tracker/internal/database"
	"github.com/iliyamo/finance-tracker/internal/logging"
	"github.com/iliyamo/finance-tracker/internal/queue"
	"github.com/iliyamo/finance-tracker/internal/repository"
	"github.com/iliyamo/finance-tracker/internal/router"
	"github.com/iliyamo/finance-tracker/internal/service"
	"github.com/iliyamo/finance-tracker/internal/utils"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer func() { _ = logger.Sync() }()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Connect(ctx, cfg.DBDriver, cfg.DBUser, cfg.DBPass, cfg.DBHost, cfg.DBPort, cfg.DBName, cfg.DBPath)
	if err != nil {
		logger.Fatal("database connect failed", zap.String("driver", cfg.DBDriver), zap.Error(err))
	}
	defer db.Close()

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		logger.Info("redis unavailable; caching and rate limiting disabled")
	} else {
		defer rdb.Close()
	}

	tokens, err := utils.NewTokenIssuer(cfg.JWTSecret)
	if err != nil {
		logger.Fatal("token issuer", zap.Error(err))
	}
	users := repository.NewCachedUserRepo(repository.NewUserRepo(db), rdb, cfg.UserCacheTTL, logger)

	var events queue.Publisher = queue.NopPublisher{}
	if cfg.AMQPURL != "" {
		events = queue.NewAMQPPublisher(cfg.AMQPURL, logger)
		if cfg.AuditConsumerEnabled {
			consumer := queue.NewAuditConsumer(cfg.AMQPURL, cfg.AuditLogDir, logger)
			go func() {
				if err := consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
					logger.Error("audit consumer stopped", zap.Error(err))
				}
			}()
		}
	}

	auth, err := service.NewAuthService(users, tokens, service.AuthOptions{
		BcryptCost: cfg.BcryptCost,
		MaxUsers:   cfg.MaxUsers,
		Events:     events,
		Logger:     logger,
	})
	if err != nil {
		logger.Fatal("auth service", zap.Error(err))
	}

	e := router.New(router.Deps{
		Config: cfg,
		Log:    logger,
		DB:     db,
		Redis:  rdb,
		Users:  users,
		Tokens: tokens,
		Auth:   auth,
		Events: events,
	})

	addr := ":" + cfg.Port
	go func() {
		logger.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env),
			zap.String("db_driver", cfg.DBDriver), zap.Int("max_users", cfg.MaxUsers))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}
