package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/oggyb/muzz-match/internal/app"
	"github.com/oggyb/muzz-match/internal/auth"
	"github.com/oggyb/muzz-match/internal/cache"
	"github.com/oggyb/muzz-match/internal/chat"
	"github.com/oggyb/muzz-match/internal/config"
	"github.com/oggyb/muzz-match/internal/db"
	"github.com/oggyb/muzz-match/internal/jobs"
	"github.com/oggyb/muzz-match/internal/logger"
	"github.com/oggyb/muzz-match/internal/repository"
	"github.com/oggyb/muzz-match/internal/server"
	"github.com/oggyb/muzz-match/internal/service/blocks"
	"github.com/oggyb/muzz-match/internal/service/candidates"
	"github.com/oggyb/muzz-match/internal/service/likes"
	"github.com/oggyb/muzz-match/internal/service/matches"
	"github.com/oggyb/muzz-match/internal/service/media"
	"github.com/oggyb/muzz-match/internal/service/score"
)

func main() {
	cfg := config.New()

	// Init logger (global singleton)
	logger.InitFromConfig(cfg)
	log := logger.L()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
	log.Info("server stopped")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	database, err := db.NewDB(cfg)
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	sqlDB, err := database.DB()
	if err != nil {
		return fmt.Errorf("init db: %w", err)
	}
	defer sqlDB.Close()

	redisCache := cache.NewRedisCache(cfg)
	if err := redisCache.Ping(ctx); err != nil {
		return fmt.Errorf("connect to redis: %w", err)
	}
	defer redisCache.Close()

	appCtx := app.New(cfg, database, redisCache, log)

	checks := map[string]server.HealthCheck{
		"db":    sqlDB.PingContext,
		"redis": redisCache.Ping,
	}

	var store repository.MessageStore
	switch cfg.Messages.Store {
	case "sql":
		store = repository.NewMessageRepository(database)
	default:
		mongo, err := db.NewMongo(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			closeCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			_ = mongo.Close(closeCtx)
		}()
		store = repository.NewMongoMessageStore(mongo.Messages)
		checks["mongo"] = func(ctx context.Context) error { return mongo.Client.Ping(ctx, nil) }
	}
	log.Info("message store selected", "store", cfg.Messages.Store)

	if cfg.App.Env == "development" {
		if _, err := db.SeedTestData(database, 20); err != nil {
			log.Error("failed to seed", "err", err)
		}
	}

	// Services
	coordinator := matches.NewCoordinator(appCtx)
	ledger := likes.NewLedger(appCtx, score.NewTracker(appCtx), coordinator)
	selector := candidates.NewSelector(appCtx)
	mediaSvc, err := media.NewService(ctx, cfg)
	if err != nil {
		return err
	}
	if !mediaSvc.Enabled() {
		log.Warn("media uploads disabled, S3_BUCKET_NAME is empty")
	}
	gateway := chat.NewGateway(logger.Named("chat"), coordinator, store, chat.NewRegistry())

	registrars := []server.Registrar{
		candidates.NewRegistrar(selector),
		likes.NewRegistrar(ledger),
		matches.NewRegistrar(coordinator),
		blocks.NewRegistrar(blocks.NewService(appCtx, coordinator)),
		media.NewRegistrar(mediaSvc),
		chat.NewRegistrar(gateway, logger.Named("chat")),
	}
	router := server.NewRouter(log, auth.NewProvider(cfg), registrars...)

	health := server.NewHealth(log, checks)
	grpcServer := server.NewGRPCServer(health)

	runner := jobs.NewRunner(logger.Named("jobs"),
		jobs.QuotaReset(log, selector, cfg.Jobs.QuotaResetInterval),
		jobs.SkipPurge(appCtx, cfg.Jobs.SkipRetention, cfg.Jobs.PurgeInterval),
		jobs.HealthRefresh(health, cfg.Jobs.HealthInterval),
	)

	g, gctx := errgroup.WithContext(ctx)
	runner.Start(gctx)

	g.Go(func() error {
		log.Info("starting HTTP server", "addr", cfg.HTTP.Host+":"+cfg.HTTP.Port)
		return server.StartHTTPServer(gctx, cfg, router)
	})
	g.Go(func() error {
		log.Info("starting gRPC server", "addr", cfg.GRPC.Host+":"+cfg.GRPC.Port)
		return server.StartGRPCServer(gctx, cfg, grpcServer)
	})

	err = g.Wait()
	runner.Wait()
	coordinator.Wait()
	return err
}
