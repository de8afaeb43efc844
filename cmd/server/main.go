package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v3"
	"github.com/rs/zerolog/log"

	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/config"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/db"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/handler"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/middleware"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/repository"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/router"
	"github.com/JFcoldharbor/StitchSocialIOS-sub007/internal/service"
)

func main() {
	cfg := config.Load()
	middleware.InitLogger(cfg.LogLevel, "stitch-engagement")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(ctx, cfg.DatabaseURL, cfg.DBMaxConns, cfg.DBMinConns)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()

	cache := service.NewCacheService(cfg.RedisURL)
	defer cache.Close()

	ledgerRepo := repository.NewLedgerRepo(pool)
	videoRepo := repository.NewVideoRepo(pool)
	userRepo := repository.NewUserRepo(pool)
	reputationRepo := repository.NewReputationRepo(pool)

	tiers := service.NewTierService()
	reward := service.NewRewardService(tiers, cfg)
	troll := service.NewTrollService(cache, cfg)
	notify := service.NewLogNotificationSink()

	engagements := service.NewEngagementService(
		ledgerRepo, videoRepo, userRepo, reputationRepo, notify,
		reward, tiers, troll, cache, cfg,
	)

	reputationSvc := service.NewReputationService(tiers)
	reputationWorker := service.NewReputationWorker(reputationRepo, reputationRepo, reputationSvc, cache, cfg)
	go reputationWorker.Start(ctx)
	defer reputationWorker.Stop()

	users := service.NewUserService(userRepo, reputationWorker)

	handler.InitMetrics(pool)

	app := fiber.New(fiber.Config{
		AppName:      "Stitch Engagement API",
		ServerHeader: "Stitch",
	})

	router.Setup(app, &router.Handlers{
		Engagement: handler.NewEngagementHandler(engagements, cfg.IPSalt),
		Video:      handler.NewVideoHandler(videoRepo, cache, reputationWorker),
		User:       handler.NewUserHandler(users),
		Reputation: handler.NewReputationHandler(reputationWorker),
		Stats:      handler.NewStatsHandler(users),
		Health:     handler.NewHealthHandler(pool, cache.Client()),
	}, cfg.CORSOrigins)

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("env", cfg.Environment).
			Msg("engagement backend starting")
		if err := app.Listen(":" + cfg.Port); err != nil {
			log.Fatal().Err(err).Msg("server exited")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
		os.Exit(1)
	}
	log.Info().Msg("server stopped")
}
