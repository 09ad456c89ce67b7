package main

import (
	"log"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/talentgate/talentgate/internal/auth"
	"github.com/talentgate/talentgate/internal/cache"
	"github.com/talentgate/talentgate/internal/config"
	"github.com/talentgate/talentgate/internal/database"
	"github.com/talentgate/talentgate/internal/handlers"
	"github.com/talentgate/talentgate/internal/services"
	"github.com/talentgate/talentgate/internal/scoring"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment")
	}

	cfg := config.Load()

	var logger *zap.Logger
	var err error
	if cfg.Environment == "production" {
		logger, err = zap.NewProduction()
	} else {
		logger, err = zap.NewDevelopment()
	}
	if err != nil {
		log.Fatal("failed to initialize logger:", err)
	}
	defer logger.Sync()

	db, err := database.Connect(cfg.DatabaseDSN)
	if err != nil {
		logger.Fatal("database connection failed", zap.Error(err))
	}
	logger.Info("database connected")

	analyticsCache := cache.NewRedis(cache.Options{
		RedisAddr:     cfg.RedisAddr,
		RedisPassword: cfg.RedisPassword,
		RedisDB:       cfg.RedisDB,
		DefaultTTL:    cfg.AnalyticsCacheTTL,
	})
	defer analyticsCache.Close()

	scorer := scoring.NewHTTPScorer(cfg.ScoringServiceURL, cfg.ScoringTimeout, logger)

	jobService := services.NewJobService(db, logger)
	analyticsService := services.NewAnalyticsService(db, analyticsCache, cfg.AnalyticsCacheTTL, logger)
	candidateService := services.NewCandidateService(db, scorer, jobService, analyticsService, logger)

	reconciler := services.NewReconciler(jobService, logger)
	if err := reconciler.Start(cfg.ReconcileSchedule); err != nil {
		logger.Fatal("failed to start count reconciler", zap.Error(err))
	}
	defer reconciler.Stop()

	router := handlers.NewRouter(handlers.RouterDeps{
		Candidates:     handlers.NewCandidateHandler(candidateService),
		Jobs:           handlers.NewJobHandler(jobService),
		Analytics:      handlers.NewAnalyticsHandler(analyticsService),
		Health:         handlers.NewHealthHandler(db, cfg.Version),
		AuthMiddleware: auth.Middleware(db),
		Logger:         logger,
		AllowedOrigin:  cfg.CORSAllowedOrigin,
	})

	logger.Info("server starting", zap.String("port", cfg.Port))
	if err := router.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server failed", zap.Error(err))
	}
}
