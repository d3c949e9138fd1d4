package main

import (
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"

	"github.com/qdelaplebe-lgtm/clean-mboka-backend/configs"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/lock"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/pkg/storage"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/repository"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/routes"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/services"
	"github.com/qdelaplebe-lgtm/clean-mboka-backend/ws"
)

func main() {
	cfg := configs.LoadConfig()
	configs.SetupLogger(cfg.AppEnv)
	logger := configs.Logger()
	defer logger.Sync()

	configs.ConnectionDB(cfg)
	configs.SetupDatabase()
	if err := configs.SeedAdmin(); err != nil {
		logger.Warn("admin seed skipped", zap.Error(err))
	}
	db := configs.DB()

	// Photo storage: remote media API when configured, local disk otherwise.
	var photos storage.PhotoStorage
	if cfg.MediaUploadURL != "" {
		photos = storage.NewMedia(cfg.MediaUploadURL, cfg.MediaAPIKey)
	} else {
		local, err := storage.NewLocal(cfg.UploadDir)
		if err != nil {
			logger.Fatal("upload dir unavailable", zap.Error(err))
		}
		photos = local
	}

	// Redis is optional; without it the sweep lock falls back to the
	// process-local mutex, enough for a single instance.
	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}
	sweepLock := lock.New("confirmation-sweep", 5*time.Minute, rdb)

	users := repository.NewUserRepository(db)
	reports := repository.NewReportRepository(db)
	subs := repository.NewSubscriptionRepository(db)
	credits := repository.NewPointCreditRepository(db)

	scoring := services.NewScoringService(services.DefaultScoringConfig())
	reportSvc := services.NewReportService(db, reports, users, credits, scoring, photos, logger, sweepLock)
	authSvc := services.NewAuthService(users, logger, cfg.JWTSecret, cfg.JWTTTL)
	scoreSvc := services.NewScoreService(users, credits, scoring)
	subSvc := services.NewSubscriptionService(db, subs, users, credits, scoring, logger)
	exportSvc := services.NewExportService(reports)

	hub := ws.NewEventHub(logger)
	go hub.Run()
	reportSvc.Notifier = hub

	if cfg.AppEnv == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.Default()
	r.Static("/uploads", cfg.UploadDir)

	routes.RegisterRoutes(r, &routes.Deps{
		Cfg:     cfg,
		Auth:    authSvc,
		Reports: reportSvc,
		Scores:  scoreSvc,
		Subs:    subSvc,
		Export:  exportSvc,
		Hub:     hub,
	})

	logger.Info("listening", zap.String("port", cfg.Port))
	if err := r.Run(":" + cfg.Port); err != nil {
		logger.Fatal("server stopped", zap.Error(err))
	}
}
