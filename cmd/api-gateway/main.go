package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/akademika-dev/letter-office-api/api/swagger"
	"github.com/akademika-dev/letter-office-api/internal/handler"
	"github.com/akademika-dev/letter-office-api/internal/middleware"
	"github.com/akademika-dev/letter-office-api/internal/models"
	"github.com/akademika-dev/letter-office-api/internal/repository"
	"github.com/akademika-dev/letter-office-api/internal/service"
	"github.com/akademika-dev/letter-office-api/pkg/cache"
	"github.com/akademika-dev/letter-office-api/pkg/config"
	"github.com/akademika-dev/letter-office-api/pkg/database"
	"github.com/akademika-dev/letter-office-api/pkg/logger"
	corsmiddleware "github.com/akademika-dev/letter-office-api/pkg/middleware/cors"
	reqidmiddleware "github.com/akademika-dev/letter-office-api/pkg/middleware/requestid"
	"github.com/akademika-dev/letter-office-api/pkg/render"
	"github.com/akademika-dev/letter-office-api/pkg/storage"
)

// @title Letter Office API
// @version 1.0.0
// @description Official document numbering and approval workflow service
// @BasePath /api/v1
// @schemes http

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, caching and idempotency disabled", "error", err)
		redisClient = nil
	}

	artifactStore, err := storage.NewLocalStorage(cfg.Artifacts.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare artifact storage", "error", err)
	}

	// Repositories
	letterRepo := repository.NewLetterRepository(db)
	counterRepo := repository.NewCounterRepository(db)
	templateRepo := repository.NewTemplateRepository(db)
	userRepo := repository.NewUserRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Services
	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, cfg.JWT.Secret, cfg.JWT.Expiration, logr)
	templateSvc := service.NewTemplateService(templateRepo, cacheRepo, cfg.Numbering.TemplateCacheTTL, logr)
	numberingSvc := service.NewNumberingService(templateSvc, counterRepo, metricsSvc, logr)
	letterSvc := service.NewLetterService(letterRepo, numberingSvc, cacheRepo, metricsSvc, cfg.Numbering.IdempotencyTTL, logr)
	signer := storage.NewSignedURLSigner(cfg.Artifacts.SignedURLSecret, cfg.Artifacts.SignedURLTTL)
	renderer := render.NewLetterPDF(cfg.Artifacts.Institution)
	artifactSvc := service.NewArtifactService(letterRepo, userRepo, renderer, artifactStore, signer, logr)

	// Handlers
	authHandler := handler.NewAuthHandler(authSvc)
	letterHandler := handler.NewLetterHandler(letterSvc, artifactSvc)
	templateHandler := handler.NewTemplateHandler(templateSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "not ready"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	// Signed artifact downloads carry their own credential in the token.
	r.GET("/artifacts/:token", letterHandler.Download)

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)

		authed := api.Group("")
		authed.Use(middleware.JWT(authSvc))
		{
			authed.GET("/auth/me", authHandler.Me)

			letters := authed.Group("/letters")
			{
				letters.POST("", letterHandler.Submit)
				letters.GET("", letterHandler.List)
				letters.GET("/:id", letterHandler.Get)
				letters.GET("/:id/history", letterHandler.History)
				letters.GET("/:id/artifact", letterHandler.Artifact)
				letters.POST("/:id/forward", middleware.RequireRoles(models.RoleAdmin), letterHandler.Forward)
				letters.POST("/:id/decide", middleware.RequireRoles(models.RoleAdmin, models.RoleUnitHead), letterHandler.Decide)
			}

			numbering := authed.Group("/numbering", middleware.RequireRoles(models.RoleAdmin))
			{
				numbering.GET("/templates", templateHandler.List)
				numbering.PUT("/templates/:category", templateHandler.Upsert)
			}
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
