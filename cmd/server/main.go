package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/gracechapel-dev/church-site-api/api/swagger"
	"github.com/gracechapel-dev/church-site-api/internal/handler"
	"github.com/gracechapel-dev/church-site-api/internal/maintenance"
	"github.com/gracechapel-dev/church-site-api/internal/middleware"
	"github.com/gracechapel-dev/church-site-api/internal/models"
	"github.com/gracechapel-dev/church-site-api/internal/repository"
	"github.com/gracechapel-dev/church-site-api/internal/service"
	"github.com/gracechapel-dev/church-site-api/pkg/cache"
	"github.com/gracechapel-dev/church-site-api/pkg/config"
	"github.com/gracechapel-dev/church-site-api/pkg/database"
	"github.com/gracechapel-dev/church-site-api/pkg/logger"
	corsmiddleware "github.com/gracechapel-dev/church-site-api/pkg/middleware/cors"
	reqidmiddleware "github.com/gracechapel-dev/church-site-api/pkg/middleware/requestid"
	"github.com/gracechapel-dev/church-site-api/pkg/storage"
)

// @title Church Site API
// @version 1.0.0
// @description Backend for the public church website and its admin back-office
// @BasePath /api/v1
// @schemes http https

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
	defer db.Close() //nolint:errcheck

	validate := validator.New()
	metricsService := service.NewMetricsService()

	var cacheService *service.CacheService
	if redisClient, err := cache.NewRedis(cfg.Redis); err != nil {
		logr.Warn("redis unavailable, caching disabled")
	} else {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheService = service.NewCacheService(cacheRepo, metricsService, cfg.Events.FeaturedCacheTTL, logr, true)
	}

	eventRepo := repository.NewEventRepository(db, metricsService)
	sermonRepo := repository.NewSermonRepository(db)
	articleRepo := repository.NewArticleRepository(db)
	userRepo := repository.NewUserRepository(db)

	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "church-site-api",
	})
	eventService := service.NewEventService(eventRepo, cacheService, validate, logr)
	featuredService := service.NewFeaturedService(eventRepo, cacheService, cfg.Events.FeaturedCacheTTL, logr)
	recurrenceService := service.NewRecurrenceService(eventRepo, cfg.Events.InsertBatchSize, cfg.Events.DefaultHorizon, logr)
	sermonService := service.NewSermonService(sermonRepo, validate, logr)
	articleService := service.NewArticleService(articleRepo, validate, logr)
	exportService := service.NewExportService(eventRepo, logr, nil, nil)
	icsService := service.NewICSService(eventRepo, cfg.ICS.CalendarName, logr)

	var uploadService *service.UploadService
	if cfg.Uploads.Enabled {
		store, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init upload storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)
		uploadService = service.NewUploadService(store, signer, service.UploadConfig{
			APIPrefix:    cfg.APIPrefix,
			MaxSizeBytes: cfg.Uploads.MaxFileSizeBytes,
			AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
		}, logr)
	}

	authHandler := handler.NewAuthHandler(authService)
	eventHandler := handler.NewEventHandler(eventService, featuredService, recurrenceService, exportService, icsService)
	sermonHandler := handler.NewSermonHandler(sermonService)
	articleHandler := handler.NewArticleHandler(articleService)
	uploadHandler := handler.NewUploadHandler(uploadService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/events", eventHandler.ListPublic)
		api.GET("/events/featured", eventHandler.Featured)
		api.GET("/events/:id", eventHandler.GetPublic)
		if cfg.ICS.Enabled {
			api.GET("/events.ics", eventHandler.ICSFeed)
		}
		api.GET("/sermons", sermonHandler.ListPublic)
		api.GET("/sermons/:id", sermonHandler.GetPublic)
		api.GET("/articles", articleHandler.ListPublic)
		api.GET("/articles/:slug", articleHandler.GetBySlug)
		if cfg.Uploads.Enabled {
			api.GET("/uploads/:token", uploadHandler.Download)
		}

		auth := api.Group("/auth")
		{
			auth.POST("/login", authHandler.Login)
			auth.POST("/refresh", authHandler.Refresh)
			auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
			auth.PUT("/password", middleware.JWT(authService), authHandler.ChangePassword)
			auth.GET("/me", middleware.JWT(authService), authHandler.Me)
		}

		admin := api.Group("/admin", middleware.JWT(authService), middleware.RequireRoles(models.RoleAdmin, models.RoleEditor))
		{
			admin.GET("/events", eventHandler.ListAdmin)
			admin.GET("/events/:id", eventHandler.Get)
			admin.POST("/events", eventHandler.Create)
			admin.PUT("/events/:id", eventHandler.Update)
			admin.DELETE("/events/:id", eventHandler.Delete)
			admin.POST("/events/generate", eventHandler.Generate)
			admin.POST("/events/repair-dates", eventHandler.RepairDates)
			admin.GET("/events/export", eventHandler.Export)

			admin.GET("/sermons", sermonHandler.ListAdmin)
			admin.GET("/sermons/:id", sermonHandler.Get)
			admin.POST("/sermons", sermonHandler.Create)
			admin.PUT("/sermons/:id", sermonHandler.Update)
			admin.DELETE("/sermons/:id", sermonHandler.Delete)

			admin.GET("/articles", articleHandler.ListAdmin)
			admin.GET("/articles/:id", articleHandler.Get)
			admin.POST("/articles", articleHandler.Create)
			admin.PUT("/articles/:id", articleHandler.Update)
			admin.DELETE("/articles/:id", articleHandler.Delete)

			if cfg.Uploads.Enabled {
				admin.POST("/uploads", uploadHandler.Upload)
			}
		}
	}

	scheduler := maintenance.NewScheduler(featuredService, recurrenceService, uploadService, cfg.Uploads.RetentionTTL, cfg.Maintenance, logr)
	if err := scheduler.Start(); err != nil {
		logr.Sugar().Fatalw("failed to start maintenance scheduler", "error", err)
	}
	defer scheduler.Stop()

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
