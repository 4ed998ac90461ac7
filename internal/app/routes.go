package app

import (
	"github.com/calculuslmvt/backend101-yt/internal/auth"
	"github.com/calculuslmvt/backend101-yt/internal/cache"
	"github.com/calculuslmvt/backend101-yt/internal/config"
	"github.com/calculuslmvt/backend101-yt/internal/handlers"
	"github.com/calculuslmvt/backend101-yt/internal/media"
	"github.com/calculuslmvt/backend101-yt/internal/repo"
	"github.com/calculuslmvt/backend101-yt/internal/service"
	"github.com/calculuslmvt/backend101-yt/internal/token"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"github.com/swaggo/swag"
)

// Setup registers all routes on the given engine.
func Setup(r *gin.Engine, cfg config.Config, db *pgxpool.Pool, rdb *redis.Client) {
	r.GET("/", rootHandler(cfg))
	r.GET("/health", healthHandler(cfg))
	r.GET("/version", versionHandler(cfg))
	r.GET("/swagger-doc.json", swaggerDocHandler())
	r.GET("/swagger", func(c *gin.Context) { c.Redirect(302, "/swagger/index.html") })
	r.GET("/swagger/*any", ginSwagger.WrapHandler(
		swaggerFiles.Handler,
		ginSwagger.URL("/swagger-doc.json"),
		ginSwagger.DefaultModelsExpandDepth(-1),
		ginSwagger.PersistAuthorization(true),
	))

	api := r.Group("/api/v1")

	tokens := token.NewManager(
		cfg.JWT.AccessSecret, cfg.JWT.RefreshSecret,
		cfg.JWT.AccessExpiry(), cfg.JWT.RefreshExpiry(),
	)
	uploader := media.NewClient(cfg.Media.UploadURL, cfg.Media.APIKey, cfg.Media.Timeout.Duration())

	userRepo := repo.NewPGUserRepo(db)
	videoRepo := repo.NewPGVideoRepo(db)
	channelCache := cache.NewChannelCache(rdb, cfg.Redis.DefaultTTL.Duration())

	sessionSvc := service.NewSessionService(userRepo, tokens, uploader)
	userSvc := service.NewUserService(userRepo, uploader, channelCache)
	videoSvc := service.NewVideoService(videoRepo, userRepo)

	authHandler := handlers.NewAuthHandler(sessionSvc, cfg.JWT.AccessExpiry(), cfg.JWT.RefreshExpiry())
	userHandler := handlers.NewUserHandler(userSvc)
	videoHandler := handlers.NewVideoHandler(videoSvc)

	gate := auth.RequireAuth(tokens, userRepo)

	api.POST("/users/register", authHandler.Register)
	api.POST("/users/login", authHandler.Login)
	api.POST("/users/refresh-token", authHandler.Refresh)

	protected := api.Group("", gate)
	protected.POST("/users/logout", authHandler.Logout)
	protected.POST("/users/change-password", authHandler.ChangePassword)
	protected.GET("/users/me", userHandler.Me)
	protected.PATCH("/users/me", userHandler.UpdateAccount)
	protected.PATCH("/users/me/avatar", userHandler.UpdateAvatar)
	protected.PATCH("/users/me/cover-image", userHandler.UpdateCoverImage)
	protected.GET("/users/channel/:username", userHandler.Channel)
	protected.GET("/users/watch-history", userHandler.WatchHistory)
	protected.POST("/subscriptions/:channelId/toggle", userHandler.ToggleSubscription)
	protected.GET("/videos/:id", videoHandler.Watch)
	protected.GET("/videos/channel/:channelId", videoHandler.ChannelVideos)
}

func rootHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{
			"service": "Backend101 YT API",
			"version": cfg.App.Version,
			"env":     cfg.App.Env,
			"docs":    "/swagger/index.html",
			"spec":    "/swagger-doc.json",
			"health":  "/health",
			"api":     "/api/v1",
		})
	}
}

func healthHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"ok": true, "env": cfg.App.Env})
	}
}

func versionHandler(cfg config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(200, gin.H{"version": cfg.App.Version})
	}
}

func swaggerDocHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		doc, err := swag.ReadDoc("swagger")
		if err != nil {
			c.JSON(500, gin.H{"error": err.Error()})
			return
		}
		c.Data(200, "application/json; charset=utf-8", []byte(doc))
	}
}
