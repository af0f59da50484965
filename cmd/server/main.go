package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"

	"club_meetings/internal/config"
	"club_meetings/internal/handler"
	"club_meetings/internal/middleware"
	"club_meetings/internal/repository"
	"club_meetings/internal/service"
	"club_meetings/pkg/logger"
)

func main() {
	// Загрузка конфигурации
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Инициализация логгера
	var appLogger logger.Logger
	if cfg.Log.File != "" {
		appLogger = logger.NewFile(cfg.Log.Level, cfg.Log.File, cfg.Log.MaxSizeMB, cfg.Log.MaxBackups)
	} else {
		appLogger = logger.New(cfg.Log.Level)
	}

	// Подключение к PostgreSQL
	dbPool, err := pgxpool.New(context.Background(), cfg.Database.DSN)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", "error", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		appLogger.Fatal("Failed to ping database", "error", err)
	}
	appLogger.Info("Database connection established")

	// Подключение к Redis
	rdb := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer rdb.Close()

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		appLogger.Fatal("Failed to connect to Redis", "error", err)
	}
	appLogger.Info("Redis connection established")

	// Инициализация слоев
	repos := repository.NewRepositories(dbPool, rdb, appLogger)
	services := service.NewServices(repos, cfg, appLogger)
	defer services.Notifier.Close()

	authMiddleware := middleware.NewAuthMiddleware(services.Auth, appLogger)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(services.RateLimit, cfg.RateLimit, appLogger)

	handlers := handler.NewHandlers(services, repos, cfg, appLogger)

	router := setupRouter(handlers, authMiddleware, rateLimitMiddleware, cfg, appLogger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

	// Graceful shutdown
	go func() {
		appLogger.Info("Starting server", "port", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			appLogger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		appLogger.Fatal("Server forced to shutdown", "error", err)
	}

	appLogger.Info("Server exited")
}

func setupRouter(
	handlers *handler.Handlers,
	authMiddleware *middleware.AuthMiddleware,
	rateLimitMiddleware *middleware.RateLimitMiddleware,
	cfg *config.Config,
	log logger.Logger,
) *gin.Engine {
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.CORS())
	router.Use(middleware.RequestLogger(log))
	router.Use(middleware.Metrics())
	router.Use(middleware.ErrorHandler())

	// Health check и метрики
	router.GET("/health", handlers.Health.Check)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API v1
	v1 := router.Group("/api/v1")
	{
		// Публичные endpoints
		public := v1.Group("/auth")
		{
			public.POST("/register", rateLimitMiddleware.Limit(), handlers.Auth.Register)
			public.POST("/login", rateLimitMiddleware.Limit(), handlers.Auth.Login)
			public.POST("/refresh", handlers.Auth.RefreshToken)
		}

		// Защищенные endpoints
		protected := v1.Group("")
		protected.Use(authMiddleware.RequireAuth())
		{
			clubs := protected.Group("/clubs")
			{
				clubs.POST("", handlers.Club.Create)
				clubs.POST("/join", handlers.Club.Join)
				clubs.GET("/:id", handlers.Club.GetByID)
				clubs.POST("/:id/meetings", handlers.Meeting.Create)
				clubs.GET("/:id/meetings", handlers.Meeting.ListByClub)
			}

			meetings := protected.Group("/meetings")
			{
				meetings.GET("/:id", handlers.Meeting.GetByID)
				meetings.POST("/:id/start", handlers.Meeting.Start)
				meetings.POST("/:id/end", handlers.Meeting.End)
				meetings.POST("/:id/cancel", handlers.Meeting.Cancel)
				meetings.POST("/:id/join", handlers.Meeting.Join)
				meetings.POST("/:id/leave", handlers.Meeting.Leave)
				meetings.POST("/:id/heartbeat", handlers.Meeting.Heartbeat)
				meetings.GET("/:id/presence", handlers.Meeting.GetPresence)
				meetings.GET("/:id/messages", handlers.Message.List)
				meetings.POST("/:id/messages", handlers.Message.Send)
			}
		}
	}

	// WebSocket endpoint для real-time событий встречи
	router.GET("/ws/meetings/:id", authMiddleware.RequireAuth(), handlers.WebSocket.HandleMeeting)

	return router
}
