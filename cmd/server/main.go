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
	"github.com/redis/go-redis/v9"

	"staff_messenger/internal/config"
	"staff_messenger/internal/handler"
	"staff_messenger/internal/middleware"
	"staff_messenger/internal/repository"
	"staff_messenger/internal/service"
	"staff_messenger/pkg/logger"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	appLogger := logger.New(cfg.Log.Level)

	dbPool, err := pgxpool.New(context.Background(), cfg.Database.DSN)
	if err != nil {
		appLogger.Fatal("Failed to connect to database", "error", err)
	}
	defer dbPool.Close()

	if err := dbPool.Ping(context.Background()); err != nil {
		appLogger.Fatal("Failed to ping database", "error", err)
	}
	appLogger.Info("Database connection established")

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

	repos := repository.NewRepositories(dbPool, rdb, appLogger)

	services, err := service.NewServices(context.Background(), repos, cfg, appLogger)
	if err != nil {
		appLogger.Fatal("Failed to initialize services", "error", err)
	}

	authMiddleware := middleware.NewAuthMiddleware(cfg.JWT.Secret, services.User, appLogger)
	rateLimitMiddleware := middleware.NewRateLimitMiddleware(services.RateLimit, appLogger)

	handlers := handler.NewHandlers(services, repos, cfg, appLogger)

	hubCtx, hubCancel := context.WithCancel(context.Background())
	defer hubCancel()
	go handlers.TypingHub.Run(hubCtx)

	router := setupRouter(handlers, authMiddleware, rateLimitMiddleware, cfg, appLogger)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  60 * time.Second,
	}

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
	hubCancel()

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
	router.Use(middleware.ErrorHandler())

	router.GET("/health", handlers.Health.Check)

	api := router.Group("/api")
	api.Use(authMiddleware.RequireAuth())
	{
		api.GET("/users", handlers.User.List)

		api.GET("/conversations", handlers.Conversation.List)
		api.POST("/conversations/group", handlers.Conversation.CreateGroup)
		api.POST("/conversations/:id/read", handlers.Conversation.MarkRead)

		api.GET("/messages", handlers.Message.History)
		api.POST("/messages", handlers.Message.Send)

		// Typing pings arrive on every compose transition plus keep-alives,
		// so they get a generous per-user budget; uploads a tight one.
		api.POST("/typing", rateLimitMiddleware.Limit("typing", 120, 60), handlers.Typing.Set)
		api.GET("/typing", handlers.Typing.Get)

		api.POST("/upload", rateLimitMiddleware.Limit("upload", 30, 60), handlers.Upload.Upload)

		api.GET("/stats/messaging", handlers.Stats.Messaging)
	}

	// Push channel for typing indicators; poll GET /api/typing also works.
	router.GET("/ws/typing", handlers.TypingHub.HandleTyping)

	if cfg.Upload.Kind == "local" {
		router.Static(cfg.Upload.BaseURL, cfg.Upload.LocalDir)
	}

	return router
}
