package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/yourusername/contest-rank-api/internal/app"
	"github.com/yourusername/contest-rank-api/internal/config"
	"github.com/yourusername/contest-rank-api/internal/handler"
	"github.com/yourusername/contest-rank-api/internal/middleware"
	"github.com/yourusername/contest-rank-api/pkg/auth"
	"github.com/yourusername/contest-rank-api/pkg/logger"
)

var defaultAllowedOrigins = []string{"http://localhost:5173", "http://localhost:8000", "http://localhost:3000"}

func main() {
	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config/config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		// Логгер еще не настроен
		_, _ = os.Stderr.WriteString("Failed to load config: " + err.Error() + "\n")
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		_, _ = os.Stderr.WriteString("Failed to init logger: " + err.Error() + "\n")
		os.Exit(1)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deps, err := app.New(ctx, cfg, log, true)
	if err != nil {
		log.Fatal("Failed to initialize dependencies", zap.Error(err))
	}
	defer deps.Close()

	jwtService, err := auth.NewJWTService(cfg.JWT.Secret, time.Duration(cfg.JWT.ExpirationHrs)*time.Hour)
	if err != nil {
		log.Fatal("Failed to initialize JWT service", zap.Error(err))
	}

	authMiddleware := middleware.NewAuthMiddleware(jwtService, log)
	rateLimiter := middleware.NewRateLimiter(deps.Redis, log)

	handlers := handler.Handlers{
		Ranking:    handler.NewRankingHandler(deps.Rankings, deps.Recalculation, log),
		Violations: handler.NewViolationHandler(deps.Violations, log),
		Reviews:    handler.NewReviewHandler(deps.Reviews, log),
	}

	isProduction := gin.Mode() == gin.ReleaseMode
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(log), middleware.AccessLog(log))

	// В production не доверяем прокси-заголовкам, иначе c.ClientIP() можно подделать
	trustedProxies := []string{"127.0.0.1", "::1"}
	if isProduction {
		trustedProxies = nil
	}
	if err := router.SetTrustedProxies(trustedProxies); err != nil {
		log.Warn("Failed to set trusted proxies", zap.Error(err))
	}

	origins := cfg.Server.AllowedOrigins
	if len(origins) == 0 {
		origins = defaultAllowedOrigins
	}
	router.Use(cors.New(cors.Config{
		AllowOrigins:     origins,
		AllowMethods:     []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "Content-Disposition", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	handler.RegisterRoutes(router, handlers, authMiddleware, handler.RouteLimits{
		ViolationReports: rateLimiter.LimitByUser(middleware.ViolationReportRateLimitConfig(cfg.RateLimit.ViolationReports, cfg.RateLimit.Window)),
		PublicReads:      rateLimiter.Limit(middleware.PublicReadRateLimitConfig(cfg.RateLimit.PublicReads, cfg.RateLimit.Window)),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
	}

	go func() {
		log.Info("Starting server", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed", zap.Error(err))
			cancel()
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-quit:
	case <-ctx.Done():
	}
	log.Info("Shutting down server...")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
		return
	}
	log.Info("Server exited properly")
}
