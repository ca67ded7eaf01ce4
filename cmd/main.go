package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/hdsm55/shababna-platform-sub002/docs"
	"github.com/hdsm55/shababna-platform-sub002/internal/app"
	"github.com/hdsm55/shababna-platform-sub002/internal/config"
	"github.com/hdsm55/shababna-platform-sub002/internal/logger"

	"github.com/rs/cors"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"
)

// @title Shababna Platform API — password reset
// @version 1.0
// @description Password reset and rate limiting endpoints of the Shababna membership platform.
// @BasePath /
func main() {
	cfg, err := config.LoadConfig()
	logger.InitLogger()
	defer logger.Log.Sync()

	if err != nil {
		logger.Log.Fatal("failed to load config", zap.Error(err))
	}

	warnings, err := cfg.Validate()
	for _, warning := range warnings {
		logger.Log.Warn("config warning", zap.String("warning", warning))
	}
	if err != nil {
		logger.Log.Fatal("invalid config", zap.Error(err))
	}

	router, cleanup, err := app.InitApp(cfg)
	if err != nil {
		logger.Log.Fatal("failed to init application", zap.Error(err))
	}

	cleanup.Start(cfg.CleanupInterval())

	router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)

	corsMiddleware := cors.New(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowCredentials: true,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
	})

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: corsMiddleware.Handler(router),
	}

	go func() {
		logger.Log.Info("server started", zap.String("port", cfg.Port), zap.String("db", cfg.GetDSNSafe()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Log.Fatal("server failed", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	<-ctx.Done()

	logger.Log.Info("shutting down")
	cleanup.Stop()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Log.Error("server shutdown failed", zap.Error(err))
	}
}
