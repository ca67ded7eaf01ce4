package app

import (
	"context"

	"github.com/hdsm55/shababna-platform-sub002/internal/config"
	"github.com/hdsm55/shababna-platform-sub002/internal/db"
	"github.com/hdsm55/shababna-platform-sub002/internal/handlers"
	"github.com/hdsm55/shababna-platform-sub002/internal/repository"
	"github.com/hdsm55/shababna-platform-sub002/internal/routes"
	"github.com/hdsm55/shababna-platform-sub002/internal/services"

	"github.com/gorilla/mux"
)

// InitApp wires repositories, services and handlers. The cleanup scheduler is
// returned unstarted; the caller owns its lifecycle.
func InitApp(cfg *config.Config) (*mux.Router, *services.CleanupService, error) {
	conn, err := db.NewPostgresConnection(cfg)
	if err != nil {
		return nil, nil, err
	}
	if err := db.EnsureSchema(context.Background(), conn); err != nil {
		return nil, nil, err
	}

	// Repositories
	tokenRepo := repository.NewResetTokenRepository(conn)
	attemptRepo := repository.NewAttemptLogRepository(conn)
	userRepo := repository.NewUserRepository(conn)

	// Services
	tokenService := services.NewTokenService(tokenRepo, cfg.PasswordResetTTL())
	limiter := services.NewRateLimitService(attemptRepo)
	emailService := services.NewEmailService(cfg)
	resetService := services.NewPasswordResetService(tokenService, limiter, userRepo, emailService, services.NewBcryptHasher())
	cleanup := services.NewCleanupService(tokenRepo, attemptRepo)

	// Handlers
	resetHandler := handlers.NewPasswordResetHandler(resetService)

	router := mux.NewRouter()
	routes.InitRoutes(router, resetHandler)

	return router, cleanup, nil
}
