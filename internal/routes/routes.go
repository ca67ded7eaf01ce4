package routes

import (
	"github.com/hdsm55/shababna-platform-sub002/internal/handlers"
	"github.com/hdsm55/shababna-platform-sub002/internal/middleware"

	"github.com/gorilla/mux"
)

func InitRoutes(router *mux.Router, resetHandler *handlers.PasswordResetHandler) {
	router.Use(middleware.RequestID)
	router.Use(middleware.Logging)
	router.Use(middleware.Recoverer)

	api := router.PathPrefix("/api").Subrouter()

	// All three reset endpoints are public by design.
	api.HandleFunc("/forgot-password", resetHandler.Forgot).Methods("POST")
	api.HandleFunc("/reset-password", resetHandler.ValidateReset).Methods("GET")
	api.HandleFunc("/reset-password", resetHandler.Reset).Methods("POST")
}
