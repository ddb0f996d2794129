package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Dosada05/conference-tickets/handlers"
	"github.com/Dosada05/conference-tickets/middleware"
)

type Handlers struct {
	Registration *handlers.RegistrationHandler
	Participants *handlers.ParticipantHandler
	Files        *handlers.FilesHandler
	Health       *handlers.HealthHandler
	Admin        *handlers.AdminHandler
}

// SetupRoutes монтирует API, раздачу файлов и служебные эндпоинты.
func SetupRoutes(router *chi.Mux, h Handlers, corsOrigins []string) {
	router.Use(chiMiddleware.RequestID)
	router.Use(chiMiddleware.RealIP)
	router.Use(chiMiddleware.Logger)
	router.Use(chiMiddleware.Recoverer)
	router.Use(middleware.Metrics)
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins: corsOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	router.Route("/api", func(r chi.Router) {
		r.Post("/register", h.Registration.Register)
		r.Get("/participants", h.Participants.List)
		r.Get("/stats", h.Participants.Stats)
		r.Get("/verify/{ticket_id}", h.Participants.Verify)
		r.Get("/health", h.Health.Health)

		// DEVELOPMENT ONLY: внутри отвечает 403 вне dev-режима.
		r.Post("/reset-db", h.Admin.ResetDB)
	})

	router.Get("/uploads/{filename}", h.Files.Avatar)
	router.Get("/qr_codes/{filename}", h.Files.QRCode)

	router.Handle("/metrics", promhttp.Handler())

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusNotFound)
		w.Write([]byte(`{"error": "Endpoint not found"}` + "\n"))
	})
}
