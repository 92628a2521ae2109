package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// Sets up chi router, middlewares and defines all api endpoints
func (s *Server) routes() {
	s.r = chi.NewRouter()

	s.r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	// Injects a request ID into the context of each request
	s.r.Use(middleware.RequestID)
	// Sets a http.Request's RemoteAddr to either X-Real-IP or X-Forwarded-For
	s.r.Use(middleware.RealIP)
	// Gracefully absorb panics and prints the stack trace
	s.r.Use(middleware.Recoverer)
	s.r.Use(middleware.Timeout(60 * time.Second))

	if s.metrics != nil {
		s.r.Handle("/metrics", s.metrics.Handler())
	}

	s.r.Route("/v1", func(r chi.Router) {
		r.Use(middleware.SetHeader("Content-Type", "application/json"))

		r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
			JSON(w, http.StatusOK, map[string]interface{}{"health_status": "online"})
		})

		r.Get("/status", s.handleStatusGet)
		r.Post("/controller/{action}", s.handleControllerPost)

		// dispatch audit log
		r.Get("/dispatches", s.handleDispatchesGet)

		if s.ledger != nil {
			r.Route("/ledger", func(r chi.Router) {
				r.Post("/transfers", s.handleTransferPost)
				r.Post("/validators/{address}", s.handleValidatorPost)
				r.Delete("/validators/{address}", s.handleValidatorDelete)
				r.Post("/bridge/{action}", s.handleBridgePost)
				r.Post("/limits/{limit}", s.handleLimitPost)
			})
		}
	})
}
