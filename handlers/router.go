package handlers

import (
	"net/http"

	"document-search/core"
	"document-search/handlers/api/documents"
	"document-search/handlers/middleware"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// NewRouter wires the HTTP surface. realtime may be nil to serve without the
// socket.io endpoint.
func NewRouter(documentStore core.DocumentStore, limiter *middleware.RateLimiter, realtime http.Handler) http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Logger)
	r.Use(chimiddleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-CSRF-Token", "Origin", "X-Requested-With"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		render.Status(r, http.StatusOK)
		w.Write([]byte("you are all set"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v2", func(r chi.Router) {
		if limiter != nil {
			r.Use(limiter.Handler)
		}
		r.Mount("/documents", documents.Routes(documentStore))
	})

	if realtime != nil {
		r.Handle("/socket.io/", realtime)
	}
	return r
}
