package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bibliotek-ia/bibliotek/internal/auth"
	"github.com/bibliotek-ia/bibliotek/internal/metrics"
)

// RouterOptions configure the outer HTTP surface
type RouterOptions struct {
	CORSOrigins []string
	// RateLimit and LoginRateLimit are requests per minute per client IP; zero disables them
	RateLimit      int
	LoginRateLimit int
	StaticDir      string
}

// Router builds the API routes
func (h *Handler) Router(mw *auth.Middleware, opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(RequestLogger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: opts.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{RequestIDHeader},
		MaxAge:         86400,
	}))

	r.MethodNotAllowed(respondMethodNotAllowed)
	r.NotFound(func(w http.ResponseWriter, r *http.Request) { respondNotFound(w) })

	r.Get("/healthcheck", func(w http.ResponseWriter, r *http.Request) {
		if _, err := w.Write([]byte("OK")); err != nil {
			slog.Error("Unable to write healthcheck", "err", err)
		}
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Use(limitByIP(opts.RateLimit))

		r.Route("/auth", func(r chi.Router) {
			r.Post("/register", h.HandleRegister)
			r.With(limitByIP(opts.LoginRateLimit)).Post("/login", h.HandleLogin)
			r.With(mw.Authenticate).Get("/me", h.HandleMe)
		})

		r.Get("/genres", h.HandleGenres)
		r.Get("/books/search", h.HandleSearchBooks)
		r.Get("/books/cover", h.HandleCover)

		r.Group(func(r chi.Router) {
			r.Use(mw.Authenticate)

			r.Get("/books", h.HandleListBooks)
			r.Post("/books", h.HandleAddBook)
			r.Put("/books/{id}", h.HandleUpdateBook)
			r.Delete("/books/{id}", h.HandleDeleteBook)

			r.Post("/ai/analyze", h.HandleAnalyze)
			r.Post("/ai/compare", h.HandleCompare)

			r.Get("/user/analysis", h.HandleGetAnalysis)
			r.Post("/user/analysis", h.HandleSaveAnalysis)
			r.Put("/user/profile", h.HandleUpdateProfile)

			r.Route("/admin", func(r chi.Router) {
				r.Use(mw.RequireAdmin)
				r.Get("/stats", h.HandleAdminStats)
				r.Get("/book-stats", h.HandleAdminBookStats)
				r.Get("/users", h.HandleAdminUsers)
			})
		})
	})

	if opts.StaticDir != "" {
		r.Get("/*", Static(opts.StaticDir))
	}

	return r
}

func limitByIP(perMinute int) func(http.Handler) http.Handler {
	if perMinute <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(perMinute, time.Minute,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(respondRateLimited),
	)
}
