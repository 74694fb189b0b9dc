package handler

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dealwatch/backend/internal/logger"
)

// RouterConfig holds everything the HTTP API needs
type RouterConfig struct {
	Games          *GameHandler
	Subscriptions  *SubscriptionHandler
	Users          *UserHandler
	Tracker        *TrackerHandler
	AllowedOrigins []string
}

// NewRouter builds the chi router for the API
func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(requestContext)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})

	// Catalog
	r.Get("/api/games/search", cfg.Games.Search)
	r.Get("/api/games/{gameID}", cfg.Games.Get)
	r.Get("/api/games/{gameID}/prices/{storeID}/history", cfg.Subscriptions.History)
	r.Get("/api/deals", cfg.Games.Deals)
	r.Get("/api/stores", cfg.Games.Stores)

	// Users
	r.Get("/api/users/{userID}", cfg.Users.Get)
	r.Patch("/api/users/{userID}", cfg.Users.Update)

	// Subscriptions
	r.Route("/api/users/{userID}/subscriptions", func(r chi.Router) {
		r.Get("/", cfg.Subscriptions.List)
		r.Post("/", cfg.Subscriptions.Create)
		r.Patch("/{gameID}", cfg.Subscriptions.UpdateFilters)
		r.Delete("/{gameID}", cfg.Subscriptions.Delete)
	})

	// Tracker
	r.Post("/api/tracker/run", cfg.Tracker.Run)
	r.Get("/api/tracker/health", cfg.Tracker.Health)

	return r
}

// requestContext copies the chi request ID into the logging context.
func requestContext(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := middleware.GetReqID(r.Context()); id != "" {
			r = r.WithContext(logger.WithRequestID(r.Context(), id))
		}
		next.ServeHTTP(w, r)
	})
}
