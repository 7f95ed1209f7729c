// Package api provides the HTTP server for FocusForge: a JSON REST API over
// the engagement, insight and health services.
package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	json "github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/focusforge/focusforge/internal/app/engagement"
	"github.com/focusforge/focusforge/internal/app/insight"
	"github.com/focusforge/focusforge/internal/health"
	"github.com/focusforge/focusforge/internal/logging"
)

// Config holds HTTP-level settings.
type Config struct {
	CORSOrigins        []string
	RateLimitPerMinute int // 0 disables rate limiting
	RequestTimeout     time.Duration
}

// DefaultConfig returns production defaults.
func DefaultConfig() Config {
	return Config{
		CORSOrigins:        []string{"*"},
		RateLimitPerMinute: 600,
		RequestTimeout:     30 * time.Second,
	}
}

// Server is the FocusForge HTTP API server.
type Server struct {
	engage         *engagement.Service
	insights       *insight.Service
	checker        *health.Checker
	cfg            Config
	metricsEnabled bool
	log            zerolog.Logger
}

// NewServer creates a new API server. checker may be nil.
func NewServer(engage *engagement.Service, insights *insight.Service, checker *health.Checker, cfg Config) *Server {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultConfig().RequestTimeout
	}
	return &Server{
		engage:   engage,
		insights: insights,
		checker:  checker,
		cfg:      cfg,
		log:      logging.Component("api"),
	}
}

// EnableMetrics enables the /metrics Prometheus endpoint.
func (s *Server) EnableMetrics() { s.metricsEnabled = true }

// SetLogger replaces the request logger.
func (s *Server) SetLogger(l zerolog.Logger) { s.log = l }

// Handler returns the chi router with all routes mounted.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(s.log))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(s.cfg.RequestTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.cfg.CORSOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "Authorization", "X-Request-Id"},
		ExposedHeaders: []string{"X-Request-Id"},
		MaxAge:         300,
	}))
	if s.cfg.RateLimitPerMinute > 0 {
		r.Use(httprate.Limit(s.cfg.RateLimitPerMinute, time.Minute,
			httprate.WithKeyFuncs(httprate.KeyByIP),
			httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
				writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			}),
		))
	}

	r.Get("/health", s.handleHealth)

	// Prometheus metrics endpoint
	if s.metricsEnabled {
		r.Handle("/metrics", promhttp.Handler())
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/powerups", s.handleCatalog)
		r.Get("/leaderboard", s.handleLeaderboard)
		r.Get("/level", s.handleLevel)

		r.Post("/users", s.handleCreateUser)
		r.Route("/users/{id}", func(r chi.Router) {
			r.Get("/", s.handleProfile)
			r.Post("/sessions", s.handleCompleteSession)
			r.Get("/sessions", s.handleSessions)
			r.Post("/team-challenges", s.handleTeamChallenge)
			r.Get("/quests", s.handleQuests)
			r.Get("/achievements", s.handleAchievements)
			r.Get("/powerups", s.handleActivePowerUps)
			r.Post("/powerups/{pid}/purchase", s.handlePurchase)
			r.Post("/powerups/{pid}/use", s.handleUse)
			r.Get("/wallet", s.handleWallet)
			r.Get("/notifications", s.handleNotifications)
			r.Post("/notifications/{nid}/shown", s.handleNotificationShown)
			r.Get("/insights", s.handleInsights)
		})
	})

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})

	return r
}

// writeJSON writes a JSON response.
func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck // client went away
}

// writeError writes a JSON error response.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]interface{}{
		"error": map[string]interface{}{
			"message": msg,
			"type":    "error",
		},
	})
}
