// Package server provides the HTTP server and routing for the
// credibility scoring engine.
package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/rs/zerolog"

	"github.com/aristath/credence/internal/config"
	"github.com/aristath/credence/internal/di"
	notificationhandlers "github.com/aristath/credence/internal/modules/notifications/handlers"
	promisehandlers "github.com/aristath/credence/internal/modules/promises/handlers"
	reviewhandlers "github.com/aristath/credence/internal/modules/reviews/handlers"
	scoringhandlers "github.com/aristath/credence/internal/modules/scoring/handlers"
	votehandlers "github.com/aristath/credence/internal/modules/votes/handlers"
	"github.com/aristath/credence/internal/ratelimit"
	"github.com/aristath/credence/internal/scheduler"
)

// Config holds server configuration
type Config struct {
	Log       zerolog.Logger
	Config    *config.Config
	Container *di.Container
}

// Server is the HTTP front end. All writes go through the module
// handlers; scoring itself happens in the background processor.
type Server struct {
	router         *chi.Mux
	server         *http.Server
	log            zerolog.Logger
	cfg            *config.Config
	container      *di.Container
	systemHandlers *SystemHandlers
}

// New creates a new HTTP server
func New(cfg Config) *Server {
	systemHandlers := NewSystemHandlers(
		cfg.Log,
		cfg.Config.DataDir,
		cfg.Container.Databases,
		cfg.Container.Processor,
		cfg.Container.Aggregator,
	)

	s := &Server{
		router:         chi.NewRouter(),
		log:            cfg.Log.With().Str("component", "server").Logger(),
		cfg:            cfg.Config,
		container:      cfg.Container,
		systemHandlers: systemHandlers,
	}

	s.setupMiddleware(cfg.Config.DevMode)
	s.setupRoutes()

	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// SetJobs registers job instances for manual triggering via API
func (s *Server) SetJobs(jobs map[string]scheduler.Job) {
	s.systemHandlers.SetJobs(jobs)
}

// setupMiddleware configures middleware
func (s *Server) setupMiddleware(devMode bool) {
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.RequestID)
	s.router.Use(middleware.RealIP)
	s.router.Use(s.loggingMiddleware)
	s.router.Use(middleware.Timeout(60 * time.Second))

	s.router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Contributor-ID"},
		ExposedHeaders:   []string{"Link"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	if !devMode {
		s.router.Use(middleware.Compress(5))
	}
}

// setupRoutes configures all routes
func (s *Server) setupRoutes() {
	s.router.Get("/health", s.handleHealth)

	s.router.Route("/api", func(r chi.Router) {
		// Live event streams, registered before the rate-limited routes.
		eventsStreamHandler := NewEventsStreamHandler(s.container.EventBus, s.log)
		r.Get("/events/stream", eventsStreamHandler.ServeHTTP)

		eventsSocketHandler := NewEventsSocketHandler(s.container.EventBus, s.log)
		r.Get("/events/ws", eventsSocketHandler.ServeHTTP)

		// System monitoring and operations
		r.Route("/system", func(r chi.Router) {
			r.Get("/status", s.systemHandlers.HandleSystemStatus)
			r.Get("/database/stats", s.systemHandlers.HandleDatabaseStats)
			r.Get("/disk", s.systemHandlers.HandleDiskUsage)
			r.Get("/jobs", s.systemHandlers.HandleJobsStatus)
			r.Post("/jobs/{jobName}", s.systemHandlers.HandleTriggerJob)
			r.Post("/recompute/{companyID}", s.systemHandlers.HandleTriggerRecompute)
			r.Get("/verify/{companyID}", s.systemHandlers.HandleVerifyScore)
		})

		// Read-only scoring endpoints, no rate limit.
		scoringhandlers.NewHandler(s.container.Aggregator, s.log).RegisterRoutes(r)

		// Write endpoints are rate limited per contributor.
		r.Group(func(r chi.Router) {
			r.Use(ratelimit.Middleware(s.container.RateLimiter))

			votehandlers.NewHandler(s.container.VotesService, s.log).RegisterRoutes(r)
			reviewhandlers.NewHandler(s.container.ReviewsService, s.log).RegisterRoutes(r)
			promisehandlers.NewHandler(s.container.PromisesService, s.log).RegisterRoutes(r)
			notificationhandlers.NewHandler(s.container.Notifier, s.log).RegisterRoutes(r)
		})
	})
}

// handleHealth is the liveness endpoint
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	for name, db := range s.container.Databases {
		if err := db.QuickCheck(ctx); err != nil {
			s.log.Error().Err(err).Str("database", name).Msg("Health check failed")
			w.WriteHeader(http.StatusServiceUnavailable)
			fmt.Fprintf(w, `{"status":"unhealthy","database":"%s"}`, name)
			return
		}
	}

	w.Header().Set("Content-Type", "application/json")
	fmt.Fprint(w, `{"status":"ok"}`)
}

// Start starts the HTTP server
func (s *Server) Start() error {
	s.log.Info().Int("port", s.cfg.Port).Msg("Starting HTTP server")
	return s.server.ListenAndServe()
}

// Shutdown gracefully shuts down the server
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info().Msg("Shutting down HTTP server")
	return s.server.Shutdown(ctx)
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		s.log.Info().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("duration_ms", time.Since(start)).
			Str("request_id", middleware.GetReqID(r.Context())).
			Msg("HTTP request")
	})
}
