// Package server provides the HTTP widget host setup and wiring.
package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pendergraft/listingdesk/internal/auth"
	"github.com/pendergraft/listingdesk/internal/config"
	contactsDomain "github.com/pendergraft/listingdesk/internal/contacts/domain"
	contactsTransport "github.com/pendergraft/listingdesk/internal/contacts/transport"
	listsDomain "github.com/pendergraft/listingdesk/internal/lists/domain"
	listsTransport "github.com/pendergraft/listingdesk/internal/lists/transport"
	locationDomain "github.com/pendergraft/listingdesk/internal/location/domain"
	locationTransport "github.com/pendergraft/listingdesk/internal/location/transport"
	mediaDomain "github.com/pendergraft/listingdesk/internal/media/domain"
	mediaTransport "github.com/pendergraft/listingdesk/internal/media/transport"
	"github.com/pendergraft/listingdesk/internal/middleware/logging"
	"github.com/pendergraft/listingdesk/internal/middleware/ratelimit"
	"github.com/pendergraft/listingdesk/internal/middleware/security"
	"github.com/pendergraft/listingdesk/internal/observability/metrics"
	portalsDomain "github.com/pendergraft/listingdesk/internal/portals/domain"
	portalsTransport "github.com/pendergraft/listingdesk/internal/portals/transport"
	statusDomain "github.com/pendergraft/listingdesk/internal/status/domain"
	statusTransport "github.com/pendergraft/listingdesk/internal/status/transport"
	"github.com/pendergraft/listingdesk/internal/storage"
)

// Platform is everything the widgets call on the listing platform.
// *client.Client implements it.
type Platform interface {
	listsDomain.Platform
	portalsDomain.Platform
	contactsDomain.Platform
	mediaDomain.Platform
	statusDomain.Platform
	locationDomain.Platform
}

// Server is the HTTP widget host
type Server struct {
	cfg    *config.Config
	store  storage.Store
	logger *slog.Logger
	router *chi.Mux

	lists listsDomain.Service

	// Services typed via transport interfaces
	portalsSvc  portalsTransport.Service
	contactsSvc contactsTransport.Service
	mediaSvc    mediaTransport.Service
	statusSvc   statusTransport.Service
	locationSvc locationTransport.Service
}

// New creates a new server
func New(cfg *config.Config, store storage.Store, platform Platform, logger *slog.Logger) *Server {
	s := &Server{
		cfg:    cfg,
		store:  store,
		logger: logger,
		router: chi.NewRouter(),
	}

	ttl := time.Duration(cfg.Session.TTLMinutes) * time.Minute

	listsImpl := listsDomain.NewService(platform, store, listsDomain.Options{
		RecordLimit:     cfg.Views.RecordLimit,
		PageSizes:       cfg.Views.PageSizes,
		DefaultPageSize: cfg.Views.DefaultPageSize,
		SessionTTL:      ttl,
		StateRetention:  time.Duration(cfg.Views.StateRetentionHours) * time.Hour,
	}, logger)
	portalsImpl := portalsDomain.NewService(platform, portalsDomain.Options{BoardTTL: ttl}, logger)

	// Wrap the stateful widgets with logging middleware
	s.lists = listsDomain.LoggingMiddleware(logger)(listsImpl)
	s.portalsSvc = portalsDomain.LoggingMiddleware(logger)(portalsImpl)
	s.contactsSvc = contactsDomain.NewService(platform, logger)
	s.mediaSvc = mediaDomain.NewService(platform, cfg.Media.DownloadPrefix, logger)
	s.statusSvc = statusDomain.NewService(platform, logger)
	s.locationSvc = locationDomain.NewService(platform, logger)

	s.setupMiddleware()
	s.setupRoutes()

	return s
}

// Handler returns the HTTP handler
func (s *Server) Handler() http.Handler {
	return s.router
}

// PurgeViewState drops persisted list-view state past its retention.
func (s *Server) PurgeViewState(ctx context.Context) (int64, error) {
	return s.lists.PurgeStale(ctx)
}

func (s *Server) setupMiddleware() {
	// Order matters! The client IP must be resolved before logging and rate limiting.
	s.router.Use(middleware.RealIP)
	s.router.Use(middleware.RequestID)
	s.router.Use(logging.Middleware(s.logger))
	s.router.Use(metrics.Middleware)
	s.router.Use(middleware.Recoverer)

	s.router.Use(security.MaxBodySizeMiddleware(s.cfg.Security.MaxBodySizeMB))
	s.router.Use(ratelimit.Middleware(ratelimit.Config{
		Enabled:        s.cfg.RateLimit.Enabled,
		RequestsPerMin: s.cfg.RateLimit.RequestsPerMin,
		BurstSize:      s.cfg.RateLimit.BurstSize,
		CleanupMinutes: s.cfg.RateLimit.CleanupMinutes,
	}))
	if s.cfg.Server.RequestTimeout > 0 {
		s.router.Use(middleware.Timeout(time.Duration(s.cfg.Server.RequestTimeout) * time.Second))
	}
	s.router.Use(middleware.Compress(5))

	// CORS
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Accept, Authorization, Content-Type, X-API-Key")
			if r.Method == "OPTIONS" {
				w.WriteHeader(http.StatusOK)
				return
			}
			next.ServeHTTP(w, r)
		})
	})
}

func (s *Server) setupRoutes() {
	// Health checks
	s.router.Get("/health", s.handleHealth)
	s.router.Get("/healthz", s.handleHealth)
	s.router.Get("/readyz", s.handleHealth)
	if metrics.Enabled() {
		s.router.Handle("/metrics", metrics.Handler())
	}

	listsHandler := listsTransport.NewHandler(s.lists)
	portalsHandler := portalsTransport.NewHandler(s.portalsSvc)
	contactsHandler := contactsTransport.NewHandler(s.contactsSvc)
	mediaHandler := mediaTransport.NewHandler(s.mediaSvc)
	statusHandler := statusTransport.NewHandler(s.statusSvc)
	locationHandler := locationTransport.NewHandler(s.locationSvc)

	s.router.Route("/api/v1", func(r chi.Router) {
		if s.cfg.Auth.Type == "api-key" {
			r.Use(auth.Middleware(s.store, writeError))
		}

		r.Route("/views", func(r chi.Router) {
			listsHandler.RegisterReadRoutes(r)
			listsHandler.RegisterWriteRoutes(r)
		})

		r.Route("/listings/{id}", func(r chi.Router) {
			portalsHandler.RegisterReadRoutes(r)
			portalsHandler.RegisterWriteRoutes(r)
			mediaHandler.RegisterReadRoutes(r)
			mediaHandler.RegisterWriteRoutes(r)
			statusHandler.RegisterReadRoutes(r)
			statusHandler.RegisterWriteRoutes(r)
			locationHandler.RegisterReadRoutes(r)
		})

		r.Route("/contacts", func(r chi.Router) {
			contactsHandler.RegisterReadRoutes(r)
			contactsHandler.RegisterWriteRoutes(r)
		})
	})
}

// Health check handler
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Helper functions

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
		},
		"notifications": []any{},
	})
}
