package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/markdave123-py/Penpal/internal/api/handlers"
	appMiddleware "github.com/markdave123-py/Penpal/internal/api/middlewares"
	"github.com/markdave123-py/Penpal/internal/config"
	"github.com/markdave123-py/Penpal/internal/logger"
)

// Server wraps the HTTP server instance and its handlers.
type Server struct {
	httpServer *http.Server
	log        *logger.Logger
}

// NewServer builds and wires all routes.
func NewServer(cfg *config.Config, svc *Services, log *logger.Logger) *Server {
	return &Server{
		httpServer: &http.Server{
			Addr:              ":" + cfg.Port,
			Handler:           NewRouter(cfg, svc, log),
			ReadHeaderTimeout: 10 * time.Second,
		},
		log: log,
	}
}

func NewRouter(cfg *config.Config, svc *Services, log *logger.Logger) http.Handler {
	loc, err := time.LoadLocation(cfg.DefaultTimezone)
	if err != nil {
		log.Warn("unknown DEFAULT_TIMEZONE, using UTC", "timezone", cfg.DefaultTimezone, "error", err)
		loc = time.UTC
	}

	authHandler := handlers.NewAuthHandler(svc.Users, svc.Entries, svc.Sessions, cfg.JWTSecret, log)
	entryHandler := handlers.NewEntryHandler(svc.Entries, svc.Documents, svc.Archive, log)
	chatHandler := handlers.NewChatHandler(svc.Sessions, svc.Entries, svc.Archive, loc, log)
	phraseHandler := handlers.NewPhraseHandler(svc.Phrases)
	metricsHandler := handlers.NewMetricsHandler(svc.Metrics, loc)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", appMiddleware.DeviceHeader, handlers.TimezoneHeader},
		ExposedHeaders:   []string{"X-Sync-Status"},
		AllowCredentials: true,
	}))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	r.Route("/api", func(api chi.Router) {
		// public endpoints
		api.Post("/signup", authHandler.Signup)
		api.Post("/login", authHandler.Login)

		// signed-in users and guests
		api.Group(func(p chi.Router) {
			p.Use(appMiddleware.Identity(cfg.JWTSecret))

			p.Post("/logout", authHandler.Logout)

			p.Get("/entries", entryHandler.List)
			p.Route("/entries/{date}", func(e chi.Router) {
				e.Get("/", entryHandler.Get)
				e.Put("/", entryHandler.Put)
				e.Delete("/", entryHandler.Delete)
				e.Post("/submit", entryHandler.Submit)
				e.Post("/reopen", entryHandler.Reopen)
				e.Post("/import", entryHandler.Import)
			})

			p.Post("/chat/messages", chatHandler.Send)
			p.Get("/chat/messages", chatHandler.History)
			p.Post("/chat/end", chatHandler.End)
			p.Delete("/chat", chatHandler.Discard)

			p.Get("/metrics", metricsHandler.Get)

			// saved phrases live in the remote store only
			p.Group(func(u chi.Router) {
				u.Use(appMiddleware.RequireUser)
				u.Get("/phrases", phraseHandler.List)
				u.Post("/phrases", phraseHandler.Add)
				u.Get("/phrases/exists", phraseHandler.Exists)
				u.Post("/phrases/extract", phraseHandler.Extract)
				u.Delete("/phrases/{id}", phraseHandler.Remove)
			})
		})
	})

	return r
}

// Start runs the HTTP server until Shutdown is called.
func (s *Server) Start() error {
	s.log.Info("HTTP server listening", "addr", s.httpServer.Addr)
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.log.Info("shutting down HTTP server")
	return s.httpServer.Shutdown(ctx)
}
