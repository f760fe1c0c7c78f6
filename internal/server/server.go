package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/folioapp/folio/internal/config"
	"github.com/folioapp/folio/internal/handler"
	"github.com/folioapp/folio/internal/notify"
	"github.com/folioapp/folio/internal/openapi"
	"github.com/folioapp/folio/internal/server/middleware"
	"github.com/folioapp/folio/internal/service"
)

// Config holds the HTTP server configuration.
type Config struct {
	Host            string
	Port            int
	ShutdownTimeout time.Duration
	CORSOrigins     []string
	Version         string

	// TrustedProxy takes the client address from X-Forwarded-For and
	// X-Real-IP. Enable it only behind a proxy that overwrites them;
	// otherwise rate limits key on the TCP peer.
	TrustedProxy bool

	// Per-IP request limits for the public write endpoints.
	LoginLimit   int
	ContactLimit int
	ChatLimit    int
	LimitWindow  time.Duration
}

// DefaultConfig returns a Config with sensible production defaults.
func DefaultConfig() Config {
	return Config{
		Host:            "0.0.0.0",
		Port:            5000,
		ShutdownTimeout: 30 * time.Second,
		CORSOrigins:     []string{"http://localhost:5173"},
		Version:         "dev",
		LoginLimit:      10,
		ContactLimit:    5,
		ChatLimit:       60,
		LimitWindow:     15 * time.Minute,
	}
}

// Server is the top-level HTTP server for the portfolio API. It owns the
// Chi router, the content store, the auth service and the notification
// worker.
type Server struct {
	cfg        Config
	router     chi.Router
	store      *config.Store
	authSvc    *service.AuthService
	bot        *service.Chatbot
	notifier   *notify.Notifier
	httpServer *http.Server
	logger     *slog.Logger
}

// New creates a new Server, wires up all routes and middleware, and returns
// it ready to listen. notifier may be nil when notifications are disabled.
func New(cfg Config, store *config.Store, authSvc *service.AuthService, bot *service.Chatbot, notifier *notify.Notifier, logger *slog.Logger) (*Server, error) {
	s := &Server{
		cfg:      cfg,
		store:    store,
		authSvc:  authSvc,
		bot:      bot,
		notifier: notifier,
		logger:   logger,
	}
	if err := s.setupRouter(); err != nil {
		return nil, err
	}
	return s, nil
}

// securityHeaders sets the response headers a browser needs to refuse
// sniffing and framing of API responses.
func securityHeaders(next http.Handler) http.Handler {
	return chimw.SetHeader("X-Content-Type-Options", "nosniff")(
		chimw.SetHeader("X-Frame-Options", "DENY")(
			chimw.SetHeader("Referrer-Policy", "no-referrer")(next)))
}

func (s *Server) setupRouter() error {
	doc, err := openapi.Generate(s.cfg.Version, "")
	if err != nil {
		return fmt.Errorf("generate openapi document: %w", err)
	}

	var contactNotifier handler.ContactNotifier
	if s.notifier.Enabled() {
		contactNotifier = s.notifier
	}

	adminHandler := handler.NewAdminHandler(s.store, s.authSvc, s.logger)
	projectHandler := handler.NewProjectHandler(s.store, s.logger)
	testimonialHandler := handler.NewTestimonialHandler(s.store, s.logger)
	contactHandler := handler.NewContactHandler(s.store, contactNotifier, s.logger)
	chatHandler := handler.NewChatbotHandler(s.bot, originHosts(s.cfg.CORSOrigins), s.logger)
	sysHandler := handler.NewSystemHandler(s.store, s.cfg.Version)
	openAPIHandler := handler.NewOpenAPIHandler(doc)

	requireAdmin := middleware.Authenticate(s.authSvc, s.logger)
	window := s.cfg.LimitWindow
	if window <= 0 {
		window = time.Minute
	}

	r := chi.NewRouter()

	// --- Global middleware ---
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger(s.logger))
	r.Use(chimw.Recoverer)
	if s.cfg.TrustedProxy {
		r.Use(chimw.RealIP)
	}
	r.Use(securityHeaders)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   s.cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))
	r.Use(chimw.Compress(5))

	r.NotFound(sysHandler.NotFound)
	r.MethodNotAllowed(sysHandler.MethodNotAllowed)

	// --- Operational endpoints (no auth required) ---
	r.Get("/", sysHandler.Index)
	r.Get("/openapi.json", openAPIHandler.ServeSpec)

	r.Route("/api", func(r chi.Router) {
		r.Get("/health", sysHandler.Health)

		// Admin session
		r.Route("/admin", func(r chi.Router) {
			r.With(limit(s.cfg.LoginLimit, window)).Post("/login", adminHandler.Login)
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/profile", adminHandler.Profile)
				r.Post("/logout", adminHandler.Logout)
			})
		})
		r.With(limit(s.cfg.LoginLimit, window)).Post("/auth/login", adminHandler.Login)

		// Projects
		r.Route("/projects", func(r chi.Router) {
			r.Get("/", projectHandler.List)
			r.Get("/{idOrSlug}", projectHandler.Get)
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", projectHandler.Create)
				r.Put("/{id}", projectHandler.Update)
				r.Delete("/{id}", projectHandler.Delete)
			})
		})

		// Testimonials
		r.Route("/testimonials", func(r chi.Router) {
			r.Get("/", testimonialHandler.List)
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Post("/", testimonialHandler.Create)
				r.Put("/{id}", testimonialHandler.Update)
				r.Delete("/{id}", testimonialHandler.Delete)
			})
		})

		// Contact form and inbox
		r.Route("/contact", func(r chi.Router) {
			r.With(limit(s.cfg.ContactLimit, window)).Post("/", contactHandler.Send)
			r.Group(func(r chi.Router) {
				r.Use(requireAdmin)
				r.Get("/", contactHandler.List)
				r.Get("/messages", contactHandler.List)
				r.Patch("/{id}", contactHandler.UpdateStatus)
				r.Delete("/{id}", contactHandler.Delete)
			})
		})

		// Chatbot
		r.Route("/chatbot", func(r chi.Router) {
			r.Use(limit(s.cfg.ChatLimit, window))
			r.Post("/", chatHandler.Chat)
			r.Get("/ws", chatHandler.Live)
		})
	})

	s.router = r
	return nil
}

// limit returns a per-IP rate limiter, or a pass-through when requests is
// not positive.
func limit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if requests <= 0 {
		return func(next http.Handler) http.Handler { return next }
	}
	return middleware.RateLimit(requests, window)
}

// originHosts turns CORS origins into websocket origin patterns, which
// match on host only.
func originHosts(origins []string) []string {
	hosts := make([]string, 0, len(origins))
	for _, o := range origins {
		if o == "*" {
			return []string{"*"}
		}
		o = strings.TrimPrefix(strings.TrimPrefix(o, "https://"), "http://")
		if o = strings.TrimSuffix(o, "/"); o != "" {
			hosts = append(hosts, o)
		}
	}
	return hosts
}

// ListenAndServe starts the HTTP server and blocks until a SIGINT or SIGTERM
// is received. It then performs a graceful shutdown, draining in-flight
// requests and stopping the notification worker before closing the store.
func (s *Server) ListenAndServe() error {
	addr := fmt.Sprintf("%s:%d", s.cfg.Host, s.cfg.Port)

	s.httpServer = &http.Server{
		Addr:         addr,
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	// Listen for shutdown signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// The worker outlives the signal context so queued jobs drain on Stop.
	s.notifier.Start(context.Background())

	// Start server in background goroutine
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("server starting", "addr", addr)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal or server error
	select {
	case err := <-errCh:
		return fmt.Errorf("server listen: %w", err)
	case <-ctx.Done():
		s.logger.Info("shutdown signal received, draining connections...")
	}

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.ShutdownTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	if err := s.notifier.Stop(shutdownCtx); err != nil {
		s.logger.Warn("notification worker did not stop cleanly", "error", err)
	}

	if err := s.store.Close(); err != nil {
		s.logger.Warn("close store", "error", err)
	}
	s.logger.Info("server stopped")
	return nil
}

// Router returns the underlying Chi router, useful for testing.
func (s *Server) Router() chi.Router {
	return s.router
}

// ServeHTTP implements http.Handler, delegating to the router.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
