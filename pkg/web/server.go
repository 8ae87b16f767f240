// Package web serves the recorder page and the request endpoints.
package web

import (
	"context"
	_ "embed"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/websocket/v2"

	"github.com/JxsueMd16/mad-ia/pkg/hub"
	"github.com/JxsueMd16/mad-ia/pkg/tools"
	"github.com/JxsueMd16/mad-ia/pkg/voice"
)

//go:embed assets/index.html
var indexHTML []byte

// User-facing error texts.
const (
	MissingAudioText = "No llegó el archivo de audio."
	MissingTextText  = "No llegó ningún texto."
	ServerErrorText  = "Error del servidor. Revisa la consola."
)

// SessionCookie carries the caller's session key.
const SessionCookie = "madia_session"

// DefaultBodyLimit bounds request bodies, uploads included.
const DefaultBodyLimit = 25 << 20

// healthTimeout bounds each health check.
const healthTimeout = 5 * time.Second

// Pipeline is what the handlers drive. *voice.Pipeline satisfies it.
type Pipeline interface {
	HandleAudio(ctx context.Context, sessionKey string, up voice.Upload) (*voice.Reply, error)
	HandleText(ctx context.Context, sessionKey, text string) (*voice.Reply, error)
	Reset(ctx context.Context, sessionKey string) error
	Metrics() *voice.MetricsCollector
}

// HealthCheck reports whether a dependency is usable.
type HealthCheck func(ctx context.Context) error

// Server is the HTTP surface.
type Server struct {
	app      *fiber.App
	pipeline Pipeline
	turns    *hub.Hub
	registry *tools.Registry
	checks   map[string]HealthCheck
	order    []string

	staticDir string
	bodyLimit int
	logger    *slog.Logger
}

// Option configures a Server.
type Option func(*Server)

// WithHub exposes the hub's turn events on /ws/turns.
func WithHub(h *hub.Hub) Option {
	return func(s *Server) { s.turns = h }
}

// WithTools lists the registry on /api/tools.
func WithTools(r *tools.Registry) Option {
	return func(s *Server) { s.registry = r }
}

// WithHealthCheck adds a named check to /api/health.
func WithHealthCheck(name string, check HealthCheck) Option {
	return func(s *Server) {
		if _, ok := s.checks[name]; !ok {
			s.order = append(s.order, name)
		}
		s.checks[name] = check
	}
}

// WithStaticDir serves synthesized assets from dir under /static.
func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

// WithBodyLimit sets the maximum request body size in bytes.
func WithBodyLimit(n int) Option {
	return func(s *Server) { s.bodyLimit = n }
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) { s.logger = l }
}

// NewServer creates the server and its routes.
func NewServer(p Pipeline, opts ...Option) *Server {
	s := &Server{
		pipeline:  p,
		checks:    make(map[string]HealthCheck),
		bodyLimit: DefaultBodyLimit,
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.logger = s.logger.With("component", "web.server")

	app := fiber.New(fiber.Config{
		AppName:               "MAD-IA",
		DisableStartupMessage: true,
		BodyLimit:             s.bodyLimit,
		ErrorHandler:          s.handleError,
	})

	app.Use(recover.New(recover.Config{EnableStackTrace: true}))
	app.Use(cors.New())

	app.Get("/", s.handleIndex)
	app.Post("/audio", s.handleAudio)

	if s.staticDir != "" {
		app.Static("/static", s.staticDir, fiber.Static{MaxAge: 0})
	}

	api := app.Group("/api")
	api.Post("/text", s.handleText)
	api.Delete("/session", s.handleReset)
	api.Get("/health", s.handleHealth)
	api.Get("/tools", s.handleListTools)
	api.Get("/metrics", s.handleMetrics)

	if s.turns != nil {
		app.Use("/ws", func(c *fiber.Ctx) error {
			if websocket.IsWebSocketUpgrade(c) {
				return c.Next()
			}
			return fiber.ErrUpgradeRequired
		})
		app.Get("/ws/turns", websocket.New(s.handleTurnsWS))
	}

	s.app = app
	return s
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run listens on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("listening", "addr", addr)
		errCh <- s.app.Listen(addr)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.app.ShutdownWithContext(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handleError renders every error as a Reply. Internal failures never leak
// their detail to the caller.
func (s *Server) handleError(c *fiber.Ctx, err error) error {
	code := fiber.StatusInternalServerError
	text := ServerErrorText

	var fe *fiber.Error
	if errors.As(err, &fe) && fe.Code < fiber.StatusInternalServerError {
		code = fe.Code
		text = fe.Message
	} else {
		s.logger.Error("request failed",
			"method", c.Method(),
			"path", c.Path(),
			"error", err,
		)
	}

	return c.Status(code).JSON(voice.Reply{Result: voice.ResultError, Text: text})
}
