package server

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"net"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"agentlaunch/internal/config"
	"agentlaunch/internal/journal"
	"agentlaunch/internal/launch"
	"agentlaunch/internal/logging"
	"agentlaunch/internal/services/fal"
	"agentlaunch/internal/services/moltbook"
)

//go:embed ui
var uiFS embed.FS

// Registrar creates agent identities.
type Registrar interface {
	RegisterAgent(ctx context.Context, name, description string) (*moltbook.Agent, error)
}

// LogoGenerator produces a logo URL, never failing.
type LogoGenerator interface {
	GenerateLogo(ctx context.Context, prompt string) string
}

// Randomizer produces agent names and personas.
type Randomizer interface {
	Randomize(ctx context.Context, kind fal.Kind) (string, error)
}

// Launcher runs the orchestrated launch flow.
type Launcher interface {
	Launch(ctx context.Context, req launch.Request) (*launch.Result, error)
}

// Historian lists recorded launches. May be nil when the journal is
// disabled.
type Historian interface {
	List(ctx context.Context, limit int) ([]journal.Entry, error)
}

// Deps are the collaborators the HTTP surface delegates to.
type Deps struct {
	Registrar  Registrar
	Logos      LogoGenerator
	Randomizer Randomizer
	Launcher   Launcher
	History    Historian
}

// Server serves the wizard UI and API.
type Server struct {
	bind   string
	logger *slog.Logger
	deps   Deps

	listener net.Listener
	server   *http.Server
	handler  http.Handler
}

// New builds the server from config and collaborators.
func New(cfg *config.Config, deps Deps, logger *slog.Logger) (*Server, error) {
	if cfg == nil {
		return nil, errors.New("config required")
	}
	bind := strings.TrimSpace(cfg.Paths.APIBind)
	if bind == "" {
		return nil, errors.New("api bind address required")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	srv := &Server{bind: bind, logger: logger, deps: deps}

	mux := http.NewServeMux()
	mux.HandleFunc("/api/create-agent", srv.handleCreateAgent)
	mux.HandleFunc("/api/generate-logo", srv.handleGenerateLogo)
	mux.HandleFunc("/api/launch-token", srv.handleLaunchToken)
	mux.HandleFunc("/api/randomize", srv.handleRandomize)
	mux.HandleFunc("/api/history", srv.handleHistory)

	ui, err := fs.Sub(uiFS, "ui")
	if err != nil {
		return nil, fmt.Errorf("embedded ui: %w", err)
	}
	mux.Handle("/", http.FileServer(http.FS(ui)))

	srv.handler = srv.withRequestID(mux)
	srv.server = &http.Server{
		Handler:           srv.handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       60 * time.Second,
	}
	return srv, nil
}

// Handler exposes the routed handler, primarily for tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Start begins serving and shuts down when ctx is cancelled.
func (s *Server) Start(ctx context.Context) error {
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("http server error", logging.Error(err))
		}
	}()

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}()

	s.logger.Info("server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Stop shuts the server down outside of context cancellation.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	if s.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = s.server.Shutdown(shutdownCtx)
	}
	if s.listener != nil {
		_ = s.listener.Close()
		s.listener = nil
	}
}

// Addr returns the bound address once Start has succeeded.
func (s *Server) Addr() string {
	if s.listener == nil {
		return s.bind
	}
	return s.listener.Addr().String()
}
