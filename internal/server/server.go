package server

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/bobmcallan/vire-chart/internal/app"
	"github.com/bobmcallan/vire-chart/internal/common"
)

// Server wraps the HTTP server and application reference.
type Server struct {
	app          *app.App
	server       *http.Server
	logger       *common.Logger
	sessions     *sessionRegistry
	shutdownChan chan struct{}
}

// SetShutdownChannel sets the channel that will be signaled when HTTP shutdown is requested.
func (s *Server) SetShutdownChannel(ch chan struct{}) {
	s.shutdownChan = ch
}

// NewServer creates a new HTTP chart server.
func NewServer(a *app.App) *Server {
	s := &Server{
		app:      a,
		logger:   a.Logger,
		sessions: newSessionRegistry(),
	}

	mux := http.NewServeMux()
	s.registerRoutes(mux)

	handler := applyMiddleware(mux, a.Logger)

	host := a.Config.Server.Host
	port := a.Config.Server.Port

	s.server = &http.Server{
		Addr:         fmt.Sprintf("%s:%d", host, port),
		Handler:      handler,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 300 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	return s
}

// Handler returns the HTTP handler for testing.
func (s *Server) Handler() http.Handler {
	return s.server.Handler
}

// Start starts the HTTP server (blocking).
func (s *Server) Start() error {
	s.logger.Info().
		Str("addr", s.server.Addr).
		Msg("Starting chart server")
	return s.server.ListenAndServe()
}

// Shutdown closes every open chart session, then gracefully shuts down the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if n := s.sessions.closeAll(); n > 0 {
		s.logger.Info().Int("sessions", n).Msg("Closed chart sessions")
	}
	return s.server.Shutdown(ctx)
}
