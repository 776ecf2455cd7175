package server

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/netfold/relay/internal/registry"
	"github.com/netfold/relay/internal/session"
)

// Config holds listener settings.
type Config struct {
	// Addr is the host:port to bind.
	Addr string

	// MaxFrameBytes caps inbound frame size; oversized frames fail the
	// read and end the offending session. Zero means no limit.
	MaxFrameBytes int64

	// WriteTimeout bounds each outbound frame write.
	WriteTimeout time.Duration

	// HandshakeTimeout bounds the WebSocket upgrade.
	HandshakeTimeout time.Duration
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:             "0.0.0.0:6789",
		MaxFrameBytes:    1 << 20,
		WriteTimeout:     5 * time.Second,
		HandshakeTimeout: 10 * time.Second,
	}
}

// Dispatcher is the frame handler shared by all sessions.
type Dispatcher = session.Dispatcher

// Server accepts WebSocket connections and runs one session per
// connection.
type Server struct {
	cfg      Config
	reg      registry.Registry
	dispatch Dispatcher
	logger   *slog.Logger

	upgrader websocket.Upgrader
}

// New creates a server over the given registry and dispatcher.
func New(cfg Config, reg registry.Registry, dispatch Dispatcher, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		cfg:      cfg,
		reg:      reg,
		dispatch: dispatch,
		logger:   logger,
		upgrader: websocket.Upgrader{
			HandshakeTimeout: cfg.HandshakeTimeout,
			// Identifiers are unauthenticated by design; origin
			// checking would be theater on top of that.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}
}

// Handler returns the HTTP handler accepting WebSocket upgrades.
// Upgrades are accepted on every path, matching clients that connect
// to an arbitrary ws:// URL. Exported so tests can drive the server
// through httptest.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handleWS)
	return mux
}

// Run binds the listener and serves until ctx is cancelled or the
// listener fails. Cancellation drains with a short timeout.
func (s *Server) Run(ctx context.Context) error {
	httpSrv := &http.Server{
		Addr:    s.cfg.Addr,
		Handler: s.Handler(),
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		httpSrv.Shutdown(shutdownCtx)
	}()

	s.logger.Info("listening", "addr", s.cfg.Addr)

	if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// handleWS upgrades one connection and runs its session to completion.
// The handler goroutine is the session's unit of concurrency.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	ws, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		// Upgrade already wrote the HTTP error response.
		s.logger.Debug("upgrade failed", "remote_addr", r.RemoteAddr, "error", err)
		return
	}
	if s.cfg.MaxFrameBytes > 0 {
		ws.SetReadLimit(s.cfg.MaxFrameBytes)
	}

	sessionID := uuid.NewString()
	logger := s.logger.With(
		"session_id", sessionID,
		"remote_addr", r.RemoteAddr,
	)
	logger.Info("connection accepted")

	conn := newWSConn(ws, s.cfg.WriteTimeout)
	sess := session.New(sessionID, conn, s.reg, s.dispatch, logger)
	sess.Run(r.Context())
}
