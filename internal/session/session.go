package session

import (
	"context"
	"log/slog"

	"github.com/netfold/relay/internal/registry"
	"github.com/netfold/relay/internal/relay"
)

// State is the session's registration state.
type State int

const (
	// StateUnidentified is the initial state: the peer has not yet
	// registered an identifier and its frames cannot be relayed.
	StateUnidentified State = iota

	// StateIdentified means the peer has registered at least once.
	// Re-registration stays in this state and updates the identity.
	StateIdentified
)

// Transport is one accepted bidirectional frame connection.
type Transport interface {
	// Receive blocks until the next inbound frame or a transport
	// failure.
	Receive(ctx context.Context) ([]byte, error)

	// Send writes one frame to the peer.
	Send(ctx context.Context, frame []byte) error

	// Close tears down the underlying connection.
	Close() error
}

// Dispatcher handles one inbound frame; a non-nil error is fatal to
// the session.
type Dispatcher interface {
	Dispatch(ctx context.Context, sender relay.Sender, raw []byte) error
}

// Session drives one connection from accept to teardown. All fields
// are touched only from the session's own goroutine; the registry is
// the sole state shared across sessions.
type Session struct {
	id       string
	conn     Transport
	reg      registry.Registry
	dispatch Dispatcher
	logger   *slog.Logger

	state    State
	clientID string
}

// New creates a session for one accepted connection. id is the
// server-assigned session identifier used for log correlation.
func New(id string, conn Transport, reg registry.Registry, dispatch Dispatcher, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		id:       id,
		conn:     conn,
		reg:      reg,
		dispatch: dispatch,
		logger:   logger,
	}
}

// SessionID returns the server-assigned session identifier.
func (s *Session) SessionID() string { return s.id }

// Conn returns the session's connection as seen by the registry.
func (s *Session) Conn() registry.Conn { return s.conn }

// State returns the current registration state.
func (s *Session) State() State { return s.state }

// Current returns the identifier this session most recently
// registered, if any.
func (s *Session) Current() (string, bool) {
	return s.clientID, s.state == StateIdentified
}

// Assume records id as this session's registered identity. Called by
// the dispatcher after a successful registration; a re-registration
// replaces the remembered identity.
func (s *Session) Assume(id string) {
	s.state = StateIdentified
	s.clientID = id
}

// Run consumes frames strictly in arrival order until the connection
// ends, for any reason: peer close, transport error, or a fatal
// dispatch error. Cleanup runs on every exit path.
func (s *Session) Run(ctx context.Context) {
	defer s.teardown()

	s.logger.Debug("session started")

	for {
		raw, err := s.conn.Receive(ctx)
		if err != nil {
			// Normal closes and transport failures end up here alike;
			// the peer has no error-response channel either way.
			s.logger.Debug("connection closed", "error", err)
			return
		}

		if err := s.dispatch.Dispatch(ctx, s, raw); err != nil {
			if relay.IsProtocolViolation(err) {
				s.logger.Warn("protocol violation, closing connection", "error", err)
			} else {
				s.logger.Warn("fatal session error", "error", err)
			}
			return
		}
	}
}

// teardown removes this session's registry entry, if it ever
// identified, and closes the transport. The removal is conditional on
// the session still holding the entry: under eviction or overwrite a
// successor may already own the identifier, and the departing session
// must not take the successor's entry with it. Failures here are
// logged and never propagated: teardown is best-effort and must not
// take the server down with it.
func (s *Session) teardown() {
	if s.state == StateIdentified {
		s.reg.UnregisterConn(s.clientID, s.conn)
		s.logger.Info("client unregistered", "client_id", s.clientID)
	}
	if err := s.conn.Close(); err != nil {
		s.logger.Debug("close during teardown", "error", err)
	}
	s.logger.Debug("session ended")
}
