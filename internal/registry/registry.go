package registry

import (
	"context"
	"errors"
	"log/slog"
	"sync"
)

// ErrIDClaimed is returned by Register under PolicyReject when the
// identifier already has a different live holder.
var ErrIDClaimed = errors.New("registry: identifier already claimed")

// Conn is the outbound half of an accepted connection: what the
// registry hands to a relaying session.
type Conn interface {
	// Send writes one frame to the peer.
	Send(ctx context.Context, frame []byte) error

	// Close tears down the underlying transport.
	Close() error
}

// Registry maps client identifiers to live connections.
type Registry interface {
	// Register installs conn as the holder of id, resolving a conflict
	// with any existing holder according to the configured policy.
	Register(id string, conn Conn) error

	// Unregister removes the entry for id. Removing an absent id is a
	// no-op, not an error.
	Unregister(id string)

	// UnregisterConn removes the entry for id only while conn is still
	// its holder. A departing session uses this so it never deletes an
	// entry a successor has already claimed.
	UnregisterConn(id string, conn Conn)

	// Lookup returns the current holder of id. It never blocks on
	// delivery.
	Lookup(id string) (Conn, bool)

	// Len returns the current number of entries.
	Len() int
}

type registry struct {
	policy Policy
	logger *slog.Logger

	mu      sync.RWMutex
	entries map[string]Conn
}

// New creates an empty registry with the given conflict policy.
func New(policy Policy, logger *slog.Logger) Registry {
	if logger == nil {
		logger = slog.Default()
	}
	return &registry{
		policy:  policy,
		logger:  logger,
		entries: make(map[string]Conn),
	}
}

func (r *registry) Register(id string, conn Conn) error {
	r.mu.Lock()
	prev, exists := r.entries[id]
	if exists && prev != conn && r.policy == PolicyReject {
		r.mu.Unlock()
		return ErrIDClaimed
	}
	r.entries[id] = conn
	total := len(r.entries)
	r.mu.Unlock()

	if exists && prev != conn {
		switch r.policy {
		case PolicyEvict:
			// Close outside the lock; a slow transport must not stall
			// every other session.
			if err := prev.Close(); err != nil {
				r.logger.Debug("close evicted connection", "client_id", id, "error", err)
			}
			r.logger.Info("previous holder evicted", "client_id", id)
		default:
			// The old connection stays open but is no longer reachable
			// by relay.
			r.logger.Info("registration overwritten", "client_id", id)
		}
	}

	r.logger.Debug("registered", "client_id", id, "total", total)
	return nil
}

func (r *registry) Unregister(id string) {
	r.mu.Lock()
	_, exists := r.entries[id]
	delete(r.entries, id)
	total := len(r.entries)
	r.mu.Unlock()

	if exists {
		r.logger.Debug("unregistered", "client_id", id, "total", total)
	}
}

func (r *registry) UnregisterConn(id string, conn Conn) {
	r.mu.Lock()
	prev, exists := r.entries[id]
	if exists && prev == conn {
		delete(r.entries, id)
	} else {
		exists = false
	}
	total := len(r.entries)
	r.mu.Unlock()

	if exists {
		r.logger.Debug("unregistered", "client_id", id, "total", total)
	}
}

func (r *registry) Lookup(id string) (Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.entries[id]
	return conn, ok
}

func (r *registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}
