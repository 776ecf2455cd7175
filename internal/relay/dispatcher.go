package relay

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/netfold/relay/internal/journal"
	"github.com/netfold/relay/internal/registry"
)

// Sender is the dispatcher's view of the session that produced a
// frame: its connection, its logging identity, and its registration
// state. The dispatcher updates the registration state in place when a
// registration frame is processed.
type Sender interface {
	// SessionID returns the server-assigned session identifier.
	SessionID() string

	// Conn returns the sender's own connection.
	Conn() registry.Conn

	// Current returns the identifier the sender most recently
	// registered, if any.
	Current() (id string, ok bool)

	// Assume records id as the sender's registered identity.
	Assume(id string)
}

// Dispatcher interprets inbound frames and drives the registry.
// It is shared by all sessions and holds no per-session state.
type Dispatcher struct {
	reg    registry.Registry
	jrnl   journal.Journal
	logger *slog.Logger
}

// NewDispatcher creates a dispatcher over the given registry. A nil
// journal disables auditing.
func NewDispatcher(reg registry.Registry, jrnl journal.Journal, logger *slog.Logger) *Dispatcher {
	if jrnl == nil {
		jrnl = journal.Nop()
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		reg:    reg,
		jrnl:   jrnl,
		logger: logger,
	}
}

// Dispatch handles one inbound frame from sender. A non-nil error is
// fatal to the sending session; everything else (unknown recipient,
// unidentified sender, frame without a target) is a silent drop.
func (d *Dispatcher) Dispatch(ctx context.Context, sender Sender, raw []byte) error {
	frame, err := ParseFrame(raw)
	if err != nil {
		return err
	}

	if frame.IsRegister() {
		return d.register(sender, frame)
	}

	senderID, identified := sender.Current()
	if !identified || !frame.HasTo {
		// Unidentified sender, or nothing to relay. Not an error.
		return nil
	}
	return d.relay(ctx, sender, senderID, frame)
}

func (d *Dispatcher) register(sender Sender, frame *Frame) error {
	if !frame.HasID {
		return ErrMissingID
	}
	if err := d.reg.Register(frame.ID, sender.Conn()); err != nil {
		return fmt.Errorf("register %q: %w", frame.ID, err)
	}
	sender.Assume(frame.ID)

	d.logger.Info("client registered",
		"client_id", frame.ID,
		"session_id", sender.SessionID(),
		"clients", d.reg.Len(),
	)
	d.jrnl.Record(journal.Event{
		Kind:      journal.KindRegister,
		SessionID: sender.SessionID(),
		ClientID:  frame.ID,
	})
	// No acknowledgment is sent to the client.
	return nil
}

func (d *Dispatcher) relay(ctx context.Context, sender Sender, senderID string, frame *Frame) error {
	target, ok := d.reg.Lookup(frame.To)
	if !ok {
		d.logger.Info("recipient not found",
			"to", frame.To,
			"from", senderID,
		)
		d.jrnl.Record(journal.Event{
			Kind:       journal.KindDrop,
			SessionID:  sender.SessionID(),
			ClientID:   senderID,
			Target:     frame.To,
			FrameBytes: len(frame.Raw),
		})
		return nil
	}

	// Forward the original bytes unmodified. The lookup and the send
	// are not atomic: the holder may have gone away in between, which
	// surfaces here as a send failure charged to the sender.
	if err := target.Send(ctx, frame.Raw); err != nil {
		return &StaleRecipientError{Recipient: frame.To, Err: err}
	}

	d.logger.Debug("frame relayed",
		"from", senderID,
		"to", frame.To,
		"bytes", len(frame.Raw),
	)
	d.jrnl.Record(journal.Event{
		Kind:       journal.KindRelay,
		SessionID:  sender.SessionID(),
		ClientID:   senderID,
		Target:     frame.To,
		FrameBytes: len(frame.Raw),
	})
	return nil
}
