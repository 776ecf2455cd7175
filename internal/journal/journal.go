package journal

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Kind classifies a journal event.
type Kind string

const (
	// KindRegister records a successful identifier registration.
	KindRegister Kind = "register"

	// KindRelay records a frame delivered to a registered recipient.
	KindRelay Kind = "relay"

	// KindDrop records a relay attempt to an unknown recipient.
	KindDrop Kind = "drop"
)

// Event is one journaled relay outcome.
type Event struct {
	ID         uuid.UUID
	At         time.Time
	Kind       Kind
	SessionID  string
	ClientID   string
	Target     string
	FrameBytes int
}

// Journal accepts events for asynchronous recording.
type Journal interface {
	// Record enqueues an event. It never blocks and never fails; an
	// overloaded journal drops events.
	Record(ev Event)

	// Close flushes pending events and releases resources.
	Close(ctx context.Context) error
}

// Nop returns a journal that discards every event. Used when no
// database is configured.
func Nop() Journal {
	return nopJournal{}
}

type nopJournal struct{}

func (nopJournal) Record(Event) {}

func (nopJournal) Close(context.Context) error { return nil }
