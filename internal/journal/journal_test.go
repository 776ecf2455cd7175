package journal

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
)

// batchRecorder captures every batch the writer flushes.
type batchRecorder struct {
	mu      sync.Mutex
	batches [][]Event
}

func (r *batchRecorder) insert(events []Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.batches = append(r.batches, events)
	return nil
}

func (r *batchRecorder) snapshot() [][]Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([][]Event, len(r.batches))
	copy(out, r.batches)
	return out
}

func waitForBatches(t *testing.T, r *batchRecorder, n int) [][]Event {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if got := r.snapshot(); len(got) >= n {
			return got
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d flushed batches, have %d", n, len(r.snapshot()))
	return nil
}

func TestNopJournal(t *testing.T) {
	j := Nop()

	// Must accept events and close without side effects.
	j.Record(Event{Kind: KindRelay, ClientID: "alice"})
	if err := j.Close(context.Background()); err != nil {
		t.Errorf("Close() = %v, want nil", err)
	}
}

func TestDefaultWriterConfig(t *testing.T) {
	cfg := DefaultWriterConfig()

	if cfg.BufferSize != 4096 {
		t.Errorf("BufferSize = %d, want 4096", cfg.BufferSize)
	}
	if cfg.BatchSize != 256 {
		t.Errorf("BatchSize = %d, want 256", cfg.BatchSize)
	}
	if cfg.FlushInterval != time.Second {
		t.Errorf("FlushInterval = %v, want 1s", cfg.FlushInterval)
	}
}

func TestWriterRecordFillsDefaults(t *testing.T) {
	cfg := DefaultWriterConfig()
	w := NewWriter(cfg, nil, nil)

	w.Record(Event{Kind: KindRegister, SessionID: "s1", ClientID: "alice"})

	select {
	case ev := <-w.input:
		if ev.ID == uuid.Nil {
			t.Error("Record left ID unset")
		}
		if ev.At.IsZero() {
			t.Error("Record left At unset")
		}
		if ev.Kind != KindRegister {
			t.Errorf("Kind = %q, want %q", ev.Kind, KindRegister)
		}
	default:
		t.Fatal("event did not reach the input channel")
	}
}

func TestWriterRecordKeepsExplicitFields(t *testing.T) {
	cfg := DefaultWriterConfig()
	w := NewWriter(cfg, nil, nil)

	id := uuid.New()
	at := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	w.Record(Event{ID: id, At: at, Kind: KindRelay})

	ev := <-w.input
	if ev.ID != id {
		t.Errorf("ID = %v, want %v", ev.ID, id)
	}
	if !ev.At.Equal(at) {
		t.Errorf("At = %v, want %v", ev.At, at)
	}
}

func TestWriterFlushesWhenBatchFills(t *testing.T) {
	cfg := WriterConfig{BufferSize: 16, BatchSize: 3, FlushInterval: time.Hour}
	w := NewWriter(cfg, nil, nil)
	rec := &batchRecorder{}
	w.insert = rec.insert

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Close(context.Background())

	// Two events sit below the threshold; the third triggers the flush.
	w.Record(Event{Kind: KindRegister, ClientID: "alice"})
	w.Record(Event{Kind: KindRelay, ClientID: "bob", Target: "alice"})
	w.Record(Event{Kind: KindDrop, ClientID: "bob", Target: "ghost"})

	batches := waitForBatches(t, rec, 1)
	if len(batches[0]) != 3 {
		t.Fatalf("flushed batch holds %d events, want 3", len(batches[0]))
	}
	if batches[0][0].Kind != KindRegister || batches[0][2].Kind != KindDrop {
		t.Error("flush reordered the batch")
	}
}

func TestWriterFlushesOnInterval(t *testing.T) {
	cfg := WriterConfig{BufferSize: 16, BatchSize: 256, FlushInterval: 10 * time.Millisecond}
	w := NewWriter(cfg, nil, nil)
	rec := &batchRecorder{}
	w.insert = rec.insert

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Close(context.Background())

	// One event, far below the size threshold; the ticker must move it.
	w.Record(Event{Kind: KindRelay, ClientID: "alice", Target: "bob"})

	batches := waitForBatches(t, rec, 1)
	if len(batches[0]) != 1 {
		t.Errorf("flushed batch holds %d events, want 1", len(batches[0]))
	}
}

func TestWriterCloseFlushesPending(t *testing.T) {
	cfg := WriterConfig{BufferSize: 16, BatchSize: 256, FlushInterval: time.Hour}
	w := NewWriter(cfg, nil, nil)
	rec := &batchRecorder{}
	w.insert = rec.insert

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	w.Record(Event{Kind: KindRegister, ClientID: "alice"})
	w.Record(Event{Kind: KindRelay, ClientID: "alice", Target: "bob"})

	if err := w.Close(context.Background()); err != nil {
		t.Fatalf("Close: %v", err)
	}

	var total int
	for _, b := range rec.snapshot() {
		total += len(b)
	}
	if total != 2 {
		t.Errorf("flushed %d events across Close, want 2", total)
	}
}

func TestWriterDropsWhenFull(t *testing.T) {
	cfg := WriterConfig{BufferSize: 1, BatchSize: 8, FlushInterval: time.Hour}
	w := NewWriter(cfg, nil, nil)

	// Writer not started: the first event fills the buffer, the second
	// must be dropped rather than block.
	w.Record(Event{Kind: KindRelay})

	done := make(chan struct{})
	go func() {
		w.Record(Event{Kind: KindRelay})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Record blocked on a full buffer")
	}

	w.batchMu.Lock()
	dropped := w.dropped
	w.batchMu.Unlock()
	if dropped != 1 {
		t.Errorf("dropped = %d, want 1", dropped)
	}
}
