package journal

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// WriterConfig holds batching settings for the Postgres writer.
type WriterConfig struct {
	BufferSize    int
	BatchSize     int
	FlushInterval time.Duration
}

// DefaultWriterConfig returns sensible defaults.
func DefaultWriterConfig() WriterConfig {
	return WriterConfig{
		BufferSize:    4096,
		BatchSize:     256,
		FlushInterval: 1 * time.Second,
	}
}

// Writer batches events and inserts them into the relay_events table.
type Writer struct {
	cfg    WriterConfig
	db     *pgxpool.Pool
	logger *slog.Logger

	input chan Event

	// insert writes one flushed batch; tests substitute it.
	insert func(events []Event) error

	// Batching
	batchMu     sync.Mutex
	batch       []Event
	flushTicker *time.Ticker

	// Lifecycle
	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	// Metrics
	inserts int64
	dropped int64
	errors  int64
}

// NewWriter creates a Postgres journal writer.
func NewWriter(cfg WriterConfig, db *pgxpool.Pool, logger *slog.Logger) *Writer {
	if logger == nil {
		logger = slog.Default()
	}
	w := &Writer{
		cfg:    cfg,
		db:     db,
		logger: logger,
		input:  make(chan Event, cfg.BufferSize),
		batch:  make([]Event, 0, cfg.BatchSize),
	}
	w.insert = w.batchInsert
	return w
}

// Start begins consuming events and writing to the database.
func (w *Writer) Start(ctx context.Context) error {
	w.ctx, w.cancel = context.WithCancel(ctx)
	w.flushTicker = time.NewTicker(w.cfg.FlushInterval)

	w.wg.Add(1)
	go w.consumeLoop()

	w.wg.Add(1)
	go w.flushLoop()

	w.logger.Info("journal writer started",
		"batch_size", w.cfg.BatchSize,
		"flush_interval", w.cfg.FlushInterval,
	)
	return nil
}

// Record enqueues an event, dropping it if the buffer is full.
func (w *Writer) Record(ev Event) {
	if ev.ID == uuid.Nil {
		ev.ID = uuid.New()
	}
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}

	select {
	case w.input <- ev:
	default:
		w.batchMu.Lock()
		w.dropped++
		w.batchMu.Unlock()
		w.logger.Warn("journal buffer full, dropping event", "kind", ev.Kind)
	}
}

// Close stops the writer and flushes any pending events.
func (w *Writer) Close(ctx context.Context) error {
	w.logger.Info("stopping journal writer")

	if w.cancel != nil {
		w.cancel()
	}
	if w.flushTicker != nil {
		w.flushTicker.Stop()
	}

	done := make(chan struct{})
	go func() {
		w.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		w.logger.Warn("journal writer stop timed out")
	}

	// Drain whatever made it into the input channel, then flush.
	for {
		select {
		case ev := <-w.input:
			w.batchMu.Lock()
			w.batch = append(w.batch, ev)
			w.batchMu.Unlock()
		default:
			w.flush()
			w.logger.Info("journal writer stopped")
			return nil
		}
	}
}

// consumeLoop reads from the input channel and accumulates batches.
func (w *Writer) consumeLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case ev := <-w.input:
			w.batchMu.Lock()
			w.batch = append(w.batch, ev)
			shouldFlush := len(w.batch) >= w.cfg.BatchSize
			w.batchMu.Unlock()

			if shouldFlush {
				w.flush()
			}
		}
	}
}

// flushLoop periodically flushes the batch.
func (w *Writer) flushLoop() {
	defer w.wg.Done()

	for {
		select {
		case <-w.ctx.Done():
			return
		case <-w.flushTicker.C:
			w.flush()
		}
	}
}

// flush writes the current batch to the database.
func (w *Writer) flush() {
	w.batchMu.Lock()
	if len(w.batch) == 0 {
		w.batchMu.Unlock()
		return
	}

	// Take ownership of the current batch
	batch := w.batch
	w.batch = make([]Event, 0, w.cfg.BatchSize)
	w.batchMu.Unlock()

	start := time.Now()

	if err := w.insert(batch); err != nil {
		w.logger.Error("journal batch insert failed", "error", err, "count", len(batch))
		w.batchMu.Lock()
		w.errors++
		w.batchMu.Unlock()
		return
	}

	w.batchMu.Lock()
	w.inserts += int64(len(batch))
	w.batchMu.Unlock()

	w.logger.Debug("flushed journal events",
		"count", len(batch),
		"duration", time.Since(start),
	)
}

// batchInsert inserts events using pgx.Batch with ON CONFLICT DO NOTHING.
func (w *Writer) batchInsert(events []Event) error {
	batch := &pgx.Batch{}
	for _, ev := range events {
		batch.Queue(`
			INSERT INTO relay_events (id, at, kind, session_id, client_id, target, frame_bytes)
			VALUES ($1, $2, $3, $4, $5, $6, $7)
			ON CONFLICT (id) DO NOTHING
		`, ev.ID, ev.At, string(ev.Kind), ev.SessionID, ev.ClientID, ev.Target, ev.FrameBytes)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return w.db.SendBatch(ctx, batch).Close()
}
