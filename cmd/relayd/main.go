package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/netfold/relay/internal/config"
	"github.com/netfold/relay/internal/database"
	"github.com/netfold/relay/internal/journal"
	"github.com/netfold/relay/internal/registry"
	"github.com/netfold/relay/internal/relay"
	"github.com/netfold/relay/internal/server"
	"github.com/netfold/relay/internal/version"
)

func main() {
	configPath := flag.String("config", "", "path to optional config file")
	flag.Parse()

	cfg, err := loadConfig(*configPath, flag.Args())
	if err != nil {
		fmt.Fprintln(os.Stderr, "relayd:", err)
		os.Exit(1)
	}

	// Set up structured logging
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(cfg.Log.Level),
	}))
	slog.SetDefault(logger)

	logger.Info("starting relayd",
		"version", version.Version,
		"commit", version.Commit,
		"host", cfg.Listen.Host,
		"port", cfg.Listen.Port,
	)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("relayd failed", "error", err)
		os.Exit(1)
	}

	logger.Info("relayd stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *slog.Logger) error {
	policy, err := registry.ParsePolicy(cfg.Registry.ConflictPolicy)
	if err != nil {
		return err
	}

	jrnl, err := setupJournal(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer func() {
		closeCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		jrnl.Close(closeCtx)
	}()

	reg := registry.New(policy, logger)
	dispatcher := relay.NewDispatcher(reg, jrnl, logger)

	srv := server.New(server.Config{
		Addr:             fmt.Sprintf("%s:%d", cfg.Listen.Host, cfg.Listen.Port),
		MaxFrameBytes:    cfg.Limits.MaxFrameBytes,
		WriteTimeout:     cfg.Limits.WriteTimeout,
		HandshakeTimeout: cfg.Limits.HandshakeTimeout,
	}, reg, dispatcher, logger)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return srv.Run(ctx)
	})
	return g.Wait()
}

// loadConfig builds the effective configuration: file (optional), then
// the two optional positional arguments [host [port]] on top.
func loadConfig(path string, args []string) (*config.Config, error) {
	cfg := config.Default()
	if path != "" {
		loaded, err := config.LoadAndValidate(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	}
	if err := cfg.ApplyArgs(args); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// setupJournal connects the audit journal when one is configured and
// falls back to a no-op journal otherwise.
func setupJournal(ctx context.Context, cfg *config.Config, logger *slog.Logger) (journal.Journal, error) {
	if !cfg.Journal.Enabled {
		return journal.Nop(), nil
	}

	logger.Info("connecting journal database",
		"host", cfg.Journal.Postgres.Host,
		"port", cfg.Journal.Postgres.Port,
		"database", cfg.Journal.Postgres.Name,
	)

	pool, err := database.Connect(ctx, cfg.Journal.Postgres)
	if err != nil {
		return nil, fmt.Errorf("connect journal database: %w", err)
	}

	w := journal.NewWriter(journal.WriterConfig{
		BufferSize:    cfg.Journal.BufferSize,
		BatchSize:     cfg.Journal.BatchSize,
		FlushInterval: cfg.Journal.FlushInterval,
	}, pool, logger)
	if err := w.Start(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return &pooledJournal{Writer: w, pool: pool}, nil
}

// pooledJournal ties the journal writer's lifetime to its connection
// pool.
type pooledJournal struct {
	*journal.Writer
	pool *pgxpool.Pool
}

func (p *pooledJournal) Close(ctx context.Context) error {
	err := p.Writer.Close(ctx)
	p.pool.Close()
	return err
}

func logLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
