package config

import "time"

// Default values for optional configuration fields.
const (
	DefaultHost           = "0.0.0.0"
	DefaultPort           = 6789
	DefaultConflictPolicy = "overwrite"

	DefaultMaxFrameBytes    = int64(1 << 20)
	DefaultWriteTimeout     = 5 * time.Second
	DefaultHandshakeTimeout = 10 * time.Second

	DefaultJournalBufferSize    = 4096
	DefaultJournalBatchSize     = 256
	DefaultJournalFlushInterval = 1 * time.Second

	DefaultDBPort    = 5432
	DefaultDBSSLMode = "prefer"
	DefaultMaxConns  = 4
	DefaultMinConns  = 1

	DefaultLogLevel = "info"
)

// Default returns a fully-defaulted configuration, used when no config
// file is given.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyDefaults() {
	if c.Listen.Host == "" {
		c.Listen.Host = DefaultHost
	}
	if c.Listen.Port == 0 {
		c.Listen.Port = DefaultPort
	}

	if c.Registry.ConflictPolicy == "" {
		c.Registry.ConflictPolicy = DefaultConflictPolicy
	}

	if c.Limits.MaxFrameBytes == 0 {
		c.Limits.MaxFrameBytes = DefaultMaxFrameBytes
	}
	if c.Limits.WriteTimeout == 0 {
		c.Limits.WriteTimeout = DefaultWriteTimeout
	}
	if c.Limits.HandshakeTimeout == 0 {
		c.Limits.HandshakeTimeout = DefaultHandshakeTimeout
	}

	if c.Journal.BufferSize == 0 {
		c.Journal.BufferSize = DefaultJournalBufferSize
	}
	if c.Journal.BatchSize == 0 {
		c.Journal.BatchSize = DefaultJournalBatchSize
	}
	if c.Journal.FlushInterval == 0 {
		c.Journal.FlushInterval = DefaultJournalFlushInterval
	}
	applyDBDefaults(&c.Journal.Postgres)

	if c.Log.Level == "" {
		c.Log.Level = DefaultLogLevel
	}
}

func applyDBDefaults(db *DBConfig) {
	if db.Port == 0 {
		db.Port = DefaultDBPort
	}
	if db.SSLMode == "" {
		db.SSLMode = DefaultDBSSLMode
	}
	if db.MaxConns == 0 {
		db.MaxConns = DefaultMaxConns
	}
	if db.MinConns == 0 {
		db.MinConns = DefaultMinConns
	}
}
