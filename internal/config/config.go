package config

import "time"

// Config is the root configuration for a relayd instance.
type Config struct {
	Listen   ListenConfig   `yaml:"listen"`
	Registry RegistryConfig `yaml:"registry"`
	Limits   LimitsConfig   `yaml:"limits"`
	Journal  JournalConfig  `yaml:"journal"`
	Log      LogConfig      `yaml:"log"`
}

// ListenConfig holds the bind address for the WebSocket listener.
type ListenConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// RegistryConfig holds client registry settings.
type RegistryConfig struct {
	// ConflictPolicy decides what happens when a client registers an
	// identifier that already has a live holder: "overwrite" (default),
	// "reject", or "evict".
	ConflictPolicy string `yaml:"conflict_policy"`
}

// LimitsConfig bounds per-connection resource use.
type LimitsConfig struct {
	MaxFrameBytes    int64         `yaml:"max_frame_bytes"`
	WriteTimeout     time.Duration `yaml:"write_timeout"`
	HandshakeTimeout time.Duration `yaml:"handshake_timeout"`
}

// JournalConfig holds the optional relay audit journal settings.
// The journal is active only when Enabled is true and a database is
// configured; relayd runs without it otherwise.
type JournalConfig struct {
	Enabled       bool          `yaml:"enabled"`
	BufferSize    int           `yaml:"buffer_size"`
	BatchSize     int           `yaml:"batch_size"`
	FlushInterval time.Duration `yaml:"flush_interval"`
	Postgres      DBConfig      `yaml:"postgres"`
}

// DBConfig holds a single database connection.
type DBConfig struct {
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	SSLMode  string `yaml:"ssl_mode"`
	MaxConns int    `yaml:"max_conns"`
	MinConns int    `yaml:"min_conns"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
}
