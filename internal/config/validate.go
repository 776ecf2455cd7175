package config

import "fmt"

// Validate checks the configuration for mistakes that would only
// surface later as confusing runtime failures.
func (c *Config) Validate() error {
	if c.Listen.Port < 1 || c.Listen.Port > 65535 {
		return fmt.Errorf("listen.port %d out of range", c.Listen.Port)
	}

	switch c.Registry.ConflictPolicy {
	case "overwrite", "reject", "evict":
	default:
		return fmt.Errorf("registry.conflict_policy %q is not one of overwrite, reject, evict", c.Registry.ConflictPolicy)
	}

	if c.Limits.MaxFrameBytes < 0 {
		return fmt.Errorf("limits.max_frame_bytes must not be negative")
	}
	if c.Limits.WriteTimeout < 0 {
		return fmt.Errorf("limits.write_timeout must not be negative")
	}

	if c.Journal.Enabled {
		db := c.Journal.Postgres
		if db.Host == "" {
			return fmt.Errorf("journal.postgres.host is required when journal is enabled")
		}
		if db.Name == "" {
			return fmt.Errorf("journal.postgres.name is required when journal is enabled")
		}
		if db.User == "" {
			return fmt.Errorf("journal.postgres.user is required when journal is enabled")
		}
		if db.MinConns > db.MaxConns {
			return fmt.Errorf("journal.postgres.min_conns (%d) exceeds max_conns (%d)", db.MinConns, db.MaxConns)
		}
		if c.Journal.BatchSize < 1 {
			return fmt.Errorf("journal.batch_size must be at least 1")
		}
	}

	switch c.Log.Level {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("log.level %q is not one of debug, info, warn, error", c.Log.Level)
	}

	return nil
}
