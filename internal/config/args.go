package config

import (
	"fmt"
	"strconv"
)

// ApplyArgs overrides the listen address from the positional command
// line arguments: an optional bind host followed by an optional port.
// Extra arguments are an error.
func (c *Config) ApplyArgs(args []string) error {
	if len(args) > 2 {
		return fmt.Errorf("expected at most two positional arguments [host [port]], got %d", len(args))
	}
	if len(args) >= 1 {
		c.Listen.Host = args[0]
	}
	if len(args) == 2 {
		port, err := strconv.Atoi(args[1])
		if err != nil {
			return fmt.Errorf("parse port %q: %w", args[1], err)
		}
		c.Listen.Port = port
	}
	return nil
}
