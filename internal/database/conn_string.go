package database

import (
	"fmt"
	"net/url"

	"github.com/netfold/relay/internal/config"
)

// BuildConnString renders a pgx URL for the journal database. User and
// password are URL-escaped; the ssl mode arrives pre-defaulted from
// the config layer, which owns all DB defaults.
func BuildConnString(cfg config.DBConfig) string {
	return fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.User),
		url.QueryEscape(cfg.Password),
		cfg.Host,
		cfg.Port,
		cfg.Name,
		cfg.SSLMode,
	)
}
