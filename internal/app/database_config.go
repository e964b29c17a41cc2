package app

import (
	"strings"

	"github.com/charlesng35/bookreview/internal/database"
)

// ConnectionConfig resolves the database settings into a database.Config. A non-empty URL wins
// over the driver specific fields.
func (c DatabaseConfig) ConnectionConfig() (database.Config, error) {
	if url := strings.TrimSpace(c.URL); url != "" {
		return database.ConfigFromURL(url)
	}

	driver := strings.ToLower(strings.TrimSpace(c.Driver))
	cfg := database.Config{
		Driver: driver,
		Path:   c.Path,
		DSN:    c.DSN,
	}

	var auth DBAuthConfig
	switch driver {
	case "postgres", "postgresql":
		auth = c.Postgres
	case "mysql":
		auth = c.MySQL
	default:
		return cfg, nil
	}

	cfg.Host = auth.Host
	cfg.Port = auth.Port
	cfg.Name = auth.Database
	cfg.User = auth.Username
	cfg.Password = auth.Password
	return cfg, nil
}
