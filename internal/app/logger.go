package app

import (
	"strings"

	"github.com/charlesng35/bookreview/pkg/logger"
)

// ConfigureLogging initialises the global logger with the provided level, defaulting to info.
// Debug mode switches to the development encoder.
func ConfigureLogging(level string, debug bool) error {
	level = strings.TrimSpace(level)
	if level == "" {
		level = "info"
	}
	if debug {
		return logger.Init(level, logger.WithDevelopment())
	}
	return logger.Init(level)
}
