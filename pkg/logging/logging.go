package logging

import (
	"log/slog"
	"os"
)

// Name is the name of the application that the logger is for.
type Name string

// Config is the configuration for a logger.
type Config struct {
	// appName is the name of the application.
	appName Name
}

// NewConfig creates a new logging configuration.
func NewConfig(appName Name) *Config {
	return &Config{
		appName: appName,
	}
}

// CommonLogger creates the common logger for the application. All logs are
// written to stdout as JSON with the application name attached.
func CommonLogger(c *Config) (*slog.Logger, error) {
	h := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelDebug,
	})

	l := slog.New(h).With(slog.String(KeyAppName, string(c.appName)))
	slog.SetDefault(l)
	return l, nil
}
