// Package logging configures the process-wide gookit/slog logger.
package logging

import (
	"fmt"
	"strings"

	"github.com/gookit/slog"
)

const (
	FormatJSON = "json"
	FormatText = "text"
)

// Config represents the logger configuration.
type Config struct {
	Level       string `mapstructure:"level"`
	Format      string `mapstructure:"format"`
	PrettyPrint bool   `mapstructure:"pretty_print"`
}

// DefaultConfig logs info and above as JSON.
func DefaultConfig() Config {
	return Config{
		Level:  "info",
		Format: FormatJSON,
	}
}

// Validate checks the level name and the format.
func (c Config) Validate() error {
	if !knownLevel(c.Level) {
		return fmt.Errorf("unknown log level: %q", c.Level)
	}
	if c.Format != FormatJSON && c.Format != FormatText {
		return fmt.Errorf("unknown log format: %q", c.Format)
	}
	return nil
}

// knownLevel reports whether name spells one of the slog levels. LevelByName falls
// back to info for unknown names.
func knownLevel(name string) bool {
	for _, l := range slog.AllLevels {
		if strings.EqualFold(l.Name(), name) {
			return true
		}
	}
	return false
}

// Setup applies cfg to the standard logger.
func Setup(cfg Config) error {
	if err := cfg.Validate(); err != nil {
		return err
	}

	slog.SetLogLevel(slog.LevelByName(cfg.Level))
	switch cfg.Format {
	case FormatJSON:
		slog.SetFormatter(slog.NewJSONFormatter(func(f *slog.JSONFormatter) {
			f.PrettyPrint = cfg.PrettyPrint
		}))
	default:
		slog.SetFormatter(slog.NewTextFormatter())
	}
	return nil
}
