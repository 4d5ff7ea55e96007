package assemble

import (
	"io"
	"log/slog"

	"github.com/arloliu/tabseries/internal/options"
)

// Config holds the settings of an Assembler.
type Config struct {
	logger *slog.Logger
}

func defaultConfig() *Config {
	return &Config{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option configures an Assembler.
type Option = options.Option[*Config]

// WithLogger sets the logger for debug events. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	})
}
