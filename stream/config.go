package stream

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/internal/options"
	"github.com/arloliu/tabseries/tokenizer"
)

const (
	// DefaultCommentPrefix marks comment lines when no prefix is configured.
	DefaultCommentPrefix = "#"
	// DefaultLookaheadLimit bounds the bytes buffered while probing for the first
	// data line.
	DefaultLookaheadLimit = 1 << 20
)

// Config holds the settings of a stream Cursor.
type Config struct {
	delimiter      rune
	commentPrefix  string
	columns        int
	lookaheadLimit int
	logger         *slog.Logger
}

func defaultConfig() *Config {
	return &Config{
		delimiter:      tokenizer.DefaultDelimiter,
		commentPrefix:  DefaultCommentPrefix,
		lookaheadLimit: DefaultLookaheadLimit,
		logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// Option configures a stream Cursor.
type Option = options.Option[*Config]

// WithDelimiter sets the field delimiter. The default is a comma.
func WithDelimiter(delim rune) Option {
	return options.New(func(c *Config) error {
		if err := tokenizer.ValidateDelimiter(delim); err != nil {
			return err
		}
		c.delimiter = delim

		return nil
	})
}

// WithCommentPrefix sets the prefix that marks comment lines. An empty prefix
// disables comment detection.
func WithCommentPrefix(prefix string) Option {
	return options.NoError(func(c *Config) {
		c.commentPrefix = prefix
	})
}

// WithColumnCount fixes the column count and skips the first-line probe.
func WithColumnCount(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("%w: %d", errs.ErrInvalidColumnCount, n)
		}
		c.columns = n

		return nil
	})
}

// WithLookaheadLimit bounds the bytes buffered while probing past the comment
// block for the first data line.
func WithLookaheadLimit(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("lookahead limit must be positive, got %d", n)
		}
		c.lookaheadLimit = n

		return nil
	})
}

// WithLogger sets the logger for debug events. The default discards output.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(c *Config) {
		if logger != nil {
			c.logger = logger
		}
	})
}
