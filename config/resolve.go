package config

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/arloliu/tabseries/convert"
	"github.com/arloliu/tabseries/format"
	"github.com/arloliu/tabseries/input"
)

// CompressionType returns the input compression, detected from the path when not
// set.
func (s *SourceConfig) CompressionType() (format.CompressionType, error) {
	if s.Compression == "" {
		return input.DetectCompression(s.Path), nil
	}

	return format.ParseCompression(s.Compression)
}

// Converter returns the date/time converter described by the configuration.
func (d *DateConfig) Converter() (convert.Converter, error) {
	var opts []convert.DateTimeOption
	if len(d.Layouts) > 0 {
		opts = append(opts, convert.WithLayouts(d.Layouts...))
	}
	if d.Location != "" {
		loc, err := time.LoadLocation(d.Location)
		if err != nil {
			return convert.Converter{}, fmt.Errorf("date location: %w", err)
		}
		opts = append(opts, convert.WithLocation(loc))
	}

	return convert.DateTime(opts...)
}

// TimestampEncodingType returns the blob timestamp encoding.
func (o *OutputConfig) TimestampEncodingType() (format.EncodingType, error) {
	return format.ParseEncoding(o.TimestampEncoding)
}

// ValueEncodingType returns the blob value encoding, raw when not set.
func (o *OutputConfig) ValueEncodingType() (format.EncodingType, error) {
	if o.ValueEncoding == "" {
		return format.TypeRaw, nil
	}

	return format.ParseEncoding(o.ValueEncoding)
}

// CompressionType returns the blob compression.
func (o *OutputConfig) CompressionType() (format.CompressionType, error) {
	return format.ParseCompression(o.Compression)
}

// Logger returns a logger writing to w in the configured format at the configured
// level. Unknown levels fall back to info.
func (l *LoggingConfig) Logger(w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: parseLevel(l.Level)}

	var handler slog.Handler
	if strings.EqualFold(l.Format, "json") {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}

	return slog.New(handler)
}

func parseLevel(level string) slog.Level {
	switch strings.ToLower(level) {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
