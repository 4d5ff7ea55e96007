package convert

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/arloliu/tabseries/internal/options"
)

// DefaultLayouts are tried in order by a date/time converter without configured
// layouts. Layouts without a zone are interpreted in the configured location.
var DefaultLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"2006-01",
	"2006",
	"01/02/2006 15:04:05",
	"01/02/2006 15:04",
	"01/02/2006",
}

var errNoLayoutMatched = errors.New("no date/time layout matched")

// DateTimeConfig holds the settings of a date/time converter.
type DateTimeConfig struct {
	layouts  []string
	location *time.Location
}

func defaultDateTimeConfig() *DateTimeConfig {
	return &DateTimeConfig{
		layouts:  DefaultLayouts,
		location: time.UTC,
	}
}

// DateTimeOption configures a date/time converter.
type DateTimeOption = options.Option[*DateTimeConfig]

// WithLayouts replaces the default layout list. Layouts use the Go reference time
// and are tried in the given order.
func WithLayouts(layouts ...string) DateTimeOption {
	return options.New(func(c *DateTimeConfig) error {
		if len(layouts) == 0 {
			return errors.New("at least one date/time layout is required")
		}
		for _, l := range layouts {
			if strings.TrimSpace(l) == "" {
				return errors.New("date/time layout must not be empty")
			}
		}
		c.layouts = append([]string(nil), layouts...)

		return nil
	})
}

// WithLocation sets the zone applied to text that carries no zone. The default is
// UTC.
func WithLocation(loc *time.Location) DateTimeOption {
	return options.New(func(c *DateTimeConfig) error {
		if loc == nil {
			return errors.New("date/time location must not be nil")
		}
		c.location = loc

		return nil
	})
}

// DateTime returns a converter parsing text into time.Time values.
func DateTime(opts ...DateTimeOption) (Converter, error) {
	cfg := defaultDateTimeConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return Converter{}, err
	}

	return Converter{kind: KindDateTime, dateTime: cfg}, nil
}

// MustDateTime is like DateTime but panics on an invalid option.
func MustDateTime(opts ...DateTimeOption) Converter {
	c, err := DateTime(opts...)
	if err != nil {
		panic(err)
	}

	return c
}

func (c *DateTimeConfig) parse(text string) (time.Time, error) {
	s := strings.TrimSpace(text)
	if s == "" {
		return time.Time{}, errors.New("empty date/time")
	}

	var lastErr error
	for _, layout := range c.layouts {
		t, err := time.ParseInLocation(layout, s, c.location)
		if err == nil {
			return t, nil
		}
		lastErr = err
	}

	if len(c.layouts) == 1 {
		return time.Time{}, lastErr
	}

	return time.Time{}, fmt.Errorf("%w (tried %d layouts)", errNoLayoutMatched, len(c.layouts))
}
