package series

import (
	"fmt"
	"time"

	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/internal/options"
)

// DefaultMaxSlots bounds the storage of a regular series unless WithMaxSlots
// overrides it.
const DefaultMaxSlots = 1 << 24

// Config holds the optional settings of a Series.
type Config struct {
	interval    time.Duration
	maxSlots    int
	units       string
	description string
}

// Option configures a Series.
type Option = options.Option[*Config]

// WithInterval makes the series regular: storage holds one slot per interval from
// start to end, and every point must fall on that grid.
func WithInterval(d time.Duration) Option {
	return options.New(func(c *Config) error {
		if d <= 0 {
			return fmt.Errorf("%w: %s", errs.ErrInvalidInterval, d)
		}
		c.interval = d

		return nil
	})
}

// WithMaxSlots limits the number of slots a regular series may allocate. A period
// needing more slots fails AllocateStorage with errs.ErrPeriodTooLarge.
func WithMaxSlots(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("%w: %d", errs.ErrInvalidMaxSlots, n)
		}
		c.maxSlots = n

		return nil
	})
}

// WithUnits sets the data units, e.g. "cfs". Units are metadata only.
func WithUnits(units string) Option {
	return options.NoError(func(c *Config) {
		c.units = units
	})
}

// WithDescription sets a free-form description.
func WithDescription(desc string) Option {
	return options.NoError(func(c *Config) {
		c.description = desc
	})
}
