// Package series provides the time series container filled by the assembler.
//
// A Series spans a closed period [start, end] and stores one float64 value and an
// optional flag per data point. Missing values are NaN.
//
// A regular series (created WithInterval) allocates one slot per interval step,
// every slot starting as Missing, and accepts only times on that grid. The slot
// count is capped by WithMaxSlots, DefaultMaxSlots by default. An irregular
// series keeps the points it is given in time order.
//
// The lifecycle follows the assembler contract: set the period, allocate storage,
// then set data points.
package series

import (
	"fmt"
	"iter"
	"math"
	"math/bits"
	"slices"
	"time"

	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/internal/hash"
	"github.com/arloliu/tabseries/internal/options"
)

// Missing is the value stored for an absent data point.
var Missing = math.NaN()

// IsMissing reports whether v marks an absent data point.
func IsMissing(v float64) bool {
	return math.IsNaN(v)
}

// DataPoint is one element of a series.
type DataPoint struct {
	// Ts is the time of the point.
	Ts time.Time
	// Val is the value, Missing when absent.
	Val float64
	// Flag is the optional quality flag, empty when unset.
	Flag string
}

// OutOfPeriodError reports a data point outside the series period.
type OutOfPeriodError struct {
	Series string
	Time   time.Time
	Start  time.Time
	End    time.Time
}

func (e *OutOfPeriodError) Error() string {
	return fmt.Sprintf("series %q: time %s outside period [%s, %s]",
		e.Series, e.Time.Format(time.RFC3339), e.Start.Format(time.RFC3339), e.End.Format(time.RFC3339))
}

// Is matches errs.ErrOutOfPeriod.
func (e *OutOfPeriodError) Is(target error) bool {
	return target == errs.ErrOutOfPeriod
}

// Series is a time series. It is not safe for concurrent use.
type Series struct {
	id   string
	hash uint64
	cfg  Config

	start, end       time.Time
	hasStart, hasEnd bool
	allocated        bool

	// times is only used by irregular series; regular series derive times from
	// start and interval.
	times  []time.Time
	values []float64
	// flags stays nil until the first non-empty flag is set.
	flags []string
}

// New creates an empty series identified by id.
func New(id string, opts ...Option) (*Series, error) {
	if id == "" {
		return nil, errs.ErrInvalidSeriesID
	}

	s := &Series{id: id, hash: hash.SeriesID(id)}
	if err := options.Apply(&s.cfg, opts...); err != nil {
		return nil, err
	}

	return s, nil
}

// ID returns the series identifier.
func (s *Series) ID() string { return s.id }

// Hash returns the 64-bit hash of the identifier.
func (s *Series) Hash() uint64 { return s.hash }

// Interval returns the regular interval, 0 for an irregular series.
func (s *Series) Interval() time.Duration { return s.cfg.interval }

// IsRegular reports whether the series has a fixed interval.
func (s *Series) IsRegular() bool { return s.cfg.interval > 0 }

// Units returns the data units.
func (s *Series) Units() string { return s.cfg.units }

// Description returns the series description.
func (s *Series) Description() string { return s.cfg.description }

// Start returns the first time of the period.
func (s *Series) Start() time.Time { return s.start }

// End returns the last time of the period.
func (s *Series) End() time.Time { return s.end }

// SetStartDate sets the first time of the period. Changing the period discards
// allocated storage.
func (s *Series) SetStartDate(t time.Time) {
	s.start = t
	s.hasStart = true
	s.release()
}

// SetEndDate sets the last time of the period. Changing the period discards
// allocated storage.
func (s *Series) SetEndDate(t time.Time) {
	s.end = t
	s.hasEnd = true
	s.release()
}

// AllocateStorage prepares storage for the period. Both ends must be set and end
// must not precede start.
func (s *Series) AllocateStorage() error {
	if !s.hasStart || !s.hasEnd {
		return fmt.Errorf("series %q: %w", s.id, errs.ErrPeriodNotSet)
	}
	if s.end.Before(s.start) {
		return fmt.Errorf("series %q: %w: %s before %s", s.id, errs.ErrInvalidPeriod,
			s.end.Format(time.RFC3339), s.start.Format(time.RFC3339))
	}

	if s.IsRegular() {
		limit := s.cfg.maxSlots
		if limit <= 0 {
			limit = DefaultMaxSlots
		}

		steps, _, ok := intervalsBetween(s.start, s.end, s.cfg.interval)
		if !ok || steps >= uint64(limit) {
			return fmt.Errorf("series %q: %w: [%s, %s] with interval %s exceeds %d slots", s.id, errs.ErrPeriodTooLarge,
				s.start.Format(time.RFC3339), s.end.Format(time.RFC3339), s.cfg.interval, limit)
		}

		s.values = make([]float64, steps+1)
		for i := range s.values {
			s.values[i] = Missing
		}
	} else {
		s.times = s.times[:0]
		s.values = s.values[:0]
	}
	s.flags = nil
	s.allocated = true

	return nil
}

// SetDataPoint stores value and flag at t. An empty flag means no flag.
//
// t must lie within [start, end]; otherwise an *OutOfPeriodError is returned. For a
// regular series t must also be a whole number of intervals after start. For an
// irregular series a point at an existing time replaces it.
func (s *Series) SetDataPoint(t time.Time, value float64, flag string) error {
	if !s.allocated {
		return fmt.Errorf("series %q: %w", s.id, errs.ErrStorageNotAllocated)
	}
	if t.Before(s.start) || t.After(s.end) {
		return &OutOfPeriodError{Series: s.id, Time: t, Start: s.start, End: s.end}
	}

	idx, err := s.slot(t)
	if err != nil {
		return err
	}

	s.values[idx] = value
	s.setFlag(idx, flag)

	return nil
}

// slot returns the storage index for t, inserting an empty point for a new time in
// an irregular series.
func (s *Series) slot(t time.Time) (int, error) {
	if s.IsRegular() {
		steps, rem, _ := intervalsBetween(s.start, t, s.cfg.interval)
		if rem != 0 {
			return 0, fmt.Errorf("series %q: %w: %s with interval %s", s.id, errs.ErrMisalignedTime,
				t.Format(time.RFC3339), s.cfg.interval)
		}

		return int(steps), nil //nolint:gosec
	}

	idx, found := slices.BinarySearchFunc(s.times, t, func(a, b time.Time) int { return a.Compare(b) })
	if found {
		return idx, nil
	}

	s.times = slices.Insert(s.times, idx, t)
	s.values = slices.Insert(s.values, idx, Missing)
	if s.flags != nil {
		s.flags = slices.Insert(s.flags, idx, "")
	}

	return idx, nil
}

func (s *Series) setFlag(idx int, flag string) {
	if s.flags == nil {
		if flag == "" {
			return
		}
		s.flags = make([]string, len(s.values))
	}
	s.flags[idx] = flag
}

func (s *Series) release() {
	s.allocated = false
	s.times = nil
	s.values = nil
	s.flags = nil
}

// Allocated reports whether storage has been allocated.
func (s *Series) Allocated() bool { return s.allocated }

// Len returns the number of stored points. For a regular series this is the
// number of grid slots.
func (s *Series) Len() int { return len(s.values) }

// At returns point i. It panics if i is out of range.
func (s *Series) At(i int) DataPoint {
	dp := DataPoint{Ts: s.timeAt(i), Val: s.values[i]}
	if s.flags != nil {
		dp.Flag = s.flags[i]
	}

	return dp
}

func (s *Series) timeAt(i int) time.Time {
	if s.IsRegular() {
		return addIntervals(s.start, i, s.cfg.interval)
	}

	return s.times[i]
}

// intervalsBetween returns how many whole intervals d fit between from and to,
// to not before from, and the remainder in nanoseconds. The span is computed in
// 128 bits so periods beyond the range of time.Duration are exact. ok is false
// when the count does not fit in a uint64.
func intervalsBetween(from, to time.Time, d time.Duration) (steps, rem uint64, ok bool) {
	sec := to.Unix() - from.Unix()
	nsec := int64(to.Nanosecond()) - int64(from.Nanosecond())
	if nsec < 0 {
		sec--
		nsec += int64(time.Second)
	}

	hi, lo := bits.Mul64(uint64(sec), uint64(time.Second)) //nolint:gosec
	lo, carry := bits.Add64(lo, uint64(nsec), 0)           //nolint:gosec
	hi += carry

	div := uint64(d) //nolint:gosec
	if hi >= div {
		return 0, 0, false
	}
	steps, rem = bits.Div64(hi, lo, div)

	return steps, rem, true
}

// addIntervals returns t advanced by n intervals of d without overflowing
// time.Duration.
func addIntervals(t time.Time, n int, d time.Duration) time.Time {
	chunk := int(math.MaxInt64 / int64(d))
	for n > chunk {
		t = t.Add(time.Duration(chunk) * d)
		n -= chunk
	}

	return t.Add(time.Duration(n) * d)
}

// Lookup returns the point at t.
func (s *Series) Lookup(t time.Time) (DataPoint, bool) {
	if !s.allocated || t.Before(s.start) || t.After(s.end) {
		return DataPoint{}, false
	}

	if s.IsRegular() {
		steps, rem, _ := intervalsBetween(s.start, t, s.cfg.interval)
		if rem != 0 {
			return DataPoint{}, false
		}

		return s.At(int(steps)), true //nolint:gosec
	}

	idx, found := slices.BinarySearchFunc(s.times, t, func(a, b time.Time) int { return a.Compare(b) })
	if !found {
		return DataPoint{}, false
	}

	return s.At(idx), true
}

// All returns an iterator over every stored point in time order.
//
// Example:
//
//	for i, dp := range s.All() {
//	    fmt.Printf("%d: %s %g %s\n", i, dp.Ts, dp.Val, dp.Flag)
//	}
func (s *Series) All() iter.Seq2[int, DataPoint] {
	return func(yield func(int, DataPoint) bool) {
		for i := range s.values {
			if !yield(i, s.At(i)) {
				return
			}
		}
	}
}

// AllValues returns an iterator over the stored values.
func (s *Series) AllValues() iter.Seq[float64] {
	return slices.Values(s.values)
}

// AllTimes returns an iterator over the times of the stored points.
func (s *Series) AllTimes() iter.Seq[time.Time] {
	return func(yield func(time.Time) bool) {
		for i := range s.values {
			if !yield(s.timeAt(i)) {
				return
			}
		}
	}
}

// HasFlags reports whether any point carries a flag.
func (s *Series) HasFlags() bool {
	for _, f := range s.flags {
		if f != "" {
			return true
		}
	}

	return false
}

// MissingCount returns the number of points holding Missing.
func (s *Series) MissingCount() int {
	n := 0
	for _, v := range s.values {
		if IsMissing(v) {
			n++
		}
	}

	return n
}
