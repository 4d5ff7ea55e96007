package series

import (
	"errors"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/internal/hash"
)

var day0 = time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)

func newAllocated(t *testing.T, start, end time.Time, opts ...Option) *Series {
	t.Helper()

	s, err := New("flow", opts...)
	require.NoError(t, err)
	s.SetStartDate(start)
	s.SetEndDate(end)
	require.NoError(t, s.AllocateStorage())

	return s
}

func TestNew(t *testing.T) {
	s, err := New("site-1.flow", WithUnits("cfs"), WithDescription("river flow"))
	require.NoError(t, err)
	require.Equal(t, "site-1.flow", s.ID())
	require.Equal(t, hash.SeriesID("site-1.flow"), s.Hash())
	require.Equal(t, "cfs", s.Units())
	require.Equal(t, "river flow", s.Description())
	require.False(t, s.IsRegular())
	require.False(t, s.Allocated())
	require.Zero(t, s.Len())

	_, err = New("")
	require.ErrorIs(t, err, errs.ErrInvalidSeriesID)

	_, err = New("x", WithInterval(0))
	require.ErrorIs(t, err, errs.ErrInvalidInterval)
}

func TestSeries_AllocateStorage_Errors(t *testing.T) {
	s, err := New("x")
	require.NoError(t, err)

	require.ErrorIs(t, s.AllocateStorage(), errs.ErrPeriodNotSet)

	s.SetStartDate(day0)
	require.ErrorIs(t, s.AllocateStorage(), errs.ErrPeriodNotSet)

	s.SetEndDate(day0.Add(-time.Hour))
	require.ErrorIs(t, s.AllocateStorage(), errs.ErrInvalidPeriod)

	require.ErrorIs(t, s.SetDataPoint(day0, 1, ""), errs.ErrStorageNotAllocated)
}

func TestSeries_Regular(t *testing.T) {
	s := newAllocated(t, day0, day0.Add(time.Hour), WithInterval(15*time.Minute))

	require.True(t, s.IsRegular())
	require.Equal(t, 5, s.Len())
	require.Equal(t, 5, s.MissingCount(), "slots start missing")

	require.NoError(t, s.SetDataPoint(day0, 10, "A"))
	require.NoError(t, s.SetDataPoint(day0.Add(30*time.Minute), 12, ""))
	require.NoError(t, s.SetDataPoint(day0.Add(time.Hour), 14, ""))

	require.Equal(t, 2, s.MissingCount())
	require.True(t, s.HasFlags())

	dp := s.At(2)
	require.Equal(t, day0.Add(30*time.Minute), dp.Ts)
	require.Equal(t, 12.0, dp.Val)
	require.Empty(t, dp.Flag)

	require.True(t, IsMissing(s.At(1).Val))
	require.Equal(t, "A", s.At(0).Flag)

	err := s.SetDataPoint(day0.Add(7*time.Minute), 1, "")
	require.ErrorIs(t, err, errs.ErrMisalignedTime)

	dp, ok := s.Lookup(day0.Add(time.Hour))
	require.True(t, ok)
	require.Equal(t, 14.0, dp.Val)
	_, ok = s.Lookup(day0.Add(time.Minute))
	require.False(t, ok)
}

func TestSeries_RegularEndOffGrid(t *testing.T) {
	s := newAllocated(t, day0, day0.Add(50*time.Minute), WithInterval(15*time.Minute))
	require.Equal(t, 4, s.Len())
	require.Equal(t, day0.Add(45*time.Minute), s.At(3).Ts)
}

func TestSeries_AllocateStorage_PeriodTooLarge(t *testing.T) {
	s, err := New("flow", WithInterval(time.Second))
	require.NoError(t, err)
	s.SetStartDate(time.Date(1, 1, 1, 0, 0, 0, 0, time.UTC))
	s.SetEndDate(time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC))

	err = s.AllocateStorage()
	require.ErrorIs(t, err, errs.ErrPeriodTooLarge)
	require.False(t, s.Allocated())
	require.Zero(t, s.Len())

	s, err = New("flow", WithInterval(time.Hour), WithMaxSlots(24))
	require.NoError(t, err)
	s.SetStartDate(day0)
	s.SetEndDate(day0.Add(23 * time.Hour))
	require.NoError(t, s.AllocateStorage())
	require.Equal(t, 24, s.Len())

	s.SetEndDate(day0.Add(24 * time.Hour))
	require.ErrorIs(t, s.AllocateStorage(), errs.ErrPeriodTooLarge)

	_, err = New("flow", WithMaxSlots(0))
	require.ErrorIs(t, err, errs.ErrInvalidMaxSlots)
}

func TestSeries_RegularPeriodBeyondDurationRange(t *testing.T) {
	start := time.Date(1800, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2200, 1, 1, 0, 0, 0, 0, time.UTC)
	s := newAllocated(t, start, end, WithInterval(24*time.Hour))

	// 400 Gregorian years hold 146097 days.
	require.Equal(t, 146098, s.Len())
	require.True(t, s.At(s.Len()-1).Ts.Equal(end))

	require.NoError(t, s.SetDataPoint(end, 7, "late"))
	dp, ok := s.Lookup(end)
	require.True(t, ok)
	require.Equal(t, 7.0, dp.Val)
	require.Equal(t, "late", dp.Flag)

	require.ErrorIs(t, s.SetDataPoint(end.Add(-time.Hour), 1, ""), errs.ErrMisalignedTime)
}

func TestSeries_OutOfPeriod(t *testing.T) {
	s := newAllocated(t, day0, day0.Add(time.Hour), WithInterval(time.Hour))

	err := s.SetDataPoint(day0.Add(2*time.Hour), 1, "")
	require.ErrorIs(t, err, errs.ErrOutOfPeriod)

	var ope *OutOfPeriodError
	require.True(t, errors.As(err, &ope))
	require.Equal(t, "flow", ope.Series)
	require.Equal(t, day0.Add(2*time.Hour), ope.Time)
	require.Equal(t, day0, ope.Start)
	require.Equal(t, day0.Add(time.Hour), ope.End)
	require.Contains(t, err.Error(), "outside period")

	require.ErrorIs(t, s.SetDataPoint(day0.Add(-time.Hour), 1, ""), errs.ErrOutOfPeriod)
}

func TestSeries_Irregular(t *testing.T) {
	s := newAllocated(t, day0, day0.Add(24*time.Hour))
	require.Zero(t, s.Len())

	require.NoError(t, s.SetDataPoint(day0.Add(3*time.Hour), 3, ""))
	require.NoError(t, s.SetDataPoint(day0, 0, ""))
	require.NoError(t, s.SetDataPoint(day0.Add(time.Hour), 1, "est"))
	require.NoError(t, s.SetDataPoint(day0.Add(3*time.Hour), 33, "rev"))

	require.Equal(t, 3, s.Len())
	require.Equal(t, []float64{0, 1, 33}, slices.Collect(s.AllValues()))
	require.Equal(t,
		[]time.Time{day0, day0.Add(time.Hour), day0.Add(3 * time.Hour)},
		slices.Collect(s.AllTimes()))

	var flags []string
	for _, dp := range s.All() {
		flags = append(flags, dp.Flag)
	}
	require.Equal(t, []string{"", "est", "rev"}, flags)

	_, ok := s.Lookup(day0.Add(2 * time.Hour))
	require.False(t, ok)
	dp, ok := s.Lookup(day0.Add(time.Hour))
	require.True(t, ok)
	require.Equal(t, "est", dp.Flag)
}

func TestSeries_NoFlags(t *testing.T) {
	s := newAllocated(t, day0, day0.Add(time.Hour), WithInterval(30*time.Minute))
	require.NoError(t, s.SetDataPoint(day0, 1, ""))

	require.False(t, s.HasFlags())
	require.Empty(t, s.At(0).Flag)
}

func TestSeries_ChangingPeriodReleasesStorage(t *testing.T) {
	s := newAllocated(t, day0, day0.Add(time.Hour), WithInterval(time.Hour))
	require.True(t, s.Allocated())

	s.SetEndDate(day0.Add(2 * time.Hour))
	require.False(t, s.Allocated())
	require.Zero(t, s.Len())

	require.NoError(t, s.AllocateStorage())
	require.Equal(t, 3, s.Len())
}

func TestSeries_AllStopsEarly(t *testing.T) {
	s := newAllocated(t, day0, day0.Add(time.Hour), WithInterval(10*time.Minute))

	n := 0
	for i := range s.All() {
		if i == 2 {
			break
		}
		n++
	}
	require.Equal(t, 2, n)
}

func TestFactory_NewSeries(t *testing.T) {
	f := NewFactory(WithInterval(time.Hour), WithUnits("cfs")).
		For("stage", WithUnits("ft"), WithInterval(15*time.Minute))

	flow, err := f.NewSeries("flow")
	require.NoError(t, err)
	require.Equal(t, time.Hour, flow.Interval())
	require.Equal(t, "cfs", flow.Units())

	stage, err := f.NewSeries("stage")
	require.NoError(t, err)
	require.Equal(t, 15*time.Minute, stage.Interval())
	require.Equal(t, "ft", stage.Units())

	_, err = f.NewSeries("")
	require.ErrorIs(t, err, errs.ErrInvalidSeriesID)
}
