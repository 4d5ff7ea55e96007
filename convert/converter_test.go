package convert

import (
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tabseries/errs"
)

func TestConverter_ZeroValueIsIdentity(t *testing.T) {
	var c Converter
	require.Equal(t, KindIdentity, c.Kind())

	v, err := c.Convert(" raw ")
	require.NoError(t, err)
	require.Equal(t, " raw ", v)
}

func TestConverter_Float(t *testing.T) {
	tests := []struct {
		name string
		raw  any
		want float64
	}{
		{name: "integer", raw: "10", want: 10},
		{name: "decimal", raw: "12.5", want: 12.5},
		{name: "padded", raw: "  -3.25 ", want: -3.25},
		{name: "exponent", raw: "1e3", want: 1000},
		{name: "float64 passthrough", raw: 7.5, want: 7.5},
		{name: "int", raw: 4, want: 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			v, err := Float.Convert(tt.raw)
			require.NoError(t, err)
			require.InDelta(t, tt.want, v, 1e-12)
		})
	}
}

func TestConverter_Float_BlankIsNaN(t *testing.T) {
	for _, raw := range []any{"", "   ", nil} {
		v, err := Float.Convert(raw)
		require.NoError(t, err)
		require.True(t, math.IsNaN(v.(float64)))
	}
}

func TestConverter_Float_Invalid(t *testing.T) {
	_, err := Float.Convert("12abc")
	require.ErrorIs(t, err, errs.ErrConversion)
	require.ErrorIs(t, err, strconv.ErrSyntax)

	var ce *ConversionError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "12abc", ce.Raw)
	require.Equal(t, -1, ce.Column)
	require.Contains(t, err.Error(), `"12abc"`)

	_, err = Float.Convert(struct{}{})
	require.ErrorIs(t, err, errs.ErrConversion)
}

func TestConverter_DateTime_DefaultLayouts(t *testing.T) {
	conv := MustDateTime()

	tests := []struct {
		raw  string
		want time.Time
	}{
		{raw: "2020-01-01", want: time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)},
		{raw: "2020-01-01T00:15", want: time.Date(2020, 1, 1, 0, 15, 0, 0, time.UTC)},
		{raw: "2020-01-01 06:30:15", want: time.Date(2020, 1, 1, 6, 30, 15, 0, time.UTC)},
		{raw: "2020-01-01T06:30:15Z", want: time.Date(2020, 1, 1, 6, 30, 15, 0, time.UTC)},
		{raw: "2020-03", want: time.Date(2020, 3, 1, 0, 0, 0, 0, time.UTC)},
		{raw: "1999", want: time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC)},
		{raw: "07/04/2021", want: time.Date(2021, 7, 4, 0, 0, 0, 0, time.UTC)},
		{raw: " 2020-01-02 ", want: time.Date(2020, 1, 2, 0, 0, 0, 0, time.UTC)},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			v, err := conv.Convert(tt.raw)
			require.NoError(t, err)
			require.True(t, tt.want.Equal(v.(time.Time)), "got %v", v)
		})
	}
}

func TestConverter_DateTime_ZeroValueUsesDefaults(t *testing.T) {
	conv := Converter{kind: KindDateTime}

	v, err := conv.Convert("2020-01-01")
	require.NoError(t, err)
	require.Equal(t, time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC), v)
}

func TestConverter_DateTime_WithLayouts(t *testing.T) {
	conv, err := DateTime(WithLayouts("02.01.2006 15:04"))
	require.NoError(t, err)

	v, err := conv.Convert("31.12.2019 23:45")
	require.NoError(t, err)
	require.Equal(t, time.Date(2019, 12, 31, 23, 45, 0, 0, time.UTC), v)

	_, err = conv.Convert("2019-12-31")
	require.ErrorIs(t, err, errs.ErrConversion)

	var parseErr *time.ParseError
	require.True(t, errors.As(err, &parseErr), "a single layout reports its parse error")
}

func TestConverter_DateTime_WithLocation(t *testing.T) {
	loc := time.FixedZone("UTC-7", -7*3600)
	conv := MustDateTime(WithLocation(loc))

	v, err := conv.Convert("2020-01-01T12:00")
	require.NoError(t, err)
	require.Equal(t, time.Date(2020, 1, 1, 19, 0, 0, 0, time.UTC), v.(time.Time).UTC())

	v, err = conv.Convert("2020-01-01T12:00:00+01:00")
	require.NoError(t, err)
	require.Equal(t, time.Date(2020, 1, 1, 11, 0, 0, 0, time.UTC), v.(time.Time).UTC(), "explicit zone wins")
}

func TestConverter_DateTime_Invalid(t *testing.T) {
	conv := MustDateTime()

	for _, raw := range []string{"", "yesterday", "2020-13-45"} {
		_, err := conv.Convert(raw)
		require.ErrorIs(t, err, errs.ErrConversion, raw)
	}

	_, err := conv.Convert(42)
	require.ErrorIs(t, err, errs.ErrConversion)

	ts := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	v, err := conv.Convert(ts)
	require.NoError(t, err)
	require.Equal(t, ts, v)
}

func TestDateTime_InvalidOptions(t *testing.T) {
	_, err := DateTime(WithLayouts())
	require.Error(t, err)

	_, err = DateTime(WithLayouts("2006", " "))
	require.Error(t, err)

	_, err = DateTime(WithLocation(nil))
	require.Error(t, err)

	require.Panics(t, func() { MustDateTime(WithLocation(nil)) })
}

func TestConverter_Custom(t *testing.T) {
	upper := Custom(func(raw any) (any, error) {
		s, ok := raw.(string)
		if !ok {
			return nil, errors.New("not text")
		}
		if s == "bad" {
			return nil, &ConversionError{Raw: s, Column: -1, Err: errors.New("rejected")}
		}

		return len(s), nil
	})
	require.Equal(t, KindCustom, upper.Kind())

	v, err := upper.Convert("abc")
	require.NoError(t, err)
	require.Equal(t, 3, v)

	_, err = upper.Convert(1)
	require.ErrorIs(t, err, errs.ErrConversion)
	var ce *ConversionError
	require.True(t, errors.As(err, &ce))
	require.Equal(t, "1", ce.Raw)

	_, err = upper.Convert("bad")
	require.ErrorIs(t, err, errs.ErrConversion)
	require.EqualError(t, err, `cannot convert "bad": rejected`)

	require.Equal(t, KindIdentity, Custom(nil).Kind())
}

func TestConverter_Deterministic(t *testing.T) {
	for _, conv := range []Converter{Identity, Float, MustDateTime()} {
		a, errA := conv.Convert("2020-01-01")
		b, errB := conv.Convert("2020-01-01")
		if errA != nil {
			require.EqualError(t, errB, errA.Error())
			continue
		}
		require.NoError(t, errB)
		require.Equal(t, a, b)
	}
}

func TestKind_String(t *testing.T) {
	require.Equal(t, "Identity", KindIdentity.String())
	require.Equal(t, "Float", KindFloat.String())
	require.Equal(t, "DateTime", KindDateTime.String())
	require.Equal(t, "Custom", KindCustom.String())
	require.Equal(t, "Kind(9)", Kind(9).String())
}
