package encoding

import (
	"math"
	"slices"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tabseries/endian"
	"github.com/arloliu/tabseries/errs"
)

func quarterHours(n int) []int64 {
	base := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	out := make([]int64, n)
	for i := range out {
		out[i] = base.Add(time.Duration(i) * 15 * time.Minute).UnixMicro()
	}

	return out
}

func TestZigzag(t *testing.T) {
	for _, v := range []int64{0, 1, -1, 63, -64, math.MaxInt64, math.MinInt64} {
		require.Equal(t, v, unzigzag(zigzag(v)))
	}
	require.Equal(t, uint64(1), zigzag(-1))
	require.Equal(t, uint64(2), zigzag(1))
}

func TestTimestampRaw_RoundTrip(t *testing.T) {
	for _, engine := range []endian.Engine{endian.Little(), endian.Big()} {
		ts := quarterHours(10)

		enc := NewTimestampRawEncoder(engine)
		enc.WriteSlice(ts)
		require.Equal(t, 10, enc.Len())
		require.Equal(t, 80, enc.Size())
		data := slices.Clone(enc.Bytes())
		enc.Finish()

		dec := NewTimestampRawDecoder(engine)
		got, err := dec.Decode(data, 10)
		require.NoError(t, err)
		require.Equal(t, ts, got)
		require.Equal(t, ts, slices.Collect(dec.All(data, 10)))

		v, ok := dec.At(data, 3)
		require.True(t, ok)
		require.Equal(t, ts[3], v)
		_, ok = dec.At(data, 10)
		require.False(t, ok)

		_, err = dec.Decode(data[:79], 10)
		require.ErrorIs(t, err, errs.ErrTruncatedPayload)
	}
}

func TestTimestampDelta_RoundTrip(t *testing.T) {
	tests := []struct {
		name string
		ts   []int64
	}{
		{name: "regular", ts: quarterHours(100)},
		{name: "single", ts: quarterHours(1)},
		{name: "irregular", ts: []int64{1_000_000, 1_000_007, 5_000_000, 5_000_001, 9_999_999_999}},
		{name: "before epoch", ts: []int64{-86_400_000_000, -43_200_000_000, 0}},
		{name: "empty", ts: []int64{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := NewTimestampDeltaEncoder()
			enc.WriteSlice(tt.ts)
			data := slices.Clone(enc.Bytes())
			enc.Finish()

			got, err := NewTimestampDeltaDecoder().Decode(data, len(tt.ts))
			require.NoError(t, err)
			require.Equal(t, tt.ts, got)
		})
	}
}

func TestTimestampDelta_RegularIsCompact(t *testing.T) {
	enc := NewTimestampDeltaEncoder()
	defer enc.Finish()

	enc.WriteSlice(quarterHours(1000))
	require.Less(t, enc.Size(), 1000+20, "about one byte per regular point")
}

func TestTimestampDelta_Truncated(t *testing.T) {
	enc := NewTimestampDeltaEncoder()
	enc.WriteSlice(quarterHours(5))
	data := slices.Clone(enc.Bytes())
	enc.Finish()

	_, err := NewTimestampDeltaDecoder().Decode(data, 6)
	require.ErrorIs(t, err, errs.ErrTruncatedPayload)

	require.Len(t, slices.Collect(NewTimestampDeltaDecoder().All(data, 6)), 5)
}

func TestNumericRaw_RoundTrip(t *testing.T) {
	values := []float64{0, -1.5, 12.25, math.Inf(1), math.MaxFloat64, math.NaN()}

	enc := NewNumericRawEncoder(endian.Little())
	enc.WriteSlice(values)
	require.Equal(t, len(values), enc.Len())
	data := slices.Clone(enc.Bytes())
	enc.Finish()

	dec := NewNumericRawDecoder(endian.Little())
	got, err := dec.Decode(data, len(values))
	require.NoError(t, err)
	require.Equal(t, values[:5], got[:5])
	require.True(t, math.IsNaN(got[5]))
	require.Len(t, slices.Collect(dec.All(data, len(values))), len(values))

	_, err = dec.Decode(data, len(values)+1)
	require.ErrorIs(t, err, errs.ErrTruncatedPayload)
}

func TestString_RoundTrip(t *testing.T) {
	values := []string{"", "xyz", "estimated, provisional", "日本語", string(make([]byte, 300))}

	enc := NewStringEncoder()
	enc.WriteSlice(values)
	require.Equal(t, len(values), enc.Len())
	data := slices.Clone(enc.Bytes())
	enc.Finish()

	dec := NewStringDecoder()
	got, err := dec.Decode(data, len(values))
	require.NoError(t, err)
	require.Equal(t, values, got)
	require.Equal(t, values, slices.Collect(dec.All(data, len(values))))

	_, err = dec.Decode(data[:len(data)-1], len(values))
	require.ErrorIs(t, err, errs.ErrTruncatedPayload)
}

func TestNumericGorilla_RoundTrip(t *testing.T) {
	tests := []struct {
		name   string
		values []float64
	}{
		{name: "single", values: []float64{42.5}},
		{name: "constant", values: []float64{7, 7, 7, 7, 7, 7, 7, 7, 7, 7}},
		{name: "slow drift", values: []float64{10.5, 10.6, 10.7, 10.65, 10.8, 11, 11.2, 11.1}},
		{name: "with missing", values: []float64{1.2, math.NaN(), math.NaN(), 1.25, math.NaN(), 1.3}},
		{name: "extremes", values: []float64{0, math.MaxFloat64, -math.MaxFloat64, math.SmallestNonzeroFloat64, math.Inf(-1), 0}},
		{name: "sign flips", values: []float64{1, -1, 1, -1, 2, -2}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			enc := NewNumericGorillaEncoder()
			enc.WriteSlice(tt.values)
			require.Equal(t, len(tt.values), enc.Len())
			data := slices.Clone(enc.Bytes())
			require.Equal(t, len(data), enc.Size())
			enc.Finish()

			dec := NewNumericGorillaDecoder()
			got, err := dec.Decode(data, len(tt.values))
			require.NoError(t, err)
			requireSameBits(t, tt.values, got)
			requireSameBits(t, tt.values, slices.Collect(dec.All(data, len(tt.values))))
		})
	}
}

func requireSameBits(t *testing.T, want, got []float64) {
	t.Helper()

	require.Len(t, got, len(want))
	for i := range want {
		require.Equal(t, math.Float64bits(want[i]), math.Float64bits(got[i]), "value %d", i)
	}
}

func TestNumericGorilla_BytesMidStream(t *testing.T) {
	enc := NewNumericGorillaEncoder()
	defer enc.Finish()

	enc.Write(1.5)
	enc.Write(2.5)
	partial := slices.Clone(enc.Bytes())
	enc.Write(2.5)
	enc.Write(3.75)

	got, err := NewNumericGorillaDecoder().Decode(partial, 2)
	require.NoError(t, err)
	require.Equal(t, []float64{1.5, 2.5}, got)

	got, err = NewNumericGorillaDecoder().Decode(enc.Bytes(), 4)
	require.NoError(t, err)
	require.Equal(t, []float64{1.5, 2.5, 2.5, 3.75}, got)
}

func TestNumericGorilla_ConstantIsCompact(t *testing.T) {
	enc := NewNumericGorillaEncoder()
	defer enc.Finish()

	for range 1000 {
		enc.Write(3.25)
	}
	// 64 bits for the first value and one bit for each repeat
	require.Equal(t, (64+999+7)/8, enc.Size())
}

func TestNumericGorilla_Malformed(t *testing.T) {
	enc := NewNumericGorillaEncoder()
	enc.WriteSlice([]float64{1, 2, 3, 4})
	data := slices.Clone(enc.Bytes())
	enc.Finish()

	dec := NewNumericGorillaDecoder()

	_, err := dec.Decode(data[:7], 1)
	require.ErrorIs(t, err, errs.ErrTruncatedPayload)

	_, err = dec.Decode(data, 40)
	require.ErrorIs(t, err, errs.ErrTruncatedPayload)

	_, err = dec.Decode(append(data, 0), 4)
	require.ErrorIs(t, err, errs.ErrTruncatedPayload)

	got, err := dec.Decode(nil, 0)
	require.NoError(t, err)
	require.Empty(t, got)

	// All stops quietly once the stream runs out
	require.Equal(t, []float64{1, 2, 3, 4}, slices.Collect(dec.All(data, 40))[:4])
}
