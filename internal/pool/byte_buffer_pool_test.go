package pool

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestByteBuffer_WriteAndReset(t *testing.T) {
	bb := NewByteBuffer(8)

	_, _ = bb.WriteString("ab")
	_ = bb.WriteByte('c')
	_, _ = bb.Write([]byte("de"))

	require.Equal(t, "abcde", string(bb.Bytes()))
	require.Equal(t, 5, bb.Len())

	capBefore := cap(bb.B)
	bb.Reset()
	require.Zero(t, bb.Len())
	require.Equal(t, capBefore, cap(bb.B))
}

func TestByteBuffer_Grow(t *testing.T) {
	bb := NewByteBuffer(4)
	_, _ = bb.WriteString("abcd")

	bb.Grow(10)
	require.GreaterOrEqual(t, cap(bb.B)-len(bb.B), 10)
	require.Equal(t, "abcd", string(bb.Bytes()))

	capAfter := cap(bb.B)
	bb.Grow(1)
	require.Equal(t, capAfter, cap(bb.B), "no growth when capacity suffices")
}

func TestByteBuffer_Extend(t *testing.T) {
	bb := NewByteBuffer(2)
	_, _ = bb.WriteString("x")

	region := bb.Extend(3)
	require.Len(t, region, 3)
	copy(region, "yzw")

	require.Equal(t, "xyzw", string(bb.Bytes()))
}

func TestByteBuffer_WriteTo(t *testing.T) {
	bb := NewByteBuffer(16)
	_, _ = bb.WriteString("payload")

	var out bytes.Buffer
	n, err := bb.WriteTo(&out)
	require.NoError(t, err)
	require.Equal(t, int64(7), n)
	require.Equal(t, "payload", out.String())
}

func TestByteBufferPool_DropsOversizedBuffers(t *testing.T) {
	p := NewByteBufferPool(8, 16)

	big := NewByteBuffer(64)
	_, _ = big.WriteString("large")
	p.Put(big)

	got := p.Get()
	require.NotNil(t, got)
	require.Zero(t, got.Len())
	require.LessOrEqual(t, cap(got.B), 16)
}

func TestPayloadBuffer_RoundTrip(t *testing.T) {
	bb := GetPayloadBuffer()
	require.NotNil(t, bb)
	_, _ = bb.WriteString("data")
	PutPayloadBuffer(bb)

	again := GetPayloadBuffer()
	require.Zero(t, again.Len())
	PutPayloadBuffer(again)
	PutPayloadBuffer(nil)
}
