package encoding

import (
	"fmt"
	"iter"
	"math"

	"github.com/arloliu/tabseries/endian"
	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/internal/pool"
)

// NumericRawEncoder stores each value as its 8-byte IEEE 754 bit pattern, so NaN
// missing markers survive a round trip.
type NumericRawEncoder struct {
	engine endian.Engine
	buf    *pool.ByteBuffer
	count  int
}

var _ ColumnEncoder[float64] = (*NumericRawEncoder)(nil)

// NewNumericRawEncoder creates a raw float64 encoder using engine's byte order.
func NewNumericRawEncoder(engine endian.Engine) *NumericRawEncoder {
	return &NumericRawEncoder{engine: engine, buf: pool.GetPayloadBuffer()}
}

func (e *NumericRawEncoder) Write(v float64) {
	e.engine.PutUint64(e.buf.Extend(8), math.Float64bits(v))
	e.count++
}

func (e *NumericRawEncoder) WriteSlice(vs []float64) {
	e.buf.Grow(8 * len(vs))
	for _, v := range vs {
		e.Write(v)
	}
}

func (e *NumericRawEncoder) Bytes() []byte { return e.buf.Bytes() }
func (e *NumericRawEncoder) Len() int      { return e.count }
func (e *NumericRawEncoder) Size() int     { return e.buf.Len() }

func (e *NumericRawEncoder) Finish() {
	pool.PutPayloadBuffer(e.buf)
	e.buf = nil
}

// NumericRawDecoder reads values written by NumericRawEncoder.
type NumericRawDecoder struct {
	engine endian.Engine
}

var _ ColumnDecoder[float64] = NumericRawDecoder{}

// NewNumericRawDecoder creates a decoder for engine's byte order.
func NewNumericRawDecoder(engine endian.Engine) NumericRawDecoder {
	return NumericRawDecoder{engine: engine}
}

func (d NumericRawDecoder) Decode(data []byte, count int) ([]float64, error) {
	if len(data) != 8*count {
		return nil, fmt.Errorf("%w: %d bytes for %d raw values", errs.ErrTruncatedPayload, len(data), count)
	}

	out := make([]float64, count)
	for i := range out {
		out[i] = math.Float64frombits(d.engine.Uint64(data[i*8:]))
	}

	return out, nil
}

func (d NumericRawDecoder) All(data []byte, count int) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		for i := 0; i < count && (i+1)*8 <= len(data); i++ {
			if !yield(math.Float64frombits(d.engine.Uint64(data[i*8:]))) {
				return
			}
		}
	}
}
