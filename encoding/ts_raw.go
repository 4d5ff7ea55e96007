package encoding

import (
	"fmt"
	"iter"

	"github.com/arloliu/tabseries/endian"
	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/internal/pool"
)

// TimestampRawEncoder stores each timestamp as a fixed 8-byte integer. It allows
// O(1) access to any position at the cost of size.
type TimestampRawEncoder struct {
	engine endian.Engine
	buf    *pool.ByteBuffer
	count  int
}

var _ ColumnEncoder[int64] = (*TimestampRawEncoder)(nil)

// NewTimestampRawEncoder creates a raw timestamp encoder using engine's byte order.
func NewTimestampRawEncoder(engine endian.Engine) *TimestampRawEncoder {
	return &TimestampRawEncoder{engine: engine, buf: pool.GetPayloadBuffer()}
}

func (e *TimestampRawEncoder) Write(us int64) {
	e.engine.PutUint64(e.buf.Extend(8), uint64(us)) //nolint:gosec
	e.count++
}

func (e *TimestampRawEncoder) WriteSlice(us []int64) {
	e.buf.Grow(8 * len(us))
	for _, v := range us {
		e.Write(v)
	}
}

func (e *TimestampRawEncoder) Bytes() []byte { return e.buf.Bytes() }
func (e *TimestampRawEncoder) Len() int      { return e.count }
func (e *TimestampRawEncoder) Size() int     { return e.buf.Len() }

func (e *TimestampRawEncoder) Finish() {
	pool.PutPayloadBuffer(e.buf)
	e.buf = nil
}

// TimestampRawDecoder reads timestamps written by TimestampRawEncoder.
type TimestampRawDecoder struct {
	engine endian.Engine
}

var _ ColumnDecoder[int64] = TimestampRawDecoder{}

// NewTimestampRawDecoder creates a decoder for engine's byte order.
func NewTimestampRawDecoder(engine endian.Engine) TimestampRawDecoder {
	return TimestampRawDecoder{engine: engine}
}

func (d TimestampRawDecoder) Decode(data []byte, count int) ([]int64, error) {
	if len(data) != 8*count {
		return nil, fmt.Errorf("%w: %d bytes for %d raw timestamps", errs.ErrTruncatedPayload, len(data), count)
	}

	out := make([]int64, count)
	for i := range out {
		out[i] = int64(d.engine.Uint64(data[i*8:])) //nolint:gosec
	}

	return out, nil
}

func (d TimestampRawDecoder) All(data []byte, count int) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		for i := 0; i < count && (i+1)*8 <= len(data); i++ {
			if !yield(int64(d.engine.Uint64(data[i*8:]))) { //nolint:gosec
				return
			}
		}
	}
}

// At returns the timestamp at index without decoding the others.
func (d TimestampRawDecoder) At(data []byte, index int) (int64, bool) {
	if index < 0 || (index+1)*8 > len(data) {
		return 0, false
	}

	return int64(d.engine.Uint64(data[index*8:])), true //nolint:gosec
}
