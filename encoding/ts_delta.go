package encoding

import (
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/internal/pool"
)

// TimestampDeltaEncoder stores timestamps as delta-of-delta values with zigzag
// and varint encoding:
//
//   - first timestamp: zigzag varint of the value
//   - second: zigzag varint of the delta from the first
//   - rest: zigzag varint of the change in delta
//
// A regular series therefore costs about one byte per point after the first two.
type TimestampDeltaEncoder struct {
	buf       *pool.ByteBuffer
	temp      [binary.MaxVarintLen64]byte
	prevTS    int64
	prevDelta int64
	count     int
}

var _ ColumnEncoder[int64] = (*TimestampDeltaEncoder)(nil)

// NewTimestampDeltaEncoder creates a delta-of-delta timestamp encoder.
func NewTimestampDeltaEncoder() *TimestampDeltaEncoder {
	return &TimestampDeltaEncoder{buf: pool.GetPayloadBuffer()}
}

func (e *TimestampDeltaEncoder) Write(us int64) {
	var v int64
	switch e.count {
	case 0:
		v = us
	case 1:
		e.prevDelta = us - e.prevTS
		v = e.prevDelta
	default:
		delta := us - e.prevTS
		v = delta - e.prevDelta
		e.prevDelta = delta
	}
	e.prevTS = us
	e.count++

	n := binary.PutUvarint(e.temp[:], zigzag(v))
	_, _ = e.buf.Write(e.temp[:n])
}

func (e *TimestampDeltaEncoder) WriteSlice(us []int64) {
	e.buf.Grow(len(us) + 2*binary.MaxVarintLen64)
	for _, v := range us {
		e.Write(v)
	}
}

func (e *TimestampDeltaEncoder) Bytes() []byte { return e.buf.Bytes() }
func (e *TimestampDeltaEncoder) Len() int      { return e.count }
func (e *TimestampDeltaEncoder) Size() int     { return e.buf.Len() }

func (e *TimestampDeltaEncoder) Finish() {
	pool.PutPayloadBuffer(e.buf)
	e.buf = nil
}

// TimestampDeltaDecoder reads timestamps written by TimestampDeltaEncoder.
type TimestampDeltaDecoder struct{}

var _ ColumnDecoder[int64] = TimestampDeltaDecoder{}

// NewTimestampDeltaDecoder creates a delta-of-delta timestamp decoder.
func NewTimestampDeltaDecoder() TimestampDeltaDecoder {
	return TimestampDeltaDecoder{}
}

func (d TimestampDeltaDecoder) Decode(data []byte, count int) ([]int64, error) {
	out := make([]int64, 0, count)
	for ts := range d.All(data, count) {
		out = append(out, ts)
	}
	if len(out) != count {
		return nil, fmt.Errorf("%w: decoded %d of %d delta timestamps", errs.ErrTruncatedPayload, len(out), count)
	}

	return out, nil
}

func (d TimestampDeltaDecoder) All(data []byte, count int) iter.Seq[int64] {
	return func(yield func(int64) bool) {
		var prevTS, prevDelta int64
		off := 0
		for i := range count {
			u, n := binary.Uvarint(data[off:])
			if n <= 0 {
				return
			}
			off += n
			v := unzigzag(u)

			switch i {
			case 0:
				prevTS = v
			case 1:
				prevDelta = v
				prevTS += v
			default:
				prevDelta += v
				prevTS += prevDelta
			}

			if !yield(prevTS) {
				return
			}
		}
	}
}
