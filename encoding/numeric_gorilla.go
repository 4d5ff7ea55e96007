package encoding

import (
	"encoding/binary"
	"fmt"
	"iter"
	"math"
	"math/bits"

	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/internal/pool"
)

// NumericGorillaEncoder compresses float64 values with the XOR scheme from
// Facebook's Gorilla paper:
//
//   - first value: 64 bits
//   - unchanged value: a single 0 bit
//   - changed value inside the previous meaningful-bit window: 10 and the window bits
//   - otherwise: 11, 5 bits of leading zeros, 6 bits of window length minus one,
//     then the window bits
//
// Bits are written MSB first, independent of the blob byte order, and the stream
// is padded with zero bits to a whole byte. Missing values (NaN) compress like any
// other repeated value.
//
// See https://www.vldb.org/pvldb/vol8/p1816-teller.pdf.
type NumericGorillaEncoder struct {
	buf      *pool.ByteBuffer
	bitBuf   uint64
	bitCount int
	tail     [8]byte

	prev         uint64
	prevLeading  int
	prevTrailing int
	prevBlock    int
	count        int
}

var _ ColumnEncoder[float64] = (*NumericGorillaEncoder)(nil)

// NewNumericGorillaEncoder creates a Gorilla float64 encoder.
func NewNumericGorillaEncoder() *NumericGorillaEncoder {
	return &NumericGorillaEncoder{buf: pool.GetPayloadBuffer()}
}

func (e *NumericGorillaEncoder) Write(v float64) {
	vb := math.Float64bits(v)
	e.count++

	if e.count == 1 {
		e.prev = vb
		e.writeBits(vb, 64)

		return
	}

	xor := vb ^ e.prev
	e.prev = vb
	if xor == 0 {
		e.writeBits(0, 1)
		return
	}

	// the leading zero count has 5 bits on the wire
	leading := min(bits.LeadingZeros64(xor), 31)
	trailing := bits.TrailingZeros64(xor)

	if e.prevBlock > 0 && leading >= e.prevLeading && trailing >= e.prevTrailing {
		e.writeBits(0b10, 2)
		e.writeBits(xor>>e.prevTrailing, e.prevBlock)

		return
	}

	block := 64 - leading - trailing
	e.writeBits(0b11, 2)
	e.writeBits(uint64(leading), 5) //nolint:gosec
	e.writeBits(uint64(block-1), 6) //nolint:gosec
	e.writeBits(xor>>trailing, block)

	e.prevLeading, e.prevTrailing, e.prevBlock = leading, trailing, block
}

func (e *NumericGorillaEncoder) WriteSlice(vs []float64) {
	for _, v := range vs {
		e.Write(v)
	}
}

// Bytes returns the encoded stream padded to a whole byte. The padding lives in
// spare capacity of the buffer, so later writes continue the bit stream.
func (e *NumericGorillaEncoder) Bytes() []byte {
	if e.bitCount == 0 {
		return e.buf.Bytes()
	}

	binary.BigEndian.PutUint64(e.tail[:], e.bitBuf<<(64-e.bitCount))
	n := (e.bitCount + 7) / 8

	return append(e.buf.Bytes(), e.tail[:n]...)
}

func (e *NumericGorillaEncoder) Len() int { return e.count }

func (e *NumericGorillaEncoder) Size() int {
	return e.buf.Len() + (e.bitCount+7)/8
}

func (e *NumericGorillaEncoder) Finish() {
	pool.PutPayloadBuffer(e.buf)
	e.buf = nil
}

// writeBits appends the low n bits of v, n in [1, 64].
func (e *NumericGorillaEncoder) writeBits(v uint64, n int) {
	for n > 0 {
		take := min(n, 64-e.bitCount)
		chunk := (v >> (n - take)) & (^uint64(0) >> (64 - take))
		e.bitBuf = e.bitBuf<<take | chunk
		e.bitCount += take
		n -= take

		if e.bitCount == 64 {
			binary.BigEndian.PutUint64(e.buf.Extend(8), e.bitBuf)
			e.bitBuf, e.bitCount = 0, 0
		}
	}
}

// NumericGorillaDecoder reads values written by NumericGorillaEncoder.
type NumericGorillaDecoder struct{}

var _ ColumnDecoder[float64] = NumericGorillaDecoder{}

// NewNumericGorillaDecoder creates a Gorilla float64 decoder.
func NewNumericGorillaDecoder() NumericGorillaDecoder {
	return NumericGorillaDecoder{}
}

func (d NumericGorillaDecoder) Decode(data []byte, count int) ([]float64, error) {
	out := make([]float64, 0, count)
	used, err := decodeGorilla(data, count, func(v float64) bool {
		out = append(out, v)
		return true
	})
	if err != nil {
		return nil, err
	}
	if used != len(data) {
		return nil, fmt.Errorf("%w: %d trailing bytes after %d gorilla values",
			errs.ErrTruncatedPayload, len(data)-used, count)
	}

	return out, nil
}

func (d NumericGorillaDecoder) All(data []byte, count int) iter.Seq[float64] {
	return func(yield func(float64) bool) {
		_, _ = decodeGorilla(data, count, yield)
	}
}

// decodeGorilla yields up to count values and returns the number of bytes the
// bit stream occupied.
func decodeGorilla(data []byte, count int, yield func(float64) bool) (int, error) {
	if count == 0 {
		return 0, nil
	}

	br := bitReader{data: data}
	truncated := func(i int) error {
		return fmt.Errorf("%w: gorilla stream ends at value %d of %d", errs.ErrTruncatedPayload, i, count)
	}

	prev, ok := br.readBits(64)
	if !ok {
		return 0, truncated(0)
	}
	if !yield(math.Float64frombits(prev)) {
		return br.bytesUsed(), nil
	}

	var leading, trailing, block int
	for i := 1; i < count; i++ {
		changed, ok := br.readBits(1)
		if !ok {
			return 0, truncated(i)
		}

		if changed == 1 {
			newBlock, ok := br.readBits(1)
			if !ok {
				return 0, truncated(i)
			}

			if newBlock == 1 {
				l, ok1 := br.readBits(5)
				b, ok2 := br.readBits(6)
				if !ok1 || !ok2 {
					return 0, truncated(i)
				}
				leading, block = int(l), int(b)+1 //nolint:gosec
				trailing = 64 - leading - block
				if trailing < 0 {
					return 0, fmt.Errorf("%w: gorilla window overflows at value %d", errs.ErrTruncatedPayload, i)
				}
			} else if block == 0 {
				return 0, fmt.Errorf("%w: gorilla window reused before defined at value %d", errs.ErrTruncatedPayload, i)
			}

			x, ok := br.readBits(block)
			if !ok {
				return 0, truncated(i)
			}
			prev ^= x << trailing
		}

		if !yield(math.Float64frombits(prev)) {
			return br.bytesUsed(), nil
		}
	}

	return br.bytesUsed(), nil
}

// bitReader reads an MSB-first bit stream.
type bitReader struct {
	data []byte
	pos  int
}

func (r *bitReader) readBits(n int) (uint64, bool) {
	if r.pos+n > len(r.data)*8 {
		return 0, false
	}

	var v uint64
	for n > 0 {
		off := r.pos & 7
		take := min(8-off, n)
		b := (uint64(r.data[r.pos>>3]) >> (8 - off - take)) & (1<<take - 1)
		v = v<<take | b
		r.pos += take
		n -= take
	}

	return v, true
}

func (r *bitReader) bytesUsed() int {
	return (r.pos + 7) / 8
}
