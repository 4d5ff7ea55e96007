package encoding

import (
	"encoding/binary"
	"fmt"
	"iter"

	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/internal/pool"
)

// StringEncoder stores strings as [length:uvarint][bytes]. It encodes point flags
// and the identifier and metadata strings of a blob.
type StringEncoder struct {
	buf   *pool.ByteBuffer
	temp  [binary.MaxVarintLen64]byte
	count int
}

var _ ColumnEncoder[string] = (*StringEncoder)(nil)

// NewStringEncoder creates a length-prefixed string encoder.
func NewStringEncoder() *StringEncoder {
	return &StringEncoder{buf: pool.GetPayloadBuffer()}
}

func (e *StringEncoder) Write(s string) {
	n := binary.PutUvarint(e.temp[:], uint64(len(s)))
	e.buf.Grow(n + len(s))
	_, _ = e.buf.Write(e.temp[:n])
	_, _ = e.buf.WriteString(s)
	e.count++
}

func (e *StringEncoder) WriteSlice(ss []string) {
	for _, s := range ss {
		e.Write(s)
	}
}

func (e *StringEncoder) Bytes() []byte { return e.buf.Bytes() }
func (e *StringEncoder) Len() int      { return e.count }
func (e *StringEncoder) Size() int     { return e.buf.Len() }

func (e *StringEncoder) Finish() {
	pool.PutPayloadBuffer(e.buf)
	e.buf = nil
}

// StringDecoder reads strings written by StringEncoder.
type StringDecoder struct{}

var _ ColumnDecoder[string] = StringDecoder{}

// NewStringDecoder creates a length-prefixed string decoder.
func NewStringDecoder() StringDecoder {
	return StringDecoder{}
}

func (d StringDecoder) Decode(data []byte, count int) ([]string, error) {
	out := make([]string, 0, count)
	off := 0
	for range count {
		s, n, ok := readString(data[off:])
		if !ok {
			return nil, fmt.Errorf("%w: decoded %d of %d strings", errs.ErrTruncatedPayload, len(out), count)
		}
		off += n
		out = append(out, s)
	}

	return out, nil
}

func (d StringDecoder) All(data []byte, count int) iter.Seq[string] {
	return func(yield func(string) bool) {
		off := 0
		for range count {
			s, n, ok := readString(data[off:])
			if !ok || !yield(s) {
				return
			}
			off += n
		}
	}
}

func readString(data []byte) (string, int, bool) {
	l, n := binary.Uvarint(data)
	if n <= 0 || l > uint64(len(data)-n) {
		return "", 0, false
	}
	end := n + int(l) //nolint:gosec

	return string(data[n:end]), end, true
}
