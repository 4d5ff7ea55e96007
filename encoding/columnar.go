// Package encoding implements the column codecs used by blob payloads.
//
// Each series is stored column by column: timestamps (raw or delta), values (raw
// float64 or Gorilla XOR) and, when present, flags (length-prefixed strings). Encoders append to
// a pooled buffer; call Finish to return it once the bytes have been copied out.
//
// Timestamps are Unix microseconds.
package encoding

import "iter"

// ColumnEncoder appends values of type T to an internal buffer.
type ColumnEncoder[T any] interface {
	// Write appends one value.
	Write(v T)
	// WriteSlice appends every value of vs.
	WriteSlice(vs []T)
	// Bytes returns the encoded data. The slice is valid until the next write or
	// Finish and must not be modified.
	Bytes() []byte
	// Len returns the number of values written.
	Len() int
	// Size returns the number of encoded bytes.
	Size() int
	// Finish returns the buffer to the pool. The encoder must not be used after.
	Finish()
}

// ColumnDecoder reads count values of type T from data.
type ColumnDecoder[T any] interface {
	// Decode returns all count values, or an error when data is malformed.
	Decode(data []byte, count int) ([]T, error)
	// All yields the values in order and stops early at malformed data.
	All(data []byte, count int) iter.Seq[T]
}

func zigzag(v int64) uint64 {
	return uint64((v << 1) ^ (v >> 63)) //nolint:gosec
}

func unzigzag(u uint64) int64 {
	return int64(u>>1) ^ -int64(u&1) //nolint:gosec
}
