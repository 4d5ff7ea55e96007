// Package endian selects the byte order used by blob headers and fixed-width
// columns.
//
// An Engine is satisfied by binary.LittleEndian and binary.BigEndian, so it can
// both read fixed-width integers and append them to a buffer.
package endian

import "encoding/binary"

// Engine combines binary.ByteOrder and binary.AppendByteOrder.
type Engine interface {
	binary.ByteOrder
	binary.AppendByteOrder
}

// Little returns the little-endian engine, the default for blobs.
func Little() Engine {
	return binary.LittleEndian
}

// Big returns the big-endian engine.
func Big() Engine {
	return binary.BigEndian
}

// IsBig reports whether e is the big-endian engine.
func IsBig(e Engine) bool {
	return e == Engine(binary.BigEndian)
}
