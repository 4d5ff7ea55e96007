// Package format defines the wire enums shared by the blob, encoding, compress
// and input packages.
package format

import (
	"fmt"
	"strings"
)

type (
	// EncodingType selects how a timestamp or value column is laid out.
	EncodingType uint8
	// CompressionType selects the codec applied to a payload or an input stream.
	CompressionType uint8
)

const (
	TypeRaw     EncodingType = 0x1 // TypeRaw stores every element as a fixed 8-byte value.
	TypeDelta   EncodingType = 0x2 // TypeDelta stores varint deltas between timestamps.
	TypeGorilla EncodingType = 0x3 // TypeGorilla stores values with Gorilla XOR compression.

	CompressionNone CompressionType = 0x1 // CompressionNone leaves data unchanged.
	CompressionZstd CompressionType = 0x2 // CompressionZstd uses Zstandard.
	CompressionS2   CompressionType = 0x3 // CompressionS2 uses S2, a Snappy extension.
	CompressionLZ4  CompressionType = 0x4 // CompressionLZ4 uses LZ4.
)

func (e EncodingType) String() string {
	switch e {
	case TypeRaw:
		return "Raw"
	case TypeDelta:
		return "Delta"
	case TypeGorilla:
		return "Gorilla"
	default:
		return "Unknown"
	}
}

// Valid reports whether e is a known encoding.
func (e EncodingType) Valid() bool {
	return e >= TypeRaw && e <= TypeGorilla
}

func (c CompressionType) String() string {
	switch c {
	case CompressionNone:
		return "None"
	case CompressionZstd:
		return "Zstd"
	case CompressionS2:
		return "S2"
	case CompressionLZ4:
		return "LZ4"
	default:
		return "Unknown"
	}
}

// Valid reports whether c is a known compression.
func (c CompressionType) Valid() bool {
	return c >= CompressionNone && c <= CompressionLZ4
}

// ParseEncoding parses an encoding name, case-insensitively. An empty name means
// TypeDelta.
func ParseEncoding(name string) (EncodingType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "raw":
		return TypeRaw, nil
	case "delta", "":
		return TypeDelta, nil
	case "gorilla":
		return TypeGorilla, nil
	default:
		return 0, fmt.Errorf("unknown encoding %q", name)
	}
}

// ParseCompression parses a compression name, case-insensitively. An empty name
// means CompressionNone.
func ParseCompression(name string) (CompressionType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "none", "":
		return CompressionNone, nil
	case "zstd", "zst":
		return CompressionZstd, nil
	case "s2":
		return CompressionS2, nil
	case "lz4":
		return CompressionLZ4, nil
	default:
		return 0, fmt.Errorf("unknown compression %q", name)
	}
}
