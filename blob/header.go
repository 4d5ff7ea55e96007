package blob

import (
	"bytes"
	"fmt"

	"github.com/arloliu/tabseries/endian"
	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/format"
)

const (
	// HeaderSize is the fixed size of the blob header.
	HeaderSize = 32
	// IndexEntrySize is the fixed size of one index entry.
	IndexEntrySize = 48
	// Version is the layout version written by this package.
	Version = 1
)

var magic = [4]byte{'T', 'B', 'S', '1'}

const (
	headerFlagBigEndian     uint8 = 1 << 0
	headerFlagGorillaValues uint8 = 1 << 1
	headerFlagMask                = headerFlagBigEndian | headerFlagGorillaValues
)

// Header is the fixed-size section at the start of a blob.
//
// Bytes 0-7 are single-byte fields and read the same in either byte order; the
// remaining fields use the order selected by Flags.
type Header struct {
	Version           uint8                  // byte offset 4
	Flags             uint8                  // byte offset 5
	TimestampEncoding format.EncodingType    // byte offset 6
	Compression       format.CompressionType // byte offset 7
	// SeriesCount is the number of index entries.
	SeriesCount uint32 // byte offset 8-11
	// IndexOffset is the offset of the first index entry.
	IndexOffset uint32 // byte offset 12-15
	// PayloadOffset is the offset of the first series block.
	PayloadOffset uint32 // byte offset 16-19
	// PayloadSize is the total size of the series blocks.
	PayloadSize uint32 // byte offset 20-23
	// MetadataSize is the size of the metadata block after the series blocks.
	MetadataSize uint32 // byte offset 24-27
	// Checksum is the CRC32 (IEEE) of every byte after the header.
	Checksum uint32 // byte offset 28-31
}

// IsBigEndian reports whether the blob uses big-endian fields.
func (h *Header) IsBigEndian() bool {
	return h.Flags&headerFlagBigEndian != 0
}

// ValueEncoding returns the encoding of the value columns.
func (h *Header) ValueEncoding() format.EncodingType {
	if h.Flags&headerFlagGorillaValues != 0 {
		return format.TypeGorilla
	}

	return format.TypeRaw
}

// Engine returns the byte order of the blob.
func (h *Header) Engine() endian.Engine {
	if h.IsBigEndian() {
		return endian.Big()
	}

	return endian.Little()
}

// Bytes serializes the header.
func (h *Header) Bytes() []byte {
	b := make([]byte, HeaderSize)
	h.put(b)

	return b
}

func (h *Header) put(b []byte) {
	copy(b[0:4], magic[:])
	b[4] = h.Version
	b[5] = h.Flags
	b[6] = byte(h.TimestampEncoding)
	b[7] = byte(h.Compression)

	engine := h.Engine()
	engine.PutUint32(b[8:12], h.SeriesCount)
	engine.PutUint32(b[12:16], h.IndexOffset)
	engine.PutUint32(b[16:20], h.PayloadOffset)
	engine.PutUint32(b[20:24], h.PayloadSize)
	engine.PutUint32(b[24:28], h.MetadataSize)
	engine.PutUint32(b[28:32], h.Checksum)
}

func (h *Header) validate() error {
	switch {
	case h.Version != Version:
		return fmt.Errorf("%w: unsupported version %d", errs.ErrInvalidHeaderFlags, h.Version)
	case h.Flags&^headerFlagMask != 0:
		return fmt.Errorf("%w: unknown flags 0x%02x", errs.ErrInvalidHeaderFlags, h.Flags)
	case h.TimestampEncoding != format.TypeRaw && h.TimestampEncoding != format.TypeDelta:
		return fmt.Errorf("%w: timestamp encoding 0x%02x", errs.ErrInvalidHeaderFlags, uint8(h.TimestampEncoding))
	case !h.Compression.Valid():
		return fmt.Errorf("%w: compression 0x%02x", errs.ErrInvalidHeaderFlags, uint8(h.Compression))
	}

	return nil
}

// ParseHeader parses the header at the start of data.
//
// Returns errs.ErrInvalidHeaderSize if data is shorter than HeaderSize,
// errs.ErrInvalidMagicNumber if data is not a blob, or errs.ErrInvalidHeaderFlags
// for an unknown version, flag or enum value.
func ParseHeader(data []byte) (Header, error) {
	if len(data) < HeaderSize {
		return Header{}, errs.ErrInvalidHeaderSize
	}
	if !bytes.Equal(data[0:4], magic[:]) {
		return Header{}, errs.ErrInvalidMagicNumber
	}

	h := Header{
		Version:           data[4],
		Flags:             data[5],
		TimestampEncoding: format.EncodingType(data[6]),
		Compression:       format.CompressionType(data[7]),
	}
	if err := h.validate(); err != nil {
		return Header{}, err
	}

	engine := h.Engine()
	h.SeriesCount = engine.Uint32(data[8:12])
	h.IndexOffset = engine.Uint32(data[12:16])
	h.PayloadOffset = engine.Uint32(data[16:20])
	h.PayloadSize = engine.Uint32(data[20:24])
	h.MetadataSize = engine.Uint32(data[24:28])
	h.Checksum = engine.Uint32(data[28:32])

	return h, nil
}

const (
	entryFlagRegular  uint8 = 1 << 0
	entryFlagHasFlags uint8 = 1 << 1
)

// IndexEntry locates and describes one series in the blob.
type IndexEntry struct {
	// Hash is the xxHash64 of the series identifier.
	Hash uint64 // byte offset 0-7
	// Count is the number of stored points.
	Count uint32 // byte offset 8-11
	// Flags marks regular series and series carrying point flags.
	Flags uint8 // byte offset 12, 13-15 reserved
	// StartTime and EndTime bound the series period, in Unix microseconds.
	StartTime int64 // byte offset 16-23
	EndTime   int64 // byte offset 24-31
	// Interval is the regular step in microseconds, 0 for irregular series.
	Interval int64 // byte offset 32-39
	// DataOffset is the block offset relative to the payload offset.
	DataOffset uint32 // byte offset 40-43
	// DataSize is the compressed block size.
	DataSize uint32 // byte offset 44-47
}

// IsRegular reports whether the series has a fixed interval.
func (e IndexEntry) IsRegular() bool { return e.Flags&entryFlagRegular != 0 }

// HasFlags reports whether the block carries a flag column.
func (e IndexEntry) HasFlags() bool { return e.Flags&entryFlagHasFlags != 0 }

func (e IndexEntry) appendTo(b []byte, engine endian.Engine) []byte {
	b = engine.AppendUint64(b, e.Hash)
	b = engine.AppendUint32(b, e.Count)
	b = append(b, e.Flags, 0, 0, 0)
	b = engine.AppendUint64(b, uint64(e.StartTime)) //nolint:gosec
	b = engine.AppendUint64(b, uint64(e.EndTime))   //nolint:gosec
	b = engine.AppendUint64(b, uint64(e.Interval))  //nolint:gosec
	b = engine.AppendUint32(b, e.DataOffset)
	b = engine.AppendUint32(b, e.DataSize)

	return b
}

func parseIndexEntry(data []byte, engine endian.Engine) (IndexEntry, error) {
	if len(data) != IndexEntrySize {
		return IndexEntry{}, errs.ErrInvalidIndexEntrySize
	}

	return IndexEntry{
		Hash:       engine.Uint64(data[0:8]),
		Count:      engine.Uint32(data[8:12]),
		Flags:      data[12],
		StartTime:  int64(engine.Uint64(data[16:24])), //nolint:gosec
		EndTime:    int64(engine.Uint64(data[24:32])), //nolint:gosec
		Interval:   int64(engine.Uint64(data[32:40])), //nolint:gosec
		DataOffset: engine.Uint32(data[40:44]),
		DataSize:   engine.Uint32(data[44:48]),
	}, nil
}
