package blob

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"iter"
	"slices"
	"time"

	"github.com/arloliu/tabseries/compress"
	"github.com/arloliu/tabseries/encoding"
	"github.com/arloliu/tabseries/endian"
	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/format"
	"github.com/arloliu/tabseries/internal/hash"
	"github.com/arloliu/tabseries/series"
)

// Reader gives access to the series of a decoded blob. Series blocks are only
// decompressed when requested. A Reader is safe for concurrent use.
type Reader struct {
	header  Header
	engine  endian.Engine
	codec   compress.Codec
	entries []IndexEntry
	byHash  map[uint64]int

	ids          []string
	units        []string
	descriptions []string

	payload []byte
}

// Decode validates data and returns a reader over it. The reader keeps a
// reference to data, which must not be modified while the reader is in use.
func Decode(data []byte) (*Reader, error) {
	h, err := ParseHeader(data)
	if err != nil {
		return nil, err
	}

	if sum := crc32.ChecksumIEEE(data[HeaderSize:]); sum != h.Checksum {
		return nil, fmt.Errorf("%w: stored 0x%08x, computed 0x%08x", errs.ErrChecksumMismatch, h.Checksum, sum)
	}

	if err := validateLayout(&h, len(data)); err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(h.Compression)
	if err != nil {
		return nil, err
	}

	r := &Reader{
		header:  h,
		engine:  h.Engine(),
		codec:   codec,
		entries: make([]IndexEntry, h.SeriesCount),
		byHash:  make(map[uint64]int, h.SeriesCount),
		payload: data[h.PayloadOffset : h.PayloadOffset+h.PayloadSize],
	}

	for i := range r.entries {
		off := int(h.IndexOffset) + i*IndexEntrySize
		entry, err := parseIndexEntry(data[off:off+IndexEntrySize], r.engine)
		if err != nil {
			return nil, err
		}
		if uint64(entry.DataOffset)+uint64(entry.DataSize) > uint64(h.PayloadSize) {
			return nil, fmt.Errorf("%w: series %d block [%d, +%d) beyond payload size %d",
				errs.ErrInvalidPayloadOffset, i, entry.DataOffset, entry.DataSize, h.PayloadSize)
		}
		r.entries[i] = entry
		r.byHash[entry.Hash] = i
	}

	metaStart := h.PayloadOffset + h.PayloadSize
	if err := r.decodeMetadata(data[metaStart : metaStart+h.MetadataSize]); err != nil {
		return nil, err
	}

	return r, nil
}

func validateLayout(h *Header, size int) error {
	indexEnd := uint64(h.IndexOffset) + uint64(h.SeriesCount)*IndexEntrySize
	end := uint64(h.PayloadOffset) + uint64(h.PayloadSize) + uint64(h.MetadataSize)

	switch {
	case h.SeriesCount == 0 || h.SeriesCount > MaxSeriesCount:
		return fmt.Errorf("%w: series count %d", errs.ErrInvalidHeaderFlags, h.SeriesCount)
	case h.IndexOffset < HeaderSize || indexEnd > uint64(h.PayloadOffset):
		return fmt.Errorf("%w: index [%d, %d) overlaps payload at %d",
			errs.ErrInvalidPayloadOffset, h.IndexOffset, indexEnd, h.PayloadOffset)
	case end != uint64(size):
		return fmt.Errorf("%w: sections end at %d, blob size is %d", errs.ErrInvalidPayloadOffset, end, size)
	}

	return nil
}

func (r *Reader) decodeMetadata(block []byte) error {
	raw, err := r.codec.Decompress(block)
	if err != nil {
		return fmt.Errorf("decompress metadata: %w", err)
	}

	n := len(r.entries)
	fields, err := encoding.NewStringDecoder().Decode(raw, 3*n)
	if err != nil {
		return fmt.Errorf("decode metadata: %w", err)
	}

	r.ids = make([]string, n)
	r.units = make([]string, n)
	r.descriptions = make([]string, n)
	for i := range n {
		id := fields[3*i]
		if hash.SeriesID(id) != r.entries[i].Hash {
			return fmt.Errorf("%w: identifier %q does not match index entry %d", errs.ErrChecksumMismatch, id, i)
		}
		r.ids[i] = id
		r.units[i] = fields[3*i+1]
		r.descriptions[i] = fields[3*i+2]
	}

	return nil
}

// Header returns the parsed blob header.
func (r *Reader) Header() Header {
	return r.header
}

// Len returns the number of series in the blob.
func (r *Reader) Len() int {
	return len(r.entries)
}

// IDs returns the series identifiers in the order they were added.
func (r *Reader) IDs() []string {
	return slices.Clone(r.ids)
}

// Has reports whether the blob holds a series identified by id.
func (r *Reader) Has(id string) bool {
	_, ok := r.lookup(id)
	return ok
}

func (r *Reader) lookup(id string) (int, bool) {
	i, ok := r.byHash[hash.SeriesID(id)]
	if !ok || r.ids[i] != id {
		return 0, false
	}

	return i, true
}

// Series decodes the series identified by id.
//
// Returns errs.ErrSeriesNotFound if the blob has no such series.
func (r *Reader) Series(id string) (*series.Series, error) {
	i, ok := r.lookup(id)
	if !ok {
		return nil, fmt.Errorf("%w: %q", errs.ErrSeriesNotFound, id)
	}

	return r.SeriesAt(i)
}

// SeriesAt decodes the i-th series in insertion order.
func (r *Reader) SeriesAt(i int) (*series.Series, error) {
	if i < 0 || i >= len(r.entries) {
		return nil, fmt.Errorf("%w: index %d of %d", errs.ErrSeriesNotFound, i, len(r.entries))
	}

	s, err := r.decodeSeries(i)
	if err != nil {
		return nil, fmt.Errorf("series %q: %w", r.ids[i], err)
	}

	return s, nil
}

// All returns an iterator decoding every series in insertion order. A decode
// failure is yielded with a nil series; iteration may continue past it.
//
// Example:
//
//	for s, err := range r.All() {
//	    if err != nil {
//	        return err
//	    }
//	    fmt.Println(s.ID(), s.Len())
//	}
func (r *Reader) All() iter.Seq2[*series.Series, error] {
	return func(yield func(*series.Series, error) bool) {
		for i := range r.entries {
			if !yield(r.SeriesAt(i)) {
				return
			}
		}
	}
}

func (r *Reader) decodeSeries(i int) (*series.Series, error) {
	entry := r.entries[i]
	count := int(entry.Count)

	block, err := r.codec.Decompress(r.payload[entry.DataOffset : entry.DataOffset+entry.DataSize])
	if err != nil {
		return nil, fmt.Errorf("decompress block: %w", err)
	}

	tsData, valData, flagData, err := splitBlock(block)
	if err != nil {
		return nil, err
	}

	values, err := r.valueDecoder().Decode(valData, count)
	if err != nil {
		return nil, fmt.Errorf("values: %w", err)
	}

	var flags []string
	if entry.HasFlags() {
		if flags, err = encoding.NewStringDecoder().Decode(flagData, count); err != nil {
			return nil, fmt.Errorf("flags: %w", err)
		}
	}

	opts := []series.Option{
		series.WithUnits(r.units[i]),
		series.WithDescription(r.descriptions[i]),
	}
	interval := time.Duration(entry.Interval) * time.Microsecond
	if entry.IsRegular() {
		opts = append(opts, series.WithInterval(interval), series.WithMaxSlots(max(count, 1)))
	}

	s, err := series.New(r.ids[i], opts...)
	if err != nil {
		return nil, err
	}

	start := time.UnixMicro(entry.StartTime).UTC()
	s.SetStartDate(start)
	s.SetEndDate(time.UnixMicro(entry.EndTime).UTC())
	if err := s.AllocateStorage(); err != nil {
		if errors.Is(err, errs.ErrPeriodTooLarge) {
			return nil, fmt.Errorf("%w: index holds %d points for a longer period", errs.ErrDataPointCountMismatch, count)
		}

		return nil, err
	}
	if entry.IsRegular() && s.Len() != count {
		return nil, fmt.Errorf("%w: index holds %d points, period has %d", errs.ErrDataPointCountMismatch, count, s.Len())
	}

	timeAt := func(j int) time.Time { return s.At(j).Ts }
	if !entry.IsRegular() {
		times, err := r.timestampDecoder().Decode(tsData, count)
		if err != nil {
			return nil, fmt.Errorf("timestamps: %w", err)
		}
		timeAt = func(j int) time.Time { return time.UnixMicro(times[j]).UTC() }
	}

	for j, v := range values {
		var flag string
		if flags != nil {
			flag = flags[j]
		}
		if err := s.SetDataPoint(timeAt(j), v, flag); err != nil {
			return nil, err
		}
	}

	if s.Len() != count {
		return nil, fmt.Errorf("%w: index holds %d points, decoded %d", errs.ErrDataPointCountMismatch, count, s.Len())
	}

	return s, nil
}

func (r *Reader) timestampDecoder() encoding.ColumnDecoder[int64] {
	if r.header.TimestampEncoding == format.TypeRaw {
		return encoding.NewTimestampRawDecoder(r.engine)
	}

	return encoding.NewTimestampDeltaDecoder()
}

func (r *Reader) valueDecoder() encoding.ColumnDecoder[float64] {
	if r.header.ValueEncoding() == format.TypeGorilla {
		return encoding.NewNumericGorillaDecoder()
	}

	return encoding.NewNumericRawDecoder(r.engine)
}

// splitBlock separates the columns of an uncompressed series block.
func splitBlock(block []byte) (ts, values, flags []byte, err error) {
	tsSize, n := binary.Uvarint(block)
	if n <= 0 {
		return nil, nil, nil, fmt.Errorf("%w: timestamp column size", errs.ErrTruncatedPayload)
	}
	block = block[n:]

	valSize, n := binary.Uvarint(block)
	if n <= 0 {
		return nil, nil, nil, fmt.Errorf("%w: value column size", errs.ErrTruncatedPayload)
	}
	block = block[n:]

	if tsSize > uint64(len(block)) || valSize > uint64(len(block))-tsSize {
		return nil, nil, nil, fmt.Errorf("%w: columns need %d+%d bytes, block has %d",
			errs.ErrTruncatedPayload, tsSize, valSize, len(block))
	}

	ts = block[:tsSize]
	values = block[tsSize : tsSize+valSize]
	flags = block[tsSize+valSize:]

	return ts, values, flags, nil
}
