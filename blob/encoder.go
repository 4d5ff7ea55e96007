package blob

import (
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"time"

	"github.com/arloliu/tabseries/compress"
	"github.com/arloliu/tabseries/encoding"
	"github.com/arloliu/tabseries/endian"
	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/format"
	"github.com/arloliu/tabseries/internal/collision"
	"github.com/arloliu/tabseries/internal/options"
	"github.com/arloliu/tabseries/internal/pool"
	"github.com/arloliu/tabseries/series"
)

// Encoder writes series into a blob. Series are encoded as they are added, so a
// series may be modified or discarded once Add returns.
//
// An Encoder is single use and not safe for concurrent use.
type Encoder struct {
	cfg     *EncoderConfig
	codec   compress.Codec
	tracker *collision.Tracker
	entries []IndexEntry

	payload *pool.ByteBuffer
	block   *pool.ByteBuffer
	meta    *encoding.StringEncoder
	temp    [binary.MaxVarintLen64]byte

	finished bool
}

// NewEncoder creates an encoder. By default timestamps are delta encoded, values
// are raw, blocks are zstd compressed and fields are little-endian.
func NewEncoder(opts ...EncoderOption) (*Encoder, error) {
	cfg := defaultEncoderConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	codec, err := compress.GetCodec(cfg.compression)
	if err != nil {
		return nil, err
	}

	return &Encoder{
		cfg:     cfg,
		codec:   codec,
		tracker: collision.NewTracker(),
		payload: pool.GetPayloadBuffer(),
		block:   pool.GetPayloadBuffer(),
		meta:    encoding.NewStringEncoder(),
	}, nil
}

// Len returns the number of series added.
func (e *Encoder) Len() int {
	return len(e.entries)
}

// Add encodes s into the blob. The series must have allocated storage.
//
// Returns errs.ErrDuplicateSeries if a series with the same identifier was
// already added, errs.ErrHashCollision if a different identifier has the same
// hash, and errs.ErrSeriesCountExceeded past MaxSeriesCount.
func (e *Encoder) Add(s *series.Series) error {
	if e.finished {
		return errs.ErrEncoderFinished
	}
	if s == nil {
		return errors.New("blob: nil series")
	}
	if !s.Allocated() {
		return fmt.Errorf("series %q: %w", s.ID(), errs.ErrStorageNotAllocated)
	}
	if len(e.entries) >= MaxSeriesCount {
		return fmt.Errorf("%w: max %d", errs.ErrSeriesCountExceeded, MaxSeriesCount)
	}
	if s.IsRegular() && s.Interval()%time.Microsecond != 0 {
		return fmt.Errorf("series %q: %w: %s is not a whole number of microseconds",
			s.ID(), errs.ErrInvalidInterval, s.Interval())
	}
	if uint64(s.Len()) > math.MaxUint32 {
		return fmt.Errorf("series %q: %w: %d points", s.ID(), errs.ErrSeriesCountExceeded, s.Len())
	}

	entry := IndexEntry{
		Count:     uint32(s.Len()), //nolint:gosec
		StartTime: s.Start().UnixMicro(),
		EndTime:   s.End().UnixMicro(),
	}
	if s.IsRegular() {
		entry.Flags |= entryFlagRegular
		entry.Interval = s.Interval().Microseconds()
	}
	if s.HasFlags() {
		entry.Flags |= entryFlagHasFlags
	}

	compressed, err := e.codec.Compress(e.encodeSeries(s, entry))
	if err != nil {
		return fmt.Errorf("series %q: compress block: %w", s.ID(), err)
	}

	offset := e.payload.Len()
	if uint64(offset)+uint64(len(compressed)) > math.MaxUint32 {
		return fmt.Errorf("%w: payload exceeds %d bytes", errs.ErrInvalidPayloadOffset, uint32(math.MaxUint32))
	}

	id, err := e.tracker.Track(s.ID())
	if err != nil {
		return err
	}

	entry.Hash = id
	entry.DataOffset = uint32(offset)        //nolint:gosec
	entry.DataSize = uint32(len(compressed)) //nolint:gosec
	_, _ = e.payload.Write(compressed)
	e.entries = append(e.entries, entry)

	e.meta.Write(s.ID())
	e.meta.Write(s.Units())
	e.meta.Write(s.Description())

	return nil
}

// encodeSeries lays out one uncompressed series block:
//
//	uvarint timestamp column size
//	uvarint value column size
//	timestamp column (empty for regular series)
//	value column
//	flag column (only when the entry has flags)
//
// The returned slice aliases the encoder's scratch buffer.
func (e *Encoder) encodeSeries(s *series.Series, entry IndexEntry) []byte {
	n := s.Len()

	values, releaseValues := pool.GetFloat64Slice(n)
	defer releaseValues()

	var times []int64
	if !entry.IsRegular() {
		var releaseTimes func()
		times, releaseTimes = pool.GetInt64Slice(n)
		defer releaseTimes()
	}

	var flags []string
	if entry.HasFlags() {
		var releaseFlags func()
		flags, releaseFlags = pool.GetStringSlice(n)
		defer releaseFlags()
	}

	for i, dp := range s.All() {
		values[i] = dp.Val
		if times != nil {
			times[i] = dp.Ts.UnixMicro()
		}
		if flags != nil {
			flags[i] = dp.Flag
		}
	}

	tsEnc := e.timestampEncoder()
	defer tsEnc.Finish()
	tsEnc.WriteSlice(times)

	valEnc := e.valueEncoder()
	defer valEnc.Finish()
	valEnc.WriteSlice(values)

	e.block.Reset()
	e.writeUvarint(uint64(tsEnc.Size()))  //nolint:gosec
	e.writeUvarint(uint64(valEnc.Size())) //nolint:gosec
	_, _ = e.block.Write(tsEnc.Bytes())
	_, _ = e.block.Write(valEnc.Bytes())

	if flags != nil {
		flagEnc := encoding.NewStringEncoder()
		defer flagEnc.Finish()
		flagEnc.WriteSlice(flags)
		_, _ = e.block.Write(flagEnc.Bytes())
	}

	return e.block.Bytes()
}

func (e *Encoder) timestampEncoder() encoding.ColumnEncoder[int64] {
	if e.cfg.tsEncoding == format.TypeRaw {
		return encoding.NewTimestampRawEncoder(e.cfg.engine)
	}

	return encoding.NewTimestampDeltaEncoder()
}

func (e *Encoder) valueEncoder() encoding.ColumnEncoder[float64] {
	if e.cfg.valEncoding == format.TypeGorilla {
		return encoding.NewNumericGorillaEncoder()
	}

	return encoding.NewNumericRawEncoder(e.cfg.engine)
}

func (e *Encoder) writeUvarint(v uint64) {
	n := binary.PutUvarint(e.temp[:], v)
	_, _ = e.block.Write(e.temp[:n])
}

// Finish assembles the blob and releases the encoder's buffers. The encoder
// cannot be used afterwards.
//
// Returns errs.ErrNoSeriesAdded when no series was added.
func (e *Encoder) Finish() ([]byte, error) {
	if e.finished {
		return nil, errs.ErrEncoderFinished
	}
	if len(e.entries) == 0 {
		return nil, errs.ErrNoSeriesAdded
	}
	e.finished = true
	defer e.release()

	meta, err := e.codec.Compress(e.meta.Bytes())
	if err != nil {
		return nil, fmt.Errorf("compress metadata: %w", err)
	}

	payloadOffset := HeaderSize + len(e.entries)*IndexEntrySize
	total := payloadOffset + e.payload.Len() + len(meta)
	if uint64(total) > math.MaxUint32 {
		return nil, fmt.Errorf("%w: blob exceeds %d bytes", errs.ErrInvalidPayloadOffset, uint32(math.MaxUint32))
	}

	h := Header{
		Version:           Version,
		TimestampEncoding: e.cfg.tsEncoding,
		Compression:       e.cfg.compression,
		SeriesCount:       uint32(len(e.entries)), //nolint:gosec
		IndexOffset:       HeaderSize,
		PayloadOffset:     uint32(payloadOffset),   //nolint:gosec
		PayloadSize:       uint32(e.payload.Len()), //nolint:gosec
		MetadataSize:      uint32(len(meta)),       //nolint:gosec
	}
	if endian.IsBig(e.cfg.engine) {
		h.Flags |= headerFlagBigEndian
	}
	if e.cfg.valEncoding == format.TypeGorilla {
		h.Flags |= headerFlagGorillaValues
	}

	out := make([]byte, HeaderSize, total)
	for _, entry := range e.entries {
		out = entry.appendTo(out, e.cfg.engine)
	}
	out = append(out, e.payload.Bytes()...)
	out = append(out, meta...)

	h.Checksum = crc32.ChecksumIEEE(out[HeaderSize:])
	h.put(out[:HeaderSize])

	return out, nil
}

func (e *Encoder) release() {
	pool.PutPayloadBuffer(e.payload)
	pool.PutPayloadBuffer(e.block)
	e.meta.Finish()
	e.payload, e.block, e.meta = nil, nil, nil
}
