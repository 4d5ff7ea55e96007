// Package blob stores assembled series in a compact binary container.
//
// A blob holds any number of series, each identified by its string identifier and
// indexed by the identifier's xxHash64. The layout is:
//
//	+------------------+ 0
//	| header (32B)     |
//	+------------------+ 32
//	| index entries    | 48 bytes per series, in insertion order
//	+------------------+ payload offset
//	| series blocks    | one compressed block per series
//	+------------------+ payload offset + payload size
//	| metadata block   | compressed identifiers, units and descriptions
//	+------------------+
//
// Each series block holds a timestamp column (absent for regular series, whose
// times follow from start and interval), a value column (raw float64 or Gorilla
// XOR) and, when any point carries one, a flag column. The header records the byte
// order, the column encodings and the compression shared by all blocks. A CRC32 of
// everything after the header detects corruption.
//
// # Encoding
//
//	enc, err := blob.NewEncoder(
//	    blob.WithTimestampEncoding(format.TypeDelta),
//	    blob.WithCompression(format.CompressionZstd),
//	)
//	for _, s := range assembled {
//	    if err := enc.Add(s); err != nil {
//	        return err
//	    }
//	}
//	data, err := enc.Finish()
//
// # Decoding
//
//	r, err := blob.Decode(data)
//	flow, err := r.Series("flow")
//	for s, err := range r.All() {
//	    ...
//	}
//
// Times are stored as Unix microseconds and decode in UTC. Sub-microsecond
// precision is truncated on encode, so such times do not survive a round trip.
// A regular interval must be a whole number of microseconds.
package blob
