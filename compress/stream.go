package compress

import (
	"fmt"
	"io"

	"github.com/klauspost/compress/s2"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"

	"github.com/arloliu/tabseries/format"
)

// NewReader returns a reader decompressing the stream r with algorithm c.
// Closing the result releases decoder resources; it does not close r.
//
// S2 streams use the framed S2 format and LZ4 streams the LZ4 frame format, not
// the block format of the payload codecs.
func NewReader(r io.Reader, c format.CompressionType) (io.ReadCloser, error) {
	switch c {
	case format.CompressionNone:
		return io.NopCloser(r), nil
	case format.CompressionZstd:
		dec, err := zstd.NewReader(r, zstd.WithDecoderConcurrency(1))
		if err != nil {
			return nil, fmt.Errorf("open zstd stream: %w", err)
		}

		return zstdReadCloser{dec}, nil
	case format.CompressionS2:
		return io.NopCloser(s2.NewReader(r)), nil
	case format.CompressionLZ4:
		return io.NopCloser(lz4.NewReader(r)), nil
	default:
		return nil, fmt.Errorf("unsupported compression type: %s", c)
	}
}

// NewWriter returns a writer compressing into w with algorithm c. Close flushes
// the final frame; it does not close w.
func NewWriter(w io.Writer, c format.CompressionType) (io.WriteCloser, error) {
	switch c {
	case format.CompressionNone:
		return nopWriteCloser{w}, nil
	case format.CompressionZstd:
		enc, err := zstd.NewWriter(w)
		if err != nil {
			return nil, fmt.Errorf("open zstd writer: %w", err)
		}

		return enc, nil
	case format.CompressionS2:
		return s2.NewWriter(w), nil
	case format.CompressionLZ4:
		return lz4.NewWriter(w), nil
	default:
		return nil, fmt.Errorf("unsupported compression type: %s", c)
	}
}

type zstdReadCloser struct {
	*zstd.Decoder
}

func (z zstdReadCloser) Close() error {
	z.Decoder.Close()
	return nil
}

type nopWriteCloser struct {
	io.Writer
}

func (nopWriteCloser) Close() error { return nil }
