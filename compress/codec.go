// Package compress provides the codecs applied to blob payloads and to compressed
// input streams.
//
// Block codecs (Codec) compress a whole payload at once and are used by the blob
// package. Stream codecs (NewReader, NewWriter) wrap an io.Reader or io.Writer and
// are used to read compressed delimited files.
//
// Supported algorithms:
//   - None: data passes through unchanged
//   - Zstd: best ratio, moderate speed (klauspost/compress/zstd)
//   - S2: balanced speed and ratio (klauspost/compress/s2)
//   - LZ4: fastest decompression (pierrec/lz4/v4)
package compress

import (
	"fmt"

	"github.com/arloliu/tabseries/format"
)

// Compressor compresses one payload. The returned slice is owned by the caller.
type Compressor interface {
	Compress(data []byte) ([]byte, error)
}

// Decompressor reverses a Compressor of the same algorithm.
type Decompressor interface {
	Decompress(data []byte) ([]byte, error)
}

// Codec combines both directions. Built-in codecs are safe for concurrent use.
type Codec interface {
	Compressor
	Decompressor
}

var builtinCodecs = map[format.CompressionType]Codec{
	format.CompressionNone: NoOpCodec{},
	format.CompressionZstd: ZstdCodec{},
	format.CompressionS2:   S2Codec{},
	format.CompressionLZ4:  LZ4Codec{},
}

// GetCodec returns the built-in codec for c.
func GetCodec(c format.CompressionType) (Codec, error) {
	if codec, ok := builtinCodecs[c]; ok {
		return codec, nil
	}

	return nil, fmt.Errorf("unsupported compression type: %s", c)
}
