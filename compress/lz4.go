package compress

import (
	"encoding/binary"
	"errors"
	"fmt"
	"sync"

	"github.com/pierrec/lz4/v4"
)

// maxLZ4Payload bounds the size a decompressed payload may claim.
const maxLZ4Payload = 256 << 20

var lz4CompressorPool = sync.Pool{
	New: func() any {
		return &lz4.Compressor{}
	},
}

// LZ4Codec compresses payloads with LZ4 block encoding. The block is prefixed
// with the uncompressed length as a uvarint so decompression allocates once.
type LZ4Codec struct{}

var _ Codec = LZ4Codec{}

func (LZ4Codec) Compress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	dst := make([]byte, binary.MaxVarintLen64+lz4.CompressBlockBound(len(data)))
	n := binary.PutUvarint(dst, uint64(len(data)))

	lc, _ := lz4CompressorPool.Get().(*lz4.Compressor)
	defer lz4CompressorPool.Put(lc)

	m, err := lc.CompressBlock(data, dst[n:])
	if err != nil {
		return nil, err
	}

	return dst[:n+m], nil
}

func (LZ4Codec) Decompress(data []byte) ([]byte, error) {
	if len(data) == 0 {
		return nil, nil
	}

	size, n := binary.Uvarint(data)
	if n <= 0 || size > maxLZ4Payload {
		return nil, errors.New("lz4: invalid payload length prefix")
	}

	out := make([]byte, size)
	m, err := lz4.UncompressBlock(data[n:], out)
	if err != nil {
		return nil, fmt.Errorf("lz4 decompression failed: %w", err)
	}
	if uint64(m) != size {
		return nil, fmt.Errorf("lz4: decompressed %d bytes, expected %d", m, size)
	}

	return out, nil
}
