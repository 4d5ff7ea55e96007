package compress

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tabseries/format"
)

var allCompressions = []format.CompressionType{
	format.CompressionNone,
	format.CompressionZstd,
	format.CompressionS2,
	format.CompressionLZ4,
}

func samplePayload() []byte {
	var b strings.Builder
	for i := range 500 {
		b.WriteString("2020-01-01T00:00,")
		b.WriteByte(byte('0' + i%10))
		b.WriteString(",ok\n")
	}

	return []byte(b.String())
}

func TestCodec_RoundTrip(t *testing.T) {
	payload := samplePayload()

	for _, c := range allCompressions {
		t.Run(c.String(), func(t *testing.T) {
			codec, err := GetCodec(c)
			require.NoError(t, err)

			compressed, err := codec.Compress(payload)
			require.NoError(t, err)
			if c != format.CompressionNone {
				require.Less(t, len(compressed), len(payload))
			}

			out, err := codec.Decompress(compressed)
			require.NoError(t, err)
			require.Equal(t, payload, out)
		})
	}
}

func TestCodec_Empty(t *testing.T) {
	for _, c := range allCompressions {
		codec, err := GetCodec(c)
		require.NoError(t, err)

		compressed, err := codec.Compress(nil)
		require.NoError(t, err)
		require.Empty(t, compressed)

		out, err := codec.Decompress(compressed)
		require.NoError(t, err)
		require.Empty(t, out)
	}
}

func TestCodec_SmallIncompressible(t *testing.T) {
	payload := []byte{0x01, 0x7f, 0x33}

	for _, c := range allCompressions {
		codec, err := GetCodec(c)
		require.NoError(t, err)

		compressed, err := codec.Compress(payload)
		require.NoError(t, err, c.String())
		out, err := codec.Decompress(compressed)
		require.NoError(t, err, c.String())
		require.Equal(t, payload, out, c.String())
	}
}

func TestCodec_CorruptInput(t *testing.T) {
	garbage := []byte("definitely not compressed data")

	for _, c := range []format.CompressionType{format.CompressionZstd, format.CompressionS2} {
		codec, err := GetCodec(c)
		require.NoError(t, err)

		_, err = codec.Decompress(garbage)
		require.Error(t, err, c.String())
	}

	_, err := LZ4Codec{}.Decompress([]byte{0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0xff, 0x01})
	require.Error(t, err)
}

func TestGetCodec_Unknown(t *testing.T) {
	_, err := GetCodec(format.CompressionType(0))
	require.Error(t, err)
}

func TestStream_RoundTrip(t *testing.T) {
	payload := samplePayload()

	for _, c := range allCompressions {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			w, err := NewWriter(&buf, c)
			require.NoError(t, err)
			_, err = w.Write(payload)
			require.NoError(t, err)
			require.NoError(t, w.Close())

			r, err := NewReader(&buf, c)
			require.NoError(t, err)
			defer r.Close()

			out, err := io.ReadAll(r)
			require.NoError(t, err)
			require.Equal(t, payload, out)
		})
	}
}

func TestStream_Unknown(t *testing.T) {
	_, err := NewReader(strings.NewReader(""), format.CompressionType(42))
	require.Error(t, err)
	_, err = NewWriter(io.Discard, format.CompressionType(42))
	require.Error(t, err)
}
