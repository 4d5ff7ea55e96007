package blob

import (
	"fmt"

	"github.com/arloliu/tabseries/endian"
	"github.com/arloliu/tabseries/format"
	"github.com/arloliu/tabseries/internal/options"
)

// MaxSeriesCount is the largest number of series one blob can hold.
const MaxSeriesCount = 65536

// EncoderConfig holds the settings of an Encoder.
type EncoderConfig struct {
	tsEncoding  format.EncodingType
	valEncoding format.EncodingType
	compression format.CompressionType
	engine      endian.Engine
}

func defaultEncoderConfig() *EncoderConfig {
	return &EncoderConfig{
		tsEncoding:  format.TypeDelta,
		valEncoding: format.TypeRaw,
		compression: format.CompressionZstd,
		engine:      endian.Little(),
	}
}

// EncoderOption configures an Encoder.
type EncoderOption = options.Option[*EncoderConfig]

// WithTimestampEncoding sets the timestamp column encoding of irregular series.
// The default is format.TypeDelta.
func WithTimestampEncoding(enc format.EncodingType) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		return c.setTimestampEncoding(enc)
	})
}

// WithValueEncoding sets the value column encoding: format.TypeRaw (the default)
// or format.TypeGorilla.
func WithValueEncoding(enc format.EncodingType) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		switch enc {
		case format.TypeRaw, format.TypeGorilla:
			c.valEncoding = enc
			return nil
		default:
			return fmt.Errorf("invalid value encoding: %s", enc)
		}
	})
}

// WithCompression sets the codec applied to every series block and the metadata
// block. The default is format.CompressionZstd.
func WithCompression(comp format.CompressionType) EncoderOption {
	return options.New(func(c *EncoderConfig) error {
		return c.setCompression(comp)
	})
}

// WithBigEndian stores fixed-width fields in big-endian order.
func WithBigEndian() EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.engine = endian.Big()
	})
}

// WithLittleEndian stores fixed-width fields in little-endian order. This is the
// default.
func WithLittleEndian() EncoderOption {
	return options.NoError(func(c *EncoderConfig) {
		c.engine = endian.Little()
	})
}

func (c *EncoderConfig) setTimestampEncoding(enc format.EncodingType) error {
	switch enc {
	case format.TypeRaw, format.TypeDelta:
		c.tsEncoding = enc
		return nil
	default:
		return fmt.Errorf("invalid timestamp encoding: %s", enc)
	}
}

func (c *EncoderConfig) setCompression(comp format.CompressionType) error {
	if !comp.Valid() {
		return fmt.Errorf("invalid compression type: %s", comp)
	}
	c.compression = comp

	return nil
}
