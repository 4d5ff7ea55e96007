// Package input prepares a raw byte stream for the delimited text reader.
//
// Wrap layers, in order: decompression, charset decoding, byte order mark removal
// and replacement of invalid UTF-8 with U+FFFD. The last two always apply, so the
// text reaching the tokenizer is valid UTF-8 without a leading BOM.
//
//	f, _ := os.Open("flows.csv.zst")
//	r, err := input.Wrap(f,
//	    input.WithCompression(input.DetectCompression(f.Name())),
//	    input.WithCharset("windows-1252"),
//	)
//	cur, err := stream.NewCursor(r)
package input

import (
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/encoding/ianaindex"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"

	"github.com/arloliu/tabseries/compress"
	"github.com/arloliu/tabseries/format"
	"github.com/arloliu/tabseries/internal/options"
)

// Config holds the settings of Wrap.
type Config struct {
	compression format.CompressionType
	charset     encoding.Encoding
}

func defaultConfig() *Config {
	return &Config{
		compression: format.CompressionNone,
		charset:     encoding.Nop,
	}
}

// Option configures Wrap.
type Option = options.Option[*Config]

// WithCompression decompresses the stream with algorithm c. The default is
// format.CompressionNone.
func WithCompression(c format.CompressionType) Option {
	return options.New(func(cfg *Config) error {
		if !c.Valid() {
			return fmt.Errorf("invalid compression type: %s", c)
		}
		cfg.compression = c

		return nil
	})
}

// WithCharset decodes the stream from the named character set to UTF-8. Names are
// looked up as IANA names first, then as WHATWG labels, so both "ISO-8859-1" and
// "latin1" are accepted. An empty name or "utf-8" leaves the stream as is.
func WithCharset(name string) Option {
	return options.New(func(cfg *Config) error {
		enc, err := LookupCharset(name)
		if err != nil {
			return err
		}
		cfg.charset = enc

		return nil
	})
}

// LookupCharset resolves a character set name. It returns encoding.Nop for UTF-8
// and for an empty name.
func LookupCharset(name string) (encoding.Encoding, error) {
	name = strings.TrimSpace(name)
	switch strings.ToLower(name) {
	case "", "utf-8", "utf8":
		return encoding.Nop, nil
	}

	enc, err := ianaindex.IANA.Encoding(name)
	if err == nil && enc != nil {
		return enc, nil
	}

	enc, err = htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unsupported charset %q: %w", name, err)
	}

	return enc, nil
}

// DetectCompression guesses the compression of a file from its extension:
// .zst and .zstd for zstd, .s2 and .sz for S2, .lz4 for LZ4, and none otherwise.
func DetectCompression(name string) format.CompressionType {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".zst", ".zstd":
		return format.CompressionZstd
	case ".s2", ".sz":
		return format.CompressionS2
	case ".lz4":
		return format.CompressionLZ4
	default:
		return format.CompressionNone
	}
}

// Reader is the prepared stream returned by Wrap.
type Reader struct {
	io.Reader
	closers []io.Closer
	closed  bool
}

// Wrap returns a reader yielding the prepared text of r. Closing it releases the
// decompressor and closes r when r implements io.Closer.
func Wrap(r io.Reader, opts ...Option) (*Reader, error) {
	if r == nil {
		return nil, errors.New("input: nil reader")
	}

	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	dec, err := compress.NewReader(r, cfg.compression)
	if err != nil {
		return nil, err
	}

	text := transform.Chain(
		unicode.BOMOverride(cfg.charset.NewDecoder()),
		runes.ReplaceIllFormed(),
	)

	in := &Reader{
		Reader:  transform.NewReader(dec, text),
		closers: []io.Closer{dec},
	}
	if c, ok := r.(io.Closer); ok {
		in.closers = append(in.closers, c)
	}

	return in, nil
}

// Close releases the decompressor and closes the underlying reader. It is safe to
// call more than once.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var errList []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errList = append(errList, err)
		}
	}

	return errors.Join(errList...)
}
