// Package tabseries turns tabular text into time series and stores them in a
// compact binary blob.
//
// The building blocks live in subpackages:
//   - tokenizer splits one line of delimited text into fields
//   - stream and workbook provide row cursors over delimited text and xlsx sheets
//   - row holds the cursor contract and the in-memory Table
//   - convert types raw cells and adds random access over a forward-only cursor
//   - assemble collects rows into series keyed by the date/time column
//   - blob encodes and decodes sets of series
//
// This package wires them together for the common cases.
//
// # Reading Series
//
// ReadSeries reads delimited text described by a Spec:
//
//	flag := 3
//	ss, err := tabseries.ReadSeries(f, tabseries.Spec{
//	    DateColumn:  0,
//	    DateLayouts: []string{"2006-01-02 15:04"},
//	    Series: []tabseries.SeriesSpec{
//	        {ID: "flow", Column: 1, FlagColumn: &flag, Interval: 15 * time.Minute, Units: "cfs"},
//	        {ID: "stage", Column: 2},
//	    },
//	})
//
// ReadSeriesWithConfig does the same for a job loaded by the config package and
// also handles compressed input, charsets, header annotations and xlsx sources.
//
// # Storing Series
//
//	data, err := tabseries.EncodeSeries(ss, blob.WithCompression(format.CompressionZstd))
//	...
//	ss, err = tabseries.DecodeSeries(data)
package tabseries

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/arloliu/tabseries/assemble"
	"github.com/arloliu/tabseries/blob"
	"github.com/arloliu/tabseries/config"
	"github.com/arloliu/tabseries/convert"
	"github.com/arloliu/tabseries/input"
	"github.com/arloliu/tabseries/internal/options"
	"github.com/arloliu/tabseries/row"
	"github.com/arloliu/tabseries/series"
	"github.com/arloliu/tabseries/stream"
	"github.com/arloliu/tabseries/workbook"
)

// Spec describes how the columns of delimited text map to series.
type Spec struct {
	// DateColumn is the zero-based date/time column.
	DateColumn int
	// DateLayouts are Go reference layouts tried in order. Empty uses
	// convert.DefaultLayouts.
	DateLayouts []string
	// Location applies to times without an offset. Nil means UTC.
	Location *time.Location
	// Series lists the value columns to collect.
	Series []SeriesSpec
	// StreamOptions configure the underlying stream.Cursor.
	StreamOptions []stream.Option
}

// SeriesSpec describes one series.
type SeriesSpec struct {
	ID     string
	Column int
	// FlagColumn is the optional column holding point flags.
	FlagColumn *int
	// Interval makes the series regular when positive.
	Interval    time.Duration
	Units       string
	Description string
}

// Config holds the settings shared by the read functions.
type Config struct {
	logger *slog.Logger
}

func defaultConfig() *Config {
	return &Config{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
}

// Option configures ReadSeries and ReadSeriesWithConfig.
type Option = options.Option[*Config]

// WithLogger sets the logger passed down to the cursor and the assembler. The
// default discards output.
func WithLogger(logger *slog.Logger) Option {
	return options.NoError(func(cfg *Config) {
		if logger != nil {
			cfg.logger = logger
		}
	})
}

// Result is the outcome of ReadSeriesWithConfig.
type Result struct {
	// Series holds the assembled series in configuration order.
	Series []*series.Series
	// Header holds the comment block of a delimited source. It is empty for xlsx
	// sources.
	Header stream.Header
}

// ReadSeries reads delimited text from r and assembles the series described by
// spec. r is read to the end or to the first blank line; it is not closed.
func ReadSeries(r io.Reader, spec Spec, opts ...Option) ([]*series.Series, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	streamOpts := append([]stream.Option{stream.WithLogger(cfg.logger)}, spec.StreamOptions...)
	cur, err := stream.NewCursor(struct{ io.Reader }{r}, streamOpts...)
	if err != nil {
		return nil, err
	}
	defer cur.Close()

	var dateOpts []convert.DateTimeOption
	if len(spec.DateLayouts) > 0 {
		dateOpts = append(dateOpts, convert.WithLayouts(spec.DateLayouts...))
	}
	if spec.Location != nil {
		dateOpts = append(dateOpts, convert.WithLocation(spec.Location))
	}
	dateConv, err := convert.DateTime(dateOpts...)
	if err != nil {
		return nil, err
	}

	return assembleSeries(cur, spec.DateColumn, dateConv, spec.Series, cfg.logger)
}

// ReadSeriesWithConfig reads the source described by job from r and assembles its
// series. r is not closed.
//
// Delimited sources are decompressed and decoded from the configured charset,
// and the leading comment block is scanned with the job's header patterns.
func ReadSeriesWithConfig(r io.Reader, job *config.Job, opts ...Option) (*Result, error) {
	if job == nil {
		return nil, errors.New("nil job")
	}

	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	dateConv, err := job.Date.Converter()
	if err != nil {
		return nil, err
	}

	specs := make([]SeriesSpec, len(job.Series))
	for i, s := range job.Series {
		specs[i] = SeriesSpec{
			ID:          s.ID,
			Column:      s.Column,
			FlagColumn:  s.FlagColumn,
			Interval:    s.Interval,
			Units:       s.Units,
			Description: s.Description,
		}
	}

	if job.Source.Format == config.FormatWorkbook {
		cur, err := workbook.Open(r, job.Source.Sheet, workbookOptions(&job.Source)...)
		if err != nil {
			return nil, err
		}
		defer cur.Close()

		cfg.logger.Debug("reading workbook", slog.String("sheet", cur.Sheet()), slog.Int("columns", cur.Len()))

		ss, err := assembleSeries(cur, job.Date.Column, dateConv, specs, cfg.logger)
		if err != nil {
			return nil, err
		}

		return &Result{Series: ss}, nil
	}

	comp, err := job.Source.CompressionType()
	if err != nil {
		return nil, err
	}
	in, err := input.Wrap(struct{ io.Reader }{r},
		input.WithCompression(comp),
		input.WithCharset(job.Source.Charset),
	)
	if err != nil {
		return nil, err
	}

	streamOpts := []stream.Option{
		stream.WithDelimiter(job.Source.DelimiterRune()),
		stream.WithCommentPrefix(job.Source.Comments()),
		stream.WithLogger(cfg.logger),
	}
	if job.Source.Columns > 0 {
		streamOpts = append(streamOpts, stream.WithColumnCount(job.Source.Columns))
	}

	cur, err := stream.NewCursor(in, streamOpts...)
	if err != nil {
		_ = in.Close()
		return nil, err
	}
	defer cur.Close()

	patterns := make([]stream.Pattern, 0, len(job.Source.HeaderPatterns))
	for name, expr := range job.Source.HeaderPatterns {
		p, err := stream.NewPattern(name, expr)
		if err != nil {
			return nil, err
		}
		patterns = append(patterns, p)
	}

	header, err := cur.ParseHeader(patterns...)
	if err != nil {
		return nil, err
	}

	ss, err := assembleSeries(cur, job.Date.Column, dateConv, specs, cfg.logger)
	if err != nil {
		return nil, err
	}

	return &Result{Series: ss, Header: header}, nil
}

func workbookOptions(src *config.SourceConfig) []workbook.Option {
	var opts []workbook.Option
	if src.SkipRows > 0 {
		opts = append(opts, workbook.WithSkipRows(src.SkipRows))
	}
	if src.Columns > 0 {
		opts = append(opts, workbook.WithColumnCount(src.Columns))
	}

	return opts
}

func assembleSeries(cur row.Cursor, dateCol int, dateConv convert.Converter, specs []SeriesSpec, logger *slog.Logger) ([]*series.Series, error) {
	if len(specs) == 0 {
		return nil, errors.New("no series requested")
	}

	factory := series.NewFactory()
	for _, s := range specs {
		var opts []series.Option
		if s.Interval > 0 {
			opts = append(opts, series.WithInterval(s.Interval))
		}
		if s.Units != "" {
			opts = append(opts, series.WithUnits(s.Units))
		}
		if s.Description != "" {
			opts = append(opts, series.WithDescription(s.Description))
		}
		factory.For(s.ID, opts...)
	}

	asm, err := assemble.New[*series.Series](cur, factory, assemble.WithLogger(logger))
	if err != nil {
		return nil, err
	}
	if err := asm.SetDateColumn(dateCol); err != nil {
		return nil, err
	}
	if err := asm.SetDateTimeConverter(dateConv); err != nil {
		return nil, err
	}

	for _, s := range specs {
		ci, err := asm.AddTimeSeriesColumn(s.Column, s.ID)
		if err != nil {
			return nil, fmt.Errorf("series %q: %w", s.ID, err)
		}
		if s.FlagColumn != nil {
			if err := ci.SetFlagColumn(*s.FlagColumn); err != nil {
				return nil, fmt.Errorf("series %q: %w", s.ID, err)
			}
		}
	}

	return asm.Assemble()
}

// EncodeSeries encodes ss into a single blob.
func EncodeSeries(ss []*series.Series, opts ...blob.EncoderOption) ([]byte, error) {
	enc, err := blob.NewEncoder(opts...)
	if err != nil {
		return nil, err
	}

	for _, s := range ss {
		if err := enc.Add(s); err != nil {
			return nil, err
		}
	}

	return enc.Finish()
}

// DecodeSeries decodes every series of a blob in insertion order.
func DecodeSeries(data []byte) ([]*series.Series, error) {
	r, err := blob.Decode(data)
	if err != nil {
		return nil, err
	}

	out := make([]*series.Series, 0, r.Len())
	for s, err := range r.All() {
		if err != nil {
			return nil, err
		}
		out = append(out, s)
	}

	return out, nil
}

// OutputOptions translates an output configuration into encoder options.
func OutputOptions(out *config.OutputConfig) ([]blob.EncoderOption, error) {
	tsEnc, err := out.TimestampEncodingType()
	if err != nil {
		return nil, err
	}
	valEnc, err := out.ValueEncodingType()
	if err != nil {
		return nil, err
	}
	comp, err := out.CompressionType()
	if err != nil {
		return nil, err
	}

	opts := []blob.EncoderOption{
		blob.WithTimestampEncoding(tsEnc),
		blob.WithValueEncoding(valEnc),
		blob.WithCompression(comp),
	}
	if out.BigEndian {
		opts = append(opts, blob.WithBigEndian())
	}

	return opts, nil
}
