// Package config loads the description of one conversion job: where the table
// comes from, how its date/time column is parsed, which columns become series and
// how the result is written.
//
// A job is read from YAML, then environment variables prefixed with TABSERIES
// override scalar settings (for example TABSERIES_SOURCE_PATH or
// TABSERIES_OUTPUT_COMPRESSION), then defaults are filled in and the result is
// validated.
//
//	source:
//	  path: flows.csv.zst
//	  header_patterns:
//	    site: 'site:\s*(\w+)'
//	date:
//	  column: 0
//	  layouts: ["2006-01-02 15:04"]
//	  location: America/Denver
//	series:
//	  - id: flow
//	    column: 1
//	    flag_column: 2
//	    interval: 15m
//	    units: cfs
//	output:
//	  path: flows.tbs
//	  compression: zstd
//	  value_encoding: gorilla
package config

import (
	"fmt"
	"os"
	"time"
	_ "time/tzdata"
	"unicode/utf8"

	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v2"
)

// EnvPrefix prefixes every environment override.
const EnvPrefix = "TABSERIES"

// Source formats.
const (
	FormatDelimited = "delimited"
	FormatWorkbook  = "xlsx"
)

// Job is a complete conversion job.
//
// Environment keys are derived from field names: TABSERIES_<SECTION>_<FIELD>,
// with words separated by underscores. Series and header patterns are file only.
type Job struct {
	Source  SourceConfig   `yaml:"source"`
	Date    DateConfig     `yaml:"date"`
	Series  []SeriesConfig `yaml:"series" ignored:"true" validate:"required,min=1,unique=ID,dive"`
	Output  OutputConfig   `yaml:"output"`
	Logging LoggingConfig  `yaml:"logging"`
}

// SourceConfig describes the input table.
type SourceConfig struct {
	Path   string `yaml:"path" validate:"required"`
	Format string `yaml:"format" validate:"oneof=delimited xlsx"`
	// Delimiter is a single character; the default is a comma.
	Delimiter string `yaml:"delimiter" validate:"len=1"`
	// CommentPrefix defaults to "#"; an explicit empty string disables comments.
	CommentPrefix *string `yaml:"comment_prefix" split_words:"true"`
	// Columns fixes the column count; 0 takes it from the first data row.
	Columns int `yaml:"columns" validate:"gte=0"`
	// Charset names the text encoding; empty means UTF-8.
	Charset string `yaml:"charset" validate:"omitempty,charset"`
	// Compression is none, zstd, s2 or lz4; empty detects it from the path.
	Compression string `yaml:"compression" validate:"omitempty,compression"`
	// Sheet selects the worksheet of an xlsx source; empty means the first.
	Sheet string `yaml:"sheet"`
	// SkipRows skips leading rows of an xlsx source.
	SkipRows int `yaml:"skip_rows" split_words:"true" validate:"gte=0"`
	// HeaderPatterns maps annotation names to expressions applied to the leading
	// comment block of a delimited source.
	HeaderPatterns map[string]string `yaml:"header_patterns" ignored:"true" validate:"dive,keys,required,endkeys,regexp"`
}

// DateConfig describes the date/time column.
type DateConfig struct {
	Column int `yaml:"column" validate:"gte=0"`
	// Layouts are Go reference layouts tried in order; empty auto-detects.
	Layouts []string `yaml:"layouts" validate:"dive,required"`
	// Location is an IANA zone name applied to times without an offset.
	Location string `yaml:"location" validate:"omitempty,timezone"`
}

// SeriesConfig describes one output series.
type SeriesConfig struct {
	ID     string `yaml:"id" validate:"required"`
	Column int    `yaml:"column" validate:"gte=0"`
	// FlagColumn is the optional column holding point flags.
	FlagColumn *int `yaml:"flag_column" validate:"omitempty,gte=0"`
	// Interval makes the series regular.
	Interval    time.Duration `yaml:"interval" validate:"gte=0"`
	Units       string        `yaml:"units"`
	Description string        `yaml:"description"`
}

// OutputConfig describes the blob written for the assembled series.
type OutputConfig struct {
	Path              string `yaml:"path"`
	TimestampEncoding string `yaml:"timestamp_encoding" split_words:"true" validate:"oneof=raw delta"`
	ValueEncoding     string `yaml:"value_encoding" split_words:"true" validate:"oneof=raw gorilla"`
	Compression       string `yaml:"compression" validate:"compression"`
	BigEndian         bool   `yaml:"big_endian" split_words:"true"`
}

// LoggingConfig selects the log level and format of command line tools.
type LoggingConfig struct {
	Level  string `yaml:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" validate:"oneof=text json"`
}

// Load reads the job file at path. See Parse.
func Load(path string) (*Job, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read job file: %w", err)
	}

	job, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("job file %s: %w", path, err)
	}

	return job, nil
}

// Parse decodes a YAML job, applies environment overrides and defaults, and
// validates the result. Unknown YAML keys are rejected.
func Parse(data []byte) (*Job, error) {
	var job Job
	if err := yaml.UnmarshalStrict(data, &job); err != nil {
		return nil, fmt.Errorf("decode job: %w", err)
	}

	if err := envconfig.Process(EnvPrefix, &job); err != nil {
		return nil, fmt.Errorf("load job from env: %w", err)
	}

	job.applyDefaults()

	if err := job.Validate(); err != nil {
		return nil, err
	}

	return &job, nil
}

func (j *Job) applyDefaults() {
	if j.Source.Format == "" {
		j.Source.Format = FormatDelimited
	}
	if j.Source.Delimiter == "" {
		j.Source.Delimiter = ","
	}
	if j.Source.CommentPrefix == nil {
		prefix := "#"
		j.Source.CommentPrefix = &prefix
	}
	if j.Output.TimestampEncoding == "" {
		j.Output.TimestampEncoding = "delta"
	}
	if j.Output.ValueEncoding == "" {
		j.Output.ValueEncoding = "raw"
	}
	if j.Output.Compression == "" {
		j.Output.Compression = "zstd"
	}
	if j.Logging.Level == "" {
		j.Logging.Level = "info"
	}
	if j.Logging.Format == "" {
		j.Logging.Format = "text"
	}
}

// DelimiterRune returns the field delimiter.
func (s *SourceConfig) DelimiterRune() rune {
	r, _ := utf8.DecodeRuneInString(s.Delimiter)
	return r
}

// Comments returns the comment prefix, empty when comments are disabled.
func (s *SourceConfig) Comments() string {
	if s.CommentPrefix == nil {
		return "#"
	}

	return *s.CommentPrefix
}
