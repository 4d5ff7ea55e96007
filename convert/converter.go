// Package convert turns raw text cells into typed values.
//
// A Converter is a small closed set of kinds (identity, float, date/time) plus a
// custom function kind. Converters are pure: the same raw value always converts to
// the same result or always fails the same way, so cursors in this package convert
// on every read instead of caching.
//
// Builder assigns converters per column and produces either a streaming Cursor or
// a ScrollableCursor, materializing stream sources into a row.Table when random
// access is requested.
package convert

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/arloliu/tabseries/errs"
)

// Kind identifies the conversion a Converter performs.
type Kind uint8

const (
	// KindIdentity passes the raw value through unchanged.
	KindIdentity Kind = iota
	// KindFloat parses text into a float64.
	KindFloat
	// KindDateTime parses text into a time.Time.
	KindDateTime
	// KindCustom calls a user supplied Func.
	KindCustom
)

func (k Kind) String() string {
	switch k {
	case KindIdentity:
		return "Identity"
	case KindFloat:
		return "Float"
	case KindDateTime:
		return "DateTime"
	case KindCustom:
		return "Custom"
	default:
		return fmt.Sprintf("Kind(%d)", k)
	}
}

// Func is the signature of a custom conversion. It must be deterministic for a
// given input.
type Func func(raw any) (any, error)

// Converter converts one raw cell. The zero value is the identity converter.
type Converter struct {
	kind     Kind
	dateTime *DateTimeConfig
	fn       Func
}

var (
	// Identity returns the raw value unchanged.
	Identity = Converter{kind: KindIdentity}
	// Float parses decimal text into a float64. Blank text and nil convert to
	// NaN, which is series.Missing, so absent cells reach the container already
	// marked missing and the assembler never substitutes a value.
	Float = Converter{kind: KindFloat}
)

// Custom returns a converter that calls fn. A nil fn behaves like Identity.
func Custom(fn Func) Converter {
	if fn == nil {
		return Identity
	}

	return Converter{kind: KindCustom, fn: fn}
}

// Kind returns the converter kind.
func (c Converter) Kind() Kind {
	return c.kind
}

// Convert converts raw. Failures are returned as *ConversionError with Column set
// to -1; cursors fill in the column.
func (c Converter) Convert(raw any) (any, error) {
	switch c.kind {
	case KindIdentity:
		return raw, nil
	case KindFloat:
		return convertFloat(raw)
	case KindDateTime:
		cfg := c.dateTime
		if cfg == nil {
			cfg = defaultDateTimeConfig()
		}

		return convertDateTime(raw, cfg)
	case KindCustom:
		v, err := c.fn(raw)
		if err != nil {
			var ce *ConversionError
			if errors.As(err, &ce) {
				return nil, err
			}

			return nil, &ConversionError{Raw: rawText(raw), Column: -1, Err: err}
		}

		return v, nil
	default:
		return nil, fmt.Errorf("%w: unknown converter kind %d", errs.ErrConversion, c.kind)
	}
}

func convertFloat(raw any) (any, error) {
	switch v := raw.(type) {
	case float64:
		return v, nil
	case float32:
		return float64(v), nil
	case int:
		return float64(v), nil
	case int64:
		return float64(v), nil
	case string:
		s := strings.TrimSpace(v)
		if s == "" {
			return math.NaN(), nil
		}

		f, err := strconv.ParseFloat(s, 64)
		if err != nil {
			var numErr *strconv.NumError
			if errors.As(err, &numErr) {
				err = numErr.Err
			}

			return nil, &ConversionError{Raw: v, Column: -1, Err: err}
		}

		return f, nil
	case nil:
		return math.NaN(), nil
	default:
		return nil, &ConversionError{Raw: rawText(raw), Column: -1, Err: fmt.Errorf("unsupported type %T", raw)}
	}
}

func convertDateTime(raw any, cfg *DateTimeConfig) (any, error) {
	switch v := raw.(type) {
	case time.Time:
		return v, nil
	case string:
		t, err := cfg.parse(v)
		if err != nil {
			return nil, &ConversionError{Raw: v, Column: -1, Err: err}
		}

		return t, nil
	default:
		return nil, &ConversionError{Raw: rawText(raw), Column: -1, Err: fmt.Errorf("unsupported type %T", raw)}
	}
}

func rawText(raw any) string {
	switch v := raw.(type) {
	case nil:
		return ""
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

// ConversionError reports a cell that its converter could not convert.
type ConversionError struct {
	// Raw is the original cell text.
	Raw string
	// Column is the source column index, -1 when the conversion happened outside
	// a cursor.
	Column int
	// Err is the underlying parse failure.
	Err error
}

func (e *ConversionError) Error() string {
	if e.Column >= 0 {
		return fmt.Sprintf("column %d: cannot convert %q: %v", e.Column, e.Raw, e.Err)
	}

	return fmt.Sprintf("cannot convert %q: %v", e.Raw, e.Err)
}

// Is matches errs.ErrConversion.
func (e *ConversionError) Is(target error) bool {
	return target == errs.ErrConversion
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

// withColumn returns err with the column set when it is a ConversionError, or a
// new ConversionError wrapping it otherwise.
func withColumn(err error, raw any, col int) error {
	var ce *ConversionError
	if errors.As(err, &ce) {
		cp := *ce
		cp.Column = col

		return &cp
	}

	return &ConversionError{Raw: rawText(raw), Column: col, Err: err}
}
