// Package tokenizer splits one line of delimited text into fields.
//
// Fields are separated by a single delimiter character. A field that begins with a
// double quote runs to the matching closing quote, may contain the delimiter, and
// uses a doubled quote ("") for one literal quote character. Quoted field content is
// kept verbatim; unquoted fields are trimmed of surrounding whitespace.
//
// The tokenizer never fails. A quote that is never closed extends its field to the
// end of the line, which is how real-world exports with stray quotes are recovered.
package tokenizer

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/arloliu/tabseries/errs"
)

const (
	// DefaultDelimiter separates fields when no delimiter is configured.
	DefaultDelimiter = ','
	// Quote opens and closes a quoted field.
	Quote = '"'
)

// Tokenizer splits lines using a fixed delimiter.
//
// A Tokenizer keeps a scratch buffer for quoted fields that contain escaped quotes,
// so it must not be shared between goroutines.
type Tokenizer struct {
	delim    rune
	delimStr string
	scratch  []byte
}

// New creates a tokenizer for delim. The delimiter must be a valid character other
// than the quote, carriage return or line feed.
func New(delim rune) (*Tokenizer, error) {
	if err := ValidateDelimiter(delim); err != nil {
		return nil, err
	}

	return &Tokenizer{
		delim:    delim,
		delimStr: string(delim),
	}, nil
}

// ValidateDelimiter reports whether delim can separate fields.
func ValidateDelimiter(delim rune) error {
	if delim == Quote || delim == '\r' || delim == '\n' || delim == 0 || !utf8.ValidRune(delim) || delim == utf8.RuneError {
		return fmt.Errorf("%w: %q", errs.ErrInvalidDelimiter, delim)
	}

	return nil
}

// Delimiter returns the configured delimiter.
func (t *Tokenizer) Delimiter() rune {
	return t.delim
}

// Split appends the fields of line to dst[:0] and returns the result. Passing the
// previous result as dst reuses its backing array across calls.
//
// An empty line yields one empty field, and a line ending on the delimiter yields a
// trailing empty field.
func (t *Tokenizer) Split(line string, dst []string) []string {
	dst = dst[:0]
	pos := 0
	for {
		field, next, more := t.scanField(line, pos)
		dst = append(dst, field)
		if !more {
			return dst
		}
		pos = next
	}
}

// Count returns the number of fields in line without materializing them.
func (t *Tokenizer) Count(line string) int {
	n := 0
	pos := 0
	for {
		_, next, more := t.scanField(line, pos)
		n++
		if !more {
			return n
		}
		pos = next
	}
}

// scanField reads the field starting at pos. It returns the field, the position
// just past the delimiter that ended it, and whether another field follows.
func (t *Tokenizer) scanField(line string, pos int) (string, int, bool) {
	start := t.skipBlanks(line, pos)
	if start < len(line) && line[start] == Quote {
		return t.scanQuoted(line, start+1)
	}

	idx := strings.Index(line[pos:], t.delimStr)
	if idx < 0 {
		return strings.TrimSpace(line[pos:]), len(line), false
	}

	end := pos + idx

	return strings.TrimSpace(line[pos:end]), end + len(t.delimStr), true
}

// scanQuoted reads quoted content starting just after the opening quote.
func (t *Tokenizer) scanQuoted(line string, pos int) (string, int, bool) {
	t.scratch = t.scratch[:0]
	escaped := false
	segment := pos

	for i := pos; i < len(line); i++ {
		if line[i] != Quote {
			continue
		}

		// A doubled quote is one literal quote character.
		if i+1 < len(line) && line[i+1] == Quote {
			t.scratch = append(t.scratch, line[segment:i+1]...)
			escaped = true
			i++
			segment = i + 1

			continue
		}

		// A closing quote must be followed by the delimiter or the end of line,
		// optionally after blanks. Any other quote is kept literally.
		after := t.skipBlanks(line, i+1)
		if after < len(line) && !strings.HasPrefix(line[after:], t.delimStr) {
			continue
		}

		field := t.quotedValue(line[segment:i], escaped)
		if after >= len(line) {
			return field, len(line), false
		}

		return field, after + len(t.delimStr), true
	}

	// Unterminated quote: the rest of the line belongs to the field.
	return t.quotedValue(line[segment:], escaped), len(line), false
}

func (t *Tokenizer) quotedValue(tail string, escaped bool) string {
	if !escaped {
		return tail
	}
	t.scratch = append(t.scratch, tail...)

	return string(t.scratch)
}

// skipBlanks advances past spaces and tabs that are not the delimiter.
func (t *Tokenizer) skipBlanks(line string, pos int) int {
	for pos < len(line) {
		c := line[pos]
		if (c != ' ' && c != '\t') || rune(c) == t.delim {
			break
		}
		pos++
	}

	return pos
}

// Split splits line with delim using a temporary tokenizer. Invalid delimiters
// fall back to DefaultDelimiter.
func Split(line string, delim rune) []string {
	t, err := New(delim)
	if err != nil {
		t, _ = New(DefaultDelimiter)
	}

	return t.Split(line, nil)
}

// QuoteField renders value as a field that splits back to exactly value: it is
// wrapped in quotes with inner quotes doubled whenever it contains the delimiter,
// a quote, a line break, or leading or trailing whitespace.
func QuoteField(value string, delim rune) string {
	needs := strings.ContainsRune(value, delim) ||
		strings.ContainsAny(value, "\"\r\n") ||
		strings.TrimSpace(value) != value

	if !needs {
		return value
	}

	return `"` + strings.ReplaceAll(value, `"`, `""`) + `"`
}
