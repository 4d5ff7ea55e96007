package stream

import (
	"fmt"
	"log/slog"
	"regexp"

	"github.com/arloliu/tabseries/errs"
)

// Pattern names a regular expression applied to each comment line of the header.
//
// Every match on a line contributes one value: the first capture group when the
// expression has one, otherwise the whole match.
type Pattern struct {
	Name string
	Expr *regexp.Regexp
}

// NewPattern compiles expr into a named Pattern.
func NewPattern(name, expr string) (Pattern, error) {
	if name == "" {
		return Pattern{}, fmt.Errorf("%w: empty name", errs.ErrInvalidPattern)
	}

	re, err := regexp.Compile(expr)
	if err != nil {
		return Pattern{}, fmt.Errorf("%w %q: %w", errs.ErrInvalidPattern, name, err)
	}

	return Pattern{Name: name, Expr: re}, nil
}

// MustPattern is like NewPattern but panics on error. It is intended for
// package-level pattern variables.
func MustPattern(name, expr string) Pattern {
	p, err := NewPattern(name, expr)
	if err != nil {
		panic(err)
	}

	return p
}

// Header is the result of scanning the leading comment block.
type Header struct {
	// Lines holds the comment lines in file order, prefix included.
	Lines []string
	// Matches maps each pattern name to its extracted values in file order. Every
	// requested pattern has an entry, empty when it never matched.
	Matches map[string][]string
}

// Values returns the values extracted for the named pattern.
func (h Header) Values(name string) []string {
	return h.Matches[name]
}

// ParseHeader consumes the comment lines at the current position and applies
// patterns to each one. The first non-comment line is pushed back so the next
// call to Next returns it as data.
//
// The result is also kept and returned by Header.
func (c *Cursor) ParseHeader(patterns ...Pattern) (Header, error) {
	if c.closed {
		return Header{}, errs.ErrCursorClosed
	}

	for _, p := range patterns {
		if p.Name == "" || p.Expr == nil {
			return Header{}, errs.ErrInvalidPattern
		}
	}

	h := Header{Matches: make(map[string][]string, len(patterns))}
	for _, p := range patterns {
		h.Matches[p.Name] = []string{}
	}

	for {
		line, ok, err := c.readLine()
		if err != nil {
			return Header{}, err
		}
		if !ok {
			break
		}
		if !c.isComment(line) {
			c.unread(line)
			break
		}

		h.Lines = append(h.Lines, line)
		for _, p := range patterns {
			for _, m := range p.Expr.FindAllStringSubmatch(line, -1) {
				v := m[0]
				if len(m) > 1 {
					v = m[1]
				}
				h.Matches[p.Name] = append(h.Matches[p.Name], v)
			}
		}
	}

	c.header = h
	c.logger.Debug("parsed comment header",
		slog.Int("comment_lines", len(h.Lines)),
		slog.Int("patterns", len(patterns)))

	return h, nil
}

// Header returns the result of the last ParseHeader call.
func (c *Cursor) Header() Header {
	return c.header
}
