// Package stream implements a forward-only row cursor over line-oriented
// delimited text.
//
// The cursor reads one line per row and splits it into fields only when a value of
// that row is first requested. Lines starting with the comment prefix are skipped,
// and the leading comment block can be scanned for annotations with ParseHeader.
//
// A blank or whitespace-only line ends the stream: Next returns false and any rows
// after it are never read. This matches the behavior of the legacy readers whose
// files this package consumes, including files where the blank line is not the
// last line.
//
// The column count is fixed once, from the first non-comment line or from
// WithColumnCount, and every row must split into exactly that many fields.
package stream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/internal/options"
	"github.com/arloliu/tabseries/row"
	"github.com/arloliu/tabseries/tokenizer"
)

// Cursor is a row.Cursor over delimited text. It is not safe for concurrent use.
type Cursor struct {
	reader *bufio.Reader
	closer io.Closer
	tok    *tokenizer.Tokenizer
	cfg    *Config
	logger *slog.Logger

	columns int
	header  Header

	// pending holds lines read ahead and pushed back; they are consumed before
	// the reader.
	pending []string
	lineNo  int

	line     string
	rowLine  int
	hasRow   bool
	fields   []string
	parsed   bool
	parseErr error

	done   bool
	closed bool
}

var _ row.Cursor = (*Cursor)(nil)

// NewCursor creates a cursor reading r. When r implements io.Closer, Close
// closes it.
//
// Unless WithColumnCount is given, NewCursor reads ahead to the first non-comment
// line, counts its fields, and pushes every line it read back so the first Next
// or ParseHeader still sees them. A source with no data line has zero columns.
func NewCursor(r io.Reader, opts ...Option) (*Cursor, error) {
	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	tok, err := tokenizer.New(cfg.delimiter)
	if err != nil {
		return nil, err
	}

	c := &Cursor{
		reader:  bufio.NewReader(r),
		tok:     tok,
		cfg:     cfg,
		logger:  cfg.logger,
		columns: cfg.columns,
	}
	if closer, ok := r.(io.Closer); ok {
		c.closer = closer
	}

	if c.columns == 0 {
		if err := c.probeColumns(); err != nil {
			return nil, err
		}
	}

	return c, nil
}

// Len returns the fixed column count.
func (c *Cursor) Len() int {
	return c.columns
}

// LineNumber returns the 1-based line number of the current row, 0 before the
// first row.
func (c *Cursor) LineNumber() int {
	if !c.hasRow {
		return 0
	}

	return c.rowLine
}

// Next reads the next data line. It skips comment lines and returns false at end
// of input or at the first blank line.
func (c *Cursor) Next() (bool, error) {
	if c.closed {
		return false, errs.ErrCursorClosed
	}
	c.hasRow = false
	if c.done {
		return false, nil
	}

	for {
		line, ok, err := c.readLine()
		if err != nil {
			return false, err
		}
		if !ok {
			c.done = true
			return false, nil
		}
		if c.isComment(line) {
			continue
		}
		if strings.TrimSpace(line) == "" {
			c.done = true
			c.logger.Debug("blank line ends stream", slog.Int("line", c.lineNo))

			return false, nil
		}

		c.line = line
		c.rowLine = c.lineNo
		c.hasRow = true
		c.parsed = false
		c.parseErr = nil

		return true, nil
	}
}

// Value returns the raw text of column col on the current row. The row is split
// on the first call and cached until the next Next.
func (c *Cursor) Value(col int) (any, error) {
	fields, err := c.Fields()
	if err != nil {
		return nil, err
	}
	if err := row.CheckColumn(col, c.columns); err != nil {
		return nil, err
	}

	return fields[col], nil
}

// Fields returns every field of the current row. The slice is reused by the next
// row and must not be retained.
func (c *Cursor) Fields() ([]string, error) {
	if c.closed {
		return nil, errs.ErrCursorClosed
	}
	if !c.hasRow {
		return nil, errs.ErrNoCurrentRow
	}

	if !c.parsed {
		c.parsed = true
		c.fields = c.tok.Split(c.line, c.fields)
		if len(c.fields) != c.columns {
			c.parseErr = &row.SchemaMismatchError{Line: c.rowLine, Expected: c.columns, Actual: len(c.fields)}
		}
	}
	if c.parseErr != nil {
		return nil, c.parseErr
	}

	return c.fields, nil
}

// Close releases the underlying reader. It is safe to call more than once and
// after an error; only the first call closes the reader.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.hasRow = false
	c.pending = nil

	if c.closer != nil {
		return c.closer.Close()
	}

	return nil
}

// probeColumns reads up to the first non-comment line, counts its fields and
// pushes the lines back.
func (c *Cursor) probeColumns() error {
	var (
		seen  []string
		bytes int
	)

	for {
		line, ok, err := c.readLine()
		if err != nil {
			return err
		}
		if !ok {
			break
		}

		seen = append(seen, line)
		bytes += len(line)
		if bytes > c.cfg.lookaheadLimit {
			return fmt.Errorf("%w: %d bytes", errs.ErrLookaheadExceeded, c.cfg.lookaheadLimit)
		}

		if !c.isComment(line) {
			c.columns = c.tok.Count(line)
			break
		}
	}

	c.unread(seen...)
	c.logger.Debug("probed column count",
		slog.Int("columns", c.columns),
		slog.Int("lookahead_lines", len(seen)))

	return nil
}

func (c *Cursor) isComment(line string) bool {
	if c.cfg.commentPrefix == "" {
		return false
	}

	return strings.HasPrefix(line, c.cfg.commentPrefix)
}

// readLine returns the next line without its terminator. ok is false at end of
// input.
func (c *Cursor) readLine() (line string, ok bool, err error) {
	if len(c.pending) > 0 {
		line = c.pending[0]
		c.pending = c.pending[1:]
		c.lineNo++

		return line, true, nil
	}

	line, err = c.reader.ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", false, fmt.Errorf("read line %d: %w", c.lineNo+1, err)
	}
	if err != nil && line == "" {
		return "", false, nil
	}

	c.lineNo++
	line = strings.TrimSuffix(line, "\n")
	line = strings.TrimSuffix(line, "\r")

	return line, true, nil
}

// unread pushes lines back in front of any pending lines, in order.
func (c *Cursor) unread(lines ...string) {
	if len(lines) == 0 {
		return
	}
	c.pending = append(append(make([]string, 0, len(lines)+len(c.pending)), lines...), c.pending...)
	c.lineNo -= len(lines)
}
