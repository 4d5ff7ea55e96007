// Package workbook reads a spreadsheet worksheet as a forward-only row cursor.
//
// Rows are streamed with excelize's row iterator, so large sheets are not loaded
// into memory as a whole. Cell values are returned as the formatted text a
// spreadsheet application displays, unless WithRawCellValues is given.
//
// The column count is fixed from the first row read, or by WithColumnCount. Rows
// with fewer cells are padded with empty strings; a row with more cells reports a
// row.SchemaMismatchError from Value. An empty row ends the data, as a blank line
// ends a delimited text stream.
package workbook

import (
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/xuri/excelize/v2"

	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/internal/options"
	"github.com/arloliu/tabseries/row"
)

// Config holds the settings of Open.
type Config struct {
	columns  int
	skipRows int
	raw      bool
	password string
}

// Option configures Open.
type Option = options.Option[*Config]

// WithColumnCount fixes the column count instead of taking it from the first row.
func WithColumnCount(n int) Option {
	return options.New(func(c *Config) error {
		if n <= 0 {
			return fmt.Errorf("%w: %d", errs.ErrInvalidColumnCount, n)
		}
		c.columns = n

		return nil
	})
}

// WithSkipRows skips the first n rows of the sheet, e.g. a title block.
func WithSkipRows(n int) Option {
	return options.New(func(c *Config) error {
		if n < 0 {
			return fmt.Errorf("skip rows must not be negative, got %d", n)
		}
		c.skipRows = n

		return nil
	})
}

// WithRawCellValues returns stored cell values without number formats, e.g. date
// cells as serial numbers.
func WithRawCellValues() Option {
	return options.NoError(func(c *Config) {
		c.raw = true
	})
}

// WithPassword opens an encrypted workbook.
func WithPassword(password string) Option {
	return options.NoError(func(c *Config) {
		c.password = password
	})
}

// Cursor is a row.Cursor over one worksheet. It is not safe for concurrent use.
type Cursor struct {
	file    *excelize.File
	rows    *excelize.Rows
	sheet   string
	colOpts excelize.Options
	columns int

	// probed holds the first row when it was read to count columns.
	probed    []string
	hasProbed bool

	rowNo  int
	cells  []string
	hasRow bool
	rowErr error

	done   bool
	closed bool
}

var _ row.Cursor = (*Cursor)(nil)

// Open reads a workbook from r and returns a cursor over sheet. An empty sheet
// name selects the first sheet. The workbook is parsed from r during Open; r is
// not closed.
func Open(r io.Reader, sheet string, opts ...Option) (*Cursor, error) {
	cfg := &Config{}
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	f, err := excelize.OpenReader(r, excelize.Options{Password: cfg.password})
	if err != nil {
		return nil, fmt.Errorf("open workbook: %w", err)
	}

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}

	rows, err := f.Rows(sheet)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("open sheet %q: %w", sheet, err)
	}

	c := &Cursor{
		file:    f,
		rows:    rows,
		sheet:   sheet,
		colOpts: excelize.Options{RawCellValue: cfg.raw},
		columns: cfg.columns,
	}

	for range cfg.skipRows {
		if _, ok, err := c.readRow(); err != nil || !ok {
			if err != nil {
				_ = c.Close()
				return nil, err
			}

			break
		}
	}

	if c.columns == 0 {
		cells, ok, err := c.readRow()
		if err != nil {
			_ = c.Close()
			return nil, err
		}
		if ok {
			c.columns = len(cells)
			c.probed = slices.Clone(cells)
			c.hasProbed = true
		}
	}

	return c, nil
}

// Sheet returns the name of the sheet being read.
func (c *Cursor) Sheet() string {
	return c.sheet
}

// Len returns the fixed column count.
func (c *Cursor) Len() int {
	return c.columns
}

// RowNumber returns the 1-based sheet row number of the current row, 0 before
// the first row.
func (c *Cursor) RowNumber() int {
	if !c.hasRow {
		return 0
	}

	return c.rowNo
}

// Next advances to the next row. It returns false at the end of the sheet or at
// the first empty row.
func (c *Cursor) Next() (bool, error) {
	if c.closed {
		return false, errs.ErrCursorClosed
	}
	c.hasRow = false
	c.rowErr = nil
	if c.done {
		return false, nil
	}

	var cells []string
	if c.hasProbed {
		cells = c.probed
		c.probed, c.hasProbed = nil, false
	} else {
		var (
			ok  bool
			err error
		)
		cells, ok, err = c.readRow()
		if err != nil {
			c.done = true
			return false, err
		}
		if !ok {
			c.done = true
			return false, nil
		}
	}

	if isEmptyRow(cells) {
		c.done = true
		return false, nil
	}

	switch {
	case len(cells) > c.columns:
		c.rowErr = &row.SchemaMismatchError{Line: c.rowNo, Expected: c.columns, Actual: len(cells)}
	case len(cells) < c.columns:
		cells = append(cells, make([]string, c.columns-len(cells))...)
	}

	c.cells = cells
	c.hasRow = true

	return true, nil
}

// Value returns the text of column col on the current row.
func (c *Cursor) Value(col int) (any, error) {
	if c.closed {
		return nil, errs.ErrCursorClosed
	}
	if !c.hasRow {
		return nil, errs.ErrNoCurrentRow
	}
	if c.rowErr != nil {
		return nil, c.rowErr
	}
	if err := row.CheckColumn(col, c.columns); err != nil {
		return nil, err
	}

	return c.cells[col], nil
}

// Close releases the row iterator and the workbook. It is safe to call more than
// once.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	c.hasRow = false

	return errors.Join(c.rows.Close(), c.file.Close())
}

func (c *Cursor) readRow() ([]string, bool, error) {
	if !c.rows.Next() {
		if err := c.rows.Error(); err != nil {
			return nil, false, fmt.Errorf("sheet %q: %w", c.sheet, err)
		}

		return nil, false, nil
	}
	c.rowNo++

	cells, err := c.rows.Columns(c.colOpts)
	if err != nil {
		return nil, false, fmt.Errorf("sheet %q row %d: %w", c.sheet, c.rowNo, err)
	}

	return cells, true, nil
}

func isEmptyRow(cells []string) bool {
	for _, cell := range cells {
		if cell != "" {
			return false
		}
	}

	return true
}
