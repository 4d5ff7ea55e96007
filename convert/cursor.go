package convert

import (
	"github.com/arloliu/tabseries/row"
)

// Cursor is a row.Cursor that converts each cell on read. It owns the wrapped
// cursor: Close closes it.
type Cursor struct {
	src        row.Cursor
	converters []Converter
}

var _ row.Cursor = (*Cursor)(nil)

// Len returns the column count of the wrapped cursor.
func (c *Cursor) Len() int {
	return c.src.Len()
}

// Next advances the wrapped cursor.
func (c *Cursor) Next() (bool, error) {
	return c.src.Next()
}

// Value reads the raw cell at col and applies the column's converter. The result
// is not cached; reading a cell twice converts it twice.
func (c *Cursor) Value(col int) (any, error) {
	raw, err := c.src.Value(col)
	if err != nil {
		return nil, err
	}

	v, err := c.converters[col].Convert(raw)
	if err != nil {
		return nil, withColumn(err, raw, col)
	}

	return v, nil
}

// RawValue returns the unconverted cell at col.
func (c *Cursor) RawValue(col int) (any, error) {
	return c.src.Value(col)
}

// Converter returns the converter assigned to col.
func (c *Cursor) Converter(col int) (Converter, error) {
	if err := row.CheckColumn(col, len(c.converters)); err != nil {
		return Converter{}, err
	}

	return c.converters[col], nil
}

// Close closes the wrapped cursor.
func (c *Cursor) Close() error {
	return c.src.Close()
}

// ScrollableCursor is a converting row.ScrollableCursor.
type ScrollableCursor struct {
	Cursor

	scroll       row.ScrollableCursor
	materialized bool
}

var _ row.ScrollableCursor = (*ScrollableCursor)(nil)

// NumRows returns the number of rows of the wrapped source.
func (c *ScrollableCursor) NumRows() int {
	return c.scroll.NumRows()
}

// MoveTo positions the wrapped source on row index.
func (c *ScrollableCursor) MoveTo(index int) error {
	return c.scroll.MoveTo(index)
}

// Materialized reports whether the builder copied a stream source into an
// in-memory table to provide random access.
func (c *ScrollableCursor) Materialized() bool {
	return c.materialized
}
