package row

import (
	"fmt"

	"github.com/arloliu/tabseries/errs"
)

// Table is an in-memory, appendable row source addressable by index.
//
// Reading a Table through Next walks the existing rows from the current position
// and stops at the last one. Rows are added with AppendRow or through the
// MutableCursor returned by Writer. Cells are nil until set.
//
// Memory grows with rows × columns and is never evicted; materializing an
// unbounded stream into a Table is the caller's risk.
type Table struct {
	columns int
	rows    [][]any
	pos     int
	// pastEnd is set once Next has run off the last row; pos then names the
	// slot the next appended row will take.
	pastEnd bool
}

var (
	_ ScrollableCursor = (*Table)(nil)
	_ MutableRow       = (*Table)(nil)
)

// NewTable creates an empty table with a fixed column count.
func NewTable(columns int) (*Table, error) {
	if columns < 0 {
		return nil, fmt.Errorf("%w: %d", errs.ErrInvalidColumnCount, columns)
	}

	return &Table{columns: columns, pos: -1}, nil
}

// Len returns the column count.
func (t *Table) Len() int {
	return t.columns
}

// NumRows returns the number of rows.
func (t *Table) NumRows() int {
	return len(t.rows)
}

// Next moves to the following row and reports whether it exists. After Next
// returns false, rows appended later are visited by subsequent calls.
func (t *Table) Next() (bool, error) {
	if !t.pastEnd {
		t.pos++
	}
	if t.pos < len(t.rows) {
		t.pastEnd = false
		return true, nil
	}

	t.pos = len(t.rows)
	t.pastEnd = true

	return false, nil
}

// MoveTo positions the table on row index.
func (t *Table) MoveTo(index int) error {
	if index < 0 || index >= len(t.rows) {
		return fmt.Errorf("%w: row %d, table has %d rows", errs.ErrRowOutOfRange, index, len(t.rows))
	}
	t.pos = index
	t.pastEnd = false

	return nil
}

// Rewind positions the table before its first row so Next starts again at row 0.
func (t *Table) Rewind() {
	t.pos = -1
	t.pastEnd = false
}

// Position returns the current row index, -1 before the first Next.
func (t *Table) Position() int {
	return t.pos
}

// Value returns the cell at col on the current row.
func (t *Table) Value(col int) (any, error) {
	r, err := t.current(col)
	if err != nil {
		return nil, err
	}

	return r[col], nil
}

// SetValue replaces the cell at col on the current row.
func (t *Table) SetValue(col int, v any) error {
	r, err := t.current(col)
	if err != nil {
		return err
	}
	r[col] = v

	return nil
}

// AppendRow adds a row holding values. The number of values must equal Len.
func (t *Table) AppendRow(values ...any) error {
	if len(values) != t.columns {
		return &SchemaMismatchError{Line: len(t.rows) + 1, Expected: t.columns, Actual: len(values)}
	}

	r := make([]any, t.columns)
	copy(r, values)
	t.rows = append(t.rows, r)

	return nil
}

// Close rewinds the table. Rows are kept for the life of the Table.
func (t *Table) Close() error {
	t.Rewind()
	return nil
}

// Writer returns a MutableCursor that fills the table from row 0.
func (t *Table) Writer() *TableWriter {
	return &TableWriter{table: t, pos: -1}
}

func (t *Table) current(col int) ([]any, error) {
	if t.pos < 0 || t.pos >= len(t.rows) {
		return nil, errs.ErrNoCurrentRow
	}
	if err := CheckColumn(col, t.columns); err != nil {
		return nil, err
	}

	return t.rows[t.pos], nil
}

// TableWriter writes rows into a Table as a MutableCursor.
//
// Each Next moves to the following row index: an index past the last row appends
// a new row of nil cells, and an index that already exists re-enters that row so
// a rebuild pass overwrites rows in place.
type TableWriter struct {
	table *Table
	pos   int
}

var _ MutableCursor = (*TableWriter)(nil)

// Len returns the column count of the table.
func (w *TableWriter) Len() int {
	return w.table.columns
}

// Next always succeeds; see TableWriter for append versus re-enter behavior.
func (w *TableWriter) Next() (bool, error) {
	w.pos++
	if w.pos == len(w.table.rows) {
		w.table.rows = append(w.table.rows, make([]any, w.table.columns))
	}

	return true, nil
}

// Value returns the cell at col on the row being written.
func (w *TableWriter) Value(col int) (any, error) {
	r, err := w.current(col)
	if err != nil {
		return nil, err
	}

	return r[col], nil
}

// SetValue sets the cell at col on the row being written.
func (w *TableWriter) SetValue(col int, v any) error {
	r, err := w.current(col)
	if err != nil {
		return err
	}
	r[col] = v

	return nil
}

// Close is a no-op; the table owns the rows.
func (w *TableWriter) Close() error {
	return nil
}

func (w *TableWriter) current(col int) ([]any, error) {
	if w.pos < 0 {
		return nil, errs.ErrNoCurrentRow
	}
	if err := CheckColumn(col, w.table.columns); err != nil {
		return nil, err
	}

	return w.table.rows[w.pos], nil
}
