// Package row defines the tabular record and cursor capabilities shared by every
// row source, plus the in-memory table used as a materialization target.
//
// # Capabilities
//
// The abstractions compose rather than inherit:
//
//	Row               fixed column count, read a cell by index
//	MutableRow        Row + write a cell by index
//	Cursor            Row + forward-only Next and Close
//	ScrollableCursor  Cursor + NumRows and MoveTo (fully known sources)
//	MutableCursor     Cursor + MutableRow (a destination for Transfer)
//
// A text stream implements only Cursor. Table implements ScrollableCursor and
// MutableRow, and TableWriter implements MutableCursor. Transfer bridges a stream
// into a table; Materialize does that and returns the table.
//
// # Concurrency
//
// Cursors are single-pass handles owned by one goroutine. Concurrent use of one
// cursor is a precondition violation and is not detected.
package row

import (
	"fmt"

	"github.com/arloliu/tabseries/errs"
)

// Row is one tabular record with a column count that never changes for the life
// of the source.
type Row interface {
	// Len returns the fixed column count.
	Len() int
	// Value returns the cell at col. Raw text sources return string values;
	// converting cursors return typed values.
	Value(col int) (any, error)
}

// MutableRow is a Row whose cells can be replaced.
type MutableRow interface {
	Row
	// SetValue replaces the cell at col.
	SetValue(col int, v any) error
}

// Cursor is a forward-only view over a row source.
type Cursor interface {
	Row
	// Next advances to the next row and reports whether one exists. Value is
	// only valid after Next returned true.
	Next() (bool, error)
	// Close releases the underlying resource. Close is idempotent.
	Close() error
}

// ScrollableCursor is a Cursor over a fully known source.
type ScrollableCursor interface {
	Cursor
	// NumRows returns the number of rows in the source.
	NumRows() int
	// MoveTo positions the cursor on row index. An index outside [0, NumRows)
	// returns errs.ErrRowOutOfRange.
	MoveTo(index int) error
}

// MutableCursor is a Cursor whose current row can be written. Transfer writes
// through this capability.
type MutableCursor interface {
	Cursor
	MutableRow
}

// SchemaMismatchError reports a row whose field count differs from the column
// count fixed when the source was opened.
type SchemaMismatchError struct {
	// Line is the 1-based source line or row number, 0 when unknown.
	Line     int
	Expected int
	Actual   int
}

func (e *SchemaMismatchError) Error() string {
	if e.Line > 0 {
		return fmt.Sprintf("line %d: row has %d fields, expected %d", e.Line, e.Actual, e.Expected)
	}

	return fmt.Sprintf("row has %d fields, expected %d", e.Actual, e.Expected)
}

// Is matches errs.ErrSchemaMismatch.
func (e *SchemaMismatchError) Is(target error) bool {
	return target == errs.ErrSchemaMismatch
}

// CheckColumn returns errs.ErrColumnOutOfRange when col is outside [0, n).
func CheckColumn(col, n int) error {
	if col < 0 || col >= n {
		return fmt.Errorf("%w: column %d, row has %d columns", errs.ErrColumnOutOfRange, col, n)
	}

	return nil
}
