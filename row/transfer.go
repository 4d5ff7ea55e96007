package row

import (
	"errors"
	"fmt"
)

// errDestinationExhausted is returned when the destination cursor refuses a row.
var errDestinationExhausted = errors.New("destination cursor has no room for row")

// Transfer copies every remaining row of src into dst, cell by cell, advancing both
// cursors together. It returns the number of rows copied.
//
// Both cursors must have the same column count. Transfer makes no partial-success
// promise: on error the destination holds an unspecified prefix of the rows and
// should be discarded.
func Transfer(dst MutableCursor, src Cursor) (int, error) {
	cols := src.Len()
	if dst.Len() != cols {
		return 0, &SchemaMismatchError{Expected: dst.Len(), Actual: cols}
	}

	copied := 0
	for {
		ok, err := src.Next()
		if err != nil {
			return copied, fmt.Errorf("read source row %d: %w", copied+1, err)
		}
		if !ok {
			return copied, nil
		}

		ok, err = dst.Next()
		if err != nil {
			return copied, fmt.Errorf("advance destination row %d: %w", copied+1, err)
		}
		if !ok {
			return copied, errDestinationExhausted
		}

		for c := 0; c < cols; c++ {
			v, err := src.Value(c)
			if err != nil {
				return copied, fmt.Errorf("read row %d column %d: %w", copied+1, c, err)
			}
			if err := dst.SetValue(c, v); err != nil {
				return copied, fmt.Errorf("write row %d column %d: %w", copied+1, c, err)
			}
		}
		copied++
	}
}

// Materialize copies the remaining rows of src into a new Table positioned before
// its first row. src is not closed.
func Materialize(src Cursor) (*Table, error) {
	t, err := NewTable(src.Len())
	if err != nil {
		return nil, err
	}

	if _, err := Transfer(t.Writer(), src); err != nil {
		return nil, err
	}
	t.Rewind()

	return t, nil
}
