package convert

import (
	"fmt"

	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/row"
)

// Builder assigns converters to the columns of a row source and produces one
// converting cursor. Every column starts with Identity.
//
// Set returns the builder for chaining. The first invalid assignment is remembered
// and reported by the terminal RowCursor or ScrollableCursor call. A builder
// produces exactly one cursor; later terminal calls return errs.ErrBuilderUsed.
type Builder struct {
	src        row.Cursor
	converters []Converter
	err        error
	used       bool
}

// NewBuilder creates a builder over src.
func NewBuilder(src row.Cursor) *Builder {
	return &Builder{
		src:        src,
		converters: make([]Converter, src.Len()),
	}
}

// Set assigns conv to column col.
func (b *Builder) Set(col int, conv Converter) *Builder {
	if b.err != nil {
		return b
	}
	if err := row.CheckColumn(col, len(b.converters)); err != nil {
		b.err = fmt.Errorf("assign %s converter: %w", conv.Kind(), err)
		return b
	}
	b.converters[col] = conv

	return b
}

// RowCursor wraps the source as-is. Stream sources keep their forward-only
// semantics and nothing is materialized.
func (b *Builder) RowCursor() (*Cursor, error) {
	if err := b.finish(); err != nil {
		return nil, err
	}

	return &Cursor{src: b.src, converters: b.converters}, nil
}

// ScrollableCursor returns a cursor with random access. A source that already
// implements row.ScrollableCursor is wrapped directly. Any other source is read to
// the end and copied into a row.Table first; the memory used grows with the size
// of the source and is not bounded.
//
// The returned cursor owns what it wraps. When the source was materialized, Close
// releases the table and the original source stays open for its owner to close.
func (b *Builder) ScrollableCursor() (*ScrollableCursor, error) {
	if err := b.finish(); err != nil {
		return nil, err
	}

	if scroll, ok := b.src.(row.ScrollableCursor); ok {
		return &ScrollableCursor{
			Cursor: Cursor{src: scroll, converters: b.converters},
			scroll: scroll,
		}, nil
	}

	tbl, err := row.Materialize(b.src)
	if err != nil {
		return nil, fmt.Errorf("materialize source: %w", err)
	}

	return &ScrollableCursor{
		Cursor:       Cursor{src: tbl, converters: b.converters},
		scroll:       tbl,
		materialized: true,
	}, nil
}

func (b *Builder) finish() error {
	if b.used {
		return errs.ErrBuilderUsed
	}
	b.used = true

	return b.err
}
