// Package assemble builds aligned time series from a row source.
//
// An Assembler reads one date/time column and any number of value columns. Every
// value column becomes one series, and all of them share the calendar taken from
// the first and last row. Rows must already be in increasing time order; the
// assembler neither sorts nor fills gaps.
//
// The series container is supplied by the caller through Factory. The assembler
// uses only the Series methods, so any container honoring that contract works.
//
//	asm, err := assemble.New[*series.Series](cursor, series.NewFactory())
//	asm.SetDateColumn(0)
//	flow, _ := asm.AddTimeSeriesColumn(1, "flow")
//	flow.SetFlagColumn(3)
//	out, err := asm.Assemble()
package assemble

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/arloliu/tabseries/convert"
	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/internal/options"
	"github.com/arloliu/tabseries/row"
)

// Series is the part of a time series container the assembler uses.
type Series interface {
	SetStartDate(t time.Time)
	SetEndDate(t time.Time)
	AllocateStorage() error
	// SetDataPoint stores value and flag at t. It must fail with an error
	// matching errs.ErrOutOfPeriod when t lies outside [start, end]. An empty flag
	// means no flag.
	SetDataPoint(t time.Time, value float64, flag string) error
}

// Factory creates empty series of type S.
type Factory[S Series] interface {
	NewSeries(id string) (S, error)
}

type state uint8

const (
	stateConfigured state = iota
	stateScanned
	stateBuilt
)

// ColumnInfo describes one output series: the value column, the series
// identifier and an optional flag column. It is only meaningful until Assemble
// runs.
type ColumnInfo struct {
	owner   *state
	columns int

	column     int
	id         string
	flagColumn int
}

// Column returns the value column index.
func (c *ColumnInfo) Column() int { return c.column }

// ID returns the series identifier.
func (c *ColumnInfo) ID() string { return c.id }

// FlagColumn returns the flag column index, if one was set.
func (c *ColumnInfo) FlagColumn() (int, bool) {
	return c.flagColumn, c.flagColumn >= 0
}

// SetFlagColumn reads each point's flag from column col. The raw cell text is
// used, even when col is also a value or date/time column.
func (c *ColumnInfo) SetFlagColumn(col int) error {
	if *c.owner != stateConfigured {
		return errs.ErrAssemblerSealed
	}
	if err := row.CheckColumn(col, c.columns); err != nil {
		return fmt.Errorf("flag column for %q: %w", c.id, err)
	}
	c.flagColumn = col

	return nil
}

// Assembler turns a row source into series of type S. An Assembler is single use:
// Assemble may be called once, and configuration is rejected after it.
type Assembler[S Series] struct {
	src     row.Cursor
	factory Factory[S]
	logger  *slog.Logger

	state    state
	dateCol  int
	dateConv convert.Converter
	columns  []*ColumnInfo
}

// New creates an assembler over src. The date/time column defaults to 0 and is
// parsed with convert.DateTime defaults.
//
// The assembler never closes src. When src is forward-only it is read to the end
// by Assemble.
func New[S Series](src row.Cursor, factory Factory[S], opts ...Option) (*Assembler[S], error) {
	if src == nil {
		return nil, errors.New("assembler: nil row source")
	}
	if factory == nil {
		return nil, errors.New("assembler: nil series factory")
	}

	cfg := defaultConfig()
	if err := options.Apply(cfg, opts...); err != nil {
		return nil, err
	}

	return &Assembler[S]{
		src:      src,
		factory:  factory,
		logger:   cfg.logger,
		dateConv: convert.MustDateTime(),
	}, nil
}

// SetDateColumn selects the date/time column.
func (a *Assembler[S]) SetDateColumn(col int) error {
	if a.state != stateConfigured {
		return errs.ErrAssemblerSealed
	}
	if err := row.CheckColumn(col, a.src.Len()); err != nil {
		return fmt.Errorf("date column: %w", err)
	}
	a.dateCol = col

	return nil
}

// SetDateTimeConverter sets the converter applied to the date/time column. It
// must produce time.Time values.
func (a *Assembler[S]) SetDateTimeConverter(conv convert.Converter) error {
	if a.state != stateConfigured {
		return errs.ErrAssemblerSealed
	}
	a.dateConv = conv

	return nil
}

// AddTimeSeriesColumn adds an output series reading its values from column col.
// Series are returned by Assemble in the order they were added.
func (a *Assembler[S]) AddTimeSeriesColumn(col int, id string) (*ColumnInfo, error) {
	if a.state != stateConfigured {
		return nil, errs.ErrAssemblerSealed
	}
	if id == "" {
		return nil, errs.ErrInvalidSeriesID
	}
	if err := row.CheckColumn(col, a.src.Len()); err != nil {
		return nil, fmt.Errorf("value column for %q: %w", id, err)
	}

	ci := &ColumnInfo{
		owner:      &a.state,
		columns:    a.src.Len(),
		column:     col,
		id:         id,
		flagColumn: -1,
	}
	a.columns = append(a.columns, ci)

	return ci, nil
}

// Assemble reads every row and returns one series per added column. It may be
// called once; later calls return errs.ErrAlreadyAssembled.
//
// Any conversion failure on the date/time or a value column aborts the whole pass,
// and no series are returned. A blank value cell is stored as missing.
func (a *Assembler[S]) Assemble() ([]S, error) {
	if a.state != stateConfigured {
		return nil, errs.ErrAlreadyAssembled
	}
	a.state = stateScanned

	if len(a.columns) == 0 {
		return nil, errs.ErrNoSeriesColumns
	}

	b := convert.NewBuilder(a.src).Set(a.dateCol, a.dateConv)
	for _, ci := range a.columns {
		if ci.column == a.dateCol {
			return nil, fmt.Errorf("series %q: value column %d is the date column: %w",
				ci.id, ci.column, errs.ErrNotNumeric)
		}
		b.Set(ci.column, convert.Float)
	}

	cur, err := b.ScrollableCursor()
	if err != nil {
		return nil, err
	}
	if cur.Materialized() {
		defer cur.Close()
		a.logger.Debug("materialized row source", slog.Int("rows", cur.NumRows()))
	}

	rows := cur.NumRows()
	if rows == 0 {
		return nil, errs.ErrEmptySource
	}

	start, err := a.timeAt(cur, 0)
	if err != nil {
		return nil, err
	}
	end, err := a.timeAt(cur, rows-1)
	if err != nil {
		return nil, err
	}

	out := make([]S, len(a.columns))
	for i, ci := range a.columns {
		s, err := a.factory.NewSeries(ci.id)
		if err != nil {
			return nil, fmt.Errorf("create series %q: %w", ci.id, err)
		}
		s.SetStartDate(start)
		s.SetEndDate(end)
		if err := s.AllocateStorage(); err != nil {
			return nil, fmt.Errorf("allocate series %q: %w", ci.id, err)
		}
		out[i] = s
	}

	for r := range rows {
		ts, err := a.timeAt(cur, r)
		if err != nil {
			return nil, err
		}

		for i, ci := range a.columns {
			value, flag, err := readPoint(cur, ci)
			if err != nil {
				return nil, fmt.Errorf("row %d: %w", r, err)
			}
			if err := out[i].SetDataPoint(ts, value, flag); err != nil {
				return nil, fmt.Errorf("row %d series %q: %w", r, ci.id, err)
			}
		}
	}

	a.state = stateBuilt
	a.logger.Debug("assembled series",
		slog.Int("series", len(out)),
		slog.Int("rows", rows),
		slog.Time("start", start),
		slog.Time("end", end))

	return out, nil
}

func (a *Assembler[S]) timeAt(cur *convert.ScrollableCursor, r int) (time.Time, error) {
	if err := cur.MoveTo(r); err != nil {
		return time.Time{}, err
	}

	v, err := cur.Value(a.dateCol)
	if err != nil {
		return time.Time{}, fmt.Errorf("row %d: %w", r, err)
	}

	ts, ok := v.(time.Time)
	if !ok {
		return time.Time{}, fmt.Errorf("row %d column %d: %w: got %T", r, a.dateCol, errs.ErrNotDateTime, v)
	}

	return ts, nil
}

func readPoint(cur *convert.ScrollableCursor, ci *ColumnInfo) (float64, string, error) {
	v, err := cur.Value(ci.column)
	if err != nil {
		return 0, "", err
	}

	value, ok := v.(float64)
	if !ok {
		return 0, "", fmt.Errorf("column %d: %w: got %T", ci.column, errs.ErrNotNumeric, v)
	}

	col, ok := ci.FlagColumn()
	if !ok {
		return value, "", nil
	}

	raw, err := cur.RawValue(col)
	if err != nil {
		return 0, "", err
	}

	switch f := raw.(type) {
	case nil:
		return value, "", nil
	case string:
		return value, f, nil
	default:
		return value, fmt.Sprint(f), nil
	}
}
