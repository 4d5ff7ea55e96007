package workbook

import (
	"bytes"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/arloliu/tabseries/assemble"
	"github.com/arloliu/tabseries/errs"
	"github.com/arloliu/tabseries/row"
	"github.com/arloliu/tabseries/series"
)

// buildWorkbook writes rows to Sheet1 starting at A1. A nil row leaves that sheet
// row empty.
func buildWorkbook(t *testing.T, rows ...[]any) *bytes.Buffer {
	t.Helper()

	f := excelize.NewFile()
	defer f.Close()

	for i, r := range rows {
		if r == nil {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &r))
	}

	buf, err := f.WriteToBuffer()
	require.NoError(t, err)

	return buf
}

func readRows(t *testing.T, c *Cursor) [][]string {
	t.Helper()

	var out [][]string
	for {
		ok, err := c.Next()
		require.NoError(t, err)
		if !ok {
			return out
		}

		fields := make([]string, c.Len())
		for i := range fields {
			v, err := c.Value(i)
			require.NoError(t, err)
			fields[i] = v.(string)
		}
		out = append(out, fields)
	}
}

func TestOpen_ReadsRows(t *testing.T) {
	buf := buildWorkbook(t,
		[]any{"date", "flow", "flag"},
		[]any{"2020-01-01", 10.5, "A"},
		[]any{"2020-01-02", 11},
	)

	c, err := Open(buf, "", WithSkipRows(1))
	require.NoError(t, err)
	defer c.Close()

	require.Equal(t, "Sheet1", c.Sheet())
	require.Equal(t, 3, c.Len())
	require.Equal(t, [][]string{
		{"2020-01-01", "10.5", "A"},
		{"2020-01-02", "11", ""},
	}, readRows(t, c))
}

func TestOpen_ColumnCountFromFirstRow(t *testing.T) {
	buf := buildWorkbook(t,
		[]any{"a", "b"},
		[]any{"c", "d"},
	)

	c, err := Open(buf, "Sheet1")
	require.NoError(t, err)
	defer c.Close()

	require.Equal(t, 2, c.Len())
	require.Equal(t, [][]string{{"a", "b"}, {"c", "d"}}, readRows(t, c))
}

func TestCursor_LongRowIsSchemaMismatch(t *testing.T) {
	buf := buildWorkbook(t,
		[]any{"2020-01-01", 1},
		[]any{"2020-01-02", 2, "extra"},
	)

	c, err := Open(buf, "")
	require.NoError(t, err)
	defer c.Close()

	ok, err := c.Next()
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, 1, c.RowNumber())

	ok, err = c.Next()
	require.NoError(t, err)
	require.True(t, ok)

	_, err = c.Value(0)
	require.ErrorIs(t, err, errs.ErrSchemaMismatch)

	var sme *row.SchemaMismatchError
	require.ErrorAs(t, err, &sme)
	require.Equal(t, 2, sme.Line)
	require.Equal(t, 2, sme.Expected)
	require.Equal(t, 3, sme.Actual)
}

func TestCursor_EmptyRowEndsData(t *testing.T) {
	buf := buildWorkbook(t,
		[]any{"a", 1},
		[]any{"b", 2},
		nil,
		[]any{"c", 3},
	)

	c, err := Open(buf, "")
	require.NoError(t, err)
	defer c.Close()

	require.Equal(t, [][]string{{"a", "1"}, {"b", "2"}}, readRows(t, c))

	ok, err := c.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpen_ExplicitColumnCount(t *testing.T) {
	buf := buildWorkbook(t,
		[]any{"a"},
		[]any{"b", "c"},
	)

	c, err := Open(buf, "", WithColumnCount(3))
	require.NoError(t, err)
	defer c.Close()

	require.Equal(t, [][]string{{"a", "", ""}, {"b", "c", ""}}, readRows(t, c))
}

func TestOpen_EmptySheet(t *testing.T) {
	c, err := Open(buildWorkbook(t), "")
	require.NoError(t, err)
	defer c.Close()

	require.Zero(t, c.Len())
	ok, err := c.Next()
	require.NoError(t, err)
	require.False(t, ok)
}

func TestOpen_Errors(t *testing.T) {
	_, err := Open(strings.NewReader("not a workbook"), "")
	require.Error(t, err)

	_, err = Open(buildWorkbook(t, []any{"a"}), "Missing")
	require.Error(t, err)

	_, err = Open(buildWorkbook(t, []any{"a"}), "", WithColumnCount(0))
	require.ErrorIs(t, err, errs.ErrInvalidColumnCount)

	_, err = Open(buildWorkbook(t, []any{"a"}), "", WithSkipRows(-1))
	require.Error(t, err)
}

func TestCursor_ValueErrors(t *testing.T) {
	c, err := Open(buildWorkbook(t, []any{"a", "b"}), "")
	require.NoError(t, err)

	_, err = c.Value(0)
	require.ErrorIs(t, err, errs.ErrNoCurrentRow)

	ok, err := c.Next()
	require.NoError(t, err)
	require.True(t, ok)

	_, err = c.Value(2)
	require.ErrorIs(t, err, errs.ErrColumnOutOfRange)

	require.NoError(t, c.Close())
	require.NoError(t, c.Close())

	_, err = c.Next()
	require.ErrorIs(t, err, errs.ErrCursorClosed)
	_, err = c.Value(0)
	require.ErrorIs(t, err, errs.ErrCursorClosed)
}

func TestCursor_FeedsAssembler(t *testing.T) {
	rows := [][]any{{"date", "flow", "qual"}}
	day0 := time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := range 4 {
		rows = append(rows, []any{day0.AddDate(0, 0, i).Format("2006-01-02"), fmt.Sprint(10 + i), "ok"})
	}

	c, err := Open(buildWorkbook(t, rows...), "", WithSkipRows(1))
	require.NoError(t, err)
	defer c.Close()

	asm, err := assemble.New[*series.Series](c, series.NewFactory(series.WithInterval(24*time.Hour)))
	require.NoError(t, err)
	flow, err := asm.AddTimeSeriesColumn(1, "flow")
	require.NoError(t, err)
	require.NoError(t, flow.SetFlagColumn(2))

	out, err := asm.Assemble()
	require.NoError(t, err)
	require.Len(t, out, 1)

	s := out[0]
	require.Equal(t, 4, s.Len())
	require.True(t, s.Start().Equal(day0))
	require.Equal(t, 13.0, s.At(3).Val)
	require.Equal(t, "ok", s.At(0).Flag)
}
