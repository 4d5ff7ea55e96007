package tokenizer

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/arloliu/tabseries/errs"
)

func TestTokenizer_Split(t *testing.T) {
	tests := []struct {
		name string
		line string
		want []string
	}{
		{"simple", "a,b,c", []string{"a", "b", "c"}},
		{"empty line", "", []string{""}},
		{"trailing delimiter", "a,b,", []string{"a", "b", ""}},
		{"only delimiter", ",", []string{"", ""}},
		{"unquoted trimmed", "  a ,\tb\t, c ", []string{"a", "b", "c"}},
		{"quoted keeps whitespace", `" a ",b`, []string{" a ", "b"}},
		{"quoted delimiter", `"1,000",x`, []string{"1,000", "x"}},
		{"escaped quote", `"say ""hi""",2`, []string{`say "hi"`, "2"}},
		{"blank before quote", `a, "b c" ,d`, []string{"a", "b c", "d"}},
		{"empty quoted", `"",x`, []string{"", "x"}},
		{"quote inside unquoted", `ab"c,d`, []string{`ab"c`, "d"}},
		{"stray quote inside quoted", `"ab"c",d`, []string{`ab"c`, "d"}},
		{"text after closing quote", `"a" b,c`, []string{`a" b,c`}},
		{"blank after closing quote", `"a" ,c`, []string{"a", "c"}},
		{"unterminated quote", `a,"b,c`, []string{"a", "b,c"}},
		{"unterminated with escape", `"x""y,z`, []string{`x"y,z`}},
		{"date time row", "2020-01-01T00:15,12,22,xyz", []string{"2020-01-01T00:15", "12", "22", "xyz"}},
	}

	tok, err := New(',')
	require.NoError(t, err)

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			require.Equal(t, tt.want, tok.Split(tt.line, nil))
			require.Equal(t, len(tt.want), tok.Count(tt.line))
		})
	}
}

func TestTokenizer_Split_ReusesDestination(t *testing.T) {
	tok, err := New(',')
	require.NoError(t, err)

	dst := make([]string, 0, 8)
	first := tok.Split("a,b,c", dst)
	require.Equal(t, []string{"a", "b", "c"}, first)

	second := tok.Split("x,y", first)
	require.Equal(t, []string{"x", "y"}, second)
	require.Equal(t, &first[0], &second[0], "backing array reused")
}

func TestTokenizer_Split_OtherDelimiters(t *testing.T) {
	tests := []struct {
		name  string
		delim rune
		line  string
		want  []string
	}{
		{"semicolon", ';', `a; "b;c" ;d`, []string{"a", "b;c", "d"}},
		{"tab", '\t', "a\t b \t\"c\td\"", []string{"a", "b", "c\td"}},
		{"pipe", '|', "1|2||", []string{"1", "2", "", ""}},
		{"multibyte", '¦', "a¦b ¦ c", []string{"a", "b", "c"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := New(tt.delim)
			require.NoError(t, err)
			require.Equal(t, tt.want, tok.Split(tt.line, nil))
		})
	}
}

func TestNew_InvalidDelimiter(t *testing.T) {
	for _, d := range []rune{'"', '\n', '\r', 0} {
		_, err := New(d)
		require.ErrorIs(t, err, errs.ErrInvalidDelimiter)
	}
}

func TestSplit_FallsBackToComma(t *testing.T) {
	require.Equal(t, []string{"a", "b"}, Split("a,b", '"'))
	require.Equal(t, []string{"a", "b"}, Split("a;b", ';'))
}

// Quoting a value and splitting it back returns the value unchanged, while the
// same value left unquoted comes back trimmed.
func TestQuoteField_RoundTrip(t *testing.T) {
	values := []string{
		"plain",
		"with,comma",
		`with "quotes"`,
		"  leading and trailing  ",
		`"`,
		`,"",`,
		"",
		"tab\tinside",
	}

	tok, err := New(',')
	require.NoError(t, err)

	for _, v := range values {
		line := QuoteField(v, ',') + ",next"
		got := tok.Split(line, nil)
		require.Equal(t, []string{v, "next"}, got, "quoted %q", v)

		if !strings.ContainsAny(v, `,"`) {
			unquoted := tok.Split(v+",next", nil)
			require.Equal(t, strings.TrimSpace(v), unquoted[0])
		}
	}
}
