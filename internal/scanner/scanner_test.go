package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"nickandperla.net/jspy/internal/ops"
	"nickandperla.net/jspy/internal/token"
)

type tok struct {
	kind token.Kind
	text string
}

func scan(t *testing.T, src string) []token.Token {
	t.Helper()
	toks, err := Tokenize(src, ops.Default())
	require.NoError(t, err)
	return toks
}

func TestTokenKinds(t *testing.T) {
	toks := scan(t, "x = a.b ** 2 # note\nnot y in z")
	var got []tok
	for _, tk := range toks {
		got = append(got, tok{tk.Kind, tk.Text})
	}
	assert.Equal(t, []tok{
		{token.Identifier, "x"},
		{token.Operator, "="},
		{token.Identifier, "a"},
		{token.Operator, "."},
		{token.Identifier, "b"},
		{token.Operator, "**"},
		{token.Literal, "2"},
		{token.Comment, "# note"},
		{token.Operator, "not"},
		{token.Identifier, "y"},
		{token.Operator, "in"},
		{token.Identifier, "z"},
		{token.EOF, ""},
	}, got)
}

func TestLocations(t *testing.T) {
	toks := scan(t, "if x:\n    y = 10\n")
	y := toks[3]
	assert.Equal(t, "y", y.Text)
	assert.Equal(t, token.Location{Line: 2, Column: 5}, y.Start)
	ten := toks[5]
	assert.Equal(t, token.Location{Line: 2, Column: 9}, ten.Start)
	assert.Equal(t, token.Location{Line: 2, Column: 11}, ten.End)

	// tabs expand to four columns
	toks = scan(t, "if x:\n\ty")
	assert.Equal(t, 5, toks[3].Start.Column)
}

func TestLiterals(t *testing.T) {
	tests := []struct {
		src      string
		expected any
	}{
		{"42", 42.0},
		{"3.25", 3.25},
		{"1_000", 1000.0},
		{"1e3", 1000.0},
		{"2.5E-1", 0.25},
		{`"a\tb"`, "a\tb"},
		{`'it\'s'`, "it's"},
		{`"\x41\u00e9"`, "Aé"},
		{`"\q"`, `\q`},
		{"\"\"\"multi\nline\"\"\"", "multi\nline"},
		{"true", true},
		{"False", false},
		{"null", nil},
		{"None", nil},
	}
	for _, tt := range tests {
		toks := scan(t, tt.src)
		require.Len(t, toks, 2, tt.src)
		assert.Equal(t, token.Literal, toks[0].Kind, tt.src)
		assert.Equal(t, tt.expected, toks[0].Value, tt.src)
		assert.Equal(t, tt.src, toks[0].Text, tt.src)
	}
}

func TestLongestOperatorMatch(t *testing.T) {
	toks := scan(t, "a -= 2 ** -b => c <= d != e?.f")
	var ops []string
	for _, tk := range toks {
		if tk.Kind == token.Operator {
			ops = append(ops, tk.Text)
		}
	}
	assert.Equal(t, []string{"-=", "**", "-", "=>", "<=", "!=", "?."}, ops)
}

func TestLineContinuation(t *testing.T) {
	toks := scan(t, "x = 1 + \\\n    2")
	assert.Equal(t, "2", toks[4].Text)
	assert.Equal(t, 2, toks[4].Start.Line)
}

func TestPeek(t *testing.T) {
	s := New("a b", ops.Default())
	p, err := s.Peek()
	require.NoError(t, err)
	n, err := s.Next()
	require.NoError(t, err)
	assert.Equal(t, p, n)
	n, err = s.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", n.Text)
}

func TestErrors(t *testing.T) {
	tests := []struct {
		src string
		msg string
		loc token.Location
	}{
		{`x = "open`, "unterminated string literal", token.Location{Line: 1, Column: 5}},
		{"'''never closed", "unterminated triple-quoted string", token.Location{Line: 1, Column: 1}},
		{"1__0", "malformed number: repeated digit separator", token.Location{Line: 1, Column: 3}},
		{"12abc", `malformed number "12a"`, token.Location{Line: 1, Column: 3}},
		{"1e", "malformed number: missing exponent digits", token.Location{Line: 1, Column: 3}},
		{"a $ b", "unknown operator symbol '$'", token.Location{Line: 1, Column: 3}},
	}
	for _, tt := range tests {
		_, err := Tokenize(tt.src, ops.Default())
		require.Error(t, err, tt.src)
		se, ok := err.(*Error)
		require.True(t, ok, tt.src)
		assert.Equal(t, tt.msg, se.Msg, tt.src)
		assert.Equal(t, tt.loc, se.Loc, tt.src)
	}
	_, err := Tokenize(`"open`, ops.Default())
	assert.EqualError(t, err, "tokenizer error at 1:1: unterminated string literal")
}
