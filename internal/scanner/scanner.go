// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package scanner provides the jspy tokenizer.
package scanner

import (
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"

	"nickandperla.net/jspy/internal/ops"
	"nickandperla.net/jspy/internal/token"
)

// TabWidth is the number of spaces a tab expands to before scanning.
const TabWidth = 4

// Error is a tokenizer error.
type Error struct {
	Loc token.Location
	Msg string
}

func (e *Error) Error() string {
	return fmt.Sprintf("tokenizer error at %s: %s", e.Loc, e.Msg)
}

// Scanner tokenizes jspy source.
type Scanner struct {
	src    string
	table  *ops.Table
	pos    int // byte offset of the next unread rune
	line   int // current line (1-based)
	col    int // current column (1-based)
	peeked *token.Token
}

// Normalize expands tabs and line endings so columns are well defined.
func Normalize(src string) string {
	src = strings.ReplaceAll(src, "\r\n", "\n")
	src = strings.ReplaceAll(src, "\r", "\n")
	return strings.ReplaceAll(src, "\t", strings.Repeat(" ", TabWidth))
}

// New creates a Scanner over src.
func New(src string, table *ops.Table) *Scanner {
	return &Scanner{
		src:   Normalize(src),
		table: table,
		line:  1,
		col:   1,
	}
}

// Tokenize scans src completely. The last token is always EOF.
func Tokenize(src string, table *ops.Table) ([]token.Token, error) {
	s := New(src, table)
	var toks []token.Token
	for {
		t, err := s.Next()
		if err != nil {
			return nil, err
		}
		toks = append(toks, t)
		if t.Kind == token.EOF {
			return toks, nil
		}
	}
}

// Location returns the current scan position.
func (s *Scanner) Location() token.Location {
	return token.Location{Line: s.line, Column: s.col}
}

// Peek returns the next token without consuming it.
func (s *Scanner) Peek() (token.Token, error) {
	if s.peeked != nil {
		return *s.peeked, nil
	}
	t, err := s.Next()
	if err != nil {
		return token.Token{}, err
	}
	s.peeked = &t
	return t, nil
}

// Next returns the next token from the input.
func (s *Scanner) Next() (token.Token, error) {
	if s.peeked != nil {
		t := *s.peeked
		s.peeked = nil
		return t, nil
	}

	s.skipWhitespace()
	start := s.Location()
	if s.pos >= len(s.src) {
		return token.Token{Kind: token.EOF, Start: start, End: start}, nil
	}

	c := s.src[s.pos]
	switch {
	case c == '#':
		begin := s.pos
		for s.pos < len(s.src) && s.src[s.pos] != '\n' {
			s.advance()
		}
		return token.Token{Kind: token.Comment, Text: s.src[begin:s.pos], Start: start, End: s.Location()}, nil

	case isDigit(c):
		return s.scanNumber(start)

	case c == '"' || c == '\'':
		return s.scanString(start)

	case isIdentStart(c):
		begin := s.pos
		for s.pos < len(s.src) && isIdentChar(s.src[s.pos]) {
			s.advance()
		}
		word := s.src[begin:s.pos]
		t := token.Token{Kind: token.Identifier, Text: word, Start: start, End: s.Location()}
		if v, ok := s.table.Literal(word); ok {
			t.Kind = token.Literal
			t.Value = v
		} else if s.table.IsWordOperator(word) {
			t.Kind = token.Operator
		}
		return t, nil
	}

	sym := s.table.Trie().Match(s.src, s.pos)
	if sym == "" {
		r, _ := utf8.DecodeRuneInString(s.src[s.pos:])
		return token.Token{}, &Error{Loc: start, Msg: fmt.Sprintf("unknown operator symbol %q", r)}
	}
	for range sym {
		s.advance()
	}
	return token.Token{Kind: token.Operator, Text: sym, Start: start, End: s.Location()}, nil
}

func (s *Scanner) advance() rune {
	r, size := utf8.DecodeRuneInString(s.src[s.pos:])
	s.pos += size
	if r == '\n' {
		s.line++
		s.col = 1
	} else {
		s.col++
	}
	return r
}

func (s *Scanner) skipWhitespace() {
	for s.pos < len(s.src) {
		switch s.src[s.pos] {
		case ' ', '\n', '\f', '\v':
			s.advance()
		case '\\':
			// explicit line continuation
			if s.pos+1 < len(s.src) && s.src[s.pos+1] == '\n' {
				s.advance()
				s.advance()
				continue
			}
			return
		default:
			return
		}
	}
}

func (s *Scanner) scanNumber(start token.Location) (token.Token, error) {
	begin := s.pos
	digits := func() error {
		last := byte(0)
		for s.pos < len(s.src) && (isDigit(s.src[s.pos]) || s.src[s.pos] == '_') {
			if s.src[s.pos] == '_' && last == '_' {
				return &Error{Loc: s.Location(), Msg: "malformed number: repeated digit separator"}
			}
			last = s.src[s.pos]
			s.advance()
		}
		if last == '_' {
			return &Error{Loc: s.Location(), Msg: "malformed number: trailing digit separator"}
		}
		return nil
	}

	if err := digits(); err != nil {
		return token.Token{}, err
	}
	if s.pos+1 < len(s.src) && s.src[s.pos] == '.' && isDigit(s.src[s.pos+1]) {
		s.advance()
		if err := digits(); err != nil {
			return token.Token{}, err
		}
	}
	if s.pos < len(s.src) && (s.src[s.pos] == 'e' || s.src[s.pos] == 'E') {
		s.advance()
		if s.pos < len(s.src) && (s.src[s.pos] == '+' || s.src[s.pos] == '-') {
			s.advance()
		}
		if s.pos >= len(s.src) || !isDigit(s.src[s.pos]) {
			return token.Token{}, &Error{Loc: s.Location(), Msg: "malformed number: missing exponent digits"}
		}
		if err := digits(); err != nil {
			return token.Token{}, err
		}
	}
	if s.pos < len(s.src) && isIdentStart(s.src[s.pos]) {
		return token.Token{}, &Error{Loc: s.Location(), Msg: fmt.Sprintf("malformed number %q", s.src[begin:s.pos+1])}
	}

	text := s.src[begin:s.pos]
	f, err := strconv.ParseFloat(strings.ReplaceAll(text, "_", ""), 64)
	if err != nil {
		return token.Token{}, &Error{Loc: start, Msg: fmt.Sprintf("malformed number %q", text)}
	}
	return token.Token{Kind: token.Literal, Text: text, Value: f, Start: start, End: s.Location()}, nil
}

func (s *Scanner) scanString(start token.Location) (token.Token, error) {
	begin := s.pos
	quote := s.src[s.pos]
	triple := strings.Repeat(string(quote), 3)

	if strings.HasPrefix(s.src[s.pos:], triple) {
		for range triple {
			s.advance()
		}
		bodyStart := s.pos
		end := strings.Index(s.src[s.pos:], triple)
		if end < 0 {
			return token.Token{}, &Error{Loc: start, Msg: "unterminated triple-quoted string"}
		}
		for s.pos < bodyStart+end {
			s.advance()
		}
		body := s.src[bodyStart:s.pos]
		for range triple {
			s.advance()
		}
		return token.Token{Kind: token.Literal, Text: s.src[begin:s.pos], Value: body, Start: start, End: s.Location()}, nil
	}

	s.advance()
	var sb strings.Builder
	for {
		if s.pos >= len(s.src) || s.src[s.pos] == '\n' {
			return token.Token{}, &Error{Loc: start, Msg: "unterminated string literal"}
		}
		c := s.src[s.pos]
		if c == quote {
			s.advance()
			break
		}
		if c != '\\' {
			sb.WriteRune(s.advance())
			continue
		}
		escLoc := s.Location()
		s.advance()
		if s.pos >= len(s.src) {
			return token.Token{}, &Error{Loc: start, Msg: "unterminated string literal"}
		}
		if err := s.scanEscape(&sb, escLoc); err != nil {
			return token.Token{}, err
		}
	}
	return token.Token{Kind: token.Literal, Text: s.src[begin:s.pos], Value: sb.String(), Start: start, End: s.Location()}, nil
}

func (s *Scanner) scanEscape(sb *strings.Builder, loc token.Location) error {
	c := s.src[s.pos]
	switch c {
	case 'n':
		sb.WriteByte('\n')
	case 't':
		sb.WriteByte('\t')
	case 'r':
		sb.WriteByte('\r')
	case 'b':
		sb.WriteByte('\b')
	case 'f':
		sb.WriteByte('\f')
	case 'v':
		sb.WriteByte('\v')
	case '\\', '\'', '"':
		sb.WriteByte(c)
	case '\n':
		// escaped newline joins lines
	case 'x', 'u':
		n := 2
		if c == 'u' {
			n = 4
		}
		if s.pos+1+n > len(s.src) {
			return &Error{Loc: loc, Msg: fmt.Sprintf("truncated \\%c escape", c)}
		}
		code, err := strconv.ParseUint(s.src[s.pos+1:s.pos+1+n], 16, 32)
		if err != nil {
			return &Error{Loc: loc, Msg: fmt.Sprintf("invalid \\%c escape", c)}
		}
		sb.WriteRune(rune(code))
		s.advance()
		for i := 0; i < n; i++ {
			s.advance()
		}
		return nil
	default:
		if c >= '0' && c <= '7' {
			end := s.pos
			for end < len(s.src) && end-s.pos < 3 && s.src[end] >= '0' && s.src[end] <= '7' {
				end++
			}
			code, _ := strconv.ParseUint(s.src[s.pos:end], 8, 32)
			sb.WriteRune(rune(code))
			for s.pos < end {
				s.advance()
			}
			return nil
		}
		// unknown escapes are kept verbatim
		sb.WriteByte('\\')
		sb.WriteRune(s.advance())
		return nil
	}
	s.advance()
	return nil
}

func isDigit(c byte) bool { return c >= '0' && c <= '9' }

func isIdentStart(c byte) bool {
	return c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isIdentChar(c byte) bool { return isIdentStart(c) || isDigit(c) }
