// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package token defines jspy token kinds and source locations.
package token

import "fmt"

// Kind represents a jspy token kind.
type Kind int

const (
	EOF Kind = iota
	Identifier
	Operator
	Literal
	Comment

	// NotInBlock is never produced by the scanner. The parser hands it out in
	// place of a token that lexically belongs to an enclosing block.
	NotInBlock
)

// String returns the string representation of a token kind.
func (k Kind) String() string {
	switch k {
	case EOF:
		return "EOF"
	case Identifier:
		return "IDENTIFIER"
	case Operator:
		return "OPERATOR"
	case Literal:
		return "LITERAL"
	case Comment:
		return "COMMENT"
	case NotInBlock:
		return "NOT_IN_BLOCK"
	}
	return "UNKNOWN"
}

// Location is a 1-based line/column position in the source.
type Location struct {
	Line   int
	Column int
}

func (l Location) String() string {
	return fmt.Sprintf("%d:%d", l.Line, l.Column)
}

// Token is a scanned token with its exact source span.
type Token struct {
	Kind  Kind
	Text  string // raw text as written (operator symbol, identifier, literal source)
	Value any    // resolved primitive for Literal tokens: float64, string, bool or nil
	Start Location
	End   Location
}

// Is reports whether the token is an operator or identifier with the given text.
func (t Token) Is(text string) bool {
	return (t.Kind == Operator || t.Kind == Identifier) && t.Text == text
}

// IsOperator reports whether the token is the operator sym.
func (t Token) IsOperator(sym string) bool {
	return t.Kind == Operator && t.Text == sym
}

// IsKeyword reports whether the token is the identifier word.
func (t Token) IsKeyword(word string) bool {
	return t.Kind == Identifier && t.Text == word
}

func (t Token) String() string {
	switch t.Kind {
	case EOF:
		return "end of file"
	case NotInBlock:
		return "end of block"
	case Literal:
		if s, ok := t.Value.(string); ok {
			return fmt.Sprintf("string %q", s)
		}
		return fmt.Sprintf("literal %s", t.Text)
	case Comment:
		return "comment"
	}
	if len(t.Text) > 20 {
		return fmt.Sprintf("%q...", t.Text[:20])
	}
	return fmt.Sprintf("%q", t.Text)
}
