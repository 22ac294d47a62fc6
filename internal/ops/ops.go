// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package ops holds the jspy operator table: symbols, precedence, parse
// behavior and evaluation semantics for every operator and keyword.
package ops

import (
	"sync"

	"nickandperla.net/jspy/internal/value"
)

// Category classifies operators by how they appear in source.
type Category int

const (
	Statement Category = iota // keyword-led constructs
	Prefix                    // unary/prefix operators
	Infix                     // binary/infix operators
	Closing                   // closing and separator punctuation
)

// Assoc is the associativity of an infix operator.
type Assoc int

const (
	Left Assoc = iota
	Right
)

// Parse selects how the parser turns an operator into an AST node.
type Parse int

const (
	ParseBinary Parse = iota
	ParseUnary
	ParseGroup
	ParseArray
	ParseObject
	ParseMember
	ParseOptionalMember
	ParseIndex
	ParseCall
	ParseAssign
	ParseCompoundAssign
	ParseArrow
	ParseTuple
)

// Precedence levels. They are spaced so new levels can be inserted.
const (
	PrecLowest  = 0
	PrecAssign  = 10
	PrecComma   = 20
	PrecArrow   = 30
	PrecOr      = 40
	PrecAnd     = 50
	PrecNot     = 60
	PrecCompare = 70
	PrecAdd     = 80
	PrecMul     = 90
	PrecUnary   = 100
	PrecPow     = 110
	PrecMember  = 120
)

// BinaryFunc evaluates an infix operator.
type BinaryFunc func(a, b any) (any, error)

// UnaryFunc evaluates a prefix operator.
type UnaryFunc func(a any) (any, error)

// Operator describes one operator symbol.
type Operator struct {
	Symbol     string
	Closing    string // matching closing symbol for bracketing operators
	Precedence int
	Category   Category
	Assoc      Assoc
	Parse      Parse
	Binary     BinaryFunc
	Unary      UnaryFunc

	// Shortcut is consulted with the left operand before the right one is
	// evaluated. The bool reports whether the result is final.
	Shortcut func(left any) (any, bool)

	// Base is the binary operator applied by compound assignment (+= etc).
	Base string
}

// Table is the immutable operator registry shared by scanner and parser.
type Table struct {
	prefix     map[string]*Operator
	infix      map[string]*Operator
	closing    map[string]*Operator
	statements map[string]bool
	words      map[string]bool
	literals   map[string]any
	trie       *Trie
}

var (
	defaultOnce  sync.Once
	defaultTable *Table
)

// Default returns the standard operator table, built on first use.
func Default() *Table {
	defaultOnce.Do(func() {
		defaultTable = build()
	})
	return defaultTable
}

// Prefix returns the prefix operator for sym.
func (t *Table) Prefix(sym string) *Operator { return t.prefix[sym] }

// Infix returns the infix operator for sym.
func (t *Table) Infix(sym string) *Operator { return t.infix[sym] }

// Closing returns the closing operator for sym.
func (t *Table) Closing(sym string) *Operator { return t.closing[sym] }

// IsStatement reports whether word starts a statement.
func (t *Table) IsStatement(word string) bool { return t.statements[word] }

// IsWordOperator reports whether an identifier-shaped word is an operator.
func (t *Table) IsWordOperator(word string) bool { return t.words[word] }

// Literal resolves literal keywords such as true and null.
func (t *Table) Literal(word string) (any, bool) {
	v, ok := t.literals[word]
	return v, ok
}

// Trie returns the symbol trie used for longest-match scanning.
func (t *Table) Trie() *Trie { return t.trie }

func build() *Table {
	t := &Table{
		prefix:     make(map[string]*Operator),
		infix:      make(map[string]*Operator),
		closing:    make(map[string]*Operator),
		statements: make(map[string]bool),
		words:      make(map[string]bool),
		literals: map[string]any{
			"true":      true,
			"True":      true,
			"false":     false,
			"False":     false,
			"null":      nil,
			"None":      nil,
			"undefined": value.Undefined,
		},
		trie: NewTrie(),
	}

	for _, w := range []string{
		"if", "elif", "else", "while", "for", "try", "except", "finally",
		"def", "async", "return", "break", "continue", "pass", "raise",
		"import", "from", "as",
	} {
		t.statements[w] = true
	}

	infix := func(sym string, prec int, fn BinaryFunc) *Operator {
		op := &Operator{Symbol: sym, Precedence: prec, Category: Infix, Parse: ParseBinary, Binary: fn}
		t.infix[sym] = op
		return op
	}

	infix("+", PrecAdd, Add)
	infix("-", PrecAdd, Sub)
	infix("*", PrecMul, Mul)
	infix("/", PrecMul, Div)
	infix("//", PrecMul, FloorDiv)
	infix("%", PrecMul, Mod)
	infix("**", PrecPow, Pow).Assoc = Right

	infix("==", PrecCompare, Eq)
	infix("!=", PrecCompare, NotEq)
	infix("<", PrecCompare, Less)
	infix("<=", PrecCompare, LessEq)
	infix(">", PrecCompare, Greater)
	infix(">=", PrecCompare, GreaterEq)
	infix("in", PrecCompare, In)
	infix("not in", PrecCompare, NotIn)
	infix("is", PrecCompare, Is)
	infix("is not", PrecCompare, IsNot)

	infix("and", PrecAnd, func(_, b any) (any, error) { return b, nil }).Shortcut = func(left any) (any, bool) {
		if !value.Truthy(left) {
			return false, true
		}
		return nil, false
	}
	infix("or", PrecOr, func(_, b any) (any, error) { return b, nil }).Shortcut = func(left any) (any, bool) {
		if value.Truthy(left) {
			return left, true
		}
		return nil, false
	}

	t.infix["."] = &Operator{Symbol: ".", Precedence: PrecMember, Category: Infix, Parse: ParseMember}
	t.infix["?."] = &Operator{Symbol: "?.", Precedence: PrecMember, Category: Infix, Parse: ParseOptionalMember}
	t.infix["["] = &Operator{Symbol: "[", Closing: "]", Precedence: PrecMember, Category: Infix, Parse: ParseIndex}
	t.infix["("] = &Operator{Symbol: "(", Closing: ")", Precedence: PrecMember, Category: Infix, Parse: ParseCall}
	t.infix["="] = &Operator{Symbol: "=", Precedence: PrecAssign, Category: Infix, Assoc: Right, Parse: ParseAssign}
	for _, sym := range []string{"+=", "-=", "*=", "/="} {
		t.infix[sym] = &Operator{Symbol: sym, Precedence: PrecAssign, Category: Infix, Assoc: Right,
			Parse: ParseCompoundAssign, Base: sym[:1]}
	}
	t.infix["=>"] = &Operator{Symbol: "=>", Precedence: PrecArrow, Category: Infix, Assoc: Right, Parse: ParseArrow}
	t.infix[","] = &Operator{Symbol: ",", Precedence: PrecComma, Category: Infix, Parse: ParseTuple}

	t.prefix["-"] = &Operator{Symbol: "-", Precedence: PrecUnary, Category: Prefix, Parse: ParseUnary, Unary: Neg}
	t.prefix["+"] = &Operator{Symbol: "+", Precedence: PrecUnary, Category: Prefix, Parse: ParseUnary, Unary: Pos}
	t.prefix["not"] = &Operator{Symbol: "not", Precedence: PrecNot, Category: Prefix, Parse: ParseUnary, Unary: Not}
	t.prefix["("] = &Operator{Symbol: "(", Closing: ")", Category: Prefix, Parse: ParseGroup}
	t.prefix["["] = &Operator{Symbol: "[", Closing: "]", Category: Prefix, Parse: ParseArray}
	t.prefix["{"] = &Operator{Symbol: "{", Closing: "}", Category: Prefix, Parse: ParseObject}

	for _, sym := range []string{")", "]", "}", ":"} {
		t.closing[sym] = &Operator{Symbol: sym, Category: Closing}
	}

	for _, w := range []string{"and", "or", "not", "in", "is"} {
		t.words[w] = true
	}

	for _, m := range []map[string]*Operator{t.prefix, t.infix, t.closing} {
		for sym := range m {
			if !t.words[sym] && sym != "not in" && sym != "is not" {
				t.trie.Insert(sym)
			}
		}
	}
	return t
}
