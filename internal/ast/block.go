// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package ast

import (
	"strings"

	"nickandperla.net/jspy/internal/scope"
	"nickandperla.net/jspy/internal/token"
	"nickandperla.net/jspy/internal/value"
)

// BlockKind identifies what introduced a block.
type BlockKind int

const (
	ModuleBlock BlockKind = iota
	FunctionBlock
	LambdaBlock
	IfBlock
	WhileBlock
	ForBlock
	TryBlock
	ExceptBlock
	ElseBlock
	FinallyBlock
)

var blockKindNames = [...]string{
	"module", "function", "lambda", "if", "while", "for", "try", "except", "else", "finally",
}

func (k BlockKind) String() string {
	if int(k) < len(blockKindNames) {
		return blockKindNames[k]
	}
	return "unknown"
}

// IsVariableScope reports whether names assigned in the block are local to it.
func (k BlockKind) IsVariableScope() bool {
	return k == ModuleBlock || k == FunctionBlock || k == LambdaBlock
}

// Block is a sequence of statements sharing one indentation column.
type Block struct {
	Kind   BlockKind
	Column int
	Body   []Node
	At     token.Location

	declared []string
	seen     map[string]struct{}
}

// NewBlock creates an empty block.
func NewBlock(kind BlockKind, column int, at token.Location) *Block {
	return &Block{Kind: kind, Column: column, At: at}
}

// Declare records name as local to the block.
func (b *Block) Declare(name string) {
	if b.seen == nil {
		b.seen = make(map[string]struct{})
	}
	if _, ok := b.seen[name]; ok {
		return
	}
	b.seen[name] = struct{}{}
	b.declared = append(b.declared, name)
}

// Declares reports whether name was declared in the block.
func (b *Block) Declares(name string) bool {
	_, ok := b.seen[name]
	return ok
}

// Declared returns the declared names in declaration order.
func (b *Block) Declared() []string { return b.declared }

func (b *Block) Loc() token.Location { return b.At }

// Eval runs the statements in order. The block's value is the value of its
// last statement.
func (b *Block) Eval(x *Exec, s *scope.Scope) Result {
	var last any = value.Undefined
	for _, n := range b.Body {
		if x.cancelled() {
			return Cancelled
		}
		r := n.Eval(x, s)
		switch r.Kind {
		case KindComplete:
			v, sr := x.settle(r.Value, n.Loc())
			if !sr.IsComplete() {
				return sr
			}
			last = v
		case KindReturn, KindBreak, KindContinue, KindError, KindCancel:
			return r
		}
	}
	return Complete(last)
}

func (b *Block) String() string {
	lines := make([]string, len(b.Body))
	for i, n := range b.Body {
		lines[i] = n.String()
	}
	return strings.Join(lines, "\n")
}

func indent(s string) string {
	lines := strings.Split(s, "\n")
	for i, l := range lines {
		if l != "" {
			lines[i] = "    " + l
		}
	}
	return strings.Join(lines, "\n")
}

func body(header string, b *Block) string {
	if b == nil || len(b.Body) == 0 {
		return header + ":\n    pass"
	}
	return header + ":\n" + indent(b.String())
}
