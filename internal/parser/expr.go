// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

package parser

import (
	"nickandperla.net/jspy/internal/ast"
	"nickandperla.net/jspy/internal/ops"
	"nickandperla.net/jspy/internal/token"
)

// expression parses operators binding tighter than min.
func (p *Parser) expression(min int) ast.Node {
	left := p.prefix()
	for {
		t := p.peek()
		if t.Kind != token.Operator {
			return left
		}
		// outside brackets a new line ends the expression
		if p.inExpr == 0 && p.newLine() {
			return left
		}
		op, width := p.infixAt(t)
		if op == nil || op.Precedence <= min {
			return left
		}
		for i := 0; i < width; i++ {
			p.next()
		}
		left = p.infix(op, left, t)
	}
}

// infixAt resolves the infix operator starting at t, combining the two-word
// operators "not in" and "is not".
func (p *Parser) infixAt(t token.Token) (*ops.Operator, int) {
	var after token.Token
	if p.pos+1 < len(p.toks) {
		after = p.toks[p.pos+1]
	}
	switch t.Text {
	case "not":
		if after.IsOperator("in") {
			return p.table.Infix("not in"), 2
		}
		return nil, 0
	case "is":
		if after.IsOperator("not") {
			return p.table.Infix("is not"), 2
		}
	}
	return p.table.Infix(t.Text), 1
}

func (p *Parser) prefix() ast.Node {
	t := p.peek()
	switch t.Kind {
	case token.Literal:
		p.next()
		return &ast.Const{Value: t.Value, Text: t.Text, At: t.Start}
	case token.Identifier:
		if p.table.IsStatement(t.Text) {
			p.errorf(t.Start, "unexpected keyword '%s' in expression", t.Text)
		}
		p.next()
		return &ast.Ident{Name: t.Text, At: t.Start}
	case token.Operator:
		op := p.table.Prefix(t.Text)
		if op == nil {
			break
		}
		p.next()
		switch op.Parse {
		case ops.ParseUnary:
			operand := p.expression(op.Precedence)
			return &ast.Unary{Op: op, Operand: operand, At: t.Start}
		case ops.ParseGroup:
			return p.group(t)
		case ops.ParseArray:
			items := p.list("]", "in list")
			return &ast.ArrayLit{Items: items, At: t.Start}
		case ops.ParseObject:
			return p.object(t)
		}
	}
	p.errorf(t.Start, "expected expression, found %s", t)
	return nil
}

func (p *Parser) group(open token.Token) ast.Node {
	p.inExpr++
	if p.peek().IsOperator(")") {
		p.next()
		p.inExpr--
		if !p.peek().IsOperator("=>") {
			p.errorf(open.Start, "empty parentheses")
		}
		return &ast.Tuple{At: open.Start}
	}
	e := p.expression(ops.PrecLowest)
	p.expectOp(")", "to close '(' at "+open.Start.String())
	p.inExpr--
	return e
}

// list parses comma-separated expressions up to close. The opening bracket
// has been consumed.
func (p *Parser) list(close, context string) []ast.Node {
	p.inExpr++
	items := []ast.Node{}
	for !p.peek().IsOperator(close) {
		items = append(items, p.expression(ops.PrecComma))
		if !p.peek().IsOperator(",") {
			break
		}
		p.next()
	}
	p.expectOp(close, context)
	p.inExpr--
	return items
}

func (p *Parser) object(open token.Token) ast.Node {
	p.inExpr++
	n := &ast.ObjectLit{At: open.Start}
	for !p.peek().IsOperator("}") {
		t := p.next()
		var e ast.Entry
		switch {
		case t.Kind == token.Identifier,
			t.Kind == token.Operator && p.table.IsWordOperator(t.Text):
			e.Key = t.Text
		case t.Kind == token.Literal:
			e.Key = literalKey(t)
		case t.IsOperator("["):
			e.Computed = p.expression(ops.PrecLowest)
			p.expectOp("]", "after computed key")
		default:
			p.errorf(t.Start, "expected object key, found %s", t)
		}
		p.expectOp(":", "after object key")
		e.Value = p.expression(ops.PrecComma)
		n.Entries = append(n.Entries, e)
		if !p.peek().IsOperator(",") {
			break
		}
		p.next()
	}
	p.expectOp("}", "to close '{' at "+open.Start.String())
	p.inExpr--
	return n
}

func (p *Parser) infix(op *ops.Operator, left ast.Node, t token.Token) ast.Node {
	switch op.Parse {
	case ops.ParseBinary:
		min := op.Precedence
		if op.Assoc == ops.Right {
			min--
		}
		right := p.expression(min)
		return &ast.Binary{Op: op, Left: left, Right: right, At: t.Start}

	case ops.ParseMember, ops.ParseOptionalMember:
		name := p.next()
		if name.Kind != token.Identifier && name.Kind != token.Literal &&
			!(name.Kind == token.Operator && p.table.IsWordOperator(name.Text)) || !isIdentifier(name.Text) {
			p.errorf(name.Start, "expected member name after '%s', found %s", op.Symbol, name)
		}
		return &ast.Member{Object: left, Name: name.Text, Optional: op.Parse == ops.ParseOptionalMember, At: t.Start}

	case ops.ParseIndex:
		p.inExpr++
		key := p.expression(ops.PrecLowest)
		p.expectOp("]", "to close subscript")
		p.inExpr--
		return &ast.Index{Object: left, Key: key, At: t.Start}

	case ops.ParseCall:
		args := p.list(")", "to close call arguments")
		return &ast.Call{Callee: left, Args: args, At: t.Start}

	case ops.ParseAssign:
		target := p.target(left, true)
		v := p.expression(op.Precedence - 1)
		return &ast.Assign{Target: target, Value: v, At: t.Start}

	case ops.ParseCompoundAssign:
		target := p.target(left, false)
		v := p.expression(op.Precedence - 1)
		return &ast.CompoundAssign{Target: target, Op: p.table.Infix(op.Base), Value: v, At: t.Start}

	case ops.ParseArrow:
		return p.arrow(left, t)

	case ops.ParseTuple:
		items := []ast.Node{left}
		for !p.endOfStatement() {
			items = append(items, p.expression(ops.PrecComma))
			if !p.peek().IsOperator(",") || (p.inExpr == 0 && p.newLine()) {
				break
			}
			p.next()
		}
		return &ast.Tuple{Items: items, At: left.Loc()}
	}
	p.errorf(t.Start, "unexpected %s", t)
	return nil
}

// target validates an assignment target. Plain assignment declares the
// names it binds.
func (p *Parser) target(left ast.Node, declare bool) ast.Assignable {
	switch n := left.(type) {
	case *ast.Ident:
		if declare {
			p.declare(n.Name)
		}
		return n
	case *ast.Member:
		if !n.Optional {
			return n
		}
	case *ast.Index:
		return n
	case *ast.Tuple:
		if declare && len(n.Items) > 0 {
			for _, item := range n.Items {
				p.target(item, declare)
			}
			return n
		}
	}
	p.errorf(left.Loc(), "cannot assign to %s", left)
	return nil
}

func (p *Parser) arrow(left ast.Node, t token.Token) ast.Node {
	var params []ast.Param
	switch n := left.(type) {
	case *ast.Ident:
		params = []ast.Param{{Name: n.Name}}
	case *ast.Tuple:
		for _, item := range n.Items {
			id, ok := item.(*ast.Ident)
			if !ok {
				p.errorf(item.Loc(), "invalid arrow function parameter %s", item)
			}
			params = append(params, ast.Param{Name: id.Name})
		}
	default:
		p.errorf(left.Loc(), "invalid arrow function parameters %s", left)
	}

	def := &ast.FuncDef{Params: params, Arrow: true, At: left.Loc()}
	leave := p.enterFunction()
	defer leave()

	next := p.raw()
	if next.Kind != token.EOF && next.Start.Line == t.End.Line {
		b := ast.NewBlock(ast.LambdaBlock, next.Start.Column, next.Start)
		for _, prm := range params {
			b.Declare(prm.Name)
		}
		pop := p.push(b)
		b.Body = []ast.Node{p.expression(ops.PrecArrow - 1)}
		pop()
		def.Body = b
		def.ExprBody = true
		return def
	}

	if next.Kind == token.EOF || next.Start.Column <= p.column {
		p.errorf(t.End, "expected arrow function body")
	}
	b := ast.NewBlock(ast.LambdaBlock, next.Start.Column, next.Start)
	for _, prm := range params {
		b.Declare(prm.Name)
	}
	inExpr := p.inExpr
	p.inExpr = 0
	p.statements(b)
	p.inExpr = inExpr
	def.Body = b
	return def
}
