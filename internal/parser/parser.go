// SPDX-License-Identifier: AGPL-3.0-or-later
// Copyright (c) 2023-2026 Nicholas R. Perez

// Package parser builds jspy syntax trees from tokens. It is a precedence
// climbing parser driven by the operator table, with block structure taken
// from token columns.
package parser

import (
	"fmt"
	"path"
	"strings"

	"nickandperla.net/jspy/internal/ast"
	"nickandperla.net/jspy/internal/ops"
	"nickandperla.net/jspy/internal/scanner"
	"nickandperla.net/jspy/internal/token"
	"nickandperla.net/jspy/internal/value"
)

// Error is a parse error.
type Error struct {
	Loc    token.Location
	Msg    string
	Module string
}

func (e *Error) Error() string {
	if e.Module != "" {
		return fmt.Sprintf("parse error at %s:%s: %s", e.Module, e.Loc, e.Msg)
	}
	return fmt.Sprintf("parse error at %s: %s", e.Loc, e.Msg)
}

type bailout struct{ err *Error }

// Parser holds the state of one parse.
type Parser struct {
	toks   []token.Token
	pos    int
	table  *ops.Table
	module string

	blocks []*ast.Block // open blocks, innermost last
	column int          // start column of the innermost multi-line block
	inExpr int          // open brackets; disables block and line handling
	loops  int          // enclosing loops within the current function
}

// New creates a parser over toks. Comment tokens are dropped.
func New(toks []token.Token, table *ops.Table, module string) *Parser {
	kept := make([]token.Token, 0, len(toks))
	for _, t := range toks {
		if t.Kind != token.Comment {
			kept = append(kept, t)
		}
	}
	if len(kept) == 0 || kept[len(kept)-1].Kind != token.EOF {
		var end token.Location
		if len(kept) > 0 {
			end = kept[len(kept)-1].End
		}
		kept = append(kept, token.Token{Kind: token.EOF, Start: end, End: end})
	}
	return &Parser{toks: kept, table: table, module: module}
}

// Parse tokenizes and parses a whole program.
func Parse(src, module string) (*ast.Block, error) {
	table := ops.Default()
	toks, err := scanner.Tokenize(src, table)
	if err != nil {
		return nil, err
	}
	return New(toks, table, module).ParseProgram()
}

// ParseExpression parses src as a single expression.
func ParseExpression(src string) (ast.Node, error) {
	table := ops.Default()
	toks, err := scanner.Tokenize(src, table)
	if err != nil {
		return nil, err
	}
	return New(toks, table, "").ParseExpression()
}

// ParseProgram parses the token stream as a module.
func (p *Parser) ParseProgram() (prog *ast.Block, err error) {
	defer p.recover(&err)
	first := p.raw()
	prog = ast.NewBlock(ast.ModuleBlock, first.Start.Column, first.Start)
	if first.Kind == token.EOF {
		return prog, nil
	}
	p.statements(prog)
	if t := p.raw(); t.Kind != token.EOF {
		p.errorf(t.Start, "unindent does not match any outer indentation level")
	}
	return prog, nil
}

// ParseExpression parses the token stream as one expression.
func (p *Parser) ParseExpression() (n ast.Node, err error) {
	defer p.recover(&err)
	n = p.expression(ops.PrecLowest)
	if t := p.raw(); t.Kind != token.EOF {
		p.errorf(t.Start, "expected end of expression, found %s", t)
	}
	return n, nil
}

func (p *Parser) recover(errp *error) {
	if r := recover(); r != nil {
		b, ok := r.(bailout)
		if !ok {
			panic(r)
		}
		*errp = b.err
	}
}

func (p *Parser) errorf(loc token.Location, format string, args ...any) {
	panic(bailout{&Error{Loc: loc, Msg: fmt.Sprintf(format, args...), Module: p.module}})
}

// raw returns the next token with no block handling.
func (p *Parser) raw() token.Token { return p.toks[p.pos] }

// peek returns the next token, or NotInBlock when it starts a line left of
// the current block.
func (p *Parser) peek() token.Token {
	t := p.toks[p.pos]
	if t.Kind != token.EOF && p.inExpr == 0 && p.newLine() && t.Start.Column < p.column {
		return token.Token{Kind: token.NotInBlock, Text: t.Text, Start: t.Start, End: t.Start}
	}
	return t
}

func (p *Parser) next() token.Token {
	t := p.toks[p.pos]
	if t.Kind != token.EOF {
		p.pos++
	}
	return t
}

// newLine reports whether the next token is the first on its line.
func (p *Parser) newLine() bool {
	return p.pos == 0 || p.toks[p.pos].Start.Line > p.toks[p.pos-1].End.Line
}

func (p *Parser) expectOp(sym, context string) token.Token {
	t := p.peek()
	if !t.IsOperator(sym) {
		p.errorf(t.Start, "expected '%s' %s, found %s", sym, context, t)
	}
	return p.next()
}

func (p *Parser) ident(what string) token.Token {
	t := p.peek()
	if t.Kind != token.Identifier || p.table.IsStatement(t.Text) {
		p.errorf(t.Start, "expected %s, found %s", what, t)
	}
	return p.next()
}

// endOfStatement reports whether nothing more belongs to the current
// statement.
func (p *Parser) endOfStatement() bool {
	t := p.peek()
	switch {
	case t.Kind == token.EOF, t.Kind == token.NotInBlock:
		return true
	case p.inExpr == 0 && p.newLine():
		return true
	case t.Kind == token.Operator && (p.table.Closing(t.Text) != nil || t.Text == ","):
		return true
	}
	return false
}

// declare records an assigned name in the nearest module, function or
// lambda block. Names owned by outer scopes are reached only through
// compound assignment, which never declares.
func (p *Parser) declare(name string) {
	for i := len(p.blocks) - 1; i >= 0; i-- {
		if b := p.blocks[i]; b.Kind.IsVariableScope() {
			b.Declare(name)
			return
		}
	}
}

// enterFunction resets loop tracking for a function body.
func (p *Parser) enterFunction() func() {
	loops := p.loops
	p.loops = 0
	return func() { p.loops = loops }
}

func (p *Parser) push(b *ast.Block) func() {
	p.blocks = append(p.blocks, b)
	return func() { p.blocks = p.blocks[:len(p.blocks)-1] }
}

// statements parses the statements of a multi-line block into b.
func (p *Parser) statements(b *ast.Block) {
	column := p.column
	p.column = b.Column
	pop := p.push(b)
	defer func() {
		pop()
		p.column = column
	}()

	for {
		t := p.peek()
		if t.Kind == token.EOF || t.Kind == token.NotInBlock {
			return
		}
		if b.Kind == ast.LambdaBlock && t.Kind == token.Operator &&
			(p.table.Closing(t.Text) != nil || t.Text == ",") {
			return
		}
		if len(b.Body) > 0 && !p.newLine() {
			p.errorf(t.Start, "expected end of statement, found %s", t)
		}
		if t.Start.Column != b.Column {
			p.errorf(t.Start, "unexpected indentation: expected column %d, found column %d", b.Column, t.Start.Column)
		}
		b.Body = append(b.Body, p.statement())
	}
}

// block parses ':' and the block that follows, either on the same line or
// indented on the following lines.
func (p *Parser) block(kind ast.BlockKind, what string, owner token.Token, names ...string) *ast.Block {
	colon := p.peek()
	if !colon.IsOperator(":") {
		p.errorf(colon.Start, "expected ':' after %s, found %s", what, colon)
	}
	p.next()

	t := p.raw()
	b := ast.NewBlock(kind, t.Start.Column, t.Start)
	for _, name := range names {
		b.Declare(name)
	}
	if t.Kind != token.EOF && t.Start.Line == colon.End.Line {
		pop := p.push(b)
		b.Body = append(b.Body, p.statement())
		pop()
		return b
	}
	if t.Kind == token.EOF || t.Start.Column <= p.column {
		p.errorf(colon.End, "expected an indented block after %s on line %d", what, owner.Start.Line)
	}
	p.statements(b)
	return b
}

// continues reports whether t is the keyword continuing a compound
// statement at the current block column (elif, else, except, finally).
func (p *Parser) continues(word string) bool {
	t := p.peek()
	return t.IsKeyword(word) && (t.Start.Column == p.column || !p.newLine())
}

func (p *Parser) statement() ast.Node {
	t := p.peek()
	if t.Kind == token.Identifier && p.table.IsStatement(t.Text) {
		switch t.Text {
		case "if":
			return p.ifStmt()
		case "while":
			return p.whileStmt()
		case "for":
			return p.forStmt()
		case "def":
			return p.defStmt(false, t)
		case "async":
			kw := p.next()
			if !p.peek().IsKeyword("def") {
				p.errorf(p.peek().Start, "expected 'def' after 'async', found %s", p.peek())
			}
			return p.defStmt(true, kw)
		case "try":
			return p.tryStmt()
		case "return":
			kw := p.next()
			n := &ast.ReturnStmt{At: kw.Start}
			if !p.endOfStatement() {
				n.Value = p.expression(ops.PrecLowest)
			}
			return n
		case "break", "continue":
			kw := p.next()
			if p.loops == 0 {
				p.errorf(kw.Start, "'%s' outside loop", kw.Text)
			}
			if kw.Text == "break" {
				return &ast.Break{At: kw.Start}
			}
			return &ast.Continue{At: kw.Start}
		case "pass":
			return &ast.Pass{At: p.next().Start}
		case "raise":
			kw := p.next()
			n := &ast.Raise{At: kw.Start}
			if !p.endOfStatement() {
				n.Value = p.expression(ops.PrecLowest)
			}
			return n
		case "import":
			return p.importStmt()
		case "from":
			return p.fromStmt()
		case "elif", "else":
			p.errorf(t.Start, "'%s' without matching 'if'", t.Text)
		case "except", "finally":
			p.errorf(t.Start, "'%s' without matching 'try'", t.Text)
		default:
			p.errorf(t.Start, "unexpected keyword '%s'", t.Text)
		}
	}
	return p.expression(ops.PrecLowest)
}

func (p *Parser) ifStmt() ast.Node {
	kw := p.next()
	n := &ast.If{At: kw.Start}
	cond := p.expression(ops.PrecLowest)
	n.Branches = append(n.Branches, ast.Branch{Cond: cond, Body: p.block(ast.IfBlock, "'if' statement", kw)})
	for p.continues("elif") {
		t := p.next()
		cond := p.expression(ops.PrecLowest)
		n.Branches = append(n.Branches, ast.Branch{Cond: cond, Body: p.block(ast.IfBlock, "'elif' statement", t)})
	}
	if p.continues("else") {
		t := p.next()
		n.Else = p.block(ast.ElseBlock, "'else'", t)
	}
	return n
}

func (p *Parser) whileStmt() ast.Node {
	kw := p.next()
	cond := p.expression(ops.PrecLowest)
	p.loops++
	b := p.block(ast.WhileBlock, "'while' statement", kw)
	p.loops--
	return &ast.While{Cond: cond, Body: b, At: kw.Start}
}

func (p *Parser) forStmt() ast.Node {
	kw := p.next()
	var targets []ast.Node
	for {
		id := p.ident("loop variable")
		p.declare(id.Text)
		targets = append(targets, &ast.Ident{Name: id.Text, At: id.Start})
		if !p.peek().IsOperator(",") {
			break
		}
		p.next()
	}
	p.expectOp("in", "in 'for' statement")
	iter := p.expression(ops.PrecLowest)

	var target ast.Assignable = targets[0].(*ast.Ident)
	if len(targets) > 1 {
		target = &ast.Tuple{Items: targets, At: targets[0].Loc()}
	}
	p.loops++
	b := p.block(ast.ForBlock, "'for' statement", kw)
	p.loops--
	return &ast.For{Target: target, Iter: iter, Body: b, At: kw.Start}
}

func (p *Parser) defStmt(async bool, start token.Token) ast.Node {
	kw := p.next() // def
	name := p.ident("function name")
	p.declare(name.Text)

	params := p.params(")")
	names := make([]string, len(params))
	for i, prm := range params {
		names[i] = prm.Name
	}
	leave := p.enterFunction()
	b := p.block(ast.FunctionBlock, "function definition", kw, names...)
	leave()
	return &ast.FuncDef{Name: name.Text, Params: params, Body: b, Async: async, At: start.Start}
}

// params parses "(a, b = 1)" for def statements.
func (p *Parser) params(close string) []ast.Param {
	p.expectOp("(", "before parameters")
	p.inExpr++
	var params []ast.Param
	seen := make(map[string]bool)
	for !p.peek().IsOperator(close) {
		id := p.ident("parameter name")
		if seen[id.Text] {
			p.errorf(id.Start, "duplicate parameter '%s'", id.Text)
		}
		seen[id.Text] = true
		prm := ast.Param{Name: id.Text}
		if p.peek().IsOperator("=") {
			p.next()
			prm.Default = p.expression(ops.PrecComma)
		} else if len(params) > 0 && params[len(params)-1].Default != nil {
			p.errorf(id.Start, "parameter '%s' without default follows parameter with default", id.Text)
		}
		params = append(params, prm)
		if !p.peek().IsOperator(",") {
			break
		}
		p.next()
	}
	p.expectOp(close, "after parameters")
	p.inExpr--
	return params
}

func (p *Parser) tryStmt() ast.Node {
	kw := p.next()
	n := &ast.Try{At: kw.Start, Body: p.block(ast.TryBlock, "'try'", kw)}
	for p.continues("except") {
		t := p.next()
		h := &ast.Except{At: t.Start}
		if c := p.peek(); c.Kind == token.Identifier && !c.IsKeyword("as") {
			h.Category = p.next().Text
		}
		if p.peek().IsKeyword("as") {
			p.next()
			name := p.ident("name after 'as'")
			h.Name = name.Text
			p.declare(name.Text)
		}
		h.Body = p.block(ast.ExceptBlock, "'except'", t)
		n.Handlers = append(n.Handlers, h)
	}
	if len(n.Handlers) > 0 && p.continues("else") {
		t := p.next()
		n.Else = p.block(ast.ElseBlock, "'else'", t)
	}
	if p.continues("finally") {
		t := p.next()
		n.Finally = p.block(ast.FinallyBlock, "'finally'", t)
	}
	if len(n.Handlers) == 0 && n.Finally == nil {
		t := p.peek()
		p.errorf(t.Start, "expected 'except' or 'finally' after 'try' block, found %s", t)
	}
	return n
}

// importPath parses a quoted path or a dotted name and returns it with the
// default binding name.
func (p *Parser) importPath() (string, string) {
	t := p.peek()
	if t.Kind == token.Literal {
		s, ok := t.Value.(string)
		if !ok {
			p.errorf(t.Start, "expected module path, found %s", t)
		}
		p.next()
		base := path.Base(s)
		return s, strings.TrimSuffix(base, path.Ext(base))
	}
	parts := []string{p.ident("module name").Text}
	for p.peek().IsOperator(".") {
		p.next()
		parts = append(parts, p.ident("module name").Text)
	}
	return strings.Join(parts, "."), parts[len(parts)-1]
}

func (p *Parser) importStmt() ast.Node {
	kw := p.next()
	pth, alias := p.importPath()
	if p.peek().IsKeyword("as") {
		p.next()
		alias = p.ident("name after 'as'").Text
	} else if !isIdentifier(alias) {
		p.errorf(kw.Start, "import of %q needs 'as <name>'", pth)
	}
	p.declare(alias)
	return &ast.Import{Path: pth, Alias: alias, At: kw.Start}
}

func (p *Parser) fromStmt() ast.Node {
	kw := p.next()
	pth, _ := p.importPath()
	if !p.peek().IsKeyword("import") {
		p.errorf(p.peek().Start, "expected 'import' after module path, found %s", p.peek())
	}
	p.next()
	n := &ast.Import{Path: pth, At: kw.Start}
	for {
		name := p.ident("imported name")
		in := ast.ImportName{Name: name.Text, Alias: name.Text}
		if p.peek().IsKeyword("as") {
			p.next()
			in.Alias = p.ident("name after 'as'").Text
		}
		p.declare(in.Alias)
		n.Names = append(n.Names, in)
		if !p.peek().IsOperator(",") {
			break
		}
		p.next()
	}
	return n
}

func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		alpha := c == '_' || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
		if !alpha && (i == 0 || c < '0' || c > '9') {
			return false
		}
	}
	return true
}

// literalKey converts a literal object key to its string form.
func literalKey(t token.Token) string {
	switch v := t.Value.(type) {
	case string:
		return v
	case float64:
		return value.FormatNumber(v)
	}
	return t.Text
}
