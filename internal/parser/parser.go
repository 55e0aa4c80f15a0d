// Package parser implements Mila's recursive-descent parser: one token
// of lookahead, a fixed operator-precedence hierarchy, and fail-fast
// error reporting (the first syntax error aborts parsing).
package parser

import (
	"fmt"

	"github.com/rihafilip/mila/internal/ast"
	"github.com/rihafilip/mila/internal/diag"
	"github.com/rihafilip/mila/internal/lexer"
	"github.com/rihafilip/mila/internal/streamstack"
	"github.com/rihafilip/mila/internal/token"
)

// Parser consumes tokens from a lexer, through a streamstack.Stream that
// gives it one token of lookahead, and builds Mila's AST. curTok and
// peekTok cache that window; both are only ever mutated by advance.
type Parser struct {
	tokens   *streamstack.Stream[token.Token]
	filename string
	lastPos  token.Position

	curTok  token.Token
	peekTok token.Token
}

// New constructs a parser over source text, tagging any diagnostic with
// filename.
func New(source, filename string) (*Parser, error) {
	lx := lexer.New(source)
	lx.SetFilename(filename)

	p := &Parser{filename: filename}
	p.tokens = streamstack.New(func() (token.Token, bool, error) {
		tok, err := lx.Next()
		if err != nil {
			if lexErr, ok := err.(*lexer.Error); ok {
				return token.Token{}, false, lexErr.ToDiagnostic(filename)
			}
			return token.Token{}, false, err
		}
		if tok == nil {
			return token.Token{}, false, nil
		}
		p.lastPos = tok.Pos
		return *tok, true, nil
	})

	first, ok, err := p.tokens.Pop()
	if err != nil {
		return nil, err
	}
	p.curTok = p.eofOr(first, ok)

	second, ok, err := p.tokens.Top()
	if err != nil {
		return nil, err
	}
	p.peekTok = p.eofOr(second, ok)

	return p, nil
}

// eofOr substitutes a synthetic EOF token when the stream has no more
// input, positioned at the start of the last real token seen.
func (p *Parser) eofOr(tok token.Token, ok bool) token.Token {
	if ok {
		return tok
	}
	return token.Token{Type: token.EOF, Pos: p.lastPos}
}

// advance shifts the lookahead window forward by one token.
func (p *Parser) advance() error {
	p.curTok = p.peekTok

	if p.curTok.Type != token.EOF {
		// Consume the token peekTok represented.
		if _, _, err := p.tokens.Pop(); err != nil {
			return err
		}
	}

	next, ok, err := p.tokens.Top()
	if err != nil {
		return err
	}
	p.peekTok = p.eofOr(next, ok)
	return nil
}

func (p *Parser) errorf(pos token.Position, format string, args ...any) error {
	return diag.New(diag.StageParser, diag.CodeParseUnexpectedToken, fmt.Sprintf(format, args...), diag.Span{
		Filename: p.filename,
		Line:     pos.Line,
		Column:   pos.Column,
	})
}

// expect consumes curTok if it matches tt, otherwise fails immediately.
func (p *Parser) expect(tt token.Type) (token.Token, error) {
	if p.curTok.Type != tt {
		return token.Token{}, p.errorf(p.curTok.Pos, "expected %s, got %s", tt, p.curTok.Type)
	}
	tok := p.curTok
	if err := p.advance(); err != nil {
		return token.Token{}, err
	}
	return tok, nil
}

func (p *Parser) at(tt token.Type) bool { return p.curTok.Type == tt }

// ParseProgram parses an entire compilation unit: the top-level grammar
// production "program" ident ";" {global} "begin" stmtList "end" ".".
func (p *Parser) ParseProgram() (*ast.Program, error) {
	start := p.curTok.Pos

	if _, err := p.expect(token.PROGRAM); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	var globals []ast.Global
	for isGlobalStart(p.curTok.Type) {
		g, err := p.parseGlobal()
		if err != nil {
			return nil, err
		}
		globals = append(globals, g)
	}

	if _, err := p.expect(token.BEGIN); err != nil {
		return nil, err
	}
	body, err := p.parseStmtList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DOT); err != nil {
		return nil, err
	}
	if !p.at(token.EOF) {
		return nil, p.errorf(p.curTok.Pos, "unexpected input after program end: %s", p.curTok.Type)
	}

	return ast.NewProgram(nameTok.Literal, expandGlobals(globals), body, start), nil
}

func isGlobalStart(tt token.Type) bool {
	switch tt {
	case token.CONST, token.VAR, token.PROCEDURE, token.FUNCTION:
		return true
	default:
		return false
	}
}

func (p *Parser) parseGlobal() (ast.Global, error) {
	switch p.curTok.Type {
	case token.CONST:
		return p.parseConstDecl()
	case token.VAR:
		return p.parseVarDecl()
	case token.PROCEDURE:
		return p.parseSubprogram(false)
	case token.FUNCTION:
		return p.parseSubprogram(true)
	default:
		return nil, p.errorf(p.curTok.Pos, "expected declaration, got %s", p.curTok.Type)
	}
}

func (p *Parser) parseConstDecl() (ast.Global, error) {
	pos := p.curTok.Pos
	if _, err := p.expect(token.CONST); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.EQ); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return ast.NewGlobalConst(nameTok.Literal, value, pos), nil
}

// parseVarDecl parses "var" identList ":" type ";" and fans it out into
// one ast.GlobalVar per declared name, all sharing the same Type node.
func (p *Parser) parseVarDecl() (ast.Global, error) {
	// The grammar allows only a single var-group per "var" here; a program
	// with several groups simply repeats "var" (isGlobalStart re-enters).
	pos := p.curTok.Pos
	if _, err := p.expect(token.VAR); err != nil {
		return nil, err
	}
	names, err := p.parseIdentList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	return &varGroup{names: names, typ: typ, pos: pos}, nil
}

// varGroup is an intermediate parse result: a var declaration naming
// several identifiers with one shared type. expandGlobals expands it into
// individual ast.GlobalVar entries; it is never returned to callers
// outside this package.
type varGroup struct {
	names []string
	typ   ast.Type
	pos   token.Position
}

func (g *varGroup) Pos() token.Position { return g.pos }
func (*varGroup) GlobalNode()           {}

// expandGlobals flattens the Global list the parser produced, turning
// each varGroup into one ast.GlobalVar per name.
func expandGlobals(globals []ast.Global) []ast.Global {
	var out []ast.Global
	for _, g := range globals {
		if vg, ok := g.(*varGroup); ok {
			for _, name := range vg.names {
				out = append(out, &ast.GlobalVar{Variable: ast.NewVariable(name, vg.typ, vg.pos)})
			}
			continue
		}
		out = append(out, g)
	}
	return out
}

func (p *Parser) parseIdentList() ([]string, error) {
	tok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	names := []string{tok.Literal}
	for p.at(token.COMMA) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		tok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		names = append(names, tok.Literal)
	}
	return names, nil
}

func (p *Parser) parseType() (ast.Type, error) {
	pos := p.curTok.Pos
	switch p.curTok.Type {
	case token.INTEGER:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewIntegerType(pos), nil
	case token.BOOLEAN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewBooleanType(pos), nil
	case token.ARRAY:
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.LBRACKET); err != nil {
			return nil, err
		}
		low, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.DOTDOT); err != nil {
			return nil, err
		}
		high, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RBRACKET); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.OF); err != nil {
			return nil, err
		}
		elem, err := p.parseType()
		if err != nil {
			return nil, err
		}
		return ast.NewArrayType(low, high, elem, pos), nil
	default:
		return nil, p.errorf(pos, "expected a type, got %s", p.curTok.Type)
	}
}

// parseSubprogram parses a procedure or function declaration, including
// its forward-declared and defined forms.
func (p *Parser) parseSubprogram(isFunction bool) (ast.Global, error) {
	pos := p.curTok.Pos
	if isFunction {
		if _, err := p.expect(token.FUNCTION); err != nil {
			return nil, err
		}
	} else {
		if _, err := p.expect(token.PROCEDURE); err != nil {
			return nil, err
		}
	}
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}

	var params []*ast.Variable
	if p.at(token.LPAREN) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if !p.at(token.RPAREN) {
			params, err = p.parseParamList()
			if err != nil {
				return nil, err
			}
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
	}

	var retType ast.Type
	if isFunction {
		if _, err := p.expect(token.COLON); err != nil {
			return nil, err
		}
		retType, err = p.parseType()
		if err != nil {
			return nil, err
		}
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	if p.at(token.FORWARD) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if _, err := p.expect(token.SEMICOLON); err != nil {
			return nil, err
		}
		return ast.NewSubprogram(nameTok.Literal, params, retType, nil, nil, true, pos), nil
	}

	var locals []*ast.Variable
	for p.at(token.VAR) {
		group, err := p.parseLocalVarDecl()
		if err != nil {
			return nil, err
		}
		locals = append(locals, group...)
	}

	if _, err := p.expect(token.BEGIN); err != nil {
		return nil, err
	}
	body, err := p.parseStmtList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.END); err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}

	return ast.NewSubprogram(nameTok.Literal, params, retType, locals, body, false, pos), nil
}

func (p *Parser) parseParamList() ([]*ast.Variable, error) {
	group, err := p.parseParamGroup()
	if err != nil {
		return nil, err
	}
	params := group
	for p.at(token.SEMICOLON) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		group, err := p.parseParamGroup()
		if err != nil {
			return nil, err
		}
		params = append(params, group...)
	}
	return params, nil
}

func (p *Parser) parseParamGroup() ([]*ast.Variable, error) {
	pos := p.curTok.Pos
	names, err := p.parseIdentList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	vars := make([]*ast.Variable, len(names))
	for i, name := range names {
		vars[i] = ast.NewVariable(name, typ, pos)
	}
	return vars, nil
}

func (p *Parser) parseLocalVarDecl() ([]*ast.Variable, error) {
	pos := p.curTok.Pos
	if _, err := p.expect(token.VAR); err != nil {
		return nil, err
	}
	names, err := p.parseIdentList()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.COLON); err != nil {
		return nil, err
	}
	typ, err := p.parseType()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.SEMICOLON); err != nil {
		return nil, err
	}
	vars := make([]*ast.Variable, len(names))
	for i, name := range names {
		vars[i] = ast.NewVariable(name, typ, pos)
	}
	return vars, nil
}

// parseStmtList parses a semicolon-separated statement sequence, as
// found inside a "begin ... end" block. A trailing semicolon before the
// closing keyword is allowed; it produces no extra empty statement.
func (p *Parser) parseStmtList() ([]ast.Statement, error) {
	var stmts []ast.Statement
	stmt, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	if stmt != nil {
		stmts = append(stmts, stmt)
	}
	for p.at(token.SEMICOLON) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		if isStmtListEnd(p.curTok.Type) {
			break
		}
		stmt, err := p.parseStmt()
		if err != nil {
			return nil, err
		}
		if stmt != nil {
			stmts = append(stmts, stmt)
		}
	}
	return stmts, nil
}

func isStmtListEnd(tt token.Type) bool {
	return tt == token.END || tt == token.EOF
}

func (p *Parser) parseStmt() (ast.Statement, error) {
	pos := p.curTok.Pos
	switch p.curTok.Type {
	case token.BEGIN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		stmts, err := p.parseStmtList()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.END); err != nil {
			return nil, err
		}
		return ast.NewCompoundStmt(stmts, pos), nil
	case token.IF:
		return p.parseIfStmt()
	case token.WHILE:
		return p.parseWhileStmt()
	case token.FOR:
		return p.parseForStmt()
	case token.EXIT:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewExitStmt(pos), nil
	case token.BREAK:
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewBreakStmt(pos), nil
	case token.IDENT:
		return p.parseAssignOrCallStmt()
	default:
		// Empty statement: e.g. two consecutive semicolons, or a
		// semicolon immediately before "end".
		return nil, nil
	}
}

func (p *Parser) parseIfStmt() (ast.Statement, error) {
	pos := p.curTok.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.THEN); err != nil {
		return nil, err
	}
	then, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	var els ast.Statement
	if p.at(token.ELSE) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		els, err = p.parseStmt()
		if err != nil {
			return nil, err
		}
	}
	return ast.NewIfStmt(cond, then, els, pos), nil
}

func (p *Parser) parseWhileStmt() (ast.Statement, error) {
	pos := p.curTok.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DO); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return ast.NewWhileStmt(cond, body, pos), nil
}

func (p *Parser) parseForStmt() (ast.Statement, error) {
	pos := p.curTok.Pos
	if err := p.advance(); err != nil {
		return nil, err
	}
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	from, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	var downto bool
	switch p.curTok.Type {
	case token.TO:
		downto = false
	case token.DOWNTO:
		downto = true
	default:
		return nil, p.errorf(p.curTok.Pos, "expected 'to' or 'downto', got %s", p.curTok.Type)
	}
	if err := p.advance(); err != nil {
		return nil, err
	}
	to, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if _, err := p.expect(token.DO); err != nil {
		return nil, err
	}
	body, err := p.parseStmt()
	if err != nil {
		return nil, err
	}
	return ast.NewForStmt(ast.NewIdent(nameTok.Literal, nameTok.Pos), from, to, downto, body, pos), nil
}

// parseAssignOrCallStmt disambiguates "ident := expr", "ident[e] := expr"
// and "ident(args)" on the identifier alone: the grammar needs no
// backtracking here since assignment targets and call statements share
// no token after the leading identifier's optional index.
func (p *Parser) parseAssignOrCallStmt() (ast.Statement, error) {
	pos := p.curTok.Pos
	nameTok, err := p.expect(token.IDENT)
	if err != nil {
		return nil, err
	}
	ident := ast.NewIdent(nameTok.Literal, nameTok.Pos)

	if p.at(token.LPAREN) {
		call, err := p.parseCallExprTail(ident)
		if err != nil {
			return nil, err
		}
		return ast.NewCallStmt(call, pos), nil
	}

	var target ast.Expression = ident
	if p.at(token.LBRACKET) {
		idx, err := p.parseIndexSuffix(ident, pos)
		if err != nil {
			return nil, err
		}
		target = idx
	}

	if _, err := p.expect(token.ASSIGN); err != nil {
		return nil, err
	}
	value, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	return ast.NewAssignStmt(target, value, pos), nil
}

// ---- Expressions: expr -> simpleExpr -> term -> factor -> primary ----

var relOps = map[token.Type]bool{
	token.EQ: true, token.NEQ: true, token.LT: true,
	token.LE: true, token.GT: true, token.GE: true,
}

func (p *Parser) parseExpr() (ast.Expression, error) {
	left, err := p.parseSimpleExpr()
	if err != nil {
		return nil, err
	}
	if relOps[p.curTok.Type] {
		op := p.curTok.Type
		pos := p.curTok.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseSimpleExpr()
		if err != nil {
			return nil, err
		}
		return ast.NewBinaryExpr(op, left, right, pos), nil
	}
	return left, nil
}

var addOps = map[token.Type]bool{token.PLUS: true, token.MINUS: true, token.OR: true, token.XOR: true}

func (p *Parser) parseSimpleExpr() (ast.Expression, error) {
	left, err := p.parseTerm()
	if err != nil {
		return nil, err
	}
	for addOps[p.curTok.Type] {
		op := p.curTok.Type
		pos := p.curTok.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseTerm()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(op, left, right, pos)
	}
	return left, nil
}

var mulOps = map[token.Type]bool{
	token.STAR: true, token.SLASH: true, token.DIV: true,
	token.MOD: true, token.AND: true,
}

func (p *Parser) parseTerm() (ast.Expression, error) {
	left, err := p.parseFactor()
	if err != nil {
		return nil, err
	}
	for mulOps[p.curTok.Type] {
		op := p.curTok.Type
		pos := p.curTok.Pos
		if err := p.advance(); err != nil {
			return nil, err
		}
		right, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		left = ast.NewBinaryExpr(op, left, right, pos)
	}
	return left, nil
}

func (p *Parser) parseFactor() (ast.Expression, error) {
	pos := p.curTok.Pos
	switch p.curTok.Type {
	case token.MINUS, token.PLUS, token.NOT:
		op := p.curTok.Type
		if err := p.advance(); err != nil {
			return nil, err
		}
		operand, err := p.parseFactor()
		if err != nil {
			return nil, err
		}
		return ast.NewUnaryExpr(op, operand, pos), nil
	default:
		return p.parsePrimary()
	}
}

func (p *Parser) parsePrimary() (ast.Expression, error) {
	pos := p.curTok.Pos
	switch p.curTok.Type {
	case token.INT:
		lit := p.curTok.Literal
		if err := p.advance(); err != nil {
			return nil, err
		}
		v, err := parseIntLiteral(lit)
		if err != nil {
			return nil, p.errorf(pos, "%s", err)
		}
		return ast.NewIntLit(v, pos), nil
	case token.BOOL:
		v := p.curTok.Literal == "true"
		if err := p.advance(); err != nil {
			return nil, err
		}
		return ast.NewBoolLit(v, pos), nil
	case token.LPAREN:
		if err := p.advance(); err != nil {
			return nil, err
		}
		inner, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		if _, err := p.expect(token.RPAREN); err != nil {
			return nil, err
		}
		return inner, nil
	case token.IDENT:
		nameTok, err := p.expect(token.IDENT)
		if err != nil {
			return nil, err
		}
		ident := ast.NewIdent(nameTok.Literal, nameTok.Pos)
		switch p.curTok.Type {
		case token.LPAREN:
			return p.parseCallExprTail(ident)
		case token.LBRACKET:
			return p.parseIndexSuffix(ident, pos)
		default:
			return ident, nil
		}
	default:
		return nil, p.errorf(pos, "expected an expression, got %s", p.curTok.Type)
	}
}

// parseIndexSuffix parses "[ expr (, expr)* ]" following an indexable
// base expression. A multi-dimensional index list desugars into nested
// single-index IndexExprs -- "a[i, j]" means "a[i][j]" -- since a
// declared array[..] of array[..] of T is itself a chain of one-
// dimensional array types, and each nested index applies against the
// next dimension's own low bound during lowering.
func (p *Parser) parseIndexSuffix(base ast.Expression, pos token.Position) (ast.Expression, error) {
	if _, err := p.expect(token.LBRACKET); err != nil {
		return nil, err
	}
	idx, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	result := ast.Expression(ast.NewIndexExpr(base, idx, pos))
	for p.at(token.COMMA) {
		if err := p.advance(); err != nil {
			return nil, err
		}
		next, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		result = ast.NewIndexExpr(result, next, pos)
	}
	if _, err := p.expect(token.RBRACKET); err != nil {
		return nil, err
	}
	return result, nil
}

func (p *Parser) parseCallExprTail(callee *ast.Ident) (*ast.CallExpr, error) {
	pos := callee.Pos()
	if _, err := p.expect(token.LPAREN); err != nil {
		return nil, err
	}
	var args []ast.Expression
	if !p.at(token.RPAREN) {
		arg, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		args = append(args, arg)
		for p.at(token.COMMA) {
			if err := p.advance(); err != nil {
				return nil, err
			}
			arg, err := p.parseExpr()
			if err != nil {
				return nil, err
			}
			args = append(args, arg)
		}
	}
	if _, err := p.expect(token.RPAREN); err != nil {
		return nil, err
	}
	return ast.NewCallExpr(callee, args, pos), nil
}
