// Package parser turns a dialogue DSL token stream into an ast.Script.
//
// The parser is recursive-descent with one-token lookahead. On a syntax
// error it records a ParseError and resynchronizes by skipping tokens
// until the next Step keyword or EOF, matching the error-recovery policy
// in the language specification: a script with errors still returns every
// step that parsed cleanly.
package parser

import (
	"fmt"

	"github.com/ormasoftchile/dialogos/pkg/ast"
	"github.com/ormasoftchile/dialogos/pkg/lexer"
	"github.com/ormasoftchile/dialogos/pkg/token"
)

// Parse tokenizes and parses source in one call.
func Parse(source string) (*ast.Script, error) {
	toks, err := lexer.Tokenize(source)
	if err != nil {
		return nil, err
	}
	return ParseTokens(toks), nil
}

// ParseTokens parses an already-lexed token stream. Lexical errors are not
// representable here; callers that need lexer errors surfaced separately
// should call lexer.Tokenize themselves first.
func ParseTokens(toks []token.Token) *ast.Script {
	p := &parser{toks: toks}
	return p.parseScript()
}

type parser struct {
	toks []token.Token
	pos  int
}

func (p *parser) cur() token.Token {
	if p.pos >= len(p.toks) {
		return token.Token{Kind: token.EOF}
	}
	return p.toks[p.pos]
}

func (p *parser) advance() token.Token {
	t := p.cur()
	if p.pos < len(p.toks)-1 || t.Kind != token.EOF {
		p.pos++
	}
	return t
}

func (p *parser) skipNewlines() {
	for p.cur().Kind == token.NEWLINE {
		p.advance()
	}
}

// recover consumes tokens until the next Step keyword or EOF.
func (p *parser) recover() {
	for p.cur().Kind != token.STEP && p.cur().Kind != token.EOF {
		p.advance()
	}
}

// syntaxError carries source position alongside a parse failure message.
type syntaxError struct {
	Message string
	Line    int
	Column  int
}

func (e *syntaxError) Error() string { return e.Message }

func (p *parser) errorf(format string, args ...any) error {
	c := p.cur()
	return &syntaxError{Message: fmt.Sprintf(format, args...), Line: c.Line, Column: c.Column}
}

func (p *parser) parseScript() *ast.Script {
	script := &ast.Script{Steps: make(map[string]*ast.Step)}

	for {
		p.skipNewlines()
		if p.cur().Kind == token.EOF {
			break
		}
		if p.cur().Kind != token.STEP {
			c := p.cur()
			script.Errors = append(script.Errors, ast.ParseError{
				Message: fmt.Sprintf("expected 'Step', got %s", c.Kind),
				Line:    c.Line, Column: c.Column,
			})
			p.recover()
			continue
		}
		step, errs := p.parseStep()
		if len(errs) > 0 {
			script.Errors = append(script.Errors, errs...)
			continue
		}
		if _, dup := script.Steps[step.Name]; dup {
			script.Errors = append(script.Errors, ast.ParseError{
				Message: fmt.Sprintf("duplicate step name %q", step.Name),
				Line:    step.Line, Column: step.Column,
			})
			continue
		}
		script.Steps[step.Name] = step
		script.Order = append(script.Order, step.Name)
		if script.EntryStep == "" {
			script.EntryStep = step.Name
		}
	}
	return script
}

// hoistSink accumulates Branch/Silence/Default declarations found anywhere
// in a step's body (including inside If/While blocks) and attaches them to
// the enclosing step, per the DSL's hoisting rule.
type hoistSink struct {
	branches    []ast.Branch
	silenceStep string
	hasSilence  bool
	defaultStep string
	hasDefault  bool
}

func (p *parser) parseStep() (*ast.Step, []ast.ParseError) {
	stepTok := p.advance() // 'Step'
	if p.cur().Kind != token.IDENTIFIER {
		err := ast.ParseError{Message: "expected step name after 'Step'", Line: p.cur().Line, Column: p.cur().Column}
		p.recover()
		return nil, []ast.ParseError{err}
	}
	nameTok := p.advance()

	if p.cur().Kind != token.NEWLINE {
		err := ast.ParseError{Message: "expected newline after step name", Line: p.cur().Line, Column: p.cur().Column}
		p.recover()
		return nil, []ast.ParseError{err}
	}
	p.skipNewlines()

	sink := &hoistSink{}
	stmts, err := p.parseBlock(sink, token.STEP, token.EOF)
	if err != nil {
		perr := toParseError(err)
		p.recover()
		return nil, []ast.ParseError{perr}
	}

	step := &ast.Step{
		Name:        nameTok.Text,
		Statements:  stmts,
		Branches:    sink.branches,
		SilenceStep: sink.silenceStep,
		HasSilence:  sink.hasSilence,
		DefaultStep: sink.defaultStep,
		HasDefault:  sink.hasDefault,
		Line:        stepTok.Line,
		Column:      stepTok.Column,
	}
	for _, s := range stmts {
		if s.Kind == ast.StmtExit {
			step.IsExit = true
		}
		if s.Kind == ast.StmtListen {
			step.HasListen = true
		}
	}
	return step, nil
}

func toParseError(err error) ast.ParseError {
	if pe, ok := err.(*syntaxError); ok {
		return ast.ParseError{Message: pe.Message, Line: pe.Line, Column: pe.Column}
	}
	return ast.ParseError{Message: err.Error()}
}

// parseBlock parses statements (hoisting Branch/Silence/Default into sink)
// until a token kind in terms is reached. Reaching STEP or EOF before any
// of terms is itself reached is a parse error, unless token.STEP is one of
// the requested terminators (the top-level step-body case).
func (p *parser) parseBlock(sink *hoistSink, terms ...token.Kind) ([]ast.Statement, error) {
	isTerm := func(k token.Kind) bool {
		for _, t := range terms {
			if t == k {
				return true
			}
		}
		return false
	}

	var stmts []ast.Statement
	for {
		p.skipNewlines()
		if isTerm(p.cur().Kind) {
			return stmts, nil
		}
		if p.cur().Kind == token.EOF {
			return stmts, p.errorf("unexpected end of input, expected %v", terms)
		}
		if p.cur().Kind == token.STEP {
			return stmts, p.errorf("unexpected 'Step', expected %v", terms)
		}

		item, err := p.parseStatementItem(sink)
		if err != nil {
			return stmts, err
		}
		if item != nil {
			stmts = append(stmts, *item)
		}

		if p.cur().Kind == token.NEWLINE {
			p.skipNewlines()
			continue
		}
		if isTerm(p.cur().Kind) || p.cur().Kind == token.STEP || p.cur().Kind == token.EOF {
			continue
		}
		return stmts, p.errorf("expected newline after statement, got %s", p.cur().Kind)
	}
}

// parseStatementItem parses one statement. Branch/Silence/Default are
// recorded into sink and a nil item is returned (they never appear in the
// statement sequence).
func (p *parser) parseStatementItem(sink *hoistSink) (*ast.Statement, error) {
	tok := p.cur()
	switch tok.Kind {
	case token.SPEAK:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Statement{Kind: ast.StmtSpeak, Expr: expr, Line: tok.Line, Column: tok.Column}, nil

	case token.LISTEN:
		p.advance()
		var begin, end *float64
		if p.cur().Kind == token.NUMBER {
			v := p.advance().Num
			begin = &v
			if p.cur().Kind == token.COMMA {
				p.advance()
				if p.cur().Kind != token.NUMBER {
					return nil, p.errorf("expected number after ',' in Listen")
				}
				v2 := p.advance().Num
				end = &v2
			}
		}
		return &ast.Statement{Kind: ast.StmtListen, BeginTimeout: begin, EndTimeout: end, Line: tok.Line, Column: tok.Column}, nil

	case token.BRANCH:
		p.advance()
		if p.cur().Kind != token.STRING {
			return nil, p.errorf("expected string intent literal after 'Branch'")
		}
		intent := p.advance().Str
		if p.cur().Kind == token.COMMA {
			p.advance()
		}
		if p.cur().Kind != token.IDENTIFIER {
			return nil, p.errorf("expected target step name in Branch")
		}
		target := p.advance().Text
		sink.branches = append(sink.branches, ast.Branch{Intent: intent, Target: target, Line: tok.Line, Column: tok.Column})
		return nil, nil

	case token.SILENCE:
		p.advance()
		if p.cur().Kind != token.IDENTIFIER {
			return nil, p.errorf("expected target step name in Silence")
		}
		sink.silenceStep = p.advance().Text
		sink.hasSilence = true
		return nil, nil

	case token.DEFAULT:
		p.advance()
		if p.cur().Kind != token.IDENTIFIER {
			return nil, p.errorf("expected target step name in Default")
		}
		sink.defaultStep = p.advance().Text
		sink.hasDefault = true
		return nil, nil

	case token.EXIT:
		p.advance()
		return &ast.Statement{Kind: ast.StmtExit, Line: tok.Line, Column: tok.Column}, nil

	case token.GOTO:
		p.advance()
		if p.cur().Kind != token.IDENTIFIER {
			return nil, p.errorf("expected target step name after 'Goto'")
		}
		target := p.advance().Text
		return &ast.Statement{Kind: ast.StmtGoto, Target: target, Line: tok.Line, Column: tok.Column}, nil

	case token.SET:
		p.advance()
		if p.cur().Kind != token.VARIABLE {
			return nil, p.errorf("expected variable after 'Set'")
		}
		varName := p.advance().Text
		if p.cur().Kind != token.ASSIGN {
			return nil, p.errorf("expected '=' in Set")
		}
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return nil, err
		}
		return &ast.Statement{Kind: ast.StmtSet, VarName: varName, Expr: expr, Line: tok.Line, Column: tok.Column}, nil

	case token.IF:
		return p.parseIf(sink, tok)

	case token.WHILE:
		return p.parseWhile(sink, tok)

	case token.CALL:
		return p.parseCall(tok)

	default:
		return nil, p.errorf("unexpected token %s", tok.Kind)
	}
}

func (p *parser) parseIf(sink *hoistSink, tok token.Token) (*ast.Statement, error) {
	p.advance() // 'If'
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != token.NEWLINE {
		return nil, p.errorf("expected newline after If condition")
	}
	p.skipNewlines()

	thenBlock, err := p.parseBlock(sink, token.ELSE, token.ENDIF)
	if err != nil {
		return nil, err
	}
	var elseBlock []ast.Statement
	if p.cur().Kind == token.ELSE {
		p.advance()
		if p.cur().Kind != token.NEWLINE {
			return nil, p.errorf("expected newline after Else")
		}
		p.skipNewlines()
		elseBlock, err = p.parseBlock(sink, token.ENDIF)
		if err != nil {
			return nil, err
		}
	}
	if p.cur().Kind != token.ENDIF {
		return nil, p.errorf("expected EndIf")
	}
	p.advance()
	return &ast.Statement{Kind: ast.StmtIf, Cond: cond, Then: thenBlock, Else: elseBlock, Line: tok.Line, Column: tok.Column}, nil
}

func (p *parser) parseWhile(sink *hoistSink, tok token.Token) (*ast.Statement, error) {
	p.advance() // 'While'
	cond, err := p.parseExpr()
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != token.NEWLINE {
		return nil, p.errorf("expected newline after While condition")
	}
	p.skipNewlines()

	body, err := p.parseBlock(sink, token.ENDWHILE)
	if err != nil {
		return nil, err
	}
	if p.cur().Kind != token.ENDWHILE {
		return nil, p.errorf("expected EndWhile")
	}
	p.advance()
	return &ast.Statement{Kind: ast.StmtWhile, Cond: cond, Then: body, Line: tok.Line, Column: tok.Column}, nil
}

func (p *parser) parseCall(tok token.Token) (*ast.Statement, error) {
	p.advance() // 'Call'
	if p.cur().Kind != token.IDENTIFIER {
		return nil, p.errorf("expected service name after 'Call'")
	}
	svc := p.advance().Text

	var args []ast.Expression
	if p.cur().Kind == token.LPAREN {
		p.advance()
		if p.cur().Kind != token.RPAREN {
			for {
				arg, err := p.parseExpr()
				if err != nil {
					return nil, err
				}
				args = append(args, arg)
				if p.cur().Kind == token.COMMA {
					p.advance()
					continue
				}
				break
			}
		}
		if p.cur().Kind != token.RPAREN {
			return nil, p.errorf("expected ')' to close Call arguments")
		}
		p.advance()
	}

	resultVar := ""
	if p.cur().Kind == token.ASSIGN {
		p.advance()
		if p.cur().Kind != token.VARIABLE {
			return nil, p.errorf("expected variable after '=' in Call")
		}
		resultVar = p.advance().Text
	}
	return &ast.Statement{Kind: ast.StmtCall, ServiceName: svc, Args: args, ResultVar: resultVar, Line: tok.Line, Column: tok.Column}, nil
}

// --- Expression parsing: precedence-climbing recursive descent. ---

func (p *parser) parseExpr() (ast.Expression, error) { return p.parseOr() }

func (p *parser) parseOr() (ast.Expression, error) {
	left, err := p.parseAnd()
	if err != nil {
		return ast.Expression{}, err
	}
	for p.cur().Kind == token.OR {
		tok := p.advance()
		right, err := p.parseAnd()
		if err != nil {
			return ast.Expression{}, err
		}
		left = binExpr(ast.OpOr, left, right, tok)
	}
	return left, nil
}

func (p *parser) parseAnd() (ast.Expression, error) {
	left, err := p.parseEq()
	if err != nil {
		return ast.Expression{}, err
	}
	for p.cur().Kind == token.AND {
		tok := p.advance()
		right, err := p.parseEq()
		if err != nil {
			return ast.Expression{}, err
		}
		left = binExpr(ast.OpAnd, left, right, tok)
	}
	return left, nil
}

func (p *parser) parseEq() (ast.Expression, error) {
	left, err := p.parseCmp()
	if err != nil {
		return ast.Expression{}, err
	}
	for p.cur().Kind == token.EQ || p.cur().Kind == token.NEQ {
		tok := p.advance()
		op := ast.OpEq
		if tok.Kind == token.NEQ {
			op = ast.OpNeq
		}
		right, err := p.parseCmp()
		if err != nil {
			return ast.Expression{}, err
		}
		left = binExpr(op, left, right, tok)
	}
	return left, nil
}

func (p *parser) parseCmp() (ast.Expression, error) {
	left, err := p.parseAdd()
	if err != nil {
		return ast.Expression{}, err
	}
	for {
		var op ast.BinOp
		switch p.cur().Kind {
		case token.GT:
			op = ast.OpGt
		case token.LT:
			op = ast.OpLt
		case token.GE:
			op = ast.OpGe
		case token.LE:
			op = ast.OpLe
		default:
			return left, nil
		}
		tok := p.advance()
		right, err := p.parseAdd()
		if err != nil {
			return ast.Expression{}, err
		}
		left = binExpr(op, left, right, tok)
	}
}

func (p *parser) parseAdd() (ast.Expression, error) {
	left, err := p.parseMul()
	if err != nil {
		return ast.Expression{}, err
	}
	for p.cur().Kind == token.PLUS || p.cur().Kind == token.MINUS {
		tok := p.advance()
		op := ast.OpAdd
		if tok.Kind == token.MINUS {
			op = ast.OpSub
		}
		right, err := p.parseMul()
		if err != nil {
			return ast.Expression{}, err
		}
		left = binExpr(op, left, right, tok)
	}
	return left, nil
}

func (p *parser) parseMul() (ast.Expression, error) {
	left, err := p.parseUnary()
	if err != nil {
		return ast.Expression{}, err
	}
	for p.cur().Kind == token.STAR || p.cur().Kind == token.SLASH {
		tok := p.advance()
		op := ast.OpMul
		if tok.Kind == token.SLASH {
			op = ast.OpDiv
		}
		right, err := p.parseUnary()
		if err != nil {
			return ast.Expression{}, err
		}
		left = binExpr(op, left, right, tok)
	}
	return left, nil
}

func (p *parser) parseUnary() (ast.Expression, error) {
	if p.cur().Kind == token.MINUS || p.cur().Kind == token.NOT {
		tok := p.advance()
		operand, err := p.parseUnary()
		if err != nil {
			return ast.Expression{}, err
		}
		op := ast.OpNeg
		if tok.Kind == token.NOT {
			op = ast.OpNot
		}
		return ast.Expression{Kind: ast.ExprUnary, UnOp: op, Operand: &operand, Line: tok.Line, Column: tok.Column}, nil
	}
	return p.parsePrimary()
}

func (p *parser) parsePrimary() (ast.Expression, error) {
	tok := p.cur()
	switch tok.Kind {
	case token.STRING:
		p.advance()
		return ast.Expression{Kind: ast.ExprString, Str: tok.Str, Line: tok.Line, Column: tok.Column}, nil
	case token.NUMBER:
		p.advance()
		return ast.Expression{Kind: ast.ExprNumber, Num: tok.Num, IsInt: tok.IsInt, Line: tok.Line, Column: tok.Column}, nil
	case token.VARIABLE:
		p.advance()
		return ast.Expression{Kind: ast.ExprVariable, Name: tok.Text, Line: tok.Line, Column: tok.Column}, nil
	case token.IDENTIFIER:
		p.advance()
		if p.cur().Kind == token.LPAREN {
			p.advance()
			var args []ast.Expression
			if p.cur().Kind != token.RPAREN {
				for {
					arg, err := p.parseExpr()
					if err != nil {
						return ast.Expression{}, err
					}
					args = append(args, arg)
					if p.cur().Kind == token.COMMA {
						p.advance()
						continue
					}
					break
				}
			}
			if p.cur().Kind != token.RPAREN {
				return ast.Expression{}, p.errorf("expected ')' to close call to %s", tok.Text)
			}
			p.advance()
			return ast.Expression{Kind: ast.ExprCall, FuncName: tok.Text, FuncArgs: args, Line: tok.Line, Column: tok.Column}, nil
		}
		// A bare identifier used as a value — treated as a zero-arg function
		// call so unknown names evaluate to "" per the language's function
		// call semantics, rather than being a separate variable namespace.
		return ast.Expression{Kind: ast.ExprCall, FuncName: tok.Text, Line: tok.Line, Column: tok.Column}, nil
	case token.LPAREN:
		p.advance()
		expr, err := p.parseExpr()
		if err != nil {
			return ast.Expression{}, err
		}
		if p.cur().Kind != token.RPAREN {
			return ast.Expression{}, p.errorf("expected ')'")
		}
		p.advance()
		return expr, nil
	default:
		return ast.Expression{}, p.errorf("unexpected token %s in expression", tok.Kind)
	}
}

func binExpr(op ast.BinOp, left, right ast.Expression, tok token.Token) ast.Expression {
	l, r := left, right
	return ast.Expression{Kind: ast.ExprBinary, BinOp: op, Left: &l, Right: &r, Line: tok.Line, Column: tok.Column}
}
