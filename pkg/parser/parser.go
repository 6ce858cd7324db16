// Package parser turns Chervil source text into pkg/ast parse trees.
//
// Source is either a formula ('=' followed by a single expression) or a
// script ('>' followed by newline-separated assignment lines and one final
// bare expression). Parsing is deterministic; malformed input produces a
// parse error carrying line and column, never a partial tree.
package parser

import (
	"fmt"
	"strconv"

	"github.com/chervil-lang/chervil/pkg/ast"
	cherrors "github.com/chervil-lang/chervil/pkg/errors"
	"github.com/chervil-lang/chervil/pkg/lexer"
)

// Precedence levels for operators, low to high
const (
	_ int = iota
	LOWEST
	BITOR   // |
	BITXOR  // ^
	BITAND  // &
	COMPARE // > < == != >= <=
	SUM     // + -
	PRODUCT // * / // %
	POWER   // ** (right-associative)
	PREFIX  // ~x, -x, not x
	CALL    // f(x), x.ATTR
)

// precedences maps tokens to their precedence
var precedences = map[lexer.TokenType]int{
	lexer.PIPE:     BITOR,
	lexer.CARET:    BITXOR,
	lexer.AMP:      BITAND,
	lexer.LT:       COMPARE,
	lexer.GT:       COMPARE,
	lexer.LTE:      COMPARE,
	lexer.GTE:      COMPARE,
	lexer.EQ:       COMPARE,
	lexer.NOT_EQ:   COMPARE,
	lexer.PLUS:     SUM,
	lexer.MINUS:    SUM,
	lexer.ASTERISK: PRODUCT,
	lexer.SLASH:    PRODUCT,
	lexer.FLOORDIV: PRODUCT,
	lexer.PERCENT:  PRODUCT,
	lexer.POW:      POWER,
	lexer.LPAREN:   CALL,
	lexer.DOT:      CALL,
}

// Parser represents the parser
type Parser struct {
	l *lexer.Lexer

	structuredErrors []*cherrors.Error

	prevToken lexer.Token
	curToken  lexer.Token
	peekToken lexer.Token

	// In formula mode newlines are plain whitespace; nextToken filters
	// NEWLINE tokens out of the stream when this is set.
	skipNewlines bool

	prefixParseFns map[lexer.TokenType]prefixParseFn
	infixParseFns  map[lexer.TokenType]infixParseFn
}

type (
	prefixParseFn func() ast.Expression
	infixParseFn  func(ast.Expression) ast.Expression
)

// New creates a new parser instance
func New(l *lexer.Lexer) *Parser {
	p := &Parser{
		l: l,
	}

	// Initialize prefix parse functions
	p.prefixParseFns = make(map[lexer.TokenType]prefixParseFn)
	p.registerPrefix(lexer.IDENT, p.parseIdentifier)
	p.registerPrefix(lexer.INT, p.parseIntegerLiteral)
	p.registerPrefix(lexer.FLOAT, p.parseFloatLiteral)
	p.registerPrefix(lexer.STRING, p.parseStringLiteral)
	p.registerPrefix(lexer.TABLE_LIT, p.parseTableLiteral)
	p.registerPrefix(lexer.COLUMN_LIT, p.parseColumnLiteral)
	p.registerPrefix(lexer.MINUS, p.parsePrefixExpression)
	p.registerPrefix(lexer.TILDE, p.parsePrefixExpression)
	p.registerPrefix(lexer.NOT, p.parsePrefixExpression)
	p.registerPrefix(lexer.LPAREN, p.parseGroupedOrTupleExpression)
	p.registerPrefix(lexer.LBRACKET, p.parseListLiteral)
	p.registerPrefix(lexer.LBRACE, p.parseDictLiteral)
	p.registerPrefix(lexer.LAMBDA, p.parseLambdaLiteral)

	// Initialize infix parse functions
	p.infixParseFns = make(map[lexer.TokenType]infixParseFn)
	p.registerInfix(lexer.PLUS, p.parseInfixExpression)
	p.registerInfix(lexer.MINUS, p.parseInfixExpression)
	p.registerInfix(lexer.ASTERISK, p.parseInfixExpression)
	p.registerInfix(lexer.SLASH, p.parseInfixExpression)
	p.registerInfix(lexer.FLOORDIV, p.parseInfixExpression)
	p.registerInfix(lexer.PERCENT, p.parseInfixExpression)
	p.registerInfix(lexer.POW, p.parseInfixExpression)
	p.registerInfix(lexer.AMP, p.parseInfixExpression)
	p.registerInfix(lexer.PIPE, p.parseInfixExpression)
	p.registerInfix(lexer.CARET, p.parseInfixExpression)
	p.registerInfix(lexer.LT, p.parseComparisonExpression)
	p.registerInfix(lexer.GT, p.parseComparisonExpression)
	p.registerInfix(lexer.LTE, p.parseComparisonExpression)
	p.registerInfix(lexer.GTE, p.parseComparisonExpression)
	p.registerInfix(lexer.EQ, p.parseComparisonExpression)
	p.registerInfix(lexer.NOT_EQ, p.parseComparisonExpression)
	p.registerInfix(lexer.LPAREN, p.parseCallExpression)
	p.registerInfix(lexer.DOT, p.parseAttributeExpression)

	// Read two tokens, so curToken and peekToken are both set
	p.nextToken()
	p.nextToken()

	return p
}

// Parse lexes and parses source, returning the program or the first error.
func Parse(source string) (*ast.Program, *cherrors.Error) {
	l := lexer.New(source)
	p := New(l)
	program := p.ParseProgram()
	if errs := p.StructuredErrors(); len(errs) > 0 {
		return nil, errs[0]
	}
	return program, nil
}

// Errors returns parser errors as strings (convenience method for tests).
// Prefer StructuredErrors() for production code.
func (p *Parser) Errors() []string {
	result := make([]string, len(p.structuredErrors))
	for i, err := range p.structuredErrors {
		if err.Line > 0 {
			result[i] = fmt.Sprintf("line %d, column %d: %s", err.Line, err.Column, err.Message)
		} else {
			result[i] = err.Message
		}
	}
	return result
}

// StructuredErrors returns parser errors as structured Error objects.
func (p *Parser) StructuredErrors() []*cherrors.Error {
	return p.structuredErrors
}

// addError adds a structured error.
// Only the first error is recorded - subsequent errors are usually cascading noise.
func (p *Parser) addError(msg string, line, column int) {
	if len(p.structuredErrors) > 0 {
		return
	}

	p.structuredErrors = append(p.structuredErrors, &cherrors.Error{
		Class:   cherrors.ClassParse,
		Message: msg,
		Line:    line,
		Column:  column,
	})
}

// addStructuredError adds a structured error from the catalog.
// Only the first error is recorded - subsequent errors are usually cascading noise.
func (p *Parser) addStructuredError(code string, line, column int, data map[string]any) {
	if len(p.structuredErrors) > 0 {
		return
	}

	p.structuredErrors = append(p.structuredErrors, cherrors.NewWithPosition(code, line, column, data))
}

// registerPrefix registers a prefix parse function
func (p *Parser) registerPrefix(tokenType lexer.TokenType, fn prefixParseFn) {
	p.prefixParseFns[tokenType] = fn
}

// registerInfix registers an infix parse function
func (p *Parser) registerInfix(tokenType lexer.TokenType, fn infixParseFn) {
	p.infixParseFns[tokenType] = fn
}

// nextToken advances prevToken, curToken, and peekToken
func (p *Parser) nextToken() {
	p.prevToken = p.curToken
	p.curToken = p.peekToken
	p.peekToken = p.l.NextToken()
	for p.skipNewlines && p.peekToken.Type == lexer.NEWLINE {
		p.peekToken = p.l.NextToken()
	}
}

// flushNewlines drops a NEWLINE already sitting in the peek slot. Called
// once when entering formula mode, where newlines are whitespace.
func (p *Parser) flushNewlines() {
	for p.peekToken.Type == lexer.NEWLINE {
		p.peekToken = p.l.NextToken()
	}
}

// ParseProgram parses the program and returns the AST.
// The first token decides the source form: '=' for a formula, '>' for a
// script. Anything else is a syntax error.
func (p *Parser) ParseProgram() *ast.Program {
	program := &ast.Program{}
	program.Statements = []ast.Statement{}

	// Blank lines before the marker are ignored
	for p.curTokenIs(lexer.NEWLINE) {
		p.nextToken()
	}

	switch p.curToken.Type {
	case lexer.ASSIGN:
		p.skipNewlines = true
		p.flushNewlines()
		p.nextToken() // move past '='
		p.parseFormula(program)
	case lexer.GT:
		program.Script = true
		p.nextToken() // move past '>'
		p.parseScript(program)
	default:
		p.addStructuredError("PARSE-0006", p.curToken.Line, p.curToken.Column, nil)
	}

	return program
}

// parseFormula parses '=' followed by exactly one expression.
func (p *Parser) parseFormula(program *ast.Program) {
	stmt := p.parseExpressionStatement()
	if stmt != nil {
		program.Statements = append(program.Statements, stmt)
	}

	// Nothing may follow the expression
	if len(p.structuredErrors) == 0 && !p.peekTokenIs(lexer.EOF) {
		p.unexpectedPeekError()
	}
}

// parseScript parses '>' followed by newline-separated statements. The last
// statement must be a bare expression; blank lines are ignored.
func (p *Parser) parseScript(program *ast.Program) {
	lastLine := p.curToken.Line
	lastColumn := p.curToken.Column

	for !p.curTokenIs(lexer.EOF) {
		if p.curTokenIs(lexer.NEWLINE) {
			p.nextToken()
			continue
		}

		lastLine = p.curToken.Line
		lastColumn = p.curToken.Column

		stmt := p.parseStatement()
		if stmt != nil {
			program.Statements = append(program.Statements, stmt)
		}
		if len(p.structuredErrors) > 0 {
			return
		}

		// Each statement runs to the end of its line
		if !p.peekTokenIs(lexer.NEWLINE) && !p.peekTokenIs(lexer.EOF) {
			p.unexpectedPeekError()
			return
		}
		p.nextToken()
	}

	if len(program.Statements) == 0 {
		p.addStructuredError("PARSE-0007", lastLine, lastColumn, nil)
		return
	}
	if _, ok := program.Statements[len(program.Statements)-1].(*ast.ExpressionStatement); !ok {
		p.addStructuredError("PARSE-0007", lastLine, lastColumn, nil)
	}
}

// parseStatement parses a single script statement: an assignment line
// 'name = expression' or a bare expression.
func (p *Parser) parseStatement() ast.Statement {
	if p.curTokenIs(lexer.IDENT) && p.peekTokenIs(lexer.ASSIGN) {
		return p.parseAssignStatement()
	}
	return p.parseExpressionStatement()
}

// parseAssignStatement parses 'name = expression'
func (p *Parser) parseAssignStatement() ast.Statement {
	stmt := &ast.AssignStatement{
		Token: p.curToken,
		Name:  &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal},
	}

	p.nextToken() // move to '='
	p.nextToken() // move to the value expression

	stmt.Value = p.parseExpression(LOWEST)
	if stmt.Value == nil {
		return nil
	}

	return stmt
}

func (p *Parser) parseExpressionStatement() ast.Statement {
	stmt := &ast.ExpressionStatement{Token: p.curToken}
	stmt.Expression = p.parseExpression(LOWEST)
	if stmt.Expression == nil {
		return nil
	}
	return stmt
}

// parseExpression parses expressions using Pratt parsing
func (p *Parser) parseExpression(precedence int) ast.Expression {
	prefix := p.prefixParseFns[p.curToken.Type]
	if prefix == nil {
		p.noPrefixParseFnError(p.curToken.Type)
		return nil
	}

	leftExp := prefix()

	for leftExp != nil && precedence < p.peekPrecedence() {
		infix := p.infixParseFns[p.peekToken.Type]
		if infix == nil {
			return leftExp
		}

		p.nextToken()

		leftExp = infix(leftExp)
	}

	return leftExp
}

// Parse functions for different expression types

func (p *Parser) parseIdentifier() ast.Expression {
	return &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseIntegerLiteral() ast.Expression {
	lit := &ast.IntegerLiteral{Token: p.curToken}

	value, err := strconv.ParseInt(p.curToken.Literal, 0, 64)
	if err != nil {
		p.addStructuredError("PARSE-0004", p.curToken.Line, p.curToken.Column,
			map[string]any{"Literal": p.curToken.Literal})
		return nil
	}

	lit.Value = value
	return lit
}

func (p *Parser) parseFloatLiteral() ast.Expression {
	lit := &ast.FloatLiteral{Token: p.curToken}

	value, err := strconv.ParseFloat(p.curToken.Literal, 64)
	if err != nil {
		p.addStructuredError("PARSE-0004", p.curToken.Line, p.curToken.Column,
			map[string]any{"Literal": p.curToken.Literal})
		return nil
	}

	lit.Value = value
	return lit
}

func (p *Parser) parseStringLiteral() ast.Expression {
	return &ast.StringLiteral{Token: p.curToken, Value: p.curToken.Literal}
}

func (p *Parser) parseTableLiteral() ast.Expression {
	return &ast.TableLiteral{Token: p.curToken, Ref: p.curToken.Literal}
}

func (p *Parser) parseColumnLiteral() ast.Expression {
	return &ast.ColumnLiteral{Token: p.curToken, Name: p.curToken.Literal}
}

func (p *Parser) parsePrefixExpression() ast.Expression {
	expression := &ast.PrefixExpression{
		Token:    p.curToken,
		Operator: p.curToken.Literal,
	}

	p.nextToken()

	expression.Right = p.parseExpression(PREFIX)
	if expression.Right == nil {
		return nil
	}

	return expression
}

func (p *Parser) parseInfixExpression(left ast.Expression) ast.Expression {
	expression := &ast.InfixExpression{
		Token:    p.curToken,
		Left:     left,
		Operator: p.curToken.Literal,
	}

	precedence := p.curPrecedence()
	if expression.Operator == "**" {
		precedence-- // right-associative
	}
	p.nextToken()
	expression.Right = p.parseExpression(precedence)
	if expression.Right == nil {
		return nil
	}

	return expression
}

// parseComparisonExpression folds runs of comparison operators into one
// ComparisonExpression node, so '1 < x < 5' carries operands [1, x, 5] and
// operators [<, <]. The evaluator ANDs the pairwise results.
func (p *Parser) parseComparisonExpression(left ast.Expression) ast.Expression {
	expression := &ast.ComparisonExpression{
		Token:    p.curToken,
		Operands: []ast.Expression{left},
	}

	for {
		expression.Operators = append(expression.Operators, p.curToken.Literal)
		p.nextToken()

		operand := p.parseExpression(COMPARE)
		if operand == nil {
			return nil
		}
		expression.Operands = append(expression.Operands, operand)

		if !p.peekIsComparison() {
			break
		}
		p.nextToken() // move onto the next comparison operator
	}

	return expression
}

func (p *Parser) peekIsComparison() bool {
	switch p.peekToken.Type {
	case lexer.LT, lexer.GT, lexer.LTE, lexer.GTE, lexer.EQ, lexer.NOT_EQ:
		return true
	}
	return false
}

// parseGroupedOrTupleExpression parses '(expr)' as grouping and
// '(a, b)' / '(a,)' / '()' as tuple literals.
func (p *Parser) parseGroupedOrTupleExpression() ast.Expression {
	lparen := p.curToken

	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		return &ast.TupleLiteral{Token: lparen, Elements: []ast.Expression{}}
	}

	p.nextToken()
	exp := p.parseExpression(LOWEST)
	if exp == nil {
		return nil
	}

	if p.peekTokenIs(lexer.COMMA) {
		elements := []ast.Expression{exp}
		for p.peekTokenIs(lexer.COMMA) {
			p.nextToken() // consume comma
			if p.peekTokenIs(lexer.RPAREN) {
				break // trailing comma
			}
			p.nextToken()
			element := p.parseExpression(LOWEST)
			if element == nil {
				return nil
			}
			elements = append(elements, element)
		}
		if !p.expectPeek(lexer.RPAREN) {
			return nil
		}
		return &ast.TupleLiteral{Token: lparen, Elements: elements}
	}

	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}

	return exp
}

func (p *Parser) parseListLiteral() ast.Expression {
	list := &ast.ListLiteral{Token: p.curToken}
	list.Elements = p.parseExpressionList(lexer.RBRACKET)
	if list.Elements == nil && len(p.structuredErrors) > 0 {
		return nil
	}
	return list
}

// parseExpressionList parses a comma-separated expression list up to the
// given end token; trailing commas are allowed.
func (p *Parser) parseExpressionList(end lexer.TokenType) []ast.Expression {
	args := []ast.Expression{}

	if p.peekTokenIs(end) {
		p.nextToken()
		return args
	}

	p.nextToken()
	arg := p.parseExpression(LOWEST)
	if arg == nil {
		return nil
	}
	args = append(args, arg)

	for p.peekTokenIs(lexer.COMMA) {
		p.nextToken() // consume comma
		if p.peekTokenIs(end) {
			break // trailing comma
		}
		p.nextToken()
		arg := p.parseExpression(LOWEST)
		if arg == nil {
			return nil
		}
		args = append(args, arg)
	}

	if !p.expectPeek(end) {
		return nil
	}

	return args
}

// parseDictLiteral parses '{key: value, ...}'. Keys are restricted to
// string, number, and tuple literals (a unary minus on a number is fine).
func (p *Parser) parseDictLiteral() ast.Expression {
	dict := &ast.DictLiteral{Token: p.curToken}

	for !p.peekTokenIs(lexer.RBRACE) {
		p.nextToken()

		key := p.parseExpression(LOWEST)
		if key == nil {
			return nil
		}
		if !validDictKey(key) {
			p.addStructuredError("PARSE-0008", p.curToken.Line, p.curToken.Column, nil)
			return nil
		}

		if !p.expectPeek(lexer.COLON) {
			return nil
		}
		p.nextToken()

		value := p.parseExpression(LOWEST)
		if value == nil {
			return nil
		}

		dict.Keys = append(dict.Keys, key)
		dict.Values = append(dict.Values, value)

		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken()
		} else if !p.peekTokenIs(lexer.RBRACE) {
			p.peekError(lexer.RBRACE)
			return nil
		}
	}

	if !p.expectPeek(lexer.RBRACE) {
		return nil
	}

	return dict
}

// validDictKey reports whether an expression may be used as a dictionary key.
func validDictKey(key ast.Expression) bool {
	switch k := key.(type) {
	case *ast.StringLiteral, *ast.IntegerLiteral, *ast.FloatLiteral:
		return true
	case *ast.TupleLiteral:
		for _, el := range k.Elements {
			if !validDictKey(el) {
				return false
			}
		}
		return true
	case *ast.PrefixExpression:
		if k.Operator != "-" {
			return false
		}
		switch k.Right.(type) {
		case *ast.IntegerLiteral, *ast.FloatLiteral:
			return true
		}
	}
	return false
}

// parseLambdaLiteral parses 'lambda a, b: body'. Parameters may be empty.
func (p *Parser) parseLambdaLiteral() ast.Expression {
	lambda := &ast.LambdaLiteral{Token: p.curToken}

	for p.peekTokenIs(lexer.IDENT) {
		p.nextToken()
		lambda.Params = append(lambda.Params, &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal})
		if !p.peekTokenIs(lexer.COMMA) {
			break
		}
		p.nextToken() // consume comma
	}

	if !p.expectPeek(lexer.COLON) {
		return nil
	}
	p.nextToken()

	lambda.Body = p.parseExpression(LOWEST)
	if lambda.Body == nil {
		return nil
	}

	return lambda
}

// parseCallExpression parses call arguments: positional expressions and
// 'name=value' keyword arguments, with trailing commas allowed. Keyword
// arguments must follow all positional ones.
func (p *Parser) parseCallExpression(fn ast.Expression) ast.Expression {
	exp := &ast.CallExpression{Token: p.curToken, Function: fn}

	if p.peekTokenIs(lexer.RPAREN) {
		p.nextToken()
		return exp
	}

	for {
		p.nextToken()

		if p.curTokenIs(lexer.IDENT) && p.peekTokenIs(lexer.ASSIGN) {
			name := &ast.Identifier{Token: p.curToken, Value: p.curToken.Literal}
			p.nextToken() // move to '='
			p.nextToken() // move to the value
			value := p.parseExpression(LOWEST)
			if value == nil {
				return nil
			}
			exp.Keywords = append(exp.Keywords, &ast.KeywordArgument{Name: name, Value: value})
		} else {
			arg := p.parseExpression(LOWEST)
			if arg == nil {
				return nil
			}
			if len(exp.Keywords) > 0 {
				p.addError("positional argument follows keyword argument",
					p.curToken.Line, p.curToken.Column)
				return nil
			}
			exp.Arguments = append(exp.Arguments, arg)
		}

		if p.peekTokenIs(lexer.COMMA) {
			p.nextToken() // consume comma
			if p.peekTokenIs(lexer.RPAREN) {
				break // trailing comma
			}
			continue
		}
		break
	}

	if !p.expectPeek(lexer.RPAREN) {
		return nil
	}

	return exp
}

// parseAttributeExpression parses '.name' attribute access
func (p *Parser) parseAttributeExpression(left ast.Expression) ast.Expression {
	expression := &ast.AttributeExpression{
		Token: p.curToken,
		Left:  left,
	}

	if !p.expectPeek(lexer.IDENT) {
		return nil
	}
	expression.Name = p.curToken.Literal

	return expression
}

// Utility functions

func (p *Parser) curTokenIs(t lexer.TokenType) bool {
	return p.curToken.Type == t
}

func (p *Parser) peekTokenIs(t lexer.TokenType) bool {
	return p.peekToken.Type == t
}

func (p *Parser) expectPeek(t lexer.TokenType) bool {
	if p.peekTokenIs(t) {
		p.nextToken()
		return true
	}
	p.peekError(t)
	return false
}

func (p *Parser) peekError(t lexer.TokenType) {
	gotLiteral := p.peekToken.Literal
	if gotLiteral == "" || p.peekToken.Type == lexer.NEWLINE {
		gotLiteral = tokenTypeToReadableName(p.peekToken.Type)
	}

	// Report the error at the position after the last successfully parsed token
	line := p.curToken.Line
	column := p.curToken.Column + len(p.curToken.Literal)

	p.addStructuredError("PARSE-0001", line, column, map[string]any{
		"Expected": tokenTypeToReadableName(t),
		"Got":      gotLiteral,
	})
}

// unexpectedPeekError reports trailing input after a complete expression.
func (p *Parser) unexpectedPeekError() {
	literal := p.peekToken.Literal
	if literal == "" || p.peekToken.Type == lexer.NEWLINE {
		literal = tokenTypeToReadableName(p.peekToken.Type)
	}
	p.addStructuredError("PARSE-0002", p.peekToken.Line, p.peekToken.Column, map[string]any{
		"Token": literal,
	})
}

func (p *Parser) noPrefixParseFnError(t lexer.TokenType) {
	literal := p.curToken.Literal
	if literal == "" || t == lexer.NEWLINE {
		literal = tokenTypeToReadableName(t)
	}

	line := p.curToken.Line
	column := p.curToken.Column

	if p.prevToken.Type != lexer.ILLEGAL && p.curToken.Line > p.prevToken.Line {
		// Current token is on a new line, point to after the previous token
		line = p.prevToken.Line
		column = p.prevToken.Column + len(p.prevToken.Literal)
	}

	// ILLEGAL tokens already contain a descriptive error message, use it directly
	if t == lexer.ILLEGAL {
		p.addError(literal, line, column)
	} else {
		p.addStructuredError("PARSE-0002", line, column, map[string]any{"Token": literal})
	}
}

func (p *Parser) peekPrecedence() int {
	if prec, ok := precedences[p.peekToken.Type]; ok {
		return prec
	}
	return LOWEST
}

func (p *Parser) curPrecedence() int {
	if prec, ok := precedences[p.curToken.Type]; ok {
		return prec
	}
	return LOWEST
}

// tokenTypeToReadableName converts a token type to a human-readable name
// for error messages.
func tokenTypeToReadableName(t lexer.TokenType) string {
	switch t {
	case lexer.IDENT:
		return "identifier"
	case lexer.INT:
		return "integer"
	case lexer.FLOAT:
		return "float"
	case lexer.STRING:
		return "string"
	case lexer.TABLE_LIT:
		return "table literal"
	case lexer.COLUMN_LIT:
		return "column literal"
	case lexer.ASSIGN:
		return "'='"
	case lexer.PLUS:
		return "'+'"
	case lexer.MINUS:
		return "'-'"
	case lexer.ASTERISK:
		return "'*'"
	case lexer.SLASH:
		return "'/'"
	case lexer.FLOORDIV:
		return "'//'"
	case lexer.PERCENT:
		return "'%'"
	case lexer.POW:
		return "'**'"
	case lexer.LT:
		return "'<'"
	case lexer.GT:
		return "'>'"
	case lexer.LTE:
		return "'<='"
	case lexer.GTE:
		return "'>='"
	case lexer.EQ:
		return "'=='"
	case lexer.NOT_EQ:
		return "'!='"
	case lexer.AMP:
		return "'&'"
	case lexer.PIPE:
		return "'|'"
	case lexer.CARET:
		return "'^'"
	case lexer.TILDE:
		return "'~'"
	case lexer.NOT:
		return "'not'"
	case lexer.LAMBDA:
		return "'lambda'"
	case lexer.COMMA:
		return "','"
	case lexer.COLON:
		return "':'"
	case lexer.DOT:
		return "'.'"
	case lexer.LPAREN:
		return "'('"
	case lexer.RPAREN:
		return "')'"
	case lexer.LBRACKET:
		return "'['"
	case lexer.RBRACKET:
		return "']'"
	case lexer.LBRACE:
		return "'{'"
	case lexer.RBRACE:
		return "'}'"
	case lexer.NEWLINE:
		return "end of line"
	case lexer.EOF:
		return "end of input"
	default:
		return "token"
	}
}
