// Package ast defines the parse-tree node types for Chervil formulas and
// scripts. Nodes are created once per parse, are immutable afterwards, and
// are consumed read-only by the evaluator.
package ast

import (
	"bytes"
	"strings"

	"github.com/chervil-lang/chervil/pkg/lexer"
)

// Node represents any node in the AST
type Node interface {
	TokenLiteral() string
	String() string
}

// Statement represents statement nodes
type Statement interface {
	Node
	statementNode()
}

// Expression represents expression nodes
type Expression interface {
	Node
	expressionNode()
}

// Program represents the root node of every AST.
// A formula ('=' prefix) holds exactly one ExpressionStatement; a script
// ('>' prefix) holds zero or more AssignStatements followed by one final
// ExpressionStatement whose value is the script's result.
type Program struct {
	Statements []Statement
	Script     bool // true for '>' scripts, false for '=' formulas
}

func (p *Program) TokenLiteral() string {
	if len(p.Statements) > 0 {
		return p.Statements[0].TokenLiteral()
	}
	return ""
}

func (p *Program) String() string {
	var out bytes.Buffer

	if p.Script {
		out.WriteString("> ")
		for i, s := range p.Statements {
			if i > 0 {
				out.WriteString("\n")
			}
			out.WriteString(s.String())
		}
	} else {
		out.WriteString("=")
		for _, s := range p.Statements {
			out.WriteString(s.String())
		}
	}

	return out.String()
}

// AssignStatement represents script assignment lines like 'x = 5'
type AssignStatement struct {
	Token lexer.Token // the identifier token
	Name  *Identifier
	Value Expression
}

func (as *AssignStatement) statementNode()       {}
func (as *AssignStatement) TokenLiteral() string { return as.Token.Literal }
func (as *AssignStatement) String() string {
	var out bytes.Buffer

	out.WriteString(as.Name.String())
	out.WriteString(" = ")
	if as.Value != nil {
		out.WriteString(as.Value.String())
	}

	return out.String()
}

// ExpressionStatement represents expression statements
type ExpressionStatement struct {
	Token      lexer.Token // the first token of the expression
	Expression Expression
}

func (es *ExpressionStatement) statementNode()       {}
func (es *ExpressionStatement) TokenLiteral() string { return es.Token.Literal }
func (es *ExpressionStatement) String() string {
	if es.Expression != nil {
		return es.Expression.String()
	}
	return ""
}

// Identifier represents identifier expressions
type Identifier struct {
	Token lexer.Token // the lexer.IDENT token
	Value string
}

func (i *Identifier) expressionNode()      {}
func (i *Identifier) TokenLiteral() string { return i.Token.Literal }
func (i *Identifier) String() string       { return i.Value }

// IntegerLiteral represents integer literals
type IntegerLiteral struct {
	Token lexer.Token // the lexer.INT token
	Value int64
}

func (il *IntegerLiteral) expressionNode()      {}
func (il *IntegerLiteral) TokenLiteral() string { return il.Token.Literal }
func (il *IntegerLiteral) String() string       { return il.Token.Literal }

// FloatLiteral represents floating-point literals
type FloatLiteral struct {
	Token lexer.Token // the lexer.FLOAT token
	Value float64
}

func (fl *FloatLiteral) expressionNode()      {}
func (fl *FloatLiteral) TokenLiteral() string { return fl.Token.Literal }
func (fl *FloatLiteral) String() string       { return fl.Token.Literal }

// StringLiteral represents string literals.
// Value holds the decoded text; the token keeps the raw source form.
type StringLiteral struct {
	Token lexer.Token // the lexer.STRING token
	Value string
}

func (sl *StringLiteral) expressionNode()      {}
func (sl *StringLiteral) TokenLiteral() string { return sl.Token.Literal }
func (sl *StringLiteral) String() string       { return "\"" + sl.Value + "\"" }

// TableLiteral represents table literals like t"Sheet 1!Table A"
type TableLiteral struct {
	Token lexer.Token // the lexer.TABLE_LIT token
	Ref   string      // the reference string, unresolved
}

func (tl *TableLiteral) expressionNode()      {}
func (tl *TableLiteral) TokenLiteral() string { return tl.Token.Literal }
func (tl *TableLiteral) String() string       { return "t\"" + tl.Ref + "\"" }

// ColumnLiteral represents column literals like c"price"
type ColumnLiteral struct {
	Token lexer.Token // the lexer.COLUMN_LIT token
	Name  string      // the column name
}

func (cl *ColumnLiteral) expressionNode()      {}
func (cl *ColumnLiteral) TokenLiteral() string { return cl.Token.Literal }
func (cl *ColumnLiteral) String() string       { return "c\"" + cl.Name + "\"" }

// ListLiteral represents list literals like [1, 2, 3]
type ListLiteral struct {
	Token    lexer.Token // the '[' token
	Elements []Expression
}

func (ll *ListLiteral) expressionNode()      {}
func (ll *ListLiteral) TokenLiteral() string { return ll.Token.Literal }
func (ll *ListLiteral) String() string {
	var out bytes.Buffer

	elements := []string{}
	for _, el := range ll.Elements {
		elements = append(elements, el.String())
	}

	out.WriteString("[")
	out.WriteString(strings.Join(elements, ", "))
	out.WriteString("]")

	return out.String()
}

// TupleLiteral represents tuple literals like (1, 2)
type TupleLiteral struct {
	Token    lexer.Token // the '(' token
	Elements []Expression
}

func (tl *TupleLiteral) expressionNode()      {}
func (tl *TupleLiteral) TokenLiteral() string { return tl.Token.Literal }
func (tl *TupleLiteral) String() string {
	var out bytes.Buffer

	elements := []string{}
	for _, el := range tl.Elements {
		elements = append(elements, el.String())
	}

	out.WriteString("(")
	out.WriteString(strings.Join(elements, ", "))
	out.WriteString(")")

	return out.String()
}

// DictLiteral represents dictionary literals like { key: value, ... }.
// Keys and Values are parallel slices in source order; keys are restricted
// to string, number, and tuple literals. Duplicate keys keep the last value
// (enforced at evaluation, not parse).
type DictLiteral struct {
	Token  lexer.Token // the '{' token
	Keys   []Expression
	Values []Expression
}

func (dl *DictLiteral) expressionNode()      {}
func (dl *DictLiteral) TokenLiteral() string { return dl.Token.Literal }
func (dl *DictLiteral) String() string {
	var out bytes.Buffer

	pairs := []string{}
	for i, key := range dl.Keys {
		pairs = append(pairs, key.String()+": "+dl.Values[i].String())
	}

	out.WriteString("{")
	out.WriteString(strings.Join(pairs, ", "))
	out.WriteString("}")

	return out.String()
}

// PrefixExpression represents unary expressions like '-x', '~x', or 'not x'
type PrefixExpression struct {
	Token    lexer.Token // the prefix token, e.g. -
	Operator string
	Right    Expression
}

func (pe *PrefixExpression) expressionNode()      {}
func (pe *PrefixExpression) TokenLiteral() string { return pe.Token.Literal }
func (pe *PrefixExpression) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(pe.Operator)
	if pe.Operator == "not" {
		out.WriteString(" ")
	}
	out.WriteString(pe.Right.String())
	out.WriteString(")")

	return out.String()
}

// InfixExpression represents binary expressions like 'x + y'
type InfixExpression struct {
	Token    lexer.Token // the operator token, e.g. +
	Left     Expression
	Operator string
	Right    Expression
}

func (oe *InfixExpression) expressionNode()      {}
func (oe *InfixExpression) TokenLiteral() string { return oe.Token.Literal }
func (oe *InfixExpression) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(oe.Left.String())
	out.WriteString(" " + oe.Operator + " ")
	out.WriteString(oe.Right.String())
	out.WriteString(")")

	return out.String()
}

// ComparisonExpression represents chained comparisons like '1 < x < 5'.
// Operands has one more element than Operators; pair i compares
// Operands[i] Operators[i] Operands[i+1], and all pairs are ANDed together.
// A single comparison (two operands, one operator) also uses this node.
type ComparisonExpression struct {
	Token     lexer.Token // the first comparison operator token
	Operands  []Expression
	Operators []string
}

func (ce *ComparisonExpression) expressionNode()      {}
func (ce *ComparisonExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *ComparisonExpression) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	for i, operand := range ce.Operands {
		if i > 0 {
			out.WriteString(" " + ce.Operators[i-1] + " ")
		}
		out.WriteString(operand.String())
	}
	out.WriteString(")")

	return out.String()
}

// KeywordArgument represents a 'name=value' argument inside a call
type KeywordArgument struct {
	Name  *Identifier
	Value Expression
}

func (ka *KeywordArgument) String() string {
	return ka.Name.String() + "=" + ka.Value.String()
}

// CallExpression represents function and method calls
type CallExpression struct {
	Token     lexer.Token // the '(' token
	Function  Expression  // Identifier, AttributeExpression, or LambdaLiteral
	Arguments []Expression
	Keywords  []*KeywordArgument
}

func (ce *CallExpression) expressionNode()      {}
func (ce *CallExpression) TokenLiteral() string { return ce.Token.Literal }
func (ce *CallExpression) String() string {
	var out bytes.Buffer

	args := []string{}
	for _, a := range ce.Arguments {
		args = append(args, a.String())
	}
	for _, k := range ce.Keywords {
		args = append(args, k.String())
	}

	out.WriteString(ce.Function.String())
	out.WriteString("(")
	out.WriteString(strings.Join(args, ", "))
	out.WriteString(")")

	return out.String()
}

// AttributeExpression represents attribute access like frame.FILTER
type AttributeExpression struct {
	Token lexer.Token // the '.' token
	Left  Expression  // the object being accessed
	Name  string      // the attribute name
}

func (ae *AttributeExpression) expressionNode()      {}
func (ae *AttributeExpression) TokenLiteral() string { return ae.Token.Literal }
func (ae *AttributeExpression) String() string {
	var out bytes.Buffer

	out.WriteString("(")
	out.WriteString(ae.Left.String())
	out.WriteString(".")
	out.WriteString(ae.Name)
	out.WriteString(")")

	return out.String()
}

// LambdaLiteral represents lambda expressions like 'lambda x: x + 1'
type LambdaLiteral struct {
	Token  lexer.Token // the 'lambda' token
	Params []*Identifier
	Body   Expression
}

func (ll *LambdaLiteral) expressionNode()      {}
func (ll *LambdaLiteral) TokenLiteral() string { return ll.Token.Literal }
func (ll *LambdaLiteral) String() string {
	var out bytes.Buffer

	params := []string{}
	for _, p := range ll.Params {
		params = append(params, p.String())
	}

	out.WriteString("lambda ")
	out.WriteString(strings.Join(params, ", "))
	out.WriteString(": ")
	out.WriteString(ll.Body.String())

	return out.String()
}
