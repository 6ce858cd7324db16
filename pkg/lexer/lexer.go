// Package lexer tokenizes Chervil formula and script source text.
package lexer

import (
	"fmt"
	"strconv"
	"unicode"
	"unicode/utf8"
)

// TokenType represents different types of tokens
type TokenType int

const (
	// Special tokens
	ILLEGAL TokenType = iota
	EOF
	NEWLINE // statement separator in scripts (emitted at bracket depth 0 only)

	// Identifiers and literals
	IDENT      // TABLE, price, x, ...
	INT        // 1343456
	FLOAT      // 3.14159
	STRING     // "foobar" or 'foobar'
	TABLE_LIT  // t"Sheet 1!Table A"
	COLUMN_LIT // c"price"

	// Operators
	ASSIGN   // =
	PLUS     // +
	MINUS    // -
	ASTERISK // *
	SLASH    // /
	FLOORDIV // //
	PERCENT  // %
	POW      // **
	LT       // <
	GT       // >
	LTE      // <=
	GTE      // >=
	EQ       // ==
	NOT_EQ   // !=
	AMP      // &
	PIPE     // |
	CARET    // ^
	TILDE    // ~

	// Keywords
	NOT    // "not"
	LAMBDA // "lambda"

	// Delimiters
	COMMA    // ,
	COLON    // :
	DOT      // .
	LPAREN   // (
	RPAREN   // )
	LBRACKET // [
	RBRACKET // ]
	LBRACE   // {
	RBRACE   // }
)

// Token represents a single token
type Token struct {
	Type    TokenType
	Literal string
	Line    int
	Column  int
}

// String returns a string representation of the token
func (t Token) String() string {
	return fmt.Sprintf("{Type: %s, Literal: %s, Line: %d, Column: %d}",
		t.Type.String(), t.Literal, t.Line, t.Column)
}

// String returns a string representation of the token type
func (tt TokenType) String() string {
	switch tt {
	case ILLEGAL:
		return "ILLEGAL"
	case EOF:
		return "EOF"
	case NEWLINE:
		return "NEWLINE"
	case IDENT:
		return "IDENT"
	case INT:
		return "INT"
	case FLOAT:
		return "FLOAT"
	case STRING:
		return "STRING"
	case TABLE_LIT:
		return "TABLE_LIT"
	case COLUMN_LIT:
		return "COLUMN_LIT"
	case ASSIGN:
		return "ASSIGN"
	case PLUS:
		return "PLUS"
	case MINUS:
		return "MINUS"
	case ASTERISK:
		return "ASTERISK"
	case SLASH:
		return "SLASH"
	case FLOORDIV:
		return "FLOORDIV"
	case PERCENT:
		return "PERCENT"
	case POW:
		return "POW"
	case LT:
		return "LT"
	case GT:
		return "GT"
	case LTE:
		return "LTE"
	case GTE:
		return "GTE"
	case EQ:
		return "EQ"
	case NOT_EQ:
		return "NOT_EQ"
	case AMP:
		return "AMP"
	case PIPE:
		return "PIPE"
	case CARET:
		return "CARET"
	case TILDE:
		return "TILDE"
	case NOT:
		return "NOT"
	case LAMBDA:
		return "LAMBDA"
	case COMMA:
		return "COMMA"
	case COLON:
		return "COLON"
	case DOT:
		return "DOT"
	case LPAREN:
		return "LPAREN"
	case RPAREN:
		return "RPAREN"
	case LBRACKET:
		return "LBRACKET"
	case RBRACKET:
		return "RBRACKET"
	case LBRACE:
		return "LBRACE"
	case RBRACE:
		return "RBRACE"
	default:
		return "UNKNOWN"
	}
}

// Keywords map for identifying language keywords
var keywords = map[string]TokenType{
	"not":    NOT,
	"lambda": LAMBDA,
}

// LookupIdent checks if an identifier is a keyword
func LookupIdent(ident string) TokenType {
	if tok, ok := keywords[ident]; ok {
		return tok
	}
	return IDENT
}

// Lexer represents the lexical analyzer
type Lexer struct {
	input        string
	position     int  // current position in input (points to current char)
	readPosition int  // current reading position in input (after current char)
	ch           byte // current char under examination (first byte)
	chRune       rune // current character as a rune (for Unicode support)
	chSize       int  // byte size of current character (1 for ASCII, 1-4 for UTF-8)
	line         int  // current line number
	column       int  // current column number
	bracketDepth int  // nesting depth of ()[]{} for implicit line joining
}

// truncate returns the first n characters of a string, adding "..." if truncated.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

// New creates a new lexer instance
func New(input string) *Lexer {
	l := &Lexer{
		input:  input,
		line:   1,
		column: 0,
	}
	l.readChar()
	return l
}

// readChar reads the next character and advances position.
// Uses a hybrid approach: ASCII fast-path for single-byte characters,
// UTF-8 decoding for multi-byte characters (to support Unicode identifiers).
func (l *Lexer) readChar() {
	if l.readPosition >= len(l.input) {
		l.ch = 0 // ASCII NUL character represents EOF
		l.chRune = 0
		l.chSize = 0
		l.position = l.readPosition
		return
	}

	b := l.input[l.readPosition]

	// ASCII fast-path: single-byte characters (most common case)
	if b < utf8.RuneSelf {
		l.ch = b
		l.chRune = rune(b)
		l.chSize = 1
		l.position = l.readPosition
		l.readPosition++

		if l.ch == '\n' {
			l.line++
			l.column = 0
		} else {
			l.column++
		}
		return
	}

	// Non-ASCII: decode the full UTF-8 rune
	r, size := utf8.DecodeRuneInString(l.input[l.readPosition:])
	l.ch = b
	l.chRune = r
	l.chSize = size
	l.position = l.readPosition
	l.readPosition += size

	l.column++
}

// appendCurrentChar appends the current character (all bytes for multi-byte
// UTF-8) to the given slice.
func (l *Lexer) appendCurrentChar(result []byte) []byte {
	if l.chSize == 1 {
		return append(result, l.ch)
	}
	return append(result, l.input[l.position:l.position+l.chSize]...)
}

// peekChar returns the next character without advancing position
func (l *Lexer) peekChar() byte {
	if l.readPosition >= len(l.input) {
		return 0
	}
	return l.input[l.readPosition]
}

// NextToken scans the input and returns the next token
func (l *Lexer) NextToken() Token {
	var tok Token

	l.skipWhitespace()

	switch l.ch {
	case '\n':
		// Only reachable at bracket depth 0; inside brackets the newline is
		// consumed by skipWhitespace (implicit line joining).
		tok = Token{Type: NEWLINE, Literal: "\n", Line: l.line, Column: l.column}
	case '=':
		if l.peekChar() == '=' {
			line := l.line
			col := l.column
			l.readChar()
			tok = Token{Type: EQ, Literal: "==", Line: line, Column: col}
		} else {
			tok = newToken(ASSIGN, l.ch, l.line, l.column)
		}
	case '+':
		tok = newToken(PLUS, l.ch, l.line, l.column)
	case '-':
		tok = newToken(MINUS, l.ch, l.line, l.column)
	case '*':
		if l.peekChar() == '*' {
			line := l.line
			col := l.column
			l.readChar()
			tok = Token{Type: POW, Literal: "**", Line: line, Column: col}
		} else {
			tok = newToken(ASTERISK, l.ch, l.line, l.column)
		}
	case '/':
		if l.peekChar() == '/' {
			line := l.line
			col := l.column
			l.readChar()
			tok = Token{Type: FLOORDIV, Literal: "//", Line: line, Column: col}
		} else {
			tok = newToken(SLASH, l.ch, l.line, l.column)
		}
	case '%':
		tok = newToken(PERCENT, l.ch, l.line, l.column)
	case '<':
		if l.peekChar() == '=' {
			line := l.line
			col := l.column
			l.readChar()
			tok = Token{Type: LTE, Literal: "<=", Line: line, Column: col}
		} else {
			tok = newToken(LT, l.ch, l.line, l.column)
		}
	case '>':
		if l.peekChar() == '=' {
			line := l.line
			col := l.column
			l.readChar()
			tok = Token{Type: GTE, Literal: ">=", Line: line, Column: col}
		} else {
			tok = newToken(GT, l.ch, l.line, l.column)
		}
	case '!':
		if l.peekChar() == '=' {
			line := l.line
			col := l.column
			l.readChar()
			tok = Token{Type: NOT_EQ, Literal: "!=", Line: line, Column: col}
		} else {
			tok = newToken(ILLEGAL, l.ch, l.line, l.column)
		}
	case '&':
		tok = newToken(AMP, l.ch, l.line, l.column)
	case '|':
		tok = newToken(PIPE, l.ch, l.line, l.column)
	case '^':
		tok = newToken(CARET, l.ch, l.line, l.column)
	case '~':
		tok = newToken(TILDE, l.ch, l.line, l.column)
	case ',':
		tok = newToken(COMMA, l.ch, l.line, l.column)
	case ':':
		tok = newToken(COLON, l.ch, l.line, l.column)
	case '.':
		tok = newToken(DOT, l.ch, l.line, l.column)
	case '(':
		l.bracketDepth++
		tok = newToken(LPAREN, l.ch, l.line, l.column)
	case ')':
		if l.bracketDepth > 0 {
			l.bracketDepth--
		}
		tok = newToken(RPAREN, l.ch, l.line, l.column)
	case '[':
		l.bracketDepth++
		tok = newToken(LBRACKET, l.ch, l.line, l.column)
	case ']':
		if l.bracketDepth > 0 {
			l.bracketDepth--
		}
		tok = newToken(RBRACKET, l.ch, l.line, l.column)
	case '{':
		l.bracketDepth++
		tok = newToken(LBRACE, l.ch, l.line, l.column)
	case '}':
		if l.bracketDepth > 0 {
			l.bracketDepth--
		}
		tok = newToken(RBRACE, l.ch, l.line, l.column)
	case '"':
		line := l.line
		column := l.column
		str, terminated := l.readString()
		if !terminated {
			tok.Type = ILLEGAL
			tok.Literal = fmt.Sprintf("unterminated string starting with \"%s\"", truncate(str, 20))
		} else {
			tok.Type = STRING
			tok.Literal = str
		}
		tok.Line = line
		tok.Column = column
	case '\'':
		line := l.line
		column := l.column
		str, terminated := l.readRawString()
		if !terminated {
			tok.Type = ILLEGAL
			tok.Literal = fmt.Sprintf("unterminated string starting with '%s'", truncate(str, 20))
		} else {
			tok.Type = STRING
			tok.Literal = str
		}
		tok.Line = line
		tok.Column = column
	case 0:
		tok.Literal = ""
		tok.Type = EOF
		tok.Line = l.line
		tok.Column = l.column
	default:
		// t"..." and c"..." prefixed literals (table and column references)
		if (l.ch == 't' || l.ch == 'c') && (l.peekChar() == '"' || l.peekChar() == '\'') {
			return l.readPrefixedLiteral()
		}
		if isLetterRune(l.chRune) {
			line := l.line
			column := l.column
			tok.Literal = l.readIdentifier()
			tok.Type = LookupIdent(tok.Literal)
			tok.Line = line
			tok.Column = column
			return tok // early return to avoid readChar()
		} else if isDigit(l.ch) {
			line := l.line
			column := l.column
			tok.Literal = l.readNumber()
			if containsDot(tok.Literal) {
				tok.Type = FLOAT
			} else {
				tok.Type = INT
			}
			tok.Line = line
			tok.Column = column
			return tok // early return to avoid readChar()
		}
		tok = newToken(ILLEGAL, l.ch, l.line, l.column)
	}

	l.readChar()
	return tok
}

// readPrefixedLiteral reads a t"..." or c"..." literal. The prefix letter
// selects the token type; the quote style selects the escape rules, exactly
// as for plain strings.
func (l *Lexer) readPrefixedLiteral() Token {
	var tok Token
	line := l.line
	column := l.column

	prefix := l.ch
	l.readChar() // move onto the opening quote

	var str string
	var terminated bool
	if l.ch == '"' {
		str, terminated = l.readString()
	} else {
		str, terminated = l.readRawString()
	}

	if !terminated {
		tok.Type = ILLEGAL
		tok.Literal = fmt.Sprintf("unterminated %c-string starting with %s", prefix, truncate(str, 20))
	} else {
		if prefix == 't' {
			tok.Type = TABLE_LIT
		} else {
			tok.Type = COLUMN_LIT
		}
		tok.Literal = str
	}
	tok.Line = line
	tok.Column = column

	l.readChar() // consume closing quote
	return tok
}

// readIdentifier reads an identifier or keyword.
// Supports Unicode identifiers (e.g., π, α) via isLetterRune.
func (l *Lexer) readIdentifier() string {
	position := l.position
	for isLetterRune(l.chRune) || isDigit(l.ch) {
		l.readChar()
	}
	return l.input[position:l.position]
}

// readNumber reads a number (integer or float)
func (l *Lexer) readNumber() string {
	position := l.position
	for isDigit(l.ch) {
		l.readChar()
	}

	// Check for decimal point
	if l.ch == '.' && isDigit(l.peekChar()) {
		l.readChar() // consume the '.'
		for isDigit(l.ch) {
			l.readChar()
		}
	}

	return l.input[position:l.position]
}

// readString reads a double-quoted string literal with JSON-style escapes
// (\n, \t, \r, \b, \f, \/, \\, \", \uXXXX).
// Returns the string content and whether it was terminated properly.
func (l *Lexer) readString() (string, bool) {
	var result []byte
	l.readChar() // skip opening quote

	for l.ch != '"' && l.ch != 0 && l.ch != '\n' {
		if l.ch == '\\' {
			l.readChar() // consume backslash
			switch l.ch {
			case 'n':
				result = append(result, '\n')
			case 't':
				result = append(result, '\t')
			case 'r':
				result = append(result, '\r')
			case 'b':
				result = append(result, '\b')
			case 'f':
				result = append(result, '\f')
			case '/':
				result = append(result, '/')
			case '\\':
				result = append(result, '\\')
			case '"':
				result = append(result, '"')
			case 'u':
				if r, ok := l.readUnicodeEscape(); ok {
					result = utf8.AppendRune(result, r)
				} else {
					// Malformed \uXXXX, keep as-is
					result = append(result, '\\', 'u')
				}
			default:
				// Unknown escape, keep as-is
				result = append(result, '\\')
				result = append(result, l.ch)
			}
		} else {
			result = l.appendCurrentChar(result)
		}
		l.readChar()
	}

	// Check if string was properly terminated
	terminated := l.ch == '"'
	return string(result), terminated
}

// readUnicodeEscape reads the four hex digits of a \uXXXX escape. The lexer
// is positioned on the 'u'; on success it is left on the final hex digit.
func (l *Lexer) readUnicodeEscape() (rune, bool) {
	hex := make([]byte, 0, 4)
	for i := 0; i < 4; i++ {
		c := l.peekChar()
		if !isHexDigit(c) {
			return 0, false
		}
		l.readChar()
		hex = append(hex, c)
	}
	n, err := strconv.ParseUint(string(hex), 16, 32)
	if err != nil {
		return 0, false
	}
	return rune(n), true
}

// readRawString reads a single-quoted string literal.
// Only \' and \\ are processed as escapes; everything else is literal.
// Returns the string content and whether it was terminated properly.
func (l *Lexer) readRawString() (string, bool) {
	var result []byte
	l.readChar() // skip opening single quote

	for l.ch != '\'' && l.ch != 0 && l.ch != '\n' {
		if l.ch == '\\' && (l.peekChar() == '\'' || l.peekChar() == '\\') {
			l.readChar() // consume backslash
			result = append(result, l.ch)
		} else {
			result = l.appendCurrentChar(result)
		}
		l.readChar()
	}

	// Check if string was properly terminated
	terminated := l.ch == '\''
	return string(result), terminated
}

// skipWhitespace skips spaces, tabs, and carriage returns. Newlines are
// skipped only inside brackets; at depth 0 they are significant and become
// NEWLINE tokens.
func (l *Lexer) skipWhitespace() {
	for l.ch == ' ' || l.ch == '\t' || l.ch == '\r' || (l.ch == '\n' && l.bracketDepth > 0) {
		l.readChar()
	}
}

func newToken(tokenType TokenType, ch byte, line, column int) Token {
	return Token{Type: tokenType, Literal: string(ch), Line: line, Column: column}
}

// isLetterRune checks if a rune is a valid identifier character (letter or
// underscore). This supports Unicode letters like π, α, etc.
func isLetterRune(r rune) bool {
	return r == '_' || unicode.IsLetter(r)
}

// isDigit checks if the character is a digit
func isDigit(ch byte) bool {
	return '0' <= ch && ch <= '9'
}

func isHexDigit(ch byte) bool {
	return ('0' <= ch && ch <= '9') || ('a' <= ch && ch <= 'f') || ('A' <= ch && ch <= 'F')
}

// containsDot checks if a string contains a decimal point
func containsDot(s string) bool {
	for _, ch := range s {
		if ch == '.' {
			return true
		}
	}
	return false
}
