// Package errors provides structured error types for the Chervil formula
// language.
//
// This package defines Error, a unified error type that can represent both
// parser and evaluation errors with rich metadata for display and
// programmatic handling.
package errors

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"text/template"

	"github.com/agnivade/levenshtein"
)

// ErrorClass categorizes errors for filtering and templating.
type ErrorClass string

const (
	ClassParse     ErrorClass = "parse"     // Lexer/parser syntax errors
	ClassUndefined ErrorClass = "undefined" // Name not bound in the environment
	ClassAttribute ErrorClass = "attribute" // Operation outside a proxy allow-list
	ClassType      ErrorClass = "type"      // Type mismatches
	ClassOperator  ErrorClass = "operator"  // Invalid operator application
	ClassArity     ErrorClass = "arity"     // Wrong argument count or keywords
	ClassIndex     ErrorClass = "index"     // Out of bounds, missing key
)

// Error represents any error from parsing or evaluation.
type Error struct {
	Class   ErrorClass     `json:"class"`           // Error category
	Code    string         `json:"code"`            // Error code (e.g., "PARSE-0001")
	Message string         `json:"message"`         // Human-readable message
	Hints   []string       `json:"hints,omitempty"` // Suggestions for fixing
	Line    int            `json:"line"`            // 1-based line (0 if unknown)
	Column  int            `json:"column"`          // 1-based column (0 if unknown)
	File    string         `json:"file,omitempty"`  // File path (if known)
	Data    map[string]any `json:"data,omitempty"`  // Template variables
}

// Error implements the error interface.
func (e *Error) Error() string {
	return e.String()
}

// String returns a formatted string representation of the error.
func (e *Error) String() string {
	var sb strings.Builder

	// Location prefix
	if e.File != "" {
		sb.WriteString(e.File)
		sb.WriteString(": ")
	}
	if e.Line > 0 {
		sb.WriteString(fmt.Sprintf("line %d, column %d: ", e.Line, e.Column))
	}

	// Message
	sb.WriteString(e.Message)

	// Hints
	for _, hint := range e.Hints {
		sb.WriteString("\n  ")
		sb.WriteString(hint)
	}

	return sb.String()
}

// PrettyString returns a multi-line formatted string for display.
func (e *Error) PrettyString() string {
	var sb strings.Builder

	// Error type header
	switch e.Class {
	case ClassParse:
		sb.WriteString("Syntax error")
	default:
		sb.WriteString("Evaluation error")
	}

	// Location
	if e.File != "" {
		sb.WriteString(":\n  in: ")
		sb.WriteString(e.File)
		if e.Line > 0 {
			sb.WriteString(fmt.Sprintf("\n  at: line %d, column %d", e.Line, e.Column))
		}
		sb.WriteString("\n  ")
	} else if e.Line > 0 {
		sb.WriteString(fmt.Sprintf(": line %d, column %d\n  ", e.Line, e.Column))
	} else {
		sb.WriteString(":\n  ")
	}

	// Message
	sb.WriteString(e.Message)

	// Hints
	for i, hint := range e.Hints {
		sb.WriteString("\n  ")
		if i == 0 {
			sb.WriteString("Use: ")
		} else {
			sb.WriteString(" or: ")
		}
		sb.WriteString(hint)
	}

	return sb.String()
}

// ToJSON returns the error as JSON bytes.
func (e *Error) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// WithFile returns a copy of the error with the file path set.
func (e *Error) WithFile(file string) *Error {
	copy := *e
	copy.File = file
	return &copy
}

// WithPosition returns a copy of the error with line and column set.
func (e *Error) WithPosition(line, column int) *Error {
	copy := *e
	copy.Line = line
	copy.Column = column
	return &copy
}

// IsParseError returns true if this is a syntax error.
func (e *Error) IsParseError() bool {
	return e.Class == ClassParse
}

// IsEvalError returns true if this error arose during evaluation.
func (e *Error) IsEvalError() bool {
	return e.Class != ClassParse
}

// ErrorDef defines an error in the catalog.
type ErrorDef struct {
	Class    ErrorClass // Error category
	Template string     // Message template with {{.placeholders}}
	Hints    []string   // Hint templates (may use {{.placeholders}})
}

// ErrorCatalog maps error codes to their definitions.
var ErrorCatalog = map[string]ErrorDef{
	// ========================================
	// Parse errors (PARSE-0xxx)
	// ========================================
	"PARSE-0001": {
		Class:    ClassParse,
		Template: "expected {{.Expected}}, got '{{.Got}}'",
	},
	"PARSE-0002": {
		Class:    ClassParse,
		Template: "unexpected token '{{.Token}}'",
	},
	"PARSE-0003": {
		Class:    ClassParse,
		Template: "unterminated string",
	},
	"PARSE-0004": {
		Class:    ClassParse,
		Template: "invalid number literal: {{.Literal}}",
	},
	"PARSE-0005": {
		Class:    ClassParse,
		Template: "invalid escape sequence: \\{{.Escape}}",
	},
	"PARSE-0006": {
		Class:    ClassParse,
		Template: "source must start with '=' (formula) or '>' (script)",
		Hints:    []string{"=COLUMN(\"x\") + 1", "> a = 1"},
	},
	"PARSE-0007": {
		Class:    ClassParse,
		Template: "script must end with a bare expression",
		Hints:    []string{"add a final line that is an expression, not an assignment"},
	},
	"PARSE-0008": {
		Class:    ClassParse,
		Template: "invalid dictionary key",
		Hints:    []string{"dictionary keys are strings, numbers, or tuples"},
	},

	// ========================================
	// Undefined errors (UNDEF-0xxx)
	// ========================================
	"UNDEF-0001": {
		Class:    ClassUndefined,
		Template: "identifier not found: {{.Name}}",
		// Hint "Did you mean `X`?" added dynamically by fuzzy matching
	},

	// ========================================
	// Attribute errors (ATTR-0xxx)
	// ========================================
	"ATTR-0001": {
		Class:    ClassAttribute,
		Template: "{{.Kind}} has no attribute '{{.Name}}'",
		// Hint "Did you mean `X`?" added dynamically by fuzzy matching
	},
	"ATTR-0002": {
		Class:    ClassAttribute,
		Template: "attribute access not supported on {{.Type}}",
	},

	// ========================================
	// Type errors (TYPE-0xxx)
	// ========================================
	"TYPE-0001": {
		Class:    ClassType,
		Template: "{{.Function}} expected {{.Expected}}, got {{.Got}}",
	},
	"TYPE-0002": {
		Class:    ClassType,
		Template: "argument to `{{.Function}}` not supported, got {{.Got}}",
	},
	"TYPE-0003": {
		Class:    ClassType,
		Template: "cannot call {{.Got}} as a function",
	},
	"TYPE-0004": {
		Class:    ClassType,
		Template: "dictionary key must be a string, number, or tuple, got {{.Got}}",
	},
	"TYPE-0005": {
		Class:    ClassType,
		Template: "cannot parse '{{.Value}}' as {{.What}}",
	},

	// ========================================
	// Operator errors (OP-0xxx)
	// ========================================
	"OP-0001": {
		Class:    ClassOperator,
		Template: "unknown operator: {{.LeftType}} {{.Operator}} {{.RightType}}",
	},
	"OP-0002": {
		Class:    ClassOperator,
		Template: "division by zero",
	},
	"OP-0003": {
		Class:    ClassOperator,
		Template: "unknown operator: {{.Operator}}{{.Type}}",
	},
	"OP-0004": {
		Class:    ClassOperator,
		Template: "cannot compare {{.LeftType}} and {{.RightType}}",
	},

	// ========================================
	// Arity errors (ARITY-0xxx)
	// ========================================
	"ARITY-0001": {
		Class:    ClassArity,
		Template: "wrong number of arguments to `{{.Function}}`. got={{.Got}}, want={{.Want}}",
	},
	"ARITY-0002": {
		Class:    ClassArity,
		Template: "duplicate keyword argument '{{.Name}}'",
	},
	"ARITY-0003": {
		Class:    ClassArity,
		Template: "unknown keyword argument '{{.Name}}' for `{{.Function}}`",
	},

	// ========================================
	// Index errors (INDEX-0xxx)
	// ========================================
	"INDEX-0001": {
		Class:    ClassIndex,
		Template: "index {{.Index}} out of range (length {{.Length}})",
	},
	"INDEX-0002": {
		Class:    ClassIndex,
		Template: "key '{{.Key}}' not found",
	},
	"INDEX-0003": {
		Class:    ClassIndex,
		Template: "no column '{{.Column}}' in table",
	},
}

// New creates an Error from the catalog.
// If the code is not found, creates a generic error with the message.
func New(code string, data map[string]any) *Error {
	def, ok := ErrorCatalog[code]
	if !ok {
		// Unknown code - create a generic error
		msg := code
		if data != nil {
			if m, ok := data["message"].(string); ok {
				msg = m
			}
		}
		return &Error{
			Class:   ClassType, // Default class
			Code:    code,
			Message: msg,
			Data:    data,
		}
	}

	// Render the message template
	msg := renderTemplate(def.Template, data)

	// Render hint templates
	var hints []string
	for _, hintTmpl := range def.Hints {
		rendered := renderTemplate(hintTmpl, data)
		if rendered != "" {
			hints = append(hints, rendered)
		}
	}

	return &Error{
		Class:   def.Class,
		Code:    code,
		Message: msg,
		Hints:   hints,
		Data:    data,
	}
}

// NewWithPosition creates an Error with position information.
func NewWithPosition(code string, line, column int, data map[string]any) *Error {
	err := New(code, data)
	err.Line = line
	err.Column = column
	return err
}

// NewSimple creates a simple error without using the catalog.
func NewSimple(class ErrorClass, message string) *Error {
	return &Error{
		Class:   class,
		Message: message,
	}
}

// renderTemplate renders a Go template with the given data.
func renderTemplate(tmplStr string, data map[string]any) string {
	if data == nil {
		return tmplStr
	}

	tmpl, err := template.New("").Parse(tmplStr)
	if err != nil {
		return tmplStr
	}

	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return tmplStr
	}

	return buf.String()
}

// ============================================================================
// Fuzzy Matching - "Did you mean?" suggestions
// ============================================================================

// FuzzyMatch represents a fuzzy match result with its distance.
type FuzzyMatch struct {
	Value    string
	Distance int
}

// matchThreshold returns the maximum edit distance worth suggesting for an
// input of the given length.
// Short words (1-3): max 1 edit
// Medium words (4-6): max 2 edits
// Longer words (7+): max 3 edits
func matchThreshold(input string) int {
	switch {
	case len(input) >= 7:
		return 3
	case len(input) >= 4:
		return 2
	default:
		return 1
	}
}

// FindClosestMatch finds the closest match to the given string from candidates.
// Returns the best match if the distance is within the threshold, otherwise
// empty string. The threshold scales with the length of the input.
func FindClosestMatch(input string, candidates []string) string {
	if len(input) == 0 || len(candidates) == 0 {
		return ""
	}

	// Normalize input to lowercase for comparison
	inputLower := strings.ToLower(input)

	var bestMatch string
	bestDistance := -1

	for _, candidate := range candidates {
		dist := levenshtein.ComputeDistance(inputLower, strings.ToLower(candidate))

		if bestDistance == -1 || dist < bestDistance {
			bestDistance = dist
			bestMatch = candidate // Return original case
		}
	}

	// Don't suggest if distance is 0 (exact match) or over threshold
	if bestDistance <= 0 || bestDistance > matchThreshold(input) {
		return ""
	}

	return bestMatch
}

// FindTopMatches returns the top N closest matches to the input.
// Useful for showing multiple suggestions.
func FindTopMatches(input string, candidates []string, n int) []string {
	if len(input) == 0 || len(candidates) == 0 || n <= 0 {
		return nil
	}

	inputLower := strings.ToLower(input)

	// Calculate distances for all candidates
	var matches []FuzzyMatch
	for _, candidate := range candidates {
		dist := levenshtein.ComputeDistance(inputLower, strings.ToLower(candidate))
		// Exclude exact matches
		if dist > 0 {
			matches = append(matches, FuzzyMatch{Value: candidate, Distance: dist})
		}
	}

	// Sort by distance
	sort.Slice(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	// Return top N matches within threshold
	threshold := matchThreshold(input)
	var result []string
	for i := 0; i < len(matches) && i < n; i++ {
		if matches[i].Distance <= threshold {
			result = append(result, matches[i].Value)
		}
	}

	return result
}

// NewUndefinedIdentifier creates an undefined identifier error with optional
// fuzzy matching against the names currently in scope.
func NewUndefinedIdentifier(name string, availableIdentifiers []string) *Error {
	data := map[string]any{"Name": name}
	err := New("UNDEF-0001", data)

	// Try fuzzy matching for "Did you mean?" hint
	if suggestion := FindClosestMatch(name, availableIdentifiers); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}

	return err
}

// NewUnknownAttribute creates an attribute error for a name outside a proxy
// allow-list, with optional fuzzy matching against the allowed aliases.
func NewUnknownAttribute(kind, name string, availableAliases []string) *Error {
	data := map[string]any{
		"Kind": kind,
		"Name": name,
	}
	err := New("ATTR-0001", data)

	// Try fuzzy matching for "Did you mean?" hint
	if suggestion := FindClosestMatch(name, availableAliases); suggestion != "" {
		err.Hints = append(err.Hints, "Did you mean `"+suggestion+"`?")
	}

	return err
}
