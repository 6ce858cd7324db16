package errors

import (
	"encoding/json"
	"strings"
	"testing"
)

func TestError_String(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		expected string
	}{
		{
			name: "message only",
			err: &Error{
				Message: "something went wrong",
			},
			expected: "something went wrong",
		},
		{
			name: "with line and column",
			err: &Error{
				Message: "unexpected token ')'",
				Line:    5,
				Column:  10,
			},
			expected: "line 5, column 10: unexpected token ')'",
		},
		{
			name: "with file",
			err: &Error{
				Message: "unterminated string",
				File:    "model.chv",
				Line:    3,
				Column:  1,
			},
			expected: "model.chv: line 3, column 1: unterminated string",
		},
		{
			name: "with hints",
			err: &Error{
				Message: "identifier not found: FILTRE",
				Line:    1,
				Column:  1,
				Hints:   []string{"Did you mean `FILTER`?"},
			},
			expected: "line 1, column 1: identifier not found: FILTRE\n  Did you mean `FILTER`?",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.String()
			if got != tt.expected {
				t.Errorf("String() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestError_PrettyString(t *testing.T) {
	tests := []struct {
		name     string
		err      *Error
		contains []string
	}{
		{
			name: "syntax error",
			err: &Error{
				Class:   ClassParse,
				Message: "unexpected token ')'",
				Line:    5,
				Column:  10,
			},
			contains: []string{"Syntax error", "line 5, column 10", "unexpected token ')'"},
		},
		{
			name: "evaluation error",
			err: &Error{
				Class:   ClassType,
				Message: "cannot call INTEGER as a function",
				Line:    1,
				Column:  1,
			},
			contains: []string{"Evaluation error", "line 1, column 1", "cannot call"},
		},
		{
			name: "with file and hints",
			err: &Error{
				Class:   ClassParse,
				Message: "script must end with a bare expression",
				File:    "budget.chv",
				Line:    10,
				Column:  5,
				Hints:   []string{"add a final line that is an expression", "remove the trailing assignment"},
			},
			contains: []string{"Syntax error", "in: budget.chv", "at: line 10, column 5", "Use:", "or:"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := tt.err.PrettyString()
			for _, want := range tt.contains {
				if !strings.Contains(got, want) {
					t.Errorf("PrettyString() = %q, should contain %q", got, want)
				}
			}
		})
	}
}

func TestError_ToJSON(t *testing.T) {
	err := &Error{
		Class:   ClassAttribute,
		Code:    "ATTR-0001",
		Message: "frame has no attribute 'WRITECSV'",
		Line:    5,
		Column:  10,
		Data: map[string]any{
			"Kind": "frame",
			"Name": "WRITECSV",
		},
	}

	jsonBytes, jsonErr := err.ToJSON()
	if jsonErr != nil {
		t.Fatalf("ToJSON() error = %v", jsonErr)
	}

	var parsed map[string]any
	if err := json.Unmarshal(jsonBytes, &parsed); err != nil {
		t.Fatalf("Failed to parse JSON: %v", err)
	}

	if parsed["class"] != "attribute" {
		t.Errorf("class = %v, want %v", parsed["class"], "attribute")
	}
	if parsed["code"] != "ATTR-0001" {
		t.Errorf("code = %v, want %v", parsed["code"], "ATTR-0001")
	}
	if parsed["line"].(float64) != 5 {
		t.Errorf("line = %v, want %v", parsed["line"], 5)
	}
}

func TestNew_WithCatalog(t *testing.T) {
	tests := []struct {
		name         string
		code         string
		data         map[string]any
		wantClass    ErrorClass
		wantContains string
	}{
		{
			name: "parse error",
			code: "PARSE-0001",
			data: map[string]any{
				"Expected": "')'",
				"Got":      ",",
			},
			wantClass:    ClassParse,
			wantContains: "expected ')', got ','",
		},
		{
			name: "type error",
			code: "TYPE-0001",
			data: map[string]any{
				"Function": "LEN",
				"Expected": "STRING or LIST",
				"Got":      "INTEGER",
			},
			wantClass:    ClassType,
			wantContains: "LEN expected STRING or LIST, got INTEGER",
		},
		{
			name: "arity error",
			code: "ARITY-0001",
			data: map[string]any{
				"Function": "ROUND",
				"Got":      "3",
				"Want":     "1-2",
			},
			wantClass:    ClassArity,
			wantContains: "wrong number of arguments to `ROUND`. got=3, want=1-2",
		},
		{
			name: "undefined identifier",
			code: "UNDEF-0001",
			data: map[string]any{
				"Name": "foobar",
			},
			wantClass:    ClassUndefined,
			wantContains: "identifier not found: foobar",
		},
		{
			name: "attribute error",
			code: "ATTR-0001",
			data: map[string]any{
				"Kind": "frame",
				"Name": "TOCSV",
			},
			wantClass:    ClassAttribute,
			wantContains: "frame has no attribute 'TOCSV'",
		},
		{
			name: "operator error",
			code: "OP-0001",
			data: map[string]any{
				"LeftType":  "STRING",
				"Operator":  "-",
				"RightType": "INTEGER",
			},
			wantClass:    ClassOperator,
			wantContains: "unknown operator: STRING - INTEGER",
		},
		{
			name: "unknown code",
			code: "UNKNOWN-9999",
			data: map[string]any{
				"message": "custom error message",
			},
			wantClass:    ClassType, // Default class
			wantContains: "custom error message",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, tt.data)
			if err.Class != tt.wantClass {
				t.Errorf("Class = %v, want %v", err.Class, tt.wantClass)
			}
			if !strings.Contains(err.Message, tt.wantContains) {
				t.Errorf("Message = %q, should contain %q", err.Message, tt.wantContains)
			}
		})
	}
}

func TestNewWithPosition(t *testing.T) {
	err := NewWithPosition("PARSE-0002", 10, 5, map[string]any{
		"Token": "]",
	})

	if err.Line != 10 {
		t.Errorf("Line = %d, want 10", err.Line)
	}
	if err.Column != 5 {
		t.Errorf("Column = %d, want 5", err.Column)
	}
}

func TestNewSimple(t *testing.T) {
	err := NewSimple(ClassOperator, "division by zero")
	if err.Class != ClassOperator {
		t.Errorf("Class = %v, want %v", err.Class, ClassOperator)
	}
	if err.Message != "division by zero" {
		t.Errorf("Message = %q, want %q", err.Message, "division by zero")
	}
}

func TestError_WithFile(t *testing.T) {
	original := &Error{
		Message: "test error",
		Line:    5,
	}
	withFile := original.WithFile("model.chv")

	if withFile.File != "model.chv" {
		t.Errorf("File = %q, want %q", withFile.File, "model.chv")
	}
	if original.File != "" {
		t.Error("WithFile modified the original")
	}
}

func TestError_WithPosition(t *testing.T) {
	original := &Error{
		Message: "test error",
	}
	withPos := original.WithPosition(10, 5)

	if withPos.Line != 10 || withPos.Column != 5 {
		t.Errorf("Position = (%d, %d), want (10, 5)", withPos.Line, withPos.Column)
	}
	if original.Line != 0 {
		t.Error("WithPosition modified the original")
	}
}

func TestError_IsParseError(t *testing.T) {
	parseErr := &Error{Class: ClassParse}
	evalErr := &Error{Class: ClassAttribute}

	if !parseErr.IsParseError() {
		t.Error("IsParseError() = false for parse error")
	}
	if parseErr.IsEvalError() {
		t.Error("IsEvalError() = true for parse error")
	}
	if evalErr.IsParseError() {
		t.Error("IsParseError() = true for evaluation error")
	}
	if !evalErr.IsEvalError() {
		t.Error("IsEvalError() = false for evaluation error")
	}
}

func TestError_Error(t *testing.T) {
	err := &Error{
		Message: "test error",
		Line:    1,
		Column:  1,
	}

	// Verify it implements error interface
	var e error = err
	if e.Error() != "line 1, column 1: test error" {
		t.Errorf("Error() = %q, want %q", e.Error(), "line 1, column 1: test error")
	}
}

// ============================================================================
// Fuzzy Matching Tests
// ============================================================================

func TestFindClosestMatch(t *testing.T) {
	aliases := []string{"FILTER", "SELECT", "GROUPBY", "SORT", "HEAD", "AGG", "JOIN", "UNIQUE"}

	tests := []struct {
		input string
		want  string
	}{
		{"FILTRE", "FILTER"},       // Transposed letters (distance 2)
		{"FILTE", "FILTER"},        // Missing letter (distance 1)
		{"FILTERR", "FILTER"},      // Extra letter (distance 1)
		{"filter", "FILTER"},       // Case-insensitive (distance 0 is exact... see below)
		{"GROUPY", "GROUPBY"},      // Missing letter (distance 1)
		{"SROT", "SORT"},           // Transposed (distance 2, threshold for 4-char is 2)
		{"HEAP", "HEAD"},           // Substitution (distance 1)
		{"XYZ", ""},                // No close match
		{"", ""},                   // Empty input
		{"ABCDEFGHIJKLMNOPQ", ""},  // Very long word with no match
	}

	for _, tt := range tests {
		got := FindClosestMatch(tt.input, aliases)
		if tt.input == "filter" {
			// Comparison is case-insensitive, so this is an exact match
			// and exact matches are never suggested.
			if got != "" {
				t.Errorf("FindClosestMatch(%q) = %q, want empty (exact match)", tt.input, got)
			}
			continue
		}
		if got != tt.want {
			t.Errorf("FindClosestMatch(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}

	// Test with nil candidates
	if got := FindClosestMatch("FILTER", nil); got != "" {
		t.Errorf("FindClosestMatch with nil candidates = %q, want empty", got)
	}
}

func TestFindTopMatches(t *testing.T) {
	aliases := []string{"SUM", "MEAN", "MIN", "MAX", "COUNT", "FIRST", "LAST"}

	got := FindTopMatches("MIX", aliases, 3)
	if len(got) == 0 {
		t.Fatalf("FindTopMatches(%q) returned no matches", "MIX")
	}
	// MIN and MAX are both at distance 1
	for _, m := range got {
		if m != "MIN" && m != "MAX" {
			t.Errorf("FindTopMatches(%q) returned unexpected match %q", "MIX", m)
		}
	}

	if got := FindTopMatches("ZZZZZ", aliases, 3); len(got) != 0 {
		t.Errorf("FindTopMatches(%q) = %v, want empty", "ZZZZZ", got)
	}
	if got := FindTopMatches("", aliases, 3); len(got) != 0 {
		t.Errorf("FindTopMatches with empty input = %v, want empty", got)
	}
}

func TestNewUndefinedIdentifier(t *testing.T) {
	available := []string{"TABLE", "COLUMN", "LIT", "SERIES", "FORMAT"}

	// Typo with a close match
	err := NewUndefinedIdentifier("COLUM", available)
	if err.Code != "UNDEF-0001" {
		t.Errorf("Code = %q, want UNDEF-0001", err.Code)
	}
	if !strings.Contains(err.Message, "COLUM") {
		t.Errorf("Message should contain 'COLUM': %s", err.Message)
	}
	if len(err.Hints) == 0 || !strings.Contains(err.Hints[0], "COLUMN") {
		t.Errorf("Should have hint suggesting 'COLUMN': %v", err.Hints)
	}

	// No close match
	err2 := NewUndefinedIdentifier("QQQQ", available)
	if len(err2.Hints) != 0 {
		t.Errorf("Should have no hints for 'QQQQ': %v", err2.Hints)
	}
}

func TestNewUnknownAttribute(t *testing.T) {
	aliases := []string{"FILTER", "SELECT", "GROUPBY", "SORT", "AGG"}

	err := NewUnknownAttribute("frame", "FILTRE", aliases)
	if err.Code != "ATTR-0001" {
		t.Errorf("Code = %q, want ATTR-0001", err.Code)
	}
	if err.Class != ClassAttribute {
		t.Errorf("Class = %v, want %v", err.Class, ClassAttribute)
	}
	if !strings.Contains(err.Message, "frame") || !strings.Contains(err.Message, "FILTRE") {
		t.Errorf("Message should name the kind and the alias: %s", err.Message)
	}
	if len(err.Hints) == 0 || !strings.Contains(err.Hints[0], "FILTER") {
		t.Errorf("Should have hint suggesting 'FILTER': %v", err.Hints)
	}

	// No suggestion when nothing is close
	err2 := NewUnknownAttribute("series", "WRITECSV", aliases)
	if len(err2.Hints) != 0 {
		t.Errorf("Should have no hints for 'WRITECSV': %v", err2.Hints)
	}
}
