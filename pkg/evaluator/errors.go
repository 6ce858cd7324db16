package evaluator

import (
	"fmt"
	"strconv"
	"strings"

	cherrors "github.com/chervil-lang/chervil/pkg/errors"
	"github.com/chervil-lang/chervil/pkg/lexer"
)

func isError(obj Object) bool {
	if obj != nil {
		return obj.Type() == ERROR_OBJ
	}
	return false
}

func newError(format string, a ...interface{}) *Error {
	return &Error{Message: fmt.Sprintf(format, a...)}
}

// newErrorWithPos creates an error with position information from a token
func newErrorWithPos(tok lexer.Token, format string, a ...interface{}) *Error {
	return &Error{
		Message: fmt.Sprintf(format, a...),
		Line:    tok.Line,
		Column:  tok.Column,
	}
}

// newErrorWithClass creates an error with a specific class.
func newErrorWithClass(class cherrors.ErrorClass, format string, a ...interface{}) *Error {
	return &Error{
		Class:   class,
		Message: fmt.Sprintf(format, a...),
	}
}

// newErrorWithClassAndPos creates an error with class and position information.
func newErrorWithClassAndPos(class cherrors.ErrorClass, tok lexer.Token, format string, a ...interface{}) *Error {
	return &Error{
		Class:   class,
		Message: fmt.Sprintf(format, a...),
		Line:    tok.Line,
		Column:  tok.Column,
	}
}

// newStructuredError creates a structured error from the catalog.
func newStructuredError(code string, data map[string]any) *Error {
	lerr := cherrors.New(code, data)
	return &Error{
		Class:   lerr.Class,
		Code:    lerr.Code,
		Message: lerr.Message,
		Hints:   lerr.Hints,
		Data:    lerr.Data,
	}
}

// newStructuredErrorWithPos creates a structured error with position information.
func newStructuredErrorWithPos(code string, tok lexer.Token, data map[string]any) *Error {
	err := newStructuredError(code, data)
	err.Line = tok.Line
	err.Column = tok.Column
	return err
}

// withPos fills in a position if the error has none yet.
func (e *Error) withPos(tok lexer.Token) *Error {
	if e.Line == 0 {
		e.Line = tok.Line
		e.Column = tok.Column
	}
	return e
}

// engineError wraps an error from the engine as an operator-class error.
// The engine reports type and length mismatches, division by zero, and the
// like; they surface to the user verbatim.
func engineError(err error) *Error {
	return newErrorWithClass(cherrors.ClassOperator, "%s", err.Error())
}

// checkArity validates an argument count against an arity spec: an exact
// count ("2"), a range ("0-1"), or a minimum ("1+").
func checkArity(spec string, got int) bool {
	spec = strings.TrimSpace(spec)

	if exact, err := strconv.Atoi(spec); err == nil {
		return got == exact
	}

	if strings.Contains(spec, "-") {
		parts := strings.Split(spec, "-")
		if len(parts) == 2 {
			minVal, errMin := strconv.Atoi(parts[0])
			maxVal, errMax := strconv.Atoi(parts[1])
			if errMin == nil && errMax == nil {
				return got >= minVal && got <= maxVal
			}
		}
	}

	if suffix, found := strings.CutSuffix(spec, "+"); found {
		if minVal, err := strconv.Atoi(suffix); err == nil {
			return got >= minVal
		}
	}

	// Unknown spec - be permissive
	return true
}

// arityErrorFromSpec creates an arity error phrased from the spec string.
func arityErrorFromSpec(function, spec string, got int) *Error {
	spec = strings.TrimSpace(spec)

	want := spec
	if strings.Contains(spec, "-") {
		parts := strings.Split(spec, "-")
		if len(parts) == 2 {
			want = parts[0] + " to " + parts[1]
		}
	} else if suffix, found := strings.CutSuffix(spec, "+"); found {
		want = "at least " + suffix
	}

	return newStructuredError("ARITY-0001", map[string]any{
		"Function": function,
		"Got":      got,
		"Want":     want,
	})
}
