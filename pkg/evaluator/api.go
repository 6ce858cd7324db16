package evaluator

import (
	"github.com/chervil-lang/chervil/pkg/parser"
)

// Run parses and evaluates one source unit in the given environment. The
// environment keeps any bindings a script makes, so a session can Run
// repeatedly against the same one. The returned error, when non-nil, is
// always a *errors.Error.
func Run(source string, env *Environment) (Object, error) {
	program, perr := parser.Parse(source)
	if perr != nil {
		return nil, perr
	}

	result := Eval(program, env)
	if err, ok := result.(*Error); ok {
		return nil, err.ToLanguageError()
	}
	return result, nil
}

// Check parses a source unit without evaluating it, reporting the first
// syntax error. A nil result means the source is well-formed.
func Check(source string) error {
	if _, perr := parser.Parse(source); perr != nil {
		return perr
	}
	return nil
}
