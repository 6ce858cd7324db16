package evaluator

// Environment holds the name-to-value bindings of one evaluation run. An
// environment is exclusively owned by that run and is never shared across
// concurrent evaluations; lambda invocation layers an enclosed child scope
// on top and discards it on return.
type Environment struct {
	store map[string]Object
	outer *Environment
}

// NewEnvironment creates a new empty environment
func NewEnvironment() *Environment {
	return &Environment{store: make(map[string]Object)}
}

// NewEnclosedEnvironment creates a new environment with outer reference
func NewEnclosedEnvironment(outer *Environment) *Environment {
	env := NewEnvironment()
	env.outer = outer
	return env
}

// Get retrieves a value, walking the scope chain innermost to outermost.
func (e *Environment) Get(name string) (Object, bool) {
	value, ok := e.store[name]
	if !ok && e.outer != nil {
		value, ok = e.outer.Get(name)
	}
	return value, ok
}

// Set binds a name in this scope, shadowing any outer binding.
func (e *Environment) Set(name string, val Object) Object {
	e.store[name] = val
	return val
}

// AllIdentifiers returns every name visible from this environment, used for
// fuzzy matching in undefined-identifier errors.
func (e *Environment) AllIdentifiers() []string {
	seen := make(map[string]bool)
	var result []string

	for env := e; env != nil; env = env.outer {
		for name := range env.store {
			if !seen[name] {
				seen[name] = true
				result = append(result, name)
			}
		}
	}

	return result
}
