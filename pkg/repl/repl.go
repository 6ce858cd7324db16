package repl

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	cherrors "github.com/chervil-lang/chervil/pkg/errors"
	"github.com/chervil-lang/chervil/pkg/evaluator"
)

const PROMPT = ">> "
const CONTINUATION_PROMPT = ".. "

const CHERVIL_LOGO = `
█▀▀ █░█ █▀▀ █▀█ █░█ █ █░░
█▄▄ █▀█ ██▄ █▀▄ ▀▄▀ █ █▄▄ `

// Builtin names seeded into every environment, for tab completion.
var completionWords = []string{
	// Constructors
	"TABLE", "COLUMN", "COL", "LIT", "SERIES", "DTYPES",
	// Temporal
	"DATETIME", "DATE", "DURATION", "NOW", "TODAY",
	// Scalar helpers
	"LEN", "ABS", "ROUND", "MIN", "MAX", "SUM", "FORMAT",
	// Constants
	"TRUE", "FALSE", "NULL", "True", "False", "None",
	// Common table operations
	"FILTER", "SELECT", "SORT", "GROUP_BY", "AGG", "WITH_COLUMN", "JOIN",
	// Keywords
	"lambda", "not", "and", "or",
}

// Start runs the interactive session. Every line shares one environment, so
// script bindings persist across inputs; tables come from the given source
// and their names join the completion set.
func Start(in io.Reader, out io.Writer, tables evaluator.TableSource, tableNames []string, version string) {
	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	words := append([]string{}, completionWords...)
	words = append(words, tableNames...)
	line.SetCompleter(func(line string) []string {
		return filterCompletions(line, words)
	})

	historyFile := filepath.Join(os.TempDir(), ".chervil_history")
	if f, err := os.Open(historyFile); err == nil {
		line.ReadHistory(f)
		f.Close()
	}

	defer func() {
		if f, err := os.Create(historyFile); err == nil {
			line.WriteHistory(f)
			f.Close()
		}
	}()

	env := evaluator.BuildEnv(tables, nil)

	fmt.Fprintf(out, "%s", CHERVIL_LOGO)
	fmt.Fprintln(out, "v", version)
	fmt.Fprintln(out, "")
	fmt.Fprintln(out, "Formulas start with '=', scripts with '>'; bare input is a formula.")
	fmt.Fprintln(out, "Type ':help' for commands, ':quit' or Ctrl+D to exit")
	fmt.Fprintln(out, "")

	var inputBuffer strings.Builder

	for {
		currentPrompt := PROMPT
		if inputBuffer.Len() > 0 {
			currentPrompt = CONTINUATION_PROMPT
		}
		input, err := line.Prompt(currentPrompt)
		if err != nil {
			if err == liner.ErrPromptAborted {
				if inputBuffer.Len() > 0 {
					fmt.Fprintln(out, "^C (cleared)")
				} else {
					fmt.Fprintln(out, "^C")
				}
				inputBuffer.Reset()
				continue
			}
			if err == io.EOF {
				fmt.Fprintln(out, "\nGoodbye!")
				return
			}
			fmt.Fprintf(out, "Error reading input: %v\n", err)
			continue
		}

		trimmed := strings.TrimSpace(input)

		if inputBuffer.Len() == 0 && strings.HasPrefix(trimmed, ":") {
			if quit := handleReplCommand(trimmed, tableNames, out); quit {
				return
			}
			continue
		}

		if inputBuffer.Len() == 0 && trimmed == "" {
			continue
		}

		if inputBuffer.Len() > 0 {
			inputBuffer.WriteString("\n")
		}
		inputBuffer.WriteString(input)

		fullInput := inputBuffer.String()
		if needsMoreInput(fullInput) {
			continue
		}

		if trimmed != "" {
			line.AppendHistory(fullInput)
		}

		// Bare input evaluates as a formula
		source := fullInput
		if s := strings.TrimSpace(source); !strings.HasPrefix(s, "=") && !strings.HasPrefix(s, ">") {
			source = "=" + source
		}

		result, rerr := evaluator.Run(source, env)
		if rerr != nil {
			printError(out, rerr)
		} else if result != nil {
			if result.Type() == evaluator.NULL_OBJ {
				io.WriteString(out, "OK\n")
			} else {
				io.WriteString(out, result.Inspect())
				io.WriteString(out, "\n")
			}
		}

		inputBuffer.Reset()
	}
}

// handleReplCommand handles meta-commands that start with ':'. The returned
// flag is true when the session should end.
func handleReplCommand(cmd string, tableNames []string, out io.Writer) bool {
	switch cmd {
	case ":help", ":h", ":?":
		fmt.Fprintln(out, "Commands:")
		fmt.Fprintln(out, "  :help, :h, :?   Show this help")
		fmt.Fprintln(out, "  :tables         List loaded tables")
		fmt.Fprintln(out, "  :quit, :q       Exit")
		fmt.Fprintln(out, "")
		fmt.Fprintln(out, "Input:")
		fmt.Fprintln(out, "  =EXPR           Formula (single expression)")
		fmt.Fprintln(out, "  >LINES          Script (assignments, final expression)")
		fmt.Fprintln(out, "  EXPR            Bare input is treated as =EXPR")
		return false

	case ":tables":
		if len(tableNames) == 0 {
			fmt.Fprintln(out, "(no tables loaded)")
			return false
		}
		for _, name := range tableNames {
			fmt.Fprintln(out, "  "+name)
		}
		return false

	case ":quit", ":q":
		fmt.Fprintln(out, "Goodbye!")
		return true

	default:
		fmt.Fprintf(out, "Unknown command: %s (type :help for commands)\n", cmd)
		return false
	}
}

// filterCompletions returns suggestions matching the word being typed.
func filterCompletions(line string, words []string) []string {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" {
		return nil
	}
	if line[len(line)-1] == ' ' || line[len(line)-1] == '\t' {
		return nil
	}

	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == '(' || r == ',' || r == '.' || r == '='
	})
	if len(fields) == 0 {
		return nil
	}
	lastWord := fields[len(fields)-1]

	var matches []string
	for _, word := range words {
		if strings.HasPrefix(word, lastWord) {
			matches = append(matches, word)
		}
	}
	return matches
}

// needsMoreInput reports unclosed brackets or parentheses outside strings,
// so multi-line scripts can be typed across prompts.
func needsMoreInput(input string) bool {
	input = strings.TrimSpace(input)
	if input == "" {
		return false
	}

	bracketCount := 0
	parenCount := 0
	braceCount := 0
	inString := false
	escapeNext := false

	for i := 0; i < len(input); i++ {
		ch := input[i]

		if escapeNext {
			escapeNext = false
			continue
		}
		if ch == '\\' {
			escapeNext = true
			continue
		}
		if ch == '"' {
			inString = !inString
			continue
		}
		if inString {
			continue
		}

		switch ch {
		case '{':
			braceCount++
		case '}':
			braceCount--
		case '[':
			bracketCount++
		case ']':
			bracketCount--
		case '(':
			parenCount++
		case ')':
			parenCount--
		}
	}

	return braceCount > 0 || bracketCount > 0 || parenCount > 0
}

func printError(out io.Writer, err error) {
	if lerr, ok := err.(*cherrors.Error); ok {
		io.WriteString(out, lerr.PrettyString())
		io.WriteString(out, "\n")
		return
	}
	fmt.Fprintf(out, "Error: %v\n", err)
}
