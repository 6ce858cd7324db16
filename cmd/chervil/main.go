package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/chervil-lang/chervil/config"
	cherrors "github.com/chervil-lang/chervil/pkg/errors"
	"github.com/chervil-lang/chervil/pkg/evaluator"
	"github.com/chervil-lang/chervil/pkg/repl"
)

// Version is set at compile time via -ldflags
var Version = "0.3.0"

var (
	helpFlag        = flag.Bool("h", false, "Show help message")
	helpLongFlag    = flag.Bool("help", false, "Show help message")
	versionFlag     = flag.Bool("V", false, "Show version information")
	versionLongFlag = flag.Bool("version", false, "Show version information")

	evalFlag     = flag.String("e", "", "Evaluate code string")
	evalLongFlag = flag.String("eval", "", "Evaluate code string")
	checkFlag    = flag.Bool("check", false, "Check syntax without executing")
	workbookFlag = flag.String("workbook", "", "Workbook manifest (YAML) to load tables from")
)

func main() {
	flag.Usage = printHelp
	flag.Parse()

	if *helpFlag || *helpLongFlag {
		printHelp()
		os.Exit(0)
	}

	if *versionFlag || *versionLongFlag {
		fmt.Printf("chervil version %s\n", Version)
		os.Exit(0)
	}

	evalCode := *evalFlag
	if evalCode == "" {
		evalCode = *evalLongFlag
	}

	switch {
	case evalCode != "":
		tables, _ := loadWorkbook()
		executeInline(evalCode, tables)
	case *checkFlag:
		files := flag.Args()
		if len(files) == 0 {
			fmt.Fprintln(os.Stderr, "Error: --check requires at least one file")
			os.Exit(2)
		}
		os.Exit(checkFiles(files))
	case len(flag.Args()) > 0:
		tables, _ := loadWorkbook()
		executeFile(flag.Args()[0], tables)
	default:
		tables, names := loadWorkbook()
		repl.Start(os.Stdin, os.Stdout, tables, names, Version)
	}
}

func printHelp() {
	fmt.Printf(`chervil - safe formula language version %s

Usage:
  chervil [options] [file]
  chervil -e "=formula"
  chervil --check <file>...

Options:
  -h, --help            Show this help message
  -V, --version         Show version information
  -e, --eval <code>     Evaluate a formula or script string
  --check               Check syntax without executing (multiple files OK)
  --workbook <path>     Load tables from a YAML workbook manifest

Sources start with '=' (formula) or '>' (script); with -e, bare input is
treated as a formula.

Examples:
  chervil                                 Start interactive session
  chervil -e "=1 + 2 * 3"                 Evaluate a formula (outputs: 7)
  chervil --workbook sales.yaml           Session over the Sales workbook
  chervil --workbook sales.yaml run.chv   Run a script against the workbook
  chervil --check run.chv                 Check syntax without executing
`, Version)
}

// loadWorkbook builds the table source from --workbook, or an empty one.
func loadWorkbook() (evaluator.TableSource, []string) {
	if *workbookFlag == "" {
		return evaluator.TableMap{}, nil
	}
	wb, err := config.Load(*workbookFlag)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading workbook: %v\n", err)
		os.Exit(1)
	}
	return wb, wb.Tables()
}

// executeInline evaluates code provided via -e. Bare input is a formula.
func executeInline(code string, tables evaluator.TableSource) {
	source := code
	if s := strings.TrimSpace(source); !strings.HasPrefix(s, "=") && !strings.HasPrefix(s, ">") {
		source = "=" + source
	}

	env := evaluator.BuildEnv(tables, nil)
	result, err := evaluator.Run(source, env)
	if err != nil {
		printError("<eval>", source, err)
		os.Exit(1)
	}

	if result != nil && result.Type() != evaluator.NULL_OBJ {
		fmt.Println(result.Inspect())
	}
}

// checkFiles syntax-checks files without executing them.
func checkFiles(files []string) int {
	hasErrors := false

	for _, filename := range files {
		content, err := os.ReadFile(filename)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", filename, err)
			return 2
		}

		if cerr := evaluator.Check(string(content)); cerr != nil {
			printError(filename, string(content), cerr)
			hasErrors = true
		}
	}

	if hasErrors {
		return 1
	}
	return 0
}

// executeFile runs a source file against the loaded tables.
func executeFile(filename string, tables evaluator.TableSource) {
	content, err := os.ReadFile(filename)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading file '%s': %v\n", filename, err)
		os.Exit(1)
	}
	source := string(content)

	env := evaluator.BuildEnv(tables, nil)
	result, rerr := evaluator.Run(source, env)
	if rerr != nil {
		printError(filename, source, rerr)
		os.Exit(1)
	}

	if result != nil && result.Type() != evaluator.NULL_OBJ {
		fmt.Println(result.Inspect())
	}
}

// printError prints a structured error with source context.
func printError(filename, source string, err error) {
	lerr, ok := err.(*cherrors.Error)
	if !ok {
		fmt.Fprintf(os.Stderr, "%s: %v\n", filename, err)
		return
	}

	fmt.Fprintln(os.Stderr, lerr.WithFile(filename).PrettyString())
	printSourceContext(strings.Split(source, "\n"), lerr.Line, lerr.Column)
}

// printSourceContext prints the offending source line and a position pointer.
func printSourceContext(lines []string, lineNum, colNum int) {
	if lineNum <= 0 || lineNum > len(lines) {
		return
	}

	sourceLine := lines[lineNum-1]

	trimCount := 0
	for i := 0; i < len(sourceLine); i++ {
		if sourceLine[i] == ' ' {
			trimCount++
		} else if sourceLine[i] == '\t' {
			trimCount += 8
		} else {
			break
		}
	}

	trimmedLine := strings.TrimLeft(sourceLine, " \t")
	fmt.Fprintf(os.Stderr, "    %s\n", trimmedLine)

	if colNum > 0 {
		visualCol := 0
		for i := 0; i < colNum-1 && i < len(sourceLine); i++ {
			if sourceLine[i] == '\t' {
				visualCol += 8
			} else {
				visualCol++
			}
		}
		adjustedCol := max(visualCol-trimCount, 0)
		fmt.Fprintf(os.Stderr, "    %s\n", strings.Repeat(" ", adjustedCol)+"^")
	}
}
