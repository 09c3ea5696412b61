// cmd/art/main.go
package main

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"artlang/internal/builtins"
	"artlang/internal/errors"
	"artlang/internal/lexer"
	"artlang/internal/parser"
	"artlang/internal/repl"
	"artlang/internal/termcolor"
	"artlang/internal/value"
	"artlang/internal/vm"
)

const version = "0.1.0"

// exit codes: 0 success, 1 runtime/parse error, 2 usage error.
const (
	exitOK    = 0
	exitError = 1
	exitUsage = 2
)

// command aliases mirror the single-letter shortcuts scripts tend to reach for.
var commandAliases = map[string]string{
	"r": "run",
	"i": "repl",
	"b": "build",
	"v": "version",
	"h": "help",
}

func main() {
	args := os.Args[1:]
	if len(args) == 0 {
		startRepl()
		return
	}

	cmd := args[0]
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}

	switch cmd {
	case "help", "--help", "-h":
		if len(args) > 1 {
			showCommandHelp(args[1])
		} else {
			showUsage()
		}
	case "version", "--version", "-v":
		fmt.Printf("art %s\n", version)
		os.Exit(exitOK)
	case "repl":
		startRepl()
	case "build":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: art build <file.art>")
			os.Exit(exitUsage)
		}
		buildFile(args[1])
	case "run":
		if len(args) < 2 {
			fmt.Fprintln(os.Stderr, "usage: art run <file.art>")
			os.Exit(exitUsage)
		}
		runFile(args[1])
	default:
		// a bare filename runs it directly, the way scripts are usually invoked.
		if strings.HasSuffix(cmd, ".art") {
			runFile(cmd)
			return
		}
		fmt.Fprintf(os.Stderr, "art: unknown command %q\n", cmd)
		showUsage()
		os.Exit(exitUsage)
	}
}

func startRepl() {
	repl.Start(os.Stdin, os.Stdout)
}

func newMachine() *vm.VM {
	return vm.New(builtins.Registry())
}

func runFile(path string) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "art: cannot read %s: %v\n", path, err)
		os.Exit(exitError)
	}

	root, err := parseSource(string(source), path)
	if err != nil {
		reportError(err)
		os.Exit(exitError)
	}

	machine := newMachine()
	if _, err := machine.RunSource(root); err != nil {
		reportError(err)
		os.Exit(exitError)
	}
}

func buildFile(path string) {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "art: cannot read %s: %v\n", path, err)
		os.Exit(exitError)
	}

	root, err := parseSource(string(source), path)
	if err != nil {
		reportError(err)
		os.Exit(exitError)
	}

	machine := newMachine()
	t, err := machine.Compile(root)
	if err != nil {
		reportError(err)
		os.Exit(exitError)
	}

	out := strings.TrimSuffix(path, filepath.Ext(path)) + ".artc"
	dict := value.Codify(value.DictVal(value.BytecodeToDict(t)), true, false, true)
	if err := os.WriteFile(out, []byte(dict+"\n"), 0644); err != nil {
		fmt.Fprintf(os.Stderr, "art: cannot write %s: %v\n", out, err)
		os.Exit(exitError)
	}
	fmt.Printf("wrote %s\n", out)
}

func parseSource(source, path string) (value.Value, error) {
	lex := lexer.NewScannerFile(source, path)
	tokens := lex.ScanTokens()
	p := parser.NewParser(tokens)
	root := p.Parse()
	if len(p.Errors) > 0 {
		return value.Value{}, p.Errors[0]
	}
	return root, nil
}

func reportError(err error) {
	if ae, ok := err.(*errors.ArturError); ok {
		msg := strings.TrimPrefix(ae.Pretty(), "error:")
		fmt.Fprintln(os.Stderr, termcolor.Wrap(os.Stderr, termcolor.Red, "error:")+msg)
		return
	}
	fmt.Fprintln(os.Stderr, "art:", err.Error())
}

func showUsage() {
	fmt.Println("art - a homoiconic stack-based scripting language")
	fmt.Println()
	fmt.Println("usage:")
	fmt.Println("  art <file.art>          run a script                 (alias: r)")
	fmt.Println("  art run <file.art>      run a script")
	fmt.Println("  art repl                start the interactive REPL   (alias: i)")
	fmt.Println("  art build <file.art>    compile to a .artc exchange dict (alias: b)")
	fmt.Println("  art version             show the version             (alias: v)")
	fmt.Println("  art help [command]      show this message, or help for a command")
	fmt.Println()
	fmt.Println("with no arguments, art starts the REPL.")
}

func showCommandHelp(cmd string) {
	if alias, ok := commandAliases[cmd]; ok {
		cmd = alias
	}
	help := map[string]string{
		"run":     "art run <file.art>\n\nParses, translates and executes a script file.",
		"repl":    "art repl\n\nStarts an interactive read-eval-print loop against a fresh VM.",
		"build":   "art build <file.art>\n\nCompiles a script to bytecode and writes it as <file>.artc,\na {data: [...], code: [...]} exchange dictionary round-trippable\nthrough `to :bytecode`, without executing the script.",
		"version": "art version\n\nPrints the interpreter version.",
	}
	if text, ok := help[cmd]; ok {
		fmt.Println(text)
		return
	}
	fmt.Printf("no help available for %q\n", cmd)
}
