// Package repl drives an interactive read-eval-print loop: one VM
// instance persists across lines so definitions and bound words from
// earlier input remain visible to later input.
package repl

import (
	"bufio"
	"fmt"
	"io"

	"artlang/internal/builtins"
	"artlang/internal/errors"
	"artlang/internal/lexer"
	"artlang/internal/parser"
	"artlang/internal/value"
	"artlang/internal/vm"
)

// Start runs the loop against in/out until EOF or an "exit" line.
func Start(in io.Reader, out io.Writer) {
	fmt.Fprintln(out, "art | type 'exit' to quit")
	scanner := bufio.NewScanner(in)
	machine := vm.New(builtins.Registry())
	machine.Out = out

	for {
		fmt.Fprint(out, ">>> ")
		if !scanner.Scan() {
			break
		}
		line := scanner.Text()
		if line == "exit" {
			break
		}
		if line == "" {
			continue
		}

		result, err := evalLine(machine, line)
		if err != nil {
			if ae, ok := err.(*errors.ArturError); ok {
				fmt.Fprintln(out, ae.Pretty())
			} else {
				fmt.Fprintln(out, err.Error())
			}
			continue
		}
		if result.Tag != value.Null {
			fmt.Fprintln(out, value.Printable(result, machine.ObjectPrinter()))
		}
	}
}

func evalLine(machine *vm.VM, line string) (value.Value, error) {
	lex := lexer.NewScanner(line)
	tokens := lex.ScanTokens()
	p := parser.NewParser(tokens)
	root := p.Parse()
	return machine.RunSource(root)
}
