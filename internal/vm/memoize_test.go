package vm

import (
	"testing"

	"artlang/internal/bytecode"
	"artlang/internal/errors"
	"artlang/internal/lexer"
	"artlang/internal/parser"
	"artlang/internal/value"
)

// TestMemoizedFunctionSkipsRepeatedSideEffect grounds the memoization
// invariant: a memoized function called twice with the same arguments
// returns equal values and only performs its body's side effect once.
func TestMemoizedFunctionSkipsRepeatedSideEffect(t *testing.T) {
	machine := New(Registry{})
	machine.Globals.Define("counter", value.IntVal(0))

	sc := lexer.NewScanner("counter: counter + 1\ncounter")
	tokens := sc.ScanTokens()
	p := parser.NewParser(tokens)
	root := p.Parse()
	if len(p.Errors) > 0 {
		t.Fatalf("unexpected parse errors: %v", p.Errors)
	}

	fn := &value.Function{Body: root.Blk, Memoize: true}

	var stack []value.Value
	attrs := map[string]value.Value{}

	first, err := machine.callFunction(fn, &stack, &attrs)
	if err != nil {
		t.Fatalf("first call: %v", err)
	}
	second, err := machine.callFunction(fn, &stack, &attrs)
	if err != nil {
		t.Fatalf("second call: %v", err)
	}

	if !value.Equals(first, second) {
		t.Fatalf("memoized calls returned different values: %v vs %v", first, second)
	}

	counterVal, _ := machine.Globals.Lookup("counter")
	if counterVal.I != 1 {
		t.Fatalf("body ran more than once: counter = %v, want 1", counterVal.I)
	}
}

// TestStackDepthAfterBuiltinError grounds universal invariant 5: a builtin's
// operands are popped before it runs, so an error it returns leaves the
// stack exactly arity entries shallower than it found it, never partially
// consumed or padded with a stray result.
func TestStackDepthAfterBuiltinError(t *testing.T) {
	machine := New(Registry{
		"boom": {Name: "boom", Arity: 2, Fn: func(*VM, []value.Value, map[string]value.Value) (value.Value, error) {
			return value.Value{}, errBoom
		}},
	})

	stack := []value.Value{value.IntVal(7), value.IntVal(1), value.IntVal(2)}
	attrs := map[string]value.Value{}
	depthBefore := len(stack)

	_, err := machine.dispatchCall("boom", &stack, &attrs, machine.Globals)
	if err != errBoom {
		t.Fatalf("expected errBoom, got %v", err)
	}
	if len(stack) != depthBefore-2 {
		t.Fatalf("stack depth after error = %d, want %d", len(stack), depthBefore-2)
	}
}

var errBoom = &stubError{}

type stubError struct{}

func (*stubError) Error() string { return "boom" }

// TestRunRaisesStackUnderflowInsteadOfCrashing grounds universal invariant
// 4: a translation that pops an operand an empty stack doesn't have raises
// StackUnderflow rather than panicking or indexing out of range.
func TestRunRaisesStackUnderflowInsteadOfCrashing(t *testing.T) {
	tr := bytecode.NewTranslation()
	tr.Emit(bytecode.OpAdd, bytecode.Position{})
	tr.Emit(bytecode.OpEnd, bytecode.Position{})

	machine := New(Registry{})
	_, err := machine.Run(tr)
	if err == nil {
		t.Fatalf("expected a StackUnderflow error, got none")
	}
	ae, ok := err.(*errors.ArturError)
	if !ok {
		t.Fatalf("expected an *errors.ArturError, got %T", err)
	}
	if ae.Kind != errors.StackUnderflow {
		t.Fatalf("expected StackUnderflow, got %s", ae.Kind)
	}
}
