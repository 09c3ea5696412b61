package vm_test

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"artlang/internal/builtins"
	"artlang/internal/errors"
	"artlang/internal/parser"
	"artlang/internal/value"
	"artlang/internal/vm"
)

// runScript parses and runs src against a fresh VM, capturing stdout.
func runScript(t *testing.T, src string) (string, value.Value, error) {
	t.Helper()
	root, errs := parser.ParseSource(src, "test")
	require.Empty(t, errs, "parsing %q", src)

	var out bytes.Buffer
	machine := vm.New(builtins.Registry())
	machine.Out = &out

	result, err := machine.RunSource(root)
	return out.String(), result, err
}

// TestScenarioPrint grounds spec scenario 1.
func TestScenarioPrint(t *testing.T) {
	out, _, err := runScript(t, `print "Hello world!"`)
	require.NoError(t, err)
	require.Equal(t, "Hello world!\n", out)
}

// TestScenarioLoopRange grounds spec scenario 2.
func TestScenarioLoopRange(t *testing.T) {
	out, _, err := runScript(t, `loop 1..3 'x [print x]`)
	require.NoError(t, err)
	require.Equal(t, "1\n2\n3\n", out)
}

// TestScenarioRecursiveFibonacci grounds spec scenario 3.
func TestScenarioRecursiveFibonacci(t *testing.T) {
	src := "fib: $[x][if? x<2 [1] else [(fib x-1)+(fib x-2)]]\nprint fib 10"
	out, _, err := runScript(t, src)
	require.NoError(t, err)
	require.Equal(t, "89\n", out)
}

// TestScenarioToInteger grounds spec scenario 4.
func TestScenarioToInteger(t *testing.T) {
	_, result, err := runScript(t, `to :integer "2020"`)
	require.NoError(t, err)
	require.Equal(t, value.Integer, result.Tag)
	require.Equal(t, int64(2020), result.I)
}

// TestScenarioDefineAndConstruct grounds spec scenario 5.
func TestScenarioDefineAndConstruct(t *testing.T) {
	src := `define :p [name age][]
print to :p ["John" 35]`
	out, _, err := runScript(t, src)
	require.NoError(t, err)
	require.Contains(t, out, "name:")
	require.Contains(t, out, "John")
	require.Contains(t, out, "age:")
	require.Contains(t, out, "35")
}

// TestScenarioConversionFailed grounds spec scenario 6.
func TestScenarioConversionFailed(t *testing.T) {
	_, _, err := runScript(t, `to :integer "nope"`)
	require.Error(t, err)
	ae, ok := err.(*errors.ArturError)
	require.True(t, ok, "expected an *errors.ArturError, got %T", err)
	require.Equal(t, errors.ConversionFailed, ae.Kind)
}

// TestScenarioRangeWithZeroStep grounds spec scenario 7.
func TestScenarioRangeWithZeroStep(t *testing.T) {
	_, _, err := runScript(t, `range 1 10 .step:0`)
	require.Error(t, err)
	ae, ok := err.(*errors.ArturError)
	require.True(t, ok, "expected an *errors.ArturError, got %T", err)
	require.Equal(t, errors.RangeWithZeroStep, ae.Kind)
}

// TestScenarioAsBinary grounds spec scenario 8.
func TestScenarioAsBinary(t *testing.T) {
	_, result, err := runScript(t, `as.binary 11`)
	require.NoError(t, err)
	require.Equal(t, value.String, result.Tag)
	require.Equal(t, "1011", result.Str)
}

// TestObjectCompareRespectsDoCompare grounds universal invariant 6: an
// Object whose prototype defines `compare` is ordered by its returned sign,
// exercised here through dotted-path field reads (this.n, other.n) in the
// method body.
func TestObjectCompareRespectsDoCompare(t *testing.T) {
	src := `define :box [n][
	compare: $[other][ this.n - other.n ]
]
a: to :box [5]
b: to :box [2]
print a > b`
	out, _, err := runScript(t, src)
	require.NoError(t, err)
	require.Equal(t, "true\n", out)
}
