// Package errors defines the closed error taxonomy raised by the parser,
// translator and VM, and the call-stack formatting used to report them.
package errors

import (
	"fmt"
	"strings"
)

// Kind is one of the fixed error categories the language can raise.
type Kind string

const (
	ParseError       Kind = "ParseError"
	SymbolNotFound   Kind = "SymbolNotFound"
	ArityMismatch    Kind = "ArityMismatch"
	TypeMismatch     Kind = "TypeMismatch"
	CannotConvert    Kind = "CannotConvert"
	ConversionFailed Kind = "ConversionFailed"
	RangeWithZeroStep Kind = "RangeWithZeroStep"
	IndexOutOfBounds Kind = "IndexOutOfBounds"
	StackOverflow    Kind = "StackOverflow"
	StackUnderflow   Kind = "StackUnderflow"
	PackageError     Kind = "PackageError"
)

// Location pinpoints a position in source text.
type Location struct {
	File   string
	Line   int
	Column int
}

func (l Location) String() string {
	if l.File == "" && l.Line == 0 {
		return ""
	}
	return fmt.Sprintf("%s:%d:%d", l.File, l.Line, l.Column)
}

// StackFrame is one entry of a captured call stack.
type StackFrame struct {
	Function string
	Location Location
}

// ArturError is the error type every language-level failure surfaces as.
type ArturError struct {
	Kind      Kind
	Message   string
	Location  Location
	CallStack []StackFrame
}

func (e *ArturError) Error() string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s: %s", e.Kind, e.Message))
	if loc := e.Location.String(); loc != "" {
		sb.WriteString(" at " + loc)
	}
	for _, f := range e.CallStack {
		sb.WriteString("\n  in ")
		if f.Function != "" {
			sb.WriteString(f.Function + " ")
		}
		if loc := f.Location.String(); loc != "" {
			sb.WriteString("(" + loc + ")")
		}
	}
	return sb.String()
}

// New constructs an ArturError of the given kind with no position.
func New(kind Kind, message string) *ArturError {
	return &ArturError{Kind: kind, Message: message}
}

// Newf is New with Printf-style formatting.
func Newf(kind Kind, format string, args ...interface{}) *ArturError {
	return &ArturError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// At attaches a source location, returning the receiver for chaining.
func (e *ArturError) At(loc Location) *ArturError {
	e.Location = loc
	return e
}

// Push appends a call-stack frame (call sites push as the error unwinds,
// so CallStack reads innermost-first after a full unwind).
func (e *ArturError) Push(function string, loc Location) *ArturError {
	e.CallStack = append(e.CallStack, StackFrame{Function: function, Location: loc})
	return e
}

// Pretty renders the user-visible failure line: a label, the kind's human
// name, the message, and the position when known.
func (e *ArturError) Pretty() string {
	loc := e.Location.String()
	if loc == "" {
		return fmt.Sprintf("error: %s: %s", e.Kind, e.Message)
	}
	return fmt.Sprintf("error: %s: %s (%s)", e.Kind, e.Message, loc)
}

// Is lets errors.Is match on Kind (two *ArturError match if their Kind is equal).
func (e *ArturError) Is(target error) bool {
	t, ok := target.(*ArturError)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}
