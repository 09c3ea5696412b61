// Package vm executes the bytecode produced by the translator: a stack
// dispatch loop over one Translation per call frame, with control-flow
// opcodes re-entering the loop on freshly (and lazily) compiled Block
// values rather than jumping within the current instruction stream.
package vm

import (
	"io"
	"os"

	"artlang/internal/bytecode"
	"artlang/internal/errors"
	"artlang/internal/translator"
	"artlang/internal/types"
	"artlang/internal/value"
)

// signal is how a runFrame invocation communicates a non-local exit (return,
// break, continue) back up through nested block executions.
type signal int

const (
	sigNone signal = iota
	sigReturn
	sigBreak
	sigContinue
)

const maxCallDepth = 2048

// VM is a reusable interpreter: one VM instance can run many Translations
// (e.g. successive REPL lines) against the same global scope.
type VM struct {
	Globals    *Scope
	Builtins   Registry
	Types      *types.Registry
	Out        io.Writer
	Err        io.Writer
	blockCache map[*value.Block]*bytecode.Translation
	dictCache  map[*value.Block]*value.Dict
	depth      int
	stopped    bool
}

func New(builtins Registry) *VM {
	return &VM{
		Globals:    NewScope(nil),
		Builtins:   builtins,
		Types:      types.NewRegistry(),
		Out:        os.Stdout,
		Err:        os.Stderr,
		blockCache: make(map[*value.Block]*bytecode.Translation),
		dictCache:  make(map[*value.Block]*value.Dict),
	}
}

// Stop requests cooperative cancellation; the dispatch loop checks it
// before each instruction and ends the frame as OpEnd would, so every
// frame unwinds cleanly without an error.
func (vm *VM) Stop() { vm.stopped = true }

// ExecAsDict runs blk as a dictionary against the VM's global scope: the
// same block-as-dictionary execution mode `define`/`switch` use, exposed
// for callers (manifest parsing in particular) that need to turn a parsed
// block into a Dict without running a whole program through RunSource.
func (vm *VM) ExecAsDict(blk *value.Block) (*value.Dict, error) {
	return vm.execAsDict(blk, vm.Globals)
}

// Run executes a top-level Translation against the global scope.
func (vm *VM) Run(t *bytecode.Translation) (value.Value, error) {
	v, sig, err := vm.runFrame(t, vm.Globals)
	if err != nil {
		return value.Value{}, err
	}
	if sig == sigReturn {
		return v, nil
	}
	return v, nil
}

// RunSource translates and runs an already-parsed root block in one call,
// resolving call arity against the VM's builtins and current globals.
func (vm *VM) RunSource(root value.Value) (value.Value, error) {
	t, err := vm.Compile(root)
	if err != nil {
		return value.Value{}, err
	}
	return vm.Run(t)
}

// Compile translates root against the VM's current builtins and globals
// without executing it, for callers that want the bytecode itself (the
// `build` command's exchange-dictionary output in particular).
func (vm *VM) Compile(root value.Value) (*bytecode.Translation, error) {
	tr := translator.New(vmResolver{vm: vm, scope: vm.Globals})
	return tr.Translate(root)
}

type vmResolver struct {
	vm    *VM
	scope *Scope
}

func (r vmResolver) Arity(name string) (int, bool) {
	if b, ok := r.vm.Builtins[name]; ok {
		return b.Arity, true
	}
	if v, ok := r.scope.Lookup(name); ok && v.Tag == value.FunctionTag {
		return len(v.Fn.Params), true
	}
	return 0, false
}

// compileBlock lazily translates a Block the first time it is executed,
// caching the result on the Block's identity for subsequent iterations
// (loop bodies in particular run the same Block many times).
func (vm *VM) compileBlock(blk *value.Block, scope *Scope) (*bytecode.Translation, error) {
	if t, ok := vm.blockCache[blk]; ok {
		return t, nil
	}
	tr := translator.New(vmResolver{vm: vm, scope: scope})
	t, err := tr.Translate(value.Value{Tag: value.BlockTag, Blk: blk})
	if err != nil {
		return nil, err
	}
	vm.blockCache[blk] = t
	return t, nil
}

// execBlock runs blk in a fresh child scope of parent, returning its
// trailing expression value and any propagating signal.
func (vm *VM) execBlock(blk *value.Block, parent *Scope) (value.Value, signal, error) {
	t, err := vm.compileBlock(blk, parent)
	if err != nil {
		return value.Value{}, sigNone, err
	}
	return vm.runFrame(t, NewScope(parent))
}

func (vm *VM) constName(t *bytecode.Translation, idx int) string {
	if idx < 0 || idx >= len(t.Constants) {
		return ""
	}
	s, _ := t.Constants[idx].(string)
	return s
}

// runFrame is the dispatch loop for a single Translation. It owns its own
// operand stack; nested block/function executions recurse into runFrame
// rather than sharing one global stack, which keeps break/continue/return
// propagation a matter of Go call-return rather than manual frame unwinding.
func (vm *VM) runFrame(t *bytecode.Translation, scope *Scope) (value.Value, signal, error) {
	vm.depth++
	defer func() { vm.depth-- }()
	if vm.depth > maxCallDepth {
		return value.Value{}, sigNone, errors.New(errors.StackOverflow, "call stack exceeded maximum depth")
	}

	var stack []value.Value
	push := func(v value.Value) { stack = append(stack, v) }
	pop := func() (value.Value, error) {
		if len(stack) == 0 {
			return value.Value{}, errors.New(errors.StackUnderflow, "operand stack underflow")
		}
		v := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		return v, nil
	}
	popN := func(n int) ([]value.Value, error) {
		if len(stack) < n {
			return nil, errors.New(errors.StackUnderflow, "operand stack underflow")
		}
		out := append([]value.Value(nil), stack[len(stack)-n:]...)
		stack = stack[:len(stack)-n]
		return out, nil
	}

	var pendingAttrName string
	pendingAttrs := map[string]value.Value{}

	ip := 0
	for ip < len(t.Code) {
		if vm.stopped {
			break
		}
		op := bytecode.OpCode(t.Code[ip])
		ip++

		switch {
		case op >= bytecode.OpPushSmallBase && op < bytecode.OpPushSmallBase+17:
			n, _ := bytecode.IsShortPush(op)
			push(value.IntVal(int64(n)))
			continue
		case op >= bytecode.OpLoadShortBase && op < bytecode.OpLoadShortBase+14:
			name := vm.constName(t, int(op-bytecode.OpLoadShortBase))
			v, ok := scope.Lookup(name)
			if !ok {
				return value.Value{}, sigNone, errors.Newf(errors.SymbolNotFound, "%s", name)
			}
			push(v)
			continue
		case op >= bytecode.OpStoreShortBase && op < bytecode.OpStoreShortBase+14:
			name := vm.constName(t, int(op-bytecode.OpStoreShortBase))
			v, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			scope.Set(name, v)
			continue
		case op >= bytecode.OpCallShortBase && op < bytecode.OpCallShortBase+14:
			name := vm.constName(t, int(op-bytecode.OpCallShortBase))
			res, err := vm.dispatchCall(name, &stack, &pendingAttrs, scope)
			if err != nil {
				return value.Value{}, sigNone, err
			}
			push(res)
			continue
		}

		switch op {
		case bytecode.OpLoadLong, bytecode.OpLoadExt:
			idx := readIndex(t, &ip, op == bytecode.OpLoadExt)
			name := vm.constName(t, idx)
			v, ok := scope.Lookup(name)
			if !ok {
				return value.Value{}, sigNone, errors.Newf(errors.SymbolNotFound, "%s", name)
			}
			push(v)

		case bytecode.OpStoreLong, bytecode.OpStoreExt:
			idx := readIndex(t, &ip, op == bytecode.OpStoreExt)
			name := vm.constName(t, idx)
			v, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			scope.Set(name, v)

		case bytecode.OpStoreKeep:
			v, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			scope.Set(pendingAttrName, v)
			push(v)

		case bytecode.OpCallLong, bytecode.OpCallExt:
			idx := readIndex(t, &ip, op == bytecode.OpCallExt)
			name := vm.constName(t, idx)
			res, err := vm.dispatchCall(name, &stack, &pendingAttrs, scope)
			if err != nil {
				return value.Value{}, sigNone, err
			}
			push(res)

		case bytecode.OpConstLong, bytecode.OpConstExt:
			idx := readIndex(t, &ip, op == bytecode.OpConstExt)
			if idx < 0 || idx >= len(t.Constants) {
				return value.Value{}, sigNone, errors.New(errors.IndexOutOfBounds, "constant index out of range")
			}
			push(constantValue(t.Constants[idx]))

		case bytecode.OpTrue:
			push(value.LogicalVal(true))
		case bytecode.OpFalse:
			push(value.LogicalVal(false))
		case bytecode.OpNull:
			push(value.NullVal())
		case bytecode.OpFloat0:
			push(value.FloatVal(0))
		case bytecode.OpFloat1:
			push(value.FloatVal(1))
		case bytecode.OpFloat2:
			push(value.FloatVal(2))
		case bytecode.OpFloatNeg:
			push(value.FloatVal(-1))

		case bytecode.OpAttrName:
			idx := readIndex(t, &ip, false)
			pendingAttrName = vm.constName(t, idx)

		case bytecode.OpAttrSet:
			v, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			pendingAttrs[pendingAttrName] = v

		case bytecode.OpAdd, bytecode.OpSub, bytecode.OpMul, bytecode.OpDiv, bytecode.OpFDiv,
			bytecode.OpMod, bytecode.OpPow, bytecode.OpBAnd, bytecode.OpBOr, bytecode.OpShl, bytecode.OpShr:
			b, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			a, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			res, err := arith(opSymbol(op), a, b)
			if err != nil {
				return value.Value{}, sigNone, err
			}
			push(res)

		case bytecode.OpNeg:
			a, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			res, err := negate(a)
			if err != nil {
				return value.Value{}, sigNone, err
			}
			push(res)

		case bytecode.OpInc, bytecode.OpDec:
			a, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			delta := int64(1)
			if op == bytecode.OpDec {
				delta = -1
			}
			res, err := arith("+", a, value.IntVal(delta))
			if err != nil {
				return value.Value{}, sigNone, err
			}
			push(res)

		case bytecode.OpNot:
			a, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			push(value.LogicalVal(!a.IsTruthy()))

		case bytecode.OpAnd:
			b, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			a, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			push(value.LogicalVal(a.IsTruthy() && b.IsTruthy()))

		case bytecode.OpOr:
			b, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			a, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			push(value.LogicalVal(a.IsTruthy() || b.IsTruthy()))

		case bytecode.OpEq, bytecode.OpNe, bytecode.OpGt, bytecode.OpGe, bytecode.OpLt, bytecode.OpLe:
			b, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			a, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			push(value.LogicalVal(vm.compareOp(op, a, b)))

		case bytecode.OpRange:
			b, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			a, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			rng, err := buildRange(a, b)
			if err != nil {
				return value.Value{}, sigNone, err
			}
			push(rng)

		case bytecode.OpGet:
			key, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			coll, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			res, err := getField(coll, key)
			if err != nil {
				return value.Value{}, sigNone, err
			}
			push(res)

		case bytecode.OpSet:
			v, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			key, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			coll, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			if err := setField(coll, key, v); err != nil {
				return value.Value{}, sigNone, err
			}

		case bytecode.OpDup:
			v, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			push(v)
			push(v)

		case bytecode.OpPop:
			if _, err := pop(); err != nil {
				return value.Value{}, sigNone, err
			}

		case bytecode.OpOver:
			if len(stack) < 2 {
				return value.Value{}, sigNone, errors.New(errors.StackUnderflow, "operand stack underflow")
			}
			push(stack[len(stack)-2])

		case bytecode.OpSwap:
			if len(stack) < 2 {
				return value.Value{}, sigNone, errors.New(errors.StackUnderflow, "operand stack underflow")
			}
			stack[len(stack)-1], stack[len(stack)-2] = stack[len(stack)-2], stack[len(stack)-1]

		case bytecode.OpNop:
			// no-op

		case bytecode.OpIf, bytecode.OpUnless:
			blkVal, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			cond, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			want := cond.IsTruthy()
			if op == bytecode.OpUnless {
				want = !want
			}
			if want {
				v, sig, err := vm.execBlock(blkVal.Blk, scope)
				if err != nil || sig != sigNone {
					return v, sig, err
				}
				push(v)
			} else {
				push(value.NullVal())
			}

		case bytecode.OpIfE, bytecode.OpUnlessE:
			elseVal, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			thenVal, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			cond, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			want := cond.IsTruthy()
			if op == bytecode.OpUnlessE {
				want = !want
			}
			chosen := elseVal
			if want {
				chosen = thenVal
			}
			v, sig, err := vm.execBlock(chosen.Blk, scope)
			if err != nil || sig != sigNone {
				return v, sig, err
			}
			push(v)

		case bytecode.OpWhile:
			bodyVal, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			condVal, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			result := value.NullVal()
			for {
				c, sig, err := vm.execBlock(condVal.Blk, scope)
				if err != nil || sig != sigNone {
					return c, sig, err
				}
				if !c.IsTruthy() {
					break
				}
				v, sig, err := vm.execBlock(bodyVal.Blk, scope)
				if err != nil {
					return v, sigNone, err
				}
				if sig == sigBreak {
					break
				}
				if sig == sigReturn {
					return v, sig, nil
				}
				result = v
			}
			push(result)

		case bytecode.OpLoop, bytecode.OpMap, bytecode.OpSelect:
			bodyVal, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			varNameVal, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			coll, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			v, sig, err := vm.runIteration(op, coll, varNameVal, bodyVal, scope)
			if err != nil || sig == sigReturn {
				return v, sig, err
			}
			push(v)

		case bytecode.OpSwitch:
			table, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			key, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			cases, ok := vm.dictCache[table.Blk]
			if !ok {
				var derr error
				cases, derr = vm.execAsDict(table.Blk, scope)
				if derr != nil {
					return value.Value{}, sigNone, derr
				}
				vm.dictCache[table.Blk] = cases
			}
			caseVal, ok := cases.Get(value.Printable(key, vm.ObjectPrinter()))
			if !ok {
				push(value.NullVal())
				continue
			}
			if caseVal.Tag == value.BlockTag {
				v, sig, err := vm.execBlock(caseVal.Blk, scope)
				if err != nil || sig != sigNone {
					return v, sig, err
				}
				push(v)
			} else {
				push(caseVal)
			}

		case bytecode.OpTo:
			targetNameVal, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			v, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			res, err := vm.convertTo(targetNameVal.Str, v)
			if err != nil {
				return value.Value{}, sigNone, err
			}
			push(res)

		case bytecode.OpReturn:
			v, err := pop()
			if err != nil {
				return value.Value{}, sigNone, err
			}
			return v, sigReturn, nil

		case bytecode.OpBreak:
			_, _ = pop()
			return value.Value{}, sigBreak, nil

		case bytecode.OpContinue:
			_, _ = pop()
			return value.Value{}, sigContinue, nil

		case bytecode.OpJmpIfLong, bytecode.OpJmpIfNotLong:
			target := readIndex(t, &ip, true)
			if len(stack) == 0 {
				return value.Value{}, sigNone, errors.New(errors.StackUnderflow, "operand stack underflow")
			}
			cond := stack[len(stack)-1].IsTruthy()
			if op == bytecode.OpJmpIfNotLong {
				cond = !cond
			}
			if cond {
				ip = target
			}

		case bytecode.OpEnd:
			// falls through to final-value handling below

		default:
			return value.Value{}, sigNone, errors.Newf(errors.TypeMismatch, "unimplemented opcode 0x%02x", op)
		}
	}

	if len(stack) == 0 {
		return value.NullVal(), sigNone, nil
	}
	return stack[len(stack)-1], sigNone, nil
}

func readIndex(t *bytecode.Translation, ip *int, wide bool) int {
	if ip == nil {
		return 0
	}
	if wide {
		hi, lo := t.Code[*ip], t.Code[*ip+1]
		*ip += 2
		return int(hi)<<8 | int(lo)
	}
	b := t.Code[*ip]
	*ip++
	return int(b)
}

func constantValue(c interface{}) value.Value {
	switch x := c.(type) {
	case value.Value:
		return x
	case string:
		return value.StringVal(x)
	}
	return value.NullVal()
}

func opSymbol(op bytecode.OpCode) string {
	switch op {
	case bytecode.OpAdd:
		return "+"
	case bytecode.OpSub:
		return "-"
	case bytecode.OpMul:
		return "*"
	case bytecode.OpDiv:
		return "/"
	case bytecode.OpFDiv:
		return "//"
	case bytecode.OpMod:
		return "%"
	case bytecode.OpPow:
		return "^"
	case bytecode.OpBAnd:
		return "&"
	case bytecode.OpBOr:
		return "|"
	case bytecode.OpShl:
		return "<<"
	case bytecode.OpShr:
		return ">>"
	}
	return "?"
}

func (vm *VM) compareOp(op bytecode.OpCode, a, b value.Value) bool {
	if op == bytecode.OpEq {
		return value.Equals(a, b)
	}
	if op == bytecode.OpNe {
		return !value.Equals(a, b)
	}
	ord := value.CompareWithObjects(a, b, vm.ObjectComparer())
	switch op {
	case bytecode.OpGt:
		return ord == value.GT
	case bytecode.OpGe:
		return ord == value.GT || ord == value.EQ
	case bytecode.OpLt:
		return ord == value.LT
	case bytecode.OpLe:
		return ord == value.LT || ord == value.EQ
	}
	return false
}

// buildRange constructs the Range `a..b` denotes, flipping the step's sign
// to match direction the way the `range` builtin does.
func buildRange(a, b value.Value) (value.Value, error) {
	if a.Tag != value.Integer || b.Tag != value.Integer {
		return value.Value{}, errors.Newf(errors.TypeMismatch, "range expects integer bounds, got %s and %s", a.Tag, b.Tag)
	}
	start, stop := a.I, b.I
	forward := stop >= start
	step := int64(1)
	if !forward {
		step = -1
	}
	return value.RangeVal(&value.Range{Start: start, Stop: stop, Step: step, Numeric: true, Forward: forward}), nil
}

// getField reads a named field off a Dictionary or Object, the runtime
// side of dotted-path access (obj.field).
func getField(coll, key value.Value) (value.Value, error) {
	name := value.Printable(key, nil)
	switch coll.Tag {
	case value.Dictionary:
		if v, ok := coll.Dct.Get(name); ok {
			return v, nil
		}
		return value.NullVal(), nil
	case value.Object:
		if v, ok := coll.Obj.Fields.Get(name); ok {
			return v, nil
		}
		return value.NullVal(), nil
	}
	return value.Value{}, errors.Newf(errors.TypeMismatch, "cannot get field %q from a %s", name, coll.Tag)
}

// setField mutates a named field on a Dictionary or Object in place, the
// runtime side of dotted-path assignment (obj.field: value).
func setField(coll, key, v value.Value) error {
	name := value.Printable(key, nil)
	switch coll.Tag {
	case value.Dictionary:
		coll.Dct.Set(name, v)
		return nil
	case value.Object:
		coll.Obj.Fields.Set(name, v)
		return nil
	}
	return errors.Newf(errors.TypeMismatch, "cannot set field %q on a %s", name, coll.Tag)
}
