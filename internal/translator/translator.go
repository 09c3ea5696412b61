// Package translator transforms a value.Block (the parser's homoiconic
// output) into a bytecode.Translation: a constants pool plus a byte-encoded
// instruction stream, per the rules in the CORE specification's translator
// component.
package translator

import (
	"strconv"
	"strings"

	"artlang/internal/bytecode"
	"artlang/internal/value"
)

// Resolver supplies the translator with best-effort arity information for
// known words (builtins already registered, or user functions hoisted in
// an earlier pass). Unknown words default to arity 0 — the VM resolves the
// call/load ambiguity at runtime (see DESIGN.md decision #3).
type Resolver interface {
	Arity(name string) (int, bool)
}

// MapResolver is the simplest Resolver: a flat name->arity map.
type MapResolver map[string]int

func (m MapResolver) Arity(name string) (int, bool) {
	a, ok := m[name]
	return a, ok
}

// infixOps maps a Symbol-tagged operator word to its opcode; all are
// left-associative binary operators folded by FoldInfix before translation.
var infixOps = map[string]bytecode.OpCode{
	"+": bytecode.OpAdd, "-": bytecode.OpSub, "*": bytecode.OpMul, "/": bytecode.OpDiv,
	"//": bytecode.OpFDiv, "%": bytecode.OpMod, "^": bytecode.OpPow,
	"<": bytecode.OpLt, ">": bytecode.OpGt, "<=": bytecode.OpLe, ">=": bytecode.OpGe,
	"==": bytecode.OpEq, "!=": bytecode.OpNe,
	"&": bytecode.OpBAnd, "|": bytecode.OpBOr, "<<": bytecode.OpShl, ">>": bytecode.OpShr,
	"..": bytecode.OpRange,
}

// short-circuit words compiled via jumps rather than as plain calls.
const (
	wordAnd = "and"
	wordOr  = "or"
)

// controlArity lists the fixed-arity syntactic forms recognized directly by
// the translator instead of being looked up through Resolver.
var controlArity = map[string]int{
	"if": 2, "if?": 2, "unless": 2, "unless?": 2,
	"while": 2, "loop": 3, "map": 3, "select": 3, "switch": 2,
	"to": 2, "return": 1, "break": 0, "continue": 0, "not": 1, "neg": 1,
}

// Translator compiles one value.Block at a time.
type Translator struct {
	resolver Resolver
}

func New(resolver Resolver) *Translator {
	if resolver == nil {
		resolver = MapResolver{}
	}
	return &Translator{resolver: resolver}
}

// Error is a translation error; it carries a message only, no source
// position.
type Error struct {
	Message string
}

func (e *Error) Error() string { return e.Message }

// Translate compiles a root Block value (or any Block) into a Translation.
func (tr *Translator) Translate(root value.Value) (*bytecode.Translation, error) {
	if root.Tag != value.BlockTag && root.Tag != value.Inline {
		return nil, &Error{Message: "translator: expected a block value"}
	}
	elems := FoldInfix(append([]value.Value(nil), root.Blk.Elements...))
	t := bytecode.NewTranslation()
	i := 0
	for i < len(elems) {
		var err error
		i, err = tr.compileForm(t, elems, i, true)
		if err != nil {
			return nil, err
		}
		t.Emit(bytecode.OpPop, bytecode.Position{})
	}
	// drop the final stray pop so the last statement's value survives as
	// the translation's result
	if len(t.Code) > 0 && bytecode.OpCode(t.Code[len(t.Code)-1]) == bytecode.OpPop {
		t.Code = t.Code[:len(t.Code)-1]
		t.Positions = t.Positions[:len(t.Positions)-1]
	}
	t.Emit(bytecode.OpEnd, bytecode.Position{})
	return t, nil
}

// FoldInfix rewrites `lhs OP rhs [OP rhs]*` runs (OP a Symbol-tagged word
// naming a known infix operator) into left-associative synthetic Inline
// groups `(OP lhs rhs)`, recursing into nested Block/Inline elements first.
// This is what lets a prefix-call language read ordinary infix expressions
// like `x<2` or `(fib x-1)+(fib x-2)`.
func FoldInfix(elems []value.Value) []value.Value {
	for idx, e := range elems {
		if (e.Tag == value.BlockTag || e.Tag == value.Inline) && e.Blk != nil {
			e.Blk.Elements = FoldInfix(append([]value.Value(nil), e.Blk.Elements...))
			elems[idx] = e
		}
	}
	var out []value.Value
	i := 0
	for i < len(elems) {
		cur := elems[i]
		i++
		for i+1 < len(elems) && elems[i].Tag == value.Symbol && isInfixOperator(elems[i].Str) {
			op := elems[i].Str
			rhs := elems[i+1]
			cur = value.InlineVal([]value.Value{value.WordVal(op), cur, rhs})
			i += 2
		}
		out = append(out, cur)
	}
	return out
}

func isInfixOperator(s string) bool {
	if s == wordAnd || s == wordOr {
		return true
	}
	_, ok := infixOps[s]
	return ok
}

// compileForm compiles exactly one syntactic form starting at elems[i],
// leaving its single result value on the stack (emit=true) or just
// computing how many elements it spans (emit=false, a dry run used to find
// argument boundaries for right-to-left argument pushing).
func (tr *Translator) compileForm(t *bytecode.Translation, elems []value.Value, i int, emit bool) (int, error) {
	if i >= len(elems) {
		return i, &Error{Message: "translator: unexpected end of form"}
	}
	v := elems[i]
	switch v.Tag {
	case value.Label:
		return tr.compileLabel(t, elems, i, emit)
	case value.Attribute, value.AttributeLabel:
		return tr.compileAttribute(t, elems, i, emit)
	case value.Path:
		return tr.compilePath(t, elems, i, emit)
	case value.PathLabel:
		return tr.compilePathLabel(t, elems, i, emit)
	case value.Word:
		return tr.compileWordForm(t, elems, i, emit)
	case value.Inline:
		return tr.compileInline(t, elems, i, emit)
	default:
		if emit {
			tr.emitConstant(t, v)
		}
		return i + 1, nil
	}
}

func (tr *Translator) compileLabel(t *bytecode.Translation, elems []value.Value, i int, emit bool) (int, error) {
	name := elems[i].Str
	// function-definition pattern: Label, FuncBlock(params), PlainBlock(body)
	if i+2 < len(elems) && isFuncBlock(elems[i+1]) && isPlainBlock(elems[i+2]) {
		if emit {
			fn := buildFunction(elems[i+1], elems[i+2])
			tr.emitConstant(t, value.FunctionVal(fn))
			tr.emitStore(t, name)
		}
		return i + 3, nil
	}
	next, err := tr.compileForm(t, elems, i+1, emit)
	if err != nil {
		return next, err
	}
	if emit {
		tr.emitStore(t, name)
	}
	return next, nil
}

func (tr *Translator) compileAttribute(t *bytecode.Translation, elems []value.Value, i int, emit bool) (int, error) {
	name := elems[i].Str
	if emit {
		idx, _ := t.AddConstant(name)
		t.EmitByte(bytecode.OpAttrName, byte(idx), bytecode.Position{})
	}
	next, err := tr.compileForm(t, elems, i+1, emit)
	if err != nil {
		return next, err
	}
	if emit {
		t.Emit(bytecode.OpAttrSet, bytecode.Position{})
	}
	return next, nil
}

// compilePath reads a dotted field chain (obj.field.sub): load the base
// word, then OpGet through each remaining segment in turn.
func (tr *Translator) compilePath(t *bytecode.Translation, elems []value.Value, i int, emit bool) (int, error) {
	if emit {
		segments := strings.Split(elems[i].Str, ".")
		tr.emitCall(t, segments[0])
		for _, seg := range segments[1:] {
			tr.emitConstant(t, value.StringVal(seg))
			t.Emit(bytecode.OpGet, bytecode.Position{})
		}
	}
	return i + 1, nil
}

// compilePathLabel assigns through a dotted field chain (obj.field: value):
// navigate down to the second-to-last segment via OpGet, then OpSet the
// final one.
func (tr *Translator) compilePathLabel(t *bytecode.Translation, elems []value.Value, i int, emit bool) (int, error) {
	next, err := tr.compileForm(t, elems, i+1, false)
	if err != nil {
		return next, err
	}
	if !emit {
		return next, nil
	}
	segments := strings.Split(elems[i].Str, ".")
	tr.emitCall(t, segments[0])
	for _, seg := range segments[1 : len(segments)-1] {
		tr.emitConstant(t, value.StringVal(seg))
		t.Emit(bytecode.OpGet, bytecode.Position{})
	}
	tr.emitConstant(t, value.StringVal(segments[len(segments)-1]))
	if _, err := tr.compileForm(t, elems, i+1, true); err != nil {
		return next, err
	}
	t.Emit(bytecode.OpSet, bytecode.Position{})
	return next, nil
}

func (tr *Translator) compileInline(t *bytecode.Translation, elems []value.Value, i int, emit bool) (int, error) {
	inner := FoldInfix(append([]value.Value(nil), elems[i].Blk.Elements...))
	j := 0
	for j < len(inner) {
		var err error
		j, err = tr.compileForm(t, inner, j, emit)
		if err != nil {
			return i + 1, err
		}
	}
	return i + 1, nil
}

func (tr *Translator) compileWordForm(t *bytecode.Translation, elems []value.Value, i int, emit bool) (int, error) {
	name := elems[i].Str

	if op, ok := infixOps[name]; ok {
		return tr.compileBinaryOp(t, elems, i+1, op, emit)
	}
	if name == wordAnd || name == wordOr {
		return tr.compileShortCircuit(t, elems, i+1, name, emit)
	}
	if arity, ok := controlArity[name]; ok {
		return tr.compileControl(t, name, elems, i+1, arity, emit)
	}

	arity := 0
	if a, ok := tr.resolver.Arity(name); ok {
		arity = a
	}
	// Attributes (`.name` / `.name:value`) may appear interleaved with the
	// positional arguments or trailing after all of them; either way they
	// belong to this call, not to a following form.
	argStarts := make([]int, 0, arity)
	var attrStarts []int
	cur := i + 1
	for len(argStarts) < arity {
		if cur >= len(elems) {
			return cur, &Error{Message: "translator: " + name + " expects " + strconv.Itoa(arity) + " arguments"}
		}
		if isAttribute(elems[cur]) {
			attrStarts = append(attrStarts, cur)
			next, err := tr.compileForm(t, elems, cur, false)
			if err != nil {
				return next, err
			}
			cur = next
			continue
		}
		argStarts = append(argStarts, cur)
		next, err := tr.compileForm(t, elems, cur, false)
		if err != nil {
			return next, err
		}
		cur = next
	}
	for cur < len(elems) && isAttribute(elems[cur]) {
		attrStarts = append(attrStarts, cur)
		next, err := tr.compileForm(t, elems, cur, false)
		if err != nil {
			return next, err
		}
		cur = next
	}
	if emit {
		for _, a := range attrStarts {
			if _, err := tr.compileForm(t, elems, a, true); err != nil {
				return cur, err
			}
		}
		for k := arity - 1; k >= 0; k-- {
			if _, err := tr.compileForm(t, elems, argStarts[k], true); err != nil {
				return cur, err
			}
		}
		tr.emitCall(t, name)
	}
	return cur, nil
}

func isAttribute(v value.Value) bool {
	return v.Tag == value.Attribute || v.Tag == value.AttributeLabel
}

func (tr *Translator) compileBinaryOp(t *bytecode.Translation, elems []value.Value, i int, op bytecode.OpCode, emit bool) (int, error) {
	// lhs, rhs already adjacent following the operator position (the
	// caller points just past the operator word itself only when called
	// directly; FoldInfix always produces Inline[op, lhs, rhs] so this
	// path is reached solely through compileInline's recursive descent).
	lhsEnd, err := tr.compileForm(t, elems, i, false)
	if err != nil {
		return lhsEnd, err
	}
	rhsEnd, err := tr.compileForm(t, elems, lhsEnd, false)
	if err != nil {
		return rhsEnd, err
	}
	if emit {
		// left operand pushed first so the right operand ends on top;
		// the VM pops top as b and next as a, giving arith/compareOp
		// (a=lhs, b=rhs) for non-commutative ops like `-`, `/`, `<`.
		if _, err := tr.compileForm(t, elems, i, true); err != nil {
			return rhsEnd, err
		}
		if _, err := tr.compileForm(t, elems, lhsEnd, true); err != nil {
			return rhsEnd, err
		}
		t.Emit(op, bytecode.Position{})
	}
	return rhsEnd, nil
}

func (tr *Translator) compileShortCircuit(t *bytecode.Translation, elems []value.Value, i int, word string, emit bool) (int, error) {
	lhsEnd, err := tr.compileForm(t, elems, i, false)
	if err != nil {
		return lhsEnd, err
	}
	rhsEnd, err := tr.compileForm(t, elems, lhsEnd, false)
	if err != nil {
		return rhsEnd, err
	}
	if !emit {
		return rhsEnd, nil
	}
	if _, err := tr.compileForm(t, elems, i, true); err != nil {
		return rhsEnd, err
	}
	t.Emit(bytecode.OpDup, bytecode.Position{})
	jmpOp := bytecode.OpJmpIfNotLong
	if word == wordOr {
		jmpOp = bytecode.OpJmpIfLong
	}
	t.EmitWord(jmpOp, 0, bytecode.Position{})
	patchAt := len(t.Code) - 2
	t.Emit(bytecode.OpPop, bytecode.Position{})
	if _, err := tr.compileForm(t, elems, lhsEnd, true); err != nil {
		return rhsEnd, err
	}
	t.PatchWord(patchAt-1, uint16(len(t.Code)))
	if word == wordAnd {
		t.Emit(bytecode.OpAnd, bytecode.Position{})
	} else {
		t.Emit(bytecode.OpOr, bytecode.Position{})
	}
	return rhsEnd, nil
}

// compileControl handles the block-execution-model constructs: if/if?,
// unless/unless?, while, loop, map, select, switch, to, return, break,
// continue, not, neg. Arguments that are bare Block values are pushed as
// constants (uncompiled — translated lazily the first time the VM executes
// them) rather than evaluated eagerly, per §4.E's block-execution model.
func (tr *Translator) compileControl(t *bytecode.Translation, name string, elems []value.Value, i int, arity int, emit bool) (int, error) {
	switch name {
	case "if", "if?", "unless", "unless?":
		return tr.compileIf(t, name, elems, i, emit)
	case "while":
		return tr.compileWhile(t, elems, i, emit)
	case "loop":
		return tr.compileLoopMapSelect(t, bytecode.OpLoop, elems, i, emit)
	case "map":
		return tr.compileLoopMapSelect(t, bytecode.OpMap, elems, i, emit)
	case "select":
		return tr.compileLoopMapSelect(t, bytecode.OpSelect, elems, i, emit)
	case "switch":
		return tr.compileSwitch(t, elems, i, emit)
	case "to":
		return tr.compileTo(t, elems, i, emit)
	case "return", "break", "continue":
		return tr.compileJumpWord(t, name, elems, i, arity, emit)
	case "not":
		next, err := tr.compileForm(t, elems, i, emit)
		if err == nil && emit {
			t.Emit(bytecode.OpNot, bytecode.Position{})
		}
		return next, err
	case "neg":
		next, err := tr.compileForm(t, elems, i, emit)
		if err == nil && emit {
			t.Emit(bytecode.OpNeg, bytecode.Position{})
		}
		return next, err
	}
	return i, &Error{Message: "translator: unknown control word " + name}
}

func (tr *Translator) compileIf(t *bytecode.Translation, name string, elems []value.Value, i int, emit bool) (int, error) {
	condEnd, err := tr.compileForm(t, elems, i, false)
	if err != nil {
		return condEnd, err
	}
	if condEnd >= len(elems) || !isPlainBlock(elems[condEnd]) {
		return condEnd, &Error{Message: "translator: " + name + " expects a block"}
	}
	thenIdx := condEnd
	next := thenIdx + 1
	hasElse := next < len(elems) && elems[next].Tag == value.Word && elems[next].Str == "else" &&
		next+1 < len(elems) && isPlainBlock(elems[next+1])
	if !emit {
		if hasElse {
			return next + 2, nil
		}
		return next, nil
	}
	if _, err := tr.compileForm(t, elems, i, true); err != nil {
		return next, err
	}
	tr.emitConstant(t, elems[thenIdx])
	negate := name == "unless" || name == "unless?"
	if hasElse {
		tr.emitConstant(t, elems[next+1])
		op := bytecode.OpIfE
		if negate {
			op = bytecode.OpUnlessE
		}
		t.Emit(op, bytecode.Position{})
		return next + 2, nil
	}
	op := bytecode.OpIf
	if negate {
		op = bytecode.OpUnless
	}
	t.Emit(op, bytecode.Position{})
	return next, nil
}

func (tr *Translator) compileWhile(t *bytecode.Translation, elems []value.Value, i int, emit bool) (int, error) {
	if i >= len(elems) || !isPlainBlock(elems[i]) {
		return i, &Error{Message: "translator: while expects a condition block"}
	}
	if i+1 >= len(elems) || !isPlainBlock(elems[i+1]) {
		return i, &Error{Message: "translator: while expects a body block"}
	}
	if emit {
		tr.emitConstant(t, elems[i])
		tr.emitConstant(t, elems[i+1])
		t.Emit(bytecode.OpWhile, bytecode.Position{})
	}
	return i + 2, nil
}

func (tr *Translator) compileLoopMapSelect(t *bytecode.Translation, op bytecode.OpCode, elems []value.Value, i int, emit bool) (int, error) {
	collEnd, err := tr.compileForm(t, elems, i, false)
	if err != nil {
		return collEnd, err
	}
	if collEnd >= len(elems) || elems[collEnd].Tag != value.Literal {
		return collEnd, &Error{Message: "translator: expected a literal loop variable"}
	}
	varIdx := collEnd
	bodyIdx := varIdx + 1
	if bodyIdx >= len(elems) || !isPlainBlock(elems[bodyIdx]) {
		return bodyIdx, &Error{Message: "translator: expected a body block"}
	}
	if !emit {
		return bodyIdx + 1, nil
	}
	if _, err := tr.compileForm(t, elems, i, true); err != nil {
		return bodyIdx + 1, err
	}
	cidx, _ := t.AddConstant(elems[varIdx].Str)
	t.EmitByte(bytecode.OpConstLong, byte(cidx), bytecode.Position{})
	tr.emitConstant(t, elems[bodyIdx])
	t.Emit(op, bytecode.Position{})
	return bodyIdx + 1, nil
}

func (tr *Translator) compileSwitch(t *bytecode.Translation, elems []value.Value, i int, emit bool) (int, error) {
	valEnd, err := tr.compileForm(t, elems, i, false)
	if err != nil {
		return valEnd, err
	}
	if valEnd >= len(elems) || !isDictBlock(elems[valEnd]) {
		return valEnd, &Error{Message: "translator: switch expects a #[...] case table"}
	}
	if !emit {
		return valEnd + 1, nil
	}
	if _, err := tr.compileForm(t, elems, i, true); err != nil {
		return valEnd + 1, err
	}
	tr.emitConstant(t, elems[valEnd])
	t.Emit(bytecode.OpSwitch, bytecode.Position{})
	return valEnd + 1, nil
}

func (tr *Translator) compileTo(t *bytecode.Translation, elems []value.Value, i int, emit bool) (int, error) {
	if i >= len(elems) || elems[i].Tag != value.TypeTag {
		return i, &Error{Message: "translator: to expects a type literal"}
	}
	argEnd, err := tr.compileForm(t, elems, i+1, false)
	if err != nil {
		return argEnd, err
	}
	if !emit {
		return argEnd, nil
	}
	if _, err := tr.compileForm(t, elems, i+1, true); err != nil {
		return argEnd, err
	}
	idx, _ := t.AddConstant(elems[i].Str)
	t.EmitByte(bytecode.OpConstLong, byte(idx), bytecode.Position{})
	t.Emit(bytecode.OpTo, bytecode.Position{})
	return argEnd, nil
}

func (tr *Translator) compileJumpWord(t *bytecode.Translation, name string, elems []value.Value, i int, arity int, emit bool) (int, error) {
	// return takes an optional value argument; break/continue take none
	// (arity==0, handled by the caller's controlArity table).
	hasArg := arity != 0 && i < len(elems)
	if !hasArg {
		if emit {
			tr.emitJumpOp(t, name, false)
		}
		return i, nil
	}
	next, err := tr.compileForm(t, elems, i, emit)
	if err != nil {
		return next, err
	}
	if emit {
		tr.emitJumpOp(t, name, true)
	}
	return next, nil
}

func (tr *Translator) emitJumpOp(t *bytecode.Translation, name string, hasValue bool) {
	if !hasValue {
		t.Emit(bytecode.OpNull, bytecode.Position{})
	}
	switch name {
	case "return":
		t.Emit(bytecode.OpReturn, bytecode.Position{})
	case "break":
		t.Emit(bytecode.OpBreak, bytecode.Position{})
	case "continue":
		t.Emit(bytecode.OpContinue, bytecode.Position{})
	}
}

func (tr *Translator) emitConstant(t *bytecode.Translation, v value.Value) {
	if v.Tag == value.Integer && v.IKind == value.NormalInteger && v.I >= -1 && v.I <= 15 {
		if op, ok := bytecode.ShortPushOp(int(v.I)); ok {
			t.Emit(op, bytecode.Position{})
			return
		}
	}
	if v.Tag == value.Null {
		t.Emit(bytecode.OpNull, bytecode.Position{})
		return
	}
	if v.Tag == value.Logical {
		if v.Bool {
			t.Emit(bytecode.OpTrue, bytecode.Position{})
		} else {
			t.Emit(bytecode.OpFalse, bytecode.Position{})
		}
		return
	}
	if v.Tag == value.Floating {
		switch v.F {
		case 0.0:
			t.Emit(bytecode.OpFloat0, bytecode.Position{})
			return
		case 1.0:
			t.Emit(bytecode.OpFloat1, bytecode.Position{})
			return
		case 2.0:
			t.Emit(bytecode.OpFloat2, bytecode.Position{})
			return
		case -1.0:
			t.Emit(bytecode.OpFloatNeg, bytecode.Position{})
			return
		}
	}
	idx, _ := t.AddConstant(v)
	if idx < 256 {
		t.EmitByte(bytecode.OpConstLong, byte(idx), bytecode.Position{})
	} else {
		t.EmitWord(bytecode.OpConstExt, uint16(idx), bytecode.Position{})
	}
}

func (tr *Translator) emitStore(t *bytecode.Translation, name string) {
	idx, _ := t.AddConstant(name)
	if idx < 256 {
		t.EmitByte(bytecode.OpStoreLong, byte(idx), bytecode.Position{})
	} else {
		t.EmitWord(bytecode.OpStoreExt, uint16(idx), bytecode.Position{})
	}
}

func (tr *Translator) emitCall(t *bytecode.Translation, name string) {
	idx, _ := t.AddConstant(name)
	if idx < 256 {
		t.EmitByte(bytecode.OpCallLong, byte(idx), bytecode.Position{})
	} else {
		t.EmitWord(bytecode.OpCallExt, uint16(idx), bytecode.Position{})
	}
}

func isFuncBlock(v value.Value) bool {
	return v.Tag == value.BlockTag && v.Blk != nil && v.Blk.Kind == value.FuncBlock
}

func isPlainBlock(v value.Value) bool {
	return v.Tag == value.BlockTag && v.Blk != nil && v.Blk.Kind == value.PlainBlock
}

func isDictBlock(v value.Value) bool {
	return v.Tag == value.BlockTag && v.Blk != nil && v.Blk.Kind == value.DictBlock
}

// buildFunction constructs a Function value from a FuncBlock (parameter
// names) and the following PlainBlock (body). Translation is left nil and
// is populated lazily on first invocation.
func buildFunction(params value.Value, body value.Value) *value.Function {
	names := make([]string, 0, len(params.Blk.Elements))
	for _, p := range params.Blk.Elements {
		if p.Tag == value.Word {
			names = append(names, p.Str)
		}
	}
	return &value.Function{
		Params: names,
		Body:   body.Blk,
	}
}

// TranslateDictBlock compiles a #[...] block's elements as a flat key/value
// program: each Label introduces a key-store that records the key name and
// the following form's value, per §4.C's dictionary key-store opcode rule.
func TranslateDictBlock(tr *Translator, blk *value.Block) (*bytecode.Translation, error) {
	elems := FoldInfix(append([]value.Value(nil), blk.Elements...))
	t := bytecode.NewTranslation()
	i := 0
	for i < len(elems) {
		if elems[i].Tag != value.Label {
			return nil, &Error{Message: "translator: dictionary block expects label keys"}
		}
		name := elems[i].Str
		idx, _ := t.AddConstant(name)
		t.EmitByte(bytecode.OpAttrName, byte(idx), bytecode.Position{}) // reuse attr-name slot to carry the pending key
		var err error
		i, err = tr.compileForm(t, elems, i+1, true)
		if err != nil {
			return nil, err
		}
		t.Emit(bytecode.OpStoreKeep, bytecode.Position{})
	}
	t.Emit(bytecode.OpEnd, bytecode.Position{})
	return t, nil
}

