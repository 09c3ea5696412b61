// Package value implements the core tagged-variant Value type shared by the
// parser, translator and virtual machine. Value is a closed union: every
// operation switches on Tag rather than dispatching through an interface,
// per the "variant set is closed" design note.
package value

import (
	"fmt"
	"math/big"
	"sort"
	"strings"
	"time"

	"artlang/internal/bytecode"
)

// Tag identifies which variant a Value holds.
type Tag int

const (
	Null Tag = iota
	Logical
	Integer
	Floating
	Complex
	Rational
	VersionTag
	TypeTag
	Char
	String
	Word
	Literal
	Label
	Attribute
	AttributeLabel
	Path
	PathLabel
	PathLiteral
	Symbol
	SymbolLiteral
	Regex
	Color
	Date
	Quantity
	Unit
	Binary
	Inline
	BlockTag
	RangeTag
	Dictionary
	Object
	Store
	FunctionTag
	BytecodeTag
	Database
	Socket
	Nothing
	Any
)

var tagNames = map[Tag]string{
	Null: "null", Logical: "logical", Integer: "integer", Floating: "floating",
	Complex: "complex", Rational: "rational", VersionTag: "version", TypeTag: "type",
	Char: "char", String: "string", Word: "word", Literal: "literal", Label: "label",
	Attribute: "attribute", AttributeLabel: "attributeLabel", Path: "path",
	PathLabel: "pathLabel", PathLiteral: "pathLiteral", Symbol: "symbol",
	SymbolLiteral: "symbolLiteral", Regex: "regex", Color: "color", Date: "date",
	Quantity: "quantity", Unit: "unit", Binary: "binary", Inline: "inline",
	BlockTag: "block", RangeTag: "range", Dictionary: "dictionary", Object: "object",
	Store: "store", FunctionTag: "function", BytecodeTag: "bytecode", Database: "database",
	Socket: "socket", Nothing: "nothing", Any: "any",
}

func (t Tag) String() string {
	if n, ok := tagNames[t]; ok {
		return n
	}
	return "unknown"
}

// IntKind distinguishes machine-word from arbitrary-precision integers.
type IntKind int

const (
	NormalInteger IntKind = iota
	BigInteger
)

// BlockKind distinguishes the four bracket forms the parser recognizes. The
// translator reads it for `name: $[params][body]` definitions and switch
// case tables, the VM reads it when iterating a `#[...]` block, and Codify
// uses it to pick the opening bracket; otherwise every kind is pushed and
// carried as an ordinary block value.
type BlockKind int

const (
	PlainBlock BlockKind = iota
	DictBlock            // #[...] — executed as a dictionary by switch and iteration
	ArrayBlock           // @[...] — no special translation
	FuncBlock            // $[...] — parameter list of a labeled function definition
)

// Block is an ordered sequence of values, optionally carrying an attached
// data dictionary; the parser never sets it.
type Block struct {
	Elements []Value
	Data     *Dict // optional attached metadata; nil if absent
	Kind     BlockKind
}

// Dict is an insertion-ordered mapping from text key to Value.
type Dict struct {
	keys   []string
	values map[string]Value
}

func NewDict() *Dict {
	return &Dict{values: map[string]Value{}}
}

func (d *Dict) Set(key string, v Value) {
	if _, exists := d.values[key]; !exists {
		d.keys = append(d.keys, key)
	}
	d.values[key] = v
}

func (d *Dict) Get(key string) (Value, bool) {
	v, ok := d.values[key]
	return v, ok
}

func (d *Dict) Delete(key string) {
	if _, ok := d.values[key]; !ok {
		return
	}
	delete(d.values, key)
	for i, k := range d.keys {
		if k == key {
			d.keys = append(d.keys[:i], d.keys[i+1:]...)
			break
		}
	}
}

func (d *Dict) Keys() []string {
	out := make([]string, len(d.keys))
	copy(out, d.keys)
	return out
}

func (d *Dict) Len() int { return len(d.keys) }

// Clone returns a shallow copy preserving key order.
func (d *Dict) Clone() *Dict {
	nd := NewDict()
	for _, k := range d.keys {
		nd.Set(k, d.values[k])
	}
	return nd
}

// Range represents a (possibly infinite, possibly character-valued) integer
// range with a configured step. Iteration is not lazy: the VM expands the
// bounded integer range into a full list of values before the first step.
type Range struct {
	Start, Stop, Step int64
	Infinite          bool
	Numeric           bool // false => iterate over code points
	Forward           bool
}

// Function is a user-defined closure: parameter names, body block, captured
// imports, export list, memoization, inline-ness, type constraints and the
// cached Translation of its body (nil until first invocation).
type Function struct {
	Params     []string
	ParamTypes map[string][]Tag // optional per-parameter type constraints
	Body       *Block
	Imports    *Dict
	Exports    []string
	Memoize    bool
	Inline     bool
	Info       *FunctionInfo
	cache      map[string]Value // memoization cache, keyed by rendered argument tuple
	Compiled   *bytecode.Translation
}

// FunctionInfo carries documentation metadata (description, attribute
// schema, return spec, example) attached to a function declaration.
type FunctionInfo struct {
	Description string
	Attributes  map[string]string
	Returns     []Tag
	Example     string
}

func (f *Function) MemoLookup(key string) (Value, bool) {
	if f.cache == nil {
		return Value{}, false
	}
	v, ok := f.cache[key]
	return v, ok
}

func (f *Function) MemoStore(key string, v Value) {
	if f.cache == nil {
		f.cache = map[string]Value{}
	}
	f.cache[key] = v
}

// Prototype is defined in the types package; Value only needs a reference
// type here to avoid an import cycle. PrototypeRef is implemented by
// *types.Prototype.
type PrototypeRef interface {
	TypeName() string
}

// Object is an instance of a user-defined type: a mapping from field/method
// name to Value plus a reference to its Prototype.
type Object struct {
	Fields    *Dict
	Prototype PrototypeRef
}

// Color holds an RGBA color; interpretation (RGB vs HSL vs HSV source) is
// resolved at construction time, always stored normalized to RGBA.
type Color struct {
	R, G, B, A uint8
}

// Quantity pairs a rational magnitude with a unit symbol (e.g. "10kg").
type Quantity struct {
	Magnitude *big.Rat
	Unit      string
}

// Version is a semantic version triple with optional prerelease/build tags.
type Version struct {
	Major, Minor, Patch int
	Extra               string
}

// Value is the closed tagged union. Only the fields relevant to Tag are
// populated; all composite payloads are held by reference (shared), all
// scalar payloads are copied by value.
type Value struct {
	Tag Tag

	Bool bool

	IKind IntKind
	I     int64
	Big   *big.Int

	F float64

	RKind IntKind
	RNum  int64
	RDen  int64
	RBig  *big.Rat

	Ch rune

	// Str backs String, Word, Literal, Label, Attribute, AttributeLabel,
	// Path, PathLabel, PathLiteral, Symbol, SymbolLiteral, Regex, Unit.
	Str string

	Ver Version

	Col *Color

	Dt time.Time

	Qty *Quantity

	Bin []byte

	Blk *Block

	Rng *Range

	Dct *Dict

	Obj *Object

	// StoreHandle is an opaque pointer to an external key-value store
	// connection; the VM core never dereferences it, only passes it to
	// builtins.
	StoreHandle interface{}

	Fn *Function

	Code *bytecode.Translation

	// DBHandle / SockHandle are opaque handles to external resources
	// owned by internal/database and internal/network respectively.
	DBHandle   interface{}
	SockHandle interface{}
}

// --- constructors ---

func NullVal() Value                 { return Value{Tag: Null} }
func NothingVal() Value              { return Value{Tag: Nothing} }
func LogicalVal(b bool) Value        { return Value{Tag: Logical, Bool: b} }
func IntVal(i int64) Value           { return Value{Tag: Integer, IKind: NormalInteger, I: i} }
func BigIntVal(b *big.Int) Value     { return Value{Tag: Integer, IKind: BigInteger, Big: b} }
func FloatVal(f float64) Value       { return Value{Tag: Floating, F: f} }
func CharVal(r rune) Value           { return Value{Tag: Char, Ch: r} }
func StringVal(s string) Value       { return Value{Tag: String, Str: s} }
func WordVal(s string) Value         { return Value{Tag: Word, Str: s} }
func LiteralVal(s string) Value      { return Value{Tag: Literal, Str: s} }
func LabelVal(s string) Value        { return Value{Tag: Label, Str: s} }
func AttributeVal(s string) Value    { return Value{Tag: Attribute, Str: s} }
func AttrLabelVal(s string) Value    { return Value{Tag: AttributeLabel, Str: s} }
func PathVal(s string) Value         { return Value{Tag: Path, Str: s} }
func PathLabelVal(s string) Value    { return Value{Tag: PathLabel, Str: s} }
func SymbolVal(s string) Value       { return Value{Tag: Symbol, Str: s} }
func SymbolLiteralVal(s string) Value { return Value{Tag: SymbolLiteral, Str: s} }
func TypeVal(s string) Value         { return Value{Tag: TypeTag, Str: s} }
func BlockVal(elems []Value) Value   { return Value{Tag: BlockTag, Blk: &Block{Elements: elems}} }
func InlineVal(elems []Value) Value  { return Value{Tag: Inline, Blk: &Block{Elements: elems}} }
func DictVal(d *Dict) Value          { return Value{Tag: Dictionary, Dct: d} }
func RangeVal(r *Range) Value        { return Value{Tag: RangeTag, Rng: r} }
func FunctionVal(f *Function) Value  { return Value{Tag: FunctionTag, Fn: f} }
func ObjectVal(o *Object) Value      { return Value{Tag: Object, Obj: o} }
func BytecodeVal(t *bytecode.Translation) Value { return Value{Tag: BytecodeTag, Code: t} }
func BinaryVal(b []byte) Value       { return Value{Tag: Binary, Bin: b} }
func DateVal(t time.Time) Value      { return Value{Tag: Date, Dt: t} }

// BytecodeToDict renders a Translation as the exchange dictionary
// `{data: [<constants>], code: [<opcode-bytes-as-integers>]}`: a symbol-name
// constant (used by a load/store/call opcode) round-trips as a Word so
// DictToBytecode can tell it apart from an ordinary literal constant of the
// same spelling.
func BytecodeToDict(t *bytecode.Translation) *Dict {
	data := make([]Value, len(t.Constants))
	for i, c := range t.Constants {
		switch x := c.(type) {
		case string:
			data[i] = WordVal(x)
		case Value:
			data[i] = x
		default:
			data[i] = NullVal()
		}
	}
	code := make([]Value, len(t.Code))
	for i, b := range t.Code {
		code[i] = IntVal(int64(b))
	}
	d := NewDict()
	d.Set("data", BlockVal(data))
	d.Set("code", BlockVal(code))
	return d
}

// DictToBytecode reconstructs a Translation from the exchange dictionary
// BytecodeToDict produces. Positions are not part of the exchange format;
// the reconstructed Translation carries a blank Position per opcode byte,
// which only affects error-message locations, not execution.
func DictToBytecode(d *Dict) (*bytecode.Translation, error) {
	dataV, ok := d.Get("data")
	if !ok || dataV.Tag != BlockTag {
		return nil, fmt.Errorf("bytecode dictionary missing a %q block", "data")
	}
	codeV, ok := d.Get("code")
	if !ok || codeV.Tag != BlockTag {
		return nil, fmt.Errorf("bytecode dictionary missing a %q block", "code")
	}

	constants := make([]interface{}, len(dataV.Blk.Elements))
	for i, v := range dataV.Blk.Elements {
		if v.Tag == Word {
			constants[i] = v.Str
		} else {
			constants[i] = v
		}
	}
	code := make([]byte, len(codeV.Blk.Elements))
	for i, v := range codeV.Blk.Elements {
		if v.Tag != Integer {
			return nil, fmt.Errorf("bytecode code entry %d is not an integer", i)
		}
		code[i] = byte(v.I)
	}
	return &bytecode.Translation{
		Constants: constants,
		Code:      code,
		Positions: make([]bytecode.Position, len(code)),
	}, nil
}

// IsTruthy implements the language's truthiness rule: only Null, Nothing
// and `false` Logical are falsy; everything else (including 0 and "") is
// truthy.
func (v Value) IsTruthy() bool {
	switch v.Tag {
	case Null, Nothing:
		return false
	case Logical:
		return v.Bool
	default:
		return true
	}
}

// AsFloat promotes a numeric Value to float64; ok=false for non-numeric tags.
func (v Value) AsFloat() (float64, bool) {
	switch v.Tag {
	case Integer:
		if v.IKind == BigInteger {
			f := new(big.Float).SetInt(v.Big)
			r, _ := f.Float64()
			return r, true
		}
		return float64(v.I), true
	case Floating:
		return v.F, true
	case Rational:
		if v.RKind == BigInteger {
			f, _ := v.RBig.Float64()
			return f, true
		}
		return float64(v.RNum) / float64(v.RDen), true
	case Logical:
		if v.Bool {
			return 1, true
		}
		return 0, true
	default:
		return 0, false
	}
}

// Equals implements structural equality within a variant; cross-variant
// equality is false except for the numeric promotions below.
func Equals(a, b Value) bool {
	if a.Tag == b.Tag {
		switch a.Tag {
		case Null, Nothing:
			return true
		case Logical:
			return a.Bool == b.Bool
		case Integer:
			if a.IKind == BigInteger || b.IKind == BigInteger {
				return asBig(a).Cmp(asBig(b)) == 0
			}
			return a.I == b.I
		case Floating:
			return a.F == b.F
		case Char:
			return a.Ch == b.Ch
		case String, Word, Literal, Label, Attribute, AttributeLabel, Path, PathLabel,
			PathLiteral, Symbol, SymbolLiteral, Regex, Unit:
			return a.Str == b.Str
		case BlockTag, Inline:
			return blockEquals(a.Blk, b.Blk)
		case Dictionary:
			return dictEquals(a.Dct, b.Dct)
		case RangeTag:
			return *a.Rng == *b.Rng
		case Date:
			return a.Dt.Equal(b.Dt)
		case Binary:
			return string(a.Bin) == string(b.Bin)
		case Object:
			return a.Obj == b.Obj
		case FunctionTag:
			return a.Fn == b.Fn
		default:
			return false
		}
	}
	// cross-variant numeric promotion
	if isNumeric(a.Tag) && isNumeric(b.Tag) {
		af, aok := a.AsFloat()
		bf, bok := b.AsFloat()
		if aok && bok {
			return af == bf
		}
	}
	return false
}

func isNumeric(t Tag) bool {
	return t == Integer || t == Floating || t == Rational || t == Logical
}

func asBig(v Value) *big.Int {
	if v.IKind == BigInteger {
		return v.Big
	}
	return big.NewInt(v.I)
}

func blockEquals(a, b *Block) bool {
	if a.Kind != b.Kind {
		return false
	}
	if len(a.Elements) != len(b.Elements) {
		return false
	}
	for i := range a.Elements {
		if !Equals(a.Elements[i], b.Elements[i]) {
			return false
		}
	}
	return true
}

func dictEquals(a, b *Dict) bool {
	if a.Len() != b.Len() {
		return false
	}
	for _, k := range a.Keys() {
		av, _ := a.Get(k)
		bv, ok := b.Get(k)
		if !ok || !Equals(av, bv) {
			return false
		}
	}
	return true
}

// Ordering is the result of Compare: lt, eq, gt, or incomparable for
// cross-kind pairs that aren't numeric.
type Ordering int

const (
	LT Ordering = iota - 1
	EQ
	GT
	Incomparable Ordering = 2
)

// ObjectComparer is implemented by hosts that can invoke an object's
// doCompare hook; the value package itself has no notion of dispatch.
type ObjectComparer func(o *Object, other Value) (Ordering, bool)

// Compare orders two values. Object comparison must go through
// CompareWithObjects so the VM/types package can supply the doCompare hook.
func Compare(a, b Value) Ordering {
	return CompareWithObjects(a, b, nil)
}

func CompareWithObjects(a, b Value, cmp ObjectComparer) Ordering {
	if a.Tag == Object && cmp != nil {
		if ord, ok := cmp(a.Obj, b); ok {
			return ord
		}
		return Incomparable
	}
	if isNumeric(a.Tag) && isNumeric(b.Tag) {
		af, _ := a.AsFloat()
		bf, _ := b.AsFloat()
		switch {
		case af < bf:
			return LT
		case af > bf:
			return GT
		default:
			return EQ
		}
	}
	if a.Tag != b.Tag {
		return Incomparable
	}
	switch a.Tag {
	case String, Word, Literal, Label, Symbol:
		return stringOrdering(a.Str, b.Str)
	case Char:
		return runeOrdering(a.Ch, b.Ch)
	case Date:
		switch {
		case a.Dt.Before(b.Dt):
			return LT
		case a.Dt.After(b.Dt):
			return GT
		default:
			return EQ
		}
	default:
		if Equals(a, b) {
			return EQ
		}
		return Incomparable
	}
}

func stringOrdering(a, b string) Ordering {
	switch {
	case a < b:
		return LT
	case a > b:
		return GT
	default:
		return EQ
	}
}

func runeOrdering(a, b rune) Ordering {
	switch {
	case a < b:
		return LT
	case a > b:
		return GT
	default:
		return EQ
	}
}

// ObjectPrinter lets the host supply the doPrint hook for Object values.
type ObjectPrinter func(o *Object) (string, bool)

// Printable renders v for `print`-style output (human-readable, not
// necessarily round-trippable). For Object it delegates to doPrint via
// printer if present.
func Printable(v Value, printer ObjectPrinter) string {
	switch v.Tag {
	case Null:
		return "null"
	case Nothing:
		return ""
	case Logical:
		if v.Bool {
			return "true"
		}
		return "false"
	case Integer:
		if v.IKind == BigInteger {
			return v.Big.String()
		}
		return fmt.Sprintf("%d", v.I)
	case Floating:
		return formatFloat(v.F)
	case Char:
		return string(v.Ch)
	case String:
		return v.Str
	case Word, Literal, Label, Attribute, AttributeLabel, Symbol, SymbolLiteral, Path, PathLabel, PathLiteral, Unit:
		return v.Str
	case BlockTag, Inline:
		return Codify(v, false, true, false)
	case Dictionary:
		return Codify(v, true, true, false)
	case RangeTag:
		return fmt.Sprintf("%d..%d", v.Rng.Start, v.Rng.Stop)
	case Date:
		return v.Dt.Format("2006-01-02T15:04:05Z07:00")
	case Binary:
		return fmt.Sprintf("%x", v.Bin)
	case Object:
		if printer != nil {
			if s, ok := printer(v.Obj); ok {
				return s
			}
		}
		return defaultObjectPrint(v.Obj)
	case FunctionTag:
		return "<function>"
	case BytecodeTag:
		return "<bytecode>"
	default:
		return fmt.Sprintf("<%s>", v.Tag)
	}
}

func defaultObjectPrint(o *Object) string {
	var sb strings.Builder
	keys := o.Fields.Keys()
	sort.Strings(keys)
	for i, k := range keys {
		if i > 0 {
			sb.WriteString(", ")
		}
		fv, _ := o.Fields.Get(k)
		fmt.Fprintf(&sb, "%s: %s", k, Printable(fv, nil))
	}
	return sb.String()
}

func formatFloat(f float64) string {
	s := fmt.Sprintf("%g", f)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}

// Codify renders v as round-trippable source text. pretty puts each block
// element on its own tab-indented line (dictionary entries stay on one
// line); unwrapped omits the outer [...]/#[...] delimiters
// for a top-level block; safeStrings escapes control characters in strings.
func Codify(v Value, pretty, unwrapped, safeStrings bool) string {
	switch v.Tag {
	case String:
		if safeStrings {
			return fmt.Sprintf("%q", v.Str)
		}
		return "\"" + v.Str + "\""
	case Word:
		return v.Str
	case Literal:
		return "'" + v.Str
	case Label:
		return v.Str + ":"
	case Attribute:
		return "." + v.Str
	case AttributeLabel:
		return "." + v.Str + ":"
	case Path:
		return v.Str
	case PathLabel:
		return v.Str + ":"
	case Symbol:
		return v.Str
	case TypeTag:
		return ":" + v.Str
	case SymbolLiteral:
		return ":" + v.Str
	case BlockTag, Inline:
		inner := make([]string, len(v.Blk.Elements))
		for i, e := range v.Blk.Elements {
			inner[i] = Codify(e, pretty, false, safeStrings)
		}
		sep := " "
		if pretty {
			sep = "\n\t"
		}
		body := strings.Join(inner, sep)
		if unwrapped {
			return body
		}
		open, close := "[", "]"
		switch {
		case v.Tag == Inline:
			open, close = "(", ")"
		case v.Blk.Kind == ArrayBlock:
			open = "@["
		case v.Blk.Kind == DictBlock:
			open = "#["
		case v.Blk.Kind == FuncBlock:
			open = "$["
		}
		return open + body + close
	case Dictionary:
		parts := make([]string, 0, v.Dct.Len())
		for _, k := range v.Dct.Keys() {
			dv, _ := v.Dct.Get(k)
			parts = append(parts, fmt.Sprintf("%s: %s", k, Codify(dv, pretty, false, safeStrings)))
		}
		body := strings.Join(parts, " ")
		if unwrapped {
			return body
		}
		return "#[" + body + "]"
	default:
		return Printable(v, nil)
	}
}
