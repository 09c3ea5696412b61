// Package types implements user-defined type prototypes: field lists,
// method tables, optional inheritance, and the init/print/compare magic
// hooks installed by define/is.
package types

import "artlang/internal/value"

// magic method names recognized in a prototype body.
const (
	MagicInit    = "init"
	MagicPrint   = "print"
	MagicCompare = "compare"
)

// Prototype is a user-defined type: its field list, method table, optional
// parent (shallow-copied into Methods when built, kept here only as a
// non-owning back-reference), and the three derived magic-method hooks.
type Prototype struct {
	Name      string
	Fields    []string
	Methods   map[string]value.Value
	Inherits  *Prototype
	DoInit    *value.Function
	DoPrint   *value.Function
	DoCompare *value.Function
}

// TypeName satisfies value.PrototypeRef.
func (p *Prototype) TypeName() string { return p.Name }

// NewObject builds a fresh Object of p's type: every field defaults to
// null, every method is copied onto the instance's field namespace. The
// caller still owns pairing real field values and invoking DoInit.
func (p *Prototype) NewObject() *value.Object {
	fields := value.NewDict()
	for _, name := range p.Fields {
		fields.Set(name, value.NullVal())
	}
	for name, m := range p.Methods {
		fields.Set(name, m)
	}
	return &value.Object{Fields: fields, Prototype: p}
}

// Registry owns every prototype defined in a running VM; it is the single
// point that resolves a type name to its Prototype. Inherits is modeled as
// a non-owning reference into this same map, never a second owner.
type Registry struct {
	byName map[string]*Prototype
}

func NewRegistry() *Registry {
	return &Registry{byName: map[string]*Prototype{}}
}

func (r *Registry) Lookup(name string) (*Prototype, bool) {
	p, ok := r.byName[name]
	return p, ok
}

// Build resets name's prototype: methods comes from executing the
// prototype body as a dictionary (label -> value bindings); parent, if
// given, is shallow-copied in first so the body's own methods override.
func (r *Registry) Build(name string, fields []string, methods *value.Dict, parent *Prototype) *Prototype {
	p := &Prototype{Name: name, Fields: fields, Methods: map[string]value.Value{}}
	if parent != nil {
		p.Inherits = parent
		for k, v := range parent.Methods {
			p.Methods[k] = v
		}
	}
	for _, k := range methods.Keys() {
		v, _ := methods.Get(k)
		p.Methods[k] = v
		switch k {
		case MagicInit:
			p.DoInit = withReceiver(v)
		case MagicPrint:
			p.DoPrint = withReceiver(v)
		case MagicCompare:
			p.DoCompare = withReceiver(v)
		}
	}
	r.byName[name] = p
	return p
}

// withReceiver prepends an implicit "this" parameter to a magic method's
// function value, per §4.G step 5. Non-function values under a magic name
// are ignored (not installed as a hook).
func withReceiver(v value.Value) *value.Function {
	if v.Tag != value.FunctionTag || v.Fn == nil {
		return nil
	}
	fn := *v.Fn
	fn.Params = append([]string{"this"}, v.Fn.Params...)
	fn.Compiled = nil
	return &fn
}
