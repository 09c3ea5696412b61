// Package builtins assembles the native function registry the VM dispatches
// through: one file per concern (core, collections, strings, webclient,
// socket, database, mailer, color, ident, fileio, types), each adding its
// Declarations from an init() func via add() to a shared table that
// Registry() flattens into the plain name->vm.Builtin map the VM actually
// runs against.
package builtins

import "artlang/internal/vm"

// Declaration is a vm.Builtin plus the documentation metadata a bare
// arity count can't carry: the argument tags it expects, the attribute
// names it accepts, the tags it can return, and a worked example.
type Declaration struct {
	vm.Builtin
	ArgTypes []string
	Returns  []string
	Example  string
}

var table = map[string]*Declaration{}

func add(d *Declaration) {
	table[d.Name] = d
}

// Registry flattens every registered Declaration into a vm.Registry.
func Registry() vm.Registry {
	reg := make(vm.Registry, len(table))
	for name, d := range table {
		b := d.Builtin
		reg[name] = &b
	}
	return reg
}

// Declarations exposes the full metadata table, e.g. for a `help` builtin
// or documentation generator.
func Declarations() map[string]*Declaration {
	return table
}
