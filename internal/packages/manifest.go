package packages

import (
	"fmt"
	"os"

	"artlang/internal/builtins"
	"artlang/internal/lexer"
	"artlang/internal/parser"
	"artlang/internal/value"
	"artlang/internal/vm"
)

// ParseManifestSource parses an info.art source string into the dictionary
// it evaluates to. A manifest is an ordinary block: `name: "foo" version:
// "1.0" depends: [...]`, executed the same way `define`'s prototype body
// and `switch`'s case table run as dictionaries, against a disposable VM
// (package resolution happens before any user script is running, so there
// is no caller scope or builtin registry to share).
func ParseManifestSource(source, path string) (*value.Dict, error) {
	lex := lexer.NewScannerFile(source, path)
	tokens := lex.ScanTokens()
	p := parser.NewParser(tokens)
	root := p.Parse()
	if len(p.Errors) > 0 {
		return nil, p.Errors[0]
	}
	if root.Tag != value.BlockTag {
		return nil, fmt.Errorf("%s: manifest must be a block", path)
	}
	machine := vm.New(builtins.Registry())
	return machine.ExecAsDict(root.Blk)
}

// ParseManifestFile reads and parses an info.art manifest file.
func ParseManifestFile(path string) (*Module, error) {
	source, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}
	dict, err := ParseManifestSource(string(source), path)
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest: %w", err)
	}
	return moduleFromDict(dict), nil
}

// moduleFromDict reads the recognized manifest keys (name, version, entry,
// depends, url) off dict, tolerating absent ones.
func moduleFromDict(dict *value.Dict) *Module {
	mod := &Module{
		Require: []Requirement{},
	}
	if v, ok := dict.Get("name"); ok {
		mod.Name = value.Printable(v, nil)
	}
	if v, ok := dict.Get("version"); ok {
		mod.Version = value.Printable(v, nil)
	}
	if v, ok := dict.Get("entry"); ok {
		mod.Entry = value.Printable(v, nil)
	}
	if v, ok := dict.Get("url"); ok {
		mod.URL = value.Printable(v, nil)
	}
	if v, ok := dict.Get("depends"); ok && v.Tag == value.BlockTag {
		for _, dep := range v.Blk.Elements {
			mod.Require = append(mod.Require, requirementFromValue(dep))
		}
	}
	return mod
}

// requirementFromValue reads a single depends entry, either a bare path
// string (implying "latest") or a two-element [path version] block.
func requirementFromValue(v value.Value) Requirement {
	if v.Tag == value.BlockTag && len(v.Blk.Elements) >= 2 {
		return Requirement{
			Path:    value.Printable(v.Blk.Elements[0], nil),
			Version: value.Printable(v.Blk.Elements[1], nil),
		}
	}
	return Requirement{Path: value.Printable(v, nil), Version: "latest"}
}

// WriteManifestFile writes mod back out as info.art source.
func WriteManifestFile(path string, mod *Module) error {
	d := value.NewDict()
	d.Set("name", value.StringVal(mod.Name))
	if mod.Version != "" {
		d.Set("version", value.StringVal(mod.Version))
	}
	if mod.Entry != "" {
		d.Set("entry", value.StringVal(mod.Entry))
	}
	if mod.URL != "" {
		d.Set("url", value.StringVal(mod.URL))
	}
	deps := make([]value.Value, len(mod.Require))
	for i, req := range mod.Require {
		deps[i] = value.BlockVal([]value.Value{value.StringVal(req.Path), value.StringVal(req.Version)})
	}
	d.Set("depends", value.BlockVal(deps))
	// unwrapped: a manifest is a plain top-level label sequence, not a
	// #[...] dictionary literal — it evaluates to a dictionary via
	// execAsDict rather than being parsed as one directly.
	source := value.Codify(value.DictVal(d), false, true, true)
	return os.WriteFile(path, []byte(source+"\n"), 0644)
}
