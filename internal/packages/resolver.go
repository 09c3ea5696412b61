package packages

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"artlang/internal/lexer"
	"artlang/internal/parser"
	"artlang/internal/value"
)

// ImportResolver resolves `import` targets to a source file and its
// exported bindings.
type ImportResolver struct {
	cache       *ModuleCache
	currentMod  *Module
	searchPaths []string
	imports     map[string]*ResolvedImport
}

// ResolvedImport is one resolved import target.
type ResolvedImport struct {
	Path       string
	Alias      string
	SourceFile string
	Module     *CachedModule
	Exports    map[string]string
}

// NewImportResolver creates a resolver backed by cache.
func NewImportResolver(cache *ModuleCache) *ImportResolver {
	return &ImportResolver{
		cache:       cache,
		searchPaths: getDefaultSearchPaths(),
		imports:     make(map[string]*ResolvedImport),
	}
}

// getDefaultSearchPaths returns, in order: the working directory, a local
// art_packages directory, the user's package cache, and the bundled
// standard library.
func getDefaultSearchPaths() []string {
	var paths []string
	paths = append(paths, ".")
	paths = append(paths, "art_packages")
	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(homeDir, ".arturo", "packages"))
	}
	paths = append(paths, getStdlibPath())
	return paths
}

func getStdlibPath() string {
	if execPath, err := os.Executable(); err == nil {
		return filepath.Join(filepath.Dir(execPath), "stdlib")
	}
	return "stdlib"
}

// SetCurrentModule sets the manifest context used to resolve remote
// import versions.
func (r *ImportResolver) SetCurrentModule(mod *Module) {
	r.currentMod = mod
}

// ResolveImport resolves a single import path, caching the result.
func (r *ImportResolver) ResolveImport(importPath string, alias string) (*ResolvedImport, error) {
	if resolved, ok := r.imports[importPath]; ok {
		if alias != "" {
			resolved.Alias = alias
		}
		return resolved, nil
	}

	var resolved *ResolvedImport
	var err error

	switch {
	case strings.HasPrefix(importPath, "./") || strings.HasPrefix(importPath, "../"):
		resolved, err = r.resolveLocalImport(importPath, alias)
	case strings.Contains(importPath, "/"):
		resolved, err = r.resolveRemoteImport(importPath, alias)
	default:
		resolved, err = r.resolveStdlibImport(importPath, alias)
	}
	if err != nil {
		return nil, err
	}

	r.imports[importPath] = resolved
	return resolved, nil
}

func (r *ImportResolver) resolveLocalImport(importPath string, alias string) (*ResolvedImport, error) {
	possiblePaths := []string{
		importPath + ".art",
		filepath.Join(importPath, "index.art"),
		filepath.Join(importPath, "main.art"),
	}

	for _, path := range possiblePaths {
		absPath, err := filepath.Abs(path)
		if err != nil {
			continue
		}
		if _, err := os.Stat(absPath); err == nil {
			resolved := &ResolvedImport{
				Path:       importPath,
				Alias:      alias,
				SourceFile: absPath,
				Exports:    make(map[string]string),
			}
			if err := r.loadExports(resolved); err != nil {
				return nil, fmt.Errorf("failed to load exports from %s: %w", absPath, err)
			}
			return resolved, nil
		}
	}
	return nil, fmt.Errorf("cannot resolve local import: %s", importPath)
}

func (r *ImportResolver) resolveRemoteImport(importPath string, alias string) (*ResolvedImport, error) {
	version := "latest"
	if r.currentMod != nil {
		for _, req := range r.currentMod.Require {
			if req.Path == importPath {
				version = req.Version
				break
			}
		}
	}

	cached, err := r.cache.FetchModule(importPath, version)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch package %s@%s: %w", importPath, version, err)
	}

	entry := cached.Module.Entry
	if entry == "" {
		entry = r.findMainFile(cached.SourceDir)
	} else {
		entry = filepath.Join(cached.SourceDir, entry)
	}
	if entry == "" {
		return nil, fmt.Errorf("no entry file found in package %s", importPath)
	}

	resolved := &ResolvedImport{
		Path:       importPath,
		Alias:      alias,
		SourceFile: entry,
		Module:     cached,
		Exports:    make(map[string]string),
	}
	if err := r.loadExports(resolved); err != nil {
		return nil, fmt.Errorf("failed to load exports from package %s: %w", importPath, err)
	}
	return resolved, nil
}

func (r *ImportResolver) resolveStdlibImport(importPath string, alias string) (*ResolvedImport, error) {
	stdlibPath := getStdlibPath()

	possiblePaths := []string{
		filepath.Join(stdlibPath, importPath+".art"),
		filepath.Join(stdlibPath, importPath, "index.art"),
		filepath.Join(stdlibPath, importPath, importPath+".art"),
	}

	for _, path := range possiblePaths {
		if _, err := os.Stat(path); err == nil {
			resolved := &ResolvedImport{
				Path:       importPath,
				Alias:      alias,
				SourceFile: path,
				Exports:    make(map[string]string),
			}
			if err := r.loadExports(resolved); err != nil {
				return nil, fmt.Errorf("failed to load exports from %s: %w", path, err)
			}
			return resolved, nil
		}
	}
	return nil, fmt.Errorf("standard library module not found: %s", importPath)
}

// findMainFile finds the entry file in a fetched package directory when
// the manifest names none.
func (r *ImportResolver) findMainFile(dir string) string {
	candidates := []string{"main.art", "index.art", "src/main.art", "src/index.art"}
	for _, candidate := range candidates {
		path := filepath.Join(dir, candidate)
		if _, err := os.Stat(path); err == nil {
			return path
		}
	}

	files, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	for _, file := range files {
		if !file.IsDir() && strings.HasSuffix(file.Name(), ".art") {
			return filepath.Join(dir, file.Name())
		}
	}
	return ""
}

// loadExports parses sourceFile with the real lexer/parser and records
// every top-level label as an export (kind "function" when the label is
// followed by a `$[...]` parameter block, "value" otherwise), since the
// language has no separate export keyword — anything a file binds at its
// top level is what an importer can reach.
func (r *ImportResolver) loadExports(resolved *ResolvedImport) error {
	content, err := os.ReadFile(resolved.SourceFile)
	if err != nil {
		return err
	}

	lex := lexer.NewScannerFile(string(content), resolved.SourceFile)
	tokens := lex.ScanTokens()
	p := parser.NewParser(tokens)
	root := p.Parse()
	if len(p.Errors) > 0 {
		return p.Errors[0]
	}
	if root.Tag != value.BlockTag {
		return nil
	}

	elems := root.Blk.Elements
	for i := 0; i+1 < len(elems); i++ {
		if elems[i].Tag != value.Label {
			continue
		}
		name := elems[i].Str
		kind := "value"
		if elems[i+1].Tag == value.BlockTag && elems[i+1].Blk.Kind == value.FuncBlock {
			kind = "function"
		}
		resolved.Exports[name] = kind
	}
	return nil
}

// GetExport retrieves the exported symbol's kind from a resolved import.
func (r *ImportResolver) GetExport(importPath string, symbolName string) (string, error) {
	resolved, ok := r.imports[importPath]
	if !ok {
		return "", fmt.Errorf("import not resolved: %s", importPath)
	}
	if export, ok := resolved.Exports[symbolName]; ok {
		return export, nil
	}
	return "", fmt.Errorf("symbol %s not exported from %s", symbolName, importPath)
}

// GetAllExports returns every export recorded for a resolved import.
func (r *ImportResolver) GetAllExports(importPath string) (map[string]string, error) {
	resolved, ok := r.imports[importPath]
	if !ok {
		return nil, fmt.Errorf("import not resolved: %s", importPath)
	}
	return resolved.Exports, nil
}

// LoadSourceFile returns the raw source of a resolved import.
func (r *ImportResolver) LoadSourceFile(importPath string) (string, error) {
	resolved, ok := r.imports[importPath]
	if !ok {
		return "", fmt.Errorf("import not resolved: %s", importPath)
	}
	content, err := os.ReadFile(resolved.SourceFile)
	if err != nil {
		return "", fmt.Errorf("failed to read source file: %w", err)
	}
	return string(content), nil
}
