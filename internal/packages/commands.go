package packages

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"artlang/internal/lexer"
	"artlang/internal/parser"
	"artlang/internal/value"
)

// PackageManager drives package operations (init, get, update, ...)
// rooted at a working directory's info.art manifest.
type PackageManager struct {
	cache    *ModuleCache
	resolver *ImportResolver
	workDir  string
}

// NewPackageManager creates a manager for workDir, defaulting to the
// current directory.
func NewPackageManager(workDir string) *PackageManager {
	cache := NewModuleCache("")
	resolver := NewImportResolver(cache)

	if workDir == "" {
		workDir, _ = os.Getwd()
	}

	return &PackageManager{
		cache:    cache,
		resolver: resolver,
		workDir:  workDir,
	}
}

func (pm *PackageManager) manifestPath() string {
	return filepath.Join(pm.workDir, "info.art")
}

// InitModule writes a fresh info.art manifest naming the package.
func (pm *PackageManager) InitModule(name string) error {
	if name == "" {
		return fmt.Errorf("package name is required")
	}

	manifest := pm.manifestPath()
	if _, err := os.Stat(manifest); err == nil {
		return fmt.Errorf("info.art already exists")
	}

	mod := &Module{Name: name, Version: "0.1.0"}
	if err := WriteManifestFile(manifest, mod); err != nil {
		return fmt.Errorf("failed to write info.art: %w", err)
	}

	fmt.Printf("package initialized: %s\n", name)
	return nil
}

// GetPackage adds packagePath@version to the manifest's depends and
// fetches it.
func (pm *PackageManager) GetPackage(packagePath string, version string) error {
	if version == "" {
		version = "latest"
	}

	mod, err := ParseManifestFile(pm.manifestPath())
	if err != nil {
		return fmt.Errorf("failed to parse info.art: %w", err)
	}

	found := false
	for i, req := range mod.Require {
		if req.Path == packagePath {
			mod.Require[i].Version = version
			found = true
			break
		}
	}
	if !found {
		mod.Require = append(mod.Require, Requirement{Path: packagePath, Version: version})
	}

	cached, err := pm.cache.FetchModule(packagePath, version)
	if err != nil {
		return fmt.Errorf("failed to fetch package: %w", err)
	}

	if err := WriteManifestFile(pm.manifestPath(), mod); err != nil {
		return fmt.Errorf("failed to update info.art: %w", err)
	}

	fmt.Printf("added %s %s\n", packagePath, version)
	fmt.Printf("downloaded to: %s\n", cached.SourceDir)

	deps, err := pm.cache.ResolveDependencies(cached.Module)
	if err != nil {
		return fmt.Errorf("failed to resolve dependencies: %w", err)
	}
	if len(deps) > 0 {
		fmt.Printf("downloaded %d dependencies\n", len(deps))
	}
	return nil
}

// UpdatePackages refetches the named packages at "latest", or every
// depends entry when packages is empty.
func (pm *PackageManager) UpdatePackages(packages []string) error {
	mod, err := ParseManifestFile(pm.manifestPath())
	if err != nil {
		return fmt.Errorf("failed to parse info.art: %w", err)
	}

	var toUpdate []Requirement
	if len(packages) == 0 {
		toUpdate = mod.Require
	} else {
		for _, pkg := range packages {
			for _, req := range mod.Require {
				if strings.HasPrefix(req.Path, pkg) {
					toUpdate = append(toUpdate, req)
				}
			}
		}
	}

	updated := 0
	for _, req := range toUpdate {
		fmt.Printf("updating %s...\n", req.Path)
		cached, err := pm.cache.FetchModule(req.Path, "latest")
		if err != nil {
			fmt.Printf("  failed: %v\n", err)
			continue
		}
		for i, r := range mod.Require {
			if r.Path == req.Path {
				mod.Require[i].Version = cached.Version
				updated++
				fmt.Printf("  updated to %s\n", cached.Version)
				break
			}
		}
	}

	if updated > 0 {
		if err := WriteManifestFile(pm.manifestPath(), mod); err != nil {
			return fmt.Errorf("failed to update info.art: %w", err)
		}
		fmt.Printf("updated %d packages\n", updated)
	} else {
		fmt.Println("all packages are up to date")
	}
	return nil
}

// DownloadDependencies fetches every depends entry (transitively).
func (pm *PackageManager) DownloadDependencies() error {
	mod, err := ParseManifestFile(pm.manifestPath())
	if err != nil {
		return fmt.Errorf("failed to parse info.art: %w", err)
	}

	deps, err := pm.cache.ResolveDependencies(mod)
	if err != nil {
		return fmt.Errorf("failed to resolve dependencies: %w", err)
	}

	fmt.Printf("downloaded %d packages\n", len(deps))
	for _, dep := range deps {
		fmt.Printf("  %s@%s\n", dep.Path, dep.Version)
	}
	return nil
}

// TidyModules reconciles the manifest's depends against imports actually
// found in .art source files under workDir.
func (pm *PackageManager) TidyModules() error {
	mod, err := ParseManifestFile(pm.manifestPath())
	if err != nil {
		return fmt.Errorf("failed to parse info.art: %w", err)
	}

	imports, err := pm.scanImports(pm.workDir)
	if err != nil {
		return fmt.Errorf("failed to scan imports: %w", err)
	}

	var newRequirements []Requirement
	for imp := range imports {
		if strings.HasPrefix(imp, "./") || strings.HasPrefix(imp, "../") || !strings.Contains(imp, "/") {
			continue
		}
		found := false
		for _, req := range mod.Require {
			if req.Path == imp {
				newRequirements = append(newRequirements, req)
				found = true
				break
			}
		}
		if !found {
			newRequirements = append(newRequirements, Requirement{Path: imp, Version: "latest"})
			fmt.Printf("added missing dependency: %s\n", imp)
		}
	}

	for _, req := range mod.Require {
		found := false
		for _, newReq := range newRequirements {
			if req.Path == newReq.Path {
				found = true
				break
			}
		}
		if !found {
			fmt.Printf("removed unused dependency: %s\n", req.Path)
		}
	}

	mod.Require = newRequirements
	if err := WriteManifestFile(pm.manifestPath(), mod); err != nil {
		return fmt.Errorf("failed to update info.art: %w", err)
	}

	fmt.Println("dependencies tidied")
	return nil
}

// VendorDependencies copies every resolved dependency into a local
// art_packages/vendor directory.
func (pm *PackageManager) VendorDependencies() error {
	mod, err := ParseManifestFile(pm.manifestPath())
	if err != nil {
		return fmt.Errorf("failed to parse info.art: %w", err)
	}

	vendorDir := filepath.Join(pm.workDir, "art_packages", "vendor")
	if err := os.MkdirAll(vendorDir, 0755); err != nil {
		return fmt.Errorf("failed to create vendor directory: %w", err)
	}

	deps, err := pm.cache.ResolveDependencies(mod)
	if err != nil {
		return fmt.Errorf("failed to resolve dependencies: %w", err)
	}

	for _, dep := range deps {
		destDir := filepath.Join(vendorDir, dep.Path)
		if err := os.MkdirAll(destDir, 0755); err != nil {
			return fmt.Errorf("failed to create vendor subdirectory: %w", err)
		}
		if err := copyDir(dep.SourceDir, destDir); err != nil {
			return fmt.Errorf("failed to vendor %s: %w", dep.Path, err)
		}
		fmt.Printf("vendored %s@%s\n", dep.Path, dep.Version)
	}

	fmt.Printf("vendored %d dependencies\n", len(deps))
	return nil
}

// ListPackages prints the manifest and each dependency's cache status.
func (pm *PackageManager) ListPackages() error {
	mod, err := ParseManifestFile(pm.manifestPath())
	if err != nil {
		return fmt.Errorf("failed to parse info.art: %w", err)
	}

	fmt.Printf("package: %s\n", mod.Name)
	fmt.Printf("version: %s\n", mod.Version)
	fmt.Println("\ndependencies:")

	for _, req := range mod.Require {
		status := "not downloaded"
		if pm.cache.GetModulePath(req.Path, req.Version) != "" {
			status = "cached"
		}
		fmt.Printf("  %s %s [%s]\n", req.Path, req.Version, status)
	}
	return nil
}

// scanImports walks dir's .art files collecting every import path found
// by scanFileImports.
func (pm *PackageManager) scanImports(dir string) (map[string]bool, error) {
	imports := make(map[string]bool)

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() && (info.Name() == "art_packages" || strings.HasPrefix(info.Name(), ".")) {
			return filepath.SkipDir
		}
		if !info.IsDir() && strings.HasSuffix(info.Name(), ".art") {
			fileImports, err := scanFileImports(path)
			if err != nil {
				return err
			}
			for imp := range fileImports {
				imports[imp] = true
			}
		}
		return nil
	})
	return imports, err
}

// scanFileImports parses a single .art file with the real lexer/parser
// and collects every string argument given to an `import` word form —
// real parsing instead of text heuristics, now that a parser exists.
func scanFileImports(path string) (map[string]bool, error) {
	imports := make(map[string]bool)

	content, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	lex := lexer.NewScannerFile(string(content), path)
	tokens := lex.ScanTokens()
	p := parser.NewParser(tokens)
	root := p.Parse()
	if len(p.Errors) > 0 {
		return nil, p.Errors[0]
	}
	collectImports(root, imports)
	return imports, nil
}

func collectImports(v value.Value, imports map[string]bool) {
	if v.Tag != value.BlockTag {
		return
	}
	elems := v.Blk.Elements
	for i, e := range elems {
		if e.Tag == value.Word && e.Str == "import" && i+1 < len(elems) && elems[i+1].Tag == value.String {
			imports[elems[i+1].Str] = true
		}
		collectImports(e, imports)
	}
}

// copyDir copies a directory tree from src to dst.
func copyDir(src, dst string) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		relPath, err := filepath.Rel(src, path)
		if err != nil {
			return err
		}
		dstPath := filepath.Join(dst, relPath)

		if info.IsDir() {
			return os.MkdirAll(dstPath, info.Mode())
		}
		return copyFile(path, dstPath)
	})
}

func copyFile(src, dst string) error {
	source, err := os.Open(src)
	if err != nil {
		return err
	}
	defer source.Close()

	destination, err := os.Create(dst)
	if err != nil {
		return err
	}
	defer destination.Close()

	_, err = io.Copy(destination, source)
	return err
}

// extractZip extracts a ZIP archive fetched from a package's source URL.
func extractZip(src, dest string) error {
	reader, err := zip.OpenReader(src)
	if err != nil {
		return err
	}
	defer reader.Close()

	for _, file := range reader.File {
		path := filepath.Join(dest, file.Name)

		if file.FileInfo().IsDir() {
			os.MkdirAll(path, file.Mode())
			continue
		}

		fileReader, err := file.Open()
		if err != nil {
			return err
		}

		if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
			fileReader.Close()
			return err
		}

		targetFile, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, file.Mode())
		if err != nil {
			fileReader.Close()
			return err
		}

		_, err = io.Copy(targetFile, fileReader)
		fileReader.Close()
		targetFile.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

// extractTarGz extracts a tar.gz archive fetched from a package's source
// URL.
func extractTarGz(src, dest string) error {
	file, err := os.Open(src)
	if err != nil {
		return err
	}
	defer file.Close()

	gzReader, err := gzip.NewReader(file)
	if err != nil {
		return err
	}
	defer gzReader.Close()

	tarReader := tar.NewReader(gzReader)

	for {
		header, err := tarReader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return err
		}

		path := filepath.Join(dest, header.Name)

		switch header.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(path, 0755); err != nil {
				return err
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
				return err
			}
			outFile, err := os.Create(path)
			if err != nil {
				return err
			}
			if _, err := io.Copy(outFile, tarReader); err != nil {
				outFile.Close()
				return err
			}
			outFile.Close()
		}
	}
	return nil
}
