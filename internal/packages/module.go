package packages

import (
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Module is the recognized shape of an info.art manifest: name, version,
// entry, depends, url.
type Module struct {
	Name    string
	Version string
	Entry   string
	URL     string
	Require []Requirement
}

// Requirement is one entry of a manifest's depends block.
type Requirement struct {
	Path    string
	Version string
}

// ModuleCache manages packages fetched into <home>/.arturo/packages/.
type ModuleCache struct {
	BaseDir string
	modules map[string]*CachedModule
}

// CachedModule is a resolved, on-disk package.
type CachedModule struct {
	Path      string
	Version   string
	Module    *Module
	LoadTime  time.Time
	SourceDir string
}

// NewModuleCache creates a cache rooted at baseDir, defaulting to
// <home>/.arturo/packages.
func NewModuleCache(baseDir string) *ModuleCache {
	if baseDir == "" {
		homeDir, _ := os.UserHomeDir()
		baseDir = filepath.Join(homeDir, ".arturo", "packages")
	}
	return &ModuleCache{
		BaseDir: baseDir,
		modules: make(map[string]*CachedModule),
	}
}

// FetchModule resolves a package path (a github.com/... path, a direct
// URL, or a local filesystem path) and returns it from cache or fresh
// from the network/disk.
func (mc *ModuleCache) FetchModule(path, version string) (*CachedModule, error) {
	cacheKey := fmt.Sprintf("%s@%s", path, version)
	if cached, ok := mc.modules[cacheKey]; ok {
		return cached, nil
	}

	sourceURL := ""
	switch {
	case strings.HasPrefix(path, "github.com/"):
		parts := strings.Split(path, "/")
		if len(parts) >= 3 {
			user := parts[1]
			repo := strings.Join(parts[2:], "/")
			if version == "latest" || version == "" {
				sourceURL = fmt.Sprintf("https://github.com/%s/%s/archive/refs/heads/main.zip", user, repo)
			} else {
				sourceURL = fmt.Sprintf("https://github.com/%s/%s/archive/refs/tags/%s.zip", user, repo, version)
			}
		}
	case strings.HasPrefix(path, "https://") || strings.HasPrefix(path, "http://"):
		sourceURL = path
	default:
		return mc.loadLocalModule(path, version)
	}

	if sourceURL == "" {
		return nil, fmt.Errorf("unable to determine source URL for %s", path)
	}

	destDir := filepath.Join(mc.BaseDir, strings.ReplaceAll(path, "/", "_"), version)
	if err := mc.downloadAndExtract(sourceURL, destDir); err != nil {
		return nil, fmt.Errorf("failed to download package: %w", err)
	}

	mod, err := ParseManifestFile(filepath.Join(destDir, "info.art"))
	if err != nil {
		mod = &Module{Name: path, Version: version}
	}

	cached := &CachedModule{
		Path:      path,
		Version:   version,
		Module:    mod,
		LoadTime:  time.Now(),
		SourceDir: destDir,
	}
	mc.modules[cacheKey] = cached
	return cached, nil
}

func (mc *ModuleCache) downloadAndExtract(url, destDir string) error {
	if err := os.MkdirAll(destDir, 0755); err != nil {
		return err
	}

	resp, err := http.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("failed to download: HTTP %d", resp.StatusCode)
	}

	tempFile := filepath.Join(destDir, "download.tmp")
	out, err := os.Create(tempFile)
	if err != nil {
		return err
	}
	defer out.Close()

	if _, err := io.Copy(out, resp.Body); err != nil {
		return err
	}

	if strings.HasSuffix(url, ".zip") {
		return extractZip(tempFile, destDir)
	}
	if strings.HasSuffix(url, ".tar.gz") || strings.HasSuffix(url, ".tgz") {
		return extractTarGz(tempFile, destDir)
	}
	return fmt.Errorf("unsupported archive format")
}

func (mc *ModuleCache) loadLocalModule(path, version string) (*CachedModule, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absPath); err != nil {
		return nil, fmt.Errorf("local package not found: %s", path)
	}

	mod, err := ParseManifestFile(filepath.Join(absPath, "info.art"))
	if err != nil {
		mod = &Module{Name: path, Version: version}
	}

	cacheKey := fmt.Sprintf("%s@%s", path, version)
	cached := &CachedModule{
		Path:      path,
		Version:   version,
		Module:    mod,
		LoadTime:  time.Now(),
		SourceDir: absPath,
	}
	mc.modules[cacheKey] = cached
	return cached, nil
}

// ResolveDependencies walks mod's depends graph, fetching each package
// (and its transitive depends) exactly once.
func (mc *ModuleCache) ResolveDependencies(mod *Module) ([]*CachedModule, error) {
	var resolved []*CachedModule
	visited := make(map[string]bool)

	var resolve func(*Module) error
	resolve = func(m *Module) error {
		for _, req := range m.Require {
			key := fmt.Sprintf("%s@%s", req.Path, req.Version)
			if visited[key] {
				continue
			}
			visited[key] = true

			cached, err := mc.FetchModule(req.Path, req.Version)
			if err != nil {
				return fmt.Errorf("failed to fetch %s@%s: %w", req.Path, req.Version, err)
			}
			resolved = append(resolved, cached)

			if err := resolve(cached.Module); err != nil {
				return err
			}
		}
		return nil
	}

	if err := resolve(mod); err != nil {
		return nil, err
	}
	return resolved, nil
}

// GetModulePath returns the on-disk path for a cached package, or "" if
// it hasn't been fetched yet.
func (mc *ModuleCache) GetModulePath(path, version string) string {
	cacheKey := fmt.Sprintf("%s@%s", path, version)
	if cached, ok := mc.modules[cacheKey]; ok {
		return cached.SourceDir
	}
	return ""
}
