package packages

import (
	"os"
	"path/filepath"
	"testing"
)

func TestParseManifestSource(t *testing.T) {
	source := `name: "grep-tools" version: "1.2.0" entry: "main.art" depends: [["github.com/acme/fmt" "1.0"] "github.com/acme/logging"]`

	dict, err := ParseManifestSource(source, "info.art")
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}

	mod := moduleFromDict(dict)
	if mod.Name != "grep-tools" {
		t.Errorf("expected name %q, got %q", "grep-tools", mod.Name)
	}
	if mod.Version != "1.2.0" {
		t.Errorf("expected version %q, got %q", "1.2.0", mod.Version)
	}
	if mod.Entry != "main.art" {
		t.Errorf("expected entry %q, got %q", "main.art", mod.Entry)
	}
	if len(mod.Require) != 2 {
		t.Fatalf("expected 2 dependencies, got %d", len(mod.Require))
	}
	if mod.Require[0].Path != "github.com/acme/fmt" || mod.Require[0].Version != "1.0" {
		t.Errorf("unexpected first dependency: %+v", mod.Require[0])
	}
	if mod.Require[1].Path != "github.com/acme/logging" || mod.Require[1].Version != "latest" {
		t.Errorf("unexpected second dependency: %+v", mod.Require[1])
	}
}

func TestWriteManifestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "info.art")

	mod := &Module{
		Name:    "sample",
		Version: "0.1.0",
		Require: []Requirement{{Path: "github.com/acme/fmt", Version: "1.0"}},
	}
	if err := WriteManifestFile(path, mod); err != nil {
		t.Fatalf("unexpected write error: %v", err)
	}

	roundTripped, err := ParseManifestFile(path)
	if err != nil {
		t.Fatalf("unexpected parse error: %v", err)
	}
	if roundTripped.Name != mod.Name || roundTripped.Version != mod.Version {
		t.Errorf("round trip mismatch: got %+v, want name/version from %+v", roundTripped, mod)
	}
	if len(roundTripped.Require) != 1 || roundTripped.Require[0].Path != "github.com/acme/fmt" {
		t.Errorf("dependency did not survive round trip: %+v", roundTripped.Require)
	}
}

func TestParseManifestFileMissing(t *testing.T) {
	if _, err := ParseManifestFile(filepath.Join(t.TempDir(), "missing", "info.art")); err == nil {
		t.Error("expected an error reading a missing manifest")
	}
}

func TestModuleCacheDefaultBaseDir(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory available")
	}
	mc := NewModuleCache("")
	want := filepath.Join(home, ".arturo", "packages")
	if mc.BaseDir != want {
		t.Errorf("expected default base dir %q, got %q", want, mc.BaseDir)
	}
}
