package spec

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/matzehuels/plugtower/pkg/errors"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	p := filepath.Join(dir, name)
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return p
}

func TestLoadTOML(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "packages.toml", `
[[package]]
repo = "https://github.com/nvim-telescope/telescope.nvim.git"
tag = "0.1.8"
depends_on = ["nvim-lua/plenary.nvim", "github.com/nvim-lua/plenary.nvim"]
post_install = ["make", "  "]

[[package]]
repo = "folke/tokyonight.nvim"
branch = "main"
`)

	specs, warnings, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(warnings) != 0 {
		t.Fatalf("unexpected warnings: %v", warnings)
	}
	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2", len(specs))
	}

	tel := specs[0]
	if tel.Repo != "nvim-telescope/telescope.nvim" {
		t.Errorf("Repo = %q", tel.Repo)
	}
	if tel.URL != "https://github.com/nvim-telescope/telescope.nvim.git" {
		t.Errorf("URL = %q", tel.URL)
	}
	if tel.Tag != "0.1.8" {
		t.Errorf("Tag = %q", tel.Tag)
	}
	if len(tel.DependsOn) != 1 || tel.DependsOn[0] != "nvim-lua/plenary.nvim" {
		t.Errorf("DependsOn = %v, want deduplicated [nvim-lua/plenary.nvim]", tel.DependsOn)
	}
	if len(tel.PostInstall) != 1 || tel.PostInstall[0] != "make" {
		t.Errorf("PostInstall = %v", tel.PostInstall)
	}
	if !tel.IsMain {
		t.Error("declared specs must be main")
	}
	if specs[1].EffectiveBranch() != "" {
		t.Errorf("EffectiveBranch() = %q, want empty for main", specs[1].EffectiveBranch())
	}
}

func TestLoadYAML(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "packages.yaml", `
packages:
  - repo: a/x
    depends_on: [b/y]
  - repo: c/z
    branch: develop
`)

	specs, _, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(specs) != 2 {
		t.Fatalf("got %d specs, want 2", len(specs))
	}
	if specs[1].Branch != "develop" {
		t.Errorf("Branch = %q", specs[1].Branch)
	}
}

func TestLoadSkipsMalformedEntries(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "packages.toml", `
[[package]]
repo = ""

[[package]]
repo = "a/x"
depends_on = ["../etc"]

[[package]]
repo = "b/y"
tag = "-bad"

[[package]]
repo = "c/z"
`)

	specs, warnings, err := Load(p)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(specs) != 1 || specs[0].Repo != "c/z" {
		t.Fatalf("specs = %+v, want only c/z", specs)
	}
	if len(warnings) != 3 {
		t.Fatalf("got %d warnings, want 3", len(warnings))
	}
	for _, w := range warnings {
		if !errors.Is(w, errors.ErrCodeSpecParse) {
			t.Errorf("warning %v is not SPEC_PARSE_FAILURE", w)
		}
	}
}

func TestLoadBrokenFile(t *testing.T) {
	dir := t.TempDir()
	p := writeFile(t, dir, "broken.toml", "[[package]\nrepo = ")

	_, _, err := Load(p)
	if !errors.Is(err, errors.ErrCodeSpecParse) {
		t.Fatalf("Load error = %v, want SPEC_PARSE_FAILURE", err)
	}
}

func TestLoadDir(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "10-core.toml", "[[package]]\nrepo = \"a/x\"\n")
	writeFile(t, dir, "20-ui.yml", "packages:\n  - repo: b/y\n")
	writeFile(t, dir, "30-broken.yaml", "packages: [\n")
	writeFile(t, dir, "README.md", "# not a spec")

	specs, warnings, err := LoadPath(dir)
	if err != nil {
		t.Fatalf("LoadPath: %v", err)
	}
	if len(specs) != 2 || specs[0].Repo != "a/x" || specs[1].Repo != "b/y" {
		t.Errorf("specs = %+v", specs)
	}
	if len(warnings) != 1 {
		t.Errorf("got %d warnings, want 1 for the broken file", len(warnings))
	}
}

func TestSupports(t *testing.T) {
	for name, want := range map[string]bool{
		"a.toml": true, "a.YAML": true, "a.yml": true, "a.json": false, "a": false,
	} {
		if got := Supports(name); got != want {
			t.Errorf("Supports(%q) = %v, want %v", name, got, want)
		}
	}
}
