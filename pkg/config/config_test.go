package config

import (
	"os"
	"path/filepath"
	"testing"

	perrors "github.com/matzehuels/plugtower/pkg/errors"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultsFollowXDG(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/cfg")
	t.Setenv("XDG_DATA_HOME", "/data")

	cfg := Default()
	if cfg.Root != "/data/plugtower/packages" {
		t.Errorf("Root = %q", cfg.Root)
	}
	if cfg.Manifest != "/data/plugtower/manifest.toml" {
		t.Errorf("Manifest = %q", cfg.Manifest)
	}
	if cfg.Specs != "/cfg/plugtower/packages.toml" {
		t.Errorf("Specs = %q", cfg.Specs)
	}
	if DefaultPath() != "/cfg/plugtower/config.toml" {
		t.Errorf("DefaultPath() = %q", DefaultPath())
	}
	if cfg.Concurrency != 10 || cfg.MessageLimit != 512 || cfg.CheckRetries != 1 {
		t.Errorf("numeric defaults = %+v", cfg)
	}
}

func TestLoadMissingFile(t *testing.T) {
	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg != Default() {
		t.Errorf("Load() = %+v, want defaults", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
root = "/srv/pkgs/packages"
concurrency = 4
check_retries = 5
base_url = "git@example.com:"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Root != "/srv/pkgs/packages" || cfg.Concurrency != 4 || cfg.BaseURL != "git@example.com:" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Manifest != "/srv/pkgs/manifest.toml" {
		t.Errorf("Manifest = %q, want it next to the custom root", cfg.Manifest)
	}
	if cfg.CheckRetries != 1 {
		t.Errorf("CheckRetries = %d, want clamp to 1", cfg.CheckRetries)
	}
}

func TestLoadInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"syntax", "root = "},
		{"unknown key", "colour = \"red\""},
		{"zero concurrency", "concurrency = 0"},
		{"negative retries", "check_retries = -1"},
		{"wrong type", "concurrency = \"ten\""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			if !perrors.Is(err, perrors.ErrCodeInvalidConfig) {
				t.Errorf("Load() error = %v, want INVALID_CONFIG", err)
			}
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}
	if got := ExpandHome("~/pkgs"); got != filepath.Join(home, "pkgs") {
		t.Errorf("ExpandHome(~/pkgs) = %q", got)
	}
	if got := ExpandHome("/abs"); got != "/abs" {
		t.Errorf("ExpandHome(/abs) = %q", got)
	}
}
