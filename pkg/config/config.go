// Package config loads plugtower's settings file.
//
// The file is TOML and lives at $XDG_CONFIG_HOME/plugtower/config.toml
// (falling back to ~/.config/plugtower/config.toml). Every key is
// optional:
//
//	root = "~/.local/share/plugtower/packages"
//	manifest = "~/.local/share/plugtower/manifest.toml"
//	specs = "~/.config/plugtower/packages.toml"
//	concurrency = 10
//	self_repo = "matzehuels/plugtower"
//	base_url = "https://github.com/"
//	message_limit = 512
//	check_retries = 1
//
// A missing file yields [Default]. A malformed file or an invalid value is
// an INVALID_CONFIG error.
package config

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"

	perrors "github.com/matzehuels/plugtower/pkg/errors"
)

const appName = "plugtower"

// Config holds the effective settings.
type Config struct {
	Root         string `toml:"root"`
	Manifest     string `toml:"manifest"`
	Specs        string `toml:"specs"`
	Concurrency  int    `toml:"concurrency"`
	SelfRepo     string `toml:"self_repo"`
	BaseURL      string `toml:"base_url"`
	MessageLimit int    `toml:"message_limit"`
	CheckRetries int    `toml:"check_retries"`
}

// Default returns the built-in settings.
func Default() Config {
	root := filepath.Join(DataDir(), "packages")
	return Config{
		Root:         root,
		Manifest:     filepath.Join(DataDir(), "manifest.toml"),
		Specs:        filepath.Join(ConfigDir(), "packages.toml"),
		Concurrency:  10,
		SelfRepo:     "matzehuels/plugtower",
		BaseURL:      "https://github.com/",
		MessageLimit: 512,
		CheckRetries: 1,
	}
}

// ConfigDir returns the directory holding config.toml and the default spec
// file.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".config", appName)
}

// DataDir returns the directory holding installed packages and the
// manifest.
func DataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, appName)
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".local", "share", appName)
}

// DefaultPath returns the config file location.
func DefaultPath() string {
	return filepath.Join(ConfigDir(), "config.toml")
}

// Load reads the config file at path over the defaults.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return cfg, perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "read %s", path)
	}

	md, err := toml.Decode(string(data), &cfg)
	if err != nil {
		return Default(), perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "parse %s", path)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		keys := make([]string, len(undecoded))
		for i, k := range undecoded {
			keys[i] = k.String()
		}
		return Default(), perrors.New(perrors.ErrCodeInvalidConfig, "%s: unknown keys %s", path, strings.Join(keys, ", "))
	}

	// A custom root without a custom manifest keeps the manifest next to it.
	if md.IsDefined("root") && !md.IsDefined("manifest") {
		cfg.Manifest = filepath.Join(filepath.Dir(ExpandHome(cfg.Root)), "manifest.toml")
	}

	if err := cfg.Normalize(); err != nil {
		return Default(), perrors.Wrap(perrors.ErrCodeInvalidConfig, err, "%s", path)
	}
	return cfg, nil
}

// Normalize expands paths, clamps check_retries to one and validates
// numeric settings.
func (c *Config) Normalize() error {
	c.Root = ExpandHome(c.Root)
	c.Manifest = ExpandHome(c.Manifest)
	c.Specs = ExpandHome(c.Specs)

	if c.Root == "" || c.Manifest == "" {
		return perrors.New(perrors.ErrCodeInvalidConfig, "root and manifest must not be empty")
	}
	if c.Concurrency <= 0 {
		return perrors.New(perrors.ErrCodeInvalidConfig, "concurrency must be positive, got %d", c.Concurrency)
	}
	if c.MessageLimit <= 0 {
		return perrors.New(perrors.ErrCodeInvalidConfig, "message_limit must be positive, got %d", c.MessageLimit)
	}
	if c.CheckRetries < 0 {
		return perrors.New(perrors.ErrCodeInvalidConfig, "check_retries must not be negative, got %d", c.CheckRetries)
	}
	c.CheckRetries = min(c.CheckRetries, 1)
	return nil
}

// ExpandHome replaces a leading "~" with the user's home directory.
func ExpandHome(path string) string {
	if path == "~" || strings.HasPrefix(path, "~/") {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, strings.TrimPrefix(path, "~"))
		}
	}
	return path
}
