package spec

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/matzehuels/plugtower/pkg/errors"
)

// rawSpec is the on-disk shape of one declared package. The same struct is
// decoded from TOML ([[package]] tables) and YAML (a "packages" list).
type rawSpec struct {
	Repo        string   `toml:"repo" yaml:"repo"`
	Branch      string   `toml:"branch" yaml:"branch"`
	Tag         string   `toml:"tag" yaml:"tag"`
	DependsOn   []string `toml:"depends_on" yaml:"depends_on"`
	PostInstall []string `toml:"post_install" yaml:"post_install"`
}

type tomlFile struct {
	Package []rawSpec `toml:"package"`
}

type yamlFile struct {
	Packages []rawSpec `yaml:"packages"`
}

// Supports reports whether Load understands the file's extension.
func Supports(filename string) bool {
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".toml", ".yaml", ".yml":
		return true
	}
	return false
}

// Load reads the spec file at path.
//
// The returned warnings describe entries that were skipped because they could
// not be turned into a valid PackageSpec; they never prevent the remaining
// entries from loading. An error is returned only when the file itself cannot
// be read or decoded.
func Load(path string) ([]PackageSpec, []error, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", path, err)
	}
	raws, err := decode(filepath.Base(path), data)
	if err != nil {
		return nil, nil, errors.Wrap(errors.ErrCodeSpecParse, err, "parse %s", path)
	}

	specs := make([]PackageSpec, 0, len(raws))
	var warnings []error
	for i, r := range raws {
		s, err := r.toSpec()
		if err != nil {
			warnings = append(warnings, errors.Wrap(errors.ErrCodeSpecParse, err, "%s: package #%d skipped", path, i+1))
			continue
		}
		specs = append(specs, s)
	}
	return specs, warnings, nil
}

// LoadDir reads every supported spec file directly inside dir, in lexical
// order. Files that fail to decode are skipped and reported as warnings.
func LoadDir(dir string) ([]PackageSpec, []error, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, nil, fmt.Errorf("read %s: %w", dir, err)
	}

	var (
		specs    []PackageSpec
		warnings []error
	)
	for _, e := range entries {
		if e.IsDir() || !Supports(e.Name()) {
			continue
		}
		s, w, err := Load(filepath.Join(dir, e.Name()))
		warnings = append(warnings, w...)
		if err != nil {
			warnings = append(warnings, err)
			continue
		}
		specs = append(specs, s...)
	}
	return specs, warnings, nil
}

// LoadPath dispatches to LoadDir or Load depending on what path points to.
func LoadPath(path string) ([]PackageSpec, []error, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, nil, fmt.Errorf("stat %s: %w", path, err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return Load(path)
}

func decode(name string, data []byte) ([]rawSpec, error) {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".toml":
		var f tomlFile
		if _, err := toml.NewDecoder(bytes.NewReader(data)).Decode(&f); err != nil {
			return nil, err
		}
		return f.Package, nil
	case ".yaml", ".yml":
		var f yamlFile
		if err := yaml.Unmarshal(data, &f); err != nil {
			return nil, err
		}
		return f.Packages, nil
	default:
		return nil, fmt.Errorf("unsupported spec file: %s", name)
	}
}

func (r rawSpec) toSpec() (PackageSpec, error) {
	repo := NormalizeRepo(r.Repo)
	if err := errors.ValidateRepo(repo); err != nil {
		return PackageSpec{}, err
	}
	if err := errors.ValidateRef(r.Branch); err != nil {
		return PackageSpec{}, err
	}
	if err := errors.ValidateRef(r.Tag); err != nil {
		return PackageSpec{}, err
	}

	s := PackageSpec{
		Repo:   repo,
		Branch: strings.TrimSpace(r.Branch),
		Tag:    strings.TrimSpace(r.Tag),
		IsMain: true,
	}
	if IsURL(r.Repo) {
		s.URL = strings.TrimSpace(r.Repo)
	}

	for _, d := range r.DependsOn {
		dep := NormalizeRepo(d)
		if err := errors.ValidateRepo(dep); err != nil {
			return PackageSpec{}, fmt.Errorf("dependency %q: %w", d, err)
		}
		if !slices.Contains(s.DependsOn, dep) {
			s.DependsOn = append(s.DependsOn, dep)
		}
	}
	for _, c := range r.PostInstall {
		if c = strings.TrimSpace(c); c != "" {
			s.PostInstall = append(s.PostInstall, c)
		}
	}
	return s, nil
}
