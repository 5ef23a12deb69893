// Package manifest records which main packages are installed and what they
// depend on.
//
// The manifest is one TOML document per install root:
//
//	total = 3
//	updated_at = 2026-01-02T15:04:05Z
//	integrity = "5f1d..."
//
//	[[entries]]
//	name = "x"
//	repo = "a/x"
//	tag = "v1.2.3"
//	dependencies = ["b/y"]
//
// Only main packages get an entry. Dependencies appear by repository inside
// their dependents' lists. Entries are kept sorted by repository and every
// dependency list sorted and deduplicated, so the encoded file is stable and
// diffable.
//
// [Manifest] methods are pure document mutations. [Store] serializes them
// through a single goroutine and persists after every change.
package manifest

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"time"

	"github.com/BurntSushi/toml"

	perrors "github.com/matzehuels/plugtower/pkg/errors"
	"github.com/matzehuels/plugtower/pkg/spec"
)

// ErrDependencyConflict is returned by [Manifest.UpsertMain] when the repo
// is recorded as another entry's dependency and was not declared as a main
// package in the current run.
var ErrDependencyConflict = errors.New("repository is recorded as a dependency")

// Entry is the persisted record of one main package.
type Entry struct {
	Name         string   `toml:"name" json:"name"`
	Repo         string   `toml:"repo" json:"repo"`
	Branch       string   `toml:"branch,omitempty" json:"branch,omitempty"`
	Tag          string   `toml:"tag,omitempty" json:"tag,omitempty"`
	Dependencies []string `toml:"dependencies,omitempty" json:"dependencies,omitempty"`
}

// EntryFor builds an entry from a package spec. The branch is stored in
// normalized form.
func EntryFor(s *spec.PackageSpec, deps []string) Entry {
	return Entry{
		Name:         s.Name(),
		Repo:         s.Repo,
		Branch:       s.EffectiveBranch(),
		Tag:          s.Tag,
		Dependencies: deps,
	}
}

func (e *Entry) normalize() {
	e.Repo = spec.NormalizeRepo(e.Repo)
	if e.Name == "" {
		e.Name = (&spec.PackageSpec{Repo: e.Repo}).Name()
	}
	e.Branch = spec.NormalizeBranch(e.Branch)
	deps := make([]string, 0, len(e.Dependencies))
	for _, d := range e.Dependencies {
		if d = spec.NormalizeRepo(d); d != "" && d != e.Repo {
			deps = append(deps, d)
		}
	}
	sort.Strings(deps)
	e.Dependencies = slices.Compact(deps)
	if len(e.Dependencies) == 0 {
		e.Dependencies = nil
	}
}

// Manifest is the root document.
type Manifest struct {
	Total     int       `toml:"total"`
	UpdatedAt time.Time `toml:"updated_at"`
	Integrity string    `toml:"integrity"`
	Entries   []Entry   `toml:"entries"`
}

// Load reads the manifest at path.
//
// Load always returns a usable manifest. A missing file yields an empty
// manifest and a nil error. An unreadable or corrupt file also yields an
// empty manifest, together with a MANIFEST_UNREADABLE error that callers
// should log rather than treat as fatal.
func Load(path string) (*Manifest, error) {
	m := &Manifest{}
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return m, nil
	}
	if err != nil {
		return m, perrors.Wrap(perrors.ErrCodeManifestUnreadable, err, "read manifest %s", path)
	}
	if _, err := toml.Decode(string(data), m); err != nil {
		return &Manifest{}, perrors.Wrap(perrors.ErrCodeManifestUnreadable, err, "parse manifest %s", path)
	}
	m.canonicalize()
	return m, nil
}

// Save writes the manifest to path atomically via a temporary file.
func Save(path string, m *Manifest) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create manifest directory: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".manifest-*.toml")
	if err != nil {
		return fmt.Errorf("create temp manifest: %w", err)
	}
	tmpPath := tmp.Name()

	if err := toml.NewEncoder(tmp).Encode(m); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("write temp manifest: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp manifest: %w", err)
	}
	return nil
}

// Find returns the entry for repo, or nil.
func (m *Manifest) Find(repo string) *Entry {
	repo = spec.NormalizeRepo(repo)
	for i := range m.Entries {
		if m.Entries[i].Repo == repo {
			return &m.Entries[i]
		}
	}
	return nil
}

// FindByName returns the entry installed under directory name, or nil.
func (m *Manifest) FindByName(name string) *Entry {
	for i := range m.Entries {
		if m.Entries[i].Name == name {
			return &m.Entries[i]
		}
	}
	return nil
}

// IsDependency reports whether repo appears in any entry's dependency list
// other than its own.
func (m *Manifest) IsDependency(repo string) bool {
	repo = spec.NormalizeRepo(repo)
	for _, e := range m.Entries {
		if e.Repo != repo && slices.Contains(e.Dependencies, repo) {
			return true
		}
	}
	return false
}

// UpsertMain inserts or replaces the entry for e.Repo.
//
// If the repo is listed in another entry's dependencies and declared is
// false, the upsert is rejected with ErrDependencyConflict and the manifest
// is left unchanged. A declared main package keeps its top-level entry and
// the other entries keep their dependency reference.
func (m *Manifest) UpsertMain(e Entry, declared bool) error {
	e.normalize()
	if e.Repo == "" {
		return perrors.New(perrors.ErrCodeInvalidRepo, "empty repository")
	}
	if !declared && m.IsDependency(e.Repo) {
		return fmt.Errorf("%s: %w", e.Repo, ErrDependencyConflict)
	}
	if cur := m.Find(e.Repo); cur != nil {
		*cur = e
	} else {
		m.Entries = append(m.Entries, e)
	}
	m.canonicalize()
	return nil
}

// RemoveEntry deletes the top-level entry for repo. It reports whether an
// entry was removed.
func (m *Manifest) RemoveEntry(repo string) bool {
	repo = spec.NormalizeRepo(repo)
	n := len(m.Entries)
	m.Entries = slices.DeleteFunc(m.Entries, func(e Entry) bool { return e.Repo == repo })
	return len(m.Entries) != n
}

// AddDependencyRef records dep in the entry for main. It is a no-op that
// returns false when main has no entry.
func (m *Manifest) AddDependencyRef(main, dep string) bool {
	e := m.Find(main)
	dep = spec.NormalizeRepo(dep)
	if e == nil || dep == "" || dep == e.Repo || slices.Contains(e.Dependencies, dep) {
		return false
	}
	e.Dependencies = append(e.Dependencies, dep)
	e.normalize()
	return true
}

// RemoveDependencyRef deletes dep from every entry's dependency list. It
// reports whether any list changed.
func (m *Manifest) RemoveDependencyRef(dep string) bool {
	dep = spec.NormalizeRepo(dep)
	changed := false
	for i := range m.Entries {
		e := &m.Entries[i]
		n := len(e.Dependencies)
		e.Dependencies = slices.DeleteFunc(e.Dependencies, func(d string) bool { return d == dep })
		if len(e.Dependencies) != n {
			changed = true
		}
		if len(e.Dependencies) == 0 {
			e.Dependencies = nil
		}
	}
	return changed
}

// Prune removes top-level entries that are pure dependencies: repos listed
// in another entry's dependencies that are not in declared. It returns the
// removed repos.
func (m *Manifest) Prune(declared map[string]bool) []string {
	referenced := make(map[string]bool)
	for _, e := range m.Entries {
		for _, d := range e.Dependencies {
			referenced[d] = true
		}
	}
	var removed []string
	m.Entries = slices.DeleteFunc(m.Entries, func(e Entry) bool {
		if declared[e.Repo] || !referenced[e.Repo] {
			return false
		}
		removed = append(removed, e.Repo)
		return true
	})
	return removed
}

// Recompute refreshes Total, Integrity and UpdatedAt.
func (m *Manifest) Recompute(now time.Time) {
	m.canonicalize()
	m.Total = m.total()
	m.Integrity = m.integrity()
	m.UpdatedAt = now.UTC().Truncate(time.Second)
}

// Dependencies returns every distinct dependency repo across all entries,
// sorted.
func (m *Manifest) Dependencies() []string {
	var out []string
	for _, e := range m.Entries {
		out = append(out, e.Dependencies...)
	}
	sort.Strings(out)
	return slices.Compact(out)
}

// Clone returns a deep copy.
func (m *Manifest) Clone() *Manifest {
	c := *m
	c.Entries = make([]Entry, len(m.Entries))
	for i, e := range m.Entries {
		e.Dependencies = slices.Clone(e.Dependencies)
		c.Entries[i] = e
	}
	return &c
}

func (m *Manifest) total() int {
	n := len(m.Entries)
	for _, d := range m.Dependencies() {
		if m.Find(d) == nil {
			n++
		}
	}
	return n
}

// integrity hashes the canonical entry set; metadata fields are excluded.
func (m *Manifest) integrity() string {
	data, _ := json.Marshal(m.Entries)
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

func (m *Manifest) canonicalize() {
	seen := make(map[string]bool, len(m.Entries))
	entries := m.Entries[:0]
	for _, e := range m.Entries {
		e.normalize()
		if e.Repo == "" || seen[e.Repo] {
			continue
		}
		seen[e.Repo] = true
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Repo < entries[j].Repo })
	m.Entries = entries
}
