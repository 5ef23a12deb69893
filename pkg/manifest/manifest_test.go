package manifest

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	perrors "github.com/matzehuels/plugtower/pkg/errors"
)

func TestLoadMissingIsEmpty(t *testing.T) {
	m, err := Load(filepath.Join(t.TempDir(), "manifest.toml"))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if len(m.Entries) != 0 {
		t.Errorf("Entries = %v, want empty", m.Entries)
	}
}

func TestLoadCorruptIsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "manifest.toml")
	if err := os.WriteFile(path, []byte("entries = [[[ not toml"), 0o644); err != nil {
		t.Fatal(err)
	}
	m, err := Load(path)
	if m == nil || len(m.Entries) != 0 {
		t.Fatalf("Load() manifest = %+v, want empty", m)
	}
	if !perrors.Is(err, perrors.ErrCodeManifestUnreadable) {
		t.Errorf("Load() error = %v, want MANIFEST_UNREADABLE", err)
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "manifest.toml")
	m := &Manifest{}
	if err := m.UpsertMain(Entry{Repo: "https://github.com/a/x.git", Tag: "v1", Dependencies: []string{"c/z", "b/y", "b/y"}}, true); err != nil {
		t.Fatal(err)
	}
	m.Recompute(time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC))
	if err := Save(path, m); err != nil {
		t.Fatalf("Save() error = %v", err)
	}

	got, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	e := got.Find("a/x")
	if e == nil {
		t.Fatal("entry a/x missing after reload")
	}
	if e.Name != "x" || e.Tag != "v1" || !slices.Equal(e.Dependencies, []string{"b/y", "c/z"}) {
		t.Errorf("entry = %+v", e)
	}
	if got.Total != 3 || got.Integrity != m.Integrity || !got.UpdatedAt.Equal(m.UpdatedAt) {
		t.Errorf("metadata = total %d integrity %q at %v", got.Total, got.Integrity, got.UpdatedAt)
	}
}

func TestUpsertMainPrecedence(t *testing.T) {
	m := &Manifest{}
	if err := m.UpsertMain(Entry{Repo: "c/z", Dependencies: []string{"a/x"}}, true); err != nil {
		t.Fatal(err)
	}

	// not declared in this run: stays a dependency
	err := m.UpsertMain(Entry{Repo: "a/x"}, false)
	if !errors.Is(err, ErrDependencyConflict) {
		t.Fatalf("undeclared upsert error = %v, want ErrDependencyConflict", err)
	}
	if m.Find("a/x") != nil {
		t.Error("rejected upsert must not create an entry")
	}

	// declared as main: gets a top-level entry, reference retained
	if err := m.UpsertMain(Entry{Repo: "a/x"}, true); err != nil {
		t.Fatal(err)
	}
	if m.Find("a/x") == nil {
		t.Error("declared main must get an entry")
	}
	if !slices.Contains(m.Find("c/z").Dependencies, "a/x") {
		t.Error("c/z must keep its dependency reference")
	}
	m.Recompute(time.Now())
	if m.Total != 2 {
		t.Errorf("Total = %d, want 2", m.Total)
	}
}

func TestPrune(t *testing.T) {
	m := &Manifest{Entries: []Entry{
		{Repo: "c/z", Dependencies: []string{"a/x", "b/y"}},
		{Repo: "a/x"},
		{Repo: "b/y"},
	}}
	removed := m.Prune(map[string]bool{"c/z": true, "a/x": true})
	if !slices.Equal(removed, []string{"b/y"}) {
		t.Errorf("Prune() = %v, want [b/y]", removed)
	}
	if m.Find("a/x") == nil || m.Find("b/y") != nil {
		t.Errorf("entries after prune = %+v", m.Entries)
	}
}

func TestDependencyRefs(t *testing.T) {
	m := &Manifest{}
	if m.AddDependencyRef("a/x", "b/y") {
		t.Error("AddDependencyRef without main entry should be a no-op")
	}
	_ = m.UpsertMain(Entry{Repo: "a/x"}, true)
	_ = m.UpsertMain(Entry{Repo: "c/z", Dependencies: []string{"b/y"}}, true)
	if !m.AddDependencyRef("a/x", "b/y") {
		t.Error("AddDependencyRef should change a/x")
	}
	if m.AddDependencyRef("a/x", "b/y") {
		t.Error("duplicate AddDependencyRef should report no change")
	}
	if !m.RemoveDependencyRef("b/y") {
		t.Error("RemoveDependencyRef should report a change")
	}
	for _, e := range m.Entries {
		if len(e.Dependencies) != 0 {
			t.Errorf("%s still has dependencies %v", e.Repo, e.Dependencies)
		}
	}
	if !m.RemoveEntry("a/x") || m.RemoveEntry("a/x") {
		t.Error("RemoveEntry should succeed exactly once")
	}
}

func TestRecomputeTotalAndIntegrity(t *testing.T) {
	a := &Manifest{Entries: []Entry{
		{Repo: "a/x", Dependencies: []string{"b/y", "c/z"}},
		{Repo: "c/z", Dependencies: []string{"b/y"}},
	}}
	b := &Manifest{Entries: []Entry{
		{Repo: "c/z", Dependencies: []string{"b/y"}},
		{Repo: "a/x", Dependencies: []string{"c/z", "b/y"}},
	}}
	a.Recompute(time.Now())
	b.Recompute(time.Now().Add(time.Hour))

	// two mains plus b/y
	if a.Total != 3 {
		t.Errorf("Total = %d, want 3", a.Total)
	}
	if a.Integrity != b.Integrity {
		t.Error("integrity should not depend on entry order or timestamp")
	}
	_ = b.UpsertMain(Entry{Repo: "a/x", Tag: "v2", Dependencies: []string{"b/y", "c/z"}}, true)
	b.Recompute(time.Now())
	if a.Integrity == b.Integrity {
		t.Error("integrity should change with entry contents")
	}
}

func TestCloneIsDeep(t *testing.T) {
	m := &Manifest{Entries: []Entry{{Repo: "a/x", Dependencies: []string{"b/y"}}}}
	c := m.Clone()
	c.Entries[0].Dependencies[0] = "z/z"
	if m.Entries[0].Dependencies[0] != "b/y" {
		t.Error("Clone shares dependency slices")
	}
}
