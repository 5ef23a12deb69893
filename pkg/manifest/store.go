package manifest

import (
	"errors"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/matzehuels/plugtower/pkg/observability"
	"github.com/matzehuels/plugtower/pkg/spec"
)

// ErrStoreClosed is returned by Store methods after Close.
var ErrStoreClosed = errors.New("manifest store closed")

// Store owns the manifest document for one run.
//
// A single goroutine holds the document. Every mutation is sent to it as a
// message, applied, pruned, recomputed and written to disk before the caller
// gets its reply, so concurrent task completions never overwrite each
// other's changes. Store is safe for concurrent use.
type Store struct {
	path     string
	declared map[string]bool
	logger   *log.Logger
	now      func() time.Time

	ops       chan storeOp
	done      chan struct{}
	closeOnce sync.Once
}

type storeOp struct {
	apply func(m *Manifest) (changed bool, err error)
	reply chan error
}

// Open loads the manifest at path and starts the writer goroutine.
//
// declared is the set of repositories declared as main packages in the
// current run. When it is non-nil, every write also drops top-level entries
// that have become pure dependencies. Load problems are logged as warnings
// and never fail Open.
func Open(path string, declared map[string]bool, logger *log.Logger) *Store {
	if logger == nil {
		logger = log.Default()
	}
	doc, err := Load(path)
	observability.Manifest().OnManifestLoad(path, len(doc.Entries), err)
	if err != nil {
		logger.Warn("manifest unreadable, starting empty", "path", path, "err", err)
	}

	s := &Store{
		path:     path,
		declared: declared,
		logger:   logger,
		now:      time.Now,
		ops:      make(chan storeOp),
		done:     make(chan struct{}),
	}
	go s.loop(doc)
	return s
}

// Path returns the manifest file path.
func (s *Store) Path() string { return s.path }

func (s *Store) loop(doc *Manifest) {
	for {
		select {
		case <-s.done:
			return
		case op := <-s.ops:
			op.reply <- s.apply(doc, op)
		}
	}
}

func (s *Store) apply(doc *Manifest, op storeOp) error {
	changed, err := op.apply(doc)
	if err != nil || !changed {
		return err
	}
	if s.declared != nil {
		for _, repo := range doc.Prune(s.declared) {
			s.logger.Debug("dropped dependency-only manifest entry", "repo", repo)
		}
	}
	doc.Recompute(s.now())
	err = Save(s.path, doc)
	observability.Manifest().OnManifestWrite(s.path, len(doc.Entries), err)
	if err != nil {
		s.logger.Error("write manifest", "path", s.path, "err", err)
	}
	return err
}

func (s *Store) do(fn func(m *Manifest) (bool, error)) error {
	select {
	case <-s.done:
		return ErrStoreClosed
	default:
	}
	op := storeOp{apply: fn, reply: make(chan error, 1)}
	select {
	case s.ops <- op:
	case <-s.done:
		return ErrStoreClosed
	}
	return <-op.reply
}

// Snapshot returns a deep copy of the current document.
func (s *Store) Snapshot() *Manifest {
	var snap *Manifest
	if err := s.do(func(m *Manifest) (bool, error) {
		snap = m.Clone()
		return false, nil
	}); err != nil {
		return &Manifest{}
	}
	return snap
}

// UpsertMain records a successfully installed or updated main package.
// See [Manifest.UpsertMain]; the declared flag comes from the run's
// declared set.
func (s *Store) UpsertMain(e Entry) error {
	return s.do(func(m *Manifest) (bool, error) {
		if err := m.UpsertMain(e, s.declared[spec.NormalizeRepo(e.Repo)]); err != nil {
			return false, err
		}
		return true, nil
	})
}

// RemoveEntry deletes the top-level entry for repo.
func (s *Store) RemoveEntry(repo string) error {
	return s.do(func(m *Manifest) (bool, error) {
		return m.RemoveEntry(repo), nil
	})
}

// AddDependencyRef records dep under main's entry, if main has one.
func (s *Store) AddDependencyRef(main, dep string) error {
	return s.do(func(m *Manifest) (bool, error) {
		return m.AddDependencyRef(main, dep), nil
	})
}

// RemoveDependencyRef deletes dep from every entry's dependency list.
func (s *Store) RemoveDependencyRef(dep string) error {
	return s.do(func(m *Manifest) (bool, error) {
		return m.RemoveDependencyRef(dep), nil
	})
}

// Flush prunes, recomputes and writes the document even if nothing
// changed.
func (s *Store) Flush() error {
	return s.do(func(*Manifest) (bool, error) { return true, nil })
}

// Close stops the writer goroutine. Further calls return ErrStoreClosed.
func (s *Store) Close() error {
	s.closeOnce.Do(func() { close(s.done) })
	return nil
}
