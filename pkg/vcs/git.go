// Package vcs drives the git binary on behalf of the install pipeline.
//
// Every git invocation goes through a [Runner], so tests can substitute a
// fake that records commands. The command sequences for cloning and
// updating are chosen from the [Op] variants; each variant has exactly one
// builder function.
package vcs

import (
	"context"
	"strconv"
	"strings"
	"unicode/utf8"

	perrors "github.com/matzehuels/plugtower/pkg/errors"
)

// DefaultMessageLimit is the diagnostic length used when Git.MessageLimit
// is not positive.
const DefaultMessageLimit = 512

// Git runs git and post-install commands through a Runner.
type Git struct {
	Runner       Runner
	MessageLimit int
}

// New returns a Git using r. A nil r uses ExecRunner.
func New(r Runner, messageLimit int) *Git {
	if r == nil {
		r = ExecRunner{}
	}
	return &Git{Runner: r, MessageLimit: messageLimit}
}

// Clone clones url into dir, restricted to tag or branch when set.
func (g *Git) Clone(ctx context.Context, url, dir, branch, tag string) error {
	op := SelectClone(branch, tag)
	return g.sequence(ctx, Commands(op, Request{URL: url, Dir: dir, Branch: branch, Tag: tag}))
}

// Sync updates an existing clone in place: a tag checkout when tag is set,
// a branch checkout when branch is set, a fast-forward pull otherwise.
func (g *Git) Sync(ctx context.Context, dir, branch, tag string) error {
	op := SelectUpdate(branch, tag)
	return g.sequence(ctx, Commands(op, Request{Dir: dir, Branch: branch, Tag: tag}))
}

// Behind fetches and returns how many upstream commits the current branch
// is missing.
func (g *Git) Behind(ctx context.Context, dir string) (int, error) {
	if _, err := g.run(ctx, "", "git", "-C", dir, "fetch", "--quiet"); err != nil {
		return 0, err
	}
	out, err := g.run(ctx, "", "git", "-C", dir, "rev-list", "--count", "HEAD..@{upstream}")
	if err != nil {
		return 0, err
	}
	n, err := strconv.Atoi(strings.TrimSpace(out))
	if err != nil {
		return 0, perrors.Wrap(perrors.ErrCodeProcessFailure, err, "unexpected rev-list output %q", g.truncate(out))
	}
	return n, nil
}

// RunPostInstall runs cmds with sh in dir, in order, stopping at the first
// failure. The error names the failing command.
func (g *Git) RunPostInstall(ctx context.Context, dir string, cmds []string) error {
	for _, c := range cmds {
		out, err := g.Runner.Run(ctx, dir, "sh", "-c", c)
		if err != nil {
			if perrors.Is(err, perrors.ErrCodeAborted) {
				return err
			}
			return perrors.Wrap(perrors.ErrCodeProcessFailure, err,
				"post-install %q failed: %s", c, g.truncate(out))
		}
	}
	return nil
}

func (g *Git) sequence(ctx context.Context, cmds [][]string) error {
	for _, argv := range cmds {
		if _, err := g.run(ctx, "", argv...); err != nil {
			return err
		}
	}
	return nil
}

func (g *Git) run(ctx context.Context, dir string, argv ...string) (string, error) {
	out, err := g.Runner.Run(ctx, dir, argv...)
	if err == nil {
		return out, nil
	}
	if perrors.Is(err, perrors.ErrCodeAborted) {
		return out, err
	}
	name := strings.Join(argv[:min(len(argv), 2)], " ")
	if len(argv) > 3 && argv[1] == "-C" {
		name = "git " + argv[3]
	}
	msg := g.truncate(out)
	if msg == "" {
		msg = perrors.UserMessage(err)
	}
	return out, perrors.Wrap(perrors.ErrCodeProcessFailure, err, "%s failed: %s", name, msg)
}

func (g *Git) truncate(s string) string {
	limit := g.MessageLimit
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	return Truncate(s, limit)
}

// Truncate shortens s to at most n runes, marking the cut with "...".
func Truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if n <= 0 || utf8.RuneCountInString(s) <= n {
		return s
	}
	if n <= 3 {
		return string([]rune(s)[:n])
	}
	return string([]rune(s)[:n-3]) + "..."
}

// FailureMessage returns the bounded diagnostic for err, without the
// wrapped cause chain.
func FailureMessage(err error, limit int) string {
	if limit <= 0 {
		limit = DefaultMessageLimit
	}
	return Truncate(perrors.UserMessage(err), limit)
}
