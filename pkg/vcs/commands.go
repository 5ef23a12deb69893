package vcs

import "fmt"

// Op selects one git command sequence.
type Op int

const (
	CloneDefault Op = iota
	CloneBranch
	CloneTag
	UpdateDefault
	UpdateBranch
	UpdateTag
)

var opNames = [...]string{
	CloneDefault:  "clone",
	CloneBranch:   "clone-branch",
	CloneTag:      "clone-tag",
	UpdateDefault: "pull",
	UpdateBranch:  "checkout-branch",
	UpdateTag:     "checkout-tag",
}

func (o Op) String() string {
	if o >= 0 && int(o) < len(opNames) {
		return opNames[o]
	}
	return fmt.Sprintf("op(%d)", int(o))
}

// Request carries the inputs of a command sequence.
type Request struct {
	URL    string // Clone source
	Dir    string // Package directory
	Branch string // Normalized branch, for CloneBranch and UpdateBranch
	Tag    string // Tag, for CloneTag and UpdateTag
}

type builder func(Request) [][]string

var builders = [...]builder{
	CloneDefault:  cloneDefault,
	CloneBranch:   cloneBranch,
	CloneTag:      cloneTag,
	UpdateDefault: updateDefault,
	UpdateBranch:  updateBranch,
	UpdateTag:     updateTag,
}

// Commands returns the argv lists for op, to be run in order.
func Commands(op Op, req Request) [][]string {
	if op < 0 || int(op) >= len(builders) {
		return nil
	}
	return builders[op](req)
}

// SelectClone picks the clone variant. A tag beats a branch.
func SelectClone(branch, tag string) Op {
	switch {
	case tag != "":
		return CloneTag
	case branch != "":
		return CloneBranch
	default:
		return CloneDefault
	}
}

// SelectUpdate picks the in-place update variant. A tag beats a branch.
func SelectUpdate(branch, tag string) Op {
	switch {
	case tag != "":
		return UpdateTag
	case branch != "":
		return UpdateBranch
	default:
		return UpdateDefault
	}
}

func cloneDefault(r Request) [][]string {
	return [][]string{{"git", "clone", "--depth", "1", r.URL, r.Dir}}
}

func cloneBranch(r Request) [][]string {
	return [][]string{{"git", "clone", "--depth", "1", "--branch", r.Branch, r.URL, r.Dir}}
}

func cloneTag(r Request) [][]string {
	return [][]string{{"git", "clone", "--depth", "1", "--branch", r.Tag, r.URL, r.Dir}}
}

func updateDefault(r Request) [][]string {
	return [][]string{{"git", "-C", r.Dir, "pull", "--ff-only"}}
}

func updateBranch(r Request) [][]string {
	// Shallow clones only track the cloned branch. Adding the branch to the
	// remote's fetch refspec lets --track set an upstream that later fetches
	// keep current.
	return [][]string{
		{"git", "-C", r.Dir, "remote", "set-branches", "--add", "origin", r.Branch},
		{"git", "-C", r.Dir, "fetch", "--depth", "1", "origin", r.Branch + ":refs/remotes/origin/" + r.Branch},
		{"git", "-C", r.Dir, "checkout", "-B", r.Branch, "--track", "origin/" + r.Branch},
	}
}

func updateTag(r Request) [][]string {
	return [][]string{
		{"git", "-C", r.Dir, "fetch", "--depth", "1", "origin", "tag", r.Tag},
		{"git", "-C", r.Dir, "checkout", "--quiet", "tags/" + r.Tag},
	}
}
