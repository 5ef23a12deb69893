// Package spec defines declared package specifications and the file-based
// spec source that produces them.
//
// A [PackageSpec] is what the user declares: a repository identity, an
// optional branch or tag, the repositories it depends on, and shell commands
// to run after the package is installed or updated. Repository identities
// are normalized with [NormalizeRepo] so that "https://github.com/a/x.git",
// "git@github.com:a/x" and "a/x" all name the same package.
//
// Specs are read from TOML or YAML files with [Load] and [LoadDir]. Entries
// that cannot be parsed are skipped and reported as warnings rather than
// failing the whole run.
package spec

import (
	"path"
	"strings"
)

// PackageSpec is the declared configuration for one package.
type PackageSpec struct {
	Repo        string   // Normalized repository key ("owner/name")
	URL         string   // Explicit clone URL, if the user declared one
	Branch      string   // Optional branch; "main"/"master" mean no explicit branch
	Tag         string   // Optional tag; takes precedence over Branch
	DependsOn   []string // Normalized repository keys this package needs
	PostInstall []string // Shell commands run after install/update, in order
	IsMain      bool     // Declared by the user rather than synthesized as a dependency
}

// Name returns the last segment of the repository key. It is also the
// directory name the package is installed under.
func (s *PackageSpec) Name() string {
	return path.Base(s.Repo)
}

// EffectiveBranch returns the declared branch with the default-branch
// aliases "main" and "master" folded to "".
func (s *PackageSpec) EffectiveBranch() string {
	return NormalizeBranch(s.Branch)
}

// CloneURL returns the URL git should clone from. An explicitly declared URL
// wins; otherwise the repository key is appended to base.
func (s *PackageSpec) CloneURL(base string) string {
	if s.URL != "" {
		return s.URL
	}
	if base == "" {
		base = DefaultBaseURL
	}
	if !strings.HasSuffix(base, "/") && !strings.HasSuffix(base, ":") {
		base += "/"
	}
	return base + s.Repo
}

// Clone returns a deep copy of the spec.
func (s *PackageSpec) Clone() *PackageSpec {
	c := *s
	c.DependsOn = append([]string(nil), s.DependsOn...)
	c.PostInstall = append([]string(nil), s.PostInstall...)
	return &c
}

// DefaultBaseURL is used to build clone URLs for bare "owner/name" keys.
const DefaultBaseURL = "https://github.com/"

// NormalizeBranch folds the default-branch aliases to "".
func NormalizeBranch(branch string) string {
	switch b := strings.TrimSpace(branch); b {
	case "main", "master":
		return ""
	default:
		return b
	}
}

// NormalizeRepo reduces a repository reference to a stable "owner/name" key.
//
// It strips surrounding space, a "#ref" fragment, trailing slashes, a trailing
// ".git", a URL scheme with its host ("https://host/", "ssh://git@host/"),
// scp-style prefixes ("git@host:") and a bare leading host segment
// ("github.com/"). The function is idempotent.
func NormalizeRepo(raw string) string {
	s := strings.TrimSpace(raw)
	if i := strings.Index(s, "#"); i >= 0 {
		s = s[:i]
	}
	s = strings.TrimRight(s, "/")
	s = strings.TrimSuffix(s, ".git")

	if i := strings.Index(s, "://"); i >= 0 {
		s = s[i+3:]
		if j := strings.Index(s, "/"); j >= 0 {
			s = s[j+1:]
		} else {
			s = ""
		}
	} else if at := strings.Index(s, "@"); at >= 0 {
		if colon := strings.Index(s[at:], ":"); colon >= 0 {
			s = s[at+colon+1:]
		}
	}

	if first, rest, ok := strings.Cut(s, "/"); ok && strings.Contains(first, ".") && strings.Contains(rest, "/") {
		s = rest
	}

	s = strings.Trim(s, "/")
	return strings.TrimSuffix(s, ".git")
}

// IsURL reports whether raw is a full clone URL rather than a bare key.
func IsURL(raw string) bool {
	raw = strings.TrimSpace(raw)
	return strings.Contains(raw, "://") || strings.HasPrefix(raw, "git@")
}
