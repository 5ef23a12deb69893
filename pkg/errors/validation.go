package errors

import (
	"regexp"
	"strings"
	"unicode"
)

// repoKeyRegex matches a normalized repository key ("owner/name", optionally
// with nested groups as used by some hosts).
var repoKeyRegex = regexp.MustCompile(`^[A-Za-z0-9_.-]+(/[A-Za-z0-9_.-]+)+$`)

// ValidateRepo validates a normalized repository key for safety and correctness.
// The key doubles as a path component on disk, so it rejects anything that
// could escape the install root.
//
// The validation rules are intentionally conservative:
//   - No empty keys
//   - No control characters
//   - No path traversal sequences (.., //, etc.)
//   - Maximum length of 256 characters
//   - At least one "/" separating owner and name
func ValidateRepo(repo string) error {
	if repo == "" {
		return New(ErrCodeInvalidRepo, "repository cannot be empty")
	}

	if len(repo) > 256 {
		return New(ErrCodeInvalidRepo, "repository too long (max 256 characters)")
	}

	for _, r := range repo {
		if unicode.IsControl(r) {
			return New(ErrCodeInvalidRepo, "repository contains invalid control characters")
		}
	}

	dangerousPatterns := []string{
		"..",   // Parent directory
		"//",   // Double slash
		"\x00", // Null byte
		"\\",   // Backslash (Windows path)
	}

	for _, pattern := range dangerousPatterns {
		if strings.Contains(repo, pattern) {
			return New(ErrCodeInvalidRepo, "repository contains invalid characters: %q", pattern)
		}
	}

	if !repoKeyRegex.MatchString(repo) {
		return New(ErrCodeInvalidRepo, "repository must look like owner/name: %q", repo)
	}

	return nil
}

// ValidateRef validates a branch or tag name before it is handed to git.
// Empty refs are valid and mean "use the remote default".
func ValidateRef(ref string) error {
	if ref == "" {
		return nil
	}
	if strings.HasPrefix(ref, "-") {
		return New(ErrCodeInvalidRepo, "ref cannot start with '-': %q", ref)
	}
	for _, r := range ref {
		if unicode.IsControl(r) || unicode.IsSpace(r) {
			return New(ErrCodeInvalidRepo, "ref contains invalid characters: %q", ref)
		}
	}
	if strings.Contains(ref, "..") {
		return New(ErrCodeInvalidRepo, "ref cannot contain '..': %q", ref)
	}
	return nil
}

// ValidatePath validates a directory name inside the install root.
//
// Validation rules:
//   - Path cannot be empty
//   - Maximum length of 500 characters
//   - No null bytes or control characters
//   - No absolute paths (must be relative)
//   - No path traversal sequences (..)
//   - No backslashes (Windows-style paths)
func ValidatePath(path string) error {
	if path == "" {
		return New(ErrCodeInvalidPath, "path cannot be empty")
	}

	const maxPathLength = 500
	if len(path) > maxPathLength {
		return New(ErrCodeInvalidPath, "path too long (max %d characters)", maxPathLength)
	}

	for _, r := range path {
		if r == '\x00' || unicode.IsControl(r) {
			return New(ErrCodeInvalidPath, "path contains invalid characters")
		}
	}

	if strings.HasPrefix(path, "/") {
		return New(ErrCodeInvalidPath, "path must be relative (cannot start with /)")
	}

	if strings.Contains(path, "..") {
		return New(ErrCodeInvalidPath, "path cannot contain path traversal sequences (..)")
	}

	if strings.Contains(path, "\\") {
		return New(ErrCodeInvalidPath, "path cannot contain backslashes")
	}

	return nil
}
