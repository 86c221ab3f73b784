package tools

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/m4xw311/askai/errors"
)

// maxSymlinkHops bounds how many links canonicalize follows.
const maxSymlinkHops = 40

// IsPathAllowed reports whether path is equal to, or a descendant of, one of
// dirs. Both sides are canonicalised first, so "a/../../etc" style
// traversal is resolved before the comparison.
func IsPathAllowed(path string, dirs []string) bool {
	if path == "" {
		return false
	}
	target, err := canonicalize(path)
	if err != nil {
		return false
	}
	for _, dir := range dirs {
		if dir == "" {
			continue
		}
		root, err := canonicalize(dir)
		if err != nil {
			continue
		}
		if isWithin(root, target) {
			return true
		}
	}
	return false
}

// IsCommandAllowed reports whether commandLine is free of every blocked
// substring, compared case-insensitively.
//
// This is a block-list, not a shell parser: an equivalent command spelled
// differently (another flag order, an alias, a variable) is not caught.
func IsCommandAllowed(commandLine string, blocked []string) bool {
	lower := strings.ToLower(commandLine)
	for _, b := range blocked {
		if b == "" {
			continue
		}
		if strings.Contains(lower, strings.ToLower(b)) {
			return false
		}
	}
	return true
}

// IsPathHidden reports whether the canonical path matches any doublestar
// pattern.
func IsPathHidden(path string, patterns []string) (bool, error) {
	target, err := canonicalize(path)
	if err != nil {
		return false, err
	}
	return isPathRestricted(target, patterns)
}

// canonicalize returns the absolute, cleaned form of path with symlinks in
// its deepest existing ancestor resolved. Paths that do not exist yet (a
// file about to be written) keep their missing tail verbatim. A dangling
// symlink resolves to the path it points at.
func canonicalize(path string) (string, error) {
	return resolvePath(path, 0)
}

func resolvePath(path string, hops int) (string, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return "", err
	}
	existing := abs
	var rest []string
	for {
		if _, err := os.Lstat(existing); err == nil {
			break
		}
		parent := filepath.Dir(existing)
		if parent == existing {
			return abs, nil
		}
		rest = append([]string{filepath.Base(existing)}, rest...)
		existing = parent
	}
	resolved, err := filepath.EvalSymlinks(existing)
	if err != nil {
		if resolved, err = followDangling(existing, hops, err); err != nil {
			return "", err
		}
	}
	return filepath.Join(append([]string{resolved}, rest...)...), nil
}

// followDangling resolves link when its target is missing. Other
// resolution failures return evalErr.
func followDangling(link string, hops int, evalErr error) (string, error) {
	info, err := os.Lstat(link)
	if err != nil || info.Mode()&os.ModeSymlink == 0 {
		return "", evalErr
	}
	if hops >= maxSymlinkHops {
		return "", errors.New("too many levels of symbolic links: %s", link)
	}
	target, err := os.Readlink(link)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read symlink %s", link)
	}
	if !filepath.IsAbs(target) {
		target = filepath.Join(filepath.Dir(link), target)
	}
	return resolvePath(target, hops+1)
}

func isWithin(root, target string) bool {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return false
	}
	if rel == "." {
		return true
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}
