// Package selector walks a source tree and produces the ordered set of
// members to archive, applying include/exclude glob filters.
package selector

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/spf13/afero"
)

// Member is one filesystem entry surviving filtering, identified by its path
// relative to the archive root.
type Member struct {
	// RelPath uses forward slashes, as stored in the archive.
	RelPath string
	AbsPath string
	IsDir   bool
	Size    int64
	Mode    os.FileMode
	ModTime time.Time
}

// MemberSet is ordered lexicographically by relative path so repeated runs
// over identical inputs produce byte-identical archives where the format
// permits it.
type MemberSet []Member

// ValidatePatterns checks that every pattern is a valid doublestar glob. The
// label (e.g. "include" or "exclude") is used in error messages.
func ValidatePatterns(patterns []string, label string) error {
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return fmt.Errorf("invalid %s pattern %q", label, pattern)
		}
	}
	return nil
}

// matches tests a pattern set against both the slash-relative path and the
// base filename, so "*.ini" matches at any nesting depth.
func matches(patterns []string, relPath string) bool {
	base := filepath.Base(relPath)
	for _, pattern := range patterns {
		if ok, err := doublestar.Match(pattern, relPath); err == nil && ok {
			return true
		}
		if ok, err := doublestar.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// Select walks source and returns the members passing the filters. A single
// file source yields that one file relative to its own parent. An empty
// include set matches everything; an empty exclude set removes nothing. An
// empty result is not an error.
func Select(fsys afero.Fs, source string, include, exclude []string) (MemberSet, error) {
	info, err := fsys.Stat(source)
	if err != nil {
		return nil, fmt.Errorf("failed to stat source %s: %w", source, err)
	}

	if !info.IsDir() {
		member := Member{
			RelPath: filepath.Base(source),
			AbsPath: source,
			Size:    info.Size(),
			Mode:    info.Mode(),
			ModTime: info.ModTime(),
		}
		if !selected(member.RelPath, include, exclude) {
			return MemberSet{}, nil
		}
		return MemberSet{member}, nil
	}

	var members MemberSet
	err = afero.Walk(fsys, source, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if path == source {
			return nil
		}

		rel, err := filepath.Rel(source, path)
		if err != nil {
			return fmt.Errorf("failed to relativize %s: %w", path, err)
		}
		rel = filepath.ToSlash(rel)

		// An excluded directory prunes its whole subtree.
		if info.IsDir() && matches(exclude, rel) {
			return filepath.SkipDir
		}

		if !selected(rel, include, exclude) {
			return nil
		}

		members = append(members, Member{
			RelPath: rel,
			AbsPath: path,
			IsDir:   info.IsDir(),
			Size:    info.Size(),
			Mode:    info.Mode(),
			ModTime: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to walk source %s: %w", source, err)
	}

	return members, nil
}

// selected applies the inclusion policy: (include empty OR matched) AND not
// excluded. Directories are traversed regardless; this only decides whether
// the entry itself is archived.
func selected(relPath string, include, exclude []string) bool {
	if matches(exclude, relPath) {
		return false
	}
	if len(include) == 0 {
		return true
	}
	return matches(include, relPath)
}
