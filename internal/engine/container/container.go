// Package container reads and writes the structural archive layouts (tar and
// zip). Compression of tar streams happens outside this package; zip entries
// are compressed here with the format's native per-entry mechanism.
package container

import "errors"

// ErrPathTraversal reports an archive member whose relative path resolves
// outside the extraction root.
var ErrPathTraversal = errors.New("archive member escapes destination")

// Entry is one member of an existing archive, normalized for listing
// comparisons: slash-separated path without trailing slash.
type Entry struct {
	Path  string
	Size  int64
	IsDir bool
}
