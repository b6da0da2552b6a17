package engine

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	v1 "github.com/multiarc/multiarc/apis/v1"
	"github.com/multiarc/multiarc/internal/engine/compress"
	"github.com/multiarc/multiarc/internal/engine/container"
	"github.com/multiarc/multiarc/internal/format"
	"github.com/multiarc/multiarc/internal/selector"
)

// archive builds the requested archive. If dest already holds an archive
// whose member listing matches the fresh selection, nothing is written and
// changed=false is reported.
func (e *Engine) archive(ctx context.Context, logger *zap.Logger, req v1.ArchiveRequest, resolved format.Resolved) (bool, *v1.DiffSummary, error) {
	members, err := selector.Select(e.fs, req.Source, req.Include, req.Exclude)
	if err != nil {
		return false, nil, opErr(KindArchiveWrite, err)
	}
	logger.Debug("selected members", zap.Int("count", len(members)))

	if exists, _ := afero.Exists(e.fs, req.Dest); exists {
		existing, listErr := e.listArchive(req.Dest, resolved)
		if listErr == nil {
			diff := diffListing(existing, members)
			if diff.Added == 0 && diff.Removed == 0 {
				logger.Debug("destination already matches selection, nothing to do")
				return false, nil, nil
			}
			logger.Debug("destination differs from selection",
				zap.Int("added", diff.Added), zap.Int("removed", diff.Removed))
			if buildErr := e.buildArchive(ctx, req.Dest, members, resolved); buildErr != nil {
				return false, nil, buildErr
			}
			return true, &diff, nil
		}
		// An unreadable or corrupt destination is rebuilt rather than
		// trusted.
		logger.Debug("failed to list existing destination, rebuilding", zap.Error(listErr))
	}

	if err := e.buildArchive(ctx, req.Dest, members, resolved); err != nil {
		return false, nil, err
	}
	return true, &v1.DiffSummary{Added: len(members)}, nil
}

// buildArchive writes the container to a temporary sibling of dest and
// renames it into place on success. On any error the temporary file is
// removed and dest is left untouched.
func (e *Engine) buildArchive(ctx context.Context, dest string, members selector.MemberSet, resolved format.Resolved) error {
	dir := filepath.Dir(dest)
	if err := e.fs.MkdirAll(dir, 0o755); err != nil {
		return opErr(KindArchiveWrite, fmt.Errorf("failed to create destination directory %s: %w", dir, err))
	}

	tmp, err := afero.TempFile(e.fs, dir, "."+filepath.Base(dest)+".tmp-")
	if err != nil {
		return opErr(KindArchiveWrite, fmt.Errorf("failed to create temporary archive: %w", err))
	}
	tmpName := tmp.Name()

	if err := e.writeContainer(ctx, tmp, members, resolved); err != nil {
		_ = tmp.Close()
		_ = e.fs.Remove(tmpName)
		return opErr(KindArchiveWrite, err)
	}

	if err := tmp.Close(); err != nil {
		_ = e.fs.Remove(tmpName)
		return opErr(KindArchiveWrite, fmt.Errorf("failed to close temporary archive: %w", err))
	}

	if err := e.fs.Rename(tmpName, dest); err != nil {
		_ = e.fs.Remove(tmpName)
		return opErr(KindArchiveWrite, fmt.Errorf("failed to move archive into place: %w", err))
	}
	return nil
}

// writeContainer streams members into w. For tar containers compression
// wraps the whole byte-stream; zip compresses per entry internally.
func (e *Engine) writeContainer(ctx context.Context, w io.Writer, members selector.MemberSet, resolved format.Resolved) error {
	if resolved.Container == format.ContainerZip {
		return container.WriteZip(ctx, e.fs, members, w, resolved.Method)
	}

	cw, err := compress.NewWriter(w, resolved.Method)
	if err != nil {
		return err
	}
	if err := container.WriteTar(ctx, e.fs, members, cw); err != nil {
		_ = cw.Close()
		return err
	}
	if err := cw.Close(); err != nil {
		return fmt.Errorf("failed to finalize compressed stream: %w", err)
	}
	return nil
}

// listArchive reads the member listing of an existing archive. Zip listings
// come from the central directory without decompressing entries; tar
// listings read through the decompressed stream.
func (e *Engine) listArchive(path string, resolved format.Resolved) (entries []container.Entry, err error) {
	f, err := e.fs.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open archive %s: %w", path, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if resolved.Container == format.ContainerZip {
		info, statErr := f.Stat()
		if statErr != nil {
			return nil, fmt.Errorf("failed to stat archive %s: %w", path, statErr)
		}
		return container.ListZip(f, info.Size())
	}

	cr, err := compress.NewReader(f, resolved.Method)
	if err != nil {
		return nil, err
	}
	defer func() {
		err = errors.Join(err, cr.Close())
	}()

	return container.ListTar(cr)
}

// diffListing compares an existing archive listing against the fresh member
// selection by relative path, type, and (for regular files) size.
// Modification times are deliberately not compared; a content change that
// keeps path and size identical is not detected.
func diffListing(existing []container.Entry, members selector.MemberSet) v1.DiffSummary {
	type key struct {
		path  string
		isDir bool
		size  int64
	}

	have := make(map[key]struct{}, len(existing))
	for _, entry := range existing {
		k := key{path: entry.Path, isDir: entry.IsDir}
		if !entry.IsDir {
			k.size = entry.Size
		}
		have[k] = struct{}{}
	}

	var diff v1.DiffSummary
	want := make(map[key]struct{}, len(members))
	for _, member := range members {
		k := key{path: member.RelPath, isDir: member.IsDir}
		if !member.IsDir {
			k.size = member.Size
		}
		want[k] = struct{}{}
		if _, ok := have[k]; !ok {
			diff.Added++
		}
	}
	for k := range have {
		if _, ok := want[k]; !ok {
			diff.Removed++
		}
	}
	return diff
}
