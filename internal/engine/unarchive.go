package engine

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/spf13/afero"
	"go.uber.org/zap"

	v1 "github.com/multiarc/multiarc/apis/v1"
	"github.com/multiarc/multiarc/internal/engine/compress"
	"github.com/multiarc/multiarc/internal/engine/container"
	"github.com/multiarc/multiarc/internal/format"
)

// unarchive extracts the source archive under dest. If every archive member
// already exists under dest with matching type and size, nothing is written
// and changed=false is reported. Extraction overwrites existing files in
// place and is not rolled back on partial failure; the failure is surfaced
// instead.
func (e *Engine) unarchive(ctx context.Context, logger *zap.Logger, req v1.ArchiveRequest, resolved format.Resolved) (bool, *v1.DiffSummary, error) {
	entries, err := e.listArchive(req.Source, resolved)
	if err != nil {
		return false, nil, opErr(KindArchiveWrite, err)
	}

	if e.treeMatches(req.Dest, entries) {
		logger.Debug("destination tree already matches archive listing")
		return false, nil, nil
	}

	if err := e.fs.MkdirAll(req.Dest, 0o755); err != nil {
		return false, nil, opErr(KindArchiveWrite, fmt.Errorf("failed to create destination %s: %w", req.Dest, err))
	}

	if err := e.extract(ctx, req.Source, req.Dest, resolved); err != nil {
		if errors.Is(err, container.ErrPathTraversal) {
			return false, nil, opErr(KindPathTraversal, err)
		}
		return false, nil, opErr(KindArchiveWrite, err)
	}

	logger.Debug("extracted archive", zap.Int("members", len(entries)))
	return true, &v1.DiffSummary{Added: len(entries)}, nil
}

func (e *Engine) extract(ctx context.Context, source, dest string, resolved format.Resolved) (err error) {
	f, err := e.fs.Open(source)
	if err != nil {
		return fmt.Errorf("failed to open archive %s: %w", source, err)
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	if resolved.Container == format.ContainerZip {
		info, statErr := f.Stat()
		if statErr != nil {
			return fmt.Errorf("failed to stat archive %s: %w", source, statErr)
		}
		return container.ExtractZip(ctx, e.fs, f, info.Size(), dest)
	}

	cr, err := compress.NewReader(f, resolved.Method)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, cr.Close())
	}()

	return container.ExtractTar(ctx, e.fs, cr, dest)
}

// treeMatches reports whether every archive member exists under dest with
// matching type and (for regular files) size. Extra files under dest are
// tolerated: extraction overwrites but never cleans.
func (e *Engine) treeMatches(dest string, entries []container.Entry) bool {
	if exists, err := afero.DirExists(e.fs, dest); err != nil || !exists {
		return false
	}

	for _, entry := range entries {
		info, err := e.fs.Stat(filepath.Join(dest, filepath.FromSlash(entry.Path)))
		if err != nil {
			return false
		}
		if entry.IsDir != info.IsDir() {
			return false
		}
		if !entry.IsDir && info.Size() != entry.Size {
			return false
		}
	}
	return true
}
