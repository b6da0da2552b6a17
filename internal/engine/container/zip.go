package container

import (
	"archive/zip"
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/flate"
	"github.com/spf13/afero"

	"github.com/multiarc/multiarc/internal/format"
	"github.com/multiarc/multiarc/internal/selector"
)

// WriteZip streams the selected members into a zip container on w. Zip
// compresses per entry, so method selects between deflate and store for
// every file entry; directory entries are always stored.
func WriteZip(ctx context.Context, fsys afero.Fs, members selector.MemberSet, w io.Writer, method format.Method) error {
	entryMethod := zip.Deflate
	if method == format.MethodStore {
		entryMethod = zip.Store
	}

	zw := zip.NewWriter(w)
	zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, flate.DefaultCompression)
	})

	for _, member := range members {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("archive build cancelled: %w", err)
		}

		header := &zip.FileHeader{
			Name:     member.RelPath,
			Method:   entryMethod,
			Modified: member.ModTime,
		}
		header.SetMode(member.Mode)

		if member.IsDir {
			header.Name += "/"
			header.Method = zip.Store
			if _, err := zw.CreateHeader(header); err != nil {
				return fmt.Errorf("failed to write zip entry for %s: %w", member.RelPath, err)
			}
			continue
		}

		ew, err := zw.CreateHeader(header)
		if err != nil {
			return fmt.Errorf("failed to write zip entry for %s: %w", member.RelPath, err)
		}
		if err := copyFileInto(fsys, member.AbsPath, ew); err != nil {
			return fmt.Errorf("failed to write zip content for %s: %w", member.RelPath, err)
		}
	}

	if err := zw.Close(); err != nil {
		return fmt.Errorf("failed to close zip writer: %w", err)
	}
	return nil
}

// ListZip returns the members of a zip archive. Zip carries a central
// directory, so listing never decompresses entry data.
func ListZip(r io.ReaderAt, size int64) ([]Entry, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open zip archive: %w", err)
	}

	entries := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			entries = append(entries, Entry{Path: normalize(f.Name), IsDir: true})
			continue
		}
		entries = append(entries, Entry{Path: normalize(f.Name), Size: int64(f.UncompressedSize64)})
	}
	return entries, nil
}

// ExtractZip unpacks a zip archive under dest, reconstructing directories and
// overwriting existing files. Members resolving outside dest fail with
// ErrPathTraversal before anything is written for them.
func ExtractZip(ctx context.Context, fsys afero.Fs, r io.ReaderAt, size int64, dest string) error {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return fmt.Errorf("failed to open zip archive: %w", err)
	}

	for _, f := range zr.File {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("extraction cancelled: %w", err)
		}

		target, err := secureJoin(dest, f.Name)
		if err != nil {
			return err
		}

		if f.FileInfo().IsDir() {
			if err := fsys.MkdirAll(target, f.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
			continue
		}

		if err := extractZipFile(fsys, f, target); err != nil {
			return fmt.Errorf("failed to extract %s: %w", f.Name, err)
		}
	}
	return nil
}

func extractZipFile(fsys afero.Fs, f *zip.File, target string) (err error) {
	rc, err := f.Open()
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, rc.Close())
	}()

	return writeFile(fsys, target, rc, f.FileInfo().Mode().Perm())
}
