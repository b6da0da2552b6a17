package container

import (
	"archive/tar"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/multiarc/multiarc/internal/selector"
)

// WriteTar streams the selected members into a tar container on w, in member
// order. w is expected to be the compression-wrapped stream; this function
// does not close it.
func WriteTar(ctx context.Context, fsys afero.Fs, members selector.MemberSet, w io.Writer) error {
	tw := tar.NewWriter(w)

	for _, member := range members {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("archive build cancelled: %w", err)
		}

		header := &tar.Header{
			Name:    member.RelPath,
			Mode:    int64(member.Mode.Perm()),
			ModTime: member.ModTime,
		}
		if member.IsDir {
			header.Typeflag = tar.TypeDir
			header.Name += "/"
		} else {
			header.Typeflag = tar.TypeReg
			header.Size = member.Size
		}

		if err := tw.WriteHeader(header); err != nil {
			return fmt.Errorf("failed to write tar header for %s: %w", member.RelPath, err)
		}

		if member.IsDir {
			continue
		}

		if err := copyFileInto(fsys, member.AbsPath, tw); err != nil {
			return fmt.Errorf("failed to write tar content for %s: %w", member.RelPath, err)
		}
	}

	if err := tw.Close(); err != nil {
		return fmt.Errorf("failed to close tar writer: %w", err)
	}
	return nil
}

func copyFileInto(fsys afero.Fs, path string, w io.Writer) (err error) {
	f, err := fsys.Open(path)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	_, err = io.Copy(w, f)
	return err
}

// ListTar returns the members of a tar stream. r must already be
// decompressed; tar carries no central directory, so listing reads through
// the whole stream.
func ListTar(r io.Reader) ([]Entry, error) {
	tr := tar.NewReader(r)

	var entries []Entry
	for {
		header, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read tar entry: %w", err)
		}

		switch header.Typeflag {
		case tar.TypeReg:
			entries = append(entries, Entry{Path: normalize(header.Name), Size: header.Size})
		case tar.TypeDir:
			entries = append(entries, Entry{Path: normalize(header.Name), IsDir: true})
		}
	}
	return entries, nil
}

// ExtractTar unpacks a decompressed tar stream under dest, reconstructing
// directories and overwriting existing files. Members resolving outside dest
// fail with ErrPathTraversal before anything is written for them.
func ExtractTar(ctx context.Context, fsys afero.Fs, r io.Reader, dest string) error {
	tr := tar.NewReader(r)

	for {
		if err := ctx.Err(); err != nil {
			return fmt.Errorf("extraction cancelled: %w", err)
		}

		header, err := tr.Next()
		if err == io.EOF {
			return nil
		}
		if err != nil {
			return fmt.Errorf("failed to read tar entry: %w", err)
		}

		target, err := secureJoin(dest, header.Name)
		if err != nil {
			return err
		}

		switch header.Typeflag {
		case tar.TypeDir:
			if err := fsys.MkdirAll(target, header.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("failed to create directory %s: %w", target, err)
			}
		case tar.TypeReg:
			if err := writeFile(fsys, target, tr, header.FileInfo().Mode().Perm()); err != nil {
				return fmt.Errorf("failed to extract %s: %w", header.Name, err)
			}
		default:
			// Links and special files are not reproduced.
			continue
		}
	}
}

// secureJoin resolves an archive member path under dest and rejects members
// escaping it via .. segments or absolute paths.
func secureJoin(dest, name string) (string, error) {
	cleanDest := filepath.Clean(dest)
	target := filepath.Join(cleanDest, filepath.FromSlash(name))
	if target != cleanDest && !strings.HasPrefix(target, cleanDest+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %q", ErrPathTraversal, name)
	}
	return target, nil
}

func writeFile(fsys afero.Fs, target string, r io.Reader, perm os.FileMode) (err error) {
	if dir := filepath.Dir(target); dir != "" && dir != "." {
		if err := fsys.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	f, err := fsys.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, perm)
	if err != nil {
		return err
	}
	defer func() {
		err = errors.Join(err, f.Close())
	}()

	_, err = io.Copy(f, r)
	return err
}

func normalize(name string) string {
	return strings.TrimSuffix(filepath.ToSlash(name), "/")
}
