// Package compress wraps writers and readers with the compression method of
// a resolved format. Tar containers pipe their whole byte-stream through
// these; zip handles compression per entry and never reaches this package.
package compress

import (
	"fmt"
	"io"

	"github.com/dsnet/compress/bzip2"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/pgzip"

	"github.com/multiarc/multiarc/internal/format"
)

// NewWriter wraps w with the stream compressor for method. The returned
// writer must be closed before the underlying writer. MethodPigz uses a
// parallel encoder whose output is standard-gzip-readable.
func NewWriter(w io.Writer, method format.Method) (io.WriteCloser, error) {
	switch method {
	case format.MethodNone:
		return &nopWriteCloser{w}, nil
	case format.MethodGzip:
		return gzip.NewWriter(w), nil
	case format.MethodPigz:
		return pgzip.NewWriter(w), nil
	case format.MethodBzip2:
		bw, err := bzip2.NewWriter(w, &bzip2.WriterConfig{Level: bzip2.DefaultCompression})
		if err != nil {
			return nil, fmt.Errorf("failed to create bzip2 writer: %w", err)
		}
		return bw, nil
	default:
		return nil, fmt.Errorf("unsupported stream compression method: %s", method)
	}
}

// NewReader wraps r with the stream decompressor for method. Pigz output is
// standard gzip, so both methods share one reader.
func NewReader(r io.Reader, method format.Method) (io.ReadCloser, error) {
	switch method {
	case format.MethodNone:
		return io.NopCloser(r), nil
	case format.MethodGzip, format.MethodPigz:
		gr, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return gr, nil
	case format.MethodBzip2:
		br, err := bzip2.NewReader(r, nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create bzip2 reader: %w", err)
		}
		return br, nil
	default:
		return nil, fmt.Errorf("unsupported stream decompression method: %s", method)
	}
}

type nopWriteCloser struct {
	io.Writer
}

func (n *nopWriteCloser) Close() error {
	return nil
}
