package upload

import (
	"context"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockUploader records uploads for verification.
type mockUploader struct {
	inputs []*s3.PutObjectInput
	bodies []string
	err    error
}

func (m *mockUploader) Upload(_ context.Context, input *s3.PutObjectInput, _ ...func(*manager.Uploader)) (*manager.UploadOutput, error) {
	if m.err != nil {
		return nil, m.err
	}
	body, err := io.ReadAll(input.Body)
	if err != nil {
		return nil, err
	}
	m.inputs = append(m.inputs, input)
	m.bodies = append(m.bodies, string(body))
	return &manager.UploadOutput{}, nil
}

func TestS3Upload(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/backups/www.tar.gz", []byte("archive bytes"), 0o644))

	mock := &mockUploader{}
	s := NewS3WithUploader("my-bucket", "nightly", mock)

	require.NoError(t, s.Upload(t.Context(), fsys, "/backups/www.tar.gz"))

	require.Len(t, mock.inputs, 1)
	assert.Equal(t, "my-bucket", *mock.inputs[0].Bucket)
	assert.Equal(t, "nightly/www.tar.gz", *mock.inputs[0].Key)
	assert.Equal(t, "application/gzip", *mock.inputs[0].ContentType)
	assert.Equal(t, "archive bytes", mock.bodies[0])
}

func TestS3Upload_NoPrefix(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/out.zip", []byte("z"), 0o644))

	mock := &mockUploader{}
	s := NewS3WithUploader("my-bucket", "", mock)

	require.NoError(t, s.Upload(t.Context(), fsys, "/out.zip"))

	require.Len(t, mock.inputs, 1)
	assert.Equal(t, "out.zip", *mock.inputs[0].Key)
	assert.Equal(t, "application/zip", *mock.inputs[0].ContentType)
}

func TestS3Upload_Errors(t *testing.T) {
	fsys := afero.NewMemMapFs()
	require.NoError(t, afero.WriteFile(fsys, "/out.tbz2", []byte("b"), 0o644))

	mock := &mockUploader{err: errors.New("bucket gone")}
	s := NewS3WithUploader("my-bucket", "", mock)

	err := s.Upload(t.Context(), fsys, "/out.tbz2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "s3://my-bucket/out.tbz2")
}

func TestS3Upload_MissingArchive(t *testing.T) {
	s := NewS3WithUploader("my-bucket", "", &mockUploader{})

	err := s.Upload(t.Context(), afero.NewMemMapFs(), "/nope.tar.gz")
	require.Error(t, err)
}

func TestContentTypeForArchive(t *testing.T) {
	tests := map[string]string{
		"a.tar.gz":  "application/gzip",
		"a.tgz":     "application/gzip",
		"a.tar.bz2": "application/x-bzip2",
		"a.tbz":     "application/x-bzip2",
		"a.zip":     "application/zip",
		"a.tar":     "application/x-tar",
		"a.bin":     "application/octet-stream",
	}
	for key, want := range tests {
		assert.Equal(t, want, contentTypeForArchive(key), key)
	}
}
