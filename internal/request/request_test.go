package request

import (
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	v1 "github.com/multiarc/multiarc/apis/v1"
)

func TestParse(t *testing.T) {
	doc := []byte(`
source: /data/www
dest: /backups/www.tar.gz
format: tar.gz
compression: pigz
state: archived
delete_source: true
exclude:
  - "*.log"
  - "*.tmp"
`)

	req, err := Parse(doc)
	require.NoError(t, err)

	assert.Equal(t, "/data/www", req.Source)
	assert.Equal(t, "/backups/www.tar.gz", req.Dest)
	assert.Equal(t, "tar.gz", req.Format)
	assert.Equal(t, "pigz", req.Compression)
	assert.Equal(t, v1.StateArchived, req.State)
	assert.True(t, req.DeleteSource)
	assert.Equal(t, []string{"*.log", "*.tmp"}, req.Exclude)
}

func TestParse_SchemaViolations(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{name: "missing source", doc: "dest: /x\nstate: archived\n"},
		{name: "missing dest", doc: "source: /x\nstate: archived\n"},
		{name: "missing state", doc: "source: /x\ndest: /y\n"},
		{name: "bad state", doc: "source: /x\ndest: /y\nstate: compressed\n"},
		{name: "bad format", doc: "source: /x\ndest: /y\nstate: archived\nformat: rar\n"},
		{name: "bad compression", doc: "source: /x\ndest: /y\nstate: archived\ncompression: lzma\n"},
		{name: "not yaml", doc: "{{{"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Parse([]byte(tt.doc))
			require.Error(t, err)
		})
	}
}

func TestCheck(t *testing.T) {
	newFs := func(t *testing.T) afero.Fs {
		t.Helper()
		fsys := afero.NewMemMapFs()
		require.NoError(t, afero.WriteFile(fsys, "/src/a.txt", []byte("a"), 0o644))
		require.NoError(t, afero.WriteFile(fsys, "/archives/old.tar.gz", []byte("x"), 0o644))
		return fsys
	}

	tests := []struct {
		name    string
		req     v1.ArchiveRequest
		wantErr string
	}{
		{
			name: "valid archive request",
			req:  v1.ArchiveRequest{Source: "/src", Dest: "/backups/out.tar.gz", State: v1.StateArchived},
		},
		{
			name: "valid unarchive request",
			req:  v1.ArchiveRequest{Source: "/archives/old.tar.gz", Dest: "/restore", State: v1.StateUnarchived},
		},
		{
			name:    "missing source",
			req:     v1.ArchiveRequest{Source: "/nope", Dest: "/out.tar.gz", State: v1.StateArchived},
			wantErr: "does not exist",
		},
		{
			name:    "unarchive source is a directory",
			req:     v1.ArchiveRequest{Source: "/src", Dest: "/restore", State: v1.StateUnarchived},
			wantErr: "must be an archive file",
		},
		{
			name:    "archive dest is a directory",
			req:     v1.ArchiveRequest{Source: "/src", Dest: "/archives", State: v1.StateArchived},
			wantErr: "is a directory",
		},
		{
			name:    "dest parent blocked by file",
			req:     v1.ArchiveRequest{Source: "/src", Dest: "/src/a.txt/out.tar.gz", State: v1.StateArchived},
			wantErr: "not a directory",
		},
		{
			name:    "incompatible pair",
			req:     v1.ArchiveRequest{Source: "/src", Dest: "/out.zip", Format: "zip", Compression: "pigz", State: v1.StateArchived},
			wantErr: "not compatible",
		},
		{
			name:    "malformed include glob",
			req:     v1.ArchiveRequest{Source: "/src", Dest: "/out.tar.gz", Include: []string{"[bad"}, State: v1.StateArchived},
			wantErr: "invalid include pattern",
		},
		{
			name:    "malformed exclude glob",
			req:     v1.ArchiveRequest{Source: "/src", Dest: "/out.tar.gz", Exclude: []string{"[bad"}, State: v1.StateArchived},
			wantErr: "invalid exclude pattern",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Check(newFs(t), tt.req)
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}
