package format

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name        string
		format      string
		compression string
		want        Resolved
		wantErr     bool
	}{
		{
			name:   "tar.gz default",
			format: "tar.gz",
			want:   Resolved{Name: "tar.gz", Container: ContainerTar, Method: MethodGzip},
		},
		{
			name:        "tar.gz with pigz",
			format:      "tar.gz",
			compression: "pigz",
			want:        Resolved{Name: "tar.gz", Container: ContainerTar, Method: MethodPigz},
		},
		{
			name:        "tar.gz uncompressed",
			format:      "tar.gz",
			compression: "none",
			want:        Resolved{Name: "tar.gz", Container: ContainerTar, Method: MethodNone},
		},
		{
			name:   "tar.bz2 default",
			format: "tar.bz2",
			want:   Resolved{Name: "tar.bz2", Container: ContainerTar, Method: MethodBzip2},
		},
		{
			name:   "zip default",
			format: "zip",
			want:   Resolved{Name: "zip", Container: ContainerZip, Method: MethodDeflate},
		},
		{
			name:        "zip none maps to store",
			format:      "zip",
			compression: "none",
			want:        Resolved{Name: "zip", Container: ContainerZip, Method: MethodStore},
		},
		{
			name:        "zip rejects bzip2",
			format:      "zip",
			compression: "bzip2",
			wantErr:     true,
		},
		{
			name:        "zip rejects pigz",
			format:      "zip",
			compression: "pigz",
			wantErr:     true,
		},
		{
			name:        "tar.bz2 rejects gzip",
			format:      "tar.bz2",
			compression: "gzip",
			wantErr:     true,
		},
		{
			name:        "tar.gz rejects bzip2",
			format:      "tar.gz",
			compression: "bzip2",
			wantErr:     true,
		},
		{
			name:    "unknown format",
			format:  "rar",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.format, tt.compression)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestDetect(t *testing.T) {
	tests := []struct {
		filename string
		want     string
		wantErr  bool
	}{
		{filename: "backup.tar.gz", want: "tar.gz"},
		{filename: "backup.tgz", want: "tar.gz"},
		{filename: "backup.tar.bz2", want: "tar.bz2"},
		{filename: "backup.tbz2", want: "tar.bz2"},
		{filename: "backup.tbz", want: "tar.bz2"},
		{filename: "backup.zip", want: "zip"},
		{filename: "BACKUP.TAR.GZ", want: "tar.gz"},
		{filename: "/var/backups/etc.tar.gz", want: "tar.gz"},
		{filename: "backup.rar", wantErr: true},
		{filename: "backup.gz", wantErr: true},
		{filename: "backup", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			got, err := Detect(tt.filename)
			if tt.wantErr {
				require.ErrorIs(t, err, ErrUnknown)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.Name)
		})
	}
}

func TestDetectMatchesExplicitResolve(t *testing.T) {
	detected, err := Detect("foo.tar.gz")
	require.NoError(t, err)

	explicit, err := Resolve("tar.gz", "")
	require.NoError(t, err)

	assert.Equal(t, explicit, detected)
}

func TestCompatible(t *testing.T) {
	assert.True(t, Compatible("tar.gz", "pigz"))
	assert.True(t, Compatible("zip", "none"))
	assert.False(t, Compatible("zip", "pigz"))
	assert.False(t, Compatible("tar.bz2", "pigz"))
}
