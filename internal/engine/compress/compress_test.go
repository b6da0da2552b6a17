package compress

import (
	"bytes"
	stdgzip "compress/gzip"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/multiarc/multiarc/internal/format"
)

func roundTrip(t *testing.T, method format.Method, payload string) string {
	t.Helper()

	var buf bytes.Buffer
	w, err := NewWriter(&buf, method)
	require.NoError(t, err)
	_, err = io.WriteString(w, payload)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	r, err := NewReader(bytes.NewReader(buf.Bytes()), method)
	require.NoError(t, err)
	defer r.Close()

	out, err := io.ReadAll(r)
	require.NoError(t, err)
	return string(out)
}

func TestRoundTrip(t *testing.T) {
	payload := strings.Repeat("archive engine round trip payload\n", 64)

	for _, method := range []format.Method{
		format.MethodNone,
		format.MethodGzip,
		format.MethodPigz,
		format.MethodBzip2,
	} {
		t.Run(string(method), func(t *testing.T) {
			assert.Equal(t, payload, roundTrip(t, method, payload))
		})
	}
}

// Pigz output must stay readable by a plain gzip reader, so archives written
// with the parallel encoder remain readable by standard external tools.
func TestPigzOutputIsStandardGzip(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, format.MethodPigz)
	require.NoError(t, err)
	_, err = io.WriteString(w, "parallel gzip payload")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	gr, err := stdgzip.NewReader(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	defer gr.Close()

	out, err := io.ReadAll(gr)
	require.NoError(t, err)
	assert.Equal(t, "parallel gzip payload", string(out))
}

func TestNewWriter_RejectsZipMethods(t *testing.T) {
	var buf bytes.Buffer

	_, err := NewWriter(&buf, format.MethodDeflate)
	require.Error(t, err)

	_, err = NewWriter(&buf, format.MethodStore)
	require.Error(t, err)
}

func TestMethodNoneIsPassthrough(t *testing.T) {
	var buf bytes.Buffer
	w, err := NewWriter(&buf, format.MethodNone)
	require.NoError(t, err)
	_, err = io.WriteString(w, "plain")
	require.NoError(t, err)
	require.NoError(t, w.Close())

	assert.Equal(t, "plain", buf.String())
}
