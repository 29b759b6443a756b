package source

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Test Plan for the source reader:
// - Line/column computed from byte offsets (1-based, byte columns)
// - LineStart and LineRange for 1-based lines
// - Snippet expands a byte range to full trimmed lines
// - Cache serves repeated reads; Invalidate drops stale content

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "sample.kt")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestReader_LineCol(t *testing.T) {
	t.Parallel()

	r, err := NewReader()
	require.NoError(t, err)
	defer r.Close()

	path := writeTemp(t, "first\nsecond line\nthird\n")

	line, col, err := r.LineCol(path, 0)
	require.NoError(t, err)
	assert.Equal(t, 1, line)
	assert.Equal(t, 1, col)

	// Offset of "second"
	line, col, err = r.LineCol(path, 6)
	require.NoError(t, err)
	assert.Equal(t, 2, line)
	assert.Equal(t, 1, col)

	// Offset of "line" on line 2
	line, col, err = r.LineCol(path, 13)
	require.NoError(t, err)
	assert.Equal(t, 2, line)
	assert.Equal(t, 8, col)
}

func TestReader_LineStart(t *testing.T) {
	t.Parallel()

	r, err := NewReader()
	require.NoError(t, err)
	defer r.Close()

	path := writeTemp(t, "first\nsecond\nthird")

	off, err := r.LineStart(path, 1)
	require.NoError(t, err)
	assert.Equal(t, 0, off)

	off, err = r.LineStart(path, 3)
	require.NoError(t, err)
	assert.Equal(t, 13, off)

	// Past the end clamps to file size.
	off, err = r.LineStart(path, 99)
	require.NoError(t, err)
	assert.Equal(t, 18, off)
}

func TestReader_Snippet(t *testing.T) {
	t.Parallel()

	r, err := NewReader()
	require.NoError(t, err)
	defer r.Close()

	path := writeTemp(t, "val a = 1\n    val user = service.getUser(id)\nval b = 2\n")

	// Range inside line 2 expands to the whole trimmed line.
	snippet, err := r.Snippet(path, 27, 34)
	require.NoError(t, err)
	assert.Equal(t, "val user = service.getUser(id)", snippet)
}

func TestReader_Invalidate(t *testing.T) {
	t.Parallel()

	r, err := NewReader()
	require.NoError(t, err)
	defer r.Close()

	path := writeTemp(t, "old content")
	data, err := r.Bytes(path)
	require.NoError(t, err)
	assert.Equal(t, "old content", string(data))

	require.NoError(t, os.WriteFile(path, []byte("new content"), 0o644))
	r.Invalidate()

	data, err = r.Bytes(path)
	require.NoError(t, err)
	assert.Equal(t, "new content", string(data))
}

func TestReader_MissingFile(t *testing.T) {
	t.Parallel()

	r, err := NewReader()
	require.NoError(t, err)
	defer r.Close()

	_, _, err = r.LineCol(filepath.Join(t.TempDir(), "nope.kt"), 0)
	assert.Error(t, err)
}
