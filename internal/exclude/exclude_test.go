package exclude

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew(t *testing.T) {
	path := filepath.Join(t.TempDir(), "exclude.txt")
	content := "# thumbnails\n/thumbs/\n\n  .cache  \n#/raw/\n"
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	l, err := New(path)
	require.NoError(t, err)
	assert.Equal(t, 2, l.Len())

	assert.True(t, l.Contains("/photos/thumbs/a.jpg"))
	assert.True(t, l.Contains("/home/u/.cache/b.png"))
	assert.False(t, l.Contains("/photos/raw/c.jpg"))
}

func TestNewEmptyPath(t *testing.T) {
	l, err := New("")
	require.NoError(t, err)
	assert.Equal(t, 0, l.Len())
	assert.False(t, l.Contains("anything"))
}

func TestNewMissingFile(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing.txt"))
	assert.Error(t, err)
}

func TestNilList(t *testing.T) {
	var l *List
	assert.False(t, l.Contains("x"))
	assert.Equal(t, 0, l.Len())
}
