package uploads

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAllowed(t *testing.T) {
	tests := []struct {
		filename string
		want     bool
	}{
		{"sunset.jpg", true},
		{"sunset.JPEG", true},
		{"sunset.png", true},
		{"sunset.webp", true},
		{"sunset.gif", false},
		{"sunset.jpg.exe", false},
		{"jpg", false},
		{"", false},
	}
	for _, tt := range tests {
		t.Run(tt.filename, func(t *testing.T) {
			assert.Equal(t, tt.want, Allowed(tt.filename))
		})
	}
}

func TestSave(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, 1024)
	require.NoError(t, err)

	publicPath, err := w.Save("Beach.PNG", strings.NewReader("png-bytes"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(publicPath, PublicPrefix))
	assert.True(t, strings.HasSuffix(publicPath, ".png"))

	data, err := os.ReadFile(filepath.Join(root, "wallpapers", filepath.Base(publicPath)))
	require.NoError(t, err)
	assert.Equal(t, "png-bytes", string(data))

	second, err := w.Save("Beach.PNG", strings.NewReader("other"))
	require.NoError(t, err)
	assert.NotEqual(t, publicPath, second, "every upload gets its own name")
}

func TestSave_Rejects(t *testing.T) {
	root := t.TempDir()
	w, err := New(root, 4)
	require.NoError(t, err)

	_, err = w.Save("notes.txt", strings.NewReader("x"))
	assert.ErrorIs(t, err, ErrUnsupportedType)

	_, err = w.Save("big.jpg", bytes.NewReader([]byte("12345")))
	assert.ErrorIs(t, err, ErrTooLarge)

	entries, err := os.ReadDir(filepath.Join(root, "wallpapers"))
	require.NoError(t, err)
	assert.Empty(t, entries, "rejected uploads must not leave files behind")

	_, err = w.Save("exact.jpg", bytes.NewReader([]byte("1234")))
	assert.NoError(t, err)
}

func TestFileSystem_HidesDirectories(t *testing.T) {
	w, err := New(t.TempDir(), 1024)
	require.NoError(t, err)
	publicPath, err := w.Save("lake.jpg", strings.NewReader("jpg-bytes"))
	require.NoError(t, err)

	fsys := w.FileSystem()
	f, err := fsys.Open(strings.TrimPrefix(publicPath, "/uploads"))
	require.NoError(t, err)
	data, err := io.ReadAll(f)
	require.NoError(t, err)
	assert.Equal(t, "jpg-bytes", string(data))
	require.NoError(t, f.Close())

	for _, dir := range []string{"/", "/wallpapers", "/wallpapers/"} {
		_, err := fsys.Open(dir)
		assert.ErrorIs(t, err, os.ErrNotExist, dir)
	}
}
