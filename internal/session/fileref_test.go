package session

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestFileRefFromPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "notes.txt")
	require.NoError(t, os.WriteFile(path, []byte("some notes"), 0644))

	ref, err := FileRefFromPath(path)

	require.NoError(t, err)
	require.Equal(t, "notes.txt", ref.Name)
	require.Equal(t, int64(10), ref.SizeBytes)
	require.True(t, strings.HasPrefix(ref.MimeType, "text/plain"))
	require.Empty(t, ref.PreviewURL)
}

func TestFileRefFromPathSmallImageGetsPreview(t *testing.T) {
	path := filepath.Join(t.TempDir(), "pic.png")
	require.NoError(t, os.WriteFile(path, []byte{0x89, 'P', 'N', 'G'}, 0644))

	ref, err := FileRefFromPath(path)

	require.NoError(t, err)
	require.Equal(t, "image/png", ref.MimeType)
	require.True(t, strings.HasPrefix(ref.PreviewURL, "data:image/png;base64,"))
}

func TestFileRefFromPathMissingFile(t *testing.T) {
	_, err := FileRefFromPath(filepath.Join(t.TempDir(), "missing.txt"))

	require.Error(t, err)
}

func TestFileRefFromPathDirectory(t *testing.T) {
	_, err := FileRefFromPath(t.TempDir())

	require.Error(t, err)
}

func TestNewMessageIDsAreUnique(t *testing.T) {
	a := NewMessage(RoleUser, "a", nil)
	b := NewMessage(RoleUser, "b", nil)

	require.NotEqual(t, a.ID, b.ID)
	require.False(t, b.Timestamp.Before(a.Timestamp))
}
