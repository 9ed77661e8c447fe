package logmirror

import (
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClearsRoot(t *testing.T) {
	root := filepath.Join(t.TempDir(), "mirror")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "stale"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "stale", "old.log"), []byte("x"), 0o644))

	m, err := New(root)
	require.NoError(t, err)

	entries, err := os.ReadDir(m.Root())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestNewRejectsBadRoots(t *testing.T) {
	_, err := New("")
	assert.Error(t, err)

	_, err = New(string(filepath.Separator))
	assert.Error(t, err)
}

func TestWrite(t *testing.T) {
	m, err := New(filepath.Join(t.TempDir(), "mirror"))
	require.NoError(t, err)

	require.NoError(t, m.Write("a.txt", "log of a"))
	require.NoError(t, m.Write("sub/deep/b.go", "log of b"))

	got, err := os.ReadFile(filepath.Join(m.Root(), "a.txt.log"))
	require.NoError(t, err)
	assert.Equal(t, "log of a", string(got))

	got, err = os.ReadFile(filepath.Join(m.Root(), "sub", "deep", "b.go.log"))
	require.NoError(t, err)
	assert.Equal(t, "log of b", string(got))
}

func TestWriteRejectsEscapes(t *testing.T) {
	m, err := New(filepath.Join(t.TempDir(), "mirror"))
	require.NoError(t, err)

	for _, p := range []string{"../outside", "/etc/passwd", ""} {
		assert.Error(t, m.Write(p, "x"), p)
	}
}

func TestWriteConcurrent(t *testing.T) {
	m, err := New(filepath.Join(t.TempDir(), "mirror"))
	require.NoError(t, err)

	paths := []string{"a/1.txt", "a/2.txt", "b/1.txt", "b/c/2.txt", "3.txt"}
	var wg sync.WaitGroup
	for _, p := range paths {
		wg.Go(func() {
			assert.NoError(t, m.Write(p, p))
		})
	}
	wg.Wait()

	for _, p := range paths {
		got, err := os.ReadFile(filepath.Join(m.Root(), filepath.FromSlash(p)+Suffix))
		require.NoError(t, err)
		assert.Equal(t, p, string(got))
	}
}
