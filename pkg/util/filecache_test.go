package util

import (
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestFileCache_ReadAndHit(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "Button.vue", "<script setup>\nconst a = 1\n</script>\n")

	fc := NewFileCache(nil)
	defer fc.Close()

	content, err := fc.ReadString(path)
	require.NoError(t, err)
	assert.Equal(t, "<script setup>\nconst a = 1\n</script>\n", content)

	_, err = fc.Get(path)
	require.NoError(t, err)

	stats := fc.Stats()
	assert.Equal(t, int64(1), stats.FilesLoaded)
	assert.Equal(t, int64(1), stats.CacheHits)
	assert.Equal(t, 1, stats.FilesCached)
}

func TestFileCache_ReloadsChangedFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "Card.vue", "one")

	fc := NewFileCache(nil)
	defer fc.Close()

	content, err := fc.ReadString(path)
	require.NoError(t, err)
	assert.Equal(t, "one", content)

	require.NoError(t, os.WriteFile(path, []byte("two, longer"), 0644))
	future := time.Now().Add(2 * time.Second)
	require.NoError(t, os.Chtimes(path, future, future))

	content, err = fc.ReadString(path)
	require.NoError(t, err)
	assert.Equal(t, "two, longer", content)
	assert.Equal(t, int64(1), fc.Stats().Reloads)
}

func TestFileCache_EmptyFile(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "Empty.vue", "")

	fc := NewFileCache(nil)
	defer fc.Close()

	content, err := fc.ReadString(path)
	require.NoError(t, err)
	assert.Equal(t, "", content)
}

func TestFileCache_MaxFiles(t *testing.T) {
	dir := t.TempDir()
	a := writeTestFile(t, dir, "A.vue", "a")
	b := writeTestFile(t, dir, "B.vue", "b")

	fc := NewFileCache(&FileCacheConfig{MaxFiles: 1})
	defer fc.Close()

	_, err := fc.Get(a)
	require.NoError(t, err)
	_, err = fc.Get(b)
	assert.ErrorContains(t, err, "limit reached")

	require.NoError(t, fc.Invalidate(a))
	assert.Equal(t, 0, fc.Size())
	_, err = fc.Get(b)
	assert.NoError(t, err)
}

func TestFileCache_Missing(t *testing.T) {
	fc := NewFileCache(nil)
	defer fc.Close()

	_, err := fc.Get(filepath.Join(t.TempDir(), "missing.vue"))
	assert.Error(t, err)
	assert.NoError(t, fc.Invalidate("missing.vue"))
}

func TestFileCache_ConcurrentAccess(t *testing.T) {
	dir := t.TempDir()
	path := writeTestFile(t, dir, "Shared.vue", "shared")

	fc := NewFileCache(nil)
	defer fc.Close()

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			content, err := fc.ReadString(path)
			assert.NoError(t, err)
			assert.Equal(t, "shared", content)
		}()
	}
	wg.Wait()
	assert.Equal(t, int64(1), fc.Stats().FilesLoaded)
}
