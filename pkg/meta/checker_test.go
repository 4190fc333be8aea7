package meta

import (
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/vuestories/pkg/errs"
	"github.com/gnana997/vuestories/pkg/util"
)

func writeFile(t *testing.T, path, content string) string {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func newChecker(t *testing.T, tsconfig string) *Checker {
	t.Helper()
	files := util.NewFileCache(nil)
	t.Cleanup(func() { _ = files.Close() })
	return NewChecker(newParserManager(t), files, CheckerConfig{TSConfigPath: tsconfig}, nil)
}

const buttonSource = `<script setup lang="ts">
defineProps<{ label: string }>()
</script>
`

func TestChecker_GetMetaAndCache(t *testing.T) {
	dir := t.TempDir()
	tsconfig := writeFile(t, filepath.Join(dir, "tsconfig.app.json"), `{
  // JSONC is accepted
  "include": ["src/**/*", "src/**/*.vue",],
}`)
	button := writeFile(t, filepath.Join(dir, "src", "Button.vue"), buttonSource)

	c := newChecker(t, tsconfig)

	m, err := c.GetMeta(button, "default")
	require.NoError(t, err)
	require.Len(t, m.Props, 1)
	assert.Equal(t, "label", m.Props[0].Name)

	again, err := c.GetMeta(button+"?vue&type=script", "default")
	require.NoError(t, err)
	assert.Same(t, m, again)

	stats := c.Stats()
	assert.Equal(t, int64(1), stats.Hits)
	assert.Equal(t, int64(1), stats.Misses)
	assert.Equal(t, 1, stats.Cached)
}

func TestChecker_OutsideProject(t *testing.T) {
	dir := t.TempDir()
	tsconfig := writeFile(t, filepath.Join(dir, "tsconfig.json"), `{"include": ["src"]}`)
	other := writeFile(t, filepath.Join(dir, "lib", "Other.vue"), buttonSource)
	vendored := writeFile(t, filepath.Join(dir, "src", "node_modules", "x", "X.vue"), buttonSource)

	c := newChecker(t, tsconfig)

	m, err := c.GetMeta(other, "default")
	require.NoError(t, err)
	assert.True(t, m.Empty())

	m, err = c.GetMeta(vendored, "default")
	require.NoError(t, err)
	assert.True(t, m.Empty())
}

func TestChecker_FollowsReferences(t *testing.T) {
	dir := t.TempDir()
	tsconfig := writeFile(t, filepath.Join(dir, "tsconfig.json"), `{
  "files": [],
  "references": [{ "path": "./tsconfig.app.json" }]
}`)
	writeFile(t, filepath.Join(dir, "tsconfig.app.json"), `{"include": ["src/**/*.vue"]}`)
	button := writeFile(t, filepath.Join(dir, "src", "Button.vue"), buttonSource)

	c := newChecker(t, tsconfig)

	m, err := c.GetMeta(button, "")
	require.NoError(t, err)
	assert.Len(t, m.Props, 1)
}

func TestChecker_NamedExportHasNoMeta(t *testing.T) {
	dir := t.TempDir()
	tsconfig := writeFile(t, filepath.Join(dir, "tsconfig.json"), `{}`)
	button := writeFile(t, filepath.Join(dir, "Button.vue"), buttonSource)

	m, err := newChecker(t, tsconfig).GetMeta(button, "Other")
	require.NoError(t, err)
	assert.True(t, m.Empty())
}

func TestChecker_InitErrorIsConfigurationError(t *testing.T) {
	c := newChecker(t, filepath.Join(t.TempDir(), "missing.json"))

	_, err := c.GetMeta("Button.vue", "default")
	var cfgErr *errs.ConfigurationError
	require.True(t, errors.As(err, &cfgErr))

	// The failure is sticky.
	assert.Equal(t, err, c.Init())
}

func TestChecker_ConcurrentInit(t *testing.T) {
	dir := t.TempDir()
	tsconfig := writeFile(t, filepath.Join(dir, "tsconfig.json"), `{}`)
	button := writeFile(t, filepath.Join(dir, "Button.vue"), buttonSource)

	c := newChecker(t, tsconfig)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m, err := c.GetMeta(button, "default")
			assert.NoError(t, err)
			assert.Len(t, m.Props, 1)
		}()
	}
	wg.Wait()
}

func TestStatic(t *testing.T) {
	s := Static{"a.vue": {Props: []PropMeta{{Name: "x"}}}}

	m, err := s.GetMeta("a.vue", "default")
	require.NoError(t, err)
	assert.Len(t, m.Props, 1)

	m, err = s.GetMeta("b.vue", "default")
	require.NoError(t, err)
	assert.True(t, m.Empty())
}
