package nodeworker

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindRuntime(t *testing.T) {
	rt, found := FindRuntime()
	if !found {
		t.Skip("no node or bun runtime available")
	}
	assert.NotEmpty(t, rt)
}

func TestFindUp_Found(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tsconfig.json"), []byte("{}"), 0644))

	path, found := FindUp(dir, "tsconfig.json")
	assert.True(t, found)
	assert.Equal(t, filepath.Join(dir, "tsconfig.json"), path)
}

func TestFindUp_FoundInParent(t *testing.T) {
	parent := t.TempDir()
	child := filepath.Join(parent, "src", "components")
	require.NoError(t, os.MkdirAll(child, 0755))
	require.NoError(t, os.WriteFile(filepath.Join(parent, "package.json"), []byte("{}"), 0644))

	path, found := FindUp(child, "package.json")
	assert.True(t, found)
	assert.Equal(t, filepath.Join(parent, "package.json"), path)
}

func TestFindUp_NotFound(t *testing.T) {
	_, found := FindUp(t.TempDir(), "definitely-not-here.json")
	assert.False(t, found)
}

func TestHasNodeModules(t *testing.T) {
	dir := t.TempDir()
	assert.False(t, HasNodeModules(dir))

	require.NoError(t, os.MkdirAll(filepath.Join(dir, "node_modules"), 0755))
	assert.True(t, HasNodeModules(dir))
}

func TestWorkerCall(t *testing.T) {
	if _, found := FindRuntime(); !found {
		t.Skip("no node or bun runtime available")
	}

	script := []byte(`let data = ''
process.stdin.on('data', (c) => { data += c })
process.stdin.on('end', () => {
  const input = JSON.parse(data)
  process.stdout.write(JSON.stringify({ echo: input.value.toUpperCase() }))
})
`)
	w, err := New("echo", script, t.TempDir(), nil)
	require.NoError(t, err)
	defer func() { _ = w.Close() }()

	var out struct {
		Echo string `json:"echo"`
	}
	require.NoError(t, w.Call(context.Background(), map[string]string{"value": "story"}, &out))
	assert.Equal(t, "STORY", out.Echo)
}
