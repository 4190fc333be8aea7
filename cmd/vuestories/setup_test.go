package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubPath makes only the given binaries resolvable.
func stubPath(t *testing.T, binaries ...string) {
	t.Helper()
	orig := lookPathFunc
	t.Cleanup(func() { lookPathFunc = orig })

	lookPathFunc = func(name string) (string, error) {
		for _, b := range binaries {
			if b == name {
				return "/usr/bin/" + name, nil
			}
		}
		return "", exec.ErrNotFound
	}
}

func projectWith(t *testing.T, dirs ...string) string {
	t.Helper()
	root := t.TempDir()
	for _, d := range dirs {
		require.NoError(t, os.MkdirAll(filepath.Join(root, d), 0755))
	}
	return root
}

func decodeServers(t *testing.T, data []byte, key string) map[string]any {
	t.Helper()
	var config map[string]any
	require.NoError(t, json.Unmarshal(data, &config))
	servers, ok := config[key].(map[string]any)
	require.True(t, ok, "missing %q", key)
	return servers
}

func TestAddServer(t *testing.T) {
	tests := []struct {
		name      string
		existing  string
		key       string
		extra     map[string]any
		wantOther bool
	}{
		{name: "empty file", key: "mcpServers"},
		{name: "whitespace only", existing: "\n  \n", key: "mcpServers"},
		{name: "vscode format", key: "servers", extra: map[string]any{"type": "stdio"}},
		{
			name:      "keeps other servers",
			existing:  `{"mcpServers": {"other": {"command": "other", "args": ["start"]}}}`,
			key:       "mcpServers",
			wantOther: true,
		},
		{
			name: "jsonc with comments and trailing commas",
			existing: `{
  // servers for this workspace
  "servers": {
    "other": {"command": "other",},
  },
}`,
			key:       "servers",
			extra:     map[string]any{"type": "stdio"},
			wantOther: true,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := addServer([]byte(tt.existing), tt.key, tt.extra)
			require.NoError(t, err)
			require.NotNil(t, out)
			assert.Equal(t, byte('\n'), out[len(out)-1])

			servers := decodeServers(t, out, tt.key)
			entry := servers["vuestories"].(map[string]any)
			assert.Equal(t, "vuestories", entry["command"])
			assert.Equal(t, []any{"serve"}, entry["args"])
			for k, v := range tt.extra {
				assert.Equal(t, v, entry[k])
			}
			if tt.wantOther {
				assert.Contains(t, servers, "other")
			}
		})
	}
}

func TestAddServer_AlreadyRegistered(t *testing.T) {
	out, err := addServer([]byte(`{"mcpServers": {"vuestories": {"command": "vuestories"}}}`), "mcpServers", nil)
	assert.NoError(t, err)
	assert.Nil(t, out)
}

func TestAddServer_InvalidJSON(t *testing.T) {
	_, err := addServer([]byte("not json"), "mcpServers", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
}

func TestConfirm(t *testing.T) {
	tests := []struct {
		input string
		want  bool
	}{
		{"\n", true},
		{"y\n", true},
		{"YES\n", true},
		{"n\n", false},
		{"nope\n", false},
		{"", true},
	}
	for _, tt := range tests {
		w := &bytes.Buffer{}
		in := bufio.NewScanner(strings.NewReader(tt.input))
		assert.Equal(t, tt.want, confirm(in, w, "Continue?"), "input %q", tt.input)
		assert.Equal(t, "Continue? [Y/n] ", w.String())
	}
}

func TestDetectTargets(t *testing.T) {
	t.Run("none", func(t *testing.T) {
		stubPath(t)
		assert.Empty(t, detectTargets(projectWith(t)))
	})

	t.Run("marker directory", func(t *testing.T) {
		stubPath(t)
		root := projectWith(t, ".vscode")
		found := detectTargets(root)
		require.Len(t, found, 1)
		assert.Equal(t, "VS Code", found[0].Name)
		assert.Equal(t, filepath.Join(root, ".vscode", "mcp.json"), found[0].path)
		assert.False(t, found[0].registered)
	})

	t.Run("binary on path", func(t *testing.T) {
		stubPath(t, "claude")
		found := detectTargets(projectWith(t))
		require.Len(t, found, 1)
		assert.Equal(t, "Claude Code", found[0].Name)
	})

	t.Run("marker file is not a directory", func(t *testing.T) {
		stubPath(t)
		root := projectWith(t)
		require.NoError(t, os.WriteFile(filepath.Join(root, ".cursor"), nil, 0644))
		assert.Empty(t, detectTargets(root))
	})
}

func TestIsRegistered(t *testing.T) {
	path := filepath.Join(t.TempDir(), "mcp.json")
	assert.False(t, isRegistered(path, "servers"))

	require.NoError(t, os.WriteFile(path, []byte(`{
  // added by hand
  "servers": {"vuestories": {"command": "vuestories"}},
}`), 0644))
	assert.True(t, isRegistered(path, "servers"))
	assert.False(t, isRegistered(path, "mcpServers"))
}

func TestRunSetup_NoTargets(t *testing.T) {
	stubPath(t)
	w := &bytes.Buffer{}
	require.NoError(t, runSetup(strings.NewReader(""), w, projectWith(t), setupOptions{}))
	assert.Contains(t, w.String(), "No agent configuration found")
}

func TestRunSetup_Yes(t *testing.T) {
	stubPath(t)
	root := projectWith(t, ".vscode")
	path := filepath.Join(root, ".vscode", "mcp.json")

	w := &bytes.Buffer{}
	require.NoError(t, runSetup(strings.NewReader(""), w, root, setupOptions{yes: true}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	entry := decodeServers(t, data, "servers")["vuestories"].(map[string]any)
	assert.Equal(t, "stdio", entry["type"])
	assert.Contains(t, w.String(), "+ VS Code: registered in ")

	// A second run leaves the file alone.
	w.Reset()
	require.NoError(t, runSetup(strings.NewReader(""), w, root, setupOptions{yes: true}))
	assert.Contains(t, w.String(), "= VS Code: already registered")
	again, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestRunSetup_MergesClaudeConfig(t *testing.T) {
	stubPath(t, "claude")
	root := projectWith(t)
	path := filepath.Join(root, ".mcp.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"mcpServers": {"other": {"command": "other"}}}`), 0644))

	require.NoError(t, runSetup(strings.NewReader("y\n"), &bytes.Buffer{}, root, setupOptions{}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	servers := decodeServers(t, data, "mcpServers")
	assert.Contains(t, servers, "other")
	assert.Contains(t, servers, "vuestories")
}

func TestRunSetup_Declined(t *testing.T) {
	stubPath(t)
	root := projectWith(t, ".cursor")

	w := &bytes.Buffer{}
	require.NoError(t, runSetup(strings.NewReader("n\n"), w, root, setupOptions{}))
	assert.Contains(t, w.String(), "- Cursor: skipped")
	_, err := os.Stat(filepath.Join(root, ".cursor", "mcp.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunSetup_DryRun(t *testing.T) {
	stubPath(t)
	root := projectWith(t, ".cursor")

	w := &bytes.Buffer{}
	require.NoError(t, runSetup(strings.NewReader(""), w, root, setupOptions{yes: true, dryRun: true}))
	assert.Contains(t, w.String(), "--- "+filepath.Join(".cursor", "mcp.json")+"\n")
	assert.Contains(t, w.String(), `"command": "vuestories"`)
	_, err := os.Stat(filepath.Join(root, ".cursor", "mcp.json"))
	assert.True(t, os.IsNotExist(err))
}

func TestRunSetup_InvalidConfig(t *testing.T) {
	stubPath(t)
	root := projectWith(t, ".cursor")
	require.NoError(t, os.WriteFile(filepath.Join(root, ".cursor", "mcp.json"), []byte("{oops"), 0644))

	w := &bytes.Buffer{}
	err := runSetup(strings.NewReader(""), w, root, setupOptions{yes: true})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid JSON")
	assert.Contains(t, w.String(), "! Cursor: ")
}
