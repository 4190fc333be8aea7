package main

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/mark3labs/mcp-go/client"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// binaryPath is set by TestMain after building the binary.
var binaryPath string

func TestMain(m *testing.M) {
	if os.Getenv("INTEGRATION") == "" {
		os.Exit(m.Run())
	}

	tmp, err := os.MkdirTemp("", "vuestories-integration-*")
	if err != nil {
		panic(err)
	}
	defer os.RemoveAll(tmp)

	binaryPath = filepath.Join(tmp, "vuestories")
	cmd := exec.Command("go", "build", "-o", binaryPath, ".")
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if err := cmd.Run(); err != nil {
		panic("failed to build binary: " + err.Error())
	}

	os.Exit(m.Run())
}

// --- helpers ---

func skipIfNotIntegration(t *testing.T) {
	t.Helper()
	if os.Getenv("INTEGRATION") == "" {
		t.Skip("set INTEGRATION=1 to run integration tests")
	}
}

// startServer launches vuestories serve on a fresh project and returns an
// initialized MCP client.
func startServer(t *testing.T) (*client.Client, string) {
	t.Helper()
	root := newProject(t)

	c, err := client.NewStdioMCPClient(binaryPath, nil, "serve", "--root", root, "--log-level", "error")
	require.NoError(t, err, "failed to start MCP server")
	t.Cleanup(func() {
		c.Close()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	initReq := mcp.InitializeRequest{}
	initReq.Params.ProtocolVersion = mcp.LATEST_PROTOCOL_VERSION
	initReq.Params.ClientInfo = mcp.Implementation{
		Name:    "vuestories-integration-test",
		Version: "1.0.0",
	}

	result, err := c.Initialize(ctx, initReq)
	require.NoError(t, err, "failed to initialize MCP session")
	assert.Equal(t, "vuestories", result.ServerInfo.Name)

	return c, root
}

func callToolHelper(t *testing.T, c *client.Client, toolName string, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	req := mcp.CallToolRequest{}
	req.Params.Name = toolName
	if args != nil {
		req.Params.Arguments = args
	}

	result, err := c.CallTool(ctx, req)
	require.NoError(t, err, "CallTool(%s) failed", toolName)
	return result
}

func extractText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, result.Content, "expected content in result")
	textContent, ok := result.Content[0].(mcp.TextContent)
	require.True(t, ok, "expected TextContent, got %T", result.Content[0])
	return textContent.Text
}

// --- integration tests ---

func TestIntegration_ListTools(t *testing.T) {
	skipIfNotIntegration(t)
	c, _ := startServer(t)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	tools, err := c.ListTools(ctx, mcp.ListToolsRequest{})
	require.NoError(t, err)

	toolNames := make([]string, len(tools.Tools))
	for i, tool := range tools.Tools {
		toolNames[i] = tool.Name
	}
	assert.ElementsMatch(t, []string{"transform_story", "component_meta", "story_preview"}, toolNames)
}

func TestIntegration_TransformStory(t *testing.T) {
	skipIfNotIntegration(t)
	c, _ := startServer(t)

	t.Run("story file", func(t *testing.T) {
		result := callToolHelper(t, c, "transform_story", map[string]any{
			"code":       storyFile,
			"filename":   "src/Button.stories.vue",
			"source_map": true,
		})
		assert.False(t, result.IsError)

		var out map[string]any
		require.NoError(t, json.Unmarshal([]byte(extractText(t, result)), &out))
		assert.Contains(t, out["code"], "export const Primary = ")
		assert.Contains(t, out, "map")
	})

	t.Run("invalid structure is a tool error", func(t *testing.T) {
		result := callToolHelper(t, c, "transform_story", map[string]any{
			"code": "<template><main /></template>",
		})
		assert.True(t, result.IsError)
	})
}

func TestIntegration_ComponentMeta(t *testing.T) {
	skipIfNotIntegration(t)
	c, root := startServer(t)

	result := callToolHelper(t, c, "component_meta", map[string]any{
		"path": filepath.Join(root, "src", "Button.vue"),
	})
	assert.False(t, result.IsError)

	var out map[string]any
	require.NoError(t, json.Unmarshal([]byte(extractText(t, result)), &out))
	props, ok := out["props"].([]any)
	require.True(t, ok)
	require.Len(t, props, 1)
	assert.Equal(t, "label", props[0].(map[string]any)["name"])
}

func TestIntegration_StoryPreview(t *testing.T) {
	skipIfNotIntegration(t)
	c, _ := startServer(t)

	result := callToolHelper(t, c, "story_preview", map[string]any{"code": storyFile})
	assert.False(t, result.IsError)
	text := extractText(t, result)
	assert.Contains(t, text, `<MyButton label="Go" />`)
	assert.NotContains(t, text, "Back")
}
