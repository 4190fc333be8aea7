package docs

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarkdownHTML(t *testing.T) {
	m := NewMarkdown()

	out, err := m.HTML("# Button\n\nUse **primary** for main actions.\n\n| a | b |\n|---|---|\n| 1 | 2 |\n")
	require.NoError(t, err)
	assert.Contains(t, out, `<h1 id="button">Button</h1>`)
	assert.Contains(t, out, "<strong>primary</strong>")
	assert.Contains(t, out, "<table>")
}

func TestMarkdownSanitizes(t *testing.T) {
	m := NewMarkdown()

	out, err := m.HTML("hello <script>alert(1)</script> <a href=\"javascript:alert(1)\">x</a>")
	require.NoError(t, err)
	assert.NotContains(t, out, "<script>")
	assert.NotContains(t, out, "javascript:")
}

func TestCompile(t *testing.T) {
	m := NewMarkdown()

	code, err := m.Compile(context.Background(), "Some *docs*")
	require.NoError(t, err)
	assert.Contains(t, code, "import { createElement as _mdxCreateElement } from 'react';")
	assert.Contains(t, code, `const _docsContent = "<p>Some <em>docs</em></p>";`)
	assert.Contains(t, code, "function MDXContent(props = {}) {")
	assert.NotContains(t, code, "export default")
}

func TestCompileCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewMarkdown().Compile(ctx, "x")
	assert.ErrorIs(t, err, context.Canceled)
}
