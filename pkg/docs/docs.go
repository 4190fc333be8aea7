// Package docs compiles the markdown of a <docs> block into a module
// fragment defining MDXContent, the component Storybook renders as the docs
// page.
package docs

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/gnana997/vuestories/pkg/textutil"
)

// ComponentName is the identifier the compiled fragment declares.
const ComponentName = "MDXContent"

// Compiler turns documentation markup into embeddable module code.
type Compiler interface {
	Compile(ctx context.Context, text string) (string, error)
}

// Markdown renders GitHub-flavored markdown and sanitizes the result.
type Markdown struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewMarkdown creates a Markdown compiler.
func NewMarkdown() *Markdown {
	return &Markdown{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Compile implements Compiler. The fragment has no default export so it can
// be appended to a stories module.
func (m *Markdown) Compile(ctx context.Context, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	body, err := m.HTML(text)
	if err != nil {
		return "", err
	}

	var b strings.Builder
	b.WriteString("import { createElement as _mdxCreateElement } from 'react';\n")
	fmt.Fprintf(&b, "const _docsContent = %s;\n", textutil.JSString(body))
	fmt.Fprintf(&b, "function %s(props = {}) {\n", ComponentName)
	b.WriteString("  return _mdxCreateElement('div', { ...props, className: 'sb-unstyled vue-stories-docs', dangerouslySetInnerHTML: { __html: _docsContent } });\n")
	b.WriteString("}\n")
	return b.String(), nil
}

// HTML renders text to sanitized HTML.
func (m *Markdown) HTML(text string) (string, error) {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(text), &buf); err != nil {
		return "", fmt.Errorf("failed to render docs markdown: %w", err)
	}
	return strings.TrimSpace(m.sanitizer.Sanitize(buf.String())), nil
}
