package csf

import (
	"context"
	"fmt"
	"strings"

	"github.com/gnana997/vuestories/pkg/compiler"
	"github.com/gnana997/vuestories/pkg/docs"
	"github.com/gnana997/vuestories/pkg/jsast"
	"github.com/gnana997/vuestories/pkg/stories"
	"github.com/gnana997/vuestories/pkg/textutil"
)

// mainBinding holds the compiled component in every generated module.
const mainBinding = "_sfc_main"

const renderExport = "export function render("

// assemble builds the module the rewrite pass works on.
func (e *Emitter) assemble(ctx context.Context, f *stories.File) (string, error) {
	var b strings.Builder

	var bindings compiler.BindingMetadata
	if f.Script != nil {
		main, err := jsast.RewriteDefault(e.pm, f.Script.Content, f.Script.Lang, mainBinding)
		if err != nil {
			return "", fmt.Errorf("failed to rewrite default export of %s: %w", f.Descriptor.Filename, err)
		}
		b.WriteString(main)
		b.WriteString("\n")
		bindings = f.Script.Bindings
	} else {
		fmt.Fprintf(&b, "const %s = {}\n", mainBinding)
	}

	b.WriteString(defaultExport(f.Meta, f.Docs != ""))

	for _, story := range f.Stories {
		render, err := e.compiler.CompileTemplate(ctx, story.Template, compiler.TemplateOptions{
			Filename: f.Descriptor.Filename,
			Bindings: bindings,
		})
		if err != nil {
			return "", fmt.Errorf("failed to compile story %q of %s: %w", story.Title, f.Descriptor.Filename, err)
		}
		if !strings.Contains(render, renderExport) {
			return "", fmt.Errorf("compiled story %q of %s exports no render function", story.Title, f.Descriptor.Filename)
		}
		b.WriteString(strings.Replace(render, renderExport, "function render"+story.ID+"(", 1))
		b.WriteString("\n")
		b.WriteString(storyExport(story))
	}

	if f.Docs != "" {
		compiled, err := e.docs.Compile(ctx, f.Docs)
		if err != nil {
			return "", fmt.Errorf("failed to compile docs of %s: %w", f.Descriptor.Filename, err)
		}
		b.WriteString(strings.Replace(compiled, "export default "+docs.ComponentName+";", "", 1))
	}
	return b.String(), nil
}

func defaultExport(meta stories.Meta, hasDocs bool) string {
	var b strings.Builder
	b.WriteString("\nexport default {\n")
	if meta.Title != "" {
		fmt.Fprintf(&b, "  title: %s,\n", textutil.JSString(meta.Title))
	}
	if meta.Component != "" {
		fmt.Fprintf(&b, "  component: %s,\n", meta.Component)
	}
	if len(meta.Tags) > 0 {
		tags := make([]string, len(meta.Tags))
		for i, t := range meta.Tags {
			tags[i] = textutil.JSString(t)
		}
		fmt.Fprintf(&b, "  tags: [%s],\n", strings.Join(tags, ", "))
	}
	if hasDocs {
		fmt.Fprintf(&b, "  parameters: {\n    docs: { page: %s },\n  },\n", docs.ComponentName)
	} else {
		b.WriteString("  parameters: {},\n")
	}
	b.WriteString("}\n\n")
	return b.String()
}

func storyExport(story stories.Story) string {
	var b strings.Builder
	fmt.Fprintf(&b, "export const %[1]s = () => Object.assign({ render: render%[1]s }, %[2]s)\n", story.ID, mainBinding)
	fmt.Fprintf(&b, "%s.storyName = %s\n", story.ID, textutil.JSString(story.Title))
	if story.Play != "" {
		fmt.Fprintf(&b, "%s.play = %s\n", story.ID, story.Play)
	}
	fmt.Fprintf(&b, "%s.parameters = { docs: { source: { code: `%s` } } };\n\n", story.ID, templateLiteral(strings.TrimSpace(story.Template)))
	return b.String()
}

// templateLiteral escapes s for use inside backticks.
func templateLiteral(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "`", "\\`")
	return strings.ReplaceAll(s, "${", "\\${")
}
