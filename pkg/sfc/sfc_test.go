package sfc

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/vuestories/pkg/parser"
)

const storyFile = `<script setup lang="ts">
import Button from './Button.vue'
const label = 'Click'
</script>

<template>
  <Stories title="Atoms/Button" :component="Button">
    <Story title="Primary">
      <Button :label="label" primary />
    </Story>
    <!-- note -->
    <Story title="Empty" />
  </Stories>
</template>

<style scoped>
.button { --button-color: red; }
</style>

<docs>
# Button
</docs>
`

func newTestManager(t *testing.T) *parser.ParserManager {
	t.Helper()
	pm := parser.NewParserManager(nil)
	t.Cleanup(func() { _ = pm.Close() })
	return pm
}

func TestParseBlocks(t *testing.T) {
	pm := newTestManager(t)

	desc, err := Parse(pm, "src/Button.stories.vue", storyFile)
	require.NoError(t, err)

	require.NotNil(t, desc.ScriptSetup)
	assert.Nil(t, desc.Script)
	assert.Equal(t, "ts", desc.ScriptSetup.Lang())
	assert.Equal(t, "ts", desc.ScriptLang())
	assert.Contains(t, desc.ScriptSetup.Content, "import Button from './Button.vue'")
	assert.Equal(t, desc.ScriptSetup.Content, storyFile[desc.ScriptSetup.ContentStart:desc.ScriptSetup.ContentEnd])

	require.NotNil(t, desc.Template)
	require.Len(t, desc.Styles, 1)
	_, scoped := desc.Styles[0].Attr("scoped")
	assert.True(t, scoped)
	assert.Contains(t, desc.Styles[0].Content, "--button-color")

	docs := desc.CustomBlock("docs")
	require.NotNil(t, docs)
	assert.Equal(t, "\n# Button\n", docs.Content)
	assert.Equal(t, "Button.stories", desc.ComponentName())
}

func TestTemplateAST(t *testing.T) {
	pm := newTestManager(t)

	desc, err := Parse(pm, "Button.stories.vue", storyFile)
	require.NoError(t, err)

	var roots []*Element
	for _, n := range desc.Template.AST {
		if el, ok := n.(*Element); ok {
			roots = append(roots, el)
		}
	}
	require.Len(t, roots, 1)
	stories := roots[0]
	assert.Equal(t, "Stories", stories.Tag)

	title, bound := stories.Prop("title")
	require.NotNil(t, title)
	assert.False(t, bound)
	assert.Equal(t, "Atoms/Button", title.Value)

	comp, bound := stories.Prop("component")
	require.NotNil(t, comp)
	assert.True(t, bound)
	assert.Equal(t, "Button", comp.Value)

	children := stories.ElementChildren()
	require.Len(t, children, 2)
	assert.Equal(t, "Story", children[0].Tag)
	assert.False(t, children[0].SelfClosing)
	inner := storyFile[children[0].InnerStart:children[0].InnerEnd]
	assert.Contains(t, inner, `<Button :label="label" primary />`)

	assert.True(t, children[1].SelfClosing)
	assert.Equal(t, children[1].End, children[1].InnerStart)

	var comments int
	for _, n := range stories.Children {
		if n.Type() == NodeComment {
			comments++
		}
	}
	assert.Equal(t, 1, comments)
}

func TestParseFragmentText(t *testing.T) {
	pm := newTestManager(t)

	src := `<p class="lead">Hello &amp; welcome, {{ name }}!</p>`
	nodes, err := ParseFragment(pm, src)
	require.NoError(t, err)
	require.Len(t, nodes, 1)

	p := nodes[0].(*Element)
	assert.Equal(t, "p", p.Tag)
	require.Len(t, p.Children, 1)
	text := p.Children[0].(*Text)
	assert.Equal(t, "Hello &amp; welcome, {{ name }}!", text.Content)
	assert.Equal(t, text.Content, src[text.Start:text.End])

	class := p.Attr("class")
	require.NotNil(t, class)
	assert.Equal(t, "lead", src[class.ValueStart:class.ValueEnd])
}

func TestDirective(t *testing.T) {
	tests := []struct {
		name string
		attr Attr
		want Directive
		ok   bool
	}{
		{"static", Attr{Name: "title", Value: "x"}, Directive{}, false},
		{"bind shorthand", Attr{Name: ":label", Value: " text "}, Directive{Name: "bind", Arg: "label", Exp: "text"}, true},
		{"bind long", Attr{Name: "v-bind:model-value", Value: "v"}, Directive{Name: "bind", Arg: "model-value", Exp: "v"}, true},
		{"on with modifiers", Attr{Name: "@click.stop.prevent", Value: "go"}, Directive{Name: "on", Arg: "click", Modifiers: []string{"stop", "prevent"}, Exp: "go"}, true},
		{"slot shorthand", Attr{Name: "#header", Value: "{ item }"}, Directive{Name: "slot", Arg: "header", Exp: "{ item }"}, true},
		{"bare directive", Attr{Name: "v-if", Value: "ok"}, Directive{Name: "if", Exp: "ok"}, true},
		{"default slot", Attr{Name: "v-slot"}, Directive{Name: "slot"}, true},
		{"model arg", Attr{Name: "v-model:checked", Value: "c"}, Directive{Name: "model", Arg: "checked", Exp: "c"}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := tt.attr.Directive()
			assert.Equal(t, tt.ok, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestComponentName(t *testing.T) {
	assert.Equal(t, "AppModal", ComponentName("/src/components/AppModal.vue"))
	assert.Equal(t, "Button.stories", ComponentName("Button.stories.vue?vue&type=stories"))
}

func TestParseFragmentKeepsWhitespace(t *testing.T) {
	pm := newTestManager(t)

	src := "  <b>a</b> <i>b</i>\n"
	nodes, err := ParseFragment(pm, src)
	require.NoError(t, err)
	require.Len(t, nodes, 5)

	assert.Equal(t, "  ", nodes[0].(*Text).Content)
	assert.Equal(t, "b", nodes[1].(*Element).Tag)
	assert.Equal(t, " ", nodes[2].(*Text).Content)
	assert.Equal(t, "i", nodes[3].(*Element).Tag)
	assert.Equal(t, "\n", nodes[4].(*Text).Content)
}
