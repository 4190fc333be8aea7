package stories

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/vuestories/pkg/compiler"
	"github.com/gnana997/vuestories/pkg/errs"
	"github.com/gnana997/vuestories/pkg/parser"
	"github.com/gnana997/vuestories/pkg/parser/queries"
)

func newTestParser(t *testing.T) (*Parser, *parser.ParserManager) {
	t.Helper()
	pm := parser.NewParserManager(nil)
	qm := queries.NewQueryManager(pm, nil)
	t.Cleanup(func() {
		_ = qm.Close()
		_ = pm.Close()
	})
	return NewParser(pm, compiler.NewBuiltin(qm, nil)), pm
}

const buttonStories = `<script setup lang="ts">
import MyButton from './MyButton.vue'
const label = 'Click me'
function onPlay() {}
</script>

<template>
  <Stories title="Atoms/Button" :component="MyButton" tags="autodocs, stable">
    <Story title="Primary" :play="onPlay">
      <MyButton :label="label" primary />
    </Story>
    <p>not a story</p>
    <Story :title="'With icon'">
      <MyButton label="Icon" />
    </Story>
  </Stories>
</template>

<docs>
  # Button
</docs>
`

func TestParse(t *testing.T) {
	p, _ := newTestParser(t)

	f, err := p.Parse(context.Background(), "Button.stories.vue", buttonStories)
	require.NoError(t, err)

	assert.Equal(t, Meta{
		Title:     "Atoms/Button",
		Component: "MyButton",
		Tags:      []string{"autodocs", "stable"},
	}, f.Meta)
	assert.Equal(t, "# Button", f.Docs)

	require.Len(t, f.Stories, 2)
	assert.Equal(t, "Primary", f.Stories[0].ID)
	assert.Equal(t, "Primary", f.Stories[0].Title)
	assert.Equal(t, "onPlay", f.Stories[0].Play)
	assert.Equal(t, "\n      <MyButton :label=\"label\" primary />\n    ", f.Stories[0].Template)

	assert.Equal(t, "With_icon", f.Stories[1].ID)
	assert.Equal(t, "With icon", f.Stories[1].Title)
	assert.Empty(t, f.Stories[1].Play)

	require.NotNil(t, f.Script)
	assert.True(t, f.Script.Setup)
	assert.Equal(t, compiler.BindingLiteralConst, f.Script.Bindings["label"])
}

func TestParseWithoutScript(t *testing.T) {
	p, _ := newTestParser(t)

	f, err := p.Parse(context.Background(), "A.stories.vue", `<template><Stories><Story title="Only"><div /></Story></Stories></template>`)
	require.NoError(t, err)
	assert.Nil(t, f.Script)
	assert.Equal(t, Meta{}, f.Meta)
	require.Len(t, f.Stories, 1)
	assert.Equal(t, "<div />", f.Stories[0].Template)
}

func TestParseStructureErrors(t *testing.T) {
	_, pm := newTestParser(t)

	tests := []struct {
		name string
		code string
		want string
	}{
		{"two roots", `<template><Stories><Story title="A" /></Stories><div /></template>`, "exactly one root"},
		{"wrong root", `<template><div><Story title="A" /></div></template>`, "root element must be <Stories>"},
		{"no title", `<template><Stories><Story><div /></Story></Stories></template>`, "has no title"},
		{"dynamic title", `<template><Stories><Story :title="name"><div /></Story></Stories></template>`, "has no title"},
		{"duplicate id", `<template><Stories><Story title="A b" /><Story title="a-b" /></Stories></template>`, "duplicate story id A_b"},
		{"unusable title", `<template><Stories><Story title="!!!" /></Stories></template>`, "no usable characters"},
		{"no stories", `<template><Stories><p>x</p></Stories></template>`, "has no <Story> children"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseStructure(pm, "A.stories.vue", tt.code)
			require.Error(t, err)
			assert.True(t, errors.Is(err, errs.ErrStructure))
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}

func TestParseMissingTemplate(t *testing.T) {
	_, pm := newTestParser(t)

	_, err := ParseStructure(pm, "A.stories.vue", "<script setup>\nconst a = 1\n</script>\n")
	var missing *errs.MissingTemplateError
	require.True(t, errors.As(err, &missing))
	assert.Equal(t, "A.stories.vue", missing.File)
	assert.True(t, errors.Is(err, errs.ErrStructure))
}

func TestParseStoryOrderAndIDs(t *testing.T) {
	_, pm := newTestParser(t)

	code := `<template><Stories>
  <Story title="1st case" />
  <Story title="Hello, World!" />
  <Story title="b" />
</Stories></template>`
	f, err := ParseStructure(pm, "A.stories.vue", code)
	require.NoError(t, err)

	var ids []string
	for _, s := range f.Stories {
		ids = append(ids, s.ID)
	}
	assert.Equal(t, []string{"_1st_case", "Hello_world", "B"}, ids)
	assert.Empty(t, f.Stories[0].Template)
}

func TestPropExpressions(t *testing.T) {
	assert.Equal(t, "x", stringLiteral(`'x'`))
	assert.Equal(t, "x y", stringLiteral(`"x y"`))
	assert.Equal(t, "plain", stringLiteral("`plain`"))
	assert.Empty(t, stringLiteral("`a ${b}`"))
	assert.Empty(t, stringLiteral(`'a' + b`))
	assert.Empty(t, stringLiteral(`name`))
}

func TestExtractDefineMeta(t *testing.T) {
	_, pm := newTestParser(t)

	tests := []struct {
		name       string
		code       string
		wantObject string
		wantCode   string
	}{
		{
			name:       "expression statement",
			code:       "<script setup>\nconst a = 1\ndefineMeta({ args: { a: 1 } })\nconst b = 2\n</script>\n<template><Stories /></template>",
			wantObject: "{ args: { a: 1 } }",
			wantCode:   "<script setup>\nconst a = 1\nconst b = 2\n</script>\n<template><Stories /></template>",
		},
		{
			name:       "declaration",
			code:       "<script setup lang=\"ts\">\nconst meta = defineMeta({ parameters: { layout: 'centered' } })\n</script>",
			wantObject: "{ parameters: { layout: 'centered' } }",
			wantCode:   "<script setup lang=\"ts\">\n</script>",
		},
		{
			name:     "no call",
			code:     "<script setup>\nconst a = 1\n</script>",
			wantCode: "<script setup>\nconst a = 1\n</script>",
		},
		{
			name:     "plain script only",
			code:     "<script>\ndefineMeta({})\n</script>",
			wantCode: "<script>\ndefineMeta({})\n</script>",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ExtractDefineMeta(pm, "A.stories.vue", tt.code)
			require.NoError(t, err)
			assert.Equal(t, tt.wantObject, got.Object)
			assert.Equal(t, tt.wantCode, got.Code)
		})
	}
}

func TestInlineExtraTemplates(t *testing.T) {
	_, pm := newTestParser(t)

	code := `<template>
  <Stories>
    <Header />
    <Story title="A">
      <Button />
    </Story>
    <!-- ignored -->
    <Story title="B">
      <Input />
    </Story>
    <Footer />
  </Stories>
</template>`

	got, err := InlineExtraTemplates(pm, "A.stories.vue", code)
	require.NoError(t, err)

	want := "<template>\n  <Stories>\n    \n" +
		"    <Story title=\"A\">\n      <Header />\n<Button />\n<Footer />\n    </Story>\n" +
		"    <!-- ignored -->\n" +
		"    <Story title=\"B\">\n      <Header />\n<Input />\n<Footer />\n    </Story>\n" +
		"    \n  </Stories>\n</template>"
	assert.Equal(t, want, got)
}

func TestInlineExtraTemplatesBetweenStories(t *testing.T) {
	_, pm := newTestParser(t)

	code := `<template><Stories><Story title="A"><a /></Story><Shared /><Story title="B"><b /></Story></Stories></template>`
	got, err := InlineExtraTemplates(pm, "A.stories.vue", code)
	require.NoError(t, err)
	assert.Equal(t, `<template><Stories><Story title="A"><a />
<Shared /></Story><Story title="B"><Shared />
<b /></Story></Stories></template>`, got)
}

func TestInlineExtraTemplatesSelfClosingStory(t *testing.T) {
	_, pm := newTestParser(t)

	code := `<template><Stories><Setup /><Story title="A" /></Stories></template>`
	got, err := InlineExtraTemplates(pm, "A.stories.vue", code)
	require.NoError(t, err)
	assert.Equal(t, `<template><Stories><Story title="A"><Setup /></Story></Stories></template>`, got)
}

func TestInlineExtraTemplatesUnchanged(t *testing.T) {
	_, pm := newTestParser(t)

	for _, code := range []string{
		`<template><Stories><Story title="A"><a /></Story></Stories></template>`,
		`<template><div /></template>`,
		`<script setup>const a = 1</script>`,
	} {
		got, err := InlineExtraTemplates(pm, "A.stories.vue", code)
		require.NoError(t, err)
		assert.Equal(t, code, got)
	}
}
