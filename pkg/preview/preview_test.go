package preview

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/vuestories/pkg/errs"
	"github.com/gnana997/vuestories/pkg/parser"
)

func newParser(t *testing.T) *parser.ParserManager {
	t.Helper()
	pm := parser.NewParserManager(nil)
	t.Cleanup(func() { _ = pm.Close() })
	return pm
}

const twoStories = `<script setup>
import MyButton from './MyButton.vue'
defineMeta({ args: { label: 'x' } })
</script>
<template>
  <Stories title="T">
    <Story title="A"><MyButton label="a" /></Story>
    <Story title="B"><MyButton label="b" /></Story>
  </Stories>
</template>
`

func TestTransformKeepsFirstStory(t *testing.T) {
	pm := newParser(t)
	res, err := Transform(pm, twoStories, "Button.stories.vue")
	require.NoError(t, err)

	want := "<script setup>\nimport MyButton from './MyButton.vue'\n\n\nconst args = { label: 'x' }\n</script>\n" +
		"<template>\n  \n    <MyButton label=\"a\" />\n    \n  \n</template>\n"
	assert.Equal(t, want, res.Code)
	assert.NotNil(t, res.Map)
}

func TestTransformWithoutArgs(t *testing.T) {
	pm := newParser(t)
	code := `<script setup>
import MyButton from './MyButton.vue'
defineMeta({ title: 'x' })
</script>
<template><Stories><Story title="A"><MyButton /></Story></Stories></template>
`
	res, err := Transform(pm, code, "Button.stories.vue")
	require.NoError(t, err)
	assert.Equal(t, "<script setup>\nimport MyButton from './MyButton.vue'\n</script>\n<template><MyButton /></template>\n", res.Code)
}

func TestTransformSelfClosingStory(t *testing.T) {
	pm := newParser(t)
	code := `<template><Stories><Story title="Empty" /><Story title="B"><b /></Story></Stories></template>`
	res, err := Transform(pm, code, "Empty.stories.vue")
	require.NoError(t, err)
	assert.Equal(t, "<template></template>", res.Code)
}

func TestTransformStructureError(t *testing.T) {
	pm := newParser(t)
	_, err := Transform(pm, `<template><div /></template>`, "Bad.stories.vue")
	require.Error(t, err)
	assert.True(t, errors.Is(err, errs.ErrStructure))
}

func TestModule(t *testing.T) {
	pm := newParser(t)
	code := `<template><Stories><Story title="A"><p>"hi"</p></Story></Stories></template>`
	out, err := Module(pm, code, "A.stories.vue?preview")
	require.NoError(t, err)
	assert.Equal(t, `export default { code: "<template><p>\"hi\"</p></template>" }`+"\n", out)
}
