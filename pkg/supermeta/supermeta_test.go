package supermeta

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/vuestories/pkg/meta"
	"github.com/gnana997/vuestories/pkg/parser"
)

func newInjector(t *testing.T, source meta.Source, design *Design) *Injector {
	t.Helper()
	pm := parser.NewParserManager(nil)
	t.Cleanup(func() { _ = pm.Close() })
	return New(pm, source, design, nil)
}

const buttonSFC = `<script setup lang="ts">
/**
 * Primary button
 * @designId 12-34
 * @category Inputs
 */
const a = 1
</script>

<template><button /></template>

<style>
.app-button {
  /** Text color
   * @syntax <color>
   */
  --app-button-color: #000;
}
</style>
`

func TestTransform_PrependsDefineOptions(t *testing.T) {
	source := meta.Static{"/src/AppButton.vue": {
		Props: []meta.PropMeta{
			{Name: "modelValue", Type: "string"},
			{Name: "label", Type: "string", Required: true},
			{Name: "class"},
		},
		Events: []meta.EventMeta{{Name: "update:modelValue"}, {Name: "click"}},
		Slots:  []meta.SlotMeta{{Name: "default"}},
	}}
	design := &Design{Type: "figma", GetURL: func(id string) string { return "https://figma.test/" + id }}

	res, err := newInjector(t, source, design).Transform(buttonSFC, "/src/AppButton.vue")
	require.NoError(t, err)
	require.NotNil(t, res)

	want := `<script setup lang="ts">defineOptions({` +
		`"description":"Primary button",` +
		`"designId":"12-34",` +
		`"designUrl":"https://figma.test/12-34",` +
		`"category":"Inputs",` +
		`"cssVars":[{"key":"--app-button-color","value":"#000","type":"<color>","description":"Text color"}],` +
		`"props":[{"name":"label","type":"string","required":true}],` +
		`"events":[{"name":"click"}],` +
		`"models":[{"name":"modelValue","type":"string"}],` +
		`"slots":[{"name":"default"}]` +
		"})\n\n/**"
	assert.True(t, strings.HasPrefix(res.Code, want), res.Code)
	assert.Equal(t, 3, res.Map.Version)
	assert.Equal(t, []string{"/src/AppButton.vue"}, res.Map.Sources)
}

func TestTransform_DesignDisabled(t *testing.T) {
	res, err := newInjector(t, nil, nil).Transform(buttonSFC, "/src/AppButton.vue")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Contains(t, res.Code, `"designId":"12-34"`)
	assert.NotContains(t, res.Code, "designUrl")
}

func TestTransform_MergesIntoExistingDefineOptions(t *testing.T) {
	src := "<script setup>\n/** Card */\ndefineOptions({ name: 'Card' })\n</script>\n"

	res, err := newInjector(t, nil, nil).Transform(src, "/src/Card.vue")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "<script setup>\n/** Card */\ndefineOptions({ name: 'Card', \"description\":\"Card\" })\n</script>\n", res.Code)
}

func TestTransform_TrailingComma(t *testing.T) {
	src := "<script setup>\n/** Card */\ndefineOptions({\n  name: 'Card',\n})\n</script>\n"

	res, err := newInjector(t, nil, nil).Transform(src, "/src/Card.vue")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Contains(t, res.Code, "name: 'Card',\n\"description\":\"Card\",})")
}

func TestTransform_NoScriptSetup(t *testing.T) {
	res, err := newInjector(t, nil, nil).Transform("<script>\nexport default {}\n</script>\n", "/src/Plain.vue")
	require.NoError(t, err)
	assert.Nil(t, res)
}

func TestTransform_NothingToInject(t *testing.T) {
	res, err := newInjector(t, nil, nil).Transform("<script setup>\nconst a = 1\n</script>\n", "/src/Plain.vue")
	require.NoError(t, err)
	require.NotNil(t, res)
	assert.Equal(t, "<script setup>defineOptions({})\n\nconst a = 1\n</script>\n", res.Code)
}

func TestTransform_NothingToMergeIntoExistingCall(t *testing.T) {
	src := "<script setup>\nconst a = 1\ndefineOptions({ name: 'Plain' })\n</script>\n"
	res, err := newInjector(t, nil, nil).Transform(src, "/src/Plain.vue")
	require.NoError(t, err)
	assert.Nil(t, res)
}

type failingSource struct{}

func (failingSource) GetMeta(string, string) (*meta.ComponentMeta, error) {
	return nil, errors.New("boom")
}

func TestTransform_SourceErrorPropagates(t *testing.T) {
	_, err := newInjector(t, failingSource{}, nil).Transform(buttonSFC, "/src/AppButton.vue?vue")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "boom")
}

func TestDesignURL(t *testing.T) {
	var d *Design
	assert.Equal(t, "", d.URL("x"))

	d = &Design{GetURL: func(id string) string { return "u/" + id }}
	assert.Equal(t, "u/x", d.URL("x"))
	assert.Equal(t, "", d.URL(""))
}
