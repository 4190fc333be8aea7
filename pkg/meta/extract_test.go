package meta

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/vuestories/pkg/parser"
)

func newParserManager(t *testing.T) *parser.ParserManager {
	t.Helper()
	pm := parser.NewParserManager(nil)
	t.Cleanup(func() { _ = pm.Close() })
	return pm
}

const typedComponent = `<script setup lang="ts">
interface Props {
  /** Button label */
  label: string
  size?: 'sm' | 'md'
}
const props = withDefaults(defineProps<Props>(), { size: 'md' })
const emit = defineEmits<{
  (e: 'click', ev: MouseEvent): void
  (e: 'hover'): void
}>()
/** Open state */
const open = defineModel<boolean>('open', { default: false })
defineSlots<{ default(props: { item: string }): any; footer: any }>()
</script>

<template>
  <button><slot /><slot name="icon" /></button>
</template>
`

func TestExtract_TypedMacros(t *testing.T) {
	pm := newParserManager(t)

	m, err := Extract(pm, "Button.vue", typedComponent)
	require.NoError(t, err)

	assert.Equal(t, []PropMeta{
		{Name: "label", Type: "string", Description: "Button label", Required: true},
		{Name: "size", Type: "'sm' | 'md'", Default: "'md'"},
		{Name: "open", Type: "boolean", Default: "false", Description: "Open state"},
	}, m.Props)

	assert.Equal(t, []EventMeta{
		{Name: "click", Type: "[ev: MouseEvent]"},
		{Name: "hover", Type: "[]"},
		{Name: "update:open", Type: "[value: boolean]"},
	}, m.Events)

	assert.Equal(t, []SlotMeta{
		{Name: "default", Type: "(props: { item: string })"},
		{Name: "footer", Type: "any"},
		{Name: "icon"},
	}, m.Slots)
}

func TestExtract_RuntimeDeclarations(t *testing.T) {
	pm := newParserManager(t)

	src := `<script setup>
defineProps({
  /** Count */
  count: { type: Number, required: true },
  tags: { type: Array, default: () => [] },
  title: String,
})
defineEmits(['change'])
const model = defineModel()
</script>
`
	m, err := Extract(pm, "Counter.vue", src)
	require.NoError(t, err)

	assert.Equal(t, []PropMeta{
		{Name: "count", Type: "number", Description: "Count", Required: true},
		{Name: "tags", Type: "unknown[]", Default: "[]"},
		{Name: "title", Type: "string"},
		{Name: "modelValue"},
	}, m.Props)
	assert.Equal(t, []EventMeta{
		{Name: "change"},
		{Name: "update:modelValue", Type: "[value: any]"},
	}, m.Events)
}

func TestExtract_DestructuredDefaults(t *testing.T) {
	pm := newParserManager(t)

	src := `<script setup lang="ts">
const { variant = 'primary' } = defineProps<{ variant?: string }>()
</script>
`
	m, err := Extract(pm, "Tag.vue", src)
	require.NoError(t, err)
	require.Len(t, m.Props, 1)
	assert.Equal(t, "'primary'", m.Props[0].Default)
	assert.False(t, m.Props[0].Required)
}

func TestExtract_OptionsScript(t *testing.T) {
	pm := newParserManager(t)

	src := `<script>
export default {
  props: ['value'],
  emits: { input: null },
}
</script>
`
	m, err := Extract(pm, "Legacy.vue", src)
	require.NoError(t, err)
	assert.Equal(t, []PropMeta{{Name: "value", Type: "any"}}, m.Props)
	assert.Equal(t, []EventMeta{{Name: "input"}}, m.Events)
}

func TestExtract_NoScript(t *testing.T) {
	pm := newParserManager(t)

	m, err := Extract(pm, "Plain.vue", "<template><div><slot name=\"head\"></slot></div></template>\n")
	require.NoError(t, err)
	assert.Empty(t, m.Props)
	assert.Equal(t, []SlotMeta{{Name: "head"}}, m.Slots)
}
