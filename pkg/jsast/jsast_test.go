package jsast

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gnana997/vuestories/pkg/parser"
	"github.com/gnana997/vuestories/pkg/parser/queries"
)

func newQueryManager(t *testing.T) *queries.QueryManager {
	t.Helper()
	pm := parser.NewParserManager(nil)
	qm := queries.NewQueryManager(pm, nil)
	t.Cleanup(func() {
		_ = qm.Close()
		_ = pm.Close()
	})
	return qm
}

func TestRewriteDefault(t *testing.T) {
	qm := newQueryManager(t)

	tests := []struct {
		name string
		lang string
		code string
		want string
	}{
		{
			name: "call expression",
			lang: "ts",
			code: "import { defineComponent as _defineComponent } from 'vue'\nexport default /*#__PURE__*/_defineComponent({ __name: 'A' })\n",
			want: "import { defineComponent as _defineComponent } from 'vue'\nconst _sfc_main = /*#__PURE__*/_defineComponent({ __name: 'A' })\n",
		},
		{
			name: "object",
			lang: "js",
			code: "export default { name: 'A' }",
			want: "const _sfc_main = { name: 'A' }",
		},
		{
			name: "named function",
			lang: "js",
			code: "export default function setup() {}",
			want: "function setup() {}\nconst _sfc_main = setup",
		},
		{
			name: "export clause",
			lang: "js",
			code: "const a = {}\nexport { a as default }",
			want: "const a = {}\n\nconst _sfc_main = a",
		},
		{
			name: "no default export",
			lang: "js",
			code: "export const a = 1",
			want: "export const a = 1\nconst _sfc_main = {}",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := RewriteDefault(qm.Parser(), tt.code, tt.lang, "_sfc_main")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestOrganizeImports(t *testing.T) {
	qm := newQueryManager(t)

	code := `import { ref } from 'vue'
import Button from './Button.vue'
import { createVNode as _createVNode, openBlock as _openBlock } from "vue"
import { openBlock as _openBlock, createBlock as _createBlock } from "vue"
import type { Props } from './types'

const a = ref(1)
`
	got, err := OrganizeImports(qm, code, "ts")
	require.NoError(t, err)
	assert.Equal(t, `import { ref, createVNode as _createVNode, openBlock as _openBlock, createBlock as _createBlock } from "vue"
import Button from './Button.vue'
import type { Props } from './types'

const a = ref(1)
`, got)
}

func TestOrganizeImportsKeepsNamespace(t *testing.T) {
	qm := newQueryManager(t)

	code := "import * as V from 'vue'\nimport { h } from 'vue'\n"
	got, err := OrganizeImports(qm, code, "js")
	require.NoError(t, err)
	assert.Equal(t, "import * as V from \"vue\"\nimport { h } from \"vue\"\n", got)
}

func TestListImports(t *testing.T) {
	qm := newQueryManager(t)

	prog, err := Parse(qm.Parser(), "import D, { a as b, c } from 'm'\nimport './side.css'\n", "js")
	require.NoError(t, err)
	defer prog.Close()

	imports, err := ListImports(qm, prog)
	require.NoError(t, err)
	require.Len(t, imports, 2)

	assert.Equal(t, "m", imports[0].Source)
	assert.Equal(t, "D", imports[0].Default)
	assert.Equal(t, []string{"D", "b", "c"}, imports[0].Locals())
	imported, ok := imports[0].Imported("b")
	assert.True(t, ok)
	assert.Equal(t, "a", imported)

	assert.Equal(t, "./side.css", imports[1].Source)
	assert.Empty(t, imports[1].Locals())
}

func TestNodeHelpers(t *testing.T) {
	qm := newQueryManager(t)

	code := "const { a, b: c, d = 1 } = obj\nlet x = (1, (2, 3))\nconst o = { 'k-1': 1, m() {}, s }\n"
	prog, err := Parse(qm.Parser(), code, "js")
	require.NoError(t, err)
	defer prog.Close()

	stmts := prog.Statements()
	require.Len(t, stmts, 3)

	decl := Declarators(stmts[0])[0]
	assert.Equal(t, []string{"a", "c", "d"}, PatternNames(decl.ChildByFieldName("name"), prog.Src))
	assert.Equal(t, "const", DeclarationKind(stmts[0], prog.Src))
	assert.Equal(t, "let", DeclarationKind(stmts[1], prog.Src))

	seq := Unparen(Declarators(stmts[1])[0].ChildByFieldName("value"))
	var parts []string
	for _, n := range FlattenSequence(seq) {
		parts = append(parts, prog.Text(n))
	}
	assert.Equal(t, []string{"1", "(2, 3)"}, parts)

	obj := Declarators(stmts[2])[0].ChildByFieldName("value")
	members := ObjectMembers(obj, prog.Src)
	require.Len(t, members, 3)
	assert.Equal(t, "k-1", members[0].Key)
	assert.Equal(t, "m", members[1].Key)
	assert.Nil(t, members[1].Value)
	assert.Equal(t, "s", members[2].Key)
}
