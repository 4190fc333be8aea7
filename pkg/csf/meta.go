package csf

import (
	"fmt"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/vuestories/pkg/edit"
	"github.com/gnana997/vuestories/pkg/errs"
	"github.com/gnana997/vuestories/pkg/jsast"
	"github.com/gnana997/vuestories/pkg/textutil"
)

const deepmergeImport = "import deepmerge from 'deepmerge';\n"

// defaultObject finds the object of `export default {...}`.
func defaultObject(prog *jsast.Program) *ts.Node {
	for _, stmt := range prog.Statements() {
		if stmt.Kind() != "export_statement" || jsast.ChildOfKind(stmt, "default") == nil {
			continue
		}
		if v := jsast.Unparen(stmt.ChildByFieldName("value")); v != nil && v.Kind() == "object" {
			return v
		}
	}
	return nil
}

// mergeMeta wraps the default export in a deepmerge of the synthesized arg
// types and extra, the defineMeta object, and extends its parameters.
func (e *Emitter) mergeMeta(s *edit.String, prog *jsast.Program, filename, extra string) error {
	obj := defaultObject(prog)
	if obj == nil {
		return fmt.Errorf("%s: generated module has no default export object", filename)
	}
	params, ok := jsast.FindMember(obj, prog.Src, "parameters")
	if !ok || params.Value == nil || params.Value.Kind() != "object" {
		return errs.Structuref(filename, "story meta has no parameters object")
	}
	comp, ok := jsast.FindMember(obj, prog.Src, "component")
	if !ok || comp.Value == nil {
		return errs.Structuref(filename, "story meta has no component")
	}
	x := prog.Text(comp.Value)

	parts := []string{modelsArgTypes(x), slotsArgTypes(x), suppressedArgTypes}
	if extra != "" {
		parts = append(parts, extra)
	}
	s.Prepend(deepmergeImport)
	s.PrependRight(int(obj.StartByte()), "deepmerge.all([")
	s.AppendLeft(int(obj.EndByte()), ",\n"+strings.Join(parts, ",\n")+"\n])")

	description := fmt.Sprintf("description: { component: %s.description }", x)
	fields := []string{}
	if docs, ok := jsast.FindMember(params.Value, prog.Src, "docs"); ok && docs.Value != nil && docs.Value.Kind() == "object" {
		appendMembers(s, docs.Value, prog.Src, description)
	} else {
		fields = append(fields, "docs: { "+description+" }")
	}
	if e.design != nil {
		fields = append(fields, fmt.Sprintf("design: { type: %s, url: %s.designUrl }", textutil.JSString(e.design.Type), x))
	}
	fields = append(fields, fmt.Sprintf(
		"cssprops: %s.cssVars?.reduce((acc, { key, value, type, description }) => ({ ...acc, [key.slice(2)]: { value, type, description, control: \"text\" } }), {})", x))

	appendMembers(s, params.Value, prog.Src, strings.Join(fields, ", "))
	return nil
}

func appendMembers(s *edit.String, obj *ts.Node, src []byte, inner string) {
	if len(jsast.NamedChildren(obj)) == 0 {
		inner = " " + inner + " "
	}
	offset, text := jsast.InsertMembers(obj, src, inner)
	s.AppendLeft(offset, text)
}

func modelsArgTypes(x string) string {
	model := fmt.Sprintf("%s.models?.find(model => model.name === name.replace('update:', ''))", x)
	return fmt.Sprintf("{ argTypes: %s.__docgenInfo?.events?.filter(event => event.name.startsWith('update:')).reduce((acc, { name }) => ({ ...acc, [name.replace('update:', '')]: { description: %s?.description, table: { category: 'models', defaultValue: { summary: %s?.default } } }, [name]: { table: { disable: true } } }), {}) }",
		x, model, model)
}

func slotsArgTypes(x string) string {
	return fmt.Sprintf("{ argTypes: %s.__docgenInfo?.slots?.reduce((acc, { name }) => ({ ...acc, [name]: { control: 'text', type: 'VNode[]' } }), {}) }", x)
}

const suppressedArgTypes = "{ argTypes: { $: { table: { disable: true } }, $slots: { table: { disable: true } } } }"
