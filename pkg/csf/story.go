package csf

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/vuestories/pkg/edit"
	"github.com/gnana997/vuestories/pkg/format"
	"github.com/gnana997/vuestories/pkg/jsast"
	"github.com/gnana997/vuestories/pkg/stories"
	"github.com/gnana997/vuestories/pkg/textutil"
)

// controllableIndex selects the root of a multi-root story whose props
// become the story args. It is fixed: the other roots are never
// controllable, whatever the template looks like.
const controllableIndex = 1

const (
	setupReceiver = "$setup"
	ctxPrefix     = "_ctx."
)

var setupAccess = regexp.MustCompile(`\$setup(?:\.([A-Za-z_$][\w$]*)|\[\s*["']([^"']+)["']\s*\])`)

// renderShape tags the compiled return expressions the rewrite knows.
type renderShape int

const (
	// shapeUnrecognized renders unchanged with empty args.
	shapeUnrecognized renderShape = iota
	// shapeSingleChild is `_createBlock(comp, {props}, ...)`.
	shapeSingleChild
	// shapeMultiChild is `_createElementBlock(_Fragment, null, [..])`.
	shapeMultiChild
)

func (r renderShape) String() string {
	switch r {
	case shapeSingleChild:
		return "single-child"
	case shapeMultiChild:
		return "multi-child"
	}
	return "unrecognized"
}

type renderCall struct {
	shape renderShape
	// props is the bound-attribute object, nil when unrecognized.
	props *ts.Node
}

func classifyRender(ret *ts.Node, src []byte) renderCall {
	exprs := jsast.FlattenSequence(jsast.Unparen(ret))
	if len(exprs) < 2 {
		return renderCall{}
	}
	call := exprs[1]
	args := jsast.Arguments(call)
	switch jsast.Callee(call, src) {
	case "_createBlock":
		if len(args) > 1 && args[1].Kind() == "object" {
			return renderCall{shape: shapeSingleChild, props: args[1]}
		}
	case "_createElementBlock":
		if len(args) < 3 || args[2].Kind() != "array" {
			break
		}
		children := jsast.NamedChildren(args[2])
		if len(children) <= controllableIndex {
			break
		}
		child := children[controllableIndex]
		if child.Kind() != "call_expression" {
			break
		}
		if cargs := jsast.Arguments(child); len(cargs) > 1 && cargs[1].Kind() == "object" {
			return renderCall{shape: shapeMultiChild, props: cargs[1]}
		}
	}
	return renderCall{}
}

// bindingSet accumulates the script bindings referenced by story args, in
// first-use order.
type bindingSet struct {
	names []string
	seen  map[string]bool
}

func newBindingSet() *bindingSet {
	return &bindingSet{seen: make(map[string]bool)}
}

func (b *bindingSet) add(name string) {
	if b.seen[name] {
		return
	}
	b.seen[name] = true
	b.names = append(b.names, name)
}

// findStoryExport locates `export const <Id> = () => ...` and returns the
// id and the arrow function.
func findStoryExport(stmt *ts.Node, src []byte) (string, *ts.Node) {
	if stmt.Kind() != "export_statement" {
		return "", nil
	}
	decl := stmt.ChildByFieldName("declaration")
	if decl == nil || decl.Kind() != "lexical_declaration" {
		return "", nil
	}
	decls := jsast.Declarators(decl)
	if len(decls) != 1 {
		return "", nil
	}
	name := decls[0].ChildByFieldName("name")
	value := decls[0].ChildByFieldName("value")
	if name == nil || value == nil || value.Kind() != "arrow_function" {
		return "", nil
	}
	return name.Utf8Text(src), value
}

// renderReference reads render<Id> from
// `() => Object.assign({ render: render<Id> }, _sfc_main)`.
func renderReference(arrow *ts.Node, src []byte) string {
	body := jsast.Unparen(arrow.ChildByFieldName("body"))
	if body == nil || body.Kind() != "call_expression" {
		return ""
	}
	args := jsast.Arguments(body)
	if len(args) == 0 || args[0].Kind() != "object" {
		return ""
	}
	m, ok := jsast.FindMember(args[0], src, "render")
	if !ok || m.Value == nil || m.Value.Kind() != "identifier" {
		return ""
	}
	return m.Value.Utf8Text(src)
}

func findFunction(prog *jsast.Program, name string) *ts.Node {
	for _, stmt := range prog.Statements() {
		if stmt.Kind() != "function_declaration" {
			continue
		}
		if n := stmt.ChildByFieldName("name"); n != nil && prog.Text(n) == name {
			return stmt
		}
	}
	return nil
}

// findParameters returns the source template literal of
// `<id>.parameters = { docs: { source: { code: `...` } } }`.
func findParameters(prog *jsast.Program, id string) *ts.Node {
	for _, stmt := range prog.Statements() {
		if stmt.Kind() != "expression_statement" {
			continue
		}
		assign := jsast.FirstNamedChild(stmt)
		if assign == nil || assign.Kind() != "assignment_expression" {
			continue
		}
		left := assign.ChildByFieldName("left")
		if left == nil || left.Kind() != "member_expression" {
			continue
		}
		obj, prop := left.ChildByFieldName("object"), left.ChildByFieldName("property")
		if obj == nil || prop == nil || prog.Text(obj) != id || prog.Text(prop) != "parameters" {
			continue
		}
		node := assign.ChildByFieldName("right")
		for _, key := range []string{"docs", "source", "code"} {
			if node == nil || node.Kind() != "object" {
				return nil
			}
			m, ok := jsast.FindMember(node, prog.Src, key)
			if !ok {
				return nil
			}
			node = m.Value
		}
		if node != nil && node.Kind() == "template_string" {
			return node
		}
		return nil
	}
	return nil
}

// rewriteStory turns one story export into an object story with args.
func (e *Emitter) rewriteStory(ctx context.Context, s *edit.String, prog *jsast.Program, story stories.Story, arrow *ts.Node, hasSetup bool, used *bindingSet) error {
	if err := e.formatSource(ctx, s, prog, story); err != nil {
		return err
	}

	renderName := renderReference(arrow, prog.Src)
	if renderName == "" {
		return fmt.Errorf("story %s: render function reference not found", story.ID)
	}
	fn := findFunction(prog, renderName)
	if fn == nil {
		return fmt.Errorf("story %s: render function %s not found", story.ID, renderName)
	}
	body := fn.ChildByFieldName("body")
	stmts := jsast.NamedChildren(body)
	retIdx := -1
	for i, stmt := range stmts {
		if stmt.Kind() == "return_statement" {
			retIdx = i
		}
	}
	if retIdx < 0 {
		return fmt.Errorf("story %s: render function %s has no return", story.ID, renderName)
	}
	ret := jsast.FirstNamedChild(stmts[retIdx])
	if ret == nil {
		return fmt.Errorf("story %s: render function %s returns nothing", story.ID, renderName)
	}

	output := prog.Text(ret)
	var args []string
	rc := classifyRender(ret, prog.Src)
	if rc.shape != shapeUnrecognized {
		var replacement []string
		for _, m := range jsast.ObjectMembers(rc.props, prog.Src) {
			if m.Value == nil || m.Key == "" {
				// spreads and computed keys stay as written
				replacement = append(replacement, prog.Text(m.Node))
				continue
			}
			camel := textutil.ToCamelCase(m.Key)
			key, access := camel, "args."+camel
			if !textutil.IsIdentifier(camel) {
				key = textutil.JSString(camel)
				access = "args[" + key + "]"
			}
			replacement = append(replacement, textutil.JSString(m.Key)+": "+access)
			args = append(args, key+": "+argValue(prog.Text(m.Value)))
		}

		base := int(ret.StartByte())
		start, end := int(rc.props.StartByte())-base, int(rc.props.EndByte())-base
		output = output[:start] + "{ " + strings.Join(replacement, ", ") + " }" + output[end:]
		output = strings.ReplaceAll(output, ctxPrefix, "")

		collectSetupAccess(rc.props, prog.Src, used)
	}
	e.logger.Debug("story rewritten", "story", story.ID, "shape", rc.shape, "args", len(args))

	var pre []string
	for _, stmt := range stmts[:retIdx] {
		pre = append(pre, prog.Text(stmt))
	}

	argsText := "{}"
	if len(args) > 0 {
		argsText = "{ " + strings.Join(args, ", ") + " }"
	}
	if err := s.Overwrite(int(arrow.StartByte()), int(arrow.EndByte()),
		fmt.Sprintf("{ render: %s(), args: %s }", renderName, argsText)); err != nil {
		return err
	}
	return s.Overwrite(int(fn.StartByte()), int(fn.EndByte()), setupRender(renderName, pre, output, hasSetup))
}

func setupRender(name string, pre []string, output string, hasSetup bool) string {
	setup := "{}"
	if hasSetup {
		setup = mainBinding + ".setup(_setup_props, _setup_ctx)"
	}
	var b strings.Builder
	fmt.Fprintf(&b, "function %s() {\n", name)
	b.WriteString("  return (args) => {\n")
	b.WriteString("    return {\n")
	b.WriteString("      setup: (_setup_props, _setup_ctx) => {\n")
	fmt.Fprintf(&b, "        const $setup = %s\n", setup)
	for _, stmt := range pre {
		fmt.Fprintf(&b, "        %s\n", stmt)
	}
	fmt.Fprintf(&b, "        return () => (%s)\n", output)
	b.WriteString("      },\n")
	b.WriteString("    }\n")
	b.WriteString("  }\n")
	b.WriteString("}")
	return b.String()
}

// argValue strips the render receivers so the value reads module-level
// bindings.
func argValue(text string) string {
	text = setupAccess.ReplaceAllStringFunc(text, func(m string) string {
		sub := setupAccess.FindStringSubmatch(m)
		if sub[1] != "" {
			return sub[1]
		}
		return sub[2]
	})
	return strings.ReplaceAll(text, ctxPrefix, "")
}

// collectSetupAccess records every `$setup.x` and `$setup["x"]` below n.
func collectSetupAccess(n *ts.Node, src []byte, used *bindingSet) {
	jsast.Walk(n, func(node *ts.Node) bool {
		var obj, prop *ts.Node
		switch node.Kind() {
		case "member_expression":
			obj, prop = node.ChildByFieldName("object"), node.ChildByFieldName("property")
		case "subscript_expression":
			obj, prop = node.ChildByFieldName("object"), node.ChildByFieldName("index")
		default:
			return true
		}
		if obj == nil || prop == nil || obj.Kind() != "identifier" || obj.Utf8Text(src) != setupReceiver {
			return true
		}
		if prop.Kind() == "property_identifier" {
			used.add(prop.Utf8Text(src))
		} else if name, ok := jsast.StringValue(prop, src); ok {
			used.add(name)
		}
		return true
	})
}

// formatSource pretty-prints the story markup into its source parameter.
func (e *Emitter) formatSource(ctx context.Context, s *edit.String, prog *jsast.Program, story stories.Story) error {
	lit := findParameters(prog, story.ID)
	if lit == nil {
		return nil
	}
	formatted, err := e.formatter.Format(ctx, "<template>"+story.Template+"</template>", format.SourceOptions())
	if err != nil {
		return fmt.Errorf("failed to format source of story %s: %w", story.ID, err)
	}
	start, end := int(lit.StartByte())+1, int(lit.EndByte())-1
	if start == end {
		s.PrependRight(start, templateLiteral(formatted))
		return nil
	}
	return s.Overwrite(start, end, templateLiteral(formatted))
}
