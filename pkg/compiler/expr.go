package compiler

import (
	"sort"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/vuestories/pkg/errs"
	"github.com/gnana997/vuestories/pkg/jsast"
	"github.com/gnana997/vuestories/pkg/textutil"
)

// allowedGlobals are read from the global scope instead of the render
// context.
var allowedGlobals = map[string]bool{
	"Infinity": true, "undefined": true, "NaN": true, "isFinite": true, "isNaN": true,
	"parseFloat": true, "parseInt": true, "decodeURI": true, "decodeURIComponent": true,
	"encodeURI": true, "encodeURIComponent": true, "Math": true, "Number": true,
	"Date": true, "Array": true, "Object": true, "Boolean": true, "String": true,
	"RegExp": true, "Map": true, "Set": true, "JSON": true, "Intl": true,
	"BigInt": true, "console": true, "Error": true, "Symbol": true,
}

var literalKinds = map[string]bool{
	"string": true, "number": true, "true": true, "false": true, "null": true, "undefined": true,
}

// exprScope is a chain of locally bound names.
type exprScope struct {
	parent *exprScope
	names  map[string]bool
}

func (s *exprScope) has(name string) bool {
	for ; s != nil; s = s.parent {
		if s.names[name] {
			return true
		}
	}
	return false
}

func (s *exprScope) child(names ...string) *exprScope {
	c := &exprScope{parent: s, names: make(map[string]bool, len(names))}
	for _, n := range names {
		c.names[n] = true
	}
	return c
}

// rewritten is a template expression with its free identifiers prefixed.
type rewritten struct {
	code string
	// kind is the tree-sitter kind of the expression, parentheses removed.
	kind string
	// refs counts the identifiers that were prefixed.
	refs int
}

type exprEdit struct {
	start, end int
	text       string
}

// ref returns the render-context access path of a free identifier.
func (g *templateGen) ref(name string) string {
	t, ok := g.bindings[name]
	switch {
	case !ok:
		return "_ctx." + name
	case t.IsSetup():
		return "$setup." + name
	case t == BindingProps || t == BindingPropsAliased:
		return "$props." + name
	case t == BindingData:
		return "$data." + name
	case t == BindingOptions:
		return "$options." + name
	}
	return "_ctx." + name
}

// expression rewrites a single template expression. offset is used only for
// error reporting.
func (g *templateGen) expression(exp string, offset int, locals ...string) (rewritten, error) {
	code := "(" + exp + "\n)"
	out, err := g.rewriteCode(code, offset, true, locals)
	if err != nil {
		return rewritten{}, err
	}
	out.code = strings.TrimSuffix(strings.TrimPrefix(out.code, "("), "\n)")
	return out, nil
}

// statements rewrites a statement list, as found in inline event handlers.
func (g *templateGen) statements(exp string, offset int, locals ...string) (rewritten, error) {
	return g.rewriteCode(exp, offset, false, locals)
}

func (g *templateGen) rewriteCode(code string, offset int, single bool, locals []string) (rewritten, error) {
	prog, err := jsast.Parse(g.qm.Parser(), code, "ts")
	if err != nil {
		return rewritten{}, err
	}
	defer prog.Close()

	unsupported := &errs.UnsupportedError{Construct: "expression " + strings.TrimSpace(code), Offset: offset}
	if prog.Root.HasError() {
		return rewritten{}, unsupported
	}
	stmts := prog.Statements()
	if single && (len(stmts) != 1 || stmts[0].Kind() != "expression_statement") {
		return rewritten{}, unsupported
	}

	scope := g.scope().child(locals...)
	var edits []exprEdit
	for _, stmt := range stmts {
		g.collectRefs(stmt, prog.Src, scope, &edits)
	}

	out := rewritten{refs: len(edits)}
	if single {
		if expr := jsast.Unparen(jsast.FirstNamedChild(stmts[0])); expr != nil {
			out.kind = expr.Kind()
		}
	}
	out.code = applyEdits(code, edits)
	return out, nil
}

func (g *templateGen) collectRefs(n *ts.Node, src []byte, scope *exprScope, edits *[]exprEdit) {
	if n == nil {
		return
	}
	switch n.Kind() {
	case "identifier":
		name := n.Utf8Text(src)
		if scope.has(name) || allowedGlobals[name] {
			return
		}
		*edits = append(*edits, exprEdit{int(n.StartByte()), int(n.EndByte()), g.ref(name)})
		return
	case "shorthand_property_identifier":
		name := n.Utf8Text(src)
		if scope.has(name) || allowedGlobals[name] {
			return
		}
		*edits = append(*edits, exprEdit{int(n.StartByte()), int(n.EndByte()), name + ": " + g.ref(name)})
		return
	case "arrow_function", "function_expression", "function":
		var names []string
		if p := n.ChildByFieldName("parameter"); p != nil {
			names = append(names, p.Utf8Text(src))
		}
		if params := n.ChildByFieldName("parameters"); params != nil {
			names = append(names, jsast.PatternNames(params, src)...)
		}
		if name := n.ChildByFieldName("name"); name != nil {
			names = append(names, name.Utf8Text(src))
		}
		g.collectRefs(n.ChildByFieldName("body"), src, scope.child(names...), edits)
		return
	case "type_annotation", "type_arguments", "property_identifier", "statement_identifier", "comment":
		return
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		g.collectRefs(n.NamedChild(i), src, scope, edits)
	}
}

func applyEdits(code string, edits []exprEdit) string {
	if len(edits) == 0 {
		return code
	}
	sort.Slice(edits, func(i, j int) bool { return edits[i].start < edits[j].start })
	var b strings.Builder
	last := 0
	for _, e := range edits {
		b.WriteString(code[last:e.start])
		b.WriteString(e.text)
		last = e.end
	}
	b.WriteString(code[last:])
	return b.String()
}

// isStatic reports whether a rewritten expression never changes between
// renders: a literal, or a single constant binding.
func (g *templateGen) isStatic(exp string, r rewritten) bool {
	if r.refs == 0 && (literalKinds[r.kind] || r.kind == "template_string") {
		return true
	}
	return r.kind == "identifier" && r.refs == 1 && g.bindings[strings.TrimSpace(exp)].IsConst()
}

var eventOptionModifiers = map[string]bool{"passive": true, "once": true, "capture": true}

var nonKeyModifiers = map[string]bool{
	"stop": true, "prevent": true, "self": true,
	"ctrl": true, "shift": true, "alt": true, "meta": true, "exact": true,
	"middle": true,
}

var keyboardEvents = map[string]bool{"onkeyup": true, "onkeydown": true, "onkeypress": true}

// handler compiles a v-on value into a handler expression. Member paths and
// function expressions are used as-is; anything else becomes an inline
// `$event =>` function.
func (g *templateGen) handler(exp string, offset int, key string, modifiers []string) (string, error) {
	var code string
	switch {
	case strings.TrimSpace(exp) == "":
		code = "() => {}"
	default:
		r, err := g.expression(exp, offset)
		if err != nil {
			r, err = g.statements(exp, offset, "$event")
			if err != nil {
				return "", err
			}
			code = "$event => {" + r.code + "}"
			break
		}
		switch r.kind {
		case "identifier", "member_expression", "subscript_expression",
			"arrow_function", "function_expression", "function":
			code = r.code
		default:
			r, err = g.expression(exp, offset, "$event")
			if err != nil {
				return "", err
			}
			code = "$event => (" + r.code + ")"
		}
	}

	var mods, keys []string
	keyboard := keyboardEvents[strings.ToLower(key)]
	for _, m := range modifiers {
		switch {
		case eventOptionModifiers[m]:
		case nonKeyModifiers[m]:
			mods = append(mods, m)
		case m == "left" || m == "right":
			if keyboard {
				keys = append(keys, m)
			} else {
				mods = append(mods, m)
			}
		default:
			keys = append(keys, m)
		}
	}
	if len(mods) > 0 {
		code = g.helper("withModifiers") + "(" + code + ", " + stringList(mods) + ")"
	}
	if len(keys) > 0 && keyboard {
		code = g.helper("withKeys") + "(" + code + ", " + stringList(keys) + ")"
	}
	return code, nil
}

// handlerKey returns the props key of a v-on argument: click -> onClick,
// my-event -> onMyEvent, update:modelValue -> onUpdate:modelValue.
func handlerKey(event string, modifiers []string) string {
	for _, m := range modifiers {
		switch {
		case m == "right" && event == "click":
			event = "contextmenu"
		case m == "middle" && event == "click":
			event = "mouseup"
		}
	}
	key := "on" + textutil.UpperFirst(textutil.ToCamelCase(event))
	for _, m := range modifiers {
		if eventOptionModifiers[m] {
			key += textutil.UpperFirst(m)
		}
	}
	return key
}

func stringList(items []string) string {
	quoted := make([]string, len(items))
	for i, item := range items {
		quoted[i] = jsString(item)
	}
	return "[" + strings.Join(quoted, ", ") + "]"
}

// paramNames returns the names bound by a slot props pattern such as
// `{ item, index }`.
func (g *templateGen) paramNames(params string, offset int) ([]string, error) {
	if strings.TrimSpace(params) == "" {
		return nil, nil
	}
	prog, err := jsast.Parse(g.qm.Parser(), "(("+params+") => 0)", "ts")
	if err != nil {
		return nil, err
	}
	defer prog.Close()
	if prog.Root.HasError() {
		return nil, &errs.UnsupportedError{Construct: "slot props " + params, Offset: offset}
	}
	var names []string
	jsast.Walk(prog.Root, func(n *ts.Node) bool {
		if n.Kind() != "arrow_function" {
			return true
		}
		names = jsast.PatternNames(n.ChildByFieldName("parameters"), prog.Src)
		return false
	})
	return names, nil
}
