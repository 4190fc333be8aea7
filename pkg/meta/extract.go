package meta

import (
	"fmt"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/vuestories/pkg/docblock"
	"github.com/gnana997/vuestories/pkg/jsast"
	"github.com/gnana997/vuestories/pkg/parser"
	"github.com/gnana997/vuestories/pkg/sfc"
)

// Extract reads the props, events and slots a component declares.
//
// <script setup> macros are read from their type arguments or runtime
// declarations; a plain <script> contributes the props and emits options of
// its default export. Template <slot> elements add slots not declared with
// defineSlots.
func Extract(pm *parser.ParserManager, filename, source string) (*ComponentMeta, error) {
	desc, err := sfc.Parse(pm, filename, source)
	if err != nil {
		return nil, err
	}

	meta := &ComponentMeta{}
	switch {
	case desc.ScriptSetup != nil:
		if err := extractSetup(pm, desc.ScriptSetup, meta); err != nil {
			return nil, fmt.Errorf("failed to read <script setup> of %s: %w", filename, err)
		}
	case desc.Script != nil:
		if err := extractOptions(pm, desc.Script, meta); err != nil {
			return nil, fmt.Errorf("failed to read <script> of %s: %w", filename, err)
		}
	}
	if desc.Template != nil {
		templateSlots(desc.Template.AST, meta)
	}
	return meta, nil
}

type extractor struct {
	src   []byte
	types map[string]*ts.Node
	meta  *ComponentMeta
}

func extractSetup(pm *parser.ParserManager, block *sfc.Block, meta *ComponentMeta) error {
	prog, err := jsast.Parse(pm, block.Content, block.Lang())
	if err != nil {
		return err
	}
	defer prog.Close()

	x := &extractor{src: prog.Src, types: collectTypes(prog.Statements(), prog.Src), meta: meta}
	for _, stmt := range prog.Statements() {
		doc := leadingDoc(stmt, x.src)
		destructured := destructureDefaults(stmt, x.src)

		jsast.Walk(stmt, func(n *ts.Node) bool {
			if n.Kind() != "call_expression" {
				return true
			}
			switch jsast.Callee(n, x.src) {
			case "withDefaults":
				args := jsast.Arguments(n)
				if len(args) > 0 && jsast.Callee(args[0], x.src) == "defineProps" {
					defaults := destructured
					if len(args) > 1 {
						defaults = objectDefaults(unwrap(args[1]), x.src)
					}
					x.defineProps(args[0], defaults)
				}
			case "defineProps":
				x.defineProps(n, destructured)
			case "defineEmits":
				x.defineEmits(n)
			case "defineModel":
				x.defineModel(n, doc)
			case "defineSlots":
				x.defineSlots(n)
			default:
				return true
			}
			return false
		})
	}
	return nil
}

func extractOptions(pm *parser.ParserManager, block *sfc.Block, meta *ComponentMeta) error {
	prog, err := jsast.Parse(pm, block.Content, block.Lang())
	if err != nil {
		return err
	}
	defer prog.Close()

	x := &extractor{src: prog.Src, meta: meta}
	for _, stmt := range prog.Statements() {
		if stmt.Kind() != "export_statement" || jsast.ChildOfKind(stmt, "default") == nil {
			continue
		}
		value := unwrap(stmt.ChildByFieldName("value"))
		if value != nil && value.Kind() == "call_expression" {
			if args := jsast.Arguments(value); len(args) > 0 {
				value = unwrap(args[0])
			}
		}
		if value == nil || value.Kind() != "object" {
			continue
		}
		if m, ok := jsast.FindMember(value, x.src, "props"); ok && m.Value != nil {
			x.runtimeProps(unwrap(m.Value), nil)
		}
		if m, ok := jsast.FindMember(value, x.src, "emits"); ok && m.Value != nil {
			x.runtimeEmits(unwrap(m.Value))
		}
	}
	return nil
}

// collectTypes indexes top-level interfaces and type aliases by name.
func collectTypes(stmts []*ts.Node, src []byte) map[string]*ts.Node {
	types := make(map[string]*ts.Node)
	for _, stmt := range stmts {
		decl := stmt
		if stmt.Kind() == "export_statement" {
			if d := stmt.ChildByFieldName("declaration"); d != nil {
				decl = d
			}
		}
		switch decl.Kind() {
		case "interface_declaration", "type_alias_declaration":
			if name := decl.ChildByFieldName("name"); name != nil {
				types[name.Utf8Text(src)] = decl
			}
		}
	}
	return types
}

func (x *extractor) text(n *ts.Node) string {
	return n.Utf8Text(x.src)
}

// bodies resolves a type argument to the member lists it declares.
// Intersections contribute every side; unknown references contribute
// nothing.
func (x *extractor) bodies(typ *ts.Node) []*ts.Node {
	if typ == nil {
		return nil
	}
	switch typ.Kind() {
	case "object_type", "interface_body":
		return []*ts.Node{typ}
	case "parenthesized_type":
		return x.bodies(jsast.FirstNamedChild(typ))
	case "intersection_type":
		var out []*ts.Node
		for _, side := range jsast.NamedChildren(typ) {
			out = append(out, x.bodies(side)...)
		}
		return out
	case "type_identifier":
		decl, ok := x.types[x.text(typ)]
		if !ok {
			return nil
		}
		if decl.Kind() == "interface_declaration" {
			return x.bodies(decl.ChildByFieldName("body"))
		}
		return x.bodies(decl.ChildByFieldName("value"))
	}
	return nil
}

// members returns the signatures of the type arguments of a macro call.
func (x *extractor) members(call *ts.Node) ([]*ts.Node, bool) {
	targs := call.ChildByFieldName("type_arguments")
	if targs == nil {
		return nil, false
	}
	var out []*ts.Node
	for _, body := range x.bodies(jsast.FirstNamedChild(targs)) {
		for i := uint(0); i < body.NamedChildCount(); i++ {
			if child := body.NamedChild(i); child.Kind() != "comment" {
				out = append(out, child)
			}
		}
	}
	return out, true
}

func (x *extractor) defineProps(call *ts.Node, defaults map[string]string) {
	if sigs, ok := x.members(call); ok {
		for _, sig := range sigs {
			if sig.Kind() != "property_signature" && sig.Kind() != "method_signature" {
				continue
			}
			name, ok := jsast.PropertyKey(sig.ChildByFieldName("name"), x.src)
			if !ok {
				continue
			}
			x.meta.Props = append(x.meta.Props, PropMeta{
				Name:        name,
				Type:        x.signatureType(sig),
				Default:     defaults[name],
				Description: leadingDoc(sig, x.src),
				Required:    !optional(sig),
			})
		}
		return
	}
	if args := jsast.Arguments(call); len(args) > 0 {
		x.runtimeProps(unwrap(args[0]), defaults)
	}
}

func (x *extractor) runtimeProps(decl *ts.Node, defaults map[string]string) {
	switch decl.Kind() {
	case "array":
		for _, el := range jsast.NamedChildren(decl) {
			if name, ok := jsast.StringValue(el, x.src); ok {
				x.meta.Props = append(x.meta.Props, PropMeta{Name: name, Type: "any", Default: defaults[name]})
			}
		}
	case "object":
		for _, m := range jsast.ObjectMembers(decl, x.src) {
			if m.Key == "" || m.Value == nil {
				continue
			}
			p := PropMeta{Name: m.Key, Description: leadingDoc(m.Node, x.src), Default: defaults[m.Key]}
			x.runtimeProp(&p, unwrap(m.Value))
			x.meta.Props = append(x.meta.Props, p)
		}
	}
}

// runtimeProp fills a prop from a runtime declaration: a constructor, an
// array of constructors, or an options object.
func (x *extractor) runtimeProp(p *PropMeta, value *ts.Node) {
	switch value.Kind() {
	case "identifier", "array":
		p.Type = x.constructorType(value)
	case "object":
		for _, m := range jsast.ObjectMembers(value, x.src) {
			if m.Value == nil {
				continue
			}
			switch m.Key {
			case "type":
				p.Type = x.constructorType(unwrap(m.Value))
			case "required":
				p.Required = x.text(m.Value) == "true"
			case "default":
				p.Default = defaultText(m.Value, x.src)
			}
		}
	}
}

var constructorTypes = map[string]string{
	"String":   "string",
	"Number":   "number",
	"Boolean":  "boolean",
	"Array":    "unknown[]",
	"Object":   "Record<string, any>",
	"Function": "(...args: any[]) => any",
	"Symbol":   "symbol",
}

func (x *extractor) constructorType(n *ts.Node) string {
	if n == nil {
		return ""
	}
	if n.Kind() == "array" {
		var parts []string
		for _, el := range jsast.NamedChildren(n) {
			if t := x.constructorType(el); t != "" {
				parts = append(parts, t)
			}
		}
		return strings.Join(parts, " | ")
	}
	name := x.text(n)
	if t, ok := constructorTypes[name]; ok {
		return t
	}
	return name
}

func (x *extractor) defineEmits(call *ts.Node) {
	if targs := call.ChildByFieldName("type_arguments"); targs != nil {
		typ := jsast.FirstNamedChild(targs)
		if typ != nil && typ.Kind() == "function_type" {
			x.callSignature(typ, "")
			return
		}
		sigs, _ := x.members(call)
		for _, sig := range sigs {
			switch sig.Kind() {
			case "call_signature":
				x.callSignature(sig, leadingDoc(sig, x.src))
			case "property_signature":
				name, ok := jsast.PropertyKey(sig.ChildByFieldName("name"), x.src)
				if !ok {
					continue
				}
				x.meta.Events = append(x.meta.Events, EventMeta{
					Name:        name,
					Type:        x.signatureType(sig),
					Description: leadingDoc(sig, x.src),
				})
			}
		}
		return
	}
	if args := jsast.Arguments(call); len(args) > 0 {
		x.runtimeEmits(unwrap(args[0]))
	}
}

// callSignature reads `(e: 'change' | 'input', id: number): void`.
func (x *extractor) callSignature(sig *ts.Node, doc string) {
	params := jsast.NamedChildren(sig.ChildByFieldName("parameters"))
	if len(params) == 0 {
		return
	}
	names := literalTypes(paramType(params[0]), x.src)
	rest := make([]string, 0, len(params)-1)
	for _, p := range params[1:] {
		rest = append(rest, x.text(p))
	}
	for _, name := range names {
		x.meta.Events = append(x.meta.Events, EventMeta{
			Name:        name,
			Type:        "[" + strings.Join(rest, ", ") + "]",
			Description: doc,
		})
	}
}

func (x *extractor) runtimeEmits(decl *ts.Node) {
	switch decl.Kind() {
	case "array":
		for _, el := range jsast.NamedChildren(decl) {
			if name, ok := jsast.StringValue(el, x.src); ok {
				x.meta.Events = append(x.meta.Events, EventMeta{Name: name})
			}
		}
	case "object":
		for _, m := range jsast.ObjectMembers(decl, x.src) {
			if m.Key != "" {
				x.meta.Events = append(x.meta.Events, EventMeta{Name: m.Key, Description: leadingDoc(m.Node, x.src)})
			}
		}
	}
}

// defineModel declares a prop and its update: event.
func (x *extractor) defineModel(call *ts.Node, doc string) {
	name := "modelValue"
	args := jsast.Arguments(call)
	var opts *ts.Node
	if len(args) > 0 {
		if v, ok := jsast.StringValue(args[0], x.src); ok {
			name = v
			if len(args) > 1 {
				opts = unwrap(args[1])
			}
		} else {
			opts = unwrap(args[0])
		}
	}

	prop := PropMeta{Name: name, Description: doc}
	if targs := call.ChildByFieldName("type_arguments"); targs != nil {
		if t := jsast.FirstNamedChild(targs); t != nil {
			prop.Type = x.text(t)
		}
	}
	if opts != nil && opts.Kind() == "object" {
		typ := prop.Type
		x.runtimeProp(&prop, opts)
		if typ != "" {
			prop.Type = typ
		}
	}

	payload := prop.Type
	if payload == "" {
		payload = "any"
	}
	x.meta.Props = append(x.meta.Props, prop)
	x.meta.Events = append(x.meta.Events, EventMeta{Name: UpdatePrefix + name, Type: "[value: " + payload + "]"})
}

func (x *extractor) defineSlots(call *ts.Node) {
	sigs, _ := x.members(call)
	for _, sig := range sigs {
		if sig.Kind() != "property_signature" && sig.Kind() != "method_signature" {
			continue
		}
		name, ok := jsast.PropertyKey(sig.ChildByFieldName("name"), x.src)
		if !ok {
			continue
		}
		typ := x.signatureType(sig)
		if sig.Kind() == "method_signature" {
			if params := sig.ChildByFieldName("parameters"); params != nil {
				typ = x.text(params)
			}
		}
		x.meta.Slots = append(x.meta.Slots, SlotMeta{Name: name, Type: typ, Description: leadingDoc(sig, x.src)})
	}
}

// signatureType renders the type of a property or method signature.
func (x *extractor) signatureType(sig *ts.Node) string {
	if sig.Kind() == "method_signature" {
		params := sig.ChildByFieldName("parameters")
		ret := "void"
		if r := annotated(sig.ChildByFieldName("return_type")); r != nil {
			ret = x.text(r)
		}
		if params == nil {
			return "() => " + ret
		}
		return x.text(params) + " => " + ret
	}
	if t := annotated(sig.ChildByFieldName("type")); t != nil {
		return x.text(t)
	}
	return "any"
}

// annotated unwraps a type_annotation to its type.
func annotated(n *ts.Node) *ts.Node {
	if n != nil && n.Kind() == "type_annotation" {
		return jsast.FirstNamedChild(n)
	}
	return n
}

func paramType(param *ts.Node) *ts.Node {
	return annotated(param.ChildByFieldName("type"))
}

// literalTypes lists the string literals of a literal type or a union of
// them.
func literalTypes(typ *ts.Node, src []byte) []string {
	if typ == nil {
		return nil
	}
	switch typ.Kind() {
	case "literal_type":
		if v, ok := jsast.StringValue(jsast.FirstNamedChild(typ), src); ok {
			return []string{v}
		}
	case "union_type":
		var out []string
		for _, side := range jsast.NamedChildren(typ) {
			out = append(out, literalTypes(side, src)...)
		}
		return out
	case "parenthesized_type":
		return literalTypes(jsast.FirstNamedChild(typ), src)
	}
	return nil
}

func optional(sig *ts.Node) bool {
	for i := uint(0); i < sig.ChildCount(); i++ {
		if sig.Child(i).Kind() == "?" {
			return true
		}
	}
	return false
}

// leadingDoc returns the description of the /** */ comment directly before
// n, or "".
func leadingDoc(n *ts.Node, src []byte) string {
	prev := n.PrevNamedSibling()
	if prev == nil || prev.Kind() != "comment" {
		return ""
	}
	text := prev.Utf8Text(src)
	if !strings.HasPrefix(text, "/**") {
		return ""
	}
	if d := docblock.Extract(text).Description; d != nil {
		return *d
	}
	return ""
}

// objectDefaults reads the defaults object of withDefaults.
func objectDefaults(obj *ts.Node, src []byte) map[string]string {
	defaults := make(map[string]string)
	if obj == nil || obj.Kind() != "object" {
		return defaults
	}
	for _, m := range jsast.ObjectMembers(obj, src) {
		if m.Key != "" && m.Value != nil {
			defaults[m.Key] = defaultText(m.Value, src)
		}
	}
	return defaults
}

// destructureDefaults reads `const { size = 'md' } = defineProps<...>()`.
func destructureDefaults(stmt *ts.Node, src []byte) map[string]string {
	defaults := make(map[string]string)
	if stmt.Kind() != "lexical_declaration" && stmt.Kind() != "variable_declaration" {
		return defaults
	}
	for _, d := range jsast.Declarators(stmt) {
		pattern := d.ChildByFieldName("name")
		value := unwrap(d.ChildByFieldName("value"))
		if pattern == nil || pattern.Kind() != "object_pattern" || jsast.Callee(value, src) != "defineProps" {
			continue
		}
		for _, child := range jsast.NamedChildren(pattern) {
			switch child.Kind() {
			case "object_assignment_pattern":
				assignDefault(child, src, defaults)
			case "pair_pattern":
				if v := child.ChildByFieldName("value"); v != nil && v.Kind() == "assignment_pattern" {
					key, _ := jsast.PropertyKey(child.ChildByFieldName("key"), src)
					if right := v.ChildByFieldName("right"); key != "" && right != nil {
						defaults[key] = defaultText(right, src)
					}
				}
			}
		}
	}
	return defaults
}

func assignDefault(n *ts.Node, src []byte, defaults map[string]string) {
	left := n.ChildByFieldName("left")
	right := n.ChildByFieldName("right")
	if left == nil || right == nil {
		return
	}
	defaults[left.Utf8Text(src)] = defaultText(right, src)
}

// defaultText renders a default value. Factory arrows with an expression
// body render as that expression.
func defaultText(n *ts.Node, src []byte) string {
	n = unwrap(n)
	if n.Kind() == "arrow_function" {
		if body := n.ChildByFieldName("body"); body != nil && body.Kind() != "statement_block" {
			return jsast.Unparen(body).Utf8Text(src)
		}
	}
	return n.Utf8Text(src)
}

// unwrap strips parentheses and TypeScript assertions.
func unwrap(n *ts.Node) *ts.Node {
	for n != nil {
		switch n.Kind() {
		case "parenthesized_expression", "as_expression", "satisfies_expression", "non_null_expression", "type_assertion":
			n = jsast.FirstNamedChild(n)
		default:
			return n
		}
	}
	return n
}

// templateSlots adds <slot> outlets not declared in script.
func templateSlots(nodes []sfc.Node, meta *ComponentMeta) {
	for _, n := range nodes {
		el, ok := n.(*sfc.Element)
		if !ok {
			continue
		}
		if el.Tag == "slot" {
			name := "default"
			if a := el.Attr("name"); a != nil && a.HasValue {
				name = a.Value
			}
			if !hasSlot(meta, name) {
				meta.Slots = append(meta.Slots, SlotMeta{Name: name})
			}
		}
		templateSlots(el.Children, meta)
	}
}

func hasSlot(meta *ComponentMeta, name string) bool {
	for _, s := range meta.Slots {
		if s.Name == name {
			return true
		}
	}
	return false
}
