package compiler

import (
	"fmt"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/vuestories/pkg/jsast"
)

// typeScope resolves local interface and type alias names of a script.
type typeScope struct {
	src   []byte
	decls map[string]*ts.Node
}

func newTypeScope(stmts []*ts.Node, src []byte) *typeScope {
	scope := &typeScope{src: src, decls: make(map[string]*ts.Node)}
	for _, stmt := range stmts {
		decl := stmt
		if stmt.Kind() == "export_statement" {
			decl = stmt.ChildByFieldName("declaration")
		}
		if decl == nil {
			continue
		}
		switch decl.Kind() {
		case "interface_declaration", "type_alias_declaration":
			if name := decl.ChildByFieldName("name"); name != nil {
				scope.decls[name.Utf8Text(src)] = decl
			}
		}
	}
	return scope
}

// members returns the member list node (interface_body or object_type) a
// type node resolves to, following local names.
func (s *typeScope) members(typ *ts.Node) *ts.Node {
	for depth := 0; typ != nil && depth < 8; depth++ {
		switch typ.Kind() {
		case "object_type", "interface_body":
			return typ
		case "parenthesized_type":
			typ = jsast.FirstNamedChild(typ)
		case "type_identifier":
			decl := s.decls[typ.Utf8Text(s.src)]
			if decl == nil {
				return nil
			}
			if decl.Kind() == "interface_declaration" {
				return decl.ChildByFieldName("body")
			}
			typ = decl.ChildByFieldName("value")
		default:
			return nil
		}
	}
	return nil
}

// propSignature is one member of a props or emits type.
type propSignature struct {
	name     string
	optional bool
	typ      *ts.Node
	node     *ts.Node
}

func (s *typeScope) signatures(body *ts.Node) []propSignature {
	var out []propSignature
	for _, m := range jsast.NamedChildren(body) {
		switch m.Kind() {
		case "property_signature", "method_signature":
			name, ok := jsast.PropertyKey(m.ChildByFieldName("name"), s.src)
			if !ok {
				continue
			}
			sig := propSignature{name: name, node: m, optional: jsast.ChildOfKind(m, "?") != nil}
			if anno := m.ChildByFieldName("type"); anno != nil {
				sig.typ = jsast.FirstNamedChild(anno)
			}
			if m.Kind() == "method_signature" {
				sig.typ = m
			}
			out = append(out, sig)
		case "call_signature":
			out = append(out, propSignature{node: m})
		}
	}
	return out
}

// runtimeTypes maps a TypeScript type to the runtime constructors Vue uses
// for prop validation. An empty result means any type.
func (s *typeScope) runtimeTypes(typ *ts.Node, depth int) []string {
	if typ == nil || depth > 8 {
		return nil
	}
	switch typ.Kind() {
	case "predefined_type":
		switch typ.Utf8Text(s.src) {
		case "string":
			return []string{"String"}
		case "number":
			return []string{"Number"}
		case "boolean":
			return []string{"Boolean"}
		case "object":
			return []string{"Object"}
		case "symbol":
			return []string{"Symbol"}
		case "bigint":
			return []string{"BigInt"}
		}
		return nil
	case "literal_type":
		lit := jsast.FirstNamedChild(typ)
		if lit == nil {
			return nil
		}
		switch lit.Kind() {
		case "string", "template_literal_type":
			return []string{"String"}
		case "number", "unary_expression":
			return []string{"Number"}
		case "true", "false":
			return []string{"Boolean"}
		}
		return nil
	case "template_literal_type":
		return []string{"String"}
	case "union_type":
		var out []string
		for _, member := range jsast.NamedChildren(typ) {
			out = appendUnique(out, s.runtimeTypes(member, depth+1)...)
		}
		return out
	case "parenthesized_type":
		return s.runtimeTypes(jsast.FirstNamedChild(typ), depth+1)
	case "array_type", "tuple_type", "readonly_type":
		return []string{"Array"}
	case "function_type", "constructor_type", "method_signature":
		return []string{"Function"}
	case "object_type":
		return []string{"Object"}
	case "generic_type":
		name := typ.ChildByFieldName("name")
		if name == nil {
			return []string{"Object"}
		}
		switch name.Utf8Text(s.src) {
		case "Array", "ReadonlyArray":
			return []string{"Array"}
		case "Function":
			return []string{"Function"}
		case "Set", "Map", "WeakSet", "WeakMap", "Promise", "Date":
			return []string{name.Utf8Text(s.src)}
		}
		return []string{"Object"}
	case "type_identifier":
		name := typ.Utf8Text(s.src)
		switch name {
		case "String", "Number", "Boolean", "Object", "Function", "Symbol", "Date", "Array", "RegExp", "Set", "Map", "Promise", "Error":
			return []string{name}
		}
		if decl, ok := s.decls[name]; ok {
			if decl.Kind() == "interface_declaration" {
				return []string{"Object"}
			}
			return s.runtimeTypes(decl.ChildByFieldName("value"), depth+1)
		}
		return nil
	}
	return nil
}

func appendUnique(list []string, items ...string) []string {
	for _, item := range items {
		found := false
		for _, existing := range list {
			if existing == item {
				found = true
				break
			}
		}
		if !found {
			list = append(list, item)
		}
	}
	return list
}

func formatRuntimeType(types []string) string {
	switch len(types) {
	case 0:
		return "null"
	case 1:
		return types[0]
	}
	return "[" + strings.Join(types, ", ") + "]"
}

// runtimeProps renders a props option object from a type literal or a local
// type name, merging withDefaults values.
func (s *typeScope) runtimeProps(typ *ts.Node, defaults map[string]string) (string, []string, error) {
	body := s.members(typ)
	if body == nil {
		return "", nil, fmt.Errorf("cannot resolve props type %q", typ.Utf8Text(s.src))
	}

	var names []string
	var lines []string
	for _, sig := range s.signatures(body) {
		if sig.name == "" {
			continue
		}
		names = append(names, sig.name)
		entry := fmt.Sprintf("type: %s, required: %t", formatRuntimeType(s.runtimeTypes(sig.typ, 0)), !sig.optional)
		if def, ok := defaults[sig.name]; ok {
			entry += ", default: " + def
		}
		lines = append(lines, fmt.Sprintf("    %s: { %s }", objectKey(sig.name), entry))
	}
	return "{\n" + strings.Join(lines, ",\n") + "\n  }", names, nil
}

// runtimeEmits lists the event names declared by an emits type: call
// signatures `(e: 'change', ...)` or named tuple members `change: [...]`.
func (s *typeScope) runtimeEmits(typ *ts.Node) ([]string, error) {
	var body *ts.Node
	if typ != nil && typ.Kind() == "function_type" {
		return s.emitsFromParams(typ), nil
	}
	body = s.members(typ)
	if body == nil {
		return nil, fmt.Errorf("cannot resolve emits type %q", typ.Utf8Text(s.src))
	}

	var events []string
	for _, sig := range s.signatures(body) {
		if sig.node.Kind() == "call_signature" {
			events = appendUnique(events, s.emitsFromParams(sig.node)...)
			continue
		}
		events = appendUnique(events, sig.name)
	}
	return events, nil
}

func (s *typeScope) emitsFromParams(fn *ts.Node) []string {
	params := fn.ChildByFieldName("parameters")
	first := jsast.FirstNamedChild(params)
	if first == nil {
		return nil
	}
	anno := first.ChildByFieldName("type")
	if anno == nil {
		return nil
	}
	var events []string
	var collect func(n *ts.Node)
	collect = func(n *ts.Node) {
		switch n.Kind() {
		case "union_type":
			for _, m := range jsast.NamedChildren(n) {
				collect(m)
			}
		case "literal_type":
			if v, ok := jsast.StringValue(jsast.FirstNamedChild(n), s.src); ok {
				events = append(events, v)
			}
		}
	}
	collect(jsast.FirstNamedChild(anno))
	return events
}

func objectKey(name string) string {
	if isIdentifierName(name) {
		return name
	}
	return jsString(name)
}
