// Package jsast holds helpers for walking tree-sitter JavaScript and
// TypeScript trees and for the two module-level rewrites every generated
// story module goes through: default-export renaming and import organizing.
package jsast

import (
	"fmt"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/vuestories/pkg/parser"
)

// Program is a parsed script. It must be closed.
type Program struct {
	Tree *ts.Tree
	Root *ts.Node
	Src  []byte
	Lang parser.Language
}

// Parse parses code as TypeScript when lang is "ts" or "tsx", otherwise as
// JavaScript.
func Parse(pm *parser.ParserManager, code, lang string) (*Program, error) {
	language, isTSX := parser.ScriptLanguage(lang)
	if language == parser.LanguageUnknown {
		return nil, fmt.Errorf("unsupported script lang %q", lang)
	}

	src := []byte(code)
	tree, err := pm.Parse(src, language, isTSX)
	if err != nil {
		return nil, err
	}
	return &Program{Tree: tree, Root: tree.RootNode(), Src: src, Lang: language}, nil
}

// Close releases the tree.
func (p *Program) Close() {
	p.Tree.Close()
}

// Text returns the source text of n.
func (p *Program) Text(n *ts.Node) string {
	return n.Utf8Text(p.Src)
}

// Statements returns the top-level statements, comments excluded.
func (p *Program) Statements() []*ts.Node {
	return NamedChildren(p.Root)
}

// NamedChildren returns the named children of n, comments excluded.
func NamedChildren(n *ts.Node) []*ts.Node {
	if n == nil {
		return nil
	}
	out := make([]*ts.Node, 0, n.NamedChildCount())
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		if child == nil || child.Kind() == "comment" {
			continue
		}
		out = append(out, child)
	}
	return out
}

// FirstNamedChild returns the first non-comment named child of n.
func FirstNamedChild(n *ts.Node) *ts.Node {
	children := NamedChildren(n)
	if len(children) == 0 {
		return nil
	}
	return children[0]
}

// ChildOfKind returns the first direct child of n with the given kind,
// anonymous tokens included.
func ChildOfKind(n *ts.Node, kind string) *ts.Node {
	if n == nil {
		return nil
	}
	for i := uint(0); i < n.ChildCount(); i++ {
		child := n.Child(i)
		if child != nil && child.Kind() == kind {
			return child
		}
	}
	return nil
}

// Unparen strips any number of enclosing parentheses.
func Unparen(n *ts.Node) *ts.Node {
	for n != nil && n.Kind() == "parenthesized_expression" {
		n = FirstNamedChild(n)
	}
	return n
}

// FlattenSequence returns the expressions of a comma sequence in order. A
// node that is not a sequence is returned alone.
func FlattenSequence(n *ts.Node) []*ts.Node {
	if n == nil {
		return nil
	}
	if n.Kind() != "sequence_expression" {
		return []*ts.Node{n}
	}
	var out []*ts.Node
	for _, child := range NamedChildren(n) {
		out = append(out, FlattenSequence(child)...)
	}
	return out
}

// Arguments returns the argument expressions of a call expression.
func Arguments(call *ts.Node) []*ts.Node {
	if call == nil {
		return nil
	}
	return NamedChildren(call.ChildByFieldName("arguments"))
}

// Callee returns the identifier name of a call's function, or "" when it is
// not a plain identifier.
func Callee(call *ts.Node, src []byte) string {
	if call == nil || call.Kind() != "call_expression" {
		return ""
	}
	fn := call.ChildByFieldName("function")
	if fn == nil || fn.Kind() != "identifier" {
		return ""
	}
	return fn.Utf8Text(src)
}

// StringValue returns the raw content of a string literal, or of a template
// string without substitutions.
func StringValue(n *ts.Node, src []byte) (string, bool) {
	if n == nil {
		return "", false
	}
	switch n.Kind() {
	case "string":
		text := n.Utf8Text(src)
		if len(text) < 2 {
			return "", false
		}
		return text[1 : len(text)-1], true
	case "template_string":
		for i := uint(0); i < n.NamedChildCount(); i++ {
			if n.NamedChild(i).Kind() == "template_substitution" {
				return "", false
			}
		}
		text := n.Utf8Text(src)
		return text[1 : len(text)-1], true
	}
	return "", false
}

// PropertyKey returns the static name of an object member key.
func PropertyKey(key *ts.Node, src []byte) (string, bool) {
	if key == nil {
		return "", false
	}
	switch key.Kind() {
	case "property_identifier", "identifier", "shorthand_property_identifier", "number", "private_property_identifier":
		return key.Utf8Text(src), true
	case "string":
		return StringValue(key, src)
	}
	return "", false
}

// Member is one entry of an object literal.
type Member struct {
	Node  *ts.Node
	Key   string
	Value *ts.Node // nil for methods and spreads
}

// ObjectMembers lists the members of an object literal. Shorthand
// properties use the identifier as both key and value.
func ObjectMembers(obj *ts.Node, src []byte) []Member {
	var out []Member
	for _, child := range NamedChildren(obj) {
		m := Member{Node: child}
		switch child.Kind() {
		case "pair":
			m.Key, _ = PropertyKey(child.ChildByFieldName("key"), src)
			m.Value = child.ChildByFieldName("value")
		case "shorthand_property_identifier":
			m.Key = child.Utf8Text(src)
			m.Value = child
		case "method_definition":
			m.Key, _ = PropertyKey(child.ChildByFieldName("name"), src)
		}
		out = append(out, m)
	}
	return out
}

// FindMember returns the member named key.
func FindMember(obj *ts.Node, src []byte, key string) (Member, bool) {
	for _, m := range ObjectMembers(obj, src) {
		if m.Key == key {
			return m, true
		}
	}
	return Member{}, false
}

// Walk visits n and its named descendants depth-first. Returning false from
// fn skips the node's children.
func Walk(n *ts.Node, fn func(*ts.Node) bool) {
	if n == nil || !fn(n) {
		return
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		Walk(n.NamedChild(i), fn)
	}
}

// Declarators returns the variable_declarator children of a lexical or
// variable declaration.
func Declarators(decl *ts.Node) []*ts.Node {
	var out []*ts.Node
	for _, child := range NamedChildren(decl) {
		if child.Kind() == "variable_declarator" {
			out = append(out, child)
		}
	}
	return out
}

// DeclarationKind returns "const", "let" or "var" for a declaration node.
func DeclarationKind(decl *ts.Node, src []byte) string {
	switch decl.Kind() {
	case "variable_declaration":
		return "var"
	case "lexical_declaration":
		if kind := decl.ChildByFieldName("kind"); kind != nil {
			return kind.Utf8Text(src)
		}
		text := strings.TrimSpace(decl.Utf8Text(src))
		if strings.HasPrefix(text, "let") {
			return "let"
		}
		return "const"
	}
	return ""
}

// PatternNames returns the identifiers bound by a binding pattern.
func PatternNames(pattern *ts.Node, src []byte) []string {
	var names []string
	Walk(pattern, func(n *ts.Node) bool {
		switch n.Kind() {
		case "identifier", "shorthand_property_identifier_pattern":
			names = append(names, n.Utf8Text(src))
			return false
		case "pair_pattern":
			// only the value side binds
			Walk(n.ChildByFieldName("value"), func(v *ts.Node) bool {
				switch v.Kind() {
				case "identifier", "shorthand_property_identifier_pattern":
					names = append(names, v.Utf8Text(src))
					return false
				}
				return true
			})
			return false
		case "object_assignment_pattern", "assignment_pattern":
			names = append(names, PatternNames(n.ChildByFieldName("left"), src)...)
			return false
		case "type_annotation", "property_identifier":
			return false
		}
		return true
	})
	return names
}

// StatementEnd extends a statement's end over a single trailing newline so
// removing it leaves no blank line behind.
func StatementEnd(n *ts.Node, src []byte) int {
	end := int(n.EndByte())
	if end < len(src) && src[end] == '\r' {
		end++
	}
	if end < len(src) && src[end] == '\n' {
		end++
	}
	return end
}

// InsertMembers returns where and what to insert so that inner, a list of
// members without enclosing braces, joins the members of obj. With no
// trailing comma inner follows the last member; otherwise it goes before
// the closing brace.
func InsertMembers(obj *ts.Node, src []byte, inner string) (int, string) {
	closing := int(obj.EndByte()) - 1
	members := NamedChildren(obj)
	if len(members) == 0 {
		return closing, inner
	}
	last := members[len(members)-1]
	if strings.Contains(string(src[last.EndByte():closing]), ",") {
		return closing, inner + ","
	}
	return int(last.EndByte()), ", " + inner
}
