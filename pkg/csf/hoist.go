package csf

import (
	"fmt"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/vuestories/pkg/compiler"
	"github.com/gnana997/vuestories/pkg/edit"
	"github.com/gnana997/vuestories/pkg/errs"
	"github.com/gnana997/vuestories/pkg/jsast"
	"github.com/gnana997/vuestories/pkg/parser/queries"
)

// blockHelpers maps block-mode runtime helpers to their vnode forms.
var blockHelpers = map[string]string{
	"createBlock":        "createVNode",
	"createElementBlock": "createElementVNode",
}

// mainDeclaration finds `const _sfc_main = ...` and the body of its setup
// function, when there is one.
func mainDeclaration(prog *jsast.Program) (decl, setupBody *ts.Node) {
	for _, stmt := range prog.Statements() {
		if stmt.Kind() != "lexical_declaration" {
			continue
		}
		for _, d := range jsast.Declarators(stmt) {
			name := d.ChildByFieldName("name")
			if name == nil || prog.Text(name) != mainBinding {
				continue
			}
			return stmt, setupFunctionBody(d.ChildByFieldName("value"), prog.Src)
		}
	}
	return nil, nil
}

func setupFunctionBody(value *ts.Node, src []byte) *ts.Node {
	value = jsast.Unparen(value)
	if value != nil && value.Kind() == "call_expression" {
		args := jsast.Arguments(value)
		if len(args) == 0 {
			return nil
		}
		value = args[0]
	}
	if value == nil || value.Kind() != "object" {
		return nil
	}
	m, ok := jsast.FindMember(value, src, "setup")
	if !ok {
		return nil
	}
	fn := m.Node
	if m.Value != nil {
		fn = m.Value
	}
	switch fn.Kind() {
	case "method_definition", "function_expression", "arrow_function", "function":
		if body := fn.ChildByFieldName("body"); body != nil && body.Kind() == "statement_block" {
			return body
		}
	}
	return nil
}

// declaredNames returns the names a hoistable statement declares: const
// declarations, functions and classes.
func declaredNames(stmt *ts.Node, src []byte) []string {
	switch stmt.Kind() {
	case "lexical_declaration":
		if jsast.DeclarationKind(stmt, src) != "const" {
			return nil
		}
		var names []string
		for _, d := range jsast.Declarators(stmt) {
			names = append(names, jsast.PatternNames(d.ChildByFieldName("name"), src)...)
		}
		return names
	case "function_declaration", "generator_function_declaration", "class_declaration":
		if n := stmt.ChildByFieldName("name"); n != nil {
			return []string{n.Utf8Text(src)}
		}
	}
	return nil
}

// moduleNames returns every name declared at module top level.
func moduleNames(qm *queries.QueryManager, prog *jsast.Program) (map[string]bool, error) {
	names := make(map[string]bool)
	imports, err := jsast.ListImports(qm, prog)
	if err != nil {
		return nil, err
	}
	for _, imp := range imports {
		for _, local := range imp.Locals() {
			names[local] = true
		}
	}
	for _, stmt := range prog.Statements() {
		switch stmt.Kind() {
		case "lexical_declaration", "variable_declaration":
			for _, d := range jsast.Declarators(stmt) {
				for _, n := range jsast.PatternNames(d.ChildByFieldName("name"), prog.Src) {
					names[n] = true
				}
			}
		case "function_declaration", "generator_function_declaration", "class_declaration":
			if n := stmt.ChildByFieldName("name"); n != nil {
				names[prog.Text(n)] = true
			}
		}
	}
	return names, nil
}

// hoist moves the setup declarations of used bindings above _sfc_main. A
// used binding must be a constant binding declared either at the top level
// of setup or at module level.
func hoist(qm *queries.QueryManager, s *edit.String, prog *jsast.Program, used *bindingSet, bindings compiler.BindingMetadata) error {
	if len(used.names) == 0 {
		return nil
	}
	for _, name := range used.names {
		if !bindings[name].IsConst() {
			return &errs.NonHoistableBindingError{Binding: name}
		}
	}

	decl, setupBody := mainDeclaration(prog)
	inSetup := make(map[string]*ts.Node)
	for _, stmt := range jsast.NamedChildren(setupBody) {
		for _, name := range declaredNames(stmt, prog.Src) {
			inSetup[name] = stmt
		}
	}
	module, err := moduleNames(qm, prog)
	if err != nil {
		return err
	}

	// Nodes are fresh values on every walk; statements are keyed by offset.
	picked := make(map[uint]bool)
	for _, name := range used.names {
		if stmt, ok := inSetup[name]; ok {
			picked[stmt.StartByte()] = true
			continue
		}
		if !module[name] {
			return &errs.NonHoistableBindingError{Binding: name}
		}
	}
	if len(picked) == 0 {
		return nil
	}
	if decl == nil {
		return fmt.Errorf("%s declaration not found", mainBinding)
	}

	var moved strings.Builder
	for _, stmt := range jsast.NamedChildren(setupBody) {
		if !picked[stmt.StartByte()] {
			continue
		}
		moved.WriteString(prog.Text(stmt))
		moved.WriteString("\n")
		if err := s.Remove(int(stmt.StartByte()), jsast.StatementEnd(stmt, prog.Src)); err != nil {
			return err
		}
	}
	s.PrependLeft(int(decl.StartByte()), moved.String())
	return nil
}

// renameBlockHelpers swaps block-mode helpers imported from vue for their
// vnode counterparts, keeping local names.
func renameBlockHelpers(s *edit.String, prog *jsast.Program) error {
	for _, stmt := range prog.Statements() {
		if stmt.Kind() != "import_statement" {
			continue
		}
		source, ok := jsast.StringValue(stmt.ChildByFieldName("source"), prog.Src)
		if !ok || source != "vue" {
			continue
		}
		clause := jsast.ChildOfKind(stmt, "import_clause")
		named := jsast.ChildOfKind(clause, "named_imports")
		for _, spec := range jsast.NamedChildren(named) {
			name := spec.ChildByFieldName("name")
			if spec.Kind() != "import_specifier" || name == nil {
				continue
			}
			imported := prog.Text(name)
			to, ok := blockHelpers[imported]
			if !ok {
				continue
			}
			if spec.ChildByFieldName("alias") == nil {
				to += " as " + imported
			}
			if err := s.Overwrite(int(name.StartByte()), int(name.EndByte()), to); err != nil {
				return err
			}
		}
	}
	return nil
}
