package stories

import (
	"fmt"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/vuestories/pkg/jsast"
	"github.com/gnana997/vuestories/pkg/parser"
	"github.com/gnana997/vuestories/pkg/sfc"
)

// DefineMeta is the result of ExtractDefineMeta.
type DefineMeta struct {
	// Object is the source of the object passed to defineMeta, "" when the
	// file has no such call.
	Object string
	// Code is the input with the defineMeta statement removed.
	Code string
}

// ExtractDefineMeta removes a top-level `defineMeta({...})` call from
// <script setup>, either as an expression statement or as the initializer
// of a declaration.
func ExtractDefineMeta(pm *parser.ParserManager, filename, code string) (*DefineMeta, error) {
	out := &DefineMeta{Code: code}
	if !strings.Contains(code, "defineMeta") {
		return out, nil
	}
	desc, err := sfc.Parse(pm, filename, code)
	if err != nil {
		return nil, err
	}
	setup := desc.ScriptSetup
	if setup == nil {
		return out, nil
	}

	prog, err := jsast.Parse(pm, setup.Content, setup.Lang())
	if err != nil {
		return nil, fmt.Errorf("failed to parse <script setup> of %s: %w", filename, err)
	}
	defer prog.Close()

	for _, stmt := range prog.Statements() {
		obj := defineMetaObject(stmt, prog.Src)
		if obj == nil {
			continue
		}
		start := setup.ContentStart + int(stmt.StartByte())
		end := setup.ContentStart + jsast.StatementEnd(stmt, prog.Src)
		out.Object = prog.Text(obj)
		out.Code = code[:start] + code[end:]
		return out, nil
	}
	return out, nil
}

func defineMetaObject(stmt *ts.Node, src []byte) *ts.Node {
	var call *ts.Node
	switch stmt.Kind() {
	case "expression_statement":
		call = jsast.FirstNamedChild(stmt)
	case "lexical_declaration", "variable_declaration":
		decls := jsast.Declarators(stmt)
		if len(decls) == 0 {
			return nil
		}
		call = decls[0].ChildByFieldName("value")
	default:
		return nil
	}
	if jsast.Callee(call, src) != "defineMeta" {
		return nil
	}
	args := jsast.Arguments(call)
	if len(args) == 0 || args[0].Kind() != "object" {
		return nil
	}
	return args[0]
}
