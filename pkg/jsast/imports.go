package jsast

import (
	"fmt"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/vuestories/pkg/edit"
	"github.com/gnana997/vuestories/pkg/parser/queries"
)

// Import is one parsed import declaration.
type Import struct {
	Source    string
	Default   string
	Namespace string
	// Named holds specifiers as written, e.g. "createBlock as _createBlock".
	Named    []string
	TypeOnly bool

	Start int
	End   int
}

// Locals returns every local binding the import introduces.
func (imp Import) Locals() []string {
	var out []string
	if imp.Default != "" {
		out = append(out, imp.Default)
	}
	if imp.Namespace != "" {
		out = append(out, imp.Namespace)
	}
	for _, spec := range imp.Named {
		out = append(out, specLocal(spec))
	}
	return out
}

// Imported returns the imported name for a local binding of a named import.
func (imp Import) Imported(local string) (string, bool) {
	for _, spec := range imp.Named {
		if specLocal(spec) == local {
			name, _, _ := strings.Cut(spec, " as ")
			return strings.TrimSpace(strings.TrimPrefix(name, "type ")), true
		}
	}
	return "", false
}

func specLocal(spec string) string {
	if _, alias, ok := strings.Cut(spec, " as "); ok {
		return strings.TrimSpace(alias)
	}
	return strings.TrimSpace(strings.TrimPrefix(spec, "type "))
}

// ListImports returns the top-level import declarations of prog in source
// order.
func ListImports(qm *queries.QueryManager, prog *Program) ([]Import, error) {
	matches, err := qm.Run(prog.Tree, prog.Lang, queries.QueryTypeImports, prog.Src)
	if err != nil {
		return nil, fmt.Errorf("failed to query imports: %w", err)
	}

	var out []Import
	for _, m := range matches {
		stmt := m.Capture("statement")
		src := m.Capture("source")
		if stmt == nil || src == nil {
			continue
		}
		if parent := stmt.Node.Parent(); parent == nil || parent.Kind() != "program" {
			continue
		}
		imp := Import{
			Start: int(stmt.Node.StartByte()),
			End:   int(stmt.Node.EndByte()),
		}
		imp.Source, _ = StringValue(src.Node, prog.Src)
		imp.TypeOnly = strings.HasPrefix(strings.TrimPrefix(stmt.Text, "import"), " type ")
		if clause := m.Capture("clause"); clause != nil {
			readClause(clause.Node, prog.Src, &imp)
		}
		out = append(out, imp)
	}
	return out, nil
}

func readClause(clause *ts.Node, src []byte, imp *Import) {
	for _, child := range NamedChildren(clause) {
		switch child.Kind() {
		case "identifier":
			imp.Default = child.Utf8Text(src)
		case "namespace_import":
			if id := FirstNamedChild(child); id != nil {
				imp.Namespace = id.Utf8Text(src)
			}
		case "named_imports":
			for _, spec := range NamedChildren(child) {
				if spec.Kind() == "import_specifier" {
					imp.Named = append(imp.Named, strings.Join(strings.Fields(spec.Utf8Text(src)), " "))
				}
			}
		}
	}
}

// OrganizeImports merges import declarations that share a module source so
// no local binding is declared twice. The merged declaration takes the place
// of the first one; later duplicates are removed. Type-only imports are left
// alone.
func OrganizeImports(qm *queries.QueryManager, code, lang string) (string, error) {
	prog, err := Parse(qm.Parser(), code, lang)
	if err != nil {
		return "", err
	}
	defer prog.Close()

	imports, err := ListImports(qm, prog)
	if err != nil {
		return "", err
	}

	groups := make(map[string][]Import)
	var order []string
	for _, imp := range imports {
		if imp.TypeOnly {
			continue
		}
		if _, ok := groups[imp.Source]; !ok {
			order = append(order, imp.Source)
		}
		groups[imp.Source] = append(groups[imp.Source], imp)
	}

	s := edit.New(code)
	for _, source := range order {
		group := groups[source]
		if len(group) < 2 {
			continue
		}
		merged := mergeImports(group)
		if err := s.Overwrite(group[0].Start, group[0].End, merged); err != nil {
			return "", err
		}
		for _, imp := range group[1:] {
			end := imp.End
			if end < len(code) && code[end] == ';' {
				end++
			}
			if end < len(code) && code[end] == '\n' {
				end++
			}
			if err := s.Remove(imp.Start, end); err != nil {
				return "", err
			}
		}
	}
	return s.String(), nil
}

func mergeImports(group []Import) string {
	var def, ns string
	var named []string
	seen := make(map[string]bool)
	for _, imp := range group {
		if def == "" {
			def = imp.Default
		}
		if ns == "" {
			ns = imp.Namespace
		}
		for _, spec := range imp.Named {
			local := specLocal(spec)
			if seen[local] {
				continue
			}
			seen[local] = true
			named = append(named, spec)
		}
	}

	quoted := fmt.Sprintf("%q", group[0].Source)
	var stmts []string
	var head []string
	if def != "" {
		head = append(head, def)
	}
	switch {
	case ns != "":
		stmts = append(stmts, fmt.Sprintf("import %s from %s", strings.Join(append(head, "* as "+ns), ", "), quoted))
		if len(named) > 0 {
			stmts = append(stmts, fmt.Sprintf("import { %s } from %s", strings.Join(named, ", "), quoted))
		}
	case len(named) > 0:
		head = append(head, "{ "+strings.Join(named, ", ")+" }")
		stmts = append(stmts, fmt.Sprintf("import %s from %s", strings.Join(head, ", "), quoted))
	case def != "":
		stmts = append(stmts, fmt.Sprintf("import %s from %s", def, quoted))
	default:
		stmts = append(stmts, "import "+quoted)
	}
	return strings.Join(stmts, "\n")
}
