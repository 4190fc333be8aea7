package jsast

import (
	"fmt"
	"strings"

	"github.com/gnana997/vuestories/pkg/edit"
	"github.com/gnana997/vuestories/pkg/parser"
)

// RewriteDefault turns the module's default export into a const named as.
// A module without a default export gets `const <as> = {}` appended.
func RewriteDefault(pm *parser.ParserManager, code, lang, as string) (string, error) {
	prog, err := Parse(pm, code, lang)
	if err != nil {
		return "", err
	}
	defer prog.Close()

	s := edit.New(code)
	for _, stmt := range prog.Statements() {
		if stmt.Kind() != "export_statement" {
			continue
		}

		if def := ChildOfKind(stmt, "default"); def != nil {
			if decl := stmt.ChildByFieldName("declaration"); decl != nil {
				// export default function Name() {} keeps the declaration
				if name := decl.ChildByFieldName("name"); name != nil {
					if err := s.Remove(int(stmt.StartByte()), int(decl.StartByte())); err != nil {
						return "", err
					}
					s.Append(fmt.Sprintf("\nconst %s = %s", as, prog.Text(name)))
					return s.String(), nil
				}
			}
			if err := s.Overwrite(int(stmt.StartByte()), int(def.EndByte()), "const "+as+" ="); err != nil {
				return "", err
			}
			return s.String(), nil
		}

		clause := ChildOfKind(stmt, "export_clause")
		if clause == nil || stmt.ChildByFieldName("source") != nil {
			continue
		}
		var kept []string
		var local string
		for _, spec := range NamedChildren(clause) {
			name := spec.ChildByFieldName("name")
			alias := spec.ChildByFieldName("alias")
			if alias != nil && prog.Text(alias) == "default" && name != nil {
				local = prog.Text(name)
				continue
			}
			kept = append(kept, prog.Text(spec))
		}
		if local == "" {
			continue
		}
		if len(kept) == 0 {
			err = s.Remove(int(stmt.StartByte()), int(stmt.EndByte()))
		} else {
			err = s.Overwrite(int(clause.StartByte()), int(clause.EndByte()), "{ "+strings.Join(kept, ", ")+" }")
		}
		if err != nil {
			return "", err
		}
		s.Append(fmt.Sprintf("\nconst %s = %s", as, local))
		return s.String(), nil
	}

	s.Append(fmt.Sprintf("\nconst %s = {}", as))
	return s.String(), nil
}
