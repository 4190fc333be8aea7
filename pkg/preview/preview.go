// Package preview reduces a story file to a plain component rendering its
// first story, for live previews in documentation pages.
package preview

import (
	"fmt"
	"strings"

	"github.com/gnana997/vuestories/pkg/edit"
	"github.com/gnana997/vuestories/pkg/jsast"
	"github.com/gnana997/vuestories/pkg/parser"
	"github.com/gnana997/vuestories/pkg/stories"
	"github.com/gnana997/vuestories/pkg/textutil"
)

// Transform rewrites a story file into a component whose template is the
// markup of its first story. The defineMeta call is dropped; its args, when
// present, become `const args` in <script setup>.
func Transform(pm *parser.ParserManager, code, id string) (*edit.Result, error) {
	filename := id
	if i := strings.IndexByte(filename, '?'); i >= 0 {
		filename = filename[:i]
	}

	dm, err := stories.ExtractDefineMeta(pm, filename, code)
	if err != nil {
		return nil, err
	}
	f, err := stories.ParseStructure(pm, filename, dm.Code)
	if err != nil {
		return nil, err
	}

	s := edit.New(dm.Code)
	if setup := f.Descriptor.ScriptSetup; setup != nil {
		args, err := metaArgs(pm, dm.Object, setup.Lang())
		if err != nil {
			return nil, fmt.Errorf("failed to read defineMeta args of %s: %w", filename, err)
		}
		if args != "" {
			s.AppendRight(setup.ContentEnd, "\n\nconst args = "+args+"\n")
		}
	}

	root := f.Root
	if err := unwrap(s, root.Start, root.InnerStart, root.InnerEnd, root.End); err != nil {
		return nil, err
	}
	first := f.Stories[0].Element
	for _, story := range f.Stories[1:] {
		if err := s.Remove(story.Element.Start, story.Element.End); err != nil {
			return nil, err
		}
	}
	if first.SelfClosing {
		if err := s.Remove(first.Start, first.End); err != nil {
			return nil, err
		}
	} else if err := unwrap(s, first.Start, first.InnerStart, first.InnerEnd, first.End); err != nil {
		return nil, err
	}

	return s.Result(id), nil
}

// Module wraps the preview component source as a string-valued module.
func Module(pm *parser.ParserManager, code, id string) (string, error) {
	res, err := Transform(pm, code, id)
	if err != nil {
		return "", err
	}
	return "export default { code: " + textutil.JSString(res.Code) + " }\n", nil
}

// unwrap removes the start and end tags of an element, keeping its inner
// markup.
func unwrap(s *edit.String, start, innerStart, innerEnd, end int) error {
	if err := s.Remove(start, innerStart); err != nil {
		return err
	}
	return s.Remove(innerEnd, end)
}

// metaArgs returns the source of the args property of the defineMeta
// object.
func metaArgs(pm *parser.ParserManager, object, lang string) (string, error) {
	if object == "" {
		return "", nil
	}
	const prefix = "const __meta = "
	prog, err := jsast.Parse(pm, prefix+object, lang)
	if err != nil {
		return "", err
	}
	defer prog.Close()

	stmts := prog.Statements()
	if len(stmts) == 0 {
		return "", nil
	}
	decls := jsast.Declarators(stmts[0])
	if len(decls) == 0 {
		return "", nil
	}
	obj := decls[0].ChildByFieldName("value")
	if obj == nil || obj.Kind() != "object" {
		return "", nil
	}
	m, ok := jsast.FindMember(obj, prog.Src, "args")
	if !ok || m.Value == nil {
		return "", nil
	}
	return prog.Text(m.Value), nil
}
