package stories

import (
	"strings"

	"github.com/gnana997/vuestories/pkg/edit"
	"github.com/gnana997/vuestories/pkg/parser"
	"github.com/gnana997/vuestories/pkg/sfc"
)

type indexed struct {
	node  sfc.Node
	index int
}

// InlineExtraTemplates moves markup that sits between the <Story> children
// of <Stories> into every story: extras declared before a story are
// prepended to its children, extras declared after it are appended. A file
// without a <Stories> root is returned unchanged.
func InlineExtraTemplates(pm *parser.ParserManager, filename, code string) (string, error) {
	desc, err := sfc.Parse(pm, filename, code)
	if err != nil {
		return "", err
	}
	if desc.Template == nil {
		return code, nil
	}
	var root *sfc.Element
	for _, n := range desc.Template.AST {
		if el, ok := n.(*sfc.Element); ok && el.Tag == RootTag {
			root = el
			break
		}
	}
	if root == nil {
		return code, nil
	}

	var stories, extras []indexed
	for i, n := range significant(root.Children) {
		if el, ok := n.(*sfc.Element); ok && el.Tag == StoryTag {
			stories = append(stories, indexed{node: n, index: i})
		} else {
			extras = append(extras, indexed{node: n, index: i})
		}
	}
	if len(extras) == 0 {
		return code, nil
	}

	s := edit.New(code)
	for _, extra := range extras {
		start, end := extra.node.Span()
		if err := s.Remove(start, end); err != nil {
			return "", err
		}
	}

	for _, story := range stories {
		var before, after strings.Builder
		for _, extra := range extras {
			start, end := extra.node.Span()
			text := strings.TrimSpace(code[start:end])
			switch {
			case extra.index < story.index:
				before.WriteString(text + "\n")
			case extra.index > story.index:
				after.WriteString("\n" + text)
			}
		}
		if err := inline(s, code, story.node.(*sfc.Element), before.String(), after.String()); err != nil {
			return "", err
		}
	}
	return s.String(), nil
}

func inline(s *edit.String, code string, story *sfc.Element, before, after string) error {
	if story.SelfClosing {
		open := strings.TrimRight(strings.TrimSuffix(code[story.Start:story.End], "/>"), " \t\r\n")
		body := strings.TrimSuffix(before, "\n") + after
		return s.Overwrite(story.Start, story.End, open+">"+body+"</"+StoryTag+">")
	}

	children := significant(story.Children)
	if len(children) == 0 {
		s.PrependLeft(story.InnerStart, strings.TrimSuffix(before, "\n")+after)
		return nil
	}
	if before != "" {
		start, _ := children[0].Span()
		s.PrependLeft(start, before)
	}
	if after != "" {
		_, end := children[len(children)-1].Span()
		s.AppendRight(end, after)
	}
	return nil
}

// significant drops comments and whitespace-only text.
func significant(nodes []sfc.Node) []sfc.Node {
	var out []sfc.Node
	for _, n := range nodes {
		switch v := n.(type) {
		case *sfc.Comment:
			continue
		case *sfc.Text:
			if strings.TrimSpace(v.Content) == "" {
				continue
			}
		}
		out = append(out, n)
	}
	return out
}
