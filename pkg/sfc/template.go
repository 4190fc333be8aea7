package sfc

import (
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// NodeType discriminates template nodes.
type NodeType int

const (
	NodeElement NodeType = iota + 1
	NodeText
	NodeComment
)

// Node is a template node.
type Node interface {
	Type() NodeType
	Span() (start, end int)
}

// Element is a template element.
type Element struct {
	Tag      string
	Attrs    []Attr
	Children []Node

	Start int
	End   int

	// InnerStart and InnerEnd span the markup between the start and end
	// tags. Both equal End for a self-closing element.
	InnerStart int
	InnerEnd   int

	SelfClosing bool
}

func (e *Element) Type() NodeType         { return NodeElement }
func (e *Element) Span() (start, end int) { return e.Start, e.End }

// Attr returns the static attribute named name.
func (e *Element) Attr(name string) *Attr {
	for i := range e.Attrs {
		if e.Attrs[i].Name == name {
			return &e.Attrs[i]
		}
	}
	return nil
}

// Prop finds name either as a static attribute or as the argument of a
// v-bind directive. bound reports which form matched.
func (e *Element) Prop(name string) (attr *Attr, bound bool) {
	for i := range e.Attrs {
		a := &e.Attrs[i]
		if a.Name == name {
			return a, false
		}
		if d, ok := a.Directive(); ok && d.Name == "bind" && d.Arg == name {
			return a, true
		}
	}
	return nil, false
}

// ElementChildren returns the element children, skipping text and comments.
func (e *Element) ElementChildren() []*Element {
	var out []*Element
	for _, c := range e.Children {
		if el, ok := c.(*Element); ok {
			out = append(out, el)
		}
	}
	return out
}

// Text is a run of template text. Content is the raw source slice, entities
// and {{ }} interpolations included.
type Text struct {
	Content string
	Start   int
	End     int
}

func (t *Text) Type() NodeType         { return NodeText }
func (t *Text) Span() (start, end int) { return t.Start, t.End }

// Comment is an HTML comment.
type Comment struct {
	Content string
	Start   int
	End     int
}

func (c *Comment) Type() NodeType         { return NodeComment }
func (c *Comment) Span() (start, end int) { return c.Start, c.End }

// Attr is a static attribute or a directive as written in source.
type Attr struct {
	Name     string
	Value    string
	HasValue bool

	Start int
	End   int

	// ValueStart and ValueEnd span the value without quotes. Both equal End
	// when the attribute has no value.
	ValueStart int
	ValueEnd   int
}

// Directive is the parsed form of a Vue directive attribute.
type Directive struct {
	// Name is the directive name without the v- prefix: "bind", "on",
	// "slot", "model", "if", ...
	Name      string
	Arg       string
	Modifiers []string
	Exp       string
}

// Directive parses a directive attribute. Shorthands ":", "@", "#" and "."
// are expanded. Plain attributes report false.
func (a Attr) Directive() (Directive, bool) {
	name := a.Name
	var d Directive
	switch {
	case strings.HasPrefix(name, ":"):
		d.Name, name = "bind", name[1:]
	case strings.HasPrefix(name, "."):
		d.Name, name = "bind", name[1:]
		d.Modifiers = append(d.Modifiers, "prop")
	case strings.HasPrefix(name, "@"):
		d.Name, name = "on", name[1:]
	case strings.HasPrefix(name, "#"):
		d.Name, name = "slot", name[1:]
	case strings.HasPrefix(name, "v-"):
		rest := name[2:]
		end := strings.IndexAny(rest, ":.")
		if end < 0 {
			d.Name, name = rest, ""
		} else {
			d.Name = rest[:end]
			name = rest[end:]
			name = strings.TrimPrefix(name, ":")
		}
	default:
		return Directive{}, false
	}

	// Modifiers follow the argument; dynamic [args] may contain dots.
	if strings.HasPrefix(name, "[") {
		if end := strings.IndexByte(name, ']'); end >= 0 {
			d.Arg, name = name[:end+1], name[end+1:]
		}
	} else if dot := strings.IndexByte(name, '.'); dot >= 0 {
		d.Arg, name = name[:dot], name[dot:]
	} else {
		d.Arg, name = name, ""
	}
	for _, m := range strings.Split(name, ".") {
		if m != "" {
			d.Modifiers = append(d.Modifiers, m)
		}
	}

	d.Exp = strings.TrimSpace(a.Value)
	return d, true
}

// convertChildren converts the children of parent lying in [start, end).
// Text is taken from the gaps between elements and comments so whitespace
// the grammar treats as extras is preserved.
func convertChildren(parent *ts.Node, src []byte, start, end int) []Node {
	var out []Node
	pos := start

	text := func(to int) {
		if to > pos {
			out = append(out, &Text{Content: string(src[pos:to]), Start: pos, End: to})
		}
	}

	for i := uint(0); i < parent.NamedChildCount(); i++ {
		child := parent.NamedChild(i)
		switch child.Kind() {
		case "element", "script_element", "style_element":
			text(int(child.StartByte()))
			out = append(out, convertElement(child, src))
			pos = int(child.EndByte())
		case "comment":
			text(int(child.StartByte()))
			out = append(out, &Comment{
				Content: child.Utf8Text(src),
				Start:   int(child.StartByte()),
				End:     int(child.EndByte()),
			})
			pos = int(child.EndByte())
		}
		// text, entity and error recovery nodes are covered by the gaps
	}
	text(end)
	return out
}

func convertElement(n *ts.Node, src []byte) *Element {
	el := &Element{
		Start:      int(n.StartByte()),
		End:        int(n.EndByte()),
		InnerStart: int(n.EndByte()),
		InnerEnd:   int(n.EndByte()),
	}

	hasEnd := false
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "start_tag":
			el.Tag, el.Attrs = convertTag(child, src)
			el.InnerStart = int(child.EndByte())
		case "self_closing_tag":
			el.Tag, el.Attrs = convertTag(child, src)
			el.SelfClosing = true
		case "end_tag":
			el.InnerEnd = int(child.StartByte())
			hasEnd = true
		case "raw_text":
			el.Children = append(el.Children, &Text{
				Content: child.Utf8Text(src),
				Start:   int(child.StartByte()),
				End:     int(child.EndByte()),
			})
		}
	}
	if !hasEnd && !el.SelfClosing {
		el.InnerEnd = el.End
	}
	if el.InnerEnd < el.InnerStart {
		el.InnerEnd = el.InnerStart
	}

	if n.Kind() == "element" && !el.SelfClosing {
		el.Children = convertChildren(n, src, el.InnerStart, el.InnerEnd)
	}
	return el
}

func convertTag(tag *ts.Node, src []byte) (string, []Attr) {
	var name string
	var attrs []Attr
	for i := uint(0); i < tag.NamedChildCount(); i++ {
		child := tag.NamedChild(i)
		switch child.Kind() {
		case "tag_name":
			name = child.Utf8Text(src)
		case "attribute":
			attrs = append(attrs, convertAttr(child, src))
		}
	}
	return name, attrs
}

func convertAttr(n *ts.Node, src []byte) Attr {
	a := Attr{
		Start:      int(n.StartByte()),
		End:        int(n.EndByte()),
		ValueStart: int(n.EndByte()),
		ValueEnd:   int(n.EndByte()),
	}
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "attribute_name":
			a.Name = child.Utf8Text(src)
		case "attribute_value":
			a.HasValue = true
			a.ValueStart, a.ValueEnd = int(child.StartByte()), int(child.EndByte())
		case "quoted_attribute_value":
			a.HasValue = true
			// An empty "" has no inner attribute_value node.
			a.ValueStart = int(child.StartByte()) + 1
			a.ValueEnd = a.ValueStart
			for j := uint(0); j < child.NamedChildCount(); j++ {
				inner := child.NamedChild(j)
				if inner.Kind() == "attribute_value" {
					a.ValueStart, a.ValueEnd = int(inner.StartByte()), int(inner.EndByte())
				}
			}
		}
	}
	a.Value = string(src[a.ValueStart:a.ValueEnd])
	return a
}
