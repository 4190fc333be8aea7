package format

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/gnana997/vuestories/pkg/parser"
	"github.com/gnana997/vuestories/pkg/sfc"
)

// Builtin formats Vue markup without external tools. Script parsers are a
// pass-through.
type Builtin struct {
	pm *parser.ParserManager
}

// NewBuiltin creates a Builtin formatter.
func NewBuiltin(pm *parser.ParserManager) *Builtin {
	return &Builtin{pm: pm}
}

// Format implements Formatter.
func (b *Builtin) Format(ctx context.Context, code string, opts Options) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if opts.Parser != "vue" {
		return code, nil
	}

	nodes, err := sfc.ParseFragment(b.pm, code)
	if err != nil {
		return "", fmt.Errorf("failed to parse markup: %w", err)
	}
	p := &markupPrinter{opts: opts.withDefaults()}
	p.children(nodes, 0)
	return strings.Join(p.lines, "\n") + "\n", nil
}

var spaceRun = regexp.MustCompile(`\s+`)

// markupPrinter prints template nodes one block per line.
type markupPrinter struct {
	opts  Options
	lines []string
}

func (p *markupPrinter) indent(depth int) string {
	return strings.Repeat(" ", depth*p.opts.TabWidth)
}

func (p *markupPrinter) fits(line string) bool {
	return len(line) <= p.opts.PrintWidth
}

func (p *markupPrinter) children(nodes []sfc.Node, depth int) {
	for _, n := range nodes {
		switch n := n.(type) {
		case *sfc.Text:
			if text := collapse(n.Content); text != "" {
				p.lines = append(p.lines, p.indent(depth)+text)
			}
		case *sfc.Comment:
			p.lines = append(p.lines, p.indent(depth)+n.Content)
		case *sfc.Element:
			p.element(n, depth)
		}
	}
}

func collapse(s string) string {
	return strings.TrimSpace(spaceRun.ReplaceAllString(s, " "))
}

func (p *markupPrinter) element(el *sfc.Element, depth int) {
	ind := p.indent(depth)
	attrs := make([]string, len(el.Attrs))
	for i, a := range el.Attrs {
		attrs[i] = formatAttr(a)
	}
	open := "<" + el.Tag
	if len(attrs) > 0 {
		open += " " + strings.Join(attrs, " ")
	}

	if el.SelfClosing {
		if line := ind + open + " />"; p.fits(line) || len(attrs) == 0 {
			p.lines = append(p.lines, line)
			return
		}
		p.lines = append(p.lines, ind+"<"+el.Tag)
		for _, a := range attrs {
			p.lines = append(p.lines, p.indent(depth+1)+a)
		}
		p.lines = append(p.lines, ind+"/>")
		return
	}

	closing := "</" + el.Tag + ">"
	content := significant(el.Children)
	inlineOpen := ind + open + ">"

	if !p.fits(inlineOpen) && len(attrs) > 0 {
		p.lines = append(p.lines, ind+"<"+el.Tag)
		for i, a := range attrs {
			line := p.indent(depth+1) + a
			if i == len(attrs)-1 && p.opts.BracketSameLine {
				line += ">"
				if len(content) == 0 {
					line += closing
				}
			}
			p.lines = append(p.lines, line)
		}
		if !p.opts.BracketSameLine {
			if len(content) == 0 {
				p.lines = append(p.lines, ind+">"+closing)
				return
			}
			p.lines = append(p.lines, ind+">")
		}
		if len(content) > 0 {
			p.children(content, depth+1)
			p.lines = append(p.lines, ind+closing)
		}
		return
	}

	if len(content) == 0 {
		p.lines = append(p.lines, inlineOpen+closing)
		return
	}
	if len(content) == 1 {
		if t, ok := content[0].(*sfc.Text); ok {
			if line := inlineOpen + collapse(t.Content) + closing; p.fits(line) {
				p.lines = append(p.lines, line)
				return
			}
		}
	}
	p.lines = append(p.lines, inlineOpen)
	p.children(content, depth+1)
	p.lines = append(p.lines, ind+closing)
}

// significant drops whitespace-only text.
func significant(nodes []sfc.Node) []sfc.Node {
	var out []sfc.Node
	for _, n := range nodes {
		if t, ok := n.(*sfc.Text); ok && strings.TrimSpace(t.Content) == "" {
			continue
		}
		out = append(out, n)
	}
	return out
}

func formatAttr(a sfc.Attr) string {
	if !a.HasValue {
		return a.Name
	}
	value := collapse(a.Value)
	if strings.Contains(value, `"`) && !strings.Contains(value, "'") {
		return a.Name + "='" + value + "'"
	}
	return a.Name + `="` + strings.ReplaceAll(value, `"`, "&quot;") + `"`
}
