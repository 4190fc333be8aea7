// Package stories reads *.stories.vue files: the <Stories> root with its
// <Story> children, the defineMeta call of <script setup>, and the markup
// shared between stories.
package stories

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/gnana997/vuestories/pkg/compiler"
	"github.com/gnana997/vuestories/pkg/errs"
	"github.com/gnana997/vuestories/pkg/parser"
	"github.com/gnana997/vuestories/pkg/sfc"
	"github.com/gnana997/vuestories/pkg/textutil"
)

const (
	RootTag  = "Stories"
	StoryTag = "Story"
)

var identPath = regexp.MustCompile(`^[A-Za-z_$][\w$]*(\.[A-Za-z_$][\w$]*)*$`)

// Meta is read from the attributes of <Stories>. Empty strings mean absent.
type Meta struct {
	Title     string
	Component string
	Tags      []string
}

// Story is one <Story> child.
type Story struct {
	// ID is the exported identifier derived from Title.
	ID    string
	Title string
	// Template is the markup between the story's start and end tags.
	Template string
	Play     string

	Element *sfc.Element
}

// File is a parsed story file.
type File struct {
	Descriptor *sfc.Descriptor
	// Script is nil when the file has no script block, or when it was
	// parsed with ParseStructure.
	Script  *compiler.ScriptResult
	Meta    Meta
	Stories []Story
	Root    *sfc.Element
	// Docs is the trimmed content of the <docs> block.
	Docs string
}

// Parser parses story files and compiles their scripts.
type Parser struct {
	pm       *parser.ParserManager
	compiler compiler.Compiler
}

// NewParser creates a Parser.
func NewParser(pm *parser.ParserManager, c compiler.Compiler) *Parser {
	return &Parser{pm: pm, compiler: c}
}

// Parse reads the story structure of code and compiles its script.
func (p *Parser) Parse(ctx context.Context, filename, code string) (*File, error) {
	f, err := ParseStructure(p.pm, filename, code)
	if err != nil {
		return nil, err
	}
	f.Script, err = p.compiler.CompileScript(ctx, f.Descriptor)
	if err != nil {
		return nil, fmt.Errorf("failed to compile script of %s: %w", filename, err)
	}
	return f, nil
}

// ParseStructure reads the story structure of code without compiling
// anything.
func ParseStructure(pm *parser.ParserManager, filename, code string) (*File, error) {
	desc, err := sfc.Parse(pm, filename, code)
	if err != nil {
		return nil, err
	}
	if desc.Template == nil {
		return nil, &errs.MissingTemplateError{File: filename}
	}

	root, err := storiesRoot(desc)
	if err != nil {
		return nil, err
	}

	f := &File{
		Descriptor: desc,
		Root:       root,
		Meta: Meta{
			Title:     stringProp(root, "title"),
			Component: pathProp(root, "component"),
			Tags:      splitTags(root),
		},
	}
	if docs := desc.CustomBlock("docs"); docs != nil {
		f.Docs = strings.TrimSpace(docs.Content)
	}

	seen := make(map[string]bool)
	for _, el := range root.ElementChildren() {
		if el.Tag != StoryTag {
			continue
		}
		title := stringProp(el, "title")
		if title == "" {
			return nil, errs.Structuref(filename, "<Story> at offset %d has no title", el.Start)
		}
		id := textutil.StoryID(title)
		if id == "" {
			return nil, errs.Structuref(filename, "story title %q has no usable characters", title)
		}
		if seen[id] {
			return nil, errs.Structuref(filename, "duplicate story id %s (title %q)", id, title)
		}
		seen[id] = true

		story := Story{
			ID:      id,
			Title:   title,
			Play:    pathProp(el, "play"),
			Element: el,
		}
		if !el.SelfClosing {
			story.Template = code[el.InnerStart:el.InnerEnd]
		}
		f.Stories = append(f.Stories, story)
	}
	if len(f.Stories) == 0 {
		return nil, errs.Structuref(filename, "<%s> has no <%s> children", RootTag, StoryTag)
	}
	return f, nil
}

// storiesRoot returns the single top-level element, which must be <Stories>.
func storiesRoot(desc *sfc.Descriptor) (*sfc.Element, error) {
	var roots []*sfc.Element
	for _, n := range desc.Template.AST {
		if el, ok := n.(*sfc.Element); ok {
			roots = append(roots, el)
		}
	}
	if len(roots) != 1 {
		return nil, errs.Structuref(desc.Filename, "template must have exactly one root element, found %d", len(roots))
	}
	if roots[0].Tag != RootTag {
		return nil, errs.Structuref(desc.Filename, "root element must be <%s>, found <%s>", RootTag, roots[0].Tag)
	}
	return roots[0], nil
}

// stringProp reads a static attribute, or a bound one whose expression is
// a plain string literal.
func stringProp(el *sfc.Element, name string) string {
	attr, bound := el.Prop(name)
	if attr == nil {
		return ""
	}
	if !bound {
		return attr.Value
	}
	d, _ := attr.Directive()
	return stringLiteral(d.Exp)
}

func stringLiteral(exp string) string {
	if len(exp) < 2 {
		return ""
	}
	q := exp[0]
	if (q != '\'' && q != '"' && q != '`') || exp[len(exp)-1] != q {
		return ""
	}
	body := exp[1 : len(exp)-1]
	if strings.IndexByte(body, q) >= 0 || strings.Contains(body, `\`) {
		return ""
	}
	if q == '`' && strings.Contains(body, "${") {
		return ""
	}
	return body
}

// pathProp reads a bound attribute whose expression is an identifier or a
// member path.
func pathProp(el *sfc.Element, name string) string {
	attr, bound := el.Prop(name)
	if attr == nil || !bound {
		return ""
	}
	d, _ := attr.Directive()
	exp := strings.TrimPrefix(d.Exp, "_ctx.")
	if !identPath.MatchString(exp) {
		return ""
	}
	return exp
}

func splitTags(el *sfc.Element) []string {
	attr := el.Attr("tags")
	if attr == nil {
		return nil
	}
	var tags []string
	for _, t := range strings.Split(attr.Value, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
