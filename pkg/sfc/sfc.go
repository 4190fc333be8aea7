// Package sfc splits a Vue single-file component into its blocks and parses
// template markup into element, text and comment nodes carrying byte offsets
// into the original source.
//
// Parsing is done with the tree-sitter HTML grammar. Script and style bodies
// are raw text; the template block is walked into the node tree exposed by
// Block.AST.
package sfc

import (
	"fmt"
	"path/filepath"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/vuestories/pkg/parser"
)

// Block is one top-level block of an SFC.
type Block struct {
	// Type is the tag name: "template", "script", "style" or the custom
	// block name.
	Type  string
	Attrs []Attr

	// Content is Source[ContentStart:ContentEnd].
	Content      string
	ContentStart int
	ContentEnd   int

	// Start and End span the whole element including its tags.
	Start int
	End   int

	// AST holds the parsed children of a template block. Nil for every
	// other block type.
	AST []Node
}

// Attr returns the value of a static attribute and whether it is present.
func (b *Block) Attr(name string) (string, bool) {
	for _, a := range b.Attrs {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}

// Lang returns the lang attribute, or "" when absent.
func (b *Block) Lang() string {
	lang, _ := b.Attr("lang")
	return lang
}

// Setup reports whether a script block carries the setup attribute.
func (b *Block) Setup() bool {
	_, ok := b.Attr("setup")
	return ok
}

// Descriptor is a parsed SFC.
type Descriptor struct {
	Filename string
	Source   string

	Template     *Block
	Script       *Block
	ScriptSetup  *Block
	Styles       []*Block
	CustomBlocks []*Block
}

// CustomBlock returns the first custom block of the given type.
func (d *Descriptor) CustomBlock(typ string) *Block {
	for _, b := range d.CustomBlocks {
		if b.Type == typ {
			return b
		}
	}
	return nil
}

// ScriptLang returns the lang of the script setup block, falling back to the
// plain script block.
func (d *Descriptor) ScriptLang() string {
	if d.ScriptSetup != nil && d.ScriptSetup.Lang() != "" {
		return d.ScriptSetup.Lang()
	}
	if d.Script != nil {
		return d.Script.Lang()
	}
	return ""
}

// ComponentName derives the component name from the filename: the base name
// without the .vue extension or any query.
func (d *Descriptor) ComponentName() string {
	return ComponentName(d.Filename)
}

// ComponentName returns the base name of a component path without the .vue
// extension or any query.
func ComponentName(filename string) string {
	if i := strings.IndexByte(filename, '?'); i >= 0 {
		filename = filename[:i]
	}
	return strings.TrimSuffix(filepath.Base(filename), ".vue")
}

// Parse splits source into blocks. The first <template>, <script> and
// <script setup> win; later duplicates are ignored.
func Parse(pm *parser.ParserManager, filename, source string) (*Descriptor, error) {
	src := []byte(source)
	tree, err := pm.Parse(src, parser.LanguageHTML, false)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", filename, err)
	}
	defer tree.Close()

	desc := &Descriptor{Filename: filename, Source: source}
	root := tree.RootNode()

	for i := uint(0); i < root.NamedChildCount(); i++ {
		child := root.NamedChild(i)
		switch child.Kind() {
		case "script_element":
			block := newBlock(child, src)
			if block.Setup() {
				if desc.ScriptSetup == nil {
					desc.ScriptSetup = block
				}
			} else if desc.Script == nil {
				desc.Script = block
			}
		case "style_element":
			desc.Styles = append(desc.Styles, newBlock(child, src))
		case "element":
			block := newBlock(child, src)
			if block.Type == "template" {
				if desc.Template == nil {
					block.AST = convertChildren(child, src, block.ContentStart, block.ContentEnd)
					desc.Template = block
				}
				continue
			}
			desc.CustomBlocks = append(desc.CustomBlocks, block)
		}
	}

	return desc, nil
}

// ParseFragment parses standalone template markup. Offsets in the returned
// nodes are relative to source.
func ParseFragment(pm *parser.ParserManager, source string) ([]Node, error) {
	src := []byte(source)
	tree, err := pm.Parse(src, parser.LanguageHTML, false)
	if err != nil {
		return nil, fmt.Errorf("failed to parse template: %w", err)
	}
	defer tree.Close()

	return convertChildren(tree.RootNode(), src, 0, len(src)), nil
}

func newBlock(n *ts.Node, src []byte) *Block {
	b := &Block{
		Start:        int(n.StartByte()),
		End:          int(n.EndByte()),
		ContentStart: int(n.EndByte()),
		ContentEnd:   int(n.EndByte()),
	}

	hasEnd := false
	for i := uint(0); i < n.NamedChildCount(); i++ {
		child := n.NamedChild(i)
		switch child.Kind() {
		case "start_tag", "self_closing_tag":
			b.Type, b.Attrs = convertTag(child, src)
			b.ContentStart = int(child.EndByte())
		case "end_tag":
			b.ContentEnd = int(child.StartByte())
			hasEnd = true
		}
	}
	if !hasEnd && b.ContentStart > b.ContentEnd {
		b.ContentEnd = b.ContentStart
	}
	b.Content = string(src[b.ContentStart:b.ContentEnd])
	return b
}
