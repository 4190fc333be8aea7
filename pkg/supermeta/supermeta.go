// Package supermeta injects component documentation into the
// defineOptions call of a component's <script setup>: the leading docblock,
// design-tool links, CSS custom properties and the prop, event, model and
// slot metadata of the component.
package supermeta

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/vuestories/pkg/docblock"
	"github.com/gnana997/vuestories/pkg/edit"
	"github.com/gnana997/vuestories/pkg/jsast"
	"github.com/gnana997/vuestories/pkg/meta"
	"github.com/gnana997/vuestories/pkg/parser"
	"github.com/gnana997/vuestories/pkg/sfc"
)

// Design links components to a design tool. A nil *Design disables the
// integration.
type Design struct {
	Type   string
	GetURL func(id string) string
}

// URL returns the design URL for id, or "" when disabled.
func (d *Design) URL(id string) string {
	if d == nil || d.GetURL == nil || id == "" {
		return ""
	}
	return d.GetURL(id)
}

// Options is the object merged into defineOptions. Field order is the
// emitted key order.
type Options struct {
	Description *string          `json:"description,omitempty"`
	DesignID    string           `json:"designId,omitempty"`
	DesignURL   string           `json:"designUrl,omitempty"`
	Category    string           `json:"category,omitempty"`
	CSSVars     []CSSVarMeta     `json:"cssVars,omitempty"`
	Props       []meta.PropMeta  `json:"props,omitempty"`
	Events      []meta.EventMeta `json:"events,omitempty"`
	Models      []meta.ModelMeta `json:"models,omitempty"`
	Slots       []meta.SlotMeta  `json:"slots,omitempty"`
}

// Injector rewrites component files. Safe for concurrent use when its
// metadata source is.
type Injector struct {
	pm     *parser.ParserManager
	source meta.Source
	design *Design
	logger *slog.Logger
}

// New creates an Injector. source may be nil, in which case no prop, event,
// model or slot metadata is injected.
func New(pm *parser.ParserManager, source meta.Source, design *Design, logger *slog.Logger) *Injector {
	if logger == nil {
		logger = slog.Default()
	}
	return &Injector{pm: pm, source: source, design: design, logger: logger}
}

// Transform injects the component options into code. Without an existing
// defineOptions call one is always prepended, empty or not. It returns nil
// when the file has no <script setup>, or when nothing would be merged into
// an existing call.
func (in *Injector) Transform(code, id string) (*edit.Result, error) {
	path := id
	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	desc, err := sfc.Parse(in.pm, path, code)
	if err != nil {
		return nil, err
	}
	setup := desc.ScriptSetup
	if setup == nil {
		return nil, nil
	}

	prog, err := jsast.Parse(in.pm, setup.Content, setup.Lang())
	if err != nil {
		return nil, fmt.Errorf("failed to parse <script setup> of %s: %w", path, err)
	}
	defer prog.Close()

	opts, err := in.collect(desc, prog, path)
	if err != nil {
		return nil, err
	}
	fields, err := marshal(opts)
	if err != nil {
		return nil, err
	}

	s := edit.New(code)
	if obj := defineOptionsObject(prog); obj != nil {
		if fields == "{}" {
			return nil, nil
		}
		offset, text := jsast.InsertMembers(obj, prog.Src, fields[1:len(fields)-1])
		s.PrependRight(setup.ContentStart+offset, text)
	} else {
		s.PrependLeft(setup.ContentStart, "defineOptions("+fields+")\n")
	}

	in.logger.Debug("component options injected", "id", id, "bytes", len(fields))
	return s.Result(id), nil
}

func (in *Injector) collect(desc *sfc.Descriptor, prog *jsast.Program, path string) (*Options, error) {
	doc := docblock.Extract(leadingComment(prog))

	opts := &Options{Description: doc.Description}
	opts.DesignID, _ = doc.Tags.First("designId")
	opts.Category, _ = doc.Tags.First("category")
	opts.DesignURL = in.design.URL(opts.DesignID)
	opts.CSSVars = ExtractCSSVars(desc.Styles, desc.ComponentName())

	if in.source == nil {
		return opts, nil
	}
	m, err := in.source.GetMeta(path, "default")
	if err != nil {
		return nil, fmt.Errorf("failed to get component metadata of %s: %w", path, err)
	}
	opts.Props, opts.Events, opts.Models = meta.ParseModels(m)
	opts.Slots = m.Slots
	return opts, nil
}

// leadingComment returns the first comment before the first statement.
func leadingComment(prog *jsast.Program) string {
	var first *ts.Node
	for i := uint(0); i < prog.Root.NamedChildCount(); i++ {
		n := prog.Root.NamedChild(i)
		if n.Kind() != "comment" {
			if first != nil {
				return prog.Text(first)
			}
			return ""
		}
		if first == nil {
			first = n
		}
	}
	return ""
}

// defineOptionsObject finds the options object of a top-level
// defineOptions({...}) call.
func defineOptionsObject(prog *jsast.Program) *ts.Node {
	for _, stmt := range prog.Statements() {
		if stmt.Kind() != "expression_statement" {
			continue
		}
		call := jsast.FirstNamedChild(stmt)
		if jsast.Callee(call, prog.Src) != "defineOptions" {
			continue
		}
		if args := jsast.Arguments(call); len(args) > 0 && args[0].Kind() == "object" {
			return args[0]
		}
	}
	return nil
}

func marshal(v any) (string, error) {
	var b strings.Builder
	enc := json.NewEncoder(&b)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	return strings.TrimSuffix(b.String(), "\n"), nil
}
