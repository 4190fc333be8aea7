package compiler

import (
	"context"
	"fmt"
	"log/slog"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/vuestories/pkg/jsast"
	"github.com/gnana997/vuestories/pkg/parser/queries"
	"github.com/gnana997/vuestories/pkg/sfc"
	"github.com/gnana997/vuestories/pkg/textutil"
)

// Builtin compiles the narrow set of script and template shapes used by
// story files without leaving the process. Input outside that set fails
// with errs.UnsupportedError.
type Builtin struct {
	qm     *queries.QueryManager
	logger *slog.Logger
}

// NewBuiltin creates a Builtin compiler. Logger can be nil.
func NewBuiltin(qm *queries.QueryManager, logger *slog.Logger) *Builtin {
	if logger == nil {
		logger = slog.Default()
	}
	return &Builtin{qm: qm, logger: logger}
}

// CompileScript implements Compiler.
func (b *Builtin) CompileScript(ctx context.Context, desc *sfc.Descriptor) (*ScriptResult, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	switch {
	case desc.ScriptSetup != nil:
		res, err := compileSetup(b.qm, desc)
		if err != nil {
			return nil, fmt.Errorf("failed to compile script setup of %s: %w", desc.Filename, err)
		}
		b.logger.Debug("compiled script setup", "file", desc.Filename, "bindings", len(res.Bindings))
		return res, nil
	case desc.Script != nil:
		return b.compilePlain(desc)
	}
	return nil, nil
}

// compilePlain passes a plain <script> through and derives bindings from
// the options object of its default export.
func (b *Builtin) compilePlain(desc *sfc.Descriptor) (*ScriptResult, error) {
	lang := desc.Script.Lang()
	prog, err := jsast.Parse(b.qm.Parser(), desc.Script.Content, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to parse <script> of %s: %w", desc.Filename, err)
	}
	defer prog.Close()

	bindings := make(BindingMetadata)
	for _, stmt := range prog.Statements() {
		if stmt.Kind() != "export_statement" || jsast.ChildOfKind(stmt, "default") == nil {
			continue
		}
		value := unwrapTS(stmt.ChildByFieldName("value"))
		if value != nil && value.Kind() == "call_expression" {
			// export default defineComponent({...})
			if args := jsast.Arguments(value); len(args) > 0 {
				value = args[0]
			}
		}
		if value != nil && value.Kind() == "object" {
			analyzeOptions(value, prog.Src, bindings)
		}
	}

	return &ScriptResult{Content: desc.Script.Content, Lang: lang, Bindings: bindings}, nil
}

func analyzeOptions(obj *ts.Node, src []byte, bindings BindingMetadata) {
	for _, m := range jsast.ObjectMembers(obj, src) {
		switch m.Key {
		case "props":
			if m.Value == nil {
				continue
			}
			switch m.Value.Kind() {
			case "array":
				for _, el := range jsast.NamedChildren(m.Value) {
					if v, ok := jsast.StringValue(el, src); ok {
						bindings[v] = BindingProps
					}
				}
			case "object":
				for _, p := range jsast.ObjectMembers(m.Value, src) {
					if p.Key != "" {
						bindings[p.Key] = BindingProps
					}
				}
			}
		case "inject", "computed", "methods":
			if m.Value != nil && m.Value.Kind() == "object" {
				for _, p := range jsast.ObjectMembers(m.Value, src) {
					if p.Key != "" {
						bindings[p.Key] = BindingOptions
					}
				}
			}
		case "data", "setup":
			t := BindingData
			if m.Key == "setup" {
				t = BindingSetupMaybeRef
			}
			fn := m.Node
			if m.Value != nil {
				fn = m.Value
			}
			for _, key := range returnedKeys(fn, src) {
				bindings[key] = t
			}
		}
	}
}

// returnedKeys lists the keys of the object literal returned by a function.
func returnedKeys(fn *ts.Node, src []byte) []string {
	body := fn.ChildByFieldName("body")
	if body == nil {
		return nil
	}
	if obj := unwrapTS(body); obj != nil && obj.Kind() == "object" {
		return memberKeys(obj, src)
	}
	for _, stmt := range jsast.NamedChildren(body) {
		if stmt.Kind() != "return_statement" {
			continue
		}
		if obj := unwrapTS(jsast.FirstNamedChild(stmt)); obj != nil && obj.Kind() == "object" {
			return memberKeys(obj, src)
		}
	}
	return nil
}

func memberKeys(obj *ts.Node, src []byte) []string {
	var keys []string
	for _, m := range jsast.ObjectMembers(obj, src) {
		if m.Key != "" {
			keys = append(keys, m.Key)
		}
	}
	return keys
}

// CompileTemplate implements Compiler.
func (b *Builtin) CompileTemplate(ctx context.Context, source string, opts TemplateOptions) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	nodes, err := sfc.ParseFragment(b.qm.Parser(), source)
	if err != nil {
		return "", err
	}
	g := newTemplateGen(b.qm, opts.Bindings)
	code, err := g.generate(nodes)
	if err != nil {
		return "", fmt.Errorf("failed to compile template of %s: %w", opts.Filename, err)
	}
	return code, nil
}

// jsString encodes s as a double-quoted JavaScript string literal.
func jsString(s string) string {
	return textutil.JSString(s)
}

func isIdentifierName(s string) bool {
	return textutil.IsIdentifier(s)
}
