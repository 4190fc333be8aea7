// Package compiler is the boundary to the Vue SFC compiler.
//
// Two implementations exist. Builtin is a narrow Go compiler covering the
// script-setup and template shapes story files use. Node drives
// @vue/compiler-sfc through an embedded worker run by node or bun, for
// projects that need the full template language.
package compiler

import (
	"context"
	"strings"

	"github.com/gnana997/vuestories/pkg/sfc"
)

// BindingType classifies a script binding the way Vue's compiler does.
type BindingType string

const (
	BindingData               BindingType = "data"
	BindingProps              BindingType = "props"
	BindingPropsAliased       BindingType = "props-aliased"
	BindingSetupLet           BindingType = "setup-let"
	BindingSetupConst         BindingType = "setup-const"
	BindingSetupReactiveConst BindingType = "setup-reactive-const"
	BindingSetupMaybeRef      BindingType = "setup-maybe-ref"
	BindingSetupRef           BindingType = "setup-ref"
	BindingOptions            BindingType = "options"
	BindingLiteralConst       BindingType = "literal-const"
)

// IsConst reports whether the binding is a compile-time constant.
func (b BindingType) IsConst() bool {
	return strings.HasSuffix(string(b), "const")
}

// IsSetup reports whether the binding is exposed through $setup.
func (b BindingType) IsSetup() bool {
	return strings.HasPrefix(string(b), "setup-") || b == BindingLiteralConst
}

// BindingMetadata maps a binding name to its type.
type BindingMetadata map[string]BindingType

// Constants returns the names of every constant binding.
func (m BindingMetadata) Constants() map[string]bool {
	out := make(map[string]bool)
	for name, t := range m {
		if t.IsConst() {
			out[name] = true
		}
	}
	return out
}

// ScriptResult is a compiled script.
type ScriptResult struct {
	// Content is an ES module whose default export is the component.
	Content string
	// Lang is the script lang ("ts", "tsx" or "" for JavaScript).
	Lang     string
	Bindings BindingMetadata
	// Setup reports whether the result came from <script setup>.
	Setup bool
}

// IsTS reports whether Content must be parsed as TypeScript.
func (r *ScriptResult) IsTS() bool {
	return r.Lang == "ts" || r.Lang == "tsx"
}

// TemplateOptions configure template compilation.
type TemplateOptions struct {
	Filename string
	Bindings BindingMetadata
}

// Compiler compiles the script and template parts of an SFC.
type Compiler interface {
	// CompileScript compiles <script> and <script setup>. It returns nil
	// when the descriptor has neither.
	CompileScript(ctx context.Context, desc *sfc.Descriptor) (*ScriptResult, error)

	// CompileTemplate compiles template markup into an ES module exporting
	// `render(_ctx, _cache, $props, $setup, $data, $options)`. Static
	// hoisting is disabled so several compiled templates can share one
	// module.
	CompileTemplate(ctx context.Context, source string, opts TemplateOptions) (string, error)
}
