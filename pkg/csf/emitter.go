// Package csf turns *.stories.vue files into Component Story Format modules.
//
// A story file is first assembled into one ES module: the compiled script
// bound to _sfc_main, a default export carrying the story meta, and one
// compiled render function plus named export per <Story>. That module is
// then rewritten in a single pass of offset-keyed edits:
//
//  1. the default export is deep-merged with arg types derived from the
//     component's models and slots, and its parameters gain the component
//     description, design link and CSS property controls;
//  2. every story export becomes an object story whose args are the props
//     bound in its template, rendered through a setup closure;
//  3. script bindings referenced by args are hoisted out of setup;
//  4. block-mode runtime helpers are swapped for their vnode counterparts.
package csf

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/gnana997/vuestories/pkg/compiler"
	"github.com/gnana997/vuestories/pkg/docs"
	"github.com/gnana997/vuestories/pkg/edit"
	"github.com/gnana997/vuestories/pkg/format"
	"github.com/gnana997/vuestories/pkg/jsast"
	"github.com/gnana997/vuestories/pkg/parser"
	"github.com/gnana997/vuestories/pkg/parser/queries"
	"github.com/gnana997/vuestories/pkg/stories"
	"github.com/gnana997/vuestories/pkg/supermeta"
)

// Config holds the collaborators of an Emitter.
type Config struct {
	Compiler  compiler.Compiler
	Formatter format.Formatter
	Docs      docs.Compiler
	// Design enables the design parameter. Nil disables it.
	Design *supermeta.Design
	Logger *slog.Logger
}

// Emitter converts story files. Safe for concurrent use when its
// collaborators are.
type Emitter struct {
	pm        *parser.ParserManager
	qm        *queries.QueryManager
	parser    *stories.Parser
	compiler  compiler.Compiler
	formatter format.Formatter
	docs      docs.Compiler
	design    *supermeta.Design
	logger    *slog.Logger
}

// New creates an Emitter. Missing collaborators default to the built-in
// compiler, the built-in formatter and the markdown docs compiler.
func New(qm *queries.QueryManager, cfg Config) *Emitter {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	pm := qm.Parser()
	if cfg.Compiler == nil {
		cfg.Compiler = compiler.NewBuiltin(qm, logger)
	}
	if cfg.Formatter == nil {
		cfg.Formatter = format.NewBuiltin(pm)
	}
	if cfg.Docs == nil {
		cfg.Docs = docs.NewMarkdown()
	}
	return &Emitter{
		pm:        pm,
		qm:        qm,
		parser:    stories.NewParser(pm, cfg.Compiler),
		compiler:  cfg.Compiler,
		formatter: cfg.Formatter,
		docs:      cfg.Docs,
		design:    cfg.Design,
		logger:    logger,
	}
}

// Transform converts the story file code, identified by id, into a CSF
// module.
func (e *Emitter) Transform(ctx context.Context, code, id string) (*edit.Result, error) {
	start := time.Now()
	filename := id
	if i := strings.IndexByte(filename, '?'); i >= 0 {
		filename = filename[:i]
	}

	dm, err := stories.ExtractDefineMeta(e.pm, filename, code)
	if err != nil {
		return nil, err
	}
	inlined, err := stories.InlineExtraTemplates(e.pm, filename, dm.Code)
	if err != nil {
		return nil, err
	}
	file, err := e.parser.Parse(ctx, filename, inlined)
	if err != nil {
		return nil, err
	}

	lang := ""
	if file.Script != nil {
		lang = file.Script.Lang
	}
	module, err := e.assemble(ctx, file)
	if err != nil {
		return nil, err
	}
	module, err = jsast.OrganizeImports(e.qm, module, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to organize imports of %s: %w", filename, err)
	}
	module, err = e.formatter.Format(ctx, module, moduleFormat(lang))
	if err != nil {
		return nil, fmt.Errorf("failed to format %s: %w", filename, err)
	}

	res, err := e.rewrite(ctx, module, lang, file, dm.Object, id)
	if err != nil {
		return nil, err
	}
	e.logger.Debug("stories transformed",
		"id", id,
		"stories", len(file.Stories),
		"duration", time.Since(start))
	return res, nil
}

func moduleFormat(lang string) format.Options {
	opts := format.Options{Parser: "babel", PrintWidth: 80, TabWidth: 2}
	if lang == "ts" || lang == "tsx" {
		opts.Parser = "typescript"
	}
	return opts
}

// rewrite runs the edit pass over the assembled module.
func (e *Emitter) rewrite(ctx context.Context, module, lang string, f *stories.File, extraMeta, id string) (*edit.Result, error) {
	filename := f.Descriptor.Filename
	prog, err := jsast.Parse(e.pm, module, lang)
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated module of %s: %w", filename, err)
	}
	defer prog.Close()

	s := edit.New(module)
	if err := e.mergeMeta(s, prog, filename, extraMeta); err != nil {
		return nil, err
	}

	byID := make(map[string]stories.Story, len(f.Stories))
	for _, story := range f.Stories {
		byID[story.ID] = story
	}
	var bindings compiler.BindingMetadata
	hasSetup := false
	if f.Script != nil {
		bindings = f.Script.Bindings
		hasSetup = f.Script.Setup
	}

	used := newBindingSet()
	for _, stmt := range prog.Statements() {
		storyID, arrow := findStoryExport(stmt, prog.Src)
		story, ok := byID[storyID]
		if !ok {
			continue
		}
		if err := e.rewriteStory(ctx, s, prog, story, arrow, hasSetup, used); err != nil {
			return nil, fmt.Errorf("%s: %w", filename, err)
		}
		if root, _, _ := strings.Cut(story.Play, "."); root != "" {
			if _, isBinding := bindings[root]; isBinding {
				used.add(root)
			}
		}
	}

	if err := hoist(e.qm, s, prog, used, bindings); err != nil {
		return nil, err
	}
	if err := renameBlockHelpers(s, prog); err != nil {
		return nil, err
	}
	return s.Result(id), nil
}
