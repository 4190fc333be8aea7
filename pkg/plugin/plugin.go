// Package plugin exposes the story and metadata transforms through the
// hooks a bundler host calls: id resolution, transform filtering and the
// transform itself.
package plugin

import (
	"context"
	"log/slog"
	"strings"
	"sync"

	"github.com/gnana997/vuestories/pkg/compiler"
	"github.com/gnana997/vuestories/pkg/csf"
	"github.com/gnana997/vuestories/pkg/docs"
	"github.com/gnana997/vuestories/pkg/edit"
	"github.com/gnana997/vuestories/pkg/format"
	"github.com/gnana997/vuestories/pkg/meta"
	"github.com/gnana997/vuestories/pkg/parser/queries"
	"github.com/gnana997/vuestories/pkg/supermeta"
	"github.com/gnana997/vuestories/pkg/util"
)

// Name identifies the plugin to hosts.
const Name = "vuestories"

const (
	// StoriesPublicSuffix marks story files as imported by users.
	StoriesPublicSuffix = ".stories.vue"
	// StoriesInternalSuffix is appended to resolved story ids so that the
	// regular Vue pipeline leaves them alone.
	StoriesInternalSuffix = "?vue&type=stories"
)

// Resolution is a host module resolution.
type Resolution struct {
	ID       string
	External bool
}

// ResolveFunc is the host resolver. skipSelf asks the host not to call
// back into this plugin.
type ResolveFunc func(ctx context.Context, source, importer string, skipSelf bool) (*Resolution, error)

// Config holds the plugin collaborators. Nil fields take defaults: the
// built-in compiler and formatter, the markdown docs compiler and a
// tsconfig-scoped metadata checker.
type Config struct {
	Options   *ResolvedOptions
	Compiler  compiler.Compiler
	Formatter format.Formatter
	Docs      docs.Compiler
	Source    meta.Source
	Files     util.FileCache
	Logger    *slog.Logger
}

// Plugin routes host hooks to the transforms. Safe for concurrent use.
type Plugin struct {
	qm     *queries.QueryManager
	opts   *ResolvedOptions
	cfg    Config
	logger *slog.Logger

	once     sync.Once
	source   meta.Source
	checker  *meta.Checker
	files    util.FileCache
	ownFiles bool
	emitter  *csf.Emitter
	injector *supermeta.Injector
}

// New creates a Plugin. Collaborators are built on the first transform.
func New(qm *queries.QueryManager, cfg Config) *Plugin {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	opts := cfg.Options
	if opts == nil {
		opts = &ResolvedOptions{Root: ".", Include: DefaultInclude, Exclude: DefaultExclude, Enforce: EnforcePre}
	}
	return &Plugin{qm: qm, opts: opts, cfg: cfg, logger: logger}
}

// Enforce returns the ordering hint for the host.
func (p *Plugin) Enforce() string { return p.opts.Enforce }

// Options returns the resolved options.
func (p *Plugin) Options() *ResolvedOptions { return p.opts }

func (p *Plugin) init() {
	p.once.Do(func() {
		source := p.cfg.Source
		if source == nil {
			p.files = p.cfg.Files
			if p.files == nil {
				fc := util.DefaultFileCacheConfig()
				fc.Logger = p.logger
				p.files = util.NewFileCache(fc)
				p.ownFiles = true
			}
			p.checker = meta.NewChecker(p.qm.Parser(), p.files, meta.CheckerConfig{
				TSConfigPath: p.opts.TSConfigPath,
			}, p.logger)
			source = p.checker
		}
		p.source = source
		p.injector = supermeta.New(p.qm.Parser(), source, p.opts.Design, p.logger)
		p.emitter = csf.New(p.qm, csf.Config{
			Compiler:  p.cfg.Compiler,
			Formatter: p.cfg.Formatter,
			Docs:      p.cfg.Docs,
			Design:    p.opts.Design,
			Logger:    p.logger,
		})
	})
}

// ResolveID redirects story imports to their internal id. It returns nil
// for sources it does not handle and for unresolved or external modules.
func (p *Plugin) ResolveID(ctx context.Context, source, importer string, resolve ResolveFunc) (*Resolution, error) {
	if !strings.HasSuffix(source, StoriesPublicSuffix) {
		return nil, nil
	}
	res, err := resolve(ctx, source, importer, true)
	if err != nil {
		return nil, err
	}
	if res == nil || res.External {
		return nil, nil
	}
	resolved := &Resolution{ID: res.ID + StoriesInternalSuffix}
	p.logger.Debug("story resolved", "source", source, "id", resolved.ID)
	return resolved, nil
}

// TransformInclude reports whether Transform handles id.
func (p *Plugin) TransformInclude(id string) bool {
	if !IsStoryID(id) && !strings.HasSuffix(id, ".vue") {
		return false
	}
	return p.opts.Matches(id)
}

// IsStoryID reports whether id is a resolved story id.
func IsStoryID(id string) bool {
	return strings.HasSuffix(id, StoriesPublicSuffix+StoriesInternalSuffix)
}

// Transform runs the metadata injector on components and the CSF emitter
// on stories. A nil result means the code is unchanged.
func (p *Plugin) Transform(ctx context.Context, code, id string) (*edit.Result, error) {
	p.init()
	switch {
	case strings.HasSuffix(id, ".vue"):
		return p.injector.Transform(code, id)
	case IsStoryID(id):
		return p.emitter.Transform(ctx, code, id)
	}
	return nil, nil
}

// MetaSource returns the component metadata source shared by the
// transforms.
func (p *Plugin) MetaSource() meta.Source {
	p.init()
	return p.source
}

// Stats reports metadata cache activity. The zero value is returned when an
// external source is configured.
func (p *Plugin) Stats() meta.CheckerStats {
	p.init()
	if p.checker == nil {
		return meta.CheckerStats{}
	}
	return p.checker.Stats()
}

// Close releases the file cache the plugin created.
func (p *Plugin) Close() error {
	if p.ownFiles && p.files != nil {
		return p.files.Close()
	}
	return nil
}
