package meta

import (
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/gnana997/vuestories/pkg/errs"
	"github.com/gnana997/vuestories/pkg/parser"
	"github.com/gnana997/vuestories/pkg/util"
)

// CheckerConfig configures a Checker.
type CheckerConfig struct {
	// TSConfigPath is the project tsconfig. Only files it includes get
	// metadata.
	TSConfigPath string

	// MaxCachedFiles bounds the metadata cache. Zero means 1000.
	MaxCachedFiles int
}

type cacheKey struct {
	path    string
	modTime int64
	size    int64
}

// Checker is the process-wide metadata source.
//
// The tsconfig is read once, on first use, behind a sync.Once. Results are
// kept in an LRU keyed by path and modification time, so an edited file is
// re-read on the next lookup without explicit invalidation. Safe for
// concurrent use; returned metadata is shared and must not be modified.
type Checker struct {
	pm     *parser.ParserManager
	files  util.FileCache
	config CheckerConfig
	logger *slog.Logger

	once    sync.Once
	initErr error
	project *project

	cache  *lru.Cache[cacheKey, *ComponentMeta]
	hits   atomic.Int64
	misses atomic.Int64
}

// CheckerStats reports cache activity.
type CheckerStats struct {
	Hits   int64
	Misses int64
	Cached int
}

// NewChecker creates a Checker. Nothing is read until the first GetMeta.
func NewChecker(pm *parser.ParserManager, files util.FileCache, config CheckerConfig, logger *slog.Logger) *Checker {
	if logger == nil {
		logger = slog.Default()
	}
	if config.MaxCachedFiles <= 0 {
		config.MaxCachedFiles = 1000
	}
	cache, err := lru.NewWithEvict(config.MaxCachedFiles, func(key cacheKey, _ *ComponentMeta) {
		logger.Debug("metadata cache evict", "path", key.path)
	})
	if err != nil {
		panic(fmt.Sprintf("failed to create metadata cache: %v", err))
	}
	return &Checker{pm: pm, files: files, config: config, logger: logger, cache: cache}
}

// Init loads the tsconfig. It runs at most once; later calls return the
// first result.
func (c *Checker) Init() error {
	c.once.Do(func() {
		if c.config.TSConfigPath == "" {
			c.initErr = &errs.ConfigurationError{Reason: "no tsconfig configured for component metadata"}
			return
		}
		p, err := loadProject(c.config.TSConfigPath)
		if err != nil {
			c.initErr = &errs.ConfigurationError{Reason: err.Error(), Searched: []string{c.config.TSConfigPath}}
			return
		}
		c.project = p
		c.logger.Info("component metadata checker initialized",
			"tsconfig", c.config.TSConfigPath,
			"scopes", len(p.scopes))
	})
	return c.initErr
}

// GetMeta implements Source. Only the default export of a .vue file has
// metadata; files outside the project get an empty result.
func (c *Checker) GetMeta(path, exportName string) (*ComponentMeta, error) {
	if err := c.Init(); err != nil {
		return nil, err
	}
	if exportName != "" && exportName != "default" {
		return &ComponentMeta{}, nil
	}

	if i := strings.IndexByte(path, '?'); i >= 0 {
		path = path[:i]
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if !c.project.Contains(abs) {
		c.logger.Debug("file outside tsconfig, no metadata", "path", abs)
		return &ComponentMeta{}, nil
	}

	mf, err := c.files.Get(abs)
	if err != nil {
		return nil, err
	}
	key := cacheKey{path: abs, modTime: mf.ModTime.UnixNano(), size: mf.Size}
	if m, ok := c.cache.Get(key); ok {
		c.hits.Add(1)
		return m, nil
	}
	c.misses.Add(1)

	m, err := Extract(c.pm, abs, string(mf.Data))
	if err != nil {
		return nil, err
	}
	c.cache.Add(key, m)
	c.logger.Debug("component metadata extracted",
		"path", abs,
		"props", len(m.Props),
		"events", len(m.Events),
		"slots", len(m.Slots))
	return m, nil
}

// Stats returns cache statistics.
func (c *Checker) Stats() CheckerStats {
	return CheckerStats{Hits: c.hits.Load(), Misses: c.misses.Load(), Cached: c.cache.Len()}
}

// Static is a fixed Source, keyed by path.
type Static map[string]*ComponentMeta

// GetMeta implements Source.
func (s Static) GetMeta(path, _ string) (*ComponentMeta, error) {
	if m, ok := s[path]; ok {
		return m, nil
	}
	return &ComponentMeta{}, nil
}
