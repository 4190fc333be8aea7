package parser

import (
	"fmt"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
	ts_html "github.com/tree-sitter/tree-sitter-html/bindings/go"
	ts_javascript "github.com/tree-sitter/tree-sitter-javascript/bindings/go"
	ts_typescript "github.com/tree-sitter/tree-sitter-typescript/bindings/go"
)

// poolKey identifies a grammar: a language plus the TSX variant.
type poolKey struct {
	lang  Language
	isTSX bool
}

func (k poolKey) String() string {
	if k.isTSX {
		return "tsx"
	}
	return k.lang.String()
}

// ParserManager hands out tree-sitter parsers for the SFC markup, the script
// blocks and the compiled modules the transforms rewrite.
//
// Pools are created lazily per grammar and owned by the manager, which must
// be closed. Callers own the returned trees and must close them. Any number
// of goroutines may parse at once; each grammar serves at most poolSize of
// them in parallel.
//
// Example:
//
//	manager := NewParserManager(logger)
//	defer manager.Close()
//
//	tree, err := manager.Parse([]byte("<template><Stories/></template>"), LanguageHTML, false)
//	if err != nil {
//	    return err
//	}
//	defer tree.Close()
type ParserManager struct {
	mu       sync.RWMutex
	pools    map[poolKey]*grammarPool
	poolSize int
	parses   atomic.Int64
	logger   *slog.Logger
}

// NewParserManager creates a ParserManager sized for the machine.
func NewParserManager(logger *slog.Logger) *ParserManager {
	return NewParserManagerWithPoolSize(logger, 0)
}

// NewParserManagerWithPoolSize is NewParserManager with an explicit number
// of parsers per grammar. Zero selects the CPU-based default.
func NewParserManagerWithPoolSize(logger *slog.Logger, poolSize int) *ParserManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &ParserManager{
		pools:    make(map[poolKey]*grammarPool),
		poolSize: getPoolSize(poolSize),
		logger:   logger,
	}
}

// Parse parses source with the grammar of lang. isTSX only applies to
// TypeScript.
//
// Trees with syntax errors are still returned; callers decide whether a
// partial tree is usable. The caller must close the tree.
func (pm *ParserManager) Parse(source []byte, lang Language, isTSX bool) (*ts.Tree, error) {
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("cannot parse unknown language")
	}
	key := poolKey{lang: lang, isTSX: isTSX && lang == LanguageTypeScript}
	pm.parses.Add(1)

	pool, err := pm.pool(key)
	if err != nil {
		return nil, err
	}
	parser, err := pool.acquire()
	if err != nil {
		return nil, fmt.Errorf("failed to acquire parser: %w", err)
	}
	tree := parser.Parse(source, nil)
	pool.release(parser)

	if tree == nil {
		return nil, fmt.Errorf("%s parser returned no tree", key)
	}
	if tree.RootNode().HasError() {
		pm.logger.Debug("parse tree contains errors", "grammar", key.String(), "bytes", len(source))
	}
	return tree, nil
}

// ParseFile parses source with the grammar its path implies.
func (pm *ParserManager) ParseFile(source []byte, filePath string) (*ts.Tree, error) {
	lang := DetectLanguage(filePath)
	if lang == LanguageUnknown {
		return nil, fmt.Errorf("unsupported file extension: %s", filePath)
	}
	return pm.Parse(source, lang, IsTSXFile(filePath))
}

// Close frees every pool. The manager cannot be used afterwards.
func (pm *ParserManager) Close() error {
	pm.mu.Lock()
	defer pm.mu.Unlock()

	freed := 0
	for _, pool := range pm.pools {
		freed += pool.close()
	}
	pm.pools = make(map[poolKey]*grammarPool)
	pm.logger.Debug("parser manager closed", "parses", pm.parses.Load(), "parsers_freed", freed)
	return nil
}

// pool returns the pool of key, creating it on first use.
func (pm *ParserManager) pool(key poolKey) (*grammarPool, error) {
	pm.mu.RLock()
	pool, ok := pm.pools[key]
	pm.mu.RUnlock()
	if ok {
		return pool, nil
	}

	pm.mu.Lock()
	defer pm.mu.Unlock()
	if pool, ok = pm.pools[key]; ok {
		return pool, nil
	}
	grammar, err := pm.GetLanguagePointer(key.lang, key.isTSX)
	if err != nil {
		return nil, err
	}
	pool = newGrammarPool(key, grammar, pm.poolSize, pm.logger)
	pm.pools[key] = pool
	return pool, nil
}

// GetLanguagePointer returns the tree-sitter grammar of lang. QueryManager
// compiles its queries against it.
func (pm *ParserManager) GetLanguagePointer(lang Language, isTSX bool) (unsafe.Pointer, error) {
	switch lang {
	case LanguageTypeScript:
		if isTSX {
			return ts_typescript.LanguageTSX(), nil
		}
		return ts_typescript.LanguageTypescript(), nil
	case LanguageJavaScript:
		return ts_javascript.Language(), nil
	case LanguageHTML:
		return ts_html.Language(), nil
	default:
		return nil, fmt.Errorf("unsupported language: %s", lang)
	}
}

// GetStats returns parser usage statistics.
func (pm *ParserManager) GetStats() ParserStats {
	pm.mu.RLock()
	defer pm.mu.RUnlock()

	stats := ParserStats{ParsesCalled: int(pm.parses.Load())}
	for key, pool := range pm.pools {
		n := pool.size()
		stats.ParsersCreated += n
		stats.Grammars = append(stats.Grammars, GrammarStats{Grammar: key.String(), Parsers: n})
	}
	sort.Slice(stats.Grammars, func(i, j int) bool { return stats.Grammars[i].Grammar < stats.Grammars[j].Grammar })
	return stats
}

// ParserStats contains parser usage statistics.
type ParserStats struct {
	// ParsersCreated is the number of live parsers across grammars.
	ParsersCreated int

	// ParsesCalled is the total number of Parse calls.
	ParsesCalled int

	// Grammars lists the pools created so far, by grammar name.
	Grammars []GrammarStats
}

// GrammarStats describes one grammar pool.
type GrammarStats struct {
	Grammar string
	Parsers int
}
