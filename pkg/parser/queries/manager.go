// Package queries compiles, caches and runs the tree-sitter queries the
// transforms use to find imports and compiler-macro calls.
package queries

import (
	"fmt"
	"log/slog"
	"strings"
	"sync"

	ts "github.com/tree-sitter/go-tree-sitter"

	"github.com/gnana997/vuestories/pkg/parser"
	"github.com/gnana997/vuestories/pkg/parser/queries/imports"
	"github.com/gnana997/vuestories/pkg/parser/queries/macros"
)

// QueryType identifies which query to execute.
type QueryType int

const (
	// QueryTypeImports matches module import declarations
	QueryTypeImports QueryType = iota
	// QueryTypeMacros matches calls to plain-identifier callees (compiler macros)
	QueryTypeMacros
)

// String returns the string representation of a QueryType.
func (qt QueryType) String() string {
	switch qt {
	case QueryTypeImports:
		return "imports"
	case QueryTypeMacros:
		return "macros"
	default:
		return "unknown"
	}
}

type queryKey struct {
	lang  parser.Language
	qtype QueryType
}

// QueryManager compiles each (language, query) pair once and shares the
// compiled query between goroutines. Close frees them.
//
// Usage:
//
//	qm := NewQueryManager(parserManager, logger)
//	defer qm.Close()
//
//	matches, err := qm.Run(tree, parser.LanguageTypeScript, QueryTypeMacros, source)
type QueryManager struct {
	pm     *parser.ParserManager
	mu     sync.RWMutex
	cache  map[queryKey]*ts.Query
	logger *slog.Logger
}

// NewQueryManager creates a query manager. Logger can be nil.
func NewQueryManager(pm *parser.ParserManager, logger *slog.Logger) *QueryManager {
	if logger == nil {
		logger = slog.Default()
	}
	return &QueryManager{
		pm:     pm,
		cache:  make(map[queryKey]*ts.Query),
		logger: logger,
	}
}

// Parser returns the parser manager the queries are compiled against.
func (qm *QueryManager) Parser() *parser.ParserManager {
	return qm.pm
}

// GetQuery returns the compiled query of qtype for lang. Queries exist for
// the script grammars only.
func (qm *QueryManager) GetQuery(lang parser.Language, qtype QueryType) (*ts.Query, error) {
	key := queryKey{lang: lang, qtype: qtype}

	qm.mu.RLock()
	query, ok := qm.cache[key]
	qm.mu.RUnlock()
	if ok {
		return query, nil
	}

	qm.mu.Lock()
	defer qm.mu.Unlock()
	if query, ok = qm.cache[key]; ok {
		return query, nil
	}

	source, err := querySource(lang, qtype)
	if err != nil {
		return nil, err
	}
	grammar, err := qm.pm.GetLanguagePointer(lang, false)
	if err != nil {
		return nil, err
	}
	query, qerr := ts.NewQuery(ts.NewLanguage(grammar), source)
	if qerr != nil {
		return nil, fmt.Errorf("failed to compile %s query for %s: %s", qtype, lang, qerr.Message)
	}
	qm.cache[key] = query
	qm.logger.Debug("compiled query", "language", lang.String(), "type", qtype.String())
	return query, nil
}

func querySource(lang parser.Language, qtype QueryType) (string, error) {
	if lang != parser.LanguageJavaScript && lang != parser.LanguageTypeScript {
		return "", fmt.Errorf("no %s query for %s", qtype, lang)
	}
	switch qtype {
	case QueryTypeImports:
		return imports.Query, nil
	case QueryTypeMacros:
		return macros.Query, nil
	}
	return "", fmt.Errorf("unknown query type: %d", qtype)
}

// Run executes the query of qtype over tree, compiling it on first use.
func (qm *QueryManager) Run(tree *ts.Tree, lang parser.Language, qtype QueryType, source []byte) ([]QueryMatch, error) {
	query, err := qm.GetQuery(lang, qtype)
	if err != nil {
		return nil, err
	}
	return qm.ExecuteQuery(tree, query, source)
}

// ExecuteQuery runs a compiled query over tree and collects its matches in
// document order.
func (qm *QueryManager) ExecuteQuery(tree *ts.Tree, query *ts.Query, source []byte) ([]QueryMatch, error) {
	if tree == nil || query == nil {
		return nil, fmt.Errorf("query and tree are required")
	}

	cursor := ts.NewQueryCursor()
	defer cursor.Close()

	names := query.CaptureNames()
	iter := cursor.Matches(query, tree.RootNode(), source)

	var matches []QueryMatch
	for match := iter.Next(); match != nil; match = iter.Next() {
		m := QueryMatch{Captures: make([]QueryCapture, 0, len(match.Captures))}
		for _, c := range match.Captures {
			node := c.Node
			var name string
			if int(c.Index) < len(names) {
				name = names[c.Index]
			}
			m.Captures = append(m.Captures, QueryCapture{
				Name:  name,
				Field: captureField(name),
				Node:  &node,
				Text:  node.Utf8Text(source),
			})
		}
		matches = append(matches, m)
	}
	return matches, nil
}

// Close frees the compiled queries.
func (qm *QueryManager) Close() error {
	qm.mu.Lock()
	defer qm.mu.Unlock()
	for key, query := range qm.cache {
		query.Close()
		delete(qm.cache, key)
	}
	return nil
}

// QueryMatch is one match of a query.
type QueryMatch struct {
	Captures []QueryCapture
}

// Capture returns the first capture whose field (the part of the capture
// name after the dot) equals field.
func (m QueryMatch) Capture(field string) *QueryCapture {
	for i := range m.Captures {
		if m.Captures[i].Field == field {
			return &m.Captures[i]
		}
	}
	return nil
}

// QueryCapture is a captured node. Name is the full capture name such as
// "macro.call"; Field is the part after the dot.
type QueryCapture struct {
	Name  string
	Field string
	Node  *ts.Node
	Text  string
}

func captureField(name string) string {
	if _, field, ok := strings.Cut(name, "."); ok {
		return field
	}
	return ""
}
