package parser

import (
	"fmt"
	"log/slog"
	"sync"
	"unsafe"

	ts "github.com/tree-sitter/go-tree-sitter"
)

// grammarPool holds the parsers of one grammar. Parsers are created on
// demand up to limit; past that, acquire waits for a release.
type grammarPool struct {
	key     poolKey
	grammar unsafe.Pointer
	limit   int
	idle    chan *ts.Parser

	mu      sync.Mutex
	created int
	closed  bool

	logger *slog.Logger
}

func newGrammarPool(key poolKey, grammar unsafe.Pointer, limit int, logger *slog.Logger) *grammarPool {
	return &grammarPool{
		key:     key,
		grammar: grammar,
		limit:   limit,
		idle:    make(chan *ts.Parser, limit),
		logger:  logger,
	}
}

// acquire returns an idle parser, a new one when under the limit, or
// blocks for a release.
func (p *grammarPool) acquire() (*ts.Parser, error) {
	select {
	case parser := <-p.idle:
		return parser, nil
	default:
	}

	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return nil, fmt.Errorf("%s parser pool is closed", p.key)
	}
	if p.created >= p.limit {
		p.mu.Unlock()
		parser, ok := <-p.idle
		if !ok {
			return nil, fmt.Errorf("%s parser pool is closed", p.key)
		}
		return parser, nil
	}
	p.created++
	n := p.created
	p.mu.Unlock()

	parser, err := p.newParser()
	if err != nil {
		p.mu.Lock()
		p.created--
		p.mu.Unlock()
		return nil, err
	}
	p.logger.Debug("parser created", "grammar", p.key.String(), "count", n)
	return parser, nil
}

func (p *grammarPool) newParser() (*ts.Parser, error) {
	parser := ts.NewParser()
	if parser == nil {
		return nil, fmt.Errorf("failed to create %s parser", p.key)
	}
	if err := parser.SetLanguage(ts.NewLanguage(p.grammar)); err != nil {
		parser.Close()
		return nil, fmt.Errorf("failed to set language %s: %w", p.key, err)
	}
	return parser, nil
}

// release hands parser back. Parsers released after close are freed.
func (p *grammarPool) release(parser *ts.Parser) {
	if parser == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		parser.Close()
		return
	}
	select {
	case p.idle <- parser:
	default:
		parser.Close()
		p.logger.Warn("parser pool full, closing excess parser", "grammar", p.key.String())
	}
}

// close frees the idle parsers. Parsers still in use are freed on release.
func (p *grammarPool) close() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return 0
	}
	p.closed = true
	close(p.idle)

	freed := 0
	for parser := range p.idle {
		parser.Close()
		freed++
	}
	return freed
}

func (p *grammarPool) size() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.created
}
