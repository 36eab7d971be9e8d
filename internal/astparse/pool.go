// Package astparse provides a pooled tree-sitter parser per language, so
// concurrent file workers never share a single *tree_sitter.Parser (the
// underlying C parser is not safe for concurrent use) while still avoiding
// the cost of constructing one per file.
//
// One sync.Pool per language, lazily seeded with a freshly configured
// parser on first checkout.
package astparse

import (
	"fmt"
	"sync"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/standardbeagle/blocksearch/internal/lang"
)

var (
	poolsMu sync.Mutex
	pools   = map[lang.Language]*sync.Pool{}
)

// Checkout borrows a parser configured for l from its language pool,
// constructing the pool (and its first parser) on first use. Returns an
// error if l has no grammar binding wired in the registry.
func Checkout(l lang.Language) (*tree_sitter.Parser, error) {
	handler, ok := lang.Lookup(string(l))
	if !ok {
		return nil, fmt.Errorf("astparse: language %q not registered", l)
	}

	grammar, err := handler.Grammar()
	if err != nil {
		return nil, err
	}

	pool := poolFor(l, grammar)

	p, ok := pool.Get().(*tree_sitter.Parser)
	if !ok || p == nil {
		p = tree_sitter.NewParser()
		if err := p.SetLanguage(grammar); err != nil {
			return nil, fmt.Errorf("astparse: set language for %q: %w", l, err)
		}
	}
	return p, nil
}

// Return gives a parser back to its language's pool for reuse.
func Return(l lang.Language, p *tree_sitter.Parser) {
	if p == nil {
		return
	}
	poolsMu.Lock()
	pool, ok := pools[l]
	poolsMu.Unlock()
	if !ok {
		return
	}
	pool.Put(p)
}

func poolFor(l lang.Language, grammar *tree_sitter.Language) *sync.Pool {
	poolsMu.Lock()
	defer poolsMu.Unlock()

	if pool, ok := pools[l]; ok {
		return pool
	}

	pool := &sync.Pool{
		New: func() any {
			p := tree_sitter.NewParser()
			if err := p.SetLanguage(grammar); err != nil {
				return nil
			}
			return p
		},
	}
	pools[l] = pool
	return pool
}

// Parse parses content with a pooled parser for extension's resolved
// language, returning the tree and releasing the parser back to its pool
// before returning. Callers must Close the returned tree.
func Parse(extension string, content []byte) (*tree_sitter.Tree, error) {
	l, ok := lang.Resolve(extension)
	if !ok {
		return nil, fmt.Errorf("astparse: extension %q not registered", extension)
	}

	parser, err := Checkout(l)
	if err != nil {
		return nil, err
	}
	defer Return(l, parser)

	// The C library mutates its input buffer via CGO; defensively copy so
	// callers' buffers are never touched.
	buf := make([]byte, len(content))
	copy(buf, content)

	tree := parser.Parse(buf, nil)
	if tree == nil {
		return nil, fmt.Errorf("astparse: parse failed for extension %q", extension)
	}
	return tree, nil
}
