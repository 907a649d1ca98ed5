package syntax

import (
	"sync"

	sitter "github.com/tree-sitter/go-tree-sitter"
	tree_sitter_python "github.com/tree-sitter/tree-sitter-python/bindings/go"
)

// parserPool recycles tree-sitter parser instances so repeated Parse calls
// avoid the per-call allocation of sitter.NewParser()/Close().
//
// Concurrency: safe for use by multiple goroutines simultaneously.
type parserPool struct {
	lang *sitter.Language
	pool sync.Pool
}

var pythonPool = newParserPool(sitter.NewLanguage(tree_sitter_python.Language()))

func newParserPool(lang *sitter.Language) *parserPool {
	p := &parserPool{lang: lang}
	p.pool = sync.Pool{
		New: func() any {
			sp := sitter.NewParser()
			sp.SetLanguage(lang)
			return sp
		},
	}
	return p
}

func (p *parserPool) Get() *sitter.Parser {
	sp := p.pool.Get().(*sitter.Parser)
	// The language survives a Reset, but not an external SetLanguage.
	sp.SetLanguage(p.lang)
	return sp
}

func (p *parserPool) Put(sp *sitter.Parser) {
	if sp == nil {
		return
	}
	sp.Reset()
	p.pool.Put(sp)
}
