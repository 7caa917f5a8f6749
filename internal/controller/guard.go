package controller

import "sync"

// fetchGuard hands out a monotonically increasing token per refresh and
// answers whether a token still belongs to the most recently issued
// refresh. Last-issued-wins: a refresh that started earlier but finished
// later than a newer one must throw its results away.
type fetchGuard struct {
	mu    sync.Mutex
	token int64
}

// beginFetch registers a new refresh and returns its token.
func (g *fetchGuard) beginFetch() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.token++
	return g.token
}

// isCurrent reports whether tok is still the most recently issued token.
func (g *fetchGuard) isCurrent(tok int64) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	return tok == g.token
}
