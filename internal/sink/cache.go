package sink

import (
	"sort"
	"sync"

	"github.com/GoTickGate/tickgate/internal/nbbo"
)

// QuoteCache keeps the latest aggregate per symbol for the status API.
type QuoteCache struct {
	mu     sync.RWMutex
	latest map[string]nbbo.Quote
}

func NewQuoteCache() *QuoteCache {
	return &QuoteCache{latest: make(map[string]nbbo.Quote)}
}

func (c *QuoteCache) Store(q nbbo.Quote) {
	c.mu.Lock()
	c.latest[q.Symbol] = q
	c.mu.Unlock()
}

func (c *QuoteCache) Lookup(symbol string) (nbbo.Quote, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	q, ok := c.latest[symbol]
	return q, ok
}

func (c *QuoteCache) Symbols() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]string, 0, len(c.latest))
	for sym := range c.latest {
		out = append(out, sym)
	}
	sort.Strings(out)
	return out
}
