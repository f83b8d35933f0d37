// Package nbbo merges per-source top-of-book quotes into one cross-venue
// best-bid/offer view per symbol.
package nbbo

import (
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/GoTickGate/tickgate/internal/feed"
	"github.com/GoTickGate/tickgate/internal/pkg/logger"
	"github.com/GoTickGate/tickgate/internal/pkg/metrics"
)

// Quote is the aggregate best bid/offer for one symbol, with the sources
// that contributed each side.
type Quote struct {
	Symbol    string
	BidPrice  decimal.Decimal
	BidSize   decimal.Decimal
	BidSource string
	AskPrice  decimal.Decimal
	AskSize   decimal.Decimal
	AskSource string
	Timestamp time.Time
}

// Callback receives each newly computed aggregate.
type Callback func(Quote)

// Aggregator keeps one quote per (symbol, source) pair and recomputes the
// aggregate for a symbol whenever one of its quotes is replaced. The
// callback fires only when the aggregate differs from the last emitted one
// by price, size, or source attribution.
//
// Symbols are independent units of state: each has its own lock, so a slow
// or panicking callback for one symbol cannot block or corrupt another.
type Aggregator struct {
	cb Callback

	mu      sync.RWMutex
	symbols map[string]*symbolState
	rank    map[string]int
}

type symbolState struct {
	mu     sync.Mutex
	quotes map[string]feed.Quote
	last   *Quote
}

func New(cb Callback) *Aggregator {
	return &Aggregator{
		cb:      cb,
		symbols: make(map[string]*symbolState),
		rank:    make(map[string]int),
	}
}

// RegisterSource records the attachment order of a source. Earlier sources
// win full ties in the aggregate. Idempotent.
func (a *Aggregator) RegisterSource(id string) {
	a.mu.Lock()
	if _, ok := a.rank[id]; !ok {
		a.rank[id] = len(a.rank)
	}
	a.mu.Unlock()
}

// Sink registers the source and returns a feed sink that tags every quote
// with it before ingestion.
func (a *Aggregator) Sink(source string) feed.SinkFunc {
	a.RegisterSource(source)
	return func(q feed.Quote) {
		q.Source = source
		a.Ingest(q)
	}
}

// Ingest replaces the quote for (q.Symbol, q.Source) and recomputes the
// symbol's aggregate from all quotes currently known for it.
func (a *Aggregator) Ingest(q feed.Quote) {
	if q.Symbol == "" || q.Source == "" {
		return
	}
	a.RegisterSource(q.Source)

	st := a.stateFor(q.Symbol)
	st.mu.Lock()
	defer st.mu.Unlock()

	st.quotes[q.Source] = q
	agg := a.recompute(q.Symbol, st)
	if st.last != nil && sameAggregate(*st.last, agg) {
		return
	}
	st.last = &agg

	metrics.NBBOUpdates.WithLabelValues(q.Symbol).Inc()
	a.emit(agg)
}

// Last returns the most recently emitted aggregate for a symbol.
func (a *Aggregator) Last(symbol string) (Quote, bool) {
	a.mu.RLock()
	st, ok := a.symbols[symbol]
	a.mu.RUnlock()
	if !ok {
		return Quote{}, false
	}
	st.mu.Lock()
	defer st.mu.Unlock()
	if st.last == nil {
		return Quote{}, false
	}
	return *st.last, true
}

func (a *Aggregator) stateFor(symbol string) *symbolState {
	a.mu.RLock()
	st, ok := a.symbols[symbol]
	a.mu.RUnlock()
	if ok {
		return st
	}
	a.mu.Lock()
	defer a.mu.Unlock()
	if st, ok = a.symbols[symbol]; ok {
		return st
	}
	st = &symbolState{quotes: make(map[string]feed.Quote)}
	a.symbols[symbol] = st
	return st
}

func (a *Aggregator) rankOf(source string) int {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if r, ok := a.rank[source]; ok {
		return r
	}
	return len(a.rank)
}

// recompute picks the best bid (max price; ties: larger size, then earliest
// registered source) and best ask (min price; ties: smaller size, then
// earliest registered source) across the symbol's current quotes.
func (a *Aggregator) recompute(symbol string, st *symbolState) Quote {
	agg := Quote{Symbol: symbol}
	for source, q := range st.quotes {
		if agg.BidSource == "" || betterBid(q, source, agg, a.rankOf(agg.BidSource), a.rankOf(source)) {
			agg.BidPrice = q.BidPrice
			agg.BidSize = q.BidSize
			agg.BidSource = source
		}
		if agg.AskSource == "" || betterAsk(q, source, agg, a.rankOf(agg.AskSource), a.rankOf(source)) {
			agg.AskPrice = q.AskPrice
			agg.AskSize = q.AskSize
			agg.AskSource = source
		}
		if q.Timestamp.After(agg.Timestamp) {
			agg.Timestamp = q.Timestamp
		}
	}
	return agg
}

func betterBid(q feed.Quote, source string, agg Quote, bestRank, rank int) bool {
	if !q.BidPrice.Equal(agg.BidPrice) {
		return q.BidPrice.GreaterThan(agg.BidPrice)
	}
	if !q.BidSize.Equal(agg.BidSize) {
		return q.BidSize.GreaterThan(agg.BidSize)
	}
	return rank < bestRank
}

func betterAsk(q feed.Quote, source string, agg Quote, bestRank, rank int) bool {
	if !q.AskPrice.Equal(agg.AskPrice) {
		return q.AskPrice.LessThan(agg.AskPrice)
	}
	if !q.AskSize.Equal(agg.AskSize) {
		return q.AskSize.LessThan(agg.AskSize)
	}
	return rank < bestRank
}

// sameAggregate ignores the timestamp: a source re-reporting an identical
// quote must not produce another emission.
func sameAggregate(a, b Quote) bool {
	return a.Symbol == b.Symbol &&
		a.BidSource == b.BidSource && a.AskSource == b.AskSource &&
		a.BidPrice.Equal(b.BidPrice) && a.BidSize.Equal(b.BidSize) &&
		a.AskPrice.Equal(b.AskPrice) && a.AskSize.Equal(b.AskSize)
}

func (a *Aggregator) emit(q Quote) {
	if a.cb == nil {
		return
	}
	defer func() {
		if r := recover(); r != nil {
			logger.Error("nbbo callback panicked", "symbol", q.Symbol, "panic", r)
		}
	}()
	a.cb(q)
}
