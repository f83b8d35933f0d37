package nbbo

import (
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoTickGate/tickgate/internal/feed"
)

type capture struct {
	mu     sync.Mutex
	quotes []Quote
}

func (c *capture) cb(q Quote) {
	c.mu.Lock()
	c.quotes = append(c.quotes, q)
	c.mu.Unlock()
}

func (c *capture) all() []Quote {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]Quote(nil), c.quotes...)
}

func quote(symbol, source, bidPx, bidSz, askPx, askSz string) feed.Quote {
	return feed.Quote{
		Symbol:    symbol,
		Source:    source,
		BidPrice:  decimal.RequireFromString(bidPx),
		BidSize:   decimal.RequireFromString(bidSz),
		AskPrice:  decimal.RequireFromString(askPx),
		AskSize:   decimal.RequireFromString(askSz),
		Timestamp: time.Now().UTC(),
	}
}

func TestAggregateAcrossSources(t *testing.T) {
	var got capture
	agg := New(got.cb)
	agg.RegisterSource("a")
	agg.RegisterSource("b")

	agg.Ingest(quote("BTC-USD", "a", "10", "5", "11", "2"))
	agg.Ingest(quote("BTC-USD", "b", "10.5", "3", "10.9", "4"))

	quotes := got.all()
	require.Len(t, quotes, 2)

	best := quotes[1]
	assert.Equal(t, "10.5", best.BidPrice.String())
	assert.Equal(t, "b", best.BidSource)
	assert.Equal(t, "10.9", best.AskPrice.String())
	assert.Equal(t, "b", best.AskSource)
}

func TestSourceReplacement(t *testing.T) {
	var got capture
	agg := New(got.cb)

	agg.Ingest(quote("BTC-USD", "a", "10", "5", "11", "2"))
	// Source a pulls back; its old level must be gone, not kept alongside.
	agg.Ingest(quote("BTC-USD", "a", "9", "5", "12", "2"))

	last, ok := agg.Last("BTC-USD")
	require.True(t, ok)
	assert.Equal(t, "9", last.BidPrice.String())
	assert.Equal(t, "12", last.AskPrice.String())
}

func TestDuplicateAggregateSuppressed(t *testing.T) {
	var got capture
	agg := New(got.cb)

	q := quote("BTC-USD", "a", "10", "5", "11", "2")
	agg.Ingest(q)

	// Same content, newer timestamp: no emission.
	q.Timestamp = q.Timestamp.Add(time.Second)
	agg.Ingest(q)

	assert.Len(t, got.all(), 1)
}

func TestBidTieLargerSizeWins(t *testing.T) {
	var got capture
	agg := New(got.cb)
	agg.RegisterSource("a")
	agg.RegisterSource("b")

	agg.Ingest(quote("BTC-USD", "a", "10", "3", "11", "2"))
	agg.Ingest(quote("BTC-USD", "b", "10", "7", "11", "9"))

	last, ok := agg.Last("BTC-USD")
	require.True(t, ok)
	assert.Equal(t, "b", last.BidSource, "larger size should win the bid tie")
	assert.Equal(t, "7", last.BidSize.String())
	assert.Equal(t, "a", last.AskSource, "smaller size should win the ask tie")
	assert.Equal(t, "2", last.AskSize.String())
}

func TestFullTieEarlierSourceWins(t *testing.T) {
	var got capture
	agg := New(got.cb)
	agg.RegisterSource("first")
	agg.RegisterSource("second")

	agg.Ingest(quote("BTC-USD", "second", "10", "5", "11", "2"))
	agg.Ingest(quote("BTC-USD", "first", "10", "5", "11", "2"))

	last, ok := agg.Last("BTC-USD")
	require.True(t, ok)
	assert.Equal(t, "first", last.BidSource)
	assert.Equal(t, "first", last.AskSource)
}

func TestSymbolsAreIndependent(t *testing.T) {
	var got capture
	agg := New(got.cb)

	agg.Ingest(quote("BTC-USD", "a", "10", "5", "11", "2"))
	agg.Ingest(quote("ETH-USD", "a", "3", "1", "4", "1"))

	btc, ok := agg.Last("BTC-USD")
	require.True(t, ok)
	eth, ok := agg.Last("ETH-USD")
	require.True(t, ok)

	assert.Equal(t, "10", btc.BidPrice.String())
	assert.Equal(t, "3", eth.BidPrice.String())
}

func TestCallbackPanicIsolated(t *testing.T) {
	calls := 0
	agg := New(func(q Quote) {
		calls++
		panic("consumer bug")
	})

	assert.NotPanics(t, func() {
		agg.Ingest(quote("BTC-USD", "a", "10", "5", "11", "2"))
		agg.Ingest(quote("BTC-USD", "a", "10.1", "5", "11", "2"))
	})
	assert.Equal(t, 2, calls, "panicking callback must keep receiving aggregates")

	last, ok := agg.Last("BTC-USD")
	require.True(t, ok)
	assert.Equal(t, "10.1", last.BidPrice.String())
}

func TestSinkTagsSource(t *testing.T) {
	var got capture
	agg := New(got.cb)

	sink := agg.Sink("okx")
	q := quote("BTC-USD", "", "10", "5", "11", "2")
	sink(q)

	last, ok := agg.Last("BTC-USD")
	require.True(t, ok)
	assert.Equal(t, "okx", last.BidSource)
}

func TestLastUnknownSymbol(t *testing.T) {
	agg := New(nil)
	_, ok := agg.Last("nope")
	assert.False(t, ok)
}
