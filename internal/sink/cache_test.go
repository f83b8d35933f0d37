package sink

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/GoTickGate/tickgate/internal/nbbo"
)

func TestQuoteCache(t *testing.T) {
	c := NewQuoteCache()

	_, ok := c.Lookup("BTC-USD")
	assert.False(t, ok)

	c.Store(nbbo.Quote{Symbol: "ETH-USD", BidPrice: decimal.RequireFromString("3000")})
	c.Store(nbbo.Quote{Symbol: "BTC-USD", BidPrice: decimal.RequireFromString("50000")})
	c.Store(nbbo.Quote{Symbol: "BTC-USD", BidPrice: decimal.RequireFromString("50001")})

	q, ok := c.Lookup("BTC-USD")
	require.True(t, ok)
	assert.Equal(t, "50001", q.BidPrice.String())

	assert.Equal(t, []string{"BTC-USD", "ETH-USD"}, c.Symbols())
}
