package okx

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBBO(t *testing.T) {
	msg := []byte(`{
		"arg": {"channel": "bbo-tbt", "instId": "BTC-USDT"},
		"data": [{
			"asks": [["50001.5", "0.8", "0", "3"]],
			"bids": [["50000.1", "1.2", "0", "5"]],
			"ts": "1597026383085"
		}]
	}`)

	q, ok := parseBBO(msg)
	require.True(t, ok)
	assert.Equal(t, "BTC-USDT", q.Symbol)
	assert.Equal(t, Venue, q.Source)
	assert.Equal(t, "50000.1", q.BidPrice.String())
	assert.Equal(t, "1.2", q.BidSize.String())
	assert.Equal(t, "50001.5", q.AskPrice.String())
	assert.Equal(t, "0.8", q.AskSize.String())
	assert.Equal(t, time.UnixMilli(1597026383085).UTC(), q.Timestamp)
}

func TestParseBBOSkipsEvents(t *testing.T) {
	for _, msg := range []string{
		`{"event":"subscribe","arg":{"channel":"bbo-tbt","instId":"BTC-USDT"}}`,
		`{"event":"error","code":"60012","msg":"invalid request"}`,
		`{"arg":{"channel":"tickers","instId":"BTC-USDT"},"data":[{}]}`,
		`pong`,
	} {
		if _, ok := parseBBO([]byte(msg)); ok {
			t.Fatalf("accepted non-push message: %s", msg)
		}
	}
}

func TestParseBBOEmptySide(t *testing.T) {
	msg := []byte(`{"arg":{"channel":"bbo-tbt","instId":"BTC-USDT"},"data":[{"asks":[],"bids":[["50000","1","0","1"]],"ts":"1"}]}`)
	_, ok := parseBBO(msg)
	assert.False(t, ok, "push without an ask side must be skipped")
}
