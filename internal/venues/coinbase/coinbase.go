// Package coinbase streams top-of-book quotes from the Coinbase Exchange
// ticker channel.
package coinbase

import (
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/GoTickGate/tickgate/internal/feed"
	"github.com/GoTickGate/tickgate/internal/pkg/logger"
	"github.com/GoTickGate/tickgate/internal/pkg/metrics"
	"github.com/GoTickGate/tickgate/internal/venues/wsfeed"
)

const (
	Venue = "coinbase"
	wsURL = "wss://ws-feed.exchange.coinbase.com"
)

type tickerMsg struct {
	Type      string `json:"type"`
	ProductID string `json:"product_id"`
	BestBid   string `json:"best_bid"`
	BestBidSz string `json:"best_bid_size"`
	BestAsk   string `json:"best_ask"`
	BestAskSz string `json:"best_ask_size"`
	Time      string `json:"time"`
}

type subscribeMsg struct {
	Type       string   `json:"type"`
	ProductIDs []string `json:"product_ids"`
	Channels   []string `json:"channels"`
}

// Ticker is the coinbase feed: one websocket subscribed to the ticker
// channel for a fixed symbol set.
type Ticker struct {
	*wsfeed.Stream
}

func New(opts feed.Options, tuning wsfeed.Tuning) (feed.Feed, error) {
	t := &Ticker{}
	t.Stream = wsfeed.New(wsfeed.Config{
		Venue: Venue,
		URL:   wsURL,
		Subscribe: func(conn *websocket.Conn) error {
			return conn.WriteJSON(subscribeMsg{
				Type:       "subscribe",
				ProductIDs: opts.Symbols,
				Channels:   []string{"ticker"},
			})
		},
		Handle: func(msg []byte) {
			q, ok := parseTicker(msg)
			if !ok {
				return
			}
			metrics.TicksTotal.WithLabelValues(Venue).Inc()
			if opts.Sink != nil {
				opts.Sink(q)
			}
		},
		Tuning: tuning,
	})
	return t, nil
}

// parseTicker extracts a quote from a ticker channel message. Non-ticker
// messages (subscriptions acks, errors, heartbeats) and tickers without both
// sides of the book are skipped.
func parseTicker(msg []byte) (feed.Quote, bool) {
	var m tickerMsg
	if err := json.Unmarshal(msg, &m); err != nil {
		logger.Debug("unparseable message", "feed", Venue, "error", err)
		return feed.Quote{}, false
	}
	if m.Type != "ticker" || m.ProductID == "" {
		return feed.Quote{}, false
	}

	bidPx, err1 := decimal.NewFromString(m.BestBid)
	bidSz, err2 := decimal.NewFromString(m.BestBidSz)
	askPx, err3 := decimal.NewFromString(m.BestAsk)
	askSz, err4 := decimal.NewFromString(m.BestAskSz)
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return feed.Quote{}, false
	}

	ts, err := time.Parse(time.RFC3339Nano, m.Time)
	if err != nil {
		ts = time.Now().UTC()
	}

	return feed.Quote{
		Symbol:    m.ProductID,
		Source:    Venue,
		BidPrice:  bidPx,
		BidSize:   bidSz,
		AskPrice:  askPx,
		AskSize:   askSz,
		Timestamp: ts,
	}, true
}
