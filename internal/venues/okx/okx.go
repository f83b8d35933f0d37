// Package okx streams top-of-book quotes from the OKX bbo-tbt channel.
package okx

import (
	"encoding/json"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/shopspring/decimal"

	"github.com/GoTickGate/tickgate/internal/feed"
	"github.com/GoTickGate/tickgate/internal/pkg/logger"
	"github.com/GoTickGate/tickgate/internal/pkg/metrics"
	"github.com/GoTickGate/tickgate/internal/venues/wsfeed"
)

const (
	Venue = "okx"
	wsURL = "wss://ws.okx.com:8443/ws/v5/public"
)

type subscribeArg struct {
	Channel string `json:"channel"`
	InstID  string `json:"instId"`
}

type subscribeMsg struct {
	Op   string         `json:"op"`
	Args []subscribeArg `json:"args"`
}

type bboMsg struct {
	Arg  subscribeArg `json:"arg"`
	Data []struct {
		// Levels are [price, size, liquidated orders, order count].
		Asks [][]string `json:"asks"`
		Bids [][]string `json:"bids"`
		TS   string     `json:"ts"`
	} `json:"data"`
}

// BBO is the okx feed: one public websocket subscribed to bbo-tbt for a
// fixed symbol set. OKX expects text "ping" keep-alives, not control frames.
type BBO struct {
	*wsfeed.Stream
}

func New(opts feed.Options, tuning wsfeed.Tuning) (feed.Feed, error) {
	b := &BBO{}
	b.Stream = wsfeed.New(wsfeed.Config{
		Venue: Venue,
		URL:   wsURL,
		Subscribe: func(conn *websocket.Conn) error {
			args := make([]subscribeArg, 0, len(opts.Symbols))
			for _, sym := range opts.Symbols {
				args = append(args, subscribeArg{Channel: "bbo-tbt", InstID: sym})
			}
			return conn.WriteJSON(subscribeMsg{Op: "subscribe", Args: args})
		},
		Handle: func(msg []byte) {
			q, ok := parseBBO(msg)
			if !ok {
				return
			}
			metrics.TicksTotal.WithLabelValues(Venue).Inc()
			if opts.Sink != nil {
				opts.Sink(q)
			}
		},
		PingText: "ping",
		Tuning:   tuning,
	})
	return b, nil
}

// parseBBO extracts a quote from a bbo-tbt push. Event messages (subscribe
// acks, errors) carry no data array and are skipped, as are pushes missing
// either side of the book.
func parseBBO(msg []byte) (feed.Quote, bool) {
	var m bboMsg
	if err := json.Unmarshal(msg, &m); err != nil {
		logger.Debug("unparseable message", "feed", Venue, "error", err)
		return feed.Quote{}, false
	}
	if m.Arg.Channel != "bbo-tbt" || len(m.Data) == 0 {
		return feed.Quote{}, false
	}
	d := m.Data[0]
	if len(d.Bids) == 0 || len(d.Bids[0]) < 2 || len(d.Asks) == 0 || len(d.Asks[0]) < 2 {
		return feed.Quote{}, false
	}

	bidPx, err1 := decimal.NewFromString(d.Bids[0][0])
	bidSz, err2 := decimal.NewFromString(d.Bids[0][1])
	askPx, err3 := decimal.NewFromString(d.Asks[0][0])
	askSz, err4 := decimal.NewFromString(d.Asks[0][1])
	if err1 != nil || err2 != nil || err3 != nil || err4 != nil {
		return feed.Quote{}, false
	}

	ts := time.Now().UTC()
	if millis, err := strconv.ParseInt(d.TS, 10, 64); err == nil {
		ts = time.UnixMilli(millis).UTC()
	}

	return feed.Quote{
		Symbol:    m.Arg.InstID,
		Source:    Venue,
		BidPrice:  bidPx,
		BidSize:   bidSz,
		AskPrice:  askPx,
		AskSize:   askSz,
		Timestamp: ts,
	}, true
}
