// bbotap is a terminal tap on the cross-venue NBBO: it supervises one feed
// per venue and prints each new aggregate to stdout until interrupted.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"

	"github.com/GoTickGate/tickgate/internal/config"
	"github.com/GoTickGate/tickgate/internal/feed"
	"github.com/GoTickGate/tickgate/internal/nbbo"
	"github.com/GoTickGate/tickgate/internal/pkg/logger"
	"github.com/GoTickGate/tickgate/internal/venues"
)

func main() {
	venueList := flag.String("venues", "coinbase,okx", "comma-separated venue names")
	symbolList := flag.String("symbols", "BTC-USD", "comma-separated symbols")
	logLevel := flag.String("log-level", "warn", "log level (debug, info, warn, error)")
	flag.Parse()

	logger.Init(*logLevel, "text")

	cfg := config.FeedsConfig{
		ReconnectBaseMs: 1000,
		ReconnectMaxMs:  30000,
		PingIntervalSec: 15,
	}
	registry := feed.NewRegistry(venues.Builtin(cfg))
	sup := feed.New(registry)

	_, err := nbbo.Attach(sup,
		strings.Split(*venueList, ","),
		strings.Split(*symbolList, ","),
		func(q nbbo.Quote) {
			fmt.Printf("%s  %s  bid %s x %s (%s)  ask %s x %s (%s)\n",
				q.Timestamp.Format("15:04:05.000"), q.Symbol,
				q.BidPrice, q.BidSize, q.BidSource,
				q.AskPrice, q.AskSize, q.AskSource)
		})
	if err != nil {
		log.Fatalf("attach failed: %v", err)
	}

	// Blocks until Ctrl-C, then runs the two-phase shutdown.
	if err := sup.Run(); err != nil {
		log.Fatalf("run failed: %v", err)
	}
}
