// Package feed contains the lifecycle supervisor for live market-data
// connections: registration, concurrent start, and the two-phase graceful
// shutdown that takes every feed down before the process exits.
package feed

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// Channel identifies a market-data stream a feed can subscribe to.
type Channel string

const (
	ChannelBook   Channel = "book"
	ChannelTrades Channel = "trades"
)

// ParseChannels maps config strings to channels, defaulting unknown or
// empty input to the book channel.
func ParseChannels(names []string) []Channel {
	if len(names) == 0 {
		return []Channel{ChannelBook}
	}
	out := make([]Channel, 0, len(names))
	for _, n := range names {
		switch Channel(n) {
		case ChannelBook, ChannelTrades:
			out = append(out, Channel(n))
		default:
			out = append(out, ChannelBook)
		}
	}
	return out
}

// Quote is one normalized top-of-book observation from a single source.
type Quote struct {
	Symbol    string
	Source    string
	BidPrice  decimal.Decimal
	BidSize   decimal.Decimal
	AskPrice  decimal.Decimal
	AskSize   decimal.Decimal
	Timestamp time.Time
}

// SinkFunc receives normalized quotes from a feed. Implementations must be
// safe for concurrent use; feeds call it from their read loops.
type SinkFunc func(Quote)

// Feed is one exchange connection owned by the supervisor for its
// registered lifetime. Once registered a feed is never removed except as
// part of process shutdown.
type Feed interface {
	// ID is a stable string for diagnostics. Not required to be globally
	// unique, but it should be.
	ID() string

	// Run drives the connection/retry loop. It must observe term and exit
	// in bounded time once it is set; ctx cancellation is the preemptive
	// backstop applied in the second shutdown phase. A non-nil return is
	// treated as an unrecoverable fault.
	Run(ctx context.Context, term *Termination) error

	// Shutdown flushes and closes the feed. It may fail; the supervisor
	// absorbs the failure and never lets it stop sibling shutdowns.
	Shutdown(ctx context.Context) error
}

// Options configures a feed built from a registry constructor.
type Options struct {
	Symbols  []string
	Channels []Channel
	Sink     SinkFunc
}

// Constructor builds a feed for one venue from per-call options.
type Constructor func(opts Options) (Feed, error)
