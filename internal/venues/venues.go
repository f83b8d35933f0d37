// Package venues binds the built-in venue adapters to their registry names.
package venues

import (
	"github.com/GoTickGate/tickgate/internal/config"
	"github.com/GoTickGate/tickgate/internal/feed"
	"github.com/GoTickGate/tickgate/internal/venues/coinbase"
	"github.com/GoTickGate/tickgate/internal/venues/okx"
	"github.com/GoTickGate/tickgate/internal/venues/wsfeed"
)

// Builtin returns the constructor table for every venue this build knows,
// tuned from the feeds config.
func Builtin(cfg config.FeedsConfig) map[string]feed.Constructor {
	tuning := wsfeed.Tuning{
		ReconnectBase: cfg.ReconnectBase(),
		ReconnectMax:  cfg.ReconnectMax(),
		PingInterval:  cfg.PingInterval(),
	}
	return map[string]feed.Constructor{
		coinbase.Venue: func(opts feed.Options) (feed.Feed, error) {
			return coinbase.New(opts, tuning)
		},
		okx.Venue: func(opts feed.Options) (feed.Feed, error) {
			return okx.New(opts, tuning)
		},
	}
}
