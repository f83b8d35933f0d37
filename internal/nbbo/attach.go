package nbbo

import (
	"github.com/GoTickGate/tickgate/internal/feed"
)

// Attach builds one aggregator bound to cb and registers one feed per venue
// on the supervisor, each subscribed to the book channel for exactly the
// given symbols and wired into the aggregator tagged with the venue as its
// source. Venue order fixes the tie-break registration order.
func Attach(s *feed.Supervisor, venues []string, symbols []string, cb Callback) (*Aggregator, error) {
	agg := New(cb)
	if err := s.AttachSinks(venues, symbols, agg.Sink); err != nil {
		return nil, err
	}
	return agg, nil
}
