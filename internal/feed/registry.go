package feed

import (
	"sort"
	"strings"
)

// Registry is the immutable venue name → constructor table. It is built once
// at process startup and handed to the supervisor; it carries no behaviour
// beyond lookup. A lookup miss is surfaced by the supervisor, not here.
type Registry struct {
	constructors map[string]Constructor
}

// NewRegistry copies the entries so later mutation of the input map cannot
// leak into the table. Keys are normalized to lower case.
func NewRegistry(entries map[string]Constructor) *Registry {
	constructors := make(map[string]Constructor, len(entries))
	for venue, ctor := range entries {
		if ctor == nil {
			continue
		}
		constructors[normalizeVenue(venue)] = ctor
	}
	return &Registry{constructors: constructors}
}

func (r *Registry) Lookup(venue string) (Constructor, bool) {
	ctor, ok := r.constructors[normalizeVenue(venue)]
	return ctor, ok
}

// Venues returns the known venue names, sorted, for diagnostics.
func (r *Registry) Venues() []string {
	out := make([]string, 0, len(r.constructors))
	for venue := range r.constructors {
		out = append(out, venue)
	}
	sort.Strings(out)
	return out
}

func normalizeVenue(venue string) string {
	return strings.ToLower(strings.TrimSpace(venue))
}
