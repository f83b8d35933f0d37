package feed

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRegistryLookupIsCaseInsensitive(t *testing.T) {
	reg := NewRegistry(map[string]Constructor{
		"Coinbase": func(Options) (Feed, error) { return nil, nil },
	})

	_, ok := reg.Lookup("coinbase")
	assert.True(t, ok)
	_, ok = reg.Lookup(" COINBASE ")
	assert.True(t, ok)
	_, ok = reg.Lookup("kraken")
	assert.False(t, ok)
}

func TestRegistryVenuesSorted(t *testing.T) {
	reg := NewRegistry(map[string]Constructor{
		"okx":      func(Options) (Feed, error) { return nil, nil },
		"coinbase": func(Options) (Feed, error) { return nil, nil },
	})
	assert.Equal(t, []string{"coinbase", "okx"}, reg.Venues())
}

func TestRegistryCopiesEntries(t *testing.T) {
	entries := map[string]Constructor{
		"okx": func(Options) (Feed, error) { return nil, nil },
	}
	reg := NewRegistry(entries)
	delete(entries, "okx")

	_, ok := reg.Lookup("okx")
	assert.True(t, ok, "registry must not share the caller's map")
}
