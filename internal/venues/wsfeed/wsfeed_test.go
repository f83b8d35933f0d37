package wsfeed

import (
	"testing"
	"time"
)

func TestNextDelayDoublesAndCaps(t *testing.T) {
	max := 8 * time.Second
	d := time.Second
	want := []time.Duration{2 * time.Second, 4 * time.Second, 8 * time.Second, 8 * time.Second}
	for i, w := range want {
		d = nextDelay(d, max)
		if d != w {
			t.Fatalf("step %d: got %v, want %v", i, d, w)
		}
	}
}

func TestTuningDefaults(t *testing.T) {
	tuned := Tuning{}.withDefaults()
	if tuned.ReconnectBase != time.Second {
		t.Fatalf("reconnect base default: %v", tuned.ReconnectBase)
	}
	if tuned.ReconnectMax != 30*time.Second {
		t.Fatalf("reconnect max default: %v", tuned.ReconnectMax)
	}
	if tuned.PingInterval != 15*time.Second {
		t.Fatalf("ping interval default: %v", tuned.PingInterval)
	}

	explicit := Tuning{ReconnectBase: 2 * time.Second, ReconnectMax: time.Minute, PingInterval: 5 * time.Second}.withDefaults()
	if explicit != (Tuning{ReconnectBase: 2 * time.Second, ReconnectMax: time.Minute, PingInterval: 5 * time.Second}) {
		t.Fatalf("explicit tuning overwritten: %+v", explicit)
	}
}
