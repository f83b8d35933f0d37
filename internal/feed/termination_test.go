package feed

import "testing"

func TestTerminationSetIsIdempotent(t *testing.T) {
	term := NewTermination()
	if term.IsSet() {
		t.Fatalf("fresh termination already set")
	}
	term.Set()
	term.Set()
	if !term.IsSet() {
		t.Fatalf("termination not set after Set")
	}
	select {
	case <-term.Done():
	default:
		t.Fatalf("Done channel not closed after Set")
	}
}
