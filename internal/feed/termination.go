package feed

import "sync"

// Termination is the process-wide one-shot shutdown flag. It is set exactly
// once (by signal, by the caller, or by an unrecoverable fault) and never
// cleared. Feeds read it cooperatively to end their retry loops.
type Termination struct {
	once sync.Once
	ch   chan struct{}
}

func NewTermination() *Termination {
	return &Termination{ch: make(chan struct{})}
}

// Set trips the flag. Safe to call from any goroutine, any number of times.
func (t *Termination) Set() {
	t.once.Do(func() { close(t.ch) })
}

// Done returns a channel closed once the flag is set.
func (t *Termination) Done() <-chan struct{} {
	return t.ch
}

func (t *Termination) IsSet() bool {
	select {
	case <-t.ch:
		return true
	default:
		return false
	}
}
