package feed

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/GoTickGate/tickgate/internal/pkg/apperrors"
	"github.com/GoTickGate/tickgate/internal/pkg/logger"
)

// State is the supervisor lifecycle. Transitions never skip a state and the
// task-cancellation phase never begins before the feed-shutdown gather has
// fully resolved.
type State int32

const (
	StateIdle State = iota
	StateRunning
	StateStoppingFeeds
	StateCancellingTasks
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateRunning:
		return "running"
	case StateStoppingFeeds:
		return "stopping_feeds"
	case StateCancellingTasks:
		return "cancelling_tasks"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// Supervisor owns the registered feeds, starts them concurrently and takes
// them down with a two-phase shutdown: Stop flags termination and gathers
// one shutdown task per feed; Close cancels whatever is still pending and
// only then finalizes streaming resources.
//
// Registration happens before Run and the feed set is read-only from then
// on (write-once-then-read-many); there is no locking discipline on the
// fan-out paths because there is no concurrent mutation by contract.
type Supervisor struct {
	registry        *Registry
	shutdownTimeout time.Duration

	mu      sync.Mutex
	state   State
	feeds   []Feed
	closers []io.Closer

	term        *Termination
	faultC      chan error
	runCtx      context.Context
	cancelRun   context.CancelFunc
	group       *errgroup.Group
	releaseTrap func()

	stopOnce  sync.Once
	closeOnce sync.Once
}

// Option configures the supervisor at construction time.
type Option func(*Supervisor)

// WithShutdownTimeout bounds the phase-1 shutdown gather. A hung feed
// shutdown past the bound is left to phase 2's preemptive cancellation.
// Zero means wait forever.
func WithShutdownTimeout(d time.Duration) Option {
	return func(s *Supervisor) { s.shutdownTimeout = d }
}

func New(registry *Registry, opts ...Option) *Supervisor {
	if registry == nil {
		registry = NewRegistry(nil)
	}
	s := &Supervisor{
		registry:        registry,
		shutdownTimeout: 30 * time.Second,
		term:            NewTermination(),
		faultC:          make(chan error, 1),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Register adds a pre-built feed to the owned set. Must be called before
// Run starts driving the feeds.
func (s *Supervisor) Register(f Feed) {
	if f == nil {
		return
	}
	s.mu.Lock()
	s.feeds = append(s.feeds, f)
	s.mu.Unlock()
	logger.Debug("feed registered", "feed", f.ID())
}

// RegisterVenue resolves a venue name through the registry and registers the
// constructed feed. An unknown name or a failed construction is local to
// this call and leaves the registered set unchanged.
func (s *Supervisor) RegisterVenue(venue string, opts Options) error {
	ctor, ok := s.registry.Lookup(venue)
	if !ok {
		return apperrors.NewInvalidFeed(venue, nil)
	}
	f, err := ctor(opts)
	if err != nil {
		return apperrors.NewInvalidFeed(venue, err)
	}
	s.Register(f)
	return nil
}

// AttachSinks registers one feed per venue, each subscribed to the book
// channel for exactly symbols, with its tick sink produced by sinkFor from
// the venue's normalized name. Venue adapters use that name as their source
// ID, so downstream consumers can attribute every quote.
func (s *Supervisor) AttachSinks(venues []string, symbols []string, sinkFor func(source string) SinkFunc) error {
	for _, venue := range venues {
		opts := Options{
			Symbols:  symbols,
			Channels: []Channel{ChannelBook},
			Sink:     sinkFor(normalizeVenue(venue)),
		}
		if err := s.RegisterVenue(venue, opts); err != nil {
			return err
		}
	}
	return nil
}

// AddCloser registers a streaming resource (sink, store) to be finalized in
// the second shutdown phase, after every pending task has resolved.
func (s *Supervisor) AddCloser(c io.Closer) {
	if c == nil {
		return
	}
	s.mu.Lock()
	s.closers = append(s.closers, c)
	s.mu.Unlock()
}

func (s *Supervisor) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// FeedIDs returns the identifiers of the registered feeds, in registration
// order.
func (s *Supervisor) FeedIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.feeds))
	for i, f := range s.feeds {
		out[i] = f.ID()
	}
	return out
}

// Done is closed once termination has been flagged. Embedding callers can
// wait on it instead of blocking in Run.
func (s *Supervisor) Done() <-chan struct{} {
	return s.term.Done()
}

// Fault reports an unrecoverable error. It is handled exactly like a
// termination signal: logged (or passed to the run fault handler) and
// followed by the orderly two-phase shutdown.
func (s *Supervisor) Fault(err error) {
	if err == nil {
		return
	}
	select {
	case s.faultC <- err:
	default:
		// A fault is already in flight; shutdown is coming either way.
	}
}

// RunOption tweaks a single Run call.
type RunOption func(*runOptions)

type runOptions struct {
	deferredStart bool
	installTrap   bool
	faultHandler  func(error)
}

// WithDeferredStart makes Run return right after issuing the concurrent
// feed starts. The caller then owns the wait and drives Stop/Close itself
// (embedding mode).
func WithDeferredStart() RunOption {
	return func(o *runOptions) { o.deferredStart = true }
}

// WithoutSignalTrap skips installing the termination signal trap. Use when
// the supervisor runs off the main goroutine and the primary trap is
// installed elsewhere.
func WithoutSignalTrap() RunOption {
	return func(o *runOptions) { o.installTrap = false }
}

// WithFaultHandler overrides the default fault handler (which logs the
// fault). Shutdown still follows once the handler returns.
func WithFaultHandler(fn func(error)) RunOption {
	return func(o *runOptions) { o.faultHandler = fn }
}

// Run starts every registered feed concurrently and, unless deferred start
// was requested, blocks until termination is flagged — by signal, by Fault,
// or by Stop — then executes the two-phase shutdown before returning.
// Running with zero feeds fails before anything starts.
func (s *Supervisor) Run(opts ...RunOption) error {
	o := runOptions{installTrap: true}
	for _, opt := range opts {
		opt(&o)
	}

	s.mu.Lock()
	if s.state != StateIdle {
		s.mu.Unlock()
		return apperrors.NewConfiguration("supervisor already started")
	}
	if len(s.feeds) == 0 {
		s.mu.Unlock()
		logger.Critical("no feed registered", "known_venues", s.registry.Venues())
		return apperrors.NewConfiguration("no feed registered")
	}
	s.state = StateRunning
	feeds := append([]Feed(nil), s.feeds...)
	s.runCtx, s.cancelRun = context.WithCancel(context.Background())
	s.group = new(errgroup.Group)
	if o.installTrap {
		s.releaseTrap = InstallTrap(s.term)
	}
	s.mu.Unlock()

	faultHandler := o.faultHandler
	if faultHandler == nil {
		faultHandler = func(err error) {
			logger.Error("unhandled fault, shutting down", "error", err)
		}
	}
	go func() {
		select {
		case err := <-s.faultC:
			faultHandler(err)
			s.term.Set()
		case <-s.term.Done():
		}
	}()

	logger.Info("starting feeds", "count", len(feeds))
	for _, f := range feeds {
		f := f
		s.group.Go(func() (err error) {
			defer func() {
				if r := recover(); r != nil {
					err = fmt.Errorf("panic: %v", r)
				}
				if err != nil && !s.term.IsSet() {
					s.Fault(fmt.Errorf("feed %s: %w", f.ID(), err))
				}
			}()
			return f.Run(s.runCtx, s.term)
		})
	}

	if o.deferredStart {
		return nil
	}

	<-s.term.Done()
	logger.Info("termination flagged, shutting down")
	s.Stop()
	s.Close()
	logger.Info("leaving run")
	return nil
}

// Stop is phase 1 of shutdown: it sets the termination flag, schedules one
// shutdown task per registered feed — all concurrent — and returns only
// once every one of them has completed. Failures are collected and logged;
// they never cause an early return and never stop sibling tasks.
func (s *Supervisor) Stop() {
	s.stopOnce.Do(s.stopFeeds)
}

func (s *Supervisor) stopFeeds() {
	s.mu.Lock()
	s.state = StateStoppingFeeds
	feeds := append([]Feed(nil), s.feeds...)
	s.mu.Unlock()

	s.term.Set()

	ctx := context.Background()
	cancel := context.CancelFunc(func() {})
	if s.shutdownTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, s.shutdownTimeout)
	}
	defer cancel()

	logger.Info("stopping feeds", "count", len(feeds))
	collector := newShutdownCollector("stop")
	var wg sync.WaitGroup
	for _, f := range feeds {
		wg.Add(1)
		go func(f Feed) {
			defer wg.Done()
			defer func() {
				if r := recover(); r != nil {
					collector.Observe(f.ID(), fmt.Errorf("shutdown panicked: %v", r))
				}
			}()
			collector.Observe(f.ID(), f.Shutdown(ctx))
		}(f)
	}
	wg.Wait()
	logger.Info("feed shutdown gather complete", "count", len(feeds), "failed", collector.Failures())
}

// Close is phase 2: it cancels everything still pending, waits for every
// task to resolve — cancellation faults are observed and discarded — and
// only then finalizes the registered streaming resources. Calling Close
// before Stop runs Stop first; phase 2 never begins before phase 1's
// gather has fully resolved.
func (s *Supervisor) Close() {
	s.closeOnce.Do(s.closeTasks)
}

func (s *Supervisor) closeTasks() {
	s.Stop()

	s.mu.Lock()
	s.state = StateCancellingTasks
	closers := append([]io.Closer(nil), s.closers...)
	release := s.releaseTrap
	cancelRun := s.cancelRun
	group := s.group
	s.mu.Unlock()

	if release != nil {
		release()
	}
	if cancelRun != nil {
		cancelRun()
	}
	if group != nil {
		if err := group.Wait(); err != nil {
			logger.Warn("task ended with error during cancellation", "error", err)
		}
	}

	// Streaming resources are finalized only after every task has resolved,
	// so no producer is still writing into them.
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("resource close failed", "error", err)
		}
	}

	s.mu.Lock()
	s.state = StateClosed
	s.mu.Unlock()
	logger.Info("supervisor closed")
}
