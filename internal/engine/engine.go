// Package engine implements the probe session: a state machine gating
// a round scheduler that repeatedly fans out bounded-concurrency
// reachability probes over the target registry.
package engine

import (
	"context"
	"io"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/pingdeckhq/engine/internal/events"
	"github.com/pingdeckhq/engine/internal/limiter"
	"github.com/pingdeckhq/engine/internal/probe"
	"github.com/pingdeckhq/engine/internal/registry"
	"github.com/pingdeckhq/engine/pkg/types"
)

// Prober runs one reachability probe for one target.
type Prober interface {
	Probe(ctx context.Context, spec types.TargetSpec, cfg types.SessionConfig) types.Outcome
}

// ProberFunc adapts a function to the Prober interface.
type ProberFunc func(ctx context.Context, spec types.TargetSpec, cfg types.SessionConfig) types.Outcome

func (f ProberFunc) Probe(ctx context.Context, spec types.TargetSpec, cfg types.SessionConfig) types.Outcome {
	return f(ctx, spec, cfg)
}

// run is one scheduling lifetime: from a start (or resume) until its
// context is cancelled or the loop ends. done closes once the round
// loop has fully drained.
type run struct {
	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
	cfg    types.SessionConfig
}

// Engine owns the target registry and the session state for the
// session's lifetime. The view layer holds read access via Snapshot
// and issues control requests through Start/Pause/Resume/Stop.
type Engine struct {
	registry *registry.Registry
	limiter  *limiter.Limiter
	prober   Prober
	events   events.Recorder
	logger   *log.Logger

	jitterFloor     time.Duration
	perTargetJitter time.Duration
	staggerMin      time.Duration
	staggerMax      time.Duration
	minRoundDelay   time.Duration

	now  func() time.Time
	rand *rand.Rand

	mu    sync.Mutex
	state types.SessionState
	cfg   types.SessionConfig
	run   *run
}

type Option func(*Engine)

// WithMaxInFlight bounds how many probes may execute concurrently.
func WithMaxInFlight(n int) Option {
	return func(e *Engine) {
		e.limiter = limiter.New(n)
	}
}

// WithProber replaces the probe executor.
func WithProber(p Prober) Option {
	return func(e *Engine) {
		if p != nil {
			e.prober = p
		}
	}
}

// WithEvents attaches a session event recorder.
func WithEvents(rec events.Recorder) Option {
	return func(e *Engine) {
		if rec != nil {
			e.events = rec
		}
	}
}

// WithLogger attaches a logger for scheduling diagnostics.
func WithLogger(logger *log.Logger) Option {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithJitter overrides the inter-round jitter floor and the per-target
// increment that scales the jitter bound with the target count.
func WithJitter(floor, perTarget time.Duration) Option {
	return func(e *Engine) {
		if floor > 0 {
			e.jitterFloor = floor
		}
		if perTarget > 0 {
			e.perTargetJitter = perTarget
		}
	}
}

// WithStagger overrides the per-target launch delay bounds.
func WithStagger(min, max time.Duration) Option {
	return func(e *Engine) {
		if min > 0 {
			e.staggerMin = min
		}
		if max >= e.staggerMin {
			e.staggerMax = max
		}
	}
}

// WithMinRoundDelay overrides the positive floor applied to every
// inter-round sleep.
func WithMinRoundDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d > 0 {
			e.minRoundDelay = d
		}
	}
}

// WithNow replaces the clock.
func WithNow(now func() time.Time) Option {
	return func(e *Engine) {
		if now != nil {
			e.now = now
		}
	}
}

// WithRand replaces the randomness source used for stagger and jitter.
func WithRand(r *rand.Rand) Option {
	return func(e *Engine) {
		if r != nil {
			e.rand = r
		}
	}
}

func New(opts ...Option) *Engine {
	e := &Engine{
		registry:        registry.New(),
		limiter:         limiter.New(0),
		prober:          probe.NewExecutor(),
		events:          events.NoopRecorder{},
		logger:          log.New(io.Discard, "", 0),
		jitterFloor:     2 * time.Second,
		perTargetJitter: 16 * time.Millisecond,
		staggerMin:      time.Millisecond,
		staggerMax:      40 * time.Millisecond,
		minRoundDelay:   50 * time.Millisecond,
		now:             time.Now,
		rand:            rand.New(rand.NewSource(time.Now().UnixNano())),
		state:           types.StateStopped,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Start begins a session. From Stopped, Completed or Cleared it is a
// fresh run: the target set is replaced (or, when specs is nil, the
// previous set is kept with counters reset) and the configuration
// snapshot captured. From Paused it is a resume: statistics survive
// and the captured configuration of the paused run is reused. Any
// other source state makes the call a no-op.
func (e *Engine) Start(specs []types.TargetSpec, cfg types.SessionConfig) {
	e.mu.Lock()
	from := e.state

	switch from {
	case types.StatePinging:
		e.mu.Unlock()
		return
	case types.StatePaused:
		// Eagerly cancel the residual run before restarting; a probe
		// mid-flight at pause time is discarded, not awaited or
		// retried (the next round re-probes every target anyway).
		if e.run != nil {
			e.run.cancel()
		}
		cfg = e.cfg
	default:
		cfg = cfg.Normalized()
		e.cfg = cfg
		if specs == nil {
			e.registry.ResetCounters()
		} else {
			e.registry.Reset(specs)
		}
	}

	r := &run{cfg: cfg, done: make(chan struct{})}
	r.ctx, r.cancel = context.WithCancel(context.Background())
	e.run = r
	e.state = types.StatePinging
	e.mu.Unlock()

	e.recordTransition(from, types.StatePinging)
	e.logger.Printf("session started: %d targets, timeout=%s interval=%s size=%d",
		e.registry.Len(), cfg.Timeout, cfg.Interval, cfg.PacketSize)

	go e.runRounds(r)
}

// Pause halts scheduling while Pinging. Outstanding probes are
// cancelled and their results discarded; accumulated counters stay
// untouched. Targets still showing an in-progress status are stamped
// Paused.
func (e *Engine) Pause() {
	e.mu.Lock()
	if e.state != types.StatePinging {
		e.mu.Unlock()
		return
	}
	r := e.run
	e.state = types.StatePaused
	e.mu.Unlock()

	r.cancel()
	<-r.done

	e.registry.StampInFlight(types.KindPaused)
	e.recordTransition(types.StatePinging, types.StatePaused)
}

// Resume restarts a paused session with its captured configuration.
func (e *Engine) Resume() {
	e.mu.Lock()
	paused := e.state == types.StatePaused
	e.mu.Unlock()
	if !paused {
		return
	}
	e.Start(nil, types.SessionConfig{})
}

// Stop ends the session from Pinging or Paused. Without clear,
// counters survive and in-progress targets are stamped Stopped. With
// clear, every target's counters reset to zero and all statuses read
// Cleared.
func (e *Engine) Stop(clear bool) {
	e.mu.Lock()
	from := e.state
	if from != types.StatePinging && from != types.StatePaused {
		e.mu.Unlock()
		return
	}
	r := e.run
	if clear {
		e.state = types.StateCleared
	} else {
		e.state = types.StateStopped
	}
	to := e.state
	e.mu.Unlock()

	if r != nil {
		r.cancel()
		<-r.done
	}

	if clear {
		e.registry.Clear(types.KindCleared)
	} else {
		e.registry.StampInFlight(types.KindStopped)
	}
	e.recordTransition(from, to)
}

// Teardown is called by the view layer at the end of its own
// lifecycle. If the session is still Pinging this counts as natural
// completion: the state becomes Completed and in-progress targets are
// stamped with the terminal status.
func (e *Engine) Teardown() {
	e.mu.Lock()
	r := e.run
	e.mu.Unlock()
	if r != nil {
		r.cancel()
		<-r.done
	}
}

// State returns the current session state.
func (e *Engine) State() types.SessionState {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state
}

// Snapshot returns the full read model: state, captured configuration,
// aggregate totals and per-target statistics.
func (e *Engine) Snapshot() types.SessionSnapshot {
	e.mu.Lock()
	state := e.state
	cfg := e.cfg
	e.mu.Unlock()

	return types.SessionSnapshot{
		State:   state,
		Config:  cfg,
		Totals:  e.registry.Totals(),
		Targets: e.registry.Snapshot(),
	}
}

func (e *Engine) stateIs(s types.SessionState) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state == s
}

func (e *Engine) recordTransition(from, to types.SessionState) {
	e.events.Record(events.Event{
		Type:      events.TypeStateChange,
		Timestamp: e.now(),
		From:      from,
		To:        to,
	})
}
