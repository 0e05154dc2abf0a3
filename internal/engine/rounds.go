package engine

import (
	"context"
	"sync"
	"time"

	"github.com/pingdeckhq/engine/internal/events"
	"github.com/pingdeckhq/engine/pkg/types"
)

// minRoundEpsilon is the smallest base delay carried into the next
// round when a round overran the configured interval.
const minRoundEpsilon = time.Millisecond

// runRounds is the scheduling loop: it walks the registry once per
// round, staggering task launches and bounding concurrency through
// the limiter, then sleeps the interval remainder plus jitter. The
// loop continues only while the session state is Pinging.
func (e *Engine) runRounds(r *run) {
	defer e.completeRun(r)

	var round uint64
	for {
		if r.ctx.Err() != nil || !e.stateIs(types.StatePinging) {
			return
		}

		round++
		started := e.now()
		ids := e.registry.IDs()
		bound := e.jitterBound(len(ids))

		var wg sync.WaitGroup
		dispatched := 0
		for _, id := range ids {
			// Graceful partial round: stop dispatching as soon as the
			// session leaves Pinging.
			if r.ctx.Err() != nil || !e.stateIs(types.StatePinging) {
				break
			}
			if !e.sleep(r.ctx, e.stagger()) {
				break
			}
			wg.Add(1)
			dispatched++
			go func(id string) {
				defer wg.Done()
				e.probeTarget(r, id)
			}(id)
		}
		wg.Wait()

		if r.ctx.Err() != nil || !e.stateIs(types.StatePinging) {
			return
		}

		elapsed := e.now().Sub(started)
		e.events.Record(events.Event{
			Type:       events.TypeRoundComplete,
			Timestamp:  e.now(),
			Round:      round,
			Elapsed:    elapsed,
			Dispatched: dispatched,
		})

		if !e.sleep(r.ctx, e.nextRoundDelay(r.cfg, elapsed, bound)) {
			return
		}
	}
}

// probeTarget runs one target's probe task: admission, probe, slot
// release, then the statistics commit — dropped if the session left
// Pinging while the probe ran.
func (e *Engine) probeTarget(r *run, id string) {
	if err := e.limiter.Acquire(r.ctx); err != nil {
		return
	}
	if !e.stateIs(types.StatePinging) {
		e.limiter.Release()
		return
	}
	spec, ok := e.registry.Spec(id)
	if !ok {
		e.limiter.Release()
		return
	}

	// The slot is returned the moment the probe completes, before any
	// statistics work, so slot turnover never waits on bookkeeping.
	// The defer guarantees exactly one release per acquisition.
	outcome := func() types.Outcome {
		defer e.limiter.Release()
		return e.prober.Probe(r.ctx, spec, r.cfg)
	}()

	if outcome.Kind == types.KindCancelled {
		return
	}
	if r.ctx.Err() != nil || !e.stateIs(types.StatePinging) {
		// A completed result observed after cancellation must be
		// dropped, never applied: a stale write here could race a
		// clear or reset.
		e.events.Record(events.Event{
			Type:      events.TypeUpdateDropped,
			Timestamp: e.now(),
			TargetID:  id,
		})
		return
	}

	e.registry.Record(id, outcome)
}

// completeRun runs when the scheduling loop exits. If no control call
// moved the state off Pinging, the run ended because the hosting view
// tore the session down: that is natural completion.
func (e *Engine) completeRun(r *run) {
	e.mu.Lock()
	natural := e.state == types.StatePinging
	if natural {
		e.state = types.StateCompleted
		e.registry.StampInFlight(types.KindCompleted)
	}
	e.mu.Unlock()

	close(r.done)

	if natural {
		e.recordTransition(types.StatePinging, types.StateCompleted)
	}
}

// jitterBound scales the inter-round jitter with the target count:
// small sets keep the floor, large sets spread proportionally so a
// burst of simultaneous probes cannot manufacture false failures.
func (e *Engine) jitterBound(targetCount int) time.Duration {
	scaled := time.Duration(targetCount) * e.perTargetJitter
	if scaled < e.jitterFloor {
		return e.jitterFloor
	}
	return scaled
}

// stagger returns the small random delay inserted before each probe
// launch within a round.
func (e *Engine) stagger() time.Duration {
	span := e.staggerMax - e.staggerMin
	if span <= 0 {
		return e.staggerMin
	}
	return e.staggerMin + time.Duration(e.rand.Int63n(int64(span)+1))
}

// nextRoundDelay computes the sleep before the next round: the
// interval remainder after round overhead, plus a random jitter drawn
// from [-bound/2, bound], clamped to a positive minimum.
func (e *Engine) nextRoundDelay(cfg types.SessionConfig, elapsed, bound time.Duration) time.Duration {
	base := cfg.Interval - elapsed
	if base < minRoundEpsilon {
		base = minRoundEpsilon
	}
	delay := base + e.jitter(bound)
	if delay < e.minRoundDelay {
		delay = e.minRoundDelay
	}
	return delay
}

func (e *Engine) jitter(bound time.Duration) time.Duration {
	if bound <= 0 {
		return 0
	}
	// Uniform over [-bound/2, bound].
	span := int64(bound) + int64(bound)/2
	return time.Duration(e.rand.Int63n(span+1) - int64(bound)/2)
}

// sleep waits for d or until ctx is done; it reports whether the full
// duration elapsed.
func (e *Engine) sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
