package engine

import (
	"context"
	"fmt"
	"math/rand"
	"testing"
	"time"

	"github.com/pingdeckhq/engine/pkg/types"
)

func TestJitterBoundNonDecreasingInTargetCount(t *testing.T) {
	e := New()
	prev := time.Duration(0)
	for n := 0; n <= 2000; n += 25 {
		bound := e.jitterBound(n)
		if bound < prev {
			t.Fatalf("jitter bound decreased at n=%d: %s < %s", n, bound, prev)
		}
		if bound < e.jitterFloor {
			t.Fatalf("jitter bound below floor at n=%d: %s", n, bound)
		}
		prev = bound
	}
}

func TestJitterBoundScalesPastFloor(t *testing.T) {
	e := New(WithJitter(2*time.Second, 16*time.Millisecond))
	if got := e.jitterBound(10); got != 2*time.Second {
		t.Fatalf("small set must keep the floor, got %s", got)
	}
	if got := e.jitterBound(500); got != 8*time.Second {
		t.Fatalf("large set must scale per target, got %s", got)
	}
}

func TestNextRoundDelayAlwaysPositive(t *testing.T) {
	e := New(WithRand(rand.New(rand.NewSource(1))))
	cfg := types.SessionConfig{Interval: 2 * time.Second}

	for i := 0; i < 5000; i++ {
		elapsed := time.Duration(rand.Int63n(int64(10 * time.Second)))
		bound := e.jitterBound(i % 300)
		delay := e.nextRoundDelay(cfg, elapsed, bound)
		if delay <= 0 {
			t.Fatalf("non-positive delay %s (elapsed=%s bound=%s)", delay, elapsed, bound)
		}
		if delay < e.minRoundDelay {
			t.Fatalf("delay %s below minimum %s", delay, e.minRoundDelay)
		}
	}
}

func TestJitterStaysWithinBounds(t *testing.T) {
	e := New(WithRand(rand.New(rand.NewSource(7))))
	bound := 3 * time.Second
	for i := 0; i < 5000; i++ {
		j := e.jitter(bound)
		if j < -bound/2 || j > bound {
			t.Fatalf("jitter %s outside [-%s, %s]", j, bound/2, bound)
		}
	}
}

func TestStaggerStaysWithinBounds(t *testing.T) {
	e := New(
		WithRand(rand.New(rand.NewSource(3))),
		WithStagger(time.Millisecond, 40*time.Millisecond),
	)
	for i := 0; i < 5000; i++ {
		d := e.stagger()
		if d < time.Millisecond || d > 40*time.Millisecond {
			t.Fatalf("stagger %s outside configured bounds", d)
		}
	}
}

func TestLimiterBoundsConcurrentProbes(t *testing.T) {
	inFlight := make(chan struct{}, 16)
	maxSeen := 0
	observed := make(chan int, 4096)

	prober := ProberFunc(func(ctx context.Context, spec types.TargetSpec, cfg types.SessionConfig) types.Outcome {
		inFlight <- struct{}{}
		observed <- len(inFlight)
		time.Sleep(5 * time.Millisecond)
		<-inFlight
		return types.Outcome{Kind: types.KindSuccess, Latency: "1.0 ms"}
	})

	e := New(append(fastOptions(prober), WithMaxInFlight(2))...)
	targets := []types.TargetSpec{
		{Value: "192.0.2.1", Family: types.FamilyIPv4},
		{Value: "192.0.2.2", Family: types.FamilyIPv4},
		{Value: "192.0.2.3", Family: types.FamilyIPv4},
	}
	e.Start(targets, fastSession())

	waitFor(t, func() bool { return minSuccessCount(e) >= 3 }, "three rounds")
	e.Stop(false)

	close(observed)
	for n := range observed {
		if n > maxSeen {
			maxSeen = n
		}
	}
	if maxSeen > 2 {
		t.Fatalf("observed %d concurrent probes, limit is 2", maxSeen)
	}
	if maxSeen == 0 {
		t.Fatalf("expected at least one observed probe")
	}
}

func TestPartialRoundStopsDispatching(t *testing.T) {
	started := make(chan string, 64)
	release := make(chan struct{})

	prober := ProberFunc(func(ctx context.Context, spec types.TargetSpec, cfg types.SessionConfig) types.Outcome {
		started <- spec.Value
		select {
		case <-release:
		case <-ctx.Done():
			return types.Outcome{Kind: types.KindCancelled}
		}
		return types.Outcome{Kind: types.KindSuccess, Latency: "1.0 ms"}
	})

	// A long stagger keeps later targets undispatched until pause.
	e := New(
		WithProber(prober),
		WithStagger(5*time.Millisecond, 10*time.Millisecond),
		WithJitter(time.Millisecond, 10*time.Microsecond),
		WithMinRoundDelay(time.Millisecond),
	)

	targets := make([]types.TargetSpec, 8)
	for i := range targets {
		targets[i] = types.TargetSpec{Value: fmt.Sprintf("198.51.100.%d", i+1), Family: types.FamilyIPv4}
	}
	e.Start(targets, fastSession())

	<-started // first probe is running
	e.Pause()
	close(release)

	if got := 1 + len(started); got >= len(targets) {
		t.Fatalf("expected dispatching to stop mid-round, %d probes started", got)
	}
	if e.State() != types.StatePaused {
		t.Fatalf("expected Paused, got %s", e.State())
	}
}
