// Package probe runs one reachability attempt per call by invoking
// the host's ping utility, racing it against a software watchdog and
// classifying the captured output into the canonical outcome taxonomy.
package probe

import (
	"context"
	"errors"
	"os/exec"
	"time"

	"golang.org/x/time/rate"

	"github.com/pingdeckhq/engine/pkg/types"
)

// DefaultWatchdogBuffer is added on top of the configured timeout
// before the software watchdog fires and kills the process. It covers
// process spawn and teardown overhead so the utility's own wait time
// gets to expire first when both are armed.
const DefaultWatchdogBuffer = 500 * time.Millisecond

// Runner executes the external command and returns its combined
// output plus exit code. Injectable so tests never spawn processes.
type Runner func(ctx context.Context, name string, args ...string) ([]byte, int, error)

// Executor builds and runs probe invocations.
type Executor struct {
	pingBin  string
	ping6Bin string
	buffer   time.Duration
	governor *rate.Limiter
	run      Runner
}

type Option func(*Executor)

// WithBinaries overrides the ping and ping6 utility names.
func WithBinaries(pingBin, ping6Bin string) Option {
	return func(e *Executor) {
		if pingBin != "" {
			e.pingBin = pingBin
		}
		if ping6Bin != "" {
			e.ping6Bin = ping6Bin
		}
	}
}

// WithWatchdogBuffer overrides the slack added to the configured
// timeout before the watchdog kills the process.
func WithWatchdogBuffer(d time.Duration) Option {
	return func(e *Executor) {
		if d > 0 {
			e.buffer = d
		}
	}
}

// WithGovernor caps the global probe-spawn rate. Zero or negative
// disables governance.
func WithGovernor(spawnsPerSecond float64, burst int) Option {
	return func(e *Executor) {
		if spawnsPerSecond <= 0 {
			e.governor = nil
			return
		}
		if burst <= 0 {
			burst = int(spawnsPerSecond)
		}
		if burst <= 0 {
			burst = 1
		}
		e.governor = rate.NewLimiter(rate.Limit(spawnsPerSecond), burst)
	}
}

// WithRunner replaces the process runner.
func WithRunner(run Runner) Option {
	return func(e *Executor) {
		if run != nil {
			e.run = run
		}
	}
}

func NewExecutor(opts ...Option) *Executor {
	e := &Executor{
		pingBin:  DefaultPingBinary,
		ping6Bin: DefaultPing6Binary,
		buffer:   DefaultWatchdogBuffer,
		run:      runCommand,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Probe issues one echo request against the target and classifies the
// result. Every failure is absorbed into an outcome; nothing escapes
// as an error. If the watchdog fires or ctx is cancelled while the
// process runs, the process is killed before Probe returns.
func (e *Executor) Probe(ctx context.Context, spec types.TargetSpec, cfg types.SessionConfig) types.Outcome {
	if ctx.Err() != nil {
		return types.Outcome{Kind: types.KindCancelled}
	}

	if e.governor != nil {
		if err := e.governor.Wait(ctx); err != nil {
			return types.Outcome{Kind: types.KindCancelled}
		}
	}

	name, args := Command(spec, cfg, e.pingBin, e.ping6Bin)

	watchdog, cancel := context.WithTimeout(ctx, cfg.Timeout+e.buffer)
	defer cancel()

	output, exitCode, err := e.run(watchdog, name, args...)

	// Session cancellation wins over every other classification so a
	// paused or stopped run never records a stale result.
	if ctx.Err() != nil {
		return types.Outcome{Kind: types.KindCancelled}
	}
	if errors.Is(watchdog.Err(), context.DeadlineExceeded) {
		return types.Outcome{Kind: types.KindTimeout}
	}
	if err != nil {
		return types.Outcome{Kind: types.KindFailed}
	}

	return Classify(output, exitCode, name)
}

// runCommand spawns the utility via exec.CommandContext, which kills
// the process when ctx is done, and folds a non-zero exit into the
// returned code instead of an error.
func runCommand(ctx context.Context, name string, args ...string) ([]byte, int, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	output, err := cmd.CombinedOutput()

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return output, exitErr.ExitCode(), nil
	}
	if err != nil {
		return output, 0, err
	}
	return output, 0, nil
}
