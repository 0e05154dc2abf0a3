package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/pingdeckhq/engine/internal/config"
	"github.com/pingdeckhq/engine/internal/engine"
	"github.com/pingdeckhq/engine/internal/events"
	"github.com/pingdeckhq/engine/internal/logging"
	"github.com/pingdeckhq/engine/internal/probe"
	"github.com/pingdeckhq/engine/pkg/types"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "pingdeck: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string) error {
	fs := flag.NewFlagSet("pingdeck", flag.ContinueOnError)
	configPath := fs.String("config", "", "Path to engine configuration file")
	targetFile := fs.String("file", "", "File with one target per line")
	timeoutMs := fs.Int("timeout", 0, "Per-probe timeout in milliseconds")
	intervalSec := fs.Int("interval", 0, "Base interval between rounds in seconds")
	packetSize := fs.Int("size", 0, "Probe payload size in bytes")
	refresh := fs.Duration("refresh", time.Second, "Snapshot render interval")

	if err := fs.Parse(args); err != nil {
		return err
	}

	cfg, err := loadConfig(*configPath)
	if err != nil {
		return err
	}

	text, err := targetText(fs.Args(), *targetFile)
	if err != nil {
		return err
	}
	specs := ParseTargets(text)
	if len(specs) == 0 {
		return errors.New("no targets: pass addresses as arguments, use -file, or rerun after a previous session")
	}
	if err := SaveLastInput(text); err != nil {
		// Losing input persistence is not worth aborting the session.
		fmt.Fprintf(os.Stderr, "pingdeck: %v\n", err)
	}

	session := cfg.SessionDefaults()
	if *timeoutMs > 0 {
		session.Timeout = time.Duration(*timeoutMs) * time.Millisecond
	}
	if *intervalSec > 0 {
		session.Interval = time.Duration(*intervalSec) * time.Second
	}
	if *packetSize > 0 {
		session.PacketSize = *packetSize
	}

	logger := logging.New()

	executorOpts := []probe.Option{
		probe.WithBinaries(cfg.Probes.PingBinary, cfg.Probes.Ping6Binary),
		probe.WithWatchdogBuffer(cfg.Engine.WatchdogBuffer()),
	}
	if cfg.RateGovernance.Enabled {
		executorOpts = append(executorOpts,
			probe.WithGovernor(cfg.RateGovernance.GlobalPPSCap, cfg.RateGovernance.Burst))
	}

	eng := engine.New(
		engine.WithMaxInFlight(cfg.Engine.MaxInFlight),
		engine.WithJitter(cfg.Engine.JitterFloor(), cfg.Engine.PerTargetJitter()),
		engine.WithStagger(cfg.Engine.StaggerMin(), cfg.Engine.StaggerMax()),
		engine.WithMinRoundDelay(cfg.Engine.MinRoundDelay()),
		engine.WithProber(probe.NewExecutor(executorOpts...)),
		engine.WithLogger(logger),
		engine.WithEvents(events.LogRecorder{Logger: logger}),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	eng.Start(specs, session)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		ticker := time.NewTicker(*refresh)
		defer ticker.Stop()
		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				render(os.Stdout, eng.Snapshot())
			}
		}
	})

	if err := g.Wait(); err != nil {
		return err
	}

	eng.Stop(false)
	eng.Teardown()
	render(os.Stdout, eng.Snapshot())
	return nil
}

// loadConfig resolves the engine configuration. An explicit path must
// load or the invocation fails; otherwise the PINGDECK_CONFIG/default
// lookup applies, tolerating a missing file by running on defaults.
func loadConfig(path string) (config.Config, error) {
	if path != "" {
		return config.Load(path)
	}
	cfg, err := config.LoadFromEnv()
	if errors.Is(err, os.ErrNotExist) {
		return config.Default(), nil
	}
	return cfg, err
}

// targetText resolves the raw input text: explicit arguments win, then
// a target file, then the persisted last-used list.
func targetText(args []string, file string) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, "\n"), nil
	}
	if file != "" {
		data, err := os.ReadFile(file)
		if err != nil {
			return "", fmt.Errorf("read target file: %w", err)
		}
		return string(data), nil
	}
	return LoadLastInput()
}

func render(w io.Writer, snap types.SessionSnapshot) {
	fmt.Fprintf(w, "\nstate=%s reachable=%d failed=%d\n", snap.State, snap.Totals.Reachable, snap.Totals.Failed)

	tw := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "TARGET\tFAMILY\tSTATUS\tOK\tFAIL\tFAIL%\tNOTE")
	for _, t := range snap.Targets {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%d\t%d\t%.1f\t%s\n",
			t.Value, t.Family, t.Outcome.Label(), t.SuccessCount, t.FailureCount, t.FailureRate, t.Note)
	}
	tw.Flush()
}
