// Command midipulse emits note-on/note-off pairs to a MIDI destination on a
// drift-free cadence and reports how late each note was dispatched.
package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/leandrodaf/midiprobe/internal/cli"
	"github.com/leandrodaf/midiprobe/internal/config"
	"github.com/leandrodaf/midiprobe/internal/endpoint"
	"github.com/leandrodaf/midiprobe/internal/scheduler"
	"github.com/leandrodaf/midiprobe/internal/stats"
	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

func main() {
	os.Exit(run(context.Background(), os.Args[1:], os.Stdout, os.Stderr, cli.DefaultDriverFactory))
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer, factory cli.DriverFactory) int {
	return cli.Execute(newRootCmd(ctx, stdout, factory), args, stderr)
}

func newRootCmd(ctx context.Context, stdout io.Writer, factory cli.DriverFactory) *cobra.Command {
	cfg := config.DefaultPulseConfig()
	var globals cli.Globals

	cmd := &cobra.Command{
		Use:   "midipulse",
		Short: "Emit periodic MIDI note on/off messages to a destination",
		Example: "  midipulse --list\n" +
			"  midipulse --dest 0 --channel 1 --interval-ms 10 --note 60 --gate 0.25 --count 2000",
		Args: cli.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := cli.LoadFile(&globals)
			if err != nil {
				return err
			}
			applyPulseFile(cmd, &cfg, file.Pulse)
			cli.ApplyDriverFile(cmd, &globals, file)
			if err := cfg.Validate(); err != nil {
				return &cli.UsageError{Err: err}
			}
			return runPulse(ctx, cfg, &globals, stdout, factory)
		},
	}
	cmd.SetOut(stdout)

	f := cmd.Flags()
	f.BoolVar(&cfg.List, "list", false, "list MIDI output destinations and exit")
	f.StringVarP(&cfg.Dest, "dest", "d", "", "destination name (exact/substring) or index")
	f.IntVarP(&cfg.Channel, "channel", "c", cfg.Channel, "MIDI channel (1-16)")
	f.IntVarP(&cfg.Note, "note", "n", cfg.Note, "MIDI note number (0-127)")
	f.IntVarP(&cfg.Velocity, "velocity", "v", cfg.Velocity, "note-on velocity (1-127)")
	f.Float64VarP(&cfg.IntervalMs, "interval-ms", "i", cfg.IntervalMs, "note period in milliseconds")
	f.Float64VarP(&cfg.Gate, "gate", "g", cfg.Gate, "gate fraction of interval (0.0-1.0)")
	f.Int64VarP(&cfg.Count, "count", "k", cfg.Count, "number of notes; 0 means infinite")
	f.IntVar(&cfg.ReportEvery, "report-every", cfg.ReportEvery, "print note-on lateness stats every N notes; 0 disables")
	f.BoolVar(&cfg.Verbose, "verbose", false, "print per-note timing details")
	f.StringVarP(&cfg.Output, "output", "o", cfg.Output, "report format: text or json")
	cli.RegisterGlobals(cmd, &globals)
	return cmd
}

func applyPulseFile(cmd *cobra.Command, cfg *config.PulseConfig, file config.PulseFile) {
	cli.ApplyString(cmd, "dest", &cfg.Dest, file.Dest)
	cli.ApplyInt(cmd, "channel", &cfg.Channel, file.Channel)
	cli.ApplyInt(cmd, "note", &cfg.Note, file.Note)
	cli.ApplyInt(cmd, "velocity", &cfg.Velocity, file.Velocity)
	cli.ApplyFloat(cmd, "interval-ms", &cfg.IntervalMs, file.IntervalMs)
	cli.ApplyFloat(cmd, "gate", &cfg.Gate, file.Gate)
	cli.ApplyInt64(cmd, "count", &cfg.Count, file.Count)
	cli.ApplyInt(cmd, "report-every", &cfg.ReportEvery, file.ReportEvery)
	cli.ApplyBool(cmd, "verbose", &cfg.Verbose, file.Verbose)
	cli.ApplyString(cmd, "output", &cfg.Output, file.Output)
}

func runPulse(parent context.Context, cfg config.PulseConfig, globals *cli.Globals, stdout io.Writer, factory cli.DriverFactory) error {
	log, level, err := cli.NewLogger(globals)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	reporter, err := stats.NewReporter(cfg.Output, stdout)
	if err != nil {
		return &cli.UsageError{Err: err}
	}

	drv, err := cli.OpenDriver(factory, globals, log, level, "midipulse")
	if err != nil {
		return err
	}
	defer func() {
		if cerr := drv.Close(); cerr != nil {
			log.Warn("driver close failed", log.Field().Error("error", cerr))
		}
	}()

	dests, err := drv.Destinations()
	if err != nil {
		return err
	}
	if cfg.List {
		return cli.PrintEndpoints(stdout, "MIDI destinations", dests)
	}

	dest, err := endpoint.Resolver{Direction: contracts.DestinationEndpoint}.Resolve(cfg.Dest, dests)
	if err != nil {
		return err
	}

	out, err := drv.OpenOutput(dest.Index)
	if err != nil {
		return fmt.Errorf("open destination [%d] %s: %w", dest.Index, dest.Name, err)
	}
	defer func() {
		if cerr := out.Close(); cerr != nil {
			log.Warn("output close failed", log.Field().Error("error", cerr))
		}
	}()

	pulseCfg := scheduler.PulseConfig{
		Channel:     cfg.Channel,
		Note:        byte(cfg.Note),
		Velocity:    byte(cfg.Velocity),
		Plan:        scheduler.NewPlan(cfg.IntervalMs, cfg.Gate, cfg.Count),
		ReportEvery: cfg.ReportEvery,
		Verbose:     cfg.Verbose,
	}
	clk := drv.Clock()
	pulse := scheduler.NewPulse(pulseCfg, out, clk, scheduler.NewWaiter(clk, nil), reporter, stdout, log)

	fmt.Fprintf(stdout, "Destination [%d]: %s | channel=%d note=%d velocity=%d interval=%.3fms gate=%.3f count=%d lead=%.3fms\n",
		dest.Index, dest.Name, cfg.Channel, cfg.Note, cfg.Velocity, cfg.IntervalMs, cfg.Gate, cfg.Count,
		float64(pulse.Lead())/1e6)
	fmt.Fprintln(stdout, "Press Ctrl+C to stop.")

	ctx, stop := cli.SignalContext(parent)
	defer stop()

	log.Info("pulse started",
		log.Field().String("backend", drv.Name()),
		log.Field().Int("destination", dest.Index),
		log.Field().Float64("interval_ms", cfg.IntervalMs))
	return pulse.Run(ctx)
}
