// Command midistats listens to a MIDI source and measures the interval and
// jitter of incoming note-ons from driver timestamps and arrival times.
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
	"github.com/leandrodaf/midiprobe/internal/receiver"
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
	cfg := config.DefaultStatsConfig()
	var globals cli.Globals

	cmd := &cobra.Command{
		Use:   "midistats",
		Short: "Measure note-on interval and jitter on a MIDI source",
		Example: "  midistats --list\n" +
			"  midistats --dest 0 --channel 1 --report-every 200",
		Args: cli.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			file, err := cli.LoadFile(&globals)
			if err != nil {
				return err
			}
			applyStatsFile(cmd, &cfg, file.Stats)
			cli.ApplyDriverFile(cmd, &globals, file)
			if err := cfg.Validate(); err != nil {
				return &cli.UsageError{Err: err}
			}
			return runStats(ctx, cfg, &globals, stdout, factory)
		},
	}
	cmd.SetOut(stdout)

	f := cmd.Flags()
	f.BoolVar(&cfg.List, "list", false, "list MIDI input sources and exit")
	f.StringVarP(&cfg.Dest, "dest", "d", "", "source name (exact/substring) or index")
	f.IntVarP(&cfg.Channel, "channel", "c", cfg.Channel, "MIDI channel to track (1-16)")
	f.Int64VarP(&cfg.Count, "count", "k", cfg.Count, "stop after N qualifying note-ons; 0 means infinite")
	f.IntVar(&cfg.ReportEvery, "report-every", cfg.ReportEvery, "print a report every N note-ons (>= 1)")
	f.StringVarP(&cfg.Output, "output", "o", cfg.Output, "report format: text or json")
	cli.RegisterGlobals(cmd, &globals)
	return cmd
}

func applyStatsFile(cmd *cobra.Command, cfg *config.StatsConfig, file config.StatsFile) {
	cli.ApplyString(cmd, "dest", &cfg.Dest, file.Dest)
	cli.ApplyInt(cmd, "channel", &cfg.Channel, file.Channel)
	cli.ApplyInt64(cmd, "count", &cfg.Count, file.Count)
	cli.ApplyInt(cmd, "report-every", &cfg.ReportEvery, file.ReportEvery)
	cli.ApplyString(cmd, "output", &cfg.Output, file.Output)
}

func runStats(parent context.Context, cfg config.StatsConfig, globals *cli.Globals, stdout io.Writer, factory cli.DriverFactory) error {
	log, level, err := cli.NewLogger(globals)
	if err != nil {
		return err
	}
	defer func() { _ = log.Sync() }()

	reporter, err := stats.NewReporter(cfg.Output, stdout)
	if err != nil {
		return &cli.UsageError{Err: err}
	}

	drv, err := cli.OpenDriver(factory, globals, log, level, "midistats")
	if err != nil {
		return err
	}
	defer func() {
		if cerr := drv.Close(); cerr != nil {
			log.Warn("driver close failed", log.Field().Error("error", cerr))
		}
	}()

	sources, err := drv.Sources()
	if err != nil {
		return err
	}
	if cfg.List {
		return cli.PrintEndpoints(stdout, "MIDI sources", sources)
	}

	source, err := endpoint.Resolver{Direction: contracts.SourceEndpoint}.Resolve(cfg.Dest, sources)
	if err != nil {
		return err
	}

	fmt.Fprintf(stdout, "Listening source [%d]: %s | channel=%d report_every=%d count=%d\n",
		source.Index, source.Name, cfg.Channel, cfg.ReportEvery, cfg.Count)
	fmt.Fprintln(stdout, "Tracking note-on events (velocity > 0). Press Ctrl+C to stop.")

	ctx, stop := cli.SignalContext(parent)
	defer stop()
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	monitor := receiver.NewMonitor(receiver.Config{
		Channel:     cfg.Channel,
		ReportEvery: cfg.ReportEvery,
		Count:       uint64(cfg.Count),
	}, drv.Clock().Timebase(), reporter, log, cancel)

	log.Info("receiver started",
		log.Field().String("backend", drv.Name()),
		log.Field().Int("source", source.Index))
	if err := monitor.Run(ctx, drv, source.Index); err != nil {
		return fmt.Errorf("source [%d] %s: %w", source.Index, source.Name, err)
	}
	return nil
}
