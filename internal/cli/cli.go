// Package cli holds the plumbing shared by the midipulse and midistats commands.
package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/leandrodaf/midiprobe/internal/config"
	"github.com/leandrodaf/midiprobe/internal/logger"
	"github.com/leandrodaf/midiprobe/sdk/contracts"
	"github.com/leandrodaf/midiprobe/sdk/midi"
)

// Exit codes.
const (
	ExitOK      = 0
	ExitFailure = 1
	ExitUsage   = 2
)

// DriverFactory creates the MIDI driver for a run.
type DriverFactory func(opts ...contracts.Option) (contracts.Driver, error)

// DefaultDriverFactory builds drivers through the SDK backend registry.
var DefaultDriverFactory DriverFactory = midi.NewDriver

// UsageError marks errors that should print usage and exit with ExitUsage.
type UsageError struct {
	Err error
}

func (e *UsageError) Error() string { return e.Err.Error() }
func (e *UsageError) Unwrap() error { return e.Err }

// Usagef returns a formatted UsageError.
func Usagef(format string, args ...any) error {
	return &UsageError{Err: fmt.Errorf(format, args...)}
}

// Globals are the flags both commands share.
type Globals struct {
	ConfigPath string
	Backend    string
	Baud       int
	LogLevel   string
	LogFile    string
	ClientName string
}

// RegisterGlobals adds the shared flags to cmd.
func RegisterGlobals(cmd *cobra.Command, g *Globals) {
	cmd.Flags().StringVar(&g.ConfigPath, "config", "", "TOML defaults file (default: $XDG_CONFIG_HOME/midiprobe/config.toml)")
	cmd.Flags().StringVar(&g.Backend, "backend", "", "MIDI backend: coremidi, winmm, rtmidi or serial (default: platform backend)")
	cmd.Flags().IntVar(&g.Baud, "baud", 31250, "serial backend line speed")
	cmd.Flags().StringVar(&g.LogLevel, "log-level", "warn", "diagnostics level: debug, info, warn or error")
	cmd.Flags().StringVar(&g.LogFile, "log-file", "", "write diagnostics to this file instead of stderr")
	cmd.Flags().StringVar(&g.ClientName, "client-name", "", "CoreMIDI client name (default: command name)")
}

// LoadFile reads the config file named by --config, or the default path.
// An explicitly named file must exist.
func LoadFile(g *Globals) (config.FileConfig, error) {
	path := g.ConfigPath
	if path == "" {
		path = config.DefaultConfigPath()
	} else if _, err := os.Stat(path); err != nil {
		return config.FileConfig{}, &UsageError{Err: fmt.Errorf("config file: %w", err)}
	}
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return config.FileConfig{}, &UsageError{Err: err}
	}
	return cfg, nil
}

// ApplyDriverFile fills unchanged driver and log flags from the config file.
func ApplyDriverFile(cmd *cobra.Command, g *Globals, file config.FileConfig) {
	ApplyString(cmd, "backend", &g.Backend, file.Driver.Backend)
	ApplyInt(cmd, "baud", &g.Baud, file.Driver.Baud)
	ApplyString(cmd, "client-name", &g.ClientName, file.Driver.ClientName)
	ApplyString(cmd, "log-level", &g.LogLevel, file.Log.Level)
	ApplyString(cmd, "log-file", &g.LogFile, file.Log.File)
}

// NewLogger builds the diagnostics logger for g.
func NewLogger(g *Globals) (contracts.Logger, contracts.LogLevel, error) {
	level, err := contracts.ParseLogLevel(g.LogLevel)
	if err != nil {
		return nil, 0, &UsageError{Err: err}
	}
	log := logger.NewZapLogger()
	log.SetLevel(level)
	return log, level, nil
}

// OpenDriver creates the driver selected by g. clientName names the CoreMIDI
// client unless g.ClientName is set.
func OpenDriver(factory DriverFactory, g *Globals, log contracts.Logger, level contracts.LogLevel, clientName string) (contracts.Driver, error) {
	if factory == nil {
		factory = DefaultDriverFactory
	}
	if g.ClientName != "" {
		clientName = g.ClientName
	}
	opts := []contracts.Option{
		contracts.WithLogger(log),
		contracts.WithLogLevel(level),
		contracts.WithBackend(g.Backend),
		contracts.WithCoreMIDIConfig(contracts.CoreMIDIConfig{ClientName: clientName}),
		contracts.WithSerialConfig(contracts.SerialConfig{BaudRate: g.Baud}),
	}
	if g.LogFile != "" {
		opts = append(opts, contracts.WithLogFile(g.LogFile))
	}
	drv, err := factory(opts...)
	if err != nil {
		if errors.Is(err, midi.ErrUnsupportedBackend) {
			return nil, &UsageError{Err: err}
		}
		return nil, fmt.Errorf("initialize MIDI driver: %w", err)
	}
	return drv, nil
}

// PrintEndpoints writes the --list output.
func PrintEndpoints(w io.Writer, title string, infos []contracts.EndpointInfo) error {
	if _, err := fmt.Fprintf(w, "%s: %d\n", title, len(infos)); err != nil {
		return err
	}
	for _, info := range infos {
		manufacturer := info.Manufacturer
		if manufacturer == "" {
			manufacturer = "<unknown>"
		}
		if _, err := fmt.Fprintf(w, "  [%d] %s (manufacturer=%s)\n", info.Index, info.Name, manufacturer); err != nil {
			return err
		}
	}
	return nil
}

// SignalContext returns a context cancelled by SIGINT or SIGTERM.
func SignalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

// Execute runs cmd with args and maps the outcome to an exit code. Errors
// are printed to stderr, followed by usage for UsageError.
func Execute(cmd *cobra.Command, args []string, stderr io.Writer) int {
	cmd.SetArgs(args)
	cmd.SilenceUsage = true
	cmd.SilenceErrors = true
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return &UsageError{Err: err}
	})

	err := cmd.Execute()
	if err == nil {
		return ExitOK
	}
	fmt.Fprintf(stderr, "Error: %v\n", err)
	var uerr *UsageError
	if errors.As(err, &uerr) {
		fmt.Fprint(stderr, cmd.UsageString())
		return ExitUsage
	}
	return ExitFailure
}

// NoArgs rejects positional arguments as a usage error.
func NoArgs(_ *cobra.Command, args []string) error {
	if len(args) > 0 {
		return Usagef("unexpected argument %q", args[0])
	}
	return nil
}
