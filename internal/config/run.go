package config

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/leandrodaf/midiprobe/internal/stats"
)

// Built-in defaults shared by the flags and the config template.
const (
	DefaultChannel     = 1
	DefaultNote        = 60
	DefaultVelocity    = 100
	DefaultIntervalMs  = 500.0
	DefaultGate        = 0.5
	DefaultReportEvery = 100

	MinIntervalMs = 0.01
	MaxIntervalMs = 3_600_000.0
)

// ValidationError reports a flag value outside its accepted range.
type ValidationError struct {
	Flag     string
	Value    string
	Expected string
}

func (e *ValidationError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("missing %s (%s)", e.Flag, e.Expected)
	}
	return fmt.Sprintf("invalid %s: %s (expected %s)", e.Flag, e.Value, e.Expected)
}

func invalid(flag string, value any, expected string) *ValidationError {
	return &ValidationError{Flag: flag, Value: fmt.Sprint(value), Expected: expected}
}

// PulseConfig is the immutable configuration of a midipulse run.
type PulseConfig struct {
	Dest        string
	Channel     int
	Note        int
	Velocity    int
	IntervalMs  float64
	Gate        float64
	Count       int64
	ReportEvery int
	Verbose     bool
	List        bool
	Output      string
}

// DefaultPulseConfig returns the built-in sender defaults.
func DefaultPulseConfig() PulseConfig {
	return PulseConfig{
		Channel:     DefaultChannel,
		Note:        DefaultNote,
		Velocity:    DefaultVelocity,
		IntervalMs:  DefaultIntervalMs,
		Gate:        DefaultGate,
		ReportEvery: DefaultReportEvery,
		Output:      stats.FormatText,
	}
}

// Validate checks every field against its range. A destination is only
// required when not listing.
func (c PulseConfig) Validate() error {
	if c.Channel < 1 || c.Channel > 16 {
		return invalid("--channel", c.Channel, "1-16")
	}
	if c.Note < 0 || c.Note > 127 {
		return invalid("--note", c.Note, "0-127")
	}
	if c.Velocity < 1 || c.Velocity > 127 {
		return invalid("--velocity", c.Velocity, "1-127")
	}
	if !(c.IntervalMs >= MinIntervalMs && c.IntervalMs <= MaxIntervalMs) {
		return invalid("--interval-ms", strconv.FormatFloat(c.IntervalMs, 'g', -1, 64), "0.01-3600000 ms")
	}
	if !(c.Gate >= 0 && c.Gate <= 1) {
		return invalid("--gate", strconv.FormatFloat(c.Gate, 'g', -1, 64), "0.0-1.0")
	}
	if c.Count < 0 {
		return invalid("--count", c.Count, ">= 0")
	}
	if c.ReportEvery < 0 {
		return invalid("--report-every", c.ReportEvery, ">= 0")
	}
	if err := validateOutput(c.Output); err != nil {
		return err
	}
	if !c.List && strings.TrimSpace(c.Dest) == "" {
		return &ValidationError{Flag: "destination", Expected: "use --dest <name|index>"}
	}
	return nil
}

// StatsConfig is the immutable configuration of a midistats run.
type StatsConfig struct {
	Dest        string
	Channel     int
	Count       int64
	ReportEvery int
	List        bool
	Output      string
}

// DefaultStatsConfig returns the built-in receiver defaults.
func DefaultStatsConfig() StatsConfig {
	return StatsConfig{
		Channel:     DefaultChannel,
		ReportEvery: DefaultReportEvery,
		Output:      stats.FormatText,
	}
}

// Validate checks every field against its range. A source is only required
// when not listing.
func (c StatsConfig) Validate() error {
	if c.Channel < 1 || c.Channel > 16 {
		return invalid("--channel", c.Channel, "1-16")
	}
	if c.Count < 0 {
		return invalid("--count", c.Count, ">= 0")
	}
	if c.ReportEvery < 1 {
		return invalid("--report-every", c.ReportEvery, ">= 1")
	}
	if err := validateOutput(c.Output); err != nil {
		return err
	}
	if !c.List && strings.TrimSpace(c.Dest) == "" {
		return &ValidationError{Flag: "source", Expected: "use --dest <name|index>"}
	}
	return nil
}

func validateOutput(format string) error {
	switch strings.ToLower(format) {
	case stats.FormatText, stats.FormatJSON:
		return nil
	}
	return invalid("--output", format, "text or json")
}
