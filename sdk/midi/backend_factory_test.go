package midi

import (
	"errors"
	"path/filepath"
	"testing"

	"github.com/leandrodaf/midiprobe/internal/clock"
	"github.com/leandrodaf/midiprobe/internal/logger"
	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

func TestNewDriverSelectsBackendByName(t *testing.T) {
	clk := clock.NewFake(1, contracts.NanosTimebase)
	drv, err := NewDriver(
		contracts.WithBackend(" Serial "),
		contracts.WithClock(clk),
		contracts.WithLogger(logger.NewNopLogger()),
	)
	if err != nil {
		t.Fatalf("new driver: %v", err)
	}
	defer drv.Close()

	if drv.Name() != "serial" {
		t.Fatalf("unexpected backend %q", drv.Name())
	}
	if drv.Clock() != clk {
		t.Fatalf("clock option ignored")
	}
}

func TestNewDriverUnknownBackend(t *testing.T) {
	_, err := NewDriver(contracts.WithBackend("jack"), contracts.WithLogger(logger.NewNopLogger()))
	if !errors.Is(err, ErrUnsupportedBackend) {
		t.Fatalf("expected ErrUnsupportedBackend, got %v", err)
	}
}

func TestDefaultBackends(t *testing.T) {
	tests := map[string]string{"darwin": "coremidi", "windows": "winmm", "linux": "rtmidi"}
	for goos, want := range tests {
		got, ok := DefaultBackend(goos)
		if !ok || got != want {
			t.Fatalf("DefaultBackend(%s) = %q, %v", goos, got, ok)
		}
	}
	if _, ok := DefaultBackend("plan9"); ok {
		t.Fatalf("plan9 has no default backend")
	}
	if got := Backends(); len(got) != 4 || got[0] != "coremidi" || got[3] != "winmm" {
		t.Fatalf("unexpected backend list %v", got)
	}
}

func TestApplyDefaultOptions(t *testing.T) {
	opts, err := applyDefaultOptions(contracts.WithLogger(logger.NewNopLogger()))
	if err != nil {
		t.Fatalf("defaults: %v", err)
	}
	if opts.CoreMIDIConfig.ClientName != DefaultClientName || opts.SerialConfig.BaudRate != 31250 {
		t.Fatalf("unexpected defaults: %+v %+v", opts.CoreMIDIConfig, opts.SerialConfig)
	}

	opts, err = applyDefaultOptions(
		contracts.WithLogger(logger.NewNopLogger()),
		contracts.WithCoreMIDIConfig(contracts.CoreMIDIConfig{ClientName: "bench"}),
		contracts.WithSerialConfig(contracts.SerialConfig{BaudRate: 115200}),
		contracts.WithLogFile(filepath.Join(t.TempDir(), "driver.log")),
	)
	if err != nil {
		t.Fatalf("options: %v", err)
	}
	if opts.CoreMIDIConfig.ClientName != "bench" || opts.SerialConfig.BaudRate != 115200 {
		t.Fatalf("options not applied: %+v %+v", opts.CoreMIDIConfig, opts.SerialConfig)
	}
}
