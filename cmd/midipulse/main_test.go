package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leandrodaf/midiprobe/internal/clock"
	"github.com/leandrodaf/midiprobe/internal/midi/miditest"
	"github.com/leandrodaf/midiprobe/internal/wire"
	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

func newTestDriver(t *testing.T) *miditest.Driver {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	clk, err := clock.New()
	if err != nil {
		t.Fatalf("clock: %v", err)
	}
	return miditest.NewDriver(clk, []string{"IAC Bus 1", "Loopback"}, nil)
}

func factoryFor(drv contracts.Driver) func(...contracts.Option) (contracts.Driver, error) {
	return func(...contracts.Option) (contracts.Driver, error) { return drv, nil }
}

func execute(t *testing.T, drv contracts.Driver, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), append(args, "--log-level", "error"), &stdout, &stderr, factoryFor(drv))
	return code, stdout.String(), stderr.String()
}

func TestListDestinations(t *testing.T) {
	drv := newTestDriver(t)
	code, stdout, _ := execute(t, drv, "--list")
	if code != 0 {
		t.Fatalf("exit %d", code)
	}
	want := "MIDI destinations: 2\n  [0] IAC Bus 1 (manufacturer=miditest)\n  [1] Loopback (manufacturer=miditest)\n"
	if stdout != want {
		t.Fatalf("unexpected listing:\n%s", stdout)
	}
	if len(drv.Outputs()) != 0 || !drv.Closed() {
		t.Fatalf("listing must not open outputs and must close the driver")
	}
}

func TestPulseRun(t *testing.T) {
	drv := newTestDriver(t)
	code, stdout, stderr := execute(t, drv, "-d", "loop", "-i", "1", "-k", "3", "-c", "2", "-n", "64", "--gate", "0.25")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	header := "Destination [1]: Loopback | channel=2 note=64 velocity=100 interval=1.000ms gate=0.250 count=3 lead=0.500ms"
	if lines[0] != header {
		t.Fatalf("header = %q", lines[0])
	}
	if lines[1] != "Press Ctrl+C to stop." {
		t.Fatalf("missing stop hint: %q", lines[1])
	}
	if !strings.HasPrefix(lines[len(lines)-1], "note_on=3 late(ms): mean=") {
		t.Fatalf("missing final summary: %q", lines[len(lines)-1])
	}

	sent := drv.Outputs()[0].Sent()
	if len(sent) != 8 {
		t.Fatalf("expected 3 pairs and 2 cleanup messages, got %d", len(sent))
	}
	if sent[0].Msg != wire.NoteOn(2, 64, 100) || sent[7].Msg != wire.AllSoundOff(2) {
		t.Fatalf("unexpected messages %+v ... %+v", sent[0].Msg, sent[7].Msg)
	}
}

func TestPulseConfigFileDefaults(t *testing.T) {
	drv := newTestDriver(t)
	path := filepath.Join(t.TempDir(), "midiprobe.toml")
	data := "[pulse]\ndest = \"IAC\"\ninterval-ms = 2.0\ncount = 5\nnote = 10\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	// flags win over the file
	code, stdout, stderr := execute(t, drv, "--config", path, "--count", "2")
	if code != 0 {
		t.Fatalf("exit %d: %s", code, stderr)
	}
	if !strings.HasPrefix(stdout, "Destination [0]: IAC Bus 1 | channel=1 note=10 velocity=100 interval=2.000ms gate=0.500 count=2 ") {
		t.Fatalf("config file not applied:\n%s", stdout)
	}
}

func TestPulseUsageErrors(t *testing.T) {
	tests := [][]string{
		{"-d", "0", "--channel", "17"},
		{"-d", "0", "--velocity", "0"},
		{"-d", "0", "--interval-ms", "abc"},
		{"-d", "0", "--bogus"},
		{"-d", "0", "--output", "yaml"},
		{"--count", "1"},
		{"-d", "0", "extra"},
		{"-d", "0", "--config", "/nonexistent/midiprobe.toml"},
	}
	for _, args := range tests {
		drv := newTestDriver(t)
		code, _, stderr := execute(t, drv, args...)
		if code != 2 {
			t.Fatalf("%v: exit %d, want 2", args, code)
		}
		if !strings.Contains(stderr, "Usage:") {
			t.Fatalf("%v: usage not printed:\n%s", args, stderr)
		}
		if len(drv.Outputs()) != 0 {
			t.Fatalf("%v: nothing may be opened on a usage error", args)
		}
	}
}

func TestPulseResolutionError(t *testing.T) {
	drv := newTestDriver(t)
	code, stdout, stderr := execute(t, drv, "--dest", "Bus 9")
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr, "no matching MIDI endpoint") || strings.Contains(stderr, "Usage:") {
		t.Fatalf("unexpected stderr:\n%s", stderr)
	}
	if stdout != "" || len(drv.Outputs()) != 0 {
		t.Fatalf("nothing may be printed or opened before resolution succeeds")
	}
}

func TestPulseSendFailureExitsOne(t *testing.T) {
	drv := newTestDriver(t)
	drv.FailAfter = 3
	code, stdout, stderr := execute(t, drv, "-d", "0", "-i", "1", "-k", "10")
	if code != 1 {
		t.Fatalf("exit %d, want 1", code)
	}
	if !strings.Contains(stderr, "send note-off #2") {
		t.Fatalf("unexpected stderr:\n%s", stderr)
	}
	if !strings.Contains(stdout, "note_on=2 late(ms):") {
		t.Fatalf("final summary missing:\n%s", stdout)
	}
}

func TestPulseClientNameFromConfigFile(t *testing.T) {
	drv := newTestDriver(t)
	path := filepath.Join(t.TempDir(), "midiprobe.toml")
	if err := os.WriteFile(path, []byte("[driver]\nclient-name = \"bench-rig\"\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}

	var got []string
	factory := func(opts ...contracts.Option) (contracts.Driver, error) {
		var o contracts.ClientOptions
		for _, opt := range opts {
			opt(&o)
		}
		got = append(got, o.CoreMIDIConfig.ClientName)
		return drv, nil
	}
	list := func(args ...string) {
		var stdout, stderr bytes.Buffer
		if code := run(context.Background(), args, &stdout, &stderr, factory); code != 0 {
			t.Fatalf("%v: exit %d: %s", args, code, stderr.String())
		}
	}

	list("--list")
	list("--list", "--config", path)
	list("--list", "--config", path, "--client-name", "cli-rig")

	want := []string{"midipulse", "bench-rig", "cli-rig"}
	if len(got) != len(want) {
		t.Fatalf("client names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("client names = %v, want %v", got, want)
		}
	}
}
