package logger

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leandrodaf/midiprobe/sdk/contracts"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestZapLoggerFields(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	log := NewFromCore(core)

	log.Info("endpoint connected",
		log.Field().String("name", "IAC Bus 1"),
		log.Field().Int("index", 2),
		log.Field().Error("error", errors.New("boom")),
	)

	entries := logs.All()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	ctx := entries[0].ContextMap()
	if ctx["name"] != "IAC Bus 1" {
		t.Fatalf("unexpected name field: %v", ctx["name"])
	}
	if ctx["index"] != int64(2) {
		t.Fatalf("unexpected index field: %v", ctx["index"])
	}
	if ctx["error"] != "boom" {
		t.Fatalf("unexpected error field: %v", ctx["error"])
	}
}

func TestZapLoggerLevelFiltering(t *testing.T) {
	path := filepath.Join(t.TempDir(), "probe.log")
	log := NewZapLogger()
	if err := log.SetDestination(contracts.FileLog, path); err != nil {
		t.Fatalf("set destination: %v", err)
	}
	log.SetLevel(contracts.WarnLevel)
	log.Info("hidden")
	log.Warn("visible")
	if err := log.Sync(); err != nil {
		t.Fatalf("sync: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if strings.Contains(out, "hidden") {
		t.Fatalf("info entry should be filtered: %q", out)
	}
	if !strings.Contains(out, "visible") {
		t.Fatalf("warn entry missing: %q", out)
	}
}

func TestSetDestinationRequiresPath(t *testing.T) {
	if err := NewZapLogger().SetDestination(contracts.FileLog); err == nil {
		t.Fatalf("expected error without file path")
	}
}
