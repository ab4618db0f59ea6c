package stats

import (
	"bytes"
	"encoding/json"
	"math"
	"math/rand"
	"strings"
	"testing"

	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

const ms = int64(1_000_000)

func TestAccumulatorBasics(t *testing.T) {
	var a Accumulator
	for _, x := range []int64{-2 * ms, 0, 2 * ms, 4 * ms} {
		a.Add(x)
	}
	if a.Count() != 4 {
		t.Fatalf("count = %d", a.Count())
	}
	if a.Min() != -2*ms || a.Max() != 4*ms {
		t.Fatalf("min/max = %d/%d", a.Min(), a.Max())
	}
	if a.Mean() != float64(ms) {
		t.Fatalf("mean = %f", a.Mean())
	}
	if a.AbsMean() != float64(2*ms) {
		t.Fatalf("abs mean = %f", a.AbsMean())
	}
	// population std of {-2,0,2,4} ms is sqrt(5) ms
	if got, want := a.Std(), math.Sqrt(5)*float64(ms); math.Abs(got-want) > 1 {
		t.Fatalf("std = %f, want %f", got, want)
	}
}

func TestAccumulatorEmpty(t *testing.T) {
	var a Accumulator
	if a.Mean() != 0 || a.Std() != 0 || a.AbsMean() != 0 {
		t.Fatalf("empty accumulator must report zeros")
	}
}

func TestAccumulatorInvariants(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for run := 0; run < 50; run++ {
		var a Accumulator
		n := 1 + rng.Intn(500)
		base := rng.Int63n(1_000_000_000)
		for i := 0; i < n; i++ {
			a.Add(base + rng.Int63n(2*ms) - ms)
		}
		mean := a.Mean()
		if float64(a.Min()) > mean || mean > float64(a.Max()) {
			t.Fatalf("run %d: mean %f outside [%d, %d]", run, mean, a.Min(), a.Max())
		}
		if a.Std() < 0 || math.IsNaN(a.Std()) {
			t.Fatalf("run %d: invalid std %f", run, a.Std())
		}
	}
}

func TestConstantSamplesStd(t *testing.T) {
	var small Accumulator
	for i := 0; i < 1000; i++ {
		small.Add(3_333)
	}
	if small.Std() != 0 {
		t.Fatalf("std of constant samples = %f", small.Std())
	}

	// squares above 2^53 lose precision; the variance clamp keeps std finite
	var large Accumulator
	for i := 0; i < 1000; i++ {
		large.Add(333_333_333)
	}
	if std := large.Std(); math.IsNaN(std) || std < 0 || std > 1000 {
		t.Fatalf("std of large constant samples = %f", std)
	}
}

func TestSeriesJitterAgainstFirstInterval(t *testing.T) {
	s := NewSeries(contracts.NanosTimebase)
	for _, ts := range []int64{0, 10 * ms, 20 * ms, 31 * ms, 40 * ms} {
		s.Add(contracts.HostTime(ts + 1))
	}
	if s.Events() != 5 || s.Intervals() != 4 {
		t.Fatalf("events=%d intervals=%d", s.Events(), s.Intervals())
	}
	ref, ok := s.Reference()
	if !ok || ref != 10*ms {
		t.Fatalf("reference = %d (%v)", ref, ok)
	}
	if s.Jitter.Min() != -ms || s.Jitter.Max() != ms {
		t.Fatalf("jitter min/max = %d/%d", s.Jitter.Min(), s.Jitter.Max())
	}
	if s.Jitter.Mean() != 0 {
		t.Fatalf("jitter mean = %f", s.Jitter.Mean())
	}
	if s.Jitter.AbsMean() != float64(ms)/2 {
		t.Fatalf("jitter abs mean = %f", s.Jitter.AbsMean())
	}
	if s.Interval.Min() != 9*ms || s.Interval.Max() != 11*ms {
		t.Fatalf("interval min/max = %d/%d", s.Interval.Min(), s.Interval.Max())
	}
}

func TestSeriesReferenceUsesTimebase(t *testing.T) {
	tb := contracts.Timebase{Numer: 125, Denom: 3}
	s := NewSeries(tb)
	s.Add(1)
	s.Add(1 + 240_000) // 10ms in 41.67ns ticks
	ref, _ := s.Reference()
	if ref != 10*ms {
		t.Fatalf("reference = %d, want %d", ref, 10*ms)
	}
}

func TestRuntimeStateRecord(t *testing.T) {
	r := NewRuntimeState(contracts.NanosTimebase)
	// three stamped events delivered 1ms late, then one without a timestamp
	for i := int64(1); i <= 3; i++ {
		ts := contracts.HostTime(i * 10 * ms)
		r.Record(ts, ts+contracts.HostTime(ms))
	}
	r.Record(0, contracts.HostTime(41*ms))

	if r.Events != 4 || r.Timestamped != 3 || r.Untimestamped != 1 {
		t.Fatalf("counts = %d/%d/%d", r.Events, r.Timestamped, r.Untimestamped)
	}
	if r.TimestampRatio() != 75 {
		t.Fatalf("ratio = %f", r.TimestampRatio())
	}
	if r.TimestampOnly.Intervals() != 2 {
		t.Fatalf("timestamp-only intervals = %d", r.TimestampOnly.Intervals())
	}
	if r.Effective.Intervals() != 3 {
		t.Fatalf("effective intervals = %d", r.Effective.Intervals())
	}
	if r.ArrivalVsTimestamp.Count() != 3 || r.ArrivalVsTimestamp.Mean() != float64(ms) {
		t.Fatalf("arrival lateness = %d samples mean %f", r.ArrivalVsTimestamp.Count(), r.ArrivalVsTimestamp.Mean())
	}
	// last effective interval: arrival 41ms minus stamped 30ms
	if r.Effective.Interval.Max() != 11*ms {
		t.Fatalf("effective max interval = %d", r.Effective.Interval.Max())
	}
}

func TestTextReporterRuntime(t *testing.T) {
	r := NewRuntimeState(contracts.NanosTimebase)
	var buf bytes.Buffer
	rep := &TextReporter{W: &buf}

	if err := rep.Runtime(r, false); err != nil {
		t.Fatalf("report: %v", err)
	}
	want := strings.Join([]string{
		"report events=0 timestamped=0 untimestamped=0 ts_ratio=0.00%",
		"effective_event_time intervals: insufficient data (need at least 2 events)",
		"timestamp_only intervals: insufficient data (need at least 2 events)",
		"arrival_vs_timestamp(ms): no timestamped events",
		"",
	}, "\n")
	if buf.String() != want {
		t.Fatalf("unexpected empty report:\n%s", buf.String())
	}

	for _, ts := range []int64{10, 20, 31} {
		r.Record(contracts.HostTime(ts*ms), contracts.HostTime(ts*ms+ms/2))
	}
	buf.Reset()
	if err := rep.Runtime(r, true); err != nil {
		t.Fatalf("report: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 4 {
		t.Fatalf("expected 4 lines, got %d:\n%s", len(lines), buf.String())
	}
	if lines[0] != "final events=3 timestamped=3 untimestamped=0 ts_ratio=100.00%" {
		t.Fatalf("header = %q", lines[0])
	}
	wantSeries := "timestamp_only intervals=2 interval(ms): mean=10.5000 std=0.5000 min=10.0000 max=11.0000" +
		" | jitter_vs_first(ms): ref=10.0000 mean=0.5000 abs_mean=0.5000 std=0.5000 min=0.0000 max=1.0000"
	if lines[2] != wantSeries {
		t.Fatalf("series line = %q", lines[2])
	}
	if lines[3] != "arrival_vs_timestamp(ms): mean=0.5000 abs_mean=0.5000 std=0.0000 min=0.5000 max=0.5000 samples=3" {
		t.Fatalf("lateness line = %q", lines[3])
	}
}

func TestTextReporterPulse(t *testing.T) {
	var a Accumulator
	var buf bytes.Buffer
	rep := &TextReporter{W: &buf}
	if err := rep.Pulse(0, &a); err != nil || buf.Len() != 0 {
		t.Fatalf("empty pulse report should print nothing: %q %v", buf.String(), err)
	}
	a.Add(-ms / 2)
	a.Add(ms / 2)
	if err := rep.Pulse(2, &a); err != nil {
		t.Fatalf("pulse: %v", err)
	}
	want := "note_on=2 late(ms): mean=0.0000 abs_mean=0.5000 min=-0.5000 max=0.5000\n"
	if buf.String() != want {
		t.Fatalf("pulse line = %q", buf.String())
	}
}

func TestJSONReporter(t *testing.T) {
	rep, err := NewReporter("json", nil)
	if err != nil {
		t.Fatalf("new reporter: %v", err)
	}
	var buf bytes.Buffer
	rep.(*JSONReporter).W = &buf

	r := NewRuntimeState(contracts.NanosTimebase)
	r.Record(contracts.HostTime(10*ms), contracts.HostTime(11*ms))
	if err := rep.Runtime(r, true); err != nil {
		t.Fatalf("runtime: %v", err)
	}
	var decoded map[string]any
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid json %q: %v", buf.String(), err)
	}
	if decoded["kind"] != "final" || decoded["events"] != float64(1) {
		t.Fatalf("unexpected record: %v", decoded)
	}
	if _, ok := decoded["final"]; ok {
		t.Fatalf("report kind must be carried by the kind field only: %s", buf.String())
	}
}

func TestNewReporterRejectsUnknownFormat(t *testing.T) {
	if _, err := NewReporter("xml", nil); err == nil {
		t.Fatalf("expected error for unknown format")
	}
}
