package stats

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
)

// Report formats understood by NewReporter.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Reporter writes sender and receiver statistics.
type Reporter interface {
	Pulse(noteOns uint64, lateness *Accumulator) error
	Runtime(state *RuntimeState, final bool) error
}

// NewReporter returns the reporter for format.
func NewReporter(format string, w io.Writer) (Reporter, error) {
	switch strings.ToLower(format) {
	case FormatText, "":
		return &TextReporter{W: w}, nil
	case FormatJSON:
		return &JSONReporter{W: w}, nil
	}
	return nil, fmt.Errorf("unsupported report format %q (expected text or json)", format)
}

// TextReporter writes one human readable line per report item. Field order is stable.
type TextReporter struct {
	W io.Writer
}

// Pulse writes the sender lateness line. Nothing is written before the first note.
func (t *TextReporter) Pulse(noteOns uint64, lateness *Accumulator) error {
	if lateness.Count() == 0 {
		return nil
	}
	s := lateness.Summary()
	_, err := fmt.Fprintf(t.W, "note_on=%d late(ms): mean=%.4f abs_mean=%.4f min=%.4f max=%.4f\n",
		noteOns, s.MeanMs, s.AbsMs, s.MinMs, s.MaxMs)
	return err
}

// Runtime writes the receiver report block.
func (t *TextReporter) Runtime(state *RuntimeState, final bool) error {
	var sb strings.Builder

	kind := "report"
	if final {
		kind = "final"
	}
	fmt.Fprintf(&sb, "%s events=%d timestamped=%d untimestamped=%d ts_ratio=%.2f%%\n",
		kind, state.Events, state.Timestamped, state.Untimestamped, state.TimestampRatio())

	writeSeries(&sb, EffectiveLabel, &state.Effective)
	writeSeries(&sb, TimestampOnlyLabel, &state.TimestampOnly)

	if state.ArrivalVsTimestamp.Count() == 0 {
		sb.WriteString("arrival_vs_timestamp(ms): no timestamped events\n")
	} else {
		a := state.ArrivalVsTimestamp.Summary()
		fmt.Fprintf(&sb, "arrival_vs_timestamp(ms): mean=%.4f abs_mean=%.4f std=%.4f min=%.4f max=%.4f samples=%d\n",
			a.MeanMs, a.AbsMs, a.StdMs, a.MinMs, a.MaxMs, a.Count)
	}

	_, err := io.WriteString(t.W, sb.String())
	return err
}

func writeSeries(sb *strings.Builder, label string, series *Series) {
	if series.Interval.Count() == 0 || series.Jitter.Count() == 0 {
		fmt.Fprintf(sb, "%s intervals: insufficient data (need at least 2 events)\n", label)
		return
	}
	s := series.Summary(label)
	fmt.Fprintf(sb, "%s intervals=%d interval(ms): mean=%.4f std=%.4f min=%.4f max=%.4f"+
		" | jitter_vs_first(ms): ref=%.4f mean=%.4f abs_mean=%.4f std=%.4f min=%.4f max=%.4f\n",
		label, s.Intervals,
		s.Interval.MeanMs, s.Interval.StdMs, s.Interval.MinMs, s.Interval.MaxMs,
		s.ReferenceMs, s.Jitter.MeanMs, s.Jitter.AbsMs, s.Jitter.StdMs, s.Jitter.MinMs, s.Jitter.MaxMs)
}

// JSONReporter writes one JSON object per report.
type JSONReporter struct {
	W io.Writer
}

type pulseRecord struct {
	Kind     string  `json:"kind"`
	NoteOns  uint64  `json:"note_on"`
	Lateness Summary `json:"late"`
}

type runtimeRecord struct {
	Kind string `json:"kind"`
	RuntimeSummary
}

// Pulse writes the sender lateness object.
func (j *JSONReporter) Pulse(noteOns uint64, lateness *Accumulator) error {
	if lateness.Count() == 0 {
		return nil
	}
	return json.NewEncoder(j.W).Encode(pulseRecord{Kind: "pulse", NoteOns: noteOns, Lateness: lateness.Summary()})
}

// Runtime writes the receiver report object.
func (j *JSONReporter) Runtime(state *RuntimeState, final bool) error {
	kind := "report"
	if final {
		kind = "final"
	}
	return json.NewEncoder(j.W).Encode(runtimeRecord{Kind: kind, RuntimeSummary: state.Summary()})
}
