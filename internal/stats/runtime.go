package stats

import "github.com/leandrodaf/midiprobe/sdk/contracts"

// Series labels used in reports.
const (
	EffectiveLabel     = "effective_event_time"
	TimestampOnlyLabel = "timestamp_only"
)

// RuntimeState aggregates everything the receiver measures. It has a single
// writer, the input callback, and is not safe for concurrent use.
type RuntimeState struct {
	Events        uint64
	Timestamped   uint64
	Untimestamped uint64

	// Effective uses the driver timestamp when present and the arrival time otherwise.
	Effective     Series
	TimestampOnly Series

	// ArrivalVsTimestamp holds arrival minus driver timestamp, i.e. delivery latency.
	ArrivalVsTimestamp Accumulator

	timebase contracts.Timebase
}

// NewRuntimeState returns an empty state converting ticks with tb.
func NewRuntimeState(tb contracts.Timebase) *RuntimeState {
	return &RuntimeState{
		Effective:     NewSeries(tb),
		TimestampOnly: NewSeries(tb),
		timebase:      tb,
	}
}

// Record registers one qualifying event. A zero timestamp means the driver
// did not stamp the packet.
func (r *RuntimeState) Record(timestamp, arrival contracts.HostTime) {
	r.Events++
	effective := arrival
	if timestamp != 0 {
		effective = timestamp
		r.Timestamped++
		r.TimestampOnly.Add(timestamp)
		r.ArrivalVsTimestamp.Add(r.timebase.DeltaNanos(arrival, timestamp))
	} else {
		r.Untimestamped++
	}
	r.Effective.Add(effective)
}

// TimestampRatio returns the percentage of events carrying a driver timestamp.
func (r *RuntimeState) TimestampRatio() float64 {
	if r.Events == 0 {
		return 0
	}
	return float64(r.Timestamped) / float64(r.Events) * 100
}

// RuntimeSummary is a snapshot of a RuntimeState.
type RuntimeSummary struct {
	Events             uint64        `json:"events"`
	Timestamped        uint64        `json:"timestamped"`
	Untimestamped      uint64        `json:"untimestamped"`
	TimestampRatio     float64       `json:"ts_ratio"`
	Effective          SeriesSummary `json:"effective"`
	TimestampOnly      SeriesSummary `json:"timestamp_only"`
	ArrivalVsTimestamp Summary       `json:"arrival_vs_timestamp"`
}

// Summary snapshots the state.
func (r *RuntimeState) Summary() RuntimeSummary {
	return RuntimeSummary{
		Events:             r.Events,
		Timestamped:        r.Timestamped,
		Untimestamped:      r.Untimestamped,
		TimestampRatio:     r.TimestampRatio(),
		Effective:          r.Effective.Summary(EffectiveLabel),
		TimestampOnly:      r.TimestampOnly.Summary(TimestampOnlyLabel),
		ArrivalVsTimestamp: r.ArrivalVsTimestamp.Summary(),
	}
}
