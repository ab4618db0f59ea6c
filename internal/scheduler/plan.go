package scheduler

import (
	"math"
	"time"

	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

const (
	// MaxLead caps how far ahead of its nominal time a note is handed to the driver.
	MaxLead = 2 * time.Millisecond
	// StartDelay separates program start from the first nominal note.
	StartDelay = 500 * time.Millisecond
)

// Plan holds the integer nanosecond timing of a run. Every target is derived
// from the event index, so errors never accumulate across pairs.
type Plan struct {
	IntervalNs uint64
	GateNs     uint64
	LeadNs     uint64
	Count      int64 // 0 means unbounded
}

// NewPlan rounds the interval and gate to whole nanoseconds.
func NewPlan(intervalMs, gate float64, count int64) Plan {
	interval := uint64(math.Round(intervalMs * 1e6))
	lead := interval / 2
	if lead > uint64(MaxLead) {
		lead = uint64(MaxLead)
	}
	return Plan{
		IntervalNs: interval,
		GateNs:     uint64(math.Round(float64(interval) * gate)),
		LeadNs:     lead,
		Count:      count,
	}
}

// OnOffset is the nominal note-on offset of event i from the run start.
func (p Plan) OnOffset(i int64) uint64 {
	return uint64(i) * p.IntervalNs
}

// OffOffset is the nominal note-off offset of event i from the run start.
func (p Plan) OffOffset(i int64) uint64 {
	return p.OnOffset(i) + p.GateNs
}

// Targets converts the offsets of event i to host times relative to start.
func (p Plan) Targets(start contracts.HostTime, tb contracts.Timebase, i int64) (on, off contracts.HostTime) {
	return start + tb.FromNanos(p.OnOffset(i)), start + tb.FromNanos(p.OffOffset(i))
}

// Done reports whether event i is past the configured count.
func (p Plan) Done(i int64) bool {
	return p.Count > 0 && i >= p.Count
}
