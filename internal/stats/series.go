package stats

import "github.com/leandrodaf/midiprobe/sdk/contracts"

// Series derives intervals from a stream of event timestamps. The first
// interval becomes the reference for jitter and is never replaced.
type Series struct {
	Interval Accumulator
	Jitter   Accumulator

	timebase     contracts.Timebase
	havePrevious bool
	previous     contracts.HostTime
	haveRef      bool
	referenceNs  int64
	events       uint64
	intervals    uint64
}

// NewSeries returns an empty series converting ticks with tb.
func NewSeries(tb contracts.Timebase) Series {
	return Series{timebase: tb}
}

// Add records an event at ts.
func (s *Series) Add(ts contracts.HostTime) {
	s.events++
	if !s.havePrevious {
		s.havePrevious = true
		s.previous = ts
		return
	}

	interval := s.timebase.DeltaNanos(ts, s.previous)
	s.previous = ts
	if !s.haveRef {
		s.referenceNs = interval
		s.haveRef = true
	}

	s.Interval.Add(interval)
	s.Jitter.Add(interval - s.referenceNs)
	s.intervals++
}

// Events returns the number of timestamps seen.
func (s *Series) Events() uint64 { return s.events }

// Intervals returns the number of intervals derived, one less than Events once started.
func (s *Series) Intervals() uint64 { return s.intervals }

// Reference returns the frozen reference interval and whether it is set.
func (s *Series) Reference() (int64, bool) { return s.referenceNs, s.haveRef }

// SeriesSummary is a millisecond snapshot of a Series.
type SeriesSummary struct {
	Label       string  `json:"label"`
	Intervals   uint64  `json:"intervals"`
	Interval    Summary `json:"interval"`
	ReferenceMs float64 `json:"reference_ms"`
	Jitter      Summary `json:"jitter"`
}

// Summary snapshots the series under label.
func (s *Series) Summary(label string) SeriesSummary {
	return SeriesSummary{
		Label:       label,
		Intervals:   s.intervals,
		Interval:    s.Interval.Summary(),
		ReferenceMs: nsToMs(float64(s.referenceNs)),
		Jitter:      s.Jitter.Summary(),
	}
}
