// Package stats keeps constant-memory running statistics over nanosecond samples.
package stats

import "math"

// Accumulator tracks count, min, max, sum, sum of squares and sum of absolute
// values. Raw samples are never stored. The zero value is ready to use.
type Accumulator struct {
	count  uint64
	min    int64
	max    int64
	sum    float64
	sumSq  float64
	sumAbs float64
}

// Add records one sample in nanoseconds.
func (a *Accumulator) Add(x int64) {
	if a.count == 0 || x < a.min {
		a.min = x
	}
	if a.count == 0 || x > a.max {
		a.max = x
	}
	v := float64(x)
	a.sum += v
	a.sumSq += v * v
	a.sumAbs += math.Abs(v)
	a.count++
}

// Count returns the number of samples.
func (a *Accumulator) Count() uint64 { return a.count }

// Min returns the smallest sample, zero when empty.
func (a *Accumulator) Min() int64 { return a.min }

// Max returns the largest sample, zero when empty.
func (a *Accumulator) Max() int64 { return a.max }

// Mean returns the signed mean.
func (a *Accumulator) Mean() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sum / float64(a.count)
}

// AbsMean returns the mean magnitude, which unlike Mean cannot cancel toward zero.
func (a *Accumulator) AbsMean() float64 {
	if a.count == 0 {
		return 0
	}
	return a.sumAbs / float64(a.count)
}

// Std returns the population standard deviation. Negative variance from
// floating point cancellation is clamped to zero.
func (a *Accumulator) Std() float64 {
	if a.count == 0 {
		return 0
	}
	mean := a.Mean()
	variance := a.sumSq/float64(a.count) - mean*mean
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance)
}

// Summary is a millisecond snapshot of an Accumulator.
type Summary struct {
	Count  uint64  `json:"count"`
	MeanMs float64 `json:"mean_ms"`
	AbsMs  float64 `json:"abs_mean_ms"`
	StdMs  float64 `json:"std_ms"`
	MinMs  float64 `json:"min_ms"`
	MaxMs  float64 `json:"max_ms"`
}

// Summary converts the current values to milliseconds.
func (a *Accumulator) Summary() Summary {
	return Summary{
		Count:  a.count,
		MeanMs: nsToMs(a.Mean()),
		AbsMs:  nsToMs(a.AbsMean()),
		StdMs:  nsToMs(a.Std()),
		MinMs:  nsToMs(float64(a.min)),
		MaxMs:  nsToMs(float64(a.max)),
	}
}

func nsToMs(ns float64) float64 {
	return ns / 1e6
}
