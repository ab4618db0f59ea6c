package contracts

import "math/bits"

// HostTime is a raw tick count of the host's monotonic clock. It is only
// meaningful relative to another HostTime taken in the same process.
type HostTime uint64

// Timebase is the tick to nanosecond ratio: ns = ticks * Numer / Denom.
type Timebase struct {
	Numer uint32
	Denom uint32
}

// NanosTimebase is the identity ratio used by clocks that already count nanoseconds.
var NanosTimebase = Timebase{Numer: 1, Denom: 1}

// Valid reports whether both terms of the ratio are non-zero.
func (tb Timebase) Valid() bool {
	return tb.Numer != 0 && tb.Denom != 0
}

// ToNanos converts a tick delta to nanoseconds.
func (tb Timebase) ToNanos(ticks HostTime) uint64 {
	return mulDiv(uint64(ticks), uint64(tb.Numer), uint64(tb.Denom))
}

// FromNanos converts nanoseconds to a tick delta.
func (tb Timebase) FromNanos(ns uint64) HostTime {
	return HostTime(mulDiv(ns, uint64(tb.Denom), uint64(tb.Numer)))
}

// DeltaNanos returns the signed distance a - b in nanoseconds.
func (tb Timebase) DeltaNanos(a, b HostTime) int64 {
	if a >= b {
		return int64(tb.ToNanos(a - b))
	}
	return -int64(tb.ToNanos(b - a))
}

// mulDiv computes v*m/d with a 128-bit intermediate product and saturates
// when the quotient does not fit in 64 bits.
func mulDiv(v, m, d uint64) uint64 {
	hi, lo := bits.Mul64(v, m)
	if hi >= d {
		return ^uint64(0)
	}
	q, _ := bits.Div64(hi, lo, d)
	return q
}

// Clock reads the host's monotonic tick counter.
type Clock interface {
	Now() HostTime
	Timebase() Timebase
}
