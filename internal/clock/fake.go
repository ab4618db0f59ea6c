package clock

import (
	"sync"
	"time"

	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

// Fake is a manually driven clock. Each Now call advances it by Step, which
// lets tight poll loops terminate under test.
type Fake struct {
	mu       sync.Mutex
	now      contracts.HostTime
	timebase contracts.Timebase
	Step     contracts.HostTime
}

// NewFake returns a clock starting at start with the given timebase.
func NewFake(start contracts.HostTime, tb contracts.Timebase) *Fake {
	return &Fake{now: start, timebase: tb}
}

// Now returns the current tick count, then advances by Step.
func (f *Fake) Now() contracts.HostTime {
	f.mu.Lock()
	defer f.mu.Unlock()
	t := f.now
	f.now += f.Step
	return t
}

// Timebase returns the configured ratio.
func (f *Fake) Timebase() contracts.Timebase { return f.timebase }

// Advance moves the clock forward by d.
func (f *Fake) Advance(d time.Duration) {
	if d <= 0 {
		return
	}
	f.mu.Lock()
	f.now += f.timebase.FromNanos(uint64(d))
	f.mu.Unlock()
}

// Set moves the clock to t.
func (f *Fake) Set(t contracts.HostTime) {
	f.mu.Lock()
	f.now = t
	f.mu.Unlock()
}
