// Package clock adapts the host's raw monotonic tick counter to contracts.Clock.
//
// The conversion ratio is read once by New; every other package works in
// contracts.HostTime and converts through contracts.Timebase.
package clock

import (
	"errors"
	"fmt"

	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

// ErrDegenerateTimebase is returned when the platform reports a zero ratio term.
var ErrDegenerateTimebase = errors.New("degenerate host timebase")

type hostClock struct {
	timebase contracts.Timebase
}

func (c *hostClock) Now() contracts.HostTime { return now() }

func (c *hostClock) Timebase() contracts.Timebase { return c.timebase }

// New returns the platform clock. It fails when the platform ratio is unusable,
// since no timing guarantee can be given afterwards.
func New() (contracts.Clock, error) {
	tb, err := readTimebase()
	if err != nil {
		return nil, err
	}
	if !tb.Valid() {
		return nil, fmt.Errorf("%w: numer=%d denom=%d", ErrDegenerateTimebase, tb.Numer, tb.Denom)
	}
	return &hostClock{timebase: tb}, nil
}
