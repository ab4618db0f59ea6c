//go:build unix && !darwin

package clock

import (
	"github.com/leandrodaf/midiprobe/sdk/contracts"
	"golang.org/x/sys/unix"
)

func now() contracts.HostTime {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return 0
	}
	return contracts.HostTime(ts.Nano())
}

func readTimebase() (contracts.Timebase, error) {
	var ts unix.Timespec
	if err := unix.ClockGettime(unix.CLOCK_MONOTONIC, &ts); err != nil {
		return contracts.Timebase{}, err
	}
	return contracts.NanosTimebase, nil
}
