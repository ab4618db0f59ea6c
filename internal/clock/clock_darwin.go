//go:build darwin

package clock

/*
#include <mach/mach_time.h>
*/
import "C"

import (
	"fmt"

	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

// CoreMIDI timestamps are mach_absolute_time ticks, so the clock uses the same counter.
func now() contracts.HostTime {
	return contracts.HostTime(C.mach_absolute_time())
}

func readTimebase() (contracts.Timebase, error) {
	var info C.mach_timebase_info_data_t
	if rc := C.mach_timebase_info(&info); rc != 0 {
		return contracts.Timebase{}, fmt.Errorf("mach_timebase_info failed: %d", int(rc))
	}
	return contracts.Timebase{Numer: uint32(info.numer), Denom: uint32(info.denom)}, nil
}
