//go:build windows

package clock

import (
	"fmt"
	"unsafe"

	"github.com/leandrodaf/midiprobe/sdk/contracts"
	"golang.org/x/sys/windows"
)

var (
	kernel32                      = windows.NewLazySystemDLL("kernel32.dll")
	procQueryPerformanceCounter   = kernel32.NewProc("QueryPerformanceCounter")
	procQueryPerformanceFrequency = kernel32.NewProc("QueryPerformanceFrequency")
)

func now() contracts.HostTime {
	var counter int64
	procQueryPerformanceCounter.Call(uintptr(unsafe.Pointer(&counter)))
	return contracts.HostTime(counter)
}

func readTimebase() (contracts.Timebase, error) {
	var freq int64
	r1, _, err := procQueryPerformanceFrequency.Call(uintptr(unsafe.Pointer(&freq)))
	if r1 == 0 {
		return contracts.Timebase{}, fmt.Errorf("QueryPerformanceFrequency failed: %v", err)
	}
	if freq <= 0 || freq > 1<<32-1 {
		return contracts.Timebase{}, fmt.Errorf("%w: frequency %d", ErrDegenerateTimebase, freq)
	}
	return contracts.Timebase{Numer: 1_000_000_000, Denom: uint32(freq)}, nil
}
