//go:build !windows
// +build !windows

package midiwindows

import (
	"errors"
	"runtime"

	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

// ErrUnavailable is returned when winmm is requested off Windows.
var ErrUnavailable = errors.New("winmm is only available on Windows")

// NewDriver always fails on this platform.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	options.Logger.Warn("winmm backend requested on unsupported platform",
		options.Logger.Field().String("goos", runtime.GOOS))
	return nil, ErrUnavailable
}
