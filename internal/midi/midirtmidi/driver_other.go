//go:build !linux
// +build !linux

package midirtmidi

import (
	"errors"
	"runtime"

	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

// ErrUnavailable is returned when rtmidi is requested off Linux.
var ErrUnavailable = errors.New("the rtmidi backend is only built on Linux")

// NewDriver always fails on this platform.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	options.Logger.Warn("rtmidi backend requested on unsupported platform",
		options.Logger.Field().String("goos", runtime.GOOS))
	return nil, ErrUnavailable
}
