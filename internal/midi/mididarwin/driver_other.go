//go:build !darwin
// +build !darwin

package mididarwin

import (
	"errors"
	"runtime"

	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

// ErrUnavailable is returned when CoreMIDI is requested off macOS.
var ErrUnavailable = errors.New("CoreMIDI is only available on macOS")

func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	options.Logger.Warn("CoreMIDI backend requested on unsupported platform",
		options.Logger.Field().String("goos", runtime.GOOS))
	return nil, ErrUnavailable
}
