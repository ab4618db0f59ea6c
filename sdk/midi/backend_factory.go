package midi

import (
	"errors"
	"fmt"
	"runtime"
	"sort"
	"strings"

	"github.com/leandrodaf/midiprobe/internal/midi/mididarwin"
	"github.com/leandrodaf/midiprobe/internal/midi/midirtmidi"
	"github.com/leandrodaf/midiprobe/internal/midi/midiserial"
	"github.com/leandrodaf/midiprobe/internal/midi/midiwindows"
	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

// ErrUnsupportedBackend is returned for an unknown backend name or a platform without a default.
var ErrUnsupportedBackend = errors.New("unsupported MIDI backend")

// Initializer builds a driver from resolved options.
type Initializer func(*contracts.ClientOptions) (contracts.Driver, error)

// backendInitializers maps backend names to driver initializers.
var backendInitializers = map[string]Initializer{
	mididarwin.BackendName:  mididarwin.NewDriver,  // CoreMIDI, macOS.
	midiwindows.BackendName: midiwindows.NewDriver, // winmm, Windows.
	midirtmidi.BackendName:  midirtmidi.NewDriver,  // rtmidi over ALSA, Linux.
	midiserial.BackendName:  midiserial.NewDriver,  // raw DIN MIDI on a serial port.
}

// platformBackends maps GOOS values to their default backend.
var platformBackends = map[string]string{
	"darwin":  mididarwin.BackendName,
	"windows": midiwindows.BackendName,
	"linux":   midirtmidi.BackendName,
}

// DefaultBackend returns the backend used on goos when none is requested.
func DefaultBackend(goos string) (string, bool) {
	name, ok := platformBackends[goos]
	return name, ok
}

// Backends lists the registered backend names.
func Backends() []string {
	names := make([]string, 0, len(backendInitializers))
	for name := range backendInitializers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// NewBackend initializes the backend named in opts, or the platform default.
func NewBackend(opts *contracts.ClientOptions) (contracts.Driver, error) {
	name := strings.ToLower(strings.TrimSpace(opts.Backend))
	if name == "" {
		var ok bool
		if name, ok = DefaultBackend(runtime.GOOS); !ok {
			return nil, fmt.Errorf("%w: no default for %s (choose one of %s)",
				ErrUnsupportedBackend, runtime.GOOS, strings.Join(Backends(), ", "))
		}
	}
	initializer, exists := backendInitializers[name]
	if !exists {
		return nil, fmt.Errorf("%w: %q (choose one of %s)", ErrUnsupportedBackend, name, strings.Join(Backends(), ", "))
	}
	opts.Logger.Debug("initializing MIDI backend", opts.Logger.Field().String("backend", name))
	return initializer(opts)
}
