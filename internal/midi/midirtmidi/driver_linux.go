//go:build linux
// +build linux

package midirtmidi

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midiprobe/internal/clock"
	"github.com/leandrodaf/midiprobe/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
	"gitlab.com/gomidi/midi/v2/drivers"
	"gitlab.com/gomidi/midi/v2/drivers/rtmididrv"
	"go.uber.org/multierr"
)

// ErrInvalidEndpoint is returned for an index outside the port list.
var ErrInvalidEndpoint = errors.New("invalid MIDI endpoint")

// Driver wraps one rtmidi driver instance.
type Driver struct {
	logger contracts.Logger
	clock  contracts.Clock
	drv    *rtmididrv.Driver
}

// NewDriver opens the rtmidi driver.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	clk := options.Clock
	if clk == nil {
		var err error
		if clk, err = clock.New(); err != nil {
			return nil, err
		}
	}
	drv, err := rtmididrv.New()
	if err != nil {
		return nil, fmt.Errorf("rtmididrv: %w", err)
	}
	options.Logger.Debug("rtmidi driver created")
	return &Driver{logger: options.Logger, clock: clk, drv: drv}, nil
}

func (d *Driver) Name() string           { return BackendName }
func (d *Driver) Clock() contracts.Clock { return d.clock }

func (d *Driver) Destinations() ([]contracts.EndpointInfo, error) {
	outs, err := d.drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("list MIDI outputs: %w", err)
	}
	infos := make([]contracts.EndpointInfo, len(outs))
	for i, out := range outs {
		infos[i] = contracts.EndpointInfo{Index: i, Name: out.String(), Manufacturer: "ALSA"}
	}
	return infos, nil
}

func (d *Driver) Sources() ([]contracts.EndpointInfo, error) {
	ins, err := d.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list MIDI inputs: %w", err)
	}
	infos := make([]contracts.EndpointInfo, len(ins))
	for i, in := range ins {
		infos[i] = contracts.EndpointInfo{Index: i, Name: in.String(), Manufacturer: "ALSA"}
	}
	return infos, nil
}

func (d *Driver) OpenOutput(index int) (contracts.Output, error) {
	outs, err := d.drv.Outs()
	if err != nil {
		return nil, fmt.Errorf("list MIDI outputs: %w", err)
	}
	if index < 0 || index >= len(outs) {
		return nil, fmt.Errorf("%w: destination %d", ErrInvalidEndpoint, index)
	}
	out := outs[index]
	if err := out.Open(); err != nil {
		return nil, fmt.Errorf("open %q: %w", out.String(), err)
	}
	d.logger.Debug("output opened", d.logger.Field().String("name", out.String()))
	return &output{port: out}, nil
}

// OpenInput listens on source index. gomidi calls the listener from a single
// goroutine with milliseconds since listening began; those are rebased onto
// the host clock read when listening starts.
func (d *Driver) OpenInput(index int, handler contracts.PacketHandler) (contracts.Input, error) {
	ins, err := d.drv.Ins()
	if err != nil {
		return nil, fmt.Errorf("list MIDI inputs: %w", err)
	}
	if index < 0 || index >= len(ins) {
		return nil, fmt.Errorf("%w: source %d", ErrInvalidEndpoint, index)
	}
	port := ins[index]
	if err := port.Open(); err != nil {
		return nil, fmt.Errorf("open %q: %w", port.String(), err)
	}

	in := &input{port: port, handler: handler, clock: d.clock}
	in.anchor = d.clock.Now()
	stop, err := midi.ListenTo(port, in.receive, midi.HandleError(func(listenErr error) {
		d.logger.Warn("listener error",
			d.logger.Field().String("name", port.String()),
			d.logger.Field().Error("error", listenErr))
	}))
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("listen %q: %w", port.String(), err), port.Close())
	}
	in.stop = stop
	d.logger.Debug("input connected", d.logger.Field().String("name", port.String()))
	return in, nil
}

func (d *Driver) Close() error {
	return d.drv.Close()
}

type output struct {
	port drivers.Out
}

func (o *output) Send(msg contracts.ShortMessage, _ contracts.HostTime) error {
	return o.port.Send(msg.Bytes())
}

func (o *output) Scheduled() bool { return false }

func (o *output) Close() error { return o.port.Close() }

type input struct {
	port    drivers.In
	handler contracts.PacketHandler
	clock   contracts.Clock
	anchor  contracts.HostTime
	stop    func()

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func (in *input) receive(msg midi.Message, timestampms int32) {
	arrival := in.clock.Now()

	in.mu.Lock()
	if in.stopped {
		in.mu.Unlock()
		return
	}
	in.wg.Add(1)
	in.mu.Unlock()
	defer in.wg.Done()

	ts := in.anchor
	if timestampms > 0 {
		ts += in.clock.Timebase().FromNanos(uint64(timestampms) * 1_000_000)
	}
	in.handler(contracts.Packet{Data: msg, Timestamp: ts, Arrival: arrival})
}

// Close stops the listener, waits for a callback already running and closes the port.
func (in *input) Close() error {
	in.mu.Lock()
	if in.stopped {
		in.mu.Unlock()
		return nil
	}
	in.stopped = true
	in.mu.Unlock()

	if in.stop != nil {
		in.stop()
	}
	in.wg.Wait()
	return in.port.Close()
}
