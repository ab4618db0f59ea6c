//go:build darwin
// +build darwin

package mididarwin

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/leandrodaf/midiprobe/internal/clock"
	"github.com/leandrodaf/midiprobe/sdk/contracts"
	"github.com/youpy/go-coremidi"
)

// Error definitions for CoreMIDI endpoint and port handling.
var (
	ErrInvalidEndpoint     = errors.New("invalid MIDI endpoint")
	ErrCreateOutputPort    = errors.New("error creating output port")
	ErrCreateInputPort     = errors.New("error creating input port")
	ErrMIDIConnectionError = errors.New("error connecting to MIDI source")
	ErrOutputClosed        = errors.New("output closed")
)

// internalPortConnection is an interface for handling disconnection from a MIDI port.
type internalPortConnection interface {
	Disconnect()
}

// Driver talks to CoreMIDI. Packet timestamps and the clock share the
// mach_absolute_time timebase, so output is scheduled by the MIDI server.
type Driver struct {
	logger contracts.Logger
	clock  contracts.Clock
	client coremidi.Client
}

// NewDriver creates the CoreMIDI client named in options.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	clk := options.Clock
	if clk == nil {
		var err error
		if clk, err = clock.New(); err != nil {
			return nil, err
		}
	}

	client, err := coremidi.NewClient(options.CoreMIDIConfig.ClientName)
	if err != nil {
		return nil, fmt.Errorf("create CoreMIDI client: %w", err)
	}
	options.Logger.Debug("CoreMIDI client created",
		options.Logger.Field().String("client", options.CoreMIDIConfig.ClientName))

	return &Driver{logger: options.Logger, clock: clk, client: client}, nil
}

func (d *Driver) Name() string           { return BackendName }
func (d *Driver) Clock() contracts.Clock { return d.clock }

// Destinations lists CoreMIDI destinations in system order.
func (d *Driver) Destinations() ([]contracts.EndpointInfo, error) {
	dests, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI destinations: %w", err)
	}
	infos := make([]contracts.EndpointInfo, len(dests))
	for i, dest := range dests {
		infos[i] = contracts.EndpointInfo{Index: i, Name: dest.Name(), Manufacturer: dest.Manufacturer()}
	}
	return infos, nil
}

// Sources lists CoreMIDI sources in system order.
func (d *Driver) Sources() ([]contracts.EndpointInfo, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error listing MIDI sources: %w", err)
	}
	infos := make([]contracts.EndpointInfo, len(sources))
	for i, source := range sources {
		infos[i] = contracts.EndpointInfo{Index: i, Name: source.Name(), Manufacturer: source.Manufacturer()}
	}
	return infos, nil
}

// OpenOutput creates an output port bound to destination index.
func (d *Driver) OpenOutput(index int) (contracts.Output, error) {
	dests, err := coremidi.AllDestinations()
	if err != nil {
		return nil, fmt.Errorf("error retrieving MIDI destinations: %w", err)
	}
	if index < 0 || index >= len(dests) {
		return nil, fmt.Errorf("%w: destination %d", ErrInvalidEndpoint, index)
	}

	port, err := coremidi.NewOutputPort(d.client, "midiprobe out")
	if err != nil {
		d.logger.Error(ErrCreateOutputPort.Error(), d.logger.Field().Error("error", err))
		return nil, fmt.Errorf("%w: %v", ErrCreateOutputPort, err)
	}
	d.logger.Debug("output port opened",
		d.logger.Field().Int("index", index),
		d.logger.Field().String("name", dests[index].Name()))
	return &output{port: port, dest: dests[index]}, nil
}

// OpenInput connects handler to source index. CoreMIDI calls the read
// procedure from its own high-priority thread, one packet list at a time.
func (d *Driver) OpenInput(index int, handler contracts.PacketHandler) (contracts.Input, error) {
	sources, err := coremidi.AllSources()
	if err != nil {
		return nil, fmt.Errorf("error retrieving MIDI sources: %w", err)
	}
	if index < 0 || index >= len(sources) {
		return nil, fmt.Errorf("%w: source %d", ErrInvalidEndpoint, index)
	}

	in := &input{handler: handler, clock: d.clock}
	port, err := coremidi.NewInputPort(d.client, "midiprobe in", in.readProc)
	if err != nil {
		d.logger.Error(ErrCreateInputPort.Error(), d.logger.Field().Error("error", err))
		return nil, fmt.Errorf("%w: %v", ErrCreateInputPort, err)
	}
	conn, err := port.Connect(sources[index])
	if err != nil {
		d.logger.Error(ErrMIDIConnectionError.Error(), d.logger.Field().Error("error", err))
		return nil, fmt.Errorf("%w: %v", ErrMIDIConnectionError, err)
	}
	in.conn = conn
	d.logger.Debug("input connected",
		d.logger.Field().Int("index", index),
		d.logger.Field().String("name", sources[index].Name()))
	return in, nil
}

// Close is a no-op: go-coremidi exposes no client disposal, so the client
// lives until process exit.
func (d *Driver) Close() error { return nil }

type output struct {
	port   coremidi.OutputPort
	dest   coremidi.Destination
	closed atomic.Bool
}

func (o *output) Send(msg contracts.ShortMessage, at contracts.HostTime) error {
	if o.closed.Load() {
		return ErrOutputClosed
	}
	packet := coremidi.NewPacket(msg.Bytes(), uint64(at))
	return packet.Send(&o.port, &o.dest)
}

func (o *output) Scheduled() bool { return true }

// Close stops further sends. go-coremidi has no MIDIPortDispose binding, so
// the port itself is released with the client at process exit.
func (o *output) Close() error {
	o.closed.Store(true)
	return nil
}

type input struct {
	handler contracts.PacketHandler
	clock   contracts.Clock
	conn    internalPortConnection

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

func (in *input) readProc(source coremidi.Source, packet coremidi.Packet) {
	arrival := in.clock.Now()

	in.mu.Lock()
	if in.stopped {
		in.mu.Unlock()
		return
	}
	in.wg.Add(1)
	in.mu.Unlock()
	defer in.wg.Done()

	in.handler(contracts.Packet{
		Data:      packet.Data,
		Timestamp: contracts.HostTime(packet.TimeStamp),
		Arrival:   arrival,
	})
}

// Close disconnects the source and waits for a callback already running.
// The input port is not disposed; go-coremidi has no binding for it.
func (in *input) Close() error {
	in.mu.Lock()
	if in.stopped {
		in.mu.Unlock()
		return nil
	}
	in.stopped = true
	in.mu.Unlock()

	if in.conn != nil {
		in.conn.Disconnect()
	}
	in.wg.Wait()
	return nil
}
