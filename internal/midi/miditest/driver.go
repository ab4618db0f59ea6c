// Package miditest provides an in-memory contracts.Driver for tests.
package miditest

import (
	"errors"
	"fmt"
	"sync"

	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

// ErrClosed is returned by operations on a closed driver, output or input.
var ErrClosed = errors.New("miditest: closed")

// Sent is one message recorded by an Output.
type Sent struct {
	Msg contracts.ShortMessage
	At  contracts.HostTime
}

// Driver is an in-memory driver whose endpoints are plain names.
type Driver struct {
	mu           sync.Mutex
	clock        contracts.Clock
	destinations []string
	sources      []string
	outputs      []*Output
	inputs       []*Input
	closed       bool

	// Unscheduled makes outputs report Scheduled() == false.
	Unscheduled bool
	// FailAfter makes every output fail sends once it has recorded that many
	// messages. Zero disables failures.
	FailAfter int
}

// NewDriver returns a driver exposing the given endpoint names.
func NewDriver(clock contracts.Clock, destinations, sources []string) *Driver {
	return &Driver{clock: clock, destinations: destinations, sources: sources}
}

func (d *Driver) Name() string           { return "miditest" }
func (d *Driver) Clock() contracts.Clock { return d.clock }

func (d *Driver) Destinations() ([]contracts.EndpointInfo, error) {
	return infos(d.destinations), nil
}

func (d *Driver) Sources() ([]contracts.EndpointInfo, error) {
	return infos(d.sources), nil
}

func infos(names []string) []contracts.EndpointInfo {
	out := make([]contracts.EndpointInfo, len(names))
	for i, n := range names {
		out[i] = contracts.EndpointInfo{Index: i, Name: n, Manufacturer: "miditest", UniqueID: int32(i + 1)}
	}
	return out
}

func (d *Driver) OpenOutput(index int) (contracts.Output, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	if index < 0 || index >= len(d.destinations) {
		return nil, fmt.Errorf("miditest: destination %d does not exist", index)
	}
	o := &Output{scheduled: !d.Unscheduled, failAfter: d.FailAfter}
	d.outputs = append(d.outputs, o)
	return o, nil
}

func (d *Driver) OpenInput(index int, handler contracts.PacketHandler) (contracts.Input, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return nil, ErrClosed
	}
	if index < 0 || index >= len(d.sources) {
		return nil, fmt.Errorf("miditest: source %d does not exist", index)
	}
	in := &Input{handler: handler}
	d.inputs = append(d.inputs, in)
	return in, nil
}

func (d *Driver) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	return nil
}

// Closed reports whether Close was called.
func (d *Driver) Closed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.closed
}

// Outputs returns the outputs opened so far.
func (d *Driver) Outputs() []*Output {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Output(nil), d.outputs...)
}

// Inputs returns the inputs opened so far.
func (d *Driver) Inputs() []*Input {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]*Input(nil), d.inputs...)
}

// Output records every message it is asked to send.
type Output struct {
	mu        sync.Mutex
	scheduled bool
	failAfter int
	sent      []Sent
	closed    bool
}

func (o *Output) Send(msg contracts.ShortMessage, at contracts.HostTime) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed {
		return ErrClosed
	}
	if o.failAfter > 0 && len(o.sent) >= o.failAfter {
		return errors.New("miditest: send failed")
	}
	o.sent = append(o.sent, Sent{Msg: msg, At: at})
	return nil
}

func (o *Output) Scheduled() bool { return o.scheduled }

func (o *Output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closed = true
	return nil
}

// Sent returns a copy of the recorded messages.
func (o *Output) Sent() []Sent {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]Sent(nil), o.sent...)
}

// Input hands injected packets to its handler on the caller's goroutine.
type Input struct {
	mu       sync.Mutex
	handler  contracts.PacketHandler
	closed   bool
	inflight sync.WaitGroup
}

// Deliver calls the handler with packet unless the input is closed.
func (in *Input) Deliver(packet contracts.Packet) {
	in.mu.Lock()
	if in.closed {
		in.mu.Unlock()
		return
	}
	in.inflight.Add(1)
	in.mu.Unlock()
	defer in.inflight.Done()
	in.handler(packet)
}

// Close stops deliveries and waits for the ones in flight.
func (in *Input) Close() error {
	in.mu.Lock()
	in.closed = true
	in.mu.Unlock()
	in.inflight.Wait()
	return nil
}

// Closed reports whether Close was called.
func (in *Input) Closed() bool {
	in.mu.Lock()
	defer in.mu.Unlock()
	return in.closed
}
