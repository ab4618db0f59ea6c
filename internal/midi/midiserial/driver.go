// Package midiserial implements contracts.Driver over a serial line carrying
// raw DIN MIDI, e.g. a USB-UART adapter wired to a MIDI port or a
// microcontroller bridge. The line carries no timestamps: packets are stamped
// on arrival only and outputs are unscheduled.
package midiserial

import (
	"errors"
	"fmt"
	"io"
	"sync"

	"github.com/leandrodaf/midiprobe/internal/clock"
	"github.com/leandrodaf/midiprobe/internal/wire"
	"github.com/leandrodaf/midiprobe/sdk/contracts"
	"go.bug.st/serial"
)

// BackendName selects this driver in sdk/midi.
const BackendName = "serial"

// DefaultBaudRate is the DIN MIDI line speed.
const DefaultBaudRate = 31250

// ErrInvalidEndpoint is returned for an index outside the port list.
var ErrInvalidEndpoint = errors.New("invalid serial port")

// Port is the subset of serial.Port the driver uses.
type Port interface {
	io.ReadWriteCloser
}

// Opener opens a port by device name.
type Opener func(name string, baud int) (Port, error)

// Lister returns the device names of available ports.
type Lister func() ([]string, error)

func openSerial(name string, baud int) (Port, error) {
	return serial.Open(name, &serial.Mode{BaudRate: baud})
}

// Driver enumerates serial ports and opens them as MIDI endpoints. Every port
// is both a destination and a source.
type Driver struct {
	logger contracts.Logger
	clock  contracts.Clock
	baud   int
	open   Opener
	list   Lister
}

// NewDriver returns a driver on the system serial ports.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	clk := options.Clock
	if clk == nil {
		var err error
		if clk, err = clock.New(); err != nil {
			return nil, err
		}
	}
	baud := DefaultBaudRate
	if options.SerialConfig != nil && options.SerialConfig.BaudRate > 0 {
		baud = options.SerialConfig.BaudRate
	}
	return New(clk, baud, openSerial, serial.GetPortsList, options.Logger), nil
}

// New returns a driver using the given port access functions.
func New(clk contracts.Clock, baud int, open Opener, list Lister, logger contracts.Logger) *Driver {
	return &Driver{logger: logger, clock: clk, baud: baud, open: open, list: list}
}

func (d *Driver) Name() string           { return BackendName }
func (d *Driver) Clock() contracts.Clock { return d.clock }

func (d *Driver) endpoints() ([]contracts.EndpointInfo, error) {
	names, err := d.list()
	if err != nil {
		return nil, fmt.Errorf("list serial ports: %w", err)
	}
	infos := make([]contracts.EndpointInfo, len(names))
	for i, name := range names {
		infos[i] = contracts.EndpointInfo{Index: i, Name: name, Manufacturer: "serial"}
	}
	return infos, nil
}

func (d *Driver) Destinations() ([]contracts.EndpointInfo, error) { return d.endpoints() }
func (d *Driver) Sources() ([]contracts.EndpointInfo, error)      { return d.endpoints() }

func (d *Driver) openIndex(index int) (Port, string, error) {
	names, err := d.list()
	if err != nil {
		return nil, "", fmt.Errorf("list serial ports: %w", err)
	}
	if index < 0 || index >= len(names) {
		return nil, "", fmt.Errorf("%w: %d", ErrInvalidEndpoint, index)
	}
	name := names[index]
	port, err := d.open(name, d.baud)
	if err != nil {
		d.logger.Error("serial: failed to open port",
			d.logger.Field().String("device", name),
			d.logger.Field().Int("baud", d.baud),
			d.logger.Field().Error("error", err))
		return nil, "", fmt.Errorf("open %s: %w", name, err)
	}
	d.logger.Debug("serial: port opened", d.logger.Field().String("device", name), d.logger.Field().Int("baud", d.baud))
	return port, name, nil
}

func (d *Driver) OpenOutput(index int) (contracts.Output, error) {
	port, _, err := d.openIndex(index)
	if err != nil {
		return nil, err
	}
	return &output{port: port}, nil
}

// OpenInput starts a reader goroutine on port index. It is the only caller of handler.
func (d *Driver) OpenInput(index int, handler contracts.PacketHandler) (contracts.Input, error) {
	port, name, err := d.openIndex(index)
	if err != nil {
		return nil, err
	}
	in := &input{port: port, handler: handler, clock: d.clock, logger: d.logger, name: name,
		closing: make(chan struct{}), done: make(chan struct{})}
	go in.read()
	return in, nil
}

func (d *Driver) Close() error { return nil }

type output struct {
	mu   sync.Mutex
	port Port
}

func (o *output) Send(msg contracts.ShortMessage, _ contracts.HostTime) error {
	o.mu.Lock()
	defer o.mu.Unlock()
	_, err := o.port.Write(msg.Bytes())
	return err
}

func (o *output) Scheduled() bool { return false }

func (o *output) Close() error { return o.port.Close() }

type input struct {
	port    Port
	handler contracts.PacketHandler
	clock   contracts.Clock
	logger  contracts.Logger
	name    string

	closeOnce sync.Once
	closing   chan struct{}
	done      chan struct{}

	msg [3]byte // packet bytes handed to the handler, reused for every message
}

func (in *input) read() {
	defer close(in.done)
	var (
		buf    [256]byte
		framer wire.Framer
	)
	for {
		n, err := in.port.Read(buf[:])
		if n > 0 {
			arrival := in.clock.Now()
			for _, b := range buf[:n] {
				if msg, ok := framer.Feed(b); ok && !in.isClosing() {
					in.deliver(msg, arrival)
				}
			}
		}
		if err != nil {
			if !errors.Is(err, io.EOF) && !in.isClosing() {
				in.logger.Warn("serial: read failed", in.logger.Field().String("device", in.name), in.logger.Field().Error("error", err))
			}
			return
		}
	}
}

func (in *input) deliver(msg contracts.ShortMessage, arrival contracts.HostTime) {
	n := copy(in.msg[:], msg.Data[:msg.Len])
	in.handler(contracts.Packet{Data: in.msg[:n], Arrival: arrival})
}

func (in *input) isClosing() bool {
	select {
	case <-in.closing:
		return true
	default:
		return false
	}
}

// Close closes the port, which unblocks the reader, and waits for it to exit.
func (in *input) Close() error {
	var err error
	in.closeOnce.Do(func() {
		close(in.closing)
		err = in.port.Close()
		<-in.done
	})
	return err
}
