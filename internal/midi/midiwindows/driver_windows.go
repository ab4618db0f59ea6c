//go:build windows
// +build windows

package midiwindows

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"unsafe"

	"github.com/leandrodaf/midiprobe/internal/clock"
	"github.com/leandrodaf/midiprobe/sdk/contracts"
	"go.uber.org/multierr"
	"golang.org/x/sys/windows"
)

// Type definitions for MIDI handles
type (
	HMIDIIN  windows.Handle
	HMIDIOUT windows.Handle
)

// Constants for callback flags
const (
	CALLBACK_FUNCTION = 0x00030000 // Indicates that the callback is a function
	MIDI_IO_STATUS    = 0x00000020 // MIDI input/output status
)

// Constants for MIDI message types
const (
	MIM_OPEN      = 0x3C1 // MIDI device opened
	MIM_CLOSE     = 0x3C2 // MIDI device closed
	MIM_DATA      = 0x3C3 // MIDI data received
	MIM_ERROR     = 0x3C5 // MIDI error
	MIM_LONGERROR = 0x3C6 // Long MIDI error
	MIM_MOREDATA  = 0x3CC // More MIDI data available
)

// ErrInvalidEndpoint is returned for an index outside the device list.
var ErrInvalidEndpoint = errors.New("invalid MIDI endpoint")

type midiInCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	dwSupport      uint32
}

type midiOutCaps struct {
	wMid           uint16
	wPid           uint16
	vDriverVersion uint32
	szPname        [32]uint16
	wTechnology    uint16
	wVoices        uint16
	wNotes         uint16
	wChannelMask   uint16
	dwSupport      uint32
}

// Load the winmm.dll library and required functions
var (
	winmm                 = windows.NewLazySystemDLL("winmm.dll")
	procMidiInGetNumDevs  = winmm.NewProc("midiInGetNumDevs")
	procMidiInGetDevCaps  = winmm.NewProc("midiInGetDevCapsW")
	procMidiInOpen        = winmm.NewProc("midiInOpen")
	procMidiInStart       = winmm.NewProc("midiInStart")
	procMidiInStop        = winmm.NewProc("midiInStop")
	procMidiInReset       = winmm.NewProc("midiInReset")
	procMidiInClose       = winmm.NewProc("midiInClose")
	procMidiOutGetNumDevs = winmm.NewProc("midiOutGetNumDevs")
	procMidiOutGetDevCaps = winmm.NewProc("midiOutGetDevCapsW")
	procMidiOutOpen       = winmm.NewProc("midiOutOpen")
	procMidiOutShortMsg   = winmm.NewProc("midiOutShortMsg")
	procMidiOutReset      = winmm.NewProc("midiOutReset")
	procMidiOutClose      = winmm.NewProc("midiOutClose")
)

// winmm keeps a raw instance word per open device. Inputs are registered
// here under an id so no Go pointer crosses into the driver.
var (
	inputCallback = windows.NewCallback(midiInCallback)
	inputs        sync.Map // uintptr -> *input
	nextInputID   atomic.Uintptr
)

// Driver enumerates and opens winmm devices.
type Driver struct {
	logger contracts.Logger
	clock  contracts.Clock
}

// NewDriver returns a winmm driver timed by the QueryPerformanceCounter clock.
func NewDriver(options *contracts.ClientOptions) (contracts.Driver, error) {
	clk := options.Clock
	if clk == nil {
		var err error
		if clk, err = clock.New(); err != nil {
			return nil, err
		}
	}
	if err := winmm.Load(); err != nil {
		return nil, fmt.Errorf("load winmm.dll: %w", err)
	}
	options.Logger.Debug("winmm driver created")
	return &Driver{logger: options.Logger, clock: clk}, nil
}

func (d *Driver) Name() string           { return BackendName }
func (d *Driver) Clock() contracts.Clock { return d.clock }

// Destinations lists MIDI output devices.
func (d *Driver) Destinations() ([]contracts.EndpointInfo, error) {
	r0, _, _ := procMidiOutGetNumDevs.Call()
	n := uint32(r0)
	infos := make([]contracts.EndpointInfo, 0, n)
	for i := uint32(0); i < n; i++ {
		var caps midiOutCaps
		r1, _, _ := procMidiOutGetDevCaps.Call(uintptr(i), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
		if r1 != 0 {
			d.logger.Warn("failed to read MIDI output capabilities", d.logger.Field().Int("index", int(i)))
			continue
		}
		infos = append(infos, contracts.EndpointInfo{
			Index:        int(i),
			Name:         windows.UTF16ToString(caps.szPname[:]),
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		})
	}
	return infos, nil
}

// Sources lists MIDI input devices.
func (d *Driver) Sources() ([]contracts.EndpointInfo, error) {
	r0, _, _ := procMidiInGetNumDevs.Call()
	n := uint32(r0)
	infos := make([]contracts.EndpointInfo, 0, n)
	for i := uint32(0); i < n; i++ {
		var caps midiInCaps
		r1, _, _ := procMidiInGetDevCaps.Call(uintptr(i), uintptr(unsafe.Pointer(&caps)), unsafe.Sizeof(caps))
		if r1 != 0 {
			d.logger.Warn("failed to read MIDI input capabilities", d.logger.Field().Int("index", int(i)))
			continue
		}
		infos = append(infos, contracts.EndpointInfo{
			Index:        int(i),
			Name:         windows.UTF16ToString(caps.szPname[:]),
			Manufacturer: fmt.Sprintf("MID: %d PID: %d", caps.wMid, caps.wPid),
		})
	}
	return infos, nil
}

// OpenOutput opens output device index.
func (d *Driver) OpenOutput(index int) (contracts.Output, error) {
	var handle HMIDIOUT
	r1, _, err := procMidiOutOpen.Call(uintptr(unsafe.Pointer(&handle)), uintptr(index), 0, 0, 0)
	if r1 != 0 {
		d.logger.Error("failed to open MIDI output", d.logger.Field().Int("index", index), d.logger.Field().Error("error", err))
		return nil, fmt.Errorf("%w: open output %d: mmresult %d", ErrInvalidEndpoint, index, r1)
	}
	return &output{handle: handle}, nil
}

// OpenInput opens input device index and starts delivering to handler.
// winmm stamps each message in milliseconds since midiInStart; the stamp is
// rebased onto the host clock read right before starting.
func (d *Driver) OpenInput(index int, handler contracts.PacketHandler) (contracts.Input, error) {
	in := &input{handler: handler, clock: d.clock, logger: d.logger, id: nextInputID.Add(1)}
	inputs.Store(in.id, in)

	r1, _, err := procMidiInOpen.Call(
		uintptr(unsafe.Pointer(&in.handle)),
		uintptr(index),
		inputCallback,
		in.id,
		uintptr(CALLBACK_FUNCTION|MIDI_IO_STATUS),
	)
	if r1 != 0 {
		inputs.Delete(in.id)
		d.logger.Error("failed to open MIDI input", d.logger.Field().Int("index", index), d.logger.Field().Error("error", err))
		return nil, fmt.Errorf("%w: open input %d: mmresult %d", ErrInvalidEndpoint, index, r1)
	}

	in.anchor = d.clock.Now()
	if r1, _, err = procMidiInStart.Call(uintptr(in.handle)); r1 != 0 {
		cerr := in.Close()
		return nil, multierr.Append(fmt.Errorf("start MIDI input %d: %v", index, err), cerr)
	}
	d.logger.Debug("MIDI input started", d.logger.Field().Int("index", index))
	return in, nil
}

// Close has nothing to release; devices are closed individually.
func (d *Driver) Close() error { return nil }

type output struct {
	mu     sync.Mutex
	handle HMIDIOUT
}

func (o *output) Send(msg contracts.ShortMessage, _ contracts.HostTime) error {
	word := uint32(msg.Data[0]) | uint32(msg.Data[1])<<8 | uint32(msg.Data[2])<<16
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.handle == 0 {
		return errors.New("MIDI output closed")
	}
	if r1, _, err := procMidiOutShortMsg.Call(uintptr(o.handle), uintptr(word)); r1 != 0 {
		return fmt.Errorf("midiOutShortMsg: mmresult %d: %v", r1, err)
	}
	return nil
}

func (o *output) Scheduled() bool { return false }

func (o *output) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.handle == 0 {
		return nil
	}
	var err error
	if r1, _, e := procMidiOutReset.Call(uintptr(o.handle)); r1 != 0 {
		err = multierr.Append(err, fmt.Errorf("midiOutReset: %v", e))
	}
	if r1, _, e := procMidiOutClose.Call(uintptr(o.handle)); r1 != 0 {
		err = multierr.Append(err, fmt.Errorf("midiOutClose: %v", e))
	}
	o.handle = 0
	return err
}

type input struct {
	id      uintptr
	handle  HMIDIIN
	handler contracts.PacketHandler
	clock   contracts.Clock
	logger  contracts.Logger
	anchor  contracts.HostTime
	buf     [3]byte

	mu      sync.Mutex
	stopped bool
	wg      sync.WaitGroup
}

// midiInCallback runs on the winmm driver thread, one message at a time per device.
func midiInCallback(hMidiIn uintptr, wMsg uint32, dwInstance uintptr, dwParam1 uintptr, dwParam2 uintptr) uintptr {
	v, ok := inputs.Load(dwInstance)
	if !ok {
		return 0
	}
	in := v.(*input)

	switch wMsg {
	case MIM_DATA, MIM_MOREDATA:
		in.deliver(uint32(dwParam1), uint32(dwParam2))
	case MIM_ERROR, MIM_LONGERROR:
		in.logger.Warn("MIDI input error", in.logger.Field().Uint64("msg", uint64(wMsg)))
	case MIM_OPEN, MIM_CLOSE:
		in.logger.Debug("MIDI input state", in.logger.Field().Uint64("msg", uint64(wMsg)))
	}
	return 0
}

func (in *input) deliver(word, elapsedMs uint32) {
	arrival := in.clock.Now()

	in.mu.Lock()
	if in.stopped {
		in.mu.Unlock()
		return
	}
	in.wg.Add(1)
	in.mu.Unlock()
	defer in.wg.Done()

	in.buf[0] = byte(word)
	in.buf[1] = byte(word >> 8)
	in.buf[2] = byte(word >> 16)
	tb := in.clock.Timebase()
	in.handler(contracts.Packet{
		Data:      in.buf[:],
		Timestamp: in.anchor + tb.FromNanos(uint64(elapsedMs)*1_000_000),
		Arrival:   arrival,
	})
}

// Close stops the device and waits for a callback already running.
func (in *input) Close() error {
	in.mu.Lock()
	if in.stopped {
		in.mu.Unlock()
		return nil
	}
	in.stopped = true
	in.mu.Unlock()

	var err error
	if r1, _, e := procMidiInStop.Call(uintptr(in.handle)); r1 != 0 {
		err = multierr.Append(err, fmt.Errorf("midiInStop: %v", e))
	}
	if r1, _, e := procMidiInReset.Call(uintptr(in.handle)); r1 != 0 {
		err = multierr.Append(err, fmt.Errorf("midiInReset: %v", e))
	}
	if r1, _, e := procMidiInClose.Call(uintptr(in.handle)); r1 != 0 {
		err = multierr.Append(err, fmt.Errorf("midiInClose: %v", e))
	}
	in.wg.Wait()
	inputs.Delete(in.id)
	return err
}
