package contracts

// MIDICommand is the high nibble of a channel voice status byte.
type MIDICommand byte

const (
	// NoteOff is the MIDI command for a Note Off event (0x80).
	NoteOff MIDICommand = 0x80
	// NoteOn is the MIDI command for a Note On event (0x90).
	NoteOn MIDICommand = 0x90
	// ControlChange is the MIDI command for a Control Change event (0xB0).
	ControlChange MIDICommand = 0xB0
	// ProgramChange is the MIDI command for a Program Change event (0xC0).
	ProgramChange MIDICommand = 0xC0
	// ChannelPressure is the MIDI command for a Channel Pressure event (0xD0).
	ChannelPressure MIDICommand = 0xD0
)

// ShortMessage is a MIDI message of at most three bytes, held by value so it
// can be built and sent without heap allocation.
type ShortMessage struct {
	Data [3]byte
	Len  uint8
}

// Status returns the status byte.
func (m ShortMessage) Status() byte { return m.Data[0] }

// Command returns the high nibble of the status byte.
func (m ShortMessage) Command() MIDICommand { return MIDICommand(m.Data[0] & 0xF0) }

// Channel returns the 1-based channel of a channel voice message.
func (m ShortMessage) Channel() int { return int(m.Data[0]&0x0F) + 1 }

// Bytes returns the encoded message.
func (m *ShortMessage) Bytes() []byte { return m.Data[:m.Len] }

// Packet is one unit delivered by an input port.
type Packet struct {
	Data      []byte   // Raw bytes; may hold several messages. Only valid during the callback.
	Timestamp HostTime // Driver timestamp, zero when the driver supplied none.
	Arrival   HostTime // Host time at which the callback started handling the packet.
}

// PacketHandler receives packets from an input. Calls are serialized by the driver.
type PacketHandler func(packet Packet)

// Output sends short messages to a destination.
type Output interface {
	// Send queues msg for delivery at the given host time.
	Send(msg ShortMessage, at HostTime) error
	// Scheduled reports whether the transport honours the timestamp passed to
	// Send. When false, messages leave as soon as Send is called.
	Scheduled() bool
	Close() error
}

// Input is a connection to a source delivering packets to a PacketHandler.
type Input interface {
	// Close disconnects from the source and waits for in-flight callbacks.
	Close() error
}

// Driver defines the platform MIDI operations used by the tools.
type Driver interface {
	Name() string                                               // Backend name.
	Clock() Clock                                               // Clock matching the driver's timestamps.
	Destinations() ([]EndpointInfo, error)                      // Lists output endpoints.
	Sources() ([]EndpointInfo, error)                           // Lists input endpoints.
	OpenOutput(index int) (Output, error)                       // Opens an output to a destination.
	OpenInput(index int, handler PacketHandler) (Input, error) // Connects a handler to a source.
	Close() error                                               // Releases the driver client.
}
