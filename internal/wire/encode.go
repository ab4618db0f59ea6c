// Package wire encodes outgoing short messages and decodes inbound MIDI byte streams.
package wire

import "github.com/leandrodaf/midiprobe/sdk/contracts"

// Controller numbers used by the panic sequence.
const (
	ControllerAllSoundOff = 120
	ControllerAllNotesOff = 123
)

func channelMessage(cmd contracts.MIDICommand, channel int, data1, data2 byte) contracts.ShortMessage {
	return contracts.ShortMessage{
		Data: [3]byte{byte(cmd) | byte(channel-1)&0x0F, data1 & 0x7F, data2 & 0x7F},
		Len:  3,
	}
}

// NoteOn builds a note-on for a 1-based channel.
func NoteOn(channel int, note, velocity byte) contracts.ShortMessage {
	return channelMessage(contracts.NoteOn, channel, note, velocity)
}

// NoteOff builds an explicit note-off with release velocity 0.
func NoteOff(channel int, note byte) contracts.ShortMessage {
	return channelMessage(contracts.NoteOff, channel, note, 0)
}

// ControlChange builds a control change message.
func ControlChange(channel int, controller, value byte) contracts.ShortMessage {
	return channelMessage(contracts.ControlChange, channel, controller, value)
}

// AllNotesOff builds CC 123 with value 0.
func AllNotesOff(channel int) contracts.ShortMessage {
	return ControlChange(channel, ControllerAllNotesOff, 0)
}

// AllSoundOff builds CC 120 with value 0.
func AllSoundOff(channel int) contracts.ShortMessage {
	return ControlChange(channel, ControllerAllSoundOff, 0)
}
