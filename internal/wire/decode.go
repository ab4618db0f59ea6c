package wire

import "github.com/leandrodaf/midiprobe/sdk/contracts"

const (
	statusSysEx    = 0xF0
	statusEndSysEx = 0xF7
)

// Decoder walks a buffer holding zero or more MIDI messages. It never fails:
// stray data bytes and undefined statuses are skipped, system exclusive runs
// are consumed, and a message cut short by the end of the buffer ends the scan.
//
//	d := wire.NewDecoder(packet.Data)
//	for d.Next() {
//		msg := d.Message()
//	}
type Decoder struct {
	data []byte
	pos  int
	msg  contracts.ShortMessage
}

// NewDecoder returns a decoder over data. The decoder does not copy data.
func NewDecoder(data []byte) Decoder {
	return Decoder{data: data}
}

// Reset points the decoder at a new buffer.
func (d *Decoder) Reset(data []byte) {
	d.data = data
	d.pos = 0
	d.msg = contracts.ShortMessage{}
}

// Next advances to the next complete channel voice or fixed-length system
// message. It returns false when the buffer is exhausted or truncated.
func (d *Decoder) Next() bool {
	for d.pos < len(d.data) {
		status := d.data[d.pos]
		if status&0x80 == 0 {
			d.pos++
			continue
		}

		if status == statusSysEx {
			d.skipSysEx()
			continue
		}

		var n int
		if status > statusSysEx {
			n = systemMessageLength(status)
			if n == 0 {
				d.pos++
				continue
			}
		} else {
			n = channelMessageLength(status)
		}

		if d.pos+n > len(d.data) {
			d.pos = len(d.data)
			return false
		}
		d.msg = contracts.ShortMessage{Len: uint8(n)}
		copy(d.msg.Data[:], d.data[d.pos:d.pos+n])
		d.pos += n
		return true
	}
	return false
}

// Message returns the message found by the last successful Next.
func (d *Decoder) Message() contracts.ShortMessage {
	return d.msg
}

func (d *Decoder) skipSysEx() {
	d.pos++
	for d.pos < len(d.data) && d.data[d.pos] != statusEndSysEx {
		d.pos++
	}
	if d.pos < len(d.data) {
		d.pos++
	}
}

// MessageLength returns the encoded length of a message starting with status,
// or 0 when status is a data byte, starts a system exclusive run or is undefined.
func MessageLength(status byte) int {
	switch {
	case status&0x80 == 0, status == statusSysEx:
		return 0
	case status > statusSysEx:
		return systemMessageLength(status)
	}
	return channelMessageLength(status)
}

func channelMessageLength(status byte) int {
	switch contracts.MIDICommand(status & 0xF0) {
	case contracts.ProgramChange, contracts.ChannelPressure:
		return 2
	}
	return 3
}

// systemMessageLength returns 0 for undefined statuses, which are skipped as one byte.
func systemMessageLength(status byte) int {
	switch status {
	case 0xF1, 0xF3:
		return 2
	case 0xF2:
		return 3
	case 0xF6, 0xF8, 0xFA, 0xFB, 0xFC, 0xFE, 0xFF:
		return 1
	}
	return 0
}

// IsQualifyingNoteOn reports whether msg is a sounding note-on on the given
// 1-based channel. Velocity 0 note-ons are note-offs and do not qualify.
func IsQualifyingNoteOn(msg contracts.ShortMessage, channel int) bool {
	return msg.Len == 3 &&
		msg.Command() == contracts.NoteOn &&
		msg.Channel() == channel &&
		msg.Data[2] > 0
}
