package wire

import "github.com/leandrodaf/midiprobe/sdk/contracts"

// Framer reassembles messages from a byte stream whose reads may split them,
// such as a serial DIN line. Real-time bytes (F8 and above) are returned
// immediately even when they interrupt another message. Running status is
// not reconstructed.
type Framer struct {
	msg     contracts.ShortMessage
	want    int
	inSysEx bool
}

// Feed consumes one byte and returns a message once one is complete.
func (f *Framer) Feed(b byte) (contracts.ShortMessage, bool) {
	if b >= 0xF8 {
		if n := systemMessageLength(b); n == 1 {
			return contracts.ShortMessage{Data: [3]byte{b}, Len: 1}, true
		}
		return contracts.ShortMessage{}, false
	}

	if b&0x80 != 0 {
		f.inSysEx = b == statusSysEx
		f.want = MessageLength(b)
		f.msg = contracts.ShortMessage{}
		if f.want == 0 {
			return contracts.ShortMessage{}, false
		}
		f.msg.Data[0] = b
		f.msg.Len = 1
		return f.complete()
	}

	if f.inSysEx || f.want == 0 {
		return contracts.ShortMessage{}, false
	}
	f.msg.Data[f.msg.Len] = b
	f.msg.Len++
	return f.complete()
}

func (f *Framer) complete() (contracts.ShortMessage, bool) {
	if int(f.msg.Len) < f.want {
		return contracts.ShortMessage{}, false
	}
	f.want = 0
	return f.msg, true
}
