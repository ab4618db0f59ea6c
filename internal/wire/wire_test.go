package wire

import (
	"bytes"
	"testing"

	"github.com/leandrodaf/midiprobe/sdk/contracts"
	"gitlab.com/gomidi/midi/v2"
)

func TestEncoderMatchesGomidi(t *testing.T) {
	tests := []struct {
		name string
		got  contracts.ShortMessage
		want midi.Message
	}{
		{name: "note on ch1", got: NoteOn(1, 60, 100), want: midi.NoteOn(0, 60, 100)},
		{name: "note on ch16", got: NoteOn(16, 127, 1), want: midi.NoteOn(15, 127, 1)},
		{name: "note off", got: NoteOff(3, 64), want: midi.NoteOff(2, 64)},
		{name: "all notes off", got: AllNotesOff(1), want: midi.ControlChange(0, 123, 0)},
		{name: "all sound off", got: AllSoundOff(10), want: midi.ControlChange(9, 120, 0)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if !bytes.Equal(tt.got.Bytes(), []byte(tt.want)) {
				t.Fatalf("encoded % X, want % X", tt.got.Bytes(), []byte(tt.want))
			}
		})
	}
}

func collect(data []byte) []contracts.ShortMessage {
	var out []contracts.ShortMessage
	d := NewDecoder(data)
	for d.Next() {
		out = append(out, d.Message())
	}
	return out
}

func countQualifying(data []byte, channel int) int {
	n := 0
	d := NewDecoder(data)
	for d.Next() {
		if IsQualifyingNoteOn(d.Message(), channel) {
			n++
		}
	}
	return n
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	on := NoteOn(5, 60, 100)
	off := NoteOff(5, 60)
	var buf []byte
	buf = append(buf, on.Bytes()...)
	buf = append(buf, off.Bytes()...)

	msgs := collect(buf)
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	if !IsQualifyingNoteOn(msgs[0], 5) {
		t.Fatalf("note-on should qualify: %+v", msgs[0])
	}
	if IsQualifyingNoteOn(msgs[1], 5) {
		t.Fatalf("note-off must not qualify: %+v", msgs[1])
	}
	if got := countQualifying(buf, 5); got != 1 {
		t.Fatalf("expected 1 qualifying event, got %d", got)
	}
	if got := countQualifying(buf, 6); got != 0 {
		t.Fatalf("other channel must not qualify, got %d", got)
	}
}

func TestVelocityZeroNoteOnIsIgnored(t *testing.T) {
	if got := countQualifying([]byte{0x90, 60, 0}, 1); got != 0 {
		t.Fatalf("velocity 0 note-on counted: %d", got)
	}
}

func TestTruncatedBuffers(t *testing.T) {
	full := []byte{0x90, 60, 100}
	for n := 0; n < len(full); n++ {
		if got := countQualifying(full[:n], 1); got != 0 {
			t.Fatalf("truncated to %d bytes produced %d events", n, got)
		}
	}
	// complete message followed by a partial one
	data := []byte{0x90, 60, 100, 0x90, 61}
	if got := countQualifying(data, 1); got != 1 {
		t.Fatalf("expected only the complete message, got %d", got)
	}
	if got := countQualifying([]byte{0xF2, 0x01}, 1); got != 0 {
		t.Fatalf("truncated song position produced %d events", got)
	}
}

func TestSysExIsSkipped(t *testing.T) {
	data := []byte{0xF0, 0x7E, 0x90, 0x10, 0x20, 0xF7, 0x90, 60, 100}
	if got := countQualifying(data, 1); got != 1 {
		t.Fatalf("expected 1 event after sysex, got %d", got)
	}
	// unterminated sysex swallows the remainder
	if got := countQualifying([]byte{0xF0, 0x01, 0x02}, 1); got != 0 {
		t.Fatalf("unterminated sysex produced %d events", got)
	}
}

func TestSystemMessagesAndStrayBytes(t *testing.T) {
	data := []byte{
		0x3C, 0x40,       // stray data bytes
		0xF8,             // timing clock
		0xF1, 0x10,       // MTC quarter frame
		0xF2, 0x00, 0x10, // song position
		0xF4,             // undefined
		0xC0, 0x05,       // program change
		0xD0, 0x40,       // channel pressure
		0xB0, 0x07, 0x64, // control change
		0x90, 0x3C, 0x40, // note on
	}
	msgs := collect(data)
	wantStatus := []byte{0xF8, 0xF1, 0xF2, 0xC0, 0xD0, 0xB0, 0x90}
	if len(msgs) != len(wantStatus) {
		t.Fatalf("expected %d messages, got %d: %+v", len(wantStatus), len(msgs), msgs)
	}
	for i, s := range wantStatus {
		if msgs[i].Status() != s {
			t.Fatalf("message %d status 0x%X, want 0x%X", i, msgs[i].Status(), s)
		}
	}
	if msgs[3].Len != 2 || msgs[4].Len != 2 {
		t.Fatalf("program change and channel pressure must be 2 bytes")
	}
	if got := countQualifying(data, 1); got != 1 {
		t.Fatalf("expected 1 qualifying event, got %d", got)
	}
}

func TestDecoderReset(t *testing.T) {
	d := NewDecoder([]byte{0x90, 1, 1})
	for d.Next() {
	}
	d.Reset([]byte{0x91, 2, 2})
	if !d.Next() {
		t.Fatalf("expected a message after reset")
	}
	if d.Message().Channel() != 2 {
		t.Fatalf("unexpected channel %d", d.Message().Channel())
	}
}

func TestDecodeDoesNotAllocate(t *testing.T) {
	data := []byte{0xF8, 0x90, 60, 100, 0x80, 60, 0, 0xF0, 1, 2, 0xF7}
	allocs := testing.AllocsPerRun(100, func() {
		countQualifying(data, 1)
	})
	if allocs != 0 {
		t.Fatalf("decoder allocated %.0f times per run", allocs)
	}
}

func TestFramerReassemblesSplitStream(t *testing.T) {
	stream := []byte{
		0x45,             // stray data byte
		0x90, 60,         // note-on split here
		0xF8,             // clock interleaved
		100,              // note-on completes
		0xF0, 1, 2, 0xF7, // sysex dropped
		0xC1, 5,          // program change
		0xF9,             // undefined
		0x80, 60, 0,      // note-off
		0xB0, 123, 0,     // all notes off
		7,                // data after a complete message
	}
	want := [][]byte{
		{0xF8},
		{0x90, 60, 100},
		{0xC1, 5},
		{0x80, 60, 0},
		{0xB0, 123, 0},
	}

	var f Framer
	var got [][]byte
	for _, b := range stream {
		if msg, ok := f.Feed(b); ok {
			got = append(got, append([]byte(nil), msg.Bytes()...))
		}
	}
	if len(got) != len(want) {
		t.Fatalf("got %d messages %v, want %d", len(got), got, len(want))
	}
	for i := range want {
		if !bytes.Equal(got[i], want[i]) {
			t.Fatalf("message %d = % X, want % X", i, got[i], want[i])
		}
	}
}

func TestMessageLength(t *testing.T) {
	tests := map[byte]int{0x00: 0, 0x7F: 0, 0x90: 3, 0xC0: 2, 0xD5: 2, 0xE0: 3, 0xF0: 0, 0xF1: 2, 0xF2: 3, 0xF7: 0, 0xF8: 1, 0xFD: 0}
	for status, want := range tests {
		if got := MessageLength(status); got != want {
			t.Fatalf("MessageLength(%#x) = %d, want %d", status, got, want)
		}
	}
}
