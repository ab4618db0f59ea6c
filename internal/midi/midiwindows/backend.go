// Package midiwindows implements contracts.Driver on the Windows multimedia
// MIDI API (winmm). winmm cannot queue future events, so outputs are
// unscheduled and the sender waits for each target itself.
package midiwindows

// BackendName selects this driver in sdk/midi.
const BackendName = "winmm"
