// Package mididarwin implements contracts.Driver on CoreMIDI.
package mididarwin

// BackendName selects this driver in sdk/midi.
const BackendName = "coremidi"
