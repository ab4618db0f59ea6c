// Package midirtmidi implements contracts.Driver on gomidi's rtmidi driver
// (ALSA on Linux). rtmidi sends immediately, so outputs are unscheduled.
package midirtmidi

// BackendName selects this driver in sdk/midi.
const BackendName = "rtmidi"
