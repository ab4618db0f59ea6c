package contracts

// Direction tells whether an endpoint receives (destination) or emits (source) MIDI.
type Direction string

const (
	// DestinationEndpoint is an endpoint the host sends MIDI to.
	DestinationEndpoint Direction = "destination"
	// SourceEndpoint is an endpoint the host receives MIDI from.
	SourceEndpoint Direction = "source"
)

// EndpointInfo contains information about a MIDI endpoint.
type EndpointInfo struct {
	Index        int    // Ordinal position in the driver's enumeration.
	Name         string // Display name.
	Manufacturer string // Endpoint manufacturer, empty when unknown.
	UniqueID     int32  // Driver unique id, zero when the driver has none.
}
