package contracts

// CoreMIDIConfig holds configuration for CoreMIDI.
type CoreMIDIConfig struct {
	ClientName string // Name of the MIDI client.
}

// SerialConfig holds configuration for the serial backend.
type SerialConfig struct {
	BaudRate int // Line speed; DIN MIDI runs at 31250.
}

// ClientOptions defines the configuration options for a MIDI driver.
type ClientOptions struct {
	Logger         Logger          // Logger for logging events and errors.
	LogLevel       LogLevel        // Level of logging to use.
	LogFilePath    string          // File path for logging if file logging is enabled.
	Backend        string          // Backend name; empty selects the platform default.
	Clock          Clock           // Clock override; nil selects the platform clock.
	CoreMIDIConfig *CoreMIDIConfig // Configuration specific to CoreMIDI.
	SerialConfig   *SerialConfig   // Configuration specific to the serial backend.
}

// Option is a function that modifies ClientOptions.
type Option func(*ClientOptions)

// WithLogger sets the logger for the MIDI driver.
func WithLogger(l Logger) Option {
	return func(opts *ClientOptions) {
		opts.Logger = l
	}
}

// WithLogLevel sets the logging level for the MIDI driver.
func WithLogLevel(level LogLevel) Option {
	return func(opts *ClientOptions) {
		opts.LogLevel = level
	}
}

// WithLogFile directs driver logs to a file.
func WithLogFile(path string) Option {
	return func(opts *ClientOptions) {
		opts.LogFilePath = path
	}
}

// WithBackend selects a backend by name.
func WithBackend(name string) Option {
	return func(opts *ClientOptions) {
		opts.Backend = name
	}
}

// WithClock replaces the platform clock.
func WithClock(c Clock) Option {
	return func(opts *ClientOptions) {
		opts.Clock = c
	}
}

// WithCoreMIDIConfig sets the CoreMIDI configuration for the MIDI driver.
func WithCoreMIDIConfig(config CoreMIDIConfig) Option {
	return func(opts *ClientOptions) {
		opts.CoreMIDIConfig = &config
	}
}

// WithSerialConfig sets the serial backend configuration.
func WithSerialConfig(config SerialConfig) Option {
	return func(opts *ClientOptions) {
		opts.SerialConfig = &config
	}
}
