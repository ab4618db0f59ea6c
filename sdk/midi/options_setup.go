package midi

import (
	"github.com/leandrodaf/midiprobe/internal/logger"
	"github.com/leandrodaf/midiprobe/internal/midi/midiserial"
	"github.com/leandrodaf/midiprobe/sdk/contracts"
)

// DefaultClientName names the CoreMIDI client when none is configured.
const DefaultClientName = "midiprobe"

// applyDefaultOptions sets default values for ClientOptions if not explicitly provided.
func applyDefaultOptions(opts ...contracts.Option) (contracts.ClientOptions, error) {
	options := &contracts.ClientOptions{}
	for _, opt := range opts {
		opt(options)
	}

	if options.Logger == nil {
		options.Logger = logger.NewZapLogger()
	}
	if options.CoreMIDIConfig == nil {
		options.CoreMIDIConfig = &contracts.CoreMIDIConfig{ClientName: DefaultClientName}
	}
	if options.SerialConfig == nil {
		options.SerialConfig = &contracts.SerialConfig{BaudRate: midiserial.DefaultBaudRate}
	}

	options.Logger.SetLevel(options.LogLevel)
	if options.LogFilePath != "" {
		if err := options.Logger.SetDestination(contracts.FileLog, options.LogFilePath); err != nil {
			return contracts.ClientOptions{}, err
		}
	}
	return *options, nil
}
